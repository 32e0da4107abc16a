// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTokenScalars(t *testing.T) {
	b := newBuffer(strings.NewReader(`123 -45 3.14 /Name true false null (hi) <48656c6c6f>`), 0)

	assert.Equal(t, int64(123), b.readToken())
	assert.Equal(t, int64(-45), b.readToken())
	assert.Equal(t, 3.14, b.readToken())
	assert.Equal(t, name("Name"), b.readToken())
	assert.Equal(t, true, b.readToken())
	assert.Equal(t, false, b.readToken())
	assert.Nil(t, b.readToken())
	assert.Equal(t, "hi", b.readToken())
	assert.Equal(t, "Hello", b.readToken())
}

func TestReadTokenNameEscapes(t *testing.T) {
	b := newBuffer(strings.NewReader(`/A#42C`), 0)
	assert.Equal(t, name("ABC"), b.readToken())
}

func TestReadTokenLiteralStringEscapes(t *testing.T) {
	b := newBuffer(strings.NewReader(`(a\(b\)c\n\101)`), 0)
	assert.Equal(t, "a(b)c\nA", b.readToken())
}

func TestReadTokenDelimiters(t *testing.T) {
	b := newBuffer(strings.NewReader(`<< >> [ ] R obj endobj stream endstream xref trailer startxref`), 0)
	want := []keyword{"<<", ">>", "[", "]", "R", "obj", "endobj", "stream", "endstream", "xref", "trailer", "startxref"}
	for _, w := range want {
		assert.Equal(t, w, b.readToken())
	}
}

func TestUnreadTokenRoundTrip(t *testing.T) {
	b := newBuffer(strings.NewReader(`1 2 3`), 0)
	first := b.readToken()
	second := b.readToken()
	b.unreadToken(second)
	b.unreadToken(first)
	assert.Equal(t, int64(1), b.readToken())
	assert.Equal(t, int64(2), b.readToken())
	assert.Equal(t, int64(3), b.readToken())
}

func TestReadObjectIndirectReference(t *testing.T) {
	b := newBuffer(strings.NewReader(`5 0 R`), 0)
	obj := b.readObject()
	assert.Equal(t, objptr{5, 0}, obj)
}

func TestReadObjectDefinition(t *testing.T) {
	b := newBuffer(strings.NewReader(`7 0 obj << /Type /Catalog /Pages 3 0 R >> endobj`), 0)
	obj := b.readObject()
	od, ok := obj.(objdef)
	require.True(t, ok)
	assert.Equal(t, objptr{7, 0}, od.ptr)
	d, ok := od.obj.(dict)
	require.True(t, ok)
	assert.Equal(t, name("Catalog"), d[name("Type")])
	assert.Equal(t, objptr{3, 0}, d[name("Pages")])
}

func TestReadObjectArrayOfReferences(t *testing.T) {
	b := newBuffer(strings.NewReader(`[1 0 R 2 0 R 3 4 R]`), 0)
	obj := b.readObject()
	a, ok := obj.(array)
	require.True(t, ok)
	require.Len(t, a, 3)
	assert.Equal(t, objptr{1, 0}, a[0])
	assert.Equal(t, objptr{2, 0}, a[1])
	assert.Equal(t, objptr{3, 4}, a[2])
}

func TestReadObjectStreamWithDirectLength(t *testing.T) {
	src := "9 0 obj << /Length 5 >> stream\nhello\nendstream endobj"
	b := newBuffer(strings.NewReader(src), 0)
	obj := b.readObject()
	od, ok := obj.(objdef)
	require.True(t, ok)
	strm, ok := od.obj.(stream)
	require.True(t, ok)
	assert.EqualValues(t, 5, strm.hdr[name("Length")])
	assert.Equal(t, int64(len("9 0 obj << /Length 5 >> stream\n")), strm.offset)
}

func TestReadObjectStreamWithoutLengthScansForEndstream(t *testing.T) {
	src := "9 0 obj << /Filter /FlateDecode >> stream\nabc\nendstream endobj"
	b := newBuffer(strings.NewReader(src), 0)
	obj := b.readObject()
	od, ok := obj.(objdef)
	require.True(t, ok)
	strm, ok := od.obj.(stream)
	require.True(t, ok)
	assert.EqualValues(t, 3, strm.hdr[name("Length")])
}

func TestReadObjectInteger3TupleNotAReference(t *testing.T) {
	b := newBuffer(strings.NewReader(`1 2 3`), 0)
	assert.Equal(t, int64(1), b.readObject())
	assert.Equal(t, int64(2), b.readObject())
	assert.Equal(t, int64(3), b.readObject())
}
