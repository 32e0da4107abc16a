// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteEncoderWinAnsi(t *testing.T) {
	enc := &byteEncoder{&winAnsiEncoding}
	assert.Equal(t, "Hello", enc.Decode("Hello"))
	assert.Equal(t, "€", enc.Decode("\x80"))
}

func TestNopEncoderPassesThrough(t *testing.T) {
	enc := &nopEncoder{}
	assert.Equal(t, "raw", enc.Decode("raw"))
}

func TestCmapFindNextCodespace(t *testing.T) {
	m := &cmap{}
	m.space[1] = []byteRange{{"\x00\x00", "\xff\xff"}}
	code, width := m.findNextCodespace("\x00A")
	assert.Equal(t, 2, width)
	assert.Equal(t, "\x00A", code)
}

func TestCmapDecodeBfchar(t *testing.T) {
	m := &cmap{}
	m.space[0] = []byteRange{{"\x00", "\xff"}}
	m.bfchar = []bfchar{{orig: "\x01", repl: "\x00A"}}
	assert.Equal(t, "A", m.Decode("\x01"))
}

func TestCmapDecodeBfrangeWithString(t *testing.T) {
	m := &cmap{}
	m.space[0] = []byteRange{{"\x00", "\xff"}}
	m.bfrange = []bfrange{{lo: "\x01", hi: "\x05", dst: Value{obj: "\x00A"}}}
	assert.Equal(t, "A", m.Decode("\x01"))
	assert.Equal(t, "C", m.Decode("\x03"))
}

func TestCmapDecodeUnmappedPreservesByte(t *testing.T) {
	m := &cmap{}
	assert.Equal(t, "~", m.Decode("~"))
}

func TestDictEncoderUsesDifferences(t *testing.T) {
	diffs := Value{obj: array{int64(65), name("A"), name("B")}}
	enc := &dictEncoder{diffs}
	assert.Equal(t, "AB", enc.Decode("\x41\x42"))
}

func TestIsSameSentence(t *testing.T) {
	a := Text{Font: "F1", FontSize: 12, Y: 100}
	b := Text{Font: "F1", FontSize: 12, Y: 100.2}
	c := Text{Font: "F1", FontSize: 12, Y: 200}
	assert.True(t, IsSameSentence(a, b))
	assert.False(t, IsSameSentence(a, c))
}
