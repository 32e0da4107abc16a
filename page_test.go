// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textPageFixture builds a one-page document with a Helvetica font and a
// single "Hello" text-showing operator, for exercising Content() and
// GetPlainText() end to end.
func textPageFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	content := "BT /F1 12 Tf 10 20 Td (Hello) Tj ET"
	offs := make(map[int]int)

	offs[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offs[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offs[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	offs[4] = buf.Len()
	buf.WriteString("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica " +
		"/Encoding /WinAnsiEncoding >>\nendobj\n")
	offs[5] = buf.Len()
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content)

	xrefOff := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offs[i], 0)
	}
	buf.WriteString("trailer\n<< /Size 6 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOff)

	return buf.Bytes()
}

func TestPageGetPlainText(t *testing.T) {
	data := textPageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Equal(t, 1, r.NumPage())
	p := r.Page(1)
	require.False(t, p.V.IsNull())

	text, err := p.GetPlainText(nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
}

func TestPageContentReportsTextPosition(t *testing.T) {
	data := textPageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	p := r.Page(1)
	content, err := p.Content()
	require.NoError(t, err)
	require.Len(t, content.Text, 1)
	assert.Equal(t, "Hello", content.Text[0].S)
	assert.Equal(t, float64(10), content.Text[0].X)
	assert.Equal(t, float64(20), content.Text[0].Y)
	assert.Equal(t, "Helvetica", content.Text[0].Font)
}

func TestPageMediaBox(t *testing.T) {
	data := textPageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	box := r.Page(1).MediaBox()
	assert.Equal(t, Rect{Min: Point{0, 0}, Max: Point{612, 792}}, box)
}

func TestPageOutOfRangeReturnsNullPage(t *testing.T) {
	data := textPageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	p := r.Page(99)
	assert.True(t, p.V.IsNull())
}
