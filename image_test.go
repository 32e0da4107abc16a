// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imagePageFixture(t *testing.T) []byte {
	t.Helper()
	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	_, err := zw.Write([]byte{0xff, 0x00, 0xff, 0x00})
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	content := "q 100 0 0 100 0 0 cm /Im1 Do Q 0 0 200 300 re"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	offs := make(map[int]int)

	offs[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offs[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offs[3] = buf.Len()
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /XObject << /Im1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	offs[4] = buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Type /XObject /Subtype /Image /Width 2 /Height 2 "+
		"/ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /FlateDecode /Length %d >>\nstream\n", raw.Len())
	buf.Write(raw.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
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

func TestImagesDecodesFlateRasterSamples(t *testing.T) {
	data := imagePageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	imgs, err := r.Page(1).Images()
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, 2, imgs[0].Width)
	assert.Equal(t, 2, imgs[0].Height)
	assert.Equal(t, "DeviceGray", imgs[0].ColorSpace)
	assert.Equal(t, []byte{0xff, 0x00, 0xff, 0x00}, imgs[0].Raw)
	assert.Nil(t, imgs[0].Img)
}

func TestContentReportsImagePlacementAndRect(t *testing.T) {
	data := imagePageFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	content, err := r.Page(1).Content()
	require.NoError(t, err)
	require.Len(t, content.Images, 1)
	assert.Equal(t, "Im1", content.Images[0].Name)
	require.Len(t, content.Rects, 1)
	assert.Equal(t, Rect{Min: Point{0, 0}, Max: Point{200, 300}}, content.Rects[0])
}
