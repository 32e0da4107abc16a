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

func metadataFixture(t *testing.T, infoDict string, encryptDict string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.6\n")
	offs := make(map[int]int)

	offs[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offs[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	offs[3] = buf.Len()
	fmt.Fprintf(&buf, "3 0 obj\n%s\nendobj\n", infoDict)

	xrefOff := buf.Len()
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offs[i], 0)
	}
	trailer := "<< /Size 4 /Root 1 0 R /Info 3 0 R"
	if encryptDict != "" {
		trailer += " /Encrypt " + encryptDict
	}
	trailer += " >>\n"
	buf.WriteString("trailer\n" + trailer)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOff)
	return buf.Bytes()
}

func TestMetadataReadsInfoDictionary(t *testing.T) {
	data := metadataFixture(t, "<< /Title (Report) /Author (Jane) >>", "")
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	md, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Report", md.Title)
	assert.Equal(t, "Jane", md.Author)
}

func TestMetadataFullReportsUnencryptedPermissions(t *testing.T) {
	data := metadataFixture(t, "<< /Title (Report) >>", "")
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	mf, err := r.MetadataFull()
	require.NoError(t, err)
	assert.False(t, mf.Encrypted)
	assert.True(t, mf.AccessPermission.CanPrint)
	assert.True(t, mf.AccessPermission.CanModify)
	assert.Equal(t, "1.6", mf.PDFVersion)
}

func TestNewReaderRejectsEncryptedTrailer(t *testing.T) {
	data := metadataFixture(t, "<< /Title (Report) >>", "<< /Filter /Standard /P 24 >>")
	_, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, UnsupportedFeature, pe.Kind)
}

func TestDecodeAccessBitsDecodesPermissionMask(t *testing.T) {
	// P = 24 sets bit 3 (modify) and bit 4 (extract) but not bit 2 (print).
	ap := decodeAccessBits(24)
	assert.True(t, ap.canModify)
	assert.True(t, ap.extractContent)
	assert.False(t, ap.canPrint)
}

func TestStripXMLTags(t *testing.T) {
	assert.Equal(t, "hello", stripXMLTags("<b>hello</b>"))
}

func TestPreferPicksNonEmpty(t *testing.T) {
	assert.Equal(t, "a", prefer("a", "b"))
	assert.Equal(t, "b", prefer("  ", "b"))
}
