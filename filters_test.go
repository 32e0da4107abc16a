// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnpackBEWidths(t *testing.T) {
	v, ok := unpackBE([]byte{0x01, 0x02})
	assert.True(t, ok)
	assert.Equal(t, int64(0x0102), v)

	_, ok = unpackBE(nil)
	assert.False(t, ok)
}

func TestDecodeASCII85RoundTrip(t *testing.T) {
	// "Man " encodes to "9jqo^" in ASCII85.
	out, err := decodeASCII85(bytes.NewReader([]byte("9jqo^~>")))
	assert.NoError(t, err)
	assert.Equal(t, "Man ", string(out))
}

func TestDecodeASCII85ZGroup(t *testing.T) {
	out, err := decodeASCII85(bytes.NewReader([]byte("z~>")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestDecodeASCIIHex(t *testing.T) {
	out, err := decodeASCIIHex(bytes.NewReader([]byte("48656c6c6f>")))
	assert.NoError(t, err)
	assert.Equal(t, "Hello", string(out))
}

func TestDecodeASCIIHexOddDigitsPadded(t *testing.T) {
	out, err := decodeASCIIHex(bytes.NewReader([]byte("4>")))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x40}, out)
}

func TestDecodePDFDocEncodingBulletException(t *testing.T) {
	assert.Equal(t, "•", decodePDFDocEncoding("\x80"))
	assert.Equal(t, "A", decodePDFDocEncoding("A"))
}
