// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPngUpRoundTripRandomMatrices(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for columns := 1; columns <= 64; columns++ {
		for rows := 1; rows <= 64; rows += 7 {
			original := make([]byte, columns*rows)
			rng.Read(original)

			filtered := pngUpFilter(original, columns)
			require.NotNil(t, filtered)

			restored, err := pngUpUnfilter(filtered, columns)
			require.NoError(t, err)
			assert.Equal(t, original, restored)
		}
	}
}

func TestPngUnfilterRejectsUnsupportedTag(t *testing.T) {
	// Row tag 1 is "Sub", which is never accepted.
	data := []byte{1, 0xAB, 0xCD}
	_, err := pngUnfilter(data, 2, 1)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, UnsupportedPredictor, pe.Kind)
}

func TestPngUnfilterNoneAndUp(t *testing.T) {
	// Row 0: None, raw bytes 1,2,3. Row 1: Up, deltas 1,1,1 -> 2,3,4.
	data := []byte{0, 1, 2, 3, 2, 1, 1, 1}
	out, err := pngUnfilter(data, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 2, 3, 4}, out)
}

func TestCheckXrefStreamPredictorAcceptsKnownCodes(t *testing.T) {
	for _, p := range []int64{1, 10, 12} {
		hdr := dict{name("DecodeParms"): dict{name("Predictor"): p}}
		assert.NoError(t, checkXrefStreamPredictor(hdr))
	}
}

func TestCheckXrefStreamPredictorRejectsOthers(t *testing.T) {
	for _, p := range []int64{2, 11, 13, 15} {
		hdr := dict{name("DecodeParms"): dict{name("Predictor"): p}}
		err := checkXrefStreamPredictor(hdr)
		require.Error(t, err)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, UnsupportedPredictor, pe.Kind)
	}
}
