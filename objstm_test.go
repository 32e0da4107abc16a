// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandObjStmDecodesHeaderAndBodies(t *testing.T) {
	data := xrefStreamFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	defs, err := r.expandObjStm(objptr{5, 0})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, uint32(10), defs[0].ptr.id)
	assert.Equal(t, uint32(11), defs[1].ptr.id)
}

func TestExpandObjStmCachesResult(t *testing.T) {
	data := xrefStreamFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	first, err := r.expandObjStm(objptr{5, 0})
	require.NoError(t, err)
	second, ok := r.objStmCache[objptr{5, 0}]
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestExpandObjStmCheckedRejectsNestedObjStm(t *testing.T) {
	data := xrefStreamFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	// Pretend object 5 (the ObjStm itself) is compressed inside another
	// stream, simulating a forbidden nested ObjStm.
	e := r.xref[5]
	e.inStream = true
	r.xref[5] = e

	_, err = r.expandObjStmChecked(objptr{5, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compressed inside another")
}

func TestExpandObjStmRejectsNonStreamObject(t *testing.T) {
	data := xrefStreamFixture(t)
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	// Object 1 is a plain dict, not a stream.
	_, err = r.expandObjStm(objptr{1, 0})
	require.Error(t, err)
}
