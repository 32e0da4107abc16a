// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	assert.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	assert.NoError(t, err)
	return buf.String()
}

func TestLogAndFlush(t *testing.T) {
	Log("first")
	Log("second")

	out := captureStdout(t, Flush)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestFlushResetsBuffer(t *testing.T) {
	Log("only once")
	_ = captureStdout(t, Flush)

	out := captureStdout(t, Flush)
	assert.Empty(t, out)
}
