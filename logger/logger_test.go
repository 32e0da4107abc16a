// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugInvokesLogFunc(t *testing.T) {
	var gotLevel LogLevel
	var gotMsg string
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		gotLevel = level
		gotMsg = msg
	})
	defer SetLogger(nil)

	Debug("hello")
	assert.Equal(t, DebugLevel, gotLevel)
	assert.Equal(t, "hello", gotMsg)
}

func TestDebugStripsTrailingTraceFlag(t *testing.T) {
	var gotKeyvals []interface{}
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		gotKeyvals = keyvals
	})
	defer SetLogger(nil)

	Debug("with trace", "k", "v", true)
	assert.Equal(t, []interface{}{"k", "v"}, gotKeyvals)
}

func TestErrorInvokesLogFunc(t *testing.T) {
	var gotLevel LogLevel
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		gotLevel = level
	})
	defer SetLogger(nil)

	Error("boom")
	assert.Equal(t, ErrorLevel, gotLevel)
}

func TestSetLoggerIgnoresNil(t *testing.T) {
	called := false
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		called = true
	})
	defer SetLogger(nil)

	SetLogger(nil)
	Debug("still wired")
	assert.True(t, called)
}
