// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import "fmt"

// ErrorKind classifies why a parse failed. The core collapses every
// failure into one of these so callers can distinguish "this file is
// broken" from "this file uses a feature we don't support" without
// string-matching error messages.
type ErrorKind int

const (
	// MalformedDocument covers a missing startxref, missing trailer and
	// xref stream, a truncated object, or a missing mandatory dictionary
	// key.
	MalformedDocument ErrorKind = iota
	// CorruptStream covers a zlib inflate error on any stream.
	CorruptStream
	// UnsupportedFilter covers a filter other than /FlateDecode on an
	// xref stream or an ObjStm.
	UnsupportedFilter
	// UnsupportedPredictor covers an xref-stream /Predictor other than 1
	// (none), 10 or 12, and a PNG row tag other than 0 (None) or 2 (Up).
	UnsupportedPredictor
	// UnsupportedFeature covers linearised files, encrypted files, and
	// other recognized-but-unimplemented constructs.
	UnsupportedFeature
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedDocument:
		return "malformed document"
	case CorruptStream:
		return "corrupt stream"
	case UnsupportedFilter:
		return "unsupported filter"
	case UnsupportedPredictor:
		return "unsupported predictor"
	case UnsupportedFeature:
		return "unsupported feature"
	default:
		return "unknown error"
	}
}

// ParseError is the error type returned by every fatal condition in the
// core. Open and NewReader return it as their error, and library callers
// can recover the Kind with errors.As.
type ParseError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, format string, args ...interface{}) error {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, err error, format string, args ...interface{}) error {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
