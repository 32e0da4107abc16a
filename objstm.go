// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"io"
)

// expandObjStmChecked expands an object stream, first asserting the
// invariant that an object stream is always a type-1 (direct-offset)
// object: a type-2 entry pointing at another type-2 entry would mean an
// ObjStm compressed inside a different ObjStm, which the format forbids.
func (r *Reader) expandObjStmChecked(streamPtr objptr) ([]objdef, error) {
	if int(streamPtr.id) < len(r.xref) {
		if e := r.xref[streamPtr.id]; e.ptr.id != 0 && e.inStream {
			return nil, newErr(MalformedDocument, "object stream %d is itself compressed inside another object stream", streamPtr.id)
		}
	}
	return r.expandObjStm(streamPtr)
}

// expandObjStm decodes an ObjStm (C6): its header is N pairs of
// (object number, byte offset from the start of the First-offset object
// data), followed by the concatenated object bodies themselves. Results
// are cached per containing stream since a single ObjStm is typically
// referenced by many compressed objects.
func (r *Reader) expandObjStm(streamPtr objptr) ([]objdef, error) {
	if cached, ok := r.objStmCache[streamPtr]; ok {
		return cached, nil
	}

	v := r.resolve(objptr{}, streamPtr)
	if v.Kind() != Stream {
		return nil, newErr(MalformedDocument, "object %d used as an object stream is not a stream", streamPtr.id)
	}
	if v.Key("Type").Name() != "ObjStm" {
		return nil, newErr(MalformedDocument, "object %d lacks /Type /ObjStm", streamPtr.id)
	}

	n := int(v.Key("N").Int64())
	first := v.Key("First").Int64()
	if n < 0 || first < 0 {
		return nil, newErr(MalformedDocument, "object stream %d has malformed /N or /First", streamPtr.id)
	}

	data, err := io.ReadAll(v.Reader())
	if err != nil {
		return nil, wrapErr(CorruptStream, err, "object stream %d decode failed", streamPtr.id)
	}

	hb := newBuffer(bytes.NewReader(data), 0)
	type head struct {
		num uint32
		off int64
	}
	heads := make([]head, 0, n)
	for i := 0; i < n; i++ {
		numTok := hb.readToken()
		offTok := hb.readToken()
		num, ok1 := numTok.(int64)
		off, ok2 := offTok.(int64)
		if !ok1 || !ok2 {
			return nil, newErr(CorruptStream, "object stream %d has malformed header entry %d", streamPtr.id, i)
		}
		heads = append(heads, head{uint32(num), off})
	}

	out := make([]objdef, 0, n)
	for _, h := range heads {
		start := first + h.off
		if start < 0 || start > int64(len(data)) {
			return nil, newErr(CorruptStream, "object stream %d: object %d offset out of range", streamPtr.id, h.num)
		}
		ob := newBuffer(bytes.NewReader(data[start:]), 0)
		obj := ob.readValueOrRef(ob.readToken())
		out = append(out, objdef{objptr{h.num, 0}, obj})
	}

	r.objStmCache[streamPtr] = out
	return out, nil
}
