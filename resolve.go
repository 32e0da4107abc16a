// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"io"
	"regexp"
	"strconv"

	"github.com/nextpage-labs/pdfxref/logger"
)

// resolve dereferences x, which is either a direct scalar/dict/array/stream
// already belonging to parent, or an objptr naming an indirect object.
// Every Value the package hands out, however deeply nested, passed through
// here at least once. C7's object index is also read directly by OffsetOf
// and by expandObjStmChecked (objstm.go).
func (r *Reader) resolve(parent objptr, x interface{}) Value {
	ptr, ok := x.(objptr)
	if !ok {
		return Value{r: r, ptr: parent, obj: x}
	}

	if int(ptr.id) >= len(r.xref) {
		logger.Debug("reference to unknown object", "id", ptr.id, "trace", true)
		return Value{}
	}
	e := r.xref[ptr.id]
	if e.ptr.id == 0 || e.ptr.gen != ptr.gen {
		logger.Debug("reference generation mismatch or free entry", "id", ptr.id, "gen", ptr.gen, "trace", true)
		return Value{}
	}

	if e.inStream {
		objs, err := r.expandObjStmChecked(e.streamPtr)
		if err != nil {
			logger.Error("object stream expansion failed", "err", err)
			return Value{}
		}
		if e.indexInStream < 0 || e.indexInStream >= len(objs) {
			logger.Error("object stream index out of range", "id", ptr.id)
			return Value{}
		}
		return Value{r: r, ptr: ptr, obj: objs[e.indexInStream].obj}
	}

	b := newBuffer(io.NewSectionReader(r.f, e.offset, r.end-e.offset), e.offset)
	obj := b.readObject()
	od, ok := obj.(objdef)
	if !ok {
		logger.Error("xref offset did not land on an indirect object", "id", ptr.id, "offset", e.offset)
		return Value{}
	}
	if od.ptr != ptr {
		logger.Error("object identity mismatch", "want", ptr, "got", od.ptr)
		return Value{}
	}
	return Value{r: r, ptr: ptr, obj: od.obj}
}

// OffsetOf reports the byte offset of object (objNum, gen) in the document
// source. Objects compressed inside an object stream have no standalone
// byte offset; OffsetOf reports ok but returns -1 for those.
func (r *Reader) OffsetOf(objNum uint32, gen uint16) (int64, bool) {
	if int(objNum) >= len(r.xref) {
		return 0, false
	}
	e := r.xref[objNum]
	if e.ptr.id == 0 || e.ptr.gen != gen {
		return 0, false
	}
	if e.inStream {
		return -1, true
	}
	return e.offset, true
}

var namedRefPattern = `/%s\s+(\d+)\s+(\d+)\s+R`

// ResolveNamedRef is a raw-text lookup of "/Name N G R" inside dictText,
// returning the referenced object's byte offset via the object index. It
// exists alongside the structured Value.Key API to support callers working
// directly against an unparsed dictionary substring, such as a salvage
// pass over a damaged trailer.
func (r *Reader) ResolveNamedRef(fieldName, dictText string) (int64, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta("/"+fieldName) + `\s+(\d+)\s+(\d+)\s+R`)
	m := re.FindStringSubmatch(dictText)
	if m == nil {
		return 0, false
	}
	n, err1 := strconv.ParseUint(m[1], 10, 32)
	g, err2 := strconv.ParseUint(m[2], 10, 16)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return r.OffsetOf(uint32(n), uint16(g))
}

// ResolveNamedRefArray is ResolveNamedRef for a "/Name [N G R N G R ...]"
// field, returning the offset of every referenced object in array order.
func (r *Reader) ResolveNamedRefArray(fieldName, dictText string) []int64 {
	re := regexp.MustCompile(regexp.QuoteMeta("/"+fieldName) + `\s*\[([^\]]*)\]`)
	m := re.FindStringSubmatch(dictText)
	if m == nil {
		return nil
	}
	itemRE := regexp.MustCompile(`(\d+)\s+(\d+)\s+R`)
	var out []int64
	for _, it := range itemRE.FindAllStringSubmatch(m[1], -1) {
		n, err1 := strconv.ParseUint(it[1], 10, 32)
		g, err2 := strconv.ParseUint(it[2], 10, 16)
		if err1 != nil || err2 != nil {
			continue
		}
		if off, ok := r.OffsetOf(uint32(n), uint16(g)); ok {
			out = append(out, off)
		}
	}
	return out
}

// ResolveNamedRefMap is ResolveNamedRef for a "/Name << /Key N G R ... >>"
// field, returning a map from each inner key to its referenced offset.
func (r *Reader) ResolveNamedRefMap(fieldName, dictText string) map[string]int64 {
	re := regexp.MustCompile(regexp.QuoteMeta("/"+fieldName) + `\s*<<([^>]*)>>`)
	m := re.FindStringSubmatch(dictText)
	if m == nil {
		return nil
	}
	entryRE := regexp.MustCompile(`/(\w+)\s+(\d+)\s+(\d+)\s+R`)
	out := map[string]int64{}
	for _, e := range entryRE.FindAllStringSubmatch(m[1], -1) {
		n, err1 := strconv.ParseUint(e[2], 10, 32)
		g, err2 := strconv.ParseUint(e[3], 10, 16)
		if err1 != nil || err2 != nil {
			continue
		}
		if off, ok := r.OffsetOf(uint32(n), uint16(g)); ok {
			out[e[1]] = off
		}
	}
	return out
}
