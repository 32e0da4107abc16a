// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"compress/zlib"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/nextpage-labs/pdfxref/logger"
)

// xrefEntry is one resolved slot of the object index (C7): either a
// classic, byte-offset object (type 1) or an object compressed inside an
// object stream (type 2).
type xrefEntry struct {
	ptr           objptr
	offset        int64
	inStream      bool
	streamPtr     objptr
	indexInStream int
}

// Reader is a read-only handle onto a single PDF document's bytes and its
// resolved cross-reference table.
type Reader struct {
	f           io.ReaderAt
	end         int64
	version     string
	xref        []xrefEntry
	trailer     dict
	objStmCache map[objptr][]objdef
}

var headerRE = regexp.MustCompile(`%PDF-(\d\.\d)`)

// Open opens a file by path and builds its cross-reference table.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(MalformedDocument, err, "open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapErr(MalformedDocument, err, "stat %s", path)
	}
	r, err := NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader builds a cross-reference table over an already-open source.
func NewReader(f io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{f: f, end: size, objStmCache: map[objptr][]objdef{}}

	if err := r.checkHeader(); err != nil {
		return nil, err
	}
	r.validateEOFMarker()

	if r.isLinearized() {
		return nil, newErr(UnsupportedFeature, "linearised documents are not supported")
	}

	start, err := r.findStartXref()
	if err != nil {
		return nil, err
	}

	trailer, err := r.readXrefChain(start)
	if err != nil {
		return nil, err
	}
	r.trailer = trailer

	if _, ok := trailer[name("Encrypt")]; ok {
		return nil, newErr(UnsupportedFeature, "encrypted documents are not supported")
	}

	size64 := trailer[name("Size")]
	if n, ok := size64.(int64); ok && int(n) > len(r.xref) {
		grown := make([]xrefEntry, n)
		copy(grown, r.xref)
		r.xref = grown
	}

	if _, ok := trailer[name("Root")]; !ok {
		logger.Error("trailer has no /Root entry")
	}

	return r, nil
}

// isLinearized is C2's linearisation probe: a linearised document's first
// object is a linearisation parameter dictionary carrying /Linearized,
// always within the first KB or so of the file so that a reader can detect
// and special-case it before the real xref chain is even located. This
// module does not implement the fast-web-view resolution such a document
// requires, so it is rejected outright rather than parsed incorrectly.
func (r *Reader) isLinearized() bool {
	n := r.end
	if n > 2048 {
		n = 2048
	}
	buf := make([]byte, n)
	if _, err := r.f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return false
	}
	return bytes.Contains(buf, []byte("/Linearized"))
}

// checkHeader is C2's first lexical probe: the document must start with
// "%PDF-1.N" within the first 1024 bytes (PDF tolerates leading junk, such
// as a leading BOM or shebang, ahead of the actual header).
func (r *Reader) checkHeader() error {
	n := r.end
	if n > 1024 {
		n = 1024
	}
	buf := make([]byte, n)
	if _, err := r.f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return wrapErr(MalformedDocument, err, "reading header")
	}
	m := headerRE.FindSubmatch(buf)
	if m == nil {
		return newErr(MalformedDocument, "missing %%PDF-1.N header")
	}
	r.version = string(m[1])
	return nil
}

// validateEOFMarker checks for a trailing %%EOF marker. Its absence is
// logged but not fatal: many producers leave stray bytes or omit the final
// marker, and the xref chain is still reachable via startxref.
func (r *Reader) validateEOFMarker() {
	n := r.end
	if n > 1024 {
		n = 1024
	}
	buf := make([]byte, n)
	if _, err := r.f.ReadAt(buf, r.end-n); err != nil && err != io.EOF {
		logger.Error("reading tail for EOF marker failed", "err", err)
		return
	}
	if !bytes.Contains(buf, []byte("%%EOF")) {
		logger.Debug("document has no trailing %%EOF marker", "trace", true)
	}
}

var startxrefRE = regexp.MustCompile(`startxref\s+(\d+)`)

// findStartXref is C2's second lexical probe: scan the tail of the file
// for the last "startxref" keyword and the byte offset that follows it.
func (r *Reader) findStartXref() (int64, error) {
	n := r.end
	if n > 2048 {
		n = 2048
	}
	buf := make([]byte, n)
	if _, err := r.f.ReadAt(buf, r.end-n); err != nil && err != io.EOF {
		return 0, wrapErr(MalformedDocument, err, "reading tail for startxref")
	}
	matches := startxrefRE.FindAllSubmatch(buf, -1)
	if len(matches) == 0 {
		return 0, newErr(MalformedDocument, "missing startxref")
	}
	last := matches[len(matches)-1]
	off, err := strconv.ParseInt(string(last[1]), 10, 64)
	if err != nil {
		return 0, wrapErr(MalformedDocument, err, "malformed startxref offset")
	}
	return off, nil
}

// readXrefChain walks the /Prev (and hybrid-reference /XRefStm) chain
// starting at off, merging every section into r.xref on a first-write-wins
// basis since later (older) sections must never override entries already
// supplied by a newer one. It returns the merged trailer, keyed the same
// way: the newest trailer's keys win.
func (r *Reader) readXrefChain(off int64) (dict, error) {
	visited := map[int64]bool{}
	merged := dict{}

	for off != 0 {
		if visited[off] {
			logger.Error("cycle detected in xref /Prev chain", "offset", off)
			break
		}
		visited[off] = true

		entries, trailer, isHybrid, hybridOff, err := r.readXrefSection(off)
		if err != nil {
			return nil, err
		}

		r.mergeEntries(entries)
		for k, v := range trailer {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}

		if isHybrid && !visited[hybridOff] {
			hEntries, _, _, _, err := r.readXrefSection(hybridOff)
			if err == nil {
				r.mergeEntries(hEntries)
			} else {
				logger.Error("hybrid /XRefStm section failed", "err", err)
			}
			visited[hybridOff] = true
		}

		prev, ok := trailer[name("Prev")]
		if !ok {
			break
		}
		n, ok := prev.(int64)
		if !ok {
			break
		}
		off = n
	}

	return merged, nil
}

func (r *Reader) mergeEntries(entries map[uint32]xrefEntry) {
	maxID := uint32(0)
	for id := range entries {
		if id > maxID {
			maxID = id
		}
	}
	if int(maxID) >= len(r.xref) {
		grown := make([]xrefEntry, maxID+1)
		copy(grown, r.xref)
		r.xref = grown
	}
	for id, e := range entries {
		if r.xref[id].ptr.id == 0 {
			r.xref[id] = e
		}
	}
}

// readXrefSection dispatches to the classic table parser (C4) or the
// cross-reference stream parser (C5) depending on what lexeme follows the
// offset, per the grammar ambiguity C3 must resolve.
func (r *Reader) readXrefSection(off int64) (map[uint32]xrefEntry, dict, bool, int64, error) {
	if off < 0 || off >= r.end {
		return nil, nil, false, 0, newErr(MalformedDocument, "xref offset %d out of range", off)
	}
	b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
	tok := b.readToken()
	if kw, ok := tok.(keyword); ok && kw == "xref" {
		entries, trailer, err := r.readXrefTable(b)
		if err != nil {
			return nil, nil, false, 0, err
		}
		hybridOff := int64(0)
		isHybrid := false
		if v, ok := trailer[name("XRefStm")]; ok {
			if n, ok := v.(int64); ok {
				isHybrid, hybridOff = true, n
			}
		}
		return entries, trailer, isHybrid, hybridOff, nil
	}
	b.unreadToken(tok)
	entries, trailer, err := r.readXrefStream(b)
	if err != nil {
		return nil, nil, false, 0, err
	}
	return entries, trailer, false, 0, nil
}

// readXrefTable parses a classic "xref ... trailer <<...>>" section (C4).
func (r *Reader) readXrefTable(b *buffer) (map[uint32]xrefEntry, dict, error) {
	entries := map[uint32]xrefEntry{}
	for {
		tok := b.readToken()
		if kw, ok := tok.(keyword); ok && kw == "trailer" {
			break
		}
		start, ok := tok.(int64)
		if !ok {
			return nil, nil, newErr(MalformedDocument, "xref table: expected subsection header")
		}
		countTok := b.readToken()
		count, ok := countTok.(int64)
		if !ok {
			return nil, nil, newErr(MalformedDocument, "xref table: malformed subsection count")
		}
		for i := int64(0); i < count; i++ {
			offTok := b.readToken()
			genTok := b.readToken()
			typTok := b.readToken()
			offset, ok1 := offTok.(int64)
			gen, ok2 := genTok.(int64)
			kw, ok3 := typTok.(keyword)
			if !ok1 || !ok2 || !ok3 {
				return nil, nil, newErr(MalformedDocument, "xref table: malformed entry at object %d", start+i)
			}
			id := uint32(start + i)
			switch kw {
			case "n":
				entries[id] = xrefEntry{ptr: objptr{id, uint16(gen)}, offset: offset}
			case "f":
				// free entry: leave unpopulated.
			default:
				return nil, nil, newErr(MalformedDocument, "xref table: unknown entry type %q", kw)
			}
		}
	}

	trailerTok := b.readToken()
	trailerVal := b.readValue(trailerTok)
	trailer, ok := trailerVal.(dict)
	if !ok {
		return nil, nil, newErr(MalformedDocument, "xref table: missing trailer dictionary")
	}
	return entries, trailer, nil
}

// readXrefStream parses a cross-reference stream object (C5): its
// dictionary doubles as the trailer.
func (r *Reader) readXrefStream(b *buffer) (map[uint32]xrefEntry, dict, error) {
	obj := b.readObject()
	od, ok := obj.(objdef)
	if !ok {
		return nil, nil, newErr(MalformedDocument, "xref stream: expected indirect object")
	}
	strm, ok := od.obj.(stream)
	if !ok {
		return nil, nil, newErr(MalformedDocument, "xref stream: object is not a stream")
	}
	hdr := strm.hdr
	if hdr[name("Type")] != name("XRef") {
		logger.Error("xref stream missing /Type /XRef")
	}

	wArr, ok := hdr[name("W")].(array)
	if !ok || len(wArr) < 3 {
		return nil, nil, newErr(MalformedDocument, "xref stream: missing or malformed /W")
	}
	widths := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, ok := wArr[i].(int64)
		if !ok {
			return nil, nil, newErr(MalformedDocument, "xref stream: /W entry %d not an integer", i)
		}
		widths[i] = int(n)
	}

	if err := checkXrefStreamPredictor(hdr); err != nil {
		return nil, nil, err
	}

	size, _ := hdr[name("Size")].(int64)
	var index []int64
	if idxArr, ok := hdr[name("Index")].(array); ok {
		for _, v := range idxArr {
			n, _ := v.(int64)
			index = append(index, n)
		}
	} else {
		index = []int64{0, size}
	}

	recLen := widths[0] + widths[1] + widths[2]
	if recLen == 0 {
		return nil, nil, newErr(MalformedDocument, "xref stream: zero-width record")
	}

	strmVal := Value{r: r, ptr: od.ptr, obj: strm}
	raw, err := r.inflateXrefStream(strmVal, strm, hdr, recLen)
	if err != nil {
		return nil, nil, err
	}

	entries := map[uint32]xrefEntry{}
	pos := 0
	for p := 0; p+1 < len(index); p += 2 {
		startID := index[p]
		count := index[p+1]
		for i := int64(0); i < count; i++ {
			if pos+recLen > len(raw) {
				return nil, nil, newErr(CorruptStream, "xref stream: truncated record table")
			}
			rec := raw[pos : pos+recLen]
			pos += recLen

			f1, haveF1 := unpackBE(rec[:widths[0]])
			if !haveF1 {
				f1 = 1
			}
			f2, _ := unpackBE(rec[widths[0] : widths[0]+widths[1]])
			f3, _ := unpackBE(rec[widths[0]+widths[1] : recLen])

			id := uint32(startID + i)
			switch f1 {
			case 0:
				// free entry.
			case 1:
				entries[id] = xrefEntry{ptr: objptr{id, uint16(f3)}, offset: f2}
			case 2:
				entries[id] = xrefEntry{
					ptr:           objptr{id, 0},
					inStream:      true,
					streamPtr:     objptr{uint32(f2), 0},
					indexInStream: int(f3),
				}
			default:
				return nil, nil, newErr(MalformedDocument, "xref stream: unknown entry type %d", f1)
			}
		}
	}

	return entries, hdr, nil
}

// inflateXrefStream reads and decodes an xref stream's raw bytes directly,
// bypassing Value.Reader()'s generic filter chain: that chain's predictor
// step (applyPredictor/pngUnfilter) assumes a leading PNG filter-tag byte
// per row, the convention for ordinary image/content streams, whereas a
// cross-reference stream's PNG-Up predicted rows carry no such prefix
// (spec's png_up_unfilter; confirmed by the original implementation's
// apply_png_up_predictor, which never skips a tag byte). /Filter must be
// /FlateDecode or absent (uncompressed records); anything else is
// UnsupportedFilter.
func (r *Reader) inflateXrefStream(strmVal Value, strm stream, hdr dict, recLen int) ([]byte, error) {
	filter, _ := hdr[name("Filter")].(name)
	if filter != "FlateDecode" && filter != "" {
		return nil, newErr(UnsupportedFilter, "xref stream: unsupported filter %q", filter)
	}

	length := strmVal.Key("Length").Int64()
	raw := make([]byte, length)
	if _, err := r.f.ReadAt(raw, strm.offset); err != nil && err != io.EOF {
		return nil, wrapErr(CorruptStream, err, "xref stream: reading raw bytes failed")
	}

	inflated := raw
	if filter == "FlateDecode" {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "xref stream: zlib init failed")
		}
		inflated, err = io.ReadAll(zr)
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "xref stream: zlib inflate failed")
		}
	}

	return applyXrefStreamPredictor(inflated, hdr, recLen)
}

// applyXrefStreamPredictor reverses the xref stream's declared predictor
// using the tag-byte-free convention spec'd for cross-reference streams
// (png_up_unfilter), never the content-stream pngUnfilter. The predictor
// code itself was already restricted to {1, 10, 12} by
// checkXrefStreamPredictor before this runs.
func applyXrefStreamPredictor(data []byte, hdr dict, recLen int) ([]byte, error) {
	dp, ok := hdr[name("DecodeParms")].(dict)
	if !ok {
		return data, nil
	}
	predictor, _ := dp[name("Predictor")].(int64)
	if predictor == 0 || predictor == 1 {
		return data, nil
	}

	columns, ok := dp[name("Columns")].(int64)
	if !ok || columns == 0 {
		columns = int64(recLen)
	}
	return pngUpUnfilter(data, int(columns))
}

// checkXrefStreamPredictor enforces the narrower predictor support the
// cross-reference stream path requires: only "no prediction" (1) and the
// two PNG-family codes real producers emit (10, 12) are accepted, even
// though general content streams are decoded more permissively.
func checkXrefStreamPredictor(hdr dict) error {
	dp, ok := hdr[name("DecodeParms")].(dict)
	if !ok {
		return nil
	}
	p, ok := dp[name("Predictor")].(int64)
	if !ok {
		return nil
	}
	switch p {
	case 1, 10, 12:
		return nil
	default:
		return newErr(UnsupportedPredictor, "xref stream: unsupported predictor %d", p)
	}
}

// Version reports the document's declared PDF version, e.g. "1.7".
func (r *Reader) Version() string { return r.version }

// Trailer returns the merged trailer dictionary as a Value.
func (r *Reader) Trailer() Value { return Value{r: r, obj: dict(r.trailer)} }

// Root returns the document catalog named by the trailer's /Root entry.
func (r *Reader) Root() Value { return r.Trailer().Key("Root") }

// Resolve looks up object (id, gen) directly, bypassing any containing
// dictionary or array.
func (r *Reader) Resolve(id uint32, gen uint16) Value {
	return r.resolve(objptr{}, objptr{id, gen})
}
