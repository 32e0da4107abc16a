// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"io"
	"strconv"

	"github.com/nextpage-labs/pdfxref/logger"
)

// name is a PDF name object, without its leading slash.
type name string

// keyword is a bare PDF token that is neither a literal, a number, nor a
// name: obj, endobj, stream, endstream, xref, trailer, startxref, R, n, f,
// every content-stream operator (Tj, cm, BT, and so on), and the
// structural delimiters <<, >>, [, ], { and } all surface as keyword values.
type keyword string

// dict is a PDF dictionary. Values are int64, float64, string, name, dict,
// array, objptr, stream, bool, or nil.
type dict map[name]interface{}

// array is a PDF array.
type array []interface{}

// objptr identifies an indirect object by number and generation.
// The zero value, objptr{}, is used as a sentinel for "no entry" since a
// live object can never legitimately be number 0 (object 0 is always the
// head of the free list).
type objptr struct {
	id  uint32
	gen uint16
}

// objdef is a fully parsed indirect object: "id gen obj ... endobj".
type objdef struct {
	ptr objptr
	obj interface{}
}

// stream is a PDF stream object. offset is the absolute byte offset, in the
// original document source, of the first byte of raw (still-encoded)
// stream data; the byte count is hdr["Length"].
type stream struct {
	hdr    dict
	ptr    objptr
	offset int64
}

func newDict() dict { return dict{} }

func isPDFWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// buffer is a PDF lexer/tokenizer over an in-memory slice of the document
// source, tagged with the absolute file offset its first byte corresponds
// to. The slice holds the whole section read from the source, so stream
// data inside that section is loaded too; a stream value keeps only the
// absolute offset of its data, and Value.Reader re-reads the raw bytes
// from the original io.ReaderAt on demand.
type buffer struct {
	data     []byte
	i        int
	offset   int64 // absolute offset of data[0] in the document source
	unread   []interface{}
	allowEOF bool
}

func newBuffer(r io.Reader, offset int64) *buffer {
	data, _ := io.ReadAll(r)
	return &buffer{data: data, offset: offset}
}

// pos is the absolute offset of the next unread byte.
func (b *buffer) pos() int64 { return b.offset + int64(b.i) }

func (b *buffer) readByte() (byte, bool) {
	if b.i >= len(b.data) {
		return 0, false
	}
	c := b.data[b.i]
	b.i++
	return c, true
}

func (b *buffer) unreadByte() {
	if b.i > 0 {
		b.i--
	}
}

func (b *buffer) peekByte() (byte, bool) {
	if b.i >= len(b.data) {
		return 0, false
	}
	return b.data[b.i], true
}

func (b *buffer) skipWhitespace() {
	for {
		c, ok := b.readByte()
		if !ok {
			return
		}
		if c == '%' {
			for {
				c, ok := b.readByte()
				if !ok || c == '\n' || c == '\r' {
					break
				}
			}
			continue
		}
		if !isPDFWhitespace(c) {
			b.unreadByte()
			return
		}
	}
}

// unreadToken pushes tok back so the next readToken call returns it again.
func (b *buffer) unreadToken(tok interface{}) {
	b.unread = append(b.unread, tok)
}

// readToken reads the next lexical token: int64, float64, string (decoded
// literal or hex string bytes), name, keyword, bool, or nil (for the "null"
// keyword). nil is also returned at end of input, so a nil return alone
// does not tell EOF from "null".
func (b *buffer) readToken() interface{} {
	if n := len(b.unread); n > 0 {
		tok := b.unread[n-1]
		b.unread = b.unread[:n-1]
		return tok
	}

	b.skipWhitespace()
	c, ok := b.readByte()
	if !ok {
		return nil
	}

	switch {
	case c == '/':
		return b.readName()
	case c == '(':
		return b.readLiteralString()
	case c == '<':
		if p, ok := b.peekByte(); ok && p == '<' {
			b.readByte()
			return keyword("<<")
		}
		return b.readHexString()
	case c == '>':
		if p, ok := b.peekByte(); ok && p == '>' {
			b.readByte()
			return keyword(">>")
		}
		logger.Error("malformed PDF: stray '>' token")
		return keyword(">")
	case c == '[' || c == ']' || c == '{' || c == '}':
		return keyword(string(c))
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		b.unreadByte()
		return b.readNumber()
	default:
		b.unreadByte()
		return b.readBareword()
	}
}

func (b *buffer) readName() interface{} {
	var out []byte
	for {
		c, ok := b.peekByte()
		if !ok || isPDFWhitespace(c) || isDelim(c) {
			break
		}
		b.readByte()
		if c == '#' {
			h1, ok1 := b.peekByte()
			if ok1 && isHexDigit(h1) {
				b.readByte()
				h2, ok2 := b.peekByte()
				if ok2 && isHexDigit(h2) {
					b.readByte()
					out = append(out, hexVal(h1)<<4|hexVal(h2))
					continue
				}
				out = append(out, hexVal(h1))
				continue
			}
		}
		out = append(out, c)
	}
	return name(out)
}

func (b *buffer) readBareword() interface{} {
	var out []byte
	for {
		c, ok := b.peekByte()
		if !ok || isPDFWhitespace(c) || isDelim(c) {
			break
		}
		b.readByte()
		out = append(out, c)
	}
	switch string(out) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return keyword(out)
}

func (b *buffer) readNumber() interface{} {
	start := b.i
	isFloat := false
	if c, ok := b.peekByte(); ok && (c == '+' || c == '-') {
		b.readByte()
	}
	for {
		c, ok := b.peekByte()
		if !ok {
			break
		}
		if c == '.' {
			isFloat = true
			b.readByte()
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		b.readByte()
	}
	text := string(b.data[start:b.i])
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return float64(0)
		}
		return f
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr == nil {
			return f
		}
		return int64(0)
	}
	return n
}

func (b *buffer) readLiteralString() interface{} {
	var out []byte
	depth := 1
	for {
		c, ok := b.readByte()
		if !ok {
			logger.Error("malformed PDF: unterminated literal string")
			break
		}
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return string(out)
			}
			out = append(out, c)
		case '\\':
			e, ok := b.readByte()
			if !ok {
				break
			}
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\r':
				if p, ok := b.peekByte(); ok && p == '\n' {
					b.readByte()
				}
			case '\n':
				// line continuation, emit nothing
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2; k++ {
						p, ok := b.peekByte()
						if !ok || p < '0' || p > '7' {
							break
						}
						b.readByte()
						val = val*8 + int(p-'0')
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func (b *buffer) readHexString() interface{} {
	var digits []byte
	for {
		c, ok := b.readByte()
		if !ok {
			logger.Error("malformed PDF: unterminated hex string")
			break
		}
		if c == '>' {
			break
		}
		if isPDFWhitespace(c) {
			continue
		}
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return string(out)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// readValueOrRef reads a value that may be an indirect reference ("N G R"),
// used wherever a dictionary value or array element is parsed.
func (b *buffer) readValueOrRef(tok interface{}) interface{} {
	if n, ok := tok.(int64); ok {
		t2 := b.readToken()
		if g, ok2 := t2.(int64); ok2 {
			t3 := b.readToken()
			if kw, ok3 := t3.(keyword); ok3 && kw == "R" {
				return objptr{uint32(n), uint16(g)}
			}
			b.unreadToken(t3)
		}
		b.unreadToken(t2)
		return n
	}
	return b.readValue(tok)
}

// readValue composes a dict, array, or stream from tok and subsequent
// tokens, or returns tok unchanged if it is already a scalar.
func (b *buffer) readValue(tok interface{}) interface{} {
	kw, ok := tok.(keyword)
	if !ok {
		return tok
	}
	switch kw {
	case "<<":
		d := newDict()
		for {
			kt := b.readToken()
			if kt == nil {
				logger.Error("malformed PDF: unterminated dictionary")
				return d
			}
			if k, ok := kt.(keyword); ok && k == ">>" {
				break
			}
			key, ok := kt.(name)
			if !ok {
				logger.Error("malformed PDF: dictionary key is not a name")
				continue
			}
			vt := b.readToken()
			d[key] = b.readValueOrRef(vt)
		}
		if strm, ok := b.tryReadStream(d); ok {
			return strm
		}
		return d
	case "[":
		var a array
		for {
			et := b.readToken()
			if et == nil {
				logger.Error("malformed PDF: unterminated array")
				return a
			}
			if k, ok := et.(keyword); ok && k == "]" {
				break
			}
			a = append(a, b.readValueOrRef(et))
		}
		return a
	default:
		return kw
	}
}

// tryReadStream checks whether a "stream" keyword follows a just-parsed
// dictionary and, if so, consumes the stream body and returns it.
func (b *buffer) tryReadStream(d dict) (stream, bool) {
	tok := b.readToken()
	kw, ok := tok.(keyword)
	if !ok || kw != "stream" {
		b.unreadToken(tok)
		return stream{}, false
	}

	// One EOL (CRLF, LF, or a lone CR) after the "stream" keyword is
	// consumed; binary data starts immediately after it. Any other byte is
	// put back, and the data starts at that byte.
	if c, ok := b.readByte(); ok {
		switch c {
		case '\r':
			if p, ok := b.peekByte(); ok && p == '\n' {
				b.readByte()
			}
		case '\n':
		default:
			b.unreadByte()
		}
	}

	start := b.pos()
	length, haveLength := int64(0), false
	if v, ok := d["Length"]; ok {
		if n, ok := v.(int64); ok {
			length, haveLength = n, true
		}
	}

	if haveLength {
		end := b.i + int(length)
		if end > len(b.data) {
			end = len(b.data)
		}
		b.i = end
	} else {
		// /Length was missing or indirect: fall back to scanning for the
		// literal "endstream" token and back the length out of it, per
		// the residual-ambiguity mitigation named for this exact case.
		idx := bytes.Index(b.data[b.i:], []byte("endstream"))
		if idx < 0 {
			logger.Error("malformed PDF: stream has no matching endstream")
			b.i = len(b.data)
			return stream{hdr: d, offset: start}, true
		}
		end := b.i + idx
		trimmed := end
		if trimmed > b.i && b.data[trimmed-1] == '\n' {
			trimmed--
		}
		if trimmed > b.i && b.data[trimmed-1] == '\r' {
			trimmed--
		}
		length = int64(trimmed - b.i)
		d["Length"] = length
		b.i = end
	}

	b.skipWhitespace()
	endTok := b.readToken()
	if k, ok := endTok.(keyword); !ok || k != "endstream" {
		logger.Error("malformed PDF: stream not terminated by endstream")
		b.unreadToken(endTok)
	}

	return stream{hdr: d, offset: start}, true
}

// readObject reads one complete top-level PDF object: a scalar, a
// dictionary, an array, a stream, an indirect reference ("N G R"), or a
// full indirect object definition ("N G obj ... endobj").
func (b *buffer) readObject() interface{} {
	tok := b.readToken()
	if tok == nil {
		return nil
	}
	n, ok := tok.(int64)
	if !ok {
		return b.readValue(tok)
	}

	t2 := b.readToken()
	g, ok2 := t2.(int64)
	if !ok2 {
		b.unreadToken(t2)
		return n
	}

	t3 := b.readToken()
	kw, ok3 := t3.(keyword)
	if !ok3 {
		b.unreadToken(t3)
		b.unreadToken(t2)
		return n
	}

	switch kw {
	case "R":
		return objptr{uint32(n), uint16(g)}
	case "obj":
		inner := b.readValueOrRef(b.readToken())
		endTok := b.readToken()
		if k, ok := endTok.(keyword); !ok || k != "endobj" {
			logger.Error("malformed PDF: indirect object not terminated by endobj")
			b.unreadToken(endTok)
		}
		ptr := objptr{uint32(n), uint16(g)}
		if strm, ok := inner.(stream); ok {
			strm.ptr = ptr
			inner = strm
		}
		return objdef{ptr, inner}
	default:
		b.unreadToken(t3)
		b.unreadToken(t2)
		return n
	}
}
