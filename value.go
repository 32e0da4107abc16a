// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"compress/zlib"
	"io"
	"sort"
	"strings"

	"github.com/hhrutter/lzw"
	"golang.org/x/text/encoding/unicode"

	"github.com/nextpage-labs/pdfxref/logger"
)

// Kind enumerates the dynamic type carried by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Real
	String
	Name
	Dict
	Array
	Stream
	Keyword
)

// Value is a fully-dereferenced PDF object: indirect references are always
// resolved by the Reader before a Value is handed to the caller, so
// consumers never see an objptr.
type Value struct {
	r   *Reader
	ptr objptr
	obj interface{}
}

func (v Value) Kind() Kind {
	switch v.obj.(type) {
	case nil:
		return Null
	case bool:
		return Bool
	case int64:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case name:
		return Name
	case dict:
		return Dict
	case array:
		return Array
	case stream:
		return Stream
	case keyword:
		return Keyword
	}
	return Null
}

// IsNull reports whether the value is PDF null or an unresolved reference.
func (v Value) IsNull() bool { return v.obj == nil }

func (v Value) Bool() bool {
	b, _ := v.obj.(bool)
	return b
}

func (v Value) Int64() int64 {
	switch x := v.obj.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	}
	return 0
}

func (v Value) Float64() float64 {
	switch x := v.obj.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

// RawString returns the raw bytes of a PDF string object with no encoding
// interpretation applied.
func (v Value) RawString() string {
	s, _ := v.obj.(string)
	return s
}

// Name returns a name value without its leading slash.
func (v Value) Name() string {
	n, _ := v.obj.(name)
	return string(n)
}

// Text decodes a string value into UTF-8, handling the UTF-16BE BOM used
// by PDF text strings and otherwise assuming PDFDocEncoding bytes.
func (v Value) Text() string {
	s, ok := v.obj.(string)
	if !ok {
		return ""
	}
	if strings.HasPrefix(s, "\xfe\xff") {
		return decodeUTF16BE(s[2:])
	}
	return decodePDFDocEncoding(s)
}

func decodeUTF16BE(s string) string {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.String(s)
	if err != nil {
		logger.Debug("UTF-16BE decode failed, falling back to raw bytes", "err", err)
		return s
	}
	return out
}

// Key looks up a dictionary entry (or a stream's header entry) and resolves
// it if it is an indirect reference.
func (v Value) Key(key string) Value {
	var d dict
	switch x := v.obj.(type) {
	case dict:
		d = x
	case stream:
		d = x.hdr
	default:
		return Value{}
	}
	return v.r.resolve(v.ptr, d[name(key)])
}

// Keys returns a dictionary's keys in a stable, sorted order.
func (v Value) Keys() []string {
	var d dict
	switch x := v.obj.(type) {
	case dict:
		d = x
	case stream:
		d = x.hdr
	default:
		return nil
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Len returns an array's length.
func (v Value) Len() int {
	a, ok := v.obj.(array)
	if !ok {
		return 0
	}
	return len(a)
}

// Index resolves an array element.
func (v Value) Index(i int) Value {
	a, ok := v.obj.(array)
	if !ok || i < 0 || i >= len(a) {
		return Value{}
	}
	return v.r.resolve(v.ptr, a[i])
}

// StreamLength returns a stream's declared /Length.
func (v Value) StreamLength() int64 {
	_, ok := v.obj.(stream)
	if !ok {
		return 0
	}
	return v.Key("Length").Int64()
}

// Reader returns an io.Reader over the stream's decoded content, applying
// every filter named in /Filter (with matching /DecodeParms) in sequence.
func (v Value) Reader() io.Reader {
	s, ok := v.obj.(stream)
	if !ok {
		return bytes.NewReader(nil)
	}
	if v.r == nil || v.r.f == nil {
		return bytes.NewReader(nil)
	}
	n := v.Key("Length").Int64()
	raw := make([]byte, n)
	if _, err := v.r.f.ReadAt(raw, s.offset); err != nil && err != io.EOF {
		logger.Error("failed reading raw stream bytes", "err", err)
		return bytes.NewReader(nil)
	}

	filters, parms := v.filterChain()
	rd := io.Reader(bytes.NewReader(raw))
	for i, f := range filters {
		var dp Value
		if i < len(parms) {
			dp = parms[i]
		}
		next, err := applyFilter(f, rd, dp)
		if err != nil {
			logger.Error("stream filter failed", "filter", f, "err", err)
			return bytes.NewReader(nil)
		}
		rd = next
	}
	return rd
}

func (v Value) filterChain() ([]string, []Value) {
	var names []string
	var parms []Value
	ft := v.Key("Filter")
	switch ft.Kind() {
	case Name:
		names = append(names, ft.Name())
	case Array:
		for i := 0; i < ft.Len(); i++ {
			names = append(names, ft.Index(i).Name())
		}
	}
	dp := v.Key("DecodeParms")
	if dp.IsNull() {
		dp = v.Key("DP")
	}
	switch dp.Kind() {
	case Dict:
		parms = append(parms, dp)
	case Array:
		for i := 0; i < dp.Len(); i++ {
			parms = append(parms, dp.Index(i))
		}
	}
	return names, parms
}

func applyFilter(filterName string, r io.Reader, parms Value) (io.Reader, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "zlib init failed")
		}
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "zlib inflate failed")
		}
		return bytes.NewReader(applyPredictor(data, parms)), nil
	case "LZWDecode", "LZW":
		early := int64(1)
		if ec := parms.Key("EarlyChange"); !ec.IsNull() {
			early = ec.Int64()
		}
		lr := lzw.NewReader(r, early == 1)
		data, err := io.ReadAll(lr)
		lr.Close()
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "LZW decode failed")
		}
		return bytes.NewReader(applyPredictor(data, parms)), nil
	case "ASCII85Decode", "A85":
		data, err := decodeASCII85(r)
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "ASCII85 decode failed")
		}
		return bytes.NewReader(data), nil
	case "ASCIIHexDecode", "AHx":
		data, err := decodeASCIIHex(r)
		if err != nil {
			return nil, wrapErr(CorruptStream, err, "ASCIIHex decode failed")
		}
		return bytes.NewReader(data), nil
	case "DCTDecode", "DCT", "JPXDecode", "CCITTFaxDecode", "CCF", "RunLengthDecode", "RL":
		// Image-specific filters are left encoded for the caller (Images)
		// to hand to an image decoder; passthrough here.
		return r, nil
	case "":
		return r, nil
	default:
		return nil, newErr(UnsupportedFilter, "unsupported filter %q", filterName)
	}
}

func applyPredictor(data []byte, parms Value) []byte {
	if parms.IsNull() {
		return data
	}
	predictor := parms.Key("Predictor").Int64()
	if predictor == 0 || predictor == 1 {
		return data
	}
	columns := parms.Key("Columns").Int64()
	if columns == 0 {
		columns = 1
	}
	colors := parms.Key("Colors").Int64()
	if colors == 0 {
		colors = 1
	}
	bpc := parms.Key("BitsPerComponent").Int64()
	if bpc == 0 {
		bpc = 8
	}
	bytesPerPixel := int((colors*bpc + 7) / 8)
	rowBytes := int((colors*bpc*columns + 7) / 8)

	switch predictor {
	case 1:
		return data
	case 2:
		out, err := tiffPredictorUnfilter(data, rowBytes, bytesPerPixel)
		if err != nil {
			logger.Error("TIFF predictor failed", "err", err)
			return data
		}
		return out
	default:
		out, err := pngUnfilter(data, rowBytes, bytesPerPixel)
		if err != nil {
			logger.Error("PNG predictor failed", "err", err)
			return data
		}
		return out
	}
}
