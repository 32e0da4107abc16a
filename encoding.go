// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/nextpage-labs/pdfxref/logger"
)

// A TextEncoding represents a mapping between font code points and UTF-8
// text.
type TextEncoding interface {
	// Decode returns the UTF-8 text corresponding to the sequence of code
	// points in raw.
	Decode(raw string) (text string)
}

type nopEncoder struct{}

func (e *nopEncoder) Decode(raw string) (text string) { return raw }

type byteEncoder struct {
	table *[256]rune
}

func (e *byteEncoder) Decode(raw string) (text string) {
	r := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		r = append(r, e.table[raw[i]])
	}
	return string(r)
}

type dictEncoder struct {
	v Value
}

func (e *dictEncoder) Decode(raw string) (text string) {
	r := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		ch := rune(raw[i])
		n := -1
		for j := 0; j < e.v.Len(); j++ {
			x := e.v.Index(j)
			if x.Kind() == Integer {
				n = int(x.Int64())
				continue
			}
			if x.Kind() == Name {
				if int(raw[i]) == n {
					if repl := nameToRune[x.Name()]; repl != 0 {
						ch = repl
						break
					}
				}
				n++
			}
		}
		r = append(r, ch)
	}
	return string(r)
}

type byteRange struct {
	low  string
	high string
}

type bfchar struct {
	orig string
	repl string
}

type bfrange struct {
	lo  string
	hi  string
	dst Value
}

// cmap implements a ToUnicode CMap: codespace ranges determine how many
// raw bytes form one code, and bfchar/bfrange give the per-code or
// per-range Unicode replacement.
type cmap struct {
	space   [4][]byteRange
	bfrange []bfrange
	bfchar  []bfchar
}

// Decode translates raw character codes into Unicode text using the CMap
// rules. A byte sequence outside every declared codespace, or inside one
// but with no bfchar/bfrange match, is preserved rather than dropped.
func (m *cmap) Decode(raw string) string {
	var runes []rune
	for len(raw) > 0 {
		code, width := m.findNextCodespace(raw)
		if width == 0 {
			runes = append(runes, decodeUTF8OrPreserve(raw[:1])...)
			raw = raw[1:]
			continue
		}
		if decoded, ok := m.resolveCodeMapping(code, width); ok {
			runes = append(runes, decoded...)
		} else {
			runes = append(runes, decodeUTF8OrPreserve(code)...)
		}
		raw = raw[width:]
	}
	return string(runes)
}

func (m *cmap) findNextCodespace(raw string) (string, int) {
	for n := 1; n <= 4 && n <= len(raw); n++ {
		for _, sp := range m.space[n-1] {
			if sp.low <= raw[:n] && raw[:n] <= sp.high {
				return raw[:n], n
			}
		}
	}
	return "", 0
}

func (m *cmap) resolveCodeMapping(code string, width int) ([]rune, bool) {
	for _, bc := range m.bfchar {
		if len(bc.orig) == width && bc.orig == code {
			return []rune(utf16Decode(bc.repl)), true
		}
	}
	for _, br := range m.bfrange {
		if len(br.lo) == width && br.lo <= code && code <= br.hi {
			switch br.dst.Kind() {
			case String:
				return resolveBfrangeWithString(br, code), true
			case Array:
				return resolveBfrangeWithArray(br, code), true
			}
		}
	}
	return nil, false
}

func resolveBfrangeWithString(br bfrange, code string) []rune {
	s := br.dst.RawString()
	if br.lo != code && len(s) > 0 {
		b := []byte(s)
		b[len(b)-1] += code[len(code)-1] - br.lo[len(br.lo)-1]
		s = string(b)
	}
	return []rune(utf16Decode(s))
}

func resolveBfrangeWithArray(br bfrange, code string) []rune {
	idx := int(code[len(code)-1] - br.lo[len(br.lo)-1])
	v := br.dst.Index(idx)
	if v.Kind() == String {
		return []rune(utf16Decode(v.RawString()))
	}
	return nil
}

// readCmap parses an embedded CMap program (/ToUnicode stream) by driving
// it through the shared Interpret operand-stack loop.
func readCmap(toUnicode Value) *cmap {
	n := -1
	var m cmap
	ok := true
	Interpret(toUnicode, func(stk *Stack, op string) {
		if !ok {
			return
		}
		switch op {
		case "findresource":
			stk.Pop()
			stk.Pop()
			stk.Push(Value{obj: dict{}})
		case "begincmap":
			stk.Push(Value{obj: dict{}})
		case "endcmap":
			stk.Pop()
		case "begincodespacerange":
			n = int(stk.Pop().Int64())
		case "endcodespacerange":
			if n < 0 {
				logger.Error("readCmap: missing begincodespacerange")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				hi, lo := stk.Pop().RawString(), stk.Pop().RawString()
				if len(lo) == 0 || len(lo) != len(hi) {
					logger.Error("readCmap: bad codespace range")
					ok = false
					return
				}
				m.space[len(lo)-1] = append(m.space[len(lo)-1], byteRange{lo, hi})
			}
			n = -1
		case "beginbfchar":
			n = int(stk.Pop().Int64())
		case "endbfchar":
			if n < 0 {
				logger.Error("readCmap: missing beginbfchar")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				repl, orig := stk.Pop().RawString(), stk.Pop().RawString()
				m.bfchar = append(m.bfchar, bfchar{orig, repl})
			}
		case "beginbfrange":
			n = int(stk.Pop().Int64())
		case "endbfrange":
			if n < 0 {
				logger.Error("readCmap: missing beginbfrange")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				dst, hi, lo := stk.Pop(), stk.Pop().RawString(), stk.Pop().RawString()
				m.bfrange = append(m.bfrange, bfrange{lo, hi, dst})
			}
		case "defineresource":
			stk.Pop()
			value := stk.Pop()
			stk.Pop()
			stk.Push(value)
		default:
			logger.Debug("readCmap: unhandled cmap operator", "op", op, "trace", true)
		}
	})
	if !ok {
		return nil
	}
	return &m
}

func utf16Decode(s string) string {
	if len(s)%2 != 0 {
		s = s[:len(s)-1]
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.String(s)
	if err != nil {
		logger.Debug("utf16Decode: falling back to raw bytes", "err", err, "trace", true)
		return s
	}
	return out
}

func decodeUTF8OrPreserve(s string) []rune {
	if utf8.ValidString(s) {
		return []rune(s)
	}
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, rune(s[i]))
	}
	return out
}

// IsSameSentence is a light heuristic for whether two consecutively
// extracted Text runs belong to the same visual sentence: same font, same
// size, and close enough vertically to be on the same baseline.
func IsSameSentence(a, b Text) bool {
	const yTolerance = 0.5
	return a.Font == b.Font && a.FontSize == b.FontSize && absFloat(a.Y-b.Y) < yTolerance
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// winAnsiEncoding implements Adobe's WinAnsiEncoding: bytes 0x20-0x7E and
// 0xA0-0xFF coincide with Latin-1; 0x80-0x9F carry Windows-1252 glyphs.
var winAnsiEncoding = buildLatin1Table(map[byte]rune{
	0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E,
	0x85: 0x2026, 0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6,
	0x89: 0x2030, 0x8A: 0x0160, 0x8B: 0x2039, 0x8C: 0x0152,
	0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019, 0x93: 0x201C,
	0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
	0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A,
	0x9C: 0x0153, 0x9E: 0x017E, 0x9F: 0x0178,
})

// macRomanEncoding implements the subset of Adobe's MacRomanEncoding used
// by embedded fonts without their own Differences array; the printable
// ASCII range is shared with WinAnsi and Latin-1.
var macRomanEncoding = buildLatin1Table(map[byte]rune{
	0x80: 0x00C4, 0x81: 0x00C5, 0x82: 0x00C7, 0x83: 0x00C9,
	0x84: 0x00D1, 0x85: 0x00D6, 0x86: 0x00DC, 0x87: 0x00E1,
	0x88: 0x00E0, 0x89: 0x00E2, 0x8A: 0x00E4, 0x8B: 0x00E3,
	0x8C: 0x00E5, 0x8D: 0x00E7, 0x8E: 0x00E9, 0x8F: 0x00E8,
	0x90: 0x00EA, 0x91: 0x00EB, 0x92: 0x00ED, 0x93: 0x00EC,
	0x94: 0x00EE, 0x95: 0x00EF, 0x96: 0x00F1, 0x97: 0x00F3,
	0x98: 0x00F2, 0x99: 0x00F4, 0x9A: 0x00F6, 0x9B: 0x00F5,
	0x9C: 0x00FA, 0x9D: 0x00F9, 0x9E: 0x00FB, 0x9F: 0x00FC,
})

// pdfDocEncoding implements PDFDocEncoding, used for text strings with no
// UTF-16 BOM; shares the 0x18-0x1F and 0x80-0x9F exceptions already used
// to decode PDF text strings in decodePDFDocEncoding.
var pdfDocEncoding = buildPDFDocTable()

func buildLatin1Table(exceptions map[byte]rune) [256]rune {
	var t [256]rune
	for i := 0; i < 256; i++ {
		t[i] = rune(i)
	}
	for b, r := range exceptions {
		t[b] = r
	}
	return t
}

func buildPDFDocTable() [256]rune {
	var t [256]rune
	for i := 0; i < 256; i++ {
		t[i] = rune(i)
	}
	for b, r := range pdfDocEncodingTable {
		t[b] = r
	}
	return t
}

// nameToRune maps a practically-occurring subset of Adobe glyph names
// (AGL) to their Unicode code points, enough to resolve the /Differences
// arrays that real-world subset fonts declare.
var nameToRune = map[string]rune{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "quotesingle": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002A, "plus": 0x002B,
	"comma": 0x002C, "hyphen": 0x002D, "period": 0x002E, "slash": 0x002F,
	"zero": 0x0030, "one": 0x0031, "two": 0x0032, "three": 0x0033, "four": 0x0034,
	"five": 0x0035, "six": 0x0036, "seven": 0x0037, "eight": 0x0038, "nine": 0x0039,
	"colon": 0x003A, "semicolon": 0x003B, "less": 0x003C, "equal": 0x003D,
	"greater": 0x003E, "question": 0x003F, "at": 0x0040,
	"bracketleft": 0x005B, "backslash": 0x005C, "bracketright": 0x005D,
	"asciicircum": 0x005E, "underscore": 0x005F, "grave": 0x0060,
	"braceleft": 0x007B, "bar": 0x007C, "braceright": 0x007D, "asciitilde": 0x007E,
	"quoteleft": 0x2018, "quoteright": 0x2019, "quotedblleft": 0x201C,
	"quotedblright": 0x201D, "bullet": 0x2022, "endash": 0x2013, "emdash": 0x2014,
	"ellipsis": 0x2026, "fi": 0xFB01, "fl": 0xFB02, "trademark": 0x2122,
	"dagger": 0x2020, "daggerdbl": 0x2021, "florin": 0x0192, "Euro": 0x20AC,
	"degree": 0x00B0, "section": 0x00A7, "paragraph": 0x00B6, "copyright": 0x00A9,
	"registered": 0x00AE,
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		nameToRune[string(c)] = c
	}
	for c := 'a'; c <= 'z'; c++ {
		nameToRune[string(c)] = c
	}
}
