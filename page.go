// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/nextpage-labs/pdfxref/logger"
)

// Page represents a single page in a PDF document. Its methods interpret
// the page dictionary stored in V.
type Page struct {
	V Value
}

// Page returns the page for the given 1-indexed page number. If the page
// cannot be found, it returns a Page with p.V.IsNull().
func (r *Reader) Page(num int) Page {
	logger.Debug(fmt.Sprintf("reading page %d", num), true)
	num--
	page := r.Root().Key("Pages")
Search:
	for page.Key("Type").Name() == "Pages" {
		count := int(page.Key("Count").Int64())
		if count < num {
			return Page{}
		}
		kids := page.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if kid.Key("Type").Name() == "Pages" {
				c := int(kid.Key("Count").Int64())
				if num < c {
					page = kid
					continue Search
				}
				num -= c
				continue
			}
			if kid.Key("Type").Name() == "Page" {
				if num == 0 {
					return Page{kid}
				}
				num--
			}
		}
		break
	}
	return Page{}
}

// NumPage returns the total number of pages in the document.
func (r *Reader) NumPage() int {
	return int(r.Root().Key("Pages").Key("Count").Int64())
}

// GetPlainText concatenates the extracted text of every page.
func (r *Reader) GetPlainText() (string, error) {
	fonts := make(map[string]*Font)
	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		for _, fname := range p.Fonts() {
			if _, ok := fonts[fname]; !ok {
				f := p.Font(fname)
				fonts[fname] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return "", err
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func (p Page) findInherited(key string) Value {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
	}
	return Value{}
}

// MediaBox returns the page's media box, inherited from an ancestor Pages
// node when the page itself does not declare one.
func (p Page) MediaBox() Rect {
	return rectFromValue(p.findInherited("MediaBox"))
}

// CropBox returns the page's crop box, falling back to MediaBox when absent.
func (p Page) CropBox() Rect {
	v := p.findInherited("CropBox")
	if v.IsNull() {
		return p.MediaBox()
	}
	return rectFromValue(v)
}

func rectFromValue(v Value) Rect {
	if v.Kind() != Array || v.Len() != 4 {
		return Rect{}
	}
	return Rect{
		Min: Point{X: v.Index(0).Float64(), Y: v.Index(1).Float64()},
		Max: Point{X: v.Index(2).Float64(), Y: v.Index(3).Float64()},
	}
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// Fonts returns the resource names of the fonts referenced by the page.
func (p Page) Fonts() []string {
	return p.Resources().Key("Font").Keys()
}

// Font returns the font resource with the given name.
func (p Page) Font(fontName string) Font {
	return Font{V: p.Resources().Key("Font").Key(fontName)}
}

// Font represents a font dictionary in a PDF document.
type Font struct {
	V   Value
	enc TextEncoding
}

// BaseFont returns the font's PostScript name.
func (f Font) BaseFont() string { return f.V.Key("BaseFont").Name() }

// FirstChar returns the code point of the first character described by
// the font's /Widths array.
func (f Font) FirstChar() int { return int(f.V.Key("FirstChar").Int64()) }

// LastChar returns the code point of the last character described by the
// font's /Widths array.
func (f Font) LastChar() int { return int(f.V.Key("LastChar").Int64()) }

// Widths returns the per-glyph widths declared by the font.
func (f Font) Widths() []float64 {
	x := f.V.Key("Widths")
	out := make([]float64, 0, x.Len())
	for i := 0; i < x.Len(); i++ {
		out = append(out, x.Index(i).Float64())
	}
	return out
}

// Width returns the width of the glyph for the given character code, or 0
// if the code falls outside FirstChar..LastChar.
func (f Font) Width(code int) float64 {
	first, last := f.FirstChar(), f.LastChar()
	if code < first || last < code {
		return 0
	}
	return f.V.Key("Widths").Index(code - first).Float64()
}

// Encoder returns, and caches, the mapping between this font's character
// codes and UTF-8 text.
func (f *Font) Encoder() TextEncoding {
	if f.enc == nil {
		f.enc = f.getEncoder()
	}
	return f.enc
}

func (f *Font) getEncoder() TextEncoding {
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		switch enc.Name() {
		case "WinAnsiEncoding":
			return &byteEncoder{&winAnsiEncoding}
		case "MacRomanEncoding":
			return &byteEncoder{&macRomanEncoding}
		case "Identity-H", "Identity-V":
			return f.charmapEncoding()
		default:
			logger.Debug("getEncoder: unrecognized named encoding", "name", enc.Name())
			return &nopEncoder{}
		}
	case Dict:
		return &dictEncoder{enc.Key("Differences")}
	case Null:
		return f.charmapEncoding()
	default:
		return &nopEncoder{}
	}
}

func (f *Font) charmapEncoding() TextEncoding {
	toUnicode := f.V.Key("ToUnicode")
	if toUnicode.Kind() == Stream {
		if m := readCmap(toUnicode); m != nil {
			return m
		}
		return &nopEncoder{}
	}
	return &byteEncoder{&pdfDocEncoding}
}

// matrix is a 3x3 row-vector transform matrix, as used by PDF's text and
// graphics state machinery.
type matrix [3][3]float64

var identityMatrix = matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (x matrix) mul(y matrix) matrix {
	var z matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				z[i][j] += x[i][k] * y[k][j]
			}
		}
	}
	return z
}

// Text is a single run of text drawn on a page.
type Text struct {
	Font     string
	FontSize float64
	X        float64
	Y        float64
	W        float64
	S        string
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max Point
}

// Point is an (X, Y) coordinate pair, in points.
type Point struct {
	X float64
	Y float64
}

// ImagePlacement records where a raster image XObject was painted, via
// the content-transformation matrix in effect at its "Do" operator.
type ImagePlacement struct {
	Name string
	CTM  [3][3]float64
}

// Content is the decoded content of a page: the text runs and rectangles
// it draws, and every image XObject it paints.
type Content struct {
	Text   []Text
	Rects  []Rect
	Images []ImagePlacement
}

type gstate struct {
	Tc, Tw, Th, Tl, Tfs, Trise float64
	Tmode                      int
	Tf                         *Font
	Tm, Tlm, CTM               matrix
}

func newGState() gstate {
	return gstate{Th: 1, Tm: identityMatrix, Tlm: identityMatrix, CTM: identityMatrix}
}

// transformRect maps a user-space "re" rectangle through the current
// transformation matrix and returns its axis-aligned bounding box.
func (gs *gstate) transformRect(x, y, w, h float64) Rect {
	corners := [4][2]float64{{x, y}, {x + w, y}, {x, y + h}, {x + w, y + h}}
	var minX, minY, maxX, maxY float64
	for i, c := range corners {
		p := matrix{{c[0], c[1], 1}}.mul(gs.CTM)
		if i == 0 || p[0][0] < minX {
			minX = p[0][0]
		}
		if i == 0 || p[0][1] < minY {
			minY = p[0][1]
		}
		if i == 0 || p[0][0] > maxX {
			maxX = p[0][0]
		}
		if i == 0 || p[0][1] > maxY {
			maxY = p[0][1]
		}
	}
	return Rect{Min: Point{minX, minY}, Max: Point{maxX, maxY}}
}

// Content interprets the page's content stream and returns every text run
// it draws, in drawing order.
func (p Page) Content() (result Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint(r))
		}
	}()
	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return Content{}, nil
	}
	strm := p.V.Key("Contents")

	fonts := make(map[string]*Font)
	for _, fname := range p.Fonts() {
		f := p.Font(fname)
		fonts[fname] = &f
	}

	gs := newGState()
	var stack []gstate

	Interpret(strm, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "q":
			stack = append(stack, gs)
		case "Q":
			if len(stack) > 0 {
				gs = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if len(args) == 6 {
				gs.CTM = matrix{
					{args[0].Float64(), args[1].Float64(), 0},
					{args[2].Float64(), args[3].Float64(), 0},
					{args[4].Float64(), args[5].Float64(), 1},
				}.mul(gs.CTM)
			}
		case "BT":
			gs.Tm = identityMatrix
			gs.Tlm = identityMatrix
		case "ET":
		case "Tc":
			if len(args) == 1 {
				gs.Tc = args[0].Float64()
			}
		case "Tw":
			if len(args) == 1 {
				gs.Tw = args[0].Float64()
			}
		case "Tz":
			if len(args) == 1 {
				gs.Th = args[0].Float64() / 100
			}
		case "TL":
			if len(args) == 1 {
				gs.Tl = args[0].Float64()
			}
		case "Ts":
			if len(args) == 1 {
				gs.Trise = args[0].Float64()
			}
		case "Tr":
			if len(args) == 1 {
				gs.Tmode = int(args[0].Int64())
			}
		case "Tf":
			if len(args) == 2 {
				if f, ok := fonts[args[0].Name()]; ok {
					gs.Tf = f
				} else {
					gs.Tf = nil
				}
				gs.Tfs = args[1].Float64()
			}
		case "Td":
			if len(args) == 2 {
				gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {args[0].Float64(), args[1].Float64(), 1}}.mul(gs.Tlm)
				gs.Tm = gs.Tlm
			}
		case "TD":
			if len(args) == 2 {
				gs.Tl = -args[1].Float64()
				gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {args[0].Float64(), args[1].Float64(), 1}}.mul(gs.Tlm)
				gs.Tm = gs.Tlm
			}
		case "Tm":
			if len(args) == 6 {
				gs.Tlm = matrix{
					{args[0].Float64(), args[1].Float64(), 0},
					{args[2].Float64(), args[3].Float64(), 0},
					{args[4].Float64(), args[5].Float64(), 1},
				}
				gs.Tm = gs.Tlm
			}
		case "T*":
			gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {0, -gs.Tl, 1}}.mul(gs.Tlm)
			gs.Tm = gs.Tlm
		case "Tj":
			if len(args) == 1 {
				result.Text = append(result.Text, gs.showText(args[0].RawString()))
			}
		case "'":
			if len(args) == 1 {
				gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {0, -gs.Tl, 1}}.mul(gs.Tlm)
				gs.Tm = gs.Tlm
				result.Text = append(result.Text, gs.showText(args[0].RawString()))
			}
		case `"`:
			if len(args) == 3 {
				gs.Tw = args[0].Float64()
				gs.Tc = args[1].Float64()
				gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {0, -gs.Tl, 1}}.mul(gs.Tlm)
				gs.Tm = gs.Tlm
				result.Text = append(result.Text, gs.showText(args[2].RawString()))
			}
		case "TJ":
			if len(args) == 1 {
				v := args[0]
				for i := 0; i < v.Len(); i++ {
					x := v.Index(i)
					if x.Kind() == String {
						result.Text = append(result.Text, gs.showText(x.RawString()))
					}
				}
			}
		case "re":
			if len(args) == 4 {
				result.Rects = append(result.Rects, gs.transformRect(
					args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64()))
			}
		case "Do":
			if len(args) == 1 {
				name := args[0].Name()
				xobj := p.Resources().Key("XObject").Key(name)
				if xobj.Key("Subtype").Name() == "Image" {
					result.Images = append(result.Images, ImagePlacement{Name: name, CTM: gs.CTM})
				}
			}
		}
	})

	return result, nil
}

func (gs *gstate) showText(raw string) Text {
	enc := TextEncoding(&nopEncoder{})
	if gs.Tf != nil {
		enc = gs.Tf.Encoder()
	}
	s := enc.Decode(raw)
	trm := matrix{{gs.Tfs * gs.Th, 0, 0}, {0, gs.Tfs, 0}, {0, gs.Trise, 1}}.mul(gs.Tm).mul(gs.CTM)
	t := Text{S: s, X: trm[2][0], Y: trm[2][1], FontSize: gs.Tfs}
	if gs.Tf != nil {
		t.Font = gs.Tf.BaseFont()
	}
	return t
}

// GetPlainText decodes the page's content stream into a single string,
// ignoring positioning. fonts may be supplied by the caller to avoid
// re-parsing each font's encoding on every page.
func (p Page) GetPlainText(fonts map[string]*Font) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = errors.New(fmt.Sprint(r))
		}
	}()

	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return "", nil
	}
	strm := p.V.Key("Contents")
	var enc TextEncoding = &nopEncoder{}

	if fonts == nil {
		fonts = make(map[string]*Font)
		for _, fname := range p.Fonts() {
			f := p.Font(fname)
			fonts[fname] = &f
		}
	}

	var buf bytes.Buffer
	showEncoded := func(s string) { buf.WriteString(enc.Decode(s)) }

	Interpret(strm, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "BT":
			buf.WriteString("\n")
		case "T*":
			showEncoded("\n")
		case "Tf":
			if len(args) == 2 {
				if font, ok := fonts[args[0].Name()]; ok {
					enc = font.Encoder()
				} else {
					enc = &nopEncoder{}
				}
			}
		case `"`:
			if len(args) == 3 {
				showEncoded(args[2].RawString())
			}
		case "'":
			if len(args) == 1 {
				showEncoded(args[0].RawString())
			}
		case "Tj":
			if len(args) == 1 {
				showEncoded(args[0].RawString())
			}
		case "TJ":
			if len(args) == 1 {
				v := args[0]
				for i := 0; i < v.Len(); i++ {
					x := v.Index(i)
					if x.Kind() == String {
						showEncoded(x.RawString())
					}
				}
			}
		}
	})

	return buf.String(), nil
}

// TextVertical sorts Text runs top-to-bottom for Column ordering.
type TextVertical []Text

func (x TextVertical) Len() int      { return len(x) }
func (x TextVertical) Swap(i, j int) { x[i], x[j] = x[j], x[i] }
func (x TextVertical) Less(i, j int) bool {
	return x[i].Y > x[j].Y
}

// TextHorizontal sorts Text runs left-to-right for Row ordering.
type TextHorizontal []Text

func (x TextHorizontal) Len() int      { return len(x) }
func (x TextHorizontal) Swap(i, j int) { x[i], x[j] = x[j], x[i] }
func (x TextHorizontal) Less(i, j int) bool {
	return x[i].X < x[j].X
}

// Column is the contents of a single text column, keyed by its X position.
type Column struct {
	Position int64
	Content  TextVertical
}

// Columns is a list of Column.
type Columns []*Column

// GetTextByColumn groups all of the page's text runs by their X position.
func (p Page) GetTextByColumn() (result Columns, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = Columns{}, errors.New(fmt.Sprint(r))
		}
	}()

	p.walkTextBlocks(func(enc TextEncoding, x, y float64, s string) {
		text := Text{S: enc.Decode(s), X: x, Y: y}
		var col *Column
		for _, c := range result {
			if int64(x) == c.Position {
				col = c
				break
			}
		}
		if col == nil {
			col = &Column{Position: int64(x)}
			result = append(result, col)
		}
		col.Content = append(col.Content, text)
	})

	for _, col := range result {
		sort.Sort(col.Content)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, err
}

// Row is the contents of a single text row, keyed by its Y position.
type Row struct {
	Position int64
	Content  TextHorizontal
}

// Rows is a list of Row.
type Rows []*Row

// GetTextByRow groups all of the page's text runs by their Y position.
func (p Page) GetTextByRow() (result Rows, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = Rows{}, errors.New(fmt.Sprint(r))
		}
	}()

	p.walkTextBlocks(func(enc TextEncoding, x, y float64, s string) {
		text := Text{S: enc.Decode(s), X: x, Y: y}
		var row *Row
		for _, r := range result {
			if int64(y) == r.Position {
				row = r
				break
			}
		}
		if row == nil {
			row = &Row{Position: int64(y)}
			result = append(result, row)
		}
		row.Content = append(row.Content, text)
	})

	for _, row := range result {
		sort.Sort(row.Content)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position > result[j].Position })
	return result, err
}

func (p Page) walkTextBlocks(walker func(enc TextEncoding, x, y float64, s string)) {
	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return
	}
	strm := p.V.Key("Contents")

	fonts := make(map[string]*Font)
	for _, fname := range p.Fonts() {
		f := p.Font(fname)
		fonts[fname] = &f
	}

	gs := newGState()
	Interpret(strm, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) == 2 {
				if font, ok := fonts[args[0].Name()]; ok {
					gs.Tf = font
				} else {
					gs.Tf = nil
				}
				gs.Tfs = args[1].Float64()
			}
		case "Td", "TD":
			if len(args) == 2 {
				gs.Tlm = matrix{{1, 0, 0}, {0, 1, 0}, {args[0].Float64(), args[1].Float64(), 1}}.mul(gs.Tlm)
				gs.Tm = gs.Tlm
			}
		case "Tm":
			if len(args) == 6 {
				gs.Tlm = matrix{
					{args[0].Float64(), args[1].Float64(), 0},
					{args[2].Float64(), args[3].Float64(), 0},
					{args[4].Float64(), args[5].Float64(), 1},
				}
				gs.Tm = gs.Tlm
			}
		case `"`:
			if len(args) == 3 {
				emit(walker, gs, args[2].RawString())
			}
		case "'":
			if len(args) == 1 {
				emit(walker, gs, args[0].RawString())
			}
		case "Tj":
			if len(args) == 1 {
				emit(walker, gs, args[0].RawString())
			}
		case "TJ":
			if len(args) == 1 {
				v := args[0]
				for i := 0; i < v.Len(); i++ {
					x := v.Index(i)
					if x.Kind() == String {
						emit(walker, gs, x.RawString())
					}
				}
			}
		}
	})
}

func emit(walker func(enc TextEncoding, x, y float64, s string), gs gstate, raw string) {
	enc := TextEncoding(&nopEncoder{})
	if gs.Tf != nil {
		enc = gs.Tf.Encoder()
	}
	trm := matrix{{gs.Tfs * gs.Th, 0, 0}, {0, gs.Tfs, 0}, {0, gs.Trise, 1}}.mul(gs.Tm).mul(gs.CTM)
	walker(enc, trm[2][0], trm[2][1], raw)
}

// Outline is one entry of the document's bookmark tree.
type Outline struct {
	Title    string
	Children []Outline
}

// Outline returns the document's bookmark tree, rooted at the trailer's
// /Root /Outlines entry.
func (r *Reader) Outline() Outline {
	return buildOutline(r.Root().Key("Outlines"))
}

func buildOutline(entry Value) Outline {
	var o Outline
	if entry.IsNull() {
		return o
	}
	o.Title = entry.Key("Title").Text()
	for kid := entry.Key("First"); !kid.IsNull(); kid = kid.Key("Next") {
		o.Children = append(o.Children, buildOutline(kid))
	}
	return o
}
