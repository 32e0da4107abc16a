// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	_ "golang.org/x/image/tiff"
)

// Image is a decoded (or pass-through) raster image XObject.
type Image struct {
	Name       string
	Width      int
	Height     int
	ColorSpace string
	Filter     string
	// Img is the decoded image for /DCTDecode (JPEG) samples that
	// image/jpeg can decode. It is nil for every other filter, which this
	// module only exposes as raw samples (e.g. CCITT fax data).
	Img image.Image
	// Raw holds the stream bytes when Img is nil, after Value.Reader's
	// filter chain; image-specific encodings that chain passes through
	// (DCT, JPX, CCITT fax and the like) are still encoded, so a caller
	// can apply its own decoder.
	Raw []byte
}

// Images walks the page's /Resources/XObject dictionary and decodes every
// entry whose /Subtype is /Image. The returned images carry no placement
// matrix; the matrices from the content stream's "Do" operators are
// reported by Content().Images.
func (p Page) Images() ([]Image, error) {
	xobjs := p.Resources().Key("XObject")
	if xobjs.Kind() != Dict {
		return nil, nil
	}

	content, err := p.Content()
	if err != nil {
		return nil, err
	}
	placed := make(map[string]bool)
	for _, pl := range content.Images {
		placed[pl.Name] = true
	}

	var out []Image
	for _, name := range xobjs.Keys() {
		v := xobjs.Key(name)
		if v.Key("Subtype").Name() != "Image" {
			continue
		}
		img, err := decodeImageXObject(name, v)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func decodeImageXObject(name string, v Value) (Image, error) {
	img := Image{
		Name:       name,
		Width:      int(v.Key("Width").Int64()),
		Height:     int(v.Key("Height").Int64()),
		ColorSpace: colorSpaceName(v.Key("ColorSpace")),
		Filter:     v.Key("Filter").Name(),
	}

	data, err := io.ReadAll(v.Reader())
	if err != nil {
		return img, wrapErr(CorruptStream, err, "reading image XObject stream")
	}

	switch img.Filter {
	case "DCTDecode", "DCT":
		decoded, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			img.Raw = data
			return img, nil
		}
		img.Img = decoded
	default:
		img.Raw = data
	}
	return img, nil
}

func colorSpaceName(v Value) string {
	switch v.Kind() {
	case Name:
		return v.Name()
	case Array:
		if v.Len() > 0 {
			return v.Index(0).Name()
		}
	}
	return ""
}
