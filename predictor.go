// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

// pngUnfilter reverses the PNG-style filtering applied before FlateDecode
// compression (Predictor values 10-15 all produce PNG-tagged rows; only
// the "Up" filter, tag 2, and "None", tag 0, are accepted here since those
// are the only tags real-world PDF producers emit in practice). Each
// encoded row carries a one-byte filter-type tag followed by rowBytes of
// filtered data.
func pngUnfilter(data []byte, rowBytes, bytesPerPixel int) ([]byte, error) {
	if rowBytes <= 0 {
		return nil, newErr(CorruptStream, "predictor: non-positive row width")
	}
	stride := rowBytes + 1
	if len(data)%stride != 0 {
		// Tolerate a short final row by truncating to whole rows; a
		// strictly conforming producer never emits a partial row.
		data = data[:len(data)-len(data)%stride]
	}
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowBytes)
	prev := make([]byte, rowBytes)

	for r := 0; r < rows; r++ {
		row := data[r*stride : r*stride+stride]
		tag := row[0]
		cur := make([]byte, rowBytes)
		copy(cur, row[1:])

		switch tag {
		case 0: // None
		case 2: // Up
			for i := 0; i < rowBytes; i++ {
				cur[i] = cur[i] + prev[i]
			}
		default:
			return nil, newErr(UnsupportedPredictor, "predictor: unsupported PNG filter tag %d", tag)
		}

		out = append(out, cur...)
		prev = cur
	}
	return out, nil
}

// pngUpUnfilter is the pure, allocation-light entry point used to validate
// the PNG-Up round trip against arbitrary byte matrices: it assumes every
// row was filtered with tag 2 (Up) and has no leading tag byte of its own,
// unlike pngUnfilter which reads the tag from the stream itself.
func pngUpUnfilter(data []byte, columns int) ([]byte, error) {
	if columns <= 0 {
		return nil, newErr(CorruptStream, "predictor: non-positive column count")
	}
	if len(data)%columns != 0 {
		return nil, newErr(CorruptStream, "predictor: data length not a multiple of columns")
	}
	rows := len(data) / columns
	out := make([]byte, len(data))
	prev := make([]byte, columns)
	for r := 0; r < rows; r++ {
		row := data[r*columns : (r+1)*columns]
		cur := out[r*columns : (r+1)*columns]
		for i := 0; i < columns; i++ {
			cur[i] = row[i] + prev[i]
		}
		prev = cur
	}
	return out, nil
}

// pngUpFilter is the encoder-side counterpart used only by tests to build
// round-trip fixtures.
func pngUpFilter(data []byte, columns int) []byte {
	if columns <= 0 || len(data)%columns != 0 {
		return nil
	}
	rows := len(data) / columns
	out := make([]byte, len(data))
	prev := make([]byte, columns)
	for r := 0; r < rows; r++ {
		row := data[r*columns : (r+1)*columns]
		cur := out[r*columns : (r+1)*columns]
		for i := 0; i < columns; i++ {
			cur[i] = row[i] - prev[i]
		}
		prev = row
	}
	return out
}

// tiffPredictorUnfilter reverses Predictor 2 (component-wise horizontal
// differencing), the only other predictor PDF producers use.
func tiffPredictorUnfilter(data []byte, rowBytes, bytesPerPixel int) ([]byte, error) {
	if rowBytes <= 0 || bytesPerPixel <= 0 {
		return nil, newErr(CorruptStream, "predictor: invalid row geometry")
	}
	if len(data)%rowBytes != 0 {
		data = data[:len(data)-len(data)%rowBytes]
	}
	out := make([]byte, len(data))
	copy(out, data)
	rows := len(data) / rowBytes
	for r := 0; r < rows; r++ {
		row := out[r*rowBytes : (r+1)*rowBytes]
		for i := bytesPerPixel; i < len(row); i++ {
			row[i] = row[i] + row[i-bytesPerPixel]
		}
	}
	return out, nil
}
