// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// FromImage converts src to a multi-band Image with samples in [0, 1]. The
// result has 3 bands (red, green, blue), or 4 if src has any transparency.
func FromImage(src image.Image, layout Layout) *Image {
	n := imaging.Clone(src)
	b := n.Bounds()
	h, w := b.Dy(), b.Dx()
	bands := 3
	if !n.Opaque() {
		bands = 4
	}

	m := New(layout, h, w, bands)
	for y := 0; y < h; y++ {
		row := n.Pix[y*n.Stride : y*n.Stride+w*4]
		for x := 0; x < w; x++ {
			for c := 0; c < bands; c++ {
				m.Set(layout, y, x, c, float64(row[x*4+c])/255)
			}
		}
	}
	return m
}

// ToImage renders three bands of m as an opaque RGB image. Band values are
// mapped linearly from the window [lo, hi] onto [0, 255] and clamped.
func ToImage(m *Image, layout Layout, bands [3]int, lo, hi float64) (*image.NRGBA, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("hypia: empty value window [%g, %g]", lo, hi)
	}
	h, w, c := m.Dims(layout)
	for _, b := range bands {
		if b < 0 || b >= c {
			return nil, fmt.Errorf("hypia: band %d out of range for %d channels", b, c)
		}
	}

	dst := imaging.New(w, h, color.NRGBA{A: 255})
	scale := 255 / (hi - lo)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*dst.Stride + x*4
			for j, b := range bands {
				v := (m.At(layout, y, x, b) - lo) * scale
				dst.Pix[i+j] = uint8(math.Round(math.Max(0, math.Min(v, 255))))
			}
		}
	}
	return dst, nil
}
