// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

// Package ndimage implements the numerical primitives used by the transforms:
// spline interpolation at fractional coordinates, coordinate-mapped warping,
// rotation about the array center and separable Gaussian blurring.
//
// All functions operate on an Array in (row, column, channel) order. The
// channel axis is never interpolated; every channel of a pixel is sampled with
// the same weights.
package ndimage

// Array is a dense volume of float64 samples stored in (row, column, channel)
// order.
type Array struct {
	H, W, C int
	Pix     []float64
}

// NewArray allocates a zeroed h×w×c array.
func NewArray(h, w, c int) *Array {
	return &Array{H: h, W: w, C: c, Pix: make([]float64, h*w*c)}
}

// Offset returns the index in Pix of the first channel of pixel (y, x).
func (a *Array) Offset(y, x int) int {
	return (y*a.W + x) * a.C
}

// At returns the sample at row y, column x, channel c.
func (a *Array) At(y, x, c int) float64 {
	return a.Pix[a.Offset(y, x)+c]
}

// Set stores v at row y, column x, channel c.
func (a *Array) Set(y, x, c int, v float64) {
	a.Pix[a.Offset(y, x)+c] = v
}

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	b := &Array{H: a.H, W: a.W, C: a.C, Pix: make([]float64, len(a.Pix))}
	copy(b.Pix, a.Pix)
	return b
}

// valueRange returns the smallest and largest sample in a.
func (a *Array) valueRange() (lo, hi float64) {
	if len(a.Pix) == 0 {
		return 0, 0
	}
	lo, hi = a.Pix[0], a.Pix[0]
	for _, v := range a.Pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
