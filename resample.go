// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"willnorris.com/go/hypia/internal/affine"
	"willnorris.com/go/hypia/internal/ndimage"
)

// warpAffine resamples a onto an h×w grid, mapping every output pixel
// through inverse to find its source position.
func warpAffine(a *ndimage.Array, inverse mgl64.Mat3, h, w int, opt Options) (*ndimage.Array, error) {
	return ndimage.Warp(a, func(x, y float64) (float64, float64) {
		return affine.Apply(inverse, x, y)
	}, h, w, opt.warpOptions())
}

// resize resamples a to h rows and w columns.
func resize(a *ndimage.Array, h, w int, opt Options) (*ndimage.Array, error) {
	fy := float64(a.H) / float64(h)
	fx := float64(a.W) / float64(w)

	src := a
	if opt.AntiAlias {
		sy, sx := math.Max(0, (fy-1)/2), math.Max(0, (fx-1)/2)
		if sy > 0 || sx > 0 {
			src = ndimage.GaussianFilter(a, sy, sx)
		}
	}
	return warpAffine(src, resizeMatrix(fy, fx, h, w), h, w, opt)
}

// resizeMatrix returns the output-to-input mapping of a resize with the
// given input/output size ratios. It is fitted to three corners of the
// output grid, each mapped to the input position of its pixel center, and
// then reduced to pure axis scaling.
func resizeMatrix(fy, fx float64, h, w int) mgl64.Mat3 {
	center := func(f, p float64) float64 { return f*(p+0.5) - 0.5 }

	corners := []mgl64.Vec2{
		{0, 0},
		{0, float64(h - 1)},
		{float64(w - 1), float64(h - 1)},
	}
	sources := make([]mgl64.Vec2, len(corners))
	for i, c := range corners {
		sources[i] = mgl64.Vec2{center(fx, c.X()), center(fy, c.Y())}
	}

	m, err := affine.Estimate(corners, sources)
	if err != nil {
		// a single row or column leaves the corners collinear
		m = mgl64.Translate2D(center(fx, 0), center(fy, 0)).Mul3(mgl64.Scale2D(fx, fy))
	}

	// column-major: m[3] is row 0 col 1, m[1] is row 1 col 0
	m[1], m[3] = 0, 0
	m[2], m[5], m[8] = 0, 0, 1
	return m
}
