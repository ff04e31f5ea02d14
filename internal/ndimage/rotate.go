// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package ndimage

import "math"

// Rotate turns a by the given angle in degrees within the (row, column)
// plane, about the center of the array. If reshape is true the output grows
// so that the whole rotated input stays in view; otherwise the output has
// the shape of a and the corners are cut off.
func Rotate(a *Array, degrees float64, reshape bool, opt WarpOptions) (*Array, error) {
	c, s := cosDeg(degrees), sinDeg(degrees)

	inH, inW := float64(a.H), float64(a.W)
	outH, outW := a.H, a.W
	if reshape {
		// rotated corners of the input plane
		rows := [4]float64{0, s * inW, c * inH, c*inH + s*inW}
		cols := [4]float64{0, c * inW, -s * inH, -s*inH + c*inW}
		outH = int(spread(rows) + 0.5)
		outW = int(spread(cols) + 0.5)
	}

	outCY, outCX := float64(outH-1)/2, float64(outW-1)/2
	offY := (inH-1)/2 - (c*outCY + s*outCX)
	offX := (inW-1)/2 - (-s*outCY + c*outCX)

	return Warp(a, func(x, y float64) (float64, float64) {
		return -s*y + c*x + offX, c*y + s*x + offY
	}, outH, outW, opt)
}

// spread returns max(v) - min(v).
func spread(v [4]float64) float64 {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return hi - lo
}

// quarterTurn reports whether degrees is a whole multiple of 90 and, if so,
// how many quarter turns (mod 4) it is.
func quarterTurn(degrees float64) (int, bool) {
	q := math.Round(degrees / 90)
	if math.Abs(degrees-q*90) > coordTolerance {
		return 0, false
	}
	n := int(math.Mod(q, 4))
	if n < 0 {
		n += 4
	}
	return n, true
}

// cosDeg and sinDeg are exact at multiples of 90 degrees so that quarter
// turns land on the sample grid.
func cosDeg(degrees float64) float64 {
	if q, ok := quarterTurn(degrees); ok {
		return [4]float64{1, 0, -1, 0}[q]
	}
	return math.Cos(degrees * math.Pi / 180)
}

func sinDeg(degrees float64) float64 {
	if q, ok := quarterTurn(degrees); ok {
		return [4]float64{0, 1, 0, -1}[q]
	}
	return math.Sin(degrees * math.Pi / 180)
}
