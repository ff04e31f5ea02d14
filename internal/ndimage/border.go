// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package ndimage

import (
	"fmt"
	"math"
)

// Mode selects how samples outside the array are produced.
type Mode int

const (
	// ModeEdge extends the outermost samples (a a a | a b c d | d d d).
	ModeEdge Mode = iota
	// ModeConstant fills everything outside the array with a constant.
	ModeConstant
	// ModeReflect reflects about the outer pixel edge (b a | a b c d | d c).
	ModeReflect
	// ModeMirror reflects about the outer pixel center (c b | a b c d | c b).
	ModeMirror
	// ModeWrap repeats the array periodically (c d | a b c d | a b).
	ModeWrap
)

var modeNames = [...]string{"edge", "constant", "reflect", "mirror", "wrap"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

// coordTolerance absorbs rounding noise from matrix products so that
// coordinates landing a hair outside the grid still count as inside.
const coordTolerance = 1e-9

// mapIndex maps the integer position i onto [0, n) according to mode. For
// ModeConstant, ok is false when i falls outside the array.
func mapIndex(i, n int, mode Mode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	if n == 1 {
		return 0, mode != ModeConstant
	}
	switch mode {
	case ModeConstant:
		return 0, false
	case ModeReflect:
		p := 2 * n
		i %= p
		if i < 0 {
			i += p
		}
		if i >= n {
			i = p - 1 - i
		}
	case ModeMirror:
		p := 2 * (n - 1)
		if i < 0 {
			i = -i
		}
		i %= p
		if i >= n {
			i = p - i
		}
	case ModeWrap:
		i %= n
		if i < 0 {
			i += n
		}
	default:
		if i < 0 {
			i = 0
		} else {
			i = n - 1
		}
	}
	return i, true
}

// foldCoord maps a continuous coordinate onto the interpolation domain
// [0, n-1] of an axis with n samples. margin widens the domain accepted in
// ModeConstant, which nearest-neighbor sampling needs because a pixel covers
// half a step on either side of its center.
func foldCoord(x float64, n int, mode Mode, margin float64) (float64, bool) {
	last := float64(n - 1)
	switch mode {
	case ModeConstant:
		if x < -margin-coordTolerance || x > last+margin+coordTolerance {
			return 0, false
		}
	case ModeReflect:
		p := 2 * float64(n)
		t := math.Mod(x+0.5, p)
		if t < 0 {
			t += p
		}
		if t > float64(n) {
			t = p - t
		}
		x = t - 0.5
	case ModeMirror:
		if n == 1 {
			return 0, true
		}
		p := 2 * last
		x = math.Mod(math.Abs(x), p)
		if x > last {
			x = p - x
		}
	case ModeWrap:
		x = math.Mod(x, float64(n))
		if x < 0 {
			x += float64(n)
		}
		return x, true
	}
	return math.Max(0, math.Min(x, last)), true
}
