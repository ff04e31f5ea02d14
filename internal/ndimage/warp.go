// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package ndimage

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// CoordMap maps an output position (x = column, y = row) to the input
// position it is sampled from.
type CoordMap func(x, y float64) (float64, float64)

// WarpOptions configures how the input is sampled.
type WarpOptions struct {
	// Order is the spline interpolation order, 0 (nearest) to MaxOrder.
	Order int

	// Mode selects the border policy for positions outside the input.
	Mode Mode

	// Cval is the fill value used with ModeConstant.
	Cval float64

	// Clip clamps the output to the value range of the input (including
	// Cval when ModeConstant is used).
	Clip bool
}

func (o WarpOptions) validate() error {
	if o.Order < 0 || o.Order > MaxOrder {
		return fmt.Errorf("ndimage: spline order %d out of range [0, %d]", o.Order, MaxOrder)
	}
	if !o.Mode.Valid() {
		return fmt.Errorf("ndimage: unknown border mode %v", o.Mode)
	}
	return nil
}

// Warp resamples src onto an outH×outW grid. For every output pixel, fn
// gives the fractional input position that is interpolated.
func Warp(src *Array, fn CoordMap, outH, outW int, opt WarpOptions) (*Array, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if outH < 1 || outW < 1 {
		return nil, fmt.Errorf("ndimage: invalid output size %dx%d", outH, outW)
	}
	if src.H < 1 || src.W < 1 || src.C < 1 {
		return nil, fmt.Errorf("ndimage: empty input %dx%dx%d", src.H, src.W, src.C)
	}

	coef, err := SplineCoefficients(src, opt.Order, opt.Mode)
	if err != nil {
		return nil, err
	}

	dst := NewArray(outH, outW, src.C)
	parallelize(0, outH, func(start, stop int) {
		s := newSampler(coef, opt)
		for y := start; y < stop; y++ {
			for x := 0; x < outW; x++ {
				sx, sy := fn(float64(x), float64(y))
				i := dst.Offset(y, x)
				s.sample(sy, sx, dst.Pix[i:i+dst.C])
			}
		}
	})

	if opt.Clip {
		lo, hi := src.valueRange()
		if opt.Mode == ModeConstant {
			lo, hi = math.Min(lo, opt.Cval), math.Max(hi, opt.Cval)
		}
		for i, v := range dst.Pix {
			dst.Pix[i] = math.Max(lo, math.Min(v, hi))
		}
	}
	return dst, nil
}

// sampler evaluates the spline defined by a coefficient array at fractional
// positions. It holds per-goroutine scratch space and is not safe for
// concurrent use.
type sampler struct {
	coef   *Array
	order  int
	mode   Mode
	cval   float64
	margin float64

	iy, ix []int
	wy, wx []float64
}

func newSampler(coef *Array, opt WarpOptions) *sampler {
	taps := opt.Order + 1
	s := &sampler{
		coef:  coef,
		order: opt.Order,
		mode:  opt.Mode,
		cval:  opt.Cval,
		iy:    make([]int, taps),
		ix:    make([]int, taps),
		wy:    make([]float64, taps),
		wx:    make([]float64, taps),
	}
	if opt.Order == 0 {
		s.margin = 0.5
	}
	return s
}

// sample writes the interpolated channels at row y, column x into out.
func (s *sampler) sample(y, x float64, out []float64) {
	y, okY := foldCoord(y, s.coef.H, s.mode, s.margin)
	x, okX := foldCoord(x, s.coef.W, s.mode, s.margin)
	if !okY || !okX {
		for c := range out {
			out[c] = s.cval
		}
		return
	}

	s.taps(y, s.coef.H, s.iy, s.wy)
	s.taps(x, s.coef.W, s.ix, s.wx)

	for c := range out {
		out[c] = 0
	}
	nc := s.coef.C
	for j, yy := range s.iy {
		wy := s.wy[j]
		if wy == 0 {
			continue
		}
		for i, xx := range s.ix {
			w := wy * s.wx[i]
			if w == 0 {
				continue
			}
			base := s.coef.Offset(yy, xx)
			px := s.coef.Pix[base : base+nc]
			for c, v := range px {
				out[c] += w * v
			}
		}
	}
}

// taps fills idx and w with the sample indices and weights that contribute
// to position x along an axis of length n.
func (s *sampler) taps(x float64, n int, idx []int, w []float64) {
	if s.order == 0 {
		i, _ := mapIndex(int(math.Floor(x+0.5)), n, ModeEdge)
		idx[0], w[0] = i, 1
		return
	}

	var start int
	if s.order&1 == 1 {
		start = int(math.Floor(x)) - s.order/2
	} else {
		start = int(math.Floor(x+0.5)) - s.order/2
	}

	tapMode := ModeMirror
	if s.mode == ModeWrap {
		tapMode = ModeWrap
	}
	for k := range idx {
		i := start + k
		w[k] = bspline(s.order, x-float64(i))
		idx[k], _ = mapIndex(i, n, tapMode)
	}
}

// parallelize splits the half-open row range [start, stop) into bands
// processed concurrently by fn.
func parallelize(start, stop int, fn func(start, stop int)) {
	count := stop - start
	if count < 1 {
		return
	}
	workers := min(runtime.NumCPU(), count)
	if workers <= 1 {
		fn(start, stop)
		return
	}

	band := (count + workers - 1) / workers
	var wg sync.WaitGroup
	for s := start; s < stop; s += band {
		e := min(s+band, stop)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(s, e)
	}
	wg.Wait()
}
