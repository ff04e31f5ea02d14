// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package ndimage

import (
	"fmt"
	"math"
)

// MaxOrder is the highest supported spline interpolation order.
const MaxOrder = 5

// filterTolerance bounds the truncation error of the causal initialization
// in splineFilter1D.
const filterTolerance = 1e-15

var factorial = [...]float64{1, 1, 2, 6, 24, 120, 720}

func binomial(n, k int) float64 {
	return factorial[n] / (factorial[k] * factorial[n-k])
}

// bspline evaluates the centered B-spline basis function of degree n at x.
func bspline(n int, x float64) float64 {
	if n == 0 {
		if x >= -0.5 && x < 0.5 {
			return 1
		}
		return 0
	}
	half := float64(n+1) / 2
	sum := 0.0
	for k := 0; k <= n+1; k++ {
		t := x + half - float64(k)
		if t <= 0 {
			continue
		}
		term := binomial(n+1, k) * math.Pow(t, float64(n))
		if k&1 == 1 {
			sum -= term
		} else {
			sum += term
		}
	}
	return sum / factorial[n]
}

// splinePoles returns the poles of the recursive prefilter that turns samples
// into B-spline coefficients of degree n. Degrees 0 and 1 interpolate the
// samples directly and need no prefilter.
func splinePoles(n int) []float64 {
	switch n {
	case 2:
		return []float64{math.Sqrt(8) - 3}
	case 3:
		return []float64{math.Sqrt(3) - 2}
	case 4:
		return []float64{
			math.Sqrt(664-math.Sqrt(438976)) + math.Sqrt(304) - 19,
			math.Sqrt(664+math.Sqrt(438976)) - math.Sqrt(304) - 19,
		}
	case 5:
		return []float64{
			math.Sqrt(135.0/2-math.Sqrt(17745.0/4)) + math.Sqrt(105.0/4) - 13.0/2,
			math.Sqrt(135.0/2+math.Sqrt(17745.0/4)) - math.Sqrt(105.0/4) - 13.0/2,
		}
	}
	return nil
}

// splineFilter1D converts the samples in c to interpolating B-spline
// coefficients in place. The signal is assumed to extend mirror-symmetrically
// at both ends, or periodically when periodic is set.
func splineFilter1D(c, poles []float64, periodic bool) {
	n := len(c)
	if n < 2 || len(poles) == 0 {
		return
	}

	gain := 1.0
	for _, z := range poles {
		gain *= (1 - z) * (1 - 1/z)
	}
	for i := range c {
		c[i] *= gain
	}

	for _, z := range poles {
		if periodic {
			c[0] = periodicCausalInit(c, z)
		} else {
			c[0] = causalInit(c, z)
		}
		for i := 1; i < n; i++ {
			c[i] += z * c[i-1]
		}
		if periodic {
			c[n-1] = periodicAntiCausalInit(c, z)
		} else {
			c[n-1] = (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
		}
		for i := n - 2; i >= 0; i-- {
			c[i] = z * (c[i+1] - c[i])
		}
	}
}

func causalInit(c []float64, z float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(filterTolerance) / math.Log(math.Abs(z))))
	if horizon < n {
		zn := z
		sum := c[0]
		for i := 1; i < horizon; i++ {
			sum += zn * c[i]
			zn *= z
		}
		return sum
	}

	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for i := 1; i <= n-2; i++ {
		sum += (zn + z2n) * c[i]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

func periodicCausalInit(c []float64, z float64) float64 {
	n := len(c)
	sum, zk := c[0], z
	for k := 1; k < n; k++ {
		sum += zk * c[n-k]
		zk *= z
	}
	return sum / (1 - zk)
}

// periodicAntiCausalInit expects c to hold the causal pass output.
func periodicAntiCausalInit(c []float64, z float64) float64 {
	n := len(c)
	sum, zk := c[n-1], z
	for k := 1; k < n; k++ {
		sum += zk * c[k-1]
		zk *= z
	}
	return -z * sum / (1 - zk)
}

// SplineCoefficients returns the B-spline coefficients of a for interpolation
// of the given order along the two spatial axes. With ModeWrap the array is
// treated as periodic; every other mode uses mirror-symmetric extension. For
// orders below 2 the samples are their own coefficients and a is returned
// unchanged.
func SplineCoefficients(a *Array, order int, mode Mode) (*Array, error) {
	if order < 0 || order > MaxOrder {
		return nil, fmt.Errorf("ndimage: spline order %d out of range [0, %d]", order, MaxOrder)
	}
	poles := splinePoles(order)
	if poles == nil {
		return a, nil
	}

	periodic := mode == ModeWrap
	coef := a.Clone()
	line := make([]float64, max(a.H, a.W))

	// columns
	if a.H > 1 {
		for x := 0; x < a.W; x++ {
			for c := 0; c < a.C; c++ {
				l := line[:a.H]
				for y := range l {
					l[y] = coef.At(y, x, c)
				}
				splineFilter1D(l, poles, periodic)
				for y, v := range l {
					coef.Set(y, x, c, v)
				}
			}
		}
	}

	// rows
	if a.W > 1 {
		for y := 0; y < a.H; y++ {
			for c := 0; c < a.C; c++ {
				l := line[:a.W]
				for x := range l {
					l[x] = coef.At(y, x, c)
				}
				splineFilter1D(l, poles, periodic)
				for x, v := range l {
					coef.Set(y, x, c, v)
				}
			}
		}
	}
	return coef, nil
}
