// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package ndimage

import "math"

// gaussianTruncate is the kernel radius in standard deviations.
const gaussianTruncate = 4.0

// gaussianKernel returns the normalized 1-D Gaussian weights for sigma,
// centered at index len/2.
func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianFilter blurs a with a separable Gaussian of standard deviation
// sigmaY along rows and sigmaX along columns. The channel axis is not
// blurred. Borders are handled with ModeReflect. A sigma of zero or less
// leaves that axis untouched.
func GaussianFilter(a *Array, sigmaY, sigmaX float64) *Array {
	out := a
	if sigmaY > 0 {
		out = correlateAxis(out, gaussianKernel(sigmaY), true)
	}
	if sigmaX > 0 {
		out = correlateAxis(out, gaussianKernel(sigmaX), false)
	}
	if out == a {
		out = a.Clone()
	}
	return out
}

// correlateAxis correlates a with the odd-length kernel k along the rows
// (vertical) or columns of the array.
func correlateAxis(a *Array, k []float64, vertical bool) *Array {
	dst := NewArray(a.H, a.W, a.C)
	radius := len(k) / 2
	parallelize(0, a.H, func(start, stop int) {
		for y := start; y < stop; y++ {
			for x := 0; x < a.W; x++ {
				o := dst.Offset(y, x)
				px := dst.Pix[o : o+a.C]
				for j, w := range k {
					sy, sx := y, x
					if vertical {
						sy, _ = mapIndex(y+j-radius, a.H, ModeReflect)
					} else {
						sx, _ = mapIndex(x+j-radius, a.W, ModeReflect)
					}
					base := a.Offset(sy, sx)
					for c := range px {
						px[c] += w * a.Pix[base+c]
					}
				}
			}
		}
	})
	return dst
}
