// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"fmt"
	"math"

	"willnorris.com/go/hypia/internal/affine"
	"willnorris.com/go/hypia/internal/ndimage"
)

// canonical validates opt and returns m as a (row, column, channel) array.
func canonical(m *Image, opt Options) (*ndimage.Array, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return toCanonical(m, opt.Layout)
}

// Normalize returns (m - mean) / std. Mean and std hold either a single
// value applied to every channel or one value per channel. A zero std
// yields IEEE infinities or NaNs.
func Normalize(m *Image, mean, std []float64, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	mean, err = broadcast("mean", mean, a.C)
	if err != nil {
		return nil, err
	}
	std, err = broadcast("std", std, a.C)
	if err != nil {
		return nil, err
	}

	out := ndimage.NewArray(a.H, a.W, a.C)
	for i, v := range a.Pix {
		c := i % a.C
		out.Pix[i] = (v - mean[c]) / std[c]
	}
	return fromCanonical(out, opt.Layout), nil
}

// broadcast expands a single value to n channels.
func broadcast(name string, v []float64, n int) ([]float64, error) {
	switch len(v) {
	case n:
		return v, nil
	case 1:
		b := make([]float64, n)
		for i := range b {
			b[i] = v[0]
		}
		return b, nil
	}
	return nil, fmt.Errorf("hypia: %s has %d values for %d channels", name, len(v), n)
}

// Resize resamples m to size. With opt.AntiAlias set, axes that shrink are
// blurred first with a Gaussian of standard deviation (factor-1)/2.
func Resize(m *Image, size Size, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	h, w, err := size.resolve(a.C)
	if err != nil {
		return nil, err
	}
	out, err := resize(a, h, w, opt)
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}

// Rescale resizes m by the given factors. The target size along each axis
// is the scaled size rounded to the nearest integer, ties to even.
func Rescale(m *Image, scale Scale, opt Options) (*Image, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	h, w, _ := m.Dims(opt.Layout)
	size := SpatialShape(
		int(math.RoundToEven(scale.Y*float64(h))),
		int(math.RoundToEven(scale.X*float64(w))),
	)
	return Resize(m, size, opt)
}

// Crop returns the region of m inside box. It returns a *BoundsError if
// box does not lie within m.
func Crop(m *Image, box Box, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	out, err := crop(a, box, "crop")
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}

func crop(a *ndimage.Array, box Box, op string) (*ndimage.Array, error) {
	if !box.in(a.H, a.W) {
		return nil, &BoundsError{Op: op, Box: box, Height: a.H, Width: a.W}
	}
	out := ndimage.NewArray(box.Height, box.Width, a.C)
	for y := 0; y < box.Height; y++ {
		i := a.Offset(box.Top+y, box.Left)
		copy(out.Pix[out.Offset(y, 0):out.Offset(y+1, 0)], a.Pix[i:i+box.Width*a.C])
	}
	return out, nil
}

// HFlip mirrors m left to right.
func HFlip(m *Image, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	out := ndimage.NewArray(a.H, a.W, a.C)
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			i := a.Offset(y, a.W-1-x)
			copy(out.Pix[out.Offset(y, x):], a.Pix[i:i+a.C])
		}
	}
	return fromCanonical(out, opt.Layout), nil
}

// VFlip mirrors m top to bottom.
func VFlip(m *Image, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	out := ndimage.NewArray(a.H, a.W, a.C)
	row := a.W * a.C
	for y := 0; y < a.H; y++ {
		i := a.Offset(a.H-1-y, 0)
		copy(out.Pix[out.Offset(y, 0):], a.Pix[i:i+row])
	}
	return fromCanonical(out, opt.Layout), nil
}

// Rotate turns m counter-clockwise by angle radians about its center. If
// reshape is true the output is enlarged to hold the whole rotated image;
// otherwise it keeps the shape of m and the corners are cut off.
func Rotate(m *Image, angle float64, reshape bool, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	out, err := ndimage.Rotate(a, angle*180/math.Pi, reshape, opt.warpOptions())
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}

// Erase returns a copy of m with every sample inside box set to val. It
// returns a *BoundsError if box does not lie within m. The input is not
// modified.
func Erase(m *Image, box Box, val float64, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	if !box.in(a.H, a.W) {
		return nil, &BoundsError{Op: "erase", Box: box, Height: a.H, Width: a.W}
	}
	out := a.Clone()
	for y := box.Top; y < box.Top+box.Height; y++ {
		i := out.Offset(y, box.Left)
		row := out.Pix[i : i+box.Width*out.C]
		for j := range row {
			row[j] = val
		}
	}
	return fromCanonical(out, opt.Layout), nil
}

// Shear shears m by angle radians, keeping its shape.
func Shear(m *Image, angle float64, opt Options) (*Image, error) {
	return transformAffine(m, AffineParams{Shear: angle}, "shear", opt)
}

// AffineTransform applies the affine transform described by p to m,
// keeping its shape.
func AffineTransform(m *Image, p AffineParams, opt Options) (*Image, error) {
	return transformAffine(m, p, "affine", opt)
}

func transformAffine(m *Image, p AffineParams, op string, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	out, err := warpParams(a, p, op, opt)
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}

func warpParams(a *ndimage.Array, p AffineParams, op string, opt Options) (*ndimage.Array, error) {
	inverse, err := affine.Invert(affine.Build(p.params()))
	if err != nil {
		return nil, fmt.Errorf("hypia: %s: %w", op, err)
	}
	return warpAffine(a, inverse, a.H, a.W, opt)
}

// Zoom crops m to box and resizes the crop back to the shape of m. It
// returns a *BoundsError if box does not lie within m.
func Zoom(m *Image, box Box, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	cropped, err := crop(a, box, "zoom")
	if err != nil {
		return nil, err
	}
	out, err := resize(cropped, a.H, a.W, opt)
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}

// Stretch shears m by angle radians and resizes the result back to the
// shape of m.
func Stretch(m *Image, angle float64, opt Options) (*Image, error) {
	a, err := canonical(m, opt)
	if err != nil {
		return nil, err
	}
	sheared, err := warpParams(a, AffineParams{Shear: angle}, "stretch", opt)
	if err != nil {
		return nil, err
	}
	out, err := resize(sheared, a.H, a.W, opt)
	if err != nil {
		return nil, err
	}
	return fromCanonical(out, opt.Layout), nil
}
