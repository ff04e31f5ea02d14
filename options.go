// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"fmt"
	"strings"

	"willnorris.com/go/hypia/internal/ndimage"
)

// Order selects the spline interpolation used when resampling.
type Order int

const (
	// DefaultOrder selects Cubic.
	DefaultOrder Order = iota
	Nearest
	Linear
	Quadratic
	Cubic
	Quartic
	Quintic
)

// OrderOf returns the Order for a spline of the given polynomial degree.
func OrderOf(degree int) (Order, error) {
	if degree < 0 || degree > ndimage.MaxOrder {
		return 0, fmt.Errorf("hypia: interpolation order %d out of range [0, %d]", degree, ndimage.MaxOrder)
	}
	return Order(degree + 1), nil
}

// Degree returns the polynomial degree of the spline selected by o.
func (o Order) Degree() int {
	if o == DefaultOrder {
		return 3
	}
	return int(o) - 1
}

func (o Order) String() string {
	return fmt.Sprintf("o%d", o.Degree())
}

// Border selects how samples outside the image are produced when
// resampling.
type Border int

const (
	// BorderEdge repeats the outermost samples.
	BorderEdge Border = iota
	// BorderConstant fills with Options.Cval.
	BorderConstant
	// BorderReflect reflects about the outer pixel edge.
	BorderReflect
	// BorderMirror reflects about the outer pixel center.
	BorderMirror
	// BorderWrap tiles the image periodically.
	BorderWrap
)

var borderModes = map[Border]ndimage.Mode{
	BorderEdge:     ndimage.ModeEdge,
	BorderConstant: ndimage.ModeConstant,
	BorderReflect:  ndimage.ModeReflect,
	BorderMirror:   ndimage.ModeMirror,
	BorderWrap:     ndimage.ModeWrap,
}

func (b Border) String() string {
	if m, ok := borderModes[b]; ok {
		return m.String()
	}
	return fmt.Sprintf("Border(%d)", int(b))
}

// ParseBorder parses the names produced by Border.String.
func ParseBorder(s string) (Border, error) {
	s = strings.ToLower(s)
	for b, m := range borderModes {
		if m.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("hypia: unknown border %q", s)
}

// Options holds the settings shared by the transforms. The zero value
// reads channel-first images, interpolates with cubic splines without
// anti-aliasing and extends edge samples at the border.
type Options struct {
	// Layout of the input image. The result has the same layout.
	Layout Layout

	// Order of spline interpolation used by resampling transforms.
	Order Order

	// If true, blur the image before downsampling in Resize, Rescale, Zoom
	// and Stretch.
	AntiAlias bool

	// Border policy for samples that fall outside the image.
	Border Border

	// Fill value used with BorderConstant.
	Cval float64

	// If true, clamp resampled values to the range of the input.
	Clip bool
}

func (o Options) validate() error {
	if o.Layout != ChannelsFirst && o.Layout != ChannelsLast {
		return fmt.Errorf("hypia: unknown layout %v", o.Layout)
	}
	if o.Order < DefaultOrder || o.Order > Quintic {
		return fmt.Errorf("hypia: unknown interpolation order %d", int(o.Order))
	}
	if _, ok := borderModes[o.Border]; !ok {
		return fmt.Errorf("hypia: unknown border %v", o.Border)
	}
	return nil
}

func (o Options) warpOptions() ndimage.WarpOptions {
	return ndimage.WarpOptions{
		Order: o.Order.Degree(),
		Mode:  borderModes[o.Border],
		Cval:  o.Cval,
		Clip:  o.Clip,
	}
}
