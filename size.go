// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"willnorris.com/go/hypia/internal/affine"
)

type sizeKind int

const (
	sizeSquare sizeKind = iota + 1
	sizeSpatial
	sizeFull
)

// Size is a resize target. It is one of a square side length, a spatial
// (height, width) shape that keeps the channel count, or a full (height,
// width, channels) shape. Build one with Square, SpatialShape or FullShape.
type Size struct {
	kind    sizeKind
	h, w, c int
}

// Square returns a target of n×n pixels.
func Square(n int) Size { return Size{kind: sizeSquare, h: n, w: n} }

// SpatialShape returns a target of h rows and w columns.
func SpatialShape(h, w int) Size { return Size{kind: sizeSpatial, h: h, w: w} }

// FullShape returns a target of h rows, w columns and c channels. The
// channel count must match that of the image being resized.
func FullShape(h, w, c int) Size { return Size{kind: sizeFull, h: h, w: w, c: c} }

// IsZero reports whether s is the zero Size.
func (s Size) IsZero() bool { return s.kind == 0 }

// resolve returns the output shape of resizing an image with the given
// channel count to s.
func (s Size) resolve(channels int) (h, w int, err error) {
	switch s.kind {
	case 0:
		return 0, 0, fmt.Errorf("hypia: empty resize target")
	case sizeFull:
		if s.c != channels {
			return 0, 0, &ShapeMismatchError{Size: s, Channels: channels}
		}
	}
	if s.h < 1 || s.w < 1 {
		return 0, 0, fmt.Errorf("hypia: invalid resize target %v", s)
	}
	return s.h, s.w, nil
}

func (s Size) String() string {
	switch s.kind {
	case sizeSquare:
		return strconv.Itoa(s.h)
	case sizeSpatial:
		return fmt.Sprintf("%dx%d", s.h, s.w)
	case sizeFull:
		return fmt.Sprintf("%dx%dx%d", s.h, s.w, s.c)
	}
	return ""
}

// ParseSize parses the forms produced by Size.String: "n", "hxw" and
// "hxwxc".
func ParseSize(str string) (Size, error) {
	parts := strings.Split(str, "x")
	if len(parts) > 3 {
		return Size{}, &ParseError{str, "size has more than 3 dimensions"}
	}
	dims := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Size{}, &ParseError{str, fmt.Sprintf("invalid dimension %q", p)}
		}
		dims[i] = n
	}
	switch len(dims) {
	case 1:
		return Square(dims[0]), nil
	case 2:
		return SpatialShape(dims[0], dims[1]), nil
	}
	return FullShape(dims[0], dims[1], dims[2]), nil
}

// Scale holds per-axis scale factors in (row, column) order.
type Scale struct {
	Y, X float64
}

// Uniform returns a Scale of f along both axes.
func Uniform(f float64) Scale { return Scale{f, f} }

func (s Scale) String() string {
	if s.X == s.Y {
		return formatFloat(s.Y)
	}
	return formatFloat(s.Y) + "x" + formatFloat(s.X)
}

// Box is an axis-aligned region of an image. Top and Left are the row and
// column of its first pixel.
type Box struct {
	Top, Left     int
	Height, Width int
}

func (b Box) String() string {
	return fmt.Sprintf("y%d,x%d,h%d,w%d", b.Top, b.Left, b.Height, b.Width)
}

// in reports whether b is non-empty and lies within an h×w image.
func (b Box) in(h, w int) bool {
	return b.Top >= 0 && b.Left >= 0 && b.Height > 0 && b.Width > 0 &&
		b.Top+b.Height <= h && b.Left+b.Width <= w
}

// AffineParams describes an affine transform as scaling, then shear, then
// rotation, then translation. Angles are in radians, counter-clockwise from
// the x axis. Vectors are in (x, y) order.
type AffineParams struct {
	// Scale factors (sx, sy). Nil leaves the scale unchanged.
	Scale *[2]float64

	Rotation float64
	Shear    float64

	// Translation (tx, ty) in pixels.
	Translation [2]float64
}

func (p AffineParams) params() affine.Params {
	ap := affine.Params{
		Rotation:    p.Rotation,
		Shear:       p.Shear,
		Translation: mgl64.Vec2(p.Translation),
	}
	if p.Scale != nil {
		s := mgl64.Vec2(*p.Scale)
		ap.Scale = &s
	}
	return ap
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
