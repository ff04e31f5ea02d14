// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

// Package hypia provides geometric and radiometric transforms for multi-band
// (hyperspectral) images, and a pipeline type for composing them.
//
// An Image is a dense three-axis array of float64 samples: two spatial axes
// and one channel (band) axis of any length. The physical position of the
// channel axis is selected per call through Options.Layout; every transform
// returns its result in the layout it was given.
package hypia

import (
	"fmt"
	"strings"

	"willnorris.com/go/hypia/internal/ndimage"
)

// Layout is the physical order of the axes of an Image.
type Layout int

const (
	// ChannelsFirst orders the axes (channel, height, width).
	ChannelsFirst Layout = iota
	// ChannelsLast orders the axes (height, width, channel).
	ChannelsLast
)

func (l Layout) String() string {
	switch l {
	case ChannelsFirst:
		return "first"
	case ChannelsLast:
		return "last"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout parses the names produced by Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "first", "":
		return ChannelsFirst, nil
	case "last":
		return ChannelsLast, nil
	}
	return 0, fmt.Errorf("hypia: unknown layout %q", s)
}

// Image is a dense three-axis array of samples. Shape holds the length of
// each physical axis and Pix the samples in row-major order of those axes.
type Image struct {
	Shape [3]int
	Pix   []float64
}

// New allocates a zeroed image with h rows, w columns and c channels, laid
// out according to layout.
func New(layout Layout, h, w, c int) *Image {
	m := &Image{Pix: make([]float64, h*w*c)}
	if layout == ChannelsLast {
		m.Shape = [3]int{h, w, c}
	} else {
		m.Shape = [3]int{c, h, w}
	}
	return m
}

// Clone returns a deep copy of m.
func (m *Image) Clone() *Image {
	c := &Image{Shape: m.Shape, Pix: make([]float64, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Dims returns the height, width and channel count of m when read with the
// given layout.
func (m *Image) Dims(layout Layout) (h, w, c int) {
	if layout == ChannelsLast {
		return m.Shape[0], m.Shape[1], m.Shape[2]
	}
	return m.Shape[1], m.Shape[2], m.Shape[0]
}

func (m *Image) index(layout Layout, y, x, c int) int {
	h, w, nc := m.Dims(layout)
	if layout == ChannelsLast {
		return (y*w+x)*nc + c
	}
	return (c*h+y)*w + x
}

// At returns the sample at row y, column x, channel c.
func (m *Image) At(layout Layout, y, x, c int) float64 {
	return m.Pix[m.index(layout, y, x, c)]
}

// Set stores v at row y, column x, channel c.
func (m *Image) Set(layout Layout, y, x, c int, v float64) {
	m.Pix[m.index(layout, y, x, c)] = v
}

func (m *Image) validate() error {
	if m == nil {
		return fmt.Errorf("hypia: nil image")
	}
	n := 1
	for _, d := range m.Shape {
		if d < 1 {
			return fmt.Errorf("hypia: invalid image shape %v", m.Shape)
		}
		n *= d
	}
	if len(m.Pix) != n {
		return fmt.Errorf("hypia: image shape %v needs %d samples, have %d", m.Shape, n, len(m.Pix))
	}
	return nil
}

// toCanonical returns m as a (row, column, channel) array. For ChannelsLast
// the returned array shares m's samples and must not be modified.
func toCanonical(m *Image, layout Layout) (*ndimage.Array, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	h, w, c := m.Dims(layout)
	if layout == ChannelsLast {
		return &ndimage.Array{H: h, W: w, C: c, Pix: m.Pix}, nil
	}

	a := ndimage.NewArray(h, w, c)
	plane := h * w
	for ch := 0; ch < c; ch++ {
		src := m.Pix[ch*plane : (ch+1)*plane]
		for i, v := range src {
			a.Pix[i*c+ch] = v
		}
	}
	return a, nil
}

// fromCanonical is the inverse of toCanonical. The result takes ownership
// of a's samples for ChannelsLast.
func fromCanonical(a *ndimage.Array, layout Layout) *Image {
	if layout == ChannelsLast {
		return &Image{Shape: [3]int{a.H, a.W, a.C}, Pix: a.Pix}
	}

	m := New(ChannelsFirst, a.H, a.W, a.C)
	plane := a.H * a.W
	for i := 0; i < plane; i++ {
		px := a.Pix[i*a.C : (i+1)*a.C]
		for ch, v := range px {
			m.Pix[ch*plane+i] = v
		}
	}
	return m
}
