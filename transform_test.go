// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"willnorris.com/go/hypia/internal/affine"
)

var (
	layouts = []Layout{ChannelsFirst, ChannelsLast}
	approx  = cmpopts.EquateApprox(0, 1e-9)
)

// newImage returns an h×w×c image in which every sample encodes its
// position as 100*channel + 10*row + column.
func newImage(layout Layout, h, w, c int) *Image {
	m := New(layout, h, w, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				m.Set(layout, y, x, ch, float64(100*ch+10*y+x))
			}
		}
	}
	return m
}

// newRamp returns a single channel h×w image with value x + 10*y.
func newRamp(layout Layout, h, w int) *Image {
	m := New(layout, h, w, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(layout, y, x, 0, float64(x+10*y))
		}
	}
	return m
}

func TestLayoutRoundTrip(t *testing.T) {
	for _, layout := range layouts {
		m := newImage(layout, 4, 5, 3)
		a, err := toCanonical(m, layout)
		if err != nil {
			t.Fatalf("toCanonical(%v) returned error: %v", layout, err)
		}
		for y := 0; y < 4; y++ {
			for x := 0; x < 5; x++ {
				for c := 0; c < 3; c++ {
					if got, want := a.At(y, x, c), m.At(layout, y, x, c); got != want {
						t.Errorf("toCanonical(%v) at (%d,%d,%d) = %v, want %v", layout, y, x, c, got, want)
					}
				}
			}
		}
		if got := fromCanonical(a, layout); !reflect.DeepEqual(got, m) {
			t.Errorf("fromCanonical(toCanonical(m, %v)) returned %v, want %v", layout, got, m)
		}
	}
}

func TestNew(t *testing.T) {
	if got, want := New(ChannelsFirst, 2, 3, 4).Shape, [3]int{4, 2, 3}; got != want {
		t.Errorf("New(ChannelsFirst) shape = %v, want %v", got, want)
	}
	if got, want := New(ChannelsLast, 2, 3, 4).Shape, [3]int{2, 3, 4}; got != want {
		t.Errorf("New(ChannelsLast) shape = %v, want %v", got, want)
	}
}

func TestInvalidInput(t *testing.T) {
	bad := &Image{Shape: [3]int{1, 2, 2}, Pix: make([]float64, 3)}
	if _, err := HFlip(bad, Options{}); err == nil {
		t.Errorf("HFlip of malformed image did not return expected error")
	}
	if _, err := HFlip(nil, Options{}); err == nil {
		t.Errorf("HFlip(nil) did not return expected error")
	}

	m := newImage(ChannelsFirst, 2, 2, 1)
	for _, opt := range []Options{{Order: Quintic + 1}, {Border: Border(9)}, {Layout: Layout(3)}} {
		if _, err := Rotate(m, 0.1, false, opt); err == nil {
			t.Errorf("Rotate with %+v did not return expected error", opt)
		}
	}
}

func TestFlip(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout}
		m := newImage(layout, 3, 4, 2)

		h, err := HFlip(m, opt)
		if err != nil {
			t.Fatalf("HFlip returned error: %v", err)
		}
		v, err := VFlip(m, opt)
		if err != nil {
			t.Fatalf("VFlip returned error: %v", err)
		}
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				for c := 0; c < 2; c++ {
					if got, want := h.At(layout, y, x, c), m.At(layout, y, 3-x, c); got != want {
						t.Errorf("HFlip(%v) at (%d,%d,%d) = %v, want %v", layout, y, x, c, got, want)
					}
					if got, want := v.At(layout, y, x, c), m.At(layout, 2-y, x, c); got != want {
						t.Errorf("VFlip(%v) at (%d,%d,%d) = %v, want %v", layout, y, x, c, got, want)
					}
				}
			}
		}

		hh, _ := HFlip(h, opt)
		vv, _ := VFlip(v, opt)
		if !reflect.DeepEqual(hh, m) {
			t.Errorf("HFlip(HFlip(m)) != m for %v", layout)
		}
		if !reflect.DeepEqual(vv, m) {
			t.Errorf("VFlip(VFlip(m)) != m for %v", layout)
		}
	}
}

func TestFlip_MatchesImaging(t *testing.T) {
	src := newNRGBA(3, 2, red, green, blue, yellow, blue, red)
	m := FromImage(src, ChannelsFirst)

	h, _ := HFlip(m, Options{})
	if want := FromImage(imaging.FlipH(src), ChannelsFirst); !reflect.DeepEqual(h, want) {
		t.Errorf("HFlip returned %v, want %v", h.Pix, want.Pix)
	}
	v, _ := VFlip(m, Options{})
	if want := FromImage(imaging.FlipV(src), ChannelsFirst); !reflect.DeepEqual(v, want) {
		t.Errorf("VFlip returned %v, want %v", v.Pix, want.Pix)
	}
}

func TestResize_Identity(t *testing.T) {
	for _, layout := range layouts {
		m := newImage(layout, 5, 7, 3)
		for _, order := range []Order{Nearest, Linear, Cubic, Quintic} {
			got, err := Resize(m, SpatialShape(5, 7), Options{Layout: layout, Order: order})
			if err != nil {
				t.Fatalf("Resize returned error: %v", err)
			}
			if got.Shape != m.Shape {
				t.Fatalf("Resize(%v, %v) shape = %v, want %v", layout, order, got.Shape, m.Shape)
			}
			if diff := cmp.Diff(m.Pix, got.Pix, approx); diff != "" {
				t.Errorf("Resize(%v, %v) to the same size changed the image (-want +got):\n%s", layout, order, diff)
			}
		}
	}
}

func TestResize_Shape(t *testing.T) {
	m := newImage(ChannelsFirst, 4, 6, 3)
	tests := []struct {
		size Size
		want [3]int
	}{
		{Square(5), [3]int{3, 5, 5}},
		{SpatialShape(2, 9), [3]int{3, 2, 9}},
		{FullShape(8, 1, 3), [3]int{3, 8, 1}},
		{FullShape(1, 1, 3), [3]int{3, 1, 1}},
	}
	for _, tt := range tests {
		got, err := Resize(m, tt.size, Options{AntiAlias: true})
		if err != nil {
			t.Errorf("Resize(%v) returned error: %v", tt.size, err)
			continue
		}
		if got.Shape != tt.want {
			t.Errorf("Resize(%v) shape = %v, want %v", tt.size, got.Shape, tt.want)
		}
	}

	_, err := Resize(m, FullShape(4, 6, 2), Options{})
	var mismatch *ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("Resize to 2 channels returned %v, want ShapeMismatchError", err)
	}
	for _, size := range []Size{{}, Square(0), SpatialShape(3, -1)} {
		if _, err := Resize(m, size, Options{}); err == nil {
			t.Errorf("Resize(%v) did not return expected error", size)
		}
	}
}

func TestResize_Upsample(t *testing.T) {
	m := newRamp(ChannelsLast, 4, 5)
	got, err := Resize(m, SpatialShape(8, 10), Options{Layout: ChannelsLast, Order: Linear})
	if err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	// output pixel p samples input position p/2 - 0.25
	for y := 1; y < 7; y++ {
		for x := 1; x < 9; x++ {
			want := (float64(x)/2 - 0.25) + 10*(float64(y)/2-0.25)
			if v := got.At(ChannelsLast, y, x, 0); math.Abs(v-want) > 1e-9 {
				t.Errorf("Resize at (%d,%d) = %v, want %v", y, x, v, want)
			}
		}
	}
}

func TestResize_AntiAlias(t *testing.T) {
	// alternating columns average out when downsampled with anti-aliasing
	m := New(ChannelsLast, 8, 16, 1)
	for i := range m.Pix {
		if (i%16)%2 == 1 {
			m.Pix[i] = 1
		}
	}
	opt := Options{Layout: ChannelsLast, Order: Linear}
	plain, _ := Resize(m, SpatialShape(8, 5), opt)
	opt.AntiAlias = true
	smooth, _ := Resize(m, SpatialShape(8, 5), opt)

	spread := func(m *Image) float64 {
		lo, hi := m.Pix[0], m.Pix[0]
		for _, v := range m.Pix {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		return hi - lo
	}
	if spread(smooth) >= spread(plain) {
		t.Errorf("anti-aliased resize spread %v, want less than %v", spread(smooth), spread(plain))
	}
}

func TestRescale(t *testing.T) {
	m := newImage(ChannelsFirst, 10, 7, 2)
	tests := []struct {
		scale Scale
		want  [3]int
	}{
		{Uniform(0.5), [3]int{2, 5, 4}}, // 3.5 rounds to even
		{Scale{Y: 0.25, X: 2}, [3]int{2, 2, 14}},
		{Uniform(1), [3]int{2, 10, 7}},
	}
	for _, tt := range tests {
		got, err := Rescale(m, tt.scale, Options{})
		if err != nil {
			t.Errorf("Rescale(%v) returned error: %v", tt.scale, err)
			continue
		}
		if got.Shape != tt.want {
			t.Errorf("Rescale(%v) shape = %v, want %v", tt.scale, got.Shape, tt.want)
		}
	}
	if _, err := Rescale(m, Uniform(0.01), Options{}); err == nil {
		t.Errorf("Rescale to an empty image did not return expected error")
	}
}

func TestCrop(t *testing.T) {
	m := newImage(ChannelsFirst, 10, 10, 3)
	got, err := Crop(m, Box{Top: 2, Left: 2, Height: 4, Width: 4}, Options{})
	if err != nil {
		t.Fatalf("Crop returned error: %v", err)
	}
	if want := [3]int{3, 4, 4}; got.Shape != want {
		t.Fatalf("Crop shape = %v, want %v", got.Shape, want)
	}
	for c := 0; c < 3; c++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				if v, want := got.At(ChannelsFirst, y, x, c), m.At(ChannelsFirst, y+2, x+2, c); v != want {
					t.Errorf("Crop at (%d,%d,%d) = %v, want %v", c, y, x, v, want)
				}
			}
		}
	}

	last := newImage(ChannelsLast, 10, 10, 3)
	got, _ = Crop(last, Box{Top: 2, Left: 2, Height: 4, Width: 4}, Options{Layout: ChannelsLast})
	if want := [3]int{4, 4, 3}; got.Shape != want {
		t.Errorf("Crop(ChannelsLast) shape = %v, want %v", got.Shape, want)
	}
}

func TestCrop_Bounds(t *testing.T) {
	m := newImage(ChannelsFirst, 10, 10, 3)
	tests := []Box{
		{Top: 8, Left: 8, Height: 5, Width: 5},
		{Top: 0, Left: 6, Height: 2, Width: 5},
		{Top: -1, Left: 0, Height: 2, Width: 2},
		{Top: 0, Left: 0, Height: 0, Width: 2},
	}
	for _, box := range tests {
		_, err := Crop(m, box, Options{})
		var bounds *BoundsError
		if !errors.As(err, &bounds) {
			t.Errorf("Crop(%v) returned %v, want BoundsError", box, err)
			continue
		}
		if bounds.Op != "crop" || bounds.Height != 10 || bounds.Width != 10 {
			t.Errorf("Crop(%v) returned %+v", box, bounds)
		}
	}
}

func TestZoom(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout, AntiAlias: true}
		m := newImage(layout, 9, 8, 2)
		box := Box{Top: 1, Left: 2, Height: 5, Width: 4}

		got, err := Zoom(m, box, opt)
		if err != nil {
			t.Fatalf("Zoom returned error: %v", err)
		}
		cropped, _ := Crop(m, box, opt)
		want, _ := Resize(cropped, FullShape(9, 8, 2), opt)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Zoom(%v) differs from Crop followed by Resize", layout)
		}
	}

	_, err := Zoom(newImage(ChannelsFirst, 10, 10, 1), Box{Top: 8, Left: 8, Height: 5, Width: 5}, Options{})
	var bounds *BoundsError
	if !errors.As(err, &bounds) || bounds.Op != "zoom" {
		t.Errorf("Zoom out of bounds returned %v, want BoundsError", err)
	}
}

func TestStretch(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout, Order: Quadratic}
		m := newImage(layout, 6, 7, 2)

		got, err := Stretch(m, 0.3, opt)
		if err != nil {
			t.Fatalf("Stretch returned error: %v", err)
		}
		sheared, _ := Shear(m, 0.3, opt)
		want, _ := Resize(sheared, SpatialShape(6, 7), opt)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Stretch(%v) differs from Shear followed by Resize", layout)
		}
	}
}

func TestNormalize(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout}
		m := newImage(layout, 3, 4, 2)

		same, err := Normalize(m, []float64{0}, []float64{1}, opt)
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		if !reflect.DeepEqual(same, m) {
			t.Errorf("Normalize(%v) with mean 0, std 1 changed the image", layout)
		}

		mean, std := []float64{1, 100}, []float64{2, 4}
		got, err := Normalize(m, mean, std, opt)
		if err != nil {
			t.Fatalf("Normalize returned error: %v", err)
		}
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				for c := 0; c < 2; c++ {
					want := (m.At(layout, y, x, c) - mean[c]) / std[c]
					if v := got.At(layout, y, x, c); v != want {
						t.Errorf("Normalize(%v) at (%d,%d,%d) = %v, want %v", layout, y, x, c, v, want)
					}
				}
			}
		}
	}

	m := newImage(ChannelsFirst, 2, 2, 3)
	if _, err := Normalize(m, []float64{1, 2}, []float64{1}, Options{}); err == nil {
		t.Errorf("Normalize with 2 means for 3 channels did not return expected error")
	}
	got, err := Normalize(m, []float64{0}, []float64{0}, Options{})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if v := got.At(ChannelsFirst, 1, 1, 1); !math.IsInf(v, 1) {
		t.Errorf("Normalize with zero std returned %v, want +Inf", v)
	}
}

func TestRotate(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout}
		m := newImage(layout, 5, 6, 2)

		got, err := Rotate(m, math.Pi, false, opt)
		if err != nil {
			t.Fatalf("Rotate returned error: %v", err)
		}
		if got.Shape != m.Shape {
			t.Fatalf("Rotate(π) shape = %v, want %v", got.Shape, m.Shape)
		}
		h, _ := HFlip(m, opt)
		want, _ := VFlip(h, opt)
		if diff := cmp.Diff(want.Pix, got.Pix, approx); diff != "" {
			t.Errorf("Rotate(%v, π) mismatch (-want +got):\n%s", layout, diff)
		}
	}

	m := newImage(ChannelsLast, 3, 7, 1)
	got, err := Rotate(m, math.Pi/2, true, Options{Layout: ChannelsLast})
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if want := [3]int{7, 3, 1}; got.Shape != want {
		t.Errorf("Rotate(π/2, reshape) shape = %v, want %v", got.Shape, want)
	}
}

func TestErase(t *testing.T) {
	for _, layout := range layouts {
		opt := Options{Layout: layout}
		m := newImage(layout, 6, 5, 2)
		orig := m.Clone()
		box := Box{Top: 1, Left: 2, Height: 3, Width: 2}

		got, err := Erase(m, box, -7, opt)
		if err != nil {
			t.Fatalf("Erase returned error: %v", err)
		}
		if !reflect.DeepEqual(m, orig) {
			t.Errorf("Erase(%v) modified its input", layout)
		}
		for y := 0; y < 6; y++ {
			for x := 0; x < 5; x++ {
				for c := 0; c < 2; c++ {
					want := m.At(layout, y, x, c)
					if y >= 1 && y < 4 && x >= 2 && x < 4 {
						want = -7
					}
					if v := got.At(layout, y, x, c); v != want {
						t.Errorf("Erase(%v) at (%d,%d,%d) = %v, want %v", layout, y, x, c, v, want)
					}
				}
			}
		}
	}

	_, err := Erase(newImage(ChannelsFirst, 4, 4, 1), Box{Top: 3, Left: 0, Height: 2, Width: 1}, 0, Options{})
	var bounds *BoundsError
	if !errors.As(err, &bounds) || bounds.Op != "erase" {
		t.Errorf("Erase out of bounds returned %v, want BoundsError", err)
	}
}

func TestShear(t *testing.T) {
	m := newImage(ChannelsFirst, 5, 5, 2)
	got, err := Shear(m, 0, Options{})
	if err != nil {
		t.Fatalf("Shear returned error: %v", err)
	}
	if diff := cmp.Diff(m.Pix, got.Pix, approx); diff != "" {
		t.Errorf("Shear(0) changed the image (-want +got):\n%s", diff)
	}

	// output (x, y) samples the input at (x + y·tan β, y / cos β)
	ramp := newRamp(ChannelsLast, 6, 6)
	beta := math.Asin(0.5)
	got, err = Shear(ramp, beta, Options{Layout: ChannelsLast, Order: Linear})
	if err != nil {
		t.Fatalf("Shear returned error: %v", err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 3; x++ {
			sx, sy := float64(x)+float64(y)*math.Tan(beta), float64(y)/math.Cos(beta)
			want := sx + 10*sy
			if v := got.At(ChannelsLast, y, x, 0); math.Abs(v-want) > 1e-9 {
				t.Errorf("Shear at (%d,%d) = %v, want %v", y, x, v, want)
			}
		}
	}

	_, err = Shear(m, math.Pi/2, Options{})
	if !errors.Is(err, affine.ErrSingular) {
		t.Errorf("Shear(π/2) returned %v, want ErrSingular", err)
	}
}

func TestAffineTransform(t *testing.T) {
	ramp := newRamp(ChannelsLast, 6, 8)
	opt := Options{Layout: ChannelsLast, Order: Linear}
	scale := [2]float64{2, 2}

	got, err := AffineTransform(ramp, AffineParams{Scale: &scale}, opt)
	if err != nil {
		t.Fatalf("AffineTransform returned error: %v", err)
	}
	if got.Shape != ramp.Shape {
		t.Fatalf("AffineTransform shape = %v, want %v", got.Shape, ramp.Shape)
	}
	resized, err := Resize(ramp, SpatialShape(12, 16), opt)
	if err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	for y := 1; y < 6; y++ {
		for x := 1; x < 8; x++ {
			want := float64(x)/2 + 10*float64(y)/2
			v := got.At(ChannelsLast, y, x, 0)
			if math.Abs(v-want) > 1e-9 {
				t.Errorf("AffineTransform at (%d,%d) = %v, want %v", y, x, v, want)
			}
			// resize samples pixel centers, a quarter pixel away
			if r := resized.At(ChannelsLast, y, x, 0); math.Abs(r-v) > 0.25*11+1e-9 {
				t.Errorf("AffineTransform and Resize disagree at (%d,%d): %v vs %v", y, x, v, r)
			}
		}
	}

	shift, err := AffineTransform(ramp, AffineParams{Translation: [2]float64{1, 2}}, opt)
	if err != nil {
		t.Fatalf("AffineTransform returned error: %v", err)
	}
	if v, want := shift.At(ChannelsLast, 3, 4, 0), ramp.At(ChannelsLast, 1, 3, 0); math.Abs(v-want) > 1e-9 {
		t.Errorf("translated image at (3,4) = %v, want %v", v, want)
	}

	zero := [2]float64{0, 1}
	if _, err := AffineTransform(ramp, AffineParams{Scale: &zero}, opt); !errors.Is(err, affine.ErrSingular) {
		t.Errorf("AffineTransform with zero scale returned %v, want ErrSingular", err)
	}
}
