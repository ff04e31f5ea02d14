// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
)

// Kind identifies the transform performed by an Op.
type Kind int

// Kinds of transform, named for the function each one runs.
const (
	KindNormalize Kind = iota + 1 // Normalize
	KindResize                    // Resize
	KindRescale                   // Rescale
	KindCrop                      // Crop
	KindHFlip                     // HFlip
	KindVFlip                     // VFlip
	KindRotate                    // Rotate
	KindErase                     // Erase
	KindShear                     // Shear
	KindAffine                    // AffineTransform
	KindZoom                      // Zoom
	KindStretch                   // Stretch
)

var kindNames = map[Kind]string{
	KindNormalize: "normalize",
	KindResize:    "resize",
	KindRescale:   "rescale",
	KindCrop:      "crop",
	KindHFlip:     "hflip",
	KindVFlip:     "vflip",
	KindRotate:    "rotate",
	KindErase:     "erase",
	KindShear:     "shear",
	KindAffine:    "affine",
	KindZoom:      "zoom",
	KindStretch:   "stretch",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Op is a transform with its parameters bound. Only the fields used by Kind
// are meaningful; the rest are left at their zero values. Ops hold no state
// and may be applied concurrently.
type Op struct {
	Kind Kind

	Mean, Std []float64    // normalize
	Size      Size         // resize
	Scale     Scale        // rescale
	Box       Box          // crop, erase, zoom
	Angle     float64      // rotate, shear, stretch; radians
	Reshape   bool         // rotate
	Value     float64      // erase
	Affine    AffineParams // affine

	Options Options
}

// NormalizeOp returns an Op that calls Normalize.
func NormalizeOp(mean, std []float64, opt Options) Op {
	return Op{Kind: KindNormalize, Mean: mean, Std: std, Options: opt}
}

// ResizeOp returns an Op that resizes images to size.
func ResizeOp(size Size, opt Options) Op {
	return Op{Kind: KindResize, Size: size, Options: opt}
}

// RescaleOp returns an Op that scales image dimensions by scale.
func RescaleOp(scale Scale, opt Options) Op {
	return Op{Kind: KindRescale, Scale: scale, Options: opt}
}

// CropOp returns an Op that crops images to box.
func CropOp(box Box, opt Options) Op {
	return Op{Kind: KindCrop, Box: box, Options: opt}
}

// HFlipOp returns an Op that mirrors images left to right.
func HFlipOp(opt Options) Op { return Op{Kind: KindHFlip, Options: opt} }

// VFlipOp returns an Op that mirrors images top to bottom.
func VFlipOp(opt Options) Op { return Op{Kind: KindVFlip, Options: opt} }

// RotateOp returns an Op that rotates images by angle radians.
func RotateOp(angle float64, reshape bool, opt Options) Op {
	return Op{Kind: KindRotate, Angle: angle, Reshape: reshape, Options: opt}
}

// EraseOp returns an Op that fills box with val.
func EraseOp(box Box, val float64, opt Options) Op {
	return Op{Kind: KindErase, Box: box, Value: val, Options: opt}
}

// ShearOp returns an Op that shears images by angle radians.
func ShearOp(angle float64, opt Options) Op {
	return Op{Kind: KindShear, Angle: angle, Options: opt}
}

// AffineOp returns an Op that applies the affine transform p.
func AffineOp(p AffineParams, opt Options) Op {
	return Op{Kind: KindAffine, Affine: p, Options: opt}
}

// ZoomOp returns an Op that crops images to box and resizes the crop back
// to the input size.
func ZoomOp(box Box, opt Options) Op {
	return Op{Kind: KindZoom, Box: box, Options: opt}
}

// StretchOp returns an Op that calls Stretch.
func StretchOp(angle float64, opt Options) Op {
	return Op{Kind: KindStretch, Angle: angle, Options: opt}
}

// Apply runs the transform on m and returns the result.
func (op Op) Apply(m *Image) (*Image, error) {
	label := op.Kind.String()
	timer := prometheus.NewTimer(transformDuration.WithLabelValues(label))
	defer timer.ObserveDuration()

	out, err := op.apply(m)
	if err != nil {
		transformErrors.WithLabelValues(label).Inc()
	}
	return out, err
}

func (op Op) apply(m *Image) (*Image, error) {
	opt := op.Options
	switch op.Kind {
	case KindNormalize:
		return Normalize(m, op.Mean, op.Std, opt)
	case KindResize:
		return Resize(m, op.Size, opt)
	case KindRescale:
		return Rescale(m, op.Scale, opt)
	case KindCrop:
		return Crop(m, op.Box, opt)
	case KindHFlip:
		return HFlip(m, opt)
	case KindVFlip:
		return VFlip(m, opt)
	case KindRotate:
		return Rotate(m, op.Angle, op.Reshape, opt)
	case KindErase:
		return Erase(m, op.Box, op.Value, opt)
	case KindShear:
		return Shear(m, op.Angle, opt)
	case KindAffine:
		return AffineTransform(m, op.Affine, opt)
	case KindZoom:
		return Zoom(m, op.Box, opt)
	case KindStretch:
		return Stretch(m, op.Angle, opt)
	}
	return nil, fmt.Errorf("hypia: unknown transform %v", op.Kind)
}

// Pipeline is a sequence of transforms applied in order.
type Pipeline []Op

// Compose returns a Pipeline of ops.
func Compose(ops ...Op) Pipeline {
	p := make(Pipeline, len(ops))
	copy(p, ops)
	return p
}

// Apply runs every step of p in order, feeding each result to the next
// step. The input is never modified. An empty pipeline returns a copy of m.
func (p Pipeline) Apply(m *Image) (*Image, error) {
	if len(p) == 0 {
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m.Clone(), nil
	}

	out := m
	for i, op := range p {
		next, err := op.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("hypia: step %d (%v): %w", i, op, err)
		}
		if glog.V(2) {
			glog.Infof("hypia: step %d %v: %v -> %v", i, op, out.Shape, next.Shape)
		}
		out = next
	}
	return out, nil
}
