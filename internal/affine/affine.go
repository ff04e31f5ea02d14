// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

// Package affine builds, inverts and estimates 2-D affine transforms in
// homogeneous (x = column, y = row) coordinates.
package affine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular is returned when a transform collapses the plane and so
	// has no inverse.
	ErrSingular = errors.New("affine: transform is singular")

	// ErrDegenerate is returned by Estimate when the point correspondences
	// do not determine a unique transform.
	ErrDegenerate = errors.New("affine: point correspondences are degenerate")
)

// singularTolerance is the smallest determinant magnitude accepted by Invert.
const singularTolerance = 1e-12

// rankTolerance is the relative singular value cutoff used by Estimate.
const rankTolerance = 1e-12

// Params describes an affine transform as a composition of scaling, shear,
// rotation and translation, applied in that order.
type Params struct {
	// Scale along x and y. A nil Scale means no scaling.
	Scale *mgl64.Vec2

	// Rotation is the counter-clockwise rotation angle in radians.
	Rotation float64

	// Shear is the shear angle in radians.
	Shear float64

	// Translation along x and y.
	Translation mgl64.Vec2
}

// Build returns the matrix T·R(θ)·Sh(β)·S for p, which works out to
//
//	[[sx·cos θ, -sy·sin(θ+β), tx]]
//	[[sx·sin θ,  sy·cos(θ+β), ty]]
//	[[0,         0,           1 ]]
func Build(p Params) mgl64.Mat3 {
	sx, sy := 1.0, 1.0
	if p.Scale != nil {
		sx, sy = p.Scale.Elem()
	}
	sin, cos := math.Sincos(p.Shear)
	shear := mgl64.Mat3{1, 0, 0, -sin, cos, 0, 0, 0, 1}

	m := mgl64.Translate2D(p.Translation.X(), p.Translation.Y())
	m = m.Mul3(mgl64.HomogRotate2D(p.Rotation))
	m = m.Mul3(shear)
	return m.Mul3(mgl64.Scale2D(sx, sy))
}

// Invert returns the inverse of m, or ErrSingular if m cannot be inverted.
func Invert(m mgl64.Mat3) (mgl64.Mat3, error) {
	if det := m.Det(); math.Abs(det) < singularTolerance || math.IsNaN(det) {
		return mgl64.Mat3{}, errors.Wrapf(ErrSingular, "determinant %g", det)
	}
	return m.Inv(), nil
}

// Apply maps the point (x, y) through m.
func Apply(m mgl64.Mat3, x, y float64) (float64, float64) {
	v := m.Mul3x1(mgl64.Vec3{x, y, 1})
	return v.X(), v.Y()
}

// Estimate returns the affine transform that maps each src point onto the
// corresponding dst point in the least-squares sense. At least three
// non-collinear correspondences are needed.
func Estimate(src, dst []mgl64.Vec2) (mgl64.Mat3, error) {
	if len(src) != len(dst) {
		return mgl64.Mat3{}, errors.Errorf("affine: %d source points but %d destination points", len(src), len(dst))
	}
	n := len(src)
	if n < 3 {
		return mgl64.Mat3{}, errors.Wrapf(ErrDegenerate, "%d correspondences", n)
	}

	// Unknowns are the first two rows of the matrix, a0 a1 a2 b0 b1 b2.
	a := mat.NewDense(2*n, 6, nil)
	b := mat.NewDense(2*n, 1, nil)
	for i := range src {
		x, y := src[i].Elem()
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1})
		b.Set(2*i, 0, dst[i].X())
		b.Set(2*i+1, 0, dst[i].Y())
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return mgl64.Mat3{}, errors.Wrap(ErrDegenerate, "factorization failed")
	}
	if rank := svd.Rank(rankTolerance); rank < 6 {
		return mgl64.Mat3{}, errors.Wrapf(ErrDegenerate, "rank %d", rank)
	}

	var x mat.Dense
	svd.SolveTo(&x, b, 6)
	return mgl64.Mat3{
		x.At(0, 0), x.At(3, 0), 0,
		x.At(1, 0), x.At(4, 0), 0,
		x.At(2, 0), x.At(5, 0), 1,
	}, nil
}
