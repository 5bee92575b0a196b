// Package geometry provides the image-space geometry used by the annotation engine.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point2D represents a 2D point in image pixel space.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance is the Euclidean distance between p and other.
func (p Point2D) Distance(other Point2D) float64 {
	return r2.Norm(r2.Sub(p.vec(), other.vec()))
}

// Add is p+other.
func (p Point2D) Add(other Point2D) Point2D {
	return fromVec(r2.Add(p.vec(), other.vec()))
}

// Sub is p-other.
func (p Point2D) Sub(other Point2D) Point2D {
	return fromVec(r2.Sub(p.vec(), other.vec()))
}

// Scale multiplies both coordinates by factor.
func (p Point2D) Scale(factor float64) Point2D {
	return fromVec(r2.Scale(factor, p.vec()))
}

func (p Point2D) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func fromVec(v r2.Vec) Point2D {
	return Point2D{X: v.X, Y: v.Y}
}

// Rect is an axis-aligned box in image space anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a Rect from its top-left corner and size.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point2D) bool {
	br := r.Max()
	return p.X >= r.X && p.X <= br.X && p.Y >= r.Y && p.Y <= br.Y
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point2D {
	return Pt(r.X+r.Width, r.Y+r.Height)
}

// BoundingBox returns the smallest Rect holding every point, or the zero
// Rect for none.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points {
		lo = Pt(min(lo.X, p.X), min(lo.Y, p.Y))
		hi = Pt(max(hi.X, p.X), max(hi.Y, p.Y))
	}
	return NewRect(lo.X, lo.Y, hi.X-lo.X, hi.Y-lo.Y)
}

// AffineTransform maps p to (A·x + B·y + TX, C·x + D·y + TY).
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// singularDet is the determinant below which a transform has no inverse.
const singularDet = 1e-10

// Identity returns the transform that leaves every point in place.
func Identity() AffineTransform {
	return Scale(1, 1)
}

// Translation returns a transform shifting points by (tx, ty).
func Translation(tx, ty float64) AffineTransform {
	t := Identity()
	t.TX, t.TY = tx, ty
	return t
}

// Rotation turns by radians about the origin. With y growing downward a
// positive angle turns clockwise on screen.
func Rotation(radians float64) AffineTransform {
	sin, cos := math.Sincos(radians)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

// RotationAbout turns by radians about pivot.
func RotationAbout(radians float64, pivot Point2D) AffineTransform {
	return Translation(pivot.X, pivot.Y).
		Compose(Rotation(radians)).
		Compose(Translation(-pivot.X, -pivot.Y))
}

// Scale returns a transform scaling about the origin.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// linear applies the transform without its translation.
func (t AffineTransform) linear(p Point2D) Point2D {
	return Pt(t.A*p.X+t.B*p.Y, t.C*p.X+t.D*p.Y)
}

func (t AffineTransform) translation() Point2D {
	return Pt(t.TX, t.TY)
}

// Apply maps p through t.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return t.linear(p).Add(t.translation())
}

// Compose returns t·other: other is applied first.
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	col1 := t.linear(Pt(other.A, other.C))
	col2 := t.linear(Pt(other.B, other.D))
	off := t.Apply(other.translation())
	return AffineTransform{
		A: col1.X, B: col2.X, TX: off.X,
		C: col1.Y, D: col2.Y, TY: off.Y,
	}
}

// Inverse returns the transform undoing t. It reports false when t is
// singular.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < singularDet {
		return AffineTransform{}, false
	}
	inv := AffineTransform{A: t.D / det, B: -t.B / det, C: -t.C / det, D: t.A / det}
	off := inv.linear(t.translation()).Scale(-1)
	inv.TX, inv.TY = off.X, off.Y
	return inv, true
}

// Matrix returns the transform in row-major 2x3 form.
func (t AffineTransform) Matrix() [6]float64 {
	return [6]float64{t.A, t.B, t.TX, t.C, t.D, t.TY}
}
