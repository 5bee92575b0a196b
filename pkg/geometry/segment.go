package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultHitTolerance is the pointer tolerance, in image pixels, for selecting a segment.
const DefaultHitTolerance = 8.0

// parallelEpsilon bounds the determinant below which two lines are treated as parallel.
const parallelEpsilon = 1e-9

// Segment is a straight line segment from P1 to P2.
type Segment struct {
	P1 Point2D `json:"p1"`
	P2 Point2D `json:"p2"`
}

// Seg builds a segment from endpoint coordinates.
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{P1: Pt(x1, y1), P2: Pt(x2, y2)}
}

// Vector returns P2 - P1.
func (s Segment) Vector() Point2D {
	return s.P2.Sub(s.P1)
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// Degenerate reports whether both endpoints coincide.
func (s Segment) Degenerate() bool {
	return s.P1 == s.P2
}

// LineEquation describes the infinite line through a segment.
// Slope and Intercept are only meaningful when Vertical is false.
// The general form A*x + B*y + C = 0 is always populated.
type LineEquation struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Vertical  bool    `json:"vertical"`
	A, B, C   float64
}

// Equation computes the line equation of the segment.
func (s Segment) Equation() LineEquation {
	x1, y1, x2, y2 := s.P1.X, s.P1.Y, s.P2.X, s.P2.Y
	eq := LineEquation{
		A: y2 - y1,
		B: x1 - x2,
		C: x2*y1 - x1*y2,
	}
	if x2 == x1 {
		eq.Vertical = true
		return eq
	}
	eq.Slope = (y2 - y1) / (x2 - x1)
	eq.Intercept = y1 - eq.Slope*x1
	return eq
}

// Eval returns A*x + B*y + C for p; zero on the line.
func (e LineEquation) Eval(p Point2D) float64 {
	return e.A*p.X + e.B*p.Y + e.C
}

// Project returns the projection parameter t of q onto the segment's line and
// the foot of the perpendicular. t is 0 at P1 and 1 at P2.
// For a degenerate segment t is NaN.
func (s Segment) Project(q Point2D) (float64, Point2D) {
	d := s.Vector().vec()
	lenSq := r2.Norm2(d)
	if lenSq == 0 {
		return math.NaN(), s.P1
	}
	t := r2.Dot(r2.Sub(q.vec(), s.P1.vec()), d) / lenSq
	return t, fromVec(r2.Add(s.P1.vec(), r2.Scale(t, d)))
}

// InteriorDistance returns the perpendicular distance from q to the segment.
// ok is false when the projection falls outside [0,1] or the segment is
// degenerate; endpoints are never treated as the closest feature.
func (s Segment) InteriorDistance(q Point2D) (dist float64, ok bool) {
	if s.Degenerate() {
		return 0, false
	}
	t, foot := s.Project(q)
	if t < 0 || t > 1 {
		return 0, false
	}
	return q.Distance(foot), true
}

// Hit reports whether q lies strictly within tol of the segment's interior.
func (s Segment) Hit(q Point2D, tol float64) bool {
	d, ok := s.InteriorDistance(q)
	return ok && d < tol
}

// Intersect returns the intersection point of the infinite lines through a
// and b. ok is false for parallel or coincident lines.
func Intersect(a, b Segment) (Point2D, bool) {
	x1, y1, x2, y2 := a.P1.X, a.P1.Y, a.P2.X, a.P2.Y
	x3, y3, x4, y4 := b.P1.X, b.P1.Y, b.P2.X, b.P2.Y

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if scalar.EqualWithinAbs(denom, 0, parallelEpsilon) {
		return Point2D{}, false
	}

	c1 := x1*y2 - y1*x2
	c2 := x3*y4 - y3*x4
	return Point2D{
		X: (c1*(x3-x4) - (x1-x2)*c2) / denom,
		Y: (c1*(y3-y4) - (y1-y2)*c2) / denom,
	}, true
}
