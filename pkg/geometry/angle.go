package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Side identifies which of the two angles formed at a vertex was picked.
type Side int

const (
	SideAcute  Side = iota // wedge between the two rays
	SideObtuse             // supplementary wedge
)

func (s Side) String() string {
	switch s {
	case SideAcute:
		return "acute"
	case SideObtuse:
		return "obtuse"
	default:
		return "unknown"
	}
}

// Arc is a circular arc swept from Start to End in the direction of
// increasing angle (clockwise on screen). Angles are in radians.
type Arc struct {
	Center Point2D `json:"center"`
	Radius float64 `json:"radius"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// Sweep returns the angular extent of the arc in [0, 2π).
func (a Arc) Sweep() float64 {
	return normalizeRadians(a.End - a.Start)
}

// Mid returns the angle halfway along the arc.
func (a Arc) Mid() float64 {
	return a.Start + a.Sweep()/2
}

// AngleMeasure is the outcome of measuring the angle between two lines.
type AngleMeasure struct {
	Vertex  Point2D `json:"vertex"`
	Degrees float64 `json:"degrees"`
	Arc     Arc     `json:"arc"`
	Side    Side    `json:"side"`
}

// MeasureAngle measures the angle formed by l1 and l2 on the side indicated
// by pick. The ray of each line runs from the intersection to the endpoint
// farthest from it, so lines drawn in either direction behave alike. The
// picked side is the one whose bisector points most directly at pick; ties
// favour the acute side. Degrees is always in (0, 180].
// ok is false when the lines do not intersect.
func MeasureAngle(l1, l2 Segment, pick Point2D, radius float64) (AngleMeasure, bool) {
	vertex, ok := Intersect(l1, l2)
	if !ok {
		return AngleMeasure{}, false
	}

	v1 := farthestEndpoint(l1, vertex).Sub(vertex).vec()
	v2 := farthestEndpoint(l2, vertex).Sub(vertex).vec()
	if r2.Norm(v1) == 0 || r2.Norm(v2) == 0 {
		return AngleMeasure{}, false
	}
	u1, u2 := r2.Unit(v1), r2.Unit(v2)

	acuteBisector := unitOrZero(r2.Add(u1, u2))
	obtuseBisector := unitOrZero(r2.Sub(u1, u2))

	side := SideAcute
	if m := pick.Sub(vertex).vec(); r2.Norm(m) > 0 {
		um := r2.Unit(m)
		if r2.Dot(obtuseBisector, um) > r2.Dot(acuteBisector, um) {
			side = SideObtuse
		}
	}

	a1 := math.Atan2(u1.Y, u1.X)
	a2 := math.Atan2(u2.Y, u2.X)
	minor := minorArc(vertex, radius, a1, a2)

	var raw float64
	var arc Arc
	switch side {
	case SideAcute:
		raw = minor.Sweep()
		arc = minor
	case SideObtuse:
		raw = 2*math.Pi - minor.Sweep()
		arc = minorArc(vertex, radius, a1, a2+math.Pi)
	}

	return AngleMeasure{
		Vertex:  vertex,
		Degrees: reduceDegrees(raw * 180 / math.Pi),
		Arc:     arc,
		Side:    side,
	}, true
}

// farthestEndpoint returns whichever endpoint of s lies farther from p.
// Equal distances resolve to P2.
func farthestEndpoint(s Segment, p Point2D) Point2D {
	if s.P1.Distance(p) > s.P2.Distance(p) {
		return s.P1
	}
	return s.P2
}

// minorArc returns the arc of at most π between directions a and b.
func minorArc(center Point2D, radius, a, b float64) Arc {
	arc := Arc{Center: center, Radius: radius, Start: a, End: b}
	if arc.Sweep() > math.Pi {
		arc.Start, arc.End = b, a
	}
	return arc
}

func unitOrZero(v r2.Vec) r2.Vec {
	if r2.Norm(v) == 0 {
		return r2.Vec{}
	}
	return r2.Unit(v)
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// reduceDegrees folds a sweep into (0, 180]: the value is normalised into
// [0, 360) and a reflex sweep is reported as its excess over a straight angle.
func reduceDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg > 180 {
		deg -= 180
	}
	return deg
}
