// Package annotation holds the annotation entities, the Store that owns them
// and the History engine through which every mutation flows.
package annotation

import (
	"image/color"

	"dentalceph/pkg/geometry"
)

// ID identifies an element for the lifetime of a session. IDs start at 1 and
// are never reused.
type ID uint64

// Kind discriminates the element variants.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindText
	KindAngle
	KindRatioLine
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindText:
		return "text"
	case KindAngle:
		return "angle"
	case KindRatioLine:
		return "ratio-line"
	default:
		return "unknown"
	}
}

// Header carries the attributes shared by every element.
type Header struct {
	ID       ID
	Color    color.NRGBA
	Erasable bool // false once frozen
}

func (h *Header) header() *Header { return h }

// Element is one of *Point, *Line, *Text, *Angle or *RatioLine.
type Element interface {
	Kind() Kind
	header() *Header
}

// HeaderOf returns a copy of the element's shared attributes.
func HeaderOf(e Element) Header {
	return *e.header()
}

// Point is a filled disc marker.
type Point struct {
	Header
	Position  geometry.Point2D
	Thickness float64
}

func (*Point) Kind() Kind { return KindPoint }

// Radius returns the rendered disc radius.
func (p *Point) Radius() float64 {
	return p.Thickness * 1.2
}

// Line is a finalized straight segment. Equation is computed once by NewLine.
type Line struct {
	Header
	Segment   geometry.Segment
	Thickness float64
	Equation  geometry.LineEquation
}

func (*Line) Kind() Kind { return KindLine }

// NewLine builds a volatile line and derives its equation.
func NewLine(seg geometry.Segment, thickness float64, c color.NRGBA) *Line {
	return &Line{
		Header:    Header{Color: c},
		Segment:   seg,
		Thickness: thickness,
		Equation:  seg.Equation(),
	}
}

// Text is a label anchored at its baseline-bottom-left corner.
type Text struct {
	Header
	Position   geometry.Point2D
	Content    string
	FontSize   float64
	FontFamily string
}

func (*Text) Kind() Kind { return KindText }

// Angle is a measured angle between two Lines. Vertex and Arc are fixed at
// creation.
type Angle struct {
	Header
	Lines   [2]ID
	Vertex  geometry.Point2D
	Degrees float64
	Arc     geometry.Arc
	Side    geometry.Side
}

func (*Angle) Kind() Kind { return KindAngle }

// NewAngle builds a volatile angle from a measurement between lines a and b.
func NewAngle(a, b ID, m geometry.AngleMeasure, c color.NRGBA) *Angle {
	return &Angle{
		Header:  Header{Color: c},
		Lines:   [2]ID{a, b},
		Vertex:  m.Vertex,
		Degrees: m.Degrees,
		Arc:     m.Arc,
		Side:    m.Side,
	}
}

// RatioLine is a line in the ratio working set.
type RatioLine struct {
	Line
}

func (*RatioLine) Kind() Kind { return KindRatioLine }

// NewRatioLine builds a volatile ratio line and derives its equation.
func NewRatioLine(seg geometry.Segment, thickness float64, c color.NRGBA) *RatioLine {
	return &RatioLine{Line: *NewLine(seg, thickness, c)}
}
