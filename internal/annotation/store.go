package annotation

import (
	"cmp"
	"slices"
)

// RatioSetSize is the number of lines in a complete ratio working set.
const RatioSetSize = 2

// Store is the set of elements that currently exist. Each collection is kept
// in ID order. Store has no exported mutators: all changes go through History.
type Store struct {
	points []*Point
	lines  []*Line
	texts  []*Text
	angles []*Angle
	ratio  []*RatioLine
}

// Snapshot is a deep copy of the Store contents.
type Snapshot struct {
	Points     []Point
	Lines      []Line
	Texts      []Text
	Angles     []Angle
	RatioLines []RatioLine
}

// Len returns the total number of elements.
func (s Snapshot) Len() int {
	return len(s.Points) + len(s.Lines) + len(s.Texts) + len(s.Angles) + len(s.RatioLines)
}

// Line returns the line with the given id.
func (s Snapshot) Line(id ID) (Line, bool) {
	for _, l := range s.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

func (s *Store) Points() []Point         { return values(s.points) }
func (s *Store) Lines() []Line           { return values(s.lines) }
func (s *Store) Texts() []Text           { return values(s.texts) }
func (s *Store) Angles() []Angle         { return values(s.angles) }
func (s *Store) RatioLines() []RatioLine { return values(s.ratio) }

// Len returns the total number of elements.
func (s *Store) Len() int {
	return len(s.points) + len(s.lines) + len(s.texts) + len(s.angles) + len(s.ratio)
}

// Line returns a copy of the line with the given id.
func (s *Store) Line(id ID) (Line, bool) {
	if l := find(s.lines, id); l != nil {
		return *l, true
	}
	return Line{}, false
}

// Text returns a copy of the text with the given id.
func (s *Store) Text(id ID) (Text, bool) {
	if t := find(s.texts, id); t != nil {
		return *t, true
	}
	return Text{}, false
}

// Snapshot returns a deep copy of every collection.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Points:     s.Points(),
		Lines:      s.Lines(),
		Texts:      s.Texts(),
		Angles:     s.Angles(),
		RatioLines: s.RatioLines(),
	}
}

func (s *Store) insert(e Element) {
	switch v := e.(type) {
	case *Point:
		s.points = insertOrdered(s.points, v)
	case *Line:
		s.lines = insertOrdered(s.lines, v)
	case *Text:
		s.texts = insertOrdered(s.texts, v)
	case *Angle:
		s.angles = insertOrdered(s.angles, v)
	case *RatioLine:
		s.ratio = insertOrdered(s.ratio, v)
	}
}

func (s *Store) remove(kind Kind, id ID) bool {
	var ok bool
	switch kind {
	case KindPoint:
		s.points, ok = removeID(s.points, id)
	case KindLine:
		s.lines, ok = removeID(s.lines, id)
	case KindText:
		s.texts, ok = removeID(s.texts, id)
	case KindAngle:
		s.angles, ok = removeID(s.angles, id)
	case KindRatioLine:
		s.ratio, ok = removeID(s.ratio, id)
	}
	return ok
}

// each calls fn for every element in draw order.
func (s *Store) each(fn func(Element)) {
	for _, e := range s.lines {
		fn(e)
	}
	for _, e := range s.ratio {
		fn(e)
	}
	for _, e := range s.points {
		fn(e)
	}
	for _, e := range s.texts {
		fn(e)
	}
	for _, e := range s.angles {
		fn(e)
	}
}

// removeErasable drops every volatile element and returns how many were removed.
func (s *Store) removeErasable() int {
	n := s.Len()
	s.points = slices.DeleteFunc(s.points, erasable[*Point])
	s.lines = slices.DeleteFunc(s.lines, erasable[*Line])
	s.texts = slices.DeleteFunc(s.texts, erasable[*Text])
	s.angles = slices.DeleteFunc(s.angles, erasable[*Angle])
	s.ratio = slices.DeleteFunc(s.ratio, erasable[*RatioLine])
	return n - s.Len()
}

func erasable[E Element](e E) bool {
	return e.header().Erasable
}

func values[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = *it
	}
	return out
}

func find[E Element](items []E, id ID) E {
	for _, it := range items {
		if it.header().ID == id {
			return it
		}
	}
	var zero E
	return zero
}

func insertOrdered[E Element](items []E, e E) []E {
	id := e.header().ID
	i, _ := slices.BinarySearchFunc(items, id, func(it E, target ID) int {
		return cmp.Compare(it.header().ID, target)
	})
	return slices.Insert(items, i, e)
}

func removeID[E Element](items []E, id ID) ([]E, bool) {
	i := slices.IndexFunc(items, func(it E) bool { return it.header().ID == id })
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}
