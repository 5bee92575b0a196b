package annotation

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"dentalceph/pkg/geometry"
)

var (
	// ErrUnknownLine is returned when an Angle references a missing or repeated line.
	ErrUnknownLine = errors.New("angle references unknown line")
	// ErrRatioSetFull is returned when the ratio working set already holds two lines.
	ErrRatioSetFull = errors.New("ratio working set is full")
)

// action is one entry of the undo or redo stack.
type action struct {
	kind    Kind
	id      ID
	element Element
}

// History is the single point of mutation for a Store. It keeps the applied
// and reverted action stacks and the ID counter.
//
// History is not safe for concurrent use.
type History struct {
	store    Store
	applied  []action
	reverted []action
	lastID   ID

	listeners []func()
	logger    *slog.Logger
	metrics   *metrics
}

// NewHistory creates an empty history. A nil logger uses slog.Default().
func NewHistory(logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &History{logger: logger, metrics: m}, nil
}

// Store returns the store owned by this history.
func (h *History) Store() *Store {
	return &h.store
}

// OnStoreChanged registers fn to be called after every mutation.
func (h *History) OnStoreChanged(fn func()) {
	h.listeners = append(h.listeners, fn)
}

func (h *History) changed() {
	for _, fn := range h.listeners {
		fn()
	}
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.applied) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.reverted) > 0 }

// Append assigns the next ID to e, marks it volatile, inserts it and logs the
// action. The redo stack is discarded.
func (h *History) Append(e Element) (ID, error) {
	if e == nil {
		return 0, errors.New("append nil element")
	}
	switch v := e.(type) {
	case *Angle:
		if v.Lines[0] == v.Lines[1] {
			return 0, fmt.Errorf("line %d used twice: %w", v.Lines[0], ErrUnknownLine)
		}
		for _, id := range v.Lines {
			if find(h.store.lines, id) == nil {
				return 0, fmt.Errorf("line %d: %w", id, ErrUnknownLine)
			}
		}
	case *RatioLine:
		if len(h.store.ratio) >= RatioSetSize {
			return 0, ErrRatioSetFull
		}
	}

	h.lastID++
	hdr := e.header()
	hdr.ID = h.lastID
	hdr.Erasable = true

	h.store.insert(e)
	h.applied = append(h.applied, action{kind: e.Kind(), id: hdr.ID, element: e})
	h.reverted = nil

	h.logger.Debug("annotation appended", "kind", e.Kind(), "id", hdr.ID)
	h.metrics.action("append", e.Kind())
	h.changed()
	return hdr.ID, nil
}

// Undo removes the element of the most recent action. It returns false when
// there is nothing to undo.
func (h *History) Undo() bool {
	if len(h.applied) == 0 {
		return false
	}
	a := h.applied[len(h.applied)-1]
	h.applied = h.applied[:len(h.applied)-1]

	h.store.remove(a.kind, a.id)
	h.reverted = append(h.reverted, a)

	h.logger.Debug("annotation undone", "kind", a.kind, "id", a.id)
	h.metrics.action("undo", a.kind)
	h.changed()
	return true
}

// Redo re-inserts the element of the most recently undone action. It returns
// false when there is nothing to redo.
func (h *History) Redo() bool {
	if len(h.reverted) == 0 {
		return false
	}
	a := h.reverted[len(h.reverted)-1]
	h.reverted = h.reverted[:len(h.reverted)-1]

	h.store.insert(a.element)
	h.applied = append(h.applied, a)

	h.logger.Debug("annotation redone", "kind", a.kind, "id", a.id)
	h.metrics.action("redo", a.kind)
	h.changed()
	return true
}

// Freeze marks every element in the store and in the undo stack permanent.
// The stacks themselves are left untouched: a frozen element can still be
// removed by undoing the action that created it.
func (h *History) Freeze() {
	n := 0
	freeze := func(e Element) {
		if hdr := e.header(); hdr.Erasable {
			hdr.Erasable = false
			n++
		}
	}
	h.store.each(freeze)
	for _, a := range h.applied {
		freeze(a.element)
	}

	h.logger.Debug("annotations frozen", "count", n)
	if n > 0 {
		h.changed()
	}
}

// PurgeVolatile removes every erasable element and discards both stacks.
// It returns the number of elements removed.
func (h *History) PurgeVolatile() int {
	n := h.store.removeErasable()
	h.applied = nil
	h.reverted = nil

	h.logger.Debug("volatile annotations purged", "count", n)
	h.metrics.purge(n)
	h.changed()
	return n
}

// DiscardRatio empties the ratio working set. Volatile ratio lines are
// deleted; frozen ones become ordinary Lines with the same ID. Every history
// entry for a ratio line is dropped so redo cannot bring one back.
func (h *History) DiscardRatio() {
	dropRatio := func(a action) bool { return a.kind == KindRatioLine }
	before := len(h.applied) + len(h.reverted)
	h.applied = slices.DeleteFunc(h.applied, dropRatio)
	h.reverted = slices.DeleteFunc(h.reverted, dropRatio)
	dropped := before - len(h.applied) - len(h.reverted)

	if len(h.store.ratio) == 0 && dropped == 0 {
		return
	}
	for _, r := range h.store.ratio {
		if r.Erasable {
			continue
		}
		line := r.Line
		h.store.insert(&line)
	}
	n := len(h.store.ratio)
	h.store.ratio = nil

	h.logger.Debug("ratio set discarded", "lines", n, "entries", dropped)
	h.changed()
}

// MoveText repositions a text element in place. The move is not recorded in
// history. It returns false if no such text exists.
func (h *History) MoveText(id ID, pos geometry.Point2D) bool {
	t := find(h.store.texts, id)
	if t == nil {
		return false
	}
	if t.Position == pos {
		return true
	}
	t.Position = pos
	h.changed()
	return true
}
