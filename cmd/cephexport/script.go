package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"dentalceph/internal/app"
	"dentalceph/internal/interaction"
	"dentalceph/pkg/colorutil"
	"dentalceph/pkg/geometry"
)

var errUnknownOp = errors.New("unknown op")

// step is one scripted action. Coordinates are in the display frame, as a
// pointer would report them at the current zoom and rotation.
type step struct {
	Op  string  `json:"op"`
	Arg string  `json:"arg,omitempty"`
	N   float64 `json:"n,omitempty"`
	X   float64 `json:"x,omitempty"`
	Y   float64 `json:"y,omitempty"`
	X2  float64 `json:"x2,omitempty"`
	Y2  float64 `json:"y2,omitempty"`
}

func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	if err := json.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return steps, nil
}

// run applies steps to state in order.
func run(state *app.State, steps []step) error {
	for i, s := range steps {
		if err := apply(state, s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Op, err)
		}
	}
	return nil
}

func apply(state *app.State, s step) error {
	p := geometry.Pt(s.X, s.Y)
	switch s.Op {
	case "tool":
		t, err := interaction.ParseTool(s.Arg)
		if err != nil {
			return err
		}
		state.SetTool(t)
	case "color":
		c, err := colorutil.ParseHex(s.Arg)
		if err != nil {
			return err
		}
		state.SetColor(c)
	case "thickness":
		state.SetThickness(s.N)
	case "fontSize":
		state.SetFontSize(s.N)
	case "fontFamily":
		state.SetFontFamily(s.Arg)
	case "zoom":
		state.SetZoom(s.N)
	case "rotation":
		state.SetRotation(s.N)
	case "rotate":
		state.Rotate()
	case "down":
		state.PointerDown(p)
	case "move":
		state.PointerMove(p)
	case "up":
		state.PointerUp(p)
	case "click":
		state.PointerDown(p)
		state.PointerUp(p)
	case "drag":
		end := geometry.Pt(s.X2, s.Y2)
		state.PointerDown(p)
		state.PointerMove(end)
		state.PointerUp(end)
	case "text":
		state.ConfirmText(s.Arg)
	case "cancelText":
		state.CancelText()
	case "undo":
		state.Undo()
	case "redo":
		state.Redo()
	case "freeze":
		state.Freeze()
	case "clear":
		state.Clear()
	case "dismiss":
		state.DismissRatio()
	default:
		return errUnknownOp
	}
	return nil
}
