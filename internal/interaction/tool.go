// Package interaction turns pointer gestures into annotation edits.
package interaction

import (
	"fmt"
	"image/color"
	"strings"

	"dentalceph/internal/viewport"
	"dentalceph/pkg/colorutil"
)

// Tool is the active annotation tool.
type Tool int

const (
	ToolPoint Tool = iota
	ToolLine
	ToolText
	ToolAngle
	ToolRatio
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolPoint, ToolLine, ToolText, ToolAngle, ToolRatio}

func (t Tool) String() string {
	switch t {
	case ToolPoint:
		return "point"
	case ToolLine:
		return "line"
	case ToolText:
		return "text"
	case ToolAngle:
		return "angle"
	case ToolRatio:
		return "ratio"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// ParseTool parses a tool name. "jarabak" is accepted for the ratio tool.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return ToolPoint, nil
	case "line":
		return ToolLine, nil
	case "text":
		return ToolText, nil
	case "angle":
		return ToolAngle, nil
	case "ratio", "jarabak":
		return ToolRatio, nil
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// Config is the toolbar state passed into every controller call.
type Config struct {
	Tool       Tool
	Color      color.NRGBA
	Thickness  float64
	FontSize   float64
	FontFamily string
	Zoom       float64 // percent
	Rotation   float64 // degrees
}

// DefaultConfig returns the toolbar state of a fresh session.
func DefaultConfig() Config {
	return Config{
		Tool:       ToolPoint,
		Color:      colorutil.Orange,
		Thickness:  4,
		FontSize:   18,
		FontFamily: "Arial",
		Zoom:       100,
	}
}

// Viewport returns the display mapping for an image of the given size.
func (c Config) Viewport(width, height int) viewport.Viewport {
	return viewport.Viewport{Zoom: c.Zoom, Rotation: c.Rotation, Width: width, Height: height}
}
