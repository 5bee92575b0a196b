package main

import (
	goimage "image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentalceph/internal/annotation"
	"dentalceph/internal/app"
	"dentalceph/internal/config"
	"dentalceph/internal/image"
	"dentalceph/internal/interaction"
)

func newState(t *testing.T) *app.State {
	t.Helper()
	s, err := app.NewState(config.Settings{
		Tool: config.ToolSettings{Default: "point", Color: "#ff9800", Thickness: 4, FontSize: 18, FontFamily: "Arial"},
		View: config.ViewSettings{Zoom: 100},
		Export: config.ExportSettings{
			BaseName: "dentalceph", JPEGQuality: 92, DefaultFormat: "png",
		},
		Hit:   config.HitSettings{Tolerance: 8},
		Angle: config.AngleSettings{ArcRadius: 32},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.SetLayer(image.FromImage(goimage.NewRGBA(goimage.Rect(0, 0, 300, 200)), "ceph.png"))
	return s
}

func TestParseScript(t *testing.T) {
	steps, err := parseScript(strings.NewReader(`[
		{"op":"tool","arg":"line"},
		{"op":"drag","x":10,"y":20,"x2":110,"y2":20},
		{"op":"thickness","n":6}
	]`))
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, step{Op: "drag", X: 10, Y: 20, X2: 110, Y2: 20}, steps[1])
	assert.Equal(t, 6.0, steps[2].N)

	_, err = parseScript(strings.NewReader(`{"op":"tool"}`))
	assert.Error(t, err)
}

func TestRunScriptMeasuresAngle(t *testing.T) {
	state := newState(t)
	var angles []annotation.Angle
	state.On(app.EventAngleMeasured, func(data interface{}) {
		angles = append(angles, data.(annotation.Angle))
	})

	err := run(state, []step{
		{Op: "tool", Arg: "line"},
		{Op: "drag", X: 0, Y: 100, X2: 200, Y2: 100},
		{Op: "drag", X: 100, Y: 0, X2: 100, Y2: 200},
		{Op: "tool", Arg: "angle"},
		{Op: "click", X: 50, Y: 100},
		{Op: "click", X: 100, Y: 50},
		{Op: "click", X: 130, Y: 130},
		{Op: "tool", Arg: "text"},
		{Op: "click", X: 20, Y: 40},
		{Op: "text", Arg: "Go"},
	})
	require.NoError(t, err)

	require.Len(t, angles, 1)
	assert.InDelta(t, 90, angles[0].Degrees, 1e-9)
	snap := state.Snapshot()
	assert.Len(t, snap.Lines, 2)
	assert.Len(t, snap.Texts, 1)
}

func TestRunScriptRatio(t *testing.T) {
	state := newState(t)
	var ratios []float64
	state.On(app.EventRatioComputed, func(data interface{}) {
		ratios = append(ratios, data.(interaction.RatioResult).Value)
	})

	err := run(state, []step{
		{Op: "tool", Arg: "jarabak"},
		{Op: "drag", X: 10, Y: 10, X2: 110, Y2: 10},
		{Op: "drag", X: 10, Y: 50, X2: 160, Y2: 50},
		{Op: "dismiss"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5}, ratios)
	assert.Empty(t, state.Snapshot().RatioLines)
}

func TestRunScriptRejectsUnknownOp(t *testing.T) {
	err := run(newState(t), []step{{Op: "click"}, {Op: "paint"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownOp)
	assert.Contains(t, err.Error(), "step 2 (paint)")
}
