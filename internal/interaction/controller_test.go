package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentalceph/internal/annotation"
	"dentalceph/pkg/geometry"
)

// fixedWidth measures every glyph as half the font size.
type fixedWidth struct{}

func (fixedWidth) Measure(text, _ string, size float64) float64 {
	return float64(len([]rune(text))) * size / 2
}

func newController(t *testing.T) (*Controller, *annotation.History) {
	t.Helper()
	h, err := annotation.NewHistory(nil)
	require.NoError(t, err)
	c := NewController(h, fixedWidth{})
	c.SetImage(400, 300)
	return c, h
}

func cfgFor(tool Tool) Config {
	cfg := DefaultConfig()
	cfg.Tool = tool
	return cfg
}

func drag(c *Controller, cfg Config, from, to geometry.Point2D) Result {
	c.PointerDown(cfg, from)
	c.PointerMove(cfg, to)
	return c.PointerUp(cfg, to)
}

func TestNoImageIgnoresPointer(t *testing.T) {
	h, err := annotation.NewHistory(nil)
	require.NoError(t, err)
	c := NewController(h, fixedWidth{})

	assert.Zero(t, c.PointerDown(cfgFor(ToolPoint), geometry.Pt(10, 10)))
	assert.Zero(t, drag(c, cfgFor(ToolLine), geometry.Pt(0, 0), geometry.Pt(50, 50)))
	assert.Zero(t, h.Store().Len())
}

func TestPointUsesImageSpace(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolPoint)
	cfg.Zoom = 200

	c.PointerDown(cfg, geometry.Pt(100, 60))
	pts := h.Store().Points()
	require.Len(t, pts, 1)
	assert.InDelta(t, 50, pts[0].Position.X, 1e-9)
	assert.InDelta(t, 30, pts[0].Position.Y, 1e-9)
	assert.InDelta(t, 4.8, pts[0].Radius(), 1e-9)
	assert.True(t, pts[0].Erasable)
}

func TestLineToolProvisional(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolLine)

	c.PointerDown(cfg, geometry.Pt(10, 20))
	assert.True(t, c.Animating())
	c.PointerMove(cfg, geometry.Pt(60, 20))

	o := c.Overlay()
	require.NotNil(t, o.Provisional)
	assert.Equal(t, geometry.Seg(10, 20, 60, 20), o.Provisional.Segment)
	assert.Empty(t, h.Store().Lines(), "provisional line is not stored")

	for range 11 {
		require.True(t, c.Tick())
	}
	assert.InDelta(t, 6, c.Overlay().DashOffset, 1e-9)

	c.PointerUp(cfg, geometry.Pt(110, 70))
	assert.False(t, c.Animating())
	assert.False(t, c.Tick())
	assert.Zero(t, c.Overlay().DashOffset)

	lines := h.Store().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, geometry.Seg(10, 20, 110, 70), lines[0].Segment)
	assert.InDelta(t, 0.5, lines[0].Equation.Slope, 1e-12)
	assert.Equal(t, 4.0, lines[0].Thickness)
}

func TestRatioComputedOnce(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolRatio)

	res := drag(c, cfg, geometry.Pt(0, 10), geometry.Pt(100, 10))
	assert.False(t, res.Has(RatioComputed))

	res = drag(c, cfg, geometry.Pt(0, 50), geometry.Pt(0, 200))
	require.True(t, res.Has(RatioComputed))
	r, ok := c.PendingRatio()
	require.True(t, ok)
	assert.InDelta(t, 1.5, r.Value, 1e-12)

	// Suspended while the result is pending.
	assert.Zero(t, drag(c, cfg, geometry.Pt(0, 0), geometry.Pt(30, 0)))
	assert.Zero(t, c.PointerDown(cfgFor(ToolPoint), geometry.Pt(5, 5)))
	assert.Len(t, h.Store().RatioLines(), 2)
	assert.Empty(t, h.Store().Points())

	c.DismissRatio()
	_, ok = c.PendingRatio()
	assert.False(t, ok)
	assert.Empty(t, h.Store().RatioLines())
	assert.False(t, h.CanUndo())
}

func TestRatioRedoDoesNotRetrigger(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolRatio)
	drag(c, cfg, geometry.Pt(0, 10), geometry.Pt(100, 10))
	drag(c, cfg, geometry.Pt(0, 50), geometry.Pt(150, 50))

	require.True(t, h.Undo())
	c.Sync()
	_, ok := c.PendingRatio()
	assert.False(t, ok)

	require.True(t, h.Redo())
	c.Sync()
	_, ok = c.PendingRatio()
	assert.False(t, ok)
	assert.Len(t, h.Store().RatioLines(), 2)

	// A new measurement starts from an empty set.
	res := drag(c, cfg, geometry.Pt(0, 0), geometry.Pt(40, 0))
	assert.False(t, res.Has(RatioComputed))
	assert.Len(t, h.Store().RatioLines(), 1)
}

func TestRatioZeroLengthFirstLine(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolRatio)
	drag(c, cfg, geometry.Pt(10, 10), geometry.Pt(10, 10))
	res := drag(c, cfg, geometry.Pt(0, 50), geometry.Pt(150, 50))

	assert.False(t, res.Has(RatioComputed))
	_, ok := c.PendingRatio()
	assert.False(t, ok)
	assert.Empty(t, h.Store().RatioLines())
}

func TestToolChangeDiscardsRatioSet(t *testing.T) {
	c, h := newController(t)
	drag(c, cfgFor(ToolRatio), geometry.Pt(0, 10), geometry.Pt(100, 10))
	require.Len(t, h.Store().RatioLines(), 1)

	c.ToolChanged()
	assert.Empty(t, h.Store().RatioLines())
}

func TestTextEntry(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolText)

	res := c.PointerDown(cfg, geometry.Pt(40, 80))
	require.True(t, res.Has(TextRequested))
	pos, ok := c.PendingText()
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(40, 80), pos)

	_, ok = c.ConfirmText(cfg, "   ")
	assert.False(t, ok, "blank content is discarded")
	_, ok = c.PendingText()
	assert.False(t, ok)

	c.PointerDown(cfg, geometry.Pt(40, 80))
	c.CancelText()
	assert.Empty(t, h.Store().Texts())

	c.PointerDown(cfg, geometry.Pt(40, 80))
	id, ok := c.ConfirmText(cfg, "Sella")
	require.True(t, ok)
	txt, ok := h.Store().Text(id)
	require.True(t, ok)
	assert.Equal(t, "Sella", txt.Content)
	assert.Equal(t, 18.0, txt.FontSize)
	assert.Equal(t, "Arial", txt.FontFamily)
}

func TestTextDrag(t *testing.T) {
	c, h := newController(t)
	cfg := cfgFor(ToolText)
	c.PointerDown(cfg, geometry.Pt(40, 80))
	id, ok := c.ConfirmText(cfg, "Na") // box [40,58] x [62,80]
	require.True(t, ok)

	res := c.PointerDown(cfg, geometry.Pt(45, 75))
	assert.False(t, res.Has(TextRequested), "press inside the box grabs the text")
	c.PointerMove(cfg, geometry.Pt(145, 175))
	c.PointerUp(cfg, geometry.Pt(145, 175))

	txt, _ := h.Store().Text(id)
	assert.Equal(t, geometry.Pt(140, 180), txt.Position)

	require.True(t, h.Undo())
	assert.Empty(t, h.Store().Texts(), "the drag itself is not an undo step")
}

func TestAngleSelection(t *testing.T) {
	c, h := newController(t)
	drag(c, cfgFor(ToolLine), geometry.Pt(0, 50), geometry.Pt(100, 50))
	drag(c, cfgFor(ToolLine), geometry.Pt(50, 0), geometry.Pt(50, 100))
	lines := h.Store().Lines()
	require.Len(t, lines, 2)

	cfg := cfgFor(ToolAngle)
	c.PointerMove(cfg, geometry.Pt(20, 54))
	assert.Equal(t, lines[0].ID, c.Overlay().Hovered)

	c.PointerDown(cfg, geometry.Pt(20, 54))
	c.PointerDown(cfg, geometry.Pt(20, 54)) // already selected
	c.PointerDown(cfg, geometry.Pt(53, 80))
	assert.Equal(t, []annotation.ID{lines[0].ID, lines[1].ID}, c.Overlay().Selected)

	res := c.PointerDown(cfg, geometry.Pt(70, 70))
	require.True(t, res.Has(AngleAdded))
	angles := h.Store().Angles()
	require.Len(t, angles, 1)
	assert.InDelta(t, 90, angles[0].Degrees, 1e-9)
	assert.Equal(t, geometry.Pt(50, 50), angles[0].Vertex)
	assert.Equal(t, 32.0, angles[0].Arc.Radius)
	assert.Empty(t, c.Overlay().Selected)
}

func TestAngleParallelResetsSelection(t *testing.T) {
	c, h := newController(t)
	drag(c, cfgFor(ToolLine), geometry.Pt(0, 50), geometry.Pt(100, 50))
	drag(c, cfgFor(ToolLine), geometry.Pt(0, 80), geometry.Pt(100, 80))

	cfg := cfgFor(ToolAngle)
	c.PointerDown(cfg, geometry.Pt(50, 52))
	c.PointerDown(cfg, geometry.Pt(50, 78))
	require.Len(t, c.Overlay().Selected, 2)

	res := c.PointerDown(cfg, geometry.Pt(50, 65))
	assert.False(t, res.Has(AngleAdded))
	assert.Empty(t, c.Overlay().Selected)
	assert.Empty(t, h.Store().Angles())
}

func TestSyncDropsRemovedSelection(t *testing.T) {
	c, h := newController(t)
	drag(c, cfgFor(ToolLine), geometry.Pt(0, 50), geometry.Pt(100, 50))
	c.PointerDown(cfgFor(ToolAngle), geometry.Pt(50, 52))
	require.Len(t, c.Overlay().Selected, 1)

	require.True(t, h.Undo())
	c.Sync()
	assert.Empty(t, c.Overlay().Selected)
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool(" Jarabak ")
	require.NoError(t, err)
	assert.Equal(t, ToolRatio, tool)

	_, err = ParseTool("lasso")
	assert.Error(t, err)

	for _, tl := range Tools {
		parsed, err := ParseTool(tl.String())
		require.NoError(t, err)
		assert.Equal(t, tl, parsed)
	}
}
