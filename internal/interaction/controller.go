package interaction

import (
	"log/slog"
	"slices"
	"strings"

	"dentalceph/internal/annotation"
	"dentalceph/pkg/geometry"
)

const (
	// DefaultArcRadius is the radius of a measured angle's arc, in image pixels.
	DefaultArcRadius = 32.0

	dashStep   = 6.0
	dashPeriod = 60.0
)

// TextMeasurer reports the advance width of a string in a given font.
type TextMeasurer interface {
	Measure(text, family string, size float64) float64
}

// Result flags what a controller call changed beyond the Store.
type Result uint8

const (
	// Redraw means transient overlay state changed.
	Redraw Result = 1 << iota
	// TextRequested means a text entry is pending at PendingText().
	TextRequested
	// RatioComputed means a ratio result is pending at PendingRatio().
	RatioComputed
	// AngleAdded means an Angle was appended.
	AngleAdded
)

// Has reports whether all bits of f are set.
func (r Result) Has(f Result) bool { return r&f == f }

// Provisional is a line being drawn.
type Provisional struct {
	Segment geometry.Segment
	Tool    Tool
}

// Overlay is the transient, non-persisted state the renderer draws on top of
// the Store.
type Overlay struct {
	Provisional *Provisional
	DashOffset  float64
	Hovered     annotation.ID
	Selected    []annotation.ID
}

// RatioResult is a computed ratio awaiting dismissal.
type RatioResult struct {
	First, Second annotation.ID
	Value         float64
}

// Controller is the per-tool pointer state machine. It is not safe for
// concurrent use.
type Controller struct {
	history   *annotation.History
	measurer  TextMeasurer
	logger    *slog.Logger
	tolerance float64
	arcRadius float64

	width, height int

	provisional *Provisional
	dashOffset  float64

	pendingText *geometry.Point2D
	dragging    annotation.ID
	dragOffset  geometry.Point2D

	hovered  annotation.ID
	selected []annotation.ID

	ratio *RatioResult
}

// Option configures a Controller.
type Option func(*Controller)

// WithHitTolerance sets the line pick tolerance in image pixels.
func WithHitTolerance(tol float64) Option {
	return func(c *Controller) { c.tolerance = tol }
}

// WithArcRadius sets the radius of new angle arcs.
func WithArcRadius(r float64) Option {
	return func(c *Controller) { c.arcRadius = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller editing h. measurer is used to hit-test
// text boxes.
func NewController(h *annotation.History, measurer TextMeasurer, opts ...Option) *Controller {
	c := &Controller{
		history:   h,
		measurer:  measurer,
		logger:    slog.Default(),
		tolerance: geometry.DefaultHitTolerance,
		arcRadius: DefaultArcRadius,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetImage records the natural size of the loaded image and resets gesture state.
func (c *Controller) SetImage(width, height int) {
	c.width, c.height = width, height
	c.Reset()
}

// ClearImage forgets the image; pointer input is ignored until SetImage.
func (c *Controller) ClearImage() {
	c.SetImage(0, 0)
}

// HasImage reports whether an image is loaded.
func (c *Controller) HasImage() bool {
	return c.width > 0 && c.height > 0
}

func (c *Controller) accepting() bool {
	return c.HasImage() && c.ratio == nil
}

func (c *Controller) toImage(cfg Config, screen geometry.Point2D) geometry.Point2D {
	return cfg.Viewport(c.width, c.height).ScreenToImage(screen)
}

// PointerDown handles a primary button press at a display-frame position.
func (c *Controller) PointerDown(cfg Config, screen geometry.Point2D) Result {
	if !c.accepting() {
		return 0
	}
	var res Result
	if c.pendingText != nil {
		// Clicking elsewhere blurs the entry.
		c.pendingText = nil
		res |= Redraw
	}
	p := c.toImage(cfg, screen)

	switch cfg.Tool {
	case ToolPoint:
		c.appendElement(&annotation.Point{
			Header:    annotation.Header{Color: cfg.Color},
			Position:  p,
			Thickness: cfg.Thickness,
		})

	case ToolLine, ToolRatio:
		if c.provisional != nil {
			return res
		}
		if cfg.Tool == ToolRatio && len(c.history.Store().RatioLines()) >= annotation.RatioSetSize {
			// A redone pair that never produced a result.
			c.history.DiscardRatio()
		}
		c.provisional = &Provisional{Segment: geometry.Segment{P1: p, P2: p}, Tool: cfg.Tool}
		c.dashOffset = 0
		res |= Redraw

	case ToolText:
		if id, ok := c.textAt(cfg, p); ok {
			t, _ := c.history.Store().Text(id)
			c.dragging = id
			c.dragOffset = p.Sub(t.Position)
			return res
		}
		c.pendingText = &p
		res |= TextRequested | Redraw

	case ToolAngle:
		res |= c.angleDown(cfg, p)
	}
	return res
}

// PointerMove handles pointer motion.
func (c *Controller) PointerMove(cfg Config, screen geometry.Point2D) Result {
	if !c.accepting() {
		return 0
	}
	p := c.toImage(cfg, screen)

	switch {
	case c.provisional != nil:
		c.provisional.Segment.P2 = p
		return Redraw
	case c.dragging != 0:
		c.history.MoveText(c.dragging, p.Sub(c.dragOffset))
		return 0
	case cfg.Tool == ToolAngle:
		id, _ := c.lineAt(p)
		return c.setHovered(id)
	default:
		return c.setHovered(0)
	}
}

// PointerUp handles a primary button release.
func (c *Controller) PointerUp(cfg Config, screen geometry.Point2D) Result {
	if !c.accepting() {
		return 0
	}
	if c.dragging != 0 {
		c.dragging = 0
		return 0
	}
	if c.provisional == nil {
		return 0
	}

	prov := c.provisional
	prov.Segment.P2 = c.toImage(cfg, screen)
	c.provisional = nil
	c.dashOffset = 0

	if prov.Tool == ToolLine {
		c.appendElement(annotation.NewLine(prov.Segment, cfg.Thickness, cfg.Color))
		return Redraw
	}
	if _, ok := c.appendElement(annotation.NewRatioLine(prov.Segment, cfg.Thickness, cfg.Color)); !ok {
		return Redraw
	}
	return Redraw | c.computeRatio()
}

// PointerLeave clears the hover highlight.
func (c *Controller) PointerLeave() Result {
	return c.setHovered(0)
}

// computeRatio produces a result once the working set holds a pair.
func (c *Controller) computeRatio() Result {
	pair := c.history.Store().RatioLines()
	if len(pair) < annotation.RatioSetSize {
		return 0
	}
	first, second := pair[0], pair[1]
	base := first.Segment.Length()
	if base == 0 {
		c.logger.Info("ratio discarded: first line has zero length")
		c.history.DiscardRatio()
		return 0
	}
	c.ratio = &RatioResult{
		First:  first.ID,
		Second: second.ID,
		Value:  second.Segment.Length() / base,
	}
	c.logger.Debug("ratio computed", "value", c.ratio.Value)
	return RatioComputed
}

func (c *Controller) angleDown(cfg Config, p geometry.Point2D) Result {
	if len(c.selected) < 2 {
		id, ok := c.lineAt(p)
		if !ok || slices.Contains(c.selected, id) {
			return 0
		}
		c.selected = append(c.selected, id)
		return Redraw
	}

	store := c.history.Store()
	a, b := c.selected[0], c.selected[1]
	c.selected = nil
	c.hovered = 0

	l1, ok1 := store.Line(a)
	l2, ok2 := store.Line(b)
	if !ok1 || !ok2 {
		return Redraw
	}
	m, ok := geometry.MeasureAngle(l1.Segment, l2.Segment, p, c.arcRadius)
	if !ok {
		c.logger.Debug("angle discarded: lines do not intersect", "lines", []annotation.ID{a, b})
		return Redraw
	}
	if _, ok := c.appendElement(annotation.NewAngle(a, b, m, cfg.Color)); !ok {
		return Redraw
	}
	return Redraw | AngleAdded
}

// lineAt returns the first line in store order whose interior lies within
// the hit tolerance of p.
func (c *Controller) lineAt(p geometry.Point2D) (annotation.ID, bool) {
	for _, l := range c.history.Store().Lines() {
		if l.Segment.Hit(p, c.tolerance) {
			return l.ID, true
		}
	}
	return 0, false
}

// textAt returns the first text whose box contains p. The box spans the
// advance width horizontally and one font size above the baseline.
func (c *Controller) textAt(cfg Config, p geometry.Point2D) (annotation.ID, bool) {
	if c.measurer == nil {
		return 0, false
	}
	for _, t := range c.history.Store().Texts() {
		size, family := t.FontSize, t.FontFamily
		if size <= 0 {
			size = cfg.FontSize
		}
		if family == "" {
			family = cfg.FontFamily
		}
		w := c.measurer.Measure(t.Content, family, size)
		box := geometry.NewRect(t.Position.X, t.Position.Y-size, w, size)
		if box.Contains(p) {
			return t.ID, true
		}
	}
	return 0, false
}

func (c *Controller) setHovered(id annotation.ID) Result {
	if c.hovered == id {
		return 0
	}
	c.hovered = id
	return Redraw
}

func (c *Controller) appendElement(e annotation.Element) (annotation.ID, bool) {
	id, err := c.history.Append(e)
	if err != nil {
		c.logger.Warn("annotation rejected", "kind", e.Kind(), "error", err)
		return 0, false
	}
	return id, true
}

// PendingText returns the anchor of an open text entry.
func (c *Controller) PendingText() (geometry.Point2D, bool) {
	if c.pendingText == nil {
		return geometry.Point2D{}, false
	}
	return *c.pendingText, true
}

// ConfirmText closes the pending entry. Content that is blank after trimming
// is discarded; otherwise a Text is appended with the font from cfg.
func (c *Controller) ConfirmText(cfg Config, content string) (annotation.ID, bool) {
	if c.pendingText == nil {
		return 0, false
	}
	pos := *c.pendingText
	c.pendingText = nil
	if strings.TrimSpace(content) == "" {
		return 0, false
	}
	return c.appendElement(&annotation.Text{
		Header:     annotation.Header{Color: cfg.Color},
		Position:   pos,
		Content:    content,
		FontSize:   cfg.FontSize,
		FontFamily: cfg.FontFamily,
	})
}

// CancelText discards the pending entry.
func (c *Controller) CancelText() {
	c.pendingText = nil
}

// PendingRatio returns the result awaiting dismissal.
func (c *Controller) PendingRatio() (RatioResult, bool) {
	if c.ratio == nil {
		return RatioResult{}, false
	}
	return *c.ratio, true
}

// DismissRatio clears the pending result and empties the working set.
func (c *Controller) DismissRatio() {
	c.ratio = nil
	c.history.DiscardRatio()
}

// ToolChanged abandons in-progress gestures and the ratio working set.
func (c *Controller) ToolChanged() {
	c.provisional = nil
	c.dashOffset = 0
	c.dragging = 0
	c.pendingText = nil
	c.hovered = 0
	c.selected = nil
	c.DismissRatio()
}

// Reset drops every in-progress gesture and any pending ratio result. The
// Store is not touched.
func (c *Controller) Reset() {
	c.provisional = nil
	c.dashOffset = 0
	c.dragging = 0
	c.pendingText = nil
	c.hovered = 0
	c.selected = nil
	c.ratio = nil
}

// Sync reconciles transient state with the Store after undo or redo.
func (c *Controller) Sync() {
	store := c.history.Store()
	if c.ratio != nil && len(store.RatioLines()) < annotation.RatioSetSize {
		c.ratio = nil
	}
	c.selected = slices.DeleteFunc(c.selected, func(id annotation.ID) bool {
		_, ok := store.Line(id)
		return !ok
	})
	if _, ok := store.Line(c.hovered); !ok {
		c.hovered = 0
	}
	if c.dragging != 0 {
		if _, ok := store.Text(c.dragging); !ok {
			c.dragging = 0
		}
	}
}

// Tick advances the dash animation by one frame. It returns false when no
// line is being drawn, at which point the caller should stop scheduling frames.
func (c *Controller) Tick() bool {
	if c.provisional == nil {
		c.dashOffset = 0
		return false
	}
	c.dashOffset += dashStep
	if c.dashOffset >= dashPeriod {
		c.dashOffset -= dashPeriod
	}
	return true
}

// Animating reports whether a provisional line is on screen.
func (c *Controller) Animating() bool {
	return c.provisional != nil
}

// Overlay returns a copy of the transient drawing state.
func (c *Controller) Overlay() Overlay {
	o := Overlay{
		DashOffset: c.dashOffset,
		Hovered:    c.hovered,
		Selected:   slices.Clone(c.selected),
	}
	if c.provisional != nil {
		p := *c.provisional
		o.Provisional = &p
	}
	return o
}
