// Package canvas provides the annotation surface: a zoomable, rotatable view
// of the radiograph that forwards pointer input to the session.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"dentalceph/internal/app"
	"dentalceph/pkg/geometry"
)

const (
	minZoom  = 10.0   // percent
	maxZoom  = 1000.0 // percent
	zoomStep = 1.25
)

var emptySize = fyne.NewSize(400, 300)

// AnnotationCanvas displays the session preview and turns mouse input into
// pointer calls on the session.
type AnnotationCanvas struct {
	widget.BaseWidget

	state  *app.State
	logger *slog.Logger

	// Display state
	raster  *fynecanvas.Raster
	scroll  *zoomScroll
	content *surface
	imgSize fyne.Size

	mu     sync.Mutex
	frame  *image.RGBA
	origin geometry.Point2D

	animMu sync.Mutex
	anim   *fyne.Animation
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *AnnotationCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *AnnotationCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Use wheel for zoom, not scroll
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// surface wraps the raster to receive mouse events. Positions it sees are
// relative to the top-left of the display surface.
type surface struct {
	widget.BaseWidget
	canvas *AnnotationCanvas
	raster *fynecanvas.Raster

	pressed bool
	last    fyne.Position
}

var (
	_ desktop.Mouseable = (*surface)(nil)
	_ desktop.Hoverable = (*surface)(nil)
	_ fyne.Draggable    = (*surface)(nil)
)

func newSurface(ac *AnnotationCanvas, raster *fynecanvas.Raster) *surface {
	s := &surface{canvas: ac, raster: raster}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return &surfaceRenderer{surface: s}
}

func (s *surface) MinSize() fyne.Size {
	return s.raster.MinSize()
}

// inside rejects events fyne delivers outside the widget bounds.
func (s *surface) inside(pos fyne.Position) bool {
	size := s.Size()
	return pos.X >= 0 && pos.Y >= 0 && pos.X <= size.Width && pos.Y <= size.Height
}

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !s.inside(ev.Position) {
		return
	}
	s.pressed = true
	s.last = ev.Position
	s.canvas.state.PointerDown(s.canvas.toScreen(ev.Position))
	if s.canvas.state.Animating() {
		s.canvas.startAnimation()
	}
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !s.pressed {
		return
	}
	s.release(ev.Position)
}

func (s *surface) release(pos fyne.Position) {
	s.pressed = false
	s.canvas.state.PointerUp(s.canvas.toScreen(pos))
	if !s.canvas.state.Animating() {
		s.canvas.stopAnimation()
	}
}

func (s *surface) MouseIn(ev *desktop.MouseEvent) {
	s.MouseMoved(ev)
}

func (s *surface) MouseMoved(ev *desktop.MouseEvent) {
	s.last = ev.Position
	s.canvas.state.PointerMove(s.canvas.toScreen(ev.Position))
}

func (s *surface) MouseOut() {
	s.canvas.state.PointerLeave()
}

// Dragged delivers motion while the button is held; fyne does not send
// MouseMoved during a drag.
func (s *surface) Dragged(ev *fyne.DragEvent) {
	s.last = ev.Position
	s.canvas.state.PointerMove(s.canvas.toScreen(ev.Position))
}

// DragEnd finishes a drag whose release was not delivered as MouseUp.
func (s *surface) DragEnd() {
	if s.pressed {
		s.release(s.last)
	}
}

type surfaceRenderer struct {
	surface *surface
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.surface.raster.Resize(size)
}

func (r *surfaceRenderer) MinSize() fyne.Size {
	return r.surface.raster.MinSize()
}

func (r *surfaceRenderer) Refresh() {
	r.surface.raster.Refresh()
}

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.surface.raster}
}

func (r *surfaceRenderer) Destroy() {}

// NewAnnotationCanvas creates a canvas showing state and subscribes it to
// the session events that change the picture.
func NewAnnotationCanvas(state *app.State, logger *slog.Logger) *AnnotationCanvas {
	if logger == nil {
		logger = slog.Default()
	}
	ac := &AnnotationCanvas{
		state:   state,
		logger:  logger,
		imgSize: emptySize,
	}

	ac.raster = fynecanvas.NewRaster(ac.draw)
	ac.raster.ScaleMode = fynecanvas.ImageScalePixels
	ac.raster.SetMinSize(ac.imgSize)

	ac.content = newSurface(ac, ac.raster)
	ac.scroll = newZoomScroll(ac.content, ac)

	redraw := func(interface{}) { ac.Redraw() }
	for _, e := range []app.EventType{
		app.EventImageLoaded,
		app.EventAnnotationsChanged,
		app.EventConfigChanged,
		app.EventRedraw,
	} {
		state.On(e, redraw)
	}

	ac.ExtendBaseWidget(ac)
	return ac
}

// Container returns the canvas container for embedding in layouts.
func (ac *AnnotationCanvas) Container() fyne.CanvasObject {
	return ac.scroll
}

// ZoomIn increases the zoom level.
func (ac *AnnotationCanvas) ZoomIn() {
	ac.setZoom(ac.state.Config().Zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ac *AnnotationCanvas) ZoomOut() {
	ac.setZoom(ac.state.Config().Zoom / zoomStep)
}

func (ac *AnnotationCanvas) setZoom(zoom float64) {
	ac.state.SetZoom(min(max(zoom, minZoom), maxZoom))
}

// Redraw renders a new preview frame and resizes the surface to it.
func (ac *AnnotationCanvas) Redraw() {
	frame, origin, err := ac.state.Preview()
	if err != nil {
		frame, origin = nil, geometry.Point2D{}
	}

	ac.mu.Lock()
	ac.frame, ac.origin = frame, origin
	ac.mu.Unlock()

	size := emptySize
	if frame != nil {
		b := frame.Bounds()
		size = fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
	}
	if size != ac.imgSize {
		ac.imgSize = size
		ac.raster.SetMinSize(size)
		ac.raster.Resize(size)
		ac.content.Resize(size)
		ac.content.Refresh()
		ac.scroll.Refresh()
	}
	ac.raster.Refresh()
}

// toScreen converts a position on the surface into the display frame the
// viewport maps from. The surface's top-left pixel sits at origin.
func (ac *AnnotationCanvas) toScreen(pos fyne.Position) geometry.Point2D {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return geometry.Pt(float64(pos.X)+ac.origin.X, float64(pos.Y)+ac.origin.Y)
}

// draw is the raster drawing function.
func (ac *AnnotationCanvas) draw(w, h int) image.Image {
	ac.mu.Lock()
	frame := ac.frame
	ac.mu.Unlock()
	if frame != nil {
		return frame
	}
	blank := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return blank
}

// startAnimation drives the provisional line's dash animation one step per
// frame until the session reports nothing left to animate.
func (ac *AnnotationCanvas) startAnimation() {
	ac.animMu.Lock()
	defer ac.animMu.Unlock()
	if ac.anim != nil {
		return
	}
	ac.anim = fyne.NewAnimation(time.Second, func(float32) {
		if !ac.state.Tick() {
			ac.stopAnimation()
		}
	})
	ac.anim.Curve = fyne.AnimationLinear
	ac.anim.RepeatCount = fyne.AnimationRepeatForever
	ac.anim.Start()
	ac.logger.Debug("Dash animation started")
}

func (ac *AnnotationCanvas) stopAnimation() {
	ac.animMu.Lock()
	defer ac.animMu.Unlock()
	if ac.anim == nil {
		return
	}
	ac.anim.Stop()
	ac.anim = nil
	ac.logger.Debug("Dash animation stopped")
}

// CreateRenderer implements fyne.Widget.
func (ac *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &annotationCanvasRenderer{canvas: ac}
}

type annotationCanvasRenderer struct {
	canvas *AnnotationCanvas
}

func (r *annotationCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
}

func (r *annotationCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *annotationCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *annotationCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

// Destroy cancels a running dash animation.
func (r *annotationCanvasRenderer) Destroy() {
	r.canvas.stopAnimation()
}
