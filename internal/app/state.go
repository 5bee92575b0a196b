// Package app provides the annotation session: the loaded image, the edit
// history, the toolbar state and the events the UI listens to.
package app

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"image/color"
	"log/slog"
	"math"
	"sync"

	"dentalceph/internal/annotation"
	"dentalceph/internal/config"
	"dentalceph/internal/export"
	"dentalceph/internal/image"
	"dentalceph/internal/interaction"
	"dentalceph/internal/render"
	"dentalceph/pkg/colorutil"
	"dentalceph/pkg/geometry"
)

// State holds the session: the current image, annotations and toolbar.
// Methods may be called from any goroutine; listeners run on the caller's
// goroutine after the state lock has been released.
type State struct {
	mu sync.RWMutex

	layer    *image.Layer
	history  *annotation.History
	ctrl     *interaction.Controller
	cfg      interaction.Config
	fonts    *render.Fonts
	renderer *render.Renderer
	exporter *export.Exporter
	logger   *slog.Logger

	// Set by the history's change listener; drained into an
	// EventAnnotationsChanged after each operation.
	dirty bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	// EventImageLoaded carries the new *image.Layer.
	EventImageLoaded EventType = iota
	// EventAnnotationsChanged carries nil.
	EventAnnotationsChanged
	// EventConfigChanged carries the new interaction.Config.
	EventConfigChanged
	// EventRedraw carries nil; hover, selection or the provisional line changed.
	EventRedraw
	// EventTextRequested carries the image-space anchor as geometry.Point2D.
	EventTextRequested
	// EventRatioComputed carries an interaction.RatioResult.
	EventRatioComputed
	// EventAngleMeasured carries the new annotation.Angle.
	EventAngleMeasured
	// EventExported carries the destination file name.
	EventExported
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

type event struct {
	kind EventType
	data interface{}
}

// NewState creates a session from settings. The caller owns the returned
// state and must Close it.
func NewState(settings config.Settings, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tool, err := interaction.ParseTool(settings.Tool.Default)
	if err != nil {
		return nil, err
	}
	c, err := colorutil.ParseHex(settings.Tool.Color)
	if err != nil {
		return nil, fmt.Errorf("tool.color: %w", err)
	}

	fonts, err := render.NewFonts()
	if err != nil {
		return nil, err
	}
	history, err := annotation.NewHistory(logger)
	if err != nil {
		fonts.Close()
		return nil, err
	}
	renderer := render.NewRenderer(fonts)
	exporter, err := export.NewExporter(renderer,
		export.WithBaseName(settings.Export.BaseName),
		export.WithJPEGQuality(settings.Export.JPEGQuality),
		export.WithLogger(logger),
	)
	if err != nil {
		fonts.Close()
		return nil, err
	}

	s := &State{
		history:  history,
		fonts:    fonts,
		renderer: renderer,
		exporter: exporter,
		logger:   logger,
		cfg: interaction.Config{
			Tool:       tool,
			Color:      c,
			Thickness:  settings.Tool.Thickness,
			FontSize:   settings.Tool.FontSize,
			FontFamily: settings.Tool.FontFamily,
			Zoom:       settings.View.Zoom,
			Rotation:   settings.View.Rotation,
		},
		listeners: make(map[EventType][]EventListener),
	}
	s.ctrl = interaction.NewController(history, fonts,
		interaction.WithHitTolerance(settings.Hit.Tolerance),
		interaction.WithArcRadius(settings.Angle.ArcRadius),
		interaction.WithLogger(logger),
	)
	history.OnStoreChanged(func() { s.dirty = true })
	return s, nil
}

// Close releases the fonts.
func (s *State) Close() error {
	return s.fonts.Close()
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// update runs fn under the write lock, then emits the events it returned
// followed by EventAnnotationsChanged if the store was touched.
func (s *State) update(fn func() []event) {
	s.mu.Lock()
	events := fn()
	if s.dirty {
		s.dirty = false
		events = append(events, event{kind: EventAnnotationsChanged})
	}
	s.mu.Unlock()

	for _, e := range events {
		s.Emit(e.kind, e.data)
	}
}

// LoadImage decodes path and makes it the session image.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}
	s.SetLayer(layer)
	return nil
}

// SetLayer replaces the session image. A layer still decoding counts as no
// image; call SetLayer again once it is ready. Volatile annotations and the ratio
// working set are discarded, zoom returns to 100% and any gesture in
// progress is abandoned. Frozen annotations are kept.
func (s *State) SetLayer(layer *image.Layer) {
	s.update(func() []event {
		s.ctrl.DismissRatio()
		purged := s.history.PurgeVolatile()
		s.layer = layer
		s.cfg.Zoom = 100
		if layer != nil && layer.Width() > 0 {
			s.ctrl.SetImage(layer.Width(), layer.Height())
			s.logger.Info("Image loaded", "name", layer.Name(), "width", layer.Width(), "height", layer.Height(), "purged", purged)
		} else {
			s.ctrl.ClearImage()
		}
		return []event{
			{kind: EventImageLoaded, data: layer},
			{kind: EventConfigChanged, data: s.cfg},
		}
	})
}

// Layer returns the session image, or nil.
func (s *State) Layer() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layer
}

// Config returns the toolbar state.
func (s *State) Config() interaction.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Snapshot returns a copy of the annotations.
func (s *State) Snapshot() annotation.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Store().Snapshot()
}

// CanUndo reports whether Undo would do anything.
func (s *State) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (s *State) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// setConfig applies fn to the toolbar state and emits EventConfigChanged.
func (s *State) setConfig(fn func(*interaction.Config)) {
	s.update(func() []event {
		fn(&s.cfg)
		return []event{{kind: EventConfigChanged, data: s.cfg}}
	})
}

// SetTool switches the active tool, abandoning in-progress gestures and the
// ratio working set.
func (s *State) SetTool(t interaction.Tool) {
	s.setConfig(func(c *interaction.Config) {
		if c.Tool != t {
			s.ctrl.ToolChanged()
		}
		c.Tool = t
	})
}

// SetColor sets the color of new annotations.
func (s *State) SetColor(c color.NRGBA) {
	s.setConfig(func(cfg *interaction.Config) { cfg.Color = c })
}

// SetThickness sets the stroke width of new points and lines.
func (s *State) SetThickness(t float64) {
	if t <= 0 {
		return
	}
	s.setConfig(func(c *interaction.Config) { c.Thickness = t })
}

// SetFontSize sets the size of new texts.
func (s *State) SetFontSize(size float64) {
	if size <= 0 {
		return
	}
	s.setConfig(func(c *interaction.Config) { c.FontSize = size })
}

// SetFontFamily sets the font of new texts.
func (s *State) SetFontFamily(family string) {
	s.setConfig(func(c *interaction.Config) { c.FontFamily = family })
}

// SetZoom sets the display zoom in percent.
func (s *State) SetZoom(zoom float64) {
	if zoom <= 0 {
		return
	}
	s.setConfig(func(c *interaction.Config) { c.Zoom = zoom })
}

// SetRotation sets the display rotation in degrees.
func (s *State) SetRotation(deg float64) {
	s.setConfig(func(c *interaction.Config) { c.Rotation = deg })
}

// Rotate turns the display a quarter turn clockwise.
func (s *State) Rotate() {
	s.setConfig(func(c *interaction.Config) { c.Rotation = math.Mod(c.Rotation+90, 360) })
}

// pointer runs a controller call and translates its result into events.
func (s *State) pointer(fn func(interaction.Config) interaction.Result) {
	s.update(func() []event {
		before := len(s.history.Store().Angles())
		res := fn(s.cfg)

		var events []event
		if res.Has(interaction.Redraw) {
			events = append(events, event{kind: EventRedraw})
		}
		if res.Has(interaction.TextRequested) {
			if anchor, ok := s.ctrl.PendingText(); ok {
				events = append(events, event{kind: EventTextRequested, data: anchor})
			}
		}
		if res.Has(interaction.RatioComputed) {
			if r, ok := s.ctrl.PendingRatio(); ok {
				s.logger.Info("Ratio computed", "value", r.Value)
				events = append(events, event{kind: EventRatioComputed, data: r})
			}
		}
		if res.Has(interaction.AngleAdded) {
			if angles := s.history.Store().Angles(); len(angles) > before {
				a := angles[len(angles)-1]
				s.logger.Info("Angle measured", "degrees", a.Degrees, "side", a.Side)
				events = append(events, event{kind: EventAngleMeasured, data: a})
			}
		}
		return events
	})
}

// PointerDown forwards a press at a screen-space point.
func (s *State) PointerDown(screen geometry.Point2D) {
	s.pointer(func(cfg interaction.Config) interaction.Result { return s.ctrl.PointerDown(cfg, screen) })
}

// PointerMove forwards a motion at a screen-space point.
func (s *State) PointerMove(screen geometry.Point2D) {
	s.pointer(func(cfg interaction.Config) interaction.Result { return s.ctrl.PointerMove(cfg, screen) })
}

// PointerUp forwards a release at a screen-space point.
func (s *State) PointerUp(screen geometry.Point2D) {
	s.pointer(func(cfg interaction.Config) interaction.Result { return s.ctrl.PointerUp(cfg, screen) })
}

// PointerLeave clears hover state.
func (s *State) PointerLeave() {
	s.pointer(func(interaction.Config) interaction.Result { return s.ctrl.PointerLeave() })
}

// ConfirmText closes the pending text entry with content.
func (s *State) ConfirmText(content string) {
	s.update(func() []event {
		s.ctrl.ConfirmText(s.cfg, content)
		return nil
	})
}

// CancelText discards the pending text entry.
func (s *State) CancelText() {
	s.update(func() []event {
		s.ctrl.CancelText()
		return nil
	})
}

// PendingRatio returns the ratio result awaiting dismissal.
func (s *State) PendingRatio() (interaction.RatioResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.PendingRatio()
}

// DismissRatio closes the ratio result and empties the working set.
func (s *State) DismissRatio() {
	s.update(func() []event {
		s.ctrl.DismissRatio()
		return []event{{kind: EventRedraw}}
	})
}

// Undo reverts the most recent edit.
func (s *State) Undo() {
	s.update(func() []event {
		if s.history.Undo() {
			s.ctrl.Sync()
		}
		return nil
	})
}

// Redo reapplies the most recently undone edit.
func (s *State) Redo() {
	s.update(func() []event {
		if s.history.Redo() {
			s.ctrl.Sync()
		}
		return nil
	})
}

// Freeze makes every current annotation permanent.
func (s *State) Freeze() {
	s.update(func() []event {
		s.history.Freeze()
		return nil
	})
}

// Clear removes every volatile annotation and the undo history.
func (s *State) Clear() {
	s.update(func() []event {
		s.ctrl.Reset()
		s.history.DiscardRatio()
		n := s.history.PurgeVolatile()
		s.logger.Info("Annotations cleared", "removed", n)
		return []event{{kind: EventRedraw}}
	})
}

// Tick advances the provisional line animation. It reports whether another
// frame is wanted.
func (s *State) Tick() bool {
	var more bool
	s.update(func() []event {
		more = s.ctrl.Tick()
		if !more {
			return nil
		}
		return []event{{kind: EventRedraw}}
	})
	return more
}

// Animating reports whether a line is being drawn.
func (s *State) Animating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.Animating()
}

// Preview renders the display surface for the current zoom and rotation,
// returning it with the screen position of its top-left pixel.
func (s *State) Preview() (*goimage.RGBA, geometry.Point2D, error) {
	s.mu.RLock()
	layer := s.layer
	scene := render.Scene{
		Snapshot: s.history.Store().Snapshot(),
		Overlay:  s.ctrl.Overlay(),
		Config:   s.cfg,
	}
	s.mu.RUnlock()

	if layer == nil || layer.Width() == 0 {
		return nil, geometry.Point2D{}, render.ErrNoImage
	}
	vp := scene.Config.Viewport(layer.Width(), layer.Height())
	return s.renderer.Preview(layer.Image, scene, vp)
}

// ExportAs writes the annotated image to dst. Nothing is returned: a missing
// image, an empty format or a cancelled destination end the export quietly,
// other failures are logged. Annotation state is never modified.
func (s *State) ExportAs(ctx context.Context, format string, dst export.Destination) {
	s.mu.RLock()
	layer := s.layer
	snap := s.history.Store().Snapshot()
	s.mu.RUnlock()

	name, err := s.exporter.Export(ctx, layer, snap, format, dst)
	switch {
	case err == nil:
		s.Emit(EventExported, name)
	case errors.Is(err, export.ErrCancelled),
		errors.Is(err, export.ErrNoImage),
		errors.Is(err, export.ErrNoFormat),
		errors.Is(err, context.Canceled):
		s.logger.Debug("Export skipped", "format", format, "reason", err)
	default:
		s.logger.Warn("Export failed", "format", format, "error", err)
	}
}
