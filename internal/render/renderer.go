// Package render draws annotations with gg. The live preview and the export
// surface go through the same per-element drawing functions.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"dentalceph/internal/annotation"
	"dentalceph/internal/interaction"
	"dentalceph/internal/viewport"
	"dentalceph/pkg/colorutil"
	"dentalceph/pkg/geometry"
)

const (
	angleStrokeWidth = 2.5
	labelOffset      = 18.0
	hoverBoost       = 3.0
	glowSpread       = 8.0
	glowAlpha        = 0x66
	snapEpsilon      = 1e-6
)

var provisionalDash = []float64{12, 10}

// ErrNoImage is returned when there is no base image to draw on.
var ErrNoImage = errors.New("no base image")

// Scene is everything the preview shows.
type Scene struct {
	Snapshot annotation.Snapshot
	Overlay  interaction.Overlay
	Config   interaction.Config
}

// Renderer draws scenes.
type Renderer struct {
	fonts *Fonts
}

// NewRenderer creates a renderer that draws text with fonts.
func NewRenderer(fonts *Fonts) *Renderer {
	return &Renderer{fonts: fonts}
}

// Annotate draws base at natural size with the full scene on top: lines,
// ratio lines, the provisional line, points, texts, then angle arcs and
// labels.
func (r *Renderer) Annotate(base image.Image, scene Scene) (*image.RGBA, error) {
	if base == nil {
		return nil, ErrNoImage
	}
	dc := gg.NewContextForImage(base)
	defer dc.Close()

	snap := scene.Snapshot
	highlight := scene.Config.Tool == interaction.ToolAngle

	for _, l := range snap.Lines {
		width := l.Thickness
		if highlight {
			hovered := l.ID == scene.Overlay.Hovered
			if hovered || slices.Contains(scene.Overlay.Selected, l.ID) {
				if hovered {
					width += hoverBoost
				}
				if err := drawGlow(dc, l.Segment, width); err != nil {
					return nil, err
				}
			}
		}
		if err := drawSegment(dc, l.Segment, width, l.Color); err != nil {
			return nil, err
		}
	}
	for _, l := range snap.RatioLines {
		if err := drawSegment(dc, l.Segment, l.Thickness, l.Color); err != nil {
			return nil, err
		}
	}
	if p := scene.Overlay.Provisional; p != nil {
		if err := drawProvisional(dc, p.Segment, scene.Config, scene.Overlay.DashOffset); err != nil {
			return nil, err
		}
	}
	if err := r.drawPointsAndTexts(dc, snap); err != nil {
		return nil, err
	}
	for _, a := range snap.Angles {
		if !anglePresent(snap, a) {
			continue
		}
		if err := r.drawAngle(dc, a); err != nil {
			return nil, err
		}
	}
	return dc.Image().(*image.RGBA), nil
}

// Preview annotates base and warps the result onto the display surface for
// vp. It also returns the display-frame position of the surface's top-left
// pixel; add it to a surface position to get a viewport screen position.
func (r *Renderer) Preview(base image.Image, scene Scene, vp viewport.Viewport) (*image.RGBA, geometry.Point2D, error) {
	if !vp.Valid() {
		return nil, geometry.Point2D{}, fmt.Errorf("invalid viewport %+v", vp)
	}
	src, err := r.Annotate(base, scene)
	if err != nil {
		return nil, geometry.Point2D{}, err
	}

	bounds := vp.Bounds()
	// Snap away rounding noise from the rotation so quarter turns land on
	// whole pixels.
	origin := geometry.Pt(math.Floor(bounds.X+snapEpsilon), math.Floor(bounds.Y+snapEpsilon))
	corner := bounds.Max()
	w := max(int(math.Ceil(corner.X-origin.X-snapEpsilon)), 1)
	h := max(int(math.Ceil(corner.Y-origin.Y-snapEpsilon)), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	m := geometry.Translation(-origin.X, -origin.Y).Compose(vp.Forward())
	draw.BiLinear.Transform(dst, f64.Aff3(m.Matrix()), src, src.Bounds(), draw.Over, nil)
	return dst, origin, nil
}

// Compose draws the export image: base at 1:1, then lines, points and texts.
// Ratio lines, the overlay and angles are not exported. The caller must
// Close the returned context.
func (r *Renderer) Compose(base image.Image, snap annotation.Snapshot) (*gg.Context, error) {
	if base == nil {
		return nil, ErrNoImage
	}
	dc := gg.NewContextForImage(base)
	for _, l := range snap.Lines {
		if err := drawSegment(dc, l.Segment, l.Thickness, l.Color); err != nil {
			dc.Close()
			return nil, err
		}
	}
	if err := r.drawPointsAndTexts(dc, snap); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

func (r *Renderer) drawPointsAndTexts(dc *gg.Context, snap annotation.Snapshot) error {
	for _, p := range snap.Points {
		dc.SetColor(p.Color)
		dc.DrawCircle(p.Position.X, p.Position.Y, p.Radius())
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("point %d: %w", p.ID, err)
		}
	}
	for _, t := range snap.Texts {
		r.drawText(dc, t)
	}
	return nil
}

func drawSegment(dc *gg.Context, s geometry.Segment, width float64, c color.Color) error {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawLine(s.P1.X, s.P1.Y, s.P2.X, s.P2.Y)
	return dc.Stroke()
}

// drawGlow strokes a translucent orange halo under a highlighted line.
func drawGlow(dc *gg.Context, s geometry.Segment, width float64) error {
	return drawSegment(dc, s, width+glowSpread, colorutil.WithAlpha(colorutil.Orange, glowAlpha))
}

func drawProvisional(dc *gg.Context, s geometry.Segment, cfg interaction.Config, offset float64) error {
	dc.SetDash(provisionalDash...)
	dc.SetDashOffset(-offset)
	err := drawSegment(dc, s, cfg.Thickness, cfg.Color)
	dc.ClearDash()
	return err
}

// drawText draws t with the bottom of its line box on the anchor.
func (r *Renderer) drawText(dc *gg.Context, t annotation.Text) {
	size, family := t.FontSize, t.FontFamily
	if size <= 0 {
		size = labelFontSize
	}
	if family == "" {
		family = defaultFamily
	}
	var c color.Color = t.Color
	if t.Color.A == 0 {
		c = colorutil.TextGray
	}
	face := r.fonts.Face(family, size)
	dc.SetFont(face)
	dc.SetColor(c)
	dc.DrawString(t.Content, t.Position.X, t.Position.Y-face.Metrics().Descent)
}

func (r *Renderer) drawAngle(dc *gg.Context, a annotation.Angle) error {
	arc := a.Arc
	dc.SetColor(a.Color)
	dc.SetLineWidth(angleStrokeWidth)
	dc.DrawArc(arc.Center.X, arc.Center.Y, arc.Radius, arc.Start, arc.Start+arc.Sweep())
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("angle %d: %w", a.ID, err)
	}

	mid := arc.Mid()
	dc.SetFont(r.fonts.Label())
	dc.DrawString(fmt.Sprintf("%.1f°", a.Degrees),
		arc.Center.X+(arc.Radius+labelOffset)*math.Cos(mid),
		arc.Center.Y+(arc.Radius+labelOffset)*math.Sin(mid))
	return nil
}

// anglePresent reports whether both lines an angle was measured on still exist.
func anglePresent(snap annotation.Snapshot, a annotation.Angle) bool {
	for _, id := range a.Lines {
		if _, ok := snap.Line(id); !ok {
			return false
		}
	}
	return true
}
