// Package viewport maps between the on-screen display frame and image space.
package viewport

import (
	"math"

	"dentalceph/pkg/geometry"
)

// Viewport describes how an image of natural size Width x Height is shown:
// scaled by Zoom percent after rotating by Rotation degrees about its center.
type Viewport struct {
	Zoom     float64 // percent, 100 = natural size
	Rotation float64 // degrees, positive turns clockwise on screen
	Width    int
	Height   int
}

// New returns a viewport at 100% zoom with no rotation.
func New(width, height int) Viewport {
	return Viewport{Zoom: 100, Width: width, Height: height}
}

// Valid reports whether the viewport can map coordinates.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0 && v.Zoom > 0 &&
		!math.IsInf(v.Zoom, 0) && !math.IsNaN(v.Rotation)
}

// Center returns the rotation pivot in image space.
func (v Viewport) Center() geometry.Point2D {
	return geometry.Pt(float64(v.Width)/2, float64(v.Height)/2)
}

// Forward returns the image-to-screen transform: rotate about the image
// center, then scale about the top-left origin.
func (v Viewport) Forward() geometry.AffineTransform {
	s := v.Zoom / 100
	return geometry.Scale(s, s).Compose(geometry.RotationAbout(v.Rotation*math.Pi/180, v.Center()))
}

// Inverse returns the screen-to-image transform. It undoes the scale, then
// rotates by -Rotation about the image center.
func (v Viewport) Inverse() geometry.AffineTransform {
	s := v.Zoom / 100
	if s == 0 {
		return geometry.Identity()
	}
	return geometry.RotationAbout(-v.Rotation*math.Pi/180, v.Center()).Compose(geometry.Scale(1/s, 1/s))
}

// ScreenToImage maps a pointer position in the display frame to image space.
func (v Viewport) ScreenToImage(p geometry.Point2D) geometry.Point2D {
	return v.Inverse().Apply(p)
}

// ImageToScreen maps an image-space point into the display frame.
func (v Viewport) ImageToScreen(p geometry.Point2D) geometry.Point2D {
	return v.Forward().Apply(p)
}

// Bounds returns the axis-aligned extent of the displayed image in the
// display frame. For rotations that are not multiples of 180 degrees about a
// non-square image the origin is negative.
func (v Viewport) Bounds() geometry.Rect {
	w, h := float64(v.Width), float64(v.Height)
	fwd := v.Forward()
	return geometry.BoundingBox([]geometry.Point2D{
		fwd.Apply(geometry.Pt(0, 0)),
		fwd.Apply(geometry.Pt(w, 0)),
		fwd.Apply(geometry.Pt(w, h)),
		fwd.Apply(geometry.Pt(0, h)),
	})
}
