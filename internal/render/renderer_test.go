package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentalceph/internal/annotation"
	"dentalceph/internal/interaction"
	"dentalceph/internal/viewport"
	"dentalceph/pkg/geometry"
)

var red = color.NRGBA{R: 0xff, A: 0xff}

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	fonts, err := NewFonts()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fonts.Close() })
	return NewRenderer(fonts)
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 250 && g>>8 > 250 && b>>8 > 250
}

func testSnapshot() annotation.Snapshot {
	return annotation.Snapshot{
		Lines: []annotation.Line{{
			Header:    annotation.Header{ID: 1, Color: red, Erasable: true},
			Segment:   geometry.Seg(10, 50, 190, 50),
			Thickness: 7,
		}},
		RatioLines: []annotation.RatioLine{{Line: annotation.Line{
			Header:    annotation.Header{ID: 2, Color: red, Erasable: true},
			Segment:   geometry.Seg(10, 120, 190, 120),
			Thickness: 7,
		}}},
		Points: []annotation.Point{{
			Header:    annotation.Header{ID: 3, Color: red, Erasable: true},
			Position:  geometry.Pt(100, 90),
			Thickness: 7,
		}},
	}
}

func TestComposeNaturalSize(t *testing.T) {
	r := newRenderer(t)
	dc, err := r.Compose(whiteImage(200, 150), testSnapshot())
	require.NoError(t, err)
	defer dc.Close()

	img := dc.Image()
	assert.Equal(t, image.Rect(0, 0, 200, 150), img.Bounds())
	assert.True(t, isRed(img.At(100, 50)), "line drawn")
	assert.True(t, isRed(img.At(100, 90)), "point drawn")
	assert.True(t, isWhite(img.At(100, 120)), "ratio lines are not exported")
	assert.True(t, isWhite(img.At(5, 5)))
}

func TestComposeNoImage(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Compose(nil, testSnapshot())
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestAnnotateDrawsRatioLines(t *testing.T) {
	r := newRenderer(t)
	img, err := r.Annotate(whiteImage(200, 150), Scene{Snapshot: testSnapshot(), Config: interaction.DefaultConfig()})
	require.NoError(t, err)
	assert.True(t, isRed(img.At(100, 120)))
	assert.True(t, isRed(img.At(100, 50)))
}

func TestAnnotateSkipsDanglingAngle(t *testing.T) {
	r := newRenderer(t)
	snap := testSnapshot()
	snap.Angles = []annotation.Angle{{
		Header:  annotation.Header{ID: 9, Color: red},
		Lines:   [2]annotation.ID{1, 7},
		Vertex:  geometry.Pt(20, 20),
		Degrees: 45,
		Arc:     geometry.Arc{Center: geometry.Pt(20, 20), Radius: 12, Start: 0, End: 1.5},
	}}
	img, err := r.Annotate(whiteImage(200, 150), Scene{Snapshot: snap, Config: interaction.DefaultConfig()})
	require.NoError(t, err)
	assert.True(t, isWhite(img.At(32, 20)), "arc of an angle whose line is gone is not drawn")
}

func TestPreviewSize(t *testing.T) {
	r := newRenderer(t)
	scene := Scene{Snapshot: testSnapshot(), Config: interaction.DefaultConfig()}

	img, origin, err := r.Preview(whiteImage(200, 150), scene, viewport.Viewport{Zoom: 50, Width: 200, Height: 150})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 75), img.Bounds())
	assert.Equal(t, geometry.Pt(0, 0), origin)
	assert.True(t, isRed(img.At(50, 25)))

	img, origin, err = r.Preview(whiteImage(200, 150), scene, viewport.Viewport{Zoom: 100, Rotation: 90, Width: 200, Height: 150})
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
	assert.Equal(t, geometry.Pt(25, -25), origin)
}

func TestFontsMeasure(t *testing.T) {
	fonts, err := NewFonts()
	require.NoError(t, err)
	defer fonts.Close()

	small := fonts.Measure("Sella", "Arial", 14)
	large := fonts.Measure("Sella", "Arial", 32)
	assert.Greater(t, small, 0.0)
	assert.Greater(t, large, small)

	assert.InDelta(t, fonts.Measure("iii", "Courier New", 18), fonts.Measure("WWW", "Courier New", 18), 1e-9)
	assert.Same(t, fonts.Face("Arial", 18), fonts.Face("Arial", 18))
}
