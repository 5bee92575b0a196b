package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureAnglePerpendicular(t *testing.T) {
	horizontal := Seg(0, 50, 100, 50)
	vertical := Seg(50, 0, 50, 100)

	// Rays run to (100,50) and (50,100): the acute wedge is bottom-right.
	acute, ok := MeasureAngle(horizontal, vertical, Pt(70, 70), 32)
	require.True(t, ok)
	assert.Equal(t, SideAcute, acute.Side)
	assert.InDelta(t, 90, acute.Degrees, 1e-9)
	assert.Equal(t, Pt(50, 50), acute.Vertex)
	assert.InDelta(t, math.Pi/2, acute.Arc.Sweep(), 1e-9)

	// Top-right lies along the difference bisector: the 270° sweep reduced.
	obtuse, ok := MeasureAngle(horizontal, vertical, Pt(70, 30), 32)
	require.True(t, ok)
	assert.Equal(t, SideObtuse, obtuse.Side)
	assert.InDelta(t, 90, obtuse.Degrees, 1e-9)
	assert.InDelta(t, math.Pi/2, obtuse.Arc.Sweep(), 1e-9)
	assert.InDelta(t, -math.Pi/4, normalizeSigned(obtuse.Arc.Mid()), 1e-9)
}

func TestMeasureAngleBothSides(t *testing.T) {
	l1 := Seg(-20, 0, 100, 0)
	l2 := Seg(-10, -10, 100, 100)

	acute, ok := MeasureAngle(l1, l2, Pt(100, 30), 32)
	require.True(t, ok)
	assert.Equal(t, SideAcute, acute.Side)
	assert.InDelta(t, 45, acute.Degrees, 1e-9)
	assert.InDelta(t, 45, acute.Arc.Sweep()*180/math.Pi, 1e-9)

	obtuse, ok := MeasureAngle(l1, l2, Pt(50, -50), 32)
	require.True(t, ok)
	assert.Equal(t, SideObtuse, obtuse.Side)
	assert.InDelta(t, 135, obtuse.Degrees, 1e-9)
	assert.InDelta(t, 135, obtuse.Arc.Sweep()*180/math.Pi, 1e-9)
}

func TestMeasureAngleDirectionIndependent(t *testing.T) {
	forward, ok := MeasureAngle(Seg(-20, 0, 100, 0), Seg(-10, -10, 100, 100), Pt(100, 30), 32)
	require.True(t, ok)
	reversed, ok := MeasureAngle(Seg(100, 0, -20, 0), Seg(100, 100, -10, -10), Pt(100, 30), 32)
	require.True(t, ok)
	assert.InDelta(t, forward.Degrees, reversed.Degrees, 1e-9)
	assert.Equal(t, forward.Side, reversed.Side)
}

func TestMeasureAngleTieFavoursAcute(t *testing.T) {
	// Picking the vertex itself gives no direction at all.
	m, ok := MeasureAngle(Seg(0, 50, 100, 50), Seg(50, 0, 50, 100), Pt(50, 50), 32)
	require.True(t, ok)
	assert.Equal(t, SideAcute, m.Side)
}

func TestMeasureAngleParallel(t *testing.T) {
	_, ok := MeasureAngle(Seg(0, 0, 100, 0), Seg(0, 10, 100, 10), Pt(50, 5), 32)
	assert.False(t, ok)
}

func TestMeasureAngleRange(t *testing.T) {
	l1 := Seg(0, 0, 200, 0)
	for deg := 5.0; deg < 180; deg += 17 {
		rad := deg * math.Pi / 180
		l2 := Seg(0, 0, 200*math.Cos(rad), 200*math.Sin(rad))
		for _, pick := range []Point2D{Pt(150, 10), Pt(-50, 80), Pt(30, -90), Pt(-10, -10)} {
			m, ok := MeasureAngle(l1, l2, pick, 32)
			require.True(t, ok)
			assert.Greater(t, m.Degrees, 0.0)
			assert.LessOrEqual(t, m.Degrees, 180.0)
			assert.InDelta(t, m.Degrees, m.Arc.Sweep()*180/math.Pi, 1e-9)
		}
	}
}

func normalizeSigned(a float64) float64 {
	a = normalizeRadians(a)
	if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
