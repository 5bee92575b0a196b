package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointRadiusFollowsThickness(t *testing.T) {
	p := point(0, 0)
	assert.InDelta(t, 4.8, p.Radius(), 1e-9)

	p.Thickness = 10
	assert.InDelta(t, 12, p.Radius(), 1e-9)
	assert.Equal(t, KindPoint, p.Kind())
}
