package geo

import (
	"testing"

	"github.com/shirolong/channelcore/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRotatePointRoundTrip(t *testing.T) {
	p := model.Point{X: 120, Y: -45}
	origin := model.Point{X: 10, Y: 10}

	rotated := RotatePoint(p, origin, 0.77)
	back := RotatePoint(rotated, origin, -0.77)

	assert.InDelta(t, p.X, back.X, 1e-3)
	assert.InDelta(t, p.Y, back.Y, 1e-3)
}

func TestGetLinearPointRoundTrip(t *testing.T) {
	forward := GetLinearPoint(0, 0, 100, 0, 40, false)
	backward := GetLinearPoint(forward.X, forward.Y, 100, 0, 40, true)

	assert.InDelta(t, 0, backward.X, 1e-3)
	assert.InDelta(t, 0, backward.Y, 1e-3)
}

func TestGetLinearPointAxisAligned(t *testing.T) {
	p := GetLinearPoint(0, 0, 0, 100, 25, false)
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 25, p.Y, 1e-4)
}

func TestPointInPolygonSquare(t *testing.T) {
	square := NewShape([]model.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}, true)

	assert.True(t, PointInPolygon(square, model.Point{X: 5, Y: 5}))
	assert.False(t, PointInPolygon(square, model.Point{X: 15, Y: 5}))
}

func TestLineSegmentsIntersect(t *testing.T) {
	a, b := model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 10}
	c, d := model.Point{X: 0, Y: 10}, model.Point{X: 10, Y: 0}
	assert.True(t, LineSegmentsIntersect(a, b, c, d))

	e, f := model.Point{X: 0, Y: 0}, model.Point{X: 1, Y: 0}
	g, h := model.Point{X: 5, Y: 5}, model.Point{X: 6, Y: 5}
	assert.False(t, LineSegmentsIntersect(e, f, g, h))
}

func TestGeometryLineCollidesSkipsDisabled(t *testing.T) {
	wall := Element{
		ID:   1,
		Type: ElementBarrier,
		Shapes: []Shape{
			NewShape([]model.Point{{X: 50, Y: -100}, {X: 50, Y: 100}}, false),
		},
	}
	g := NewGeometry([]Element{wall})

	from := model.Point{X: 0, Y: 0}
	to := model.Point{X: 100, Y: 0}

	assert.True(t, g.LineCollides(from, to, nil))
	assert.False(t, g.LineCollides(from, to, DisabledSet{1: {}}))
}

func TestRandomSpotPointWithinRect(t *testing.T) {
	s := Spot{CenterX: 0, CenterY: 0, SpanX: 50, SpanY: 20, Rotation: 0}
	for i := 0; i < 200; i++ {
		p := GetRandomSpotPoint(s, nil, nil)
		assert.True(t, s.Contains(p))
	}
}
