package geo

import (
	"math"
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/model"
)

// SpotType distinguishes what a spot is used for.
type SpotType int32

const (
	SpotZoneIn SpotType = iota
	SpotSpawnArea
	SpotInteraction
)

// Spot is a named rotated rectangle.
type Spot struct {
	ID       int32
	CenterX  float32
	CenterY  float32
	SpanX    float32 // half-span
	SpanY    float32 // half-span
	Rotation float32 // radians
	Type     SpotType
}

// DynamicMap is the per-layout-variant spot table of a zone definition.
type DynamicMap struct {
	ID    int32
	Spots map[int32]Spot
}

// NewDynamicMap builds a DynamicMap from its spot table.
func NewDynamicMap(id int32, spots []Spot) *DynamicMap {
	m := &DynamicMap{ID: id, Spots: make(map[int32]Spot, len(spots))}
	for _, s := range spots {
		m.Spots[s.ID] = s
	}
	return m
}

// RotatePoint rotates p around origin by rad radians.
func RotatePoint(p, origin model.Point, rad float64) model.Point {
	sin, cos := math.Sincos(rad)
	dx := float64(p.X - origin.X)
	dy := float64(p.Y - origin.Y)
	return model.Point{
		X: origin.X + float32(dx*cos-dy*sin),
		Y: origin.Y + float32(dx*sin+dy*cos),
	}
}

// GetRandomSpotPoint samples a uniform point inside the spot's rotated
// rectangle, pulling back from any barrier collision.
// geometry/disabled may be nil when the zone has no geometry loaded.
func GetRandomSpotPoint(s Spot, geometry *Geometry, disabled DisabledSet) model.Point {
	// Sample uniform in the unrotated rectangle.
	ux := s.CenterX + (rand.Float32()*2-1)*s.SpanX
	uy := s.CenterY + (rand.Float32()*2-1)*s.SpanY

	sample := RotatePoint(model.Point{X: ux, Y: uy}, model.Point{X: s.CenterX, Y: s.CenterY}, float64(s.Rotation))

	if geometry == nil {
		return sample
	}

	center := model.Point{X: s.CenterX, Y: s.CenterY}
	collision, hit := geometry.FirstCollision(center, sample, disabled)
	if !hit {
		return sample
	}

	// Pull the sample back along the segment by 10 units beyond the
	// collision point.
	return pullBack(center, collision, 10)
}

// pullBack returns a point 'dist' units back from 'to' along the (from,to)
// direction, i.e. short of the collision point.
func pullBack(from, to model.Point, dist float32) model.Point {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return from
	}
	// Move toward `from`, i.e. shrink the distance from `to` by dist.
	frac := (length - float64(dist)) / length
	if frac < 0 {
		frac = 0
	}
	return model.Point{
		X: from.X + float32(dx*frac),
		Y: from.Y + float32(dy*frac),
	}
}

// Contains reports whether p lies within the spot's rotated rectangle.
func (s Spot) Contains(p model.Point) bool {
	// Rotate p into the rectangle's local (unrotated) frame.
	local := RotatePoint(p, model.Point{X: s.CenterX, Y: s.CenterY}, -float64(s.Rotation))
	return local.X >= s.CenterX-s.SpanX && local.X <= s.CenterX+s.SpanX &&
		local.Y >= s.CenterY-s.SpanY && local.Y <= s.CenterY+s.SpanY
}
