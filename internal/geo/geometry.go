package geo

import "github.com/shirolong/channelcore/internal/model"

// Geometry is one immutable QMP-file's worth of barriers. It is
// shared read-only across every zone instance that uses the same map; a
// zone layers its own disabled-element set on top.
type Geometry struct {
	elements map[int32]Element
}

// NewGeometry builds a Geometry from parsed QMP elements.
func NewGeometry(elements []Element) *Geometry {
	g := &Geometry{elements: make(map[int32]Element, len(elements))}
	for _, e := range elements {
		g.elements[e.ID] = e
	}
	return g
}

// Element returns the element with the given id, and whether it exists.
func (g *Geometry) Element(id int32) (Element, bool) {
	e, ok := g.elements[id]
	return e, ok
}

// DisabledSet is the per-zone set of element ids to treat as inert. A
// OneWay element disabled this way behaves as fully open; a Barrier or
// Toggle disabled this way is skipped entirely by collision checks.
//
// The original distinguishes disabled states {2, 3, 255}; the third
// state's semantics are not fully recoverable from the available game
// data, so this model only
// distinguishes enabled/disabled, not the finer state.
type DisabledSet map[int32]struct{}

// LineCollides reports whether the segment (from, to) crosses any enabled
// Barrier or Toggle element. OneWay elements never block a bare collision
// check — they only constrain movement direction, which this core does not
// model beyond the straight-line/shortest-path check done here.
func (g *Geometry) LineCollides(from, to model.Point, disabled DisabledSet) bool {
	for id, el := range g.elements {
		if el.Type == ElementOneWay {
			continue
		}
		if _, off := disabled[id]; off {
			continue
		}
		for _, s := range el.Shapes {
			if SegmentIntersectsShape(from, to, s) {
				return true
			}
		}
	}
	return false
}

// PointInAnyBarrier reports whether p lies inside any enabled closed
// (polygon) Barrier element — used to validate spawn/teleport destinations.
func (g *Geometry) PointInAnyBarrier(p model.Point, disabled DisabledSet) bool {
	for id, el := range g.elements {
		if el.Type != ElementBarrier {
			continue
		}
		if _, off := disabled[id]; off {
			continue
		}
		for _, s := range el.Shapes {
			if s.Closed && PointInPolygon(s, p) {
				return true
			}
		}
	}
	return false
}

// FirstCollision returns the nearest point along (from, to) where the
// segment first crosses an enabled Barrier/Toggle element, and true if one
// exists. Used by GetRandomSpotPoint to pull a sample back
// from a wall.
func (g *Geometry) FirstCollision(from, to model.Point, disabled DisabledSet) (model.Point, bool) {
	bestT := 2.0 // > 1 sentinel, since valid t in [0,1]
	var best model.Point
	found := false

	for id, el := range g.elements {
		if el.Type == ElementOneWay {
			continue
		}
		if _, off := disabled[id]; off {
			continue
		}
		for _, s := range el.Shapes {
			s.segments(func(a, b model.Point) bool {
				if t, ok := segmentIntersectionParam(from, to, a, b); ok && t < bestT {
					bestT = t
					best = model.Point{
						X: from.X + float32(float64(to.X-from.X)*t),
						Y: from.Y + float32(float64(to.Y-from.Y)*t),
					}
					found = true
				}
				return true
			})
		}
	}
	return best, found
}

// segmentIntersectionParam returns the parameter t along (p1,p2) at which
// it crosses (p3,p4), if they intersect.
func segmentIntersectionParam(p1, p2, p3, p4 model.Point) (float64, bool) {
	if !LineSegmentsIntersect(p1, p2, p3, p4) {
		return 0, false
	}
	x1, y1 := float64(p1.X), float64(p1.Y)
	x2, y2 := float64(p2.X), float64(p2.Y)
	x3, y3 := float64(p3.X), float64(p3.Y)
	x4, y4 := float64(p4.X), float64(p4.Y)

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		return 0, false
	}
	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
