// Package geo implements zone geometry: QMP-style polygonal/line barriers,
// line-line collision, point-in-polygon, and the rotated-rectangle "spots"
// used for spawn regions and zone-in markers.
package geo

import "github.com/shirolong/channelcore/internal/model"

// ElementType classifies a geometry element.
type ElementType int32

const (
	ElementBarrier ElementType = iota
	ElementOneWay
	ElementToggle
)

// BoundingBox is an axis-aligned box used to fast-reject collision checks.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float32
}

// Contains reports whether (x, y) lies within the box.
func (b BoundingBox) Contains(x, y float32) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Shape is either a closed polygon or an open line strip, depending on
// Closed. One Element yields one or more Shapes.
type Shape struct {
	Points []model.Point
	Closed bool
	BBox   BoundingBox
}

// NewShape computes the bounding box for the given points and returns a
// Shape. Closed indicates a polygon (implicit edge from last to first
// point); open shapes are line strips.
func NewShape(points []model.Point, closed bool) Shape {
	s := Shape{Points: points, Closed: closed}
	if len(points) == 0 {
		return s
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	s.BBox = BoundingBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	return s
}

// segments yields the ordered (a, b) edges of the shape.
func (s Shape) segments(yield func(a, b model.Point) bool) {
	n := len(s.Points)
	if n < 2 {
		return
	}
	last := n - 1
	if !s.Closed {
		last = n - 2
	}
	for i := 0; i <= last; i++ {
		a := s.Points[i]
		b := s.Points[(i+1)%n]
		if !yield(a, b) {
			return
		}
	}
}

// Element is a named geometry element that can be individually disabled
// per-zone.
type Element struct {
	ID     int32
	Type   ElementType
	Name   string
	Shapes []Shape
}
