package geo

import "github.com/shirolong/channelcore/internal/model"

// LineSegmentsIntersect reports whether segment (p1,p2) crosses segment
// (p3,p4). Standard orientation-based test; handles collinear overlap as a
// hit, matching a conservative physical barrier.
func LineSegmentsIntersect(p1, p2, p3, p4 model.Point) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

func direction(a, b, c model.Point) float64 {
	return float64(b.X-a.X)*float64(c.Y-a.Y) - float64(b.Y-a.Y)*float64(c.X-a.X)
}

func onSegment(a, b, p model.Point) bool {
	return min32(a.X, b.X) <= p.X && p.X <= max32(a.X, b.X) &&
		min32(a.Y, b.Y) <= p.Y && p.Y <= max32(a.Y, b.Y)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// PointInPolygon implements the standard ray-casting test for a closed
// shape. Shapes with Closed == false never contain a point.
func PointInPolygon(s Shape, p model.Point) bool {
	if !s.Closed || len(s.Points) < 3 {
		return false
	}
	if !s.BBox.Contains(p.X, p.Y) {
		return false
	}

	inside := false
	n := len(s.Points)
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := s.Points[i], s.Points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			xIntersect := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SegmentIntersectsShape reports whether the segment (from, to) crosses any
// edge of the shape.
func SegmentIntersectsShape(from, to model.Point, s Shape) bool {
	segMinX := min32(from.X, to.X)
	segMaxX := max32(from.X, to.X)
	segMinY := min32(from.Y, to.Y)
	segMaxY := max32(from.Y, to.Y)
	if segMaxX < s.BBox.MinX || segMinX > s.BBox.MaxX ||
		segMaxY < s.BBox.MinY || segMinY > s.BBox.MaxY {
		return false
	}

	hit := false
	s.segments(func(a, b model.Point) bool {
		if LineSegmentsIntersect(from, to, a, b) {
			hit = true
			return false
		}
		return true
	})
	return hit
}
