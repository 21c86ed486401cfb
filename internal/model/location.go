package model

import "math"

// Point is a 2-D coordinate in world units.
type Point struct {
	X, Y float32
}

// Placement is an entity's kinematic state: where it started, where it is
// headed, and the tick range over which the move is interpolated. Ticks are
// server Unix milliseconds, the clock the scheduler passes to each tick;
// they are not microseconds.
type Placement struct {
	X, Y     float32
	Rotation float32
	Ticks    int64
}

// InterpolatePosition returns the entity's position at `now`, linearly
// interpolating between origin and destination.
func InterpolatePosition(origin, destination Placement, now int64) (x, y, rotation float32) {
	if now <= origin.Ticks || destination.Ticks <= origin.Ticks {
		return origin.X, origin.Y, origin.Rotation
	}
	if now >= destination.Ticks {
		return destination.X, destination.Y, destination.Rotation
	}

	frac := float64(now-origin.Ticks) / float64(destination.Ticks-origin.Ticks)
	x = origin.X + float32(float64(destination.X-origin.X)*frac)
	y = origin.Y + float32(float64(destination.Y-origin.Y)*frac)
	rotation = origin.Rotation + float32(float64(destination.Rotation-origin.Rotation)*frac)
	return x, y, rotation
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared avoids the sqrt when only a threshold comparison is needed.
func DistanceSquared(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}
