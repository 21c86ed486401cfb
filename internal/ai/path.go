package ai

import (
	"math"
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
)

// GetMoveCommand builds a MoveCommand from entity's current position to
// dest. reduce shortens the final leg so the entity stops short of the
// destination (used when chasing a target or approaching an obstacle, so it
// doesn't walk into it); split divides any leg longer than half a
// second's worth of movement (MoveSpeed*0.5) into sub-segments, for
// smoother client-visible motion.
//
// This core has no navmesh collaborator, so "pathing" is the direct line
// when it is unobstructed; a blocked direct line is rejected outright,
// matching the documented "shortest path is empty" fallback case.
func GetMoveCommand(w World, entity *model.ActiveEntity, dest model.Point, reduce float64, split bool, now int64) (*model.MoveCommand, bool) {
	src := entity.Position(now)
	geometry := w.Geometry()

	if geometry != nil && geometry.LineCollides(src, dest, w.Disabled()) {
		return nil, false
	}

	if reduce > 0 {
		dest = geo.GetLinearPoint(dest.X, dest.Y, src.X, src.Y, reduce, false)
	}

	path := []model.Point{dest}
	if split {
		path = splitLeg(src, dest, float64(entity.MoveSpeed())*0.5)
	}

	return &model.MoveCommand{Path: path}, true
}

// splitLeg breaks the (from, to) segment into sub-points no farther apart
// than stepLen, preserving the final destination exactly.
func splitLeg(from, to model.Point, stepLen float64) []model.Point {
	total := model.Distance(from, to)
	if stepLen <= 0 || total <= stepLen {
		return []model.Point{to}
	}
	steps := int(math.Ceil(total / stepLen))
	out := make([]model.Point, 0, steps)
	for i := 1; i <= steps; i++ {
		frac := math.Min(1, float64(i)*stepLen/total)
		out = append(out, model.Point{
			X: from.X + float32(float64(to.X-from.X)*frac),
			Y: from.Y + float32(float64(to.Y-from.Y)*frac),
		})
	}
	return out
}

// Chase builds a move command toward a live target, stopping between
// minDistance and maxDistance of it.
func Chase(entity *model.ActiveEntity, target model.Point, targetID uint32, minDistance, maxDistance float64, now int64) *model.MoveCommand {
	self := entity.Position(now)
	dest := geo.GetLinearPoint(target.X, target.Y, self.X, self.Y, minDistance, false)
	return &model.MoveCommand{
		Path:        []model.Point{dest},
		TargetID:    targetID,
		MinDistance: minDistance,
		MaxDistance: maxDistance,
	}
}

// Retreat builds a one-segment move straight away from point by distance.
// Returns false if the resulting point would not actually end up farther
// from point than the entity's current position.
func Retreat(entity *model.ActiveEntity, point model.Point, targetID uint32, distance float64, now int64) (*model.MoveCommand, bool) {
	self := entity.Position(now)
	dest := geo.GetLinearPoint(self.X, self.Y, point.X, point.Y, distance, true)
	if model.Distance(dest, point) <= model.Distance(self, point) {
		return nil, false
	}
	return &model.MoveCommand{Path: []model.Point{dest}, TargetID: targetID}, true
}

// circleStep is the per-rotation angle Circle advances around its target.
const circleStep = 0.52 // radians, roughly 30 degrees

// Circle generates up to 3 waypoints orbiting target: first a point
// `distance` from target toward entity, then 1-2 rotations of circleStep
// around target (direction chosen randomly, inverted once on collision),
// stopping early if a leg is blocked.
func Circle(w World, entity *model.ActiveEntity, target model.Point, targetID uint32, distance float64, now int64) *model.MoveCommand {
	self := entity.Position(now)
	geometry := w.Geometry()

	first := geo.GetLinearPoint(target.X, target.Y, self.X, self.Y, distance, false)
	points := []model.Point{first}

	rotations := 1 + rand.IntN(2)
	direction := 1.0
	if rand.IntN(2) == 1 {
		direction = -1
	}

	prev := first
	for i := 0; i < rotations; i++ {
		next := geo.RotatePoint(prev, target, circleStep*direction)
		if geometry != nil && geometry.LineCollides(prev, next, w.Disabled()) {
			direction = -direction
			next = geo.RotatePoint(prev, target, circleStep*direction)
			if geometry.LineCollides(prev, next, w.Disabled()) {
				break
			}
		}
		points = append(points, next)
		prev = next
	}

	return &model.MoveCommand{Path: points, TargetID: targetID}
}
