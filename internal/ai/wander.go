package ai

import (
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
)

// Wander queues one leg of idle movement for an entity whose status is
// Wandering and that has a spawn location or spot to roam within. Returns
// false if the entity has neither.
func Wander(w World, c model.Combatant, now int64) bool {
	entity := c.Base()
	ais := c.AIInfo()
	params := ais.Params()

	dest, ok := w.WanderTarget(c)
	if !ok {
		return false
	}

	self := entity.Position(now)

	thinkMS := params.ThinkSpeedMS
	if thinkMS < 500 {
		thinkMS = 500
	}
	stepDist := float64(entity.MoveSpeed()) * float64(thinkMS) / 1000

	finalDest := geo.GetLinearPoint(self.X, self.Y, dest.X, dest.Y, stepDist, false)
	if model.Distance(self, finalDest) >= model.Distance(self, dest) {
		finalDest = dest
	}

	timeout := ais.DespawnTimeout()
	lost := timeout != 0 && !w.InSpawnRegion(c, self)

	if lost {
		if origin, ok := w.SpawnOrigin(c); ok {
			if mv, ok := GetMoveCommand(w, entity, origin, 0, false, now); ok {
				ais.Queue().Push(mv)
			}
		}
	} else {
		ais.Queue().Push(&model.MoveCommand{Path: []model.Point{finalDest}})
	}

	waitMS := thinkMS * int64(1+rand.IntN(3))
	ais.Queue().Push(&model.WaitCommand{DurationMS: waitMS})

	if timeout != 0 && (!lost || w.InSpawnRegion(c, finalDest)) {
		ais.SetDespawnTimeout(0)
	}

	return true
}
