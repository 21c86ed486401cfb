package zone

import (
	"github.com/shirolong/channelcore/internal/ai"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/netproto"
)

// Tick advances every AI-controlled entity in the zone by one step, then
// broadcasts resulting state changes and runs end-of-tick maintenance. It
// runs to completion without yielding, holding the zone as a single-writer
// domain for the duration.
func (z *Zone) Tick(now int64, isNight bool) {
	z.mu.Lock()
	z.now = now
	enemies := make([]*model.Enemy, 0, len(z.enemies))
	for _, e := range z.enemies {
		enemies = append(enemies, e)
	}
	allies := make([]*model.Ally, 0, len(z.allies))
	for _, a := range z.allies {
		allies = append(allies, a)
	}
	z.mu.Unlock()

	var changed []model.Combatant
	for _, e := range enemies {
		if ai.UpdateState(z, e, now, isNight) {
			changed = append(changed, e)
		}
	}
	for _, a := range allies {
		if ai.UpdateState(z, a, now, isNight) {
			changed = append(changed, a)
		}
	}

	z.broadcastChanges(changed, now)
	z.flushDespawns()
	z.EndOfTick(now)
}

// broadcastChanges walks each changed entity and composes a MOVE, ROTATE, or
// STOP packet to broadcast.
func (z *Zone) broadcastChanges(changed []model.Combatant, now int64) {
	for _, c := range changed {
		entity := c.Base()
		origin, dest := entity.Origin(), entity.Destination()

		switch {
		case entity.IsMoving():
			z.Broadcast(netproto.Move{
				EntityID:  entity.ID(),
				DestX:     dest.X,
				DestY:     dest.Y,
				OrigX:     origin.X,
				OrigY:     origin.Y,
				Speed:     entity.MoveSpeed(),
				NowTicks:  now,
				DestTicks: dest.Ticks,
			})
		case origin.Rotation != dest.Rotation && dest.Ticks > now:
			z.Broadcast(netproto.Rotate{
				EntityID:  entity.ID(),
				DestRot:   dest.Rotation,
				NowTicks:  now,
				DestTicks: dest.Ticks,
			})
		default:
			z.Broadcast(netproto.StopMovement{
				EntityID:  entity.ID(),
				DestX:     dest.X,
				DestY:     dest.Y,
				DestTicks: dest.Ticks,
			})
		}
	}
}

// flushDespawns removes every entity Despawn marked this tick from its
// registry and notifies its spawn-location group.
func (z *Zone) flushDespawns() {
	z.mu.Lock()
	ids := z.despawnQueue
	z.despawnQueue = nil
	z.mu.Unlock()

	for _, id := range ids {
		c, ok := z.Combatant(id)
		if !ok {
			continue
		}
		info := c.SpawnInfo()
		z.mu.Lock()
		delete(z.enemies, id)
		delete(z.allies, id)
		z.mu.Unlock()
		z.NotifyEntityGone(info.SpawnLocationGroupID, id)
	}
}

// EndOfTick runs the zone's per-tick maintenance sweeps that are not part
// of the AI state machine proper: plasma regeneration and bazaar-listing
// expiration. Both are stubs here — plasma nodes and player-run bazaars are
// entity kinds this core tracks but whose full gameplay rules live in the
// out-of-scope economy system; the hooks exist so that system has a
// well-defined per-tick call site once it is wired in.
func (z *Zone) EndOfTick(now int64) {
	z.refreshPlasma(now)
	z.expireBazaars(now)
}

func (z *Zone) refreshPlasma(now int64) {}

func (z *Zone) expireBazaars(now int64) {}
