package ai

import (
	"math"
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/model"
)

// Retarget selects (or clears) entity's aggro target and returns the new
// target id (0 = none). It always routes the change through UpdateAggro,
// which keeps the opponents/aggressor bookkeeping symmetric.
func Retarget(w World, c model.Combatant, now int64, isNight bool) uint32 {
	entity := c.Base()
	ais := c.AIInfo()
	params := ais.Params()

	var candidates []uint32
	if len(entity.Opponents()) > 0 {
		candidates = inCombatCandidates(w, entity, params, now)
	} else {
		if params.Aggression < 100 && rand.IntN(100)+1 > int(params.Aggression) {
			UpdateAggro(w, c, 0)
			return 0
		}
		candidates = freshCandidates(w, entity, params, isNight, now)
		candidates = pruneAggroLimited(w, entity, params, candidates)
	}

	candidates = filterFoV(w, entity, candidates, now)
	candidates = filterLineOfSight(w, entity, candidates, now)

	if len(candidates) == 0 {
		UpdateAggro(w, c, 0)
		return 0
	}

	picked := pickTarget(ais, entity.ID(), candidates, now)
	UpdateAggro(w, c, picked)
	return picked
}

// inCombatCandidates narrows an entity's existing opponents down to those
// still within striking distance.
func inCombatCandidates(w World, entity *model.ActiveEntity, params model.BaseAIParams, now int64) []uint32 {
	radius := math.Max(params.AggroNormalDistance, params.AggroCastDistance)
	self := entity.Position(now)

	var out []uint32
	for _, id := range entity.Opponents() {
		other, ok := w.Combatant(id)
		if !ok || !other.Base().Ready() || other.Base().AIIgnored() {
			continue
		}
		if model.Distance(self, other.Base().Position(now)) > radius {
			continue
		}
		out = append(out, id)
	}
	return out
}

// freshCandidates builds the not-currently-fighting candidate pool: first
// charging entities seen at the longer cast range, then everything within
// normal aggro range, each dropping same-faction/dead/not-ready/ignored/
// above-level-cap entries.
func freshCandidates(w World, entity *model.ActiveEntity, params model.BaseAIParams, isNight bool, now int64) []uint32 {
	self := entity.Position(now)

	normalDist := params.AggroNormalDistance
	if isNight {
		normalDist = params.AggroNightDistance
	}

	levelCap := int32(math.MaxInt32)
	if params.AggroLevelLimit < 99 {
		levelCap = entity.Level() + params.AggroLevelLimit
	}

	seen := make(map[uint32]struct{})
	var out []uint32

	addIfEligible := func(id uint32) {
		if id == entity.ID() {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		if _, ok := w.Position(id); !ok {
			return
		}
		cand, ok := w.Combatant(id)
		if ok {
			base := cand.Base()
			if base.Faction() == entity.Faction() || !base.Ready() || base.AIIgnored() {
				return
			}
			if base.Level() > levelCap {
				return
			}
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	// Pass (a): charging entities at cast range. filterFoV runs once over
	// the full union of both passes with the zone's field of view, so a
	// charging entity outside that field of view is dropped like any other;
	// the cast profile's own FoV is not applied.
	for _, id := range w.EntitiesInRange(self, params.AggroCastDistance) {
		cand, ok := w.Combatant(id)
		if !ok || cand.Base().Lock() != model.LockCharging {
			continue
		}
		addIfEligible(id)
	}

	// Pass (b): everything within normal aggro range.
	for _, id := range w.EntitiesInRange(self, normalDist) {
		addIfEligible(id)
	}

	return out
}

// pruneAggroLimited drops candidates already being chased by at least as
// many pursuers as the global aggro-limit feature allows (1 for normal
// monsters, 2 for bosses), when that feature is enabled for this entity.
func pruneAggroLimited(w World, entity *model.ActiveEntity, params model.BaseAIParams, candidates []uint32) []uint32 {
	if !w.AggroLevelLimitEnabled() || params.IgnoresAggroLimit {
		return candidates
	}

	var out []uint32
	for _, id := range candidates {
		limit := 1
		if cand, ok := w.Combatant(id); ok && cand.AIInfo().Params().IsBoss {
			limit = 2
		}
		pursuers := 0
		if cand, ok := w.Combatant(id); ok {
			for _, aggrID := range cand.Base().Aggressors() {
				if aggrID == entity.ID() {
					continue
				}
				if pursuer, ok := w.Combatant(aggrID); ok && pursuer.Base().AggroTarget() == id {
					pursuers++
				}
			}
		}
		if pursuers < limit {
			out = append(out, id)
		}
	}
	return out
}

// filterFoV keeps only candidates within the zone's targeting field of view
// ahead of entity's current facing.
func filterFoV(w World, entity *model.ActiveEntity, candidates []uint32, now int64) []uint32 {
	half := w.FoVHalfAngle()
	if half <= 0 || half >= math.Pi {
		return candidates
	}

	self := entity.Position(now)
	facing := float64(entity.Rotation(now))

	var out []uint32
	for _, id := range candidates {
		pos, ok := w.Position(id)
		if !ok {
			continue
		}
		bearing := math.Atan2(float64(pos.Y-self.Y), float64(pos.X-self.X))
		delta := math.Abs(normalizeAngle(bearing - facing))
		if delta <= half {
			out = append(out, id)
		}
	}
	return out
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// filterLineOfSight drops candidates whose straight line from entity
// collides with zone geometry. No-op when the zone carries no geometry.
func filterLineOfSight(w World, entity *model.ActiveEntity, candidates []uint32, now int64) []uint32 {
	geometry := w.Geometry()
	if geometry == nil {
		return candidates
	}
	self := entity.Position(now)

	var out []uint32
	for _, id := range candidates {
		pos, ok := w.Position(id)
		if !ok {
			continue
		}
		if geometry.LineCollides(self, pos, w.Disabled()) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// pickTarget consults the entity's "target" script override, if any, else
// picks uniformly at random among the survivors.
func pickTarget(ais *model.AIState, selfID uint32, candidates []uint32, now int64) uint32 {
	if handle := ais.Script(); handle != nil {
		if picked, defined, err := handle.CallTarget(candidates, model.ScriptContext{SourceID: selfID, Now: now}); err == nil && defined && picked != 0 {
			return picked
		}
	}
	return candidates[rand.IntN(len(candidates))]
}

// UpdateAggro moves entity's aggro target from its current value to newTarget,
// keeping the aggressor bookkeeping and status transitions in sync:
//   - unlinks entity from the old target's aggressor set
//   - links entity to the new target's aggressor set
//   - transitions Idle/Wandering to Aggro on first valid target
//   - when clearing (newTarget == 0), pops any queued commands whose target
//     was the old target
func UpdateAggro(w World, c model.Combatant, newTarget uint32) {
	entity := c.Base()
	old := entity.AggroTarget()
	if old == newTarget {
		return
	}

	if old != 0 {
		if oldBase, ok := w.Entity(old); ok {
			model.UpdateAggressor(false, entity, oldBase)
		}
	}
	if newTarget != 0 {
		if newBase, ok := w.Entity(newTarget); ok {
			model.UpdateAggressor(true, entity, newBase)
		}
	}

	entity.SetAggroTarget(newTarget)

	ais := c.AIInfo()
	if newTarget != 0 {
		if s := ais.Status(); s == model.StatusIdle || s == model.StatusWandering {
			ais.SetStatus(model.StatusAggro)
		}
	} else {
		discardCommandsTargeting(ais, old)
	}

	// c is always a Combatant (enemy or ally; players never carry an
	// AIState), so every aggro change broadcasts an activated notification
	// so clients can orient the model on acquisition or loss.
	w.Activated(entity.ID(), newTarget)
}

// discardCommandsTargeting drops every queued command (and the current one,
// if in flight) whose TargetEntityID matches target.
func discardCommandsTargeting(ais *model.AIState, target uint32) {
	if target == 0 {
		return
	}
	kept := ais.Queue().Clear()
	for _, cmd := range kept {
		if cmd.TargetEntityID() != target {
			ais.Queue().Push(cmd)
		}
	}
	if cur := ais.CurrentCommand(); cur != nil && cur.TargetEntityID() == target {
		ais.SetCurrentCommand(nil)
	}
}
