package ai

import (
	"math"
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/model"
)

// UpdateState runs one AI tick for a single entity. It returns whether the
// entity's externally visible state changed this tick (and thus must be
// broadcast) — the zone walks its enemy/ally rosters calling this once
// each and turns "changed" results into outbound packets.
func UpdateState(w World, c model.Combatant, now int64, isNight bool) bool {
	entity := c.Base()
	ais := c.AIInfo()

	// 1. Collapse a finished move so Position/IsMoving reflect arrival.
	if entity.IsMoving() && now >= entity.Destination().Ticks {
		entity.StopAt(now)
	}

	// 2. Despawn timeout.
	if dt := ais.DespawnTimeout(); dt != 0 && dt <= now {
		w.Despawn(entity.ID())
		return false
	}

	// 3. Idle entities with no override never think.
	if ais.Status() == model.StatusIdle {
		if _, ok := ais.ActionOverride("idle"); !ok {
			return false
		}
	}

	// 4. Expire elapsed status effects.
	changed := len(entity.StatusEffects().ExpireElapsed(now)) > 0

	// 5. Locked or explicitly waiting.
	if !entity.CanAct() || ais.WaitingUntil() > now {
		if entity.IsMoving() && entity.Lock() != model.LockKnockback {
			entity.StopAt(now)
			return true
		}
		return changed
	}

	// 6. Skill-use recovery lockout.
	if ais.SkillLockUntil() > now {
		return changed
	}

	// 7. Status transition handling.
	if ais.StatusChanged() {
		prev, cur := ais.Previous(), ais.Status()
		if !(prev == model.StatusAggro && cur == model.StatusCombat) {
			discarded := ais.Queue().Clear()
			if len(discarded) > 0 {
				if us, ok := discarded[0].(*model.UseSkillCommand); ok {
					ais.Queue().Push(us)
				}
			}
		}
		ais.ClearStatusChanged()
	}

	// 8. Dispatch when the queue is empty.
	if ais.Queue().Empty() {
		dispatchBehavior(w, c, now, isNight)
	}

	// 9. Process the head command.
	if processHeadCommand(w, c, now) {
		changed = true
	}

	return changed
}

// statusActionName maps an AI status to the action-override name it may be
// replaced by.
func statusActionName(s model.Status) (string, bool) {
	switch s {
	case model.StatusIdle:
		return "idle", true
	case model.StatusWandering:
		return "wander", true
	case model.StatusAggro:
		return "aggro", true
	case model.StatusCombat:
		return "combat", true
	default:
		return "", false
	}
}

// dispatchBehavior invokes the current status's action override, if one is
// configured and usable; otherwise dispatches to the built-in
// enemy/ally behavior.
func dispatchBehavior(w World, c model.Combatant, now int64, isNight bool) {
	ais := c.AIInfo()

	if name, ok := statusActionName(ais.Status()); ok {
		if fn, overridden := ais.ActionOverride(name); overridden {
			if handle := ais.Script(); handle != nil {
				_, defined, err := handle.CallAction(fn, model.ScriptContext{
					SourceID: c.Base().ID(),
					TargetID: c.Base().AggroTarget(),
					Now:      now,
					HPRatio:  c.Base().HPRatio(),
				})
				if err == nil && defined {
					return
				}
				// Script error or undefined entry point: fall back to the
				// built-in behavior below.
			}
		}
	}

	if ais.Queue().Empty() {
		UpdateEnemyState(w, c, now, isNight)
	}
}

// processHeadCommand starts (if new) and advances the queue's head command,
// popping it on completion. Returns whether processing it changed visible
// state this tick.
func processHeadCommand(w World, c model.Combatant, now int64) bool {
	ais := c.AIInfo()
	head := ais.Queue().Peek()
	if head == nil {
		return false
	}

	if head.TargetEntityID() != 0 {
		if _, ok := w.Combatant(head.TargetEntityID()); !ok {
			if _, ok := w.Position(head.TargetEntityID()); !ok {
				popHead(ais, head)
				return false
			}
		}
	}

	if ais.CurrentCommand() != head {
		ais.SetCurrentCommand(head)
	}

	switch cmd := head.(type) {
	case *model.WaitCommand:
		ais.SetWaitingUntil(now + cmd.DurationMS)
		popHead(ais, head)
		return false
	case *model.MoveCommand:
		return processMove(w, c, cmd, now)
	case *model.UseSkillCommand:
		return processUseSkill(w, c, cmd, now)
	case *model.ScriptedCommand:
		return processScripted(w, c, cmd, now)
	default:
		popHead(ais, head)
		return false
	}
}

// popHead removes head from the queue if it is still there, and clears
// currentCommand if it pointed at it.
func popHead(ais *model.AIState, head model.Command) {
	ais.Queue().Pop()
	if ais.CurrentCommand() == head {
		ais.SetCurrentCommand(nil)
	}
}

// processMove advances a MoveCommand one tick. It issues movement toward
// the command's current path point once (when the entity isn't already
// mid-leg), and advances the cursor past that point so the next call
// (after UpdateState's step 1 collapses the finished move) picks the
// following one.
func processMove(w World, c model.Combatant, cmd *model.MoveCommand, now int64) bool {
	entity := c.Base()
	ais := c.AIInfo()

	if !entity.Ready() {
		ais.Queue().Clear()
		ais.SetCurrentCommand(nil)
		return false
	}

	if cmd.TargetID != 0 {
		targetPos, ok := w.Position(cmd.TargetID)
		if !ok {
			popHead(ais, cmd)
			return false
		}
		dist := model.Distance(entity.Position(now), targetPos)
		if cmd.MinDistance > 0 && dist <= cmd.MinDistance {
			entity.StopAt(now)
			popHead(ais, cmd)
			return true
		}
		if cmd.MaxDistance > 0 && dist >= cmd.MaxDistance {
			entity.StopAt(now)
			popHead(ais, cmd)
			return true
		}
		if len(cmd.Path) > 0 {
			endpoint := cmd.Path[len(cmd.Path)-1]
			if model.Distance(endpoint, targetPos) > cmd.MinDistance+1 {
				if repathed, ok := GetMoveCommand(w, entity, targetPos, cmd.MinDistance, false, now); ok {
					cmd.Path = repathed.Path
				} else {
					ais.Queue().Clear()
					ais.SetCurrentCommand(nil)
					return false
				}
			}
		}
	}

	if !cmd.Remaining() {
		entity.StopAt(now)
		popHead(ais, cmd)
		return false
	}

	if entity.IsMoving() {
		return false
	}

	pos := entity.Position(now)
	dest := cmd.Path[cmd.Cursor()]
	geometry := w.Geometry()
	if geometry != nil && geometry.LineCollides(pos, dest, w.Disabled()) {
		ais.Queue().Clear()
		ais.SetCurrentCommand(nil)
		return false
	}

	distance := model.Distance(pos, dest)
	travelMS := int64(0)
	if speed := entity.MoveSpeed(); speed > 0 {
		travelMS = int64(distance / float64(speed) * 1000)
	}
	rot := float32(math.Atan2(float64(dest.Y-pos.Y), float64(dest.X-pos.X)))
	entity.SetMovement(
		model.Placement{X: pos.X, Y: pos.Y, Rotation: rot, Ticks: now},
		model.Placement{X: dest.X, Y: dest.Y, Rotation: rot, Ticks: now + travelMS},
	)
	cmd.AdvanceCursor()
	return true
}

// skillWaitCancelCycles is how long (in think-speed cycles) an activated
// skill may sit waiting on a delayed-attack hit before it becomes eligible
// for the 50% wait-timeout cancel (spec.md §4.3's skill-wait-start check,
// run from UpdateEnemyState — see below).
const skillWaitCancelCycles = 2

// processUseSkill advances a single UseSkillCommand attempt: activating a
// skill, or (with cmd.Activated set) executing one already activated. It
// pops on success, on a non-retryable failure, and when the target is
// invalid; a retryable result, a charging/knockback lock, or a knocked-back
// target leaves it at the queue head for a later tick. A successful
// activation's in-flight cast is tracked on AIState.Activated, so
// UpdateEnemyState's activated-skill branch can keep driving it (chase,
// circle, retarget, cancel) every tick the queue is otherwise empty.
func processUseSkill(w World, c model.Combatant, cmd *model.UseSkillCommand, now int64) bool {
	entity := c.Base()
	ais := c.AIInfo()

	if entity.Lock() == model.LockCharging || entity.Lock() == model.LockKnockback {
		return false
	}

	target, ok := w.Combatant(cmd.TargetID)
	targetInvalid := cmd.TargetID != 0 && (!ok || !target.Base().IsAlive() || target.Base().AIIgnored())
	if targetInvalid {
		if cmd.Activated {
			w.CancelSkill(entity.ID(), cmd.SkillID)
			ais.ClearActivated()
			ais.SetSkillWaitStart(0)
		}
		popHead(ais, cmd)
		return false
	}

	if w.AggroLevelLimitEnabled() && ok && target.Base().Lock() == model.LockKnockback {
		ais.Queue().PushFront(&model.WaitCommand{DurationMS: ais.Params().ThinkSpeedMS})
		return false
	}

	if cmd.Activated {
		switch w.ExecuteSkill(c, cmd.SkillID, cmd.TargetID, now) {
		case SkillResultOK:
			ais.ClearActivated()
			ais.SetSkillWaitStart(0)
			popHead(ais, cmd)
			return true
		case SkillResultRetry:
			return false
		default:
			// Retry is not allowed: cancel and reset (spec.md §4.3).
			w.CancelSkill(entity.ID(), cmd.SkillID)
			ais.ClearActivated()
			ais.SetSkillWaitStart(0)
			popHead(ais, cmd)
			return false
		}
	}

	switch w.ActivateSkill(c, cmd.SkillID, cmd.TargetID, now) {
	case SkillResultOK:
		ais.SetActivated(model.ActivatedSkill{SkillID: cmd.SkillID, TargetID: cmd.TargetID})
		ais.SetSkillWaitStart(now)
		popHead(ais, cmd)
		return true
	case SkillResultRetry:
		return false
	default:
		popHead(ais, cmd)
		return false
	}
}

// processScripted advances a ScriptedCommand: 0 keeps it running (yield),
// +1 pops and reports a state change, anything else pops silently.
func processScripted(w World, c model.Combatant, cmd *model.ScriptedCommand, now int64) bool {
	ais := c.AIInfo()
	handle := ais.Script()
	if handle == nil {
		popHead(ais, cmd)
		return false
	}

	result, defined, err := handle.CallAction(cmd.FuncName, model.ScriptContext{
		SourceID: c.Base().ID(),
		TargetID: c.Base().AggroTarget(),
		Now:      now,
		HPRatio:  c.Base().HPRatio(),
	})
	if err != nil || !defined {
		popHead(ais, cmd)
		return false
	}

	switch {
	case result == 0:
		return false
	case result > 0:
		popHead(ais, cmd)
		return true
	default:
		popHead(ais, cmd)
		return false
	}
}

// aggroThinkWaitProbability returns the per-tick chance that an
// enemy/ally in combat does nothing but think this cycle:
// 20/max(aggression,25).
func aggroThinkWaitProbability(aggression int32) float64 {
	return 20.0 / math.Max(float64(aggression), 25)
}

// UpdateEnemyState is the enemy/ally behavior entered from UpdateState's
// dispatch step.
func UpdateEnemyState(w World, c model.Combatant, now int64, isNight bool) {
	entity := c.Base()
	ais := c.AIInfo()
	params := ais.Params()

	if entity.AggroTarget() == 0 && entity.OpponentCount() == 0 {
		Retarget(w, c, now, isNight)
		if entity.AggroTarget() != 0 {
			ais.Queue().Push(&model.WaitCommand{DurationMS: 3000})
		}
		return
	}

	if ais.Status() == model.StatusWandering {
		if _, ok := w.WanderTarget(c); ok {
			Wander(w, c, now)
			return
		}
	}

	targetID := entity.AggroTarget()
	target, ok := w.Combatant(targetID)
	if targetID == 0 || !ok || !target.Base().Ready() || target.Base().AIIgnored() {
		Retarget(w, c, now, isNight)
		targetID = entity.AggroTarget()
		if targetID == 0 {
			ais.SetStatus(ais.DefaultStatus())
			return
		}
		target, ok = w.Combatant(targetID)
		if !ok {
			return
		}
	}

	dist := model.Distance(entity.Position(now), target.Base().Position(now))
	if dist >= 1.5*params.AggroNormalDistance {
		model.AddRemoveOpponent(false, entity, target.Base())
		UpdateAggro(w, c, 0)
		Retarget(w, c, now, isNight)
		return
	}

	if activated, ok := ais.Activated(); ok {
		updateActivatedSkill(w, c, activated, target, targetID, now, params)
		return
	}

	if rand.Float64() < aggroThinkWaitProbability(params.Aggression) {
		ais.Queue().Push(&model.WaitCommand{DurationMS: params.ThinkSpeedMS})
		return
	}

	if len(w.EntitySkillIDs(c)) > 0 {
		if !PrepareSkillUsage(w, c, now) {
			dropAggro(w, c, params, now)
		}
		return
	}

	dropAggro(w, c, params, now)
}

// updateActivatedSkill drives a skill this entity has already begun
// casting: it lets a charging cast finish untouched, applies the
// skill-wait-start cancel-or-circle dance for a delayed-attack skill
// awaiting its hit, retargets in place if the aggro target changed
// mid-cast, and otherwise calls SkillAdvance to close distance and queue
// the execution attempt once in range (spec.md §4.3).
func updateActivatedSkill(w World, c model.Combatant, activated model.ActivatedSkill, target model.Combatant, targetID uint32, now int64, params model.BaseAIParams) {
	entity := c.Base()
	ais := c.AIInfo()

	if entity.Lock() == model.LockCharging {
		return
	}

	if waitStart := ais.SkillWaitStart(); waitStart != 0 {
		limit := waitStart + skillWaitCancelCycles*params.ThinkSpeedMS
		if now > limit && rand.IntN(2) == 0 {
			ais.SetSkillWaitStart(0)
			w.CancelSkill(entity.ID(), activated.SkillID)
			ais.ClearActivated()
			return
		}

		if params.DefensiveDistance > 0 {
			if mv := Circle(w, entity, target.Base().Position(now), targetID, params.DefensiveDistance, now); mv != nil {
				ais.Queue().Push(mv)
			}
		}
		ais.Queue().Push(&model.WaitCommand{DurationMS: params.ThinkSpeedMS})
		return
	}

	if activated.TargetID != 0 && activated.TargetID != targetID {
		// The aggro target changed mid-cast: retarget the skill in place
		// rather than cancelling it.
		ais.SetActivated(model.ActivatedSkill{SkillID: activated.SkillID, TargetID: targetID})
		w.RetargetSkill(entity.ID(), activated.SkillID, targetID)
		return
	}

	def, ok := w.SkillDefinition(activated.SkillID)
	if !ok {
		w.CancelSkill(entity.ID(), activated.SkillID)
		ais.ClearActivated()
		return
	}

	switch SkillAdvance(w, c, def, targetID, now) {
	case 0:
		// Moving into range; SkillAdvance already queued the chase.
		return
	case 1:
		// Could not move: retry is not allowed, cancel and reset.
		w.CancelSkill(entity.ID(), activated.SkillID)
		ais.ClearActivated()
		return
	default: // 2: already in range
		ais.Queue().Push(&model.UseSkillCommand{SkillID: activated.SkillID, TargetID: targetID, Activated: true})
	}
}

// dropAggro clears the current aggro target and, if the entity has a
// defensive distance configured, queues a retreat to it.
func dropAggro(w World, c model.Combatant, params model.BaseAIParams, now int64) {
	entity := c.Base()
	targetID := entity.AggroTarget()
	target, hadTarget := w.Combatant(targetID)
	UpdateAggro(w, c, 0)
	if hadTarget && params.DefensiveDistance > 0 {
		if mv, ok := Retreat(entity, target.Base().Position(now), 0, params.DefensiveDistance, now); ok {
			c.AIInfo().Queue().Push(mv)
		}
	}
}

// CombatSkillHit is invoked by the external combat resolution system when
// c takes a hit from source's skillID. It runs the "combatSkillHit" action
// override, if any.
//
// The condition below preserves a tautology (status == Idle && status ==
// Wandering can never both hold, so the branch never executes); the
// likely intent was status == Idle || status == Wandering, but this is
// left as-is rather than silently fixed — noted under SUPPLEMENTED
// FEATURES in SPEC_FULL.md.
func CombatSkillHit(c model.Combatant, source uint32, skillID int32, now int64) int32 {
	ais := c.AIInfo()
	status := ais.Status()
	if status == model.StatusIdle && status == model.StatusWandering {
		return 0
	}

	handle := ais.Script()
	if handle == nil {
		return 1
	}
	result, defined, err := handle.CallAction("combatSkillHit", model.ScriptContext{
		SourceID: source,
		SkillID:  skillID,
		Now:      now,
		HPRatio:  c.Base().HPRatio(),
	})
	if err != nil || !defined {
		return 1
	}
	return result
}
