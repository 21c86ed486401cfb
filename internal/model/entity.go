package model

import "sync"

// DisplayState tracks whether clients have been told this entity exists yet.
type DisplayState int32

const (
	DisplayNotSent DisplayState = iota
	DisplayAwaitingSummon
	DisplaySent
	DisplayActive
)

// ActiveEntity is the base for any entity with kinematics and combat state:
// players, enemies, allies, NPCs.
//
// Zone ownership is a non-owning back-reference: the entity
// stores its zone's id, not a pointer, and every opponents/aggressors lookup
// re-resolves through the owning zone's registry. This avoids the
// cyclic-ownership problem a pointer back-reference would create.
type ActiveEntity struct {
	mu sync.RWMutex

	id     uint32
	zoneID int32 // 0 = not currently attached to any zone

	origin      Placement
	destination Placement
	moveSpeed   float32

	hp, maxHP int32
	mp, maxMP int32
	level     int32

	statusEffects *StatusEffectMap

	opponents  map[uint32]struct{}
	aggressors map[uint32]struct{}
	aggroTarget uint32

	display DisplayState

	faction   int32
	aiIgnored bool
	lock      LockState
}

// LockState captures the reasons an entity cannot act or move this tick.
type LockState int32

const (
	LockNone LockState = iota
	LockStunned
	LockCharging
	LockFixed     // bound, sleeping, or otherwise frozen in place
	LockKnockback // airborne; motion is not capped like other locks
)

// NewActiveEntity constructs an entity with a freshly minted id.
func NewActiveEntity(level int32, maxHP, maxMP int32, moveSpeed float32) *ActiveEntity {
	return &ActiveEntity{
		id:            NextEntityID(),
		hp:            maxHP,
		maxHP:         maxHP,
		mp:            maxMP,
		maxMP:         maxMP,
		level:         level,
		moveSpeed:     moveSpeed,
		statusEffects: NewStatusEffectMap(),
		opponents:     make(map[uint32]struct{}),
		aggressors:    make(map[uint32]struct{}),
	}
}

// ID returns the entity's process-wide unique id.
func (e *ActiveEntity) ID() uint32 { return e.id }

// ZoneID returns the id of the zone currently owning this entity, or 0.
func (e *ActiveEntity) ZoneID() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.zoneID
}

// SetZoneID attaches (or detaches, with 0) the entity to a zone.
func (e *ActiveEntity) SetZoneID(id int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.zoneID = id
}

// Position returns the entity's current interpolated position.
func (e *ActiveEntity) Position(now int64) Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	x, y, _ := InterpolatePosition(e.origin, e.destination, now)
	return Point{X: x, Y: y}
}

// Rotation returns the entity's current interpolated rotation.
func (e *ActiveEntity) Rotation(now int64) float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, _, rot := InterpolatePosition(e.origin, e.destination, now)
	return rot
}

// Origin returns the movement's start placement.
func (e *ActiveEntity) Origin() Placement {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.origin
}

// Destination returns the movement's end placement.
func (e *ActiveEntity) Destination() Placement {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.destination
}

// IsMoving reports whether origin and destination differ in position.
func (e *ActiveEntity) IsMoving() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.origin.X != e.destination.X || e.origin.Y != e.destination.Y
}

// SetMovement commits a new origin→destination interpolation window.
func (e *ActiveEntity) SetMovement(origin, destination Placement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.origin = origin
	e.destination = destination
}

// StopAt freezes the entity at its interpolated position for `now`,
// collapsing origin and destination to the same point.
func (e *ActiveEntity) StopAt(now int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	x, y, rot := InterpolatePosition(e.origin, e.destination, now)
	p := Placement{X: x, Y: y, Rotation: rot, Ticks: now}
	e.origin = p
	e.destination = p
}

// MoveSpeed returns the entity's movement speed in units/second.
func (e *ActiveEntity) MoveSpeed() float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.moveSpeed
}

// HP / MP accessors.

func (e *ActiveEntity) HP() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hp
}

func (e *ActiveEntity) MaxHP() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maxHP
}

func (e *ActiveEntity) MP() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mp
}

func (e *ActiveEntity) MaxMP() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.maxMP
}

func (e *ActiveEntity) Level() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

func (e *ActiveEntity) SetHP(hp int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hp < 0 {
		hp = 0
	}
	if hp > e.maxHP {
		hp = e.maxHP
	}
	e.hp = hp
}

func (e *ActiveEntity) SetMP(mp int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mp < 0 {
		mp = 0
	}
	if mp > e.maxMP {
		mp = e.maxMP
	}
	e.mp = mp
}

// IsAlive reports whether the entity still has HP.
func (e *ActiveEntity) IsAlive() bool {
	return e.HP() > 0
}

// HPRatio returns current/max HP in [0,1]. Used by the heal threshold check.
func (e *ActiveEntity) HPRatio() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.maxHP <= 0 {
		return 0
	}
	return float64(e.hp) / float64(e.maxHP)
}

// StatusEffects returns the entity's status effect map.
func (e *ActiveEntity) StatusEffects() *StatusEffectMap {
	return e.statusEffects
}

// Display returns the current client-visibility state.
func (e *ActiveEntity) Display() DisplayState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.display
}

// SetDisplay updates the client-visibility state.
func (e *ActiveEntity) SetDisplay(d DisplayState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.display = d
}

// AggroTarget returns the id of the entity currently being targeted, or 0.
func (e *ActiveEntity) AggroTarget() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.aggroTarget
}

// SetAggroTarget sets the targeted entity id directly. Prefer UpdateAggro
// (internal/ai) which keeps the symmetric aggressor set in sync.
func (e *ActiveEntity) SetAggroTarget(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggroTarget = id
}

// Opponents returns a snapshot of opponent entity ids.
func (e *ActiveEntity) Opponents() []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]uint32, 0, len(e.opponents))
	for id := range e.opponents {
		out = append(out, id)
	}
	return out
}

// HasOpponent reports whether id is a current opponent.
func (e *ActiveEntity) HasOpponent(id uint32) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.opponents[id]
	return ok
}

// addOpponent / removeOpponent are the one-sided halves of the symmetric
// update; callers (AddRemoveOpponent below) apply both sides under a
// stable id ordering to avoid deadlock.
func (e *ActiveEntity) addOpponent(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opponents[id] = struct{}{}
}

func (e *ActiveEntity) removeOpponent(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.opponents, id)
}

// OpponentCount returns the number of current opponents.
func (e *ActiveEntity) OpponentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.opponents)
}

// Aggressors returns a snapshot of the entities currently pursuing this one.
func (e *ActiveEntity) Aggressors() []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]uint32, 0, len(e.aggressors))
	for id := range e.aggressors {
		out = append(out, id)
	}
	return out
}

func (e *ActiveEntity) addAggressor(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggressors[id] = struct{}{}
}

func (e *ActiveEntity) removeAggressor(id uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.aggressors, id)
}

// AddRemoveOpponent applies (or removes) a symmetric opponent relationship
// between a and b, locking in ascending-id order to avoid deadlock when two
// goroutines touch the same pair from opposite ends.
//
// Only a and b are linked/unlinked; a character or partner demon paired
// with either side is not.
func AddRemoveOpponent(add bool, a, b *ActiveEntity) {
	if a == nil || b == nil || a.id == b.id {
		return
	}
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	if add {
		first.addOpponent(second.id)
		second.addOpponent(first.id)
	} else {
		first.removeOpponent(second.id)
		second.removeOpponent(first.id)
	}
}

// Faction returns the entity's faction id, used to exclude same-faction
// candidates from targeting.
func (e *ActiveEntity) Faction() int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.faction
}

// SetFaction sets the entity's faction id.
func (e *ActiveEntity) SetFaction(f int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faction = f
}

// AIIgnored reports whether AI should never target or act against this
// entity (GM invisibility, scripted cutscene actors, and the like).
func (e *ActiveEntity) AIIgnored() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.aiIgnored
}

// SetAIIgnored configures the AI-ignore flag.
func (e *ActiveEntity) SetAIIgnored(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aiIgnored = v
}

// Lock returns the entity's current action/movement lock, if any.
func (e *ActiveEntity) Lock() LockState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lock
}

// SetLock configures the entity's action/movement lock.
func (e *ActiveEntity) SetLock(l LockState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lock = l
}

// CanAct reports whether the entity is free to process AI commands this
// tick. Locked entities (stunned, charging, fixed, knocked back) cannot.
func (e *ActiveEntity) CanAct() bool {
	return e.Lock() == LockNone
}

// Ready reports whether the entity is alive and fully visible to clients —
// the baseline an AI candidate must meet before distance/FoV/faction
// filters are even considered.
func (e *ActiveEntity) Ready() bool {
	return e.IsAlive() && e.Display() == DisplayActive
}

// UpdateAggressor adds or removes `pursuer` from `target`'s aggressor set.
// Kept separate from AddRemoveOpponent because aggression is directional
// (pursuer → target) while opponents is symmetric.
func UpdateAggressor(add bool, pursuer, target *ActiveEntity) {
	if pursuer == nil || target == nil {
		return
	}
	if add {
		target.addAggressor(pursuer.id)
	} else {
		target.removeAggressor(pursuer.id)
	}
}
