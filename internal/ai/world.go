package ai

import (
	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
)

// SkillWeightConfig carries the server-wide skill selection weight
// constants as a value threaded in at construction time. There is no
// call-site for mutation after startup.
type SkillWeightConfig struct {
	Charge int32 // added when a skill has no charge time
	Cost   int32 // added when a skill is free
	Heal   int32 // added to heal skills
	Range  int32 // added to ranged (ranged-enemy) skills
}

// World is the zone-scoped collaborator the AI engine reaches through for
// everything outside one entity's own state: other entities, geometry, and
// the zone's feature toggles. internal/zone implements it; this package
// never imports internal/zone directly, avoiding an import cycle.
type World interface {
	// Combatant resolves an enemy or ally by id.
	Combatant(id uint32) (model.Combatant, bool)
	// EntitiesInRange returns every active entity id within radius of
	// center, including players — candidates for targeting.
	EntitiesInRange(center model.Point, radius float64) []uint32
	// Position resolves any active entity's current position, not just
	// combatants (players included).
	Position(id uint32) (model.Point, bool)
	// Entity resolves the shared kinematic/combat base for any active
	// entity in the zone — enemy, ally, or player — so aggressor
	// bookkeeping ("E has aggro target T ⇒ E is in T's aggressor set")
	// applies symmetrically regardless of what kind of entity T turns out
	// to be.
	Entity(id uint32) (*model.ActiveEntity, bool)
	// Geometry returns the zone's barrier set, or nil if the zone has none.
	Geometry() *geo.Geometry
	Disabled() geo.DisabledSet
	// AggroLevelLimitEnabled reports the server-wide feature toggle that
	// caps how many pursuers may chase one target at once.
	AggroLevelLimitEnabled() bool
	// FoVHalfAngle is the stage-wide targeting field of view, in radians,
	// measured from the entity's facing direction to either side.
	FoVHalfAngle() float64
	// Despawn marks an entity for removal at the end of the tick.
	Despawn(id uint32)
	// Activated broadcasts an "activated" notification for an enemy/ally
	// entityID. Clients use it to orient the model on target acquisition
	// (targetID != 0) or loss (targetID == 0).
	Activated(entityID, targetID uint32)

	// WanderTarget samples a random point within c's spawn location
	// rectangle or spawn spot's rotated rectangle. False if c has neither.
	WanderTarget(c model.Combatant) (model.Point, bool)
	// SpawnOrigin returns the point c should walk back toward when it has
	// wandered outside its spawn region with a despawn timer running.
	SpawnOrigin(c model.Combatant) (model.Point, bool)
	// InSpawnRegion reports whether p lies within c's spawn location or
	// spot.
	InSpawnRegion(c model.Combatant, p model.Point) bool

	// EntitySkillIDs returns the skill ids c's devil/NPC definition grants
	// it, for RefreshSkillMap to bucket.
	EntitySkillIDs(c model.Combatant) []int32
	// SkillDefinition resolves one skill's cached definition. Zones
	// preload/cache these per entity roster at spawn time so the hot tick
	// path never blocks on the definition store.
	SkillDefinition(skillID int32) (data.SkillData, bool)
	// SkillFunctionSupported reports whether functionID is one the skill
	// engine knows how to classify and use. Unsupported skills are dropped
	// from the map during RefreshSkillMap.
	SkillFunctionSupported(functionID int32) bool
	// SkillWeights returns the server-wide skill selection weight config.
	SkillWeights() SkillWeightConfig

	// ActivateSkill asks the external combat resolution system to begin
	// casting skillID from c at target. Returns
	// SkillResultOK once casting has started, SkillResultRetry for
	// transient ACTION_RETRY/TOO_FAR conditions, or SkillResultFailed for
	// anything else.
	ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) SkillResult
	// ExecuteSkill resolves an already-activated skill's effect.
	ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) SkillResult
	// CancelSkill aborts an in-flight activation, e.g. because its target
	// became invalid mid-cast.
	CancelSkill(entityID uint32, skillID int32)
	// RetargetSkill repoints an already-activated skill at a new target
	// without cancelling the cast, e.g. when the aggro target changes
	// mid-activation.
	RetargetSkill(entityID uint32, skillID int32, targetID uint32)
}

// SkillResult is the outcome of a skill activation or execution attempt.
type SkillResult int32

const (
	SkillResultOK SkillResult = iota
	SkillResultRetry
	SkillResultFailed
)
