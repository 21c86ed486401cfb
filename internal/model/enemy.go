package model

// EnemyBase is composed into Enemy and Ally. It carries the
// spawn provenance an AI-controlled entity needs to wander home, report its
// encounter group, and pick the correct AI script.
type EnemyBase struct {
	SpawnSourceID      int64 // points at the owning spawn.Spawn (external)
	SpawnGroupID       int32
	SpawnLocationGroupID int32
	SpawnSpotID        int32
	EncounterID        int32 // 0 = not part of a tagged encounter
	VariantType        int32
}

// Enemy is a hostile AI-controlled entity.
type Enemy struct {
	*ActiveEntity
	EnemyBase
	DevilID  int32 // definition store key (DevilData)
	AI       *AIState
}

// NewEnemy constructs an Enemy with a fresh entity id and attached AIState.
func NewEnemy(devilID int32, level, maxHP, maxMP int32, moveSpeed float32) *Enemy {
	e := &Enemy{
		ActiveEntity: NewActiveEntity(level, maxHP, maxMP, moveSpeed),
		DevilID:      devilID,
	}
	e.AI = NewAIState(e.ActiveEntity)
	return e
}

// Base returns the underlying kinematic/combat entity.
func (e *Enemy) Base() *ActiveEntity { return e.ActiveEntity }

// AIInfo returns the attached AI state machine.
func (e *Enemy) AIInfo() *AIState { return e.AI }

// SpawnInfo returns the spawn provenance used by Wander/despawn logic.
func (e *Enemy) SpawnInfo() EnemyBase { return e.EnemyBase }

// IsAlly reports whether this combatant assists an owner rather than
// acquiring aggro independently.
func (e *Enemy) IsAlly() bool { return false }

// DevilKey returns the definition-store key identifying this combatant's
// demon/NPC definition.
func (e *Enemy) DevilKey() int32 { return e.DevilID }

// Ally is a friendly AI-controlled entity (partner demon, summoned ally).
// It shares the same state machine as Enemy but defaults to assisting its
// owner's opponents rather than acquiring its own aggro independently.
type Ally struct {
	*ActiveEntity
	EnemyBase
	DevilID int32
	OwnerID uint32 // the player/character this ally is bound to
	AI      *AIState
}

// NewAlly constructs an Ally with a fresh entity id and attached AIState.
func NewAlly(devilID int32, ownerID uint32, level, maxHP, maxMP int32, moveSpeed float32) *Ally {
	a := &Ally{
		ActiveEntity: NewActiveEntity(level, maxHP, maxMP, moveSpeed),
		DevilID:      devilID,
		OwnerID:      ownerID,
	}
	a.AI = NewAIState(a.ActiveEntity)
	return a
}

// Base returns the underlying kinematic/combat entity.
func (a *Ally) Base() *ActiveEntity { return a.ActiveEntity }

// AIInfo returns the attached AI state machine.
func (a *Ally) AIInfo() *AIState { return a.AI }

// SpawnInfo returns the spawn provenance used by Wander/despawn logic.
func (a *Ally) SpawnInfo() EnemyBase { return a.EnemyBase }

// IsAlly reports whether this combatant assists an owner rather than
// acquiring aggro independently.
func (a *Ally) IsAlly() bool { return true }

// DevilKey returns the definition-store key identifying this combatant's
// demon/NPC definition.
func (a *Ally) DevilKey() int32 { return a.DevilID }

// Combatant is the common surface Enemy and Ally expose to the AI engine.
type Combatant interface {
	Base() *ActiveEntity
	AIInfo() *AIState
	SpawnInfo() EnemyBase
	IsAlly() bool
	DevilKey() int32
}

var (
	_ Combatant = (*Enemy)(nil)
	_ Combatant = (*Ally)(nil)
)
