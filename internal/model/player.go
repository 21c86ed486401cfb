package model

// Player is a connected character's live, in-zone entity. It is the
// non-AI-controlled counterpart to Enemy/Ally: the AI engine targets it
// through EntitiesInRange/Position like any other ActiveEntity, but it has
// no AIState and is never driven by UpdateState.
type Player struct {
	*ActiveEntity
	CharacterID int64
}

// NewPlayer constructs a Player with a fresh entity id.
func NewPlayer(characterID int64, level, maxHP, maxMP int32, moveSpeed float32) *Player {
	return &Player{
		ActiveEntity: NewActiveEntity(level, maxHP, maxMP, moveSpeed),
		CharacterID:  characterID,
	}
}
