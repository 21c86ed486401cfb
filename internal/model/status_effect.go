package model

// CancelType is a bitmask of real-world events that cancel a status effect.
type CancelType uint32

const (
	CancelZoneChange CancelType = 1 << iota
	CancelLogout
	CancelDamage
	CancelKnockback
	CancelDeath
	CancelSkillUse
	CancelNone CancelType = 0
)

// StatusEffect is a single buff/debuff/DoT instance applied to an entity.
type StatusEffect struct {
	ID             int32
	StackCount     int32
	ExpirationTime int64 // server ticks; ignored when Constant is true
	Constant       bool
	CancelOn       CancelType
}

// Expired reports whether the effect's timer has elapsed by `now`.
// Constant effects never expire on their own.
func (e *StatusEffect) Expired(now int64) bool {
	if e.Constant {
		return false
	}
	return now >= e.ExpirationTime
}

// CancelsOn reports whether event `ev` removes this effect.
func (e *StatusEffect) CancelsOn(ev CancelType) bool {
	return e.CancelOn&ev != 0
}

// StatusEffectMap tracks the status effects currently applied to one entity,
// keyed by effect id. A second application of the same id restacks (bumps
// the stack count) rather than duplicating the entry.
type StatusEffectMap struct {
	effects map[int32]*StatusEffect
}

// NewStatusEffectMap returns an empty map.
func NewStatusEffectMap() *StatusEffectMap {
	return &StatusEffectMap{effects: make(map[int32]*StatusEffect)}
}

// Add applies or restacks an effect.
func (m *StatusEffectMap) Add(e *StatusEffect) {
	if existing, ok := m.effects[e.ID]; ok {
		existing.StackCount++
		existing.ExpirationTime = e.ExpirationTime
		existing.Constant = e.Constant
		return
	}
	m.effects[e.ID] = e
}

// Remove clears a specific effect id.
func (m *StatusEffectMap) Remove(id int32) {
	delete(m.effects, id)
}

// Cancel removes every effect that cancels on the given event, returning the
// removed ids so the caller can emit REMOVE_STATUS_EFFECT notifications.
func (m *StatusEffectMap) Cancel(ev CancelType) []int32 {
	var removed []int32
	for id, e := range m.effects {
		if e.CancelsOn(ev) {
			removed = append(removed, id)
			delete(m.effects, id)
		}
	}
	return removed
}

// ExpireElapsed removes effects whose timer has passed `now` and returns
// their ids.
func (m *StatusEffectMap) ExpireElapsed(now int64) []int32 {
	var expired []int32
	for id, e := range m.effects {
		if e.Expired(now) {
			expired = append(expired, id)
			delete(m.effects, id)
		}
	}
	return expired
}

// Has reports whether the given effect id is currently applied.
func (m *StatusEffectMap) Has(id int32) bool {
	_, ok := m.effects[id]
	return ok
}

// All returns every currently-applied effect. Callers must not mutate the
// returned slice's backing effects' identity (StackCount/Expiration are
// mutated in place by Add).
func (m *StatusEffectMap) All() []*StatusEffect {
	out := make([]*StatusEffect, 0, len(m.effects))
	for _, e := range m.effects {
		out = append(out, e)
	}
	return out
}
