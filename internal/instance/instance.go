// Package instance implements ZoneInstance: a private grouping of zones
// shared by an access set of character ids, with the Normal/TimeTrial/
// DemonOnly timer variants and their teardown rules, driven by a
// count-up/count-down timer state machine rather than a flat
// empty-timeout destroy timer.
package instance

import (
	"sync"

	"github.com/shirolong/channelcore/internal/data"
)

// TimerState is the instance timer's lifecycle state.
type TimerState int32

const (
	TimerNotStarted TimerState = iota
	TimerRunning
	TimerStoppedSuccess
	TimerStoppedFail
	TimerExpired
)

func (s TimerState) String() string {
	switch s {
	case TimerNotStarted:
		return "NotStarted"
	case TimerRunning:
		return "Running"
	case TimerStoppedSuccess:
		return "StoppedSuccess"
	case TimerStoppedFail:
		return "StoppedFail"
	case TimerExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// TimerColor is the DemonOnly timer's difficulty tier, carried by timerId:
// for DemonOnly, timerId is the timer's color. The color-to-reward-
// multiplier mapping is recorded as an Open Question decision in
// DESIGN.md.
type TimerColor int32

const (
	TimerBronze TimerColor = iota
	TimerSilver
	TimerGold
)

// spRewardMultiplier scales a DemonOnly instance's fixed SP reward by the
// timer color its party committed to.
var spRewardMultiplier = map[TimerColor]float64{
	TimerBronze: 1.0,
	TimerSilver: 1.5,
	TimerGold:   2.0,
}

// DemonRank is a completed DemonOnly run's scored tier.
type DemonRank int32

const (
	DemonRankC DemonRank = iota
	DemonRankB
	DemonRankA
)

func (r DemonRank) String() string {
	switch r {
	case DemonRankA:
		return "A"
	case DemonRankB:
		return "B"
	default:
		return "C"
	}
}

// ZoneInstance is a private grouping of zones shared by an access set.
// Safe for concurrent use.
type ZoneInstance struct {
	mu sync.RWMutex

	id           int32
	definitionID int32
	variantID    int32
	variant      *data.ZoneInstanceVariantData

	timerID           int32
	timerColor        TimerColor
	expirationEventID int32

	// access is the live accessor set; originalAccess is the creation-time
	// snapshot used for DemonOnly's party-size difficulty scaling, which
	// must not shrink if a member later leaves access.
	access         map[int64]struct{}
	originalAccess map[int64]struct{}

	zoneIDs []int32

	timerState          TimerState
	timerStartAt        int64
	timerExpireAt       int64
	timerStopAt         int64
	timeLimitSec        int64 // Normal
	adjustedDurationSec int64 // DemonOnly, after party-size reduction
}

// ID returns the instance's process-wide unique id.
func (zi *ZoneInstance) ID() int32 { return zi.id }

// DefinitionID returns the ZoneInstanceData id this instance was created from.
func (zi *ZoneInstance) DefinitionID() int32 { return zi.definitionID }

// VariantType reports which InstanceType variant this instance runs, or
// false if none was selected.
func (zi *ZoneInstance) VariantType() (data.InstanceVariantType, bool) {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	if zi.variant == nil {
		return 0, false
	}
	return zi.variant.Type, true
}

// ExpirationEventID returns the event id to fire when a Normal instance's
// timer expires, or 0.
func (zi *ZoneInstance) ExpirationEventID() int32 {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return zi.expirationEventID
}

// ZoneIDs returns the live zones this instance owns.
func (zi *ZoneInstance) ZoneIDs() []int32 {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	out := make([]int32, len(zi.zoneIDs))
	copy(out, zi.zoneIDs)
	return out
}

// AttachZone registers a zone id as owned by this instance.
func (zi *ZoneInstance) AttachZone(zoneID int32) {
	zi.mu.Lock()
	defer zi.mu.Unlock()
	for _, id := range zi.zoneIDs {
		if id == zoneID {
			return
		}
	}
	zi.zoneIDs = append(zi.zoneIDs, zoneID)
}

// HasAccess reports whether characterID is in the live access set.
func (zi *ZoneInstance) HasAccess(characterID int64) bool {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	_, ok := zi.access[characterID]
	return ok
}

// AccessCIDs returns a snapshot of the live access set.
func (zi *ZoneInstance) AccessCIDs() []int64 {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	out := make([]int64, 0, len(zi.access))
	for cid := range zi.access {
		out = append(out, cid)
	}
	return out
}

// RevokeAccess removes characterID from the live access set without
// touching the live instance itself: a user-facing "leave access" revokes
// only the access grant, not the live instance.
func (zi *ZoneInstance) RevokeAccess(characterID int64) {
	zi.mu.Lock()
	defer zi.mu.Unlock()
	delete(zi.access, characterID)
}

// OriginalPartySize returns the accessor count at creation time, used by
// DemonOnly's duration-reduction formula so a member leaving mid-run
// doesn't retroactively change the clock.
func (zi *ZoneInstance) OriginalPartySize() int {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return len(zi.originalAccess)
}

// TimerState returns the timer's current lifecycle state.
func (zi *ZoneInstance) TimerState() TimerState {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return zi.timerState
}

// TimerExpireAt returns the timestamp the timer is due to expire, or 0 if
// no timer is configured.
func (zi *ZoneInstance) TimerExpireAt() int64 {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return zi.timerExpireAt
}

// Eligible for teardown iff the access set is empty and no zone has a
// connection left; the connection check is the caller's (scheduler's)
// responsibility since only it knows each zone's connection list.
func (zi *ZoneInstance) AccessEmpty() bool {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return len(zi.access) == 0
}
