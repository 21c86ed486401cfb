package zone

import (
	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/worldclock"
)

// clockState is the last clock sample the zone evaluated triggers against,
// so time-based triggers can detect a crossing rather than just a level.
type clockState struct {
	have bool
	last worldclock.Clock
}

// FiredTrigger is one trigger that matched this clock advance or event,
// ready for the spawn manager / caller to act on.
type FiredTrigger struct {
	Def      data.TriggerDef
	Subject  uint32 // originating entity id, for zone-in/out/spawn/death/revival
}

// EvaluateClock advances the zone's clock state and returns every
// on-time/on-system-time/on-moon-phase trigger whose target value was
// crossed since the last evaluation, using a rollover-aware firing rule.
func (z *Zone) EvaluateClock(clock worldclock.Clock) []FiredTrigger {
	z.mu.Lock()
	prev := z.clock
	z.clock.have = true
	z.clock.last = clock
	triggers := z.triggers
	z.mu.Unlock()

	if !prev.have {
		return nil
	}

	var fired []FiredTrigger
	for _, t := range triggers {
		switch t.Event {
		case data.TriggerOnTime:
			if worldclock.Crossed(prev.last.GameMinute, clock.GameMinute, int32(t.TargetValue), 1440) {
				fired = append(fired, FiredTrigger{Def: t})
			}
		case data.TriggerOnSystemTime:
			if worldclock.Crossed(prev.last.RealMinute, clock.RealMinute, int32(t.TargetValue), 1440) {
				fired = append(fired, FiredTrigger{Def: t})
			}
		case data.TriggerOnMoonPhase:
			if worldclock.Crossed(prev.last.MoonPhase, clock.MoonPhase, int32(t.TargetValue), 16) {
				fired = append(fired, FiredTrigger{Def: t})
			}
		}
	}
	return fired
}

// EventTriggers returns the zone's registered triggers for a non-clock
// event (zone-in, zone-out, spawn, death, revival), bound to subject.
func (z *Zone) EventTriggers(event data.TriggerEvent, subject uint32) []FiredTrigger {
	z.mu.RLock()
	defer z.mu.RUnlock()
	var fired []FiredTrigger
	for _, t := range z.triggers {
		if t.Event == event {
			fired = append(fired, FiredTrigger{Def: t, Subject: subject})
		}
	}
	return fired
}

// FlagTriggers returns every on-flag-set trigger keyed to flagKey.
func (z *Zone) FlagTriggers(flagKey string) []FiredTrigger {
	z.mu.RLock()
	defer z.mu.RUnlock()
	var fired []FiredTrigger
	for _, t := range z.triggers {
		if t.Event == data.TriggerOnFlagSet && t.FlagKey == flagKey {
			fired = append(fired, FiredTrigger{Def: t})
		}
	}
	return fired
}

// RestrictionSatisfied reports whether r's clock conditions all match
// clock: moon phase, game-time window, real-time window, day-of-week, and
// date list must ALL match (a nil restriction always matches).
func RestrictionSatisfied(r *data.SpawnRestrictionDef, clock worldclock.Clock) bool {
	if r == nil {
		return true
	}
	if r.MoonPhaseMask != 0 && r.MoonPhaseMask&(1<<uint(clock.MoonPhase)) == 0 {
		return false
	}
	if r.GameTimeFrom != 0 || r.GameTimeTo != 0 {
		if !worldclock.InWindow(clock.GameMinute, r.GameTimeFrom, r.GameTimeTo) {
			return false
		}
	}
	if r.RealTimeFrom != 0 || r.RealTimeTo != 0 {
		if !worldclock.InWindow(clock.RealMinute, r.RealTimeFrom, r.RealTimeTo) {
			return false
		}
	}
	if r.DayOfWeekMask != 0 && r.DayOfWeekMask&(1<<uint(clock.Weekday)) == 0 {
		return false
	}
	if len(r.Dates) > 0 {
		found := false
		for _, d := range r.Dates {
			if d == clock.Date {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
