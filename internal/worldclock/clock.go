// Package worldclock is the shared in-game/real-time clock value that zone
// triggers and spawn restrictions evaluate against. It is computed once per
// scheduler pass and threaded to every zone, so every zone's tick within
// the same pass observes the same clock sample.
package worldclock

// Clock is one sample of the engine-wide clock.
type Clock struct {
	GameMinute int32 // minutes since in-game midnight, wraps at 1440
	MoonPhase  int32 // 0-15, wraps
	RealMinute int32 // minutes since real-world midnight, wraps at 1440
	Weekday    int32 // 0=Sunday .. 6=Saturday
	Date       string // "YYYY-MM-DD"
}

// InWindow reports whether the clock's minute-of-day value v falls within
// [from, to) with to stored as end+1 minute, handling the case where the
// window wraps past midnight (from > to).
func InWindow(v, from, to int32) bool {
	if from == to {
		return true // a zero-width window is unrestricted
	}
	if from < to {
		return v >= from && v < to
	}
	return v >= from || v < to // wraps midnight
}

// Crossed reports whether advancing from `prev` to `cur` on a clock that
// wraps at `modulus` passed through `target`, handling single-step
// rollover cases (phase 15→0, hour 23→0) as well as the general
// multi-step case a catch-up tick might produce.
func Crossed(prev, cur, target, modulus int32) bool {
	if prev == cur {
		return false
	}
	span := cur - prev
	if span < 0 {
		span += modulus
	}
	offset := target - prev
	if offset < 0 {
		offset += modulus
	}
	return offset > 0 && offset <= span
}
