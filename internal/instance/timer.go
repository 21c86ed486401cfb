package instance

import "github.com/shirolong/channelcore/internal/data"

// demonReduction is applied to the DemonOnly duration formula when no
// explicit reduction is configured for the instance: reduction =
// explicit or floor(base/600)*30. This core has no per-instance
// explicit-reduction data source, so every DemonOnly instance uses the
// derived value; recorded in DESIGN.md as an Open Question decision.
func demonReduction(baseDurationSec int64) int64 {
	return (baseDurationSec / 600) * 30
}

// partyBoost is DemonOnly's SP scaling factor: 1 + 0.1*(partySize-1).
func partyBoost(partySize int) float64 {
	return 1 + 0.1*float64(partySize-1)
}

// TimerResult is the outcome of starting, stopping, or expiring an
// instance timer — enough for the caller to compose the TIME_TRIAL_END /
// DEMON_SOLO_END / TIME_LIMIT_END packets.
type TimerResult struct {
	Success      bool
	ElapsedSec   int64
	RemainingSec int64
	Rank         DemonRank // meaningful only for DemonOnly
	SPGain       int64     // meaningful only for DemonOnly
}

// startTimer begins the count-up/count-down clock. Normal uses its
// time-limit definition (0 = no timer configured, never expires);
// TimeTrial counts up against timePoints[0]; DemonOnly's duration is
// reduced by party size.
func (zi *ZoneInstance) startTimer(now int64) error {
	zi.mu.Lock()
	defer zi.mu.Unlock()
	if zi.timerState != TimerNotStarted {
		return ErrTimerAlreadyStarted
	}
	zi.timerStartAt = now
	zi.timerState = TimerRunning

	if zi.variant == nil {
		if zi.timeLimitSec > 0 {
			zi.timerExpireAt = now + zi.timeLimitSec*1000
		}
		return nil
	}

	switch zi.variant.Type {
	case data.InstanceNormal:
		if zi.timeLimitSec > 0 {
			zi.timerExpireAt = now + zi.timeLimitSec*1000
		}
	case data.InstanceTimeTrial:
		zi.timerExpireAt = now + zi.variant.TimePoints[0]*1000
	case data.InstanceDemonOnly:
		base := zi.variant.TimePoints[0]
		reduction := demonReduction(base)
		partySize := len(zi.originalAccess)
		adjusted := base - int64(partySize-1)*reduction
		if adjusted < 0 {
			adjusted = 0
		}
		zi.adjustedDurationSec = adjusted
		zi.timerExpireAt = now + adjusted*1000
	}
	return nil
}

// Stop records an explicit stop (success or failure) at `now`, computing
// the TimeTrial/DemonOnly rank and reward. Implements the
// NotStarted--start-->Running--stop-->Stopped(success|fail) transition.
func (zi *ZoneInstance) Stop(now int64, success bool) (TimerResult, error) {
	zi.mu.Lock()
	defer zi.mu.Unlock()
	if zi.timerState != TimerRunning {
		return TimerResult{}, ErrTimerNotRunning
	}
	zi.timerStopAt = now
	elapsed := (now - zi.timerStartAt) / 1000

	if !success {
		zi.timerState = TimerStoppedFail
		return TimerResult{Success: false, ElapsedSec: elapsed}, nil
	}
	zi.timerState = TimerStoppedSuccess

	result := TimerResult{Success: true, ElapsedSec: elapsed}
	if zi.variant == nil {
		return result, nil
	}
	switch zi.variant.Type {
	case data.InstanceTimeTrial:
		result.Rank = timeTrialRank(elapsed, zi.variant.TimePoints)
	case data.InstanceDemonOnly:
		remaining := zi.adjustedDurationSec - elapsed
		if remaining < 0 {
			remaining = 0
		}
		result.RemainingSec = remaining
		result.Rank = demonRank(remaining, zi.variant.TimePoints)
		result.SPGain = demonSPGain(zi.variant.FixedReward, remaining, zi.adjustedDurationSec, len(zi.originalAccess), zi.timerColor)
	}
	return result, nil
}

// Expire marks the timer Expired at `now` (the scheduler calls this once
// `now` crosses timerExpireAt). TimeTrial is marked failed; DemonOnly
// still computes a rank/reward with zero time remaining — leftover 0
// still ranks C and awards the flat fixedReward; Normal has no
// rank/reward, only the expiration event.
func (zi *ZoneInstance) Expire(now int64) TimerResult {
	zi.mu.Lock()
	defer zi.mu.Unlock()
	zi.timerState = TimerExpired
	elapsed := (now - zi.timerStartAt) / 1000

	result := TimerResult{Success: false, ElapsedSec: elapsed}
	if zi.variant == nil {
		return result
	}
	switch zi.variant.Type {
	case data.InstanceTimeTrial:
		// Rank stays at the zero value; the run failed to finish in time.
	case data.InstanceDemonOnly:
		result.Rank = demonRank(0, zi.variant.TimePoints)
		result.SPGain = demonSPGain(zi.variant.FixedReward, 0, zi.adjustedDurationSec, len(zi.originalAccess), zi.timerColor)
	}
	return result
}

// DueForExpiry reports whether now has crossed the timer's expiration
// point while it is still Running.
func (zi *ZoneInstance) DueForExpiry(now int64) bool {
	zi.mu.RLock()
	defer zi.mu.RUnlock()
	return zi.timerState == TimerRunning && zi.timerExpireAt != 0 && now >= zi.timerExpireAt
}

// timeTrialRank finds the best (highest-index) breakpoint elapsed still
// beats: ranked against breakpoints timePoints[0..3] (shortest time wins)
// — points are ordered loosest (index 0, also the fail cutoff) to
// tightest (index 3, the best rank).
func timeTrialRank(elapsedSec int64, timePoints [4]int64) DemonRank {
	best := DemonRankC
	for i := 3; i >= 0; i-- {
		if timePoints[i] > 0 && elapsedSec <= timePoints[i] {
			if i >= 2 {
				return DemonRankA
			}
			if i == 1 {
				best = DemonRankB
			}
		}
	}
	return best
}

// demonRank implements the DemonOnly rank rule: A: leftover >
// timePoints[1]; B: > timePoints[2]; C: otherwise.
func demonRank(remainingSec int64, timePoints [4]int64) DemonRank {
	switch {
	case remainingSec > timePoints[1]:
		return DemonRankA
	case remainingSec > timePoints[2]:
		return DemonRankB
	default:
		return DemonRankC
	}
}

// demonSPGain implements a reward rule proportional to time remaining,
// scaled by party boost, so that a zero-leftover (expired) run still nets
// the flat fixedReward while an early explicit stop earns a bonus
// proportional to the fraction of time saved, amplified by party size.
// This split (flat floor + scaled bonus) resolves an otherwise-
// underspecified reward formula; recorded in DESIGN.md.
func demonSPGain(fixedReward int64, remainingSec, adjustedDurationSec int64, partySize int, color TimerColor) int64 {
	if adjustedDurationSec <= 0 {
		return fixedReward
	}
	fraction := float64(remainingSec) / float64(adjustedDurationSec)
	bonus := float64(fixedReward) * fraction * partyBoost(partySize)
	total := float64(fixedReward) + bonus
	if mult, ok := spRewardMultiplier[color]; ok {
		total *= mult
	}
	return int64(total)
}
