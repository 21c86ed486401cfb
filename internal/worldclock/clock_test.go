package worldclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInWindowIncludesStoredEndMinute(t *testing.T) {
	// A time window [fromHH:MM, toHH:MM] includes the `to` minute because
	// the engine stores the end as end+1 minute — so a restriction meant
	// to cover up to (and including) minute 30 is stored with to=31.
	assert.True(t, InWindow(30, 10, 31))
	assert.False(t, InWindow(31, 10, 31))
	assert.True(t, InWindow(10, 10, 31))
}

func TestInWindowWrapsMidnight(t *testing.T) {
	// 22:00 (1320) to 02:00 (120), wrapping past midnight.
	assert.True(t, InWindow(1350, 1320, 120))
	assert.True(t, InWindow(60, 1320, 120))
	assert.False(t, InWindow(600, 1320, 120))
}

func TestInWindowZeroWidthIsUnrestricted(t *testing.T) {
	assert.True(t, InWindow(0, 5, 5))
	assert.True(t, InWindow(1439, 5, 5))
}

func TestCrossedSingleStepRollover(t *testing.T) {
	// Moon phase 15 -> 0, modulus 16, target 0.
	assert.True(t, Crossed(15, 0, 0, 16))
	// Hour 23 -> 0, modulus 24, target 0.
	assert.True(t, Crossed(23, 0, 0, 24))
}

func TestCrossedNoWrapWithinSpan(t *testing.T) {
	assert.True(t, Crossed(5, 10, 7, 1440))
	assert.False(t, Crossed(5, 10, 20, 1440))
	assert.False(t, Crossed(5, 10, 5, 1440)) // target == prev: already passed last time
}

func TestCrossedMultiStepCatchUp(t *testing.T) {
	// A catch-up tick spanning several minutes should still detect a
	// target crossed mid-span.
	assert.True(t, Crossed(1430, 20, 1439, 1440))
	assert.True(t, Crossed(1430, 20, 5, 1440))
}

func TestCrossedNoOpWhenClockDidNotAdvance(t *testing.T) {
	assert.False(t, Crossed(10, 10, 10, 1440))
}
