package instance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirolong/channelcore/internal/data"
)

func newFakeManager(t *testing.T) (*Manager, *data.FakeStore) {
	t.Helper()
	store := data.NewFakeStore()
	store.ZoneInstances[1] = &data.ZoneInstanceData{ID: 1, LobbyID: 900, ZoneIDs: []int32{10}}
	store.Variants[1] = &data.ZoneInstanceVariantData{
		ID:          1,
		Type:        data.InstanceDemonOnly,
		TimePoints:  [4]int64{600, 300, 120, 0},
		FixedReward: 1000,
	}
	return New(store, nil), store
}

type fakeResolver struct{ zoneID int32 }

func (f fakeResolver) ResolveZone(ctx context.Context, inst *ZoneInstance, zoneID, dynamicMapID int32) (int32, error) {
	return f.zoneID, nil
}

type alwaysPartnered struct{}

func (alwaysPartnered) HasLivingPartnerDemon(characterID int64) bool { return true }

// Verifies a DemonOnly instance with timePoints[0]=600s and party size 3
// reduces to a 540s effective duration; once the timer expires with zero
// leftover it still ranks C and awards the flat fixedReward.
func TestDemonOnlyExpiryScenario(t *testing.T) {
	mgr, _ := newFakeManager(t)

	inst, err := mgr.CreateInstance(context.Background(), 100, []int64{101, 102}, 1, 1, int32(TimerBronze), 500)
	require.NoError(t, err)
	assert.Equal(t, 3, inst.OriginalPartySize())

	attachedID, err := mgr.EnterZone(context.Background(), 100, inst.ID(), 10, 0, fakeResolver{zoneID: 10}, alwaysPartnered{}, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(10), attachedID)
	assert.Equal(t, TimerRunning, inst.TimerState())
	assert.Equal(t, int64(540), inst.adjustedDurationSec)
	assert.Equal(t, int64(540_000), inst.TimerExpireAt())

	assert.False(t, inst.DueForExpiry(539_000))
	assert.True(t, inst.DueForExpiry(540_000))

	result := inst.Expire(540_000)
	assert.False(t, result.Success)
	assert.Equal(t, DemonRankC, result.Rank)
	assert.Equal(t, int64(1000), result.SPGain)
	assert.Equal(t, TimerExpired, inst.TimerState())
}

func TestDemonOnlyEarlyStopRanksAAndBonusesSP(t *testing.T) {
	mgr, _ := newFakeManager(t)
	inst, err := mgr.CreateInstance(context.Background(), 100, nil, 1, 1, int32(TimerGold), 500)
	require.NoError(t, err)

	_, err = mgr.EnterZone(context.Background(), 100, inst.ID(), 10, 0, fakeResolver{zoneID: 10}, alwaysPartnered{}, 0)
	require.NoError(t, err)
	// party size 1 -> no reduction, adjusted duration == base (600s)
	require.Equal(t, int64(600), inst.adjustedDurationSec)

	result, err := inst.Stop(100_000, true)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(500), result.RemainingSec)
	assert.Equal(t, DemonRankA, result.Rank)
	assert.Greater(t, result.SPGain, int64(1000))
}

func TestEnterZoneRequiresAccessGrant(t *testing.T) {
	mgr, _ := newFakeManager(t)
	inst, err := mgr.CreateInstance(context.Background(), 100, nil, 1, 1, int32(TimerBronze), 500)
	require.NoError(t, err)

	_, err = mgr.EnterZone(context.Background(), 999, inst.ID(), 10, 0, fakeResolver{zoneID: 10}, alwaysPartnered{}, 0)
	assert.ErrorIs(t, err, ErrNoAccess)
}

type neverPartnered struct{}

func (neverPartnered) HasLivingPartnerDemon(characterID int64) bool { return false }

func TestEnterZoneDemonOnlyRequiresPartner(t *testing.T) {
	mgr, _ := newFakeManager(t)
	inst, err := mgr.CreateInstance(context.Background(), 100, nil, 1, 1, int32(TimerBronze), 500)
	require.NoError(t, err)

	_, err = mgr.EnterZone(context.Background(), 100, inst.ID(), 10, 0, fakeResolver{zoneID: 10}, neverPartnered{}, 0)
	assert.ErrorIs(t, err, ErrPartnerRequired)
}

func TestTeardownEligibility(t *testing.T) {
	mgr, _ := newFakeManager(t)
	inst, err := mgr.CreateInstance(context.Background(), 100, nil, 1, 1, int32(TimerBronze), 500)
	require.NoError(t, err)

	assert.False(t, mgr.TeardownEligible(inst.ID()))
	inst.RevokeAccess(100)
	assert.True(t, mgr.TeardownEligible(inst.ID()))

	mgr.Teardown(inst.ID())
	_, ok := mgr.Get(inst.ID())
	assert.False(t, ok)
}
