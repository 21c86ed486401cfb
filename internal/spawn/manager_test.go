package spawn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/worldclock"
)

// fakeZone is a minimal Zone double exercising the respawn/trigger logic
// without a real geometry/definition-store backed zone.Zone.
type fakeZone struct {
	groups      map[int32]data.SpawnLocationGroupDef
	spawnGroups map[int32]data.SpawnGroupDef
	enabled     map[int32]bool
	everSpawned map[int32]bool
	alive       map[int32]int
	due         []int32

	spawnCalls int
	nextID     uint32

	markedGroup []int32
	markedIDs   [][]uint32
}

func newFakeZone() *fakeZone {
	return &fakeZone{
		groups:      make(map[int32]data.SpawnLocationGroupDef),
		spawnGroups: make(map[int32]data.SpawnGroupDef),
		enabled:     make(map[int32]bool),
		everSpawned: make(map[int32]bool),
		alive:       make(map[int32]int),
	}
}

func (f *fakeZone) DueRespawnGroups(now int64) []int32 { return f.due }
func (f *fakeZone) MarkGroupRespawned(groupID int32, spawnedIDs []uint32, now int64) {
	f.everSpawned[groupID] = true
	f.alive[groupID] = len(spawnedIDs)
	f.markedGroup = append(f.markedGroup, groupID)
	f.markedIDs = append(f.markedIDs, spawnedIDs)
}
func (f *fakeZone) GroupDef(groupID int32) (data.SpawnLocationGroupDef, bool) {
	d, ok := f.groups[groupID]
	return d, ok
}
func (f *fakeZone) GroupEverSpawned(groupID int32) bool { return f.everSpawned[groupID] }
func (f *fakeZone) GroupAliveCount(groupID int32) int   { return f.alive[groupID] }
func (f *fakeZone) SetGroupEnabled(groupID int32, enabled bool) { f.enabled[groupID] = enabled }
func (f *fakeZone) GroupEnabled(groupID int32) bool             { return f.enabled[groupID] }
func (f *fakeZone) DespawnGroup(groupID int32)                  { f.alive[groupID] = 0 }
func (f *fakeZone) PickSpawnPoint(groupID int32) (model.Point, int32, bool) {
	return model.Point{X: 1, Y: 2}, 7, true
}
func (f *fakeZone) SpawnGroup(id int32) (data.SpawnGroupDef, bool) {
	d, ok := f.spawnGroups[id]
	return d, ok
}
func (f *fakeZone) SpawnEnemy(ctx context.Context, spawnSourceID int64, locGroupID, spotID int32, devilID, level, aggression int32, scriptName string, pos model.Point) (*model.Enemy, error) {
	f.spawnCalls++
	f.nextID++
	e := model.NewEnemy(devilID, 1, 100, 50, 1.0)
	return e, nil
}

var _ Zone = (*fakeZone)(nil)

func TestUpdateSpawnGroupsRepopulatesDueGroups(t *testing.T) {
	fz := newFakeZone()
	fz.groups[1] = data.SpawnLocationGroupDef{ID: 1, CandidateGroupIDs: []int32{10}, SpotMode: data.SpotShareSpot}
	fz.spawnGroups[10] = data.SpawnGroupDef{ID: 10, Spawns: []data.SpawnCount{{Spawn: data.SpawnDef{DevilID: 5}, Count: 3}}}
	fz.enabled[1] = true
	fz.due = []int32{1}

	mgr := New(nil)
	mgr.UpdateSpawnGroups(context.Background(), fz, 1000, worldclock.Clock{})

	assert.Equal(t, 3, fz.spawnCalls)
	require.Len(t, fz.markedGroup, 1)
	assert.Equal(t, int32(1), fz.markedGroup[0])
	assert.Len(t, fz.markedIDs[0], 3)
}

func TestApplyTriggerOneTimeSkipsSecondAttempt(t *testing.T) {
	fz := newFakeZone()
	fz.groups[2] = data.SpawnLocationGroupDef{ID: 2, CandidateGroupIDs: []int32{20}}
	fz.spawnGroups[20] = data.SpawnGroupDef{ID: 20, Spawns: []data.SpawnCount{{Spawn: data.SpawnDef{DevilID: 9}, Count: 1}}}
	fz.enabled[2] = true

	mgr := New(nil)
	trig := data.TriggerDef{Event: data.TriggerOnSetup, Action: data.ActionSpawnOneTime, GroupID: 2}

	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, trig, 0))
	assert.Equal(t, 1, fz.spawnCalls)

	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, trig, 0))
	assert.Equal(t, 1, fz.spawnCalls, "second OneTime attempt must be skipped")
}

func TestApplyTriggerNoneExistSkipsWhileAlive(t *testing.T) {
	fz := newFakeZone()
	fz.groups[3] = data.SpawnLocationGroupDef{ID: 3, CandidateGroupIDs: []int32{30}}
	fz.spawnGroups[30] = data.SpawnGroupDef{ID: 30, Spawns: []data.SpawnCount{{Spawn: data.SpawnDef{DevilID: 1}, Count: 1}}}
	fz.enabled[3] = true
	fz.alive[3] = 1

	mgr := New(nil)
	trig := data.TriggerDef{Action: data.ActionSpawnNoneExist, GroupID: 3}
	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, trig, 0))
	assert.Equal(t, 0, fz.spawnCalls)
}

func TestApplyTriggerEnableDisableDespawn(t *testing.T) {
	fz := newFakeZone()
	mgr := New(nil)

	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, data.TriggerDef{Action: data.ActionEnableGroup, GroupID: 4}, 0))
	assert.True(t, fz.GroupEnabled(4))

	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, data.TriggerDef{Action: data.ActionDisableGroup, GroupID: 4}, 0))
	assert.False(t, fz.GroupEnabled(4))

	fz.alive[4] = 2
	require.NoError(t, mgr.ApplyTrigger(context.Background(), fz, data.TriggerDef{Action: data.ActionDespawn, GroupID: 4}, 0))
	assert.Equal(t, 0, fz.GroupAliveCount(4))
}
