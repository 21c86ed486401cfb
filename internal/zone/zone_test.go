package zone

import (
	"context"
	"testing"

	"github.com/shirolong/channelcore/internal/ai"
	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/netproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{}

func (stubResolver) ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return ai.SkillResultOK
}
func (stubResolver) ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return ai.SkillResultOK
}
func (stubResolver) CancelSkill(entityID uint32, skillID int32) {}
func (stubResolver) RetargetSkill(entityID uint32, skillID int32, targetID uint32) {}

type stubConnection struct {
	characterID int64
	playerID    uint32
	received    []netproto.Packet
}

func (c *stubConnection) CharacterID() int64    { return c.characterID }
func (c *stubConnection) PlayerID() uint32      { return c.playerID }
func (c *stubConnection) Send(pkt netproto.Packet) { c.received = append(c.received, pkt) }

func testZone(t *testing.T, store *data.FakeStore) *Zone {
	t.Helper()
	zd := data.ServerZone{
		ZoneID: 1,
		SpawnLocationGroups: []data.SpawnLocationGroupDef{
			{ID: 100, Locations: []data.RectLocation{{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}}, RespawnIntervalSec: 60},
		},
	}
	z := New(1, zd, nil, nil, store, stubResolver{}, Config{FoVHalfAngle: 1.4}, nil)
	t.Cleanup(z.Close)
	return z
}

func TestZoneIsActiveTracksConnections(t *testing.T) {
	store := data.NewFakeStore()
	z := testZone(t, store)
	assert.False(t, z.IsActive())

	p := model.NewPlayer(1, 1, 100, 100, 200)
	z.Connect(p, &stubConnection{characterID: 1, playerID: p.ID()})
	assert.True(t, z.IsActive())

	z.Disconnect(p.ID())
	assert.False(t, z.IsActive())
}

func TestSpawnEnemyCachesDevilAndSkills(t *testing.T) {
	store := data.NewFakeStore()
	store.Devils[10] = &data.DevilData{DevilID: 10, AITypeID: 1, MoveSpeed: 200, Skills: []int32{5}}
	store.AIDefs[1] = &data.AIData{AITypeID: 1, AggroNormal: data.AggroProfile{Distance: 500, FoV: 1}, ThinkSpeedMS: 1000}
	store.SkillDefs[5] = &data.SkillData{SkillID: 5, Basic: data.SkillBasic{ActivationType: "Active"}}

	z := testZone(t, store)

	e, err := z.SpawnEnemy(context.Background(), 1, 100, 0, 10, 0, 0, "", model.Point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 10, e.DevilKey())

	ids := z.EntitySkillIDs(e)
	assert.Equal(t, []int32{5}, ids)

	def, ok := z.SkillDefinition(5)
	assert.True(t, ok)
	assert.EqualValues(t, 5, def.SkillID)

	pos, ok := z.Position(e.ID())
	assert.True(t, ok)
	assert.Equal(t, model.Point{X: 1, Y: 2}, pos)
}

func TestDueRespawnGroupsReportsEmptyGroupsImmediately(t *testing.T) {
	store := data.NewFakeStore()
	z := testZone(t, store)

	due := z.DueRespawnGroups(0)
	require.Len(t, due, 1)
	assert.EqualValues(t, 100, due[0])

	z.MarkGroupRespawned(100, []uint32{1, 2}, 0)
	assert.Empty(t, z.DueRespawnGroups(0))

	z.NotifyEntityGone(100, 1)
	z.NotifyEntityGone(100, 2)
	due = z.DueRespawnGroups(61_000)
	require.Len(t, due, 1)
}

func TestTickBroadcastsMoveForMovingEnemy(t *testing.T) {
	store := data.NewFakeStore()
	store.Devils[10] = &data.DevilData{DevilID: 10, AITypeID: 1, MoveSpeed: 200}
	store.AIDefs[1] = &data.AIData{AITypeID: 1, AggroNormal: data.AggroProfile{Distance: 500, FoV: 1}, ThinkSpeedMS: 500}

	z := testZone(t, store)
	e, err := z.SpawnEnemy(context.Background(), 1, 100, 0, 10, 0, 0, "", model.Point{X: 0, Y: 0})
	require.NoError(t, err)
	e.AIInfo().ClearStatusChanged()
	e.AIInfo().Queue().Push(&model.MoveCommand{Path: []model.Point{{X: 500, Y: 0}}})

	conn := &stubConnection{characterID: 1, playerID: 999}
	z.Connect(model.NewPlayer(1, 1, 100, 100, 200), conn)

	z.Tick(0, false)

	require.NotEmpty(t, conn.received)
	_, ok := conn.received[0].(netproto.Move)
	assert.True(t, ok)
}
