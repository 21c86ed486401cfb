package script

import (
	"context"
	"testing"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWorld struct {
	positions map[uint32]model.Point
	states    map[uint32]*model.AIState
}

func newTestWorld() *testWorld {
	return &testWorld{
		positions: make(map[uint32]model.Point),
		states:    make(map[uint32]*model.AIState),
	}
}

func (w *testWorld) position(id uint32) (model.Point, bool) {
	p, ok := w.positions[id]
	return p, ok
}

func (w *testWorld) state(id uint32) (*model.AIState, bool) {
	s, ok := w.states[id]
	return s, ok
}

func (w *testWorld) put(id uint32, p model.Point) *model.AIState {
	ai := model.NewAIState(nil)
	w.positions[id] = p
	w.states[id] = ai
	return ai
}

func newTestHost(store *data.FakeStore, w *testWorld) *Host {
	return NewHost(store, w.position, w.state, nil)
}

func TestHostAttachRunsEntryPoint(t *testing.T) {
	store := data.NewFakeStore()
	store.Scripts["wander_circle"] = &data.AIScript{
		Name:   "wander_circle",
		Source: `return { idle = function(ctx) return 0 end }`,
	}

	w := newTestWorld()
	w.put(7, model.Point{})
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 7, "wander_circle")
	require.NoError(t, err)

	result, defined, err := handle.CallAction("idle", model.ScriptContext{HPRatio: 1})
	require.NoError(t, err)
	assert.True(t, defined)
	assert.EqualValues(t, 0, result)
}

func TestHostAttachUnknownScript(t *testing.T) {
	store := data.NewFakeStore()
	host := newTestHost(store, newTestWorld())
	defer host.Close()

	_, err := host.Attach(context.Background(), 1, "does_not_exist")
	require.Error(t, err)
}

func TestHostCallMissingEntryPoint(t *testing.T) {
	store := data.NewFakeStore()
	store.Scripts["minimal"] = &data.AIScript{
		Name:   "minimal",
		Source: `return { idle = function(ctx) return 0 end }`,
	}
	w := newTestWorld()
	w.put(1, model.Point{})
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 1, "minimal")
	require.NoError(t, err)

	_, defined, err := handle.CallAction("wander", model.ScriptContext{})
	require.NoError(t, err)
	assert.False(t, defined)
}

func TestTwoEntitiesShareOneVMWithoutClobbering(t *testing.T) {
	store := data.NewFakeStore()
	store.Scripts["a"] = &data.AIScript{Name: "a", Source: `return { idle = function(ctx) QueueWaitCommand(ctx.self_id, 100) return 0 end }`}
	store.Scripts["b"] = &data.AIScript{Name: "b", Source: `return { idle = function(ctx) QueueWaitCommand(ctx.self_id, 200) return 0 end }`}

	w := newTestWorld()
	aiA := w.put(1, model.Point{})
	aiB := w.put(2, model.Point{})
	host := newTestHost(store, w)
	defer host.Close()

	handleA, err := host.Attach(context.Background(), 1, "a")
	require.NoError(t, err)
	handleB, err := host.Attach(context.Background(), 2, "b")
	require.NoError(t, err)

	_, _, err = handleA.CallAction("idle", model.ScriptContext{})
	require.NoError(t, err)
	_, _, err = handleB.CallAction("idle", model.ScriptContext{})
	require.NoError(t, err)

	waitA := aiA.Queue().Pop().(*model.WaitCommand)
	waitB := aiB.Queue().Pop().(*model.WaitCommand)
	assert.EqualValues(t, 100, waitA.DurationMS)
	assert.EqualValues(t, 200, waitB.DurationMS)
}

func TestChaseQueuesMoveTowardTarget(t *testing.T) {
	w := newTestWorld()
	ai := w.put(1, model.Point{X: 0, Y: 0})
	w.put(2, model.Point{X: 100, Y: 0})

	store := data.NewFakeStore()
	store.Scripts["chaser"] = &data.AIScript{
		Name:   "chaser",
		Source: `return { aggro = function(ctx) Chase(ctx.self_id, ctx.target_id, 10) return 0 end }`,
	}
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 1, "chaser")
	require.NoError(t, err)

	_, _, err = handle.CallAction("aggro", model.ScriptContext{TargetID: 2})
	require.NoError(t, err)

	cmd := ai.Queue().Pop()
	require.NotNil(t, cmd)
	move, ok := cmd.(*model.MoveCommand)
	require.True(t, ok)
	assert.Equal(t, uint32(2), move.TargetID)
	require.Len(t, move.Path, 1)
	// Destination sits 10 units from the target (100,0), on the side the
	// chaser started from.
	assert.InDelta(t, 90, move.Path[0].X, 1e-3)
	assert.InDelta(t, 0, move.Path[0].Y, 1e-3)
}

func TestRetreatQueuesMoveAwayFromTarget(t *testing.T) {
	w := newTestWorld()
	ai := w.put(1, model.Point{X: 0, Y: 0})
	w.put(2, model.Point{X: 100, Y: 0})

	store := data.NewFakeStore()
	store.Scripts["runner"] = &data.AIScript{
		Name:   "runner",
		Source: `return { combat = function(ctx) Retreat(ctx.self_id, ctx.target_id, 20) return 0 end }`,
	}
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 1, "runner")
	require.NoError(t, err)

	_, _, err = handle.CallAction("combat", model.ScriptContext{TargetID: 2})
	require.NoError(t, err)

	cmd := ai.Queue().Pop()
	require.NotNil(t, cmd)
	move := cmd.(*model.MoveCommand)
	assert.InDelta(t, -20, move.Path[0].X, 1e-3)
	assert.InDelta(t, 0, move.Path[0].Y, 1e-3)
}

func TestQueueUseSkillCommandPushesCommand(t *testing.T) {
	w := newTestWorld()
	ai := w.put(1, model.Point{})

	store := data.NewFakeStore()
	store.Scripts["caster"] = &data.AIScript{
		Name:   "caster",
		Source: `return { combat = function(ctx) QueueUseSkillCommand(ctx.self_id, 42, ctx.target_id) return 0 end }`,
	}
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 1, "caster")
	require.NoError(t, err)

	_, _, err = handle.CallAction("combat", model.ScriptContext{TargetID: 9})
	require.NoError(t, err)

	cmd := ai.Queue().Pop()
	require.NotNil(t, cmd)
	skill := cmd.(*model.UseSkillCommand)
	assert.EqualValues(t, 42, skill.SkillID)
	assert.EqualValues(t, 9, skill.TargetID)
}

func TestCallTargetPicksCandidate(t *testing.T) {
	w := newTestWorld()
	w.put(1, model.Point{})

	store := data.NewFakeStore()
	store.Scripts["picker"] = &data.AIScript{
		Name:   "picker",
		Source: `return { target = function(ctx, candidates) return candidates[2] end }`,
	}
	host := newTestHost(store, w)
	defer host.Close()

	handle, err := host.Attach(context.Background(), 1, "picker")
	require.NoError(t, err)

	picked, defined, err := handle.CallTarget([]uint32{10, 20, 30}, model.ScriptContext{})
	require.NoError(t, err)
	assert.True(t, defined)
	assert.EqualValues(t, 20, picked)
}
