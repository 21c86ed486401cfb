package ai

import (
	"testing"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorld is a minimal in-memory World used to unit-test the AI engine in
// isolation from internal/zone.
type fakeWorld struct {
	combatants map[uint32]model.Combatant
	entities   map[uint32]*model.ActiveEntity // non-combatant entities (players)
	positions  map[uint32]model.Point
	geometry   *geo.Geometry
	disabled   geo.DisabledSet
	aggroLimit bool
	fov        float64
	skills     map[int32]data.SkillData
	weights    SkillWeightConfig
	despawned  []uint32

	activated        map[uint32]int32 // entityID -> skillID currently activated
	activatedNotices []activatedNotice
}

// activatedNotice records a call to fakeWorld.Activated for assertions.
type activatedNotice struct {
	entityID, targetID uint32
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		combatants: make(map[uint32]model.Combatant),
		entities:   make(map[uint32]*model.ActiveEntity),
		positions:  make(map[uint32]model.Point),
		skills:     make(map[int32]data.SkillData),
		fov:        1.4,
		activated:  make(map[uint32]int32),
	}
}

func (w *fakeWorld) addPlayer(p *model.Player) {
	w.entities[p.ID()] = p.ActiveEntity
	w.positions[p.ID()] = p.Position(0)
}

func (w *fakeWorld) addCombatant(c model.Combatant, p model.Point) {
	w.combatants[c.Base().ID()] = c
	w.positions[c.Base().ID()] = p
	c.Base().SetMovement(model.Placement{X: p.X, Y: p.Y, Ticks: 0}, model.Placement{X: p.X, Y: p.Y, Ticks: 0})
	c.Base().SetDisplay(model.DisplayActive)
}

func (w *fakeWorld) Combatant(id uint32) (model.Combatant, bool) {
	c, ok := w.combatants[id]
	return c, ok
}

func (w *fakeWorld) EntitiesInRange(center model.Point, radius float64) []uint32 {
	var out []uint32
	for id, p := range w.positions {
		if model.Distance(center, p) <= radius {
			out = append(out, id)
		}
	}
	return out
}

func (w *fakeWorld) Position(id uint32) (model.Point, bool) {
	if c, ok := w.combatants[id]; ok {
		return c.Base().Position(0), true
	}
	p, ok := w.positions[id]
	return p, ok
}

func (w *fakeWorld) Entity(id uint32) (*model.ActiveEntity, bool) {
	if c, ok := w.combatants[id]; ok {
		return c.Base(), true
	}
	if e, ok := w.entities[id]; ok {
		return e, true
	}
	return nil, false
}

func (w *fakeWorld) Geometry() *geo.Geometry       { return w.geometry }
func (w *fakeWorld) Disabled() geo.DisabledSet     { return w.disabled }
func (w *fakeWorld) AggroLevelLimitEnabled() bool  { return w.aggroLimit }
func (w *fakeWorld) FoVHalfAngle() float64         { return w.fov }
func (w *fakeWorld) Despawn(id uint32)             { w.despawned = append(w.despawned, id) }
func (w *fakeWorld) Activated(entityID, targetID uint32) {
	w.activatedNotices = append(w.activatedNotices, activatedNotice{entityID, targetID})
}

func (w *fakeWorld) WanderTarget(c model.Combatant) (model.Point, bool) { return model.Point{}, false }
func (w *fakeWorld) SpawnOrigin(c model.Combatant) (model.Point, bool)  { return model.Point{}, false }
func (w *fakeWorld) InSpawnRegion(c model.Combatant, p model.Point) bool { return true }

func (w *fakeWorld) EntitySkillIDs(c model.Combatant) []int32 {
	var ids []int32
	for id := range w.skills {
		ids = append(ids, id)
	}
	return ids
}
func (w *fakeWorld) SkillDefinition(skillID int32) (data.SkillData, bool) {
	d, ok := w.skills[skillID]
	return d, ok
}
func (w *fakeWorld) SkillFunctionSupported(functionID int32) bool { return true }
func (w *fakeWorld) SkillWeights() SkillWeightConfig              { return w.weights }

func (w *fakeWorld) ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) SkillResult {
	w.activated[c.Base().ID()] = skillID
	return SkillResultOK
}
func (w *fakeWorld) ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) SkillResult {
	return SkillResultOK
}
func (w *fakeWorld) CancelSkill(entityID uint32, skillID int32) { delete(w.activated, entityID) }
func (w *fakeWorld) RetargetSkill(entityID uint32, skillID int32, targetID uint32) {}

var _ World = (*fakeWorld)(nil)

func newTestEnemy(aggroDist, fov float64, thinkMS int64) *model.Enemy {
	e := model.NewEnemy(1, 10, 100, 50, 200)
	e.AI.SetParams(model.BaseAIParams{
		AggroNormalDistance: aggroDist,
		AggroNormalFoV:      fov,
		ThinkSpeedMS:        thinkMS,
		Aggression:          100,
		AggroLevelLimit:     99,
	})
	return e
}

func newTestPlayer(id int64, p model.Point) *model.Player {
	pl := model.NewPlayer(id, 10, 100, 50, 200)
	pl.SetMovement(model.Placement{X: p.X, Y: p.Y, Ticks: 0}, model.Placement{X: p.X, Y: p.Y, Ticks: 0})
	pl.SetDisplay(model.DisplayActive)
	return pl
}

func TestRetargetAcquiresWithinFoVAndRange(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	player := newTestPlayer(1, model.Point{X: 1000, Y: 0})
	w.addPlayer(player)

	target := Retarget(w, enemy, 0, false)
	assert.Equal(t, player.ID(), target)
	assert.Contains(t, player.Aggressors(), enemy.Base().ID())
}

func TestRetargetBlockedByLineOfSight(t *testing.T) {
	w := newFakeWorld()
	wall := geo.Element{
		ID:   1,
		Type: geo.ElementBarrier,
		Shapes: []geo.Shape{
			geo.NewShape([]model.Point{{X: 500, Y: -200}, {X: 500, Y: 200}}, false),
		},
	}
	w.geometry = geo.NewGeometry([]geo.Element{wall})

	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	player := newTestPlayer(1, model.Point{X: 1000, Y: 0})
	w.positions[player.ID()] = player.Position(0)

	target := Retarget(w, enemy, 0, false)
	assert.Equal(t, uint32(0), target)
	assert.Equal(t, model.StatusIdle, enemy.AI.Status())
}

func TestRetargetRejectsOutsideFoV(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 0.2, 500) // narrow FoV
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	// Player directly behind the enemy's facing (rotation 0 faces +X).
	player := newTestPlayer(1, model.Point{X: -1000, Y: 0})
	w.positions[player.ID()] = player.Position(0)

	target := Retarget(w, enemy, 0, false)
	assert.Equal(t, uint32(0), target)
}

func TestUpdateAggroSymmetricAndStatusTransition(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	enemy.AI.SetStatus(model.StatusWandering)
	enemy.AI.ClearStatusChanged()
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	w.addCombatant(target, model.Point{X: 100, Y: 0})

	UpdateAggro(w, enemy, target.Base().ID())
	assert.Equal(t, target.Base().ID(), enemy.Base().AggroTarget())
	assert.Contains(t, target.Base().Aggressors(), enemy.Base().ID())
	assert.Equal(t, model.StatusAggro, enemy.AI.Status())

	UpdateAggro(w, enemy, 0)
	assert.Equal(t, uint32(0), enemy.Base().AggroTarget())
	assert.NotContains(t, target.Base().Aggressors(), enemy.Base().ID())

	// Both the acquisition and the clear broadcast an "activated"
	// notification so clients orient the model.
	require.Len(t, w.activatedNotices, 2)
	assert.Equal(t, activatedNotice{enemy.Base().ID(), target.Base().ID()}, w.activatedNotices[0])
	assert.Equal(t, activatedNotice{enemy.Base().ID(), 0}, w.activatedNotices[1])
}

func TestSkillMapOutclassFiltering(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	enemy.AI.SetParams(model.BaseAIParams{HealThresholdPct: 100, Aggression: 100, AggroLevelLimit: 99})
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	w.skills[1] = data.SkillData{ // skill A: stronger heal
		SkillID: 1,
		Basic:   data.SkillBasic{ActivationType: "Active"},
		Target:  data.SkillTarget{ValidType: "self"},
		Damage:  data.BattleDamage{IsHeal: true, Modifier1: 100, Formula: "heal"},
	}
	w.skills[2] = data.SkillData{ // skill B: weaker heal, same formula -> outclassed by A
		SkillID: 2,
		Basic:   data.SkillBasic{ActivationType: "Active"},
		Target:  data.SkillTarget{ValidType: "self"},
		Damage:  data.BattleDamage{IsHeal: true, Modifier1: 50, Formula: "heal"},
	}

	RefreshSkillMap(w, enemy)
	assert.True(t, enemy.AI.SkillsMapped())
	assert.True(t, enemy.AI.IsOutclassed(2))
	assert.False(t, enemy.AI.IsOutclassed(1))

	healBucket := enemy.AI.SkillMap()[model.SkillHEAL]
	require.Len(t, healBucket, 2)
}

func TestPrepareSkillUsagePicksNonOutclassedHeal(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	enemy.AI.SetParams(model.BaseAIParams{HealThresholdPct: 100, Aggression: 100, AggroLevelLimit: 99})
	enemy.Base().SetHP(1) // force canHeal
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	w.skills[1] = data.SkillData{
		SkillID: 1,
		Basic:   data.SkillBasic{ActivationType: "Active"},
		Target:  data.SkillTarget{ValidType: "self"},
		Damage:  data.BattleDamage{IsHeal: true, Modifier1: 100, Formula: "heal"},
	}
	w.skills[2] = data.SkillData{
		SkillID: 2,
		Basic:   data.SkillBasic{ActivationType: "Active"},
		Target:  data.SkillTarget{ValidType: "self"},
		Damage:  data.BattleDamage{IsHeal: true, Modifier1: 50, Formula: "heal"},
	}

	ok := PrepareSkillUsage(w, enemy, 0)
	require.True(t, ok)
	cmd, isUse := enemy.AI.Queue().Peek().(*model.UseSkillCommand)
	require.True(t, isUse)
	assert.EqualValues(t, 1, cmd.SkillID) // the non-outclassed skill A
}

func TestSkillAdvanceChasesWhenOutOfRange(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	w.addCombatant(target, model.Point{X: 1000, Y: 0})

	def := data.SkillData{SkillID: 1, Target: data.SkillTarget{Range: 0}}
	result := SkillAdvance(w, enemy, def, target.Base().ID(), 0)
	assert.Equal(t, 0, result)

	mv, ok := enemy.AI.Queue().Peek().(*model.MoveCommand)
	require.True(t, ok)
	assert.Equal(t, 350.0, mv.MinDistance)
}

func TestSkillAdvanceAlreadyInRange(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	w.addCombatant(target, model.Point{X: 100, Y: 0})

	def := data.SkillData{SkillID: 1, Target: data.SkillTarget{Range: 0}}
	result := SkillAdvance(w, enemy, def, target.Base().ID(), 0)
	assert.Equal(t, 2, result)
	assert.True(t, enemy.AI.Queue().Empty())
}

func TestDeAggroAtExactlyOneAndHalfDistance(t *testing.T) {
	// Exactly 1.5x aggro distance already de-aggros: spec.md §8 states the
	// boundary "uses ≥".
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	target.Base().SetFaction(1)
	enemy.Base().SetFaction(2)
	w.addCombatant(target, model.Point{X: 3000, Y: 0}) // exactly 1.5 * 2000

	model.AddRemoveOpponent(true, enemy.Base(), target.Base())
	enemy.Base().SetAggroTarget(target.Base().ID())
	model.UpdateAggressor(true, enemy.Base(), target.Base())
	enemy.AI.SetStatus(model.StatusAggro)
	enemy.AI.ClearStatusChanged()

	UpdateEnemyState(w, enemy, 0, false)

	assert.False(t, enemy.Base().HasOpponent(target.Base().ID()))
	assert.Equal(t, uint32(0), enemy.Base().AggroTarget())
}

func TestAggroRetainedJustBelowOneAndHalfDistance(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	target.Base().SetFaction(1)
	enemy.Base().SetFaction(2)
	w.addCombatant(target, model.Point{X: 2999, Y: 0}) // just under 1.5 * 2000
	w.skills[1] = data.SkillData{
		SkillID: 1,
		Basic:   data.SkillBasic{ActivationType: "Active"},
		Target:  data.SkillTarget{ValidType: "enemy", Range: 0},
		Damage:  data.BattleDamage{Formula: "phys"},
	}

	model.AddRemoveOpponent(true, enemy.Base(), target.Base())
	enemy.Base().SetAggroTarget(target.Base().ID())
	model.UpdateAggressor(true, enemy.Base(), target.Base())
	enemy.AI.SetStatus(model.StatusAggro)
	enemy.AI.ClearStatusChanged()

	UpdateEnemyState(w, enemy, 0, false)

	assert.True(t, enemy.Base().HasOpponent(target.Base().ID()))
	assert.Equal(t, target.Base().ID(), enemy.Base().AggroTarget())
}

func TestDeAggroBeyondOneAndHalfDistance(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	target := model.NewEnemy(2, 10, 100, 50, 200)
	target.Base().SetFaction(1)
	enemy.Base().SetFaction(2)
	w.addCombatant(target, model.Point{X: 3001, Y: 0}) // just past 1.5 * 2000

	model.AddRemoveOpponent(true, enemy.Base(), target.Base())
	enemy.Base().SetAggroTarget(target.Base().ID())
	model.UpdateAggressor(true, enemy.Base(), target.Base())
	enemy.AI.SetStatus(model.StatusAggro)
	enemy.AI.ClearStatusChanged()

	UpdateEnemyState(w, enemy, 0, false)

	assert.False(t, enemy.Base().HasOpponent(target.Base().ID()))
	assert.Equal(t, uint32(0), enemy.Base().AggroTarget())
}

func TestWanderQueuesMoveAndWait(t *testing.T) {
	w := newFakeWorld()
	enemy := newTestEnemy(2000, 1.4, 500)
	w.addCombatant(enemy, model.Point{X: 0, Y: 0})

	w2 := &wanderableWorld{fakeWorld: w, target: model.Point{X: 50, Y: 0}}

	ok := Wander(w2, enemy, 0)
	require.True(t, ok)
	assert.Equal(t, 2, enemy.AI.Queue().Len())

	mv, isMove := enemy.AI.Queue().Pop().(*model.MoveCommand)
	require.True(t, isMove)
	require.Len(t, mv.Path, 1)

	wait, isWait := enemy.AI.Queue().Pop().(*model.WaitCommand)
	require.True(t, isWait)
	assert.GreaterOrEqual(t, wait.DurationMS, int64(500))
}

// wanderableWorld overrides WanderTarget/InSpawnRegion to exercise Wander.
type wanderableWorld struct {
	*fakeWorld
	target model.Point
}

func (w *wanderableWorld) WanderTarget(c model.Combatant) (model.Point, bool) {
	return w.target, true
}
