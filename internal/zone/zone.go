// Package zone implements the Zone: the spatial container that owns an
// entity registry, a connection list, spawn-location groups, a despawn
// queue, and a trigger registry, and that the AI engine (internal/ai) talks
// to through the ai.World interface.
package zone

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shirolong/channelcore/internal/ai"
	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/netproto"
	"github.com/shirolong/channelcore/internal/script"
)

// Connection is a connected player's outbound packet sink.
type Connection interface {
	CharacterID() int64
	PlayerID() uint32
	Send(pkt netproto.Packet)
}

// CombatResolver is the external combat resolution system that owns damage
// formulas and animation timing. The zone only needs to ask it to start,
// resolve, or cancel a skill use.
type CombatResolver interface {
	ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult
	ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult
	CancelSkill(entityID uint32, skillID int32)
	RetargetSkill(entityID uint32, skillID int32, targetID uint32)
}

// Zone owns one spatial shard's entities and feature state. Its Tick method
// is only ever invoked by the scheduler from one goroutine at a time (one
// tick in flight per zone); the mutex here guards registries against
// concurrent EnterZone/LeaveZone calls racing the tick.
type Zone struct {
	mu sync.RWMutex

	id           int32
	definitionID int32
	dynamicMapID int32

	store              data.DefinitionStore
	weights            ai.SkillWeightConfig
	fovHalfAngle       float64
	aggroLevelLimit    bool
	supportedFunctions map[int32]bool

	geometry *geo.Geometry
	dynamicMap *geo.DynamicMap
	disabled   geo.DisabledSet
	disabledGroups map[int32]bool

	enemies map[uint32]*model.Enemy
	allies  map[uint32]*model.Ally
	players map[uint32]*model.Player

	connections map[uint32]Connection

	despawnQueue []uint32

	locations   map[int32]*locationGroupState
	spawnGroups map[int32]data.SpawnGroupDef
	triggers    []data.TriggerDef
	clock       clockState

	devilCache map[int32]*data.DevilData
	skillCache map[int32]data.SkillData

	resolver CombatResolver

	scriptHost *script.Host

	// now is the timestamp of the tick currently in flight. ai.World's
	// Position/EntitiesInRange take no explicit `now` because every AI
	// update within one zone tick must observe a single consistent clock
	// value; Tick stamps it here before walking entities.
	now int64

	log *slog.Logger
}

// Config bundles the server-wide, rarely-changing settings a zone needs at
// construction. These come from config.ChannelServer at startup rather than
// per-zone data.
type Config struct {
	Weights            ai.SkillWeightConfig
	FoVHalfAngle       float64
	AggroLevelLimit    bool
	SupportedFunctions []int32
}

// New builds a Zone from its static definition. geometry/dynamicMap may be
// nil for zones with no barriers or no spot table.
func New(id int32, zd data.ServerZone, geometry *geo.Geometry, dynamicMap *geo.DynamicMap, store data.DefinitionStore, resolver CombatResolver, cfg Config, log *slog.Logger) *Zone {
	if log == nil {
		log = slog.Default()
	}
	z := &Zone{
		id:                 id,
		definitionID:       id,
		dynamicMapID:       zd.DynamicMapID,
		store:              store,
		weights:            cfg.Weights,
		fovHalfAngle:       cfg.FoVHalfAngle,
		aggroLevelLimit:    cfg.AggroLevelLimit,
		geometry:           geometry,
		dynamicMap:         dynamicMap,
		disabledGroups:     make(map[int32]bool),
		enemies:            make(map[uint32]*model.Enemy),
		allies:             make(map[uint32]*model.Ally),
		players:            make(map[uint32]*model.Player),
		connections:        make(map[uint32]Connection),
		locations:          make(map[int32]*locationGroupState),
		triggers:           zd.Triggers,
		devilCache:         make(map[int32]*data.DevilData),
		skillCache:         make(map[int32]data.SkillData),
		resolver:           resolver,
		log:                log.With("zoneID", id),
	}
	z.supportedFunctions = make(map[int32]bool, len(cfg.SupportedFunctions))
	for _, f := range cfg.SupportedFunctions {
		z.supportedFunctions[f] = true
	}
	for _, lg := range zd.SpawnLocationGroups {
		z.locations[lg.ID] = &locationGroupState{def: lg, enabled: true}
	}
	z.spawnGroups = make(map[int32]data.SpawnGroupDef, len(zd.SpawnGroups))
	for _, sg := range zd.SpawnGroups {
		z.spawnGroups[sg.ID] = sg
	}
	position := func(entityID uint32) (model.Point, bool) { return z.Position(entityID) }
	queues := func(entityID uint32) (*model.AIState, bool) {
		c, ok := z.Combatant(entityID)
		if !ok {
			return nil, false
		}
		return c.AIInfo(), true
	}
	z.scriptHost = script.NewHost(store, position, queues, log.With("zoneID", id, "component", "script"))
	return z
}

// ID returns the zone's stable numeric id.
func (z *Zone) ID() int32 { return z.id }

// Close releases the zone's resources (its Lua VM).
func (z *Zone) Close() {
	z.scriptHost.Close()
}

// IsActive reports whether at least one player session is attached; an
// inactive zone does not tick.
func (z *Zone) IsActive() bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return len(z.connections) > 0
}

// --- ai.World implementation ---

var _ ai.World = (*Zone)(nil)

func (z *Zone) Combatant(id uint32) (model.Combatant, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if e, ok := z.enemies[id]; ok {
		return e, true
	}
	if a, ok := z.allies[id]; ok {
		return a, true
	}
	return nil, false
}

func (z *Zone) EntitiesInRange(center model.Point, radius float64) []uint32 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	now := z.now
	var out []uint32
	add := func(id uint32, pos model.Point) {
		if model.Distance(center, pos) <= radius {
			out = append(out, id)
		}
	}
	for id, e := range z.enemies {
		add(id, e.Base().Position(now))
	}
	for id, a := range z.allies {
		add(id, a.Base().Position(now))
	}
	for id, p := range z.players {
		add(id, p.Position(now))
	}
	return out
}

func (z *Zone) Position(id uint32) (model.Point, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	now := z.now
	if e, ok := z.enemies[id]; ok {
		return e.Base().Position(now), true
	}
	if a, ok := z.allies[id]; ok {
		return a.Base().Position(now), true
	}
	if p, ok := z.players[id]; ok {
		return p.Position(now), true
	}
	return model.Point{}, false
}

// Entity resolves the shared ActiveEntity base for any id in the zone —
// enemy, ally, or player — so aggressor bookkeeping applies uniformly
// regardless of what kind of entity the target turns out to be.
func (z *Zone) Entity(id uint32) (*model.ActiveEntity, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if e, ok := z.enemies[id]; ok {
		return e.Base(), true
	}
	if a, ok := z.allies[id]; ok {
		return a.Base(), true
	}
	if p, ok := z.players[id]; ok {
		return p.ActiveEntity, true
	}
	return nil, false
}

func (z *Zone) Geometry() *geo.Geometry { return z.geometry }

func (z *Zone) Disabled() geo.DisabledSet {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.disabled
}

// SetDisabled replaces the per-zone disabled-geometry-element set, e.g.
// after a trigger dynamically opens or closes a barrier.
func (z *Zone) SetDisabled(d geo.DisabledSet) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.disabled = d
}

func (z *Zone) AggroLevelLimitEnabled() bool { return z.aggroLevelLimit }

func (z *Zone) FoVHalfAngle() float64 { return z.fovHalfAngle }

func (z *Zone) Despawn(id uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.despawnQueue = append(z.despawnQueue, id)
}

// Activated implements ai.World's target-acquisition/loss notification by
// broadcasting an EnemyActivated packet to the zone.
func (z *Zone) Activated(entityID, targetID uint32) {
	z.Broadcast(netproto.EnemyActivated{EntityID: entityID, TargetEntityID: targetID})
}

func (z *Zone) WanderTarget(c model.Combatant) (model.Point, bool) {
	spot, rect, ok := z.spawnRegionOf(c)
	if !ok {
		return model.Point{}, false
	}
	if spot != nil {
		return geo.GetRandomSpotPoint(*spot, z.geometry, z.Disabled()), true
	}
	return geo.GetRandomSpotPoint(RectToSpot(*rect), z.geometry, z.Disabled()), true
}

func (z *Zone) SpawnOrigin(c model.Combatant) (model.Point, bool) {
	spot, rect, ok := z.spawnRegionOf(c)
	if !ok {
		return model.Point{}, false
	}
	if spot != nil {
		return model.Point{X: spot.CenterX, Y: spot.CenterY}, true
	}
	return model.Point{X: (rect.MinX + rect.MaxX) / 2, Y: (rect.MinY + rect.MaxY) / 2}, true
}

func (z *Zone) InSpawnRegion(c model.Combatant, p model.Point) bool {
	spot, rect, ok := z.spawnRegionOf(c)
	if !ok {
		return false
	}
	if spot != nil {
		return spot.Contains(p)
	}
	return p.X >= rect.MinX && p.X <= rect.MaxX && p.Y >= rect.MinY && p.Y <= rect.MaxY
}

// spawnRegionOf resolves the spot or rectangle an entity should wander
// within, from its recorded spawn provenance.
func (z *Zone) spawnRegionOf(c model.Combatant) (*geo.Spot, *data.RectLocation, bool) {
	info := c.SpawnInfo()
	z.mu.RLock()
	defer z.mu.RUnlock()

	if info.SpawnSpotID != 0 && z.dynamicMap != nil {
		if s, ok := z.dynamicMap.Spots[info.SpawnSpotID]; ok {
			return &s, nil, true
		}
	}
	lg, ok := z.locations[info.SpawnLocationGroupID]
	if !ok || len(lg.def.Locations) == 0 {
		return nil, nil, false
	}
	rect := lg.def.Locations[0]
	return nil, &rect, true
}

// SpawnGroup returns one of the zone's SpawnGroupDef templates, which a
// SpawnLocationGroup's CandidateGroupIDs refer to by id.
func (z *Zone) SpawnGroup(id int32) (data.SpawnGroupDef, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	sg, ok := z.spawnGroups[id]
	return sg, ok
}

// Spot returns one of the zone's dynamic-map spots by id, for resolving a
// SpawnLocationGroup's CandidateSpotIDs.
func (z *Zone) Spot(id int32) (geo.Spot, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if z.dynamicMap == nil {
		return geo.Spot{}, false
	}
	s, ok := z.dynamicMap.Spots[id]
	return s, ok
}

// RectToSpot converts a rectangular spawn area into a zero-rotation Spot,
// so rectangle-based and named-spot spawn regions can share geo's sampling
// and containment helpers.
func RectToSpot(r data.RectLocation) geo.Spot {
	return geo.Spot{
		CenterX: (r.MinX + r.MaxX) / 2,
		CenterY: (r.MinY + r.MaxY) / 2,
		SpanX:   (r.MaxX - r.MinX) / 2,
		SpanY:   (r.MaxY - r.MinY) / 2,
	}
}

func (z *Zone) EntitySkillIDs(c model.Combatant) []int32 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	d, ok := z.devilCache[c.DevilKey()]
	if !ok {
		return nil
	}
	return d.Skills
}

func (z *Zone) SkillDefinition(skillID int32) (data.SkillData, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	d, ok := z.skillCache[skillID]
	return d, ok
}

func (z *Zone) SkillFunctionSupported(functionID int32) bool {
	return z.supportedFunctions[functionID]
}

func (z *Zone) SkillWeights() ai.SkillWeightConfig { return z.weights }

func (z *Zone) ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return z.resolver.ActivateSkill(c, skillID, targetID, now)
}

func (z *Zone) ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return z.resolver.ExecuteSkill(c, skillID, targetID, now)
}

func (z *Zone) CancelSkill(entityID uint32, skillID int32) {
	z.resolver.CancelSkill(entityID, skillID)
}

func (z *Zone) RetargetSkill(entityID uint32, skillID int32, targetID uint32) {
	z.resolver.RetargetSkill(entityID, skillID, targetID)
}

// --- registry mutation ---

// PreloadDevil fetches and caches a devil definition and every skill it
// references, so EntitySkillIDs/SkillDefinition never block the hot tick
// path on the definition store .
func (z *Zone) PreloadDevil(ctx context.Context, devilID int32) (*data.DevilData, error) {
	z.mu.RLock()
	if d, ok := z.devilCache[devilID]; ok {
		z.mu.RUnlock()
		return d, nil
	}
	z.mu.RUnlock()

	d, err := z.store.Devil(ctx, devilID)
	if err != nil {
		return nil, fmt.Errorf("loading devil %d: %w", devilID, err)
	}
	for _, skillID := range d.Skills {
		if _, err := z.preloadSkill(ctx, skillID); err != nil {
			z.log.Warn("skipping unloadable skill", "devilID", devilID, "skillID", skillID, "err", err)
		}
	}

	z.mu.Lock()
	z.devilCache[devilID] = d
	z.mu.Unlock()
	return d, nil
}

func (z *Zone) preloadSkill(ctx context.Context, skillID int32) (data.SkillData, error) {
	z.mu.RLock()
	if s, ok := z.skillCache[skillID]; ok {
		z.mu.RUnlock()
		return s, nil
	}
	z.mu.RUnlock()

	s, err := z.store.Skill(ctx, skillID)
	if err != nil {
		return data.SkillData{}, err
	}
	z.mu.Lock()
	z.skillCache[skillID] = *s
	z.mu.Unlock()
	return *s, nil
}

// SpawnEnemy preloads devilID's definition then creates and registers an
// Enemy at pos, attaching an AI script if scriptName is non-empty. level
// scales HP/MP via the devil's growth curve; the character progression
// system that picks a level for a given spawn is out of scope, so callers
// (the spawn manager) pass it in directly.
func (z *Zone) SpawnEnemy(ctx context.Context, spawnSourceID int64, locGroupID, spotID int32, devilID, level, aggression int32, scriptName string, pos model.Point) (*model.Enemy, error) {
	devil, err := z.PreloadDevil(ctx, devilID)
	if err != nil {
		return nil, err
	}
	aiData, err := z.store.AI(ctx, devil.AITypeID)
	if err != nil {
		return nil, fmt.Errorf("loading AI type %d for devil %d: %w", devil.AITypeID, devilID, err)
	}
	if level <= 0 {
		level = devil.Growth.BaseLevel
	}

	e := model.NewEnemy(devilID, level, scaleStat(devilBaseHP(devil), devil.Growth, level), scaleStat(devilBaseMP(devil), devil.Growth, level), devil.MoveSpeed)
	e.SpawnSourceID = spawnSourceID
	e.SpawnLocationGroupID = locGroupID
	e.SpawnSpotID = spotID
	e.Base().SetMovement(model.Placement{X: pos.X, Y: pos.Y}, model.Placement{X: pos.X, Y: pos.Y})
	e.Base().SetDisplay(model.DisplayActive)

	params := model.BaseAIParams{
		AggroNormalDistance: aiData.AggroNormal.Distance,
		AggroNormalFoV:      aiData.AggroNormal.FoV,
		AggroNightDistance:  aiData.AggroNight.Distance,
		AggroNightFoV:       aiData.AggroNight.FoV,
		AggroCastDistance:   aiData.AggroCast.Distance,
		AggroCastFoV:        aiData.AggroCast.FoV,
		DeaggroDistance:     aiData.DeaggroDistance,
		ThinkSpeedMS:        aiData.ThinkSpeedMS,
		Aggression:          aggression,
		AggroLevelLimit:     aiData.AggroLevelLimit,
		DefensiveDistance:   aiData.DefensiveDistance,
		HealThresholdPct:    aiData.HealThresholdPct,
		IsBoss:              devil.IsBoss,
	}
	if aggression == 0 {
		params.Aggression = aiData.Aggression
	}
	e.AIInfo().SetParams(params)
	e.AIInfo().SetDefaultStatus(model.StatusWandering)
	e.AIInfo().SetStatus(model.StatusWandering)

	if scriptName != "" {
		handle, err := z.scriptHost.Attach(ctx, e.ID(), scriptName)
		if err != nil {
			z.log.Warn("attaching AI script", "devilID", devilID, "script", scriptName, "err", err)
		} else {
			e.AIInfo().SetScript(handle)
		}
	}

	z.mu.Lock()
	z.enemies[e.ID()] = e
	if lg, ok := z.locations[locGroupID]; ok {
		lg.spawnedIDs = append(lg.spawnedIDs, e.ID())
	}
	z.mu.Unlock()

	return e, nil
}

// devilBaseHP/MP read the battle stat row (Stats[0]=HP, Stats[1]=MP) as the
// devil definition's max HP/MP at its growth curve's base level.
func devilBaseHP(d *data.DevilData) int32 {
	if len(d.Battle.Stats) < 1 {
		return 1
	}
	return d.Battle.Stats[0]
}

func devilBaseMP(d *data.DevilData) int32 {
	if len(d.Battle.Stats) < 2 {
		return 1
	}
	return d.Battle.Stats[1]
}

// scaleStat applies g's linear growth rate to base for the gap between
// level and g's base level. A fuller non-linear curve belongs to the
// out-of-scope character progression system; this is enough to make
// spawning the same devil at different levels observable.
func scaleStat(base int32, g data.GrowthData, level int32) int32 {
	scaled := float64(base) * (1 + g.GrowthRate*float64(level-g.BaseLevel))
	if scaled < 1 {
		return 1
	}
	return int32(scaled)
}

// RemoveEnemy drops an enemy from the registry without ceremony; callers
// that need opponent/aggressor cleanup must do it before calling this.
func (z *Zone) RemoveEnemy(id uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.enemies, id)
}

func (z *Zone) RemoveAlly(id uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.allies, id)
}

// Connect attaches a player session to the zone, making it active.
func (z *Zone) Connect(p *model.Player, conn Connection) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.players[p.ID()] = p
	z.connections[p.ID()] = conn
}

// Disconnect removes a player session; the zone goes inactive once the
// last one leaves.
func (z *Zone) Disconnect(playerID uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.players, playerID)
	delete(z.connections, playerID)
}

// Broadcast sends pkt to every connected session.
func (z *Zone) Broadcast(pkt netproto.Packet) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	for _, conn := range z.connections {
		conn.Send(pkt)
	}
}
