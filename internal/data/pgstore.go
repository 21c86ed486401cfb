package data

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// PGStore is a pgx-backed DefinitionStore + ServerDataStore. Every read goes
// straight to PostgreSQL except AIScript lookups, which are served from a
// process-wide prepared-script cache.
type PGStore struct {
	pool *pgxpool.Pool

	scripts scriptCache
}

// scriptCache is a read-mostly map from script name to its opaque source,
// populated at most once per name even under concurrent first-use. The
// singleflight group only collapses duplicate loads of the SAME name — two
// different names can still load concurrently, so the map itself needs its
// own lock.
type scriptCache struct {
	group singleflight.Group
	mu     sync.RWMutex
	byName map[string]*AIScript
}

// NewPGStore wraps an existing pgx pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{
		pool:    pool,
		scripts: scriptCache{byName: make(map[string]*AIScript)},
	}
}

// Devil loads one demon/NPC definition.
func (s *PGStore) Devil(ctx context.Context, devilID int32) (*DevilData, error) {
	var d DevilData
	d.DevilID = devilID
	err := s.pool.QueryRow(ctx, `
		SELECT ai_type_id, base_level, growth_rate, basic_category,
		       base_demon_id, move_speed, is_boss
		FROM devil_definitions WHERE devil_id = $1`, devilID,
	).Scan(&d.AITypeID, &d.Growth.BaseLevel, &d.Growth.GrowthRate, &d.BasicCategory,
		&d.Union.BaseDemonID, &d.MoveSpeed, &d.IsBoss)
	if err != nil {
		return nil, fmt.Errorf("loading devil definition %d: %w", devilID, err)
	}

	rows, err := s.pool.Query(ctx, `SELECT skill_id FROM devil_skills WHERE devil_id = $1`, devilID)
	if err != nil {
		return nil, fmt.Errorf("loading devil %d skills: %w", devilID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var skillID int32
		if err := rows.Scan(&skillID); err != nil {
			return nil, fmt.Errorf("scanning devil %d skill row: %w", devilID, err)
		}
		d.Skills = append(d.Skills, skillID)
	}
	return &d, rows.Err()
}

// Skill loads one skill definition.
func (s *PGStore) Skill(ctx context.Context, skillID int32) (*SkillData, error) {
	var sd SkillData
	sd.SkillID = skillID
	err := s.pool.QueryRow(ctx, `
		SELECT action_type, activation_type, charge_time_ms, use_count, family,
		       cooldown_id, cooldown_ms, valid_type, range, aoe_range,
		       damage_formula, modifier1, modifier2, is_heal, is_aoe, function_id,
		       hp_cost, mp_cost, bullet_cost, item_cost
		FROM skill_definitions WHERE skill_id = $1`, skillID,
	).Scan(&sd.Basic.ActionType, &sd.Basic.ActivationType, &sd.Basic.ChargeTimeMS,
		&sd.Basic.UseCount, &sd.Basic.Family, &sd.Basic.CooldownID, &sd.Basic.CooldownMS,
		&sd.Target.ValidType, &sd.Target.Range, &sd.Target.AoERange,
		&sd.Damage.Formula, &sd.Damage.Modifier1, &sd.Damage.Modifier2,
		&sd.Damage.IsHeal, &sd.Damage.IsAoE, &sd.Damage.FunctionID,
		&sd.Cost.HP, &sd.Cost.MP, &sd.Cost.Bullet, &sd.Cost.Item)
	if err != nil {
		return nil, fmt.Errorf("loading skill definition %d: %w", skillID, err)
	}
	return &sd, nil
}

// AI loads one AI tuning definition.
func (s *PGStore) AI(ctx context.Context, aiTypeID int32) (*AIData, error) {
	var a AIData
	a.AITypeID = aiTypeID
	err := s.pool.QueryRow(ctx, `
		SELECT aggro_normal_dist, aggro_normal_fov, aggro_night_dist, aggro_night_fov,
		       aggro_cast_dist, aggro_cast_fov, deaggro_dist, think_speed_ms,
		       aggression, aggro_level_limit, defensive_dist, heal_threshold_pct
		FROM ai_definitions WHERE ai_type_id = $1`, aiTypeID,
	).Scan(&a.AggroNormal.Distance, &a.AggroNormal.FoV, &a.AggroNight.Distance, &a.AggroNight.FoV,
		&a.AggroCast.Distance, &a.AggroCast.FoV, &a.DeaggroDistance, &a.ThinkSpeedMS,
		&a.Aggression, &a.AggroLevelLimit, &a.DefensiveDistance, &a.HealThresholdPct)
	if err != nil {
		return nil, fmt.Errorf("loading AI definition %d: %w", aiTypeID, err)
	}
	return &a, nil
}

// Spots loads every spot for a dynamic map.
func (s *PGStore) Spots(ctx context.Context, dynamicMapID int32) (map[int32]SpotRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT spot_id, center_x, center_y, span_x, span_y, rotation, spot_type
		FROM dynamic_map_spots WHERE dynamic_map_id = $1`, dynamicMapID)
	if err != nil {
		return nil, fmt.Errorf("loading spots for dynamic map %d: %w", dynamicMapID, err)
	}
	defer rows.Close()

	out := make(map[int32]SpotRecord)
	for rows.Next() {
		var rec SpotRecord
		if err := rows.Scan(&rec.SpotID, &rec.CenterX, &rec.CenterY, &rec.SpanX, &rec.SpanY,
			&rec.Rotation, &rec.Type); err != nil {
			return nil, fmt.Errorf("scanning spot row for dynamic map %d: %w", dynamicMapID, err)
		}
		out[rec.SpotID] = rec
	}
	return out, rows.Err()
}

// Qmp does not load geometry: it reads no table and returns an error for
// every name, so a zone with a QmpName cannot be loaded through PGStore.
// Decoding the raw QMP binary format is a capture-tooling concern out of
// this core's scope.
func (s *PGStore) Qmp(ctx context.Context, name string) (*QmpFile, error) {
	// No element or shape data is read from the database.
	return nil, fmt.Errorf("qmp file %q: geometry import pipeline not configured", name)
}

// Script loads an AI script's opaque source, serving repeated lookups of
// the same name from the process-wide cache.
func (s *PGStore) Script(ctx context.Context, name string) (*AIScript, error) {
	s.scripts.mu.RLock()
	cached, ok := s.scripts.byName[name]
	s.scripts.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.scripts.group.Do(name, func() (any, error) {
		var src string
		err := s.pool.QueryRow(ctx, `SELECT source FROM ai_scripts WHERE name = $1`, name).Scan(&src)
		if err != nil {
			return nil, fmt.Errorf("loading AI script %q: %w", name, err)
		}
		script := &AIScript{Name: name, Source: src}
		s.scripts.mu.Lock()
		s.scripts.byName[name] = script
		s.scripts.mu.Unlock()
		return script, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AIScript), nil
}

// Zone loads one zone's static definition.
func (s *PGStore) Zone(ctx context.Context, zoneID, dynamicMapID int32) (*ServerZone, error) {
	var z ServerZone
	z.ZoneID = zoneID
	z.DynamicMapID = dynamicMapID
	err := s.pool.QueryRow(ctx, `
		SELECT start_x, start_y, start_rotation, is_global, qmp_name
		FROM zone_definitions WHERE zone_id = $1`, zoneID,
	).Scan(&z.StartX, &z.StartY, &z.StartRotation, &z.Global, &z.QmpName)
	if err != nil {
		return nil, fmt.Errorf("loading zone definition %d: %w", zoneID, err)
	}
	return &z, nil
}

// ZoneInstance loads one instance definition.
func (s *PGStore) ZoneInstance(ctx context.Context, id int32) (*ZoneInstanceData, error) {
	var zi ZoneInstanceData
	zi.ID = id
	err := s.pool.QueryRow(ctx, `SELECT lobby_id FROM zone_instance_definitions WHERE id = $1`, id).
		Scan(&zi.LobbyID)
	if err != nil {
		return nil, fmt.Errorf("loading zone instance definition %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT zone_id, dynamic_map_id FROM zone_instance_members WHERE instance_def_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("loading zone instance %d members: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var zoneID, dmID int32
		if err := rows.Scan(&zoneID, &dmID); err != nil {
			return nil, fmt.Errorf("scanning zone instance %d member row: %w", id, err)
		}
		zi.ZoneIDs = append(zi.ZoneIDs, zoneID)
		zi.DynamicMapIDs = append(zi.DynamicMapIDs, dmID)
	}
	return &zi, rows.Err()
}

// ZoneInstanceVariant loads one instance variant definition.
func (s *PGStore) ZoneInstanceVariant(ctx context.Context, id int32) (*ZoneInstanceVariantData, error) {
	var v ZoneInstanceVariantData
	v.ID = id
	err := s.pool.QueryRow(ctx, `
		SELECT variant_type, sub_id, time_point_0, time_point_1, time_point_2, time_point_3,
		       timer_expiration_event_id, fixed_reward, reward_modifier
		FROM zone_instance_variants WHERE id = $1`, id,
	).Scan(&v.Type, &v.SubID, &v.TimePoints[0], &v.TimePoints[1], &v.TimePoints[2], &v.TimePoints[3],
		&v.TimerExpirationEventID, &v.FixedReward, &v.RewardModifier)
	if err != nil {
		return nil, fmt.Errorf("loading zone instance variant %d: %w", id, err)
	}
	return &v, nil
}

// TimeLimit loads a Normal instance's time-limit duration, in seconds.
func (s *PGStore) TimeLimit(ctx context.Context, timerID int32) (int64, error) {
	var sec int64
	err := s.pool.QueryRow(ctx, `SELECT duration_sec FROM time_limit_definitions WHERE id = $1`, timerID).Scan(&sec)
	if err != nil {
		return 0, fmt.Errorf("loading time limit definition %d: %w", timerID, err)
	}
	return sec, nil
}
