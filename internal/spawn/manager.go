// Package spawn implements the spawn manager: periodic respawn
// repopulation plus the trigger-driven spawn modes (Normal/OneTime/
// OneTimeRandom/NoneExist/EnableGroup/DisableGroup/Despawn) over a
// SpawnLocationGroup/SpawnGroup template hierarchy, with its respawn-timer,
// spot-selection, and clock-restriction rules.
package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/worldclock"
	"github.com/shirolong/channelcore/internal/zone"
)

// Zone is the subset of *zone.Zone the spawn manager acts on — named so
// tests can substitute a fake without pulling in the full zone package's
// construction requirements.
type Zone interface {
	DueRespawnGroups(now int64) []int32
	MarkGroupRespawned(groupID int32, spawnedIDs []uint32, now int64)
	GroupDef(groupID int32) (data.SpawnLocationGroupDef, bool)
	GroupEverSpawned(groupID int32) bool
	GroupAliveCount(groupID int32) int
	SetGroupEnabled(groupID int32, enabled bool)
	GroupEnabled(groupID int32) bool
	DespawnGroup(groupID int32)
	PickSpawnPoint(groupID int32) (pos model.Point, spotID int32, ok bool)
	SpawnGroup(id int32) (data.SpawnGroupDef, bool)
	SpawnEnemy(ctx context.Context, spawnSourceID int64, locGroupID, spotID int32, devilID, level, aggression int32, scriptName string, pos model.Point) (*model.Enemy, error)
}

var _ Zone = (*zone.Zone)(nil)

// Manager repopulates SpawnLocationGroups on their respawn interval and
// carries out the spawn/despawn/enable actions a fired TriggerDef names.
type Manager struct {
	log *slog.Logger
}

// New builds a Manager.
func New(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log}
}

// UpdateSpawnGroups repopulates every SpawnLocationGroup z reports due: on
// each tick the zone returns the list of groups whose interval has
// elapsed, and the spawn manager re-populates them. A group whose clock
// restriction is not currently satisfied is skipped without being marked
// respawned, so it is retried every tick until its window opens.
func (m *Manager) UpdateSpawnGroups(ctx context.Context, z Zone, now int64, clock worldclock.Clock) {
	for _, groupID := range z.DueRespawnGroups(now) {
		def, ok := z.GroupDef(groupID)
		if !ok {
			continue
		}
		if !zone.RestrictionSatisfied(def.Restriction, clock) {
			continue
		}
		ids, err := m.populateGroup(ctx, z, groupID, def)
		if err != nil {
			m.log.Error("respawning group", "groupID", groupID, "err", err)
			continue
		}
		z.MarkGroupRespawned(groupID, ids, now)
	}
}

// ApplyTrigger carries out the spawn-manager action named by a fired
// trigger's spawn mode, selected by a triggering Action.
func (m *Manager) ApplyTrigger(ctx context.Context, z Zone, trig data.TriggerDef, now int64) error {
	switch trig.Action {
	case data.ActionEnableGroup:
		z.SetGroupEnabled(trig.GroupID, true)
		return nil
	case data.ActionDisableGroup:
		z.SetGroupEnabled(trig.GroupID, false)
		return nil
	case data.ActionDespawn:
		z.DespawnGroup(trig.GroupID)
		return nil
	case data.ActionSpawnNormal:
		return m.spawnNow(ctx, z, trig.GroupID, now, false, false)
	case data.ActionSpawnOneTime, data.ActionSpawnOneTimeRandom:
		// OneTimeRandom's "choose exactly one uniformly among eligible
		// candidates" is already satisfied by populateGroup's uniform
		// pick among CandidateGroupIDs; marking the location group
		// everSpawned after that first success blocks every later
		// attempt, which is exactly OneTime's skip rule too.
		return m.spawnNow(ctx, z, trig.GroupID, now, true, false)
	case data.ActionSpawnNoneExist:
		return m.spawnNow(ctx, z, trig.GroupID, now, false, true)
	default:
		return fmt.Errorf("spawn: unknown trigger action %d", trig.Action)
	}
}

// spawnNow performs an immediate (non-respawn-timer) spawn for groupID,
// gated by the group's enabled flag and, if requested, the OneTime /
// NoneExist skip rules.
func (m *Manager) spawnNow(ctx context.Context, z Zone, groupID int32, now int64, skipIfEverSpawned, skipIfAnyAlive bool) error {
	if !z.GroupEnabled(groupID) {
		return nil
	}
	if skipIfEverSpawned && z.GroupEverSpawned(groupID) {
		return nil
	}
	if skipIfAnyAlive && z.GroupAliveCount(groupID) > 0 {
		return nil
	}
	def, ok := z.GroupDef(groupID)
	if !ok {
		return fmt.Errorf("spawn: unknown location group %d", groupID)
	}
	ids, err := m.populateGroup(ctx, z, groupID, def)
	if err != nil {
		return err
	}
	z.MarkGroupRespawned(groupID, ids, now)
	return nil
}

// populateGroup picks one candidate SpawnGroup uniformly, expands its
// Spawn×Count templates, resolves spot(s) per the group's SpotMode, and
// spawns every resulting entity.
func (m *Manager) populateGroup(ctx context.Context, z Zone, groupID int32, def data.SpawnLocationGroupDef) ([]uint32, error) {
	if len(def.CandidateGroupIDs) == 0 {
		return nil, nil
	}
	candidateID := def.CandidateGroupIDs[rand.IntN(len(def.CandidateGroupIDs))]
	sg, ok := z.SpawnGroup(candidateID)
	if !ok {
		return nil, fmt.Errorf("spawn group %d not found (candidate of location group %d)", candidateID, groupID)
	}

	var shareSpotPos model.Point
	var shareSpotID int32
	if def.SpotMode == data.SpotShareSpot {
		pos, spotID, ok := z.PickSpawnPoint(groupID)
		if !ok {
			return nil, fmt.Errorf("no spawn point available for location group %d", groupID)
		}
		shareSpotPos, shareSpotID = pos, spotID
	}

	var spawned []uint32
	var firstErr error
	for _, sc := range sg.Spawns {
		for i := int32(0); i < sc.Count; i++ {
			pos, spotID := shareSpotPos, shareSpotID
			if def.SpotMode != data.SpotShareSpot {
				p, sid, ok := z.PickSpawnPoint(groupID)
				if !ok {
					if firstErr == nil {
						firstErr = fmt.Errorf("no spawn point available for location group %d", groupID)
					}
					continue
				}
				pos, spotID = p, sid
			}

			e, err := z.SpawnEnemy(ctx, int64(groupID), groupID, spotID, sc.Spawn.DevilID, 0, sc.Spawn.OverrideAggression, sc.Spawn.OverrideAIScript, pos)
			if err != nil {
				m.log.Error("spawning enemy", "groupID", groupID, "spawnGroupID", candidateID, "devilID", sc.Spawn.DevilID, "err", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			spawned = append(spawned, e.ID())
		}
	}
	if len(spawned) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return spawned, nil
}
