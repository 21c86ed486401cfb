package zone

import (
	"math/rand/v2"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
)

// locationGroupState is the live, mutable half of a SpawnLocationGroupDef:
// the template is immutable; this tracks which entities it has produced and
// when it is next due to respawn.
type locationGroupState struct {
	def  data.SpawnLocationGroupDef
	enabled bool

	spawnedIDs []uint32

	// dueAt is the clock value the group becomes eligible again: set one
	// interval after each respawn, and reset one interval after the moment
	// its population is fully cleared. A zero value with no spawnedIDs
	// means "never spawned, due now."
	dueAt int64

	everSpawned bool // for OneTime/OneTimeRandom
}

// DueRespawnGroups returns the ids of every enabled SpawnLocationGroup whose
// respawn interval has elapsed (or that has never spawned), for the spawn
// manager to repopulate.
func (z *Zone) DueRespawnGroups(now int64) []int32 {
	z.mu.RLock()
	defer z.mu.RUnlock()

	var due []int32
	for id, lg := range z.locations {
		if !lg.enabled {
			continue
		}
		if len(lg.spawnedIDs) > 0 {
			continue // still populated
		}
		if lg.dueAt != 0 && now < lg.dueAt {
			continue
		}
		due = append(due, id)
	}
	return due
}

// MarkGroupRespawned records that groupID was just repopulated at now and
// sets its eligibility to now+interval; NotifyEntityGone moves that to one
// interval after the group's last tracked entity is removed.
func (z *Zone) MarkGroupRespawned(groupID int32, spawnedIDs []uint32, now int64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	lg, ok := z.locations[groupID]
	if !ok {
		return
	}
	lg.spawnedIDs = append(lg.spawnedIDs[:0], spawnedIDs...)
	lg.everSpawned = true
	lg.dueAt = now + lg.def.RespawnIntervalSec*1000
}

// NotifyEntityGone removes id from whichever group tracks it; once a
// group's last tracked entity is gone, DueRespawnGroups starts reporting it
// due again after its interval.
func (z *Zone) NotifyEntityGone(groupID int32, id uint32) {
	z.mu.Lock()
	defer z.mu.Unlock()
	lg, ok := z.locations[groupID]
	if !ok {
		return
	}
	for i, sid := range lg.spawnedIDs {
		if sid == id {
			lg.spawnedIDs = append(lg.spawnedIDs[:i], lg.spawnedIDs[i+1:]...)
			if len(lg.spawnedIDs) == 0 {
				lg.dueAt = z.now + lg.def.RespawnIntervalSec*1000
			}
			break
		}
	}
}

// PickSpawnPoint samples one spawn point for groupID, preferring a random
// named spot from its CandidateSpotIDs and falling back to a random point
// in its Locations rectangles. The spotID return is 0 when the point came
// from a rectangle rather than a named spot. The spawn manager calls this
// once per batch under SpotShareSpot and once per entity under SpotSpread.
func (z *Zone) PickSpawnPoint(groupID int32) (pos model.Point, spotID int32, ok bool) {
	z.mu.RLock()
	lg, ok := z.locations[groupID]
	if !ok {
		z.mu.RUnlock()
		return model.Point{}, 0, false
	}
	def := lg.def
	geometry, disabled, dynamicMap := z.geometry, z.disabled, z.dynamicMap
	z.mu.RUnlock()

	if len(def.CandidateSpotIDs) > 0 && dynamicMap != nil {
		id := def.CandidateSpotIDs[rand.IntN(len(def.CandidateSpotIDs))]
		if s, ok := dynamicMap.Spots[id]; ok {
			return geo.GetRandomSpotPoint(s, geometry, disabled), id, true
		}
	}
	if len(def.Locations) == 0 {
		return model.Point{}, 0, false
	}
	rect := def.Locations[rand.IntN(len(def.Locations))]
	return geo.GetRandomSpotPoint(RectToSpot(rect), geometry, disabled), 0, true
}

// GroupDef returns a SpawnLocationGroup's static template.
func (z *Zone) GroupDef(groupID int32) (data.SpawnLocationGroupDef, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	lg, ok := z.locations[groupID]
	if !ok {
		return data.SpawnLocationGroupDef{}, false
	}
	return lg.def, true
}

// GroupEverSpawned reports whether groupID has ever produced entities,
// for the OneTime spawn mode.
func (z *Zone) GroupEverSpawned(groupID int32) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	lg, ok := z.locations[groupID]
	return ok && lg.everSpawned
}

// GroupAliveCount reports how many of groupID's spawned entities are still
// tracked, for the NoneExist spawn mode.
func (z *Zone) GroupAliveCount(groupID int32) int {
	z.mu.RLock()
	defer z.mu.RUnlock()
	lg, ok := z.locations[groupID]
	if !ok {
		return 0
	}
	return len(lg.spawnedIDs)
}

// SetGroupEnabled implements the EnableGroup/DisableGroup trigger actions.
func (z *Zone) SetGroupEnabled(groupID int32, enabled bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if lg, ok := z.locations[groupID]; ok {
		lg.enabled = enabled
	}
}

// GroupEnabled reports a SpawnLocationGroup's enabled/disabled state.
func (z *Zone) GroupEnabled(groupID int32) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	lg, ok := z.locations[groupID]
	return ok && lg.enabled
}

// DespawnGroup marks every currently tracked entity of groupID for removal
// at end of tick, implementing the Despawn trigger action.
func (z *Zone) DespawnGroup(groupID int32) {
	z.mu.Lock()
	lg, ok := z.locations[groupID]
	var ids []uint32
	if ok {
		ids = append(ids, lg.spawnedIDs...)
	}
	z.mu.Unlock()
	for _, id := range ids {
		z.Despawn(id)
	}
}
