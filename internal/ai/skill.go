package ai

import (
	"math/rand/v2"
	"strings"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/model"
)

// proximityActionTypes require closing distance before they can be used.
var proximityActionTypes = map[string]bool{
	"SPIN":    true,
	"RAPID":   true,
	"COUNTER": true,
	"DODGE":   true,
}

// defensiveActionTypes bucket a skill as DEF regardless of its target type.
var defensiveActionTypes = map[string]bool{
	"GUARD":   true,
	"COUNTER": true,
	"DODGE":   true,
}

// RefreshSkillMap rebuilds c's cached skill map from its devil/NPC
// definition's skill list, bucketing and weighting each usable skill and
// computing the outclass relation between them. A no-op if the cache is
// already valid.
func RefreshSkillMap(w World, c model.Combatant) {
	ais := c.AIInfo()
	if ais.SkillsMapped() {
		return
	}

	entity := c.Base()
	skillMap := make(map[model.SkillType][]model.SkillWeight)
	var usable []classified

	weights := w.SkillWeights()

	for _, skillID := range w.EntitySkillIDs(c) {
		def, ok := w.SkillDefinition(skillID)
		if !ok {
			continue
		}
		if !strings.EqualFold(def.Basic.ActivationType, "Active") {
			continue
		}
		if def.Basic.Family == "item" || def.Basic.Family == "fusion" {
			continue
		}
		if !w.SkillFunctionSupported(def.Damage.FunctionID) {
			continue
		}

		bucket, ok := bucketSkill(def)
		if !ok {
			continue
		}

		if def.Cost.Bullet > 0 || def.Cost.Item > 0 {
			continue
		}
		if def.Cost.HP >= entity.MaxHP() || def.Cost.MP > entity.MaxMP() {
			continue
		}

		weight := skillWeight(def, bucket, weights)
		skillMap[bucket] = append(skillMap[bucket], model.SkillWeight{SkillID: skillID, Weight: weight})
		usable = append(usable, classified{def: def, bucket: bucket})
	}

	outclassed := computeOutclass(usable)
	ais.SetSkillMap(skillMap, outclassed)
}

// bucketSkill classifies a skill definition into CLSR/LNGR/HEAL/SUPPORT/DEF,
// or reports false if it has no valid bucket (a party-wide or dead-target
// skill, which enemies cannot use).
func bucketSkill(def data.SkillData) (model.SkillType, bool) {
	validType := strings.ToLower(def.Target.ValidType)
	if validType == "party" || validType == "dead-ally" {
		return 0, false
	}

	if defensiveActionTypes[def.Basic.ActionType] {
		return model.SkillDEF, true
	}

	switch validType {
	case "self", "ally":
		if def.Damage.IsHeal {
			return model.SkillHEAL, true
		}
		return model.SkillSUPPORT, true
	case "enemy":
		if def.Target.Range > 0 {
			return model.SkillLNGR, true
		}
		return model.SkillCLSR, true
	default:
		return 0, false
	}
}

// skillWeight computes a skill's selection weight: DEF is always 1;
// everything else starts at 2 and picks up bonuses for being instant,
// free, a heal, or ranged.
func skillWeight(def data.SkillData, bucket model.SkillType, w SkillWeightConfig) int32 {
	if bucket == model.SkillDEF {
		return 1
	}
	weight := int32(2)
	if def.Basic.ChargeTimeMS <= 0 {
		weight += w.Charge
	}
	if isFree(def.Cost) {
		weight += w.Cost
	}
	if def.Damage.IsHeal {
		weight += w.Heal
	}
	if bucket == model.SkillLNGR {
		weight += w.Range
	}
	return weight
}

func isFree(cost data.SkillCost) bool {
	return cost.HP == 0 && cost.MP == 0 && cost.Bullet == 0 && cost.Item == 0
}

// isOutclassEligible reports whether a skill can render another redundant:
// no cooldown, no cost.
func isOutclassEligible(def data.SkillData) bool {
	return def.Basic.CooldownMS <= 0 && isFree(def.Cost)
}

type classified = struct {
	def    data.SkillData
	bucket model.SkillType
}

// computeOutclass finds, for every outclass-eligible skill A, every other
// skill B it renders redundant under a strict same-category criteria, and
// returns the union of outclassed ids.
func computeOutclass(usable []classified) map[int32]struct{} {
	outclassed := make(map[int32]struct{})
	for _, a := range usable {
		if !isOutclassEligible(a.def) {
			continue
		}
		for _, b := range usable {
			if a.def.SkillID == b.def.SkillID {
				continue
			}
			if a.def.Damage.IsHeal != b.def.Damage.IsHeal {
				continue // heal only outclasses heal
			}
			if b.def.Damage.IsAoE {
				continue
			}
			if len(b.def.Damage.AddStatuses) > 0 {
				continue
			}
			if b.def.Damage.Formula != a.def.Damage.Formula {
				continue
			}
			if b.def.Damage.Modifier1 > a.def.Damage.Modifier1 {
				continue
			}
			if (a.bucket == model.SkillCLSR || a.bucket == model.SkillLNGR) && b.def.Target.Range > a.def.Target.Range {
				continue
			}
			if b.def.Basic.UseCount > a.def.Basic.UseCount {
				continue
			}
			outclassed[b.def.SkillID] = struct{}{}
		}
	}
	return outclassed
}

// PrepareSkillUsage refreshes the skill map, consults the prepareSkill
// script override, and — absent an override decision — picks a
// weighted-random skill from the candidate pool and queues a UseSkill
// command for it. Returns false if no skill could be queued (the caller
// should drop aggro).
func PrepareSkillUsage(w World, c model.Combatant, now int64) bool {
	RefreshSkillMap(w, c)

	entity := c.Base()
	ais := c.AIInfo()

	if handle := ais.Script(); handle != nil {
		result, defined, err := handle.CallAction("prepareSkill", model.ScriptContext{
			TargetID: entity.AggroTarget(),
			SourceID: entity.ID(),
			Now:      now,
			HPRatio:  entity.HPRatio(),
		})
		if err == nil && defined {
			switch {
			case result < 0:
				return false
			case result == 0:
				return true
			}
		}
	}

	params := ais.Params()
	canHeal := entity.HPRatio()*100 <= float64(params.HealThresholdPct)
	canFight := entity.AggroTarget() != 0
	skillMap := ais.SkillMap()

	settings := ais.Settings()
	var pool []model.SkillWeight
	var bucketOf = make(map[int32]model.SkillType)

	addBucket := func(bucket model.SkillType, allowed bool) {
		if !allowed {
			return
		}
		for _, sw := range skillMap[bucket] {
			if ais.IsOutclassed(sw.SkillID) {
				continue
			}
			if !ais.SkillReady(sw.SkillID, now) {
				continue
			}
			pool = append(pool, sw)
			bucketOf[sw.SkillID] = bucket
		}
	}

	addBucket(model.SkillHEAL, settings.Allows(model.SkillAllowHeal) && canHeal)
	addBucket(model.SkillSUPPORT, settings.Allows(model.SkillAllowSupport))
	addBucket(model.SkillCLSR, settings.Allows(model.SkillAllowAttack) && canFight)
	addBucket(model.SkillLNGR, settings.Allows(model.SkillAllowAttack) && canFight)
	addBucket(model.SkillDEF, settings.Allows(model.SkillAllowAttack) && canFight)

	if len(pool) == 0 {
		return false
	}

	picked := weightedPick(pool)
	def, ok := w.SkillDefinition(picked)
	if !ok {
		return false
	}

	bucket := bucketOf[picked]
	var targetID uint32
	if bucket == model.SkillHEAL || bucket == model.SkillSUPPORT {
		targetID = entity.ID()
	} else {
		targetID = entity.AggroTarget()
	}

	if proximityActionTypes[def.Basic.ActionType] {
		SkillAdvance(w, c, def, targetID, now)
	}

	ais.Queue().Push(&model.UseSkillCommand{SkillID: picked, TargetID: targetID})
	return true
}

// weightedPick picks one entry from pool with probability proportional to
// its weight.
func weightedPick(pool []model.SkillWeight) int32 {
	total := int32(0)
	for _, sw := range pool {
		total += sw.Weight
	}
	if total <= 0 {
		return pool[rand.IntN(len(pool))].SkillID
	}
	roll := rand.IntN(int(total))
	acc := int32(0)
	for _, sw := range pool {
		acc += sw.Weight
		if int32(roll) < acc {
			return sw.SkillID
		}
	}
	return pool[len(pool)-1].SkillID
}

// SkillAdvance moves entity into range of skill's target before it fires.
// Returns 0 if it queued a move, 1 if it could not move, 2 if the entity
// is already in range.
func SkillAdvance(w World, c model.Combatant, skill data.SkillData, targetID uint32, now int64) int {
	entity := c.Base()
	params := c.AIInfo().Params()

	targetPos, ok := w.Position(targetID)
	if !ok {
		return 1
	}
	self := entity.Position(now)

	normalRange := skill.Target.Range
	maxTargetRange := 400 + normalRange*10
	const buffer = 20

	if model.Distance(self, targetPos) <= maxTargetRange-buffer {
		return 2
	}

	minDistance := 350.0
	if normalRange > 0 {
		minDistance = maxTargetRange - buffer
	}
	maxDistance := 1.5 * params.AggroNormalDistance

	if !entity.CanAct() {
		return 1
	}
	cmd := Chase(entity, targetPos, targetID, minDistance, maxDistance, now)
	c.AIInfo().Queue().Push(cmd)
	return 0
}
