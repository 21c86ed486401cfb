// Package data implements the read-only external collaborators: the
// definition store (devil/skill/AI/spot/QMP/script definitions) and the
// server data store (zone/instance-variant definitions), both backed by
// PostgreSQL via pgx.
package data

import "github.com/shirolong/channelcore/internal/geo"

// AggroProfile is one of a devil's aggro distance/FoV pairs (day, night, or
// while the target is casting).
type AggroProfile struct {
	Distance float64 // world units
	FoV      float64 // radians, full angle (not half)
}

// AIData is the AI tuning table for one AI type, keyed by aiTypeId.
type AIData struct {
	AITypeID        int32
	AggroNormal     AggroProfile
	AggroNight      AggroProfile
	AggroCast       AggroProfile
	DeaggroDistance float64
	ThinkSpeedMS    int64
	Aggression      int32
	AggroLevelLimit int32
	DefensiveDistance float64
	HealThresholdPct  int32
}

// GrowthData is the per-level stat growth curve of a devil definition.
type GrowthData struct {
	BaseLevel  int32
	BaseStats  []int32
	GrowthRate float64
}

// BattleData holds per-level battle stat rows.
type BattleData struct {
	Stats []int32
}

// UnionData names the base demon a fusion/evolution chain springs from.
type UnionData struct {
	BaseDemonID int32
}

// DevilData is one demon/NPC definition.
type DevilData struct {
	DevilID       int32
	AITypeID      int32
	Growth        GrowthData
	Battle        BattleData
	BasicCategory int32
	Union         UnionData
	MoveSpeed     float32
	IsBoss        bool
	Skills        []int32 // skill ids this devil may learn/use
}

// SkillBasic carries the non-damage, non-targeting skill metadata used by
// the skill engine's bucketing pass.
type SkillBasic struct {
	ActionType     string // e.g. "SPIN","RAPID","COUNTER","DODGE","NORMAL"
	ActivationType string // "Active" or "Passive"
	ChargeTimeMS   int32
	UseCount       int32
	Family         string // "normal","item","fusion",...
	CooldownID     int32
	CooldownMS     int64
}

// SkillTarget carries targeting/range metadata.
type SkillTarget struct {
	ValidType string // e.g. "enemy","self","ally","dead-ally","party"
	Range     float64
	AoERange  float64
}

// BattleDamage carries the damage formula fields the outclass check
// compares.
type BattleDamage struct {
	Formula     string
	Modifier1   float64
	Modifier2   float64
	IsHeal      bool
	AddStatuses []int32
	FunctionID  int32
	IsAoE       bool
}

// SkillCost is the per-use resource cost of a skill.
type SkillCost struct {
	HP     int32
	MP     int32
	Bullet int32
	Item   int32
}

// SkillData is one skill definition at a given level.
type SkillData struct {
	SkillID int32
	Basic   SkillBasic
	Target  SkillTarget
	Damage  BattleDamage
	Cost    SkillCost
}

// AIScript is the opaque scripting-host source for one AI behavior script.
// The core never interprets the text; internal/script does.
type AIScript struct {
	Name   string
	Source string
}

// ServerZone is the static definition of one zone.
type ServerZone struct {
	ZoneID        int32
	DynamicMapID  int32
	StartX        float32
	StartY        float32
	StartRotation float32
	Global        bool
	QmpName       string
	SpawnGroups         []SpawnGroupDef
	SpawnLocationGroups []SpawnLocationGroupDef
	Triggers            []TriggerDef
}

// ZoneInstanceData names the zones and layout variants composing one
// instance definition.
type ZoneInstanceData struct {
	ID            int32
	LobbyID       int32
	ZoneIDs       []int32
	DynamicMapIDs []int32
}

// InstanceVariantType enumerates InstanceType variants.
type InstanceVariantType int32

const (
	InstanceNormal InstanceVariantType = iota
	InstanceTimeTrial
	InstanceDemonOnly
)

// ZoneInstanceVariantData configures one instance variant.
type ZoneInstanceVariantData struct {
	ID                     int32
	Type                   InstanceVariantType
	SubID                  int32
	ZonePartialIDs         []int32
	TimePoints             [4]int64 // seconds
	TimerExpirationEventID int32
	FixedReward            int64
	RewardModifier         float64
}

// SpawnRestrictionDef gates spawning by clock conditions.
type SpawnRestrictionDef struct {
	MoonPhaseMask uint16 // bit i set = phase i allowed
	GameTimeFrom  int32  // minutes since midnight, inclusive
	GameTimeTo    int32  // minutes since midnight, exclusive (stored end+1)
	RealTimeFrom  int32
	RealTimeTo    int32
	DayOfWeekMask uint8
	Dates         []string // "YYYY-MM-DD"
}

// SpawnDef points at a devil definition plus AI overrides.
type SpawnDef struct {
	DevilID           int32
	OverrideAIScript  string
	OverrideAggression int32
}

// SpawnGroupDef enumerates Spawn templates and counts.
type SpawnGroupDef struct {
	ID     int32
	Spawns []SpawnCount
}

// SpawnCount pairs a spawn template with how many to create.
type SpawnCount struct {
	Spawn SpawnDef
	Count int32
}

// SpotSelectionMode controls how a SpawnLocationGroup distributes entities
// across candidate spots.
type SpotSelectionMode int32

const (
	SpotShareSpot SpotSelectionMode = iota
	SpotSpread
)

// SpawnLocationGroupDef is a declarative spawn template: a set of candidate
// spots or rectangles plus a respawn interval and clock restriction.
type SpawnLocationGroupDef struct {
	ID                 int32
	CandidateGroupIDs  []int32
	CandidateSpotIDs   []int32
	Locations          []RectLocation
	RespawnIntervalSec int64
	SpotMode           SpotSelectionMode
	Restriction        *SpawnRestrictionDef
}

// RectLocation is a rectangular spawn area.
type RectLocation struct {
	MinX, MinY, MaxX, MaxY float32
}

// TriggerEvent enumerates the zone trigger hook points.
type TriggerEvent int32

const (
	TriggerOnSetup TriggerEvent = iota
	TriggerOnZoneIn
	TriggerOnZoneOut
	TriggerOnSpawn
	TriggerOnDeath
	TriggerOnRevival
	TriggerOnFlagSet
	TriggerOnTime
	TriggerOnSystemTime
	TriggerOnMoonPhase
)

// TriggerAction enumerates the spawn-manager actions a trigger can fire.
type TriggerAction int32

const (
	ActionSpawnNormal TriggerAction = iota
	ActionSpawnOneTime
	ActionSpawnOneTimeRandom
	ActionSpawnNoneExist
	ActionEnableGroup
	ActionDisableGroup
	ActionDespawn
)

// TriggerDef is one entry in a zone's trigger registry.
type TriggerDef struct {
	Event        TriggerEvent
	Action       TriggerAction
	GroupID      int32
	TargetValue  int64 // for OnTime/OnSystemTime/OnMoonPhase: the value to cross
	FlagKey      string
}

// QmpFile returns the parsed geometry elements for a named map file.
type QmpFile struct {
	Name     string
	Elements []geo.Element
}
