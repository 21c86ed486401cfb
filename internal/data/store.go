package data

import (
	"context"
	"errors"
)

// errNotFound is returned by FakeStore lookups that miss; PGStore reports
// pgx.ErrNoRows wrapped with its own context instead.
var errNotFound = errors.New("definition not found")

// DefinitionStore is the read-only definition collaborator for
// devil/skill/AI/spot/QMP/script definitions. Implementations must be safe
// for concurrent use — every zone's tick goroutine reads through it.
type DefinitionStore interface {
	Devil(ctx context.Context, devilID int32) (*DevilData, error)
	Skill(ctx context.Context, skillID int32) (*SkillData, error)
	AI(ctx context.Context, aiTypeID int32) (*AIData, error)
	Spots(ctx context.Context, dynamicMapID int32) (map[int32]SpotRecord, error)
	Qmp(ctx context.Context, name string) (*QmpFile, error)
	Script(ctx context.Context, name string) (*AIScript, error)
}

// SpotRecord is the raw row shape for SpotData; internal/geo's
// Spot is built from it by the zone package, which also knows the
// dynamic-map id.
type SpotRecord struct {
	SpotID   int32
	CenterX  float32
	CenterY  float32
	SpanX    float32
	SpanY    float32
	Rotation float32
	Type     int32
}

// ServerDataStore is the read-only server-data collaborator for
// zone and instance-variant definitions.
type ServerDataStore interface {
	Zone(ctx context.Context, zoneID, dynamicMapID int32) (*ServerZone, error)
	ZoneInstance(ctx context.Context, id int32) (*ZoneInstanceData, error)
	ZoneInstanceVariant(ctx context.Context, id int32) (*ZoneInstanceVariantData, error)
	// TimeLimit loads a Normal instance's time-limit definition (duration in
	// seconds), keyed by the timerId passed to CreateInstance.
	TimeLimit(ctx context.Context, timerID int32) (int64, error)
}
