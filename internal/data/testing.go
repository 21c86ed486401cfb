package data

import (
	"context"
	"fmt"
)

// FakeStore is an in-memory DefinitionStore + ServerDataStore for use in
// tests of the ai/zone/spawn/instance packages — no PostgreSQL required.
type FakeStore struct {
	Devils        map[int32]*DevilData
	SkillDefs     map[int32]*SkillData
	AIDefs        map[int32]*AIData
	SpotsByMap    map[int32]map[int32]SpotRecord
	Qmps          map[string]*QmpFile
	Scripts       map[string]*AIScript
	Zones         map[int32]*ServerZone
	ZoneInstances map[int32]*ZoneInstanceData
	Variants      map[int32]*ZoneInstanceVariantData
	TimeLimits    map[int32]int64
}

// NewFakeStore returns an empty FakeStore ready for Put-ing fixtures.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Devils:        make(map[int32]*DevilData),
		SkillDefs:     make(map[int32]*SkillData),
		AIDefs:        make(map[int32]*AIData),
		SpotsByMap:    make(map[int32]map[int32]SpotRecord),
		Qmps:          make(map[string]*QmpFile),
		Scripts:       make(map[string]*AIScript),
		Zones:         make(map[int32]*ServerZone),
		ZoneInstances: make(map[int32]*ZoneInstanceData),
		Variants:      make(map[int32]*ZoneInstanceVariantData),
		TimeLimits:    make(map[int32]int64),
	}
}

func (f *FakeStore) Devil(ctx context.Context, devilID int32) (*DevilData, error) {
	d, ok := f.Devils[devilID]
	if !ok {
		return nil, fmt.Errorf("devil %d: %w", devilID, errNotFound)
	}
	return d, nil
}

func (f *FakeStore) Skill(ctx context.Context, skillID int32) (*SkillData, error) {
	s, ok := f.SkillDefs[skillID]
	if !ok {
		return nil, fmt.Errorf("skill %d: %w", skillID, errNotFound)
	}
	return s, nil
}

func (f *FakeStore) AI(ctx context.Context, aiTypeID int32) (*AIData, error) {
	a, ok := f.AIDefs[aiTypeID]
	if !ok {
		return nil, fmt.Errorf("ai type %d: %w", aiTypeID, errNotFound)
	}
	return a, nil
}

func (f *FakeStore) Spots(ctx context.Context, dynamicMapID int32) (map[int32]SpotRecord, error) {
	return f.SpotsByMap[dynamicMapID], nil
}

func (f *FakeStore) Qmp(ctx context.Context, name string) (*QmpFile, error) {
	q, ok := f.Qmps[name]
	if !ok {
		return nil, fmt.Errorf("qmp %q: %w", name, errNotFound)
	}
	return q, nil
}

func (f *FakeStore) Script(ctx context.Context, name string) (*AIScript, error) {
	s, ok := f.Scripts[name]
	if !ok {
		return nil, fmt.Errorf("script %q: %w", name, errNotFound)
	}
	return s, nil
}

func (f *FakeStore) Zone(ctx context.Context, zoneID, dynamicMapID int32) (*ServerZone, error) {
	z, ok := f.Zones[zoneID]
	if !ok {
		return nil, fmt.Errorf("zone %d: %w", zoneID, errNotFound)
	}
	return z, nil
}

func (f *FakeStore) ZoneInstance(ctx context.Context, id int32) (*ZoneInstanceData, error) {
	zi, ok := f.ZoneInstances[id]
	if !ok {
		return nil, fmt.Errorf("zone instance %d: %w", id, errNotFound)
	}
	return zi, nil
}

func (f *FakeStore) ZoneInstanceVariant(ctx context.Context, id int32) (*ZoneInstanceVariantData, error) {
	v, ok := f.Variants[id]
	if !ok {
		return nil, fmt.Errorf("zone instance variant %d: %w", id, errNotFound)
	}
	return v, nil
}

func (f *FakeStore) TimeLimit(ctx context.Context, timerID int32) (int64, error) {
	v, ok := f.TimeLimits[timerID]
	if !ok {
		return 0, fmt.Errorf("time limit %d: %w", timerID, errNotFound)
	}
	return v, nil
}
