package instance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shirolong/channelcore/internal/data"
)

// ZoneResolver is the external collaborator that turns an instance + a
// requested zone/dynamic-map pair into a live, attached zone id — global
// zones resolve to an already-instanced singleton, private ones are
// created or reused under the instance. Zone creation/teardown plumbing
// lives in the process wiring, out of scope here; the manager only needs
// the resulting zone id to attach it.
type ZoneResolver interface {
	ResolveZone(ctx context.Context, inst *ZoneInstance, zoneID, dynamicMapID int32) (int32, error)
}

// PartnerChecker reports whether a character has a living partner demon
// summoned, gating DemonOnly entry. The partner-demon entity itself is
// out of scope here.
type PartnerChecker interface {
	HasLivingPartnerDemon(characterID int64) bool
}

// Manager owns every live ZoneInstance and the access-grant map from
// character id to a not-yet-entered instance id. Instance-level
// structures are protected by a single mutex; callers must not hold it
// while entering a zone-tick.
type Manager struct {
	mu sync.Mutex // mLock

	store data.ServerDataStore
	log   *slog.Logger

	nextID atomic.Int32

	instances map[int32]*ZoneInstance
	access    map[int64]int32 // characterID -> pending instance id
}

// New builds an empty Manager.
func New(store data.ServerDataStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:     store,
		log:       log,
		instances: make(map[int32]*ZoneInstance),
		access:    make(map[int64]int32),
	}
}

// CreateInstance validates the instance/variant/timer definitions, grants
// access to requesterCID and its party, and registers a fresh ZoneInstance.
func (m *Manager) CreateInstance(ctx context.Context, requesterCID int64, partyCIDs []int64, instanceDefID, variantID, timerID, expirationEventID int32) (*ZoneInstance, error) {
	def, err := m.store.ZoneInstance(ctx, instanceDefID)
	if err != nil {
		return nil, fmt.Errorf("%w: instance def %d: %v", ErrDefinitionNotFound, instanceDefID, err)
	}

	var variant *data.ZoneInstanceVariantData
	if variantID != 0 {
		v, err := m.store.ZoneInstanceVariant(ctx, variantID)
		if err != nil {
			return nil, fmt.Errorf("%w: variant %d: %v", ErrVariantNotFound, variantID, err)
		}
		variant = v
	}

	zi := &ZoneInstance{
		id:                m.nextID.Add(1),
		definitionID:      instanceDefID,
		variantID:         variantID,
		variant:           variant,
		timerID:           timerID,
		expirationEventID: expirationEventID,
		access:            make(map[int64]struct{}, 1+len(partyCIDs)),
		originalAccess:    make(map[int64]struct{}, 1+len(partyCIDs)),
	}
	zi.access[requesterCID] = struct{}{}
	zi.originalAccess[requesterCID] = struct{}{}
	for _, cid := range partyCIDs {
		zi.access[cid] = struct{}{}
		zi.originalAccess[cid] = struct{}{}
	}
	_ = def

	if timerID != 0 && variant != nil {
		switch variant.Type {
		case data.InstanceNormal:
			sec, err := m.store.TimeLimit(ctx, timerID)
			if err != nil {
				return nil, fmt.Errorf("%w: timer %d: %v", ErrTimerNotFound, timerID, err)
			}
			zi.timeLimitSec = sec
		case data.InstanceDemonOnly:
			zi.timerColor = TimerColor(timerID)
		case data.InstanceTimeTrial:
			// No timer definition is expected; timerID is ignored.
		}
	}

	m.mu.Lock()
	m.instances[zi.id] = zi
	for cid := range zi.access {
		m.access[cid] = zi.id
	}
	m.mu.Unlock()

	m.log.Info("instance created", "instanceID", zi.id, "definitionID", instanceDefID, "variantID", variantID, "accessCount", len(zi.access))
	return zi, nil
}

// ConsumeAccess resolves and clears characterID's pending access grant.
// EnterZone does not call it; a pending grant stays until ConsumeAccess or
// LeaveAccess clears it.
func (m *Manager) ConsumeAccess(characterID int64) (*ZoneInstance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.access[characterID]
	if !ok {
		return nil, false
	}
	delete(m.access, characterID)
	return m.instances[id], true
}

// Get resolves a live instance by id.
func (m *Manager) Get(id int32) (*ZoneInstance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	zi, ok := m.instances[id]
	return zi, ok
}

// LeaveAccess revokes characterID's access grant to whichever instance it
// names, both a pending grant and live-instance membership, without
// tearing down the instance itself.
func (m *Manager) LeaveAccess(characterID int64) {
	m.mu.Lock()
	id, hadPending := m.access[characterID]
	delete(m.access, characterID)
	inst := m.instances[id]
	m.mu.Unlock()

	if hadPending && inst != nil {
		inst.RevokeAccess(characterID)
	}
}

// EnterZone handles the instance-access portion of entering a zone: it
// requires characterID to be in the instance's access set (it does not
// consume the pending access grant), enforces the DemonOnly partner-demon gate, resolves
// the target zone through resolver, starts the instance timer on first
// entry, and attaches the zone. Player placement/movement and the
// zone-out/zone-in trigger firing are the caller's (zone package's)
// responsibility.
func (m *Manager) EnterZone(ctx context.Context, characterID int64, instanceID, zoneID, dynamicMapID int32, resolver ZoneResolver, partners PartnerChecker, now int64) (zoneAttachedID int32, err error) {
	inst, ok := m.Get(instanceID)
	if !ok {
		return 0, ErrInstanceNotFound
	}
	if !inst.HasAccess(characterID) {
		return 0, ErrNoAccess
	}

	if t, hasVariant := inst.VariantType(); hasVariant && t == data.InstanceDemonOnly {
		if partners != nil && !partners.HasLivingPartnerDemon(characterID) {
			return 0, ErrPartnerRequired
		}
	}

	attachedID, err := resolver.ResolveZone(ctx, inst, zoneID, dynamicMapID)
	if err != nil {
		return 0, fmt.Errorf("resolving zone %d for instance %d: %w", zoneID, instanceID, err)
	}
	inst.AttachZone(attachedID)

	if inst.TimerState() == TimerNotStarted {
		if err := inst.startTimer(now); err != nil {
			m.log.Warn("starting instance timer", "instanceID", instanceID, "err", err)
		}
	}

	return attachedID, nil
}

// Teardown removes id's entry entirely. A zone-instance with empty access
// CID set AND no active connections in any of its zones is eligible for
// teardown at next opportunity; callers (scheduler) verify the connection
// condition before calling this.
func (m *Manager) Teardown(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return
	}
	for cid, pendingID := range m.access {
		if pendingID == id {
			delete(m.access, cid)
		}
	}
	delete(m.instances, id)
	m.log.Info("instance torn down", "instanceID", id, "definitionID", inst.definitionID)
}

// TeardownEligible reports whether id has no access grants left; combined
// with the caller's own zone-connection check this implements the
// teardown invariant.
func (m *Manager) TeardownEligible(id int32) bool {
	inst, ok := m.Get(id)
	return ok && inst.AccessEmpty()
}
