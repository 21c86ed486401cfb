// Package script hosts the gopher-lua AI scripting environment: one Lua
// state per zone, shared by every scripted entity in it, exposing a small
// set of Go-registered Lua functions (QueueMoveCommand, QueueScriptCommand,
// QueueUseSkillCommand, QueueWaitCommand, Chase, Circle, Retreat) and
// calling back into a script's prepare/idle/wander/aggro/combat/
// combatSkillHit/prepareSkill/target entry points each tick.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/geo"
	"github.com/shirolong/channelcore/internal/model"
)

// PositionLookup resolves an entity's current world position. Injected
// rather than imported directly so this package does not depend on
// internal/zone (which owns entity registries).
type PositionLookup func(entityID uint32) (model.Point, bool)

// QueueLookup resolves a scripted entity's AIState by id, so the Go
// functions a script calls can reach the right command queue without the
// script carrying a Go pointer. Also injected to avoid an import cycle
// with internal/zone.
type QueueLookup func(entityID uint32) (*model.AIState, bool)

// Host is one zone's Lua state. gopher-lua states are not safe for
// concurrent use, so every Attach and Call serializes on mu — a zone's AI
// tick is already single-threaded per zone, so this is uncontended in
// practice.
type Host struct {
	mu       sync.Mutex
	vm       *lua.LState
	store    data.DefinitionStore
	modules  map[string]*lua.LTable
	position PositionLookup
	queues   QueueLookup
	log      *slog.Logger
}

// NewHost builds a zone-scoped scripting host backed by the given
// definition store. position and queues resolve entity state for the
// bridge functions registered below.
func NewHost(store data.DefinitionStore, position PositionLookup, queues QueueLookup, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	h := &Host{
		vm:       lua.NewState(lua.Options{SkipOpenLibs: false}),
		store:    store,
		modules:  make(map[string]*lua.LTable),
		position: position,
		queues:   queues,
		log:      log,
	}
	h.registerBridge()
	return h
}

// Close releases the zone's Lua state. Call once, when the zone unloads.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vm.Close()
}

// Handle is the per-entity scripting context; it satisfies
// model.ScriptHandle and is stored on the entity's AIState. It holds no
// Lua state of its own — the VM lives on the owning Host.
type Handle struct {
	host     *Host
	entityID uint32
	name     string
	module   *lua.LTable
}

var _ model.ScriptHandle = (*Handle)(nil)

// Name returns the script's name, for logging.
func (h *Handle) Name() string { return h.name }

// Attach compiles (or reuses a cached compile of) the named script and
// returns a handle bound to one entity. Scripts return a table of named
// entry-point functions rather than setting bare globals, so two entities
// running two different scripts in the same zone VM never clobber each
// other's function names.
func (h *Host) Attach(ctx context.Context, entityID uint32, scriptName string) (*Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	module, ok := h.modules[scriptName]
	if !ok {
		script, err := h.store.Script(ctx, scriptName)
		if err != nil {
			return nil, fmt.Errorf("loading script %q for entity %d: %w", scriptName, entityID, err)
		}
		if err := h.vm.DoString(script.Source); err != nil {
			return nil, fmt.Errorf("compiling script %q: %w", scriptName, err)
		}
		ret := h.vm.Get(-1)
		h.vm.Pop(1)
		module, ok = ret.(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("script %q must return a table of entry points", scriptName)
		}
		h.modules[scriptName] = module
	}

	return &Handle{host: h, entityID: entityID, name: scriptName, module: module}, nil
}

// registerBridge installs the Go functions every loaded script can call.
// Each takes the calling entity's id as its first argument since one VM
// is shared by every scripted entity in the zone.
func (h *Host) registerBridge() {
	h.vm.SetGlobal("QueueWaitCommand", h.vm.NewFunction(func(L *lua.LState) int {
		ai, ok := h.queues(uint32(L.CheckInt(1)))
		if !ok {
			return 0
		}
		ai.Queue().Push(&model.WaitCommand{DurationMS: L.CheckInt64(2)})
		return 0
	}))

	h.vm.SetGlobal("QueueScriptCommand", h.vm.NewFunction(func(L *lua.LState) int {
		ai, ok := h.queues(uint32(L.CheckInt(1)))
		if !ok {
			return 0
		}
		ai.Queue().Push(&model.ScriptedCommand{FuncName: L.CheckString(2)})
		return 0
	}))

	h.vm.SetGlobal("QueueUseSkillCommand", h.vm.NewFunction(func(L *lua.LState) int {
		ai, ok := h.queues(uint32(L.CheckInt(1)))
		if !ok {
			return 0
		}
		ai.Queue().Push(&model.UseSkillCommand{
			SkillID:  int32(L.CheckInt(2)),
			TargetID: uint32(L.CheckInt(3)),
		})
		return 0
	}))

	h.vm.SetGlobal("QueueMoveCommand", h.vm.NewFunction(func(L *lua.LState) int {
		ai, ok := h.queues(uint32(L.CheckInt(1)))
		if !ok {
			return 0
		}
		x := float32(L.CheckNumber(2))
		y := float32(L.CheckNumber(3))
		ai.Queue().Push(&model.MoveCommand{Path: []model.Point{{X: x, Y: y}}})
		return 0
	}))

	h.vm.SetGlobal("Chase", h.vm.NewFunction(func(L *lua.LState) int {
		selfID := uint32(L.CheckInt(1))
		targetID := uint32(L.CheckInt(2))
		stopDistance := L.CheckNumber(3)
		ai, ok := h.queues(selfID)
		if !ok {
			return 0
		}
		self, target, ok := h.selfAndTarget(selfID, targetID)
		if !ok {
			return 0
		}
		dest := geo.GetLinearPoint(target.X, target.Y, self.X, self.Y, float64(stopDistance), false)
		ai.Queue().Push(&model.MoveCommand{
			Path:        []model.Point{dest},
			TargetID:    targetID,
			MinDistance: float64(stopDistance),
		})
		return 0
	}))

	h.vm.SetGlobal("Retreat", h.vm.NewFunction(func(L *lua.LState) int {
		selfID := uint32(L.CheckInt(1))
		targetID := uint32(L.CheckInt(2))
		distance := L.CheckNumber(3)
		ai, ok := h.queues(selfID)
		if !ok {
			return 0
		}
		self, target, ok := h.selfAndTarget(selfID, targetID)
		if !ok {
			return 0
		}
		dest := geo.GetLinearPoint(self.X, self.Y, target.X, target.Y, float64(distance), true)
		ai.Queue().Push(&model.MoveCommand{Path: []model.Point{dest}, TargetID: targetID})
		return 0
	}))

	h.vm.SetGlobal("Circle", h.vm.NewFunction(func(L *lua.LState) int {
		selfID := uint32(L.CheckInt(1))
		targetID := uint32(L.CheckInt(2))
		radius := L.CheckNumber(3)
		radians := L.CheckNumber(4)
		ai, ok := h.queues(selfID)
		if !ok {
			return 0
		}
		_, target, ok := h.selfAndTarget(selfID, targetID)
		if !ok {
			return 0
		}
		edge := model.Point{X: target.X + float32(radius), Y: target.Y}
		dest := geo.RotatePoint(edge, target, float64(radians))
		ai.Queue().Push(&model.MoveCommand{Path: []model.Point{dest}, TargetID: targetID})
		return 0
	}))
}

func (h *Host) selfAndTarget(selfID, targetID uint32) (self, target model.Point, ok bool) {
	if h.position == nil {
		return
	}
	self, ok = h.position(selfID)
	if !ok {
		return
	}
	target, ok = h.position(targetID)
	return
}

func scriptContextToLua(ctx model.ScriptContext, vm *lua.LState, selfID uint32) *lua.LTable {
	t := vm.NewTable()
	t.RawSetString("self_id", lua.LNumber(selfID))
	t.RawSetString("target_id", lua.LNumber(ctx.TargetID))
	t.RawSetString("source_id", lua.LNumber(ctx.SourceID))
	t.RawSetString("skill_id", lua.LNumber(ctx.SkillID))
	t.RawSetString("now", lua.LNumber(ctx.Now))
	t.RawSetString("hp_ratio", lua.LNumber(ctx.HPRatio))
	return t
}

// CallAction invokes a plain action entry point and returns its integer
// result. defined is false if the script has no function by that name.
func (h *Handle) CallAction(entryPoint string, ctx model.ScriptContext) (int32, bool, error) {
	h.host.mu.Lock()
	defer h.host.mu.Unlock()

	fn := h.module.RawGetString(entryPoint)
	if fn == lua.LNil {
		return 0, false, nil
	}

	vm := h.host.vm
	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, scriptContextToLua(ctx, vm, h.entityID)); err != nil {
		return 0, true, fmt.Errorf("running %s for entity %d: %w", entryPoint, h.entityID, err)
	}
	ret := vm.Get(-1)
	vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, true, fmt.Errorf("running %s for entity %d: entry point returned %s, want number", entryPoint, h.entityID, ret.Type())
	}
	return int32(n), true, nil
}

// CallTarget invokes the "target" entry point, passing the candidate ids as
// a Lua array, and returns the candidate id the script picked (0 = none).
func (h *Handle) CallTarget(candidates []uint32, ctx model.ScriptContext) (uint32, bool, error) {
	h.host.mu.Lock()
	defer h.host.mu.Unlock()

	fn := h.module.RawGetString("target")
	if fn == lua.LNil {
		return 0, false, nil
	}

	vm := h.host.vm
	ids := vm.NewTable()
	for i, id := range candidates {
		ids.RawSetInt(i+1, lua.LNumber(id))
	}

	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, scriptContextToLua(ctx, vm, h.entityID), ids); err != nil {
		return 0, true, fmt.Errorf("running target for entity %d: %w", h.entityID, err)
	}
	ret := vm.Get(-1)
	vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, true, fmt.Errorf("running target for entity %d: entry point returned %s, want number", h.entityID, ret.Type())
	}
	return uint32(n), true, nil
}
