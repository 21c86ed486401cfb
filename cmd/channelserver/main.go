// Command channelserver is the process entrypoint for one channel-server
// instance: it loads configuration, connects to PostgreSQL, applies schema
// migrations, and wires the zone/spawn/instance managers into the
// scheduler's worker pool. There are no network listeners here — client
// packet transport beyond the struct/encoding contract is out of scope.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shirolong/channelcore/internal/ai"
	"github.com/shirolong/channelcore/internal/config"
	"github.com/shirolong/channelcore/internal/data"
	"github.com/shirolong/channelcore/internal/db"
	"github.com/shirolong/channelcore/internal/instance"
	"github.com/shirolong/channelcore/internal/model"
	"github.com/shirolong/channelcore/internal/scheduler"
	"github.com/shirolong/channelcore/internal/spawn"
	"github.com/shirolong/channelcore/internal/worldclock"
	"github.com/shirolong/channelcore/internal/zone"
)

const ConfigPath = "config/channelserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("CHANNELCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("channelcore starting", "tick_rate_hz", cfg.TickRateHz, "log_level", cfg.LogLevel)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	store := data.NewPGStore(database.Pool())

	instMgr := instance.New(store, slog.Default().With("component", "instance"))
	spawnMgr := spawn.New(slog.Default().With("component", "spawn"))

	zoneCfg := zone.Config{
		Weights:            ai.SkillWeightConfig{},
		FoVHalfAngle:       1.2,
		AggroLevelLimit:    cfg.AggroLevelLimitOn,
		SupportedFunctions: nil,
	}

	sched := scheduler.New(scheduler.Config{
		Workers:      cfg.SchedulerWorkers,
		TickRateHz:   cfg.TickRateHz,
		SpawnManager: spawnMgr,
		InstanceMgr:  instMgr,
		Clock:        scheduler.ClockSourceFunc(sampleRealWorldClock),
	}, slog.Default().With("component", "scheduler"))

	noCombat := noopCombatResolver{}
	zones := newZoneHost(store, store, noCombat, zoneCfg, sched, slog.Default())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting scheduler", "workers", cfg.SchedulerWorkers, "tickRateHz", cfg.TickRateHz)
		if err := sched.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})

	_ = zones // zones resolves/attaches zones lazily as EnterZone calls arrive over a transport layer out of scope here.

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// zoneHost lazily loads and activates zones on first reference, acting as
// instance.Manager's ZoneResolver collaborator. Concrete connection
// handling (accepting players, routing their packets into EnterZone) is
// the transport layer's job, out of scope here.
type zoneHost struct {
	mu    sync.Mutex
	zones map[int32]*zone.Zone

	defs     data.DefinitionStore
	server   data.ServerDataStore
	resolver zone.CombatResolver
	cfg      zone.Config
	sched    *scheduler.Scheduler
	log      *slog.Logger
}

func newZoneHost(defs data.DefinitionStore, server data.ServerDataStore, resolver zone.CombatResolver, cfg zone.Config, sched *scheduler.Scheduler, log *slog.Logger) *zoneHost {
	return &zoneHost{
		zones:    make(map[int32]*zone.Zone),
		defs:     defs,
		server:   server,
		resolver: resolver,
		cfg:      cfg,
		sched:    sched,
		log:      log,
	}
}

// ResolveZone implements instance.ZoneResolver: it returns an already-live
// zone or loads and activates a fresh one, keyed by zoneID (global zones
// are singletons; private per-instance zones would key by instance+zone,
// left to the transport layer since instance-to-zone-id assignment
// depends on how that layer names private copies).
func (h *zoneHost) ResolveZone(ctx context.Context, inst *instance.ZoneInstance, zoneID, dynamicMapID int32) (int32, error) {
	h.mu.Lock()
	if z, ok := h.zones[zoneID]; ok {
		h.mu.Unlock()
		return z.ID(), nil
	}
	h.mu.Unlock()

	z, err := zone.Load(ctx, zoneID, dynamicMapID, h.defs, h.server, h.resolver, h.cfg, h.log.With("zoneID", zoneID))
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	h.zones[zoneID] = z
	h.mu.Unlock()
	h.sched.AddZone(z)
	return z.ID(), nil
}

// noopCombatResolver stands in for the out-of-scope combat system:
// activation/execution always succeeds immediately, cancel is a no-op. A
// real transport build wires the actual damage-formula engine here
// instead.
type noopCombatResolver struct{}

func (noopCombatResolver) ActivateSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return ai.SkillResultOK
}

func (noopCombatResolver) ExecuteSkill(c model.Combatant, skillID int32, targetID uint32, now int64) ai.SkillResult {
	return ai.SkillResultOK
}

func (noopCombatResolver) CancelSkill(entityID uint32, skillID int32) {}

func (noopCombatResolver) RetargetSkill(entityID uint32, skillID int32, targetID uint32) {}

// sampleRealWorldClock derives a worldclock.Clock from the wall clock, the
// simplest ClockSource that still exercises every field spawn restrictions
// and triggers evaluate against. A production deployment with a real
// in-game calendar would substitute a ClockSource tracking its own
// game-time/moon-phase progression instead.
func sampleRealWorldClock(nowMillis int64) worldclock.Clock {
	t := time.UnixMilli(nowMillis).UTC()
	minuteOfDay := int32(t.Hour()*60 + t.Minute())
	return worldclock.Clock{
		GameMinute: minuteOfDay,
		MoonPhase:  int32(t.YearDay() % 16),
		RealMinute: minuteOfDay,
		Weekday:    int32(t.Weekday()),
		Date:       t.Format("2006-01-02"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
