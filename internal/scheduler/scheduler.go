// Package scheduler runs a small worker pool pulling from a priority queue
// keyed by scheduled timestamp. The active-zone tick is one scheduled work
// item that re-enqueues itself at the configured tick rate; everything else
// (instance-timer expiry, deferred despawns) is an out-of-band task
// scheduled for a target timestamp: a heap-ordered queue serving both
// periodic and one-shot work.
package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shirolong/channelcore/internal/instance"
	"github.com/shirolong/channelcore/internal/spawn"
	"github.com/shirolong/channelcore/internal/worldclock"
	"github.com/shirolong/channelcore/internal/zone"
)

// nightWindowStart/End are the game-minute bounds the scheduler treats as
// "night" when calling zone.Tick — AI aggro profiles distinguish day/night/
// cast ranges but the clock-to-daypart mapping itself is a deployment
// choice; 18:00-06:00 is recorded as an Open Question decision in
// DESIGN.md.
const (
	nightWindowStart = 18 * 60
	nightWindowEnd   = 6 * 60
)

func isNight(clock worldclock.Clock) bool {
	return worldclock.InWindow(clock.GameMinute, nightWindowStart, nightWindowEnd)
}

// ClockSource samples the engine-wide clock once per scheduler pass so every
// zone tick in that pass observes the same game-minute/day-count snapshot.
type ClockSource interface {
	Sample(nowMillis int64) worldclock.Clock
}

// ClockSourceFunc adapts a plain function to ClockSource.
type ClockSourceFunc func(nowMillis int64) worldclock.Clock

func (f ClockSourceFunc) Sample(nowMillis int64) worldclock.Clock { return f(nowMillis) }

// Scheduler owns the active-zone list and the scheduled-task priority queue.
type Scheduler struct {
	mu     sync.Mutex
	q      taskQueue
	notify chan struct{}
	nextSeq int64

	workers        int
	tickIntervalMs int64

	zones    map[int32]*zone.Zone
	spawnMgr *spawn.Manager
	instMgr  *instance.Manager
	clock    ClockSource

	log *slog.Logger
}

// Config bundles the scheduler's collaborators and tuning knobs.
type Config struct {
	Workers        int
	TickRateHz     int
	SpawnManager   *spawn.Manager
	InstanceMgr    *instance.Manager
	Clock          ClockSource
}

// New builds a Scheduler with an empty active-zone list.
func New(cfg Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	hz := cfg.TickRateHz
	if hz <= 0 {
		hz = 20
	}
	clock := cfg.Clock
	if clock == nil {
		clock = ClockSourceFunc(func(int64) worldclock.Clock { return worldclock.Clock{} })
	}
	return &Scheduler{
		notify:         make(chan struct{}, 1),
		workers:        workers,
		tickIntervalMs: int64(1000 / hz),
		zones:          make(map[int32]*zone.Zone),
		spawnMgr:       cfg.SpawnManager,
		instMgr:        cfg.InstanceMgr,
		clock:          clock,
		log:            log,
	}
}

func (s *Scheduler) nowMillis() int64 { return time.Now().UnixMilli() }

// Schedule enqueues an out-of-band task to run at or after `at` (unix
// millis). Used for instance-timer expiry checks, deferred despawns, and
// any other scheduled-timestamp work describes.
func (s *Scheduler) Schedule(at int64, run func(now int64)) {
	s.mu.Lock()
	s.nextSeq++
	heap.Push(&s.q, &task{at: at, seq: s.nextSeq, run: run})
	s.mu.Unlock()
	s.wake()
}

func (s *Scheduler) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// AddZone registers z as active and schedules its first tick immediately.
// A zone is only ticked while it has at least one connection; the
// zone-tick task itself checks IsActive and stops re-enqueuing once the
// zone goes frozen.
func (s *Scheduler) AddZone(z *zone.Zone) {
	s.mu.Lock()
	s.zones[z.ID()] = z
	s.mu.Unlock()
	s.scheduleZoneTick(z, s.nowMillis())
}

// RemoveZone drops z from the active-zone list without touching its
// already-queued tick task, which will no-op (IsActive false) next time
// it runs and stop re-enqueuing itself.
func (s *Scheduler) RemoveZone(id int32) {
	s.mu.Lock()
	delete(s.zones, id)
	s.mu.Unlock()
}

// ReactivateZone re-adds a previously frozen zone and schedules its next
// tick for `now`, so its respawn/timer baselines pick up from the
// reactivation instant rather than where a long-stale clock left off.
func (s *Scheduler) ReactivateZone(z *zone.Zone, now int64) {
	s.mu.Lock()
	s.zones[z.ID()] = z
	s.mu.Unlock()
	s.scheduleZoneTick(z, now)
}

func (s *Scheduler) scheduleZoneTick(z *zone.Zone, at int64) {
	s.Schedule(at, func(now int64) { s.runZoneTick(z, now) })
}

// runZoneTick is the zone-tick work item: it samples the clock once, runs
// the zone's AI/broadcast/maintenance tick, fires any clock-crossing
// triggers through the spawn manager, repopulates due respawn groups, and
// re-enqueues itself at the configured tick rate (~20 Hz) as long as the
// zone is still active.
func (s *Scheduler) runZoneTick(z *zone.Zone, now int64) {
	clock := s.clock.Sample(now)

	z.Tick(now, isNight(clock))

	if s.spawnMgr != nil {
		for _, fired := range z.EvaluateClock(clock) {
			if err := s.spawnMgr.ApplyTrigger(context.Background(), z, fired.Def, now); err != nil {
				s.log.Error("applying clock trigger", "zoneID", z.ID(), "err", err)
			}
		}
		s.spawnMgr.UpdateSpawnGroups(context.Background(), z, now, clock)
	}

	s.mu.Lock()
	_, stillActive := s.zones[z.ID()]
	s.mu.Unlock()
	if !stillActive || !z.IsActive() {
		s.RemoveZone(z.ID())
		s.log.Debug("zone frozen, tick no longer re-enqueued", "zoneID", z.ID())
		return
	}
	s.scheduleZoneTick(z, now+s.tickIntervalMs)
}

// Start runs `workers` goroutines pulling due tasks off the priority
// queue until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error { return s.workerLoop(ctx) })
	}
	return g.Wait()
}

func (s *Scheduler) workerLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := s.nowMillis()
		if t, ok := s.popDue(now); ok {
			t.run(now)
			continue
		}

		wait := 100 * time.Millisecond
		if d, ok := s.peekWait(now); ok && d < wait {
			wait = d
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) popDue(now int64) (*task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Len() == 0 || s.q[0].at > now {
		return nil, false
	}
	return heap.Pop(&s.q).(*task), true
}

func (s *Scheduler) peekWait(now int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Len() == 0 {
		return 0, false
	}
	d := time.Duration(s.q[0].at-now) * time.Millisecond
	if d < 0 {
		d = 0
	}
	return d, true
}

// ZoneCount reports how many zones are currently active, for metrics/tests.
func (s *Scheduler) ZoneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.zones)
}

// ScheduleInstanceExpiry registers a periodic sweep that checks inst for
// timer expiry, emitting the expiry-result hook once due: Normal fires its
// expiration event, TimeTrial/DemonOnly score the run with zero leftover.
func (s *Scheduler) ScheduleInstanceExpiry(inst *instance.ZoneInstance, checkIntervalMs int64, onExpire func(instance.TimerResult)) {
	var tick func(now int64)
	tick = func(now int64) {
		if inst.DueForExpiry(now) {
			result := inst.Expire(now)
			if onExpire != nil {
				onExpire(result)
			}
			return
		}
		if inst.TimerState() == instance.TimerRunning {
			s.Schedule(now+checkIntervalMs, tick)
		}
	}
	s.Schedule(s.nowMillis(), tick)
}
