package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	"github.com/yungbote/personapost-backend/internal/jobs/worker"
	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/services"
)

const (
	TaskSweepPublish      = "sweep_publish"
	TaskGenerate          = "generate_from_schedules"
	TaskTrendSync         = "trend_sync"
	TaskCredentialRefresh = "credential_refresh"
	TaskTopicCleanup      = "topic_cleanup"
)

type Config struct {
	SweepInterval             time.Duration
	GenerateInterval          time.Duration
	TrendSyncInterval         time.Duration
	CredentialRefreshInterval time.Duration
	TopicCleanupInterval      time.Duration
	TopicRetention            time.Duration
	CredentialRefreshWindow   time.Duration
	// SweepBatch caps how many due posts one sweep publishes.
	SweepBatch int
}

func DefaultConfig() Config {
	return Config{
		SweepInterval:             time.Minute,
		GenerateInterval:          time.Hour,
		TrendSyncInterval:         2 * time.Hour,
		CredentialRefreshInterval: 24 * time.Hour,
		TopicCleanupInterval:      7 * 24 * time.Hour,
		TopicRetention:            7 * 24 * time.Hour,
		CredentialRefreshWindow:   7 * 24 * time.Hour,
		SweepBatch:                100,
	}
}

type Deps struct {
	Posts      repos.PostRepo
	Schedules  repos.ScheduleRepo
	Pipeline   services.PublishPipeline
	Generation services.GenerationService
	TopicPool  services.TopicPoolService
	Accounts   services.AccountService
}

// Scheduler owns everything the unattended tasks share. It is built once per process and
// each task method reads only from it, so tests can run several side by side.
type Scheduler struct {
	log    *logger.Logger
	clock  clock.Clock
	cfg    Config
	deps   Deps
	runner *worker.Runner
}

func New(baseLog *logger.Logger, clk clock.Clock, cfg Config, deps Deps) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	def := DefaultConfig()
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = def.SweepBatch
	}
	s := &Scheduler{
		log:   baseLog.With("component", "Scheduler"),
		clock: clk,
		cfg:   cfg,
		deps:  deps,
	}
	s.runner = worker.NewRunner(baseLog, clk, s.Tasks()...)
	return s
}

// Tasks lists the five periodic tasks. Sweep and generation are aligned to the wall clock
// so generation lands on the hour slot it matches.
func (s *Scheduler) Tasks() []worker.Task {
	return []worker.Task{
		{Name: TaskSweepPublish, Interval: s.cfg.SweepInterval, Align: true, Run: s.sweepTask},
		{Name: TaskGenerate, Interval: s.cfg.GenerateInterval, Align: true, Run: s.generateTask},
		{Name: TaskTrendSync, Interval: s.cfg.TrendSyncInterval, RunOnStart: true, Run: s.trendSyncTask},
		{Name: TaskCredentialRefresh, Interval: s.cfg.CredentialRefreshInterval, Run: s.credentialRefreshTask},
		{Name: TaskTopicCleanup, Interval: s.cfg.TopicCleanupInterval, Run: s.topicCleanupTask},
	}
}

func (s *Scheduler) Start(ctx context.Context) { s.runner.Start(ctx) }

func (s *Scheduler) Wait() { s.runner.Wait() }

// RunTask runs one task by name right now.
func (s *Scheduler) RunTask(ctx context.Context, name string) error {
	return s.runner.RunOnce(ctx, name)
}

type SweepResult struct {
	Due       int
	Published int
	Failed    int
}

// SweepAndPublish publishes every due SCHEDULED post, one at a time. A published or failed
// post leaves SCHEDULED, so a second sweep never sees it again.
func (s *Scheduler) SweepAndPublish(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now().UTC()
	due, err := s.deps.Posts.ListDueScheduled(dbctx.New(ctx), now, s.cfg.SweepBatch)
	if err != nil {
		return SweepResult{}, err
	}
	res := SweepResult{Due: len(due)}
	for _, p := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := isolate(countPublishPanic, func() error {
			_, err := s.deps.Pipeline.Publish(ctx, p)
			return err
		})
		if err != nil {
			res.Failed++
			s.log.Warn("scheduled publish failed", "post_id", p.ID, "persona_id", p.PersonaID, "error", err)
			continue
		}
		res.Published++
	}
	if res.Due > 0 {
		s.log.Info("sweep finished", "due", res.Due, "published", res.Published, "failed", res.Failed)
	}
	return res, nil
}

type GenerateResult struct {
	Slot    string
	Matched int
	Created int
	Skipped int
	Failed  int
}

// GenerateFromSchedules runs one generation cycle for every active schedule whose posting
// times contain the current UTC hour slot.
func (s *Scheduler) GenerateFromSchedules(ctx context.Context) (GenerateResult, error) {
	slot := services.HourSlot(s.clock.Now())
	matched, err := s.deps.Schedules.ListActiveForSlot(dbctx.New(ctx), slot)
	if err != nil {
		return GenerateResult{Slot: slot}, err
	}
	res := GenerateResult{Slot: slot, Matched: len(matched)}
	for _, sched := range matched {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var postID string
		// Generation panics are counted by the generation service itself.
		err := isolate(nil, func() error {
			p, err := s.deps.Generation.GenerateForSchedule(ctx, sched)
			if p != nil {
				postID = p.ID.String()
			}
			return err
		})
		switch {
		case err == nil:
			res.Created++
			s.log.Debug("schedule generated post", "schedule_id", sched.ID, "post_id", postID)
		case services.IsSkip(err):
			res.Skipped++
			s.log.Info("schedule skipped", "schedule_id", sched.ID, "persona_id", sched.PersonaID, "reason", err)
		default:
			res.Failed++
			s.log.Warn("schedule generation failed", "schedule_id", sched.ID, "persona_id", sched.PersonaID, "error", err)
		}
	}
	s.log.Info("generation tick finished",
		"slot", slot, "matched", res.Matched, "created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Scheduler) sweepTask(ctx context.Context) error {
	_, err := s.SweepAndPublish(ctx)
	return err
}

func (s *Scheduler) generateTask(ctx context.Context) error {
	_, err := s.GenerateFromSchedules(ctx)
	return err
}

func (s *Scheduler) trendSyncTask(ctx context.Context) error {
	_, err := s.deps.TopicPool.SyncTrends(ctx)
	return err
}

func (s *Scheduler) credentialRefreshTask(ctx context.Context) error {
	res, err := s.deps.Accounts.RefreshExpiring(ctx, s.cfg.CredentialRefreshWindow)
	if err != nil {
		return err
	}
	s.log.Info("credential refresh finished", "total", res.Total, "refreshed", res.Refreshed, "failed", res.Failed)
	return nil
}

func (s *Scheduler) topicCleanupTask(ctx context.Context) error {
	_, err := s.deps.TopicPool.CleanupTopics(ctx, s.cfg.TopicRetention)
	return err
}

// isolate turns a panic in one item into an error so the rest of the batch still runs.
func isolate(onPanic func(), fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if onPanic != nil {
				onPanic()
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func countPublishPanic() { observability.Current().IncPublishOutcome("panic") }
