package worker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/personapost-backend/internal/observability"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

// Task is one periodic job. Run must be safe to skip: a missed tick is not retried.
type Task struct {
	Name     string
	Interval time.Duration
	// Align starts ticks on wall-clock multiples of Interval (UTC), e.g. on the hour.
	Align bool
	// Jitter delays every tick by a random duration in [0, Jitter).
	Jitter     time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Runner drives a set of Tasks, each on its own goroutine and timer. Cancelling the
// Start ctx stops the loops between ticks only: a tick in flight keeps a detached
// ctx and runs to completion, bounded by the per-call timeouts of its clients.
// A failing or panicking tick is logged and the next one still fires.
type Runner struct {
	log   *logger.Logger
	clock clock.Clock
	tasks []Task

	wg  sync.WaitGroup
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRunner(baseLog *logger.Logger, clk clock.Clock, tasks ...Task) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		log:   baseLog.With("component", "TaskRunner"),
		clock: clk,
		tasks: tasks,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Runner) Tasks() []Task {
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Start launches every task loop. Loops stop when ctx is cancelled; Wait blocks until they have.
func (r *Runner) Start(ctx context.Context) {
	r.log.Info("Starting task runner", "tasks", len(r.tasks))
	for _, t := range r.tasks {
		if t.Interval <= 0 || t.Run == nil {
			r.log.Warn("Skipping task without interval or run func", "task", t.Name)
			continue
		}
		r.wg.Add(1)
		go r.runLoop(ctx, t)
	}
}

func (r *Runner) Wait() { r.wg.Wait() }

// RunOnce executes the named task immediately, outside its schedule.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, t := range r.tasks {
		if t.Name == name {
			return r.runTask(ctx, t)
		}
	}
	return fmt.Errorf("unknown task %q", name)
}

func (r *Runner) runLoop(ctx context.Context, t Task) {
	defer r.wg.Done()
	if t.RunOnStart && ctx.Err() == nil {
		_ = r.runTask(ctx, t)
	}
	for {
		timer := r.clock.Timer(r.nextDelay(r.clock.Now(), t))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.log.Info("Task loop stopped", "task", t.Name)
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			r.log.Info("Task loop stopped", "task", t.Name)
			return
		}
		_ = r.runTask(ctx, t)
	}
}

func (r *Runner) nextDelay(now time.Time, t Task) time.Duration {
	next := NextRun(now, t.Interval, t.Align)
	if t.Jitter > 0 {
		r.mu.Lock()
		next = next.Add(time.Duration(r.rnd.Int63n(int64(t.Jitter))))
		r.mu.Unlock()
	}
	return next.Sub(now)
}

// NextRun is the next tick strictly after now.
func NextRun(now time.Time, interval time.Duration, align bool) time.Time {
	if !align {
		return now.Add(interval)
	}
	return now.UTC().Truncate(interval).Add(interval)
}

func (r *Runner) runTask(parent context.Context, t Task) (err error) {
	ctx := context.WithoutCancel(parent)
	start := r.clock.Now()
	ctx, span := observability.StartSpan(ctx, "task."+t.Name, attribute.String("task.name", t.Name))
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Task panic", "task", t.Name, "panic", rec)
			err = errFromRecover(rec)
		}
		status := "ok"
		if err != nil {
			status = "error"
			r.log.Warn("Task tick failed", "task", t.Name, "error", err)
		}
		observability.Current().ObserveTask(t.Name, status, r.clock.Now().Sub(start))
		observability.EndSpan(span, err)
	}()
	return t.Run(ctx)
}

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
