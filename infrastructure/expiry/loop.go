// Package expiry implements the broker's periodic timer: the single
// cooperative loop that recycles or terminates stale processing tasks
// and sweeps expired confirmation entries.
package expiry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/confirmation"
	"github.com/felixgeelhaar/gradewatch-queue/domain/mail"
	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/logging"
)

// Config configures a Loop's tick period and failure policy.
type Config struct {
	// KeepAliveInterval is the loop's tick period.
	KeepAliveInterval time.Duration

	// KeepAliveTimeout is how long a processing task may go without a
	// heartbeat before it is considered stale.
	KeepAliveTimeout time.Duration

	// MaxJobFailures is the failure count at which a recycled task is
	// terminated instead of re-enqueued (failureCount >= MaxJobFailures
	// terminates; see spec invariant on failureCount ≤ maxFailures).
	MaxJobFailures int
}

// Loop is the broker's periodic timer, recycling or terminating stale
// processing tasks and sweeping expired confirmations on every tick.
type Loop struct {
	cfg        Config
	queue      task.Queue
	allocator  task.IDAllocator
	confirms   confirmation.Map
	gateway    mail.Gateway

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// now is overridable in tests for deterministic expiry checks.
	now func() time.Time
}

// New creates a Loop wired to its collaborators.
func New(cfg Config, queue task.Queue, allocator task.IDAllocator, confirms confirmation.Map, gateway mail.Gateway) *Loop {
	return &Loop{
		cfg:       cfg,
		queue:     queue,
		allocator: allocator,
		confirms:  confirms,
		gateway:   gateway,
		now:       time.Now,
	}
}

// Start begins ticking in a background goroutine.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	ctx, l.cancel = context.WithCancel(ctx)
	l.mu.Unlock()

	l.wg.Add(1)
	go l.run(ctx)
}

// Stop terminates the loop before its next sleep returns, and waits for
// the current tick (if any) to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick runs a single pass: recycle or terminate stale processing
// tasks, then sweep expired confirmations. Exported so tests and a
// manual admin trigger can force a pass without waiting on the ticker.
func (l *Loop) Tick() {
	cutoff := l.now().Add(-l.cfg.KeepAliveTimeout)
	stale := l.queue.PullStaleProcessing(cutoff)

	for _, t := range stale {
		l.recycleOrTerminate(t)
	}

	l.confirms.Sweep()
}

// recycleOrTerminate increments a stale task's failure count and
// either re-enqueues it under a fresh id or sends its failure email,
// per the shared worker_fail/expiry policy.
func (l *Loop) recycleOrTerminate(t *task.Task) {
	failures := t.Payload.FailureCount() + 1
	t.Payload.SetFailureCount(failures)

	if failures >= l.cfg.MaxJobFailures {
		l.gateway.Queue(t.Payload.FailureEmail(t.ID))
		logging.Info().
			Add(logging.Component("expiry")).
			Add(logging.TaskID(t.ID)).
			Add(logging.FailureCount(failures)).
			Msg("task terminated after exhausting retries")
		return
	}

	recycled := &task.Task{
		ID:         l.allocator.Next(),
		Payload:    t.Payload,
		EnqueuedAt: l.now(),
	}
	l.queue.EnqueueReady(recycled)
	logging.Info().
		Add(logging.Component("expiry")).
		Add(logging.TaskID(t.ID)).
		Add(logging.Str("recycled_task_id", strconv.FormatInt(recycled.ID, 10))).
		Add(logging.FailureCount(failures)).
		Msg("task recycled under fresh id")
}
