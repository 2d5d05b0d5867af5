// Package broker wires the queue's domain components into the single
// Broker value that owns all shared state. HTTP handlers receive it
// explicitly rather than reaching through process-wide globals (spec
// §9's design note on global broker state).
package broker

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/confirmation"
	"github.com/felixgeelhaar/gradewatch-queue/domain/mail"
	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
	"github.com/felixgeelhaar/gradewatch-queue/infrastructure/logging"
)

// Config carries the tunables the broker consults directly (the
// expiry loop owns its own copy of the overlapping fields).
type Config struct {
	// ConfirmTimeout bounds how long a confirmation email stays valid.
	ConfirmTimeout time.Duration

	// KeepAliveTimeout is how long a worker may go unseen before
	// HasWorkers reports false.
	KeepAliveTimeout time.Duration

	// MaxJobFailures is the failure count at which a worker-reported
	// failure terminates a task instead of recycling it.
	MaxJobFailures int
}

// Broker owns the queue's shared state and exposes the nine HTTP
// surface operations as plain Go methods, safe under concurrent
// invocation.
type Broker struct {
	cfg Config

	queue     task.Queue
	confirms  confirmation.Map
	allocator task.IDAllocator
	decoder   task.Decoder
	gateway   mail.Gateway
	renderer  mail.ConfirmRenderer

	checkinMu           sync.Mutex
	lastWorkerCheckinAt time.Time

	now func() time.Time
}

// New creates a Broker wired to its collaborators.
func New(cfg Config, q task.Queue, confirms confirmation.Map, allocator task.IDAllocator, decoder task.Decoder, gateway mail.Gateway, renderer mail.ConfirmRenderer) *Broker {
	return &Broker{
		cfg:       cfg,
		queue:     q,
		confirms:  confirms,
		allocator: allocator,
		decoder:   decoder,
		gateway:   gateway,
		renderer:  renderer,
		now:       time.Now,
	}
}

// Submit decodes a client's task_json payload, admits it to the
// confirmation map, and queues the confirmation email. Returns the
// task's wire dict and its confirmation code.
func (b *Broker) Submit(raw json.RawMessage) (map[string]any, string, error) {
	payload, err := b.decoder.Decode(raw)
	if err != nil {
		return nil, "", err
	}

	t := &task.Task{
		ID:         b.allocator.Next(),
		Payload:    payload,
		EnqueuedAt: b.now(),
	}

	code := b.confirms.Put(t)

	msg, err := b.renderer.Render(payload.EmailAddress(), code, b.cfg.ConfirmTimeout)
	if err != nil {
		logging.Error().
			Add(logging.Component("broker")).
			Add(logging.TaskID(t.ID)).
			Add(logging.ErrorField(err)).
			Msg("failed to render confirmation email")
	} else {
		b.gateway.Queue(msg)
	}

	dict, err := t.Encode()
	if err != nil {
		return nil, "", err
	}
	return dict, code, nil
}

// HasWorkers reports whether any worker endpoint has been touched
// within KeepAliveTimeout.
func (b *Broker) HasWorkers() bool {
	b.checkinMu.Lock()
	last := b.lastWorkerCheckinAt
	b.checkinMu.Unlock()
	return b.now().Sub(last) < b.cfg.KeepAliveTimeout
}

// Confirm redeems a confirmation code, promoting its task to the ready
// queue. Returns "okay" on first redemption, "already_confirmed" on a
// repeat of a previously-redeemed code, or ErrUnknownCode otherwise.
func (b *Broker) Confirm(code string) (string, error) {
	b.confirms.Sweep()

	t, err := b.confirms.Take(code)
	if err != nil {
		if errors.Is(err, confirmation.ErrNotFound) && b.confirms.WasConfirmed(code) {
			return "already_confirmed", nil
		}
		return "", ErrUnknownCode
	}

	b.queue.EnqueueReady(t)
	return "okay", nil
}

// touchWorkerCheckin records that a worker endpoint was just hit.
func (b *Broker) touchWorkerCheckin() {
	b.checkinMu.Lock()
	b.lastWorkerCheckinAt = b.now()
	b.checkinMu.Unlock()
}

// WorkerInfo records a worker check-in with no other side effect.
func (b *Broker) WorkerInfo() {
	b.touchWorkerCheckin()
}

// Poll hands out the head of the ready queue to a polling worker,
// moving it into the processing set. ok is false on an empty queue.
func (b *Broker) Poll() (*task.Task, bool) {
	b.touchWorkerCheckin()

	t, ok := b.queue.DequeueReady()
	if !ok {
		return nil, false
	}
	if err := b.queue.MoveToProcessing(t); err != nil {
		// The allocator guarantees unique ids, so this only happens if
		// a task is enqueued twice: surface it rather than silently
		// handing out a task no worker can complete.
		logging.Error().
			Add(logging.Component("broker")).
			Add(logging.TaskID(t.ID)).
			Add(logging.ErrorField(err)).
			Msg("dequeued task already in processing set")
		return nil, false
	}
	return t, true
}

// Heartbeat refreshes a processing task's liveness clock.
func (b *Broker) Heartbeat(id int64) error {
	b.touchWorkerCheckin()
	if err := b.queue.TouchProcessing(id); err != nil {
		return ErrBadID
	}
	return nil
}

// HasTask reports whether id is still in the processing set.
func (b *Broker) HasTask(id int64) bool {
	b.touchWorkerCheckin()
	return b.queue.HasProcessing(id)
}

// Succeed removes a completed task from the processing set.
func (b *Broker) Succeed(id int64) error {
	b.touchWorkerCheckin()
	if _, err := b.queue.PullProcessing(id); err != nil {
		return ErrBadID
	}
	return nil
}

// Fail records a worker-reported failure: increments the task's
// failure count, then either recycles it under a fresh id or sends the
// terminal failure email, identically to the expiry loop's policy.
func (b *Broker) Fail(id int64) error {
	b.touchWorkerCheckin()

	t, err := b.queue.PullProcessing(id)
	if err != nil {
		return ErrBadID
	}

	failures := t.Payload.FailureCount() + 1
	t.Payload.SetFailureCount(failures)

	if failures >= b.cfg.MaxJobFailures {
		b.gateway.Queue(t.Payload.FailureEmail(id))
		logging.Info().
			Add(logging.Component("broker")).
			Add(logging.TaskID(id)).
			Add(logging.FailureCount(failures)).
			Msg("task terminated after worker-reported failure")
		return nil
	}

	recycled := &task.Task{
		ID:         b.allocator.Next(),
		Payload:    t.Payload,
		EnqueuedAt: b.now(),
	}
	b.queue.EnqueueReady(recycled)
	logging.Info().
		Add(logging.Component("broker")).
		Add(logging.TaskID(id)).
		Add(logging.FailureCount(failures)).
		Msg("task recycled after worker-reported failure")
	return nil
}
