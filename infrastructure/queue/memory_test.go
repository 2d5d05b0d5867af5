package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/mail"
	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
)

// fakePayload is a minimal task.Payload for queue tests.
type fakePayload struct {
	email        string
	failureCount int
}

func (p *fakePayload) EmailAddress() string    { return p.email }
func (p *fakePayload) FailureCount() int       { return p.failureCount }
func (p *fakePayload) SetFailureCount(n int)   { p.failureCount = n }
func (p *fakePayload) FailureEmail(taskID int64) mail.Message {
	return mail.Message{To: p.email, Subject: "failed", Body: "failed"}
}
func (p *fakePayload) Encode() (map[string]any, error) {
	return map[string]any{"email": p.email}, nil
}

func newTask(id int64) *task.Task {
	return &task.Task{ID: id, Payload: &fakePayload{email: "student@example.edu"}}
}

func TestMemoryQueue_ReadyFIFO(t *testing.T) {
	q := NewMemoryQueue()
	if !q.IsReadyEmpty() {
		t.Fatal("expected empty queue")
	}

	q.EnqueueReady(newTask(1))
	q.EnqueueReady(newTask(2))

	if q.IsReadyEmpty() {
		t.Fatal("expected non-empty queue")
	}

	first, ok := q.DequeueReady()
	if !ok || first.ID != 1 {
		t.Fatalf("DequeueReady() = %v, %v, want task 1", first, ok)
	}

	second, ok := q.DequeueReady()
	if !ok || second.ID != 2 {
		t.Fatalf("DequeueReady() = %v, %v, want task 2", second, ok)
	}

	if _, ok := q.DequeueReady(); ok {
		t.Fatal("expected empty queue after draining")
	}
}

func TestMemoryQueue_ProcessingLifecycle(t *testing.T) {
	q := NewMemoryQueue()
	tk := newTask(10)

	if err := q.MoveToProcessing(tk); err != nil {
		t.Fatalf("MoveToProcessing() error = %v", err)
	}
	if tk.LastHeartbeatAt.IsZero() {
		t.Fatal("expected LastHeartbeatAt to be set")
	}

	if err := q.MoveToProcessing(tk); !errors.Is(err, task.ErrAlreadyProcessing) {
		t.Fatalf("MoveToProcessing() error = %v, want ErrAlreadyProcessing", err)
	}

	if !q.HasProcessing(10) {
		t.Fatal("expected task 10 to be processing")
	}

	if err := q.TouchProcessing(10); err != nil {
		t.Fatalf("TouchProcessing() error = %v", err)
	}

	if err := q.TouchProcessing(999); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("TouchProcessing() error = %v, want ErrNotFound", err)
	}

	pulled, err := q.PullProcessing(10)
	if err != nil {
		t.Fatalf("PullProcessing() error = %v", err)
	}
	if pulled.ID != 10 {
		t.Fatalf("PullProcessing() = %v, want task 10", pulled)
	}

	if _, err := q.PullProcessing(10); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("PullProcessing() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryQueue_PullStaleProcessing(t *testing.T) {
	q := NewMemoryQueue()

	fresh := newTask(1)
	stale := newTask(2)

	if err := q.MoveToProcessing(fresh); err != nil {
		t.Fatalf("MoveToProcessing(fresh) error = %v", err)
	}
	if err := q.MoveToProcessing(stale); err != nil {
		t.Fatalf("MoveToProcessing(stale) error = %v", err)
	}

	// Rewind stale's heartbeat so it predates the cutoff.
	q.mu.Lock()
	q.processing[2].lastHeartbeatAt = time.Now().Add(-time.Hour)
	q.processing[2].task.LastHeartbeatAt = q.processing[2].lastHeartbeatAt
	q.mu.Unlock()

	cutoff := time.Now().Add(-time.Minute)
	got := q.PullStaleProcessing(cutoff)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("PullStaleProcessing() = %v, want [task 2]", got)
	}

	if !q.HasProcessing(1) {
		t.Fatal("expected fresh task to remain processing")
	}
	if q.HasProcessing(2) {
		t.Fatal("expected stale task to be removed")
	}
}
