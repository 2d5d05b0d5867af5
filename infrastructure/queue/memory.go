package queue

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
)

// processingEntry tracks a task assigned to a worker and the last time
// that worker was heard from.
type processingEntry struct {
	task            *task.Task
	lastHeartbeatAt time.Time
}

// MemoryQueue is an in-memory, mutex-protected implementation of
// task.Queue: a FIFO of ready tasks plus a set of in-flight tasks keyed
// by id.
type MemoryQueue struct {
	mu         sync.Mutex
	ready      []*task.Task
	processing map[int64]*processingEntry
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		processing: make(map[int64]*processingEntry),
	}
}

// EnqueueReady appends a task to the tail of the ready queue.
func (q *MemoryQueue) EnqueueReady(t *task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append(q.ready, t)
}

// DequeueReady removes and returns the head of the ready queue.
func (q *MemoryQueue) DequeueReady() (*task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ready) == 0 {
		return nil, false
	}
	t := q.ready[0]
	q.ready = q.ready[1:]
	return t, true
}

// IsReadyEmpty reports whether the ready queue has no tasks.
func (q *MemoryQueue) IsReadyEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) == 0
}

// MoveToProcessing inserts a task into the processing set.
func (q *MemoryQueue) MoveToProcessing(t *task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.processing[t.ID]; exists {
		return task.ErrAlreadyProcessing
	}
	now := time.Now()
	t.LastHeartbeatAt = now
	q.processing[t.ID] = &processingEntry{task: t, lastHeartbeatAt: now}
	return nil
}

// TouchProcessing refreshes a processing task's heartbeat clock.
func (q *MemoryQueue) TouchProcessing(id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.processing[id]
	if !ok {
		return task.ErrNotFound
	}
	now := time.Now()
	entry.lastHeartbeatAt = now
	entry.task.LastHeartbeatAt = now
	return nil
}

// HasProcessing reports whether a task id is in the processing set.
func (q *MemoryQueue) HasProcessing(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.processing[id]
	return ok
}

// PullProcessing removes and returns a processing task by id.
func (q *MemoryQueue) PullProcessing(id int64) (*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.processing[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	delete(q.processing, id)
	return entry.task, nil
}

// PullStaleProcessing removes and returns every processing task whose
// last heartbeat is strictly before cutoff.
func (q *MemoryQueue) PullStaleProcessing(cutoff time.Time) []*task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stale []*task.Task
	for id, entry := range q.processing {
		if entry.lastHeartbeatAt.Before(cutoff) {
			stale = append(stale, entry.task)
			delete(q.processing, id)
		}
	}
	return stale
}

var _ task.Queue = (*MemoryQueue)(nil)
