package task

import "time"

// Queue is the dual ready/processing structure described by the
// broker's task-queue design: a FIFO of tasks awaiting a worker, and a
// set of tasks currently assigned to one, keyed by id.
type Queue interface {
	// EnqueueReady appends a task to the tail of the ready queue.
	EnqueueReady(t *Task)

	// DequeueReady removes and returns the head of the ready queue.
	// ok is false if the queue is empty.
	DequeueReady() (t *Task, ok bool)

	// IsReadyEmpty reports whether the ready queue has no tasks.
	IsReadyEmpty() bool

	// MoveToProcessing inserts a task into the processing set with
	// LastHeartbeatAt set to now. Returns ErrAlreadyProcessing if the
	// id is already present.
	MoveToProcessing(t *Task) error

	// TouchProcessing refreshes a processing task's heartbeat clock.
	// Returns ErrNotFound if the id is absent.
	TouchProcessing(id int64) error

	// HasProcessing reports whether a task id is in the processing set.
	HasProcessing(id int64) bool

	// PullProcessing removes and returns a processing task by id.
	// Returns ErrNotFound if absent.
	PullProcessing(id int64) (*Task, error)

	// PullStaleProcessing removes and returns every processing task
	// whose LastHeartbeatAt is strictly before cutoff.
	PullStaleProcessing(cutoff time.Time) []*Task
}

// IDAllocator issues strictly increasing, process-lifetime-unique task
// identifiers. The first call returns 1.
type IDAllocator interface {
	Next() int64
}
