// Package task defines the broker's view of a model-evaluation job: the
// opaque Payload capability contract supplied by an external model
// registry, and the Task record the broker itself owns.
package task

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/mail"
)

// Domain errors for task operations.
var (
	// ErrNotFound indicates no task exists with the requested id.
	ErrNotFound = errors.New("task not found")

	// ErrAlreadyProcessing indicates a task id is already present in
	// the processing set.
	ErrAlreadyProcessing = errors.New("task already processing")
)

// Payload is the capability the model registry must supply for a
// decoded submission. The broker never inspects the concrete type; it
// only reads the address to notify, the failure counter it manages on
// the registry's behalf, and the renderer for a terminal failure
// email.
type Payload interface {
	// EmailAddress returns the submitter's address.
	EmailAddress() string

	// FailureCount returns the number of recorded failures.
	FailureCount() int

	// SetFailureCount overwrites the failure counter. The broker calls
	// this after a worker-reported or timeout-inferred failure.
	SetFailureCount(n int)

	// FailureEmail renders the terminal failure notification. taskID is
	// supplied by the broker since the registry assigns it no id of its
	// own.
	FailureEmail(taskID int64) mail.Message

	// Encode renders the payload as the dict the broker hands to clients
	// and workers. The broker does not decode this dict again, and an
	// implementation is not required to return the exact shape its
	// decoder reads.
	Encode() (map[string]any, error)
}

// Decoder is the model-registry capability the broker calls into to
// turn a submitted JSON payload into a Payload. Parsing and parameter
// validation are entirely the registry's concern; the broker treats
// decode failure as a synchronous validation error.
type Decoder interface {
	Decode(raw json.RawMessage) (Payload, error)
}

// Task is a single in-flight model-evaluation job.
type Task struct {
	// ID is a non-zero, process-lifetime-unique identifier.
	ID int64

	// Payload is the decoded, opaque registry record.
	Payload Payload

	// EnqueuedAt is when the task was admitted to the ready queue.
	EnqueuedAt time.Time

	// LastHeartbeatAt is the last time a worker touched this task
	// while processing it.
	LastHeartbeatAt time.Time
}

// Encode renders the task dict the HTTP surface returns to clients,
// setting taskId the way the broker owns it.
func (t *Task) Encode() (map[string]any, error) {
	dict, err := t.Payload.Encode()
	if err != nil {
		return nil, err
	}
	dict["taskId"] = t.ID
	dict["failureCount"] = t.Payload.FailureCount()
	return dict, nil
}
