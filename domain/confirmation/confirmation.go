// Package confirmation defines the pending-confirmation map: the
// holding area between a client submission and its admission to the
// ready queue.
package confirmation

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
)

// Domain errors for confirmation operations.
var (
	// ErrNotFound indicates the code has no live entry: either it
	// never existed, it was already redeemed, or it expired and was
	// swept.
	ErrNotFound = errors.New("confirmation code not found")
)

// Entry is a task awaiting redemption of its confirmation code.
type Entry struct {
	Code      string
	Task      *task.Task
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Map maps opaque, one-time confirmation codes to pending tasks.
type Map interface {
	// Put generates a fresh code, stores the task under it with the
	// configured expiry, and returns the code.
	Put(t *task.Task) (code string)

	// Take atomically removes and returns the task for a code.
	// Returns ErrNotFound if no live entry exists. Redemption is not
	// required to observe an expiry that has not yet been swept; a
	// code may still be redeemable in the instant before a sweep
	// removes it.
	Take(code string) (*task.Task, error)

	// Sweep removes every entry whose ExpiresAt is at or before now.
	Sweep()

	// WasConfirmed reports whether code was previously redeemed
	// successfully, to make redemption idempotent on double-clicks of
	// the confirmation link.
	WasConfirmed(code string) bool
}
