package broker

import "errors"

// Domain errors surfaced across the broker's operations. Handlers
// translate these into the HTTP surface's response schemas; the
// broker itself never returns an HTTP status.
var (
	// ErrBadID indicates a worker operation named a task id that is
	// not in the processing set.
	ErrBadID = errors.New("unknown task id")

	// ErrUnknownCode indicates a confirmation code has no live entry
	// and was never previously redeemed.
	ErrUnknownCode = errors.New("unknown confirmation code")
)
