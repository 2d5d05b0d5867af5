// Package worker assigns each first-seen worker a session id for log
// correlation. It never appears in a wire response; workers identify
// themselves to the broker only through the task ids they poll for.
package worker

import (
	"sync"

	"github.com/google/uuid"
)

// Sessions maps a worker's remote address to a stable session id,
// minted the first time that address is seen and held for the
// lifetime of the process.
type Sessions struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewSessions creates an empty session tracker.
func NewSessions() *Sessions {
	return &Sessions{ids: make(map[string]string)}
}

// IDFor returns the session id for remoteAddr, minting one on first
// sight.
func (s *Sessions) IDFor(remoteAddr string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[remoteAddr]; ok {
		return id
	}
	id := uuid.NewString()
	s.ids[remoteAddr] = id
	return id
}
