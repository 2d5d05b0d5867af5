package queue

import (
	"container/list"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/confirmation"
	"github.com/felixgeelhaar/gradewatch-queue/domain/task"
)

const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 16

// MemoryConfirmationMap is an in-memory, mutex-protected
// confirmation.Map. Codes are generated with crypto/rand and retried on
// collision; a bounded LRU set records recently redeemed codes so a
// repeated click on a confirmation link is idempotent rather than an
// error.
type MemoryConfirmationMap struct {
	mu      sync.Mutex
	entries map[string]*confirmation.Entry
	ttl     time.Duration

	redeemedCap int
	redeemed    map[string]*list.Element
	redeemedLRU *list.List
}

// NewMemoryConfirmationMap creates a confirmation map whose entries
// expire after ttl and whose redeemed-code set holds at most
// redeemedCap codes.
func NewMemoryConfirmationMap(ttl time.Duration, redeemedCap int) *MemoryConfirmationMap {
	return &MemoryConfirmationMap{
		entries:     make(map[string]*confirmation.Entry),
		ttl:         ttl,
		redeemedCap: redeemedCap,
		redeemed:    make(map[string]*list.Element),
		redeemedLRU: list.New(),
	}
}

// Put generates a fresh code, stores t under it, and returns the code.
func (m *MemoryConfirmationMap) Put(t *task.Task) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var code string
	for {
		code = generateCode()
		if _, exists := m.entries[code]; !exists {
			break
		}
	}

	now := time.Now()
	m.entries[code] = &confirmation.Entry{
		Code:      code,
		Task:      t,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	return code
}

// Take atomically removes and returns the task for a code.
func (m *MemoryConfirmationMap) Take(code string) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[code]
	if !ok {
		return nil, confirmation.ErrNotFound
	}
	delete(m.entries, code)
	m.markRedeemed(code)
	return entry.Task, nil
}

// Sweep removes every entry whose ExpiresAt is at or before now.
func (m *MemoryConfirmationMap) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for code, entry := range m.entries {
		if !entry.ExpiresAt.After(now) {
			delete(m.entries, code)
		}
	}
}

// WasConfirmed reports whether code was previously redeemed.
func (m *MemoryConfirmationMap) WasConfirmed(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.redeemed[code]
	return ok
}

// markRedeemed records code as redeemed, evicting the least recently
// used entry if the set is at capacity. Caller holds m.mu.
func (m *MemoryConfirmationMap) markRedeemed(code string) {
	if el, ok := m.redeemed[code]; ok {
		m.redeemedLRU.MoveToFront(el)
		return
	}
	if m.redeemedCap > 0 && m.redeemedLRU.Len() >= m.redeemedCap {
		oldest := m.redeemedLRU.Back()
		if oldest != nil {
			m.redeemedLRU.Remove(oldest)
			delete(m.redeemed, oldest.Value.(string))
		}
	}
	el := m.redeemedLRU.PushFront(code)
	m.redeemed[code] = el
}

// generateCode returns a codeLength-character random alphanumeric code.
func generateCode() string {
	result := make([]byte, codeLength)
	charsetLen := big.NewInt(int64(len(codeCharset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			// crypto/rand failure is unrecoverable; panic rather than
			// hand back a predictable code.
			panic("queue: crypto/rand unavailable: " + err.Error())
		}
		result[i] = codeCharset[n.Int64()]
	}
	return string(result)
}

var _ confirmation.Map = (*MemoryConfirmationMap)(nil)
