package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/gradewatch-queue/domain/confirmation"
)

func TestMemoryConfirmationMap_PutTake(t *testing.T) {
	m := NewMemoryConfirmationMap(time.Hour, 100)
	tk := newTask(1)

	code := m.Put(tk)
	if len(code) != codeLength {
		t.Fatalf("Put() code length = %d, want %d", len(code), codeLength)
	}

	got, err := m.Take(code)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("Take() = %v, want task 1", got)
	}

	if _, err := m.Take(code); !errors.Is(err, confirmation.ErrNotFound) {
		t.Fatalf("second Take() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryConfirmationMap_TakeUnknownCode(t *testing.T) {
	m := NewMemoryConfirmationMap(time.Hour, 100)
	if _, err := m.Take("does-not-exist"); !errors.Is(err, confirmation.ErrNotFound) {
		t.Fatalf("Take() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryConfirmationMap_Sweep(t *testing.T) {
	m := NewMemoryConfirmationMap(-time.Second, 100) // already expired
	code := m.Put(newTask(1))

	m.Sweep()

	if _, err := m.Take(code); !errors.Is(err, confirmation.ErrNotFound) {
		t.Fatalf("Take() after Sweep() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryConfirmationMap_WasConfirmed(t *testing.T) {
	m := NewMemoryConfirmationMap(time.Hour, 100)
	code := m.Put(newTask(1))

	if m.WasConfirmed(code) {
		t.Fatal("expected code to not be confirmed before Take")
	}

	if _, err := m.Take(code); err != nil {
		t.Fatalf("Take() error = %v", err)
	}

	if !m.WasConfirmed(code) {
		t.Fatal("expected code to be confirmed after Take")
	}
}

func TestMemoryConfirmationMap_RedeemedSetBounded(t *testing.T) {
	m := NewMemoryConfirmationMap(time.Hour, 2)

	codes := make([]string, 3)
	for i := range codes {
		codes[i] = m.Put(newTask(int64(i)))
		if _, err := m.Take(codes[i]); err != nil {
			t.Fatalf("Take() error = %v", err)
		}
	}

	// The set holds at most 2 entries, so the oldest redemption should
	// have been evicted.
	if m.WasConfirmed(codes[0]) {
		t.Fatal("expected oldest redeemed code to be evicted")
	}
	if !m.WasConfirmed(codes[1]) || !m.WasConfirmed(codes[2]) {
		t.Fatal("expected the two most recent redeemed codes to remain")
	}
}
