package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for broker runtime logging.

// TaskID adds a task id field.
func TaskID(id int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("task_id", id)
	}
}

// Code adds a confirmation code field.
func Code(code string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("code", code)
	}
}

// FailureCount adds a failure count field.
func FailureCount(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("failure_count", n)
	}
}

// Recipient adds a mail recipient field.
func Recipient(addr string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("recipient", addr)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// DurationNs adds a duration field in nanoseconds.
func DurationNs(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ns", d.Nanoseconds())
	}
}

// QueueDepth adds a ready-queue depth field.
func QueueDepth(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("queue_depth", n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Method adds an HTTP method field.
func Method(method string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("method", method)
	}
}

// Path adds an HTTP path field.
func Path(path string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", path)
	}
}

// StatusCode adds an HTTP status code field.
func StatusCode(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// Session adds a worker session token field.
func Session(token string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session", token)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
