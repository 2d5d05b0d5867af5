// Package logging wraps bolt with the broker's default logger and
// field vocabulary.
package logging

import (
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config selects the default logger's level, output format, and
// destination.
type Config struct {
	// Level is the minimum level logged: trace, debug, info, warn, or
	// error. An unrecognized value behaves as info.
	Level string

	// Format is "json" for machine-parseable output or anything else
	// for the colorized console handler.
	Format string

	// NoColor disables color in the console handler.
	NoColor bool

	// Output is where log lines are written. Nil means stdout.
	Output *os.File
}

// DefaultConfig is console output at info level, for a broker run
// directly from a terminal.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: os.Stdout}
}

// ProductionConfig is JSON output at info level, for a broker run under
// a process supervisor that captures stdout.
func ProductionConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stdout}
}

var levelByName = map[string]bolt.Level{
	"trace": bolt.TRACE,
	"debug": bolt.DEBUG,
	"info":  bolt.INFO,
	"warn":  bolt.WARN,
	"error": bolt.ERROR,
}

func levelOf(s string) bolt.Level {
	if l, ok := levelByName[s]; ok {
		return l
	}
	return bolt.INFO
}

func handlerFor(format string, output *os.File) bolt.Handler {
	if format == "json" {
		return bolt.NewJSONHandler(output)
	}
	return bolt.NewConsoleHandler(output)
}

// Init sets up the default logger. Only the first call takes effect;
// later calls (including the implicit one in Get) are no-ops, since the
// broker only ever calls this once, during startup.
func Init(config Config) {
	once.Do(func() {
		output := config.Output
		if output == nil {
			output = os.Stdout
		}
		defaultLogger = bolt.New(handlerFor(config.Format, output)).SetLevel(levelOf(config.Level))
	})
}

// Get returns the default logger, initializing it with DefaultConfig if
// no prior Init call has run.
func Get() *bolt.Logger {
	if defaultLogger == nil {
		Init(DefaultConfig())
	}
	return defaultLogger
}

// SetLevel changes the default logger's level at runtime.
func SetLevel(level string) {
	Get().SetLevel(levelOf(level))
}

// LogEvent chains Field values onto a bolt.Event before sending it. The
// broker's field constructors (Component, TaskID, Code, ...) all share
// this signature so call sites read as a flat Add chain regardless of
// which fields a given log line carries.
type LogEvent struct {
	event *bolt.Event
}

// NewEvent wraps e for Field chaining.
func NewEvent(e *bolt.Event) *LogEvent {
	return &LogEvent{event: e}
}

// Add applies f to the wrapped event and returns the receiver for
// chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Send sends the event with no message.
func (l *LogEvent) Send() {
	l.event.Send()
}

// Trace starts a trace-level event.
func Trace() *LogEvent {
	return &LogEvent{event: Get().Trace()}
}

// Debug starts a debug-level event.
func Debug() *LogEvent {
	return &LogEvent{event: Get().Debug()}
}

// Info starts an info-level event.
func Info() *LogEvent {
	return &LogEvent{event: Get().Info()}
}

// Warn starts a warn-level event.
func Warn() *LogEvent {
	return &LogEvent{event: Get().Warn()}
}

// Error starts an error-level event.
func Error() *LogEvent {
	return &LogEvent{event: Get().Error()}
}

// Fatal starts a fatal-level event. bolt terminates the process after
// the event is sent.
func Fatal() *LogEvent {
	return &LogEvent{event: Get().Fatal()}
}
