package testutil

import (
	"sync"

	"github.com/edubridge/backoffice/core"
)

// LogEntry is a message recorded by LoggerMock.
type LogEntry struct {
	Level   string
	Message string
	Args    []interface{}
}

// LoggerMock records what it is asked to log.
type LoggerMock struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*LoggerMock)(nil)

func NewLoggerMock() *LoggerMock {
	return &LoggerMock{}
}

func (l *LoggerMock) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Args: args})
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.record("debug", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.record("info", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.record("warn", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.record("error", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.record("fatal", msg, args) }

// Errors returns the entries logged at error level.
func (l *LoggerMock) Errors() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Level == "error" {
			out = append(out, e)
		}
	}
	return out
}

// ErrorArg returns the first error passed along with entry e.
func (e LogEntry) ErrorArg() error {
	for _, arg := range e.Args {
		if err, ok := arg.(error); ok {
			return err
		}
	}
	return nil
}
