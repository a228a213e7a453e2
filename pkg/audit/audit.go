// Package audit defines the scheduler's durable task-event sink; its
// in-memory and Postgres implementations live in the memory and
// postgres subpackages.
package audit

import (
	"context"
	"time"
)

// Entry is one recorded lifecycle event for a task.
type Entry struct {
	TaskID       string
	TaskName     string
	Event        string // submitted, started, completed, failed, retried, cancelled
	WorkerID     string
	ErrorMessage string
	Timestamp    time.Time
}

// Sink persists task lifecycle events. Implementations must not block the
// dispatcher goroutine for long; Record is called synchronously from the
// scheduler's hot path in this implementation, so sinks should buffer or
// fail fast rather than perform slow I/O inline.
type Sink interface {
	Record(ctx context.Context, entry Entry) error

	// History returns every recorded entry for a task, oldest first.
	History(ctx context.Context, taskID string) ([]Entry, error)

	// Close releases any resources the sink holds (connections, files).
	Close() error
}

// NoopSink discards every entry. It is the default when no durable sink
// is configured.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Entry) error              { return nil }
func (NoopSink) History(context.Context, string) ([]Entry, error) { return nil, nil }
func (NoopSink) Close() error                                     { return nil }
