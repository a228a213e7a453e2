// Package scheduler implements a priority-queued, hybrid process/thread task
// scheduler: a bounded multi-level FIFO queue feeding two worker executors,
// driven by a single cooperative dispatcher loop.
package scheduler

import "time"

// Priority is a total order over task classes: Low < Normal < High < Urgent.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ParsePriority parses the wire-level priority name used by submit requests.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "low":
		return PriorityLow, true
	case "normal":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	case "urgent":
		return PriorityUrgent, true
	default:
		return 0, false
	}
}

// priorityLevels lists priorities from highest to lowest drain order.
var priorityLevels = []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}

// Status is a task's lifecycle state. Transitions are monotonic:
// pending -> running -> (completed|failed|cancelled). While retry budget
// remains, a failed attempt takes a running -> retrying -> running
// detour instead; the task waits in the queue as retrying.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
	StatusRetrying
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusRetrying:
		return "retrying"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Classification routes a task kind to the executor that runs it.
type Classification int

const (
	ClassificationCPUBound Classification = iota
	ClassificationIOOrOther
)

// Payload is the restricted, JSON-serializable tree of scalars, sequences,
// and keyed maps that crosses the process-worker boundary.
type Payload map[string]interface{}

// Task is the scheduler's unit of work and its full lifecycle record.
// After a Task leaves Submit, only the dispatcher goroutine mutates it,
// except that Scheduler.Cancel marks a still-queued task cancelled;
// every other reader goes through Scheduler's snapshot accessors.
type Task struct {
	ID       string
	Name     string
	Payload  Payload
	Priority Priority

	MaxRetries     int
	TimeoutSeconds int
	RetryCount     int

	Status Status

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	Result       Payload
	ErrorMessage string

	WorkerID string
}

// Snapshot is an immutable copy of a Task safe to hand to readers outside
// the dispatcher goroutine.
type Snapshot struct {
	ID             string    `json:"task_id"`
	Name           string    `json:"name"`
	Priority       string    `json:"priority"`
	MaxRetries     int       `json:"max_retries"`
	TimeoutSeconds int       `json:"timeout_seconds"`
	RetryCount     int       `json:"retry_count"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Result         Payload   `json:"result,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	WorkerID       string    `json:"worker_id,omitempty"`
}

// Snapshot copies the task's externally visible fields.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:             t.ID,
		Name:           t.Name,
		Priority:       t.Priority.String(),
		MaxRetries:     t.MaxRetries,
		TimeoutSeconds: t.TimeoutSeconds,
		RetryCount:     t.RetryCount,
		Status:         t.Status.String(),
		CreatedAt:      t.CreatedAt,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
		Result:         t.Result,
		ErrorMessage:   t.ErrorMessage,
		WorkerID:       t.WorkerID,
	}
}
