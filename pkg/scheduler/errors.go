package scheduler

import "errors"

var (
	// ErrQueueFull is returned by Submit when the bounded queue has no
	// capacity left at any priority level.
	ErrQueueFull = errors.New("scheduler: queue is full")

	// ErrInvalidPriority is returned when a submit request names a
	// priority outside the known total order.
	ErrInvalidPriority = errors.New("scheduler: invalid priority")

	// ErrInvalidName is returned when a task name is empty. A non-empty
	// name with no registered kind yields ErrUnknownTaskKind instead.
	ErrInvalidName = errors.New("scheduler: invalid task name")

	// ErrNotFound is returned when a task ID has no known record.
	ErrNotFound = errors.New("scheduler: task not found")

	// ErrUnknownTaskKind is returned when a task references a kind that
	// was never registered.
	ErrUnknownTaskKind = errors.New("scheduler: unknown task kind")

	// ErrSchedulerStopped is returned by Submit once Stop has been called.
	ErrSchedulerStopped = errors.New("scheduler: stopped")
)
