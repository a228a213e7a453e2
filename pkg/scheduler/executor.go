package scheduler

import (
	"context"
	"time"
)

// Completion is the terminal outcome of one executor-run task, fed back
// to the dispatcher over a shared channel.
type Completion struct {
	TaskID   string
	Result   Payload
	Err      error
	WorkerID string
	Duration time.Duration
}

// Executor runs tasks of one classification and reports completions
// asynchronously. ThreadExecutor and ProcessExecutor both satisfy it;
// the dispatcher treats them identically once wired.
type Executor interface {
	// Start spins up the executor's worker goroutines/processes.
	Start(ctx context.Context) error

	// Run submits t for execution. It does not block on completion;
	// the result arrives later on Completions(). Run itself may block
	// briefly if every worker slot is occupied.
	Run(ctx context.Context, t *Task, handler Handler)

	// Completions is the channel completed tasks are published on.
	Completions() <-chan Completion

	// Cancel best-effort interrupts a running task by ID. Returns true
	// if a running task with that ID was found and signaled.
	Cancel(taskID string) bool

	// ActiveCount reports the number of tasks currently executing.
	ActiveCount() int

	// Stop drains in-flight work, waiting up to grace before giving up
	// and returning. It never blocks forever.
	Stop(grace time.Duration)
}
