package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
)

// dispatchLoop is the scheduler's single cooperative loop: a select over
// a dispatch ticker, both executors' completion channels, and a cancel
// request channel, ending on stopCh. Once a task has left Submit, the
// only other goroutine that mutates its state is a Cancel call that
// removes it from the queue before it is dispatched.
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainQueue(ctx)
		case c := <-s.threadExec.Completions():
			s.handleCompletion(c)
		case c := <-s.processExec.Completions():
			s.handleCompletion(c)
		case taskID := <-s.cancelCh:
			s.handleCancel(taskID)
		}
	}
}

// drainQueue pulls tasks off the queue while each task's target executor
// has a free slot, and hands them off to run.
func (s *Scheduler) drainQueue(ctx context.Context) {
	for {
		if s.threadExec.ActiveCount() >= s.cfg.ThreadWorkers && s.processExec.ActiveCount() >= s.cfg.ProcessWorkers {
			return
		}
		if s.queue.IsEmpty() {
			return
		}

		t := s.queue.Poll()
		if t == nil {
			return
		}

		kind, ok := s.registry.Lookup(t.Name)
		if !ok {
			s.finalizeFailure(t, ErrUnknownTaskKind)
			continue
		}

		exec := s.executorFor(kind.Classification)
		if exec.ActiveCount() >= s.executorCapacity(kind.Classification) {
			// Target executor is saturated; put the task back at the
			// tail of its class and wait for the next tick rather than
			// busy-spinning past it.
			_ = s.queue.Offer(t)
			return
		}

		s.mu.Lock()
		now := time.Now()
		t.Status = StatusRunning
		t.StartedAt = &now
		s.mu.Unlock()

		s.metrics.QueueSize.Set(float64(s.queue.Size()))
		s.metrics.ActiveWorkers.Set(float64(s.threadExec.ActiveCount() + s.processExec.ActiveCount()))
		s.recordAudit(audit.Entry{TaskID: t.ID, TaskName: t.Name, Event: "started", Timestamp: now})

		exec.Run(ctx, t, kind.Handler)
	}
}

func (s *Scheduler) executorFor(c Classification) Executor {
	if c == ClassificationCPUBound {
		return s.processExec
	}
	return s.threadExec
}

func (s *Scheduler) executorCapacity(c Classification) int {
	if c == ClassificationCPUBound {
		return s.cfg.ProcessWorkers
	}
	return s.cfg.ThreadWorkers
}

// handleCompletion applies a finished execution to its task record,
// retrying on failure while retry budget remains.
func (s *Scheduler) handleCompletion(c Completion) {
	s.mu.RLock()
	t, ok := s.tasks[c.TaskID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	if t.Status.IsTerminal() {
		// The task was cancelled (or otherwise finalized) while this
		// execution was in flight; its completion arrived after the
		// fact and must not resurrect a terminal task.
		return
	}

	if c.Err == nil {
		s.finalizeSuccess(t, c)
		return
	}

	s.mu.Lock()
	exhausted := t.RetryCount >= t.MaxRetries
	if !exhausted {
		t.RetryCount++
		t.Status = StatusRetrying
	}
	s.mu.Unlock()

	if exhausted {
		s.finalizeFailure(t, c.Err)
		return
	}

	s.metrics.TasksRetried.Inc()
	s.recordAudit(audit.Entry{
		TaskID: t.ID, TaskName: t.Name, Event: "retried",
		WorkerID: c.WorkerID, ErrorMessage: c.Err.Error(), Timestamp: time.Now(),
	})

	if err := s.queue.Offer(t); err != nil {
		// Queue is full: the task cannot be re-offered, and leaving it
		// in StatusPending would strand it in no queue and no executor,
		// violating the every-task-reaches-terminal invariant. Treat
		// exhaustion of queue capacity like exhaustion of retry budget.
		s.finalizeFailure(t, fmt.Errorf("retry: %w", err))
		return
	}
}

func (s *Scheduler) finalizeSuccess(t *Task, c Completion) {
	s.mu.Lock()
	now := time.Now()
	result := c.Result
	if result == nil {
		result = Payload{}
	}
	result["processing_time_ms"] = float64(c.Duration.Microseconds()) / 1000.0
	t.Status = StatusCompleted
	t.Result = result
	t.WorkerID = c.WorkerID
	t.CompletedAt = &now
	s.mu.Unlock()

	s.metrics.TasksCompleted.Inc()
	s.metrics.ProcessingTime.Observe(c.Duration.Seconds())
	s.recordAudit(audit.Entry{TaskID: t.ID, TaskName: t.Name, Event: "completed", WorkerID: c.WorkerID, Timestamp: now})
}

func (s *Scheduler) finalizeFailure(t *Task, cause error) {
	s.mu.Lock()
	now := time.Now()
	t.Status = StatusFailed
	t.ErrorMessage = cause.Error()
	t.CompletedAt = &now
	s.mu.Unlock()

	s.metrics.TasksFailed.Inc()
	s.recordAudit(audit.Entry{TaskID: t.ID, TaskName: t.Name, Event: "failed", ErrorMessage: cause.Error(), Timestamp: now})
}

func (s *Scheduler) handleCancel(taskID string) {
	s.mu.RLock()
	t, ok := s.tasks[taskID]
	s.mu.RUnlock()
	if !ok || t.Status.IsTerminal() {
		return
	}

	exec := s.executorFor(s.classificationOf(t))
	if exec.Cancel(taskID) {
		s.mu.Lock()
		now := time.Now()
		t.Status = StatusCancelled
		t.CompletedAt = &now
		s.mu.Unlock()
		s.metrics.TasksCancelled.Inc()
		s.recordAudit(audit.Entry{TaskID: t.ID, TaskName: t.Name, Event: "cancelled", Timestamp: now})
	}
}

func (s *Scheduler) classificationOf(t *Task) Classification {
	if kind, ok := s.registry.Lookup(t.Name); ok {
		return kind.Classification
	}
	return ClassificationIOOrOther
}
