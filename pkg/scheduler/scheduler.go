package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
	"github.com/ashgrove-labs/taskflow/pkg/logging"
)

// Config bounds the scheduler's resources and timing, the Go analogue
// of the original's process-pool/thread-pool size arguments.
type Config struct {
	QueueCapacity     int
	ProcessWorkers    int
	ThreadWorkers     int
	ThreadBuffer      int
	DispatchInterval  time.Duration
	ShutdownGrace     time.Duration
	DefaultMaxRetries int
}

// DefaultConfig returns sane bounds for local development and tests.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:     1000,
		ProcessWorkers:    4,
		ThreadWorkers:     8,
		ThreadBuffer:      16,
		DispatchInterval:  20 * time.Millisecond,
		ShutdownGrace:     10 * time.Second,
		DefaultMaxRetries: 2,
	}
}

// SubmitRequest is the external admission request shape (see §6.1).
type SubmitRequest struct {
	Name           string
	Payload        Payload
	Priority       Priority
	MaxRetries     int
	TimeoutSeconds int
}

// Scheduler is the top-level control surface: it owns the queue, the
// registry, both executors, and the single dispatcher goroutine that
// ties them together.
type Scheduler struct {
	cfg      Config
	queue    *Queue
	registry *Registry
	metrics  *Metrics
	logger   *logging.Logger
	audit    audit.Sink

	threadExec  Executor
	processExec Executor

	mu    sync.RWMutex
	tasks map[string]*Task

	cancelCh chan string
	stopCh   chan struct{}
	doneCh   chan struct{}

	startedAt time.Time
	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a Scheduler. reg may be nil to skip Prometheus registration
// (used in tests that construct multiple schedulers in one process).
func New(cfg Config, reg prometheus.Registerer, logger *logging.Logger, sink audit.Sink) *Scheduler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if sink == nil {
		sink = audit.NoopSink{}
	}
	return &Scheduler{
		cfg:         cfg,
		queue:       NewQueue(cfg.QueueCapacity),
		registry:    NewRegistry(),
		metrics:     NewMetrics(reg),
		logger:      logger.WithComponent("scheduler"),
		audit:       sink,
		threadExec:  NewThreadExecutor(cfg.ThreadWorkers, cfg.ThreadBuffer),
		processExec: NewProcessExecutor(cfg.ProcessWorkers),
		tasks:       make(map[string]*Task),
		cancelCh:    make(chan string, 16),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Registry exposes the task-kind registry so callers can register
// custom kinds before Start.
func (s *Scheduler) Registry() *Registry { return s.registry }

// recordAudit persists entry best-effort: failures are logged, never
// propagated, matching the audit sink's durability contract.
func (s *Scheduler) recordAudit(entry audit.Entry) {
	if err := s.audit.Record(context.Background(), entry); err != nil {
		s.logger.Warnf("audit record failed for task %s event %s: %v", entry.TaskID, entry.Event, err)
	}
}

// Start launches both executors and the dispatcher loop. Safe to call
// once; subsequent calls are no-ops.
func (s *Scheduler) Start(ctx context.Context) error {
	var startErr error
	s.startOnce.Do(func() {
		if err := s.threadExec.Start(ctx); err != nil {
			startErr = fmt.Errorf("scheduler: start thread executor: %w", err)
			return
		}
		if err := s.processExec.Start(ctx); err != nil {
			startErr = fmt.Errorf("scheduler: start process executor: %w", err)
			return
		}
		s.startedAt = time.Now()
		go s.dispatchLoop(ctx)
		s.logger.Info("scheduler started", map[string]interface{}{
			"process_workers": s.cfg.ProcessWorkers,
			"thread_workers":  s.cfg.ThreadWorkers,
			"queue_capacity":  s.cfg.QueueCapacity,
		})
	})
	return startErr
}

// Stop signals the dispatcher to exit and stops both executors,
// waiting up to cfg.ShutdownGrace in total (half per executor) for
// running tasks to return. Tasks still queued or running are not
// cancelled; each task left in a non-terminal state is reported as one
// error in the aggregated result.
func (s *Scheduler) Stop() error {
	var merr *multierror.Error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh

		deadline := s.cfg.ShutdownGrace
		if deadline <= 0 {
			deadline = 5 * time.Second
		}
		half := deadline / 2
		s.threadExec.Stop(half)
		s.processExec.Stop(deadline - half)

		s.mu.RLock()
		for _, t := range s.tasks {
			if !t.Status.IsTerminal() {
				merr = multierror.Append(merr, fmt.Errorf("task %s left in state %s at shutdown", t.ID, t.Status))
			}
		}
		s.mu.RUnlock()

		s.logger.Info("scheduler stopped")
	})
	if merr != nil {
		return merr.ErrorOrNil()
	}
	return nil
}

// Submit validates and admits a new task, returning its assigned ID.
func (s *Scheduler) Submit(req SubmitRequest) (string, error) {
	select {
	case <-s.stopCh:
		return "", ErrSchedulerStopped
	default:
	}
	if req.Name == "" {
		return "", ErrInvalidName
	}
	kind, ok := s.registry.Lookup(req.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskKind, req.Name)
	}
	if req.Priority < PriorityLow || req.Priority > PriorityUrgent {
		return "", ErrInvalidPriority
	}

	// A negative MaxRetries means "unset" (the HTTP boundary uses this to
	// distinguish an absent field from an explicit 0); max_retries=0 is a
	// valid request for exactly one attempt with no retries.
	maxRetries := req.MaxRetries
	if maxRetries < 0 {
		maxRetries = s.cfg.DefaultMaxRetries
	}

	t := &Task{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Payload:        req.Payload,
		Priority:       req.Priority,
		MaxRetries:     maxRetries,
		TimeoutSeconds: req.TimeoutSeconds,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	if err := s.queue.Offer(t); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.tasks[t.ID] = t
	s.mu.Unlock()

	s.metrics.TasksSubmitted.Inc()
	s.metrics.QueueSize.Set(float64(s.queue.Size()))
	s.recordAudit(audit.Entry{TaskID: t.ID, Event: "submitted", TaskName: t.Name, Timestamp: t.CreatedAt})

	_ = kind // classification is consulted by the dispatcher at dispatch time
	return t.ID, nil
}

// Status returns a point-in-time snapshot of a known task.
func (s *Scheduler) Status(taskID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return t.Snapshot(), nil
}

// Cancel requests cancellation of a pending or running task. It returns
// ErrNotFound if the task is unknown and succeeds silently (false) if
// the task already reached a terminal state.
func (s *Scheduler) Cancel(taskID string) (bool, error) {
	s.mu.RLock()
	t, ok := s.tasks[taskID]
	s.mu.RUnlock()
	if !ok {
		return false, ErrNotFound
	}
	if t.Status.IsTerminal() {
		return false, nil
	}

	if s.queue.Remove(taskID) {
		s.mu.Lock()
		now := time.Now()
		t.Status = StatusCancelled
		t.CompletedAt = &now
		s.mu.Unlock()
		s.metrics.TasksCancelled.Inc()
		s.recordAudit(audit.Entry{TaskID: taskID, Event: "cancelled", Timestamp: now})
		return true, nil
	}

	select {
	case s.cancelCh <- taskID:
	default:
	}
	return true, nil
}

// WorkerStats summarizes executor utilization (see §6.1 worker_stats).
type WorkerStats struct {
	ProcessWorkers int `json:"process_workers"`
	ThreadWorkers  int `json:"thread_workers"`
	ProcessActive  int `json:"process_active"`
	ThreadActive   int `json:"thread_active"`
}

// WorkerStats reports current executor occupancy.
func (s *Scheduler) WorkerStats() WorkerStats {
	return WorkerStats{
		ProcessWorkers: s.cfg.ProcessWorkers,
		ThreadWorkers:  s.cfg.ThreadWorkers,
		ProcessActive:  s.processExec.ActiveCount(),
		ThreadActive:   s.threadExec.ActiveCount(),
	}
}

// SchedulerStats summarizes queue occupancy and task-lifecycle totals
// (see §6.1 scheduler_stats and §4.5).
type SchedulerStats struct {
	QueueSize     int            `json:"queue_size"`
	QueueByLevel  map[string]int `json:"queue_by_priority"`
	TotalTasks    int            `json:"total_tasks"`
	Pending       int            `json:"pending"`
	Running       int            `json:"running"`
	Completed     int            `json:"completed"`
	Failed        int            `json:"failed"`
	Cancelled     int            `json:"cancelled"`
	UptimeSeconds float64        `json:"uptime_seconds"`
}

// SchedulerStats reports an aggregate lifecycle snapshot over all known tasks.
func (s *Scheduler) SchedulerStats() SchedulerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := SchedulerStats{
		QueueSize:     s.queue.Size(),
		QueueByLevel:  s.queue.LevelCounts(),
		TotalTasks:    len(s.tasks),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
	for _, t := range s.tasks {
		switch t.Status {
		case StatusPending, StatusRetrying:
			stats.Pending++
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// Healthy reports whether the dispatcher loop is currently running.
func (s *Scheduler) Healthy() bool {
	select {
	case <-s.doneCh:
		return false
	default:
		return !s.startedAt.IsZero()
	}
}
