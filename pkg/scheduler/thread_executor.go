package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ThreadExecutor runs tasks as goroutines bounded by a fixed worker
// count, the way the teacher's workers.Pool runs a fixed goroutine fleet
// against a buffered task channel. It is the Go-native stand-in for a
// thread pool and is used for I/O-bound task kinds.
type ThreadExecutor struct {
	workerCount int
	jobs        chan threadJob
	completions chan Completion

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	active int64

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

type threadJob struct {
	task    *Task
	handler Handler
}

// NewThreadExecutor builds a ThreadExecutor with workerCount goroutines
// and a queue buffer sized to bufferSize pending jobs.
func NewThreadExecutor(workerCount, bufferSize int) *ThreadExecutor {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = workerCount * 2
	}
	return &ThreadExecutor{
		workerCount: workerCount,
		jobs:        make(chan threadJob, bufferSize),
		completions: make(chan Completion, bufferSize),
		cancels:     make(map[string]context.CancelFunc),
		stopped:     make(chan struct{}),
	}
}

func (e *ThreadExecutor) Start(ctx context.Context) error {
	for i := 0; i < e.workerCount; i++ {
		workerID := fmt.Sprintf("thread-%d", i)
		e.wg.Add(1)
		go e.worker(ctx, workerID)
	}
	return nil
}

func (e *ThreadExecutor) worker(ctx context.Context, workerID string) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopped:
			return
		case <-ctx.Done():
			return
		case job, ok := <-e.jobs:
			if !ok {
				return
			}
			e.run(ctx, workerID, job)
		}
	}
}

func (e *ThreadExecutor) run(parent context.Context, workerID string, job threadJob) {
	atomic.AddInt64(&e.active, 1)
	defer atomic.AddInt64(&e.active, -1)

	ctx := parent
	var cancel context.CancelFunc
	if job.task.TimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(parent, time.Duration(job.task.TimeoutSeconds)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	e.mu.Lock()
	e.cancels[job.task.ID] = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, job.task.ID)
		e.mu.Unlock()
	}()

	start := time.Now()
	result, err := job.handler(ctx, job.task.Payload)
	e.completions <- Completion{
		TaskID:   job.task.ID,
		Result:   result,
		Err:      err,
		WorkerID: workerID,
		Duration: time.Since(start),
	}
}

func (e *ThreadExecutor) Run(ctx context.Context, t *Task, handler Handler) {
	select {
	case e.jobs <- threadJob{task: t, handler: handler}:
	case <-ctx.Done():
		e.completions <- Completion{TaskID: t.ID, Err: ctx.Err()}
	}
}

func (e *ThreadExecutor) Completions() <-chan Completion {
	return e.completions
}

func (e *ThreadExecutor) Cancel(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.cancels[taskID]
	if !ok {
		return false
	}
	cancel()
	return true
}

func (e *ThreadExecutor) ActiveCount() int {
	return int(atomic.LoadInt64(&e.active))
}

func (e *ThreadExecutor) Stop(grace time.Duration) {
	e.stopOnce.Do(func() { close(e.stopped) })

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
	}
}
