package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerExecArg is the hidden CLI flag cmd/taskflow recognizes to run as
// a one-shot process worker instead of the scheduler binary proper.
const WorkerExecArg = "-worker-exec"

// processInvocation is the JSON envelope written to a process worker's
// stdin: enough to reconstruct the handler lookup and run it.
type processInvocation struct {
	TaskName       string  `json:"task_name"`
	Payload        Payload `json:"payload"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// processResult is the JSON envelope a process worker writes to stdout.
type processResult struct {
	Result Payload `json:"result,omitempty"`
	Err    string  `json:"error,omitempty"`
}

// ProcessExecutor runs each task in its own short-lived subprocess
// (re-invoking the current binary with WorkerExecArg), the process-pool
// analogue of ThreadExecutor. It trades per-task process-spawn overhead
// for true OS-level isolation between CPU-bound task kinds, and only
// tasks registered under the subprocess's own default registry are
// reachable — handlers registered at runtime via Registry.Register in
// the parent process are not visible across the process boundary.
type ProcessExecutor struct {
	maxConcurrent int
	sem           chan struct{}
	completions   chan Completion

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	active int64

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewProcessExecutor builds a ProcessExecutor allowing at most
// maxConcurrent subprocesses in flight at once.
func NewProcessExecutor(maxConcurrent int) *ProcessExecutor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ProcessExecutor{
		maxConcurrent: maxConcurrent,
		sem:           make(chan struct{}, maxConcurrent),
		completions:   make(chan Completion, maxConcurrent*2),
		cancels:       make(map[string]context.CancelFunc),
		stopped:       make(chan struct{}),
	}
}

func (e *ProcessExecutor) Start(ctx context.Context) error {
	return nil
}

func (e *ProcessExecutor) Run(ctx context.Context, t *Task, handler Handler) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		e.completions <- Completion{TaskID: t.ID, Err: ctx.Err()}
		return
	case <-e.stopped:
		e.completions <- Completion{TaskID: t.ID, Err: ErrSchedulerStopped}
		return
	}

	e.wg.Add(1)
	atomic.AddInt64(&e.active, 1)
	go func() {
		defer e.wg.Done()
		defer atomic.AddInt64(&e.active, -1)
		defer func() { <-e.sem }()
		e.runSubprocess(ctx, t)
	}()
}

func (e *ProcessExecutor) runSubprocess(parent context.Context, t *Task) {
	workerID := fmt.Sprintf("process-%s", t.ID)

	ctx := parent
	var cancel context.CancelFunc
	if t.TimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(parent, time.Duration(t.TimeoutSeconds)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	e.mu.Lock()
	e.cancels[t.ID] = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		delete(e.cancels, t.ID)
		e.mu.Unlock()
	}()

	start := time.Now()
	result, err := e.invoke(ctx, t)
	e.completions <- Completion{
		TaskID:   t.ID,
		Result:   result,
		Err:      err,
		WorkerID: workerID,
		Duration: time.Since(start),
	}
}

func (e *ProcessExecutor) invoke(ctx context.Context, t *Task) (Payload, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("process executor: resolve self: %w", err)
	}

	inv := processInvocation{TaskName: t.Name, Payload: t.Payload, TimeoutSeconds: t.TimeoutSeconds}
	stdin, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("process executor: marshal invocation: %w", err)
	}

	cmd := exec.CommandContext(ctx, self, WorkerExecArg)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("process executor: worker exited: %w (stderr: %s)", err, stderr.String())
	}

	var res processResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("process executor: decode result: %w", err)
	}
	if res.Err != "" {
		return nil, fmt.Errorf("%s", res.Err)
	}
	return res.Result, nil
}

func (e *ProcessExecutor) Completions() <-chan Completion {
	return e.completions
}

func (e *ProcessExecutor) Cancel(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.cancels[taskID]
	if !ok {
		return false
	}
	cancel()
	return true
}

func (e *ProcessExecutor) ActiveCount() int {
	return int(atomic.LoadInt64(&e.active))
}

func (e *ProcessExecutor) Stop(grace time.Duration) {
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

// RunWorkerExec is the subprocess entrypoint cmd/taskflow invokes when
// started with WorkerExecArg: decode one invocation from stdin, execute
// it against the default registry, and write the JSON result to stdout.
func RunWorkerExec(stdin []byte) []byte {
	var inv processInvocation
	out := processResult{}
	if err := json.Unmarshal(stdin, &inv); err != nil {
		out.Err = fmt.Sprintf("decode invocation: %v", err)
		b, _ := json.Marshal(out)
		return b
	}

	registry := NewRegistry()
	kind, ok := registry.Lookup(inv.TaskName)
	if !ok {
		out.Err = fmt.Sprintf("unknown task kind: %s", inv.TaskName)
		b, _ := json.Marshal(out)
		return b
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if inv.TimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(inv.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, err := kind.Handler(ctx, inv.Payload)
	if err != nil {
		out.Err = err.Error()
	} else {
		out.Result = result
	}
	b, _ := json.Marshal(out)
	return b
}
