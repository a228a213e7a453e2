package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Handler executes a task's payload and returns its result payload.
type Handler func(ctx context.Context, payload Payload) (Payload, error)

// TaskKind binds a registered task name to the executor class it runs
// under and the handler that implements it.
type TaskKind struct {
	Name           string
	Classification Classification
	Handler        Handler
}

// Registry is the runtime-mutable map of task names to kinds. Reads and
// writes are both concurrent-safe; the dispatcher and HTTP surface read it
// on every submission while operators may register new kinds at any time.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]TaskKind
}

// NewRegistry builds a Registry seeded with the four reference task kinds.
func NewRegistry() *Registry {
	r := &Registry{
		kinds: make(map[string]TaskKind),
	}

	r.Register(TaskKind{Name: "compute", Classification: ClassificationCPUBound, Handler: computeHandler})
	r.Register(TaskKind{Name: "io_operation", Classification: ClassificationIOOrOther, Handler: ioOperationHandler})
	r.Register(TaskKind{Name: "data_processing", Classification: ClassificationIOOrOther, Handler: dataProcessingHandler})
	r.Register(TaskKind{Name: "error_task", Classification: ClassificationIOOrOther, Handler: errorTaskHandler})

	return r
}

// Register installs or replaces a task kind.
func (r *Registry) Register(kind TaskKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind.Name] = kind
}

// Lookup returns the kind registered under name, if any.
func (r *Registry) Lookup(name string) (TaskKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns every registered task kind name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	return names
}

// computeHandler sums i² for i < N, where N is payload.iterations
// (default 1,000,000). It is the CPU-bound reference kind.
func computeHandler(ctx context.Context, payload Payload) (Payload, error) {
	n := 1_000_000
	if raw, ok := toFloat(payload["iterations"]); ok {
		n = int(raw)
	}
	if n < 0 {
		n = 0
	}

	var sum int64
	for i := 0; i < n; i++ {
		sum += int64(i) * int64(i)
		if i%100_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
	}
	return Payload{"result": sum, "iterations": n}, nil
}

// ioOperationHandler sleeps payload.duration seconds (default 1.0),
// honoring cancellation, and reports when it woke up.
func ioOperationHandler(ctx context.Context, payload Payload) (Payload, error) {
	duration := 1.0
	if raw, ok := toFloat(payload["duration"]); ok {
		duration = raw
	}
	if raw, ok := toFloat(payload["delay_ms"]); ok {
		duration = raw / 1000.0 // accepted alias used by tests and HTTP callers
	}

	select {
	case <-time.After(time.Duration(duration * float64(time.Second))):
		return Payload{"slept_for": duration, "timestamp": time.Now().UTC().Format(time.RFC3339Nano)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dataProcessingHandler doubles numerics and uppercases strings in
// payload.data, an ordered sequence, preserving position.
func dataProcessingHandler(ctx context.Context, payload Payload) (Payload, error) {
	data, _ := payload["data"].([]interface{})
	out := make([]interface{}, len(data))
	for i, v := range data {
		switch item := v.(type) {
		case string:
			out[i] = strings.ToUpper(item)
		default:
			if f, ok := toFloat(item); ok {
				out[i] = f * 2
			} else {
				out[i] = item
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	return Payload{"original_count": len(data), "processed_data": out}, nil
}

// errorTaskHandler always fails, for exercising retry and
// failure-accounting paths.
func errorTaskHandler(ctx context.Context, payload Payload) (Payload, error) {
	return nil, fmt.Errorf("intentional task failure")
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
