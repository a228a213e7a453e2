// Package memory provides an in-process audit.Sink backed by a guarded
// map, suitable for tests and for hosts that don't want durable audit.
package memory

import (
	"context"
	"sync"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
)

// Store is an audit.Sink that keeps every entry in memory, grouped by
// task ID, in arrival order.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

// New builds an empty Store.
func New() *Store {
	return &Store{entries: make(map[string][]audit.Entry)}
}

func (s *Store) Record(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TaskID] = append(s.entries[entry.TaskID], entry)
	return nil
}

func (s *Store) History(_ context.Context, taskID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.entries[taskID]
	out := make([]audit.Entry, len(existing))
	copy(out, existing)
	return out, nil
}

func (s *Store) Close() error { return nil }
