package inmemorystore

import (
	"fmt"
	"sync"

	"github.com/vk/protoswift/internal/label"
)

// Status is the evaluation state of one node.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

// Store holds per-node status, result and error.
//
// The store maintains three independent sync.Maps:
//   - states: label to Status
//   - results: label to the node's final value
//   - errors: label to the error of a failed or skipped node
type Store[V any] struct {
	states  sync.Map
	results sync.Map
	errors  sync.Map
}

// New creates a new, empty store.
func New[V any]() *Store[V] {
	return &Store[V]{}
}

// SetStatus updates the status of a node.
func (s *Store[V]) SetStatus(id label.Label, status Status) {
	s.states.Store(id, status)
}

// GetStatus returns the status of a node, StatusPending if none was set.
func (s *Store[V]) GetStatus(id label.Label) Status {
	status, ok := s.states.Load(id)
	if !ok {
		return StatusPending
	}
	return status.(Status)
}

// SetResult records the final value of a node and marks it done. A result
// can be recorded only once.
func (s *Store[V]) SetResult(id label.Label, v V) error {
	if _, loaded := s.results.LoadOrStore(id, v); loaded {
		return fmt.Errorf("result for %s already recorded", id)
	}
	s.states.Store(id, StatusDone)
	return nil
}

// GetResult returns the final value of a node.
func (s *Store[V]) GetResult(id label.Label) (V, bool) {
	v, ok := s.results.Load(id)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// SetError records why a node did not produce a result.
func (s *Store[V]) SetError(id label.Label, status Status, err error) {
	s.errors.Store(id, err)
	s.states.Store(id, status)
}

// GetError returns the recorded error of a node, nil if there is none.
func (s *Store[V]) GetError(id label.Label) error {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil
	}
	return err.(error)
}

// Results returns every recorded result.
func (s *Store[V]) Results() map[label.Label]V {
	out := make(map[label.Label]V)
	s.results.Range(func(k, v any) bool {
		out[k.(label.Label)] = v.(V)
		return true
	})
	return out
}
