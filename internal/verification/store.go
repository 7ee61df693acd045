package verification

import (
	"context"
	"errors"
	"sync"
)

// ErrPipelineNotFound indicates the requested pipeline does not exist.
var ErrPipelineNotFound = errors.New("pipeline not found")

// Store holds verification pipelines keyed by pipeline id. The orchestrator
// owns all mutation; external callers only read snapshots. A durable
// implementation can replace MemoryStore without touching pipeline logic.
type Store interface {
	Put(ctx context.Context, pipeline *Pipeline) error
	// Get returns a deep-copied snapshot of the pipeline.
	Get(ctx context.Context, id string) (Pipeline, error)
	// Update applies fn to the stored pipeline under the store's lock.
	Update(ctx context.Context, id string, fn func(*Pipeline)) error
}

// MemoryStore keeps pipelines in process memory behind a mutex. Pipeline
// state is intentionally ephemeral: a verification attempt that does not
// survive a restart is simply re-run.
type MemoryStore struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewMemoryStore constructs an empty in-memory pipeline store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pipelines: make(map[string]*Pipeline)}
}

// Put stores the pipeline under its id.
func (s *MemoryStore) Put(_ context.Context, pipeline *Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipelines[pipeline.ID] = pipeline
	return nil
}

// Get returns a snapshot of the pipeline with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pipeline, ok := s.pipelines[id]
	if !ok {
		return Pipeline{}, ErrPipelineNotFound
	}

	return pipeline.Clone(), nil
}

// Update applies fn to the stored pipeline while holding the write lock, so
// readers never observe a half-applied step transition.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Pipeline)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pipeline, ok := s.pipelines[id]
	if !ok {
		return ErrPipelineNotFound
	}

	fn(pipeline)
	return nil
}
