package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	pipeline := newPipeline("pipeline_1_1", 1, testTime())
	require.NoError(t, store.Put(context.Background(), pipeline))

	snapshot, err := store.Get(context.Background(), "pipeline_1_1")
	require.NoError(t, err)

	// Mutating the snapshot must not leak back into the store.
	snapshot.Steps[0].Status = StepCompleted
	snapshot.OverallStatus = StatusCompleted

	fresh, err := store.Get(context.Background(), "pipeline_1_1")
	require.NoError(t, err)
	require.Equal(t, StepPending, fresh.Steps[0].Status)
	require.Equal(t, StatusPending, fresh.OverallStatus)
}

func TestMemoryStoreUpdateAppliesMutation(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), newPipeline("pipeline_2_1", 2, testTime())))

	err := store.Update(context.Background(), "pipeline_2_1", func(p *Pipeline) {
		p.OverallStatus = StatusRunning
		p.Steps[0].Status = StepRunning
	})
	require.NoError(t, err)

	snapshot, err := store.Get(context.Background(), "pipeline_2_1")
	require.NoError(t, err)
	require.Equal(t, StatusRunning, snapshot.OverallStatus)
	require.Equal(t, StepRunning, snapshot.Steps[0].Status)
}

func TestMemoryStoreMissingPipeline(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "pipeline_9_9")
	require.ErrorIs(t, err, ErrPipelineNotFound)

	err = store.Update(context.Background(), "pipeline_9_9", func(*Pipeline) {})
	require.ErrorIs(t, err, ErrPipelineNotFound)
}
