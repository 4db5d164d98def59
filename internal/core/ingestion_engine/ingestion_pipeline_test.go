package ingestion_engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Trackname/internal/models"
)

type slowRunner struct {
	mu      sync.Mutex
	seen    []string
	active  int
	peak    int
	delay   time.Duration
	ctxErrs []error
}

func (r *slowRunner) ProcessBatch(ctx context.Context, batch models.Batch) (*models.BatchResult, error) {
	r.mu.Lock()
	r.active++
	if r.active > r.peak {
		r.peak = r.active
	}
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	r.active--
	r.seen = append(r.seen, batch.ID)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.mu.Unlock()
	return &models.BatchResult{}, nil
}

func TestDocumentIngestor_RunsBatchesConcurrently(t *testing.T) {
	runner := &slowRunner{delay: 50 * time.Millisecond}
	ing := NewDocumentIngestor(runner, 8, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ing.Start(ctx, 3)

	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, ing.Enqueue(context.Background(), models.Batch{ID: id}))
	}
	cancel()
	ing.Wait()

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f"}, runner.seen)
	assert.Greater(t, runner.peak, 1)
	assert.LessOrEqual(t, runner.peak, 3)
}

func TestDocumentIngestor_AcceptedBatchesSurviveShutdown(t *testing.T) {
	runner := &slowRunner{delay: 10 * time.Millisecond}
	ing := NewDocumentIngestor(runner, 16, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ing.Start(ctx, 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, ing.Enqueue(context.Background(), models.Batch{ID: string(rune('a' + i))}))
	}
	cancel()
	ing.Wait()

	assert.Len(t, runner.seen, 5)
	for _, err := range runner.ctxErrs {
		assert.NoError(t, err, "accepted batches must not be cancelled by shutdown")
	}

	assert.ErrorIs(t, ing.Enqueue(context.Background(), models.Batch{ID: "late"}), ErrStopped)
}

func TestDocumentIngestor_EnqueueHonoursCallerContext(t *testing.T) {
	runner := &slowRunner{}
	ing := NewDocumentIngestor(runner, 1, time.Minute, nil)

	// No workers: the single slot fills and the next call must give up.
	require.NoError(t, ing.Enqueue(context.Background(), models.Batch{ID: "fills-queue"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ing.Enqueue(ctx, models.Batch{ID: "blocked"}), context.DeadlineExceeded)
}
