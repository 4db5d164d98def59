package ingestion_engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/models"
)

// ErrStopped is returned by Enqueue once the ingestor no longer accepts batches.
var ErrStopped = errors.New("ingestor stopped")

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor with a bounded batch queue.
func NewDocumentIngestor(runner BatchRunner, queueSize int, timeout time.Duration, logger *zap.Logger) *DocumentIngestor {
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = DefaultIngestConfig().BatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentIngestor{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
		jobs:    make(chan models.Batch, queueSize),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel. When ctx is
// done the ingestor stops accepting batches; workers finish everything
// already queued before exiting.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		i.wg.Add(1)
		go func(w int) {
			defer i.wg.Done()
			for batch := range i.jobs {
				queuedBatches.Dec()
				i.logger.Info("worker picked batch", zap.Int("worker", w), zap.String("batch_id", batch.ID))
				i.run(batch)
			}
			i.logger.Debug("worker shutting down", zap.Int("worker", w))
		}(w)
	}

	go func() {
		<-ctx.Done()
		i.stop()
	}()
}

// Enqueue schedules a batch. If the queue is full, this call blocks until
// space frees up or ctx is done.
func (i *DocumentIngestor) Enqueue(ctx context.Context, batch models.Batch) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		return ErrStopped
	}

	select {
	case i.jobs <- batch:
		queuedBatches.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every worker has exited.
func (i *DocumentIngestor) Wait() {
	i.wg.Wait()
}

func (i *DocumentIngestor) stop() {
	i.stopOnce.Do(func() {
		i.mu.Lock()
		i.stopped = true
		close(i.jobs)
		i.mu.Unlock()
	})
}

// run processes one batch on a context detached from whoever submitted it;
// an accepted batch is never cancelled, only bounded by the batch timeout.
func (i *DocumentIngestor) run(batch models.Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	if _, err := i.runner.ProcessBatch(ctx, batch); err != nil {
		i.logger.Warn("batch ended with error", zap.String("batch_id", batch.ID), zap.Error(err))
	}
}
