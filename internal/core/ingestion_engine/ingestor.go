package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/Trackname/internal/models"
)

// BatchRunner processes one batch to completion.
type BatchRunner interface {
	ProcessBatch(ctx context.Context, batch models.Batch) (*models.BatchResult, error)
}

type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(ctx context.Context, batch models.Batch) error
	Wait()
}
