package ingestion_engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	objectclient "github.com/markdave123-py/Trackname/internal/core/object-client"
	"github.com/markdave123-py/Trackname/internal/models"
)

// releaser deletes each staged source of a batch at most once.
// It is only used from the goroutine running the batch.
type releaser struct {
	store   core.ObjectClient
	logger  *zap.Logger
	keys    []string
	pending map[string]struct{}
}

func newReleaser(store core.ObjectClient, logger *zap.Logger, docs []models.SourceDocument) *releaser {
	r := &releaser{
		store:   store,
		logger:  logger,
		keys:    make([]string, 0, len(docs)),
		pending: make(map[string]struct{}, len(docs)),
	}
	for _, d := range docs {
		if _, dup := r.pending[d.Key]; dup {
			continue
		}
		r.keys = append(r.keys, d.Key)
		r.pending[d.Key] = struct{}{}
	}
	return r
}

func (r *releaser) release(ctx context.Context, key string) {
	if _, ok := r.pending[key]; !ok {
		return
	}
	delete(r.pending, key)

	if err := r.store.DeleteFile(ctx, key); err != nil && !errors.Is(err, objectclient.ErrNotFound) {
		r.logger.Warn("source cleanup failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *releaser) releaseAll(ctx context.Context) {
	for _, key := range r.keys {
		r.release(ctx, key)
	}
}

