package ingestion_engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/models"
)

// IngestConfig tunes batch processing.
//
// IllegibleBelow:  documents with fewer non-whitespace characters are reported as illegible.
// DownloadPrefix:  prepended to artifact keys to build the URL sent in the complete event.
// BatchTimeout:    upper bound for one batch; batches are detached from request contexts.
type IngestConfig struct {
	IllegibleBelow int
	DownloadPrefix string
	BatchTimeout   time.Duration
}

// DefaultIngestConfig mirrors the service defaults.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		IllegibleBelow: 10,
		DownloadPrefix: "/download/",
		BatchTimeout:   10 * time.Minute,
	}
}

// BatchProcessor runs the extract -> match -> rename fold over one batch and
// hands the matches to the packager:
//
// uploads:   store holding the staged source documents; sources are deleted from it.
// extractor: raw bytes -> page ordered text.
// match:     text -> tracking code and strategy.
// packager:  processed items -> artifact in the output store.
// reporter:  progress sink; never blocks.
type BatchProcessor struct {
	uploads   core.ObjectClient
	extractor core.TextExtractor
	match     core.CodeMatcher
	packager  core.Packager
	reporter  core.ProgressReporter
	cfg       *IngestConfig
	logger    *zap.Logger
}

// DocumentIngestor queues accepted batches for a pool of workers. Each batch
// is processed by exactly one worker, so batches run concurrently while the
// documents inside a batch stay sequential.
type DocumentIngestor struct {
	runner  BatchRunner
	timeout time.Duration
	logger  *zap.Logger
	jobs    chan models.Batch

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}
