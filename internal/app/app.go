// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/config"
	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/core/extraction"
	"github.com/markdave123-py/Trackname/internal/core/ingestion_engine"
	"github.com/markdave123-py/Trackname/internal/core/matcher"
	objectclient "github.com/markdave123-py/Trackname/internal/core/object-client"
	"github.com/markdave123-py/Trackname/internal/core/packager"
	"github.com/markdave123-py/Trackname/internal/core/progress"
	"github.com/markdave123-py/Trackname/internal/services"
)

type App struct {
	Uploads   core.ObjectClient
	Outputs   core.ObjectClient
	Hub       *progress.Hub
	Ingestor  *ingestion_engine.DocumentIngestor
	Documents *services.DocumentService
	Artifacts *services.ArtifactService
	Server    *Server

	cfg    *config.Config
	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	store, err := NewStore(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	uploads := objectclient.WithPrefix(store, objectclient.UploadsPrefix)
	outputs := objectclient.WithPrefix(store, objectclient.OutputPrefix)
	logger.Info("object store ready", zap.String("driver", cfg.StorageDriver))

	parser, err := extraction.NewParser(cfg.PDFExtractor)
	if err != nil {
		return nil, err
	}
	extractor := extraction.NewTextExtractor(parser, logger.Named("extract"))

	hub := progress.NewHub(0, logger.Named("progress"))
	pkg := packager.New(uploads, outputs, logger.Named("packager"))

	ingCfg := ingestion_engine.DefaultIngestConfig()
	ingCfg.DownloadPrefix = cfg.DownloadPrefix
	ingCfg.BatchTimeout = cfg.BatchTimeout

	processor := ingestion_engine.NewBatchProcessor(uploads, extractor, matcher.Find, pkg, hub, ingCfg, logger.Named("batch"))
	docIngestor := ingestion_engine.NewDocumentIngestor(processor, cfg.QueueSize, cfg.BatchTimeout, logger.Named("ingestor"))

	documents := services.NewDocumentService(uploads, logger.Named("documents"))
	artifacts := services.NewArtifactService(outputs, logger.Named("artifacts"))

	a := &App{
		Uploads:   uploads,
		Outputs:   outputs,
		Hub:       hub,
		Ingestor:  docIngestor,
		Documents: documents,
		Artifacts: artifacts,
		cfg:       cfg,
		logger:    logger,
	}
	a.Server = NewServer(cfg, logger, documents, artifacts, hub, docIngestor)
	return a, nil
}

// Run starts the workers and the HTTP server and blocks until ctx is done
// and every accepted batch has finished.
func (a *App) Run(ctx context.Context) error {
	a.Ingestor.Start(ctx, a.cfg.Workers)
	err := a.Server.Run(ctx)
	a.logger.Info("waiting for queued batches")
	a.Ingestor.Wait()
	return err
}

// NewStore opens the storage backend selected by STORAGE_DRIVER.
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (core.ObjectClient, error) {
	switch cfg.StorageDriver {
	case "local", "":
		return objectclient.NewLocalClient(cfg.StorageDir)
	case "s3":
		return objectclient.NewS3Client(ctx, cfg, logger.Named("s3"))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
