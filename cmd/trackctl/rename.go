package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/Trackname/internal/core/ingestion_engine"
	"github.com/markdave123-py/Trackname/internal/core/matcher"
	objectclient "github.com/markdave123-py/Trackname/internal/core/object-client"
	"github.com/markdave123-py/Trackname/internal/core/packager"
	"github.com/markdave123-py/Trackname/internal/models"
	"github.com/markdave123-py/Trackname/internal/services"
)

var outputDir string

func init() {
	renameCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory for the renamed PDF or ZIP")
}

// renameCmd runs the full batch pipeline on local files
var renameCmd = &cobra.Command{
	Use:   "rename <pdf>...",
	Short: "Rename PDFs after their tracking codes",
	Long: `Process the given PDFs as one batch. A single match is written as
<CODE>.pdf, several matches as a ZIP archive. Input files are never modified.

Examples:
  trackctl rename -o out label1.pdf label2.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRename,
}

// consoleReporter prints batch events as they happen.
type consoleReporter struct {
	out io.Writer
}

func (c consoleReporter) Publish(_ string, ev models.Event) {
	switch ev.Type {
	case models.EventComplete:
		for _, f := range ev.FailedFiles {
			fmt.Fprintf(c.out, "skipped %s: %s\n", f.Filename, f.Reason)
		}
	default:
		fmt.Fprintln(c.out, ev.Message)
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	extractor, err := newExtractor(logger)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "trackctl-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	store, err := objectclient.NewLocalClient(workDir)
	if err != nil {
		return err
	}
	uploads := objectclient.WithPrefix(store, objectclient.UploadsPrefix)
	outputs := objectclient.WithPrefix(store, objectclient.OutputPrefix)

	docs := services.NewDocumentService(uploads, logger)
	batch := models.Batch{ID: uuid.NewString()}
	for _, file := range args {
		doc, err := stageFile(ctx, docs, file)
		if err != nil {
			docs.Discard(ctx, batch.Documents)
			return err
		}
		batch.Documents = append(batch.Documents, doc)
	}

	cfg := ingestion_engine.DefaultIngestConfig()
	cfg.DownloadPrefix = ""
	processor := ingestion_engine.NewBatchProcessor(
		uploads, extractor, matcher.Find,
		packager.New(uploads, outputs, logger),
		consoleReporter{out: cmd.OutOrStdout()},
		cfg, logger,
	)

	result, err := processor.ProcessBatch(ctx, batch)
	if errors.Is(err, ingestion_engine.ErrNothingMatched) {
		return fmt.Errorf("no tracking code found in any of %d files", len(args))
	}
	if err != nil {
		return err
	}

	dest, err := saveArtifact(ctx, services.NewArtifactService(outputs, logger), result.Artifact, outputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d renamed, %d skipped)\n", dest, len(result.Processed), len(result.Failed))
	return nil
}

func stageFile(ctx context.Context, docs *services.DocumentService, file string) (models.SourceDocument, error) {
	f, err := os.Open(file)
	if err != nil {
		return models.SourceDocument{}, err
	}
	defer f.Close()
	return docs.Stage(ctx, filepath.Base(file), f)
}

func saveArtifact(ctx context.Context, artifacts *services.ArtifactService, key, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dl, err := artifacts.Open(ctx, key)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, dl.Name)
	f, err := os.Create(dest)
	if err != nil {
		dl.Abort()
		return "", err
	}
	if _, err := dl.WriteTo(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	return dest, f.Close()
}
