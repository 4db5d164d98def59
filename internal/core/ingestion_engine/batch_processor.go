package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/models"
)

var (
	// ErrNothingMatched means every document of the batch failed; nothing was packaged.
	ErrNothingMatched = errors.New("no document in the batch had a tracking code")
	// ErrInternal wraps packaging failures and recovered panics.
	ErrInternal = errors.New("internal error")
)

var _ BatchRunner = (*BatchProcessor)(nil)

// NewBatchProcessor wires the processor. A nil cfg uses DefaultIngestConfig.
func NewBatchProcessor(
	uploads core.ObjectClient,
	extractor core.TextExtractor,
	match core.CodeMatcher,
	packager core.Packager,
	reporter core.ProgressReporter,
	cfg *IngestConfig,
	logger *zap.Logger,
) *BatchProcessor {
	if cfg == nil {
		cfg = DefaultIngestConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		uploads:   uploads,
		extractor: extractor,
		match:     match,
		packager:  packager,
		reporter:  reporter,
		cfg:       cfg,
		logger:    logger,
	}
}

// foldState is the running state of the left fold over a batch.
type foldState struct {
	resolved  map[string]struct{}
	processed []models.ProcessedItem
	failed    []models.FailedItem
}

// resolveName returns candidate, or candidate with "_(n)" before the
// extension for the smallest n >= 1 not yet used in the batch.
func (s *foldState) resolveName(candidate string) string {
	ext := path.Ext(candidate)
	base := strings.TrimSuffix(candidate, ext)

	name := candidate
	for n := 1; ; n++ {
		if _, taken := s.resolved[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_(%d)%s", base, n, ext)
	}
	s.resolved[name] = struct{}{}
	return name
}

// ProcessBatch processes documents one at a time in submission order, then
// packages the matches. Every staged source is deleted before it returns,
// whatever the outcome.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, batch models.Batch) (result *models.BatchResult, err error) {
	start := time.Now()
	log := p.logger.With(zap.String("batch_id", batch.ID))
	sources := newReleaser(p.uploads, log, batch.Documents)
	result = &models.BatchResult{}

	defer func() {
		if r := recover(); r != nil {
			log.Error("batch panicked", zap.Any("panic", r), zap.Stack("stack"))
			p.publish(batch.ID, models.ErrorEvent("Internal error while processing files."))
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
		sources.releaseAll(context.WithoutCancel(ctx))
		p.finish(batch.ID)

		outcome := "success"
		switch {
		case errors.Is(err, ErrNothingMatched):
			outcome = "no_match"
		case err != nil:
			outcome = "error"
		}
		batchesTotal.WithLabelValues(outcome).Inc()
		batchDuration.Observe(time.Since(start).Seconds())
		log.Info("batch finished",
			zap.String("outcome", outcome),
			zap.Int("processed", len(result.Processed)),
			zap.Int("failed", len(result.Failed)),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	total := len(batch.Documents)
	log.Info("batch started", zap.Int("documents", total))
	p.publish(batch.ID, models.ProgressEvent(fmt.Sprintf("Starting processing of %d files...", total)))

	state := &foldState{resolved: make(map[string]struct{})}
	for i, doc := range batch.Documents {
		if err := p.step(ctx, log, batch.ID, fmt.Sprintf("(%d/%d)", i+1, total), doc, state, sources); err != nil {
			result.Processed = state.processed
			result.Failed = state.failed
			log.Error("batch aborted", zap.Int("done", i), zap.Error(err))
			p.publish(batch.ID, models.ErrorEvent(fmt.Sprintf("Processing timed out after %d of %d files.", i, total)))
			return result, fmt.Errorf("%w: batch aborted: %w", ErrInternal, err)
		}
	}
	result.Processed = state.processed
	result.Failed = state.failed

	if len(state.processed) == 0 {
		p.publish(batch.ID, models.ErrorEvent(zeroSuccessMessage(state.failed)))
		return result, ErrNothingMatched
	}

	p.publish(batch.ID, models.ProgressEvent("Generating output..."))
	artifact, err := p.packager.Package(ctx, state.processed)
	if err != nil {
		log.Error("packaging failed", zap.Error(err))
		p.publish(batch.ID, models.ErrorEvent("Internal error while generating the output file."))
		return result, fmt.Errorf("%w: package: %v", ErrInternal, err)
	}
	result.Artifact = artifact

	if len(state.processed) > 1 {
		p.publish(batch.ID, models.ProgressEvent("Compression finished."))
	}
	p.publish(batch.ID, models.ProgressEvent("Ready! Starting download..."))
	p.publish(batch.ID, models.CompleteEvent(p.cfg.DownloadPrefix+artifact, state.failed))
	return result, nil
}

// step handles one document. Document failures are recorded and never abort
// the batch; only the batch context ending does, so text cut short by the
// deadline is not mistaken for an illegible document.
func (p *BatchProcessor) step(
	ctx context.Context,
	log *zap.Logger,
	batchID, pos string,
	doc models.SourceDocument,
	state *foldState,
	sources *releaser,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log = log.With(zap.String("file", doc.Filename))
	p.publish(batchID, models.ProgressEvent(fmt.Sprintf("%s Reading: %s...", pos, doc.Filename)))

	text := p.extract(ctx, log, doc)
	if err := ctx.Err(); err != nil {
		return err
	}
	m := p.match(text)

	if m.Found() {
		name := state.resolveName(m.Code + ".pdf")
		state.processed = append(state.processed, models.ProcessedItem{
			Source:   doc,
			Filename: name,
			Code:     m.Code,
			Strategy: m.Strategy,
		})
		documentsTotal.WithLabelValues("processed", m.Strategy.String()).Inc()
		log.Info("tracking code found", zap.String("code", m.Code), zap.Stringer("strategy", m.Strategy), zap.String("filename", name))
		p.publish(batchID, models.ProgressEvent(fmt.Sprintf("%s Code found (%s): %s", pos, m.Strategy, m.Code)))
		return nil
	}

	kind := models.FailureCodeNotFound
	if cleanLength(text) < p.cfg.IllegibleBelow {
		kind = models.FailureIllegible
	}
	failed := models.NewFailedItem(doc.Filename, kind, utf8.RuneCountInString(text))
	state.failed = append(state.failed, failed)
	documentsTotal.WithLabelValues(string(kind), models.StrategyNone.String()).Inc()
	log.Info("document failed", zap.String("kind", string(kind)), zap.Int("chars", failed.Chars))
	p.publish(batchID, models.ProgressEvent(fmt.Sprintf("%s ERROR: %s", pos, failed.Reason)))

	sources.release(context.WithoutCancel(ctx), doc.Key)
	return nil
}

// extract loads the staged bytes and extracts their text. A source that
// cannot be loaded counts as a document without text.
func (p *BatchProcessor) extract(ctx context.Context, log *zap.Logger, doc models.SourceDocument) string {
	data, err := p.uploads.GetFile(ctx, doc.Key)
	if err != nil {
		log.Warn("source unreadable", zap.String("key", doc.Key), zap.Error(err))
		return ""
	}
	log.Debug("source loaded", zap.Int("bytes", len(data)))
	return p.extractor.ExtractText(ctx, data)
}

func (p *BatchProcessor) publish(batchID string, ev models.Event) {
	if p.reporter != nil {
		p.reporter.Publish(batchID, ev)
	}
}

// finish unregisters live listeners when the reporter supports it.
func (p *BatchProcessor) finish(batchID string) {
	if f, ok := p.reporter.(interface{ Finish(string) }); ok {
		f.Finish(batchID)
	}
}

// cleanLength counts runes that are not whitespace.
func cleanLength(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func zeroSuccessMessage(failed []models.FailedItem) string {
	if len(failed) == 0 {
		return "No valid file was processed."
	}
	details := make([]string, len(failed))
	for i, f := range failed {
		details[i] = fmt.Sprintf("%s (%s)", f.Filename, f.Reason)
	}
	return "Failed to process files. Details: " + strings.Join(details, ", ")
}
