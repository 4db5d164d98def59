// Package packager builds the downloadable artifact of a batch: the renamed
// PDF itself for a single match, or a ZIP of all renamed PDFs otherwise.
package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/models"
)

const (
	pdfContentType = "application/pdf"
	zipContentType = "application/zip"
)

var _ core.Packager = (*Packager)(nil)

// ErrNothingToPackage is returned for an empty item list.
var ErrNothingToPackage = errors.New("no processed documents to package")

// Packager reads sources from the upload store and writes artifacts to the
// output store. Artifact keys carry a random token so concurrent batches
// never collide.
type Packager struct {
	sources core.ObjectClient
	output  core.ObjectClient
	logger  *zap.Logger

	now      func() time.Time
	newToken func() string
}

func New(sources, output core.ObjectClient, logger *zap.Logger) *Packager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Packager{
		sources:  sources,
		output:   output,
		logger:   logger,
		now:      time.Now,
		newToken: shortToken,
	}
}

// Package returns the output store key of the produced artifact. The key is
// only returned after the store has finalized the write.
func (p *Packager) Package(ctx context.Context, items []models.ProcessedItem) (string, error) {
	switch len(items) {
	case 0:
		return "", ErrNothingToPackage
	case 1:
		return p.single(ctx, items[0])
	default:
		return p.archive(ctx, items)
	}
}

func (p *Packager) single(ctx context.Context, item models.ProcessedItem) (string, error) {
	key := p.newToken() + "/" + item.Filename

	rc, err := p.sources.GetObjectReader(ctx, item.Source.Key)
	if err != nil {
		return "", fmt.Errorf("open source %s: %w", item.Source.Filename, err)
	}
	defer rc.Close()

	if _, err := p.output.UploadFile(ctx, key, rc, pdfContentType); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	p.logger.Info("single artifact stored", zap.String("artifact", key))
	return key, nil
}

func (p *Packager) archive(ctx context.Context, items []models.ProcessedItem) (string, error) {
	key := fmt.Sprintf("renamed_files_%d_%s.zip", p.now().UnixMilli(), p.newToken())

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	// zip -> pipe
	g.Go(func() error {
		err := p.writeZip(gctx, pw, items)
		pw.CloseWithError(err)
		return err
	})

	// pipe -> store
	g.Go(func() error {
		_, err := p.output.UploadFile(gctx, key, pr, zipContentType)
		if err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("store %s: %w", key, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", err
	}

	p.logger.Info("archive stored", zap.String("artifact", key), zap.Int("entries", len(items)))
	return key, nil
}

// writeZip adds every item under its resolved filename, in order, with
// maximum deflate compression.
func (p *Packager) writeZip(ctx context.Context, w io.Writer, items []models.ProcessedItem) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	modified := p.now()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     item.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", item.Filename, err)
		}
		if err := p.copySource(ctx, entry, item); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func (p *Packager) copySource(ctx context.Context, w io.Writer, item models.ProcessedItem) error {
	rc, err := p.sources.GetObjectReader(ctx, item.Source.Key)
	if err != nil {
		return fmt.Errorf("open source %s: %w", item.Source.Filename, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("compress %s: %w", item.Source.Filename, err)
	}
	return nil
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
