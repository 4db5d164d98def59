// Package extraction turns raw document bytes into page-ordered plain text.
//
// Parsing is delegated to a Parser; this package only decides how parsed
// pages are flattened and how parser failures are absorbed. A document that
// cannot be parsed yields empty text, the same as an image-only scan.
package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
)

// Document is a parsed document with 1-based page numbering.
type Document interface {
	NumPages() int
	// PageRuns returns the text runs of page i in reading order.
	PageRuns(i int) ([]string, error)
}

// Parser opens raw bytes into a Document.
type Parser interface {
	Open(data []byte) (Document, error)
}

var _ core.TextExtractor = (*TextExtractor)(nil)

// TextExtractor implements core.TextExtractor on top of a Parser.
type TextExtractor struct {
	parser Parser
	logger *zap.Logger
}

func NewTextExtractor(parser Parser, logger *zap.Logger) *TextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextExtractor{parser: parser, logger: logger}
}

// ExtractText returns one line per page, runs joined by single spaces.
// Parse errors and parser panics are logged and produce "".
func (e *TextExtractor) ExtractText(ctx context.Context, data []byte) (text string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdf parser panicked", zap.Any("panic", r), zap.Int("bytes", len(data)))
			text = ""
		}
	}()

	doc, err := e.parser.Open(data)
	if err != nil {
		e.logger.Warn("pdf extraction failed", zap.Error(err), zap.Int("bytes", len(data)))
		return ""
	}

	var b strings.Builder
	pages := doc.NumPages()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("extraction stopped", zap.Error(err), zap.Int("page", i))
			return ""
		}
		runs, err := doc.PageRuns(i)
		if err != nil {
			e.logger.Warn("page text unreadable", zap.Int("page", i), zap.Error(err))
		}
		b.WriteString(strings.Join(runs, " "))
		b.WriteString("\n")
	}

	e.logger.Debug("text extracted",
		zap.Int("pages", pages),
		zap.Int("chars", b.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return b.String()
}

// NewParser returns the parser registered under name ("pdf" or "docconv").
func NewParser(name string) (Parser, error) {
	switch name {
	case "", "pdf":
		return PDFParser{}, nil
	case "docconv":
		return DocconvParser{}, nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", name)
	}
}
