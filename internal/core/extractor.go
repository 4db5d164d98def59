package core

import (
	"context"

	"github.com/markdave123-py/Trackname/internal/models"
)

// TextExtractor turns raw document bytes into page-ordered plain text.
// Implementations never fail: unreadable documents produce "".
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) string
}

// CodeMatcher finds a tracking code in extracted text.
type CodeMatcher func(text string) models.Match
