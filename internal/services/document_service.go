package services

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/models"
)

// DocumentService stages uploaded files in the upload store.
type DocumentService struct {
	storage core.ObjectClient
	logger  *zap.Logger
}

func NewDocumentService(storage core.ObjectClient, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{storage: storage, logger: logger}
}

// Stage stores one upload under a generated key. The original filename is
// kept only as metadata, never as part of the key.
func (s *DocumentService) Stage(ctx context.Context, filename string, data io.Reader) (models.SourceDocument, error) {
	key := s.objectKey()
	if _, err := s.storage.UploadFile(ctx, key, data, "application/pdf"); err != nil {
		return models.SourceDocument{}, err
	}
	return models.SourceDocument{Key: key, Filename: CleanFilename(filename)}, nil
}

// Discard deletes staged documents of a batch that was never accepted.
func (s *DocumentService) Discard(ctx context.Context, docs []models.SourceDocument) {
	for _, d := range docs {
		if err := s.storage.DeleteFile(ctx, d.Key); err != nil {
			s.logger.Warn("discard staged upload failed", zap.String("key", d.Key), zap.Error(err))
		}
	}
}

// objectKey creates a collision free key for a staged upload.
func (s *DocumentService) objectKey() string {
	return uuid.NewString() + ".pdf"
}

// CleanFilename strips any client supplied directories from a filename.
func CleanFilename(filename string) string {
	filename = strings.TrimSpace(strings.ReplaceAll(filename, `\`, "/"))
	base := path.Base(filename)
	if base == "." || base == "/" || base == ".." {
		return "document.pdf"
	}
	return base
}
