package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Trackname/internal/models"
)

// ObjectClient defines interactions with the local disk, S3 or any object storage.
// A key written with UploadFile is not readable until the write has fully finished.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
	GetFile(ctx context.Context, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}

// ProgressReporter receives batch events. Publish must not block.
type ProgressReporter interface {
	Publish(batchID string, event models.Event)
}

// Packager turns the processed documents of a batch into one downloadable artifact
// and returns its key in the output store.
type Packager interface {
	Package(ctx context.Context, items []models.ProcessedItem) (artifact string, err error)
}
