package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core/ingestion_engine"
	"github.com/markdave123-py/Trackname/internal/models"
)

// FilesField is the repeated multipart field carrying the PDFs.
const FilesField = "pdfs"

var batchIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Stager stores uploaded files until their batch is processed.
type Stager interface {
	Stage(ctx context.Context, filename string, data io.Reader) (models.SourceDocument, error)
	Discard(ctx context.Context, docs []models.SourceDocument)
}

type DocumentHandler struct {
	stager    Stager
	ingestor  ingestion_engine.Ingestor
	maxUpload int64
	logger    *zap.Logger
}

type uploadResponse struct {
	ID    string `json:"id"`
	Files int    `json:"files"`
}

func NewDocumentHandler(stager Stager, ing ingestion_engine.Ingestor, maxUploadMB int, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{
		stager:    stager,
		ingestor:  ing,
		maxUpload: int64(maxUploadMB) << 20,
		logger:    logger,
	}
}

// UploadDocuments stages every "pdfs" part and queues them as one batch.
// The batch id comes from the "id" query parameter so a client can open the
// event stream before uploading; a fresh id is assigned when it is absent.
func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	batchID := r.URL.Query().Get("id")
	if batchID == "" {
		batchID = uuid.NewString()
	}
	if !batchIDPattern.MatchString(batchID) {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}
	log := h.logger.With(zap.String("batch_id", batchID))

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	docs, err := h.stageParts(r.Context(), mr)
	if err != nil {
		h.stager.Discard(context.WithoutCancel(r.Context()), docs)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		log.Warn("upload failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if len(docs) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	batch := models.Batch{ID: batchID, Documents: docs}
	if err := h.ingestor.Enqueue(r.Context(), batch); err != nil {
		h.stager.Discard(context.WithoutCancel(r.Context()), docs)
		log.Warn("batch rejected", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "server is not accepting batches")
		return
	}

	log.Info("batch accepted", zap.Int("files", len(docs)))
	writeJSON(w, http.StatusAccepted, uploadResponse{ID: batchID, Files: len(docs)})
}

// stageParts returns the documents staged so far even on error, so the
// caller can discard them.
func (h *DocumentHandler) stageParts(ctx context.Context, mr *multipart.Reader) ([]models.SourceDocument, error) {
	var docs []models.SourceDocument
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		if part.FormName() != FilesField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		doc, err := h.stager.Stage(ctx, part.FileName(), part)
		_ = part.Close()
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}
