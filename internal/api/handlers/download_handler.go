package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/services"
)

type DownloadHandler struct {
	artifacts *services.ArtifactService
	logger    *zap.Logger
}

func NewDownloadHandler(artifacts *services.ArtifactService, logger *zap.Logger) *DownloadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadHandler{artifacts: artifacts, logger: logger}
}

// Download streams an artifact once; it is gone afterwards.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	dl, err := h.artifacts.Open(r.Context(), key)
	if errors.Is(err, services.ErrArtifactNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		h.logger.Error("open artifact", zap.String("artifact", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read file")
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(dl.Name)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	// headers are out; an interrupted copy can only be logged
	_, _ = dl.WriteTo(w)
}
