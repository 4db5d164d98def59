package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core/progress"
)

const keepAliveEvery = 15 * time.Second

// EventSource hands out live subscriptions for a batch.
type EventSource interface {
	Subscribe(batchID string) *progress.Subscription
}

type EventsHandler struct {
	source    EventSource
	keepAlive time.Duration
	logger    *zap.Logger
}

func NewEventsHandler(source EventSource, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{source: source, keepAlive: keepAliveEvery, logger: logger}
}

// Stream serves the batch's progress as server-sent events until a terminal
// event, the batch finishing, or the client going away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	if !batchIDPattern.MatchString(batchID) {
		writeError(w, http.StatusBadRequest, "invalid batch id")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.source.Subscribe(batchID)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
			if ev.Terminal() {
				return
			}
		}
	}
}
