// Package progress delivers batch events to live subscribers.
//
// Delivery is best effort: with no subscriber for a batch, or a subscriber
// that is not draining its buffer, events are dropped and the batch keeps
// running. Events for one batch arrive in publish order.
package progress

import (
	"sync"

	"go.uber.org/zap"

	"github.com/markdave123-py/Trackname/internal/core"
	"github.com/markdave123-py/Trackname/internal/models"
)

const defaultBuffer = 64

var _ core.ProgressReporter = (*Hub)(nil)

// Subscription is one live listener for a batch.
type Subscription struct {
	batchID string
	events  chan models.Event
	hub     *Hub
	once    sync.Once
}

// Events is closed when the batch finishes, the subscription is replaced,
// or Close is called.
func (s *Subscription) Events() <-chan models.Event {
	return s.events
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub is the registry of live subscriptions, keyed by batch id.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[string]*Subscription), buffer: buffer, logger: logger}
}

// Subscribe registers a listener for batchID, replacing any previous one.
func (h *Hub) Subscribe(batchID string) *Subscription {
	sub := &Subscription{
		batchID: batchID,
		events:  make(chan models.Event, h.buffer),
		hub:     h,
	}

	h.mu.Lock()
	prev := h.subs[batchID]
	h.subs[batchID] = sub
	h.mu.Unlock()

	if prev != nil {
		prev.closeEvents()
	}
	h.logger.Debug("progress subscriber registered", zap.String("batch_id", batchID))
	return sub
}

// Publish hands the event to the batch's subscriber without blocking.
func (h *Hub) Publish(batchID string, event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[batchID]
	if !ok {
		return
	}
	select {
	case sub.events <- event:
	default:
		h.logger.Warn("progress event dropped, subscriber not draining",
			zap.String("batch_id", batchID),
			zap.String("type", string(event.Type)),
		)
	}
}

// Finish unregisters the batch's subscriber after its terminal event.
// Buffered events stay readable until the channel drains.
func (h *Hub) Finish(batchID string) {
	h.mu.Lock()
	sub, ok := h.subs[batchID]
	if ok {
		delete(h.subs, batchID)
	}
	h.mu.Unlock()

	if ok {
		sub.closeEvents()
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	if h.subs[s.batchID] == s {
		delete(h.subs, s.batchID)
	}
	h.mu.Unlock()

	s.closeEvents()
}

// closeEvents must only run once the subscription is out of the map, so no
// Publish can be sending on it.
func (s *Subscription) closeEvents() {
	s.once.Do(func() { close(s.events) })
}
