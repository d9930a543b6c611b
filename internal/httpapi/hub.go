package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/lukasbauer/livecaption/internal/metrics"
	"github.com/lukasbauer/livecaption/internal/pipeline"
)

const (
	topicPartial = "partial"
	topicFinal   = "final"
	topicError   = "error"

	subscriberBuffer = 64
)

// outbound is the envelope for every server-to-client frame.
type outbound struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

type subscriber struct {
	id        string
	sessionID string // empty receives every session
	send      chan []byte
}

// trySend queues data without blocking. It reports false when the buffer is full.
func (s *subscriber) trySend(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Hub fans pipeline events out to websocket subscribers. A subscriber that
// cannot keep up loses frames; publishing never blocks the pipeline.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	logger *log.Logger
}

var _ pipeline.Publisher = (*Hub)(nil)

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a subscriber for sessionID, or for all sessions when empty.
func (h *Hub) Subscribe(sessionID string) *subscriber {
	s := &subscriber{
		id:        uuid.NewString(),
		sessionID: sessionID,
		send:      make(chan []byte, subscriberBuffer),
	}
	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	metrics.Subscribers.Inc()
	return s
}

// Unsubscribe removes s and closes its send channel.
func (h *Hub) Unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.send)
	metrics.Subscribers.Dec()
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) PublishPartial(_ context.Context, ev pipeline.PartialCaption) {
	h.broadcast(ev.SessionID, topicPartial, ev)
}

func (h *Hub) PublishFinal(_ context.Context, ev pipeline.FinalTranslation) {
	h.broadcast(ev.SessionID, topicFinal, ev)
}

func (h *Hub) broadcast(sessionID, topic string, payload any) {
	data, err := json.Marshal(outbound{Topic: topic, Payload: payload})
	if err != nil {
		h.logger.Printf("ws: failed to encode %s event: %v", topic, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.sessionID != "" && s.sessionID != sessionID {
			continue
		}
		if !s.trySend(data) {
			h.logger.Printf("ws: subscriber %s is slow, dropped %s event for session %s", s.id, topic, sessionID)
		}
	}
}
