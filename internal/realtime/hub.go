// Package realtime fans committed ledger changes out to connected
// dashboards over Server-Sent Events. Delivery is best-effort: a slow
// subscriber drops events rather than blocking the ledger.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sihacare/m/domain"
)

const subscriberBuffer = 16

// Hub broadcasts change events to subscribers. It implements
// ledger.Notifier.
type Hub struct {
	mu   sync.Mutex
	subs map[chan domain.ChangeEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan domain.ChangeEvent]struct{})}
}

// Notify sends evt to every subscriber without blocking. Subscribers whose
// buffers are full miss the event.
func (h *Hub) Notify(evt domain.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a new event channel. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan domain.ChangeEvent, func()) {
	ch := make(chan domain.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP streams change events as SSE until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.Error("encoding change event", "error", err)
				continue
			}
			if _, err := w.Write([]byte("event: change\ndata: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
