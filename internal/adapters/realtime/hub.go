// Package realtime fans leaderboard snapshots out to live viewers,
// grouped by contest. Delivery is at-most-once: a subscriber that
// cannot keep up has the update dropped, never queued unboundedly.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/okian/verdict/internal/domain/types"
	"github.com/okian/verdict/pkg/metrics"
)

// defaultBufferSize bounds each subscriber's pending updates.
const defaultBufferSize = 8

// Subscriber receives snapshots for one contest until closed.
type Subscriber struct {
	contestID string
	ch        chan types.Snapshot
	hub       *Hub
	closed    bool // guarded by hub.mu
}

// C returns the subscriber's update channel. It is closed when the
// subscriber or the hub shuts down.
func (s *Subscriber) C() <-chan types.Snapshot {
	return s.ch
}

// Close detaches the subscriber from its group.
func (s *Subscriber) Close() {
	s.hub.remove(s)
}

// Hub manages per-contest subscriber groups.
type Hub struct {
	mu         sync.RWMutex
	groups     map[string]map[*Subscriber]struct{}
	bufferSize int
	closed     bool
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBufferSize sets each subscriber's pending-update bound.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		groups:     make(map[string]map[*Subscriber]struct{}),
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe attaches a new subscriber to the contest's group.
func (h *Hub) Subscribe(contestID string) *Subscriber {
	sub := &Subscriber{
		contestID: contestID,
		ch:        make(chan types.Snapshot, h.bufferSize),
		hub:       h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.closed = true
		close(sub.ch)
		return sub
	}
	group, ok := h.groups[contestID]
	if !ok {
		group = make(map[*Subscriber]struct{})
		h.groups[contestID] = group
	}
	group[sub] = struct{}{}
	metrics.UpdateSubscriberCount(contestID, len(group))
	return sub
}

func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	if group, ok := h.groups[sub.contestID]; ok {
		delete(group, sub)
		if len(group) == 0 {
			delete(h.groups, sub.contestID)
		}
		metrics.UpdateSubscriberCount(sub.contestID, len(group))
	}
}

// Broadcast delivers snap to every subscriber of the contest's group.
// Slow subscribers are skipped; the send never blocks the caller.
func (h *Hub) Broadcast(_ context.Context, contestID string, snap types.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for sub := range h.groups[contestID] {
		select {
		case sub.ch <- snap:
		default:
			metrics.RecordBroadcastDrop()
		}
	}
}

// SubscriberCount returns the size of a contest's group.
func (h *Hub) SubscriberCount(contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[contestID])
}

// Close shuts the hub down and detaches every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for contestID, group := range h.groups {
		for sub := range group {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
		}
		delete(h.groups, contestID)
	}
}

// ServeSSE streams a contest's snapshots to the client as server-sent
// events until the client disconnects.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, contestID string) {
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

	sub := h.Subscribe(contestID)
	defer sub.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
