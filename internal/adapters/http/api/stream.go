// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/verdict/internal/adapters/realtime"
)

// StreamHandler serves live leaderboard updates over SSE.
type StreamHandler struct {
	hub *realtime.Hub
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// HandleStream handles GET /contests/{id}/stream requests. The
// connection stays open until the client disconnects; slow clients miss
// updates rather than stalling the broadcaster.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request, contestID string) {
	h.hub.ServeSSE(w, r, contestID)
}
