// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/verdict/internal/adapters/leaderboard"
	"github.com/okian/verdict/internal/domain/types"
)

// LeaderboardHandler handles leaderboard and contest requests.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// acceptRequest mirrors POST /leaderboard/accept.
type acceptRequest struct {
	SubmissionID string `json:"submission_id"`
}

// HandleAccept handles POST /leaderboard/accept requests.
func (h *LeaderboardHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	const op = "api.accept"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.SubmissionID) == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST",
			NewKind(op, errors.New("missing submission_id")))
		return
	}

	snap, err := h.deps.Accept(r.Context(), req.SubmissionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type freezeResponse struct {
	ContestID string `json:"contest_id"`
	Frozen    bool   `json:"frozen"`
}

// HandleContest dispatches /contests/{id}/freeze, /contests/{id}/leaderboard
// and /contests/{id}/stream.
func (h *LeaderboardHandler) HandleContest(stream *StreamHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/contests/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		contestID, action := parts[0], parts[1]

		switch {
		case action == "freeze" && r.Method == http.MethodPost:
			frozen := h.deps.ToggleFreeze(r.Context(), contestID)
			writeJSON(w, http.StatusOK, freezeResponse{ContestID: contestID, Frozen: frozen})

		case action == "leaderboard" && r.Method == http.MethodGet:
			h.handleSnapshot(w, r, contestID)

		case action == "stream" && r.Method == http.MethodGet:
			stream.HandleStream(w, r, contestID)

		default:
			http.NotFound(w, r)
		}
	}
}

// handleSnapshot serves GET /contests/{id}/leaderboard?limit=N.
func (h *LeaderboardHandler) handleSnapshot(w http.ResponseWriter, r *http.Request, contestID string) {
	const op = "api.get_leaderboard"

	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "LIMIT_EXCEEDED", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	privileged := r.Header.Get(privilegedHeader) == "true"
	snap, err := h.deps.Snapshot(r.Context(), contestID, privileged)
	if err != nil {
		// A frozen contest with no pre-freeze snapshot yields nothing
		// for regular viewers; tell them why.
		if errors.Is(err, leaderboard.ErrNoSnapshot) && !privileged && h.deps.Frozen(contestID) {
			writeError(w, http.StatusForbidden, "CONTEST_FROZEN", errors.New("leaderboard is frozen"))
			return
		}
		writeDomainError(w, err)
		return
	}

	if len(snap.Rows) > limit {
		snap = types.Snapshot{ContestID: snap.ContestID, Rows: snap.Rows[:limit], TakenAt: snap.TakenAt}
	}
	writeJSON(w, http.StatusOK, snap)
}
