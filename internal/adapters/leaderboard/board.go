// Package leaderboard recomputes per-contest rankings from accepted
// submissions and publishes immutable snapshots.
//
// Aggregation policy: a team's contest score is the sum, over problems,
// of its best accepted score per problem. Snapshots are always rebuilt
// from the accepted set, never patched incrementally, so a missed or
// repeated accept cannot cause drift.
package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/okian/verdict/internal/domain/types"
	"github.com/okian/verdict/pkg/metrics"
)

// Broadcaster pushes a fresh snapshot to a contest's subscriber group.
// Delivery is fire-and-forget, at-most-once.
type Broadcaster interface {
	Broadcast(ctx context.Context, contestID string, snap types.Snapshot)
}

// accepted is a team's best accepted score for one problem.
type accepted struct {
	score      float64
	achievedAt time.Time
}

// teamState tracks a team's per-problem bests and the moment it last
// improved its total, which breaks ranking ties.
type teamState struct {
	problems   map[string]accepted
	achievedAt time.Time
}

type contestState struct {
	// wmu serializes accepts within the contest. Accepts for different
	// contests proceed independently.
	wmu sync.Mutex

	teams     map[string]*teamState
	snapshots []types.Snapshot
	frozen    bool
	// lastVisible is the snapshot non-privileged viewers see while the
	// contest is frozen.
	lastVisible *types.Snapshot
}

// Board aggregates accepted submissions into contest rankings.
type Board struct {
	mu       sync.RWMutex
	contests map[string]*contestState

	broadcaster Broadcaster
	now         func() time.Time
}

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithBroadcaster attaches the realtime fan-out collaborator.
func WithBroadcaster(b Broadcaster) Option {
	return func(board *Board) {
		board.broadcaster = b
	}
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(board *Board) {
		if now != nil {
			board.now = now
		}
	}
}

// New creates an empty board.
func New(opts ...Option) *Board {
	b := &Board{
		contests: make(map[string]*contestState),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) contest(id string) *contestState {
	b.mu.Lock()
	defer b.mu.Unlock()

	cs, ok := b.contests[id]
	if !ok {
		cs = &contestState{teams: make(map[string]*teamState)}
		b.contests[id] = cs
	}
	return cs
}

// Accept folds a finished submission's score into the contest ranking,
// writes a new snapshot and broadcasts it unless the contest is frozen.
// Accepts for the same contest are serialized; re-accepting the same or
// a lower score for a problem leaves the bests unchanged but still
// publishes a rebuilt snapshot.
func (b *Board) Accept(ctx context.Context, contestID, teamID, problemID string, score float64, finishedAt time.Time) (types.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotRebuildLatency(float64(time.Since(start).Milliseconds()))
	}()

	cs := b.contest(contestID)
	cs.wmu.Lock()
	defer cs.wmu.Unlock()

	ts, ok := cs.teams[teamID]
	if !ok {
		ts = &teamState{problems: make(map[string]accepted), achievedAt: finishedAt}
		cs.teams[teamID] = ts
	}
	cur, had := ts.problems[problemID]
	if !had || score > cur.score {
		ts.problems[problemID] = accepted{score: score, achievedAt: finishedAt}
		// The total just changed; the team's tie-break moment moves to
		// when this improvement landed.
		ts.achievedAt = finishedAt
	}

	snap := b.rebuildLocked(cs, contestID)
	cs.snapshots = append(cs.snapshots, snap)
	if !cs.frozen {
		cs.lastVisible = &snap
		if b.broadcaster != nil {
			b.broadcaster.Broadcast(ctx, contestID, snap)
			metrics.RecordBroadcast()
		}
	}

	metrics.RecordLeaderboardAccept()
	return snap, nil
}

// rebuildLocked recomputes the full ranking; the caller holds cs.wmu.
func (b *Board) rebuildLocked(cs *contestState, contestID string) types.Snapshot {
	rows := lo.MapToSlice(cs.teams, func(teamID string, ts *teamState) types.Row {
		total := lo.SumBy(lo.Values(ts.problems), func(a accepted) float64 {
			return a.score
		})
		return types.Row{TeamID: teamID, Score: total, AchievedAt: ts.achievedAt}
	})

	// Score desc, ties broken by who reached the total first; team ID
	// keeps the ordering deterministic when both match.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if !rows[i].AchievedAt.Equal(rows[j].AchievedAt) {
			return rows[i].AchievedAt.Before(rows[j].AchievedAt)
		}
		return rows[i].TeamID < rows[j].TeamID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return types.Snapshot{ContestID: contestID, Rows: rows, TakenAt: b.now()}
}

// ToggleFreeze flips the contest's freeze flag and returns the new
// state. While frozen, snapshots are still computed and stored but
// broadcasts stop and non-privileged reads serve the last pre-freeze
// snapshot. Unfreezing broadcasts the latest state immediately.
func (b *Board) ToggleFreeze(ctx context.Context, contestID string) bool {
	cs := b.contest(contestID)
	cs.wmu.Lock()
	defer cs.wmu.Unlock()

	cs.frozen = !cs.frozen
	if !cs.frozen && len(cs.snapshots) > 0 {
		latest := cs.snapshots[len(cs.snapshots)-1]
		cs.lastVisible = &latest
		if b.broadcaster != nil {
			b.broadcaster.Broadcast(ctx, contestID, latest)
			metrics.RecordBroadcast()
		}
	}
	metrics.UpdateContestFrozen(contestID, cs.frozen)
	return cs.frozen
}

// Frozen reports the contest's freeze flag.
func (b *Board) Frozen(contestID string) bool {
	cs := b.contest(contestID)
	cs.wmu.Lock()
	defer cs.wmu.Unlock()
	return cs.frozen
}

// Snapshot returns the ranking a viewer may see. Privileged viewers
// always get the latest snapshot; others get the last pre-freeze one
// while the contest is frozen.
func (b *Board) Snapshot(_ context.Context, contestID string, privileged bool) (types.Snapshot, error) {
	cs := b.contest(contestID)
	cs.wmu.Lock()
	defer cs.wmu.Unlock()

	if len(cs.snapshots) == 0 {
		return types.Snapshot{}, ErrNoSnapshot
	}
	if cs.frozen && !privileged {
		if cs.lastVisible == nil {
			return types.Snapshot{}, ErrNoSnapshot
		}
		return *cs.lastVisible, nil
	}
	return cs.snapshots[len(cs.snapshots)-1], nil
}

// SnapshotCount returns how many snapshots a contest has accumulated.
func (b *Board) SnapshotCount(contestID string) int {
	cs := b.contest(contestID)
	cs.wmu.Lock()
	defer cs.wmu.Unlock()
	return len(cs.snapshots)
}
