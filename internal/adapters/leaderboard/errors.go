package leaderboard

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNoSnapshot = errors.New("no snapshot for contest")
)
