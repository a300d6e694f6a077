// Package model contains domain models passed between layers.
package model

import "fmt"

// Status is the closed set of submission states. A submission starts in
// StatusPending, is StatusEvaluating for the judge round-trip window, and
// ends in exactly one terminal state. Terminal states admit no further
// field writes; re-evaluation creates a new submission.
type Status int

const (
	StatusPending Status = iota
	StatusEvaluating
	StatusFinished
	StatusTimeLimitExceeded
	StatusMemoryLimitExceeded
	StatusRuntimeError
	StatusCompilationError
	StatusInternalError
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusPending, StatusEvaluating:
		return false
	case StatusFinished, StatusTimeLimitExceeded, StatusMemoryLimitExceeded,
		StatusRuntimeError, StatusCompilationError, StatusInternalError:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal
// forward-only transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		// Pending may enter the evaluating window or jump straight to a
		// terminal state (manual scoring, judge failure before dispatch).
		return next == StatusEvaluating || next.Terminal()
	case StatusEvaluating:
		return next.Terminal()
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusEvaluating:
		return "evaluating"
	case StatusFinished:
		return "finished"
	case StatusTimeLimitExceeded:
		return "time_limit_exceeded"
	case StatusMemoryLimitExceeded:
		return "memory_limit_exceeded"
	case StatusRuntimeError:
		return "runtime_error"
	case StatusCompilationError:
		return "compilation_error"
	case StatusInternalError:
		return "internal_error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}
