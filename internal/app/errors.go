package service

import (
	"errors"
)

// Sentinel error kinds for orchestrator operations. The HTTP layer maps
// these to machine-readable response codes.
var (
	ErrProblemNotFound    = errors.New("problem not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoTestCases        = errors.New("problem has no test cases")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file exceeds upload limit")
	ErrNotFinished        = errors.New("submission not in a finished state")
	ErrNoArtifact         = errors.New("submission has no file artifact")
)
