package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrFinalized     = errors.New("submission already finalized")
	ErrInvalidScore  = errors.New("score outside [0,100]")
	ErrConflict      = errors.New("duplicate record id")
	ErrBadTransition = errors.New("illegal status transition")
)
