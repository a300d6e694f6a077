package judge

import "errors"

// Sentinel kinds for judge client errors.
var (
	ErrUnavailable = errors.New("judge engine unavailable")
	ErrMalformed   = errors.New("malformed judge response")
	ErrEmptyResult = errors.New("judge returned no case results")
)
