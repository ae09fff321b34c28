package model

import "errors"

// Error taxonomy shared by the engine. Packages wrap these sentinels with
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is.
var (
	// ErrInvalidParameters marks configuration rejected before any
	// simulation work starts: non-positive sizes, probabilities outside
	// [0,1], covariance matrices that are not positive definite.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrDegenerateFitness marks a generation in which every realized
	// fitness collapsed to zero, leaving resampling undefined.
	ErrDegenerateFitness = errors.New("degenerate fitness")

	// ErrIO marks a missing or corrupt landscape or result artifact.
	ErrIO = errors.New("io failure")
)
