package engine

import "errors"

// Sentinel errors for programmatic matching with errors.Is.
var (
	// ErrConfigInvalid marks a configuration rejected at construction.
	// These are fatal: the engine is never built.
	ErrConfigInvalid = errors.New("invalid engine configuration")

	// ErrConfigMismatch marks a frame whose sample rate disagrees with the
	// configured one. Recoverable: the frame is skipped.
	ErrConfigMismatch = errors.New("frame sample rate mismatch")

	// ErrShapeMismatch marks a frame of the wrong length. Recoverable: the
	// frame is skipped.
	ErrShapeMismatch = errors.New("frame shape mismatch")
)
