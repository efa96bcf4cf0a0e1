package config

import "errors"

// Configuration errors returned by Validate, LoadFile and ApplyEnv.
var (
	// ErrInvalidSampleSize is returned when the sample size is not positive.
	ErrInvalidSampleSize = errors.New("invalid sample size: must be positive")

	// ErrInvalidMaxIter is returned when the iteration cap is not positive.
	ErrInvalidMaxIter = errors.New("invalid max iterations: must be positive")

	// ErrInvalidTolerance is returned when the convergence tolerance is not positive.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidMethod is returned for an unknown fitting method.
	ErrInvalidMethod = errors.New("invalid fitting method")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid report format")

	// ErrInvalidPreview is returned when the preview size is negative.
	ErrInvalidPreview = errors.New("invalid preview size: must be non-negative")

	// ErrInvalidValue is returned when an environment variable cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
