package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoTarget is returned when no institution URN is given.
	ErrNoTarget = errors.New("no target specified: provide at least one URN")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive
	// or exceeds MaxFetchTimeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive and at most 10s")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCacheTTL is returned when the cache TTL is negative.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be non-negative")

	// ErrNoDataset is returned when no establishment dataset is configured.
	ErrNoDataset = errors.New("no dataset specified: use --dataset or set dataset in .schoolscan")
)
