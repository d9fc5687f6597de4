package institution

import "errors"

var (
	// ErrNotFound is returned when no institution has the requested URN.
	ErrNotFound = errors.New("institution not found")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("required column missing from dataset")

	// ErrEmptyDataset is returned when the file has no header row.
	ErrEmptyDataset = errors.New("dataset is empty")
)
