package report

import "errors"

// ErrNotRenderable is returned when an assessment has no matches to report.
var ErrNotRenderable = errors.New("assessment cannot be rendered as a report")
