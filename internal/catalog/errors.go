package catalog

import "errors"

// ErrConfigurationDefect is returned when the catalog document is malformed
// or internally inconsistent.
var ErrConfigurationDefect = errors.New("catalog configuration defect")
