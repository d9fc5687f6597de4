package extractor

import "errors"

// ErrSourceUnavailable is the advisory attached to an Extraction when the
// page could not be fetched or parsed.
var ErrSourceUnavailable = errors.New("source unavailable")
