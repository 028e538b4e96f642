package parse

import "errors"

// Error codes carried by AppError for terminal invocation failures. No
// failure is retried internally; partial results are never returned.
const (
	CodeConfiguration      = "CONFIGURATION"
	CodeOutputLimit        = "OUTPUT_LIMIT_EXCEEDED"
	CodeEmbeddedExtraction = "EMBEDDED_EXTRACTION"
	CodeEngine             = "ENGINE"
	CodePersistence        = "PERSISTENCE"
)

// ErrOutputLimitExceeded is raised by a bounded content handler the moment the
// accumulated content would exceed the configured character limit. It aborts
// the in-progress parse; content is never silently truncated.
var ErrOutputLimitExceeded = errors.New("output character limit exceeded")
