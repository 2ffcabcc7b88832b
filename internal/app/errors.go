package app

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// responses; remote failure detail stays in the wrapped message for logs and
// never reaches the end user.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// Third-party failures; all map to a generic "try again" response.
	ErrExtraction     = errors.New("text extraction failed")
	ErrEmbedding      = errors.New("embedding generation failed")
	ErrClassification = errors.New("topic classification failed")
	ErrGeneration     = errors.New("answer generation failed")

	// ErrConsistency means compensating cleanup itself failed and a manual
	// fix may be needed. It is logged at the point of failure, never
	// swallowed.
	ErrConsistency = errors.New("consistency cleanup failed")
)
