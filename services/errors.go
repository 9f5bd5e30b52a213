package services

import "errors"

// Failure kinds surfaced by the document service. The controller maps these
// to HTTP statuses; everything else is wrapped into one of them.
var (
	// ErrUnauthorized is returned when the caller's API key is missing or unknown.
	ErrUnauthorized = errors.New("invalid or missing API key")

	// ErrInvalidRequest is returned for malformed caller input before any
	// external call is made.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingFailure is returned when the embedding provider rejects or
	// cannot process the batch.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrStorageFailure is returned when a storage read or write fails.
	ErrStorageFailure = errors.New("storage failure")
)
