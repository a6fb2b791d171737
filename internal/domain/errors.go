package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input is malformed or missing a required
// value (e.g. an unknown level name in a filter, an unknown toggle op).
// Handlers should map this to HTTP 422 Unprocessable Entity.
// During ingestion, row-level validation failures are counted and skipped
// instead of being returned.
var ErrValidation = errors.New("validation error")

// ErrStore is wrapped by every repo error caused by the backing store being
// unreachable or rejecting a read or write.
var ErrStore = errors.New("store error")

// ErrIntegrity is returned when a write would break referential integrity,
// e.g. tagging a school id that does not exist.
// Handlers should map this to HTTP 409 Conflict.
var ErrIntegrity = errors.New("integrity violation")

// ErrPrecondition is returned before any work starts when a required input is
// unavailable, e.g. no extract file can be found for ingestion.
var ErrPrecondition = errors.New("precondition failed")

// BatchError reports a failed batch write during ingestion.
// Batches before Batch are committed; Committed counts their rows so the
// caller can report or resume.
type BatchError struct {
	// Batch is the zero-based index of the batch that failed.
	Batch int
	// Committed is the number of rows written by earlier batches.
	Committed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d committed rows: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// PartialResultError reports a pagination sweep that stopped on a failed page.
// Fetched rows were read successfully before the failure and are returned
// alongside the error.
type PartialResultError struct {
	Fetched int
	Err     error
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("sweep aborted after %d rows: %v", e.Fetched, e.Err)
}

func (e *PartialResultError) Unwrap() error { return e.Err }
