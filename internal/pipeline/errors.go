package pipeline

import "errors"

var (
	// ErrBatchNotFound is returned when no batch has the requested id
	ErrBatchNotFound = errors.New("import batch not found")
	// ErrAlreadyCommitted is returned when committing a committed batch
	ErrAlreadyCommitted = errors.New("batch already committed")
	// ErrCommitInProgress is returned when another commit holds the batch
	ErrCommitInProgress = errors.New("batch commit already in progress")
	// ErrNoValidItems is returned when a batch has no staged items to commit
	ErrNoValidItems = errors.New("no valid items to commit")
	// ErrUnknownProvider is returned for provider codes without an adapter
	ErrUnknownProvider = errors.New("unknown provider code")
	// ErrInvalidRequest is returned when a request is missing required input
	ErrInvalidRequest = errors.New("invalid request")
)
