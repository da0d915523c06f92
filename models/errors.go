package models

import (
	"errors"
	"fmt"
)

// Mutation failures are classified so the transport layer can pick a status
// code and the caller a corrective message. Collaborator failures carry the
// underlying error; none of them are retried here.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("post not found")
)

// ValidationError reports malformed or missing input, detected locally
// before any collaborator call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UploadError reports a failure reported by the image host.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	return "image upload failed: " + e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }

// StoreWriteError reports a failed create, update or delete. If an image was
// uploaded before the write failed, it stays orphaned on the host.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write (%s) failed: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// StoreReadError reports a failed fetch that is not a plain missing record.
type StoreReadError struct {
	Op  string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read (%s) failed: %v", e.Op, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }
