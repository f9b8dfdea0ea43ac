package handoff

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a request without a document id.
	ErrInvalidRequest = errors.New("invalid handoff request")
	// ErrClientMismatch indicates the client does not own the document.
	ErrClientMismatch = errors.New("client does not own document")
	// ErrInProgress indicates another handoff holds the document.
	ErrInProgress = errors.New("handoff already in progress")
)

// ConfigurationError reports a client that cannot be handed off: unknown, or
// without configured platform credentials. Nothing is mutated when it is returned.
type ConfigurationError struct {
	ClientID string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("client %s: %s", e.ClientID, e.Reason)
}

// ExternalUploadError reports a failed or timed-out platform call. Message is
// the platform's reason and is safe to show to the caller.
type ExternalUploadError struct {
	Message  string
	Attempts int
	Err      error
}

func (e *ExternalUploadError) Error() string { return e.Message }

func (e *ExternalUploadError) Unwrap() error { return e.Err }
