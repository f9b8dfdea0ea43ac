package platform

import (
	"context"
	"errors"
	"fmt"
)

// Credentials authenticate a client against the external validation platform.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// UploadRequest is one document handed to the platform.
type UploadRequest struct {
	DocumentID     string
	FilePath       string
	FileName       string
	MimeType       string
	Classification string
	Confidence     *int
}

// UploadResult is the platform's answer. ExternalID is set only on success.
type UploadResult struct {
	Success    bool
	ExternalID string
	Error      string
}

// Uploader submits documents to the external platform.
type Uploader interface {
	Upload(ctx context.Context, creds Credentials, req UploadRequest) (UploadResult, error)
}

// ErrMissingCredentials is returned when username or password is empty.
var ErrMissingCredentials = errors.New("platform credentials missing")

// StatusError is a non-2xx answer from the platform.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("platform status %d", e.Code)
	}
	return fmt.Sprintf("platform status %d: %s", e.Code, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == 408 || e.Code == 429
}

// IsRetryable reports whether err is worth another attempt. Errors that do not
// say otherwise are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingCredentials) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
