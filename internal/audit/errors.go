package audit

import (
	"errors"
	"fmt"
)

var ErrInvalidEntry = errors.New("invalid audit entry")

// AuditWriteError reports that an entry could not be persisted.
type AuditWriteError struct {
	Action Action
	Err    error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("audit write %s: %v", e.Action, e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }
