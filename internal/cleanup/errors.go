package cleanup

// SweepQueryError reports that the due-document query failed. No document was
// touched by the sweep that returned it.
type SweepQueryError struct {
	Err error
}

func (e *SweepQueryError) Error() string {
	if e.Err == nil {
		return "sweep query failed"
	}
	return "sweep query failed: " + e.Err.Error()
}

func (e *SweepQueryError) Unwrap() error { return e.Err }
