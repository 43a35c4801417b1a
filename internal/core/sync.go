package core

import "fmt"

// SyncError reports which cloud sync step failed. It wraps the underlying
// cause so callers can still match sentinel errors with errors.Is.
type SyncError struct {
	Step string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
