package store

import "fmt"

// Store defines the interface for run persistence.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically persists a run record, overwriting any record with
	// the same ID.
	SaveRun(record *RunRecord) error

	// LoadRun retrieves a run by ID. Returns ErrNotFound if it doesn't exist.
	LoadRun(id string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes a run and its trace. Returns ErrNotFound if it
	// doesn't exist.
	DeleteRun(id string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run error.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "run not found"
	}
	return fmt.Sprintf("run %s not found", e.ID)
}

// Is makes all NotFoundError values match ErrNotFound regardless of ID.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
