package store

// Store persists run checkpoints. Implementations must be safe for
// concurrent use.
//
// Error conventions:
//   - Load and Delete return a *NotFoundError for unknown job IDs
//   - other failures are wrapped with fmt.Errorf("context: %w", err)
type Store interface {
	// SaveCheckpoint stores the checkpoint, replacing any previous one for jobID.
	SaveCheckpoint(jobID string, checkpoint *Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for the given job.
	LoadCheckpoint(jobID string) (*Checkpoint, error)

	// ListCheckpoints returns metadata for all stored checkpoints.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint and its trace.
	DeleteCheckpoint(jobID string) error
}

// ErrNotFound matches every NotFoundError with errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing checkpoint error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "checkpoint not found: " + e.JobID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
