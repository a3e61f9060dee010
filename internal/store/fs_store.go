package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const checkpointFile = "checkpoint.json"

// FSStore keeps one directory per run under <baseDir>/jobs/<jobID>/ holding
// checkpoint.json and trace.jsonl. Writes go through a temp file and a
// rename, so readers never observe a partial checkpoint.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem store rooted at baseDir, creating it if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func (fs *FSStore) jobDir(jobID string) string {
	return filepath.Join(fs.baseDir, "jobs", jobID)
}

func (fs *FSStore) checkpointPath(jobID string) string {
	return filepath.Join(fs.jobDir(jobID), checkpointFile)
}

// checkJobID rejects IDs that would escape the jobs directory.
func checkJobID(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if jobID == "." || jobID == ".." || strings.ContainsAny(jobID, `/\`) {
		return fmt.Errorf("invalid jobID %q", jobID)
	}
	return nil
}

// SaveCheckpoint atomically saves a checkpoint for the given job.
func (fs *FSStore) SaveCheckpoint(jobID string, checkpoint *Checkpoint) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}

	if err := os.MkdirAll(fs.jobDir(jobID), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	path := fs.checkpointPath(jobID)
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	slog.Debug("Checkpoint saved", "job_id", jobID, "dynasty", checkpoint.Dynasty, "path", path)
	return nil
}

func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves the checkpoint for the given job.
func (fs *FSStore) LoadCheckpoint(jobID string) (*Checkpoint, error) {
	if err := checkJobID(jobID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.checkpointPath(jobID))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// ListCheckpoints returns metadata for all stored checkpoints, newest first.
// Unreadable checkpoints are logged and skipped.
func (fs *FSStore) ListCheckpoints() ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(filepath.Join(fs.baseDir, "jobs"))
	if os.IsNotExist(err) {
		return []CheckpointInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	infos := []CheckpointInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		checkpoint, err := fs.LoadCheckpoint(entry.Name())
		if err != nil {
			if _, missing := err.(*NotFoundError); !missing {
				slog.Warn("Failed to load checkpoint for listing", "job_id", entry.Name(), "error", err)
			}
			continue
		}
		infos = append(infos, checkpoint.ToInfo())
	}

	sortInfos(infos)
	return infos, nil
}

// sortInfos orders listings newest first, then by job ID.
func sortInfos(infos []CheckpointInfo) {
	slices.SortFunc(infos, func(a, b CheckpointInfo) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.JobID, b.JobID)
	})
}

// DeleteCheckpoint removes the job directory with the checkpoint and its trace.
func (fs *FSStore) DeleteCheckpoint(jobID string) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}

	jobDir := fs.jobDir(jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}

	slog.Debug("Checkpoint deleted", "job_id", jobID)
	return nil
}
