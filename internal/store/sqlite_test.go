//go:build sqlite

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	cp := createTestCheckpoint("sql-1")
	if err := s.SaveCheckpoint(cp.JobID, cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp.Dynasty = 150
	if err := s.SaveCheckpoint(cp.JobID, cp); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := s.LoadCheckpoint(cp.JobID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Dynasty != 150 || loaded.Config != cp.Config {
		t.Fatalf("unexpected checkpoint: %+v", loaded)
	}

	older := createTestCheckpoint("sql-0")
	older.Timestamp = cp.Timestamp.Add(-time.Hour)
	if err := s.SaveCheckpoint(older.JobID, older); err != nil {
		t.Fatalf("save: %v", err)
	}

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].JobID != "sql-1" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	if err := s.DeleteCheckpoint("sql-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadCheckpoint("sql-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteCheckpoint("sql-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "factory.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := CloseIfSupported(s); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	s := NewSQLiteStore("")
	if err := s.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := s.LoadCheckpoint("x"); err == nil {
		t.Fatal("expected error from uninitialized store")
	}
}
