package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/sagaopt/internal/store"
)

func testJobConfig() store.JobConfig {
	return store.JobConfig{
		Problem:        "rastrigin",
		Dimension:      4,
		Seed:           7,
		PopulationSize: 30,
		DynastiesLimit: 100,
	}
}

// useDataDir points the checkpoints commands at dir for the duration of a test.
func useDataDir(t *testing.T, dir string) {
	t.Helper()
	originalDataDir, originalKind := checkpointDataDir, checkpointStoreKind
	checkpointDataDir, checkpointStoreKind = dir, "fs"
	t.Cleanup(func() {
		checkpointDataDir, checkpointStoreKind = originalDataDir, originalKind
	})
}

func TestSelectCheckpointsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found10 := false
	found30 := false
	for _, info := range toDelete {
		if info.JobID == "job1" {
			found10 = true
		}
		if info.JobID == "job4" {
			found30 = true
		}
	}

	if !found10 || !found30 {
		t.Error("Expected job1 and job4 to be selected for deletion")
	}
}

func TestSelectCheckpointsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "job4" || toDelete[1].JobID != "job1" {
		t.Errorf("Expected job4 and job1 (oldest first), got %s and %s", toDelete[0].JobID, toDelete[1].JobID)
	}
}

func TestSelectCheckpointsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	// Age selects job1 and job4; keeping 3 selects the same two, without duplicates
	toDelete := selectCheckpointsForDeletion(infos, 3, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}
}

func TestSelectCheckpointsForDeletion_NothingToDo(t *testing.T) {
	infos := []store.CheckpointInfo{{JobID: "job1", Timestamp: time.Now()}}

	if got := selectCheckpointsForDeletion(infos, 5, 30); len(got) != 0 {
		t.Errorf("Expected nothing to delete, got %v", got)
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestDisplayID(t *testing.T) {
	if got := displayID("short"); got != "short" {
		t.Errorf("displayID(short) = %s", got)
	}
	if got := displayID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("displayID(long) = %s", got)
	}
}

func TestCheckpointsListCommand_NoCheckpoints(t *testing.T) {
	useDataDir(t, t.TempDir())

	if err := runListCheckpoints(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestCheckpointsListCommand_WithCheckpoints(t *testing.T) {
	tmpDir := t.TempDir()

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	checkpoint := store.NewCheckpoint("test-job-id", "[0.1000 0.2000 0.3000 0.4000]", 0.5, 1.0, 10, testJobConfig())
	if err := checkpointStore.SaveCheckpoint("test-job-id", checkpoint); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	useDataDir(t, tmpDir)

	if err := runListCheckpoints(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestCheckpointsShowCommand(t *testing.T) {
	tmpDir := t.TempDir()

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	checkpoint := store.NewCheckpoint("show-job", "[0.0000]", 0.25, 3, 2, testJobConfig())
	checkpoint.Reason = "dynasties_limit"
	if err := checkpointStore.SaveCheckpoint("show-job", checkpoint); err != nil {
		t.Fatal(err)
	}

	tw, err := store.NewTraceWriter(tmpDir, "show-job", false)
	if err != nil {
		t.Fatal(err)
	}
	tw.Write(store.TraceEntry{Dynasty: 1, BestFitness: 3})
	tw.Write(store.TraceEntry{Dynasty: 2, BestFitness: 0.25})
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	useDataDir(t, tmpDir)

	var out bytes.Buffer
	showCheckpointCmd.SetOut(&out)
	t.Cleanup(func() { showCheckpointCmd.SetOut(nil) })

	if err := runShowCheckpoint(showCheckpointCmd, []string{"show-job"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Job: show-job", "Stopped: dynasties_limit after 2 dynasties", "Fitness: 3 -> 0.25", "Trace (2 dynasties)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Output missing %q:\n%s", want, text)
		}
	}

	if err := runShowCheckpoint(showCheckpointCmd, []string{"missing"}); err == nil {
		t.Error("Expected error for a missing checkpoint")
	}
}

func TestWriteCheckpoint_InProgressWithoutTrace(t *testing.T) {
	cp := store.NewCheckpoint("job", "x=3", 3, 9, 4, testJobConfig())

	var out bytes.Buffer
	writeCheckpoint(&out, cp, nil)

	if !strings.Contains(out.String(), "In progress at dynasty 4") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Trace") {
		t.Error("No trace section expected")
	}
}

func TestCheckpointsCleanCommand_NoFlags(t *testing.T) {
	useDataDir(t, t.TempDir())

	keepLast = 0
	olderThanDays = 0

	if err := runCleanCheckpoints(nil, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestCheckpointsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	checkpoint := store.NewCheckpoint("old-job", "[1.0000]", 0.5, 1.0, 10, testJobConfig())
	checkpoint.Timestamp = time.Now().AddDate(0, 0, -30)

	if err := checkpointStore.SaveCheckpoint("old-job", checkpoint); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	useDataDir(t, tmpDir)

	keepLast = 0
	olderThanDays = 7
	forceClean = true
	t.Cleanup(func() { olderThanDays, forceClean = 0, false })

	if err := runCleanCheckpoints(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if _, err := checkpointStore.LoadCheckpoint("old-job"); err == nil {
		t.Error("Expected checkpoint to be deleted")
	}
}
