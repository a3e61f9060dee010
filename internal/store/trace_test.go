package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeTrace(t *testing.T, dir, jobID string, appendMode bool, entries ...TraceEntry) {
	t.Helper()

	writer, err := NewTraceWriter(dir, jobID, appendMode)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
}

func readTrace(t *testing.T, dir, jobID string) []TraceEntry {
	t.Helper()

	reader, err := NewTraceReader(dir, jobID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	return entries
}

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "trace-run"

	entries := []TraceEntry{
		{Dynasty: 1, BestFitness: 9, MeanFitness: 20, Temperature: 3.5},
		{Dynasty: 2, BestFitness: 4, MeanFitness: 12, Temperature: 3.3, Stale: 0},
		{Dynasty: 3, BestFitness: 4, MeanFitness: 10, Temperature: 1.0, Stale: 1, Resets: 1, Best: "x=2"},
	}
	writeTrace(t, tmpDir, jobID, false, entries...)

	if _, err := os.Stat(filepath.Join(tmpDir, "jobs", jobID, "trace.jsonl")); err != nil {
		t.Fatalf("Trace file not created: %v", err)
	}

	read := readTrace(t, tmpDir, jobID)
	if len(read) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(read))
	}
	for i, entry := range read {
		if entry.Dynasty != entries[i].Dynasty || entry.BestFitness != entries[i].BestFitness {
			t.Errorf("Entry %d mismatch: %+v", i, entry)
		}
		if entry.Timestamp.IsZero() {
			t.Errorf("Entry %d: expected timestamp to be filled in", i)
		}
	}
	if read[2].Best != "x=2" || read[2].Resets != 1 {
		t.Errorf("Optional fields lost: %+v", read[2])
	}
}

func TestTraceWriter_KeepsExplicitTimestamp(t *testing.T) {
	tmpDir := t.TempDir()
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	writeTrace(t, tmpDir, "stamp", false, TraceEntry{Dynasty: 1, Timestamp: stamp})

	read := readTrace(t, tmpDir, "stamp")
	if !read[0].Timestamp.Equal(stamp) {
		t.Errorf("Expected %v, got %v", stamp, read[0].Timestamp)
	}
}

func TestTraceWriter_AppendAndTruncate(t *testing.T) {
	tmpDir := t.TempDir()
	jobID := "trace-append"

	writeTrace(t, tmpDir, jobID, false, TraceEntry{Dynasty: 1})
	writeTrace(t, tmpDir, jobID, true, TraceEntry{Dynasty: 2})

	if got := readTrace(t, tmpDir, jobID); len(got) != 2 || got[1].Dynasty != 2 {
		t.Fatalf("Expected appended trace, got %+v", got)
	}

	writeTrace(t, tmpDir, jobID, false, TraceEntry{Dynasty: 9})
	if got := readTrace(t, tmpDir, jobID); len(got) != 1 || got[0].Dynasty != 9 {
		t.Fatalf("Expected truncated trace, got %+v", got)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "flush", false)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Dynasty: 1}); err != nil {
		t.Fatal(err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	info, err := os.Stat(writer.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("Expected data on disk after flush")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "iter", false, TraceEntry{Dynasty: 1}, TraceEntry{Dynasty: 2})

	reader, err := NewTraceReader(tmpDir, "iter")
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	for want := 1; want <= 2; want++ {
		entry, err := reader.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if entry.Dynasty != want {
			t.Errorf("Expected dynasty %d, got %d", want, entry.Dynasty)
		}
	}
	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTraceReader_CorruptLine(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "corrupt", false, TraceEntry{Dynasty: 1})

	f, err := os.OpenFile(filepath.Join(tmpDir, "jobs", "corrupt", "trace.jsonl"), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{broken\n")
	f.Close()

	reader, err := NewTraceReader(tmpDir, "corrupt")
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	if _, err := reader.ReadAll(); err == nil {
		t.Error("Expected error for corrupt line")
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTrace(t *testing.T) {
	tmpDir := t.TempDir()
	writeTrace(t, tmpDir, "del", false, TraceEntry{Dynasty: 1})

	if err := DeleteTrace(tmpDir, "del"); err != nil {
		t.Fatalf("DeleteTrace failed: %v", err)
	}
	if _, err := NewTraceReader(tmpDir, "del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected trace to be gone, got %v", err)
	}
	if err := DeleteTrace(tmpDir, "del"); err != nil {
		t.Errorf("Deleting a missing trace should succeed, got %v", err)
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "concurrent", false)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := writer.Write(TraceEntry{Dynasty: g*100 + i}); err != nil {
					t.Errorf("Write failed: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	if got := readTrace(t, tmpDir, "concurrent"); len(got) != 200 {
		t.Errorf("Expected 200 entries, got %d", len(got))
	}
}
