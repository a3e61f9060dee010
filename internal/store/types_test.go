package store

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCheckpoint_JSONSerialization(t *testing.T) {
	original := createTestCheckpoint("json-run")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal checkpoint: %v", err)
	}

	for _, key := range []string{`"jobId"`, `"bestFitness"`, `"dynasty"`, `"populationSize"`, `"reason":"dynasties_limit"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected %s in JSON: %s", key, data)
		}
	}

	var decoded Checkpoint
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal checkpoint: %v", err)
	}
	if decoded.JobID != original.JobID || decoded.Config != original.Config {
		t.Errorf("Round trip mismatch: %+v", decoded)
	}
}

func TestCheckpoint_InProgressOmitsReason(t *testing.T) {
	cp := createTestCheckpoint("progress")
	cp.Reason = ""

	data, err := json.Marshal(cp)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"reason"`) {
		t.Errorf("Expected reason to be omitted: %s", data)
	}
	if cp.Finished() {
		t.Error("Checkpoint without reason should not be finished")
	}
}

func TestCheckpoint_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Checkpoint)
		field  string
	}{
		{"valid", func(*Checkpoint) {}, ""},
		{"empty job id", func(c *Checkpoint) { c.JobID = "" }, "JobID"},
		{"empty best", func(c *Checkpoint) { c.Best = "" }, "Best"},
		{"negative dynasty", func(c *Checkpoint) { c.Dynasty = -1 }, "Dynasty"},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }, "Timestamp"},
		{"no problem", func(c *Checkpoint) { c.Config.Problem = "" }, "Config.Problem"},
		{"no population", func(c *Checkpoint) { c.Config.PopulationSize = 0 }, "Config.PopulationSize"},
		{"negative budget", func(c *Checkpoint) { c.Config.DynastiesLimit = -1 }, "Config.DynastiesLimit"},
		{"dynasty over budget", func(c *Checkpoint) { c.Dynasty = 202 }, "Dynasty"},
		{"dynasty at loop bound", func(c *Checkpoint) { c.Dynasty = 201 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := createTestCheckpoint("validate")
			tt.modify(cp)

			err := cp.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid checkpoint, got %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestCheckpoint_IsCompatible(t *testing.T) {
	cp := createTestCheckpoint("compat")

	if err := cp.IsCompatible(cp.Config); err != nil {
		t.Fatalf("Expected compatible, got %v", err)
	}

	changed := cp.Config
	changed.DynastiesLimit = 1000
	changed.PopulationSize = 10
	if err := cp.IsCompatible(changed); err != nil {
		t.Errorf("Budget changes should stay compatible, got %v", err)
	}

	tests := []struct {
		field  string
		modify func(*JobConfig)
	}{
		{"Problem", func(c *JobConfig) { c.Problem = "sphere" }},
		{"Dimension", func(c *JobConfig) { c.Dimension = 4 }},
		{"Seed", func(c *JobConfig) { c.Seed = 7 }},
	}
	for _, tt := range tests {
		cfg := cp.Config
		tt.modify(&cfg)

		var ce *CompatibilityError
		if err := cp.IsCompatible(cfg); !errors.As(err, &ce) || ce.Field != tt.field {
			t.Errorf("Expected CompatibilityError on %s, got %v", tt.field, err)
		}
	}
}

func TestCheckpoint_ToInfo(t *testing.T) {
	cp := createTestCheckpoint("info")
	info := cp.ToInfo()

	if info.JobID != cp.JobID || info.Problem != "rastrigin" || info.Dimension != 3 {
		t.Errorf("Unexpected identity fields: %+v", info)
	}
	if info.BestFitness != cp.BestFitness || info.Dynasty != cp.Dynasty || info.Reason != cp.Reason {
		t.Errorf("Unexpected progress fields: %+v", info)
	}
	if !info.Timestamp.Equal(cp.Timestamp) {
		t.Errorf("Timestamp mismatch")
	}
}

func TestNewCheckpoint(t *testing.T) {
	cfg := createTestCheckpoint("x").Config
	before := time.Now()

	cp := NewCheckpoint("new", "x=0", 0, 12, 5, cfg)

	if cp.JobID != "new" || cp.Best != "x=0" || cp.InitialFitness != 12 || cp.Dynasty != 5 {
		t.Errorf("Unexpected checkpoint: %+v", cp)
	}
	if cp.Timestamp.Before(before) {
		t.Error("Timestamp should be set to now")
	}
	if cp.Finished() {
		t.Error("New checkpoint should not be finished")
	}
	if err := cp.Validate(); err != nil {
		t.Errorf("New checkpoint should validate: %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&NotFoundError{}).Error(); got != "checkpoint not found" {
		t.Errorf("Unexpected message: %s", got)
	}
	if got := (&NotFoundError{JobID: "a"}).Error(); got != "checkpoint not found: a" {
		t.Errorf("Unexpected message: %s", got)
	}
	ce := &CompatibilityError{Field: "Seed", Expected: "1", Actual: "2"}
	if got := ce.Error(); got != "compatibility error: Seed mismatch (expected 1, got 2)" {
		t.Errorf("Unexpected message: %s", got)
	}
}
