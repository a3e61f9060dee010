package problems

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/store"
)

// Recorder persists the progress of one run: every dynasty goes to the JSONL
// trace (filesystem stores only) and every CheckpointInterval dynasties a
// checkpoint is written. It is meant to be driven from an opt.Observer.
type Recorder struct {
	jobID string
	cfg   store.JobConfig
	store store.Store
	trace *store.TraceWriter

	dynasty        int
	best           string
	bestFitness    float64
	initialFitness float64
	seen           bool
}

// baseDirStore is implemented by stores that keep job directories on disk.
type baseDirStore interface {
	BaseDir() string
}

// NewRecorder prepares a recorder for jobID. A nil st disables persistence.
func NewRecorder(jobID string, cfg store.JobConfig, st store.Store) (*Recorder, error) {
	r := &Recorder{
		jobID:       jobID,
		cfg:         cfg,
		store:       st,
		bestFitness: math.Inf(1),
	}
	if fs, ok := st.(baseDirStore); ok {
		tw, err := store.NewTraceWriter(fs.BaseDir(), jobID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		r.trace = tw
	}
	return r, nil
}

// TraceEntryFrom converts a dynasty report to its trace form.
func TraceEntryFrom(report opt.DynastyReport) store.TraceEntry {
	return store.TraceEntry{
		Dynasty:       report.Dynasty,
		BestFitness:   report.BestFitness,
		MeanFitness:   report.MeanFitness,
		StdDevFitness: report.StdDevFitness,
		Temperature:   report.Temperature.Float64(),
		Stale:         report.Stale,
		Resets:        report.Resets,
		Reseeds:       report.Reseeds,
		Best:          report.Best,
	}
}

// Observe records one dynasty.
func (r *Recorder) Observe(report opt.DynastyReport) error {
	if !r.seen {
		r.initialFitness = report.BestFitness
		r.seen = true
	}
	r.dynasty = report.Dynasty
	if report.BestFitness < r.bestFitness {
		r.bestFitness = report.BestFitness
		r.best = report.Best
	}

	if r.trace != nil {
		if err := r.trace.Write(TraceEntryFrom(report)); err != nil {
			return err
		}
	}

	if r.store == nil || r.cfg.CheckpointInterval <= 0 || report.Dynasty%r.cfg.CheckpointInterval != 0 {
		return nil
	}
	if r.trace != nil {
		if err := r.trace.Flush(); err != nil {
			return err
		}
	}
	cp := store.NewCheckpoint(r.jobID, r.best, r.bestFitness, r.initialFitness, r.dynasty, r.cfg)
	if err := r.store.SaveCheckpoint(r.jobID, cp); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	slog.Debug("Checkpoint saved", "job_id", r.jobID, "dynasty", r.dynasty, "best_fitness", r.bestFitness)
	return nil
}

// Observer adapts Observe to opt.Observer. Persistence errors are logged
// since the engine cannot be interrupted.
func (r *Recorder) Observer() opt.Observer {
	return func(report opt.DynastyReport) {
		if err := r.Observe(report); err != nil {
			slog.Warn("Failed to record dynasty", "job_id", r.jobID, "dynasty", report.Dynasty, "error", err)
		}
	}
}

// Finish writes the final checkpoint for out and closes the trace.
func (r *Recorder) Finish(out Outcome) error {
	if err := r.Close(); err != nil {
		return err
	}
	if r.store == nil {
		return nil
	}

	initial := r.initialFitness
	if !r.seen {
		initial = out.Fitness
	}
	cp := store.NewCheckpoint(r.jobID, out.Best, out.Fitness, initial, r.dynasty, r.cfg)
	cp.Reason = out.Reason.String()
	if err := r.store.SaveCheckpoint(r.jobID, cp); err != nil {
		return fmt.Errorf("failed to save final checkpoint: %w", err)
	}
	slog.Info("Final checkpoint saved", "job_id", r.jobID, "reason", cp.Reason, "best_fitness", out.Fitness)
	return nil
}

// Close flushes and closes the trace. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r.trace == nil {
		return nil
	}
	err := r.trace.Close()
	r.trace = nil
	return err
}
