package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/problems"
	"github.com/cwbudde/sagaopt/internal/store"
)

// worker executes jobs in the background.
type worker struct {
	jobs    *JobManager
	store   store.Store
	metrics *metrics
	run     problems.Runner
}

// runJob executes an optimization job. When a store is configured the run is
// traced and checkpointed through a problems.Recorder and a final checkpoint
// is saved. The engine cannot be interrupted, so ctx is only checked before
// and after the run.
func (w *worker) runJob(ctx context.Context, jobID string) error {
	job, exists := w.jobs.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	select {
	case <-ctx.Done():
		w.markJobCancelled(jobID, false)
		return ctx.Err()
	default:
	}

	err := w.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	w.metrics.jobsRunning.Inc()

	slog.Info("Starting job", "job_id", jobID, "problem", job.Config.Problem, "seed", job.Config.Seed)

	recorder, err := problems.NewRecorder(jobID, job.Config, w.store)
	if err != nil {
		w.markJobFailed(jobID, err, true)
		return err
	}
	defer recorder.Close()

	observe := recorder.Observer()
	lastReseeds := 0
	out, err := w.run(job.Config, func(report opt.DynastyReport) {
		observe(report)
		w.observe(jobID, job.Config.Problem, report, &lastReseeds)
	})
	if err != nil {
		w.markJobFailed(jobID, err, true)
		return err
	}

	select {
	case <-ctx.Done():
		w.markJobCancelled(jobID, true)
		return ctx.Err()
	default:
	}

	if err := recorder.Finish(out); err != nil {
		slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
	}

	// Metrics settle before the job turns terminal so pollers see them
	w.finishMetrics(StateCompleted, true)
	w.metrics.bestFitness.WithLabelValues(jobID).Set(out.Fitness)
	w.metrics.runDuration.WithLabelValues(out.Problem, out.Reason.String()).Observe(out.Elapsed.Seconds())

	endTime := time.Now()
	var final *Job
	err = w.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Best = out.Best
		j.BestFitness = out.Fitness
		j.Reason = out.Reason.String()
		j.EndTime = &endTime
		if j.Dynasty == 0 {
			j.InitialFitness = out.Fitness
		}
		snapshot := *j
		final = &snapshot
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", out.Elapsed,
		"reason", out.Reason,
		"initial_fitness", final.InitialFitness,
		"best_fitness", out.Fitness,
		"dynasties", final.Dynasty,
	)

	w.jobs.broadcaster.Broadcast(eventFromJob(final))
	return nil
}

// observe folds a dynasty report into the job and pushes it to subscribers.
func (w *worker) observe(jobID, problem string, report opt.DynastyReport, lastReseeds *int) {
	var snapshot Job
	w.jobs.UpdateJob(jobID, func(j *Job) {
		if j.Dynasty == 0 {
			j.InitialFitness = report.BestFitness
		}
		j.Dynasty = report.Dynasty
		j.Temperature = report.Temperature.Float64()
		j.Reseeds = report.Reseeds
		if j.Best == "" || report.BestFitness < j.BestFitness {
			j.BestFitness = report.BestFitness
			j.Best = report.Best
		}
		snapshot = *j
	})

	w.metrics.dynasties.WithLabelValues(problem).Inc()
	if report.Reseeds > *lastReseeds {
		w.metrics.reseeds.WithLabelValues(problem).Add(float64(report.Reseeds - *lastReseeds))
		*lastReseeds = report.Reseeds
	}
	w.metrics.bestFitness.WithLabelValues(jobID).Set(snapshot.BestFitness)

	event := eventFromJob(&snapshot)
	event.MeanFitness = report.MeanFitness
	w.jobs.broadcaster.Broadcast(event)
}

// finishMetrics records a terminal state. started is set once the job was
// counted as running.
func (w *worker) finishMetrics(state JobState, started bool) {
	if started {
		w.metrics.jobsRunning.Dec()
	}
	w.metrics.jobsFinished.WithLabelValues(string(state)).Inc()
}

// markJobFailed marks a job as failed with an error message
func (w *worker) markJobFailed(jobID string, err error, started bool) {
	w.finishMetrics(StateFailed, started)
	endTime := time.Now()
	var snapshot Job
	w.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		snapshot = *j
	})
	w.jobs.broadcaster.Broadcast(eventFromJob(&snapshot))
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func (w *worker) markJobCancelled(jobID string, started bool) {
	w.finishMetrics(StateCancelled, started)
	endTime := time.Now()
	var snapshot Job
	w.jobs.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
		snapshot = *j
	})
	w.jobs.broadcaster.Broadcast(eventFromJob(&snapshot))
	slog.Info("Job cancelled", "job_id", jobID)
}
