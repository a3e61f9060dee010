// Package server runs optimization jobs in the background and exposes them
// over a JSON HTTP API with SSE progress streams and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/sagaopt/internal/problems"
	"github.com/cwbudde/sagaopt/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	worker     *worker
	metrics    *metrics
	addr       string
	server     *http.Server

	// jobsCtx is cancelled on shutdown so queued jobs do not start
	jobsCtx    context.Context
	cancelJobs context.CancelFunc
}

// NewServer creates a new HTTP server. checkpointStore may be nil, in which
// case jobs are kept in memory only.
func NewServer(addr string, checkpointStore store.Store) *Server {
	jm := NewJobManager()
	m := newMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: jm,
		metrics:    m,
		worker: &worker{
			jobs:    jm,
			store:   checkpointStore,
			metrics: m,
			run:     problems.Run,
		},
		addr:       addr,
		jobsCtx:    ctx,
		cancelJobs: cancel,
	}
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/problems", s.handleListProblems)
	mux.Handle("/metrics", s.metrics.handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancelJobs()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	switch {
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs. Fields missing from the body keep
// the engine defaults.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	config := problems.DefaultJobConfig("")
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if config.Problem == "" {
		http.Error(w, "problem is required", http.StatusBadRequest)
		return
	}
	if _, err := problems.Get(config.Problem); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := problems.EngineConfig(config).Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if config.CheckpointInterval < 0 {
		http.Error(w, "checkpointInterval must be non-negative", http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(config)
	s.metrics.jobsCreated.Inc()

	go func() {
		if err := s.worker.runJob(s.jobsCtx, job.ID); err != nil {
			slog.Debug("Job ended with error", "job_id", job.ID, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobManager.ListJobs()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// JobStatus is the response of GET /api/v1/jobs/:id/status.
type JobStatus struct {
	*Job
	Elapsed            float64 `json:"elapsed"`
	DynastiesPerSecond float64 `json:"dynastiesPerSecond"`
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	elapsed := job.Elapsed()
	status := JobStatus{Job: job, Elapsed: elapsed.Seconds()}
	if elapsed > 0 {
		status.DynastiesPerSecond = float64(job.Dynasty) / elapsed.Seconds()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleListProblems handles GET /api/v1/problems
func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(problems.Names())
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
