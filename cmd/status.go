package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/sagaopt/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

// getJSON fetches url and decodes the body into v.
func getJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(out io.Writer, url string) error {
	var jobs []server.Job
	if _, err := getJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Problem: %s (dimension %d, seed %d)\n", job.Config.Problem, job.Config.Dimension, job.Config.Seed)
		if job.Dynasty > 0 || job.State == server.StateCompleted {
			fmt.Fprintf(out, "  Fitness: %g -> %g after %d dynasties\n", job.InitialFitness, job.BestFitness, job.Dynasty)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var status server.JobStatus
	code, err := getJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	cfg := status.Config
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Problem: %s\n", cfg.Problem)
	fmt.Fprintf(out, "  Dimension: %d\n", cfg.Dimension)
	fmt.Fprintf(out, "  Seed: %d\n", cfg.Seed)
	fmt.Fprintf(out, "  Population: %d\n", cfg.PopulationSize)
	fmt.Fprintf(out, "  Dynasties: %d\n", cfg.DynastiesLimit)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Dynasty: %d\n", status.Dynasty)
	fmt.Fprintf(out, "  Initial Fitness: %g\n", status.InitialFitness)
	fmt.Fprintf(out, "  Best Fitness: %g\n", status.BestFitness)
	if status.Best != "" {
		fmt.Fprintf(out, "  Best: %s\n", status.Best)
	}
	fmt.Fprintf(out, "  Temperature: %g\n", status.Temperature)
	if status.Reseeds > 0 {
		fmt.Fprintf(out, "  Reseeds: %d\n", status.Reseeds)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.DynastiesPerSecond > 0 {
		fmt.Fprintf(out, "  Throughput: %.1f dynasties/sec\n", status.DynastiesPerSecond)
	}
	if status.Reason != "" {
		fmt.Fprintf(out, "  Stopped: %s\n", status.Reason)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
