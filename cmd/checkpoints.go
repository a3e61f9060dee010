package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/sagaopt/internal/store"
)

var (
	checkpointDataDir   string
	checkpointStoreKind string
	keepLast            int
	olderThanDays       int
	forceClean          bool
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage saved runs",
	Long: `Manage the checkpoints written by "run --save" and the job server:
list them, show one with its dynasty trace, or clean old ones.`,
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available checkpoints",
	Long:  `Display all checkpoints with job ID, timestamp, problem, stop reason, dynasty, best fitness and size on disk.`,
	RunE:  runListCheckpoints,
}

var showCheckpointCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show one checkpoint and its trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowCheckpoint,
}

var cleanCheckpointsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old checkpoints",
	Long: `Delete old checkpoints based on retention policy.
You can keep only the newest N checkpoints or delete checkpoints older than N days.`,
	RunE: runCleanCheckpoints,
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)

	checkpointsCmd.AddCommand(listCheckpointsCmd)
	checkpointsCmd.AddCommand(showCheckpointCmd)
	checkpointsCmd.AddCommand(cleanCheckpointsCmd)

	checkpointsCmd.PersistentFlags().StringVar(&checkpointDataDir, "data-dir", "./data", "Base directory (fs) or database file (sqlite) for checkpoints")
	checkpointsCmd.PersistentFlags().StringVar(&checkpointStoreKind, "store", "fs", "Checkpoint store backend (fs, sqlite)")

	cleanCheckpointsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N checkpoints (0 = keep all)")
	cleanCheckpointsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete checkpoints older than N days (0 = no age limit)")
	cleanCheckpointsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openCheckpointStore() (store.Store, error) {
	st, err := store.NewStore(checkpointStoreKind, checkpointDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	return st, nil
}

// displayID shortens UUIDs for tables.
func displayID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

func runListCheckpoints(cmd *cobra.Command, args []string) error {
	checkpointStore, err := openCheckpointStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(checkpointStore)

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No checkpoints found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTIMESTAMP\tPROBLEM\tREASON\tDYNASTY\tBEST FITNESS\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-------\t------\t-------\t------------\t----")

	for _, info := range infos {
		sizeStr := "-"
		if checkpointStoreKind == "" || checkpointStoreKind == "fs" {
			sizeStr = "unknown"
			if size, err := getDirSize(filepath.Join(checkpointDataDir, "jobs", info.JobID)); err == nil {
				sizeStr = formatBytes(size)
			}
		}

		reason := info.Reason
		if reason == "" {
			reason = "running"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.6g\t%s\n",
			displayID(info.JobID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Problem,
			reason,
			info.Dynasty,
			info.BestFitness,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal checkpoints: %d\n", len(infos))
	return nil
}

func runShowCheckpoint(cmd *cobra.Command, args []string) error {
	checkpointStore, err := openCheckpointStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(checkpointStore)

	cp, err := checkpointStore.LoadCheckpoint(args[0])
	if err != nil {
		return err
	}

	var trace []store.TraceEntry
	if fs, ok := checkpointStore.(*store.FSStore); ok {
		trace, err = readTrace(fs.BaseDir(), cp.JobID)
		if err != nil {
			slog.Warn("Failed to read trace", "job_id", cp.JobID, "error", err)
		}
	}

	writeCheckpoint(cmd.OutOrStdout(), cp, trace)
	return nil
}

// readTrace returns the dynasty trace of a job, or nil when none was written.
func readTrace(baseDir, jobID string) ([]store.TraceEntry, error) {
	reader, err := store.NewTraceReader(baseDir, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.ReadAll()
}

func writeCheckpoint(out io.Writer, cp *store.Checkpoint, trace []store.TraceEntry) {
	fmt.Fprintf(out, "Job: %s\n", cp.JobID)
	fmt.Fprintf(out, "Saved: %s\n", cp.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Problem: %s (dimension %d, seed %d)\n", cp.Config.Problem, cp.Config.Dimension, cp.Config.Seed)
	if cp.Finished() {
		fmt.Fprintf(out, "Stopped: %s after %d dynasties\n", cp.Reason, cp.Dynasty)
	} else {
		fmt.Fprintf(out, "In progress at dynasty %d\n", cp.Dynasty)
	}
	fmt.Fprintf(out, "Fitness: %g -> %g\n", cp.InitialFitness, cp.BestFitness)
	fmt.Fprintf(out, "Best: %s\n", cp.Best)

	if len(trace) == 0 {
		return
	}

	fmt.Fprintf(out, "\nTrace (%d dynasties):\n", len(trace))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DYNASTY\tBEST\tMEAN\tSTDDEV\tTEMPERATURE\tSTALE\tRESETS\tRESEEDS")
	for _, e := range trace {
		fmt.Fprintf(w, "%d\t%.6g\t%.6g\t%.6g\t%.4g\t%d\t%d\t%d\n",
			e.Dynasty, e.BestFitness, e.MeanFitness, e.StdDevFitness, e.Temperature, e.Stale, e.Resets, e.Reseeds)
	}
	w.Flush()
}

func runCleanCheckpoints(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	checkpointStore, err := openCheckpointStore()
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(checkpointStore)

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No checkpoints to clean.")
		return nil
	}

	toDelete := selectCheckpointsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No checkpoints match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d checkpoint(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (%s, dynasty %d, %s)\n",
			displayID(info.JobID),
			info.Problem,
			info.Dynasty,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		err := checkpointStore.DeleteCheckpoint(info.JobID)
		if err != nil {
			slog.Error("Failed to delete checkpoint", "job_id", info.JobID, "error", err)
			failed++
		} else {
			slog.Info("Deleted checkpoint", "job_id", info.JobID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d checkpoint(s), %d failed.\n", deleted, failed)
	return nil
}

// selectCheckpointsForDeletion applies the retention policy: checkpoints older
// than olderThanDays, plus everything beyond the newest keepLast.
func selectCheckpointsForDeletion(infos []store.CheckpointInfo, keepLast int, olderThanDays int) []store.CheckpointInfo {
	var toDelete []store.CheckpointInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.JobID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := slices.Clone(infos)
		slices.SortFunc(sorted, func(a, b store.CheckpointInfo) int {
			return a.Timestamp.Compare(b.Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.JobID] {
				toDelete = append(toDelete, info)
				selected[info.JobID] = true
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
