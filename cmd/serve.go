package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/sagaopt/internal/server"
	"github.com/cwbudde/sagaopt/internal/store"
)

var (
	serveAddr      string
	serveDataDir   string
	serveStoreKind string
	noStore        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job server",
	Long: `Starts an HTTP server that runs optimization jobs in the background.

  POST /api/v1/jobs               create a job from a JSON run config
  GET  /api/v1/jobs               list jobs
  GET  /api/v1/jobs/{id}/status   job status
  GET  /api/v1/jobs/{id}/stream   progress as server-sent events
  GET  /api/v1/problems           registered problems
  GET  /metrics                   Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory (fs) or database file (sqlite) for checkpoints")
	serveCmd.Flags().StringVar(&serveStoreKind, "store", "fs", "Checkpoint store backend (fs, sqlite)")
	serveCmd.Flags().BoolVar(&noStore, "no-store", false, "Keep jobs in memory only")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var st store.Store
	if !noStore {
		var err error
		st, err = store.NewStore(serveStoreKind, serveDataDir)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		defer store.CloseIfSupported(st)
	}

	srv := server.NewServer(serveAddr, st)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		slog.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
