package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/sagaopt/internal/opt"
	"github.com/cwbudde/sagaopt/internal/problems"
	"github.com/cwbudde/sagaopt/internal/store"
)

var (
	runConfig  = problems.DefaultJobConfig("scalar")
	configPath string
	saveRun    bool
	dataDir    string
	storeKind  string
	jsonOutput bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization",
	Long: `Runs one optimization of a registered problem and prints the stop reason,
the best candidate and its fitness.

Settings come from the engine defaults, then the TOML file given with --config,
then any flags set explicitly on the command line.`,
	RunE: runOptimization,
}

// jobFlags maps each job flag to the JobConfig field it sets, so explicitly
// given flags can be re-applied on top of a config file.
var jobFlags = map[string]func(dst *store.JobConfig, src store.JobConfig){
	"problem":             func(d *store.JobConfig, s store.JobConfig) { d.Problem = s.Problem },
	"dimension":           func(d *store.JobConfig, s store.JobConfig) { d.Dimension = s.Dimension },
	"tolerance":           func(d *store.JobConfig, s store.JobConfig) { d.Tolerance = s.Tolerance },
	"mutation":            func(d *store.JobConfig, s store.JobConfig) { d.Mutation = s.Mutation },
	"seed":                func(d *store.JobConfig, s store.JobConfig) { d.Seed = s.Seed },
	"pop":                 func(d *store.JobConfig, s store.JobConfig) { d.PopulationSize = s.PopulationSize },
	"dynasties":           func(d *store.JobConfig, s store.JobConfig) { d.DynastiesLimit = s.DynastiesLimit },
	"reset-limit":         func(d *store.JobConfig, s store.JobConfig) { d.ResetLimit = s.ResetLimit },
	"max-stale":           func(d *store.JobConfig, s store.JobConfig) { d.MaxStaleIterations = s.MaxStaleIterations },
	"max-mutations":       func(d *store.JobConfig, s store.JobConfig) { d.MaxMutationsPerDynasty = s.MaxMutationsPerDynasty },
	"elite-rate":          func(d *store.JobConfig, s store.JobConfig) { d.EliteSelectionRate = s.EliteSelectionRate },
	"crossover-rate":      func(d *store.JobConfig, s store.JobConfig) { d.CrossoverRate = s.CrossoverRate },
	"mutation-rate":       func(d *store.JobConfig, s store.JobConfig) { d.MutationRate = s.MutationRate },
	"population-percent":  func(d *store.JobConfig, s store.JobConfig) { d.PopulationPercent = s.PopulationPercent },
	"recalc-fitness":      func(d *store.JobConfig, s store.JobConfig) { d.FitnessRecalculation = s.FitnessRecalculation },
	"workers":             func(d *store.JobConfig, s store.JobConfig) { d.Workers = s.Workers },
	"checkpoint-interval": func(d *store.JobConfig, s store.JobConfig) { d.CheckpointInterval = s.CheckpointInterval },
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runConfig.Problem, "problem", runConfig.Problem, "Problem to solve (scalar, sphere, rastrigin, queens)")
	f.IntVar(&runConfig.Dimension, "dimension", 0, "Vector length, board size or scalar bound (0 = problem default)")
	f.Float64Var(&runConfig.Tolerance, "tolerance", 0, "Fitness at which a real-valued candidate is optimal (0 = problem default)")
	f.StringVar(&runConfig.Mutation, "mutation", "", "Vector mutation operator (gaussian, reset)")
	f.Uint64Var(&runConfig.Seed, "seed", runConfig.Seed, "Random seed")
	f.IntVar(&runConfig.PopulationSize, "pop", runConfig.PopulationSize, "Population size")
	f.IntVar(&runConfig.DynastiesLimit, "dynasties", runConfig.DynastiesLimit, "Dynasty budget")
	f.IntVar(&runConfig.ResetLimit, "reset-limit", runConfig.ResetLimit, "Reheats allowed before a reseed")
	f.IntVar(&runConfig.MaxStaleIterations, "max-stale", runConfig.MaxStaleIterations, "Dynasties without improvement before a reheat")
	f.IntVar(&runConfig.MaxMutationsPerDynasty, "max-mutations", runConfig.MaxMutationsPerDynasty, "Mutation attempts per individual per dynasty")
	f.Float64Var(&runConfig.EliteSelectionRate, "elite-rate", runConfig.EliteSelectionRate, "Share of the population kept as elites")
	f.Float64Var(&runConfig.CrossoverRate, "crossover-rate", runConfig.CrossoverRate, "Crossover weight")
	f.Float64Var(&runConfig.MutationRate, "mutation-rate", runConfig.MutationRate, "Mutation weight")
	f.Float64Var(&runConfig.PopulationPercent, "population-percent", runConfig.PopulationPercent, "Share of the sorted population retained each dynasty")
	f.BoolVar(&runConfig.FitnessRecalculation, "recalc-fitness", runConfig.FitnessRecalculation, "Re-evaluate accepted mutants")
	f.IntVar(&runConfig.Workers, "workers", runConfig.Workers, "Parallel mutation workers (0 = unbounded)")
	f.IntVar(&runConfig.CheckpointInterval, "checkpoint-interval", 0, "Save a checkpoint every N dynasties with --save (0 = final only)")

	f.StringVar(&configPath, "config", "", "TOML run configuration file")
	f.BoolVar(&saveRun, "save", false, "Save checkpoint and trace of the run")
	f.StringVar(&dataDir, "data-dir", "./data", "Base directory (fs) or database file (sqlite) for saved runs")
	f.StringVar(&storeKind, "store", "fs", "Checkpoint store backend (fs, sqlite)")
	f.BoolVar(&jsonOutput, "json", false, "Print the outcome as JSON")

	rootCmd.AddCommand(runCmd)
}

// resolveJobConfig layers the config file (if any) and the explicitly set
// flags over the engine defaults.
func resolveJobConfig(cmd *cobra.Command, path string, fromFlags store.JobConfig) (store.JobConfig, error) {
	if path == "" {
		return fromFlags, nil
	}

	cfg, err := store.LoadJobConfig(path, problems.DefaultJobConfig(fromFlags.Problem))
	if err != nil {
		return store.JobConfig{}, err
	}
	for name, apply := range jobFlags {
		if cmd.Flags().Changed(name) {
			apply(&cfg, fromFlags)
		}
	}
	return cfg, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := resolveJobConfig(cmd, configPath, runConfig)
	if err != nil {
		return err
	}

	slog.Info("Starting run", "problem", cfg.Problem, "dimension", cfg.Dimension, "seed", cfg.Seed)

	var (
		st       store.Store
		recorder *problems.Recorder
		runID    string
		observer opt.Observer
	)
	if saveRun {
		st, err = store.NewStore(storeKind, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.CloseIfSupported(st)

		runID = uuid.New().String()
		recorder, err = problems.NewRecorder(runID, cfg, st)
		if err != nil {
			return err
		}
		defer recorder.Close()
		observer = recorder.Observer()
	}

	out, err := problems.Run(cfg, observer)
	if err != nil {
		return err
	}

	if recorder != nil {
		if err := recorder.Finish(out); err != nil {
			return err
		}
	}

	return printOutcome(cmd.OutOrStdout(), out, runID, jsonOutput)
}

// printOutcome writes the run result as text or JSON.
func printOutcome(w io.Writer, out problems.Outcome, runID string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			problems.Outcome
			RunID string `json:"runId,omitempty"`
		}{out, runID})
	}

	fmt.Fprintf(w, "problem:     %s\n", out.Problem)
	fmt.Fprintf(w, "reason:      %s\n", out.Reason)
	fmt.Fprintf(w, "best:        %s\n", out.Best)
	fmt.Fprintf(w, "fitness:     %g\n", out.Fitness)
	fmt.Fprintf(w, "temperature: %g (initial)\n", out.InitialTemperature)
	fmt.Fprintf(w, "elapsed:     %s\n", out.Elapsed)
	if runID != "" {
		fmt.Fprintf(w, "saved as:    %s\n", runID)
	}
	return nil
}
