package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/sagaopt/internal/baseline"
	"github.com/cwbudde/sagaopt/internal/problems"
)

var (
	compareObjective string
	compareDim       int
	compareSeed      uint64
	comparePop       int
	compareDynasties int
	compareIters     int
	compareMutation  string
	compareTolerance float64
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the hybrid optimizer with mayfly on a continuous objective",
	Long: `Minimizes a benchmark objective (sphere or rastrigin) with the hybrid
annealing/genetic optimizer and with the mayfly algorithm, and prints cost,
evaluations and wall time of both.`,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareObjective, "objective", "rastrigin", "Objective (sphere, rastrigin)")
	f.IntVar(&compareDim, "dimension", 5, "Number of parameters")
	f.Uint64Var(&compareSeed, "seed", 42, "Random seed shared by both optimizers")
	f.IntVar(&comparePop, "pop", 50, "Population size for both optimizers")
	f.IntVar(&compareDynasties, "dynasties", 200, "Hybrid dynasty budget")
	f.IntVar(&compareIters, "iters", 200, "Mayfly iteration budget")
	f.StringVar(&compareMutation, "mutation", "gaussian", "Hybrid mutation operator (gaussian, reset)")
	f.Float64Var(&compareTolerance, "tolerance", 0, "Hybrid stops early at or below this cost")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if compareDim <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", compareDim)
	}
	spec, err := problems.LookupObjective(compareObjective)
	if err != nil {
		return err
	}
	lower, upper := spec.Box(compareDim)

	engine := problems.EngineConfig(problems.DefaultJobConfig(compareObjective)).
		WithSeed(compareSeed).
		WithPopulationSize(comparePop).
		WithDynastiesLimit(compareDynasties)

	minimizers := []baseline.Minimizer{
		baseline.NewHybrid(engine, compareMutation, compareTolerance),
		baseline.NewMayfly(compareIters, comparePop, int64(compareSeed)),
	}

	results, err := baseline.Compare(minimizers, baseline.Objective(spec.Func), lower, upper)
	if err != nil {
		return err
	}

	writeComparison(cmd.OutOrStdout(), compareObjective, compareDim, results)
	return nil
}

// writeComparison prints one row per minimizer.
func writeComparison(out io.Writer, objective string, dim int, results []baseline.Result) {
	fmt.Fprintf(out, "%s, %d dimensions\n\n", objective, dim)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MINIMIZER\tCOST\tEVALUATIONS\tELAPSED")
	fmt.Fprintln(w, "---------\t----\t-----------\t-------")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.6g\t%d\t%s\n", r.Minimizer, r.Cost, r.Evaluations, r.Elapsed.Round(time.Microsecond))
	}
	w.Flush()
}
