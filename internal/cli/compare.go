package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sketchmine/internal/compare"
	"github.com/ppiankov/sketchmine/internal/config"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/report"
	"github.com/ppiankov/sketchmine/internal/sketch"
	"github.com/ppiankov/sketchmine/internal/sketchio"
	"github.com/ppiankov/sketchmine/internal/storage"
	"github.com/ppiankov/sketchmine/internal/telemetry"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Mine a yes and a no population and join their itemsets",
	Long: `Compare derives a "yes" and a "no" population, mines both and joins the
two itemset tables into one comparison table with yes percentages.

Modes (chosen by --mode, or from the inputs set when mode is auto):
- two_sources: --yes and --no are independent populations
- one_pivot:   --input is split by membership of --pivot-yes
- two_pivots:  --input is split into members of --pivot-yes and of --pivot-no

Excluded items are dropped and the filter item restricts each loaded
population before any split.

Example:
  sketchmine compare --yes churned.csv --no retained.csv
  sketchmine compare --input sessions.csv --pivot-yes converted
  sketchmine compare --input store.db#sessions --pivot-yes mobile --pivot-no desktop --equi-join`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	flags := compareCmd.Flags()
	flags.String("mode", "", "comparison mode (auto, two_sources, one_pivot, two_pivots)")
	flags.String("yes", "", "yes population (two_sources)")
	flags.String("no", "", "no population (two_sources)")
	flags.String("input", "", "population to split (one_pivot, two_pivots)")
	flags.String("pivot-yes", "", "item whose members form the yes population")
	flags.String("pivot-no", "", "item whose members form the no population (two_pivots)")
	flags.Float64("min-support-yes", 0, "minimum support ratio on the yes side")
	flags.Float64("min-support-no", 0, "minimum support ratio on the no side")
	flags.Int("max-levels", 0, "largest itemset size to mine")
	flags.Bool("include-all-level1", false, "report every single item regardless of support")
	flags.String("separator", "", "separator between items in reported itemsets")
	flags.StringSlice("exclude", nil, "items to drop before mining (repeatable)")
	flags.String("filter", "", "restrict populations to members of this item")
	flags.Bool("equi-join", false, "keep only itemsets frequent on both sides")
	flags.StringP("output", "o", "", "joined comparison CSV path")
	flags.String("yes-itemsets", "", "also write the yes itemsets to this CSV")
	flags.String("no-itemsets", "", "also write the no itemsets to this CSV")

	bindFlag(flags.Lookup("mode"), "compare.mode")
	bindFlag(flags.Lookup("yes"), "compare.yes_input")
	bindFlag(flags.Lookup("no"), "compare.no_input")
	bindFlag(flags.Lookup("input"), "compare.input")
	bindFlag(flags.Lookup("pivot-yes"), "compare.pivot_yes")
	bindFlag(flags.Lookup("pivot-no"), "compare.pivot_no")
	bindFlag(flags.Lookup("min-support-yes"), "compare.min_support_yes")
	bindFlag(flags.Lookup("min-support-no"), "compare.min_support_no")
	bindFlag(flags.Lookup("max-levels"), "compare.max_levels")
	bindFlag(flags.Lookup("include-all-level1"), "compare.include_all_level1")
	bindFlag(flags.Lookup("separator"), "compare.item_separator")
	bindFlag(flags.Lookup("exclude"), "compare.excluded_items")
	bindFlag(flags.Lookup("filter"), "compare.filter_item")
	bindFlag(flags.Lookup("equi-join"), "compare.use_equi_join")
	bindFlag(flags.Lookup("output"), "compare.output_joined")
	bindFlag(flags.Lookup("yes-itemsets"), "compare.output_yes_itemsets")
	bindFlag(flags.Lookup("no-itemsets"), "compare.output_no_itemsets")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Comparison == nil {
		return model.NewConfigError("compare", "set --yes and --no, or --input with --pivot-yes")
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}

	runID := storage.NewRunID()
	logger := newLogger(cfg).With("run_id", runID, "command", "compare")
	metrics := telemetry.New()
	ctx := cmd.Context()
	started := time.Now()

	if verbose {
		fmt.Fprintf(os.Stderr, "Comparing (%s)\n", cfg.Comparison.Mode())
		fmt.Fprintln(os.Stderr)
	}

	runner := &compare.Runner{
		Load:     sourceLoader(codec, metrics),
		Workers:  cfg.Workers,
		Logger:   logger,
		Observer: metrics,
	}
	done := metrics.Stage("compare")
	result, err := runner.Run(ctx, cfg.Comparison)
	done()
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}
	both, yesOnly, noOnly := compare.Presence(result.Rows)
	metrics.SetComparisonRows(both, yesOnly, noOnly)

	if err := writeComparison(cfg.Comparison.Options(), result); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Yes itemsets: %d\n", result.Yes.Len())
		fmt.Fprintf(os.Stderr, "✓ No itemsets: %d\n", result.No.Len())
		fmt.Fprintf(os.Stderr, "✓ Joined rows: %d (both %d, yes only %d, no only %d)\n", len(result.Rows), both, yesOnly, noOnly)
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", cfg.Comparison.Options().OutputJoined)
	}

	logger.Info("compare complete", "rows", len(result.Rows), "duration", time.Since(started))
	return writeMetrics(cfg, metrics, logger)
}

// sourceLoader opens sketch CSV files and stored populations, recording
// each population's total
func sourceLoader(codec sketch.Codec, metrics *telemetry.Metrics) compare.Loader {
	return func(ctx context.Context, ref string) (*population.Population, error) {
		pop, err := sketchio.Open(ctx, ref, codec)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ref, err)
		}
		metrics.ObservePopulation(ref, pop.TotalEstimate())
		return pop, nil
	}
}

func writeComparison(opts config.CompareOptions, result *compare.Result) error {
	sep := opts.ItemSeparator
	if err := report.WriteFileAtomic(opts.OutputJoined, func(w io.Writer) error {
		return report.WriteComparison(w, result.Rows, sep)
	}); err != nil {
		return fmt.Errorf("write comparison: %w", err)
	}

	sides := []struct {
		path  string
		table *model.ItemsetTable
	}{
		{opts.OutputYes, result.Yes},
		{opts.OutputNo, result.No},
	}
	for _, side := range sides {
		if side.path == "" {
			continue
		}
		table := side.table
		if err := report.WriteFileAtomic(side.path, func(w io.Writer) error {
			return report.WriteItemsets(w, table, sep)
		}); err != nil {
			return fmt.Errorf("write itemsets %s: %w", side.path, err)
		}
	}
	return nil
}
