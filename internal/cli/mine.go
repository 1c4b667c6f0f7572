package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sketchmine/internal/apriori"
	"github.com/ppiankov/sketchmine/internal/config"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/report"
	"github.com/ppiankov/sketchmine/internal/sketchio"
	"github.com/ppiankov/sketchmine/internal/storage"
	"github.com/ppiankov/sketchmine/internal/telemetry"
)

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine [source]",
	Short: "Mine frequent itemsets and association rules from one population",
	Long: `Mine runs level-wise Apriori over the item sketches of one population:
- Estimate the support of every candidate through sketch intersections
- Keep itemsets whose support reaches --min-support
- Optionally derive association rules with confidence, lift and conviction
- Write the itemset and rule tables as CSV

The source is a sketch CSV file or a stored population (store.db#name).

Example:
  sketchmine mine sketches.csv
  sketchmine mine sketches.csv --min-support 0.05 --rules rules.csv
  sketchmine mine store.db#baskets --database store.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMine,
}

func init() {
	rootCmd.AddCommand(mineCmd)

	flags := mineCmd.Flags()
	flags.Float64("min-support", 0, "minimum support ratio (0.0-1.0)")
	flags.Int("max-levels", 0, "largest itemset size to mine")
	flags.Bool("include-all-level1", false, "report every single item regardless of support")
	flags.Float64("min-confidence", 0, "minimum rule confidence (0.0-1.0)")
	flags.String("separator", "", "separator between items in reported itemsets")
	flags.StringP("output", "o", "", "itemsets CSV path")
	flags.String("rules", "", "rules CSV path (rules are skipped when empty)")
	flags.String("database", "", "SQLite database to record the run in")

	bindFlag(flags.Lookup("min-support"), "mine.min_support")
	bindFlag(flags.Lookup("max-levels"), "mine.max_levels")
	bindFlag(flags.Lookup("include-all-level1"), "mine.include_all_level1")
	bindFlag(flags.Lookup("min-confidence"), "mine.min_confidence")
	bindFlag(flags.Lookup("separator"), "mine.item_separator")
	bindFlag(flags.Lookup("output"), "mine.output_itemsets")
	bindFlag(flags.Lookup("rules"), "mine.output_rules")
	bindFlag(flags.Lookup("database"), "mine.database")
}

func runMine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	input := cfg.Mine.Input
	if len(args) == 1 {
		input = args[0]
	}
	if input == "" {
		return model.NewConfigError("mine.input", "no source given")
	}

	runID := storage.NewRunID()
	logger := newLogger(cfg).With("run_id", runID, "command", "mine")
	metrics := telemetry.New()
	ctx := cmd.Context()
	started := time.Now()

	if verbose {
		fmt.Fprintf(os.Stderr, "Mining: %s\n", input)
		fmt.Fprintf(os.Stderr, "Min support: %g, max levels: %d\n", cfg.Mine.MinSupport, cfg.Mine.MaxLevels)
		fmt.Fprintln(os.Stderr)
	}

	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	done := metrics.Stage("load")
	pop, err := sketchio.Open(ctx, input, codec)
	done()
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	metrics.ObservePopulation(pop.Name(), pop.TotalEstimate())
	logger.Info("population loaded", "source", input, "items", pop.Len(), "total", pop.TotalEstimate())

	miner := &apriori.Miner{
		MinSupport:       cfg.Mine.MinSupport,
		MaxLevel:         cfg.Mine.MaxLevels,
		IncludeAllLevel1: cfg.Mine.IncludeAllLevel1,
		Workers:          cfg.Workers,
		Logger:           logger,
		Observer:         metrics,
	}
	done = metrics.Stage("mine")
	table, err := miner.Mine(ctx, pop)
	done()
	if err != nil {
		return fmt.Errorf("mine failed: %w", err)
	}

	sep := cfg.Mine.ItemSeparator
	if err := report.WriteFileAtomic(cfg.Mine.OutputItemsets, func(w io.Writer) error {
		return report.WriteItemsets(w, table, sep)
	}); err != nil {
		return fmt.Errorf("write itemsets: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Found %d frequent itemsets\n", table.Len())
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", cfg.Mine.OutputItemsets)
	}

	ruleCount := 0
	if cfg.Mine.OutputRules != "" {
		done = metrics.Stage("rules")
		rules, err := apriori.GenerateRules(table, cfg.Mine.MinConfidence)
		done()
		if err != nil {
			return fmt.Errorf("generate rules: %w", err)
		}
		ruleCount = len(rules)
		metrics.AddRules(ruleCount)
		if err := report.WriteFileAtomic(cfg.Mine.OutputRules, func(w io.Writer) error {
			return report.WriteRules(w, rules, sep)
		}); err != nil {
			return fmt.Errorf("write rules: %w", err)
		}
		logger.Info("rules generated", "rules", ruleCount, "min_confidence", cfg.Mine.MinConfidence)
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Generated %d rules\n", ruleCount)
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", cfg.Mine.OutputRules)
		}
	}

	if cfg.Mine.Database != "" {
		run := storage.RunRecord{
			ID:         runID,
			Command:    "mine",
			Population: input,
			Parameters: mineParameters(cfg),
			Total:      table.Total,
			Itemsets:   table.Len(),
			Rules:      ruleCount,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := recordRun(ctx, cfg.Mine.Database, run, logger); err != nil {
			return err
		}
	}

	logger.Info("mine complete", "itemsets", table.Len(), "rules", ruleCount, "duration", time.Since(started))
	return writeMetrics(cfg, metrics, logger)
}

func mineParameters(cfg *config.Config) map[string]any {
	return map[string]any{
		"min_support":        cfg.Mine.MinSupport,
		"max_levels":         cfg.Mine.MaxLevels,
		"include_all_level1": cfg.Mine.IncludeAllLevel1,
		"min_confidence":     cfg.Mine.MinConfidence,
		"sketch_kind":        cfg.Sketch.Kind,
	}
}

func recordRun(ctx context.Context, path string, run storage.RunRecord, logger *slog.Logger) error {
	store, err := storage.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	id, err := store.RecordRun(ctx, run)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	logger.Debug("run recorded", "database", path, "id", id)
	return nil
}

func writeMetrics(cfg *config.Config, metrics *telemetry.Metrics, logger *slog.Logger) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	logger.Debug("metrics written", "path", cfg.MetricsFile)
	return nil
}
