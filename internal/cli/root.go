package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/sketchmine/internal/config"
	"github.com/ppiankov/sketchmine/internal/logging"
)

// version is overridden at build time with -ldflags "-X ..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// v carries flag bindings; config.LoadViper layers file, env and defaults under them
	v = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sketchmine",
	Short: "sketchmine - frequent itemsets and association rules from set sketches",
	Long: `sketchmine mines frequent itemsets and association rules from per-item
set sketches instead of raw transactions.

Every item is a sketch of the transaction ids that contain it. Supports are
estimated through sketch intersections, so a population of any size mines in
memory proportional to its items.

The compare command mines a "yes" and a "no" population side by side and
joins the two itemset tables to show what distinguishes them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of sketchmine.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sketchmine %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sketchmine/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Int("workers", 0, "candidate evaluation workers (default: number of CPUs)")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	// Bind flags to viper
	bindFlag(flags.Lookup("log-level"), "logging.level")
	bindFlag(flags.Lookup("log-format"), "logging.format")
	bindFlag(flags.Lookup("workers"), "workers")
	bindFlag(flags.Lookup("metrics-file"), "metrics_file")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig falls back to the config file in the home directory when
// --config is not given
func initConfig() {
	if cfgFile != "" {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	candidate := filepath.Join(home, ".sketchmine", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		cfgFile = candidate
	}
}

// loadConfig resolves the effective configuration: flags, then
// SKETCHMINE_* variables, then the config file, then defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadViper(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", cfgFile)
		}
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
