// Package config loads sketchmine settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/sketchmine/internal/apriori"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SKETCHMINE"

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	MetricsFile string        `mapstructure:"metrics_file" yaml:"metrics_file"`
	Sketch      SketchConfig  `mapstructure:"sketch" yaml:"sketch"`
	Mine        MineConfig    `mapstructure:"mine" yaml:"mine"`
	Compare     CompareConfig `mapstructure:"compare" yaml:"compare"`

	// Comparison is the resolved comparator mode, nil when no comparator
	// inputs are configured
	Comparison Comparison `mapstructure:"-" yaml:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SketchConfig selects the sketch implementation
type SketchConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind"`
	LgK  int    `mapstructure:"lg_k" yaml:"lg_k"`
}

// MineConfig holds single-population mining settings
type MineConfig struct {
	Input            string  `mapstructure:"input" yaml:"input"`
	MinSupport       float64 `mapstructure:"min_support" yaml:"min_support"`
	MaxLevels        int     `mapstructure:"max_levels" yaml:"max_levels"`
	IncludeAllLevel1 bool    `mapstructure:"include_all_level1" yaml:"include_all_level1"`
	MinConfidence    float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	ItemSeparator    string  `mapstructure:"item_separator" yaml:"item_separator"`
	OutputItemsets   string  `mapstructure:"output_itemsets" yaml:"output_itemsets"`
	OutputRules      string  `mapstructure:"output_rules" yaml:"output_rules"`
	Database         string  `mapstructure:"database" yaml:"database"`
}

// CompareConfig is the loosely-typed comparator section as written in the
// file. Resolve turns it into a Comparison.
type CompareConfig struct {
	Mode             string   `mapstructure:"mode" yaml:"mode"`
	YesInput         string   `mapstructure:"yes_input" yaml:"yes_input"`
	NoInput          string   `mapstructure:"no_input" yaml:"no_input"`
	Input            string   `mapstructure:"input" yaml:"input"`
	PivotYes         string   `mapstructure:"pivot_yes" yaml:"pivot_yes"`
	PivotNo          string   `mapstructure:"pivot_no" yaml:"pivot_no"`
	MinSupportYes    float64  `mapstructure:"min_support_yes" yaml:"min_support_yes"`
	MinSupportNo     float64  `mapstructure:"min_support_no" yaml:"min_support_no"`
	MaxLevels        int      `mapstructure:"max_levels" yaml:"max_levels"`
	IncludeAllLevel1 bool     `mapstructure:"include_all_level1" yaml:"include_all_level1"`
	ItemSeparator    string   `mapstructure:"item_separator" yaml:"item_separator"`
	ExcludedItems    []string `mapstructure:"excluded_items" yaml:"excluded_items"`
	UseEquiJoin      bool     `mapstructure:"use_equi_join" yaml:"use_equi_join"`
	FilterItem       string   `mapstructure:"filter_item" yaml:"filter_item"`
	OutputJoined     string   `mapstructure:"output_joined" yaml:"output_joined"`
	OutputYes        string   `mapstructure:"output_yes_itemsets" yaml:"output_yes_itemsets"`
	OutputNo         string   `mapstructure:"output_no_itemsets" yaml:"output_no_itemsets"`
}

// Default returns the configuration with every default applied
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from path (optional) and SKETCHMINE_* variables
func Load(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper loads through v, so flags bound to v take precedence over the
// file and environment
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comparison, err := cfg.Compare.Resolve()
	switch {
	case errors.Is(err, ErrNoComparison):
	case err != nil:
		return nil, err
	default:
		cfg.Comparison = comparison
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("metrics_file", "")

	// Sketch defaults
	v.SetDefault("sketch.kind", sketch.KindBitmap)
	v.SetDefault("sketch.lg_k", sketch.DefaultLgK)

	// Mining defaults
	v.SetDefault("mine.input", "")
	v.SetDefault("mine.min_support", 0.1)
	v.SetDefault("mine.max_levels", apriori.DefaultMaxLevel)
	v.SetDefault("mine.include_all_level1", false)
	v.SetDefault("mine.min_confidence", 0.5)
	v.SetDefault("mine.item_separator", "&&")
	v.SetDefault("mine.output_itemsets", "frequent_itemsets.csv")
	v.SetDefault("mine.output_rules", "")
	v.SetDefault("mine.database", "")

	// Comparator defaults
	v.SetDefault("compare.mode", string(ModeAuto))
	v.SetDefault("compare.yes_input", "")
	v.SetDefault("compare.no_input", "")
	v.SetDefault("compare.input", "")
	v.SetDefault("compare.pivot_yes", "")
	v.SetDefault("compare.pivot_no", "")
	v.SetDefault("compare.min_support_yes", 0.05)
	v.SetDefault("compare.min_support_no", 0.05)
	v.SetDefault("compare.max_levels", 5)
	v.SetDefault("compare.include_all_level1", false)
	v.SetDefault("compare.item_separator", " && ")
	v.SetDefault("compare.excluded_items", []string{})
	v.SetDefault("compare.use_equi_join", false)
	v.SetDefault("compare.filter_item", "")
	v.SetDefault("compare.output_joined", "joined_itemsets.csv")
	v.SetDefault("compare.output_yes_itemsets", "")
	v.SetDefault("compare.output_no_itemsets", "")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return model.NewConfigError("logging.level", "must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return model.NewConfigError("logging.format", "must be one of: json, text")
	}

	if c.Workers < 0 {
		return model.NewConfigError("workers", "must not be negative")
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	if _, err := sketch.NewCodec(c.Sketch.Kind, c.Sketch.LgK); err != nil {
		return model.NewConfigError("sketch", "%v", err)
	}

	if err := checkRatio("mine.min_support", c.Mine.MinSupport); err != nil {
		return err
	}
	if err := checkRatio("mine.min_confidence", c.Mine.MinConfidence); err != nil {
		return err
	}
	if c.Mine.MaxLevels < 1 {
		return model.NewConfigError("mine.max_levels", "must be at least 1")
	}
	if c.Mine.ItemSeparator == "" {
		return model.NewConfigError("mine.item_separator", "must not be empty")
	}

	if err := checkRatio("compare.min_support_yes", c.Compare.MinSupportYes); err != nil {
		return err
	}
	if err := checkRatio("compare.min_support_no", c.Compare.MinSupportNo); err != nil {
		return err
	}
	if c.Compare.MaxLevels < 1 {
		return model.NewConfigError("compare.max_levels", "must be at least 1")
	}
	if c.Compare.ItemSeparator == "" {
		return model.NewConfigError("compare.item_separator", "must not be empty")
	}
	return nil
}

// Codec builds the sketch codec described by the sketch section
func (c *Config) Codec() (sketch.Codec, error) {
	codec, err := sketch.NewCodec(c.Sketch.Kind, c.Sketch.LgK)
	if err != nil {
		return nil, model.NewConfigError("sketch", "%v", err)
	}
	return codec, nil
}

func checkRatio(field string, value float64) error {
	if value < 0 || value > 1 {
		return model.NewConfigError(field, "must be between 0.0 and 1.0, got %g", value)
	}
	return nil
}
