package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sketchmine/internal/convert"
	"github.com/ppiankov/sketchmine/internal/sketchio"
)

var (
	convertFormat     string
	convertDelimiter  string
	convertSkipHeader bool
	convertOutput     string
	convertDatabase   string
	convertName       string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <transactions>",
	Short: "Build item sketches from a transaction file",
	Long: `Convert reads one transaction per line and builds one sketch per item
holding the indices of the transactions that contain it, plus a total sketch
over every transaction.

Formats:
- csv:  delimited items per row (--delimiter, default ",")
- list: whitespace-separated items per line

Example:
  sketchmine convert baskets.csv -o sketches.csv
  sketchmine convert baskets.txt --format list --skip-header -o sketches.csv
  sketchmine convert baskets.csv --database store.db --name baskets`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFormat, "format", convert.FormatCSV, "input format (csv, list)")
	convertCmd.Flags().StringVar(&convertDelimiter, "delimiter", ",", "field delimiter for csv input")
	convertCmd.Flags().BoolVar(&convertSkipHeader, "skip-header", false, "skip the first line")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "sketches.csv", "sketch CSV path")
	convertCmd.Flags().StringVar(&convertDatabase, "database", "", "save into this SQLite database instead of a CSV")
	convertCmd.Flags().StringVar(&convertName, "name", "", "population name in the database")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	logger := newLogger(cfg).With("command", "convert")

	opts := convert.Options{
		Format:     convertFormat,
		Delimiter:  convertDelimiter,
		SkipHeader: convertSkipHeader,
	}
	pop, n, err := convert.File(args[0], opts, codec)
	if err != nil {
		return fmt.Errorf("convert %s: %w", args[0], err)
	}
	logger.Info("transactions converted", "source", args[0], "transactions", n, "items", pop.Len())

	if convertDatabase != "" {
		if convertName == "" {
			return fmt.Errorf("--name is required with --database")
		}
		if err := savePopulation(cmd, convertDatabase, convertName, pop, codec); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Saved %d items from %d transactions to %s#%s\n", pop.Len(), n, convertDatabase, convertName)
		}
		return nil
	}

	if err := sketchio.WriteCSVFile(convertOutput, pop); err != nil {
		return fmt.Errorf("write sketches: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %d item sketches from %d transactions to %s\n", pop.Len(), n, convertOutput)
	}
	return nil
}
