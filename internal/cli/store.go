package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
	"github.com/ppiankov/sketchmine/internal/sketchio"
	"github.com/ppiankov/sketchmine/internal/storage"
)

var (
	storeDatabase string
	importName    string
	exportOutput  string
	runsLimit     int
)

// storeCmd groups the SQLite population store commands
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage populations and run history in a SQLite store",
	Long: `Populations saved in a store can be used anywhere a source is accepted
with the form store.db#name.`,
}

var importCmd = &cobra.Command{
	Use:   "import <sketches.csv>",
	Short: "Import a sketch CSV as a named population",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		codec, err := cfg.Codec()
		if err != nil {
			return err
		}
		pop, err := sketchio.ReadCSVFile(args[0], codec)
		if err != nil {
			return err
		}
		name := importName
		if name == "" {
			name = trimExt(args[0])
		}
		if err := savePopulation(cmd, storeDatabase, name, pop, codec); err != nil {
			return err
		}
		fmt.Printf("✓ Imported %s as %s#%s (%d items)\n", args[0], storeDatabase, name, pop.Len())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a stored population as a sketch CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		codec, err := cfg.Codec()
		if err != nil {
			return err
		}
		store, err := storage.Open(cmd.Context(), storeDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		pop, err := store.LoadPopulation(cmd.Context(), args[0], codec)
		if err != nil {
			return err
		}
		if err := sketchio.WriteCSVFile(exportOutput, pop); err != nil {
			return fmt.Errorf("write sketches: %w", err)
		}
		fmt.Printf("✓ Exported %s#%s to %s\n", storeDatabase, args[0], exportOutput)
		return nil
	},
}

var populationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored populations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), storeDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		infos, err := store.ListPopulations(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tLG_K\tITEMS\tTOTAL\tCREATED")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f\t%s\n",
				info.Name, info.Kind, info.LgK, info.Items, info.Total, info.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored population",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), storeDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.DeletePopulation(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s#%s\n", storeDatabase, args[0])
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded mining runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.Open(cmd.Context(), storeDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCOMMAND\tPOPULATION\tTOTAL\tITEMSETS\tRULES\tSTARTED\tDURATION")
		for _, run := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%d\t%d\t%s\t%s\n",
				run.ID, run.Command, run.Population, run.Total, run.Itemsets, run.Rules,
				run.StartedAt.Format(time.RFC3339), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		}
		return tw.Flush()
	},
}

func savePopulation(cmd *cobra.Command, path, name string, pop *population.Population, codec sketch.Codec) error {
	store, err := storage.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SavePopulation(cmd.Context(), name, pop, codec); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(importCmd, exportCmd, populationsCmd, deleteCmd, runsCmd)

	storeCmd.PersistentFlags().StringVar(&storeDatabase, "database", "sketchmine.db", "SQLite database path")
	importCmd.Flags().StringVar(&importName, "name", "", "population name (default: file name without extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "sketches.csv", "sketch CSV path")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to show (0 for all)")
}

func trimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
