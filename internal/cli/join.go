package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sketchmine/internal/compare"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/report"
)

var (
	joinSeparator string
	joinOutput    string
	joinEquiJoin  bool
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join <yes_itemsets.csv> <no_itemsets.csv>",
	Short: "Join two existing itemset tables into a comparison table",
	Long: `Join reads two itemset CSVs written by mine or compare and joins them
without mining again.

--separator must match the one the inputs were written with: mine writes
"&&" by default, compare writes " && ". A row whose itemset does not split
into as many items as its level column is rejected.

Example:
  sketchmine join yes.csv no.csv -o joined.csv
  sketchmine join yes.csv no.csv --equi-join
  sketchmine join compare_yes.csv compare_no.csv --separator " && "`,
	Args: cobra.ExactArgs(2),
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVar(&joinSeparator, "separator", "&&", "separator the inputs were written with, also used for the output")
	joinCmd.Flags().StringVarP(&joinOutput, "output", "o", "joined_itemsets.csv", "joined comparison CSV path")
	joinCmd.Flags().BoolVar(&joinEquiJoin, "equi-join", false, "keep only itemsets present in both tables")
}

func runJoin(cmd *cobra.Command, args []string) error {
	yes, err := readItemsetTable(args[0])
	if err != nil {
		return err
	}
	no, err := readItemsetTable(args[1])
	if err != nil {
		return err
	}

	rows := compare.Join(yes, no, compare.JoinOptions{EquiJoin: joinEquiJoin})
	if err := report.WriteFileAtomic(joinOutput, func(w io.Writer) error {
		return report.WriteComparison(w, rows, joinSeparator)
	}); err != nil {
		return fmt.Errorf("write comparison: %w", err)
	}

	if verbose {
		both, yesOnly, noOnly := compare.Presence(rows)
		fmt.Fprintf(os.Stderr, "✓ Joined rows: %d (both %d, yes only %d, no only %d)\n", len(rows), both, yesOnly, noOnly)
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", joinOutput)
	}
	return nil
}

func readItemsetTable(path string) (*model.ItemsetTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open itemsets: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := report.ReadItemsets(f, path)
	if err != nil {
		return nil, err
	}
	return report.TableFromRows(rows, path, joinSeparator)
}
