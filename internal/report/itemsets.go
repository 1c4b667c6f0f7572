package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/sketchmine/internal/model"
)

var itemsetHeader = []string{"level", "frequent_itemset", "count", "support"}

// ItemsetRow is one line of an itemsets report
type ItemsetRow struct {
	Level   int
	Itemset string
	Count   float64
	Support float64
}

// ItemsetRows flattens a table in level then itemset order
func ItemsetRows(table *model.ItemsetTable, sep string) []ItemsetRow {
	var rows []ItemsetRow
	for _, level := range table.Levels() {
		for _, entry := range table.Entries(level) {
			support := 0.0
			if table.Total > 0 {
				support = entry.Count / table.Total
			}
			rows = append(rows, ItemsetRow{
				Level:   level,
				Itemset: entry.Itemset.Format(sep),
				Count:   entry.Count,
				Support: support,
			})
		}
	}
	return rows
}

// WriteItemsets writes a table as level,frequent_itemset,count,support
func WriteItemsets(w io.Writer, table *model.ItemsetTable, sep string) error {
	return WriteItemsetRows(w, ItemsetRows(table, sep))
}

// WriteItemsetRows writes pre-formatted itemset rows
func WriteItemsetRows(w io.Writer, rows []ItemsetRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(itemsetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Level),
			row.Itemset,
			fmt.Sprintf("%.1f", row.Count),
			fmt.Sprintf("%.6f", row.Support),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadItemsets parses an itemsets report
func ReadItemsets(r io.Reader, source string) ([]ItemsetRow, error) {
	records, err := readTable(r, source, itemsetHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]ItemsetRow, 0, len(records))
	for i, record := range records {
		p := fieldParser{source: source, row: i + 2}
		row := ItemsetRow{
			Level:   p.parseInt(record[0]),
			Itemset: record[1],
			Count:   p.parseFloat(record[2]),
			Support: p.parseFloat(record[3]),
		}
		if p.err != nil {
			return nil, p.err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseItemset splits a formatted itemset. Level 1 itemsets are a single
// item even when the item contains the separator.
func ParseItemset(level int, formatted, sep string) model.Itemset {
	if level == 1 {
		return model.Itemset{formatted}
	}
	return model.NewItemset(strings.Split(formatted, sep)...)
}

// TableFromRows rebuilds an itemset table from report rows. The total is
// recovered from the first row with a positive support. A row whose itemset
// does not split into level items under sep is a DataError.
func TableFromRows(rows []ItemsetRow, source, sep string) (*model.ItemsetTable, error) {
	total := 0.0
	for _, row := range rows {
		if row.Support > 0 {
			total = row.Count / row.Support
			break
		}
	}
	table := model.NewItemsetTable(total)
	for i, row := range rows {
		itemset := ParseItemset(row.Level, row.Itemset, sep)
		if row.Level < 1 || itemset.Level() != row.Level {
			return nil, &model.DataError{
				Source: source,
				Row:    i + 2,
				Item:   row.Itemset,
				Err:    fmt.Errorf("level %d itemset has %d items with separator %q", row.Level, itemset.Level(), sep),
			}
		}
		table.Set(itemset, row.Count)
	}
	return table, nil
}
