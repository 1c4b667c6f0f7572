package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ppiankov/sketchmine/internal/model"
)

var comparisonHeader = []string{"Level", "Frequent_itemset", "Yes_case_count", "No_case_count", "Total", "Yes_percentage"}

// ComparisonRecord is one line of a comparison report. A side that did not
// contain the itemset has an empty count field.
type ComparisonRecord struct {
	Level         int
	Itemset       string
	YesCount      float64
	HasYes        bool
	NoCount       float64
	HasNo         bool
	Total         float64
	YesPercentage float64
}

// ComparisonRecords converts joined rows to report records
func ComparisonRecords(rows []model.ComparisonRow, sep string) []ComparisonRecord {
	out := make([]ComparisonRecord, len(rows))
	for i, row := range rows {
		out[i] = ComparisonRecord{
			Level:         row.Level,
			Itemset:       row.Itemset.Format(sep),
			YesCount:      row.YesCount,
			HasYes:        row.InYes,
			NoCount:       row.NoCount,
			HasNo:         row.InNo,
			Total:         row.Total,
			YesPercentage: row.YesPercentage,
		}
	}
	return out
}

// WriteComparison writes joined rows
func WriteComparison(w io.Writer, rows []model.ComparisonRow, sep string) error {
	return WriteComparisonRecords(w, ComparisonRecords(rows, sep))
}

// WriteComparisonRecords writes pre-formatted comparison records
func WriteComparisonRecords(w io.Writer, records []ComparisonRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(comparisonHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		record := []string{
			strconv.Itoa(rec.Level),
			rec.Itemset,
			optionalCount(rec.YesCount, rec.HasYes),
			optionalCount(rec.NoCount, rec.HasNo),
			fmt.Sprintf("%.0f", rec.Total),
			fmt.Sprintf("%.3f", rec.YesPercentage),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadComparison parses a comparison report
func ReadComparison(r io.Reader, source string) ([]ComparisonRecord, error) {
	records, err := readTable(r, source, comparisonHeader)
	if err != nil {
		return nil, err
	}
	out := make([]ComparisonRecord, 0, len(records))
	for i, record := range records {
		p := fieldParser{source: source, row: i + 2}
		rec := ComparisonRecord{
			Level:         p.parseInt(record[0]),
			Itemset:       record[1],
			Total:         p.parseFloat(record[4]),
			YesPercentage: p.parseFloat(record[5]),
		}
		if record[2] != "" {
			rec.YesCount, rec.HasYes = p.parseFloat(record[2]), true
		}
		if record[3] != "" {
			rec.NoCount, rec.HasNo = p.parseFloat(record[3]), true
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, rec)
	}
	return out, nil
}

func optionalCount(v float64, present bool) string {
	if !present {
		return ""
	}
	return fmt.Sprintf("%.0f", v)
}
