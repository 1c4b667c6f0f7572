package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ppiankov/sketchmine/internal/model"
)

var ruleHeader = []string{"level", "frequent_itemset", "count", "support", "confidence", "lift", "conviction"}

// RuleRow is one line of a rules report
type RuleRow struct {
	Level      int
	Itemset    string
	Count      float64
	Support    float64
	Confidence float64
	Lift       float64
	Conviction float64
}

// RuleRows converts rules to report rows keeping their order
func RuleRows(rules []model.Rule, sep string) []RuleRow {
	rows := make([]RuleRow, len(rules))
	for i, rule := range rules {
		rows[i] = RuleRow{
			Level:      rule.Level(),
			Itemset:    rule.Itemset().Format(sep),
			Count:      rule.Count,
			Support:    rule.Support,
			Confidence: rule.Confidence,
			Lift:       rule.Lift,
			Conviction: rule.Conviction,
		}
	}
	return rows
}

// WriteRules writes rules; certain rules have conviction +Inf
func WriteRules(w io.Writer, rules []model.Rule, sep string) error {
	return WriteRuleRows(w, RuleRows(rules, sep))
}

// WriteRuleRows writes pre-formatted rule rows
func WriteRuleRows(w io.Writer, rows []RuleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ruleHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Level),
			row.Itemset,
			fmt.Sprintf("%.1f", row.Count),
			fmt.Sprintf("%.6f", row.Support),
			fmt.Sprintf("%.6f", row.Confidence),
			fmt.Sprintf("%.6f", row.Lift),
			fmt.Sprintf("%.6f", row.Conviction),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRules parses a rules report
func ReadRules(r io.Reader, source string) ([]RuleRow, error) {
	records, err := readTable(r, source, ruleHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]RuleRow, 0, len(records))
	for i, record := range records {
		p := fieldParser{source: source, row: i + 2}
		row := RuleRow{
			Level:      p.parseInt(record[0]),
			Itemset:    record[1],
			Count:      p.parseFloat(record[2]),
			Support:    p.parseFloat(record[3]),
			Confidence: p.parseFloat(record[4]),
			Lift:       p.parseFloat(record[5]),
			Conviction: p.parseFloat(record[6]),
		}
		if p.err != nil {
			return nil, p.err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
