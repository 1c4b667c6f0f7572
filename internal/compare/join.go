// Package compare mines a yes and a no population and joins the two itemset
// tables into one comparison report.
package compare

import (
	"math"
	"sort"

	"github.com/ppiankov/sketchmine/internal/model"
)

// JoinOptions selects the join policy
type JoinOptions struct {
	// EquiJoin keeps only itemsets present on both sides
	EquiJoin bool
}

// Join merges the yes and no tables keyed by (level, itemset). Missing counts
// are zero with the matching presence flag cleared. Rows are ordered by level
// ascending, yes percentage descending, then itemset ascending.
func Join(yes, no *model.ItemsetTable, opts JoinOptions) []model.ComparisonRow {
	rows := make(map[string]*model.ComparisonRow)
	var order []string

	collect := func(table *model.ItemsetTable, isYes bool) {
		if table == nil {
			return
		}
		for _, level := range table.Levels() {
			for _, entry := range table.Entries(level) {
				key := entry.Itemset.Key()
				row, ok := rows[key]
				if !ok {
					row = &model.ComparisonRow{Level: level, Itemset: entry.Itemset}
					rows[key] = row
					order = append(order, key)
				}
				if isYes {
					row.YesCount = entry.Count
					row.InYes = true
				} else {
					row.NoCount = entry.Count
					row.InNo = true
				}
			}
		}
	}
	collect(yes, true)
	collect(no, false)

	out := make([]model.ComparisonRow, 0, len(order))
	for _, key := range order {
		row := rows[key]
		if opts.EquiJoin && !(row.InYes && row.InNo) {
			continue
		}
		row.Total = row.YesCount + row.NoCount
		row.YesPercentage = YesPercentage(row.YesCount, row.Total)
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.YesPercentage != b.YesPercentage {
			return a.YesPercentage > b.YesPercentage
		}
		return model.CompareItemsets(a.Itemset, b.Itemset) < 0
	})
	return out
}

// YesPercentage returns 100*yes/total rounded to three decimals, 0 when total is 0
func YesPercentage(yes, total float64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(100*yes/total*1000) / 1000
}

// Presence counts rows present on both sides, yes only and no only
func Presence(rows []model.ComparisonRow) (both, yesOnly, noOnly int) {
	for _, row := range rows {
		switch {
		case row.InYes && row.InNo:
			both++
		case row.InYes:
			yesOnly++
		default:
			noOnly++
		}
	}
	return both, yesOnly, noOnly
}
