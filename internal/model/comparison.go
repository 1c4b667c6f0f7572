package model

// ComparisonRow is one line of the yes/no comparison report
type ComparisonRow struct {
	Level         int     `json:"level"`
	Itemset       Itemset `json:"itemset"`
	YesCount      float64 `json:"yes_count"`
	NoCount       float64 `json:"no_count"`
	Total         float64 `json:"total"`
	YesPercentage float64 `json:"yes_percentage"`
	InYes         bool    `json:"in_yes"`
	InNo          bool    `json:"in_no"`
}
