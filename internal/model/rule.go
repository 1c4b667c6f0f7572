package model

import "math"

// Rule is an association rule antecedent => consequent. All metrics are
// derived from the itemset table it was generated from.
type Rule struct {
	Antecedent Itemset `json:"antecedent"`
	Consequent Itemset `json:"consequent"`
	Count      float64 `json:"count"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
	Conviction float64 `json:"conviction"`
}

// Level is the size of the full rule itemset
func (r Rule) Level() int {
	return len(r.Antecedent) + len(r.Consequent)
}

// Itemset returns antecedent ∪ consequent
func (r Rule) Itemset() Itemset {
	return r.Antecedent.Union(r.Consequent)
}

// IsCertain reports whether the rule has confidence 1 (infinite conviction)
func (r Rule) IsCertain() bool {
	return math.IsInf(r.Conviction, 1)
}
