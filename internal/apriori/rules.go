package apriori

import (
	"math"
	"sort"

	"github.com/ppiankov/sketchmine/internal/model"
)

// GenerateRules derives association rules from every itemset of level >= 2.
// Consequents grow level by level from single items, and only consequents
// whose rule met minConfidence are extended. Rules whose antecedent or
// consequent is missing from the table are skipped.
func GenerateRules(table *model.ItemsetTable, minConfidence float64) ([]model.Rule, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return nil, model.NewConfigError("min_confidence", "must be in [0, 1], got %g", minConfidence)
	}

	var rules []model.Rule
	for _, level := range table.Levels() {
		if level < 2 {
			continue
		}
		for _, entry := range table.Entries(level) {
			rules = append(rules, rulesForItemset(table, entry, minConfidence)...)
		}
	}

	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Level() != b.Level() {
			return a.Level() < b.Level()
		}
		if c := model.CompareItemsets(a.Itemset(), b.Itemset()); c != 0 {
			return c < 0
		}
		return model.CompareItemsets(a.Antecedent, b.Antecedent) < 0
	})
	return rules, nil
}

func rulesForItemset(table *model.ItemsetTable, entry model.ItemsetCount, minConfidence float64) []model.Rule {
	itemset := entry.Itemset
	var rules []model.Rule

	var consequents []model.Itemset
	for _, item := range itemset {
		consequents = append(consequents, model.Itemset{item})
	}

	for len(consequents) > 0 {
		var confident []model.Itemset
		for _, consequent := range consequents {
			rule, ok := buildRule(table, entry, consequent)
			if !ok || rule.Confidence < minConfidence {
				continue
			}
			rules = append(rules, rule)
			confident = append(confident, consequent)
		}
		if len(confident) == 0 || len(confident[0])+1 >= len(itemset) {
			break
		}
		consequents = GenerateCandidates(confident)
	}
	return rules
}

func buildRule(table *model.ItemsetTable, entry model.ItemsetCount, consequent model.Itemset) (model.Rule, bool) {
	antecedent := entry.Itemset.Without(consequent)
	if len(antecedent) == 0 {
		return model.Rule{}, false
	}
	antecedentCount, ok := table.Count(antecedent)
	if !ok || antecedentCount <= 0 {
		return model.Rule{}, false
	}
	consequentCount, ok := table.Count(consequent)
	if !ok || consequentCount <= 0 || table.Total <= 0 {
		return model.Rule{}, false
	}

	confidence := entry.Count / antecedentCount
	consequentSupport := consequentCount / table.Total
	// estimates may overshoot an exact confidence of 1
	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - consequentSupport) / (1 - confidence)
	}

	return model.Rule{
		Antecedent: antecedent,
		Consequent: consequent,
		Count:      entry.Count,
		Support:    entry.Count / table.Total,
		Confidence: confidence,
		Lift:       confidence / consequentSupport,
		Conviction: conviction,
	}, true
}
