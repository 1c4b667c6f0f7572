package apriori

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/model"
)

func TestGenerateRules_Example(t *testing.T) {
	table, err := (&Miner{MinSupport: 0.5, MaxLevel: 3}).Mine(context.Background(), examplePopulation(t))
	require.NoError(t, err)

	rules, err := GenerateRules(table, 0.5)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	// A => B
	ab := rules[0]
	assert.Equal(t, model.Itemset{"A"}, ab.Antecedent)
	assert.Equal(t, model.Itemset{"B"}, ab.Consequent)
	assert.Equal(t, 5.0, ab.Count)
	assert.InDelta(t, 0.5, ab.Support, 1e-9)
	assert.InDelta(t, 5.0/7.0, ab.Confidence, 1e-9)
	assert.InDelta(t, (5.0/7.0)/0.5, ab.Lift, 1e-9)
	assert.InDelta(t, 0.5/(1-5.0/7.0), ab.Conviction, 1e-9)

	// B => A is certain
	ba := rules[1]
	assert.Equal(t, model.Itemset{"B"}, ba.Antecedent)
	assert.Equal(t, 1.0, ba.Confidence)
	assert.True(t, math.IsInf(ba.Conviction, 1))
	assert.True(t, ba.IsCertain())
	assert.Equal(t, 2, ba.Level())
}

func TestGenerateRules_MinConfidence(t *testing.T) {
	table, err := (&Miner{MinSupport: 0.5, MaxLevel: 3}).Mine(context.Background(), examplePopulation(t))
	require.NoError(t, err)

	rules, err := GenerateRules(table, 0.9)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.Itemset{"B"}, rules[0].Antecedent)

	_, err = GenerateRules(table, -0.1)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestGenerateRules_Level3(t *testing.T) {
	table, err := (&Miner{MinSupport: 0.3, MaxLevel: 3}).Mine(context.Background(), examplePopulation(t))
	require.NoError(t, err)

	rules, err := GenerateRules(table, 0)
	require.NoError(t, err)

	// every level-3 rule: 3 single consequents and 3 pair consequents
	var level3 int
	for _, r := range rules {
		if r.Level() == 3 {
			level3++
			assert.Equal(t, model.NewItemset("A", "B", "C"), r.Itemset())
		}
	}
	assert.Equal(t, 6, level3)

	for i := 1; i < len(rules); i++ {
		assert.LessOrEqual(t, rules[i-1].Level(), rules[i].Level())
	}
}

func TestGenerateRules_MissingAntecedentSkipped(t *testing.T) {
	table := model.NewItemsetTable(10)
	table.Set(model.NewItemset("A"), 6)
	table.Set(model.NewItemset("A", "B"), 4)

	rules, err := GenerateRules(table, 0)
	require.NoError(t, err)
	// B => A needs count(B) and A => B needs count(B) for lift
	assert.Empty(t, rules)
}

// bruteForceRules enumerates every antecedent/consequent split of every
// itemset of level >= 2
func bruteForceRules(table *model.ItemsetTable, minConfidence float64) map[string]model.Rule {
	out := make(map[string]model.Rule)
	for _, level := range table.Levels() {
		if level < 2 {
			continue
		}
		for _, entry := range table.Entries(level) {
			n := len(entry.Itemset)
			for mask := 1; mask < 1<<n-1; mask++ {
				var consequent model.Itemset
				for i, item := range entry.Itemset {
					if mask&(1<<i) != 0 {
						consequent = append(consequent, item)
					}
				}
				rule, ok := buildRule(table, entry, consequent)
				if !ok || rule.Confidence < minConfidence {
					continue
				}
				out[ruleKey(rule)] = rule
			}
		}
	}
	return out
}

func ruleKey(r model.Rule) string {
	return r.Antecedent.Key() + "=>" + r.Consequent.Key()
}

func TestGenerateRules_MatchesBruteForce(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		table, err := (&Miner{MinSupport: 0.1, MaxLevel: 5, Workers: 4}).Mine(context.Background(), randomPopulation(t, seed))
		require.NoError(t, err)

		for _, minConfidence := range []float64{0, 0.3, 0.6, 0.9} {
			rules, err := GenerateRules(table, minConfidence)
			require.NoError(t, err)

			want := bruteForceRules(table, minConfidence)
			got := make(map[string]model.Rule, len(rules))
			for _, rule := range rules {
				got[ruleKey(rule)] = rule
			}
			assert.Len(t, rules, len(got), "duplicate rules for seed %d", seed)
			assert.Equal(t, want, got, "seed %d, min confidence %g", seed, minConfidence)
		}
	}
}
