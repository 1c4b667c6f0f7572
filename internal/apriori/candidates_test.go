package apriori

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/sketchmine/internal/model"
)

func sets(raw ...[]string) []model.Itemset {
	out := make([]model.Itemset, len(raw))
	for i, items := range raw {
		out[i] = model.NewItemset(items...)
	}
	return out
}

func TestGenerateCandidates_Level2(t *testing.T) {
	got := GenerateCandidates(sets([]string{"C"}, []string{"A"}, []string{"B"}))
	assert.Equal(t, sets([]string{"A", "B"}, []string{"A", "C"}, []string{"B", "C"}), got)
}

func TestGenerateCandidates_Prune(t *testing.T) {
	// (B,C) is missing, so (A,B,C) must be pruned; (A,B,D) survives
	retained := sets(
		[]string{"A", "B"},
		[]string{"A", "C"},
		[]string{"A", "D"},
		[]string{"B", "D"},
	)
	got := GenerateCandidates(retained)
	assert.Equal(t, sets([]string{"A", "B", "D"}), got)
}

func TestGenerateCandidates_Empty(t *testing.T) {
	assert.Empty(t, GenerateCandidates(nil))
	assert.Empty(t, GenerateCandidates(sets([]string{"A"})))
}

func TestGenerateCandidates_Deterministic(t *testing.T) {
	retained := sets(
		[]string{"a", "b", "c"},
		[]string{"a", "b", "d"},
		[]string{"a", "c", "d"},
		[]string{"b", "c", "d"},
		[]string{"a", "b", "e"},
		[]string{"a", "c", "e"},
		[]string{"b", "c", "e"},
	)
	want := GenerateCandidates(retained)
	assert.Equal(t, sets([]string{"a", "b", "c", "d"}, []string{"a", "b", "c", "e"}), want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.Itemset(nil), retained...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		// duplicates in the input do not change the output
		shuffled = append(shuffled, shuffled[0])
		assert.Equal(t, want, GenerateCandidates(shuffled))
	}
}
