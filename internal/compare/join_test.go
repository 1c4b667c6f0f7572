package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/model"
)

func table(total float64, entries map[string]float64) *model.ItemsetTable {
	t := model.NewItemsetTable(total)
	for key, count := range entries {
		t.Set(model.NewItemset(splitKey(key)...), count)
	}
	return t
}

func splitKey(key string) []string {
	var items []string
	for _, r := range key {
		items = append(items, string(r))
	}
	return items
}

// yes = {A:100, B:80, AB:60} of 200; no = {A:50, C:40, AC:30} of 100
func exampleTables() (*model.ItemsetTable, *model.ItemsetTable) {
	yes := table(200, map[string]float64{"A": 100, "B": 80, "AB": 60})
	no := table(100, map[string]float64{"A": 50, "C": 40, "AC": 30})
	return yes, no
}

func TestJoin_FullOuter(t *testing.T) {
	yes, no := exampleTables()
	rows := Join(yes, no, JoinOptions{})
	require.Len(t, rows, 5)

	// level 1 ordered by yes percentage desc
	assert.Equal(t, model.Itemset{"B"}, rows[0].Itemset)
	assert.Equal(t, 80.0, rows[0].YesCount)
	assert.Equal(t, 0.0, rows[0].NoCount)
	assert.Equal(t, 80.0, rows[0].Total)
	assert.Equal(t, 100.0, rows[0].YesPercentage)
	assert.True(t, rows[0].InYes)
	assert.False(t, rows[0].InNo)

	assert.Equal(t, model.Itemset{"A"}, rows[1].Itemset)
	assert.Equal(t, 150.0, rows[1].Total)
	assert.Equal(t, 66.667, rows[1].YesPercentage)

	assert.Equal(t, model.Itemset{"C"}, rows[2].Itemset)
	assert.Equal(t, 40.0, rows[2].NoCount)
	assert.Equal(t, 0.0, rows[2].YesPercentage)
	assert.False(t, rows[2].InYes)

	// level 2
	assert.Equal(t, model.NewItemset("A", "B"), rows[3].Itemset)
	assert.Equal(t, 2, rows[3].Level)
	assert.Equal(t, 100.0, rows[3].YesPercentage)
	assert.Equal(t, model.NewItemset("A", "C"), rows[4].Itemset)
	assert.Equal(t, 0.0, rows[4].YesPercentage)
}

func TestJoin_EquiJoin(t *testing.T) {
	yes, no := exampleTables()
	rows := Join(yes, no, JoinOptions{EquiJoin: true})
	require.Len(t, rows, 1)
	assert.Equal(t, model.Itemset{"A"}, rows[0].Itemset)
	assert.True(t, rows[0].InYes && rows[0].InNo)
}

func TestJoin_Cardinality(t *testing.T) {
	yes := table(10, map[string]float64{"A": 1, "B": 2, "C": 3, "AB": 1, "BC": 1})
	no := table(10, map[string]float64{"B": 4, "C": 5, "D": 6, "BC": 2, "CD": 2})

	full := Join(yes, no, JoinOptions{})
	equi := Join(yes, no, JoinOptions{EquiJoin: true})

	// union = A B C D AB BC CD; intersection = B C BC
	assert.Len(t, full, 7)
	assert.Len(t, equi, 3)

	both, yesOnly, noOnly := Presence(full)
	assert.Equal(t, 3, both)
	assert.Equal(t, 2, yesOnly)
	assert.Equal(t, 2, noOnly)
}

func TestJoin_TieBreakByItemset(t *testing.T) {
	yes := table(10, map[string]float64{"C": 5, "A": 5, "B": 5})
	no := table(10, map[string]float64{"C": 5, "A": 5, "B": 5})

	rows := Join(yes, no, JoinOptions{})
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Itemset[0])
	assert.Equal(t, "B", rows[1].Itemset[0])
	assert.Equal(t, "C", rows[2].Itemset[0])
}

func TestJoin_Empty(t *testing.T) {
	assert.Empty(t, Join(model.NewItemsetTable(0), model.NewItemsetTable(0), JoinOptions{}))
	assert.Empty(t, Join(nil, nil, JoinOptions{}))
}

func TestYesPercentage(t *testing.T) {
	assert.Equal(t, 0.0, YesPercentage(0, 0))
	assert.Equal(t, 33.333, YesPercentage(1, 3))
	assert.Equal(t, 66.667, YesPercentage(2, 3))
	assert.Equal(t, 100.0, YesPercentage(5, 5))
}
