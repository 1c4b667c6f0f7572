package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/apriori"
)

func TestObserveLevel(t *testing.T) {
	m := New()
	m.ObserveLevel(apriori.LevelStats{Population: "yes", Level: 2, Candidates: 10, Retained: 4, Duration: time.Millisecond})
	m.ObserveLevel(apriori.LevelStats{Population: "yes", Level: 2, Candidates: 5, Retained: 3})

	assert.Equal(t, 15.0, testutil.ToFloat64(m.candidates.WithLabelValues("yes", "2")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.retained.WithLabelValues("yes", "2")))
}

func TestCountersAndTextfile(t *testing.T) {
	m := New()
	m.AddRules(7)
	m.SetComparisonRows(3, 2, 1)
	m.ObservePopulation("no", 100)
	m.Stage("mine")()

	assert.Equal(t, 7.0, testutil.ToFloat64(m.rules))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rows.WithLabelValues("yes_only")))

	path := filepath.Join(t.TempDir(), "metrics", "sketchmine.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sketchmine_rules_total 7")
	assert.Contains(t, string(data), `sketchmine_population_total{population="no"} 100`)
}
