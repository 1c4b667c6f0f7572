package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return Execute()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Commands share package-level flag state, so the pipeline runs as one test.
func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := func(name string) string { return filepath.Join(dir, name) }

	require.NoError(t, os.WriteFile(path("baskets.csv"),
		[]byte("eggs,bacon,soup\neggs,bacon,apple\nsoup,bacon,banana\n"), 0644))

	t.Run("convert", func(t *testing.T) {
		require.NoError(t, execute(t, "convert", path("baskets.csv"), "-o", path("sketches.csv")))
		lines := strings.Split(strings.TrimSpace(readFile(t, path("sketches.csv"))), "\n")
		assert.Len(t, lines, 6)
		assert.True(t, strings.HasPrefix(lines[0], "total,"))
	})

	t.Run("mine", func(t *testing.T) {
		require.NoError(t, execute(t, "mine", path("sketches.csv"),
			"--min-support", "0.5",
			"-o", path("itemsets.csv"),
			"--rules", path("rules.csv"),
			"--metrics-file", path("metrics.prom"),
		))
		itemsets := readFile(t, path("itemsets.csv"))
		assert.True(t, strings.HasPrefix(itemsets, "level,frequent_itemset,count,support\n"))
		assert.Contains(t, itemsets, "1,bacon,3.0,1.000000\n")
		assert.Contains(t, itemsets, "2,bacon&&eggs,2.0,0.666667\n")
		assert.NotContains(t, itemsets, "apple")

		assert.Contains(t, readFile(t, path("rules.csv")), "conviction")
		assert.Contains(t, readFile(t, path("metrics.prom")), "sketchmine_candidates_total")
	})

	t.Run("compare", func(t *testing.T) {
		require.NoError(t, execute(t, "compare",
			"--input", path("sketches.csv"),
			"--pivot-yes", "eggs",
			"--min-support-yes", "0.5",
			"--min-support-no", "0.5",
			"-o", path("joined.csv"),
			"--yes-itemsets", path("yes.csv"),
			"--no-itemsets", path("no.csv"),
		))
		joined := readFile(t, path("joined.csv"))
		assert.True(t, strings.HasPrefix(joined, "Level,Frequent_itemset,Yes_case_count,No_case_count,Total,Yes_percentage\n"))
		assert.FileExists(t, path("yes.csv"))
		assert.FileExists(t, path("no.csv"))
	})

	t.Run("join", func(t *testing.T) {
		require.NoError(t, execute(t, "join", path("yes.csv"), path("no.csv"),
			"--separator", " && ", "-o", path("rejoined.csv")))
		assert.Equal(t, readFile(t, path("joined.csv")), readFile(t, path("rejoined.csv")))
	})

	t.Run("join rejects separator mismatch", func(t *testing.T) {
		err := execute(t, "join", path("itemsets.csv"), path("itemsets.csv"),
			"--separator", " && ", "-o", path("mismatch.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrData))
		assert.NoFileExists(t, path("mismatch.csv"))

		require.NoError(t, execute(t, "join", path("itemsets.csv"), path("itemsets.csv"),
			"--separator", "&&", "-o", path("self.csv")))
		joined := readFile(t, path("self.csv"))
		assert.Contains(t, joined, "2,bacon&&eggs,2,2,4,50.000\n")
		assert.NotContains(t, joined, "1,bacon&&eggs")
	})

	t.Run("store", func(t *testing.T) {
		db := path("store.db")
		require.NoError(t, execute(t, "store", "import", path("sketches.csv"), "--database", db, "--name", "baskets"))
		require.NoError(t, execute(t, "mine", db+"#baskets",
			"--min-support", "0.5",
			"-o", path("stored_itemsets.csv"),
			"--database", db,
		))
		assert.Equal(t, readFile(t, path("itemsets.csv")), readFile(t, path("stored_itemsets.csv")))

		store, err := storage.Open(context.Background(), db)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		runs, err := store.ListRuns(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "mine", runs[0].Command)
		assert.Equal(t, 5, runs[0].Itemsets)
	})

	t.Run("invalid config", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path("empty.yaml"), []byte("logging:\n  level: warn\n"), 0644))
		err := execute(t, "--config", path("empty.yaml"), "mine", "--min-support", "2")
		assert.Error(t, err)
	})
}
