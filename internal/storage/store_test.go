package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sketches.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCodec(t *testing.T) sketch.Codec {
	t.Helper()
	codec, err := sketch.NewCodec(sketch.KindBitmap, sketch.DefaultLgK)
	require.NoError(t, err)
	return codec
}

func TestSaveLoadPopulation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	codec := testCodec(t)

	pop, err := population.New("src", sketch.NewBitmap(1, 2, 3, 4, 5), map[string]sketch.Sketch{
		"color=red":  sketch.NewBitmap(1, 2),
		"size=large": sketch.NewBitmap(2, 3, 4),
	})
	require.NoError(t, err)
	require.NoError(t, s.SavePopulation(ctx, "shop", pop, codec))

	loaded, err := s.LoadPopulation(ctx, "shop", codec)
	require.NoError(t, err)
	assert.Equal(t, []string{"color=red", "size=large"}, loaded.Items())
	assert.Equal(t, 5.0, loaded.TotalEstimate())
	n, err := loaded.Estimate("size=large")
	require.NoError(t, err)
	assert.Equal(t, 3.0, n)

	// replace semantics
	smaller, err := population.New("src", nil, map[string]sketch.Sketch{"x": sketch.NewBitmap(9)})
	require.NoError(t, err)
	require.NoError(t, s.SavePopulation(ctx, "shop", smaller, codec))
	loaded, err = s.LoadPopulation(ctx, "shop", codec)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, loaded.Items())

	infos, err := s.ListPopulations(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "shop", infos[0].Name)
	assert.Equal(t, 1, infos[0].Items)
	assert.Equal(t, sketch.KindBitmap, infos[0].Kind)

	require.NoError(t, s.DeletePopulation(ctx, "shop"))
	_, err = s.LoadPopulation(ctx, "shop", codec)
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestLoadPopulation_Missing(t *testing.T) {
	_, err := openStore(t).LoadPopulation(context.Background(), "nope", testCodec(t))
	var dataErr *model.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Contains(t, dataErr.Source, "#nope")
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	start := time.Now().Add(-time.Second)
	id, err := s.RecordRun(ctx, RunRecord{
		Command:    "mine",
		Population: "shop",
		Parameters: map[string]any{"min_support": 0.5},
		Total:      10,
		Itemsets:   3,
		Rules:      2,
		StartedAt:  start,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.RecordRun(ctx, RunRecord{ID: "not-a-uuid", Command: "mine"})
	assert.Error(t, err)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, 0.5, runs[0].Parameters["min_support"])
	assert.Equal(t, 3, runs[0].Itemsets)
	assert.Equal(t, start.UnixMilli(), runs[0].StartedAt.UnixMilli())
}
