package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

func codec(t *testing.T) sketch.Codec {
	t.Helper()
	c, err := sketch.NewCodec(sketch.KindBitmap, sketch.DefaultLgK)
	require.NoError(t, err)
	return c
}

func TestReadTransactions_CSV(t *testing.T) {
	input := "id,a,b\neggs, bacon ,soup\n\neggs,bacon,,apple\nsoup,bacon,banana\n"
	got, err := ReadTransactions(strings.NewReader(input), "tx.csv", Options{SkipHeader: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"eggs", "bacon", "soup"},
		{"eggs", "bacon", "apple"},
		{"soup", "bacon", "banana"},
	}, got)
}

func TestReadTransactions_Delimiter(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader("a;b\nc\n"), "tx.csv", Options{Delimiter: ";"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, got)

	_, err = ReadTransactions(strings.NewReader(""), "tx.csv", Options{Delimiter: ";;"})
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestReadTransactions_List(t *testing.T) {
	got, err := ReadTransactions(strings.NewReader("eggs bacon\n   \nsoup\tbacon\n"), "tx.txt", Options{Format: FormatList})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"eggs", "bacon"}, {"soup", "bacon"}}, got)

	_, err = ReadTransactions(strings.NewReader(""), "tx.txt", Options{Format: "xml"})
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestBuild(t *testing.T) {
	pop, err := Build("tx", [][]string{
		{"eggs", "bacon", "soup"},
		{"eggs", "bacon", "apple"},
		{"soup", "bacon", "banana"},
		{"eggs", "eggs"},
	}, codec(t))
	require.NoError(t, err)

	assert.Equal(t, 4.0, pop.TotalEstimate())
	assert.Equal(t, []string{"apple", "bacon", "banana", "eggs", "soup"}, pop.Items())

	eggs, err := pop.Estimate("eggs")
	require.NoError(t, err)
	assert.Equal(t, 3.0, eggs)

	both, err := pop.IntersectEstimate(model.NewItemset("bacon", "eggs"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, both)

	_, err = Build("empty", nil, codec(t))
	assert.True(t, errors.Is(err, model.ErrData))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\nb,c\n"), 0644))

	pop, n, err := File(path, Options{}, codec(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2.0, pop.TotalEstimate())
}
