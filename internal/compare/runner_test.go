package compare

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sketchmine/internal/config"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

func rangeBitmap(from, to uint64) *sketch.Bitmap {
	var ids []uint64
	for i := from; i < to; i++ {
		ids = append(ids, i)
	}
	return sketch.NewBitmap(ids...)
}

// 0..99; churned = 0..39; mobile = 0..29 and 60..79; promo = 0..9; noise = 90..99
func shopPopulation(t *testing.T) *population.Population {
	t.Helper()
	mobile, err := rangeBitmap(0, 30).Union(rangeBitmap(60, 80))
	require.NoError(t, err)
	pop, err := population.New("shop", rangeBitmap(0, 100), map[string]sketch.Sketch{
		"churned": rangeBitmap(0, 40),
		"mobile":  mobile,
		"promo":   rangeBitmap(0, 10),
		"noise":   rangeBitmap(90, 100),
	})
	require.NoError(t, err)
	return pop
}

func staticLoader(pops map[string]*population.Population) Loader {
	return func(ctx context.Context, ref string) (*population.Population, error) {
		pop, ok := pops[ref]
		if !ok {
			return nil, &model.DataError{Source: ref, Err: fmt.Errorf("no such source")}
		}
		return pop, nil
	}
}

func options() config.CompareOptions {
	return config.CompareOptions{
		MinSupportYes: 0.2,
		MinSupportNo:  0.2,
		MaxLevels:     3,
		ItemSeparator: " && ",
	}
}

func TestRunner_OnePivot(t *testing.T) {
	runner := &Runner{Load: staticLoader(map[string]*population.Population{"shop.csv": shopPopulation(t)}), Workers: 2}

	res, err := runner.Run(context.Background(), config.OnePivot{CompareOptions: options(), Input: "shop.csv", Pivot: "churned"})
	require.NoError(t, err)
	assert.Equal(t, config.ModeOnePivot, res.Mode)

	// yes side: members 0..39
	assert.Equal(t, 40.0, res.Yes.Total)
	mobile, ok := res.Yes.Count(model.NewItemset("mobile"))
	require.True(t, ok)
	assert.Equal(t, 30.0, mobile)
	assert.False(t, res.Yes.Has(model.NewItemset("churned")))

	// no side total is the union of remaining sketches: mobile 60..79, noise 90..99
	assert.Equal(t, 30.0, res.No.Total)
	noMobile, ok := res.No.Count(model.NewItemset("mobile"))
	require.True(t, ok)
	assert.Equal(t, 20.0, noMobile)

	var mobileRow *model.ComparisonRow
	for i := range res.Rows {
		if res.Rows[i].Itemset.Equal(model.NewItemset("mobile")) {
			mobileRow = &res.Rows[i]
		}
	}
	require.NotNil(t, mobileRow)
	assert.Equal(t, 50.0, mobileRow.Total)
	assert.Equal(t, 60.0, mobileRow.YesPercentage)
}

func TestRunner_TwoSourcesWithExclusionAndFilter(t *testing.T) {
	pops := map[string]*population.Population{"a.csv": shopPopulation(t), "b.csv": shopPopulation(t)}
	runner := &Runner{Load: staticLoader(pops)}

	opts := options()
	opts.ExcludedItems = []string{"noise"}
	opts.FilterItem = "mobile"
	opts.UseEquiJoin = true

	res, err := runner.Run(context.Background(), config.TwoSources{CompareOptions: opts, YesInput: "a.csv", NoInput: "b.csv"})
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Yes.Total)
	assert.False(t, res.Yes.Has(model.NewItemset("noise")))
	assert.False(t, res.Yes.Has(model.NewItemset("mobile")))
	for _, row := range res.Rows {
		assert.True(t, row.InYes && row.InNo)
		assert.Equal(t, 50.0, row.YesPercentage)
	}
}

func TestRunner_TwoPivots(t *testing.T) {
	runner := &Runner{Load: staticLoader(map[string]*population.Population{"shop.csv": shopPopulation(t)})}

	res, err := runner.Run(context.Background(), config.TwoPivots{CompareOptions: options(), Input: "shop.csv", PivotYes: "churned", PivotNo: "mobile"})
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.Yes.Total)
	assert.Equal(t, 50.0, res.No.Total)
	assert.False(t, res.No.Has(model.NewItemset("churned")))
}

func TestRunner_Errors(t *testing.T) {
	runner := &Runner{Load: staticLoader(map[string]*population.Population{"shop.csv": shopPopulation(t)})}

	_, err := runner.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	_, err = runner.Run(context.Background(), config.OnePivot{CompareOptions: options(), Input: "shop.csv", Pivot: "absent"})
	assert.True(t, errors.Is(err, model.ErrData))

	_, err = runner.Run(context.Background(), config.TwoSources{CompareOptions: options(), YesInput: "shop.csv", NoInput: "missing.csv"})
	assert.True(t, errors.Is(err, model.ErrData))

	bad := options()
	bad.MinSupportNo = 2
	_, err = runner.Run(context.Background(), config.OnePivot{CompareOptions: bad, Input: "shop.csv", Pivot: "churned"})
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}
