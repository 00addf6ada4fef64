package loader

import (
	"math"
	"strconv"
	"testing"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDataset builds n rows where the first minority rows are labelled B.
func newDataset(t *testing.T, n, minority int) *data.Dataset {
	schema, err := data.NewSchema(
		data.Field{Name: "x", Kind: data.Numeric},
		data.Field{Name: "class", Kind: data.Categorical},
	)
	require.NoError(t, err)
	ds := data.New(schema)
	for i := range n {
		label := "A"
		if i < minority {
			label = "B"
		}
		require.NoError(t, ds.Append([]string{strconv.Itoa(i), label}))
	}
	return ds
}

func proportion(t *testing.T, ds *data.Dataset, label string) float64 {
	labels, err := ds.Strings("class")
	require.NoError(t, err)
	return float64(lo.Count(labels, label)) / float64(len(labels))
}

func TestTrainValTestSplitSizes(t *testing.T) {
	ds := newDataset(t, 1000, 500)
	train, val, test, err := TrainValTestSplit(ds, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 600, train.Len())
	assert.Equal(t, 200, val.Len())
	assert.Equal(t, 200, test.Len())

	all := append(append(train.Index(), val.Index()...), test.Index()...)
	assert.Len(t, lo.Uniq(all), 1000)
	assert.ElementsMatch(t, ds.Index(), all)
}

func TestTrainValTestSplitDeterministic(t *testing.T) {
	ds := newDataset(t, 300, 90)
	opts := DefaultOptions()
	opts.Stratify = "class"
	train1, val1, test1, err := TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	train2, val2, test2, err := TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	assert.Equal(t, train1.Index(), train2.Index())
	assert.Equal(t, val1.Index(), val2.Index())
	assert.Equal(t, test1.Index(), test2.Index())

	opts.Seed = 7
	train3, _, _, err := TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	assert.NotEqual(t, train1.Index(), train3.Index())
}

func TestTrainValTestSplitStratified(t *testing.T) {
	ds := newDataset(t, 1000, 300)
	opts := DefaultOptions()
	opts.Stratify = "class"
	train, val, test, err := TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	assert.Equal(t, 600, train.Len())
	assert.Equal(t, 200, val.Len())
	assert.Equal(t, 200, test.Len())
	for _, subset := range []*data.Dataset{train, val, test} {
		assert.InDelta(t, 0.3, proportion(t, subset, "B"), 0.05)
		assert.InDelta(t, 0.7, proportion(t, subset, "A"), 0.05)
	}
	all := append(append(train.Index(), val.Index()...), test.Index()...)
	assert.ElementsMatch(t, ds.Index(), all)
}

func TestTrainTestSplitWithoutShuffle(t *testing.T) {
	ds := newDataset(t, 10, 0)
	opts := DefaultOptions()
	opts.Shuffle = false
	train, test, err := TrainTestSplit(ds, 0.25, opts)
	require.NoError(t, err)
	// ceil(2.5) rows go to test
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, train.Index())
	assert.Equal(t, []int{7, 8, 9}, test.Index())
}

func TestTrainValTestSplitWithoutShuffle(t *testing.T) {
	ds := newDataset(t, 11, 0)
	opts := DefaultOptions()
	opts.Shuffle = false
	train, val, test, err := TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	// ceil(4.4) rows form the pool, ceil(2.5) of them go to test
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, train.Index())
	assert.Equal(t, []int{6, 7}, val.Index())
	assert.Equal(t, []int{8, 9, 10}, test.Index())

	opts.ValSize = 0.75
	_, val, test, err = TrainValTestSplit(ds, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 7, 8}, val.Index())
	assert.Equal(t, []int{9, 10}, test.Index())
}

func TestTrainTestSplitStratifiedKeepsRareClass(t *testing.T) {
	ds := newDataset(t, 100, 2)
	opts := DefaultOptions()
	opts.Stratify = "class"
	train, test, err := TrainTestSplit(ds, 0.2, opts)
	require.NoError(t, err)
	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, test.Len())
	assert.Equal(t, 1, int(math.Round(proportion(t, train, "B")*80)))
	assert.Equal(t, 1, int(math.Round(proportion(t, test, "B")*20)))
}

func TestSplitInvalidConfiguration(t *testing.T) {
	ds := newDataset(t, 100, 30)
	for name, opts := range map[string]Options{
		"zero test size":       {Seed: 1, Shuffle: true, TestSize: 0, ValSize: 0.5},
		"whole test size":      {Seed: 1, Shuffle: true, TestSize: 1, ValSize: 0.5},
		"negative val size":    {Seed: 1, Shuffle: true, TestSize: 0.4, ValSize: -0.1},
		"nan val size":         {Seed: 1, Shuffle: true, TestSize: 0.4, ValSize: math.NaN()},
		"missing stratify":     {Seed: 1, Shuffle: true, TestSize: 0.4, ValSize: 0.5, Stratify: "family"},
		"numeric stratify":     {Seed: 1, Shuffle: true, TestSize: 0.4, ValSize: 0.5, Stratify: "x"},
		"stratify no shuffle":  {Seed: 1, Shuffle: false, TestSize: 0.4, ValSize: 0.5, Stratify: "class"},
		"empty train by ceil":  {Seed: 1, Shuffle: true, TestSize: 0.999, ValSize: 0.5},
		"empty val by ceil":    {Seed: 1, Shuffle: true, TestSize: 0.01, ValSize: 0.999},
		"stratified tiny pool": {Seed: 1, Shuffle: true, TestSize: 0.01, ValSize: 0.5, Stratify: "class"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := TrainValTestSplit(ds, opts)
			assert.True(t, errors.Is(err, core.InvalidConfiguration), err)
		})
	}
}

func TestSplitRareClass(t *testing.T) {
	opts := DefaultOptions()
	opts.Stratify = "class"

	// two rows cannot reach train, val and test
	_, _, _, err := TrainValTestSplit(newDataset(t, 100, 2), opts)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
	_, _, _, err = TrainValTestSplit(newDataset(t, 100, 3), opts)
	assert.NoError(t, err)

	_, _, err = TrainTestSplit(newDataset(t, 100, 1), 0.3, opts)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestKFold(t *testing.T) {
	ds := newDataset(t, 23, 5)
	trains, tests, err := KFold(ds, 5, 42)
	require.NoError(t, err)
	require.Len(t, tests, 5)
	var covered []int
	for f := range tests {
		assert.Equal(t, 23, trains[f].Len()+tests[f].Len())
		assert.Empty(t, lo.Intersect(trains[f].Index(), tests[f].Index()))
		covered = append(covered, tests[f].Index()...)
	}
	assert.ElementsMatch(t, ds.Index(), covered)

	_, _, err = KFold(ds, 1, 42)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
	_, _, err = KFold(ds, 24, 42)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}
