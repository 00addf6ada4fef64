package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns n rows of three features where the class is x0 > 0.5, with a
// gap around the boundary so every tree can find it.
func separable(n int, seed int64) ([][]float64, []int) {
	rnd := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		x0 := rnd.Float64() * 0.4
		if i%2 == 1 {
			x0 += 0.6
			y[i] = 1
		}
		X[i] = []float64{x0, rnd.Float64(), rnd.NormFloat64()}
	}
	return X, y
}

func TestDecisionTreeClassifierSeparable(t *testing.T) {
	X, y := separable(200, 1)
	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, []int{0, 1}, tree.Classes())
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 2, tree.Leaves())
	assert.Equal(t, y, tree.Predict(X))

	imp := tree.FeatureImportances()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1, imp[0], 1e-12)
	assert.Zero(t, imp[1])

	proba := tree.PredictProba([][]float64{{0.1, 0, 0}, {0.9, 0, 0}})
	assert.Equal(t, []float64{1, 0}, proba[0])
	assert.Equal(t, []float64{0, 1}, proba[1])
}

func TestDecisionTreeClassifierLabels(t *testing.T) {
	// labels need not be 0..k-1
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []int{7, 7, 7, -3, -3, -3}
	tree := NewDecisionTreeClassifier(WithCriterion("entropy"))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, []int{-3, 7}, tree.Classes())
	assert.Equal(t, []int{7, -3}, tree.Predict([][]float64{{0}, {20}}))
}

func TestDecisionTreeClassifierCategorical(t *testing.T) {
	// class 1 only for the middle code, which no single threshold isolates
	var X [][]float64
	var y []int
	for rep := 0; rep < 10; rep++ {
		for code := 0; code < 3; code++ {
			X = append(X, []float64{float64(code)})
			if code == 1 {
				y = append(y, 1)
			} else {
				y = append(y, 0)
			}
		}
	}
	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, []int{0, 1, 0}, tree.Predict([][]float64{{0}, {1}, {2}}))
}

func TestDecisionTreeClassifierMissingValues(t *testing.T) {
	nan := math.NaN()
	X := [][]float64{{1}, {2}, {nan}, {nan}, {8}, {9}}
	y := []int{0, 0, 1, 1, 1, 1}
	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, y, tree.Predict(X))
	assert.Equal(t, []int{1}, tree.Predict([][]float64{{nan}}))
}

func TestDecisionTreeClassifierLimits(t *testing.T) {
	X, y := separable(200, 2)
	for i := 0; i < len(y); i += 7 {
		y[i] = 1 - y[i]
	}
	deep := NewDecisionTreeClassifier()
	require.NoError(t, deep.Fit(X, y))
	shallow := NewDecisionTreeClassifier(WithMaxDepth(2))
	require.NoError(t, shallow.Fit(X, y))
	assert.LessOrEqual(t, shallow.Depth(), 2)
	assert.Greater(t, deep.Depth(), shallow.Depth())

	leafy := NewDecisionTreeClassifier(WithMinSamplesLeaf(40))
	require.NoError(t, leafy.Fit(X, y))
	assert.LessOrEqual(t, leafy.Leaves(), 5)
}

func TestDecisionTreeClassifierErrors(t *testing.T) {
	tree := NewDecisionTreeClassifier()
	err := tree.Fit(nil, nil)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
	err = tree.Fit([][]float64{{1}, {2}}, []int{1})
	assert.True(t, errors.Is(err, core.LengthMismatch))
	err = tree.Fit([][]float64{{1, 2}, {2}}, []int{1, 0})
	assert.True(t, errors.Is(err, core.LengthMismatch))
	err = NewDecisionTreeClassifier(WithCriterion("log_loss")).Fit([][]float64{{1}}, []int{1})
	assert.True(t, errors.Is(err, core.InvalidConfiguration))

	assert.Nil(t, NewDecisionTreeClassifier().Predict([][]float64{{1}}))
	_, err = NewDecisionTreeClassifier().PruneReducedError([][]float64{{1}}, []int{1})
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestPruneReducedError(t *testing.T) {
	X, y := separable(300, 3)
	// label noise makes the unpruned tree memorize
	rnd := rand.New(rand.NewSource(4))
	for i := range y {
		if rnd.Float64() < 0.15 {
			y[i] = 1 - y[i]
		}
	}
	train, yTrain := X[:200], y[:200]
	val, yVal := X[200:], y[200:]

	tree := NewDecisionTreeClassifier()
	require.NoError(t, tree.Fit(train, yTrain))
	before := Accuracy(yVal, tree.Predict(val))
	leaves := tree.Leaves()

	pruned, err := tree.PruneReducedError(val, yVal)
	require.NoError(t, err)
	assert.Positive(t, pruned)
	assert.Less(t, tree.Leaves(), leaves)
	assert.GreaterOrEqual(t, Accuracy(yVal, tree.Predict(val)), before)

	_, err = tree.PruneReducedError(val, yVal[:3])
	assert.True(t, errors.Is(err, core.LengthMismatch))
	_, err = tree.PruneReducedError(nil, nil)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestDecisionTreeRegressor(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []float64{1, 1, 1, 5, 5, 5}
	tree := NewDecisionTreeRegressor()
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, []float64{1, 5}, tree.Predict([][]float64{{0}, {20}}))
	assert.Equal(t, []float64{1}, tree.FeatureImportances())

	constant := NewDecisionTreeRegressor()
	require.NoError(t, constant.Fit(X, []float64{2, 2, 2, 2, 2, 2}))
	assert.Zero(t, constant.Depth())

	err := tree.Fit(X, []float64{1, 1, 1, math.Inf(1), 5, 5})
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
	assert.Nil(t, NewDecisionTreeRegressor().Predict(X))
}
