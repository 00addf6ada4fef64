package stats

import (
	"math"
	"testing"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrix(t *testing.T, columns []string, rows [][]float64) *core.Matrix {
	m, err := core.FromRows(columns, rows)
	require.NoError(t, err)
	return m
}

func TestDescriptive(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	assert.Equal(t, 2.5, Mean(x))
	assert.Equal(t, 1.25, Variance(x))
	assert.InDelta(t, math.Sqrt(1.25), Std(x), 1e-12)
	lo, hi := MinMax(x)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.Equal(t, 10.0, Sum(x))
	assert.Equal(t, 2.5, Median(x))
	assert.Equal(t, []float64{4, 1, 3, 2}, x)
	assert.Equal(t, 3.0, Mode([]float64{1, 3, 3, 2}))

	assert.Zero(t, Mean(nil))
	assert.Zero(t, Variance(nil))
	assert.Zero(t, Median(nil))
}

func TestPercentile(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 2.0, Percentile(x, 25))
	assert.Equal(t, 3.0, Percentile(x, 50))
	assert.InDelta(t, 4.6, Percentile(x, 90), 1e-12)
	assert.Equal(t, 5.0, Percentile(x, 100))

	q1, median, q3 := Quartiles([]float64{10, 20, 30, 40})
	assert.Equal(t, 17.5, q1)
	assert.Equal(t, 25.0, median)
	assert.Equal(t, 32.5, q3)
}

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 1, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.Zero(t, Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, []float64{1, 3}, Finite([]float64{1, math.NaN(), math.Inf(1), 3, math.Inf(-1)}))
}

func TestRankCorrelations(t *testing.T) {
	m := matrix(t, []string{"up", "down", "flat", "noise"}, [][]float64{
		{1, 4, 7, 2},
		{2, 3, 7, 1},
		{3, 2, 7, 2},
		{4, 1, 7, 1},
	})
	target := []float64{0, 0, 1, 1}
	ranking, err := RankCorrelations(m, target)
	require.NoError(t, err)
	require.Len(t, ranking, 4)
	assert.Equal(t, "up", ranking[0].Feature)
	assert.Equal(t, "noise", ranking[1].Feature)
	assert.Equal(t, "down", ranking[2].Feature)
	assert.Equal(t, "flat", ranking[3].Feature)
	assert.True(t, math.IsNaN(ranking[3].Corr))
	assert.InDelta(t, -ranking[0].Corr, ranking[2].Corr, 1e-12)

	above := Above(ranking, 0.05)
	require.Len(t, above, 1)
	assert.Equal(t, "up", above[0].Feature)

	_, err = RankCorrelations(m, []float64{1, 2})
	assert.True(t, errors.Is(err, core.LengthMismatch))
}

func TestCorrelatedPairs(t *testing.T) {
	m := matrix(t, []string{"a", "b", "c"}, [][]float64{
		{1, 2, 5},
		{2, 4, 1},
		{3, 6, 4},
		{4, 8, 2},
	})
	corr, err := Correlations(m)
	require.NoError(t, err)
	assert.InDelta(t, 1, corr.At(0, 1), 1e-12)
	assert.InDelta(t, 1, corr.At(2, 2), 1e-12)

	pairs, err := CorrelatedPairs(m, 0.99)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{A: "a", B: "b", Corr: pairs[0].Corr}, pairs[0])

	_, err = Correlations(matrix(t, []string{"a"}, [][]float64{{1}}))
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestRobustScaler(t *testing.T) {
	m := matrix(t, []string{"a", "b"}, [][]float64{
		{1, 5},
		{2, 5},
		{3, 5},
		{4, 5},
		{100, 5},
	})
	scaler := NewRobustScaler()
	out, err := scaler.FitTransform(m)
	require.NoError(t, err)
	q1, median, q3 := Quartiles(out.Col(0))
	assert.InDelta(t, 0, median, 1e-12)
	assert.InDelta(t, 1, q3-q1, 1e-12)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, out.Col(1))
	// the input is untouched
	assert.Equal(t, 100.0, m.At(4, 0))

	_, err = scaler.Transform(matrix(t, []string{"a"}, [][]float64{{1}}))
	assert.True(t, errors.Is(err, core.LengthMismatch))
	_, err = NewRobustScaler().Transform(m)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
	assert.True(t, errors.Is(NewRobustScaler().Fit(core.NewMatrix([]string{"a"}, 0)), core.InvalidConfiguration))
}

func TestStandardAndMinMaxScaler(t *testing.T) {
	m := matrix(t, []string{"a", "b"}, [][]float64{{1, 3}, {3, 3}})
	out, err := NewStandardScaler().FitTransform(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1}, out.Col(0))
	assert.Equal(t, []float64{0, 0}, out.Col(1))

	out, err = NewMinMaxScaler().FitTransform(matrix(t, []string{"a", "b"}, [][]float64{{2, 3}, {4, 3}, {3, 3}}))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0.5}, out.Col(0))
	assert.Equal(t, []float64{0, 0, 0}, out.Col(1))
}

func TestOutlierClipper(t *testing.T) {
	m := matrix(t, []string{"a"}, [][]float64{{1}, {2}, {3}, {4}, {5}})
	clipper, err := NewOutlierClipper(25, 75)
	require.NoError(t, err)
	out, err := clipper.FitTransform(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 3, 4, 4}, out.Col(0))

	_, err = NewOutlierClipper(90, 10)
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestDescribe(t *testing.T) {
	summary := Describe(matrix(t, []string{"a"}, [][]float64{{1}, {2}, {3}, {4}}))
	require.Len(t, summary, 1)
	s := summary[0]
	assert.Equal(t, "a", s.Feature)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2.5, s.Mean)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 1.75, s.Q1)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 3.25, s.Q3)
	assert.Equal(t, 4.0, s.Max)
}
