package stats

import (
	"math"
	"sort"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ranked is the correlation of one feature with a target.
type Ranked struct {
	Feature string
	Corr    float64
}

// Pair is the correlation between two features.
type Pair struct {
	A, B string
	Corr float64
}

// Correlations computes the Pearson correlation matrix of the columns of m.
// Constant columns yield NaN entries.
func Correlations(m *core.Matrix) (*mat.SymDense, error) {
	if m.R < 2 {
		return nil, core.Invalidf("corr: need at least 2 rows, got %d", m.R)
	}
	corr := new(mat.SymDense)
	stat.CorrelationMatrix(corr, m.Dense(), nil)
	return corr, nil
}

// RankCorrelations correlates every column of m with target and sorts the result
// descending. Features without variance rank last with a NaN correlation.
func RankCorrelations(m *core.Matrix, target []float64) ([]Ranked, error) {
	if len(target) != m.R {
		return nil, core.Mismatchf("corr: target has %d values, matrix %d rows", len(target), m.R)
	}
	if m.R < 2 {
		return nil, core.Invalidf("corr: need at least 2 rows, got %d", m.R)
	}
	targetConstant := Variance(target) == 0
	ranking := make([]Ranked, m.C)
	for j, name := range m.Columns {
		col := m.Col(j)
		corr := math.NaN()
		if !targetConstant && Variance(col) != 0 {
			corr = stat.Correlation(col, target, nil)
		}
		ranking[j] = Ranked{Feature: name, Corr: corr}
	}
	sort.SliceStable(ranking, func(a, b int) bool {
		x, y := ranking[a].Corr, ranking[b].Corr
		if math.IsNaN(y) {
			return !math.IsNaN(x)
		}
		return x > y
	})
	return ranking, nil
}

// Above keeps the ranked features whose correlation exceeds threshold.
func Above(ranking []Ranked, threshold float64) []Ranked {
	var out []Ranked
	for _, r := range ranking {
		if r.Corr > threshold {
			out = append(out, r)
		}
	}
	return out
}

// CorrelatedPairs lists the feature pairs whose absolute correlation is at least
// threshold, strongest first.
func CorrelatedPairs(m *core.Matrix, threshold float64) ([]Pair, error) {
	corr, err := Correlations(m)
	if err != nil {
		return nil, err
	}
	var pairs []Pair
	for i := 0; i < m.C; i++ {
		for j := i + 1; j < m.C; j++ {
			if c := corr.At(i, j); math.Abs(c) >= threshold {
				pairs = append(pairs, Pair{A: m.Columns[i], B: m.Columns[j], Corr: c})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Corr) > math.Abs(pairs[b].Corr)
	})
	return pairs, nil
}
