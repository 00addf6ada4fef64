package stats

import (
	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one column.
type Summary struct {
	Feature                  string
	Count                    int
	Mean, Std                float64
	Min, Q1, Median, Q3, Max float64
}

// Describe summarizes every column of m. Std is the sample standard deviation.
func Describe(m *core.Matrix) []Summary {
	out := make([]Summary, m.C)
	for j, name := range m.Columns {
		col := m.Col(j)
		s := Summary{Feature: name, Count: len(col)}
		if len(col) > 0 {
			s.Mean = stat.Mean(col, nil)
			if len(col) > 1 {
				s.Std = stat.StdDev(col, nil)
			}
			s.Min, s.Max = MinMax(col)
			s.Q1, s.Median, s.Q3 = Quartiles(col)
		}
		out[j] = s
	}
	return out
}
