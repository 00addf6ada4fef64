package stats

import (
	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
)

// OutlierClipper clips values in each column to the given lower and upper percentiles.
type OutlierClipper struct {
	Lower, Upper float64
	lows, highs  []float64
}

func NewOutlierClipper(lower, upper float64) (*OutlierClipper, error) {
	if lower < 0 || upper > 100 || lower >= upper {
		return nil, core.Invalidf("clip: percentiles [%v, %v] out of order or range", lower, upper)
	}
	return &OutlierClipper{Lower: lower, Upper: upper}, nil
}

func (c *OutlierClipper) Fit(m *core.Matrix) error {
	if m.R == 0 || m.C == 0 {
		return core.Invalidf("clip: cannot fit an empty matrix")
	}
	c.lows = make([]float64, m.C)
	c.highs = make([]float64, m.C)
	for j := range m.C {
		col := m.Col(j)
		c.lows[j] = Percentile(col, c.Lower)
		c.highs[j] = Percentile(col, c.Upper)
	}
	return nil
}

func (c *OutlierClipper) Transform(m *core.Matrix) (*core.Matrix, error) {
	if c.lows == nil {
		return nil, core.Invalidf("clip: transform before fit")
	}
	if m.C != len(c.lows) {
		return nil, core.Mismatchf("clip: fitted on %d columns, got %d", len(c.lows), m.C)
	}
	out := m.Clone()
	out.Apply(func(j int, v float64) float64 {
		if v < c.lows[j] {
			return c.lows[j]
		} else if v > c.highs[j] {
			return c.highs[j]
		}
		return v
	})
	return out, nil
}

func (c *OutlierClipper) FitTransform(m *core.Matrix) (*core.Matrix, error) {
	if err := c.Fit(m); err != nil {
		return nil, errors.Trace(err)
	}
	return c.Transform(m)
}
