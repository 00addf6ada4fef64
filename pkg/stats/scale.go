package stats

import (
	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
)

// columnScaler maps every value to (v - center) / scale per column. Columns
// flagged in zero collapse to 0.
type columnScaler struct {
	columns []string
	center  []float64
	scale   []float64
	zero    []bool
}

func (s *columnScaler) fitted() bool { return s.columns != nil }

func (s *columnScaler) reset(name string, m *core.Matrix) error {
	if m.R == 0 || m.C == 0 {
		return core.Invalidf("%s: cannot fit an empty matrix", name)
	}
	s.columns = append([]string(nil), m.Columns...)
	s.center = make([]float64, m.C)
	s.scale = make([]float64, m.C)
	s.zero = make([]bool, m.C)
	return nil
}

func (s *columnScaler) transform(name string, m *core.Matrix) (*core.Matrix, error) {
	if !s.fitted() {
		return nil, core.Invalidf("%s: transform before fit", name)
	}
	if m.C != len(s.columns) {
		return nil, core.Mismatchf("%s: fitted on %d columns, got %d", name, len(s.columns), m.C)
	}
	out := m.Clone()
	out.Apply(func(j int, v float64) float64 {
		if s.zero[j] {
			return 0
		}
		return (v - s.center[j]) / s.scale[j]
	})
	return out, nil
}

// RobustScaler centers columns on the median and scales by the interquartile range.
type RobustScaler struct {
	columnScaler
}

func NewRobustScaler() *RobustScaler { return &RobustScaler{} }

func (s *RobustScaler) Fit(m *core.Matrix) error {
	if err := s.reset("robust scaler", m); err != nil {
		return err
	}
	for j := range m.C {
		q1, median, q3 := Quartiles(m.Col(j))
		s.center[j] = median
		s.scale[j] = q3 - q1
		s.zero[j] = s.scale[j] == 0
	}
	return nil
}

func (s *RobustScaler) Transform(m *core.Matrix) (*core.Matrix, error) {
	return s.transform("robust scaler", m)
}

func (s *RobustScaler) FitTransform(m *core.Matrix) (*core.Matrix, error) {
	if err := s.Fit(m); err != nil {
		return nil, errors.Trace(err)
	}
	return s.Transform(m)
}

// StandardScaler centers columns on the mean and scales to unit variance.
type StandardScaler struct {
	columnScaler
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Fit(m *core.Matrix) error {
	if err := s.reset("standard scaler", m); err != nil {
		return err
	}
	for j := range m.C {
		col := m.Col(j)
		s.center[j] = Mean(col)
		s.scale[j] = Std(col)
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return nil
}

func (s *StandardScaler) Transform(m *core.Matrix) (*core.Matrix, error) {
	return s.transform("standard scaler", m)
}

func (s *StandardScaler) FitTransform(m *core.Matrix) (*core.Matrix, error) {
	if err := s.Fit(m); err != nil {
		return nil, errors.Trace(err)
	}
	return s.Transform(m)
}

// MinMaxScaler scales each column to [0, 1].
type MinMaxScaler struct {
	columnScaler
}

func NewMinMaxScaler() *MinMaxScaler { return &MinMaxScaler{} }

func (s *MinMaxScaler) Fit(m *core.Matrix) error {
	if err := s.reset("minmax scaler", m); err != nil {
		return err
	}
	for j := range m.C {
		lo, hi := MinMax(m.Col(j))
		s.center[j] = lo
		s.scale[j] = hi - lo
		s.zero[j] = hi == lo
	}
	return nil
}

func (s *MinMaxScaler) Transform(m *core.Matrix) (*core.Matrix, error) {
	return s.transform("minmax scaler", m)
}

func (s *MinMaxScaler) FitTransform(m *core.Matrix) (*core.Matrix, error) {
	if err := s.Fit(m); err != nil {
		return nil, errors.Trace(err)
	}
	return s.Transform(m)
}
