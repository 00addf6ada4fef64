package dataprep

import (
	"math"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/juju/errors"
)

// Labels is the label column of a dataset, index-aligned with its feature matrix.
type Labels struct {
	Name   string
	Codes  []int
	Levels []string
	// Index holds the original row number of every label.
	Index []int
}

// Len returns the number of labels.
func (l *Labels) Len() int { return len(l.Codes) }

// Strings decodes the labels to their level names.
func (l *Labels) Strings() []string {
	out := make([]string, len(l.Codes))
	for i, c := range l.Codes {
		out[i] = l.Levels[c]
	}
	return out
}

// Floats returns the codes as float64, the regression target.
func (l *Labels) Floats() []float64 {
	out := make([]float64, len(l.Codes))
	for i, c := range l.Codes {
		out[i] = float64(c)
	}
	return out
}

// RemoveLabels decomposes ds into a feature matrix holding every field except
// label, in schema and row order, and the label column. ds is not modified.
func RemoveLabels(ds *data.Dataset, label string) (*core.Matrix, *Labels, error) {
	schema := ds.Schema()
	labelCol := schema.Index(label)
	if labelCol < 0 {
		return nil, nil, core.NotFoundf("remove labels: no field %q", label)
	}
	codes, levels, err := Factorize(ds, label)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	var columns []string
	for j, name := range schema.Names() {
		if j != labelCol {
			columns = append(columns, name)
		}
	}
	m := core.NewMatrix(columns, ds.Len())
	for i := range ds.Len() {
		row := ds.Row(i)
		dst := m.Row(i)
		copy(dst, row[:labelCol])
		copy(dst[labelCol:], row[labelCol+1:])
	}
	return m, &Labels{Name: label, Codes: codes, Levels: levels, Index: ds.Index()}, nil
}

// Recompose inserts the labels back at their schema position, the inverse of
// RemoveLabels.
func Recompose(ds *data.Dataset, m *core.Matrix, labels *Labels) (*data.Dataset, error) {
	labelCol := ds.Schema().Index(labels.Name)
	if labelCol < 0 {
		return nil, core.NotFoundf("recompose: no field %q", labels.Name)
	}
	if m.R != labels.Len() {
		return nil, core.Mismatchf("recompose: %d feature rows, %d labels", m.R, labels.Len())
	}
	categorical, err := isCategorical(ds, labels.Name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rows := make([][]float64, m.R)
	for i := range m.R {
		row := make([]float64, 0, m.C+1)
		row = append(row, m.Row(i)[:labelCol]...)
		if categorical {
			row = append(row, float64(labels.Codes[i]))
		} else {
			// numeric labels were factorized from their text form
			v, err := parseLevel(labels.Levels[labels.Codes[i]])
			if err != nil {
				return nil, errors.Trace(err)
			}
			row = append(row, v)
		}
		row = append(row, m.Row(i)[labelCol:]...)
		rows[i] = row
	}
	return ds.Derive(rows, labels.Index)
}

// SelectFeatures projects m onto the named columns, in the given order.
func SelectFeatures(m *core.Matrix, names []string) (*core.Matrix, error) {
	indices := make([]int, len(names))
	for k, name := range names {
		if indices[k] = m.ColIndex(name); indices[k] < 0 {
			return nil, core.NotFoundf("select: no feature %q", name)
		}
	}
	return FeatureSelect(m, indices), nil
}

// FeatureSelect selects columns by indices.
func FeatureSelect(m *core.Matrix, indices []int) *core.Matrix {
	columns := make([]string, len(indices))
	for k, j := range indices {
		columns[k] = m.Columns[j]
	}
	out := core.NewMatrix(columns, m.R)
	for i := range m.R {
		src, dst := m.Row(i), out.Row(i)
		for k, j := range indices {
			dst[k] = src[j]
		}
	}
	return out
}

// LogTransform applies sign(x)*log(|x|+1) to each value, compressing the heavy
// tails of byte and packet counters while keeping -1 sentinels ordered.
func LogTransform(m *core.Matrix) *core.Matrix {
	out := m.Clone()
	out.Apply(func(_ int, v float64) float64 {
		if v < 0 {
			return -math.Log1p(-v)
		}
		return math.Log1p(v)
	})
	return out
}
