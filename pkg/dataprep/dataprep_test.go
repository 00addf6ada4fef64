package dataprep

import (
	"math"
	"strings"
	"testing"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flows = `Flow Duration,Protocol,class,Flow Bytes/s
100,6,A,1.5
250,17,B,Infinity
80,6,A,
400,6,B,2.5
90,17,A,NaN
`

func load(t *testing.T) *data.Dataset {
	ds, err := data.ReadCSV(strings.NewReader(flows), data.Options{Label: "class"})
	require.NoError(t, err)
	return ds
}

func TestRemoveLabels(t *testing.T) {
	ds := load(t)
	m, labels, err := RemoveLabels(ds, "class")
	require.NoError(t, err)
	assert.Equal(t, []string{"Flow Duration", "Protocol", "Flow Bytes/s"}, m.Columns)
	assert.Equal(t, 5, m.R)
	assert.Equal(t, []float64{100, 6, 1.5}, m.Row(0))
	assert.Equal(t, []float64{400, 6, 2.5}, m.Row(3))
	assert.Equal(t, "class", labels.Name)
	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, labels.Strings())
	assert.Equal(t, []float64{0, 1, 0, 1, 0}, labels.Floats())
	assert.Equal(t, ds.Index(), labels.Index)

	// the source keeps its label column
	assert.Equal(t, 4, ds.Schema().Len())
}

func TestRemoveLabelsReconstructs(t *testing.T) {
	ds := load(t)
	sub := ds.Subset([]int{4, 1, 3})
	m, labels, err := RemoveLabels(sub, "class")
	require.NoError(t, err)
	back, err := Recompose(sub, m, labels)
	require.NoError(t, err)
	require.Equal(t, sub.Len(), back.Len())
	assert.Equal(t, sub.Index(), back.Index())
	for i := range sub.Len() {
		want, got := sub.Row(i), back.Row(i)
		for j := range want {
			if math.IsNaN(want[j]) {
				assert.True(t, math.IsNaN(got[j]))
			} else {
				assert.Equal(t, want[j], got[j])
			}
		}
	}
	classes, err := back.Strings("class")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "B"}, classes)
}

func TestRemoveLabelsMissingField(t *testing.T) {
	_, _, err := RemoveLabels(load(t), "nonexistent")
	assert.True(t, errors.Is(err, core.FieldNotFound))
}

func TestFactorize(t *testing.T) {
	ds := load(t)
	codes, levels, err := Factorize(ds, "Protocol")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 0, 1}, codes)
	assert.Equal(t, []string{"6", "17"}, levels)

	// subsets keep the codes of their source
	codes, levels, err = Factorize(ds.Subset([]int{1, 0}), "class")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, codes)
	assert.Equal(t, []string{"A", "B"}, levels)

	_, _, err = Factorize(ds, "nonexistent")
	assert.True(t, errors.Is(err, core.FieldNotFound))

	codes, levels = LabelEncode([]string{"x", "y", "x"})
	assert.Equal(t, []int{0, 1, 0}, codes)
	assert.Equal(t, []string{"x", "y"}, levels)
}

func TestSelectFeatures(t *testing.T) {
	m, _, err := RemoveLabels(load(t), "class")
	require.NoError(t, err)
	sel, err := SelectFeatures(m, []string{"Protocol", "Flow Duration"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Protocol", "Flow Duration"}, sel.Columns)
	assert.Equal(t, []float64{17, 250}, sel.Row(1))

	_, err = SelectFeatures(m, []string{"nonexistent"})
	assert.True(t, errors.Is(err, core.FieldNotFound))
}

func TestLogTransform(t *testing.T) {
	m, err := core.FromRows([]string{"a"}, [][]float64{{0}, {math.E - 1}, {-1}})
	require.NoError(t, err)
	out := LogTransform(m)
	assert.InDeltaSlice(t, []float64{0, 1, -math.Ln2}, out.Col(0), 1e-12)
	assert.Equal(t, -1.0, m.At(2, 0))
}

func TestImputeNonFinite(t *testing.T) {
	ds := load(t)
	out, report, err := ImputeNonFinite(ds, ImputeMedian)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), out.Len())
	assert.Equal(t, map[string]int{"Flow Bytes/s": 3}, report.Replaced)
	assert.Equal(t, 3, report.Total())
	assert.Equal(t, 2.0, report.Fill["Flow Bytes/s"])
	col, err := out.Column("Flow Bytes/s")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, 2, 2.5, 2}, col)

	// the source still holds the raw values
	raw, err := ds.Column("Flow Bytes/s")
	require.NoError(t, err)
	assert.True(t, math.IsInf(raw[1], 1))

	out, report, err = ImputeNonFinite(ds, ImputeDrop)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 3, report.Dropped)
	assert.Equal(t, []int{0, 3}, out.Index())

	out, _, err = ImputeNonFinite(ds, ImputeZero)
	require.NoError(t, err)
	col, err = out.Column("Flow Bytes/s")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 0, 0, 2.5, 0}, col)

	_, _, err = ImputeNonFinite(ds, "mode")
	assert.True(t, errors.Is(err, core.InvalidConfiguration))
}

func TestImputeNothingToDo(t *testing.T) {
	ds, err := data.ReadCSV(strings.NewReader("x,class\n1,A\n2,B\n"), data.Options{Label: "class"})
	require.NoError(t, err)
	out, report, err := ImputeNonFinite(ds, ImputeMean)
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Zero(t, report.Total())
}
