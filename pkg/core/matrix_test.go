package core

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, m.R)
	assert.Equal(t, 2, m.C)
	assert.Equal(t, 4.0, m.At(1, 1))
	assert.Equal(t, []float64{2, 4, 6}, m.Col(1))
	assert.Equal(t, []float64{5, 6}, m.Row(2))
	assert.Equal(t, 1, m.ColIndex("b"))
	assert.Equal(t, -1, m.ColIndex("c"))

	_, err = FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, LengthMismatch))
}

func TestMatrixCloneIsDeep(t *testing.T) {
	m, err := FromRows([]string{"a"}, [][]float64{{1}, {2}})
	require.NoError(t, err)
	c := m.Clone()
	c.Set(0, 0, 10)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 10.0, c.At(0, 0))
}

func TestMatrixDense(t *testing.T) {
	m, err := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	d := m.Dense()
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, d.At(1, 0))
	assert.Nil(t, NewMatrix([]string{"a"}, 0).Dense())
}

func TestMatrixApply(t *testing.T) {
	m, err := FromRows([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	m.Apply(func(j int, v float64) float64 { return v * float64(j+1) })
	assert.Equal(t, []float64{1, 4, 3, 8}, m.Data)
}

func TestErrorKinds(t *testing.T) {
	err := Invalidf("split: test size %v", 1.5)
	assert.True(t, errors.Is(err, InvalidConfiguration))
	assert.False(t, errors.Is(err, FieldNotFound))
	assert.Contains(t, err.Error(), "invalid configuration: split: test size 1.5")
	assert.True(t, errors.Is(errors.Trace(NotFoundf("x")), FieldNotFound))
	assert.True(t, errors.Is(Mismatchf("y"), LengthMismatch))
}
