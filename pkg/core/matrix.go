package core

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major feature matrix with named columns.
type Matrix struct {
	Columns []string
	R, C    int
	Data    []float64
}

// NewMatrix allocates a zero matrix with r rows over the given columns.
func NewMatrix(columns []string, r int) *Matrix {
	c := len(columns)
	return &Matrix{Columns: append([]string(nil), columns...), R: r, C: c, Data: make([]float64, r*c)}
}

// FromRows creates a Matrix from a nested slice (copies the values).
func FromRows(columns []string, rows [][]float64) (*Matrix, error) {
	m := NewMatrix(columns, len(rows))
	for i, row := range rows {
		if len(row) != m.C {
			return nil, Mismatchf("matrix: row %d has %d values, want %d", i, len(row), m.C)
		}
		copy(m.Data[i*m.C:(i+1)*m.C], row)
	}
	return m, nil
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.C+j] }

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.C+j] = v }

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.C : (i+1)*m.C : (i+1)*m.C] }

// Rows returns row views, the shape the models consume.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, m.R)
	for i := range m.R {
		out[i] = m.Row(i)
	}
	return out
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	v := make([]float64, m.R)
	for i := range m.R {
		v[i] = m.Data[i*m.C+j]
	}
	return v
}

// ColIndex returns the position of the named column or -1.
func (m *Matrix) ColIndex(name string) int {
	for j, c := range m.Columns {
		if c == name {
			return j
		}
	}
	return -1
}

// Clone deep copies the matrix.
func (m *Matrix) Clone() *Matrix {
	n := &Matrix{Columns: append([]string(nil), m.Columns...), R: m.R, C: m.C, Data: make([]float64, len(m.Data))}
	copy(n.Data, m.Data)
	return n
}

// Dense returns a gonum view sharing the backing slice. It is nil for an empty matrix.
func (m *Matrix) Dense() *mat.Dense {
	if m.R == 0 || m.C == 0 {
		return nil
	}
	return mat.NewDense(m.R, m.C, m.Data)
}

// Apply replaces every element with f(j, v) in place.
func (m *Matrix) Apply(f func(j int, v float64) float64) {
	for i := range m.Data {
		m.Data[i] = f(i%m.C, m.Data[i])
	}
}
