package data

import (
	"math"
	"strconv"
	"strings"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
)

// Dataset is an ordered collection of rows over a Schema. Categorical values are
// stored as codes into a per-field level list kept in first-seen order. Rows are
// never mutated once appended; derived datasets share them.
type Dataset struct {
	schema Schema
	rows   [][]float64
	index  []int
	levels [][]string
	codes  []map[string]int
}

// New creates an empty dataset.
func New(schema Schema) *Dataset {
	d := &Dataset{
		schema: schema,
		levels: make([][]string, schema.Len()),
		codes:  make([]map[string]int, schema.Len()),
	}
	for j, f := range schema.Fields {
		if f.Kind == Categorical {
			d.codes[j] = make(map[string]int)
		}
	}
	return d
}

// Append parses one record. Empty numeric cells become NaN; "Infinity" and "NaN"
// parse as such and are left for imputation.
func (d *Dataset) Append(record []string) error {
	if len(record) != d.schema.Len() {
		return core.Mismatchf("dataset: record has %d values, want %d", len(record), d.schema.Len())
	}
	row := make([]float64, len(record))
	for j, f := range d.schema.Fields {
		raw := strings.TrimSpace(record[j])
		switch f.Kind {
		case Categorical:
			row[j] = float64(d.encode(j, raw))
		default:
			if raw == "" {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return core.Invalidf("dataset: row %d field %q: %q is not numeric", len(d.rows), f.Name, raw)
			}
			row[j] = v
		}
	}
	d.rows = append(d.rows, row)
	d.index = append(d.index, len(d.index))
	return nil
}

func (d *Dataset) encode(j int, v string) int {
	if c, ok := d.codes[j][v]; ok {
		return c
	}
	c := len(d.levels[j])
	d.codes[j][v] = c
	d.levels[j] = append(d.levels[j], v)
	return c
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) Schema() Schema { return d.schema }

// Index returns the original row number of every row.
func (d *Dataset) Index() []int { return append([]int(nil), d.index...) }

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []float64 { return append([]float64(nil), d.rows[i]...) }

// Column returns a copy of the named column. Categorical fields yield codes.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := d.schema.Index(name)
	if j < 0 {
		return nil, core.NotFoundf("dataset: no field %q", name)
	}
	col := make([]float64, len(d.rows))
	for i, row := range d.rows {
		col[i] = row[j]
	}
	return col, nil
}

// Codes returns the level codes of a categorical field.
func (d *Dataset) Codes(name string) ([]int, error) {
	f, err := d.schema.Field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != Categorical {
		return nil, core.Invalidf("dataset: field %q is %s, not categorical", name, f.Kind)
	}
	j := d.schema.Index(name)
	out := make([]int, len(d.rows))
	for i, row := range d.rows {
		out[i] = int(row[j])
	}
	return out, nil
}

// Levels returns the level names of a categorical field, indexed by code.
func (d *Dataset) Levels(name string) ([]string, error) {
	f, err := d.schema.Field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != Categorical {
		return nil, core.Invalidf("dataset: field %q is %s, not categorical", name, f.Kind)
	}
	return append([]string(nil), d.levels[d.schema.Index(name)]...), nil
}

// Strings renders the named column as text, decoding categorical codes.
func (d *Dataset) Strings(name string) ([]string, error) {
	j := d.schema.Index(name)
	if j < 0 {
		return nil, core.NotFoundf("dataset: no field %q", name)
	}
	out := make([]string, len(d.rows))
	for i, row := range d.rows {
		if d.schema.Fields[j].Kind == Categorical {
			out[i] = d.levels[j][int(row[j])]
		} else {
			out[i] = strconv.FormatFloat(row[j], 'g', -1, 64)
		}
	}
	return out, nil
}

// Subset returns the rows at the given positions, in that order. Level tables are
// shared so codes stay comparable across subsets.
func (d *Dataset) Subset(positions []int) *Dataset {
	s := d.derive()
	s.rows = make([][]float64, len(positions))
	s.index = make([]int, len(positions))
	for k, p := range positions {
		s.rows[k] = d.rows[p]
		s.index[k] = d.index[p]
	}
	return s
}

// Derive builds a dataset with the same schema and levels over new rows.
func (d *Dataset) Derive(rows [][]float64, index []int) (*Dataset, error) {
	if len(rows) != len(index) {
		return nil, core.Mismatchf("dataset: %d rows but %d index entries", len(rows), len(index))
	}
	for i, row := range rows {
		if len(row) != d.schema.Len() {
			return nil, core.Mismatchf("dataset: row %d has %d values, want %d", i, len(row), d.schema.Len())
		}
	}
	s := d.derive()
	s.rows = rows
	s.index = append([]int(nil), index...)
	return s, nil
}

func (d *Dataset) derive() *Dataset {
	return &Dataset{schema: d.schema, levels: d.levels, codes: d.codes}
}
