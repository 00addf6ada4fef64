package data

import (
	"strconv"
	"strings"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/samber/lo"
)

// Kind is the type of a dataset field.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is a named, typed column.
type Field struct {
	Name string
	Kind Kind
}

// Schema describes the ordered structure of a dataset.
type Schema struct {
	Fields []Field
}

// NewSchema rejects empty and duplicate field names.
func NewSchema(fields ...Field) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return Schema{}, core.Invalidf("schema: empty field name")
		}
		if _, ok := seen[f.Name]; ok {
			return Schema{}, core.Invalidf("schema: duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return Schema{Fields: append([]Field(nil), fields...)}, nil
}

func (s Schema) Len() int { return len(s.Fields) }

// Names returns the field names in order.
func (s Schema) Names() []string {
	return lo.Map(s.Fields, func(f Field, _ int) string { return f.Name })
}

// Index returns the position of name or -1.
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field looks a field up by name.
func (s Schema) Field(name string) (Field, error) {
	i := s.Index(name)
	if i < 0 {
		return Field{}, core.NotFoundf("schema: no field %q", name)
	}
	return s.Fields[i], nil
}

// Validate checks a CSV header against the schema: same names, same order.
func (s Schema) Validate(header []string) error {
	if len(header) != len(s.Fields) {
		missing := lo.Without(s.Names(), header...)
		extra := lo.Without(header, s.Names()...)
		return core.Invalidf("schema: header has %d columns, want %d (missing %v, unexpected %v)",
			len(header), len(s.Fields), missing, extra)
	}
	for i, name := range header {
		if name != s.Fields[i].Name {
			return core.Invalidf("schema: column %d is %q, want %q", i, name, s.Fields[i].Name)
		}
	}
	return nil
}

// InferSchema types every column from sampled records: a column whose non-empty
// values all parse as floats is Numeric, anything else Categorical. The label,
// when given, is always Categorical.
func InferSchema(header []string, records [][]string, label string) (Schema, error) {
	fields := make([]Field, len(header))
	for j, name := range header {
		fields[j] = Field{Name: name, Kind: Numeric}
		if name == label {
			fields[j].Kind = Categorical
			continue
		}
		for _, rec := range records {
			if j >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[j])
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				fields[j].Kind = Categorical
				break
			}
		}
	}
	return NewSchema(fields...)
}

// CleanHeader trims the padding CIC flowmeter exports put around column names.
func CleanHeader(header []string) []string {
	return lo.Map(header, func(h string, _ int) string { return strings.TrimSpace(h) })
}
