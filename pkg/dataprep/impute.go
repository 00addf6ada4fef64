package dataprep

import (
	"math"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/log"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/stats"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Strategy selects how non-finite numeric values are replaced.
type Strategy string

const (
	ImputeMedian Strategy = "median"
	ImputeMean   Strategy = "mean"
	ImputeZero   Strategy = "zero"
	// ImputeDrop removes every row holding a non-finite value.
	ImputeDrop Strategy = "drop"
)

// ParseStrategy validates a strategy name. The empty name selects median.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case "":
		return ImputeMedian, nil
	case ImputeMedian, ImputeMean, ImputeZero, ImputeDrop:
		return s, nil
	default:
		return "", core.Invalidf("impute: unknown strategy %q", name)
	}
}

// Imputation reports what ImputeNonFinite changed.
type Imputation struct {
	Strategy Strategy
	// Replaced counts the non-finite values found per field.
	Replaced map[string]int
	// Fill is the replacement value per field, absent for ImputeDrop.
	Fill    map[string]float64
	Dropped int
}

// Total returns the number of non-finite values found.
func (r *Imputation) Total() int {
	total := 0
	for _, n := range r.Replaced {
		total += n
	}
	return total
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ImputeNonFinite replaces NaN and infinite values of numeric fields, computing
// the fill value from the finite values of each column. Columns with no finite
// value are filled with 0. ds is not modified.
func ImputeNonFinite(ds *data.Dataset, strategy Strategy) (*data.Dataset, *Imputation, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, nil, err
	}
	if strategy == "" {
		strategy = ImputeMedian
	}
	report := &Imputation{Strategy: strategy, Replaced: map[string]int{}, Fill: map[string]float64{}}

	schema := ds.Schema()
	fill := make([]float64, schema.Len())
	for j, f := range schema.Fields {
		if f.Kind != data.Numeric {
			continue
		}
		col, err := ds.Column(f.Name)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		finite := stats.Finite(col)
		if missing := len(col) - len(finite); missing > 0 {
			report.Replaced[f.Name] = missing
		} else {
			continue
		}
		switch {
		case strategy == ImputeDrop || len(finite) == 0 || strategy == ImputeZero:
			fill[j] = 0
		case strategy == ImputeMean:
			fill[j] = stats.Mean(finite)
		default:
			fill[j] = stats.Median(finite)
		}
		if strategy != ImputeDrop {
			report.Fill[f.Name] = fill[j]
		}
	}
	if len(report.Replaced) == 0 {
		return ds, report, nil
	}

	rows := make([][]float64, 0, ds.Len())
	var index []int
	original := ds.Index()
	for i := range ds.Len() {
		row := ds.Row(i)
		dirty := false
		for j, f := range schema.Fields {
			if f.Kind == data.Numeric && !isFinite(row[j]) {
				dirty = true
				row[j] = fill[j]
			}
		}
		if dirty && strategy == ImputeDrop {
			report.Dropped++
			continue
		}
		rows = append(rows, row)
		index = append(index, original[i])
	}
	if len(rows) == 0 {
		return nil, nil, core.Invalidf("impute: every row holds a non-finite value")
	}
	out, err := ds.Derive(rows, index)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	log.Logger().Info("impute non-finite values",
		zap.String("strategy", string(strategy)),
		zap.Int("values", report.Total()),
		zap.Int("fields", len(report.Replaced)),
		zap.Int("dropped_rows", report.Dropped))
	return out, report, nil
}
