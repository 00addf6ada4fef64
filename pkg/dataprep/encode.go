package dataprep

import (
	"strconv"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/juju/errors"
)

// LabelEncode encodes categories as integers in first-seen order.
func LabelEncode(values []string) ([]int, []string) {
	unique := map[string]int{}
	var levels []string
	out := make([]int, len(values))
	for i, v := range values {
		if _, ok := unique[v]; !ok {
			unique[v] = len(levels)
			levels = append(levels, v)
		}
		out[i] = unique[v]
	}
	return out, levels
}

// Factorize returns integer codes and the level of every code for a field.
// Categorical fields reuse the dataset's level table, so codes agree across
// subsets of the same source. Numeric fields are encoded by first-seen value.
func Factorize(ds *data.Dataset, field string) ([]int, []string, error) {
	categorical, err := isCategorical(ds, field)
	if err != nil {
		return nil, nil, err
	}
	if categorical {
		codes, err := ds.Codes(field)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		levels, err := ds.Levels(field)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return codes, levels, nil
	}
	values, err := ds.Strings(field)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	codes, levels := LabelEncode(values)
	return codes, levels, nil
}

func isCategorical(ds *data.Dataset, field string) (bool, error) {
	f, err := ds.Schema().Field(field)
	if err != nil {
		return false, err
	}
	return f.Kind == data.Categorical, nil
}

func parseLevel(level string) (float64, error) {
	v, err := strconv.ParseFloat(level, 64)
	if err != nil {
		return 0, core.Invalidf("recompose: level %q is not numeric", level)
	}
	return v, nil
}
