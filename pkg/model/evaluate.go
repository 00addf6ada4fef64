package model

import (
	"fmt"

	"github.com/juju/errors"
)

// Pair is the prediction of one pipeline together with its own ground truth.
type Pair struct {
	Name      string
	Predicted []int
	Actual    []int
}

// Score is the weighted metric of one pipeline.
type Score struct {
	Pipeline string
	Value    float64
}

// Comparison holds the scores of the pipeline without preparation and the one with it.
type Comparison struct {
	Metric  string
	Without Score
	With    Score
}

// Delta is the score gained by the prepared pipeline.
func (c Comparison) Delta() float64 { return c.With.Value - c.Without.Value }

func (c Comparison) String() string {
	return fmt.Sprintf("%s WITHOUT preparation %v\n%s WITH preparation %v",
		c.Metric, c.Without.Value, c.Metric, c.With.Value)
}

// EvaluateResult scores a (without preparation) and b (with preparation) with
// the weighted metric. Each pair is scored against its own ground truth.
func EvaluateResult(metric Metric, name string, a, b Pair) (Comparison, error) {
	without, err := metric(a.Predicted, a.Actual, Weighted)
	if err != nil {
		return Comparison{}, errors.Annotatef(err, "evaluate %s", a.Name)
	}
	with, err := metric(b.Predicted, b.Actual, Weighted)
	if err != nil {
		return Comparison{}, errors.Annotatef(err, "evaluate %s", b.Name)
	}
	return Comparison{
		Metric:  name,
		Without: Score{Pipeline: a.Name, Value: without},
		With:    Score{Pipeline: b.Name, Value: with},
	}, nil
}
