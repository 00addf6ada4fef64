package model

import (
	"math"
	"sort"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
)

// ---------------------------
// Regression metrics
// ---------------------------

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// ---------------------------
// Classification metrics
// ---------------------------

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// Average selects how per-class scores are combined.
type Average int

const (
	// Weighted averages per-class scores by their support in the ground truth.
	Weighted Average = iota
	// Macro is the unweighted mean of per-class scores.
	Macro
	// Micro scores the pooled counts of every class.
	Micro
	// Binary scores class 1 only. At most two classes may occur.
	Binary
)

func (a Average) String() string {
	switch a {
	case Weighted:
		return "weighted"
	case Macro:
		return "macro"
	case Micro:
		return "micro"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseAverage maps a name to an Average.
func ParseAverage(name string) (Average, error) {
	for _, a := range []Average{Weighted, Macro, Micro, Binary} {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, core.Invalidf("metrics: unknown average %q", name)
}

// Metric scores predicted labels against the ground truth.
type Metric func(predicted, actual []int, avg Average) (float64, error)

// MetricByName returns one of f1, precision, recall.
func MetricByName(name string) (Metric, error) {
	switch name {
	case "f1":
		return F1Score, nil
	case "precision":
		return PrecisionScore, nil
	case "recall":
		return RecallScore, nil
	default:
		return nil, core.Invalidf("metrics: unknown metric %q", name)
	}
}

// classCounts holds true positives, false positives and false negatives per label.
type classCounts struct {
	labels     []int
	tp, fp, fn []int
	support    []int
}

func countClasses(predicted, actual []int) (*classCounts, error) {
	if len(predicted) != len(actual) {
		return nil, core.Mismatchf("metrics: %d predictions for %d labels", len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return nil, core.Invalidf("metrics: empty label vectors")
	}
	seen := map[int]struct{}{}
	var labels []int
	for _, v := range [][]int{actual, predicted} {
		for _, lab := range v {
			if _, ok := seen[lab]; !ok {
				seen[lab] = struct{}{}
				labels = append(labels, lab)
			}
		}
	}
	sort.Ints(labels)
	pos := make(map[int]int, len(labels))
	for k, lab := range labels {
		pos[lab] = k
	}
	c := &classCounts{
		labels:  labels,
		tp:      make([]int, len(labels)),
		fp:      make([]int, len(labels)),
		fn:      make([]int, len(labels)),
		support: make([]int, len(labels)),
	}
	for i := range actual {
		a, p := pos[actual[i]], pos[predicted[i]]
		c.support[a]++
		if a == p {
			c.tp[a]++
		} else {
			c.fp[p]++
			c.fn[a]++
		}
	}
	return c, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// average combines per-class scores computed by score from (tp, fp, fn).
func average(predicted, actual []int, avg Average, score func(tp, fp, fn int) float64) (float64, error) {
	c, err := countClasses(predicted, actual)
	if err != nil {
		return 0, err
	}
	switch avg {
	case Micro:
		var tp, fp, fn int
		for k := range c.labels {
			tp += c.tp[k]
			fp += c.fp[k]
			fn += c.fn[k]
		}
		return score(tp, fp, fn), nil
	case Binary:
		if len(c.labels) > 2 {
			return 0, core.Invalidf("metrics: binary average over %d classes", len(c.labels))
		}
		for k, lab := range c.labels {
			if lab == 1 {
				return score(c.tp[k], c.fp[k], c.fn[k]), nil
			}
		}
		return 0, nil
	case Macro:
		sum := 0.0
		for k := range c.labels {
			sum += score(c.tp[k], c.fp[k], c.fn[k])
		}
		return sum / float64(len(c.labels)), nil
	case Weighted:
		sum := 0.0
		for k := range c.labels {
			sum += score(c.tp[k], c.fp[k], c.fn[k]) * float64(c.support[k])
		}
		return sum / float64(len(actual)), nil
	default:
		return 0, core.Invalidf("metrics: unknown average %d", int(avg))
	}
}

// PrecisionScore is tp / (tp + fp). Classes never predicted score 0.
func PrecisionScore(predicted, actual []int, avg Average) (float64, error) {
	return average(predicted, actual, avg, func(tp, fp, _ int) float64 { return ratio(tp, tp+fp) })
}

// RecallScore is tp / (tp + fn).
func RecallScore(predicted, actual []int, avg Average) (float64, error) {
	return average(predicted, actual, avg, func(tp, _, fn int) float64 { return ratio(tp, tp+fn) })
}

// F1Score is the harmonic mean of precision and recall, 2tp / (2tp + fp + fn).
func F1Score(predicted, actual []int, avg Average) (float64, error) {
	return average(predicted, actual, avg, func(tp, fp, fn int) float64 { return ratio(2*tp, 2*tp+fp+fn) })
}

// ConfusionMatrix counts rows by (actual, predicted) over the union of labels.
// matrix[a][p] is the number of rows of labels[a] predicted as labels[p].
func ConfusionMatrix(predicted, actual []int) (labels []int, matrix [][]int, err error) {
	c, err := countClasses(predicted, actual)
	if err != nil {
		return nil, nil, err
	}
	pos := make(map[int]int, len(c.labels))
	for k, lab := range c.labels {
		pos[lab] = k
	}
	matrix = make([][]int, len(c.labels))
	for k := range matrix {
		matrix[k] = make([]int, len(c.labels))
	}
	for i := range actual {
		matrix[pos[actual[i]]][pos[predicted[i]]]++
	}
	return c.labels, matrix, nil
}
