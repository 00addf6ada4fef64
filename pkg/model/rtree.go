package model

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
)

// DecisionTreeRegressor is a CART regression tree splitting on variance reduction.
// Leaves predict the mean target of their samples.
type DecisionTreeRegressor struct {
	TreeParams

	root        *node
	importances []float64
}

func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	return &DecisionTreeRegressor{TreeParams: defaultTreeParams(opts)}
}

func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	return t.FitIndices(X, y, allIndices(len(X)))
}

// FitIndices trains on the rows of X named by idx, repeats allowed.
func (t *DecisionTreeRegressor) FitIndices(X [][]float64, y []float64, idx []int) error {
	if err := t.validate(); err != nil {
		return err
	}
	p, err := checkXY(X, len(y), idx)
	if err != nil {
		return errors.Trace(err)
	}
	for _, i := range idx {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return core.Invalidf("rtree: target %d is not finite", i)
		}
	}
	b := &regBuilder{
		params:      t.TreeParams,
		X:           X,
		y:           y,
		p:           p,
		total:       float64(len(idx)),
		rnd:         rand.New(rand.NewSource(t.RandomState)),
		importances: make([]float64, p),
	}
	t.root = b.build(append([]int(nil), idx...), 0)
	t.importances = normalize(b.importances)
	return nil
}

// Predict returns nil for an unfitted tree.
func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	if t.root == nil {
		return nil
	}
	out := make([]float64, len(X))
	for i := range X {
		out[i] = t.root.leaf(X[i]).value
	}
	return out
}

func (t *DecisionTreeRegressor) FeatureImportances() []float64 { return t.importances }

func (t *DecisionTreeRegressor) Depth() int { return t.root.depth() }

type regBuilder struct {
	params      TreeParams
	X           [][]float64
	y           []float64
	p           int
	total       float64
	rnd         *rand.Rand
	importances []float64
}

// moments accumulates count, sum and sum of squares of a target subset.
type moments struct {
	n       int
	sum, sq float64
}

func (m *moments) add(v float64) {
	m.n++
	m.sum += v
	m.sq += v * v
}

func (m moments) minus(o moments) moments {
	return moments{n: m.n - o.n, sum: m.sum - o.sum, sq: m.sq - o.sq}
}

func (m moments) plus(o moments) moments {
	return moments{n: m.n + o.n, sum: m.sum + o.sum, sq: m.sq + o.sq}
}

// variance is the population variance, clamped at 0 against rounding.
func (m moments) variance() float64 {
	if m.n == 0 {
		return 0
	}
	mean := m.sum / float64(m.n)
	return math.Max(m.sq/float64(m.n)-mean*mean, 0)
}

func (b *regBuilder) build(idx []int, depth int) *node {
	nd := &node{n: len(idx), isLeaf: true}
	var all moments
	constant := true
	for _, i := range idx {
		all.add(b.y[i])
		constant = constant && b.y[i] == b.y[idx[0]]
	}
	nd.value = all.sum / float64(all.n)

	parentImpurity := all.variance()
	if constant || (b.params.MinSamplesSplit > 0 && len(idx) < b.params.MinSamplesSplit) {
		return nd
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return nd
	}

	featIndices := sampleFeatures(b.p, b.params.MaxFeatures, b.rnd)
	results := make([]splitResult, len(featIndices))
	if len(idx) >= parallelSplitMin {
		var wg sync.WaitGroup
		for k, f := range featIndices {
			wg.Add(1)
			go func(k, f int) {
				defer wg.Done()
				results[k] = b.findBestSplitForFeature(idx, f, all, parentImpurity)
			}(k, f)
		}
		wg.Wait()
	} else {
		for k, f := range featIndices {
			results[k] = b.findBestSplitForFeature(idx, f, all, parentImpurity)
		}
	}

	best := splitResult{feature: -1}
	for _, result := range results {
		if result.feature >= 0 && result.gain > best.gain {
			best = result
		}
	}
	if best.feature == -1 || best.gain <= b.params.MinImpurityDecrease {
		return nd
	}

	nd.isLeaf = false
	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.nan = best.nan
	b.importances[best.feature] += float64(len(idx)) / b.total * best.gain

	split := nd.partition(b.X, idx)
	nd.left = b.build(idx[:split], depth+1)
	nd.right = b.build(idx[split:], depth+1)
	return nd
}

// findBestSplitForFeature scans numeric thresholds with running moments.
func (b *regBuilder) findBestSplitForFeature(idx []int, f int, all moments, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	n := float64(len(idx))
	minLeaf := b.params.MinSamplesLeaf

	var nans moments
	valid := make([]pair, 0, len(idx))
	for _, i := range idx {
		v := b.X[i][f]
		if math.IsNaN(v) {
			nans.add(b.y[i])
		} else {
			valid = append(valid, pair{v, i})
		}
	}
	if len(valid) == 0 {
		return result
	}
	validAll := all.minus(nans)
	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	var running moments
	for s := 1; s < len(valid); s++ {
		running.add(b.y[valid[s-1].i])
		if valid[s].v == valid[s-1].v {
			continue
		}
		thr := (valid[s-1].v + valid[s].v) / 2.0
		for _, nanGoesLeft := range []bool{true, false} {
			left, right := running, validAll.minus(running)
			if nanGoesLeft {
				left = left.plus(nans)
			} else {
				right = right.plus(nans)
			}
			if left.n < max(minLeaf, 1) || right.n < max(minLeaf, 1) {
				continue
			}
			weighted := float64(left.n)/n*left.variance() + float64(right.n)/n*right.variance()
			if gain := parentImpurity - weighted; gain > result.gain {
				dir := nanUnseen
				if nans.n > 0 {
					dir = nanRight
					if nanGoesLeft {
						dir = nanLeft
					}
				}
				result = splitResult{gain: gain, feature: f, threshold: thr, nan: dir}
			}
			if nans.n == 0 {
				break
			}
		}
	}
	return result
}
