package model

import (
	"math"
	"math/rand"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
)

// ---------------------------
// Shared tree parameters
// ---------------------------

// TreeParams are the hyperparameters shared by classification and regression trees.
type TreeParams struct {
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"; regression trees always use variance
	MaxFeatures         int     // 0 => use all features, >0 => number of features to sample when looking for split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for randomness (feature subsampling)
}

// Option functional config
type Option func(*TreeParams)

func WithMaxDepth(d int) Option { return func(t *TreeParams) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *TreeParams) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *TreeParams) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *TreeParams) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *TreeParams) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *TreeParams) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *TreeParams) { t.RandomState = seed }
}

func defaultTreeParams(opts []Option) TreeParams {
	p := TreeParams{
		MaxDepth:        0, // 0 => no explicit max (stopping by other criteria)
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     42,
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func (p TreeParams) validate() error {
	if p.Criterion != "gini" && p.Criterion != "entropy" {
		return core.Invalidf("tree: unknown criterion %q", p.Criterion)
	}
	if p.MaxDepth < 0 || p.MinSamplesSplit < 0 || p.MinSamplesLeaf < 0 || p.MaxFeatures < 0 {
		return core.Invalidf("tree: negative hyperparameter")
	}
	return nil
}

// parallelSplitMin is the node size from which features are searched concurrently.
const parallelSplitMin = 4096

// ---------------------------
// Nodes
// ---------------------------

// missing value routing learned at fit time
const (
	nanUnseen int8 = iota
	nanLeft
	nanRight
)

// node holds a node in a classification or regression tree.
type node struct {
	isLeaf    bool
	feature   int
	threshold float64 // numeric threshold: x <= threshold => left
	isCat     bool    // true if this split is a categorical equality split (x == threshold)
	nan       int8
	left      *node
	right     *node

	n int
	// classification
	probas    []float64 // probability distribution across classes (aligned with tree.classes)
	predIndex int       // index into classes for predicted class (majority)
	// regression
	value float64
}

func (nd *node) goLeft(x []float64) bool {
	val := x[nd.feature]
	if math.IsNaN(val) {
		switch nd.nan {
		case nanLeft:
			return true
		case nanRight:
			return false
		}
		// no missing values at fit time: choose branch with more samples
		return nd.left.n >= nd.right.n
	}
	if nd.isCat {
		return val == nd.threshold
	}
	return val <= nd.threshold
}

func (nd *node) leaf(x []float64) *node {
	for !nd.isLeaf {
		if nd.goLeft(x) {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd
}

func (nd *node) depth() int {
	if nd == nil || nd.isLeaf {
		return 0
	}
	return 1 + max(nd.left.depth(), nd.right.depth())
}

func (nd *node) leaves() int {
	if nd == nil {
		return 0
	}
	if nd.isLeaf {
		return 1
	}
	return nd.left.leaves() + nd.right.leaves()
}

// partition reorders idx so rows going left come first and returns the split point.
func (nd *node) partition(X [][]float64, idx []int) int {
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if nd.goLeft(X[i]) {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	copy(idx, left)
	copy(idx[len(left):], right)
	return len(left)
}

// ---------------------------
// Input checks
// ---------------------------

// checkXY validates the training matrix and the sample indices, returning the
// number of features.
func checkXY(X [][]float64, ny int, idx []int) (int, error) {
	if len(X) == 0 {
		return 0, core.Invalidf("tree: empty X")
	}
	if ny != len(X) {
		return 0, core.Mismatchf("tree: X has %d rows, y has %d", len(X), ny)
	}
	p := len(X[0])
	if p == 0 {
		return 0, core.Invalidf("tree: X has no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, core.Mismatchf("tree: row %d has %d features, want %d", i, len(X[i]), p)
		}
	}
	if len(idx) == 0 {
		return 0, core.Invalidf("tree: no samples")
	}
	for _, i := range idx {
		if i < 0 || i >= len(X) {
			return 0, core.Invalidf("tree: sample index %d out of range", i)
		}
	}
	return p, nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func sampleFeatures(p, k int, rnd *rand.Rand) []int {
	featIndices := allIndices(p)
	if k > 0 && k < p {
		for i := 0; i < k; i++ {
			j := i + rnd.Intn(p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:k]
	}
	return featIndices
}

func almostInt(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	_, frac := math.Modf(math.Abs(v))
	return frac < 1e-9 || frac > 1-1e-9
}

// pair is a feature value and its sample index.
type pair struct {
	v float64
	i int
}
