package model

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier.
type DecisionTreeClassifier struct {
	TreeParams

	// internals
	root        *node
	classes     []int // unique class labels, ascending (order used by probas)
	importances []float64
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	return &DecisionTreeClassifier{TreeParams: defaultTreeParams(opts)}
}

// ---------------------------
// Public API: Fit / Predict / PredictProba / Prune
// ---------------------------

// Fit trains the decision tree on X (n x p) and y (n labels as ints).
// Missing values must be math.NaN(). Categorical features:
// encode categories as integers (0,1,2...) in the corresponding float64 entry.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	return t.FitIndices(X, y, allIndices(len(X)))
}

// FitIndices trains on the rows of X named by idx. Repeated indices weigh a row
// several times, which is how bootstrap samples are passed without copying X.
func (t *DecisionTreeClassifier) FitIndices(X [][]float64, y []int, idx []int) error {
	if err := t.validate(); err != nil {
		return err
	}
	p, err := checkXY(X, len(y), idx)
	if err != nil {
		return errors.Trace(err)
	}

	// collect classes and map every sample to its class position
	classMap := map[int]int{}
	t.classes = nil
	for _, i := range idx {
		if _, ok := classMap[y[i]]; !ok {
			classMap[y[i]] = 0
			t.classes = append(t.classes, y[i])
		}
	}
	sort.Ints(t.classes)
	for ci, lab := range t.classes {
		classMap[lab] = ci
	}
	yi := make([]int, len(y))
	for _, i := range idx {
		yi[i] = classMap[y[i]]
	}

	impurity := giniFromCounts
	if t.Criterion == "entropy" {
		impurity = entropyFromCounts
	}
	b := &classBuilder{
		params:      t.TreeParams,
		X:           X,
		yi:          yi,
		nClasses:    len(t.classes),
		p:           p,
		total:       float64(len(idx)),
		impurity:    impurity,
		rnd:         rand.New(rand.NewSource(t.RandomState)),
		importances: make([]float64, p),
	}
	t.root = b.build(append([]int(nil), idx...), 0)
	t.importances = normalize(b.importances)
	return nil
}

// Classes returns the class labels seen at fit time, ascending.
func (t *DecisionTreeClassifier) Classes() []int { return t.classes }

// Predict returns predicted class labels aligned with the labels the tree was trained on.
// It returns nil for an unfitted tree.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	if t.root == nil {
		return nil
	}
	out := make([]int, len(X))
	for i := range X {
		out[i] = t.classes[t.root.leaf(X[i]).predIndex]
	}
	return out
}

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	if t.root == nil {
		return nil
	}
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.root.leaf(X[i]).probas
	}
	return out
}

// FeatureImportances returns the impurity decrease contributed by every feature,
// normalized to sum to 1.
func (t *DecisionTreeClassifier) FeatureImportances() []float64 { return t.importances }

// Depth returns the depth of the fitted tree.
func (t *DecisionTreeClassifier) Depth() int { return t.root.depth() }

// Leaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeClassifier) Leaves() int { return t.root.leaves() }

// PruneReducedError performs reduced-error post-pruning using validation data (Xval,yval).
// Every internal node whose subtree makes at least as many validation errors as
// the node would make as a leaf is collapsed, bottom-up.
// Returns number of pruned nodes.
func (t *DecisionTreeClassifier) PruneReducedError(Xval [][]float64, yval []int) (int, error) {
	if t.root == nil {
		return 0, core.Invalidf("dtree: tree not trained")
	}
	if len(Xval) == 0 {
		return 0, core.Invalidf("dtree: empty validation set")
	}
	if len(yval) != len(Xval) {
		return 0, core.Mismatchf("dtree: validation X has %d rows, y has %d", len(Xval), len(yval))
	}
	classPos := make(map[int]int, len(t.classes))
	for ci, lab := range t.classes {
		classPos[lab] = ci
	}
	yi := make([]int, len(yval))
	for i, lab := range yval {
		ci, ok := classPos[lab]
		if !ok {
			ci = -1 // never predicted
		}
		yi[i] = ci
	}
	_, pruned := pruneReducedError(t.root, Xval, yi, allIndices(len(Xval)))
	return pruned, nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// A struct to hold the results of a single feature's best split search.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	isCat     bool
	nan       int8
}

type classBuilder struct {
	params      TreeParams
	X           [][]float64
	yi          []int
	nClasses    int
	p           int
	total       float64
	impurity    func([]int) float64
	rnd         *rand.Rand
	importances []float64
}

func (b *classBuilder) build(idx []int, depth int) *node {
	nd := &node{n: len(idx)}

	// compute class counts
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.yi[i]]++
	}
	nd.probas = countsToProbas(counts)
	nd.predIndex = argmax(counts)
	nd.isLeaf = true

	// make leaf if pure or too few samples or depth reached
	if isPure(counts) || (b.params.MinSamplesSplit > 0 && len(idx) < b.params.MinSamplesSplit) {
		return nd
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return nd
	}

	featIndices := sampleFeatures(b.p, b.params.MaxFeatures, b.rnd)
	parentImpurity := b.impurity(counts)

	// results are indexed by position so ties resolve the same way every run
	results := make([]splitResult, len(featIndices))
	if len(idx) >= parallelSplitMin {
		var wg sync.WaitGroup
		for k, f := range featIndices {
			wg.Add(1)
			go func(k, f int) {
				defer wg.Done()
				results[k] = b.findBestSplitForFeature(idx, f, counts, parentImpurity)
			}(k, f)
		}
		wg.Wait()
	} else {
		for k, f := range featIndices {
			results[k] = b.findBestSplitForFeature(idx, f, counts, parentImpurity)
		}
	}

	best := splitResult{feature: -1}
	for _, result := range results {
		if result.feature >= 0 && result.gain > best.gain {
			best = result
		}
	}

	// Decide whether to split
	if best.feature == -1 || best.gain <= b.params.MinImpurityDecrease {
		return nd
	}

	// found a valid split; create internal node
	nd.isLeaf = false
	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.isCat = best.isCat
	nd.nan = best.nan
	b.importances[best.feature] += float64(len(idx)) / b.total * best.gain

	split := nd.partition(b.X, idx)
	nd.left = b.build(idx[:split], depth+1)
	nd.right = b.build(idx[split:], depth+1)
	return nd
}

// findBestSplitForFeature is a goroutine-safe helper that finds the best split for a single feature.
// Candidate splits are scored from running class counts, so a feature costs one sort.
func (b *classBuilder) findBestSplitForFeature(idx []int, f int, counts []int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	n := float64(len(idx))
	minLeaf := b.params.MinSamplesLeaf

	// handle missing values: separate NaNs
	nanCounts := make([]int, b.nClasses)
	nNaN := 0
	valid := make([]pair, 0, len(idx))
	for _, i := range idx {
		v := b.X[i][f]
		if math.IsNaN(v) {
			nanCounts[b.yi[i]]++
			nNaN++
		} else {
			valid = append(valid, pair{v, i})
		}
	}
	if len(valid) == 0 {
		return result
	}
	validCounts := make([]int, b.nClasses)
	for k := range counts {
		validCounts[k] = counts[k] - nanCounts[k]
	}

	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)
	// score evaluates the split where left holds leftCounts plus, optionally, the NaNs
	score := func(leftCounts []int, nLeft int, threshold float64, isCat bool) {
		for _, nanGoesLeft := range []bool{true, false} {
			nl := nLeft
			for k := range left {
				left[k] = leftCounts[k]
				right[k] = validCounts[k] - leftCounts[k]
				if nanGoesLeft {
					left[k] += nanCounts[k]
				} else {
					right[k] += nanCounts[k]
				}
			}
			if nanGoesLeft {
				nl += nNaN
			}
			nr := len(idx) - nl
			if nl < minLeaf || nr < minLeaf || nl == 0 || nr == 0 {
				continue
			}
			weighted := float64(nl)/n*b.impurity(left) + float64(nr)/n*b.impurity(right)
			gain := parentImpurity - weighted
			if gain > result.gain {
				dir := nanUnseen
				if nNaN > 0 {
					dir = nanRight
					if nanGoesLeft {
						dir = nanLeft
					}
				}
				result = splitResult{gain: gain, feature: f, threshold: threshold, isCat: isCat, nan: dir}
			}
			if nNaN == 0 {
				break
			}
		}
	}

	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	// try categorical-equality splits if values are integer-like and small unique set
	if groups := integerGroups(valid, b.yi, b.nClasses); groups != nil {
		for _, g := range groups {
			score(g.counts, g.n, g.value, true)
		}
	}

	// ---- NUMERIC splits: scan thresholds between distinct sorted values ----
	running := make([]int, b.nClasses)
	for s := 1; s < len(valid); s++ {
		running[b.yi[valid[s-1].i]]++
		// skip if same value
		if valid[s].v == valid[s-1].v {
			continue
		}
		thr := (valid[s-1].v + valid[s].v) / 2.0
		score(running, s, thr, false)
	}
	return result
}

type valueGroup struct {
	value  float64
	n      int
	counts []int
}

// integerGroups returns per-value class counts when a sorted feature holds at
// most 30 distinct integer-like values, nil otherwise.
func integerGroups(sorted []pair, yi []int, nClasses int) []valueGroup {
	var groups []valueGroup
	for s, pv := range sorted {
		if s == 0 || pv.v != sorted[s-1].v {
			if !almostInt(pv.v) || len(groups) == 30 {
				return nil
			}
			groups = append(groups, valueGroup{value: pv.v, counts: make([]int, nClasses)})
		}
		g := &groups[len(groups)-1]
		g.n++
		g.counts[yi[pv.i]]++
	}
	return groups
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func normalize(v []float64) []float64 {
	out := append([]float64(nil), v...)
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

// ---------------------------
// Reduced-error pruning implementation
// ---------------------------

// pruneReducedError routes the validation rows in rows through nd post-order and
// collapses nd when that does not add validation errors. It returns the errors
// of the (possibly pruned) subtree and the number of collapsed nodes.
func pruneReducedError(nd *node, X [][]float64, yi []int, rows []int) (errs, pruned int) {
	asLeaf := 0
	for _, i := range rows {
		if yi[i] != nd.predIndex {
			asLeaf++
		}
	}
	if nd.isLeaf {
		return asLeaf, 0
	}
	split := nd.partition(X, rows)
	leftErrs, leftPruned := pruneReducedError(nd.left, X, yi, rows[:split])
	rightErrs, rightPruned := pruneReducedError(nd.right, X, yi, rows[split:])
	pruned = leftPruned + rightPruned
	if asLeaf <= leftErrs+rightErrs {
		pruned += nd.leaves() - 1
		nd.isLeaf = true
		nd.left, nd.right = nil, nil
		return asLeaf, pruned
	}
	return leftErrs + rightErrs, pruned
}
