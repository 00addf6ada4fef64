package model

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"
)

// ForestParams are the hyperparameters shared by the classification and
// regression forests.
type ForestParams struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures is the number of features tried per split. 0 picks sqrt(p)
	// for classification and p for regression.
	MaxFeatures int
	Criterion   string
	Bootstrap   bool
	RandomState int64
	// NJobs bounds the trees fitted at once. Values <= 0 use every CPU.
	NJobs int
	// Progress is called after every fitted tree. Calls are serialized.
	Progress func(done, total int)
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*ForestParams)

func WithNEstimators(n int) RandomForestOption { return func(rf *ForestParams) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *ForestParams) { rf.Bootstrap = b } }
func WithNJobs(n int) RandomForestOption       { return func(rf *ForestParams) { rf.NJobs = n } }
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *ForestParams) { rf.MaxDepth = d }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *ForestParams) { rf.MinSamplesLeaf = n }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *ForestParams) { rf.MaxFeatures = k }
}
func WithForestCriterion(c string) RandomForestOption {
	return func(rf *ForestParams) { rf.Criterion = c }
}
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *ForestParams) { rf.RandomState = seed }
}
func WithProgress(f func(done, total int)) RandomForestOption {
	return func(rf *ForestParams) { rf.Progress = f }
}

func defaultForestParams(opts []RandomForestOption) ForestParams {
	p := ForestParams{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		Bootstrap:       true,
		RandomState:     42,
		NJobs:           -1,
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

func (fp ForestParams) workers() int {
	if fp.NJobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return fp.NJobs
}

func (fp ForestParams) treeOptions(maxFeatures int, i int) []Option {
	return []Option{
		WithMaxDepth(fp.MaxDepth),
		WithMinSamplesSplit(fp.MinSamplesSplit),
		WithMinSamplesLeaf(fp.MinSamplesLeaf),
		WithMaxFeatures(maxFeatures),
		WithCriterion(fp.Criterion),
		WithRandomState(fp.RandomState + int64(i)), // unique seed for each tree
	}
}

// grow fits NEstimators trees on at most workers goroutines. Every tree draws its
// bootstrap sample from its own seeded source, so the forest does not depend on
// scheduling.
func (fp ForestParams) grow(n int, fit func(i int, idx []int) error) error {
	if fp.NEstimators <= 0 {
		return core.Invalidf("randomforest: n_estimators must be positive, got %d", fp.NEstimators)
	}
	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(fp.workers())
	for i := 0; i < fp.NEstimators; i++ {
		g.Go(func() error {
			// Bootstrap sampling: create an index slice, not a copy of the data.
			sampleIndices := allIndices(n)
			if fp.Bootstrap {
				treeRand := rand.New(rand.NewSource(fp.RandomState + int64(i)))
				for j := range sampleIndices {
					sampleIndices[j] = treeRand.Intn(n)
				}
			}
			if err := fit(i, sampleIndices); err != nil {
				return errors.Annotatef(err, "tree %d", i)
			}
			if fp.Progress != nil {
				mu.Lock()
				done++
				fp.Progress(done, fp.NEstimators)
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// RandomForest for classification
type RandomForest struct {
	ForestParams

	// Internal state
	Trees   []*DecisionTreeClassifier
	classes []int
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	return &RandomForest{ForestParams: defaultForestParams(opts)}
}

// Fit trains the random forest.
// It uses index-based sampling for memory efficiency.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	p, err := checkXY(X, len(y), []int{0})
	if err != nil {
		return errors.Trace(err)
	}
	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}

	seen := map[int]struct{}{}
	rf.classes = nil
	for _, lab := range y {
		if _, ok := seen[lab]; !ok {
			seen[lab] = struct{}{}
			rf.classes = append(rf.classes, lab)
		}
	}
	sort.Ints(rf.classes)

	trees := make([]*DecisionTreeClassifier, max(rf.NEstimators, 0))
	err = rf.grow(len(X), func(i int, idx []int) error {
		tree := NewDecisionTreeClassifier(rf.treeOptions(maxFeatures, i)...)
		if err := tree.FitIndices(X, y, idx); err != nil {
			return err
		}
		trees[i] = tree
		return nil
	})
	if err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// Classes returns the class labels seen at fit time, ascending.
func (rf *RandomForest) Classes() []int { return rf.classes }

// Predict returns the majority vote of all trees. Ties go to the smallest label.
func (rf *RandomForest) Predict(X [][]float64) []int {
	if len(rf.Trees) == 0 {
		return nil
	}
	allPreds := make([][]int, len(rf.Trees))
	g := new(errgroup.Group)
	g.SetLimit(rf.workers())
	for j, tree := range rf.Trees {
		g.Go(func() error {
			allPreds[j] = tree.Predict(X)
			return nil
		})
	}
	_ = g.Wait()

	classPos := make(map[int]int, len(rf.classes))
	for ci, lab := range rf.classes {
		classPos[lab] = ci
	}
	finalPred := make([]int, len(X))
	counts := make([]int, len(rf.classes))
	for i := range X {
		clear(counts)
		for j := range allPreds {
			counts[classPos[allPreds[j][i]]]++
		}
		finalPred[i] = rf.classes[argmax(counts)]
	}
	return finalPred
}

// FeatureImportances averages the normalized importances of the trees.
func (rf *RandomForest) FeatureImportances() []float64 {
	return averageImportances(len(rf.Trees), func(j int) []float64 { return rf.Trees[j].FeatureImportances() })
}

// RandomForestRegressor averages the predictions of bootstrapped regression trees.
type RandomForestRegressor struct {
	ForestParams

	Trees []*DecisionTreeRegressor
}

func NewRandomForestRegressor(opts ...RandomForestOption) *RandomForestRegressor {
	return &RandomForestRegressor{ForestParams: defaultForestParams(opts)}
}

func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	if _, err := checkXY(X, len(y), []int{0}); err != nil {
		return errors.Trace(err)
	}
	trees := make([]*DecisionTreeRegressor, max(rf.NEstimators, 0))
	err := rf.grow(len(X), func(i int, idx []int) error {
		tree := NewDecisionTreeRegressor(rf.treeOptions(rf.MaxFeatures, i)...)
		if err := tree.FitIndices(X, y, idx); err != nil {
			return err
		}
		trees[i] = tree
		return nil
	})
	if err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	if len(rf.Trees) == 0 {
		return nil
	}
	allPreds := make([][]float64, len(rf.Trees))
	g := new(errgroup.Group)
	g.SetLimit(rf.workers())
	for j, tree := range rf.Trees {
		g.Go(func() error {
			allPreds[j] = tree.Predict(X)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]float64, len(X))
	for i := range X {
		for j := range allPreds {
			out[i] += allPreds[j][i]
		}
		out[i] /= float64(len(allPreds))
	}
	return out
}

func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	return averageImportances(len(rf.Trees), func(j int) []float64 { return rf.Trees[j].FeatureImportances() })
}

func averageImportances(n int, tree func(j int) []float64) []float64 {
	if n == 0 {
		return nil
	}
	var out []float64
	for j := range n {
		imp := tree(j)
		if out == nil {
			out = make([]float64, len(imp))
		}
		for k, v := range imp {
			out[k] += v / float64(n)
		}
	}
	return out
}
