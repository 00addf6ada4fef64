package model

import (
	"sort"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	randomforest "github.com/malaschitz/randomForest"
	"gonum.org/v1/gonum/floats"
)

// ExternalForest adapts github.com/malaschitz/randomForest to Classifier. The
// library draws from the global random source, so fits are not reproducible.
type ExternalForest struct {
	NTrees int

	forest  *randomforest.Forest
	classes []int
}

func NewExternalForest(trees int) *ExternalForest {
	return &ExternalForest{NTrees: trees}
}

// Fit trains the forest. Labels are remapped to 0..k-1 as the library expects.
func (e *ExternalForest) Fit(X [][]float64, y []int) error {
	if e.NTrees <= 0 {
		return core.Invalidf("external forest: trees must be positive, got %d", e.NTrees)
	}
	if _, err := checkXY(X, len(y), []int{0}); err != nil {
		return errors.Trace(err)
	}
	seen := map[int]struct{}{}
	e.classes = nil
	for _, lab := range y {
		if _, ok := seen[lab]; !ok {
			seen[lab] = struct{}{}
			e.classes = append(e.classes, lab)
		}
	}
	sort.Ints(e.classes)
	pos := make(map[int]int, len(e.classes))
	for ci, lab := range e.classes {
		pos[lab] = ci
	}
	class := make([]int, len(y))
	for i, lab := range y {
		class[i] = pos[lab]
	}

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: X, Class: class}
	forest.Train(e.NTrees)
	e.forest = forest
	return nil
}

// Predict returns the class with the most votes for every row.
func (e *ExternalForest) Predict(X [][]float64) []int {
	if e.forest == nil {
		return nil
	}
	out := make([]int, len(X))
	for i, x := range X {
		votes := e.forest.Vote(x)
		if len(votes) == 0 {
			out[i] = e.classes[0]
			continue
		}
		out[i] = e.classes[floats.MaxIdx(votes)]
	}
	return out
}

// FeatureImportances returns the library's importance statistics.
func (e *ExternalForest) FeatureImportances() []float64 {
	if e.forest == nil {
		return nil
	}
	return e.forest.FeatureImportance
}
