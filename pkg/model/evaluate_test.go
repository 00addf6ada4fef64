package model

import (
	"testing"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateResult(t *testing.T) {
	unscaled := Pair{Name: "unscaled", Predicted: []int{0, 1, 1, 0}, Actual: []int{0, 1, 1, 0}}
	scaled := Pair{Name: "scaled", Predicted: []int{0, 0, 1}, Actual: []int{0, 1, 1}}
	cmp, err := EvaluateResult(F1Score, "f1_score", unscaled, scaled)
	require.NoError(t, err)
	assert.Equal(t, "f1_score", cmp.Metric)
	assert.Equal(t, Score{Pipeline: "unscaled", Value: 1}, cmp.Without)
	assert.Equal(t, "scaled", cmp.With.Pipeline)
	assert.Greater(t, cmp.With.Value, 0.0)
	assert.Less(t, cmp.With.Value, 1.0)
	assert.Less(t, cmp.Delta(), 0.0)
	assert.Contains(t, cmp.String(), "f1_score WITHOUT preparation 1")
	assert.Contains(t, cmp.String(), "f1_score WITH preparation 0.")
}

func TestEvaluateResultPairsOwnGroundTruth(t *testing.T) {
	// the second pipeline sees its rows in another order; scoring it against the
	// first pipeline's ground truth would be meaningless
	a := Pair{Name: "a", Predicted: []int{0, 1, 2}, Actual: []int{0, 1, 2}}
	b := Pair{Name: "b", Predicted: []int{2, 1, 0}, Actual: []int{2, 1, 0}}
	cmp, err := EvaluateResult(F1Score, "f1", a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cmp.Without.Value)
	assert.Equal(t, 1.0, cmp.With.Value)

	wrong := Pair{Name: "b", Predicted: []int{1, 2, 0}, Actual: []int{0, 1, 2}}
	cmp, err = EvaluateResult(F1Score, "f1", a, wrong)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.With.Value)
}

func TestEvaluateResultLengthMismatch(t *testing.T) {
	ok := Pair{Name: "ok", Predicted: []int{0, 1}, Actual: []int{0, 1}}
	bad := Pair{Name: "bad", Predicted: []int{0, 1}, Actual: []int{0}}
	_, err := EvaluateResult(F1Score, "f1", bad, ok)
	assert.True(t, errors.Is(err, core.LengthMismatch))
	assert.Contains(t, err.Error(), "bad")
	_, err = EvaluateResult(PrecisionScore, "precision", ok, bad)
	assert.True(t, errors.Is(err, core.LengthMismatch))
}
