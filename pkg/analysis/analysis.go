// Package analysis runs the malware traffic study: correlation ranking,
// train/validation/test split, decision tree, and random forests fitted
// without and with feature preparation.
package analysis

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Misael10x/Random-Forest-Codigo/pkg/config"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/core"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/data"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/dataprep"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/loader"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/log"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/model"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/pipeline"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/report"
	"github.com/Misael10x/Random-Forest-Codigo/pkg/stats"
)

// ProgressFunc returns the callback receiving the progress of a named forest fit.
// It may return nil.
type ProgressFunc func(stage string) func(done, total int)

// Analysis holds the loaded dataset and the split shared by the steps.
type Analysis struct {
	config   *config.Config
	out      io.Writer
	progress ProgressFunc

	dataset          *data.Dataset
	train, val, test *data.Dataset
}

type Option func(*Analysis)

// WithProgress reports forest fitting progress.
func WithProgress(progress ProgressFunc) Option {
	return func(a *Analysis) { a.progress = progress }
}

// New creates an analysis writing its tables to out.
func New(conf *config.Config, out io.Writer, opts ...Option) *Analysis {
	a := &Analysis{config: conf, out: out}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dataset returns the loaded dataset, nil before Load.
func (a *Analysis) Dataset() *data.Dataset { return a.dataset }

func (a *Analysis) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// Load reads the dataset and replaces its non-finite values.
func (a *Analysis) Load() error {
	ds, err := data.LoadCSV(a.config.Data.Path, data.Options{
		Label:     a.config.Data.Label,
		InferRows: a.config.Data.InferRows,
	})
	if err != nil {
		return errors.Trace(err)
	}
	strategy, err := dataprep.ParseStrategy(a.config.Data.Impute)
	if err != nil {
		return errors.Trace(err)
	}
	ds, imp, err := dataprep.ImputeNonFinite(ds, strategy)
	if err != nil {
		return errors.Trace(err)
	}
	if imp.Total() > 0 {
		a.printf("\nNon-finite values (%d rows dropped)\n", imp.Dropped)
		if err = report.Imputation(a.out, imp); err != nil {
			return err
		}
	}
	a.dataset = ds
	a.train, a.val, a.test = nil, nil, nil
	return nil
}

// features splits ds into its feature matrix, without the dropped columns, and labels.
func (a *Analysis) features(ds *data.Dataset) (*core.Matrix, *dataprep.Labels, error) {
	m, labels, err := dataprep.RemoveLabels(ds, a.config.Data.Label)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if len(a.config.Data.Drop) == 0 {
		return m, labels, nil
	}
	if missing := lo.Without(a.config.Data.Drop, m.Columns...); len(missing) > 0 {
		return nil, nil, core.NotFoundf("analysis: cannot drop unknown features %v", missing)
	}
	m, err = dataprep.SelectFeatures(m, lo.Without(m.Columns, a.config.Data.Drop...))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return m, labels, nil
}

func (a *Analysis) requireDataset() error {
	if a.dataset == nil {
		return core.Invalidf("analysis: no dataset loaded")
	}
	return nil
}

// Correlations prints how strongly every feature correlates with the factorized
// label, the features above the configured threshold and the redundant pairs.
func (a *Analysis) Correlations() ([]stats.Ranked, error) {
	if err := a.requireDataset(); err != nil {
		return nil, err
	}
	m, labels, err := a.features(a.dataset)
	if err != nil {
		return nil, err
	}
	ranking, err := stats.RankCorrelations(m, labels.Floats())
	if err != nil {
		return nil, errors.Trace(err)
	}
	threshold := a.config.Analysis.CorrelationThreshold
	above := stats.Above(ranking, threshold)
	log.Logger().Info("rank correlations",
		zap.Int("features", len(ranking)),
		zap.Int("above_threshold", len(above)),
		zap.Float64("threshold", threshold))

	a.printf("\nCorrelation with %s\n", a.config.Data.Label)
	if err = report.Correlations(a.out, ranking, threshold); err != nil {
		return nil, err
	}
	pairs, err := stats.CorrelatedPairs(m, a.config.Analysis.PairThreshold)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(pairs) > 0 {
		a.printf("\nFeature pairs with |correlation| >= %v\n", a.config.Analysis.PairThreshold)
		if err = report.Pairs(a.out, pairs); err != nil {
			return nil, err
		}
	}
	return ranking, nil
}

// Describe prints descriptive statistics of every feature.
func (a *Analysis) Describe() ([]stats.Summary, error) {
	if err := a.requireDataset(); err != nil {
		return nil, err
	}
	m, _, err := a.features(a.dataset)
	if err != nil {
		return nil, err
	}
	summaries := stats.Describe(m)
	a.printf("\nFeatures\n")
	return summaries, report.Describe(a.out, summaries)
}

func (a *Analysis) splitOptions() loader.Options {
	return loader.Options{
		Seed:     a.config.Split.Seed,
		Shuffle:  a.config.Split.Shuffle,
		Stratify: a.config.Split.Stratify,
		TestSize: a.config.Split.TestSize,
		ValSize:  a.config.Split.ValSize,
	}
}

// Split partitions the dataset into train, validation and test sets.
func (a *Analysis) Split() (train, val, test *data.Dataset, err error) {
	if a.train != nil {
		return a.train, a.val, a.test, nil
	}
	if err = a.requireDataset(); err != nil {
		return nil, nil, nil, err
	}
	train, val, test, err = loader.TrainValTestSplit(a.dataset, a.splitOptions())
	if err != nil {
		return nil, nil, nil, errors.Trace(err)
	}
	log.Logger().Info("split dataset",
		zap.Int("train", train.Len()),
		zap.Int("validation", val.Len()),
		zap.Int("test", test.Len()))
	a.printf("\nSplit\n")
	err = report.Splits(a.out, a.config.Data.Label,
		report.Subset{Name: "train", Dataset: train},
		report.Subset{Name: "validation", Dataset: val},
		report.Subset{Name: "test", Dataset: test})
	if err != nil {
		return nil, nil, nil, err
	}
	a.train, a.val, a.test = train, val, test
	return train, val, test, nil
}

// subset is one split part decomposed into features and labels.
type subset struct {
	X      *core.Matrix
	labels *dataprep.Labels
}

func (a *Analysis) decompose(parts ...*data.Dataset) ([]subset, error) {
	out := make([]subset, len(parts))
	for k, ds := range parts {
		m, labels, err := a.features(ds)
		if err != nil {
			return nil, err
		}
		out[k] = subset{X: m, labels: labels}
	}
	return out, nil
}

// prepare fits a fresh preparation pipeline on every subset independently.
func (a *Analysis) prepare(parts []subset) ([]subset, error) {
	out := make([]subset, len(parts))
	for k, part := range parts {
		p, err := pipeline.Build(a.config.Prepare.Steps, a.config.Prepare.ClipLower, a.config.Prepare.ClipUpper)
		if err != nil {
			return nil, errors.Trace(err)
		}
		m, err := p.FitTransform(part.X)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out[k] = subset{X: m, labels: part.labels}
	}
	return out, nil
}

func (a *Analysis) metric() (model.Metric, string, error) {
	metric, err := model.MetricByName(a.config.Analysis.Metric)
	if err != nil {
		return nil, "", errors.Trace(err)
	}
	return metric, a.config.Analysis.Metric + "_score", nil
}

// TreeResult holds the scores of the decision tree.
type TreeResult struct {
	Validation float64
	Test       float64
	Pruned     int
	Leaves     int
}

// Tree fits a decision tree on the training set, scores it on the validation
// set, prunes it there when configured, and scores it on the test set.
func (a *Analysis) Tree() (*TreeResult, error) {
	train, val, test, err := a.Split()
	if err != nil {
		return nil, err
	}
	parts, err := a.decompose(train, val, test)
	if err != nil {
		return nil, err
	}
	metric, name, err := a.metric()
	if err != nil {
		return nil, err
	}
	tc := a.config.Tree
	tree := model.NewDecisionTreeClassifier(
		model.WithCriterion(tc.Criterion),
		model.WithMaxDepth(tc.MaxDepth),
		model.WithMinSamplesSplit(tc.MinSamplesSplit),
		model.WithMinSamplesLeaf(tc.MinSamplesLeaf),
		model.WithRandomState(a.config.Split.Seed))
	if err = tree.Fit(parts[0].X.Rows(), parts[0].labels.Codes); err != nil {
		return nil, errors.Annotate(err, "fit decision tree")
	}
	result := &TreeResult{}
	if result.Validation, err = metric(tree.Predict(parts[1].X.Rows()), parts[1].labels.Codes, model.Weighted); err != nil {
		return nil, errors.Trace(err)
	}
	if tc.Prune {
		if result.Pruned, err = tree.PruneReducedError(parts[1].X.Rows(), parts[1].labels.Codes); err != nil {
			return nil, errors.Trace(err)
		}
	}
	predicted := tree.Predict(parts[2].X.Rows())
	if result.Test, err = metric(predicted, parts[2].labels.Codes, model.Weighted); err != nil {
		return nil, errors.Trace(err)
	}
	result.Leaves = tree.Leaves()
	log.Logger().Info("fit decision tree",
		zap.Int("depth", tree.Depth()),
		zap.Int("leaves", result.Leaves),
		zap.Int("pruned", result.Pruned),
		zap.Float64("validation", result.Validation),
		zap.Float64("test", result.Test))

	a.printf("\nDecision tree\n")
	if err = report.Scores(a.out, []string{"validation " + name, "test " + name},
		report.Score{Name: "decision tree", Values: []float64{result.Validation, result.Test}}); err != nil {
		return nil, err
	}
	labels, matrix, err := model.ConfusionMatrix(predicted, parts[2].labels.Codes)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return result, report.ConfusionMatrix(a.out, parts[2].labels.Levels, labels, matrix)
}

func (a *Analysis) classifier(stage string) model.Classifier {
	fc := a.config.Forest
	if fc.Backend == "external" {
		return model.NewExternalForest(fc.NEstimators)
	}
	opts := []model.RandomForestOption{
		model.WithNEstimators(fc.NEstimators),
		model.WithNJobs(fc.NJobs),
		model.WithForestMaxDepth(fc.MaxDepth),
		model.WithForestMaxFeatures(fc.MaxFeatures),
		model.WithForestCriterion(fc.Criterion),
		model.WithBootstrap(fc.Bootstrap),
		model.WithForestRandomState(a.config.Split.Seed),
	}
	if a.progress != nil {
		if progress := a.progress(stage); progress != nil {
			opts = append(opts, model.WithProgress(progress))
		}
	}
	return model.NewRandomForest(opts...)
}

// fitPredict fits a forest on train and predicts test, returning the prediction
// paired with the test labels.
func (a *Analysis) fitPredict(stage string, train, test subset) (model.Pair, model.Classifier, error) {
	clf := a.classifier(stage)
	if err := clf.Fit(train.X.Rows(), train.labels.Codes); err != nil {
		return model.Pair{}, nil, errors.Annotatef(err, "fit %s forest", stage)
	}
	return model.Pair{
		Name:      stage,
		Predicted: clf.Predict(test.X.Rows()),
		Actual:    test.labels.Codes,
	}, clf, nil
}

// Forest fits one forest on the raw features and one on the prepared features,
// then compares their test scores.
func (a *Analysis) Forest() (model.Comparison, error) {
	train, _, test, err := a.Split()
	if err != nil {
		return model.Comparison{}, err
	}
	raw, err := a.decompose(train, test)
	if err != nil {
		return model.Comparison{}, err
	}
	prepared, err := a.prepare(raw)
	if err != nil {
		return model.Comparison{}, err
	}
	metric, name, err := a.metric()
	if err != nil {
		return model.Comparison{}, err
	}

	unscaled, clf, err := a.fitPredict("unscaled", raw[0], raw[1])
	if err != nil {
		return model.Comparison{}, err
	}
	scaled, _, err := a.fitPredict("scaled", prepared[0], prepared[1])
	if err != nil {
		return model.Comparison{}, err
	}
	cmp, err := model.EvaluateResult(metric, name, unscaled, scaled)
	if err != nil {
		return model.Comparison{}, errors.Trace(err)
	}
	log.Logger().Info("compare forests",
		zap.String("metric", name),
		zap.Float64("without", cmp.Without.Value),
		zap.Float64("with", cmp.With.Value),
		zap.Strings("steps", a.config.Prepare.Steps))

	a.printf("\nRandom forest (%s backend, %d trees)\n", a.config.Forest.Backend, a.config.Forest.NEstimators)
	if err = report.Comparison(a.out, cmp); err != nil {
		return model.Comparison{}, err
	}
	if withImportances, ok := clf.(interface{ FeatureImportances() []float64 }); ok {
		if imp := withImportances.FeatureImportances(); len(imp) == raw[0].X.C {
			a.printf("\nFeature importances\n")
			if err = report.Importances(a.out, raw[0].X.Columns, imp, 15); err != nil {
				return model.Comparison{}, err
			}
		}
	}
	return cmp, nil
}

// RegressionResult holds the test errors of the regression forest.
type RegressionResult struct {
	MSE, RMSE, MAE, R2 float64
}

// Regress fits a regression forest on the factorized label and scores it on the
// test set.
func (a *Analysis) Regress() (*RegressionResult, error) {
	train, _, test, err := a.Split()
	if err != nil {
		return nil, err
	}
	parts, err := a.decompose(train, test)
	if err != nil {
		return nil, err
	}
	fc := a.config.Forest
	opts := []model.RandomForestOption{
		model.WithNEstimators(fc.NEstimators),
		model.WithNJobs(fc.NJobs),
		model.WithForestMaxDepth(fc.MaxDepth),
		model.WithForestMaxFeatures(fc.MaxFeatures),
		model.WithBootstrap(fc.Bootstrap),
		model.WithForestRandomState(a.config.Split.Seed),
	}
	if a.progress != nil {
		if progress := a.progress("regression"); progress != nil {
			opts = append(opts, model.WithProgress(progress))
		}
	}
	rf := model.NewRandomForestRegressor(opts...)
	if err = rf.Fit(parts[0].X.Rows(), parts[0].labels.Floats()); err != nil {
		return nil, errors.Annotate(err, "fit regression forest")
	}
	yTrue, yPred := parts[1].labels.Floats(), rf.Predict(parts[1].X.Rows())
	result := &RegressionResult{
		MSE:  model.MSE(yTrue, yPred),
		RMSE: model.RMSE(yTrue, yPred),
		MAE:  model.MAE(yTrue, yPred),
		R2:   model.R2(yTrue, yPred),
	}
	log.Logger().Info("fit regression forest", zap.Float64("mse", result.MSE), zap.Float64("r2", result.R2))
	a.printf("\nRegression forest on %s codes\n", a.config.Data.Label)
	return result, report.Scores(a.out, []string{"MSE", "RMSE", "MAE", "R2"},
		report.Score{Name: "random forest regressor", Values: []float64{result.MSE, result.RMSE, result.MAE, result.R2}})
}

// CrossValidate scores the forest on k folds of the whole dataset.
func (a *Analysis) CrossValidate() ([]float64, error) {
	if err := a.requireDataset(); err != nil {
		return nil, err
	}
	trains, tests, err := loader.KFold(a.dataset, a.config.Analysis.Folds, a.config.Split.Seed)
	if err != nil {
		return nil, errors.Trace(err)
	}
	metric, name, err := a.metric()
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(trains))
	rows := make([]report.Score, 0, len(trains)+1)
	for k := range trains {
		parts, err := a.decompose(trains[k], tests[k])
		if err != nil {
			return nil, err
		}
		pair, _, err := a.fitPredict(fmt.Sprintf("fold %d", k+1), parts[0], parts[1])
		if err != nil {
			return nil, err
		}
		if scores[k], err = metric(pair.Predicted, pair.Actual, model.Weighted); err != nil {
			return nil, errors.Annotatef(err, "fold %d", k+1)
		}
		rows = append(rows, report.Score{Name: pair.Name, Values: []float64{scores[k]}})
		log.Logger().Debug("cross validate", zap.Int("fold", k+1), zap.Float64(name, scores[k]))
	}
	rows = append(rows,
		report.Score{Name: "mean", Values: []float64{stats.Mean(scores)}},
		report.Score{Name: "std", Values: []float64{stats.Std(scores)}})
	a.printf("\n%d-fold cross validation\n", len(trains))
	return scores, report.Scores(a.out, []string{name}, rows...)
}

// Result gathers the outcome of Run.
type Result struct {
	Ranking    []stats.Ranked
	Tree       *TreeResult
	Comparison model.Comparison
	Regression *RegressionResult
}

// Run executes the whole study on a loaded dataset.
func (a *Analysis) Run() (*Result, error) {
	var (
		result Result
		err    error
	)
	if result.Ranking, err = a.Correlations(); err != nil {
		return nil, err
	}
	if _, _, _, err = a.Split(); err != nil {
		return nil, err
	}
	if result.Tree, err = a.Tree(); err != nil {
		return nil, err
	}
	if result.Comparison, err = a.Forest(); err != nil {
		return nil, err
	}
	if result.Regression, err = a.Regress(); err != nil {
		return nil, err
	}
	a.printf("\n%s\n", result.Comparison)
	return &result, nil
}
