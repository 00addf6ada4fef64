package model

// Classifier is a supervised model over integer class labels.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
}

// Regressor is a supervised model over a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

var (
	_ Classifier = (*DecisionTreeClassifier)(nil)
	_ Classifier = (*RandomForest)(nil)
	_ Classifier = (*ExternalForest)(nil)
	_ Regressor  = (*DecisionTreeRegressor)(nil)
	_ Regressor  = (*RandomForestRegressor)(nil)
)
