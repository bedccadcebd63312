package tree

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/core/parallel"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// RandomForestRegressor averages an ensemble of regression trees, each grown
// on a bootstrap resample with per-split feature subsampling.
type RandomForestRegressor struct {
	state  *model.StateManager
	logger log.Logger

	// Hyperparameters
	nEstimators     int
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 = sqrt(p)
	randomState     int64

	trees     []*DecisionTreeRegressor
	nFeatures int
}

// RandomForestRegressorOption is a functional option.
type RandomForestRegressorOption func(*RandomForestRegressor)

// NewRandomForestRegressor creates a forest with the given options. Defaults:
// 100 trees, unlimited depth, sqrt(p) features per split, seed 42.
func NewRandomForestRegressor(opts ...RandomForestRegressorOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		state: model.NewStateManager(),
		logger: log.GetLoggerWithName("tree").With(
			log.ModelNameKey, "RandomForestRegressor",
			log.ComponentKey, "tree",
		),
		nEstimators:     100,
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.nEstimators = n }
}

// WithForestMaxDepth limits the depth of every tree (0 = unlimited).
func WithForestMaxDepth(depth int) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.maxDepth = depth }
}

// WithForestMinSamplesSplit sets the per-tree minimum samples to split.
func WithForestMinSamplesSplit(n int) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.minSamplesSplit = n }
}

// WithForestMinSamplesLeaf sets the per-tree minimum samples per leaf.
func WithForestMinSamplesLeaf(n int) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.minSamplesLeaf = n }
}

// WithForestMaxFeatures sets the features considered per split
// (0 = sqrt(p)).
func WithForestMaxFeatures(n int) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.maxFeatures = n }
}

// WithForestRandomState seeds the bootstrap and feature subsampling.
func WithForestRandomState(seed int64) RandomForestRegressorOption {
	return func(rf *RandomForestRegressor) { rf.randomState = seed }
}

// Fit grows the ensemble on X and column vector y. Trees are fitted in
// parallel; each tree gets a deterministic seed derived from randomState so
// results are reproducible regardless of scheduling.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "RandomForestRegressor.Fit")

	start := time.Now()
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return callcastErrors.NewModelError("RandomForestRegressor.Fit", "empty data", callcastErrors.ErrEmptyData)
	}
	if yRows != nSamples {
		return callcastErrors.NewDimensionError("RandomForestRegressor.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return callcastErrors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if rf.nEstimators <= 0 {
		return callcastErrors.NewValueError("RandomForestRegressor.Fit", "nEstimators must be positive")
	}

	rf.nFeatures = nFeatures

	maxFeatures := rf.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		"n_estimators", rf.nEstimators,
	)

	rf.trees = make([]*DecisionTreeRegressor, rf.nEstimators)
	errs := make([]error, rf.nEstimators)

	parallel.Parallelize(rf.nEstimators, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			seed := rf.randomState + int64(b)
			rng := rand.New(rand.NewSource(seed))

			XBoot, yBoot := bootstrapSample(X, y, nSamples, rng)

			dt := NewDecisionTreeRegressor(
				WithMaxDepth(rf.maxDepth),
				WithMinSamplesSplit(rf.minSamplesSplit),
				WithMinSamplesLeaf(rf.minSamplesLeaf),
				WithMaxFeatures(maxFeatures),
				WithRandomState(seed),
			)
			if err := dt.Fit(XBoot, yBoot); err != nil {
				errs[b] = err
				continue
			}
			rf.trees[b] = dt
		}
	})

	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	rf.state.SetFitted()
	rf.state.SetDimensions(nFeatures, nSamples)

	rf.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"n_estimators", rf.nEstimators,
	)
	return nil
}

// bootstrapSample draws n rows of X, y with replacement.
func bootstrapSample(X, y mat.Matrix, n int, rng *rand.Rand) (mat.Matrix, mat.Matrix) {
	_, p := X.Dims()
	XBoot := mat.NewDense(n, p, nil)
	yBoot := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		src := rng.Intn(n)
		for j := 0; j < p; j++ {
			XBoot.Set(i, j, X.At(src, j))
		}
		yBoot.Set(i, 0, y.At(src, 0))
	}
	return XBoot, yBoot
}

// Predict averages the per-tree predictions into an n×1 matrix.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "RandomForestRegressor.Predict")

	if !rf.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures {
		return nil, callcastErrors.NewDimensionError("RandomForestRegressor.Predict", rf.nFeatures, nFeatures, 1)
	}

	sums := make([]float64, nSamples)
	for _, dt := range rf.trees {
		pred, err := dt.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < nSamples; i++ {
			sums[i] += pred.At(i, 0)
		}
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		predictions.Set(i, 0, sums[i]/float64(len(rf.trees)))
	}
	return predictions, nil
}

// FeatureImportances averages the per-tree importances.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	if !rf.state.IsFitted() {
		return nil
	}
	out := make([]float64, rf.nFeatures)
	for _, dt := range rf.trees {
		for i, imp := range dt.FeatureImportances() {
			out[i] += imp
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.trees))
	}
	return out
}

// NTrees returns the number of fitted trees.
func (rf *RandomForestRegressor) NTrees() int { return len(rf.trees) }

// IsFitted reports whether Fit has run.
func (rf *RandomForestRegressor) IsFitted() bool { return rf.state.IsFitted() }

// GetParams returns the hyperparameters.
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"random_state":      rf.randomState,
	}
}

// SetParams rewrites hyperparameters; unknown keys are rejected.
func (rf *RandomForestRegressor) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			rf.nEstimators = asInt(value)
		case "max_depth":
			rf.maxDepth = asInt(value)
		case "min_samples_split":
			rf.minSamplesSplit = asInt(value)
		case "min_samples_leaf":
			rf.minSamplesLeaf = asInt(value)
		case "max_features":
			rf.maxFeatures = asInt(value)
		case "random_state":
			rf.randomState = int64(asInt(value))
		default:
			return callcastErrors.NewValueError("RandomForestRegressor.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}
