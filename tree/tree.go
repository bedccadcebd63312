// Package tree implements the tree-based model families of the comparison: a
// single CART-style regression tree and a bagged random forest built on it.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
)

// defaultRandomState seeds feature subsampling when no explicit seed was set.
const defaultRandomState = 1

// node is one node of a fitted regression tree.
type node struct {
	isLeaf    bool
	feature   int     // split feature (internal nodes)
	threshold float64 // split threshold (internal nodes)
	left      *node
	right     *node
	value     float64 // mean target of samples at this node
	nSamples  int
}

// DecisionTreeRegressor is a CART regression tree splitting on variance
// reduction, with mean leaf values.
type DecisionTreeRegressor struct {
	state *model.StateManager

	// Hyperparameters
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int   // features considered per split; 0 = all
	randomState     int64 // seeds the feature subsampling; -1 = unseeded

	root               *node
	nFeatures          int
	featureImportances []float64
	rng                *rand.Rand
}

// DecisionTreeRegressorOption is a functional option.
type DecisionTreeRegressorOption func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor creates a regression tree with the given options.
// Defaults match an unconstrained CART: unlimited depth, split down to two
// samples, all features considered.
func NewDecisionTreeRegressor(opts ...DecisionTreeRegressorOption) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		state:           model.NewStateManager(),
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithMaxDepth limits the tree depth (0 = unlimited).
func WithMaxDepth(depth int) DecisionTreeRegressorOption {
	return func(dt *DecisionTreeRegressor) { dt.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) DecisionTreeRegressorOption {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples required in each child.
func WithMinSamplesLeaf(n int) DecisionTreeRegressorOption {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures limits how many features are considered per split
// (0 = all). The forest uses this for decorrelation.
func WithMaxFeatures(n int) DecisionTreeRegressorOption {
	return func(dt *DecisionTreeRegressor) { dt.maxFeatures = n }
}

// WithRandomState seeds the per-split feature subsampling.
func WithRandomState(seed int64) DecisionTreeRegressorOption {
	return func(dt *DecisionTreeRegressor) { dt.randomState = seed }
}

// Fit builds the tree on X (n samples × p features) and column vector y.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "DecisionTreeRegressor.Fit")

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return callcastErrors.NewModelError("DecisionTreeRegressor.Fit", "empty data", callcastErrors.ErrEmptyData)
	}
	if yRows != nSamples {
		return callcastErrors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return callcastErrors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}

	dt.nFeatures = nFeatures
	dt.featureImportances = make([]float64, nFeatures)
	switch {
	case dt.randomState >= 0:
		dt.rng = rand.New(rand.NewSource(dt.randomState))
	case dt.maxFeatures > 0:
		// Feature subsampling was requested without a seed; use a fixed
		// default so fits stay reproducible.
		dt.rng = rand.New(rand.NewSource(defaultRandomState))
	}

	targets := make([]float64, nSamples)
	indices := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		targets[i] = y.At(i, 0)
		indices[i] = i
	}

	dt.root = dt.buildTree(X, targets, indices, 0)
	dt.normalizeImportances()

	dt.state.SetFitted()
	dt.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// buildTree recursively grows the tree over the sample indices.
func (dt *DecisionTreeRegressor) buildTree(X mat.Matrix, y []float64, indices []int, depth int) *node {
	n := len(indices)

	var sum, sumSq float64
	for _, idx := range indices {
		sum += y[idx]
		sumSq += y[idx] * y[idx]
	}
	mean := sum / float64(n)
	sse := sumSq - sum*sum/float64(n)

	nd := &node{value: mean, nSamples: n}

	if dt.shouldStop(n, sse, depth) {
		nd.isLeaf = true
		return nd
	}

	feature, threshold, decrease := dt.findBestSplit(X, y, indices, sse)
	if feature < 0 {
		nd.isLeaf = true
		return nd
	}

	var left, right []int
	for _, idx := range indices {
		if X.At(idx, feature) <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < dt.minSamplesLeaf || len(right) < dt.minSamplesLeaf {
		nd.isLeaf = true
		return nd
	}

	nd.feature = feature
	nd.threshold = threshold
	dt.featureImportances[feature] += decrease

	nd.left = dt.buildTree(X, y, left, depth+1)
	nd.right = dt.buildTree(X, y, right, depth+1)
	return nd
}

// shouldStop applies the stopping criteria.
func (dt *DecisionTreeRegressor) shouldStop(n int, sse float64, depth int) bool {
	if dt.maxDepth > 0 && depth >= dt.maxDepth {
		return true
	}
	if n < dt.minSamplesSplit {
		return true
	}
	// Pure node (all targets equal, within float noise).
	return sse <= 1e-12
}

// findBestSplit searches the candidate features for the threshold with the
// largest sum-of-squared-error reduction. Returns feature -1 when no valid
// split exists.
func (dt *DecisionTreeRegressor) findBestSplit(X mat.Matrix, y []float64, indices []int, parentSSE float64) (int, float64, float64) {
	n := len(indices)
	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0

	sorted := make([]int, n)

	for _, feature := range dt.candidateFeatures() {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X.At(sorted[a], feature) < X.At(sorted[b], feature)
		})

		// Incremental left/right statistics over the sorted scan.
		var leftSum, leftSumSq float64
		var totalSum, totalSumSq float64
		for _, idx := range sorted {
			totalSum += y[idx]
			totalSumSq += y[idx] * y[idx]
		}

		for i := 0; i < n-1; i++ {
			v := y[sorted[i]]
			leftSum += v
			leftSumSq += v * v

			cur := X.At(sorted[i], feature)
			next := X.At(sorted[i+1], feature)
			if cur == next {
				continue
			}

			nLeft := i + 1
			nRight := n - nLeft
			if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSumSq := totalSumSq - leftSumSq
			leftSSE := leftSumSq - leftSum*leftSum/float64(nLeft)
			rightSSE := rightSumSq - rightSum*rightSum/float64(nRight)

			decrease := parentSSE - leftSSE - rightSSE
			if decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = (cur + next) / 2.0
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease
}

// candidateFeatures returns the feature indices considered at a split: all of
// them, or a random subset of size maxFeatures.
func (dt *DecisionTreeRegressor) candidateFeatures() []int {
	all := make([]int, dt.nFeatures)
	for i := range all {
		all[i] = i
	}
	if dt.maxFeatures <= 0 || dt.maxFeatures >= dt.nFeatures {
		return all
	}
	dt.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:dt.maxFeatures]
}

// normalizeImportances rescales importances to sum to 1.
func (dt *DecisionTreeRegressor) normalizeImportances() {
	var sum float64
	for _, imp := range dt.featureImportances {
		sum += imp
	}
	if sum > 0 {
		for i := range dt.featureImportances {
			dt.featureImportances[i] /= sum
		}
	}
}

// Predict returns one prediction per row as an n×1 matrix.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "DecisionTreeRegressor.Predict")

	if !dt.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures {
		return nil, callcastErrors.NewDimensionError("DecisionTreeRegressor.Predict", dt.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		nd := dt.root
		for !nd.isLeaf {
			if X.At(i, nd.feature) <= nd.threshold {
				nd = nd.left
			} else {
				nd = nd.right
			}
		}
		predictions.Set(i, 0, nd.value)
	}
	return predictions, nil
}

// FeatureImportances returns a copy of the normalized importance scores.
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	if dt.featureImportances == nil {
		return nil
	}
	out := make([]float64, len(dt.featureImportances))
	copy(out, dt.featureImportances)
	return out
}

// Depth returns the depth of the fitted tree.
func (dt *DecisionTreeRegressor) Depth() int {
	return maxDepth(dt.root, 0)
}

func maxDepth(nd *node, depth int) int {
	if nd == nil || nd.isLeaf {
		return depth
	}
	l := maxDepth(nd.left, depth+1)
	r := maxDepth(nd.right, depth+1)
	return int(math.Max(float64(l), float64(r)))
}

// IsFitted reports whether Fit has run.
func (dt *DecisionTreeRegressor) IsFitted() bool { return dt.state.IsFitted() }

// GetParams returns the hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams rewrites hyperparameters; unknown keys are rejected.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "max_depth":
			dt.maxDepth = asInt(value)
		case "min_samples_split":
			dt.minSamplesSplit = asInt(value)
		case "min_samples_leaf":
			dt.minSamplesLeaf = asInt(value)
		case "max_features":
			dt.maxFeatures = asInt(value)
		case "random_state":
			dt.randomState = int64(asInt(value))
		default:
			return callcastErrors.NewValueError("DecisionTreeRegressor.SetParams", "unknown parameter: "+key)
		}
	}
	return nil
}

// asInt widens the numeric types grid definitions commonly carry.
func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
