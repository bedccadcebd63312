package evaluation

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/core/parallel"
	"github.com/ezoic/callcast/metrics"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// ParamGrid maps a hyperparameter name to its candidate values. The cartesian
// product of all entries is searched.
type ParamGrid map[string][]interface{}

// CandidateResult records one grid point's cross-validation outcome.
type CandidateResult struct {
	Params    map[string]interface{}
	FoldRMSEs []float64
	MeanRMSE  float64
}

// GridSearchCV searches a hyperparameter grid with forward-chaining cross
// validation and refits the winning configuration on the full data. The score
// minimized is mean validation RMSE.
//
// Candidates are evaluated concurrently on a bounded worker pool; the folds
// inside a candidate always run in chronological order.
type GridSearchCV struct {
	state  *model.StateManager
	logger log.Logger

	factory func() model.TunableRegressor
	grid    ParamGrid
	cv      *TimeSeriesSplit
	workers int

	// BestParams, BestScore and BestEstimator describe the winning grid
	// point after Fit.
	BestParams    map[string]interface{}
	BestScore     float64
	BestEstimator model.TunableRegressor

	// Results holds every candidate's outcome, in grid order.
	Results []CandidateResult
}

// NewGridSearchCV builds a search over grid for estimators produced by
// factory. workers bounds candidate concurrency; 0 means one worker per
// candidate.
func NewGridSearchCV(factory func() model.TunableRegressor, grid ParamGrid, cv *TimeSeriesSplit, workers int) (*GridSearchCV, error) {
	if factory == nil {
		return nil, callcastErrors.NewValueError("evaluation.NewGridSearchCV", "factory must not be nil")
	}
	if len(grid) == 0 {
		return nil, callcastErrors.NewValueError("evaluation.NewGridSearchCV", "grid must not be empty")
	}
	if cv == nil {
		cv = NewTimeSeriesSplit(3)
	}
	return &GridSearchCV{
		state:   model.NewStateManager(),
		logger:  log.GetLoggerWithName("evaluation").With(log.ComponentKey, "GridSearchCV"),
		factory: factory,
		grid:    grid,
		cv:      cv,
		workers: workers,
	}, nil
}

// Fit evaluates every grid point on X, y and refits the best configuration on
// the full data.
func (g *GridSearchCV) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "GridSearchCV.Fit")

	start := time.Now()
	n, _ := X.Dims()
	folds, err := g.cv.Split(n)
	if err != nil {
		return err
	}

	candidates := expandGrid(g.grid)
	g.logger.Info("Search started",
		log.OperationKey, log.OperationSearch,
		log.PhaseKey, log.PhaseValidation,
		log.CandidatesKey, len(candidates),
		log.FoldsKey, len(folds),
		log.SamplesKey, n,
	)

	results := make([]CandidateResult, len(candidates))
	errs := make([]error, len(candidates))

	workers := g.workers
	if workers <= 0 {
		workers = len(candidates)
	}
	parallel.ParallelizeWithWorkers(len(candidates), workers, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			results[c], errs[c] = g.evaluateCandidate(candidates[c], folds, X, y)
		}
	})
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	g.Results = results

	best := 0
	for c := 1; c < len(results); c++ {
		if results[c].MeanRMSE < results[best].MeanRMSE {
			best = c
		}
	}
	g.BestParams = results[best].Params
	g.BestScore = results[best].MeanRMSE

	// Refit the winner on the full training data.
	est := g.factory()
	if err := est.SetParams(g.BestParams); err != nil {
		return err
	}
	if err := est.Fit(X, y); err != nil {
		return err
	}
	g.BestEstimator = est

	g.state.SetFitted()

	g.logger.Info("Search completed",
		log.OperationKey, log.OperationSearch,
		log.PhaseKey, log.PhaseValidation,
		log.RMSEKey, g.BestScore,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict forwards to the refitted best estimator.
func (g *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return g.BestEstimator.Predict(X)
}

// IsFitted reports whether Fit has run.
func (g *GridSearchCV) IsFitted() bool { return g.state.IsFitted() }

// evaluateCandidate runs the chronological folds for one grid point.
func (g *GridSearchCV) evaluateCandidate(params map[string]interface{}, folds []Fold, X, y mat.Matrix) (CandidateResult, error) {
	res := CandidateResult{Params: params, FoldRMSEs: make([]float64, 0, len(folds))}

	for _, fold := range folds {
		est := g.factory()
		if err := est.SetParams(params); err != nil {
			return res, err
		}

		XTrain := sliceRows(X, 0, fold.TrainEnd)
		yTrain := sliceRows(y, 0, fold.TrainEnd)
		XVal := sliceRows(X, fold.TrainEnd, fold.TestEnd)
		yVal := sliceRows(y, fold.TrainEnd, fold.TestEnd)

		if err := est.Fit(XTrain, yTrain); err != nil {
			return res, err
		}
		pred, err := est.Predict(XVal)
		if err != nil {
			return res, err
		}
		rmse, err := metrics.RMSEMatrix(yVal, pred)
		if err != nil {
			return res, err
		}
		res.FoldRMSEs = append(res.FoldRMSEs, rmse)
	}

	var sum float64
	for _, v := range res.FoldRMSEs {
		sum += v
	}
	res.MeanRMSE = sum / float64(len(res.FoldRMSEs))
	if math.IsNaN(res.MeanRMSE) {
		res.MeanRMSE = math.Inf(1)
	}
	return res, nil
}

// expandGrid enumerates the cartesian product of the grid, with parameter
// names iterated in sorted order so candidate order is deterministic.
func expandGrid(grid ParamGrid) []map[string]interface{} {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []map[string]interface{}{{}}
	for _, name := range names {
		var next []map[string]interface{}
		for _, base := range out {
			for _, value := range grid[name] {
				candidate := make(map[string]interface{}, len(base)+1)
				for k, v := range base {
					candidate[k] = v
				}
				candidate[name] = value
				next = append(next, candidate)
			}
		}
		out = next
	}
	return out
}

// sliceRows copies rows [lo, hi) of m into a new matrix.
func sliceRows(m mat.Matrix, lo, hi int) mat.Matrix {
	_, c := m.Dims()
	out := mat.NewDense(hi-lo, c, nil)
	for i := lo; i < hi; i++ {
		for j := 0; j < c; j++ {
			out.Set(i-lo, j, m.At(i, j))
		}
	}
	return out
}
