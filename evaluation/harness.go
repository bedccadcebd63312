package evaluation

import (
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/metrics"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/visualize"
)

// Trial describes one model entry of the comparison. Either Estimator is set
// (fit as-is), or Factory plus Grid are set and the harness searches the grid
// first.
type Trial struct {
	Name string

	Estimator model.Regressor

	Factory func() model.TunableRegressor
	Grid    ParamGrid
	CV      *TimeSeriesSplit
	Workers int
}

// Report is the scored outcome of one trial.
type Report struct {
	Name string

	RMSE float64
	MAE  float64
	R2   float64

	// BestParams and CVScore are set only when a grid search ran.
	BestParams map[string]interface{}
	CVScore    float64
	Searched   bool

	// ScatterPath is the predicted-vs-true diagnostic, when plotting is
	// enabled.
	ScatterPath string

	// Fitted is the model the scores were computed with, for follow-up
	// diagnostics such as feature importances.
	Fitted model.Regressor
}

// String renders the report as the one-line summary the analysis command
// prints.
func (r *Report) String() string {
	s := fmt.Sprintf("%-22s RMSE=%8.3f  MAE=%8.3f  R2=%7.4f", r.Name, r.RMSE, r.MAE, r.R2)
	if r.Searched {
		s += fmt.Sprintf("  (cv RMSE=%.3f, params=%v)", r.CVScore, r.BestParams)
	}
	return s
}

// Harness fits and scores trials on a fixed train/test partition. PlotDir,
// when non-empty, receives one scatter diagnostic per trial.
type Harness struct {
	logger  log.Logger
	plotDir string
}

// NewHarness creates a harness. plotDir may be empty to disable plotting.
func NewHarness(plotDir string) *Harness {
	return &Harness{
		logger:  log.GetLoggerWithName("evaluation").With(log.ComponentKey, "Harness"),
		plotDir: plotDir,
	}
}

// Run fits the trial on the training partition and scores it on the test
// partition. RMSE is the primary comparison metric; MAE and R² are reported
// alongside.
func (h *Harness) Run(trial Trial, XTrain, yTrain, XTest, yTest mat.Matrix) (_ *Report, err error) {
	defer callcastErrors.Recover(&err, "Harness.Run")

	start := time.Now()
	report := &Report{Name: trial.Name}

	var fitted model.Regressor
	switch {
	case trial.Factory != nil && len(trial.Grid) > 0:
		search, err := NewGridSearchCV(trial.Factory, trial.Grid, trial.CV, trial.Workers)
		if err != nil {
			return nil, err
		}
		if err := search.Fit(XTrain, yTrain); err != nil {
			return nil, err
		}
		report.BestParams = search.BestParams
		report.CVScore = search.BestScore
		report.Searched = true
		fitted = search.BestEstimator

	case trial.Estimator != nil:
		if err := trial.Estimator.Fit(XTrain, yTrain); err != nil {
			return nil, err
		}
		fitted = trial.Estimator

	default:
		return nil, callcastErrors.NewValueError("Harness.Run", "trial needs an estimator or a factory with a grid")
	}

	report.Fitted = fitted

	pred, err := fitted.Predict(XTest)
	if err != nil {
		return nil, err
	}

	if report.RMSE, err = metrics.RMSEMatrix(yTest, pred); err != nil {
		return nil, err
	}
	if report.MAE, err = metrics.MAEMatrix(yTest, pred); err != nil {
		return nil, err
	}
	if report.R2, err = metrics.R2ScoreMatrix(yTest, pred); err != nil {
		return nil, err
	}

	if h.plotDir != "" {
		path := filepath.Join(h.plotDir, trial.Name+"_scatter.png")
		if err := visualize.SavePredictionScatter(path, trial.Name, yTest, pred); err != nil {
			return nil, err
		}
		report.ScatterPath = path
	}

	h.logger.Info("Trial scored",
		log.OperationKey, log.OperationSearch,
		log.PhaseKey, log.PhaseValidation,
		log.ModelNameKey, trial.Name,
		log.RMSEKey, report.RMSE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}
