// Command callcast runs the hourly call-volume model comparison: it loads the
// historical CSV, builds the preprocessing pipeline, fits each model family on
// a chronological training partition and reports held-out RMSE, MAE and R²
// alongside diagnostic plots.
//
// Usage:
//
//	callcast [hour.csv]
//
// All analysis parameters are hard-coded; the only input is the data file.
package main

import (
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	"github.com/ezoic/callcast/dataset"
	"github.com/ezoic/callcast/ensemble"
	"github.com/ezoic/callcast/evaluation"
	"github.com/ezoic/callcast/forecast"
	"github.com/ezoic/callcast/linear"
	"github.com/ezoic/callcast/pipeline"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/preprocessing"
	"github.com/ezoic/callcast/tree"
	"github.com/ezoic/callcast/visualize"
)

const (
	testFraction = 0.3
	plotDir      = "plots"
	cvFolds      = 3
	cvWorkers    = 4
	randomState  = 42
)

func main() {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel(os.Getenv("CALLCAST_LOG"))))

	path := "hour.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(path); err != nil {
		fmt.Fprintln(os.Stderr, "callcast:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	logger := log.GetLoggerWithName("cmd")

	records, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}
	logger.Info("Data loaded", log.SamplesKey, records.NRows())

	groups := dataset.DefaultFeatureGroups()
	if err := groups.Validate(records.Columns()); err != nil {
		return err
	}

	// The split is chronological; a violated row order aborts the run here.
	train, test, err := dataset.TemporalSplit(records, testFraction)
	if err != nil {
		return err
	}
	logger.Info("Partitioned",
		"train_rows", train.NRows(),
		"test_rows", test.NRows(),
	)

	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return err
	}
	if err := exploratoryPlots(train); err != nil {
		return err
	}

	// One shared encoding for the tabular models, fitted on train only.
	transformer := preprocessing.NewColumnTransformer(groups)
	XTrain, err := transformer.FitTransform(train)
	if err != nil {
		return err
	}
	XTest, err := transformer.Transform(test)
	if err != nil {
		return err
	}

	yTrain := vecToMatrix(train.Target())
	yTest := vecToMatrix(test.Target())

	timeTrain, err := train.TimeFeatures()
	if err != nil {
		return err
	}
	timeTest, err := test.TimeFeatures()
	if err != nil {
		return err
	}

	harness := evaluation.NewHarness(plotDir)
	var reports []*evaluation.Report

	// Linear regression, no hyperparameters. The encoded matrix runs through
	// a pipeline that standardizes the indicator block too, so every column
	// enters the OLS solve on a comparable scale.
	linearPipe, err := pipeline.NewPipeline([]pipeline.Step{
		{Name: "scale", Transformer: preprocessing.NewStandardScalerDefault()},
	}, linear.NewLinearRegression())
	if err != nil {
		return err
	}
	r, err := harness.Run(evaluation.Trial{
		Name:      "linear",
		Estimator: linearPipe,
	}, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return err
	}
	reports = append(reports, r)

	// Decision tree, depth and leaf size searched.
	r, err = harness.Run(evaluation.Trial{
		Name: "decision_tree",
		Factory: func() model.TunableRegressor {
			return tree.NewDecisionTreeRegressor(tree.WithRandomState(randomState))
		},
		Grid: evaluation.ParamGrid{
			"max_depth":        {6, 10, 14},
			"min_samples_leaf": {1, 5, 20},
		},
		CV:      evaluation.NewTimeSeriesSplit(cvFolds),
		Workers: cvWorkers,
	}, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return err
	}
	reports = append(reports, r)

	// Random forest, ensemble size and depth searched.
	r, err = harness.Run(evaluation.Trial{
		Name: "random_forest",
		Factory: func() model.TunableRegressor {
			return tree.NewRandomForestRegressor(tree.WithForestRandomState(randomState))
		},
		Grid: evaluation.ParamGrid{
			"n_estimators": {50, 100},
			"max_depth":    {0, 12},
		},
		CV:      evaluation.NewTimeSeriesSplit(cvFolds),
		Workers: cvWorkers,
	}, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return err
	}
	reports = append(reports, r)

	// Seasonal decomposition over the time features.
	seasonal, err := forecast.NewTimeSeriesRegressor(forecast.DefaultSeasonalConfig())
	if err != nil {
		return err
	}
	r, err = harness.Run(evaluation.Trial{
		Name:      "seasonal",
		Estimator: seasonal,
	}, timeTrain, yTrain, timeTest, yTest)
	if err != nil {
		return err
	}
	reports = append(reports, r)

	if err := forecastPlot(train, seasonal); err != nil {
		return err
	}

	// Residual-leveraging ensemble over the seasonal baseline.
	baseTrain, err := seasonal.Predict(timeTrain)
	if err != nil {
		return err
	}
	baseTest, err := seasonal.Predict(timeTest)
	if err != nil {
		return err
	}
	stackTrain, err := ensemble.WithBaseline(baseTrain, XTrain)
	if err != nil {
		return err
	}
	stackTest, err := ensemble.WithBaseline(baseTest, XTest)
	if err != nil {
		return err
	}
	r, err = harness.Run(evaluation.Trial{
		Name: "residual_ensemble",
		Estimator: ensemble.NewResidualLeverager(
			tree.NewRandomForestRegressor(tree.WithForestRandomState(randomState)),
		),
	}, stackTrain, yTrain, stackTest, yTest)
	if err != nil {
		return err
	}
	reports = append(reports, r)

	sort.Slice(reports, func(i, j int) bool { return reports[i].RMSE < reports[j].RMSE })
	fmt.Println("model comparison (held-out test partition, lower RMSE is better)")
	for _, rep := range reports {
		fmt.Println("  " + rep.String())
	}

	for _, rep := range reports {
		if rep.Name == "random_forest" {
			printImportances(rep, transformer.FeatureNames())
		}
	}
	return nil
}

// printImportances lists the forest's most influential features.
func printImportances(rep *evaluation.Report, names []string) {
	rf, ok := rep.Fitted.(*tree.RandomForestRegressor)
	if !ok {
		return
	}
	imps := rf.FeatureImportances()
	order := make([]int, len(imps))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return imps[order[a]] > imps[order[b]] })

	fmt.Println("random_forest feature importances (top 10)")
	for rank, idx := range order {
		if rank == 10 {
			break
		}
		fmt.Printf("  %-16s %.4f\n", names[idx], imps[idx])
	}
}

// exploratoryPlots writes the distribution histograms of the numerical
// features plus the target.
func exploratoryPlots(train *dataset.Table) error {
	cols := append([]string{}, dataset.DefaultFeatureGroups().Numerical...)
	cols = append(cols, dataset.ColTarget)
	for _, col := range cols {
		path := fmt.Sprintf("%s/hist_%s.png", plotDir, col)
		if err := visualize.SaveHistogram(path, col, train.Numeric(col), 40); err != nil {
			return err
		}
	}
	return nil
}

// forecastPlot writes observed vs fitted for the seasonal model's training
// window.
func forecastPlot(train *dataset.Table, seasonal *forecast.TimeSeriesRegressor) error {
	ts, err := train.Timestamps()
	if err != nil {
		return err
	}
	fitted := seasonal.Seasonal().FittedSeries()
	observed := make([]float64, len(ts))
	target := train.Target()
	for i := range observed {
		observed[i] = target.AtVec(i)
	}
	return visualize.SaveForecastLines(plotDir+"/seasonal_fit.png", "seasonal decomposition", ts, observed, fitted)
}

// vecToMatrix views a vector as the n×1 matrix the estimators take.
func vecToMatrix(v *mat.VecDense) mat.Matrix {
	out := mat.NewDense(v.Len(), 1, nil)
	for i := 0; i < v.Len(); i++ {
		out.Set(i, 0, v.AtVec(i))
	}
	return out
}
