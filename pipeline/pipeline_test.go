package pipeline

import (
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/linear"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
	"github.com/ezoic/callcast/preprocessing"
)

func TestMain(m *testing.M) {
	log.SetProvider(log.NewZerologProvider(log.ToLogLevel("disabled")))
	m.Run()
}

func linearData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 1, []float64{10, 20, 30, 40, 50, 60})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 3*X.At(i, 0)+7)
	}
	return X, y
}

func TestPipelineFitPredict(t *testing.T) {
	X, y := linearData()

	p, err := NewPipeline([]Step{
		{Name: "scale", Transformer: preprocessing.NewStandardScalerDefault()},
	}, linear.NewLinearRegression())
	require.NoError(t, err)

	require.NoError(t, p.Fit(X, y))
	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(y, pred, 1e-6))
}

// Standardizing features before OLS must not change the predictions: the
// intercept absorbs the affine shift. This is the configuration the analysis
// command runs the linear trial with.
func TestPipelineScalingPreservesOLSPredictions(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		1, 0,
		2, 1,
		3, 0,
		4, 1,
		5, 0,
		6, 1,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 4*X.At(i, 0)-2*X.At(i, 1)+5)
	}

	direct := linear.NewLinearRegression()
	require.NoError(t, direct.Fit(X, y))
	want, err := direct.Predict(X)
	require.NoError(t, err)

	p, err := NewPipeline([]Step{
		{Name: "scale", Transformer: preprocessing.NewStandardScalerDefault()},
	}, linear.NewLinearRegression())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))
	got, err := p.Predict(X)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(want, got, 1e-8))
}

func TestPipelinePredictIsIdempotent(t *testing.T) {
	X, y := linearData()

	p, err := NewPipeline(nil, linear.NewLinearRegression())
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	a, err := p.Predict(X)
	require.NoError(t, err)
	b, err := p.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a, b, 0))
}

func TestPipelinePredictBeforeFit(t *testing.T) {
	p, err := NewPipeline(nil, linear.NewLinearRegression())
	require.NoError(t, err)

	_, err = p.Predict(mat.NewDense(1, 1, []float64{1}))
	require.Error(t, err)
	assert.True(t, crdb.Is(err, callcastErrors.ErrNotFitted))
}

func TestNewPipelineValidates(t *testing.T) {
	_, err := NewPipeline(nil, nil)
	assert.Error(t, err)

	_, err = NewPipeline([]Step{
		{Name: "a", Transformer: preprocessing.NewStandardScalerDefault()},
		{Name: "a", Transformer: preprocessing.NewStandardScalerDefault()},
	}, linear.NewLinearRegression())
	assert.Error(t, err)

	_, err = NewPipeline([]Step{{Name: "a"}}, linear.NewLinearRegression())
	assert.Error(t, err)
}

func TestPipelineStepNames(t *testing.T) {
	p, err := NewPipeline([]Step{
		{Name: "impute", Transformer: preprocessing.NewMeanImputer()},
		{Name: "scale", Transformer: preprocessing.NewStandardScalerDefault()},
	}, linear.NewLinearRegression())
	require.NoError(t, err)
	assert.Equal(t, []string{"impute", "scale"}, p.StepNames())
}
