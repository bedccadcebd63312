// Package pipeline chains transformers and a final regressor behind a single
// Fit/Predict surface, so a preprocessing stack and its estimator travel as
// one unit through the evaluation harness.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/callcast/core/model"
	callcastErrors "github.com/ezoic/callcast/pkg/errors"
	"github.com/ezoic/callcast/pkg/log"
)

// Step is one named transformer stage.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline runs its steps in order and hands the result to the estimator.
// Each step is fitted on the output of the previous one, so Fit on the
// training partition is the only place statistics are learned.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	steps     []Step
	estimator model.Regressor
}

// NewPipeline builds a pipeline ending in estimator. Steps may be empty; the
// estimator must not be nil and step names must be unique.
func NewPipeline(steps []Step, estimator model.Regressor) (*Pipeline, error) {
	if estimator == nil {
		return nil, callcastErrors.NewValueError("pipeline.NewPipeline", "estimator must not be nil")
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.Name == "" {
			return nil, callcastErrors.NewValueError("pipeline.NewPipeline", "step name must not be empty")
		}
		if s.Transformer == nil {
			return nil, callcastErrors.NewValueError("pipeline.NewPipeline", "step "+s.Name+" has a nil transformer")
		}
		if seen[s.Name] {
			return nil, callcastErrors.NewValueError("pipeline.NewPipeline", "duplicate step name: "+s.Name)
		}
		seen[s.Name] = true
	}
	return &Pipeline{
		state:     model.NewStateManager(),
		logger:    log.GetLoggerWithName("pipeline").With(log.ComponentKey, "Pipeline"),
		steps:     steps,
		estimator: estimator,
	}, nil
}

// Fit fits every step in order, transforming X through each, then fits the
// estimator on the final representation.
func (p *Pipeline) Fit(X, y mat.Matrix) (err error) {
	defer callcastErrors.Recover(&err, "Pipeline.Fit")

	cur := X
	for _, s := range p.steps {
		if err := s.Transformer.Fit(cur); err != nil {
			return callcastErrors.Wrapf(err, "Pipeline.Fit: step %s", s.Name)
		}
		cur, err = s.Transformer.Transform(cur)
		if err != nil {
			return callcastErrors.Wrapf(err, "Pipeline.Fit: step %s", s.Name)
		}
	}

	if err := p.estimator.Fit(cur, y); err != nil {
		return callcastErrors.Wrap(err, "Pipeline.Fit: estimator")
	}

	n, _ := X.Dims()
	_, c := cur.Dims()
	p.state.SetFitted()
	p.state.SetDimensions(c, n)

	p.logger.Debug("Pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, c,
	)
	return nil
}

// Predict transforms X through the fitted steps and runs the estimator.
func (p *Pipeline) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer callcastErrors.Recover(&err, "Pipeline.Predict")

	if !p.state.IsFitted() {
		return nil, callcastErrors.NewNotFittedError("Pipeline", "Predict")
	}

	cur := X
	for _, s := range p.steps {
		cur, err = s.Transformer.Transform(cur)
		if err != nil {
			return nil, callcastErrors.Wrapf(err, "Pipeline.Predict: step %s", s.Name)
		}
	}
	return p.estimator.Predict(cur)
}

// Estimator returns the final regressor.
func (p *Pipeline) Estimator() model.Regressor { return p.estimator }

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name
	}
	return out
}

// IsFitted reports whether Fit has run.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }
