// Package model provides the core abstractions shared by every estimator in
// callcast: fitted-state tracking and the capability interfaces that
// transformers and regressors implement.
//
// Estimators hold a StateManager by composition and mark themselves trained
// at the end of a successful Fit:
//
//	type MyModel struct {
//	    state *model.StateManager
//	}
//
//	func (m *MyModel) Fit(X, y mat.Matrix) error {
//	    // training logic
//	    m.state.SetFitted()
//	    return nil
//	}
//
// Every Predict and Transform path checks IsFitted first and returns a
// NotFittedError otherwise; an untrained estimator can never silently produce
// output.
package model

import "sync"

// StateManager tracks whether an estimator has been trained, and the shape of
// the data it was trained on. Safe for concurrent reads.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates an untrained state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether SetFitted has been called.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the estimator as trained. Called by estimator
// implementations at the end of a successful Fit, never by end users.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset returns the estimator to its untrained state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions records the training data shape for later validation.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// NFeatures returns the number of features seen during Fit.
func (s *StateManager) NFeatures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures
}

// NSamples returns the number of samples seen during Fit.
func (s *StateManager) NSamples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nSamples
}
