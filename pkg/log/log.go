// Package log provides structured logging for callcast, backed by zerolog.
//
// Components obtain a named logger from the package-level provider:
//
//	logger := log.GetLoggerWithName("forecast").With(
//	    log.ModelNameKey, "SeasonalRegressor",
//	)
//	logger.Info("Training completed", log.SamplesKey, n)
//
// Fields are passed as alternating key/value pairs, matching the style used
// across every estimator in the library.
package log

// Standard structured field keys. Using the constants keeps field names
// consistent across packages so log output stays machine-filterable.
const (
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	DurationMsKey = "duration_ms"
	PredsKey      = "predictions"
	FoldsKey      = "folds"
	CandidatesKey = "candidates"
	RMSEKey       = "rmse"
	ErrorKey      = "error"
)

// Operation values for OperationKey.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationSearch    = "search"
)

// Phase values for PhaseKey.
const (
	PhaseTraining   = "training"
	PhaseInference  = "inference"
	PhaseValidation = "validation"
)

// Logger is the logging interface used by all estimators. Fields are
// alternating key/value pairs; a trailing key without a value is dropped.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	// With returns a child logger with the given fields attached to every entry.
	With(keysAndValues ...interface{}) Logger
}

// LoggerProvider creates loggers. The default provider writes zerolog JSON to
// stderr; tests may install a silent provider via SetProvider.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

var provider LoggerProvider

// SetProvider replaces the package-level provider. Not safe for concurrent
// use with logger creation; call once during process startup.
func SetProvider(p LoggerProvider) {
	provider = p
}

func getProvider() LoggerProvider {
	if provider == nil {
		provider = NewZerologProvider(ToLogLevel("info"))
	}
	return provider
}

// GetLogger returns an unnamed logger from the package-level provider.
func GetLogger() Logger {
	return getProvider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	return getProvider().GetLoggerWithName(name)
}
