package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Level is the minimum severity emitted by a provider.
type Level = zerolog.Level

// ToLogLevel parses a level name ("debug", "info", "warn", "error",
// "disabled"). Unknown names fall back to info.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// zerologProvider is the default LoggerProvider, writing JSON lines to stderr.
type zerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a provider emitting at the given minimum level.
func NewZerologProvider(level Level) LoggerProvider {
	base := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return &zerologProvider{base: base}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{l: p.base.With().Str("logger", name).Logger()}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	emit(z.l.Debug(), msg, keysAndValues)
}

func (z *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	emit(z.l.Info(), msg, keysAndValues)
}

func (z *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	emit(z.l.Warn(), msg, keysAndValues)
}

func (z *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	emit(z.l.Error(), msg, keysAndValues)
}

func (z *zerologLogger) With(keysAndValues ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ctx = ctx.Interface(key(keysAndValues[i]), keysAndValues[i+1])
	}
	return &zerologLogger{l: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		ev = ev.Interface(key(keysAndValues[i]), keysAndValues[i+1])
	}
	ev.Msg(msg)
}

func key(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
