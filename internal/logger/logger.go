package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger *Logger
	helperLogger *zap.SugaredLogger
)

// Logger wraps zap.SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Init initializes the global logger. env "production" selects the JSON encoder.
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	mu.Lock()
	setLocked(base)
	mu.Unlock()
	return nil
}

// setLocked installs base as the global logger. The package-level helpers get a
// copy that skips their own frame so callers are reported correctly.
func setLocked(base *zap.Logger) {
	globalLogger = &Logger{SugaredLogger: base.Sugar()}
	helperLogger = base.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Get returns the global logger, falling back to a development logger before Init.
func Get() *Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		base, _ := zap.NewDevelopment()
		setLocked(base)
	}
	return globalLogger
}

func helper() *zap.SugaredLogger {
	Get()
	mu.RLock()
	defer mu.RUnlock()
	return helperLogger
}

// With creates a child logger with additional fields
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

// Convenience functions that use the global logger
func Debugf(template string, args ...interface{}) { helper().Debugf(template, args...) }
func Infof(template string, args ...interface{})  { helper().Infof(template, args...) }
func Warnf(template string, args ...interface{})  { helper().Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { helper().Errorf(template, args...) }
func Fatalf(template string, args ...interface{}) { helper().Fatalf(template, args...) }

// Sync flushes any buffered log entries
func Sync() error {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l.Sync()
	}
	return nil
}
