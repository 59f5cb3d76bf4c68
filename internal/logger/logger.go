package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init configures the process logger. Unknown levels fall back to info.
func Init(level string, development bool) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      development,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build()
	if err != nil {
		built = zap.NewExample()
		built.Sugar().Warnw("failed to initialize logger, using fallback", "error", err)
	}
	Set(built)
}

// Set replaces the process logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	log = l.Sugar()
	mu.Unlock()
}

// L returns the underlying structured logger.
func L() *zap.Logger {
	return sugar().Desugar()
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, keysAndValues ...interface{}) {
	sugar().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	sugar().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	sugar().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	sugar().Errorw(msg, keysAndValues...)
}

func Sync() {
	_ = sugar().Sync()
}
