package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.Logger
	once   sync.Once
)

// Init builds the process-wide logger: JSON in production, colored console
// otherwise. Level comes from LOG_LEVEL (default info).
func Init() *zap.Logger {
	once.Do(func() {
		var cfg zap.Config
		if os.Getenv("APP_ENV") == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		if lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		var err error
		global, err = cfg.Build()
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		zap.ReplaceGlobals(global)
	})
	return global
}

// L returns the global logger, initializing it on first use.
func L() *zap.Logger {
	if global == nil {
		return Init()
	}
	return global
}

// Sync flushes buffered entries; call on shutdown.
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}
