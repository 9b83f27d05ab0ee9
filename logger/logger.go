package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"inkwell-api/config"
)

// Logger is the application logger
var Logger *zap.Logger

// Init initializes the logger with the given configuration
func Init(cfg *config.Log) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	var err error
	Logger, err = zapConfig.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}
	return nil
}

// Get returns the global logger, falling back to a production default when
// Init was never called (tests, one-off tools).
func Get() *zap.Logger {
	if Logger == nil {
		Logger, _ = zap.NewProduction()
	}
	return Logger
}

// With adds context fields to the logger
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}
