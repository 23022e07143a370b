package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel parses a zap level name, falling back to info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds a production JSON logger in production and a development
// console logger elsewhere. The level can be changed at runtime through the
// supplied AtomicLevel.
func NewLogger(environment string, level zap.AtomicLevel) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level

	return cfg.Build()
}
