package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger for the given environment. Only the local profile logs
// at debug level.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		return zap.NewDevelopment()
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return cfg.Build()
	case "production", "":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown logging environment %q", env)
	}
}

// Code shortens an invite code so it can be logged without handing out a usable token.
func Code(code string) string {
	if len(code) <= 6 {
		return "***"
	}
	return code[:6] + "***"
}
