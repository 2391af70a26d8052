// =============================================================================
// Registration Reconciler - Logging
// =============================================================================
//
// This module builds the zap logger used by every command.
//
// FORMATS:
//   - console: development encoder, coloured capital levels, for terminals
//   - json   : production encoder, ISO8601 "timestamp" field, for log capture
//
// Packages log through the Logger interface. *zap.SugaredLogger satisfies it,
// and tests pass Nop().
//
// =============================================================================

package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used by the reconciliation packages.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// New builds a sugared logger.
//
// PARAMETERS:
//   - level: "debug", "info", "warn" or "error".
//   - format: "console" or "json".
//
// RETURNS:
//   - The logger. Callers should Sync it before exiting.
//   - An error if the level or format is unknown or the logger cannot be built.
func New(level, format string) (*zap.SugaredLogger, error) {
	var cfg zap.Config

	switch strings.ToLower(format) {
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unknown log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
