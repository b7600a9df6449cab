// Package logging builds the zap logger used for diagnostics.
//
// Diagnostic logs are separate from the styled terminal output: they go to
// stderr or a file, as console text or JSON, at a configurable level.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"arpdeploy/internal/config"
)

// New builds a logger from the log configuration.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console", "":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("log format: unknown format %q", cfg.Format)
	}

	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Development = false
	zc.Sampling = nil

	out := "stderr"
	if cfg.File != "" {
		out = cfg.File
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Install builds a logger and makes it the zap global. The returned function
// flushes the logger and restores the previous global.
func Install(cfg config.LogConfig) (*zap.Logger, func(), error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		restore()
	}, nil
}
