// Package logging builds the zap logger used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes.
type Config struct {
	// Dir receives app.log with rotation. Empty disables file output.
	Dir string
	// Console mirrors entries to this writer when set.
	Console io.Writer
	// Level overrides LOG_LEVEL.
	Level string
}

// New returns a logger and a flush func. With neither a directory nor a
// console writer the logger discards everything.
func New(cfg Config) (*zap.Logger, func(), error) {
	level := ParseLevel(cfg.Level)
	if cfg.Level == "" {
		level = ParseLevel(os.Getenv("LOG_LEVEL"))
	}

	encoderCfg := zap.NewProductionConfig().EncoderConfig
	var cores []zapcore.Core

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "app.log"),
			MaxSize:    2, // megabytes
			MaxBackups: 5,
			MaxAge:     15, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, level))
	}
	if cfg.Console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(cfg.Console), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), func() {}, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, func() { _ = logger.Sync() }, nil
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
