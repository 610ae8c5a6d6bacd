package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrashed98/blueprint-cms/config"
)

// New builds the process logger. Format "console" gives a human readable
// development encoder, anything else produces JSON lines.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		zc = zap.NewDevelopmentConfig()
	case "", "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig = zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Module returns a child logger scoped to one subsystem. A nil parent yields
// a no-op logger so constructors can accept an optional logger.
func Module(parent *zap.Logger, name string) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(name)
}
