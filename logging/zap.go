package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter wraps *zap.Logger to implement the Logger interface for callers
// already standardized on zap. Alternating key/value args are converted to
// zap fields; a dangling key is logged under "arg".
type ZapAdapter struct {
	l *zap.Logger
}

// NewZapAdapter creates a Logger from an existing *zap.Logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{l: logger}
}

// NewZapLogger constructs a zap-backed Logger from level and format strings.
// Format "json" selects the production config, anything else the development
// console config.
func NewZapLogger(levelStr, format string) *ZapAdapter {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := cfg.Build()
	return &ZapAdapter{l: logger}
}

func zapFields(args []any) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	if len(args)%2 == 1 {
		fields = append(fields, zap.Any("arg", args[len(args)-1]))
	}
	return fields
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, args ...any) { z.l.Debug(msg, zapFields(args)...) }

// Info logs an informational message.
func (z *ZapAdapter) Info(msg string, args ...any) { z.l.Info(msg, zapFields(args)...) }

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, args ...any) { z.l.Warn(msg, zapFields(args)...) }

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, args ...any) { z.l.Error(msg, zapFields(args)...) }

// Sync flushes buffered log entries.
func (z *ZapAdapter) Sync() error { return z.l.Sync() }
