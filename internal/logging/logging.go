// Package logging builds the zap loggers used by the CLI and run processing.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger at the given level ("debug", "info", "warn", "error").
// Format must be "console" or "json". If w is nil, os.Stderr is used.
func New(level, format string, w ...io.Writer) (*zap.Logger, error) {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(writer), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// Component returns a child logger tagged with a "component" field.
func Component(base *zap.Logger, name string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.With(zap.String("component", name))
}
