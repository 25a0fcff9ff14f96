// Package logging builds the zap loggers used by every binary.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where a logger writes.
type Options struct {
	// Path is the JSON log file. Empty disables the file core.
	Path string
	// Level is a zap level name; empty means info.
	Level string
	// Console adds a human-readable core on stderr.
	Console bool
	// Component and Profile become initial fields when set.
	Component string
	Profile   string
}

// New creates a zap logger that writes JSON to opts.Path and, when
// requested, also writes to stderr. Component, profile and PID are
// included as initial fields.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level))
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	fields := []zap.Field{zap.Int("pid", os.Getpid())}
	if opts.Component != "" {
		fields = append(fields, zap.String("component", opts.Component))
	}
	if opts.Profile != "" {
		fields = append(fields, zap.String("profile", opts.Profile))
	}

	return zap.New(zapcore.NewTee(cores...), zap.Fields(fields...)), nil
}
