// Package logger builds the zap logger shared by every component.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the logger settings.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json or console
	OutputPath string // stdout when empty
}

// New builds a logger with ISO8601 timestamps and capital levels.
// An unknown level falls back to info, an unknown encoding to json.
func New(cfg Config) (*zap.Logger, error) {
	log, _, err := NewLeveled(cfg)
	return log, err
}

// NewLeveled is New plus the level handle. The level can be changed while the
// process runs; zap.AtomicLevel serves GET/PUT over HTTP for that.
func NewLeveled(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	out, closeOut, err := zap.Open(outputPath(cfg.OutputPath))
	if err != nil {
		return nil, level, fmt.Errorf("failed to open log output '%s': %w", cfg.OutputPath, err)
	}
	errOut, _, err := zap.Open("stderr")
	if err != nil {
		closeOut()
		return nil, level, fmt.Errorf("failed to open log error output: %w", err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Encoding), out, level)
	return zap.New(core, zap.ErrorOutput(errOut)), level, nil
}

func parseLevel(s string) zapcore.Level {
	if s == "" {
		return zapcore.InfoLevel
	}
	l, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		// No logger yet.
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", s, err)
		return zapcore.InfoLevel
	}
	return l
}

func newEncoder(encoding string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.CallerKey = zapcore.OmitKey
	encoderCfg.StacktraceKey = zapcore.OmitKey

	if strings.EqualFold(encoding, "console") {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

func outputPath(p string) string {
	if p == "" {
		return "stdout"
	}
	return p
}
