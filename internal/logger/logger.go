package logger

import (
	"os"
	"strings"

	"github.com/samvad-hq/inspectra/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Logger is the structured logging surface injected into runtime components.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Init initializes a zap SugaredLogger using settings from config.
func Init(cfg *config.Config) (*zap.SugaredLogger, error) {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		parseLevel(cfg.LogLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar := logger.Sugar().With("app", cfg.AppName, "env", cfg.Env)
	S = sugar
	return sugar, nil
}

// InitStderr builds a console logger on stderr for interactive tools where
// stdout carries command output.
func InitStderr(level string) *zap.SugaredLogger {
	encoderCfg := encoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(zapcore.Lock(os.Stderr)),
		parseLevel(level),
	)
	S = zap.New(core).Sugar()
	return S
}

func encoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderCfg
}

func parseLevel(raw string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Zap adapts a SugaredLogger to the Logger interface.
type Zap struct {
	S *zap.SugaredLogger
}

// New wraps s; a nil s falls back to the package-level logger at call time.
func New(s *zap.SugaredLogger) *Zap { return &Zap{S: s} }

func (z *Zap) sugar() *zap.SugaredLogger {
	if z != nil && z.S != nil {
		return z.S
	}
	return S
}

func (z *Zap) InfoObj(msg, key string, obj interface{}) {
	if s := z.sugar(); s != nil {
		s.Desugar().Info(msg, zap.Any(key, obj))
	}
}

func (z *Zap) DebugObj(msg, key string, obj interface{}) {
	if s := z.sugar(); s != nil {
		s.Desugar().Debug(msg, zap.Any(key, obj))
	}
}

func (z *Zap) WarnObj(msg, key string, obj interface{}) {
	if s := z.sugar(); s != nil {
		s.Desugar().Warn(msg, zap.Any(key, obj))
	}
}

func (z *Zap) ErrorObj(msg, key string, obj interface{}) {
	if s := z.sugar(); s != nil {
		s.Desugar().Error(msg, zap.Any(key, obj))
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}

// Minimal object logging helpers -------------------------------------------------
// These log the given object as a structured field named `key` on the
// package-level logger and are no-ops before Init.
func InfoObj(msg, key string, obj interface{})  { (*Zap)(nil).InfoObj(msg, key, obj) }
func DebugObj(msg, key string, obj interface{}) { (*Zap)(nil).DebugObj(msg, key, obj) }
func WarnObj(msg, key string, obj interface{})  { (*Zap)(nil).WarnObj(msg, key, obj) }
func ErrorObj(msg, key string, obj interface{}) { (*Zap)(nil).ErrorObj(msg, key, obj) }
