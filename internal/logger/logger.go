package logger

import (
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/jsonfetch/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Logger is the structured logging surface shared by the runtime packages.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Init initializes a zap SugaredLogger using settings from config.
// Logs go to stderr; stdout carries the fetched documents only.
func Init(cfg *config.Config) (Logger, error) {
	return InitTo(cfg, os.Stderr)
}

// InitTo is Init with an explicit destination.
func InitTo(cfg *config.Config, sink io.Writer) (Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(sink)),
		parseLevel(cfg.LogLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", cfg.AppName), zap.String("env", cfg.Env))
	S = logger.Sugar()
	return zapLogger{}, nil
}

func parseLevel(raw string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Minimal object logging helpers -------------------------------------------------
// These are tiny wrappers that log the given object as a structured field named
// `key` and do not attempt to parse arbitrary kv arrays.
func InfoObj(msg, key string, obj interface{})  { emit(zapcore.InfoLevel, msg, key, obj) }
func DebugObj(msg, key string, obj interface{}) { emit(zapcore.DebugLevel, msg, key, obj) }
func WarnObj(msg, key string, obj interface{})  { emit(zapcore.WarnLevel, msg, key, obj) }
func ErrorObj(msg, key string, obj interface{}) { emit(zapcore.ErrorLevel, msg, key, obj) }

// emit is always two frames below the call site.
func emit(level zapcore.Level, msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	l := S.Desugar().WithOptions(zap.AddCallerSkip(2))
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(zap.Any(key, obj))
	}
}

// zapLogger routes the Logger interface to the package-level logger.
type zapLogger struct{}

func (zapLogger) InfoObj(msg, key string, obj interface{})  { emit(zapcore.InfoLevel, msg, key, obj) }
func (zapLogger) DebugObj(msg, key string, obj interface{}) { emit(zapcore.DebugLevel, msg, key, obj) }
func (zapLogger) WarnObj(msg, key string, obj interface{})  { emit(zapcore.WarnLevel, msg, key, obj) }
func (zapLogger) ErrorObj(msg, key string, obj interface{}) { emit(zapcore.ErrorLevel, msg, key, obj) }

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}
