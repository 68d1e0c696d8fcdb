// Package log is the structured logger shared by the sigma packages. It wraps a
// zap SugaredLogger behind a small interface so that protocols, stores and the
// compiler can be handed a logger without depending on zap directly.
package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is an interface that can log to different levels.
type Logger interface {
	Info(keyvals ...interface{})
	Debug(keyvals ...interface{})
	Warn(keyvals ...interface{})
	Error(keyvals ...interface{})
	Infow(msg string, keyvals ...interface{})
	Debugw(msg string, keyvals ...interface{})
	Warnw(msg string, keyvals ...interface{})
	Errorw(msg string, keyvals ...interface{})
	With(args ...interface{}) Logger
	Named(s string) Logger
}

type log struct {
	*zap.SugaredLogger
}

func (l *log) With(args ...interface{}) Logger {
	return &log{l.SugaredLogger.With(args...)}
}

func (l *log) Named(s string) Logger {
	return &log{l.SugaredLogger.Named(s)}
}

const (
	DebugLevel = int(zapcore.DebugLevel)
	InfoLevel  = int(zapcore.InfoLevel)
	WarnLevel  = int(zapcore.WarnLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
)

// EnvLevel is the environment variable read at init time. Setting it to DEBUG
// lowers DefaultLevel to DebugLevel.
const EnvLevel = "SIGMA_LOGS"

// DefaultLevel is the level of the default logger. Change it before the first
// call to DefaultLogger.
var DefaultLevel = InfoLevel

//nolint:gochecknoinits
func init() {
	if v, ok := os.LookupEnv(EnvLevel); ok && v == "DEBUG" {
		DefaultLevel = DebugLevel
	}
}

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// DefaultLogger returns the process wide logger, writing JSON to stderr at
// DefaultLevel.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		defaultLogger = &log{newZapLogger(os.Stderr, jsonEncoder(), DefaultLevel).Sugar()}
	})
	return defaultLogger
}

// New returns a logger writing to output at the given level. A nil output
// means stderr.
func New(output zapcore.WriteSyncer, level int, isJSON bool) Logger {
	encoder := consoleEncoder()
	if isJSON {
		encoder = jsonEncoder()
	}
	return &log{newZapLogger(output, encoder, level).Sugar()}
}

func newZapLogger(output zapcore.WriteSyncer, encoder zapcore.Encoder, level int) *zap.Logger {
	if output == nil {
		output = os.Stderr
	}
	core := zapcore.NewCore(encoder, output, zapcore.Level(level))
	return zap.New(core, zap.WithCaller(true))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig())
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(encoderConfig())
}

type ctxKey string

const ctxLogger ctxKey = "sigmaLogger"

// ToContext attaches l to ctx.
func ToContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxLogger, l)
}

// FromContextOrDefault returns the logger set with ToContext, or the default
// logger when there is none.
func FromContextOrDefault(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxLogger).(Logger); ok {
		return l
	}
	return DefaultLogger()
}
