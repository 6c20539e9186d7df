// Package logging contains the zap-backed loggers used throughout meshscan.
package logging

import (
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewDebugLogger("startup")
)

// ReplaceGlobal replaces the global loggers.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	return newStdoutLogger(name, INFO)
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout in UTC.
func NewDebugLogger(name string) Logger {
	return newStdoutLogger(name, DEBUG)
}

// NewBlankLogger returns a new logger that discards everything. Useful as a default when a
// caller does not supply one.
func NewBlankLogger(name string) Logger {
	return &impl{name: name, level: NewAtomicLevelAt(DEBUG), sugar: zap.NewNop().Sugar()}
}

func newStdoutLogger(name string, level Level) Logger {
	config := NewLoggerConfig()
	// Level filtering happens in impl so that context debug mode can bypass it.
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.EncoderConfig.EncodeTime = utcISO8601
	base := zap.Must(config.Build(zap.AddCallerSkip(1)))
	return &impl{name: name, level: NewAtomicLevelAt(level), sugar: base.Sugar().Named(name)}
}

// NewLoggerWithFile is like NewLogger at the given level, but every entry is also appended as
// JSON to fn, which is rotated once it reaches 100 megabytes. Closing the returned closer
// releases the file.
func NewLoggerWithFile(name string, level Level, fn string) (Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   fn,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	encoderConfig := NewLoggerConfig().EncoderConfig
	encoderConfig.EncodeTime = utcISO8601
	fileEncoderConfig := encoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), zapcore.DebugLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(rotator), zapcore.DebugLevel),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &impl{name: name, level: NewAtomicLevelAt(level), sugar: base.Sugar().Named(name)}, rotator
}

func utcISO8601(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	zapcore.ISO8601TimeEncoder(t.UTC(), enc)
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test's `Log` method.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	base := zaptest.NewLogger(tb,
		zaptest.Level(zapcore.DebugLevel),
		zaptest.WrapOptions(
			zap.AddCaller(),
			zap.AddCallerSkip(1),
			zap.WrapCore(func(c zapcore.Core) zapcore.Core {
				return zapcore.NewTee(c, observerCore)
			}),
		),
	)
	return &impl{level: NewAtomicLevelAt(DEBUG), sugar: base.Sugar()}, observedLogs
}
