// Package logging contains the structured logger shared by the planning and control packages.
// Loggers are thin wrappers over a zap core; the level is held by the wrapper so that a context
// in debug mode can bypass it.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface taken by every component constructor.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	// CDebugw logs at debug level when the logger is at debug or ctx is in debug mode.
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<parent>.<subname>" writing to the same outputs. It
	// starts at the parent's level and is adjusted independently afterwards.
	Sublogger(subname string) Logger
	SetLevel(level Level)
	// Sync flushes buffered output. Call it before exiting.
	Sync() error
}

const timeFormat = "2006-01-02T15:04:05.000Z0700"

func encodeTimeUTC(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeFormat))
}

func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     encodeTimeUTC,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

// NewWriterLogger returns a logger writing tab separated console lines with UTC timestamps to w.
func NewWriterLogger(name string, w io.Writer, level Level) Logger {
	core := zapcore.NewCore(consoleEncoder(), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return newImpl(name, level, core)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return NewWriterLogger(name, os.Stdout, INFO)
}
