package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl filters by its own level and hands enabled entries to a core that accepts everything.
type impl struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

func newImpl(name string, level Level, core zapcore.Core) *impl {
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &impl{
		level: zap.NewAtomicLevelAt(level.AsZap()),
		sugar: base.Named(name).Sugar(),
	}
}

func (imp *impl) Sublogger(subname string) Logger {
	return &impl{
		level: zap.NewAtomicLevelAt(imp.level.Level()),
		sugar: imp.sugar.Named(subname),
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) Sync() error {
	return imp.sugar.Sync()
}

func (imp *impl) enabled(level zapcore.Level) bool {
	return imp.level.Enabled(level)
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(zapcore.DebugLevel) {
		imp.sugar.Debug(args...)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(zapcore.DebugLevel) {
		imp.sugar.Debugf(template, args...)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(zapcore.DebugLevel) {
		imp.sugar.Debugw(msg, keysAndValues...)
	}
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if imp.enabled(zapcore.DebugLevel) || IsDebugMode(ctx) {
		imp.sugar.Debugw(msg, keysAndValues...)
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(zapcore.InfoLevel) {
		imp.sugar.Info(args...)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(zapcore.InfoLevel) {
		imp.sugar.Infof(template, args...)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(zapcore.InfoLevel) {
		imp.sugar.Infow(msg, keysAndValues...)
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(zapcore.WarnLevel) {
		imp.sugar.Warn(args...)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(zapcore.WarnLevel) {
		imp.sugar.Warnf(template, args...)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(zapcore.WarnLevel) {
		imp.sugar.Warnw(msg, keysAndValues...)
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(zapcore.ErrorLevel) {
		imp.sugar.Error(args...)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(zapcore.ErrorLevel) {
		imp.sugar.Errorf(template, args...)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(zapcore.ErrorLevel) {
		imp.sugar.Errorw(msg, keysAndValues...)
	}
}
