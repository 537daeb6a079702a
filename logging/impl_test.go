package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("dropped")
	logger.Infof("dropped %d", 1)
	logger.Warnw("kept", "mode", 2)
	logger.Error("kept too")

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "kept")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[0].ContextMap()["mode"], test.ShouldEqual, int64(2))
	test.That(t, entries[1].Level, test.ShouldEqual, zapcore.ErrorLevel)
}

func TestEveryVariantReachesOutput(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debug("debug")
	logger.Debugf("debug%s", "f")
	logger.Debugw("debugw")
	logger.Info("info")
	logger.Infof("info%s", "f")
	logger.Infow("infow")
	logger.Warn("warn")
	logger.Warnf("warn%s", "f")
	logger.Warnw("warnw")
	logger.Error("error")
	logger.Errorf("error%s", "f")
	logger.Errorw("errorw")

	for _, c := range []struct {
		level zapcore.Level
		msgs  []string
	}{
		{zapcore.DebugLevel, []string{"debug", "debugf", "debugw"}},
		{zapcore.InfoLevel, []string{"info", "infof", "infow"}},
		{zapcore.WarnLevel, []string{"warn", "warnf", "warnw"}},
		{zapcore.ErrorLevel, []string{"error", "errorf", "errorw"}},
	} {
		for _, msg := range c.msgs {
			entries := logs.FilterMessage(msg).All()
			test.That(t, entries, test.ShouldHaveLength, 1)
			test.That(t, entries[0].Level, test.ShouldEqual, c.level)
		}
	}
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("planner").Sublogger("leg0")
	sub.Info("hello")

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "planner.leg0")

	sub.SetLevel(ERROR)
	sub.Warn("dropped")
	logger.Warn("kept")
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("kept").Len(), test.ShouldEqual, 1)
}

func TestContextDebugMode(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(INFO)

	logger.CDebugw(context.Background(), "dropped")
	test.That(t, logs.All(), test.ShouldHaveLength, 0)

	ctx := EnableDebugMode(context.Background())
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, IsDebugMode(context.Background()), test.ShouldBeFalse)
	logger.CDebugw(ctx, "kept", "leg", 1)
	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("swing", &buf, INFO)
	logger.Debugw("dropped")
	logger.Infow("planned", "legs", 4)
	logger.Sublogger("lf").Warnf("late touchdown at %v", 0.5)
	test.That(t, logger.Sync(), test.ShouldBeNil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.That(t, lines, test.ShouldHaveLength, 2)
	test.That(t, lines[0], test.ShouldContainSubstring, "INFO\tswing\t")
	test.That(t, lines[0], test.ShouldContainSubstring, "logging/impl_test.go")
	test.That(t, lines[0], test.ShouldEndWith, `planned	{"legs": 4}`)
	test.That(t, lines[1], test.ShouldContainSubstring, "WARN\tswing.lf\t")
	test.That(t, lines[1], test.ShouldEndWith, "late touchdown at 0.5")
	// timestamps are rendered in UTC
	test.That(t, strings.SplitN(lines[0], "\t", 2)[0], test.ShouldEndWith, "Z")
}
