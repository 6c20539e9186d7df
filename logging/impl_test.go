package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugw("debug", "k", 1)
	logger.Infow("info", "k", 2)
	logger.Warnw("warn", "k", 3)
	logger.Errorw("error", "k", 4)
	test.That(t, logs.Len(), test.ShouldEqual, 4)

	logger.SetLevel(WARN)
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	test.That(t, logs.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("kept").Len(), test.ShouldEqual, 1)

	entries := logs.FilterMessage("warn").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[0].ContextMap()["k"], test.ShouldEqual, int64(3))
}

func TestContextDebugMode(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(INFO)

	logger.CDebugw(context.Background(), "quiet")
	test.That(t, logs.FilterMessage("quiet").Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	logger.CDebugw(ctx, "loud")
	test.That(t, logs.FilterMessage("loud").Len(), test.ShouldEqual, 1)
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	sub := logger.Sublogger("scan")
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)

	sub.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	sub.Debugw("from sub")
	entries := logs.FilterMessage("from sub").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "scan")
}

func TestLevelParsing(t *testing.T) {
	for inp, expected := range map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
	} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"error"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)

	out, err := json.Marshal(WARN)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"warn"`)
}

func TestLoggerWithFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "meshscan.log")
	logger, closer := NewLoggerWithFile("file", INFO, fn)
	logger.Debugw("hidden", "k", 0)
	logger.Infow("scan complete", "points", 42)
	test.That(t, closer.Close(), test.ShouldBeNil)

	raw, err := os.ReadFile(fn)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	test.That(t, len(lines), test.ShouldEqual, 1)

	var entry map[string]interface{}
	test.That(t, json.Unmarshal([]byte(lines[0]), &entry), test.ShouldBeNil)
	test.That(t, entry["msg"], test.ShouldEqual, "scan complete")
	test.That(t, entry["level"], test.ShouldEqual, "info")
	test.That(t, entry["logger"], test.ShouldEqual, "file")
	test.That(t, entry["points"], test.ShouldEqual, 42.)
}
