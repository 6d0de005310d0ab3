package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualTrimmed := strings.TrimSuffix(output, "\n")
	actualParts := strings.Split(actualTrimmed, "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	// Log level.
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])
	// Logger name.
	test.That(t, actualParts[2], test.ShouldEqual, expectedParts[2])

	// Filename:line_number.
	actualFilename, actualLineNumber, found := strings.Cut(actualParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[3], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	// Log message.
	test.That(t, actualParts[4], test.ShouldEqual, expectedParts[4])

	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 5 {
		return
	}

	// JSON encoding of maps can be unpredictable because map iteration order can change between
	// runs. Parse the output into maps and assert on map equality.
	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[5]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[5]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func TestConsoleOutputFormat(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{
		name:      "haptics",
		level:     NewAtomicLevelAt(INFO),
		inUTC:     true,
		appenders: []Appender{NewWriterAppender(notStdout)},
	}

	logger.Debug("not printed")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Info("impulse")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	haptics	logging/impl_test.go:67	impulse`)

	logger.Warnf("intensity %d", 255)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	haptics	logging/impl_test.go:67	intensity 255`)

	logger.Errorw("write failed", "intensity", 12, "attempt", "first")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	ERROR	haptics	logging/impl_test.go:67	write failed	{"intensity":12,"attempt":"first"}`)

	logger.Infow("unpaired", "key")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	haptics	logging/impl_test.go:67	unpaired	{"key":"unpaired log key"}`)
}

func TestSubloggerInheritsLevel(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{
		name:      "haptics",
		level:     NewAtomicLevelAt(WARN),
		inUTC:     true,
		appenders: []Appender{NewWriterAppender(notStdout)},
	}

	sub := logger.Sublogger("engine")
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
	sub.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	sub.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	sub.Debug("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	DEBUG	haptics.engine	logging/impl_test.go:67	kept`)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("engine started", "run", "abc")
	logger.Debug("tick")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("engine started").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterField(logs.All()[0].Context[0]).Len(), test.ShouldEqual, 1)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loud")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hapticd.log")
	appender, err := NewFileAppender(path, 1)
	test.That(t, err, test.ShouldBeNil)

	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Info("to disk")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "to disk")
	test.That(t, string(contents), test.ShouldContainSubstring, "INFO")
}
