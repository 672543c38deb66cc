package loghandler

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

var stamp = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} `)

func TestHandleWritesTagAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo))

	logger.Info("session started", "tag", "game", "cards", 12)

	line := buf.String()
	if !stamp.MatchString(line) {
		t.Fatalf("expected timestamp prefix, got %q", line)
	}
	got := stamp.ReplaceAllString(line, "")
	if got != "[game] session started cards=12\n" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestHandleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record should be written")
	}
}

func TestWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelInfo)).With("tag", "ws", "session", "abc")

	logger.WithGroup("req").Info("connected", "remote", "1.2.3.4")

	got := stamp.ReplaceAllString(buf.String(), "")
	if got != "[ws] connected session=abc req.remote=1.2.3.4\n" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestLevelColumn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCompactHandler(&buf, slog.LevelDebug).WithLevelColumn())

	logger.Debug("tick", "tag", "game")

	got := stamp.ReplaceAllString(buf.String(), "")
	if got != "DEBUG [game] tick\n" {
		t.Errorf("unexpected line %q", got)
	}
}
