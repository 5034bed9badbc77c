package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(logrus.InfoLevel, &buf)
	logger.Debug("hidden")
	logger.WithField("iteration", 3).Info("Sample saved")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("info output should be JSON: %v", err)
	}
	if entry["msg"] != "Sample saved" || entry["iteration"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_TextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(logrus.DebugLevel, &buf)
	logger.Debug("tick")

	out := buf.String()
	if !strings.Contains(out, "msg=tick") || !strings.Contains(out, "level=debug") {
		t.Errorf("debug output should be text, got %q", out)
	}
	if json.Valid([]byte(strings.Split(out, "\n")[0])) {
		t.Error("debug output should not be JSON")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{" error ", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	if got := LevelFromEnv(false); got != logrus.WarnLevel {
		t.Errorf("env level = %v", got)
	}
	if got := LevelFromEnv(true); got != logrus.DebugLevel {
		t.Errorf("debug flag should win, got %v", got)
	}
}
