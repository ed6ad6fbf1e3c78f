package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("diary created", slog.String("diary_id", "d-1"), slog.Int("count", 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg", "diary_id", "count"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("missing field %q in %v", key, entry)
		}
	}
	if entry["msg"] != "diary created" {
		t.Errorf("msg = %v, want %q", entry["msg"], "diary created")
	}
}

func TestSetLevel_FiltersBelowLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level: %s", buf.String())
	}

	SetLevel(slog.LevelDebug)
	l.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug should be written after SetLevel(debug): %s", buf.String())
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Info("global")

	if !strings.Contains(buf.String(), `"msg":"global"`) {
		t.Errorf("global logger should write JSON to buffer, got %s", buf.String())
	}
}
