package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "info")

	log.Debug().Msg("hidden")
	log.Info().Str("jobId", "abc").Msg("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["message"] != "visible" || entry["jobId"] != "abc" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["service"] != "vibewear-api" {
		t.Errorf("missing service field: %v", entry)
	}
}

func TestNewWithWriterBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "loud")

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
}

func TestAsynqLevel(t *testing.T) {
	cases := map[string]asynq.LogLevel{
		"debug": asynq.DebugLevel,
		"WARN":  asynq.WarnLevel,
		"error": asynq.ErrorLevel,
		"info":  asynq.InfoLevel,
		"":      asynq.InfoLevel,
	}
	for in, want := range cases {
		if got := AsynqLevel(in); got != want {
			t.Errorf("AsynqLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAsynqLoggerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	a := NewAsynqLogger(NewWithWriter(&buf, "production", "debug"))

	a.Warn("queue ", "render", " is slow")
	if !strings.Contains(buf.String(), `"component":"asynq"`) {
		t.Errorf("missing component field: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "queue render is slow") {
		t.Errorf("unexpected message: %q", buf.String())
	}
}
