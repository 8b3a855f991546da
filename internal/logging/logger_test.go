package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"shelfmark/internal/logging"
)

func TestConsoleOutputShape(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "allocator")
	scoped.Info("isbn scheduled", logging.String("isbn", "9780306406157"), logging.Int("priority", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO allocator: isbn scheduled") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "isbn=9780306406157") || !strings.Contains(line, "priority=2") {
		t.Fatalf("missing attrs in console line: %q", line)
	}
}

func TestConsoleQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("conflict", logging.String("reason", "book id mismatch"))
	if !strings.Contains(buf.String(), `reason="book id mismatch"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("store committed", logging.Int("blocks", 3))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if decoded["msg"] != "store committed" {
		t.Fatalf("msg = %v", decoded["msg"])
	}
	if decoded["level"] != "info" {
		t.Fatalf("level = %v", decoded["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Fatalf("level filtering broken: %q", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
