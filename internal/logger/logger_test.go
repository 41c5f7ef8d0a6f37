package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"
)

// capture installs a logger writing to a buffer and restores the default on cleanup.
func capture(t *testing.T, opts Options) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Output = buf
	Init(opts)
	t.Cleanup(func() { Init(Options{}) })
	return buf
}

// --- Level Tests ---

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := capture(t, Options{})

	Info("startup")
	Debug("hidden detail")

	if !strings.Contains(buf.String(), "startup") {
		t.Error("Info message should be logged at default level")
	}
	if strings.Contains(buf.String(), "hidden detail") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_DebugLevel(t *testing.T) {
	buf := capture(t, Options{Debug: true})

	Debug("chromedp frame")
	if !strings.Contains(buf.String(), "chromedp frame") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestQuiet_OverridesDebug(t *testing.T) {
	buf := capture(t, Options{Debug: true, Quiet: true})

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("Timeout while waiting for element //h1")

	output := buf.String()
	for _, hidden := range []string{"debug message", "info message", "warn message"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%q should not be logged when Quiet=true", hidden)
		}
	}
	if !strings.Contains(output, "Timeout while waiting for element //h1") {
		t.Error("Error should be logged when Quiet=true")
	}
}

// --- Format Tests ---

func TestInit_TextFormat_HasTimestampAndLevel(t *testing.T) {
	buf := capture(t, Options{})

	Error("Error clicking element //button: intercepted")

	output := buf.String()
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("expected level=ERROR in %q", output)
	}
	stamp := regexp.MustCompile(`time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`)
	if !stamp.MatchString(output) {
		t.Errorf("expected millisecond timestamp in %q", output)
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := capture(t, Options{JSON: true})

	Info("scrape complete", "fields", 9)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "scrape complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["fields"] != float64(9) {
		t.Errorf("fields = %v", entry["fields"])
	}
}

// --- Custom Logger Tests ---

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { Init(Options{}) })

	Info("from custom logger")
	if !strings.Contains(buf.String(), "from custom logger") {
		t.Error("expected message routed to the custom logger")
	}
}

func TestInit_LoggerOptionWins(t *testing.T) {
	custom := &bytes.Buffer{}
	ignored := &bytes.Buffer{}
	Init(Options{Output: ignored, Logger: slog.New(slog.NewTextHandler(custom, nil))})
	t.Cleanup(func() { Init(Options{}) })

	Info("hello")
	if ignored.Len() != 0 {
		t.Error("Output should be ignored when Logger is set")
	}
	if !strings.Contains(custom.String(), "hello") {
		t.Error("expected message in custom logger output")
	}
}

// --- Helper Tests ---

func TestWith_AddsAttrs(t *testing.T) {
	buf := capture(t, Options{})

	With("locator", "//h1").Info("reading")
	if !strings.Contains(buf.String(), "locator=//h1") {
		t.Errorf("expected attribute in %q", buf.String())
	}
}

func TestContextVariants(t *testing.T) {
	buf := capture(t, Options{Debug: true})
	ctx := context.Background()

	DebugContext(ctx, "debug with context")
	ErrorContext(ctx, "error with context")

	for _, want := range []string{"debug with context", "error with context"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestSince(t *testing.T) {
	attr := Since(time.Now().Add(-1500 * time.Millisecond))
	if attr.Key != "elapsed" {
		t.Errorf("key = %q", attr.Key)
	}
	if d := attr.Value.Duration(); d < 1500*time.Millisecond || d > 5*time.Second {
		t.Errorf("unexpected elapsed %v", d)
	}
}
