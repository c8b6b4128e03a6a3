package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithFormat("json")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	Named("worker").Info(context.Background(), "audit scored",
		String("audit_id", "a1"),
		Float64("percentage", 82.5),
		Bool("passed", true),
		Duration("took", time.Millisecond),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["component"] != "worker" {
		t.Errorf("expected component worker, got %v", entry["component"])
	}
	if entry["audit_id"] != "a1" || entry["passed"] != true {
		t.Errorf("fields missing from entry: %v", entry)
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected caller in logger_test.go, got %q", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %q", buf.String())
	}

	if err := SetLevelString("DEBUG"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	Get().Debug(ctx, "shown", Error(errors.New("boom")))
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("debug entry missing: %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected unknown level to fail")
	}
	if err := SetLevelString("warning"); err != nil {
		t.Errorf("warning should be accepted: %v", err)
	}
}

func TestLoggerInitRejectsUnknownFormat(t *testing.T) {
	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected unknown format to fail")
	}
	if Get() == nil {
		t.Fatal("logger is nil")
	}
}
