package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewWritesServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf, ServiceName: "kavach"})

	logger.Info("hello", "claim_id", "C1")

	entry := decode(t, &buf)
	if entry["service"] != "kavach" {
		t.Errorf("service = %v, want kavach", entry["service"])
	}
	if entry["claim_id"] != "C1" {
		t.Errorf("claim_id = %v, want C1", entry["claim_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("dropped")
	logger.Debug("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  bool
		wantSuggs bool
	}{
		{name: "nil error"},
		{name: "plain error", err: fmt.Errorf("boom")},
		{
			name:     "coded error",
			err:      errors.New(errors.ErrCodeAPIResponse, "invalid claim"),
			wantCode: true,
		},
		{
			name:      "wrapped coded error with suggestions",
			err:       fmt.Errorf("outer: %w", errors.NewAuthExpiredError()),
			wantCode:  true,
			wantSuggs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

			logger.WithError(tt.err).Info("test")
			entry := decode(t, &buf)

			_, hasErr := entry["error"]
			if hasErr != (tt.err != nil) {
				t.Errorf("error field present = %v, want %v", hasErr, tt.err != nil)
			}
			if _, ok := entry["error_code"]; ok != tt.wantCode {
				t.Errorf("error_code present = %v, want %v", ok, tt.wantCode)
			}
			if _, ok := entry["suggestions"]; ok != tt.wantSuggs {
				t.Errorf("suggestions present = %v, want %v", ok, tt.wantSuggs)
			}
		})
	}
}

func TestLogErrorContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	cause := fmt.Errorf("connection refused")
	logger.LogErrorContext(context.Background(), "request failed", errors.NewTransportError("http://api/claims", cause))

	entry := decode(t, &buf)
	if entry["msg"] != "request failed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["error_code"] != string(errors.ErrCodeNetTransport) {
		t.Errorf("error_code = %v", entry["error_code"])
	}
	if entry["cause"] != "connection refused" {
		t.Errorf("cause = %v", entry["cause"])
	}

	buf.Reset()
	logger.LogErrorContext(context.Background(), "ignored", nil)
	if buf.Len() != 0 {
		t.Errorf("nil error should not log, got %q", buf.String())
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{
		"debug": LevelDebug, "DEBUG": LevelDebug, "info": LevelInfo,
		"warning": LevelWarn, "error": LevelError, "bogus": LevelInfo,
	}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be json")
	}
	if ParseFormat("console") != FormatText {
		t.Error("unknown formats should fall back to text")
	}
}

func TestFromStrings(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromStrings("debug", "json", &buf)

	if cfg.Level != LevelDebug || cfg.Format != FormatJSON || cfg.Output != &buf {
		t.Errorf("unexpected config: %+v", cfg)
	}

	def := FromStrings("", "", nil)
	if def.Level != LevelWarn || def.Format != FormatText {
		t.Errorf("empty strings should keep defaults, got %+v", def)
	}
}

func TestDefaultLogger(t *testing.T) {
	custom := Discard()
	SetDefaultLogger(custom)
	t.Cleanup(func() { SetDefaultLogger(nil) })

	if DefaultLogger() != custom {
		t.Error("DefaultLogger should return the configured logger")
	}
}
