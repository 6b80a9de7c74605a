package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/thoreinstein/compchem/internal/errors"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("test message", "key", "value")

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, buf.String())
	}
	if parsed["msg"] != "test message" {
		t.Errorf("msg = %v, want 'test message'", parsed["msg"])
	}
	if parsed["key"] != "value" {
		t.Errorf("JSON output missing custom attribute: got %v, want 'value'", parsed["key"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("test message", "key", "value")

	if got := buf.String(); got != "INFO: test message key=value\n" {
		t.Errorf("output = %q", got)
	}
}

func TestNew_UnknownFormatDefaultsToText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  slog.LevelInfo,
		Format: Format("unknown"),
		Output: &buf,
	})

	logger.Info("test message")

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err == nil {
		t.Error("unknown format should default to text, not JSON")
	}
}

func TestNew_DefaultsToStderr(t *testing.T) {
	if logger := New(Config{Level: slog.LevelInfo}); logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewDiscard(t *testing.T) {
	logger := NewDiscard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("discard logger should not be enabled at any level")
	}
	logger.Error("this is dropped")
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		configLevel  slog.Level
		logLevel     slog.Level
		shouldAppear bool
	}{
		{"info logged at info level", slog.LevelInfo, slog.LevelInfo, true},
		{"debug not logged at info level", slog.LevelInfo, slog.LevelDebug, false},
		{"error logged at info level", slog.LevelInfo, slog.LevelError, true},
		{"info not logged at warn level", slog.LevelWarn, slog.LevelInfo, false},
		{"trace logged at trace level", LevelTrace, LevelTrace, true},
		{"error not logged when off", LevelOff, slog.LevelError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{
				Level:  tt.configLevel,
				Format: FormatText,
				Output: &buf,
			})

			logger.Log(t.Context(), tt.logLevel, "test message")

			if hasOutput := buf.Len() > 0; hasOutput != tt.shouldAppear {
				t.Errorf("got output=%v, want output=%v\noutput: %q", hasOutput, tt.shouldAppear, buf.String())
			}
		})
	}
}

func TestForTest_CapturesAllLevels(t *testing.T) {
	logger := ForTest(t)

	logger.Debug("debug level")
	logger.Info("info level")
	logger.Warn("warn level")
	logger.Error("error level")
}

func TestTestWriter_TrimsNewline(t *testing.T) {
	tw := &testWriter{t: t}

	for _, in := range []string{"test message\n", "no newline", ""} {
		n, err := tw.Write([]byte(in))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != len(in) {
			t.Errorf("Write(%q) returned %d, want %d", in, n, len(in))
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{-1, slog.LevelWarn},
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, LevelTrace},
		{4, LevelTrace},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestLevelOrdering(t *testing.T) {
	if LevelTrace >= slog.LevelDebug {
		t.Error("LevelTrace should be lower than LevelDebug")
	}
	if LevelOff <= slog.LevelError+1000 {
		t.Error("LevelOff should be above every practical level")
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{LevelTrace, "TRACE"},
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelInfo + 2, "INFO"},
		{slog.LevelWarn, "WARNING"},
		{slog.LevelError, "ERROR"},
		{slog.LevelError + 4, "ERROR"},
		{LevelOff, "OFF"},
	}
	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.want {
			t.Errorf("LevelName(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"Warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"INFO+2", slog.LevelInfo + 2, false},
		{"trace", LevelTrace, false},
		{"off", LevelOff, false},
		{"none", LevelOff, false},
		{"loud", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidOption) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidOption", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(t.Context()); ok {
		t.Error("empty context should carry no logger")
	}

	l := NewRegistry().Get("compchem.ctx")
	ctx := NewContext(t.Context(), l)
	got, ok := FromContext(ctx)
	if !ok || got != l {
		t.Errorf("FromContext() = %v, %v; want the stored logger", got, ok)
	}

	if !strings.HasPrefix(got.Name(), RootName) {
		t.Errorf("Name() = %q", got.Name())
	}
}
