package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDefaultOptions_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogNoColor, "true")

	opts := DefaultOptions("cordyceps")
	if opts.Level != zerolog.DebugLevel {
		t.Errorf("Level = %v, want debug", opts.Level)
	}
	if !opts.NoColor {
		t.Error("NoColor should be set from the environment")
	}
}

func TestNew_WritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{App: "test", Level: zerolog.InfoLevel, NoColor: true})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "app=test") {
		t.Errorf("output %q should contain message and app field", out)
	}
}
