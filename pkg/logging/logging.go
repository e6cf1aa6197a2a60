// Package logging builds the zerolog loggers used by cordyceps containers
// and the CLI.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "CORDYCEPS_LOG_LEVEL"
	EnvLogNoColor = "CORDYCEPS_LOG_NOCOLOR"
)

// Options controls logger construction.
type Options struct {
	App     string
	Level   zerolog.Level
	NoColor bool
}

// DefaultOptions returns info-level colored output, adjusted by the
// environment overrides.
func DefaultOptions(app string) Options {
	opts := Options{App: app, Level: zerolog.InfoLevel}
	applyEnvOverrides(&opts)
	return opts
}

// New returns a console logger writing to w.
func New(w io.Writer, opts Options) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	ctx := zerolog.New(output).Level(opts.Level).With().Timestamp()
	if opts.App != "" {
		ctx = ctx.Str("app", opts.App)
	}
	return ctx.Logger()
}

// Stderr is New(os.Stderr, DefaultOptions(app)).
func Stderr(app string) zerolog.Logger {
	return New(os.Stderr, DefaultOptions(app))
}

func applyEnvOverrides(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
}

// ParseLevel maps a level name onto a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug", "diagnostics":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
