package errors

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	stderrOnce   sync.Once
	stderrLogger zerolog.Logger
)

func defaultLogger() *zerolog.Logger {
	stderrOnce.Do(func() {
		stderrLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	})
	return &stderrLogger
}

// LogHandler is an ErrorHandler that logs errors through zerolog.
type LogHandler struct {
	// Logger receives the events. Nil logs to stderr.
	Logger *zerolog.Logger
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

func (h *LogHandler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return defaultLogger()
}

// HandleError logs an Error.
func (h *LogHandler) HandleError(err *Error) {
	if err == nil {
		return
	}
	ev := h.logger().Error().Str("op", err.Op).Err(err.Err)
	if h.Verbose {
		ev = ev.Str("kind", err.Kind.String())
		if err.Fungus != "" {
			ev = ev.Str("fungus", err.Fungus)
		}
		if err.StackTrace != "" {
			ev = ev.Str("stack", err.StackTrace)
		}
	}
	ev.Msg("cordyceps error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.logger().Error().Interface("panic", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("cordyceps panic")
}

// HandleCallbackError logs a CallbackError.
func (h *LogHandler) HandleCallbackError(err *CallbackError) {
	if err == nil {
		return
	}
	ev := h.logger().Error().
		Str("fungus", err.Fungus).
		Str("binding", err.Binding).
		Str("callback", err.Callback)
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg(err.Error())
}
