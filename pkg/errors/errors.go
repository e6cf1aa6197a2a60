// Package errors provides structured error handling for cordyceps containers.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Sentinel errors for fungus registration.
var (
	// ErrInvalidName is wrapped when a fungus name is empty or not identifier-like.
	ErrInvalidName = stderrors.New("invalid name for fungus")
	// ErrDuplicateFungus is wrapped when a fungus name is already registered.
	ErrDuplicateFungus = stderrors.New("fungus already exists")
	// ErrNilFactory is wrapped when a fungus is registered without a factory.
	ErrNilFactory = stderrors.New("fungus factory is nil")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates an invalid registration or configuration value.
	KindConfig
	// KindParsing indicates a configuration file that could not be parsed.
	KindParsing
	// KindHost indicates a change the host document could not apply.
	KindHost
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindParsing:
		return "parsing"
	case KindHost:
		return "host"
	default:
		return "unknown"
	}
}

// Error represents a structured error raised by a container operation.
type Error struct {
	// Op is the operation that failed (e.g., "cordyceps.NewFungus").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Fungus is the fungus name, if applicable.
	Fungus string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Fungus != "" {
		return fmt.Sprintf("%s [%s] fungus=%s: %v", e.Op, e.Kind, e.Fungus, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "frame.Loop.Pump").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a configuration file that could not be decoded.
type ParseError struct {
	// File is the path of the configuration file.
	File string
	// Format is the detected format (yaml, toml, hcl).
	Format string
	// Err is the decoder error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file %s: %v", e.Format, e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CallbackError represents a fungus callback that panicked.
type CallbackError struct {
	// Fungus is the registered fungus name.
	Fungus string
	// Binding is the id of the infected element's binding.
	Binding string
	// Callback is the lifecycle callback (OnInit, OnStateChange).
	Callback string
	// Recovered is the panic value.
	Recovered any
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *CallbackError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in %s.%s(): %v", e.Fungus, e.Callback, e.Recovered)
	}
	return fmt.Sprintf("unknown error in %s.%s()", e.Fungus, e.Callback)
}

// ErrorHandler receives errors reported by cordyceps.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleCallbackError is called when a fungus callback fails.
	HandleCallbackError(err *CallbackError)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
