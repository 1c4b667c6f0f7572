package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid or inconsistent run parameters
	ErrConfiguration = errors.New("configuration error")
	// ErrData marks malformed or inconsistent input data
	ErrData = errors.New("data error")
	// ErrInvariant marks a broken internal invariant
	ErrInvariant = errors.New("invariant violation")
)

// ConfigError describes an invalid configuration field
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrConfiguration
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError builds a ConfigError with a formatted reason
func NewConfigError(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataError locates a problem in input data. Row is 1-based, 0 when unknown.
type DataError struct {
	Source string
	Row    int
	Item   string
	Err    error
}

func (e *DataError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, e.Source)
	}
	if e.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	if e.Item != "" {
		parts = append(parts, fmt.Sprintf("item %q", e.Item))
	}
	msg := "data error"
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause
func (e *DataError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrData}
	}
	return []error{ErrData, e.Err}
}

// InvariantError reports an internal consistency failure
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Detail
}

// Is lets errors.Is match ErrInvariant
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
