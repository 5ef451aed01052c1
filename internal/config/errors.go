package config

import (
	"fmt"
	"strings"
)

// ConfigurationError represents a structured error that occurs during configuration loading.
type ConfigurationError struct {
	FilePath    string   // Full path to the file that caused the error, if any
	ErrorType   string   // parse, validation or io
	Message     string   // Human-readable error message
	Suggestions []string // Actionable suggestions to fix the error
	Err         error
}

// Error implements the error interface.
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return fmt.Sprintf("configuration %s error: %s", ce.ErrorType, ce.Message)
	}
	return fmt.Sprintf("configuration %s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

// Unwrap returns the underlying error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}
	return strings.Join(parts, "\n")
}
