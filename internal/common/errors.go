package common

import (
	"errors"
	"fmt"
)

// Extraction taxonomy. Stage failures are recorded on outcomes and matched
// with errors.Is; only ErrUnsupportedFormat reaches a caller of Process.
var (
	ErrUnavailableCapability = errors.New("capability unavailable")
	ErrExtractionFailure     = errors.New("extraction failed")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrEncoding              = errors.New("text encoding error")
)

// Request and configuration errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// Unavailable builds an ErrUnavailableCapability for the named capability.
func Unavailable(capability string) error {
	return fmt.Errorf("%s: %w", capability, ErrUnavailableCapability)
}

// ExtractionFailure wraps cause as an ErrExtractionFailure of the named stage.
// The cause stays reachable through errors.Is and errors.As.
func ExtractionFailure(stage string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", stage, ErrExtractionFailure)
	}
	return &stageError{stage: stage, cause: cause}
}

type stageError struct {
	stage string
	cause error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.stage, ErrExtractionFailure, e.cause)
}

func (e *stageError) Unwrap() []error {
	return []error{ErrExtractionFailure, e.cause}
}

// Codes carried by AppError.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
)

// AppError is an error with a stable code for callers outside the pipeline.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// InvalidInputError reports a rejected request or upload.
func InvalidInputError(message string) error {
	return NewAppError(CodeInvalidInput, message, ErrInvalidInput)
}

func InvalidInputErrorf(format string, args ...any) error {
	return InvalidInputError(fmt.Sprintf(format, args...))
}

// invalidConfig reports a configuration value that failed validation.
func invalidConfig(message string) error {
	return NewAppError(CodeConfig, message, ErrInvalidInput)
}
