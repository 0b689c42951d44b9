package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of watchdog errors
type ErrorType string

const (
	ErrorTypeParse                  ErrorType = "parse"
	ErrorTypeHeartbeatUnavailable   ErrorType = "heartbeat_unavailable"
	ErrorTypeHeartbeatWrite         ErrorType = "heartbeat_write"
	ErrorTypeShutdownCommandInvalid ErrorType = "shutdown_command_invalid"
	ErrorTypeValidation             ErrorType = "validation"
	ErrorTypeIO                     ErrorType = "io"
	ErrorTypeProcess                ErrorType = "process"
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError of the same type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Parse errors cover both duration strings and heartbeat marker contents
func NewParseError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeParse, message, cause)
}

// Heartbeat errors
func NewHeartbeatUnavailableError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeHeartbeatUnavailable, message, cause)
}

func NewHeartbeatWriteError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeHeartbeatWrite, message, cause)
}

// Shutdown errors
func NewShutdownCommandInvalidError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeShutdownCommandInvalid, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcess, message, cause)
}

// Configuration and system errors
func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

// isType reports whether any DomainError in the chain has the given type
func isType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, &DomainError{Type: errorType})
}

// Error checking helpers
func IsParseError(err error) bool {
	return isType(err, ErrorTypeParse)
}

func IsHeartbeatUnavailableError(err error) bool {
	return isType(err, ErrorTypeHeartbeatUnavailable)
}

func IsHeartbeatWriteError(err error) bool {
	return isType(err, ErrorTypeHeartbeatWrite)
}

func IsShutdownCommandInvalidError(err error) bool {
	return isType(err, ErrorTypeShutdownCommandInvalid)
}

func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

func IsIOError(err error) bool {
	return isType(err, ErrorTypeIO)
}

func IsProcessError(err error) bool {
	return isType(err, ErrorTypeProcess)
}
