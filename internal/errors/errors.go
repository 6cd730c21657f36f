// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotConfigured      = errors.New("not configured")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrQuoteNotFound      = errors.New("quote not found")
	ErrPositionNotFound   = errors.New("position not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrTradeRejected      = errors.New("trade rejected")
	ErrStreamClosed       = errors.New("stream closed")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDataNotFound       = errors.New("data not found")
	ErrCacheStale         = errors.New("cached data is stale")
	ErrDatabaseError      = errors.New("database error")
	ErrInputValidation    = errors.New("input validation failed")
)

// APIError represents an error response from the backend REST API.
type APIError struct {
	Status   int
	Endpoint string
	Detail   string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api error [%d] %s: %s: %v", e.Status, e.Endpoint, e.Detail, e.Err)
	}
	return fmt.Sprintf("api error [%d] %s: %s", e.Status, e.Endpoint, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError.
func NewAPIError(status int, endpoint, detail string, err error) *APIError {
	return &APIError{
		Status:   status,
		Endpoint: endpoint,
		Detail:   detail,
		Err:      err,
	}
}

// IsNotFound reports whether the error is a 404 from the backend.
func (e *APIError) IsNotFound() bool {
	return e.Status == 404
}

// StreamError represents an error on a WebSocket stream.
type StreamError struct {
	Stream  string
	Message string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream error [%s]: %s: %v", e.Stream, e.Message, e.Err)
	}
	return fmt.Sprintf("stream error [%s]: %s", e.Stream, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError.
func NewStreamError(stream, message string, err error) *StreamError {
	return &StreamError{
		Stream:  stream,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
