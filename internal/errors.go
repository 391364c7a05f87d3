package internal

import (
	"fmt"
)

// ErrorType represents the type of cache error
type ErrorType int

const (
	// ErrorTypeConnection indicates a Redis connection error
	ErrorTypeConnection ErrorType = iota
	// ErrorTypeMalformedKey indicates a delimiter collision or a key that
	// does not match its namespace prefix
	ErrorTypeMalformedKey
	// ErrorTypeFundNotFound indicates a lookup for a fund name with no record
	ErrorTypeFundNotFound
	// ErrorTypeFundHouseNotFound indicates a lookup for a fund house with no
	// member funds
	ErrorTypeFundHouseNotFound
	// ErrorTypeInvalidQueryType indicates a search against an unregistered
	// namespace
	ErrorTypeInvalidQueryType
	// ErrorTypeRebuildInProgress indicates a rebuild was requested while one
	// is already running
	ErrorTypeRebuildInProgress
	// ErrorTypeSerialization indicates JSON marshaling/unmarshaling error
	ErrorTypeSerialization
	// ErrorTypeTimeout indicates a timeout during a cache operation
	ErrorTypeTimeout
	// ErrorTypeValidation indicates input validation failure
	ErrorTypeValidation
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeConnection:
		return "CONNECTION"
	case ErrorTypeMalformedKey:
		return "MALFORMED_KEY"
	case ErrorTypeFundNotFound:
		return "FUND_NOT_FOUND"
	case ErrorTypeFundHouseNotFound:
		return "FUND_HOUSE_NOT_FOUND"
	case ErrorTypeInvalidQueryType:
		return "INVALID_QUERY_TYPE"
	case ErrorTypeRebuildInProgress:
		return "REBUILD_IN_PROGRESS"
	case ErrorTypeSerialization:
		return "SERIALIZATION"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// CacheError represents a cache-specific error with context
type CacheError struct {
	Type    ErrorType
	Key     string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache error [%s] for key '%s': %s", e.Type.String(), e.Key, e.Message)
	}
	return fmt.Sprintf("cache error [%s]: %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause error
func (e *CacheError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *CacheError) Is(target error) bool {
	if t, ok := target.(*CacheError); ok {
		return e.Type == t.Type
	}
	return false
}

// NewCacheError creates a new CacheError
func NewCacheError(errType ErrorType, key, message string, cause error) *CacheError {
	return &CacheError{
		Type:    errType,
		Key:     key,
		Message: message,
		Cause:   cause,
	}
}

// NewConnectionError creates a connection-specific cache error
func NewConnectionError(message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeConnection, "", message, cause)
}

// NewMalformedKeyError creates a malformed-key error. Malformed keys are
// fatal to the record involved, never to the process.
func NewMalformedKeyError(key, message string) *CacheError {
	return NewCacheError(ErrorTypeMalformedKey, key, message, nil)
}

// NewFundNotFoundError creates a not-found error for a fund name
func NewFundNotFoundError(name string) *CacheError {
	return NewCacheError(ErrorTypeFundNotFound, name, "invalid fund name", nil)
}

// NewFundHouseNotFoundError creates a not-found error for a fund house name
func NewFundHouseNotFoundError(name string) *CacheError {
	return NewCacheError(ErrorTypeFundHouseNotFound, name, "invalid fund house name", nil)
}

// NewInvalidQueryTypeError creates an error for an unregistered search namespace
func NewInvalidQueryTypeError(queryType string) *CacheError {
	return NewCacheError(ErrorTypeInvalidQueryType, queryType, "invalid query type", nil)
}

// NewRebuildInProgressError creates an error for a rejected concurrent rebuild
func NewRebuildInProgressError() *CacheError {
	return NewCacheError(ErrorTypeRebuildInProgress, "", "a cache rebuild is already running", nil)
}

// NewSerializationError creates a serialization error
func NewSerializationError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeSerialization, key, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeTimeout, key, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeValidation, "", message, cause)
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeConnection
	}
	return false
}

// IsMalformedKeyError checks if the error is a malformed-key error
func IsMalformedKeyError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeMalformedKey
	}
	return false
}

// IsFundNotFoundError checks if the error is a fund not-found error
func IsFundNotFoundError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeFundNotFound
	}
	return false
}

// IsFundHouseNotFoundError checks if the error is a fund house not-found error
func IsFundHouseNotFoundError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeFundHouseNotFound
	}
	return false
}

// IsInvalidQueryTypeError checks if the error is an invalid-query-type error
func IsInvalidQueryTypeError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeInvalidQueryType
	}
	return false
}

// IsRebuildInProgressError checks if the error is a rebuild-in-progress error
func IsRebuildInProgressError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeRebuildInProgress
	}
	return false
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	if cacheErr, ok := err.(*CacheError); ok {
		return cacheErr.Type == ErrorTypeValidation
	}
	return false
}
