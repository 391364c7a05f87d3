package cache

import (
	"github.com/amfikit/go-amfi-nav-cache/internal"
)

// RedisConfig is the Redis connection configuration, re-exported so
// consumers never import the internal package.
type RedisConfig = internal.Config

// RetryConfig is the retry policy configuration, re-exported for consumers
type RetryConfig = internal.RetryConfig

// CacheError is the typed error all cache operations return on failure
type CacheError = internal.CacheError

// CacheErrorType enumerates the error taxonomy
type CacheErrorType = internal.ErrorType

// DefaultRedisConfig returns a RedisConfig with sensible default values
func DefaultRedisConfig() *RedisConfig {
	return internal.DefaultConfig()
}

// RedisConfigFromEnv returns DefaultRedisConfig overridden by the
// REDIS_HOST, REDIS_PORT and REDIS_DB environment variables where set.
func RedisConfigFromEnv() (*RedisConfig, error) {
	return internal.ConfigFromEnv()
}

// Storage key prefixes, re-exported for callers that purge namespaces via
// Cleanup.
const (
	FundPrefix                   = internal.FundPrefix
	FundHousePrefix              = internal.FundHousePrefix
	SchemeTypePrefix             = internal.SchemeTypePrefix
	SchemeSubTypePrefix          = internal.SchemeSubTypePrefix
	SchemeSubTypeFundHousePrefix = internal.SchemeSubTypeFundHousePrefix
)

// Error classification helpers, re-exported for boundary layers.
var (
	IsConnectionError        = internal.IsConnectionError
	IsMalformedKeyError      = internal.IsMalformedKeyError
	IsFundNotFoundError      = internal.IsFundNotFoundError
	IsFundHouseNotFoundError = internal.IsFundHouseNotFoundError
	IsInvalidQueryTypeError  = internal.IsInvalidQueryTypeError
	IsRebuildInProgressError = internal.IsRebuildInProgressError
	IsValidationError        = internal.IsValidationError
)
