package internal

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Environment variables recognized by ConfigFromEnv.
const (
	EnvRedisHost = "REDIS_HOST"
	EnvRedisPort = "REDIS_PORT"
	EnvRedisDB   = "REDIS_DB"
)

// Config holds Redis connection configuration parameters
type Config struct {
	// Redis connection settings
	RedisAddr     string `json:"redis_addr"`     // Redis server address (host:port)
	RedisPassword string `json:"redis_password"` // Redis password (optional)
	RedisDB       int    `json:"redis_db"`       // Redis database number

	// Connection pool settings
	MaxRetries   int           `json:"max_retries"`   // Maximum number of retries
	DialTimeout  time.Duration `json:"dial_timeout"`  // Timeout for establishing connection
	ReadTimeout  time.Duration `json:"read_timeout"`  // Timeout for socket reads
	WriteTimeout time.Duration `json:"write_timeout"` // Timeout for socket writes
	PoolSize     int           `json:"pool_size"`     // Maximum number of socket connections

	// Resilience settings
	RetryConfig *RetryConfig `json:"retry_config"` // Retry configuration for operations
}

// RetryConfig defines retry behavior with exponential backoff
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`  // Maximum number of retry attempts
	InitialDelay time.Duration `json:"initial_delay"` // Initial delay before first retry
	MaxDelay     time.Duration `json:"max_delay"`     // Maximum delay between retries
	Multiplier   float64       `json:"multiplier"`    // Backoff multiplier
	Jitter       bool          `json:"jitter"`        // Whether to add random jitter
	RetryableOps []string      `json:"retryable_ops"` // Operations that should be retried
}

// DefaultRetryConfig returns a RetryConfig with sensible default values
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableOps: []string{"ping", "get", "set", "del", "sadd", "smembers", "scan", "sugadd", "sugget"},
	}
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:     "localhost:6379",
		RedisPassword: "",
		RedisDB:       0,
		MaxRetries:    3,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		PoolSize:      10,
		RetryConfig:   DefaultRetryConfig(),
	}
}

// ConfigFromEnv returns DefaultConfig overridden by the REDIS_HOST,
// REDIS_PORT and REDIS_DB environment variables where set.
func ConfigFromEnv() (*Config, error) {
	config := DefaultConfig()

	host := "localhost"
	port := "6379"
	if v := os.Getenv(EnvRedisHost); v != "" {
		host = v
	}
	if v := os.Getenv(EnvRedisPort); v != "" {
		port = v
	}
	config.RedisAddr = net.JoinHostPort(host, port)

	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvRedisDB, v, err)
		}
		config.RedisDB = db
	}

	return config, nil
}

// RedisClientInterface defines the interface for Redis client operations
type RedisClientInterface interface {
	Health(ctx context.Context) error
	HealthWithRetry(ctx context.Context) error
	SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetWithRetry(ctx context.Context, key string) (string, error)
	DelWithRetry(ctx context.Context, keys ...string) error
	SAddWithRetry(ctx context.Context, key string, members ...string) error
	SMembersWithRetry(ctx context.Context, key string) ([]string, error)
	ScanKeysWithRetry(ctx context.Context, match string) ([]string, error)
	SugAddWithRetry(ctx context.Context, dict, suggestion string, weight float64) error
	SugGetWithRetry(ctx context.Context, dict, prefix string, fuzzy bool, max int64) ([]string, error)
	Client() *redis.Client
	Config() *Config
	Close() error
}

// RedisClient wraps the go-redis client with additional functionality
type RedisClient struct {
	client *redis.Client
	config *Config
}

// NewRedisClient creates a new Redis client with the provided configuration
func NewRedisClient(config *Config) (*RedisClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := &redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
	}

	return &RedisClient{
		client: redis.NewClient(opts),
		config: config,
	}, nil
}

// validateConfig validates the Redis configuration parameters
func validateConfig(config *Config) error {
	if config.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	if config.RedisDB < 0 || config.RedisDB > 15 {
		return fmt.Errorf("redis database must be between 0 and 15, got %d", config.RedisDB)
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", config.MaxRetries)
	}

	if config.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %v", config.DialTimeout)
	}

	if config.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", config.ReadTimeout)
	}

	if config.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", config.WriteTimeout)
	}

	if config.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}

	if config.RetryConfig != nil {
		if err := validateRetryConfig(config.RetryConfig); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// validateRetryConfig validates the retry configuration parameters
func validateRetryConfig(config *RetryConfig) error {
	if config.MaxAttempts < 0 {
		return fmt.Errorf("max attempts cannot be negative, got %d", config.MaxAttempts)
	}

	if config.InitialDelay < 0 {
		return fmt.Errorf("initial delay cannot be negative, got %v", config.InitialDelay)
	}

	if config.MaxDelay < 0 {
		return fmt.Errorf("max delay cannot be negative, got %v", config.MaxDelay)
	}

	if config.Multiplier < 1.0 {
		return fmt.Errorf("multiplier must be >= 1.0, got %f", config.Multiplier)
	}

	if config.InitialDelay > config.MaxDelay {
		return fmt.Errorf("initial delay (%v) cannot be greater than max delay (%v)", config.InitialDelay, config.MaxDelay)
	}

	return nil
}

// Health performs a health check on the Redis connection
func (rc *RedisClient) Health(ctx context.Context) error {
	pong, err := rc.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	if pong != "PONG" {
		return fmt.Errorf("unexpected ping response: %s", pong)
	}

	return nil
}

// Client returns the underlying Redis client for direct access
func (rc *RedisClient) Client() *redis.Client {
	return rc.client
}

// Config returns the Redis client configuration
func (rc *RedisClient) Config() *Config {
	return rc.config
}

// Close closes the Redis client connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// isRetryableError determines if an error should trigger a retry
func (rc *RedisClient) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errorStr := err.Error()

	// Connection errors
	if containsFold(errorStr, "connection refused") ||
		containsFold(errorStr, "connection reset") ||
		containsFold(errorStr, "connection timeout") ||
		containsFold(errorStr, "network is unreachable") ||
		containsFold(errorStr, "no route to host") ||
		containsFold(errorStr, "broken pipe") ||
		containsFold(errorStr, "i/o timeout") {
		return true
	}

	// Redis-specific errors that might be retryable
	if containsFold(errorStr, "LOADING") ||
		containsFold(errorStr, "BUSY") ||
		containsFold(errorStr, "TRYAGAIN") {
		return true
	}

	return false
}

// containsFold checks if a string contains a substring (case-insensitive)
func containsFold(s, substr string) bool {
	if len(s) < len(substr) {
		return false
	}
	for i := 0; i <= len(s)-len(substr); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			a, b := s[i+j], substr[j]
			if a != b && lower(a) != lower(b) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

// isOperationRetryable checks if the given operation should be retried
func (rc *RedisClient) isOperationRetryable(operation string) bool {
	if rc.config.RetryConfig == nil {
		return false
	}

	for _, op := range rc.config.RetryConfig.RetryableOps {
		if op == operation {
			return true
		}
	}
	return false
}

// calculateBackoffDelay calculates the delay for the next retry attempt
func (rc *RedisClient) calculateBackoffDelay(attempt int) time.Duration {
	if rc.config.RetryConfig == nil {
		return time.Second
	}

	config := rc.config.RetryConfig

	delay := float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		jitter := rand.Float64() * 0.1 * delay // 10% jitter
		delay += jitter
	}

	return time.Duration(delay)
}

// executeWithRetry executes a function with retry logic
func (rc *RedisClient) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	if !rc.isOperationRetryable(operation) || rc.config.RetryConfig == nil {
		return fn()
	}

	var lastErr error
	maxAttempts := rc.config.RetryConfig.MaxAttempts

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !rc.isRetryableError(err) {
			return err
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := rc.calculateBackoffDelay(attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", operation, maxAttempts, lastErr)
}

// HealthWithRetry performs a health check with retry logic
func (rc *RedisClient) HealthWithRetry(ctx context.Context) error {
	return rc.executeWithRetry(ctx, "ping", func() error {
		return rc.Health(ctx)
	})
}

// SetWithRetry performs a SET operation with retry logic
func (rc *RedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return rc.executeWithRetry(ctx, "set", func() error {
		return rc.client.Set(ctx, key, value, expiration).Err()
	})
}

// GetWithRetry performs a GET operation with retry logic
func (rc *RedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	var result string
	err := rc.executeWithRetry(ctx, "get", func() error {
		val, err := rc.client.Get(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// DelWithRetry performs a DEL operation with retry logic
func (rc *RedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	return rc.executeWithRetry(ctx, "del", func() error {
		return rc.client.Del(ctx, keys...).Err()
	})
}

// SAddWithRetry performs an SADD operation with retry logic
func (rc *RedisClient) SAddWithRetry(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}

	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}

	return rc.executeWithRetry(ctx, "sadd", func() error {
		return rc.client.SAdd(ctx, key, args...).Err()
	})
}

// SMembersWithRetry performs an SMEMBERS operation with retry logic
func (rc *RedisClient) SMembersWithRetry(ctx context.Context, key string) ([]string, error) {
	var result []string
	err := rc.executeWithRetry(ctx, "smembers", func() error {
		val, err := rc.client.SMembers(ctx, key).Result()
		if err != nil {
			return err
		}
		result = val
		return nil
	})
	return result, err
}

// ScanKeysWithRetry enumerates all keys matching the given pattern using
// SCAN. The enumeration is cursor-based and not atomic with concurrent
// writes; callers get a best-effort snapshot.
func (rc *RedisClient) ScanKeysWithRetry(ctx context.Context, match string) ([]string, error) {
	var result []string
	err := rc.executeWithRetry(ctx, "scan", func() error {
		var keys []string
		iter := rc.client.Scan(ctx, 0, match, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		result = keys
		return nil
	})
	return result, err
}

// SugAddWithRetry registers a suggestion string into a RediSearch suggestion
// dictionary via FT.SUGADD. The suggestion commands have no typed wrapper in
// go-redis, so the raw command is issued directly.
func (rc *RedisClient) SugAddWithRetry(ctx context.Context, dict, suggestion string, weight float64) error {
	return rc.executeWithRetry(ctx, "sugadd", func() error {
		return rc.client.Do(ctx, "FT.SUGADD", dict, suggestion, weight).Err()
	})
}

// SugGetWithRetry queries a RediSearch suggestion dictionary via FT.SUGGET,
// optionally with fuzzy matching. Results come back in the backend's rank
// order. An empty dictionary or no matches yields an empty slice.
func (rc *RedisClient) SugGetWithRetry(ctx context.Context, dict, prefix string, fuzzy bool, max int64) ([]string, error) {
	args := []interface{}{"FT.SUGGET", dict, prefix}
	if fuzzy {
		args = append(args, "FUZZY")
	}
	if max > 0 {
		args = append(args, "MAX", max)
	}

	var result []string
	err := rc.executeWithRetry(ctx, "sugget", func() error {
		val, err := rc.client.Do(ctx, args...).StringSlice()
		if err != nil {
			if err == redis.Nil {
				result = nil
				return nil
			}
			return err
		}
		result = val
		return nil
	})
	return result, err
}
