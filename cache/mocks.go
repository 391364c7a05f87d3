package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/amfikit/go-amfi-nav-cache/internal"
)

// MockRedisClient is a mock implementation of the RedisClientInterface for testing
type MockRedisClient struct {
	mock.Mock
}

// NewMockRedisClient creates a new mock Redis client
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{}
}

// Health mocks the Health method
func (m *MockRedisClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// HealthWithRetry mocks the HealthWithRetry method
func (m *MockRedisClient) HealthWithRetry(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// SetWithRetry mocks the SetWithRetry method
func (m *MockRedisClient) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

// GetWithRetry mocks the GetWithRetry method
func (m *MockRedisClient) GetWithRetry(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// DelWithRetry mocks the DelWithRetry method
func (m *MockRedisClient) DelWithRetry(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// SAddWithRetry mocks the SAddWithRetry method
func (m *MockRedisClient) SAddWithRetry(ctx context.Context, key string, members ...string) error {
	args := m.Called(ctx, key, members)
	return args.Error(0)
}

// SMembersWithRetry mocks the SMembersWithRetry method
func (m *MockRedisClient) SMembersWithRetry(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ScanKeysWithRetry mocks the ScanKeysWithRetry method
func (m *MockRedisClient) ScanKeysWithRetry(ctx context.Context, match string) ([]string, error) {
	args := m.Called(ctx, match)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// SugAddWithRetry mocks the SugAddWithRetry method
func (m *MockRedisClient) SugAddWithRetry(ctx context.Context, dict, suggestion string, weight float64) error {
	args := m.Called(ctx, dict, suggestion, weight)
	return args.Error(0)
}

// SugGetWithRetry mocks the SugGetWithRetry method
func (m *MockRedisClient) SugGetWithRetry(ctx context.Context, dict, prefix string, fuzzy bool, max int64) ([]string, error) {
	args := m.Called(ctx, dict, prefix, fuzzy, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Client mocks the Client method
func (m *MockRedisClient) Client() *redis.Client {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*redis.Client)
}

// Config mocks the Config method
func (m *MockRedisClient) Config() *internal.Config {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*internal.Config)
}

// Close mocks the Close method
func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockKeyGenerator is a mock implementation of the KeyGenerator interface for testing
type MockKeyGenerator struct {
	mock.Mock
}

// NewMockKeyGenerator creates a new mock key generator
func NewMockKeyGenerator() *MockKeyGenerator {
	return &MockKeyGenerator{}
}

// FundKey mocks the FundKey method
func (m *MockKeyGenerator) FundKey(schemeName string) string {
	args := m.Called(schemeName)
	return args.String(0)
}

// FundHouseKey mocks the FundHouseKey method
func (m *MockKeyGenerator) FundHouseKey(houseName string) string {
	args := m.Called(houseName)
	return args.String(0)
}

// SchemeTypeKey mocks the SchemeTypeKey method
func (m *MockKeyGenerator) SchemeTypeKey(schemeType string) string {
	args := m.Called(schemeType)
	return args.String(0)
}

// SchemeSubTypeKey mocks the SchemeSubTypeKey method
func (m *MockKeyGenerator) SchemeSubTypeKey(schemeType, schemeSubType string) string {
	args := m.Called(schemeType, schemeSubType)
	return args.String(0)
}

// SchemeSubTypeFundHouseKey mocks the SchemeSubTypeFundHouseKey method
func (m *MockKeyGenerator) SchemeSubTypeFundHouseKey(schemeSubType, houseName string) string {
	args := m.Called(schemeSubType, houseName)
	return args.String(0)
}

// StripPrefix mocks the StripPrefix method
func (m *MockKeyGenerator) StripPrefix(prefix, key string) (string, error) {
	args := m.Called(prefix, key)
	return args.String(0), args.Error(1)
}

// ValidateComponent mocks the ValidateComponent method
func (m *MockKeyGenerator) ValidateComponent(component string) error {
	args := m.Called(component)
	return args.Error(0)
}
