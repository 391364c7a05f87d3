package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/amfikit/go-amfi-nav-cache/internal"
	"github.com/amfikit/go-amfi-nav-cache/models"
)

// suggestionWeight is the score every registered suggestion gets. Ranking is
// left entirely to the autocomplete backend's prefix/fuzzy scoring.
const suggestionWeight = 1.0

// NavCache implements the Cache interface using Redis as the backend.
//
// Persisted layout, all keys prefixed and delimited by ':':
//
//	SCHEME_TYPE:<scheme_type>                          -> set of scheme sub-type names
//	SCHEME_SUB_TYPE:<scheme_type>:<scheme_sub_type>    -> set of fund house names
//	SCHEME_SUB_TYPE_FUND_HOUSE:<sub_type>:<house>      -> set of fund scheme names
//	FUND_HOUSE:<fund_house_name>                       -> set of fund scheme names
//	FUND:<fund_scheme_name>                            -> serialized fund record
type NavCache struct {
	client internal.RedisClientInterface
	keyGen internal.KeyGenerator
	config *internal.Config
}

// NewNavCache creates a new Redis-backed fund cache
func NewNavCache(config *internal.Config) (*NavCache, error) {
	client, err := internal.NewRedisClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return &NavCache{
		client: client,
		keyGen: internal.NewKeyGenerator(),
		config: config,
	}, nil
}

// NewNavCacheWithDependencies creates a new fund cache with injected
// dependencies for testing
func NewNavCacheWithDependencies(client internal.RedisClientInterface, keyGen internal.KeyGenerator, config *internal.Config) *NavCache {
	return &NavCache{
		client: client,
		keyGen: keyGen,
		config: config,
	}
}

// WriteFund serializes and stores a fund record keyed by FUND:<SchemeName>,
// overwriting any existing value, and registers the key as a fund
// suggestion. Concurrent writes for the same name are last-write-wins.
func (nc *NavCache) WriteFund(ctx context.Context, record *models.FundRecord) error {
	if record == nil {
		return internal.NewValidationError("fund record cannot be nil", nil)
	}

	if err := record.Validate(); err != nil {
		return internal.NewValidationError("invalid fund record", err)
	}

	if err := nc.keyGen.ValidateComponent(record.SchemeName); err != nil {
		return err
	}

	key := nc.keyGen.FundKey(record.SchemeName)

	data, err := record.ToJSON()
	if err != nil {
		return internal.NewSerializationError(key, "failed to marshal fund record", err)
	}

	// Records never expire; a rebuild overwrites them wholesale.
	if err := nc.client.SetWithRetry(ctx, key, data, 0); err != nil {
		return nc.mapStoreError(key, "failed to store fund record", err)
	}

	if err := nc.client.SugAddWithRetry(ctx, fundDictKey, key, suggestionWeight); err != nil {
		return nc.mapStoreError(key, "failed to register fund suggestion", err)
	}

	return nil
}

// AddFundHouseUnderSubType unions fund names into the set at
// SCHEME_SUB_TYPE_FUND_HOUSE:<sub_type>:<house> and registers the composite
// key as a suggestion.
func (nc *NavCache) AddFundHouseUnderSubType(ctx context.Context, schemeSubType, houseName string, fundNames []string) error {
	if err := nc.keyGen.ValidateComponent(schemeSubType); err != nil {
		return err
	}
	if err := nc.keyGen.ValidateComponent(houseName); err != nil {
		return err
	}

	key := nc.keyGen.SchemeSubTypeFundHouseKey(schemeSubType, houseName)

	if err := nc.client.SAddWithRetry(ctx, key, fundNames...); err != nil {
		return nc.mapStoreError(key, "failed to add funds under sub-type fund house", err)
	}

	if err := nc.client.SugAddWithRetry(ctx, schemeSubTypeFundHouseDictKey, key, suggestionWeight); err != nil {
		return nc.mapStoreError(key, "failed to register sub-type fund house suggestion", err)
	}

	return nil
}

// AddFundHouse unions fund names into the set at FUND_HOUSE:<house> and
// registers the house key as a suggestion.
func (nc *NavCache) AddFundHouse(ctx context.Context, houseName string, fundNames []string) error {
	if err := nc.keyGen.ValidateComponent(houseName); err != nil {
		return err
	}

	key := nc.keyGen.FundHouseKey(houseName)

	if err := nc.client.SAddWithRetry(ctx, key, fundNames...); err != nil {
		return nc.mapStoreError(key, "failed to add funds to fund house", err)
	}

	if err := nc.client.SugAddWithRetry(ctx, fundHouseDictKey, key, suggestionWeight); err != nil {
		return nc.mapStoreError(key, "failed to register fund house suggestion", err)
	}

	return nil
}

// AddSchemeSubType unions fund house names into the set at
// SCHEME_SUB_TYPE:<type>:<sub_type> and registers the composite key as a
// suggestion.
func (nc *NavCache) AddSchemeSubType(ctx context.Context, schemeType, schemeSubType string, houseNames []string) error {
	if err := nc.keyGen.ValidateComponent(schemeType); err != nil {
		return err
	}
	if err := nc.keyGen.ValidateComponent(schemeSubType); err != nil {
		return err
	}

	key := nc.keyGen.SchemeSubTypeKey(schemeType, schemeSubType)

	if err := nc.client.SAddWithRetry(ctx, key, houseNames...); err != nil {
		return nc.mapStoreError(key, "failed to add fund houses to scheme sub-type", err)
	}

	if err := nc.client.SugAddWithRetry(ctx, schemeSubTypeDictKey, key, suggestionWeight); err != nil {
		return nc.mapStoreError(key, "failed to register scheme sub-type suggestion", err)
	}

	return nil
}

// AddSchemeType unions sub-type names into the set at SCHEME_TYPE:<type>.
// Scheme types have no search namespace, so nothing is registered for
// autocomplete.
func (nc *NavCache) AddSchemeType(ctx context.Context, schemeType string, subTypeNames []string) error {
	if err := nc.keyGen.ValidateComponent(schemeType); err != nil {
		return err
	}

	key := nc.keyGen.SchemeTypeKey(schemeType)

	if err := nc.client.SAddWithRetry(ctx, key, subTypeNames...); err != nil {
		return nc.mapStoreError(key, "failed to add sub-types to scheme type", err)
	}

	return nil
}

// GetFund fetches a fund record by its exact scheme name. Fails with a
// fund-not-found error when no record exists.
func (nc *NavCache) GetFund(ctx context.Context, schemeName string) (*models.FundRecord, error) {
	if err := nc.keyGen.ValidateComponent(schemeName); err != nil {
		return nil, err
	}

	key := nc.keyGen.FundKey(schemeName)

	data, err := nc.client.GetWithRetry(ctx, key)
	if err != nil {
		if err == redis.Nil {
			return nil, internal.NewFundNotFoundError(schemeName)
		}
		return nil, nc.mapStoreError(key, "failed to retrieve fund record", err)
	}

	var record models.FundRecord
	if err := record.FromJSON([]byte(data)); err != nil {
		return nil, internal.NewSerializationError(key, "failed to unmarshal fund record", err)
	}

	return &record, nil
}

// GetFundHouseFunds fetches the global fund-name set of a fund house. Fails
// with a fund-house-not-found error when the set is empty or absent.
func (nc *NavCache) GetFundHouseFunds(ctx context.Context, houseName string) ([]string, error) {
	if err := nc.keyGen.ValidateComponent(houseName); err != nil {
		return nil, err
	}

	key := nc.keyGen.FundHouseKey(houseName)

	members, err := nc.client.SMembersWithRetry(ctx, key)
	if err != nil {
		return nil, nc.mapStoreError(key, "failed to retrieve fund house funds", err)
	}

	if len(members) == 0 {
		return nil, internal.NewFundHouseNotFoundError(houseName)
	}

	return members, nil
}

// ListAllFundKeys enumerates every key in the FUND namespace, strips the
// prefix and returns the scheme names in ascending lexicographic order. The
// underlying SCAN is not atomic with concurrent writes; the listing is a
// best-effort snapshot.
func (nc *NavCache) ListAllFundKeys(ctx context.Context) ([]string, error) {
	pattern := internal.FundPrefix + internal.PrefixDelimiter + "*"

	keys, err := nc.client.ScanKeysWithRetry(ctx, pattern)
	if err != nil {
		return nil, nc.mapStoreError(pattern, "failed to scan fund keys", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name, err := nc.keyGen.StripPrefix(internal.FundPrefix, key)
		if err != nil {
			// A key matched the scan pattern but not the prefix shape.
			// Malformed keys are fatal to that record only.
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// CountFunds returns the cardinality of the FUND namespace
func (nc *NavCache) CountFunds(ctx context.Context) (int, error) {
	pattern := internal.FundPrefix + internal.PrefixDelimiter + "*"

	keys, err := nc.client.ScanKeysWithRetry(ctx, pattern)
	if err != nil {
		return 0, nc.mapStoreError(pattern, "failed to scan fund keys", err)
	}

	return len(keys), nil
}

// Cleanup deletes every key under the given namespace prefix. Rebuilds are
// append-only, so this is the only way stale entries ever leave the cache.
func (nc *NavCache) Cleanup(ctx context.Context, prefix string) error {
	if prefix == "" {
		return internal.NewValidationError("cleanup prefix cannot be empty", nil)
	}

	pattern := prefix + internal.PrefixDelimiter + "*"

	keys, err := nc.client.ScanKeysWithRetry(ctx, pattern)
	if err != nil {
		return nc.mapStoreError(pattern, "failed to scan keys for cleanup", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := nc.client.DelWithRetry(ctx, keys...); err != nil {
		return nc.mapStoreError(pattern, "failed to delete keys during cleanup", err)
	}

	return nil
}

// Health performs a health check on the cache
func (nc *NavCache) Health(ctx context.Context) error {
	return nc.client.HealthWithRetry(ctx)
}

// Close closes the cache connection
func (nc *NavCache) Close() error {
	return nc.client.Close()
}

// mapStoreError converts raw store failures into the typed taxonomy
func (nc *NavCache) mapStoreError(key, message string, err error) error {
	if isTimeoutError(err) {
		return internal.NewTimeoutError(key, message, err)
	}
	if isConnectionError(err) {
		return internal.NewConnectionError(message, err)
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Helper functions to identify error types

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return err == context.DeadlineExceeded ||
		err == context.Canceled ||
		strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errorStr := strings.ToLower(err.Error())
	return strings.Contains(errorStr, "connection refused") ||
		strings.Contains(errorStr, "connection reset") ||
		strings.Contains(errorStr, "network is unreachable") ||
		strings.Contains(errorStr, "no route to host") ||
		strings.Contains(errorStr, "broken pipe")
}
