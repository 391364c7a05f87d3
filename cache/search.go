package cache

import (
	"context"
	"fmt"

	"github.com/amfikit/go-amfi-nav-cache/internal"
)

// Fuzzy matching is always enabled; the original index exposes no
// exact-only mode.
const fuzzySearch = true

// defaultMaxResults caps how many suggestions one query returns
const defaultMaxResults = 10

// SearchClient implements the Searcher interface over the four RediSearch
// suggestion dictionaries. Suggestions are stored as full namespaced keys;
// every hit is transformed back to domain identifiers before it is
// returned.
type SearchClient struct {
	client internal.RedisClientInterface
	keyGen internal.KeyGenerator
	max    int64
}

// NewSearchClient creates a new search client
func NewSearchClient(config *internal.Config) (*SearchClient, error) {
	client, err := internal.NewRedisClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return &SearchClient{
		client: client,
		keyGen: internal.NewKeyGenerator(),
		max:    defaultMaxResults,
	}, nil
}

// NewSearchClientWithDependencies creates a new search client with injected
// dependencies for testing
func NewSearchClientWithDependencies(client internal.RedisClientInterface, keyGen internal.KeyGenerator) *SearchClient {
	return &SearchClient{
		client: client,
		keyGen: keyGen,
		max:    defaultMaxResults,
	}
}

// Search queries one namespace's suggestion dictionary with fuzzy matching
// and returns domain identifiers in the backend's rank order. An unknown
// namespace fails with an invalid-query-type error; an empty query or no
// matches yields an empty result list.
func (sc *SearchClient) Search(ctx context.Context, ns Namespace, query string) ([]SearchResult, error) {
	if !ns.valid() {
		return nil, internal.NewInvalidQueryTypeError(ns.String())
	}

	// Suggestions were registered with their namespace prefix, so the
	// query carries the same prefix to match against them.
	prefixedQuery := internal.MakeKey(ns.Prefix(), query)

	hits, err := sc.client.SugGetWithRetry(ctx, ns.DictKey(), prefixedQuery, fuzzySearch, sc.max)
	if err != nil {
		return nil, sc.mapStoreError(ns.DictKey(), "suggestion query failed", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		result, err := ns.transformKey(sc.keyGen, hit)
		if err != nil {
			// A malformed suggestion is fatal to that hit, not to the
			// whole query.
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

// SearchByQueryType is Search with a raw query-type string, for callers at
// the protocol boundary.
func (sc *SearchClient) SearchByQueryType(ctx context.Context, queryType, query string) ([]SearchResult, error) {
	ns, err := ParseNamespace(queryType)
	if err != nil {
		return nil, err
	}
	return sc.Search(ctx, ns, query)
}

// Health performs a health check on the search client's connection
func (sc *SearchClient) Health(ctx context.Context) error {
	return sc.client.HealthWithRetry(ctx)
}

// Close closes the search client's connection
func (sc *SearchClient) Close() error {
	return sc.client.Close()
}

// mapStoreError converts raw store failures into the typed taxonomy
func (sc *SearchClient) mapStoreError(key, message string, err error) error {
	if isTimeoutError(err) {
		return internal.NewTimeoutError(key, message, err)
	}
	if isConnectionError(err) {
		return internal.NewConnectionError(message, err)
	}
	return fmt.Errorf("%s: %w", message, err)
}
