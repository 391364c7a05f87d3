// Package amfinavcache provides a Redis-based cache and autocomplete search
// layer for Indian mutual-fund (AMFI) NAV data.
//
// The module maintains a denormalized, queryable cache of fund metadata
// partitioned into a four-level hierarchy (scheme type, scheme sub-type,
// fund house, fund) and exposes fuzzy prefix search over four independent
// namespaces of that cache.
//
// # Architecture
//
// All persisted keys are namespaced with a prefix and the ':' delimiter:
//
//	SCHEME_TYPE:<scheme_type>                       -> set of scheme sub-type names
//	SCHEME_SUB_TYPE:<scheme_type>:<scheme_sub_type> -> set of fund house names
//	SCHEME_SUB_TYPE_FUND_HOUSE:<sub_type>:<house>   -> set of fund scheme names
//	FUND_HOUSE:<fund_house_name>                    -> set of fund scheme names
//	FUND:<fund_scheme_name>                         -> serialized fund record
//
// Four RediSearch suggestion dictionaries (fund, fund house, scheme
// sub-type, scheme-sub-type-under-fund-house) back autocomplete; each
// stores full namespaced keys, and every search hit is transformed back to
// domain identifiers before it is returned.
//
// # Components
//
//   - cache.NavCache: the hierarchy cache (write, point and range reads)
//   - cache.SearchClient: fuzzy autocomplete over the four namespaces
//   - cache.Rebuilder: full cache rebuilds from a snapshot source, fanned
//     out as one concurrently-awaited batch
//   - server.Server: the HTTP API (search, paginated listing, lookups,
//     rebuild trigger, health, metrics)
//
// # Basic Usage
//
// Create a cache with configuration from the environment (REDIS_HOST,
// REDIS_PORT, REDIS_DB):
//
//	config, err := cache.RedisConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	navCache, err := cache.NewNavCache(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer navCache.Close()
//
//	record, err := navCache.GetFund(ctx, "ABC Equity Fund - Growth")
//
// Search a namespace:
//
//	search, err := cache.NewSearchClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer search.Close()
//
//	results, err := search.Search(ctx, cache.NamespaceFundHouse, "ABC")
//
// Rebuild the whole cache from a snapshot source:
//
//	rebuilder := cache.NewRebuilder(navCache, logger)
//	status, err := rebuilder.Rebuild(ctx, source)
//
// Rebuilds are append-only: they union and overwrite but never delete, so
// funds absent from a new snapshot stay queryable until an operator runs
// NavCache.Cleanup for each namespace and rebuilds.
//
// # Error Handling
//
// All failures are typed. Expected client errors (fund or fund house not
// found, invalid query type) and operational errors (rebuild in progress,
// connection failures, malformed keys) are distinguishable with the
// cache.Is*Error helpers so boundary layers can map them to protocol
// responses.
package amfinavcache
