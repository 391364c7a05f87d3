package cache

import (
	"context"
	"strings"
	"time"

	"github.com/amfikit/go-amfi-nav-cache/internal"
	"github.com/amfikit/go-amfi-nav-cache/models"
)

// Cache defines the interface for the fund hierarchy cache. Write
// operations are commutative: fund writes are last-write-wins per key and
// the add operations are set unions that never remove existing members.
// The hierarchy is only guaranteed consistent once all operations issued by
// one rebuild have completed.
type Cache interface {
	// WriteFund serializes and stores a fund record keyed by its scheme
	// name, overwriting any existing value.
	WriteFund(ctx context.Context, record *models.FundRecord) error

	// AddFundHouseUnderSubType unions fund names into the set of funds a
	// house owns within one scheme sub-type, and registers the composite
	// key as an autocomplete suggestion.
	AddFundHouseUnderSubType(ctx context.Context, schemeSubType, houseName string, fundNames []string) error

	// AddFundHouse unions fund names into a house's global fund set and
	// registers the house key as an autocomplete suggestion.
	AddFundHouse(ctx context.Context, houseName string, fundNames []string) error

	// AddSchemeSubType unions fund house names into a sub-type's house set
	// and registers the composite key as an autocomplete suggestion.
	AddSchemeSubType(ctx context.Context, schemeType, schemeSubType string, houseNames []string) error

	// AddSchemeType unions sub-type names into a scheme type's set. Scheme
	// types have no search namespace, so no suggestion is registered.
	AddSchemeType(ctx context.Context, schemeType string, subTypeNames []string) error

	// GetFund fetches a fund record by its exact scheme name.
	GetFund(ctx context.Context, schemeName string) (*models.FundRecord, error)

	// GetFundHouseFunds fetches the global fund-name set of a fund house.
	GetFundHouseFunds(ctx context.Context, houseName string) ([]string, error)

	// ListAllFundKeys enumerates every scheme name in the FUND namespace in
	// ascending lexicographic order.
	ListAllFundKeys(ctx context.Context) ([]string, error)

	// CountFunds returns the cardinality of the FUND namespace.
	CountFunds(ctx context.Context) (int, error)

	// Cleanup deletes every key under the given namespace prefix. It is the
	// explicit purge path; rebuilds themselves are append-only.
	Cleanup(ctx context.Context, prefix string) error

	Health(ctx context.Context) error
	Close() error
}

// Searcher defines the interface for autocomplete search over the four
// suggestion namespaces.
type Searcher interface {
	Search(ctx context.Context, ns Namespace, query string) ([]SearchResult, error)
}

// Namespace identifies one of the four independent autocomplete namespaces.
// Each case carries its own key prefix, suggestion dictionary and key
// transform, resolved by exhaustive switch.
type Namespace int

const (
	// NamespaceFund indexes fund scheme names
	NamespaceFund Namespace = iota
	// NamespaceFundHouse indexes fund house names
	NamespaceFundHouse
	// NamespaceSchemeSubType indexes (scheme type, scheme sub-type) pairs
	NamespaceSchemeSubType
	// NamespaceSchemeSubTypeFundHouse indexes (scheme sub-type, fund house) pairs
	NamespaceSchemeSubTypeFundHouse
)

// Suggestion dictionary keys, one per namespace.
const (
	fundDictKey                   = "fund_ac"
	fundHouseDictKey              = "fund_house_ac"
	schemeSubTypeDictKey          = "scheme_sub_type_ac"
	schemeSubTypeFundHouseDictKey = "scheme_sub_type_fund_house_ac"
)

// ParseNamespace resolves a query-type string to its Namespace. Unknown
// strings, including the empty string, fail with an invalid-query-type
// error.
func ParseNamespace(queryType string) (Namespace, error) {
	switch queryType {
	case "fund":
		return NamespaceFund, nil
	case "fund_house":
		return NamespaceFundHouse, nil
	case "scheme_sub_type":
		return NamespaceSchemeSubType, nil
	case "scheme_sub_type_fund_house":
		return NamespaceSchemeSubTypeFundHouse, nil
	default:
		return 0, internal.NewInvalidQueryTypeError(queryType)
	}
}

// String returns the query-type string for the namespace
func (ns Namespace) String() string {
	switch ns {
	case NamespaceFund:
		return "fund"
	case NamespaceFundHouse:
		return "fund_house"
	case NamespaceSchemeSubType:
		return "scheme_sub_type"
	case NamespaceSchemeSubTypeFundHouse:
		return "scheme_sub_type_fund_house"
	default:
		return "unknown"
	}
}

// Prefix returns the storage key prefix for the namespace
func (ns Namespace) Prefix() string {
	switch ns {
	case NamespaceFund:
		return internal.FundPrefix
	case NamespaceFundHouse:
		return internal.FundHousePrefix
	case NamespaceSchemeSubType:
		return internal.SchemeSubTypePrefix
	case NamespaceSchemeSubTypeFundHouse:
		return internal.SchemeSubTypeFundHousePrefix
	default:
		return ""
	}
}

// DictKey returns the suggestion dictionary key for the namespace
func (ns Namespace) DictKey() string {
	switch ns {
	case NamespaceFund:
		return fundDictKey
	case NamespaceFundHouse:
		return fundHouseDictKey
	case NamespaceSchemeSubType:
		return schemeSubTypeDictKey
	case NamespaceSchemeSubTypeFundHouse:
		return schemeSubTypeFundHouseDictKey
	default:
		return ""
	}
}

// composite reports whether the namespace's identifiers are two-part
// composites that must be split on the delimiter after the prefix strip.
func (ns Namespace) composite() bool {
	switch ns {
	case NamespaceSchemeSubType, NamespaceSchemeSubTypeFundHouse:
		return true
	default:
		return false
	}
}

// valid reports whether ns is one of the four registered namespaces
func (ns Namespace) valid() bool {
	switch ns {
	case NamespaceFund, NamespaceFundHouse, NamespaceSchemeSubType, NamespaceSchemeSubTypeFundHouse:
		return true
	default:
		return false
	}
}

// SearchResult is one autocomplete hit mapped back to domain identifiers.
// Key is the suggestion with the namespace prefix stripped. For composite
// namespaces Parts holds the two delimiter-split components, in the
// namespace's storage order; for plain namespaces Parts is nil.
type SearchResult struct {
	Key   string   `json:"key"`
	Parts []string `json:"parts,omitempty"`
}

// transformKey applies a namespace's key transform to one raw suggestion,
// producing a domain-level result. Fails with a malformed-key error when
// the suggestion does not carry the namespace prefix or a composite
// remainder does not split into exactly two parts.
func (ns Namespace) transformKey(kg internal.KeyGenerator, rawKey string) (SearchResult, error) {
	remainder, err := kg.StripPrefix(ns.Prefix(), rawKey)
	if err != nil {
		return SearchResult{}, err
	}

	if !ns.composite() {
		return SearchResult{Key: remainder}, nil
	}

	parts := strings.SplitN(remainder, internal.PrefixDelimiter, 2)
	if len(parts) != 2 {
		return SearchResult{}, internal.NewMalformedKeyError(rawKey, "composite key remainder is missing its second component")
	}

	return SearchResult{Key: remainder, Parts: parts}, nil
}

// RebuildState tracks the rebuild orchestrator's lifecycle
type RebuildState int

const (
	// RebuildIdle means no rebuild has run or the last one finished and
	// its status has been consumed
	RebuildIdle RebuildState = iota
	// RebuildRunning means a rebuild batch is in flight
	RebuildRunning
	// RebuildCompleted means the last rebuild finished with every
	// operation succeeding
	RebuildCompleted
	// RebuildFailed means the last rebuild aborted, leaving the cache in a
	// mixed old/new state until the next successful rebuild
	RebuildFailed
)

// String returns the string representation of RebuildState
func (s RebuildState) String() string {
	switch s {
	case RebuildIdle:
		return "idle"
	case RebuildRunning:
		return "running"
	case RebuildCompleted:
		return "completed"
	case RebuildFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RebuildStatus reports the outcome of the most recent rebuild
type RebuildStatus struct {
	State          RebuildState  `json:"state"`
	FundsWritten   int           `json:"funds_written"`
	SkippedRecords int           `json:"skipped_records"`
	Duration       time.Duration `json:"duration"`
	LastError      string        `json:"last_error,omitempty"`
}
