package internal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key prefixes for the five namespaces persisted in Redis. Every stored key
// is of the form <prefix><delimiter><identifier...>.
const (
	FundPrefix                   = "FUND"
	FundHousePrefix              = "FUND_HOUSE"
	SchemeTypePrefix             = "SCHEME_TYPE"
	SchemeSubTypePrefix          = "SCHEME_SUB_TYPE"
	SchemeSubTypeFundHousePrefix = "SCHEME_SUB_TYPE_FUND_HOUSE"
)

// PrefixDelimiter separates the namespace prefix from identifier components
// and identifier components from each other in composite keys. It is a
// reserved character: no identifier may contain it.
const PrefixDelimiter = ":"

// KeyGenerator defines the interface for building and parsing namespaced
// cache keys. It is the single source of truth for key shape.
type KeyGenerator interface {
	FundKey(schemeName string) string
	FundHouseKey(houseName string) string
	SchemeTypeKey(schemeType string) string
	SchemeSubTypeKey(schemeType, schemeSubType string) string
	SchemeSubTypeFundHouseKey(schemeSubType, houseName string) string
	StripPrefix(prefix, key string) (string, error)
	ValidateComponent(component string) error
}

// DefaultKeyGenerator implements the KeyGenerator interface
type DefaultKeyGenerator struct{}

// NewKeyGenerator creates a new DefaultKeyGenerator instance
func NewKeyGenerator() KeyGenerator {
	return &DefaultKeyGenerator{}
}

// MakeKey joins a namespace prefix and identifier components with the
// reserved delimiter, in order.
func MakeKey(prefix string, parts ...string) string {
	return prefix + PrefixDelimiter + strings.Join(parts, PrefixDelimiter)
}

// FundKey generates the key for a fund record.
// Format: FUND:<scheme_name>
func (kg *DefaultKeyGenerator) FundKey(schemeName string) string {
	return MakeKey(FundPrefix, schemeName)
}

// FundHouseKey generates the key for a fund house's global fund-name set.
// Format: FUND_HOUSE:<fund_house_name>
func (kg *DefaultKeyGenerator) FundHouseKey(houseName string) string {
	return MakeKey(FundHousePrefix, houseName)
}

// SchemeTypeKey generates the key for a scheme type's sub-type set.
// Format: SCHEME_TYPE:<scheme_type>
func (kg *DefaultKeyGenerator) SchemeTypeKey(schemeType string) string {
	return MakeKey(SchemeTypePrefix, schemeType)
}

// SchemeSubTypeKey generates the key for a scheme sub-type's fund-house set.
// Sub-type names are not globally unique, so the key carries the owning
// scheme type as well.
// Format: SCHEME_SUB_TYPE:<scheme_type>:<scheme_sub_type>
func (kg *DefaultKeyGenerator) SchemeSubTypeKey(schemeType, schemeSubType string) string {
	return MakeKey(SchemeSubTypePrefix, schemeType, schemeSubType)
}

// SchemeSubTypeFundHouseKey generates the key for the fund-name set of one
// fund house scoped to one scheme sub-type.
// Format: SCHEME_SUB_TYPE_FUND_HOUSE:<scheme_sub_type>:<fund_house_name>
func (kg *DefaultKeyGenerator) SchemeSubTypeFundHouseKey(schemeSubType, houseName string) string {
	return MakeKey(SchemeSubTypeFundHousePrefix, schemeSubType, houseName)
}

// StripPrefix removes prefix+delimiter from key and returns the remainder
// unsplit. Callers owning a composite namespace split the remainder on the
// delimiter themselves, in namespace-specific order.
func (kg *DefaultKeyGenerator) StripPrefix(prefix, key string) (string, error) {
	head := prefix + PrefixDelimiter
	if !strings.HasPrefix(key, head) {
		return "", NewMalformedKeyError(key, fmt.Sprintf("key does not start with prefix %q", head))
	}
	return strings.TrimPrefix(key, head), nil
}

// ValidateComponent validates a single identifier component before it is
// embedded in a key. A component containing the delimiter would make the
// resulting key ambiguous to parse, so it is rejected outright.
func (kg *DefaultKeyGenerator) ValidateComponent(component string) error {
	if component == "" {
		return NewValidationError("identifier component cannot be empty", nil)
	}

	if !utf8.ValidString(component) {
		return NewValidationError(fmt.Sprintf("identifier %q contains invalid UTF-8", component), nil)
	}

	if strings.Contains(component, PrefixDelimiter) {
		return NewMalformedKeyError(component,
			fmt.Sprintf("identifier contains reserved delimiter %q", PrefixDelimiter))
	}

	for i, r := range component {
		if unicode.IsControl(r) {
			return NewValidationError(fmt.Sprintf("identifier contains control character at position %d", i), nil)
		}
	}

	// Redis keys are binary safe up to 512MB but keys that long are always
	// a caller bug.
	if len(component) > 250 {
		return NewValidationError("identifier exceeds maximum length of 250 characters", nil)
	}

	return nil
}
