// Package models defines the fund data entities cached in Redis and the
// snapshot shape produced by the upstream AMFI data source.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FundRecord is the canonical record for a single mutual-fund scheme.
// SchemeName is the primary key within the FUND namespace; it must not
// contain the reserved key delimiter. SchemeType, SchemeSubType and
// SchemeFundHouse are denormalized copies of the containing hierarchy
// identifiers, stamped in at rebuild time.
type FundRecord struct {
	SchemeCode          string `json:"SchemeCode"`
	SchemeName          string `json:"SchemeName"`
	ISINDivPayoutGrowth string `json:"ISINDivPayoutGrowth"`
	ISINDivReinvestment string `json:"ISINDivReinvestment"`
	NAV                 string `json:"NAV"`
	Date                string `json:"Date"`
	SchemeType          string `json:"SchemeType,omitempty"`
	SchemeSubType       string `json:"SchemeSubType,omitempty"`
	SchemeFundHouse     string `json:"SchemeFundHouse,omitempty"`
}

// Validate validates the FundRecord data integrity
func (f *FundRecord) Validate() error {
	if f.SchemeName == "" {
		return fmt.Errorf("scheme name cannot be empty")
	}

	// The scheme name becomes part of a delimited cache key; a delimiter
	// inside it would corrupt key parsing for this record.
	if strings.Contains(f.SchemeName, ":") {
		return fmt.Errorf("scheme name contains reserved delimiter ':': %s", f.SchemeName)
	}

	if f.SchemeCode == "" {
		return fmt.Errorf("scheme code cannot be empty")
	}

	if f.NAV == "" {
		return fmt.Errorf("NAV cannot be empty")
	}

	return nil
}

// ToJSON serializes the FundRecord to its flat JSON storage form
func (f *FundRecord) ToJSON() ([]byte, error) {
	return json.Marshal(f)
}

// FromJSON deserializes JSON data into a FundRecord
func (f *FundRecord) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("failed to unmarshal fund record: %w", err)
	}

	if err := f.Validate(); err != nil {
		return fmt.Errorf("validation failed after unmarshaling: %w", err)
	}

	return nil
}

// Snapshot is the nested mapping yielded by the upstream fund-data producer:
// scheme type -> scheme sub-type -> fund house -> fund records. A rebuild
// walks one Snapshot in full.
type Snapshot map[string]map[string]map[string][]FundRecord

// FundCount returns the total number of fund records in the snapshot
func (s Snapshot) FundCount() int {
	total := 0
	for _, subTypes := range s {
		for _, houses := range subTypes {
			for _, funds := range houses {
				total += len(funds)
			}
		}
	}
	return total
}

// FromJSON deserializes JSON data into a Snapshot
func (s *Snapshot) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return nil
}
