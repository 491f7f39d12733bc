// Package matcher groups withholding rows by composite key and left-joins
// purchase invoices against the resulting aggregates.
//
// The join works in three stages:
//  1. Index the withholding rows, folding rows that share a key into one
//     aggregate with a summed amount and the distinct descriptors seen
//  2. Left-join every invoice, in input order, against the index
//  3. Report key anomalies: duplicate invoice keys, keys with an empty part
//     and withholding keys no invoice claimed
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//
//	engine := matcher.NewMatchingEngine(config)
//	engine.LoadWithholdings(withholdings)
//
//	result, err := engine.Join(invoices)
package matcher

import (
	"fmt"
	"strings"
)

// MatchType describes whether an invoice found a withholding aggregate
type MatchType int

const (
	// MatchKey means an aggregate with the invoice's composite key exists.
	MatchKey MatchType = iota

	// MatchNone means no withholding row carried the invoice's key. The
	// invoice is still emitted, with zero declared withholding.
	MatchNone
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchKey:
		return "Key"
	case MatchNone:
		return "None"
	default:
		return "Unknown"
	}
}

// MatchingConfig holds the parameters of the join.
type MatchingConfig struct {
	// KeySeparator joins the normalized tax ID and document number
	KeySeparator string `json:"key_separator"`

	// ValueSeparator joins the distinct descriptors of an aggregate
	ValueSeparator string `json:"value_separator"`

	// ReportOrphans lists withholding keys that no invoice claimed
	ReportOrphans bool `json:"report_orphans"`
}

// DefaultMatchingConfig returns a configuration with sensible defaults
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		KeySeparator:   "|",
		ValueSeparator: "|",
		ReportOrphans:  true,
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if mc.KeySeparator == "" {
		return fmt.Errorf("key separator cannot be empty")
	}
	if strings.ContainsAny(mc.KeySeparator, "0123456789") {
		return fmt.Errorf("key separator cannot contain digits: %q", mc.KeySeparator)
	}
	if mc.ValueSeparator == "" {
		return fmt.Errorf("value separator cannot be empty")
	}
	return nil
}

// Clone creates a copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}
	c := *mc
	return &c
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{KeySeparator: %q, ValueSeparator: %q, ReportOrphans: %t}",
		mc.KeySeparator, mc.ValueSeparator, mc.ReportOrphans)
}
