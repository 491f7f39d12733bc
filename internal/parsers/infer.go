package parsers

import (
	"strings"

	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/pkg/logger"
)

// InferenceStatus describes how a logical field was resolved
type InferenceStatus string

const (
	StatusExact     InferenceStatus = "exact"
	StatusFuzzy     InferenceStatus = "fuzzy"
	StatusAmbiguous InferenceStatus = "ambiguous"
	StatusMissing   InferenceStatus = "missing"
	StatusManual    InferenceStatus = "manual"
)

// Resolved reports whether the status carries a usable column
func (s InferenceStatus) Resolved() bool {
	return s == StatusExact || s == StatusFuzzy || s == StatusManual
}

// InferenceResult is the outcome of resolving one logical field
type InferenceResult struct {
	Field      string          `json:"field"`
	Column     string          `json:"column,omitempty"`
	Status     InferenceStatus `json:"status"`
	Candidates []string        `json:"candidates,omitempty"`
	Optional   bool            `json:"optional,omitempty"`
}

// InferColumn picks the header that corresponds to a logical field.
//
// A case-insensitive exact match of any variant wins immediately, variants
// taking priority in their listed order. Otherwise, unless strict, a header
// is a candidate when it contains every word of a variant, contains the
// variant, or is contained in it. Exactly one distinct candidate resolves
// the field; more than one is ambiguous.
func InferColumn(headers []string, variants []string, strict bool) InferenceResult {
	for _, v := range variants {
		if strings.TrimSpace(v) == "" {
			continue
		}
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(v)) {
				return InferenceResult{Column: strings.TrimSpace(h), Status: StatusExact}
			}
		}
	}

	if strict {
		return InferenceResult{Status: StatusMissing}
	}

	var candidates []string
	seen := make(map[string]bool)
	for _, v := range variants {
		variant := strings.ToLower(strings.TrimSpace(v))
		if variant == "" {
			continue
		}
		words := strings.Fields(variant)
		for _, h := range headers {
			header := strings.TrimSpace(h)
			lower := strings.ToLower(header)
			if lower == "" || seen[header] {
				continue
			}
			if containsAllWords(lower, words) || strings.Contains(lower, variant) || strings.Contains(variant, lower) {
				seen[header] = true
				candidates = append(candidates, header)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return InferenceResult{Status: StatusMissing}
	case 1:
		return InferenceResult{Column: candidates[0], Status: StatusFuzzy}
	default:
		return InferenceResult{Status: StatusAmbiguous, Candidates: candidates}
	}
}

func containsAllWords(text string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// InferMapping runs InferColumn for every field of the schema against the
// table headers. Unresolved fields are left unmapped in the returned mapping.
func InferMapping(table *models.Table, schema TableSchema, strict bool) (*ColumnMapping, []InferenceResult) {
	log := logger.GetGlobalLogger().WithComponent("column_inference").WithField("table", schema.Table)

	mapping := NewColumnMapping(schema.Table)
	results := make([]InferenceResult, 0, len(schema.Fields))

	for _, field := range schema.Fields {
		result := InferColumn(table.Headers, field.Variants, strict)
		result.Field = field.Name
		result.Optional = field.Optional
		results = append(results, result)

		entry := log.WithFields(logger.Fields{
			"field":  field.Name,
			"status": result.Status,
		})
		switch {
		case result.Status.Resolved():
			mapping.Set(field.Name, result.Column)
			entry.WithField("column", result.Column).Info("Column resolved")
		case result.Status == StatusAmbiguous:
			entry.WithField("candidates", result.Candidates).Warn("Several columns match, manual selection required")
		case field.Optional:
			entry.Debug("Optional column not found")
		default:
			entry.Warn("Column not found, manual selection required")
		}
	}

	return mapping, results
}

// ApplyOverrides applies manual selections on top of an inferred mapping and
// marks the affected results as manual. An empty column unmaps the field.
func ApplyOverrides(mapping *ColumnMapping, results []InferenceResult, overrides map[string]string) []InferenceResult {
	for field, column := range overrides {
		mapping.Set(field, column)
		for i := range results {
			if results[i].Field != field {
				continue
			}
			if strings.TrimSpace(column) == "" {
				results[i].Column = ""
				results[i].Status = StatusMissing
			} else {
				results[i].Column = strings.TrimSpace(column)
				results[i].Status = StatusManual
			}
			results[i].Candidates = nil
		}
	}
	return results
}
