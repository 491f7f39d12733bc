package reconciler

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/logger"
)

// TemplateMatch records how a template column got its source field
type TemplateMatch string

const (
	TemplateMatchLabel  TemplateMatch = "label"
	TemplateMatchAlias  TemplateMatch = "alias"
	TemplateMatchFolded TemplateMatch = "folded"
	TemplateMatchManual TemplateMatch = "manual"
	TemplateMatchNone   TemplateMatch = "none"
)

// TemplateInference is the outcome of resolving one template column
type TemplateInference struct {
	Column string        `json:"column"`
	Field  string        `json:"field,omitempty"`
	Match  TemplateMatch `json:"match"`
}

// NeedsReview reports whether the column was left without a source
func (ti TemplateInference) NeedsReview() bool {
	return ti.Match == TemplateMatchNone
}

// InferTemplateMapping assigns a source field to every template column it
// recognizes. Each column is compared, case-insensitively, against the
// catalog labels, then against the aliases and field names, then against
// the labels and aliases with accents and repeated spaces removed. The first
// catalog entry that matches wins. Unrecognized columns stay unmapped.
func InferTemplateMapping(columns []string) (*parsers.TemplateMapping, []TemplateInference) {
	log := logger.GetGlobalLogger().WithComponent("template_inference")

	mapping := parsers.NewTemplateMapping(columns)
	results := make([]TemplateInference, 0, len(columns))

	for _, column := range columns {
		field, match := inferTemplateColumn(column)
		result := TemplateInference{Column: column, Field: field, Match: match}
		results = append(results, result)

		if match == TemplateMatchNone {
			log.WithField("column", column).Warn("Template column not recognized, left empty for review")
			continue
		}
		mapping.Sources[column] = field
		log.WithFields(logger.Fields{
			"column": column,
			"field":  field,
			"match":  match,
		}).Debug("Template column resolved")
	}

	return mapping, results
}

func inferTemplateColumn(column string) (string, TemplateMatch) {
	name := strings.TrimSpace(column)
	if name == "" {
		return "", TemplateMatchNone
	}

	for _, s := range parsers.TemplateSources {
		if strings.EqualFold(s.Label, name) {
			return s.Field, TemplateMatchLabel
		}
	}
	for _, s := range parsers.TemplateSources {
		if strings.EqualFold(s.Alias, name) || strings.EqualFold(s.Field, name) {
			return s.Field, TemplateMatchAlias
		}
	}

	folded := foldHeader(name)
	for _, s := range parsers.TemplateSources {
		if foldHeader(s.Label) == folded || foldHeader(s.Alias) == folded {
			return s.Field, TemplateMatchFolded
		}
	}

	return "", TemplateMatchNone
}

// foldHeader lower-cases a header, strips combining accents and collapses
// whitespace, so "Cotizacion" and "COTIZACIÓN " compare equal.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// ApplyTemplateOverrides applies manual column selections on top of the
// inferred template mapping. Overrides naming a column the template does not
// have are configuration errors.
func ApplyTemplateOverrides(mapping *parsers.TemplateMapping, results []TemplateInference, overrides map[string]string) ([]TemplateInference, error) {
	for _, column := range sortedColumns(overrides) {
		source := overrides[column]
		if err := mapping.Set(column, source); err != nil {
			return results, err
		}
		field, _ := mapping.Source(column)
		for i := range results {
			if results[i].Column != column {
				continue
			}
			results[i].Field = field
			if field == "" {
				results[i].Match = TemplateMatchNone
			} else {
				results[i].Match = TemplateMatchManual
			}
		}
	}
	return results, nil
}

func sortedColumns(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
