// Package classifier turns the free-text descriptors found in purchase and
// withholding exports into the coded vocabulary of the import template.
//
// It covers three lookups:
//   - document kind and letter from a document-type description
//   - the supplier's VAT status from the letter and tax ID
//   - the withholding regime from a regime/tax descriptor tuple
//
// Every function is pure and safe for concurrent use; the regime table is
// built once at package init and never modified.
package classifier

import (
	"strings"

	"golang-withholding-reconciler/internal/models"
)

// RegimeInput is the descriptor tuple of one withholding aggregate.
type RegimeInput struct {
	Regime            string
	RegimeDescription string
	TaxType           string
	TaxDescription    string
}

// CombinedText upper-cases the four descriptors and joins them with spaces;
// absent values contribute an empty string.
func (in RegimeInput) CombinedText() string {
	return strings.ToUpper(strings.Join([]string{
		in.Regime, in.RegimeDescription, in.TaxType, in.TaxDescription,
	}, " "))
}

// directCode returns the leading segment of the regime token when it is made
// only of digits.
func (in RegimeInput) directCode(separator string) string {
	token := in.Regime
	if i := strings.Index(token, separator); i >= 0 {
		token = token[:i]
	}
	token = strings.TrimSpace(token)
	if !models.IsDigits(token) {
		return ""
	}
	return token
}

type genericMarker struct {
	markers []string
	rule    *RegimeRule
}

var genericMarkers = []genericMarker{
	{markers: []string{"IVA", "VALOR AGREGADO"}, rule: &genericVATRule},
	{markers: []string{"IIBB", "INGRESOS BRUTOS"}, rule: &genericIIBBRule},
	{markers: []string{"GANANCIA"}, rule: &genericGANRule},
}

// ClassifyRegime maps a descriptor tuple onto the regime table. It never
// fails: when nothing matches the catch-all OTROS rule is returned.
//
// Tiers, in order:
//  1. the numeric regime code (segment before the first separator) equals
//     a keyword of some rule
//  2. the rule with the highest keyword score, earliest rule on ties
//  3. generic VAT, gross-receipts or income-tax rule by marker words
//  4. the catch-all rule
func ClassifyRegime(in RegimeInput, separator string) models.RegimeClassification {
	if code := in.directCode(separator); code != "" {
		for i := range regimeRules {
			if regimeRules[i].hasKeyword(code) {
				return classification(&regimeRules[i], models.TierDirectCode, 0)
			}
		}
	}

	text := in.CombinedText()

	var best *RegimeRule
	bestScore := 0
	for i := range regimeRules {
		if score := regimeRules[i].score(text); score > bestScore {
			best = &regimeRules[i]
			bestScore = score
		}
	}
	if best != nil {
		return classification(best, models.TierKeyword, bestScore)
	}

	for _, g := range genericMarkers {
		for _, marker := range g.markers {
			if strings.Contains(text, marker) {
				return classification(g.rule, models.TierGeneric, 0)
			}
		}
	}

	return classification(&fallbackRule, models.TierFallback, 0)
}

func classification(rule *RegimeRule, tier models.ClassificationTier, score int) models.RegimeClassification {
	return models.RegimeClassification{
		RuleID:      rule.ID,
		Code:        rule.Code,
		Article:     rule.Article,
		Description: rule.Description,
		Tier:        tier,
		Score:       score,
	}
}
