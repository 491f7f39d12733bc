package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/models"
)

// MatchingEngine left-joins invoices against indexed withholding aggregates
type MatchingEngine struct {
	Config           *MatchingConfig
	WithholdingIndex *WithholdingIndex
}

// MatchResult is one invoice with the aggregate carrying its key, if any.
// Several invoices sharing a key point at the same aggregate.
type MatchResult struct {
	Invoice     models.InvoiceRecord
	Withholding *models.WithholdingAggregate
	MatchType   MatchType
}

// JoinResult represents the complete result of the join
type JoinResult struct {
	Matches   []MatchResult
	Anomalies []KeyAnomaly
	Summary   JoinSummary
}

// JoinSummary provides aggregate statistics about the join
type JoinSummary struct {
	TotalInvoices        int             `json:"total_invoices"`
	TotalWithholdingRows int             `json:"total_withholding_rows"`
	AggregateKeys        int             `json:"aggregate_keys"`
	MatchedInvoices      int             `json:"matched_invoices"`
	UnmatchedInvoices    int             `json:"unmatched_invoices"`
	MatchedKeys          int             `json:"matched_keys"`
	OrphanKeys           int             `json:"orphan_keys"`
	TotalAmountMatched   decimal.Decimal `json:"total_amount_matched"`
	TotalAmountOrphaned  decimal.Decimal `json:"total_amount_orphaned"`
}

// NewMatchingEngine creates a new matching engine with the specified configuration
func NewMatchingEngine(config *MatchingConfig) *MatchingEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &MatchingEngine{
		Config: config,
	}
}

// LoadWithholdings loads withholding rows into the engine and builds the index
func (me *MatchingEngine) LoadWithholdings(records []models.WithholdingRecord) {
	me.WithholdingIndex = NewWithholdingIndex(records, me.Config.ValueSeparator)
}

// Join emits one MatchResult per invoice, in input order. Invoices without
// an aggregate are kept with a nil Withholding.
func (me *MatchingEngine) Join(invoices []models.InvoiceRecord) (*JoinResult, error) {
	if me.WithholdingIndex == nil {
		return nil, fmt.Errorf("withholdings must be loaded before joining")
	}

	matches := make([]MatchResult, 0, len(invoices))
	for _, inv := range invoices {
		result := MatchResult{Invoice: inv, MatchType: MatchNone}
		if agg, ok := me.WithholdingIndex.GetByKey(inv.Key); ok {
			result.Withholding = agg
			result.MatchType = MatchKey
		}
		matches = append(matches, result)
	}

	handler := NewEdgeCaseHandler(me.Config)
	var anomalies []KeyAnomaly
	anomalies = append(anomalies, handler.DetectDuplicates(invoices)...)
	anomalies = append(anomalies, handler.DetectEmptyKeyParts(invoices)...)
	var orphans []KeyAnomaly
	if me.Config.ReportOrphans {
		orphans = handler.DetectOrphans(me.WithholdingIndex, invoices)
		anomalies = append(anomalies, orphans...)
	}

	return &JoinResult{
		Matches:   matches,
		Anomalies: anomalies,
		Summary:   me.calculateSummary(matches, invoices),
	}, nil
}

// calculateSummary calculates summary statistics for the join result
func (me *MatchingEngine) calculateSummary(matches []MatchResult, invoices []models.InvoiceRecord) JoinSummary {
	stats := me.WithholdingIndex.GetIndexStats()
	summary := JoinSummary{
		TotalInvoices:        len(invoices),
		TotalWithholdingRows: stats.TotalRows,
		AggregateKeys:        stats.UniqueKeys,
		TotalAmountMatched:   decimal.Zero,
		TotalAmountOrphaned:  decimal.Zero,
	}

	claimed := make(map[string]bool)
	for _, m := range matches {
		if m.Withholding == nil {
			summary.UnmatchedInvoices++
			continue
		}
		summary.MatchedInvoices++
		if !claimed[m.Withholding.Key] {
			claimed[m.Withholding.Key] = true
			summary.MatchedKeys++
			summary.TotalAmountMatched = summary.TotalAmountMatched.Add(m.Withholding.Amount)
		}
	}

	for _, agg := range me.WithholdingIndex.Aggregates() {
		if !claimed[agg.Key] {
			summary.OrphanKeys++
			summary.TotalAmountOrphaned = summary.TotalAmountOrphaned.Add(agg.Amount)
		}
	}

	return summary
}

// ValidateConfiguration validates the matching engine configuration
func (me *MatchingEngine) ValidateConfiguration() error {
	return me.Config.Validate()
}

// GetStats returns statistics about the loaded withholding index
func (me *MatchingEngine) GetStats() IndexStats {
	if me.WithholdingIndex == nil {
		return IndexStats{}
	}
	return me.WithholdingIndex.GetIndexStats()
}
