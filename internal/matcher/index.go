package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/models"
)

// WithholdingIndex folds withholding rows into one aggregate per composite
// key. Keys keeps first-seen order so output built from the index is
// deterministic.
type WithholdingIndex struct {
	// ByKey maps a composite key to its aggregate
	ByKey map[string]*models.WithholdingAggregate

	// Keys lists the distinct keys in first-seen order
	Keys []string

	// AllWithholdings holds all indexed rows
	AllWithholdings []models.WithholdingRecord

	separator string
}

// distinctValues collects non-empty strings once each, in first-seen order
type distinctValues struct {
	seen   map[string]bool
	values []string
}

func (d *distinctValues) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[v] {
		return
	}
	d.seen[v] = true
	d.values = append(d.values, v)
}

func (d *distinctValues) join(sep string) string {
	return strings.Join(d.values, sep)
}

type aggregateBuilder struct {
	amount            decimal.Decimal
	count             int
	taxType           distinctValues
	taxDescription    distinctValues
	regime            distinctValues
	regimeDescription distinctValues
}

// NewWithholdingIndex creates a new index from a slice of withholding rows.
// Descriptor values are joined with separator.
func NewWithholdingIndex(records []models.WithholdingRecord, separator string) *WithholdingIndex {
	index := &WithholdingIndex{
		ByKey:           make(map[string]*models.WithholdingAggregate),
		AllWithholdings: records,
		separator:       separator,
	}

	index.buildIndexes()
	return index
}

// buildIndexes folds every row into its key's aggregate
func (wi *WithholdingIndex) buildIndexes() {
	builders := make(map[string]*aggregateBuilder)

	for _, rec := range wi.AllWithholdings {
		b, exists := builders[rec.Key]
		if !exists {
			b = &aggregateBuilder{amount: decimal.Zero}
			builders[rec.Key] = b
			wi.Keys = append(wi.Keys, rec.Key)
		}

		b.amount = b.amount.Add(rec.Amount)
		b.count++
		b.taxType.add(rec.TaxType)
		b.taxDescription.add(rec.TaxDescription)
		b.regime.add(rec.Regime)
		b.regimeDescription.add(rec.RegimeDescription)
	}

	for _, key := range wi.Keys {
		b := builders[key]
		wi.ByKey[key] = &models.WithholdingAggregate{
			Key:               key,
			Amount:            b.amount,
			TaxType:           b.taxType.join(wi.separator),
			TaxDescription:    b.taxDescription.join(wi.separator),
			Regime:            b.regime.join(wi.separator),
			RegimeDescription: b.regimeDescription.join(wi.separator),
			Count:             b.count,
		}
	}
}

// GetByKey returns the aggregate for a composite key
func (wi *WithholdingIndex) GetByKey(key string) (*models.WithholdingAggregate, bool) {
	agg, ok := wi.ByKey[key]
	return agg, ok
}

// Aggregates returns the aggregates in first-seen key order
func (wi *WithholdingIndex) Aggregates() []*models.WithholdingAggregate {
	out := make([]*models.WithholdingAggregate, 0, len(wi.Keys))
	for _, key := range wi.Keys {
		out = append(out, wi.ByKey[key])
	}
	return out
}

// GetIndexStats returns statistics about the index
func (wi *WithholdingIndex) GetIndexStats() IndexStats {
	total := decimal.Zero
	for _, agg := range wi.ByKey {
		total = total.Add(agg.Amount)
	}
	return IndexStats{
		TotalRows:   len(wi.AllWithholdings),
		UniqueKeys:  len(wi.Keys),
		FoldedRows:  len(wi.AllWithholdings) - len(wi.Keys),
		TotalAmount: total,
	}
}

// IndexStats provides statistics about the withholding index
type IndexStats struct {
	TotalRows   int             `json:"total_rows"`
	UniqueKeys  int             `json:"unique_keys"`
	FoldedRows  int             `json:"folded_rows"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
