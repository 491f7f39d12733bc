package matcher

import (
	"fmt"

	"golang-withholding-reconciler/internal/models"
)

// AnomalyKind identifies a composite key problem
type AnomalyKind string

const (
	// AnomalyDuplicateInvoiceKey: several invoices share one key and each
	// receives the same aggregate.
	AnomalyDuplicateInvoiceKey AnomalyKind = "duplicate_invoice_key"
	AnomalyEmptyTaxID          AnomalyKind = "empty_tax_id"
	AnomalyEmptyDocumentNumber AnomalyKind = "empty_document_number"
	// AnomalyOrphanWithholding: an aggregate no invoice claimed.
	AnomalyOrphanWithholding AnomalyKind = "orphan_withholding"
)

// KeyAnomaly is one composite key problem found during the join
type KeyAnomaly struct {
	Kind   AnomalyKind `json:"kind"`
	Table  string      `json:"table"`
	Key    string      `json:"key"`
	Rows   []int       `json:"rows,omitempty"`
	Reason string      `json:"reason"`
}

// EdgeCaseHandler detects key anomalies that do not stop a run but deserve
// review.
type EdgeCaseHandler struct {
	Config *MatchingConfig
}

// NewEdgeCaseHandler creates a new edge case handler
func NewEdgeCaseHandler(config *MatchingConfig) *EdgeCaseHandler {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &EdgeCaseHandler{
		Config: config,
	}
}

// DetectDuplicates finds invoice keys that occur more than once, in order of
// first appearance.
func (ech *EdgeCaseHandler) DetectDuplicates(invoices []models.InvoiceRecord) []KeyAnomaly {
	rows := make(map[string][]int)
	var order []string
	for _, inv := range invoices {
		if _, seen := rows[inv.Key]; !seen {
			order = append(order, inv.Key)
		}
		rows[inv.Key] = append(rows[inv.Key], inv.Row)
	}

	var anomalies []KeyAnomaly
	for _, key := range order {
		if len(rows[key]) < 2 {
			continue
		}
		anomalies = append(anomalies, KeyAnomaly{
			Kind:   AnomalyDuplicateInvoiceKey,
			Table:  "invoices",
			Key:    key,
			Rows:   rows[key],
			Reason: fmt.Sprintf("%d invoices share key %s", len(rows[key]), key),
		})
	}
	return anomalies
}

// DetectEmptyKeyParts flags invoices whose tax ID or document number has no
// digits. Such keys can only match withholding rows with the same gap.
func (ech *EdgeCaseHandler) DetectEmptyKeyParts(invoices []models.InvoiceRecord) []KeyAnomaly {
	var anomalies []KeyAnomaly
	for _, inv := range invoices {
		if inv.NormalizedTaxID == "" {
			anomalies = append(anomalies, KeyAnomaly{
				Kind:   AnomalyEmptyTaxID,
				Table:  "invoices",
				Key:    inv.Key,
				Rows:   []int{inv.Row},
				Reason: fmt.Sprintf("supplier tax ID %q has no digits", inv.SupplierTaxID),
			})
		}
		if inv.NormalizedNumber == "" {
			anomalies = append(anomalies, KeyAnomaly{
				Kind:   AnomalyEmptyDocumentNumber,
				Table:  "invoices",
				Key:    inv.Key,
				Rows:   []int{inv.Row},
				Reason: fmt.Sprintf("document number %q has no digits", inv.DocumentNumber),
			})
		}
	}
	return anomalies
}

// DetectOrphans lists aggregates whose key no invoice carries
func (ech *EdgeCaseHandler) DetectOrphans(index *WithholdingIndex, invoices []models.InvoiceRecord) []KeyAnomaly {
	claimed := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		claimed[inv.Key] = true
	}

	var anomalies []KeyAnomaly
	for _, agg := range index.Aggregates() {
		if claimed[agg.Key] {
			continue
		}
		anomalies = append(anomalies, KeyAnomaly{
			Kind:   AnomalyOrphanWithholding,
			Table:  "withholdings",
			Key:    agg.Key,
			Reason: fmt.Sprintf("%d withholding rows totalling %s match no invoice", agg.Count, agg.Amount.StringFixed(2)),
		})
	}
	return anomalies
}
