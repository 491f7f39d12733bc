package matcher

import (
	"reflect"
	"testing"

	"golang-withholding-reconciler/internal/models"
)

func buildInvoices(fixtures []invoiceFixture) []models.InvoiceRecord {
	out := make([]models.InvoiceRecord, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, invoice(f.row, f.taxID, f.number))
	}
	return out
}

func TestEdgeCaseHandler_DetectDuplicates(t *testing.T) {
	handler := NewEdgeCaseHandler(nil)

	tests := []struct {
		name     string
		invoices []invoiceFixture
		wantKeys []string
		wantRows [][]int
	}{
		{
			name: "no duplicates",
			invoices: []invoiceFixture{
				{2, "20-1", "1"},
				{3, "20-1", "2"},
			},
		},
		{
			name: "formatting differences collapse to one key",
			invoices: []invoiceFixture{
				{2, "20-12345678-9", "0001-00000001"},
				{3, "20123456789", "000100000001"},
				{4, "27-1", "5"},
				{5, "27 1", "5"},
			},
			wantKeys: []string{"20123456789|000100000001", "271|5"},
			wantRows: [][]int{{2, 3}, {4, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anomalies := handler.DetectDuplicates(buildInvoices(tt.invoices))
			if len(anomalies) != len(tt.wantKeys) {
				t.Fatalf("Expected %d duplicate groups, got %d", len(tt.wantKeys), len(anomalies))
			}
			for i, a := range anomalies {
				if a.Kind != AnomalyDuplicateInvoiceKey {
					t.Errorf("Unexpected kind %s", a.Kind)
				}
				if a.Key != tt.wantKeys[i] {
					t.Errorf("Expected key %q, got %q", tt.wantKeys[i], a.Key)
				}
				if !reflect.DeepEqual(a.Rows, tt.wantRows[i]) {
					t.Errorf("Expected rows %v, got %v", tt.wantRows[i], a.Rows)
				}
			}
		})
	}
}

func TestEdgeCaseHandler_DetectEmptyKeyParts(t *testing.T) {
	handler := NewEdgeCaseHandler(nil)

	invoices := buildInvoices([]invoiceFixture{
		{2, "20-1", "0001-1"},
		{3, "", "0001-2"},
		{4, "N/A", "S/N"},
	})

	anomalies := handler.DetectEmptyKeyParts(invoices)

	var kinds []AnomalyKind
	for _, a := range anomalies {
		kinds = append(kinds, a.Kind)
	}
	want := []AnomalyKind{AnomalyEmptyTaxID, AnomalyEmptyTaxID, AnomalyEmptyDocumentNumber}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Expected %v, got %v", want, kinds)
	}
	if anomalies[2].Key != "|" {
		t.Errorf("Expected fully empty key '|', got %q", anomalies[2].Key)
	}
}

func TestEdgeCaseHandler_DetectOrphans(t *testing.T) {
	handler := NewEdgeCaseHandler(DefaultMatchingConfig())
	index := NewWithholdingIndex(createTestWithholdings(), "|")

	anomalies := handler.DetectOrphans(index, buildInvoices([]invoiceFixture{{2, "30-70000000-1", "0001-00000010"}}))

	if len(anomalies) != 1 {
		t.Fatalf("Expected 1 orphan, got %d", len(anomalies))
	}
	if anomalies[0].Key != "30800000002|000200000020" || anomalies[0].Table != "withholdings" {
		t.Errorf("Unexpected orphan %+v", anomalies[0])
	}
}
