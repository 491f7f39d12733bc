package matcher

import (
	"testing"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/models"
)

func withholding(row int, agent, number, taxType, regime, regimeDesc, amount string) models.WithholdingRecord {
	rec := models.WithholdingRecord{
		Row:               row,
		AgentTaxID:        agent,
		DocumentNumber:    number,
		TaxType:           taxType,
		Regime:            regime,
		RegimeDescription: regimeDesc,
		Amount:            decimal.RequireFromString(amount),
	}
	rec.AssignKey("|")
	return rec
}

func invoice(row int, taxID, number string) models.InvoiceRecord {
	inv := models.InvoiceRecord{
		Row:            row,
		SupplierTaxID:  taxID,
		DocumentNumber: number,
	}
	inv.AssignKey("|")
	return inv
}

func createTestWithholdings() []models.WithholdingRecord {
	return []models.WithholdingRecord{
		withholding(2, "30-70000000-1", "0001-00000010", "IVA", "493", "Percepcion IVA", "10.00"),
		withholding(3, "30-70000000-1", "0001-00000010", "IIBB", "", "Percepcion IIBB CABA", "5.50"),
		withholding(4, "30-70000000-1", "0001-00000010", "IVA", "493", "Percepcion IVA", "1.25"),
		withholding(5, "30-80000000-2", "0002-00000020", "", "", "", "7.00"),
	}
}

func TestNewWithholdingIndex(t *testing.T) {
	index := NewWithholdingIndex(createTestWithholdings(), "|")

	if len(index.Keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(index.Keys))
	}
	if index.Keys[0] != "30700000001|000100000010" {
		t.Errorf("Expected first-seen key first, got %q", index.Keys[0])
	}

	agg, ok := index.GetByKey("30700000001|000100000010")
	if !ok {
		t.Fatal("Expected aggregate for first key")
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"amount", agg.Amount.StringFixed(2), "16.75"},
		{"tax type", agg.TaxType, "IVA|IIBB"},
		{"regime", agg.Regime, "493"},
		{"regime description", agg.RegimeDescription, "Percepcion IVA|Percepcion IIBB CABA"},
		{"tax description", agg.TaxDescription, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, tt.got)
			}
		})
	}

	if agg.Count != 3 {
		t.Errorf("Expected 3 folded rows, got %d", agg.Count)
	}
}

func TestWithholdingIndex_EmptyDescriptors(t *testing.T) {
	index := NewWithholdingIndex(createTestWithholdings(), "|")

	agg, _ := index.GetByKey("30800000002|000200000020")
	if agg.TaxType != "" || agg.Regime != "" || agg.RegimeDescription != "" {
		t.Errorf("Expected absent descriptors, got %+v", agg)
	}
	if !agg.Amount.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected amount 7, got %s", agg.Amount)
	}
}

func TestWithholdingIndex_Separator(t *testing.T) {
	index := NewWithholdingIndex(createTestWithholdings(), " / ")

	agg, _ := index.GetByKey("30700000001|000100000010")
	if agg.TaxType != "IVA / IIBB" {
		t.Errorf("Expected custom separator, got %q", agg.TaxType)
	}
}

func TestWithholdingIndex_GetIndexStats(t *testing.T) {
	index := NewWithholdingIndex(createTestWithholdings(), "|")
	stats := index.GetIndexStats()

	if stats.TotalRows != 4 || stats.UniqueKeys != 2 || stats.FoldedRows != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.TotalAmount.StringFixed(2) != "23.75" {
		t.Errorf("Expected total 23.75, got %s", stats.TotalAmount)
	}

	aggs := index.Aggregates()
	if len(aggs) != 2 || aggs[1].Key != "30800000002|000200000020" {
		t.Errorf("Expected aggregates in key order, got %v", aggs)
	}
}

func TestWithholdingIndex_Empty(t *testing.T) {
	index := NewWithholdingIndex(nil, "|")

	if len(index.Keys) != 0 {
		t.Errorf("Expected no keys, got %d", len(index.Keys))
	}
	if _, ok := index.GetByKey("1|2"); ok {
		t.Error("Expected no aggregate in empty index")
	}
}
