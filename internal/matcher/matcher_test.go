package matcher

import (
	"testing"
)

func TestMatchingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*MatchingConfig)
		wantErr bool
	}{
		{"default", func(c *MatchingConfig) {}, false},
		{"empty key separator", func(c *MatchingConfig) { c.KeySeparator = "" }, true},
		{"digit key separator", func(c *MatchingConfig) { c.KeySeparator = "0" }, true},
		{"empty value separator", func(c *MatchingConfig) { c.ValueSeparator = "" }, true},
		{"custom separators", func(c *MatchingConfig) { c.KeySeparator = "#"; c.ValueSeparator = ", " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMatchingConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchingConfig_Clone(t *testing.T) {
	config := DefaultMatchingConfig()
	clone := config.Clone()
	clone.KeySeparator = "#"

	if config.KeySeparator != "|" {
		t.Error("Expected clone to be independent of the original")
	}

	var nilConfig *MatchingConfig
	if nilConfig.Clone() != nil {
		t.Error("Expected nil clone of nil config")
	}
}

func TestMatchingEngine_JoinRequiresWithholdings(t *testing.T) {
	engine := NewMatchingEngine(nil)

	if _, err := engine.Join(nil); err == nil {
		t.Error("Expected error when withholdings are not loaded")
	}
}

func TestMatchingEngine_Join(t *testing.T) {
	engine := NewMatchingEngine(DefaultMatchingConfig())
	engine.LoadWithholdings(createTestWithholdings())

	invoices := []invoiceFixture{
		{2, "30-70000000-1", "0001-00000010"},
		{3, "20-11111111-1", "0005-00000001"},
		{4, "30700000001", "000100000010"},
	}

	result, err := engine.Join(buildInvoices(invoices))
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if len(result.Matches) != 3 {
		t.Fatalf("Expected one match result per invoice, got %d", len(result.Matches))
	}

	for i, m := range result.Matches {
		if m.Invoice.Row != invoices[i].row {
			t.Errorf("Expected input order preserved at %d, got row %d", i, m.Invoice.Row)
		}
	}

	first := result.Matches[0]
	if first.MatchType != MatchKey || first.Withholding == nil {
		t.Fatalf("Expected first invoice matched, got %+v", first)
	}
	if first.Withholding.Amount.StringFixed(2) != "16.75" {
		t.Errorf("Expected summed amount 16.75, got %s", first.Withholding.Amount)
	}
	if result.Matches[1].MatchType != MatchNone || result.Matches[1].Withholding != nil {
		t.Error("Expected second invoice unmatched")
	}
	if result.Matches[2].Withholding != first.Withholding {
		t.Error("Expected invoices sharing a key to share the aggregate")
	}

	s := result.Summary
	if s.TotalInvoices != 3 || s.MatchedInvoices != 2 || s.UnmatchedInvoices != 1 {
		t.Errorf("Unexpected invoice counts %+v", s)
	}
	if s.MatchedKeys != 1 || s.OrphanKeys != 1 || s.AggregateKeys != 2 || s.TotalWithholdingRows != 4 {
		t.Errorf("Unexpected key counts %+v", s)
	}
	if s.TotalAmountMatched.StringFixed(2) != "16.75" || s.TotalAmountOrphaned.StringFixed(2) != "7.00" {
		t.Errorf("Unexpected amounts matched=%s orphaned=%s", s.TotalAmountMatched, s.TotalAmountOrphaned)
	}

	kinds := make(map[AnomalyKind]int)
	for _, a := range result.Anomalies {
		kinds[a.Kind]++
	}
	if kinds[AnomalyDuplicateInvoiceKey] != 1 || kinds[AnomalyOrphanWithholding] != 1 {
		t.Errorf("Unexpected anomalies %v", result.Anomalies)
	}
}

func TestMatchingEngine_JoinWithoutOrphanReport(t *testing.T) {
	config := DefaultMatchingConfig()
	config.ReportOrphans = false

	engine := NewMatchingEngine(config)
	engine.LoadWithholdings(createTestWithholdings())

	result, err := engine.Join(buildInvoices([]invoiceFixture{{2, "1", "1"}}))
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	for _, a := range result.Anomalies {
		if a.Kind == AnomalyOrphanWithholding {
			t.Error("Expected no orphan anomalies when disabled")
		}
	}
	if result.Summary.OrphanKeys != 2 {
		t.Errorf("Expected summary to still count orphan keys, got %d", result.Summary.OrphanKeys)
	}
}

func TestMatchingEngine_GetStats(t *testing.T) {
	engine := NewMatchingEngine(nil)
	if stats := engine.GetStats(); stats.TotalRows != 0 {
		t.Errorf("Expected empty stats before loading, got %+v", stats)
	}

	engine.LoadWithholdings(createTestWithholdings())
	if stats := engine.GetStats(); stats.UniqueKeys != 2 {
		t.Errorf("Expected 2 keys, got %+v", stats)
	}
	if err := engine.ValidateConfiguration(); err != nil {
		t.Errorf("Expected default configuration to be valid: %v", err)
	}
}

type invoiceFixture struct {
	row    int
	taxID  string
	number string
}
