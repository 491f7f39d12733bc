package reconciler

import (
	"context"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/errors"
)

func labelHeaders(schema parsers.TableSchema) []string {
	headers := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		headers[i] = f.Label
	}
	return headers
}

func labelMapping(schema parsers.TableSchema) *parsers.ColumnMapping {
	m := parsers.NewColumnMapping(schema.Table)
	for _, f := range schema.Fields {
		m.Set(f.Name, f.Label)
	}
	return m
}

// invoiceRow builds a row in InvoiceSchema label order
func invoiceRow(values map[string]string) []string {
	row := make([]string, len(parsers.InvoiceSchema.Fields))
	for i, f := range parsers.InvoiceSchema.Fields {
		row[i] = values[f.Name]
	}
	return row
}

func simpleInvoice(taxID, number, net, total string) []string {
	return invoiceRow(map[string]string{
		parsers.FieldEmissionDate:   "01/03/2024",
		parsers.FieldDocumentType:   "Factura A",
		parsers.FieldPointOfSale:    "1",
		parsers.FieldDocumentNumber: number,
		parsers.FieldSupplierTaxID:  taxID,
		parsers.FieldSupplierName:   "Proveedor SA",
		parsers.FieldNetAmount:      net,
		parsers.FieldTotalAmount:    total,
	})
}

func newRequest(invoiceRows, withholdingRows [][]string, templateHeaders []string) *ReconciliationRequest {
	return &ReconciliationRequest{
		Invoices:           models.NewTable(parsers.TableInvoices, labelHeaders(parsers.InvoiceSchema), invoiceRows),
		Withholdings:       models.NewTable(parsers.TableWithholdings, labelHeaders(parsers.WithholdingSchema), withholdingRows),
		Template:           models.NewTable(parsers.TableTemplate, templateHeaders, nil),
		InvoiceMapping:     labelMapping(parsers.InvoiceSchema),
		WithholdingMapping: labelMapping(parsers.WithholdingSchema),
	}
}

func newTestService(t *testing.T) *ReconciliationService {
	t.Helper()
	service, err := NewReconciliationService(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return service
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"negative inference tolerance", func(c *Config) { c.InferenceTolerance = decimal.NewFromInt(-1) }, true},
		{"negative residual tolerance", func(c *Config) { c.ResidualTolerance = decimal.NewFromInt(-1) }, true},
		{"empty key separator", func(c *Config) { c.KeySeparator = "" }, true},
		{"zero tolerances", func(c *Config) { c.InferenceTolerance = decimal.Zero; c.ResidualTolerance = decimal.Zero }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	bad := DefaultConfig()
	bad.ValueSeparator = ""
	if _, err := NewReconciliationService(bad); err == nil {
		t.Error("Expected service creation to fail with invalid config")
	}
}

func TestReconciliationRequest_Validate(t *testing.T) {
	request := newRequest(nil, nil, []string{"Número"})
	if err := request.Validate(); err != nil {
		t.Fatalf("Expected valid request, got %v", err)
	}

	request.Template = nil
	if err := request.Validate(); err == nil {
		t.Error("Expected error without template")
	}

	request = newRequest(nil, nil, []string{"Número"})
	request.WithholdingMapping = nil
	if err := request.Validate(); err == nil {
		t.Error("Expected error without withholding mapping")
	}
}

func TestProcessReconciliation_Arithmetic(t *testing.T) {
	tests := []struct {
		name         string
		net          string
		total        string
		withholdings [][]string
		wantFinal    string
		wantInferred bool
		wantAlert    string
		wantRegime   string
	}{
		{
			name:         "missing withholding inferred from difference",
			net:          "100",
			total:        "121",
			wantFinal:    "21.00",
			wantInferred: true,
			wantRegime:   "OTROS",
		},
		{
			name:      "difference within tolerance",
			net:       "100",
			total:     "100.03",
			wantFinal: "0.00",
		},
		{
			name:  "declared withholding leaves residual",
			net:   "100",
			total: "115",
			withholdings: [][]string{
				{"20-12345678-9", "0001-00000001", "IVA", "", "493", "Percepcion IVA", "10"},
			},
			wantFinal:  "10.00",
			wantAlert:  "Alerta: Diferencia final de 5.00",
			wantRegime: "3337",
		},
		{
			name:      "total below base",
			net:       "100",
			total:     "90",
			wantFinal: "0.00",
			wantAlert: "Alerta: Diferencia final de -10.00",
		},
		{
			name:  "split withholding rows summed",
			net:   "100",
			total: "121",
			withholdings: [][]string{
				{"20-12345678-9", "0001-00000001", "IIBB", "", "", "Percepcion IIBB CABA", "15"},
				{"20123456789", "000100000001", "IIBB", "", "", "Percepcion IIBB CABA", "6"},
			},
			wantFinal:  "21.00",
			wantRegime: "IBCF",
		},
	}

	service := newTestService(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := newRequest(
				[][]string{simpleInvoice("20-12345678-9", "0001-00000001", tt.net, tt.total)},
				tt.withholdings,
				[]string{"Número"},
			)

			result, err := service.ProcessReconciliation(context.Background(), request)
			if err != nil {
				t.Fatalf("ProcessReconciliation failed: %v", err)
			}
			if len(result.Rows) != 1 {
				t.Fatalf("Expected 1 row, got %d", len(result.Rows))
			}

			row := result.Rows[0]
			if got := row.FinalWithholding.StringFixed(2); got != tt.wantFinal {
				t.Errorf("Expected final withholding %s, got %s", tt.wantFinal, got)
			}
			if row.Inferred != tt.wantInferred {
				t.Errorf("Expected inferred %t, got %t", tt.wantInferred, row.Inferred)
			}
			if row.Alert != tt.wantAlert {
				t.Errorf("Expected alert %q, got %q", tt.wantAlert, row.Alert)
			}

			switch {
			case tt.wantRegime == "" && row.Regime != nil:
				t.Errorf("Expected no regime classification, got %+v", row.Regime)
			case tt.wantRegime != "" && row.Regime == nil:
				t.Errorf("Expected regime %s, got none", tt.wantRegime)
			case tt.wantRegime != "" && row.Regime.Code != tt.wantRegime:
				t.Errorf("Expected regime %s, got %s", tt.wantRegime, row.Regime.Code)
			}
		})
	}
}

func TestProcessReconciliation_LeftJoinOrder(t *testing.T) {
	service := newTestService(t)

	request := newRequest(
		[][]string{
			simpleInvoice("30-1", "1", "100", "100"),
			simpleInvoice("30-2", "2", "100", "110"),
			simpleInvoice("30-3", "3", "100", "100"),
		},
		[][]string{
			{"30-3", "3", "IVA", "", "767", "", "2.5"},
			{"99-9", "9", "IVA", "", "", "", "1"},
		},
		[]string{"Número"},
	)

	result, err := service.ProcessReconciliation(context.Background(), request)
	if err != nil {
		t.Fatalf("ProcessReconciliation failed: %v", err)
	}

	var numbers []string
	for _, row := range result.Rows {
		numbers = append(numbers, row.Invoice.DocumentNumber)
	}
	if !reflect.DeepEqual(numbers, []string{"1", "2", "3"}) {
		t.Errorf("Expected invoice order preserved, got %v", numbers)
	}

	if result.Rows[0].Matched() || result.Rows[1].Matched() || !result.Rows[2].Matched() {
		t.Error("Expected only the third invoice to match")
	}

	s := result.Summary
	if s.InvoicesProcessed != 3 || s.WithholdingRows != 2 || s.OutputRows != 3 {
		t.Errorf("Unexpected counts %+v", s)
	}
	if s.InvoicesWithWithholding != 2 || s.TotalWithholding.StringFixed(2) != "12.50" {
		t.Errorf("Expected 2 invoices totalling 12.50, got %d / %s", s.InvoicesWithWithholding, s.TotalWithholding)
	}
	if s.InferredWithholdings != 1 || s.UnmappedRegimes != 1 || s.MatchedKeys != 1 || s.OrphanKeys != 1 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if s.SupplierTaxIDs != 3 {
		t.Errorf("Expected 3 supplier tax IDs, got %d", s.SupplierTaxIDs)
	}
	if s.TierCounts[models.TierDirectCode] != 1 || s.TierCounts[models.TierFallback] != 1 {
		t.Errorf("Unexpected tier counts %v", s.TierCounts)
	}
	if result.RunID == "" {
		t.Error("Expected a run ID")
	}
}

func TestProcessReconciliation_Projection(t *testing.T) {
	service := newTestService(t)

	template := []string{"Número", "CUIT", "Importe Percepción", "Cód. Regimen Especial", "Observaciones", "Alerta / Observación", "Provincia IIBB"}
	request := newRequest(
		[][]string{
			simpleInvoice("20-12345678-9", "0001-00000001", "100", "121"),
			simpleInvoice("20-12345678-9", "0001-00000002", "100", "100"),
		},
		nil,
		template,
	)

	result, err := service.ProcessReconciliation(context.Background(), request)
	if err != nil {
		t.Fatalf("ProcessReconciliation failed: %v", err)
	}

	out := result.Output
	if !reflect.DeepEqual(out.Headers, template) {
		t.Fatalf("Expected template headers %v, got %v", template, out.Headers)
	}
	if out.Len() != 2 {
		t.Fatalf("Expected 2 output rows, got %d", out.Len())
	}

	for i, row := range out.Rows {
		if row[4] != nil {
			t.Errorf("Row %d: expected unmapped column to be empty, got %v", i, row[4])
		}
		if row[6] != nil {
			t.Errorf("Row %d: expected absent province to be empty, got %v", i, row[6])
		}
	}

	first := out.Rows[0]
	if first[0] != "0001-00000001" || first[1] != "20-12345678-9" {
		t.Errorf("Unexpected identifiers %v", first[:2])
	}
	if amount, ok := first[2].(decimal.Decimal); !ok || amount.StringFixed(2) != "21.00" {
		t.Errorf("Expected decimal withholding 21.00, got %#v", first[2])
	}
	if first[3] != "OTROS" {
		t.Errorf("Expected catch-all regime code, got %v", first[3])
	}

	second := out.Rows[1]
	if second[3] != nil || second[5] != nil {
		t.Errorf("Expected no regime and no alert on second row, got %v / %v", second[3], second[5])
	}
	if result.Summary.UnmappedTemplates != 1 {
		t.Errorf("Expected 1 unmapped template column, got %d", result.Summary.UnmappedTemplates)
	}
}

func TestProcessReconciliation_Errors(t *testing.T) {
	service := newTestService(t)
	rows := [][]string{simpleInvoice("20-1", "1", "100", "100")}

	t.Run("mapped column missing from data", func(t *testing.T) {
		request := newRequest(rows, nil, []string{"Número"})
		request.WithholdingMapping.Set(parsers.FieldRegime, "Cod Regimen")

		result, err := service.ProcessReconciliation(context.Background(), request)
		if result != nil {
			t.Error("Expected no partial result")
		}
		rerr, ok := errors.AsReconcilerError(err)
		if !ok || rerr.Category != errors.CategoryDataShape {
			t.Fatalf("Expected data shape error, got %v", err)
		}
		if rerr.Context["field"] != parsers.FieldRegime {
			t.Errorf("Expected field %s in context, got %v", parsers.FieldRegime, rerr.Context["field"])
		}
	})

	t.Run("unmapped mandatory field", func(t *testing.T) {
		request := newRequest(rows, nil, []string{"Número"})
		request.InvoiceMapping.Set(parsers.FieldTotalAmount, "")

		_, err := service.ProcessReconciliation(context.Background(), request)
		rerr, ok := errors.AsReconcilerError(err)
		if !ok || rerr.Category != errors.CategoryMapping {
			t.Fatalf("Expected mapping error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.ProcessReconciliation(ctx, newRequest(rows, nil, []string{"Número"}))
		rerr, ok := errors.AsReconcilerError(err)
		if !ok || rerr.Category != errors.CategoryInternal {
			t.Fatalf("Expected internal error, got %v", err)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := service.ProcessReconciliation(context.Background(), &ReconciliationRequest{})
		if err == nil {
			t.Fatal("Expected error for empty request")
		}
	})
}

func TestInferTemplateMapping(t *testing.T) {
	columns := []string{"Número", "PERCEPCION_FINAL", "cotizacion", "Situacion de IVA del Proveedor", "Observaciones", "regime_code", ""}

	mapping, results := InferTemplateMapping(columns)

	want := []struct {
		field string
		match TemplateMatch
	}{
		{parsers.SourceDocumentNumber, TemplateMatchLabel},
		{parsers.SourceWithholding, TemplateMatchAlias},
		{parsers.SourceExchangeRate, TemplateMatchFolded},
		{parsers.SourceTaxStatus, TemplateMatchFolded},
		{"", TemplateMatchNone},
		{parsers.SourceRegimeCode, TemplateMatchAlias},
		{"", TemplateMatchNone},
	}

	for i, w := range want {
		if results[i].Field != w.field || results[i].Match != w.match {
			t.Errorf("Column %q: expected %s/%s, got %s/%s", columns[i], w.field, w.match, results[i].Field, results[i].Match)
		}
	}

	if got := mapping.Unmapped(); !reflect.DeepEqual(got, []string{"Observaciones", ""}) {
		t.Errorf("Expected Observaciones and the blank column unmapped, got %v", got)
	}
}

func TestApplyTemplateOverrides(t *testing.T) {
	mapping, results := InferTemplateMapping([]string{"Número", "Observaciones"})

	results, err := ApplyTemplateOverrides(mapping, results, map[string]string{
		"Observaciones": parsers.SourceAlert,
		"Número":        "",
	})
	if err != nil {
		t.Fatalf("ApplyTemplateOverrides failed: %v", err)
	}

	if results[0].Match != TemplateMatchNone || results[1].Match != TemplateMatchManual {
		t.Errorf("Unexpected results %+v", results)
	}
	if src, _ := mapping.Source("Observaciones"); src != parsers.SourceAlert {
		t.Errorf("Expected manual source, got %q", src)
	}

	if _, err := ApplyTemplateOverrides(mapping, results, map[string]string{"Inexistente": parsers.SourceAlert}); err == nil {
		t.Error("Expected error for unknown template column")
	}
}

func TestProjectRows_NilMapping(t *testing.T) {
	rows := []models.ReconciledRow{{Invoice: models.InvoiceRecord{DocumentNumber: "1"}}}

	out := ProjectRows(rows, []string{"A", "B"}, nil)
	if len(out.Rows) != 1 || out.Rows[0][0] != nil || out.Rows[0][1] != nil {
		t.Errorf("Expected empty cells without a mapping, got %v", out.Rows)
	}
}

func TestSourceValue(t *testing.T) {
	row := &models.ReconciledRow{
		Invoice: models.InvoiceRecord{
			Kind:      "NC",
			Letter:    "",
			NetAmount: decimal.NewFromInt(50),
		},
		Regime: &models.RegimeClassification{Code: "IIBB", Article: ""},
	}

	tests := []struct {
		field string
		want  interface{}
	}{
		{parsers.SourceDocumentKind, "NC"},
		{parsers.SourceDocumentLetter, nil},
		{parsers.SourceRegimeCode, "IIBB"},
		{parsers.SourceRegimeArticle, nil},
		{parsers.SourceAlert, nil},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := SourceValue(row, tt.field); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if got, ok := SourceValue(row, parsers.SourceNetAmount).(decimal.Decimal); !ok || !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected decimal net amount, got %v", got)
	}
}
