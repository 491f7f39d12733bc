package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/errors"
)

func writeCSV(t *testing.T, dir, name string, headers []string, rows ...[]string) string {
	t.Helper()

	lines := []string{strings.Join(headers, ",")}
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ","))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func setupInputFiles(t *testing.T, invoiceHeaders []string, invoiceRows [][]string) parsers.InputFiles {
	t.Helper()
	dir := t.TempDir()

	return parsers.InputFiles{
		Invoices: writeCSV(t, dir, "compras.csv", invoiceHeaders, invoiceRows...),
		Withholdings: writeCSV(t, dir, "percepciones.csv", labelHeaders(parsers.WithholdingSchema),
			[]string{"20-12345678-9", "0001-00000001", "IVA", "", "493", "Percepcion IVA", "21"},
			[]string{"30-99999999-1", "0002-00000009", "IIBB", "", "", "", "5"},
		),
		Template: writeCSV(t, dir, "plantilla.csv",
			[]string{"Número", "CUIT", "Importe Percepción", "Cód. Regimen Especial", "Observaciones"}),
	}
}

func newTestOrchestrator(t *testing.T, preprocessing *PreprocessingConfig) *ReconciliationOrchestrator {
	t.Helper()
	orchestrator, err := NewReconciliationOrchestrator(newTestService(t), nil, preprocessing)
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}
	return orchestrator
}

func TestNewReconciliationOrchestrator(t *testing.T) {
	if _, err := NewReconciliationOrchestrator(nil, nil, nil); err == nil {
		t.Error("Expected error for nil service")
	}

	badRead := parsers.DefaultReadConfig()
	badRead.Encoding = "ebcdic"
	if _, err := NewReconciliationOrchestrator(newTestService(t), badRead, nil); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}

func TestReconciliationOrchestrator_Run(t *testing.T) {
	files := setupInputFiles(t, labelHeaders(parsers.InvoiceSchema), [][]string{
		simpleInvoice("20-12345678-9", "0001-00000001", "100", "121"),
		simpleInvoice("20-12345678-9", "0001-00000002", "100", "100"),
	})

	result, resolution, err := newTestOrchestrator(t, nil).Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resolution == nil {
		t.Fatal("Expected mapping resolution")
	}

	if result.Output.Len() != 2 {
		t.Fatalf("Expected 2 output rows, got %d", result.Output.Len())
	}
	first := result.Output.Rows[0]
	if first[0] != "0001-00000001" || first[3] != "3337" || first[4] != nil {
		t.Errorf("Unexpected first row %v", first)
	}
	if result.Summary.MatchedKeys != 1 || result.Summary.OrphanKeys != 1 {
		t.Errorf("Expected 1 matched and 1 orphan key, got %d/%d", result.Summary.MatchedKeys, result.Summary.OrphanKeys)
	}
	if result.Summary.ResidualAlerts != 0 {
		t.Errorf("Expected no residual alerts, got %d", result.Summary.ResidualAlerts)
	}

	review := resolution.ReviewColumns()
	if len(review) != 1 || review[0] != "Observaciones" {
		t.Errorf("Expected Observaciones to need review, got %v", review)
	}
}

func TestReconciliationOrchestrator_Run_IncompleteMapping(t *testing.T) {
	var headers []string
	for _, h := range labelHeaders(parsers.InvoiceSchema) {
		if h != "Importe Total del Comprobante" {
			headers = append(headers, h)
		}
	}
	files := setupInputFiles(t, headers, nil)

	result, resolution, err := newTestOrchestrator(t, nil).Run(context.Background(), files)
	if result != nil {
		t.Error("Expected no result with an incomplete mapping")
	}
	if resolution == nil {
		t.Fatal("Expected the resolution to be returned for display")
	}

	rerr, ok := errors.AsReconcilerError(err)
	if !ok || rerr.Category != errors.CategoryMapping {
		t.Fatalf("Expected mapping error, got %v", err)
	}
	if got := resolution.Invoices.Missing(parsers.InvoiceSchema); len(got) != 1 || got[0] != parsers.FieldTotalAmount {
		t.Errorf("Expected total amount missing, got %v", got)
	}
}

func TestReconciliationOrchestrator_Run_ManualMapping(t *testing.T) {
	headers := labelHeaders(parsers.InvoiceSchema)
	for i, h := range headers {
		if h == "Importe Total del Comprobante" {
			headers[i] = "Monto Final"
		}
	}
	files := setupInputFiles(t, headers, [][]string{
		simpleInvoice("20-12345678-9", "0001-00000001", "100", "121"),
	})

	mapping := parsers.NewMappingFile()
	mapping.Invoices[parsers.FieldTotalAmount] = "Monto Final"
	mapping.Template["Observaciones"] = parsers.SourceAlert

	result, resolution, err := newTestOrchestrator(t, &PreprocessingConfig{Mapping: mapping}).Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(resolution.ReviewColumns()) != 0 {
		t.Errorf("Expected every template column mapped, got %v", resolution.ReviewColumns())
	}
	if got := result.Rows[0].FinalWithholding.StringFixed(2); got != "21.00" {
		t.Errorf("Expected declared withholding 21.00, got %s", got)
	}
}

func TestReconciliationOrchestrator_Inspect(t *testing.T) {
	files := setupInputFiles(t, labelHeaders(parsers.InvoiceSchema), nil)

	tables, resolution, err := newTestOrchestrator(t, nil).Inspect(context.Background(), files)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if tables.Withholdings.Len() != 2 || tables.Template.Len() != 0 {
		t.Errorf("Unexpected table sizes %d/%d", tables.Withholdings.Len(), tables.Template.Len())
	}
	for _, r := range resolution.InvoiceResults {
		if r.Status != parsers.StatusExact {
			t.Errorf("Field %s: expected exact match, got %s", r.Field, r.Status)
		}
	}

	files.Withholdings = filepath.Join(t.TempDir(), "missing.csv")
	if _, _, err := newTestOrchestrator(t, nil).Inspect(context.Background(), files); err == nil {
		t.Error("Expected error for missing withholdings file")
	}
}
