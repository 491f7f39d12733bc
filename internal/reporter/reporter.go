// Package reporter renders the outcome of a reconciliation run.
//
// It produces two kinds of output:
//   - Run reports: the summary, alerts, anomalies and warnings of a run, as
//     console text for the terminal or JSON for programmatic consumption
//   - The filled template: the projected rows written as XLSX or CSV
//
// It also renders the column mapping resolution shown by the `columns`
// command.
//
// Example usage:
//
//	generator, _ := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	_ = generator.GenerateReport(result, os.Stdout)
//
//	writer, _ := reporter.NewTemplateWriter(nil)
//	_ = writer.WriteFile("plantilla_completada.xlsx", result.Output)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"golang-withholding-reconciler/internal/matcher"
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeAlerts    bool `json:"include_alerts"`
	IncludeAnomalies bool `json:"include_anomalies"`
	IncludeWarnings  bool `json:"include_warnings"`
	IncludeRows      bool `json:"include_rows"`

	// MaxItems caps every console list; longer lists end with a count of
	// the remaining items.
	MaxItems int `json:"max_items"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeAlerts:    true,
		IncludeAnomalies: true,
		IncludeWarnings:  true,
		IncludeRows:      false,
		MaxItems:         10,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxItems < 1 {
		return fmt.Errorf("max items must be at least 1, got %d", c.MaxItems)
	}

	return nil
}

// ReportGenerator generates reconciliation reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport generates a report from reconciliation results and writes it to the provided writer
func (rg *ReportGenerator) GenerateReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	if result == nil || result.Summary == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	cw := &consoleWriter{w: writer}

	cw.printf("RESUMEN DE CONCILIACIÓN\n")
	cw.printf("Run:       %s\n", result.RunID)
	cw.printf("Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	cw.printf("Duration:  %v\n\n", result.Summary.ProcessingDuration)

	cw.printf("=== COMPROBANTES ===\n")
	rg.printSummaryTable(result.Summary, cw)
	cw.printf("\n")

	cw.printf("=== PERCEPCIONES ===\n")
	rg.printWithholdingSummary(result.Summary, cw)
	cw.printf("\n")

	cw.printf("=== CLASIFICACIÓN DE REGÍMENES ===\n")
	rg.printTierTable(result.Summary, cw)
	cw.printf("\n")

	if rg.config.IncludeAlerts {
		if alerts := alertRows(result.Rows); len(alerts) > 0 {
			cw.printf("=== ALERTAS ===\n")
			rg.printAlerts(alerts, cw)
			cw.printf("\n")
		}
	}

	if rg.config.IncludeAnomalies && len(result.Anomalies) > 0 {
		cw.printf("=== ANOMALÍAS DE CLAVE ===\n")
		rg.printAnomalies(result.Anomalies, cw)
		cw.printf("\n")
	}

	if rg.config.IncludeWarnings && len(result.Warnings) > 0 {
		cw.printf("=== ADVERTENCIAS ===\n")
		for _, w := range result.Warnings {
			cw.printf("  - %s\n", w)
		}
	}

	return cw.err
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(result *reconciler.ReconciliationResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(rg.filterResultForOutput(result))
}

// consoleWriter keeps the first write error so the report body stays free of
// error checks.
type consoleWriter struct {
	w   io.Writer
	err error
}

func (cw *consoleWriter) printf(format string, args ...interface{}) {
	if cw.err != nil {
		return
	}
	_, cw.err = fmt.Fprintf(cw.w, format, args...)
}

func (rg *ReportGenerator) printSummaryTable(summary *reconciler.ResultSummary, cw *consoleWriter) {
	cw.printf("Comprobantes procesados:   %d\n", summary.InvoicesProcessed)
	cw.printf("Filas de percepciones:     %d\n", summary.WithholdingRows)
	cw.printf("Filas generadas:           %d\n", summary.OutputRows)
	cw.printf("CUITs de proveedores:      %d\n", summary.SupplierTaxIDs)
	cw.printf("Comprobantes con match:    %d (%.1f%%)\n",
		summary.MatchedInvoices,
		rg.calculatePercentage(summary.MatchedInvoices, summary.InvoicesProcessed))
	cw.printf("Claves con match:          %d\n", summary.MatchedKeys)
	cw.printf("Claves huérfanas:          %d\n", summary.OrphanKeys)
	cw.printf("Anomalías de clave:        %d\n", summary.KeyAnomalies)
}

func (rg *ReportGenerator) printWithholdingSummary(summary *reconciler.ResultSummary, cw *consoleWriter) {
	cw.printf("Comprobantes con percepción: %d\n", summary.InvoicesWithWithholding)
	cw.printf("Total percepciones:          %s\n", summary.TotalWithholding.StringFixed(2))
	cw.printf("Percepciones inferidas:      %d\n", summary.InferredWithholdings)
	cw.printf("Alertas de diferencia:       %d\n", summary.ResidualAlerts)
	cw.printf("Columnas de plantilla:       %d (%d sin asignar)\n", summary.TemplateColumns, summary.UnmappedTemplates)
}

var tierOrder = []models.ClassificationTier{
	models.TierDirectCode,
	models.TierKeyword,
	models.TierGeneric,
	models.TierFallback,
}

func (rg *ReportGenerator) printTierTable(summary *reconciler.ResultSummary, cw *consoleWriter) {
	total := 0
	for _, n := range summary.TierCounts {
		total += n
	}

	for _, tier := range tierOrder {
		n := summary.TierCounts[tier]
		cw.printf("%-12s %d (%.1f%%)\n", string(tier)+":", n, rg.calculatePercentage(n, total))
	}
	cw.printf("Régimen OTROS (sin mapear): %d\n", summary.UnmappedRegimes)
}

func (rg *ReportGenerator) printAlerts(rows []models.ReconciledRow, cw *consoleWriter) {
	cw.printf("Total: %d\n", len(rows))
	for i, row := range rows {
		if i >= rg.config.MaxItems {
			cw.printf("  ... and %d more\n", len(rows)-i)
			break
		}
		cw.printf("  %d. Fila %d, Comprobante %s, CUIT %s: %s\n",
			i+1,
			row.Invoice.Row,
			row.Invoice.DocumentNumber,
			row.Invoice.SupplierTaxID,
			row.Alert)
	}
}

func (rg *ReportGenerator) printAnomalies(anomalies []matcher.KeyAnomaly, cw *consoleWriter) {
	groups := make(map[matcher.AnomalyKind][]matcher.KeyAnomaly)
	var kinds []matcher.AnomalyKind
	for _, a := range anomalies {
		if _, ok := groups[a.Kind]; !ok {
			kinds = append(kinds, a.Kind)
		}
		groups[a.Kind] = append(groups[a.Kind], a)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		list := groups[kind]
		cw.printf("%s (%d):\n", kind, len(list))
		for i, a := range list {
			if i >= rg.config.MaxItems {
				cw.printf("  ... and %d more\n", len(list)-i)
				break
			}
			cw.printf("  - %s %s rows %v: %s\n", a.Table, a.Key, a.Rows, a.Reason)
		}
	}
}

// Helper methods

func alertRows(rows []models.ReconciledRow) []models.ReconciledRow {
	var out []models.ReconciledRow
	for _, row := range rows {
		if row.Alert != "" {
			out = append(out, row)
		}
	}
	return out
}

func (rg *ReportGenerator) calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func (rg *ReportGenerator) filterResultForOutput(result *reconciler.ReconciliationResult) map[string]interface{} {
	output := map[string]interface{}{
		"run_id":       result.RunID,
		"summary":      result.Summary,
		"processed_at": result.ProcessedAt,
	}

	if rg.config.IncludeAlerts {
		var alerts []map[string]interface{}
		for _, row := range alertRows(result.Rows) {
			alerts = append(alerts, map[string]interface{}{
				"row":             row.Invoice.Row,
				"document_number": row.Invoice.DocumentNumber,
				"supplier_tax_id": row.Invoice.SupplierTaxID,
				"residual":        row.Residual.StringFixed(2),
				"alert":           row.Alert,
			})
		}
		if alerts != nil {
			output["alerts"] = alerts
		}
	}

	if rg.config.IncludeAnomalies && result.Anomalies != nil {
		output["anomalies"] = result.Anomalies
	}

	if rg.config.IncludeWarnings && result.Warnings != nil {
		output["warnings"] = result.Warnings
	}

	if rg.config.IncludeRows && result.Rows != nil {
		rows := make([]*models.ReconciledRow, len(result.Rows))
		for i := range result.Rows {
			rows[i] = &result.Rows[i]
		}
		output["rows"] = rows
	}

	return output
}
