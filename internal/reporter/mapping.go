package reporter

import (
	"encoding/json"
	"io"
	"strings"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/internal/reconciler"
)

// GenerateMappingReport renders the column mapping resolution of a run: the
// inference outcome of every logical field and the template column mapping.
func (rg *ReportGenerator) GenerateMappingReport(resolution *reconciler.MappingResolution, writer io.Writer) error {
	if rg.config.Format == FormatJSON {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resolution)
	}

	cw := &consoleWriter{w: writer}

	cw.printf("=== COMPRAS (%s) ===\n", parsers.TableInvoices)
	printInference(cw, resolution.InvoiceResults)
	cw.printf("\n")

	cw.printf("=== PERCEPCIONES (%s) ===\n", parsers.TableWithholdings)
	printInference(cw, resolution.WithholdingResults)
	cw.printf("\n")

	cw.printf("=== PLANTILLA (%s) ===\n", parsers.TableTemplate)
	for _, r := range resolution.TemplateResults {
		if r.NeedsReview() {
			cw.printf("  %-40s -> (sin asignar, revisar)\n", quote(r.Column))
			continue
		}
		cw.printf("  %-40s -> %s [%s]\n", quote(r.Column), r.Field, r.Match)
	}

	return cw.err
}

func printInference(cw *consoleWriter, results []parsers.InferenceResult) {
	for _, r := range results {
		optional := ""
		if r.Optional {
			optional = " (opcional)"
		}

		switch r.Status {
		case parsers.StatusAmbiguous:
			cw.printf("  %-20s %-9s candidates: %s%s\n", r.Field, r.Status, strings.Join(quoteAll(r.Candidates), ", "), optional)
		case parsers.StatusMissing:
			cw.printf("  %-20s %-9s%s\n", r.Field, r.Status, optional)
		default:
			cw.printf("  %-20s %-9s %s%s\n", r.Field, r.Status, quote(r.Column), optional)
		}
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = quote(s)
	}
	return out
}
