// Package scenarios generates sample input sets for the reconciler: an
// invoices table, a withholdings table and an import template, together with
// the outcome expected for every invoice. The files are useful to try the
// command line and serve as end-to-end fixtures in tests.
package scenarios

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/classifier"
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// Scenario names
const (
	ScenarioBasic  = "basic"
	ScenarioRandom = "random"
)

// File names written by Scenario.Write, without extension
const (
	InvoicesFile     = "compras"
	WithholdingsFile = "percepciones"
	TemplateFile     = "plantilla"
)

// ExtraTemplateColumn is a template column no source can fill; generated
// templates carry it so the review path is exercised.
const ExtraTemplateColumn = "Observaciones internas"

// Names lists the scenarios Generate accepts
func Names() []string {
	return []string{ScenarioBasic, ScenarioRandom}
}

// Expectation is the outcome a correct run produces for one invoice
type Expectation struct {
	DocumentNumber   string
	SupplierTaxID    string
	FinalWithholding decimal.Decimal
	Inferred         bool
	Alert            bool
	// RegimeCode is empty when the row gets no classification
	RegimeCode string
}

// Scenario is one generated input set
type Scenario struct {
	Name         string
	Invoices     *models.OutputTable
	Withholdings *models.OutputTable
	Template     *models.OutputTable
	Expected     []Expectation
	// OrphanWithholdings counts withholding keys with no invoice
	OrphanWithholdings int
}

// regimeSample is a withholding descriptor and the code it classifies to
type regimeSample struct {
	taxType     string
	regime      string
	description string
	code        string
}

var regimeSamples = []regimeSample{
	{taxType: "IVA", regime: "493", description: "Percepcion IVA", code: "3337"},
	{taxType: "IIBB", regime: "", description: "Percepcion IIBB CABA", code: "IBCF"},
	{taxType: "IVA", regime: "140", description: "Liquidacion tarjetas", code: "140"},
}

// ScenarioGenerator creates scenarios from a seed
type ScenarioGenerator struct {
	Seed   int64
	rng    *rand.Rand
	logger logger.Logger
}

// NewScenarioGenerator creates a generator; the same seed yields the same
// random scenario.
func NewScenarioGenerator(seed int64) *ScenarioGenerator {
	return &ScenarioGenerator{
		Seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.GetGlobalLogger().WithComponent("scenarios"),
	}
}

// Generate builds the named scenario. count is the number of invoices of
// the random scenario and is ignored by the others.
func (sg *ScenarioGenerator) Generate(name string, count int) (*Scenario, error) {
	switch name {
	case ScenarioBasic:
		return sg.Basic(), nil
	case ScenarioRandom:
		if count < 1 {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "count", count, nil).
				WithSuggestion("the random scenario needs at least one invoice")
		}
		return sg.Random(count), nil
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "scenario", name, nil).
			WithSuggestion(fmt.Sprintf("valid scenarios: %s, %s", ScenarioBasic, ScenarioRandom))
	}
}

// Basic returns the hand-written scenario: one invoice per reconciliation
// case plus an orphan withholding.
func (sg *ScenarioGenerator) Basic() *Scenario {
	b := newBuilder(ScenarioBasic)

	// Declared perception matching the difference
	b.invoice("20-11111111-2", "0001-00000001", "Factura A", "1000", "210", "1231")
	b.withholding("20-11111111-2", "0001-00000001", regimeSamples[0], "21")
	b.expect("20-11111111-2", "0001-00000001", "21", false, false, "3337")

	// No perception row: inferred from the difference
	b.invoice("20-11111111-2", "0001-00000002", "Factura A", "500", "105", "620")
	b.expect("20-11111111-2", "0001-00000002", "15", true, false, classifier.UnmappedCode)

	// Difference within the inference tolerance
	b.invoice("30-22222222-3", "0002-00000010", "Factura B", "100", "0", "100.03")
	b.expect("30-22222222-3", "0002-00000010", "0", false, false, "")

	// Declared perception below the difference
	b.invoice("30-22222222-3", "0002-00000011", "Factura A", "100", "0", "115")
	b.withholding("30-22222222-3", "0002-00000011", regimeSamples[0], "10")
	b.expect("30-22222222-3", "0002-00000011", "10", false, true, "3337")

	// Two perception rows for one invoice, keys written differently
	b.invoice("27-33333333-4", "0003-00000100", "Factura A", "100", "0", "121")
	b.withholding("27-33333333-4", "0003-00000100", regimeSamples[1], "15")
	b.withholding("27333333334", "000300000100", regimeSamples[1], "6")
	b.expect("27-33333333-4", "0003-00000100", "21", false, false, "IBCF")

	// Credit note with a direct regime code
	b.invoice("27-33333333-4", "0003-00000101", "Nota de Credito A", "200", "42", "250")
	b.withholding("27-33333333-4", "0003-00000101", regimeSamples[2], "8")
	b.expect("27-33333333-4", "0003-00000101", "8", false, false, "140")

	// Perception for an invoice that is not in the file
	b.withholding("20-99999999-9", "0009-00000009", regimeSamples[0], "5")
	b.scenario.OrphanWithholdings = 1

	return b.scenario
}

// Random returns count invoices drawn from the seed. Each invoice is one of
// the declared, inferred, exact, alert or rounding-noise cases.
func (sg *ScenarioGenerator) Random(count int) *Scenario {
	b := newBuilder(ScenarioRandom)
	taxIDs := []string{"20-10000001-1", "20-10000002-2", "30-70000003-3", "30-70000004-4", "27-20000005-5"}
	documentTypes := []string{"Factura A", "Factura A", "Factura B", "Nota de Debito A"}

	for i := 0; i < count; i++ {
		taxID := taxIDs[sg.rng.Intn(len(taxIDs))]
		number := fmt.Sprintf("%04d-%08d", 1+sg.rng.Intn(5), i+1)
		docType := documentTypes[sg.rng.Intn(len(documentTypes))]

		net := decimal.New(int64(10000+sg.rng.Intn(990000)), -2)
		tax := net.Mul(decimal.RequireFromString("0.21")).Round(2)
		base := net.Add(tax)
		withheld := net.Mul(decimal.RequireFromString("0.03")).Round(2)
		sample := regimeSamples[sg.rng.Intn(len(regimeSamples))]

		switch kind := sg.rng.Intn(10); {
		case kind < 4: // declared in one row
			b.invoiceAmounts(taxID, number, docType, net, tax, base.Add(withheld))
			b.withholdingAmount(taxID, number, sample, withheld)
			b.expectAmount(taxID, number, withheld, false, false, sample.code)

		case kind == 4: // declared in two rows
			first := withheld.Div(decimal.NewFromInt(3)).Round(2)
			b.invoiceAmounts(taxID, number, docType, net, tax, base.Add(withheld))
			b.withholdingAmount(taxID, number, sample, first)
			b.withholdingAmount(taxID, number, sample, withheld.Sub(first))
			b.expectAmount(taxID, number, withheld, false, false, sample.code)

		case kind < 7: // missing, inferred
			b.invoiceAmounts(taxID, number, docType, net, tax, base.Add(withheld))
			b.expectAmount(taxID, number, withheld, true, false, classifier.UnmappedCode)

		case kind == 7: // no perception at all
			b.invoiceAmounts(taxID, number, docType, net, tax, base)
			b.expectAmount(taxID, number, decimal.Zero, false, false, "")

		case kind == 8: // declared, residual left
			extra := decimal.New(int64(100+sg.rng.Intn(4900)), -2)
			b.invoiceAmounts(taxID, number, docType, net, tax, base.Add(withheld).Add(extra))
			b.withholdingAmount(taxID, number, sample, withheld)
			b.expectAmount(taxID, number, withheld, false, true, sample.code)

		default: // rounding noise below both tolerances
			b.invoiceAmounts(taxID, number, docType, net, tax, base.Add(decimal.RequireFromString("0.03")))
			b.expectAmount(taxID, number, decimal.Zero, false, false, "")
		}
	}

	orphans := count / 10
	for i := 0; i < orphans; i++ {
		b.withholdingAmount(taxIDs[0], fmt.Sprintf("9999-%08d", i+1), regimeSamples[0], decimal.NewFromInt(1))
	}
	b.scenario.OrphanWithholdings = orphans

	sg.logger.WithFields(logger.Fields{
		"seed":         sg.Seed,
		"invoices":     count,
		"withholdings": b.scenario.Withholdings.Len(),
	}).Debug("Random scenario generated")

	return b.scenario
}

// Write saves the three tables in dir as compras, percepciones and plantilla
// with the extension of format, and returns their paths.
func (s *Scenario) Write(dir string, format reporter.TemplateFormat) (parsers.InputFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return parsers.InputFiles{}, errors.OutputError(dir, err)
	}

	writerConfig := reporter.DefaultWriterConfig()
	writerConfig.Format = format
	writer, err := reporter.NewTemplateWriter(writerConfig)
	if err != nil {
		return parsers.InputFiles{}, err
	}

	ext := "." + string(format)
	files := parsers.InputFiles{
		Invoices:     filepath.Join(dir, InvoicesFile+ext),
		Withholdings: filepath.Join(dir, WithholdingsFile+ext),
		Template:     filepath.Join(dir, TemplateFile+ext),
	}

	for _, out := range []struct {
		path  string
		table *models.OutputTable
	}{
		{files.Invoices, s.Invoices},
		{files.Withholdings, s.Withholdings},
		{files.Template, s.Template},
	} {
		if err := writer.WriteFile(out.path, out.table); err != nil {
			return parsers.InputFiles{}, err
		}
	}

	return files, nil
}

// builder accumulates the tables of a scenario
type builder struct {
	scenario *Scenario
}

func newBuilder(name string) *builder {
	return &builder{scenario: &Scenario{
		Name:         name,
		Invoices:     &models.OutputTable{Headers: schemaLabels(parsers.InvoiceSchema)},
		Withholdings: &models.OutputTable{Headers: schemaLabels(parsers.WithholdingSchema)},
		Template:     &models.OutputTable{Headers: templateHeaders()},
	}}
}

func (b *builder) invoice(taxID, number, docType, net, tax, total string) {
	b.invoiceAmounts(taxID, number, docType,
		decimal.RequireFromString(net), decimal.RequireFromString(tax), decimal.RequireFromString(total))
}

func (b *builder) invoiceAmounts(taxID, number, docType string, net, tax, total decimal.Decimal) {
	pointOfSale, _, _ := strings.Cut(number, "-")
	values := map[string]interface{}{
		parsers.FieldEmissionDate:   "15/03/2024",
		parsers.FieldDocumentType:   docType,
		parsers.FieldPointOfSale:    pointOfSale,
		parsers.FieldDocumentNumber: number,
		parsers.FieldSupplierTaxID:  taxID,
		parsers.FieldSupplierName:   "Proveedor " + taxID,
		parsers.FieldNetAmount:      net,
		parsers.FieldTaxAmount:      tax,
		parsers.FieldExemptAmount:   decimal.Zero,
		parsers.FieldNonTaxedAmount: decimal.Zero,
		parsers.FieldTotalAmount:    total,
		parsers.FieldCurrency:       "PES",
		parsers.FieldExchangeRate:   decimal.NewFromInt(1),
	}
	b.scenario.Invoices.Rows = append(b.scenario.Invoices.Rows, schemaRow(parsers.InvoiceSchema, values))
}

func (b *builder) withholding(taxID, number string, sample regimeSample, amount string) {
	b.withholdingAmount(taxID, number, sample, decimal.RequireFromString(amount))
}

func (b *builder) withholdingAmount(taxID, number string, sample regimeSample, amount decimal.Decimal) {
	values := map[string]interface{}{
		parsers.FieldAgentTaxID:        taxID,
		parsers.FieldDocumentNumber:    number,
		parsers.FieldTaxType:           sample.taxType,
		parsers.FieldRegime:            sample.regime,
		parsers.FieldRegimeDescription: sample.description,
		parsers.FieldWithheldAmount:    amount,
	}
	b.scenario.Withholdings.Rows = append(b.scenario.Withholdings.Rows, schemaRow(parsers.WithholdingSchema, values))
}

func (b *builder) expect(taxID, number, final string, inferred, alert bool, code string) {
	b.expectAmount(taxID, number, decimal.RequireFromString(final), inferred, alert, code)
}

func (b *builder) expectAmount(taxID, number string, final decimal.Decimal, inferred, alert bool, code string) {
	b.scenario.Expected = append(b.scenario.Expected, Expectation{
		DocumentNumber:   number,
		SupplierTaxID:    taxID,
		FinalWithholding: final,
		Inferred:         inferred,
		Alert:            alert,
		RegimeCode:       code,
	})
}

func schemaLabels(schema parsers.TableSchema) []string {
	labels := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		labels[i] = f.Label
	}
	return labels
}

// schemaRow lays values out in schema order; missing fields stay blank
func schemaRow(schema parsers.TableSchema, values map[string]interface{}) []interface{} {
	row := make([]interface{}, len(schema.Fields))
	for i, f := range schema.Fields {
		row[i] = values[f.Name]
	}
	return row
}

// templateHeaders returns one column per source field, in catalog order,
// plus ExtraTemplateColumn.
func templateHeaders() []string {
	seen := make(map[string]bool)
	var headers []string
	for _, s := range parsers.TemplateSources {
		if seen[s.Field] {
			continue
		}
		seen[s.Field] = true
		headers = append(headers, s.Label)
	}
	return append(headers, ExtraTemplateColumn)
}
