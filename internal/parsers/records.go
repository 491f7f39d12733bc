package parsers

import (
	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/classifier"
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// columnResolver maps logical fields to column positions of one table. A
// field whose column is unmapped, or optional and missing from the table,
// resolves to -1 and reads as absent.
type columnResolver struct {
	table   *models.Table
	indexes map[string]int
}

func newColumnResolver(table *models.Table, mapping *ColumnMapping, schema TableSchema) (*columnResolver, error) {
	if err := mapping.Validate(schema); err != nil {
		return nil, err
	}

	r := &columnResolver{table: table, indexes: make(map[string]int, len(schema.Fields))}
	for _, field := range schema.Fields {
		column, ok := mapping.Column(field.Name)
		if !ok {
			r.indexes[field.Name] = -1
			continue
		}
		idx := table.ColumnIndex(column)
		if idx < 0 {
			if !field.Optional {
				return nil, errors.DataShapeError(schema.Table, field.Name, column)
			}
			logger.GetGlobalLogger().WithComponent("record_builder").WithFields(logger.Fields{
				"table":  schema.Table,
				"field":  field.Name,
				"column": column,
			}).Warn("Optional column not present in data, treating as empty")
		}
		r.indexes[field.Name] = idx
	}
	return r, nil
}

func (r *columnResolver) value(row int, field string) string {
	idx, ok := r.indexes[field]
	if !ok || idx < 0 {
		return ""
	}
	return r.table.Cell(row, idx)
}

func (r *columnResolver) amount(row int, field string) decimal.Decimal {
	return models.ParseAmount(r.value(row, field))
}

// BuildInvoices turns every row of the invoices table into an InvoiceRecord
// with its derived document kind, letter, tax status and join key. It fails
// with a mapping error when mandatory fields are unmapped, and with a data
// shape error when a mandatory mapped column is not in the table.
func BuildInvoices(table *models.Table, mapping *ColumnMapping, separator string) ([]models.InvoiceRecord, error) {
	resolver, err := newColumnResolver(table, mapping, InvoiceSchema)
	if err != nil {
		return nil, err
	}

	records := make([]models.InvoiceRecord, 0, table.Len())
	for i := range table.Rows {
		rec := models.InvoiceRecord{
			Row:               table.Line(i),
			EmissionDate:      resolver.value(i, FieldEmissionDate),
			DocumentType:      resolver.value(i, FieldDocumentType),
			PointOfSale:       resolver.value(i, FieldPointOfSale),
			DocumentNumber:    resolver.value(i, FieldDocumentNumber),
			SupplierTaxID:     resolver.value(i, FieldSupplierTaxID),
			SupplierName:      resolver.value(i, FieldSupplierName),
			NetAmount:         resolver.amount(i, FieldNetAmount),
			TaxAmount:         resolver.amount(i, FieldTaxAmount),
			ExemptAmount:      resolver.amount(i, FieldExemptAmount),
			NonTaxedAmount:    resolver.amount(i, FieldNonTaxedAmount),
			TotalAmount:       resolver.amount(i, FieldTotalAmount),
			AuthorizationCode: resolver.value(i, FieldAuthorizationCode),
			ExchangeRate:      resolver.value(i, FieldExchangeRate),
			Currency:          resolver.value(i, FieldCurrency),
			ConceptCode:       resolver.value(i, FieldConceptCode),
			Province:          resolver.value(i, FieldProvince),
		}
		rec.Kind, rec.Letter = classifier.ExtractKindAndLetter(rec.DocumentType)
		rec.TaxStatus = classifier.DetermineTaxStatus(rec.SupplierTaxID, rec.DocumentType)
		rec.AssignKey(separator)
		records = append(records, rec)
	}

	return records, nil
}

// BuildWithholdings turns every row of the withholdings table into a
// WithholdingRecord with its join key. Errors as in BuildInvoices.
func BuildWithholdings(table *models.Table, mapping *ColumnMapping, separator string) ([]models.WithholdingRecord, error) {
	resolver, err := newColumnResolver(table, mapping, WithholdingSchema)
	if err != nil {
		return nil, err
	}

	records := make([]models.WithholdingRecord, 0, table.Len())
	for i := range table.Rows {
		rec := models.WithholdingRecord{
			Row:               table.Line(i),
			AgentTaxID:        resolver.value(i, FieldAgentTaxID),
			DocumentNumber:    resolver.value(i, FieldDocumentNumber),
			TaxType:           resolver.value(i, FieldTaxType),
			TaxDescription:    resolver.value(i, FieldTaxDescription),
			Regime:            resolver.value(i, FieldRegime),
			RegimeDescription: resolver.value(i, FieldRegimeDescription),
			Amount:            resolver.amount(i, FieldWithheldAmount),
		}
		rec.AssignKey(separator)
		records = append(records, rec)
	}

	return records, nil
}
