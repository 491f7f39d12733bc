package reconciler

import (
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/parsers"
)

// ProjectRows lays reconciled rows out in the template's columns. A column
// with a source field gets that field's value when present; every other cell
// is nil and stays empty in the written file.
func ProjectRows(rows []models.ReconciledRow, columns []string, mapping *parsers.TemplateMapping) *models.OutputTable {
	out := &models.OutputTable{
		Headers: append([]string(nil), columns...),
		Rows:    make([][]interface{}, 0, len(rows)),
	}

	sources := make([]string, len(columns))
	for i, column := range columns {
		if mapping == nil {
			continue
		}
		if field, ok := mapping.Source(column); ok {
			sources[i] = field
		}
	}

	for i := range rows {
		cells := make([]interface{}, len(columns))
		for j, field := range sources {
			if field == "" {
				continue
			}
			cells[j] = SourceValue(&rows[i], field)
		}
		out.Rows = append(out.Rows, cells)
	}

	return out
}

// SourceValue returns the value of a source field for a reconciled row: a
// string, a decimal.Decimal, or nil when the value is absent.
func SourceValue(row *models.ReconciledRow, field string) interface{} {
	inv := &row.Invoice

	switch field {
	case parsers.SourceEmissionDate:
		return text(inv.EmissionDate)
	case parsers.SourceDocumentKind:
		return text(inv.Kind)
	case parsers.SourceDocumentLetter:
		return text(inv.Letter)
	case parsers.SourcePointOfSale:
		return text(inv.PointOfSale)
	case parsers.SourceDocumentNumber:
		return text(inv.DocumentNumber)
	case parsers.SourceAuthorizationCode:
		return text(inv.AuthorizationCode)
	case parsers.SourceSupplierName:
		return text(inv.SupplierName)
	case parsers.SourceSupplierTaxID:
		return text(inv.SupplierTaxID)
	case parsers.SourceTaxStatus:
		return text(inv.TaxStatus)
	case parsers.SourceExchangeRate:
		return text(inv.ExchangeRate)
	case parsers.SourceCurrency:
		return text(inv.Currency)
	case parsers.SourceNetAmount:
		return inv.NetAmount
	case parsers.SourceTaxAmount:
		return inv.TaxAmount
	case parsers.SourceExemptAmount:
		return inv.ExemptAmount
	case parsers.SourceNonTaxedAmount:
		return inv.NonTaxedAmount
	case parsers.SourceWithholding:
		return row.FinalWithholding
	case parsers.SourceTotalAmount:
		return inv.TotalAmount
	case parsers.SourceConceptCode:
		return text(inv.ConceptCode)
	case parsers.SourceProvince:
		return text(inv.Province)
	case parsers.SourceRegimeCode:
		if row.Regime == nil {
			return nil
		}
		return text(row.Regime.Code)
	case parsers.SourceRegimeArticle:
		if row.Regime == nil {
			return nil
		}
		return text(row.Regime.Article)
	case parsers.SourceRegimeDescription:
		if row.Regime == nil {
			return nil
		}
		return text(row.Regime.Description)
	case parsers.SourceAlert:
		return text(row.Alert)
	default:
		return nil
	}
}

// text maps an empty string to nil so absent values leave the cell empty
func text(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
