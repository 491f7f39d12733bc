package parsers

import (
	"strings"

	"golang-withholding-reconciler/pkg/errors"
)

// Source fields of a reconciled row that a template column can be filled from
const (
	SourceEmissionDate      = "emission_date"
	SourceDocumentKind      = "document_kind"
	SourceDocumentLetter    = "document_letter"
	SourcePointOfSale       = "point_of_sale"
	SourceDocumentNumber    = "document_number"
	SourceAuthorizationCode = "authorization_code"
	SourceSupplierName      = "supplier_name"
	SourceSupplierTaxID     = "supplier_tax_id"
	SourceTaxStatus         = "tax_status"
	SourceExchangeRate      = "exchange_rate"
	SourceCurrency          = "currency"
	SourceNetAmount         = "net_amount"
	SourceTaxAmount         = "tax_amount"
	SourceExemptAmount      = "exempt_amount"
	SourceNonTaxedAmount    = "non_taxed_amount"
	SourceWithholding       = "withholding_amount"
	SourceTotalAmount       = "total_amount"
	SourceConceptCode       = "concept_code"
	SourceProvince          = "province"
	SourceRegimeCode        = "regime_code"
	SourceRegimeArticle     = "regime_article"
	SourceRegimeDescription = "regime_description"
	SourceAlert             = "alert"
)

// TemplateSource ties a template column label to the source field that
// fills it. Alias is the internal column name some templates carry instead.
type TemplateSource struct {
	Label string
	Field string
	Alias string
}

// TemplateSources is the catalog of known template columns, in the order
// used for inference. Two labels may share a field.
var TemplateSources = []TemplateSource{
	{Label: "Fecha de Emisión", Field: SourceEmissionDate, Alias: "Fecha de Emisión"},
	{Label: "Tipo de Comprobante", Field: SourceDocumentKind, Alias: "TIPO_COMPROBANTE_ESTANDAR"},
	{Label: "Letra", Field: SourceDocumentLetter, Alias: "LETRA_COMPROBANTE_ESTANDAR"},
	{Label: "Punto de Venta", Field: SourcePointOfSale, Alias: "Punto de Venta"},
	{Label: "Número", Field: SourceDocumentNumber, Alias: "Número"},
	{Label: "Número de CAI", Field: SourceAuthorizationCode, Alias: "Número de CAI"},
	{Label: "Razón social del Provedor", Field: SourceSupplierName, Alias: "Razón social del Provedor"},
	{Label: "CUIT", Field: SourceSupplierTaxID, Alias: "CUIT del Proveedor"},
	{Label: "Número de Documento del Cliente", Field: SourceSupplierTaxID, Alias: "CUIT del Proveedor"},
	{Label: "Situación de IVA del Proveedor", Field: SourceTaxStatus, Alias: "SITUACION_IVA_ESTANDAR"},
	{Label: "Cotización", Field: SourceExchangeRate, Alias: "Cotización"},
	{Label: "Moneda", Field: SourceCurrency, Alias: "Moneda"},
	{Label: "Importe Neto", Field: SourceNetAmount, Alias: "Importe Neto"},
	{Label: "IVA Inscripto", Field: SourceTaxAmount, Alias: "IVA Inscripto"},
	{Label: "Importe Exento", Field: SourceExemptAmount, Alias: "Importe Exento"},
	{Label: "Impuestos Internos / No Gravado", Field: SourceNonTaxedAmount, Alias: "Impuestos Internos / No Gravado"},
	{Label: "Importe Percepción", Field: SourceWithholding, Alias: "PERCEPCION_FINAL"},
	{Label: "Importe Total del Comprobante", Field: SourceTotalAmount, Alias: "Importe Total del Comprobante"},
	{Label: "Código de Concepto / Artículo", Field: SourceConceptCode, Alias: "Código de Concepto / Artículo"},
	{Label: "Provincia IIBB", Field: SourceProvince, Alias: "Provincia IIBB"},
	{Label: "Cód. Regimen Especial", Field: SourceRegimeCode, Alias: "COD_REGIMEN_ONVIO"},
	{Label: "Art. Regimen Especial", Field: SourceRegimeArticle, Alias: "ART_REGIMEN_ONVIO"},
	{Label: "Desc. Regimen Especial", Field: SourceRegimeDescription, Alias: "DESC_REGIMEN_ONVIO"},
	{Label: "Alerta / Observación", Field: SourceAlert, Alias: "ALERTA_DIFERENCIA_FINAL"},
}

// IsSourceField reports whether name is a field a template column can use
func IsSourceField(name string) bool {
	for _, s := range TemplateSources {
		if s.Field == name {
			return true
		}
	}
	return false
}

// ResolveSourceField accepts either a source field name or one of the
// catalog labels and returns the field name.
func ResolveSourceField(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if IsSourceField(name) {
		return name, true
	}
	for _, s := range TemplateSources {
		if strings.EqualFold(s.Label, name) {
			return s.Field, true
		}
	}
	return "", false
}

// TemplateMapping maps each destination column of the template to the
// source field that fills it. Unmapped columns stay empty in every row.
type TemplateMapping struct {
	Columns []string          `json:"columns"`
	Sources map[string]string `json:"sources"`
}

// NewTemplateMapping creates a mapping with every template column unmapped
func NewTemplateMapping(columns []string) *TemplateMapping {
	return &TemplateMapping{
		Columns: append([]string(nil), columns...),
		Sources: make(map[string]string),
	}
}

// Set assigns a source field to a destination column. An empty source
// unmaps the column. Unknown columns or fields are configuration errors.
func (m *TemplateMapping) Set(column, source string) error {
	if !m.hasColumn(column) {
		return errors.ConfigurationError(errors.CodeUnknownField, "template", column, nil)
	}

	if strings.TrimSpace(source) == "" {
		delete(m.Sources, column)
		return nil
	}

	field, ok := ResolveSourceField(source)
	if !ok {
		return errors.ConfigurationError(errors.CodeUnknownField, "template."+column, source, nil)
	}
	m.Sources[column] = field
	return nil
}

// Source returns the field that fills a destination column
func (m *TemplateMapping) Source(column string) (string, bool) {
	field, ok := m.Sources[column]
	return field, ok && field != ""
}

// Unmapped returns the destination columns without a source, in order
func (m *TemplateMapping) Unmapped() []string {
	var out []string
	for _, c := range m.Columns {
		if _, ok := m.Source(c); !ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *TemplateMapping) hasColumn(column string) bool {
	for _, c := range m.Columns {
		if c == column {
			return true
		}
	}
	return false
}
