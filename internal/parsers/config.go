package parsers

import (
	"fmt"
	"sort"
	"strings"

	"golang-withholding-reconciler/pkg/errors"
)

// Table names used in mappings, errors and logs
const (
	TableInvoices     = "invoices"
	TableWithholdings = "withholdings"
	TableTemplate     = "template"
)

// FieldDef describes one logical field of an input table and the header
// spellings it is commonly exported under.
type FieldDef struct {
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label" yaml:"label"`
	Variants []string `json:"variants" yaml:"variants"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// TableSchema is the ordered set of logical fields of an input table
type TableSchema struct {
	Table  string
	Fields []FieldDef
}

// Invoice field names
const (
	FieldEmissionDate      = "emission_date"
	FieldDocumentType      = "document_type"
	FieldPointOfSale       = "point_of_sale"
	FieldDocumentNumber    = "document_number"
	FieldSupplierTaxID     = "supplier_tax_id"
	FieldSupplierName      = "supplier_name"
	FieldNetAmount         = "net_amount"
	FieldTaxAmount         = "tax_amount"
	FieldExemptAmount      = "exempt_amount"
	FieldNonTaxedAmount    = "non_taxed_amount"
	FieldTotalAmount       = "total_amount"
	FieldAuthorizationCode = "authorization_code"
	FieldExchangeRate      = "exchange_rate"
	FieldCurrency          = "currency"
	FieldConceptCode       = "concept_code"
	FieldProvince          = "province"
)

// Withholding field names
const (
	FieldAgentTaxID        = "agent_tax_id"
	FieldTaxType           = "tax_type"
	FieldTaxDescription    = "tax_description"
	FieldRegime            = "regime"
	FieldRegimeDescription = "regime_description"
	FieldWithheldAmount    = "withheld_amount"
)

// InvoiceSchema lists the fields of the purchase invoices export
var InvoiceSchema = TableSchema{
	Table: TableInvoices,
	Fields: []FieldDef{
		{Name: FieldEmissionDate, Label: "Fecha de Emisión", Variants: []string{"Fecha de Emisión", "Fecha Emision", "Fecha", "F. Emision"}},
		{Name: FieldDocumentType, Label: "Tipo de Comprobante", Variants: []string{"Tipo de Comprobante (AFIP - Mis Comprobantes)", "Tipo Comprobante", "Tipo", "Tipo de Comprobante"}},
		{Name: FieldPointOfSale, Label: "Punto de Venta", Variants: []string{"Punto de Venta", "Pto Vta", "PV"}},
		{Name: FieldDocumentNumber, Label: "Número", Variants: []string{"Número", "Numero Comprobante", "Comprobante", "Nro Comprobante", "Nro. Comprobante"}},
		{Name: FieldSupplierTaxID, Label: "CUIT del Proveedor", Variants: []string{"CUIT del Proveedor", "CUIT Proveedor", "CUIT", "Cuit del Proveedor"}},
		{Name: FieldSupplierName, Label: "Razón social del Provedor", Variants: []string{"Razón social del Provedor", "Razon Social Proveedor", "Razon Social", "Proveedor"}},
		{Name: FieldNetAmount, Label: "Importe Neto", Variants: []string{"Importe Neto", "Neto Gravado", "Neto"}},
		{Name: FieldTaxAmount, Label: "IVA Inscripto", Variants: []string{"IVA Inscripto", "IVA", "IVA 21%", "IVA 10.5%"}},
		{Name: FieldExemptAmount, Label: "Importe Exento", Variants: []string{"Importe Exento", "Exento"}},
		{Name: FieldNonTaxedAmount, Label: "Impuestos Internos / No Gravado", Variants: []string{"Impuestos Internos / No Gravado", "Impuestos Internos", "No Gravado"}},
		{Name: FieldTotalAmount, Label: "Importe Total del Comprobante", Variants: []string{"Importe Total del Comprobante", "Total Comprobante", "Importe Total"}},
		{Name: FieldAuthorizationCode, Label: "Número de CAI", Variants: []string{"Número de CAI", "CAI", "Nro CAI"}, Optional: true},
		{Name: FieldExchangeRate, Label: "Cotización", Variants: []string{"Cotización", "Cotizacion"}, Optional: true},
		{Name: FieldCurrency, Label: "Moneda", Variants: []string{"Moneda", "Tipo Moneda"}, Optional: true},
		{Name: FieldConceptCode, Label: "Código de Concepto / Artículo", Variants: []string{"Código de Concepto / Artículo", "Cod Concepto", "Concepto"}, Optional: true},
		{Name: FieldProvince, Label: "Provincia IIBB", Variants: []string{"Provincia IIBB", "Provincia"}, Optional: true},
	},
}

// WithholdingSchema lists the fields of the perceptions/withholdings export.
// Every field is mandatory.
var WithholdingSchema = TableSchema{
	Table: TableWithholdings,
	Fields: []FieldDef{
		{Name: FieldAgentTaxID, Label: "CUIT Agente Ret./Perc.", Variants: []string{"CUIT Agente Ret./Perc.", "CUIT Agente", "CUIT"}},
		{Name: FieldDocumentNumber, Label: "Número Comprobante", Variants: []string{"Número Comprobante", "Nro Comprobante", "Comprobante"}},
		{Name: FieldTaxType, Label: "Impuesto", Variants: []string{"Impuesto", "Tipo Impuesto"}},
		{Name: FieldTaxDescription, Label: "Descripción Impuesto", Variants: []string{"Descripción Impuesto", "Descripcion Impuesto", "Impuesto Descripcion"}},
		{Name: FieldRegime, Label: "Régimen", Variants: []string{"Régimen", "Regimen", "Codigo Regimen"}},
		{Name: FieldRegimeDescription, Label: "Descripción Régimen", Variants: []string{"Descripción Régimen", "Descripcion Regimen", "Regimen Descripcion"}},
		{Name: FieldWithheldAmount, Label: "Importe Ret./Perc.", Variants: []string{"Importe Ret./Perc.", "Importe Percepcion", "Percepcion", "Importe"}},
	},
}

// Field returns the definition of a field by name
func (s *TableSchema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Mandatory returns the names of the fields that must be mapped
func (s *TableSchema) Mandatory() []string {
	var names []string
	for _, f := range s.Fields {
		if !f.Optional {
			names = append(names, f.Name)
		}
	}
	return names
}

// WithExtraVariants returns a copy of the schema where the given variants are
// appended to each field's own list. Unknown field names are rejected.
func (s TableSchema) WithExtraVariants(extra map[string][]string) (TableSchema, error) {
	out := TableSchema{Table: s.Table, Fields: make([]FieldDef, len(s.Fields))}
	for i, f := range s.Fields {
		f.Variants = append([]string(nil), f.Variants...)
		out.Fields[i] = f
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		found := false
		for i := range out.Fields {
			if out.Fields[i].Name == name {
				out.Fields[i].Variants = append(out.Fields[i].Variants, extra[name]...)
				found = true
				break
			}
		}
		if !found {
			return s, errors.ConfigurationError(errors.CodeUnknownField, "variants."+s.Table, name, nil)
		}
	}

	return out, nil
}

// SchemaFor returns the schema of an input table by name
func SchemaFor(table string) (TableSchema, error) {
	switch table {
	case TableInvoices:
		return InvoiceSchema, nil
	case TableWithholdings:
		return WithholdingSchema, nil
	default:
		return TableSchema{}, fmt.Errorf("unknown table: %s", table)
	}
}

// ColumnMapping resolves each logical field of a table to a source column.
// A field that is absent from Columns, or mapped to "", is unmapped.
type ColumnMapping struct {
	Table   string            `json:"table" yaml:"table"`
	Columns map[string]string `json:"columns" yaml:"columns"`
}

// NewColumnMapping creates an empty mapping for a table
func NewColumnMapping(table string) *ColumnMapping {
	return &ColumnMapping{
		Table:   table,
		Columns: make(map[string]string),
	}
}

// Set maps a field to a column; an empty column unmaps the field
func (m *ColumnMapping) Set(field, column string) {
	column = strings.TrimSpace(column)
	if column == "" {
		delete(m.Columns, field)
		return
	}
	m.Columns[field] = column
}

// Column returns the source column of a field
func (m *ColumnMapping) Column(field string) (string, bool) {
	column, ok := m.Columns[field]
	if !ok || column == "" {
		return "", false
	}
	return column, true
}

// Missing returns the mandatory fields of the schema that are unmapped, in
// schema order.
func (m *ColumnMapping) Missing(schema TableSchema) []string {
	var missing []string
	for _, name := range schema.Mandatory() {
		if _, ok := m.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Validate fails with a mapping error enumerating every unmapped mandatory
// field.
func (m *ColumnMapping) Validate(schema TableSchema) error {
	if missing := m.Missing(schema); len(missing) > 0 {
		return errors.MappingError(schema.Table, missing)
	}
	return nil
}
