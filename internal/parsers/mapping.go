package parsers

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"golang-withholding-reconciler/pkg/errors"
)

// MappingFile is the manual column selection for a run, read from YAML.
//
//	invoices:
//	  document_number: "Nro. Comprobante"
//	  province: ""            # explicitly unmapped
//	withholdings:
//	  regime: "Cod. Regimen"
//	template:
//	  "Cód. Regimen Especial": regime_code
//	  "Observaciones": ""
//	variants:
//	  invoices:
//	    supplier_tax_id: ["CUIT Prov"]
//
// Values override inference; an empty string unmaps the field or column.
type MappingFile struct {
	Invoices     map[string]string              `yaml:"invoices,omitempty"`
	Withholdings map[string]string              `yaml:"withholdings,omitempty"`
	Template     map[string]string              `yaml:"template,omitempty"`
	Variants     map[string]map[string][]string `yaml:"variants,omitempty"`
}

// NewMappingFile creates an empty mapping
func NewMappingFile() *MappingFile {
	return &MappingFile{
		Invoices:     make(map[string]string),
		Withholdings: make(map[string]string),
		Template:     make(map[string]string),
		Variants:     make(map[string]map[string][]string),
	}
}

// LoadMappingFile reads and validates a YAML mapping file
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "mapping", path, err).
			WithSuggestion("check that the mapping file exists and is readable")
	}
	return ParseMappingFile(data)
}

// ParseMappingFile decodes a YAML mapping document. Unknown top-level keys
// are rejected.
func ParseMappingFile(data []byte) (*MappingFile, error) {
	m := NewMappingFile()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(m); err != nil && err != io.EOF {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "mapping", "yaml", err).
			WithSuggestion("the mapping file must contain the keys invoices, withholdings, template or variants")
	}
	m.ensureMaps()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MappingFile) ensureMaps() {
	if m.Invoices == nil {
		m.Invoices = make(map[string]string)
	}
	if m.Withholdings == nil {
		m.Withholdings = make(map[string]string)
	}
	if m.Template == nil {
		m.Template = make(map[string]string)
	}
	if m.Variants == nil {
		m.Variants = make(map[string]map[string][]string)
	}
}

// Validate checks that every field and template source named in the file
// exists. Template destination columns are checked later against the
// actual template.
func (m *MappingFile) Validate() error {
	for _, table := range []string{TableInvoices, TableWithholdings} {
		schema, _ := SchemaFor(table)
		for _, field := range sortedKeys(m.fieldsOf(table)) {
			if _, ok := schema.Field(field); !ok {
				return errors.ConfigurationError(errors.CodeUnknownField, table, field, nil)
			}
		}
	}

	for _, table := range sortedKeys(m.Variants) {
		schema, err := SchemaFor(table)
		if err != nil {
			return errors.ConfigurationError(errors.CodeUnknownField, "variants", table, nil)
		}
		if _, err := schema.WithExtraVariants(m.Variants[table]); err != nil {
			return err
		}
	}

	for _, column := range sortedKeys(m.Template) {
		source := m.Template[column]
		if strings.TrimSpace(source) == "" {
			continue
		}
		if _, ok := ResolveSourceField(source); !ok {
			return errors.ConfigurationError(errors.CodeUnknownField, "template."+column, source, nil)
		}
	}

	return nil
}

func (m *MappingFile) fieldsOf(table string) map[string]string {
	switch table {
	case TableInvoices:
		return m.Invoices
	case TableWithholdings:
		return m.Withholdings
	case TableTemplate:
		return m.Template
	default:
		return nil
	}
}

// Overrides returns the manual selections for a table
func (m *MappingFile) Overrides(table string) map[string]string {
	return m.fieldsOf(table)
}

// Schema returns the table's schema with any extra variants applied
func (m *MappingFile) Schema(table string) (TableSchema, error) {
	schema, err := SchemaFor(table)
	if err != nil {
		return TableSchema{}, err
	}
	return schema.WithExtraVariants(m.Variants[table])
}

// Merge applies other on top of m. Later selections win.
func (m *MappingFile) Merge(other *MappingFile) {
	if other == nil {
		return
	}
	m.ensureMaps()
	for k, v := range other.Invoices {
		m.Invoices[k] = v
	}
	for k, v := range other.Withholdings {
		m.Withholdings[k] = v
	}
	for k, v := range other.Template {
		m.Template[k] = v
	}
	for table, fields := range other.Variants {
		if m.Variants[table] == nil {
			m.Variants[table] = make(map[string][]string)
		}
		for field, variants := range fields {
			m.Variants[table][field] = append(m.Variants[table][field], variants...)
		}
	}
}

// ParseOverrides parses "table.field=Column" selections as given on the
// command line. The field part runs up to the '=' so template columns may
// contain dots and spaces.
func ParseOverrides(values []string) (*MappingFile, error) {
	m := NewMappingFile()
	for _, raw := range values {
		lhs, column, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "set", raw, nil).
				WithSuggestion("use the form table.field=Column, e.g. invoices.document_number=\"Nro. Comprobante\"")
		}
		table, field, ok := strings.Cut(strings.TrimSpace(lhs), ".")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "set", raw, nil).
				WithSuggestion("use the form table.field=Column")
		}

		target := m.fieldsOf(strings.ToLower(strings.TrimSpace(table)))
		if target == nil {
			return nil, errors.ConfigurationError(errors.CodeUnknownField, "set", table, nil).
				WithSuggestion(fmt.Sprintf("table must be one of %s, %s, %s", TableInvoices, TableWithholdings, TableTemplate))
		}
		target[strings.TrimSpace(field)] = strings.TrimSpace(column)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
