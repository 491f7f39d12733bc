package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is an in-memory spreadsheet: a trimmed header row followed by data
// rows of raw string cells. Empty or whitespace-only cells are treated as
// absent.
type Table struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
	// Lines holds the source line of each data row when rows were dropped
	// while reading; nil means row i sits on line i+2.
	Lines []int `json:"lines,omitempty"`
}

// NewTable creates a Table, trimming header names and padding short rows so
// every row has one cell per header.
func NewTable(name string, headers []string, rows [][]string) *Table {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(cleaned) {
			full := make([]string, len(cleaned))
			copy(full, row)
			row = full
		}
		padded = append(padded, row)
	}

	return &Table{Name: name, Headers: cleaned, Rows: padded}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Line returns the 1-based source line of data row i
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// ColumnIndex returns the position of the header with exactly the given name,
// or -1 when the table has no such column.
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries a header with the given name
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the trimmed value at row/column, or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// InvoiceRecord is one purchase document read from the invoices table.
type InvoiceRecord struct {
	Row               int             `json:"row"`
	EmissionDate      string          `json:"emission_date,omitempty"`
	DocumentType      string          `json:"document_type,omitempty"`
	PointOfSale       string          `json:"point_of_sale,omitempty"`
	DocumentNumber    string          `json:"document_number,omitempty"`
	SupplierTaxID     string          `json:"supplier_tax_id,omitempty"`
	SupplierName      string          `json:"supplier_name,omitempty"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	ExemptAmount      decimal.Decimal `json:"exempt_amount"`
	NonTaxedAmount    decimal.Decimal `json:"non_taxed_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	AuthorizationCode string          `json:"authorization_code,omitempty"`
	ExchangeRate      string          `json:"exchange_rate,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	ConceptCode       string          `json:"concept_code,omitempty"`
	Province          string          `json:"province,omitempty"`

	Kind             string `json:"kind"`
	Letter           string `json:"letter"`
	TaxStatus        string `json:"tax_status"`
	NormalizedTaxID  string `json:"normalized_tax_id"`
	NormalizedNumber string `json:"normalized_number"`
	Key              string `json:"key"`
}

// AssignKey derives the normalized identifiers and the composite join key
func (r *InvoiceRecord) AssignKey(separator string) {
	r.NormalizedTaxID = NormalizeIdentifier(r.SupplierTaxID)
	r.NormalizedNumber = NormalizeIdentifier(r.DocumentNumber)
	r.Key = r.NormalizedTaxID + separator + r.NormalizedNumber
}

// BaseTotal is the sum of the itemized invoice components
func (r *InvoiceRecord) BaseTotal() decimal.Decimal {
	return r.NetAmount.Add(r.TaxAmount).Add(r.ExemptAmount).Add(r.NonTaxedAmount)
}

// String returns a string representation of the InvoiceRecord
func (r *InvoiceRecord) String() string {
	return fmt.Sprintf("Invoice{Row: %d, Number: %s, TaxID: %s, Total: %s}",
		r.Row, r.DocumentNumber, r.SupplierTaxID, r.TotalAmount.String())
}

// WithholdingRecord is one perception or withholding row.
type WithholdingRecord struct {
	Row               int             `json:"row"`
	AgentTaxID        string          `json:"agent_tax_id,omitempty"`
	DocumentNumber    string          `json:"document_number,omitempty"`
	TaxType           string          `json:"tax_type,omitempty"`
	TaxDescription    string          `json:"tax_description,omitempty"`
	Regime            string          `json:"regime,omitempty"`
	RegimeDescription string          `json:"regime_description,omitempty"`
	Amount            decimal.Decimal `json:"amount"`

	NormalizedTaxID  string `json:"normalized_tax_id"`
	NormalizedNumber string `json:"normalized_number"`
	Key              string `json:"key"`
}

// AssignKey derives the normalized identifiers and the composite join key.
// The construction matches InvoiceRecord.AssignKey so both sides join.
func (r *WithholdingRecord) AssignKey(separator string) {
	r.NormalizedTaxID = NormalizeIdentifier(r.AgentTaxID)
	r.NormalizedNumber = NormalizeIdentifier(r.DocumentNumber)
	r.Key = r.NormalizedTaxID + separator + r.NormalizedNumber
}

// String returns a string representation of the WithholdingRecord
func (r *WithholdingRecord) String() string {
	return fmt.Sprintf("Withholding{Row: %d, Number: %s, Agent: %s, Amount: %s}",
		r.Row, r.DocumentNumber, r.AgentTaxID, r.Amount.String())
}

// WithholdingAggregate folds every withholding row sharing a key.
type WithholdingAggregate struct {
	Key               string          `json:"key"`
	Amount            decimal.Decimal `json:"amount"`
	TaxType           string          `json:"tax_type,omitempty"`
	TaxDescription    string          `json:"tax_description,omitempty"`
	Regime            string          `json:"regime,omitempty"`
	RegimeDescription string          `json:"regime_description,omitempty"`
	Count             int             `json:"count"`
}

// ClassificationTier identifies the rule tier that produced a classification
type ClassificationTier string

const (
	TierDirectCode ClassificationTier = "direct_code"
	TierKeyword    ClassificationTier = "keyword"
	TierGeneric    ClassificationTier = "generic"
	TierFallback   ClassificationTier = "fallback"
)

// RegimeClassification is the target-system regime chosen for a row
type RegimeClassification struct {
	RuleID      string             `json:"rule_id"`
	Code        string             `json:"code"`
	Article     string             `json:"article"`
	Description string             `json:"description"`
	Tier        ClassificationTier `json:"tier"`
	Score       int                `json:"score"`
}

// IsUnmapped reports whether the classification fell through to the
// catch-all rule.
func (c *RegimeClassification) IsUnmapped() bool {
	return c.Tier == TierFallback
}

// ReconciledRow is one invoice left-joined with at most one aggregate.
type ReconciledRow struct {
	Invoice          InvoiceRecord         `json:"invoice"`
	Withholding      *WithholdingAggregate `json:"withholding,omitempty"`
	BaseTotal        decimal.Decimal       `json:"base_total"`
	RawDifference    decimal.Decimal       `json:"raw_difference"`
	FinalWithholding decimal.Decimal       `json:"final_withholding"`
	Residual         decimal.Decimal       `json:"residual"`
	Inferred         bool                  `json:"inferred"`
	Alert            string                `json:"alert,omitempty"`
	Regime           *RegimeClassification `json:"regime,omitempty"`
}

// Matched reports whether a withholding aggregate joined this invoice
func (r *ReconciledRow) Matched() bool {
	return r.Withholding != nil
}

// MarshalJSON renders amounts as fixed two-decimal strings
func (r *ReconciledRow) MarshalJSON() ([]byte, error) {
	type Alias ReconciledRow
	return json.Marshal(&struct {
		BaseTotal        string `json:"base_total"`
		RawDifference    string `json:"raw_difference"`
		FinalWithholding string `json:"final_withholding"`
		Residual         string `json:"residual"`
		*Alias
	}{
		BaseTotal:        r.BaseTotal.StringFixed(2),
		RawDifference:    r.RawDifference.StringFixed(2),
		FinalWithholding: r.FinalWithholding.StringFixed(2),
		Residual:         r.Residual.StringFixed(2),
		Alias:            (*Alias)(r),
	})
}

// ParseAmount coerces a spreadsheet cell to a decimal. Currency symbols,
// spaces and either locale's thousands/decimal separators are understood;
// anything that still fails to parse is zero.
func ParseAmount(s string) decimal.Decimal {
	d, err := ParseDecimalFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDecimalFromString parses a decimal value from string with validation.
// When both '.' and ',' are present the last one is the decimal separator; a
// single ',' is a decimal separator; repeated separators are thousands marks.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// NormalizeIdentifier keeps only the digits of a tax ID or document number,
// so "20-12345678-9" and "20123456789" compare equal.
func NormalizeIdentifier(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsDigits reports whether s is non-empty and made only of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// OutputTable is the filled template. Headers are the template's columns in
// order; each cell is nil (left empty), a string or a decimal.Decimal.
type OutputTable struct {
	Headers []string        `json:"headers"`
	Rows    [][]interface{} `json:"rows"`
}

// Len returns the number of data rows
func (t *OutputTable) Len() int {
	return len(t.Rows)
}

// FormatCell renders a cell as text. Amounts use two decimals; nil is "".
func FormatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case decimal.Decimal:
		return c.StringFixed(2)
	default:
		return fmt.Sprint(c)
	}
}
