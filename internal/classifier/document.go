package classifier

import "strings"

// Document kinds
const (
	KindInvoice    = "FC"
	KindCreditNote = "NC"
	KindDebitNote  = "ND"
	KindReceipt    = "RC"
	KindTicket     = "TK"
	KindOther      = "OTRO"
)

// VAT status codes of a supplier
const (
	StatusRegistered    = "RI"
	StatusFinalConsumer = "CF"
	StatusNotRegistered = "NRI"
)

type kindRule struct {
	markers []string
	kind    string
}

// Checked in order; "FACTURA" wins over "NC" etc.
var kindRules = []kindRule{
	{markers: []string{"FACTURA"}, kind: KindInvoice},
	{markers: []string{"NOTA DE CREDITO", "NC"}, kind: KindCreditNote},
	{markers: []string{"NOTA DE DEBITO", "ND"}, kind: KindDebitNote},
	{markers: []string{"RECIBO", "RC"}, kind: KindReceipt},
	{markers: []string{"TICKET", "TK"}, kind: KindTicket},
	{markers: []string{"COMPROBANTE"}, kind: KindOther},
}

type letterRule struct {
	contains []string
	suffix   string
	letter   string
}

// Explicit markers for every letter are tried before the loose suffix and
// standalone-letter checks.
var letterRules = []letterRule{
	{contains: []string{"FACTURA A", "NCA", "NDA"}, letter: "A"},
	{contains: []string{"FACTURA B", "NCB", "NDB"}, letter: "B"},
	{contains: []string{"FACTURA C", "NCC", "NDC"}, letter: "C"},
	{contains: []string{" A "}, suffix: " A", letter: "A"},
	{contains: []string{" B "}, suffix: " B", letter: "B"},
	{contains: []string{" C "}, suffix: " C", letter: "C"},
}

type statusRule struct {
	markers []string
	status  string
}

var statusRules = []statusRule{
	{markers: []string{"FACTURA A", " A "}, status: StatusRegistered},
	{markers: []string{"FACTURA B", " B "}, status: StatusFinalConsumer},
	{markers: []string{"FACTURA C", " C "}, status: StatusNotRegistered},
}

// ExtractKindAndLetter derives the standardized document kind and category
// letter from a document-type description. An empty description yields
// ("FC", "").
func ExtractKindAndLetter(documentType string) (kind, letter string) {
	kind = KindInvoice
	if documentType == "" {
		return kind, ""
	}

	text := strings.ToUpper(documentType)

	for _, rule := range letterRules {
		if containsAny(text, rule.contains) || (rule.suffix != "" && strings.HasSuffix(text, rule.suffix)) {
			letter = rule.letter
			break
		}
	}

	for _, rule := range kindRules {
		if containsAny(text, rule.markers) {
			kind = rule.kind
			break
		}
	}

	return kind, letter
}

// DetermineTaxStatus infers the supplier's VAT status. Anything that cannot
// be determined, including a missing tax ID, is reported as registered (RI).
func DetermineTaxStatus(taxID, documentType string) string {
	if taxID == "" || documentType == "" {
		return StatusRegistered
	}

	text := strings.ToUpper(documentType)
	for _, rule := range statusRules {
		if containsAny(text, rule.markers) {
			return rule.status
		}
	}
	return StatusRegistered
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
