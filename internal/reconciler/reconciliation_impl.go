package reconciler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/classifier"
	"golang-withholding-reconciler/internal/matcher"
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/logger"
)

// buildRecords turns both input tables into typed records. Mapping and data
// shape errors are returned as they are.
func (rs *ReconciliationService) buildRecords(
	request *ReconciliationRequest,
) ([]models.InvoiceRecord, []models.WithholdingRecord, error) {

	invoices, err := parsers.BuildInvoices(request.Invoices, request.InvoiceMapping, rs.config.KeySeparator)
	if err != nil {
		return nil, nil, err
	}

	withholdings, err := parsers.BuildWithholdings(request.Withholdings, request.WithholdingMapping, rs.config.KeySeparator)
	if err != nil {
		return nil, nil, err
	}

	return invoices, withholdings, nil
}

// performJoin aggregates withholdings by key and left-joins the invoices
func (rs *ReconciliationService) performJoin(
	invoices []models.InvoiceRecord,
	withholdings []models.WithholdingRecord,
) (*matcher.JoinResult, error) {

	engine := matcher.NewMatchingEngine(rs.matchingConfig)
	if err := engine.ValidateConfiguration(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	engine.LoadWithholdings(withholdings)
	stats := engine.GetStats()
	rs.logger.WithFields(logger.Fields{
		"withholding_rows": stats.TotalRows,
		"aggregate_keys":   stats.UniqueKeys,
	}).Debug("Withholding index built")

	return engine.Join(invoices)
}

// reconcileRow computes the withholding arithmetic for one invoice.
//
// The declared withholding is the aggregate sum (zero when unmatched). When
// it is zero and the declared total exceeds the itemized base by more than
// the inference tolerance, the difference is taken as the withholding. The
// residual after that must stay within the residual tolerance, otherwise the
// row carries an alert.
func (rs *ReconciliationService) reconcileRow(log logger.Logger, match matcher.MatchResult) models.ReconciledRow {
	inv := match.Invoice

	row := models.ReconciledRow{
		Invoice:     inv,
		Withholding: match.Withholding,
		BaseTotal:   inv.BaseTotal(),
	}
	row.RawDifference = inv.TotalAmount.Sub(row.BaseTotal)

	declared := decimal.Zero
	if match.Withholding != nil {
		declared = match.Withholding.Amount
	}

	row.FinalWithholding = declared
	if declared.IsZero() && row.RawDifference.GreaterThan(rs.config.InferenceTolerance) {
		row.FinalWithholding = row.RawDifference
		row.Inferred = true
		log.WithFields(logger.Fields{
			"row":             inv.Row,
			"document_number": inv.DocumentNumber,
			"supplier_tax_id": inv.SupplierTaxID,
			"amount":          row.FinalWithholding.StringFixed(2),
		}).Info("Withholding inferred from total difference")
	}

	expected := row.BaseTotal.Add(row.FinalWithholding)
	row.Residual = inv.TotalAmount.Sub(expected)
	if !models.CompareAmountsWithTolerance(inv.TotalAmount, expected, rs.config.ResidualTolerance) {
		row.Alert = fmt.Sprintf("Alerta: Diferencia final de %s", row.Residual.StringFixed(2))
		log.WithFields(logger.Fields{
			"row":             inv.Row,
			"document_number": inv.DocumentNumber,
			"residual":        row.Residual.StringFixed(2),
		}).Warn("Residual difference above tolerance")
	}

	if row.FinalWithholding.IsPositive() {
		classification := classifier.ClassifyRegime(regimeInput(match.Withholding), rs.config.ValueSeparator)
		row.Regime = &classification

		entry := log.WithFields(logger.Fields{
			"row":     inv.Row,
			"rule_id": classification.RuleID,
			"code":    classification.Code,
			"tier":    classification.Tier,
			"score":   classification.Score,
		})
		switch classification.Tier {
		case models.TierDirectCode, models.TierKeyword:
			entry.Debug("Regime classified")
		default:
			entry.Warn("Regime classified by fallback rule")
		}
	}

	return row
}

func regimeInput(agg *models.WithholdingAggregate) classifier.RegimeInput {
	if agg == nil {
		return classifier.RegimeInput{}
	}
	return classifier.RegimeInput{
		Regime:            agg.Regime,
		RegimeDescription: agg.RegimeDescription,
		TaxType:           agg.TaxType,
		TaxDescription:    agg.TaxDescription,
	}
}

// calculateSummary calculates summary statistics for the run
func (rs *ReconciliationService) calculateSummary(
	rows []models.ReconciledRow,
	joinResult *matcher.JoinResult,
	request *ReconciliationRequest,
	templateMapping *parsers.TemplateMapping,
) *ResultSummary {

	summary := &ResultSummary{
		InvoicesProcessed: request.Invoices.Len(),
		WithholdingRows:   joinResult.Summary.TotalWithholdingRows,
		OutputRows:        len(rows),
		MatchedInvoices:   joinResult.Summary.MatchedInvoices,
		MatchedKeys:       joinResult.Summary.MatchedKeys,
		OrphanKeys:        joinResult.Summary.OrphanKeys,
		KeyAnomalies:      len(joinResult.Anomalies),
		TotalWithholding:  decimal.Zero,
		TierCounts:        make(map[models.ClassificationTier]int),
		TemplateColumns:   len(request.Template.Headers),
	}

	taxIDs := make(map[string]bool)
	for i := range rows {
		row := &rows[i]
		if row.Invoice.SupplierTaxID != "" {
			taxIDs[row.Invoice.SupplierTaxID] = true
		}
		if row.FinalWithholding.IsPositive() {
			summary.InvoicesWithWithholding++
			summary.TotalWithholding = summary.TotalWithholding.Add(row.FinalWithholding)
		}
		if row.Inferred {
			summary.InferredWithholdings++
		}
		if row.Alert != "" {
			summary.ResidualAlerts++
		}
		if row.Regime != nil {
			summary.TierCounts[row.Regime.Tier]++
			if row.Regime.Code == classifier.UnmappedCode {
				summary.UnmappedRegimes++
			}
		}
	}
	summary.SupplierTaxIDs = len(taxIDs)

	for _, column := range request.Template.Headers {
		if _, ok := templateMapping.Source(column); !ok {
			summary.UnmappedTemplates++
		}
	}

	return summary
}

// generateWarnings lists the findings a reviewer should look at
func (rs *ReconciliationService) generateWarnings(result *ReconciliationResult, templateMapping *parsers.TemplateMapping) []string {
	var warnings []string

	if n := result.Summary.UnmappedRegimes; n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows use the catch-all regime %s; review their regime codes", n, classifier.UnmappedCode))
	}
	if n := result.Summary.ResidualAlerts; n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows have a residual difference above %s", n, rs.config.ResidualTolerance))
	}
	for _, a := range result.Anomalies {
		if a.Kind == matcher.AnomalyDuplicateInvoiceKey {
			warnings = append(warnings, fmt.Sprintf("duplicate invoice key %s (rows %v) shares one withholding aggregate", a.Key, a.Rows))
		}
	}
	if unmapped := templateMapping.Unmapped(); len(unmapped) > 0 {
		warnings = append(warnings, fmt.Sprintf("template columns left empty: %v", unmapped))
	}

	return warnings
}
