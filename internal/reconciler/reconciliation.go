package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/matcher"
	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// ReconciliationService turns an invoices table and a withholdings table into
// reconciled rows projected onto a template.
type ReconciliationService struct {
	matchingConfig *matcher.MatchingConfig
	config         *Config
	logger         logger.Logger
}

// Config holds configuration options for the reconciliation service
type Config struct {
	// InferenceTolerance is the minimum positive difference between the
	// declared total and the itemized base that is taken as an implicit
	// withholding when none was reported.
	InferenceTolerance decimal.Decimal

	// ResidualTolerance is the largest final residual that raises no alert
	ResidualTolerance decimal.Decimal

	// Separators for composite keys and for joined descriptor values
	KeySeparator   string
	ValueSeparator string
}

// DefaultConfig returns a default configuration for the reconciliation service
func DefaultConfig() *Config {
	return &Config{
		InferenceTolerance: decimal.RequireFromString("0.05"),
		ResidualTolerance:  decimal.RequireFromString("0.1"),
		KeySeparator:       "|",
		ValueSeparator:     "|",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.InferenceTolerance.IsNegative() {
		return fmt.Errorf("inference tolerance cannot be negative, got %s", c.InferenceTolerance)
	}

	if c.ResidualTolerance.IsNegative() {
		return fmt.Errorf("residual tolerance cannot be negative, got %s", c.ResidualTolerance)
	}

	return c.MatchingConfig().Validate()
}

// MatchingConfig derives the join configuration
func (c *Config) MatchingConfig() *matcher.MatchingConfig {
	mc := matcher.DefaultMatchingConfig()
	mc.KeySeparator = c.KeySeparator
	mc.ValueSeparator = c.ValueSeparator
	return mc
}

// ReconciliationRequest carries the loaded tables and resolved mappings of a
// run. A nil TemplateMapping is inferred from the template headers.
type ReconciliationRequest struct {
	Invoices     *models.Table
	Withholdings *models.Table
	Template     *models.Table

	InvoiceMapping     *parsers.ColumnMapping
	WithholdingMapping *parsers.ColumnMapping
	TemplateMapping    *parsers.TemplateMapping
}

// Validate validates the reconciliation request
func (r *ReconciliationRequest) Validate() error {
	if r.Invoices == nil {
		return fmt.Errorf("invoices table is required")
	}

	if r.Withholdings == nil {
		return fmt.Errorf("withholdings table is required")
	}

	if r.Template == nil {
		return fmt.Errorf("template table is required")
	}

	if r.InvoiceMapping == nil || r.WithholdingMapping == nil {
		return fmt.Errorf("invoice and withholding column mappings are required")
	}

	return nil
}

// ReconciliationResult contains the complete results of reconciliation
type ReconciliationResult struct {
	RunID string `json:"run_id"`

	// Summary information
	Summary *ResultSummary `json:"summary"`

	// Detailed results
	Rows      []models.ReconciledRow `json:"rows,omitempty"`
	Output    *models.OutputTable    `json:"-"`
	Anomalies []matcher.KeyAnomaly   `json:"anomalies,omitempty"`
	Warnings  []string               `json:"warnings,omitempty"`

	// Metadata
	ProcessedAt time.Time `json:"processed_at"`
}

// ResultSummary provides a high-level overview of reconciliation results
type ResultSummary struct {
	// Row counts
	InvoicesProcessed int `json:"invoices_processed"`
	WithholdingRows   int `json:"withholding_rows"`
	OutputRows        int `json:"output_rows"`
	SupplierTaxIDs    int `json:"supplier_tax_ids"`

	// Join
	MatchedInvoices int `json:"matched_invoices"`
	MatchedKeys     int `json:"matched_keys"`
	OrphanKeys      int `json:"orphan_keys"`
	KeyAnomalies    int `json:"key_anomalies"`

	// Withholdings
	InvoicesWithWithholding int             `json:"invoices_with_withholding"`
	TotalWithholding        decimal.Decimal `json:"total_withholding"`
	InferredWithholdings    int             `json:"inferred_withholdings"`
	ResidualAlerts          int             `json:"residual_alerts"`

	// Regime classification
	UnmappedRegimes int                               `json:"unmapped_regimes"`
	TierCounts      map[models.ClassificationTier]int `json:"tier_counts"`

	// Template
	TemplateColumns   int `json:"template_columns"`
	UnmappedTemplates int `json:"unmapped_template_columns"`

	// Processing metadata
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(config *Config) (*ReconciliationService, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", config.String(), err)
	}

	return &ReconciliationService{
		matchingConfig: config.MatchingConfig(),
		config:         config,
		logger:         logger.GetGlobalLogger().WithComponent("reconciliation_service"),
	}, nil
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{InferenceTolerance: %s, ResidualTolerance: %s, KeySeparator: %q, ValueSeparator: %q}",
		c.InferenceTolerance, c.ResidualTolerance, c.KeySeparator, c.ValueSeparator)
}

// ProcessReconciliation runs the whole core: record building, join,
// arithmetic, classification and projection. Either the complete result is
// returned or an error; a panic anywhere in the run is recovered and
// reported as a processing error.
func (rs *ReconciliationService) ProcessReconciliation(
	ctx context.Context,
	request *ReconciliationRequest,
) (result *ReconciliationResult, err error) {

	if err := request.Validate(); err != nil {
		return nil, errors.InternalError(errors.CodeProcessingError, "request validation", err)
	}

	runID := uuid.NewString()
	log := rs.logger.WithField("run_id", runID)
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Reconciliation aborted by unexpected failure")
			result = nil
			err = errors.InternalError(errors.CodeProcessingError, "reconciliation", fmt.Errorf("panic: %v", r)).
				WithContext("run_id", runID)
		}
	}()

	log.WithFields(logger.Fields{
		"invoice_rows":     request.Invoices.Len(),
		"withholding_rows": request.Withholdings.Len(),
		"template_columns": len(request.Template.Headers),
	}).Info("Starting reconciliation")

	// Step 1: Build typed records
	invoices, withholdings, err := rs.buildRecords(request)
	if err != nil {
		log.WithError(err).Error("Failed to build records")
		return nil, err
	}
	if err := checkContext(ctx, "record building"); err != nil {
		return nil, err
	}

	// Step 2: Aggregate withholdings and join
	joinResult, err := rs.performJoin(invoices, withholdings)
	if err != nil {
		log.WithError(err).Error("Failed to join invoices and withholdings")
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeProcessingError, "join failed")
	}
	if err := checkContext(ctx, "join"); err != nil {
		return nil, err
	}

	// Step 3: Arithmetic and regime classification
	rows := make([]models.ReconciledRow, 0, len(joinResult.Matches))
	for _, match := range joinResult.Matches {
		rows = append(rows, rs.reconcileRow(log, match))
	}
	if err := checkContext(ctx, "reconciliation"); err != nil {
		return nil, err
	}

	// Step 4: Project onto the template
	templateMapping := request.TemplateMapping
	if templateMapping == nil {
		templateMapping, _ = InferTemplateMapping(request.Template.Headers)
	}
	output := ProjectRows(rows, request.Template.Headers, templateMapping)

	result = &ReconciliationResult{
		RunID:       runID,
		Rows:        rows,
		Output:      output,
		Anomalies:   joinResult.Anomalies,
		ProcessedAt: startTime,
	}
	result.Summary = rs.calculateSummary(rows, joinResult, request, templateMapping)
	result.Summary.ProcessingDuration = time.Since(startTime)
	result.Warnings = rs.generateWarnings(result, templateMapping)

	log.WithFields(logger.Fields{
		"output_rows":       result.Summary.OutputRows,
		"inferred":          result.Summary.InferredWithholdings,
		"alerts":            result.Summary.ResidualAlerts,
		"unmapped_regimes":  result.Summary.UnmappedRegimes,
		"total_withholding": result.Summary.TotalWithholding.StringFixed(2),
		"duration":          result.Summary.ProcessingDuration,
	}).Info("Reconciliation completed")

	return result, nil
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, stage, err)
	}
	return nil
}
