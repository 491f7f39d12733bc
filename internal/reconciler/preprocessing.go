package reconciler

import (
	"fmt"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// MappingPreprocessor resolves the column mappings of a run: automatic
// inference first, then the manual selections on top.
type MappingPreprocessor struct {
	config *PreprocessingConfig
	logger logger.Logger
}

// PreprocessingConfig contains configuration for mapping resolution
type PreprocessingConfig struct {
	// StrictInference disables the fuzzy header pass
	StrictInference bool

	// Mapping holds manual selections and extra header variants; may be nil
	Mapping *parsers.MappingFile
}

// DefaultPreprocessingConfig returns a default preprocessing configuration
func DefaultPreprocessingConfig() *PreprocessingConfig {
	return &PreprocessingConfig{
		StrictInference: false,
		Mapping:         parsers.NewMappingFile(),
	}
}

// MappingResolution holds every mapping of a run together with the per-field
// inference outcomes, for display and validation.
type MappingResolution struct {
	Invoices           *parsers.ColumnMapping    `json:"invoices"`
	InvoiceResults     []parsers.InferenceResult `json:"invoice_results"`
	Withholdings       *parsers.ColumnMapping    `json:"withholdings"`
	WithholdingResults []parsers.InferenceResult `json:"withholding_results"`
	Template           *parsers.TemplateMapping  `json:"template"`
	TemplateResults    []TemplateInference       `json:"template_results"`
}

// Validate fails when a mandatory field of either input table is unmapped.
// Each table contributes one mapping error listing all of its missing
// fields; both are returned together.
func (mr *MappingResolution) Validate() error {
	var errs []*errors.ReconcilerError
	if err := mr.Invoices.Validate(parsers.InvoiceSchema); err != nil {
		errs = append(errs, errors.WrapIfNeeded(err, errors.CategoryMapping, errors.CodeMappingUnresolved, "invoice mapping"))
	}
	if err := mr.Withholdings.Validate(parsers.WithholdingSchema); err != nil {
		errs = append(errs, errors.WrapIfNeeded(err, errors.CategoryMapping, errors.CodeMappingUnresolved, "withholding mapping"))
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.NewErrorSummary(errs)
	}
}

// ReviewColumns lists template columns left without a source
func (mr *MappingResolution) ReviewColumns() []string {
	var out []string
	for _, r := range mr.TemplateResults {
		if r.NeedsReview() {
			out = append(out, r.Column)
		}
	}
	return out
}

// NewMappingPreprocessor creates a new mapping preprocessor
func NewMappingPreprocessor(config *PreprocessingConfig) *MappingPreprocessor {
	if config == nil {
		config = DefaultPreprocessingConfig()
	}
	if config.Mapping == nil {
		config.Mapping = parsers.NewMappingFile()
	}

	return &MappingPreprocessor{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("mapping_preprocessor"),
	}
}

// Resolve infers and overrides the mappings of the three tables. It does not
// validate completeness; see MappingResolution.Validate.
func (mp *MappingPreprocessor) Resolve(tables *parsers.InputTables) (*MappingResolution, error) {
	if tables == nil || tables.Invoices == nil || tables.Withholdings == nil || tables.Template == nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "mapping resolution", fmt.Errorf("input tables are not loaded"))
	}

	resolution := &MappingResolution{}

	var err error
	resolution.Invoices, resolution.InvoiceResults, err = mp.resolveTable(tables, parsers.TableInvoices)
	if err != nil {
		return nil, err
	}
	resolution.Withholdings, resolution.WithholdingResults, err = mp.resolveTable(tables, parsers.TableWithholdings)
	if err != nil {
		return nil, err
	}

	resolution.Template, resolution.TemplateResults = InferTemplateMapping(tables.Template.Headers)
	resolution.TemplateResults, err = ApplyTemplateOverrides(resolution.Template, resolution.TemplateResults, mp.config.Mapping.Overrides(parsers.TableTemplate))
	if err != nil {
		return nil, err
	}

	mp.logger.WithFields(logger.Fields{
		"invoice_missing":     len(resolution.Invoices.Missing(parsers.InvoiceSchema)),
		"withholding_missing": len(resolution.Withholdings.Missing(parsers.WithholdingSchema)),
		"template_review":     len(resolution.ReviewColumns()),
	}).Info("Column mappings resolved")

	return resolution, nil
}

func (mp *MappingPreprocessor) resolveTable(tables *parsers.InputTables, name string) (*parsers.ColumnMapping, []parsers.InferenceResult, error) {
	schema, err := mp.config.Mapping.Schema(name)
	if err != nil {
		return nil, nil, err
	}

	table := tables.Invoices
	if name == parsers.TableWithholdings {
		table = tables.Withholdings
	}

	mapping, results := parsers.InferMapping(table, schema, mp.config.StrictInference)
	results = parsers.ApplyOverrides(mapping, results, mp.config.Mapping.Overrides(name))
	return mapping, results, nil
}
