// Package reconciler provides high-level orchestration for the reconciliation process.
//
// This package coordinates the entire workflow:
//   - Reading the three input spreadsheets
//   - Resolving column and template mappings (inference plus manual selection)
//   - Building records, aggregating withholdings and joining invoices
//   - Inferring missing withholdings and flagging residual differences
//   - Classifying regimes and projecting rows onto the template
//
// The ReconciliationService is the core and never touches files. The
// ReconciliationOrchestrator wraps it with file reading and mapping
// resolution for the command line.
//
// Example usage:
//
//	service, _ := reconciler.NewReconciliationService(reconciler.DefaultConfig())
//	orchestrator, _ := reconciler.NewReconciliationOrchestrator(service, nil, nil)
//
//	result, resolution, err := orchestrator.Run(ctx, parsers.InputFiles{
//		Invoices:     "compras.xlsx",
//		Withholdings: "percepciones.xlsx",
//		Template:     "plantilla.xlsx",
//	})
package reconciler

import (
	"context"
	"time"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// ReconciliationOrchestrator runs a reconciliation from file paths: it reads
// the inputs, resolves the mappings and hands the tables to the service.
type ReconciliationOrchestrator struct {
	service      *ReconciliationService
	reader       *parsers.TableReader
	preprocessor *MappingPreprocessor
	logger       logger.Logger
}

// NewReconciliationOrchestrator creates a new reconciliation orchestrator
func NewReconciliationOrchestrator(
	service *ReconciliationService,
	readConfig *parsers.ReadConfig,
	preprocessingConfig *PreprocessingConfig,
) (*ReconciliationOrchestrator, error) {

	if service == nil {
		return nil, errors.ConfigurationError(
			errors.CodeMissingConfig,
			"reconciliation_service",
			nil,
			nil,
		).WithSuggestion("Provide a valid ReconciliationService instance")
	}

	if readConfig == nil {
		readConfig = parsers.DefaultReadConfig()
	}
	if err := readConfig.Validate(); err != nil {
		return nil, err
	}

	log := logger.GetGlobalLogger().WithComponent("reconciliation_orchestrator")
	log.Debug("Creating reconciliation orchestrator")

	return &ReconciliationOrchestrator{
		service:      service,
		reader:       parsers.NewTableReader(readConfig),
		preprocessor: NewMappingPreprocessor(preprocessingConfig),
		logger:       log,
	}, nil
}

// Inspect reads the inputs and resolves the mappings without validating or
// reconciling. Used to show what inference found.
func (ro *ReconciliationOrchestrator) Inspect(ctx context.Context, files parsers.InputFiles) (*parsers.InputTables, *MappingResolution, error) {
	tables, stats, err := ro.reader.ReadAll(ctx, files)
	if err != nil {
		ro.logger.WithError(err).Error("Failed to read input files")
		return nil, nil, err
	}
	ro.logger.WithField("stats", stats.String()).Info("Input files read")

	resolution, err := ro.preprocessor.Resolve(tables)
	if err != nil {
		return nil, nil, err
	}
	return tables, resolution, nil
}

// Run performs the complete reconciliation of three input files. The
// resolution is returned even when the mappings are incomplete, so the
// caller can show what is missing.
func (ro *ReconciliationOrchestrator) Run(ctx context.Context, files parsers.InputFiles) (*ReconciliationResult, *MappingResolution, error) {
	ro.logger.WithFields(logger.Fields{
		"invoices":     files.Invoices,
		"withholdings": files.Withholdings,
		"template":     files.Template,
	}).Info("Starting reconciliation process")

	startTime := time.Now()
	defer func() {
		ro.logger.WithField("elapsed_time", time.Since(startTime)).Debug("Reconciliation process finished")
	}()

	// Step 1: Read and resolve
	tables, resolution, err := ro.Inspect(ctx, files)
	if err != nil {
		return nil, resolution, err
	}

	// Step 2: Block on incomplete mappings
	if err := resolution.Validate(); err != nil {
		ro.logger.WithError(err).Error("Column mapping incomplete")
		return nil, resolution, err
	}

	// Step 3: Reconcile
	result, err := ro.service.ProcessReconciliation(ctx, &ReconciliationRequest{
		Invoices:           tables.Invoices,
		Withholdings:       tables.Withholdings,
		Template:           tables.Template,
		InvoiceMapping:     resolution.Invoices,
		WithholdingMapping: resolution.Withholdings,
		TemplateMapping:    resolution.Template,
	})
	if err != nil {
		return nil, resolution, err
	}

	return result, resolution, nil
}
