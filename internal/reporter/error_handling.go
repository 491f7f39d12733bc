package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang-withholding-reconciler/internal/reconciler"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with error handling and fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report",
			config.Format,
			err,
		).WithSuggestion("use --report console or --report json")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely generates a report, falling back to the console format
// and then to a backup file when the requested output fails.
func (srg *SafeReportGenerator) GenerateReportSafely(result *reconciler.ReconciliationResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	if err := srg.validateInputs(result, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	if err := srg.generateWithFallback(result, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	srg.logger.Debug("Report generation completed")
	return nil
}

func (srg *SafeReportGenerator) validateInputs(result *reconciler.ReconciliationResult, writer io.Writer) error {
	if result == nil || result.Summary == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", fmt.Errorf("reconciliation result is missing"))
	}

	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", fmt.Errorf("output writer is missing"))
	}

	return nil
}

// generateWithFallback attempts to generate the report with fallback strategies
func (srg *SafeReportGenerator) generateWithFallback(result *reconciler.ReconciliationResult, writer io.Writer) error {
	err := srg.GenerateReport(result, writer)
	if err == nil {
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if srg.shouldAttemptOutputFallback(err, writer) {
		return srg.generateWithOutputFallback(result, writer, err)
	}

	if srg.config.Format != FormatConsole {
		return srg.generateWithFormatFallback(result, writer, err)
	}

	return srg.wrapGenerationError(writer, err)
}

// generateWithFormatFallback retries the report as console text
func (srg *SafeReportGenerator) generateWithFormatFallback(result *reconciler.ReconciliationResult, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(writer, originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(result, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated using format fallback")
	return nil
}

// shouldAttemptOutputFallback reports whether the writer is a named file
// that failed for a file-system reason.
func (srg *SafeReportGenerator) shouldAttemptOutputFallback(err error, writer io.Writer) bool {
	if file, ok := writer.(*os.File); ok && file.Name() != "" && file != os.Stdout && file != os.Stderr {
		return isFileError(err)
	}
	return false
}

// generateWithOutputFallback writes the report next to the original file
func (srg *SafeReportGenerator) generateWithOutputFallback(result *reconciler.ReconciliationResult, writer io.Writer, originalErr error) error {
	file := writer.(*os.File)
	originalPath := file.Name()
	backupPath := BackupPath(originalPath)

	srg.logger.WithFields(logger.Fields{
		"original_file": originalPath,
		"backup_file":   backupPath,
	}).Info("Attempting output fallback")

	backupFile, err := os.Create(backupPath)
	if err != nil {
		return srg.wrapGenerationError(writer, originalErr)
	}
	defer backupFile.Close()

	if err := srg.GenerateReport(result, backupFile); err != nil {
		return errors.OutputError(backupPath, fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", originalErr, err))
	}

	srg.logger.WithField("backup_file", backupPath).Warn("Report saved to backup location")
	fmt.Fprintf(os.Stderr, "Warning: Could not write to %s, report saved to %s\n", originalPath, backupPath)

	return nil
}

// BackupPath returns the sibling path used when a file cannot be written:
// "out.json" becomes "out_backup.json".
func BackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

// wrapGenerationError turns a failed write into an output error
func (srg *SafeReportGenerator) wrapGenerationError(writer io.Writer, err error) error {
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return errors.OutputError(getWriterDescription(writer), err)
}

// Utility functions

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		os.IsExist(err) ||
		isSpaceError(err)
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}
