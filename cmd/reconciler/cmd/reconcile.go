package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-withholding-reconciler/cmd/reconciler/config"
	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/internal/reconciler"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

func newReconcileCommand() *cobra.Command {
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile invoices with withholdings and fill the import template",
		Long: `Reconcile joins the AFIP purchase invoices ("Mis Comprobantes Recibidos")
with the withholdings and perceptions suffered on them and writes one template
row per invoice.

This command requires:
- The invoices file (.xlsx or .csv)
- The withholdings file (.xlsx or .csv)
- The ONVIO import template (.xlsx or .csv); only its header row is used

Columns are inferred from the headers. Use 'reconciler columns' to review the
inference and --set or --mapping to select columns by hand.

Examples:
  # Basic reconciliation
  reconciler reconcile --invoices compras.xlsx --withholdings percepciones.xlsx \
    --template plantilla.xlsx

  # Manual column selection and CSV output
  reconciler reconcile --invoices compras.csv --withholdings percepciones.csv \
    --template plantilla.xlsx --set "invoices.total_amount=Imp. Total" \
    --output plantilla.csv

  # Mapping file and JSON report
  reconciler reconcile --invoices compras.xlsx --withholdings percepciones.xlsx \
    --template plantilla.xlsx --mapping columnas.yaml --report json --report-file run.json`,
		Args:    cobra.NoArgs,
		PreRunE: validateReconcileFlags,
		RunE:    runReconcile,
	}

	addInputFlags(reconcileCmd)

	// Output flags
	reconcileCmd.Flags().StringP("output", "o", reporter.DefaultOutputFile, "filled template path")
	reconcileCmd.Flags().String("output-format", "", "filled template format: xlsx, csv (default: from the output extension)")
	reconcileCmd.Flags().String("report", "console", "run report format: console, json")
	reconcileCmd.Flags().String("report-file", "", "run report path (default: stdout)")

	// Engine flags
	reconcileCmd.Flags().String("inference-tolerance", "", "difference above which a missing withholding is inferred (default 0.05)")
	reconcileCmd.Flags().String("residual-tolerance", "", "residual above which a row is flagged (default 0.1)")

	return reconcileCmd
}

// addInputFlags registers the flags shared by reconcile and columns
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("invoices", "i", "", "path to the invoices file (required)")
	cmd.Flags().StringP("withholdings", "w", "", "path to the withholdings file (required)")
	cmd.Flags().StringP("template", "t", "", "path to the import template (required)")

	// Mapping flags
	cmd.Flags().StringP("mapping", "m", "", "YAML mapping file with manual column selections")
	cmd.Flags().StringArray("set", nil, `manual column selection "table.field=Column" (repeatable)`)
	cmd.Flags().Bool("strict", false, "only accept exact header matches")

	// Reading flags
	cmd.Flags().String("sheet", "", "XLSX sheet to read (default: first sheet)")
	cmd.Flags().String("csv-delimiter", "", `CSV delimiter (default: detect ',' or ';'; "tab" for tabs)`)
	cmd.Flags().String("csv-encoding", "", "CSV encoding: auto, utf-8, windows-1252 (default auto)")
}

// inputFiles returns the three input paths from viper
func inputFiles() parsers.InputFiles {
	return parsers.InputFiles{
		Invoices:     viper.GetString("invoices"),
		Withholdings: viper.GetString("withholdings"),
		Template:     viper.GetString("template"),
	}
}

// validateInputFlags checks the three required inputs exist and are files
func validateInputFlags() error {
	files := inputFiles()
	inputs := []struct {
		flag  string
		table string
		path  string
	}{
		{"invoices", parsers.TableInvoices, files.Invoices},
		{"withholdings", parsers.TableWithholdings, files.Withholdings},
		{"template", parsers.TableTemplate, files.Template},
	}

	for _, in := range inputs {
		if in.path == "" {
			return errors.ConfigurationError(errors.CodeMissingConfig, in.flag, nil, nil).
				WithSuggestion(fmt.Sprintf("pass --%s with the path of the %s file", in.flag, in.table))
		}
		if err := validateFileExists(in.path, in.table); err != nil {
			return err
		}
	}
	return nil
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if err := validateInputFlags(); err != nil {
		return err
	}

	switch format := viper.GetString("report"); format {
	case "console", "json":
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "report", format, nil).
			WithSuggestion("valid report formats: console, json")
	}

	// Validate output directories exist
	for _, setting := range []string{"output", "report-file"} {
		path := viper.GetString(setting)
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if dir == "." {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return errors.ConfigurationError(errors.CodeInvalidConfig, setting, path, err).
				WithSuggestion(fmt.Sprintf("output directory does not exist: %s", dir))
		}
	}

	return nil
}

func validateFileExists(filePath, table string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, table, nil, nil)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.InputError(errors.CodeFileNotFound, table, filePath, err)
	}
	if err != nil {
		return errors.InputError(errors.CodeInputReadFailed, table, filePath, err)
	}

	if info.IsDir() {
		return errors.InputError(errors.CodeInputReadFailed, table, filePath, fmt.Errorf("%s is a directory, expected a file", filePath))
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return errors.InputError(errors.CodeInputReadFailed, table, filePath, err)
	}
	file.Close()

	return nil
}

// newOrchestrator builds the service and orchestrator from the bound flags
func newOrchestrator() (*reconciler.ReconciliationOrchestrator, error) {
	readConfig, err := config.CreateReadConfig(
		viper.GetString("sheet"),
		viper.GetString("csv-delimiter"),
		viper.GetString("csv-encoding"),
	)
	if err != nil {
		return nil, err
	}

	preprocessingConfig, err := config.CreatePreprocessingConfig(
		viper.GetString("mapping"),
		viper.GetStringSlice("set"),
		viper.GetBool("strict"),
	)
	if err != nil {
		return nil, err
	}

	reconcilerConfig, err := config.CreateReconcilerConfig(
		viper.GetString("inference-tolerance"),
		viper.GetString("residual-tolerance"),
	)
	if err != nil {
		return nil, err
	}

	service, err := reconciler.NewReconciliationService(reconcilerConfig)
	if err != nil {
		return nil, err
	}

	return reconciler.NewReconciliationOrchestrator(service, readConfig, preprocessingConfig)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")
	files := inputFiles()
	verbose := viper.GetBool("verbose")

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Starting reconciliation...\n")
		fmt.Fprintf(cmd.ErrOrStderr(), "Invoices: %s\n", files.Invoices)
		fmt.Fprintf(cmd.ErrOrStderr(), "Withholdings: %s\n", files.Withholdings)
		fmt.Fprintf(cmd.ErrOrStderr(), "Template: %s\n", files.Template)
	}

	orchestrator, err := newOrchestrator()
	if err != nil {
		return err
	}

	result, resolution, err := orchestrator.Run(cmd.Context(), files)
	if err != nil {
		if resolution != nil && isMappingError(err) {
			printMappingHelp(cmd.ErrOrStderr(), resolution)
		}
		return err
	}

	// Write the filled template
	writerConfig, err := config.CreateWriterConfig(
		viper.GetString("output-format"),
		viper.GetString("csv-delimiter"),
	)
	if err != nil {
		return err
	}
	writer, err := reporter.NewTemplateWriter(writerConfig)
	if err != nil {
		return err
	}

	outputFile := viper.GetString("output")
	if outputFile == "" {
		outputFile = reporter.DefaultOutputFile
	}
	if err := writer.WriteFile(outputFile, result.Output); err != nil {
		return err
	}

	// Generate report
	reportConfig, err := config.CreateReportConfig(viper.GetString("report"), verbose)
	if err != nil {
		return err
	}
	reportGenerator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	var output io.Writer = cmd.OutOrStdout()
	if reportFile := viper.GetString("report-file"); reportFile != "" {
		file, err := os.Create(reportFile)
		if err != nil {
			return errors.OutputError(reportFile, err)
		}
		defer file.Close()
		output = file
	}

	if err := reportGenerator.GenerateReportSafely(result, output); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nReconciliation completed successfully.\n")
		fmt.Fprintf(cmd.ErrOrStderr(), "Filled template written to %s (%d rows).\n", outputFile, result.Summary.OutputRows)
		if result.Summary.ResidualAlerts > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d rows carry a residual alert.\n", result.Summary.ResidualAlerts)
		}
	}

	return nil
}

// isMappingError reports whether err, or any error it summarizes, is a
// mapping error
func isMappingError(err error) bool {
	if summary, ok := errors.AsErrorSummary(err); ok {
		return summary.HasCategory(errors.CategoryMapping)
	}
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr.Category == errors.CategoryMapping
	}
	return false
}

// printMappingHelp shows the column inference next to a mapping error
func printMappingHelp(w io.Writer, resolution *reconciler.MappingResolution) {
	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "Column mapping is incomplete:\n\n")
	generator.GenerateMappingReport(resolution, w)
	fmt.Fprintf(w, "\n")
}
