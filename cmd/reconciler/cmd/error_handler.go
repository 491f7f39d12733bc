package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if summary, ok := errors.AsErrorSummary(err); ok {
		return h.handleErrorSummary(summary)
	}

	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return h.handleReconcilerError(reconcilerErr)
	}

	return h.handleGenericError(err)
}

// handleErrorSummary prints every error of the summary, then the help of
// each category involved once.
func (h *CLIErrorHandler) handleErrorSummary(summary *errors.ErrorSummary) int {
	fmt.Fprintf(h.out, "Error: %d problems found\n", summary.Total)
	for i, err := range summary.Errors {
		fmt.Fprintf(h.out, "  %d. %s\n", i+1, err.Message)
		if err.Suggestion != "" {
			fmt.Fprintf(h.out, "     Suggestion: %s\n", err.Suggestion)
		}
		if h.verbose && err.Cause != nil {
			fmt.Fprintf(h.out, "     Underlying error: %v\n", err.Cause)
		}
	}

	for _, category := range summary.Categories() {
		fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(category))
	}

	return summary.GetExitCode()
}

// handleReconcilerError handles ReconcilerError with detailed context
func (h *CLIErrorHandler) handleReconcilerError(err *errors.ReconcilerError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors that carry no category, such as cobra
// flag parsing failures
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'reconciler --help' for usage.\n")

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryInput:
		return `Input error help:
• Check that the three files exist and are readable
• Only .xlsx and .csv files are supported; export other formats first
• The first row of each sheet must hold the column names
• Use --sheet to pick a sheet other than the first one`

	case errors.CategoryMapping:
		return `Mapping error help:
• Run 'reconciler columns' to see which columns were inferred
• Select missing columns with --set "invoices.total_amount=Imp. Total"
• Keep recurring selections in a mapping file and pass it with --mapping
• Ambiguous headers are never picked automatically; select one by hand`

	case errors.CategoryDataShape:
		return `Data shape error help:
• A selected column is not present in the file being processed
• Check the spelling of the column in --set or the mapping file
• Make sure the file has not changed since the mapping was written`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'reconciler reconcile --help' to see all available options
• Try running with default settings first`

	case errors.CategoryOutput:
		return `Output error help:
• Check that the output directory exists and is writable
• Close the output file if it is open in a spreadsheet program
• Use --output to write somewhere else`

	default:
		return `For more help:
• Use 'reconciler --help' for general help
• Use 'reconciler reconcile --help' for command-specific help
• Run again with --verbose --log-level debug for details`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return stderrors.Is(err, fs.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if stderrors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
