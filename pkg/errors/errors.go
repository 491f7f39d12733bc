package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryMapping       ErrorCategory = "mapping"
	CategoryDataShape     ErrorCategory = "data_shape"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryOutput        ErrorCategory = "output"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Input errors
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeUnsupportedType ErrorCode = "unsupported_type"
	CodeInputReadFailed ErrorCode = "input_read_failed"
	CodeEmptyTable      ErrorCode = "empty_table"

	// Mapping errors
	CodeMappingUnresolved ErrorCode = "mapping_unresolved"
	CodeUnknownField      ErrorCode = "unknown_field"

	// Data shape errors
	CodeMissingColumn ErrorCode = "missing_column"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Output errors
	CodeWriteFailed ErrorCode = "write_failed"

	// Internal errors
	CodeProcessingError ErrorCode = "processing_error"
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryInput, CategoryOutput:
		return 2
	case CategoryMapping, CategoryDataShape:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// Specific error constructors

// InputError reports that one source table could not be read. Each file is
// reported on its own so the caller can keep reading the others.
func InputError(code ErrorCode, table, path string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("%s file not found: %s", table, path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeUnsupportedType:
		message = fmt.Sprintf("%s file has an unsupported type: %s", table, path)
		suggestion = "export the spreadsheet as .xlsx or .csv"
	case CodeEmptyTable:
		message = fmt.Sprintf("%s file has no header row: %s", table, path)
		suggestion = "make sure the first row of the sheet holds the column names"
	default:
		message = fmt.Sprintf("failed to read %s file: %s", table, path)
		suggestion = "open the file in a spreadsheet program and save it again as .xlsx"
	}

	return newOrWrap(err, CategoryInput, code, message).
		WithSuggestion(suggestion).
		WithContext("table", table).
		WithContext("file_path", path)
}

// MappingError reports every mandatory logical field of a table that has no
// source column after inference and manual selection.
func MappingError(table string, missing []string) *ReconcilerError {
	return New(
		CategoryMapping,
		CodeMappingUnresolved,
		fmt.Sprintf("missing column mapping for %s fields: %s", table, strings.Join(missing, ", ")),
	).
		WithSuggestion("select the columns manually with --set or a mapping file").
		WithContext("table", table).
		WithContext("missing_fields", missing)
}

// DataShapeError reports a mapped column that is not present in the data
// being processed.
func DataShapeError(table, field, column string) *ReconcilerError {
	return New(
		CategoryDataShape,
		CodeMissingColumn,
		fmt.Sprintf("expected column '%s' for %s field '%s' was not found in the data", column, table, field),
	).
		WithSuggestion("the column mapping does not match the file; review the mapping or the source file").
		WithContext("table", table).
		WithContext("field", field).
		WithContext("column", column)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeUnknownField:
		message = fmt.Sprintf("unknown field in '%s': %v", setting, value)
		suggestion = "run 'reconciler columns' to list the valid field names"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return newOrWrap(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// OutputError creates an error for a result that could not be written
func OutputError(path string, err error) *ReconcilerError {
	return newOrWrap(err, CategoryOutput, CodeWriteFailed, fmt.Sprintf("failed to write output: %s", path)).
		WithSuggestion("check that the output directory exists and is writable").
		WithContext("file_path", path)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeProcessingError:
		message = fmt.Sprintf("unexpected error while processing data during %s", operation)
		suggestion = "review the input files and the selected columns"
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	return newOrWrap(err, CategoryInternal, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*ReconcilerError    `json:"errors"`
	SampleErrors []*ReconcilerError    `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ReconcilerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*ReconcilerError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var messages []string
	for _, err := range es.Errors {
		messages = append(messages, err.Message)
	}

	return fmt.Sprintf("%d errors occurred: %s", es.Total, strings.Join(messages, "; "))
}

// Categories returns the categories present in the summary in a stable order
func (es *ErrorSummary) Categories() []ErrorCategory {
	var categories []ErrorCategory
	for category := range es.ByCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsReconcilerError checks if an error is a ReconcilerError
func IsReconcilerError(err error) bool {
	_, ok := err.(*ReconcilerError)
	return ok
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// AsErrorSummary extracts an ErrorSummary from an error chain
func AsErrorSummary(err error) (*ErrorSummary, bool) {
	var summary *ErrorSummary
	if errors.As(err, &summary) {
		return summary, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a ReconcilerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return Wrap(err, category, code, message)
}
