package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/internal/reconciler"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// CreateReadConfig creates the input reading configuration. An empty
// delimiter sniffs ',' or ';' from the header line; "\t" and "tab" select a
// tab.
func CreateReadConfig(sheet, delimiter, encoding string) (*parsers.ReadConfig, error) {
	config := parsers.DefaultReadConfig()
	config.Sheet = strings.TrimSpace(sheet)

	d, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv-delimiter", delimiter, err)
	}
	config.Delimiter = d

	if encoding != "" {
		config.Encoding = strings.ToLower(strings.TrimSpace(encoding))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// CreatePreprocessingConfig loads the optional mapping file and applies the
// --set selections on top of it.
func CreatePreprocessingConfig(mappingPath string, sets []string, strict bool) (*reconciler.PreprocessingConfig, error) {
	config := reconciler.DefaultPreprocessingConfig()
	config.StrictInference = strict

	if mappingPath != "" {
		mapping, err := parsers.LoadMappingFile(mappingPath)
		if err != nil {
			return nil, err
		}
		config.Mapping = mapping
	}

	if len(sets) > 0 {
		overrides, err := parsers.ParseOverrides(sets)
		if err != nil {
			return nil, err
		}
		config.Mapping.Merge(overrides)
	}

	return config, nil
}

// CreateReconcilerConfig creates the engine configuration. Empty tolerances
// keep the defaults.
func CreateReconcilerConfig(inferenceTolerance, residualTolerance string) (*reconciler.Config, error) {
	config := reconciler.DefaultConfig()

	if inferenceTolerance != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(inferenceTolerance))
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "inference-tolerance", inferenceTolerance, err)
		}
		config.InferenceTolerance = d
	}

	if residualTolerance != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(residualTolerance))
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "residual-tolerance", residualTolerance, err)
		}
		config.ResidualTolerance = d
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", config.String(), err)
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the specified format
func CreateReportConfig(format string, verbose bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()

	switch format {
	case "", "console":
		config.Format = reporter.FormatConsole
		if verbose {
			config.MaxItems = 50
		}
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeRows = verbose
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", format, nil).
			WithSuggestion("valid report formats: console, json")
	}

	return config, nil
}

// CreateWriterConfig creates the filled template writer configuration
func CreateWriterConfig(format, delimiter string) (*reporter.WriterConfig, error) {
	config := reporter.DefaultWriterConfig()

	switch strings.ToLower(format) {
	case "":
	case "xlsx":
		config.Format = reporter.TemplateXLSX
	case "csv":
		config.Format = reporter.TemplateCSV
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format, nil).
			WithSuggestion("valid output formats: xlsx, csv")
	}

	d, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv-delimiter", delimiter, err)
	}
	if d != 0 {
		config.CSVDelimiter = d
	}

	return config, nil
}

// CreateLoggerConfig creates the logger configuration. A log file switches
// the output to that file.
func CreateLoggerConfig(level, format, file string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()
	config.Level = logger.WarnLevel

	if level != "" {
		config.Level = logger.Level(strings.ToLower(level))
	}
	if config.Level == logger.DebugLevel {
		config = logger.DebugConfig()
	}
	if verbose && config.Level != logger.DebugLevel {
		config.Level = logger.InfoLevel
	}
	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}
	if file != "" {
		config.Output = logger.FileOutput
		config.File = file
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", level+"/"+format, err)
	}
	return config, nil
}
