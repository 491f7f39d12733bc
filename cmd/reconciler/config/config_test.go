package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang-withholding-reconciler/internal/parsers"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

func isConfigError(err error) bool {
	rerr, ok := errors.AsReconcilerError(err)
	return ok && rerr.Category == errors.CategoryConfiguration
}

func TestCreateReadConfig(t *testing.T) {
	tests := []struct {
		name      string
		sheet     string
		delimiter string
		encoding  string
		expected  rune
		wantErr   bool
	}{
		{name: "defaults sniff the delimiter", expected: 0},
		{name: "semicolon", delimiter: ";", expected: ';'},
		{name: "tab keyword", delimiter: "tab", expected: '\t'},
		{name: "escaped tab", delimiter: `\t`, expected: '\t'},
		{name: "windows-1252", encoding: "Windows-1252"},
		{name: "multi-character delimiter", delimiter: ";;", wantErr: true},
		{name: "quote delimiter", delimiter: `"`, wantErr: true},
		{name: "unknown encoding", encoding: "latin9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateReadConfig(tt.sheet, tt.delimiter, tt.encoding)
			if tt.wantErr {
				if !isConfigError(err) {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Delimiter != tt.expected {
				t.Errorf("expected delimiter %q, got %q", tt.expected, config.Delimiter)
			}
			if !config.SkipEmptyRows {
				t.Error("expected empty rows to be skipped")
			}
		})
	}

	config, err := CreateReadConfig(" Hoja2 ", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Sheet != "Hoja2" || config.Encoding != parsers.EncodingAuto {
		t.Errorf("unexpected config %+v", config)
	}
}

func TestCreatePreprocessingConfig(t *testing.T) {
	dir := t.TempDir()
	mappingPath := filepath.Join(dir, "columnas.yaml")
	content := "invoices:\n  total_amount: \"Monto Final\"\n  document_number: \"Nro\"\n"
	if err := os.WriteFile(mappingPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	config, err := CreatePreprocessingConfig(mappingPath, []string{"invoices.document_number=Comprobante"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.StrictInference {
		t.Error("expected strict inference")
	}
	if got := config.Mapping.Invoices[parsers.FieldTotalAmount]; got != "Monto Final" {
		t.Errorf("expected mapping file selection, got %q", got)
	}
	if got := config.Mapping.Invoices[parsers.FieldDocumentNumber]; got != "Comprobante" {
		t.Errorf("expected --set to override the file, got %q", got)
	}

	config, err = CreatePreprocessingConfig("", nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Mapping == nil || len(config.Mapping.Invoices) != 0 {
		t.Errorf("expected an empty mapping, got %+v", config.Mapping)
	}

	if _, err := CreatePreprocessingConfig(filepath.Join(dir, "missing.yaml"), nil, false); err == nil {
		t.Error("expected error for missing mapping file")
	}
	if _, err := CreatePreprocessingConfig("", []string{"nonsense"}, false); !isConfigError(err) {
		t.Errorf("expected configuration error for bad --set, got %v", err)
	}
}

func TestCreateReconcilerConfig(t *testing.T) {
	config, err := CreateReconcilerConfig("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.InferenceTolerance.String() != "0.05" || config.ResidualTolerance.String() != "0.1" {
		t.Errorf("unexpected default tolerances %s/%s", config.InferenceTolerance, config.ResidualTolerance)
	}

	config, err = CreateReconcilerConfig("0.01", " 1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.InferenceTolerance.String() != "0.01" || config.ResidualTolerance.String() != "1" {
		t.Errorf("unexpected tolerances %s/%s", config.InferenceTolerance, config.ResidualTolerance)
	}

	for _, tt := range []struct{ inference, residual string }{
		{"abc", ""},
		{"", "1,5"},
		{"-1", ""},
	} {
		if _, err := CreateReconcilerConfig(tt.inference, tt.residual); !isConfigError(err) {
			t.Errorf("%q/%q: expected configuration error, got %v", tt.inference, tt.residual, err)
		}
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format      string
		verbose     bool
		expected    reporter.OutputFormat
		maxItems    int
		includeRows bool
		wantErr     bool
	}{
		{format: "", expected: reporter.FormatConsole, maxItems: 10},
		{format: "console", verbose: true, expected: reporter.FormatConsole, maxItems: 50},
		{format: "json", expected: reporter.FormatJSON, maxItems: 10},
		{format: "json", verbose: true, expected: reporter.FormatJSON, maxItems: 10, includeRows: true},
		{format: "csv", wantErr: true},
	}

	for _, tt := range tests {
		config, err := CreateReportConfig(tt.format, tt.verbose)
		if tt.wantErr {
			if !isConfigError(err) {
				t.Errorf("%s: expected configuration error, got %v", tt.format, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.format, err)
		}
		if config.Format != tt.expected || config.MaxItems != tt.maxItems || config.IncludeRows != tt.includeRows {
			t.Errorf("%s (verbose %v): unexpected config %+v", tt.format, tt.verbose, config)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("%s: report config should be valid: %v", tt.format, err)
		}
	}
}

func TestCreateWriterConfig(t *testing.T) {
	config, err := CreateWriterConfig("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Format != "" || config.CSVDelimiter != ',' {
		t.Errorf("unexpected default writer config %+v", config)
	}

	config, err = CreateWriterConfig("CSV", ";")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Format != reporter.TemplateCSV || config.CSVDelimiter != ';' {
		t.Errorf("unexpected writer config %+v", config)
	}

	if _, err := CreateWriterConfig("ods", ""); !isConfigError(err) {
		t.Errorf("expected configuration error for ods, got %v", err)
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		format   string
		file     string
		verbose  bool
		expected logger.Level
		output   logger.Output
		wantErr  bool
	}{
		{name: "defaults", expected: logger.WarnLevel, output: logger.StderrOutput},
		{name: "verbose raises to info", verbose: true, expected: logger.InfoLevel, output: logger.StderrOutput},
		{name: "verbose keeps debug", level: "DEBUG", verbose: true, expected: logger.DebugLevel, output: logger.StderrOutput},
		{name: "file output", level: "error", file: "run.log", expected: logger.ErrorLevel, output: logger.FileOutput},
		{name: "bad level", level: "loud", wantErr: true},
		{name: "bad format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateLoggerConfig(tt.level, tt.format, tt.file, tt.verbose)
			if tt.wantErr {
				if !isConfigError(err) {
					t.Errorf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Level != tt.expected || config.Output != tt.output {
				t.Errorf("unexpected logger config %+v", config)
			}
			if config.CallerInfo != (tt.expected == logger.DebugLevel) {
				t.Errorf("expected caller info only at debug level, got %+v", config)
			}
		})
	}
}
