// Package parsers reads the three spreadsheets of a reconciliation run into
// in-memory tables and turns rows into typed records.
//
// Key features:
//   - XLSX (first or named sheet) and CSV input, chosen by file extension
//   - CSV delimiter sniffing and Windows-1252 decoding for legacy exports
//   - Column inference from per-field header variants, with ambiguity
//     reporting for manual resolution
//   - Manual column selection from a YAML mapping file or key=value
//     overrides
//   - Record builders that coerce amounts and report missing mapped columns
//
// Example usage:
//
//	reader := NewTableReader(DefaultReadConfig())
//	invoices, err := reader.ReadFile(ctx, TableInvoices, "compras.xlsx")
//	mapping, results := InferMapping(invoices, InvoiceSchema, false)
//	records, err := BuildInvoices(invoices, mapping, "|")
package parsers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// ParseError represents an error that occurred while reading a table row
type ParseError struct {
	Line    int
	Column  int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s: %v",
			e.Line, e.Column, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s",
		e.Line, e.Column, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Supported CSV encodings
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ReadConfig holds configuration for reading input tables
type ReadConfig struct {
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
	// Delimiter for CSV input; zero sniffs ',' or ';' from the header line.
	Delimiter rune
	// Encoding of CSV input. With EncodingAuto, files that are not valid
	// UTF-8 are decoded as Windows-1252.
	Encoding      string
	SkipEmptyRows bool
}

// DefaultReadConfig returns a configuration with sensible defaults
func DefaultReadConfig() *ReadConfig {
	return &ReadConfig{
		Delimiter:     0,
		Encoding:      EncodingAuto,
		SkipEmptyRows: true,
	}
}

// Validate checks the read configuration
func (c *ReadConfig) Validate() error {
	switch strings.ToLower(c.Encoding) {
	case EncodingAuto, EncodingUTF8, EncodingWindows1252, "":
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "csv-encoding", c.Encoding, nil)
	}
	if c.Delimiter == '\n' || c.Delimiter == '\r' || c.Delimiter == '"' {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "csv-delimiter", string(c.Delimiter), nil)
	}
	return nil
}

// TableReader loads spreadsheets into models.Table values
type TableReader struct {
	config *ReadConfig
	logger logger.Logger
}

// NewTableReader creates a new TableReader with the given configuration
func NewTableReader(config *ReadConfig) *TableReader {
	if config == nil {
		config = DefaultReadConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("table_reader")
	log.WithFields(logger.Fields{
		"sheet":     config.Sheet,
		"delimiter": string(config.Delimiter),
		"encoding":  config.Encoding,
	}).Debug("Created table reader")

	return &TableReader{
		config: config,
		logger: log,
	}
}

// ReadFile reads one input file. The table name is used for error context.
func (tr *TableReader) ReadFile(ctx context.Context, name, path string) (*models.Table, error) {
	log := tr.logger.WithFields(logger.Fields{"table": name, "file_path": path})

	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "read "+name, err)
	}

	if _, err := os.Stat(path); err != nil {
		log.WithError(err).Error("Input file not accessible")
		if os.IsNotExist(err) {
			return nil, errors.InputError(errors.CodeFileNotFound, name, path, err)
		}
		return nil, errors.InputError(errors.CodeInputReadFailed, name, path, err)
	}

	var (
		headers []string
		rows    [][]string
		lines   []int
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		headers, rows, lines, err = tr.readXLSX(path)
	case ".csv", ".txt":
		headers, rows, lines, err = tr.readCSV(path)
	default:
		log.Error("Unsupported input file type")
		return nil, errors.InputError(errors.CodeUnsupportedType, name, path, nil)
	}
	if err != nil {
		log.WithError(err).Error("Failed to read input file")
		if rerr, ok := errors.AsReconcilerError(err); ok {
			return nil, rerr
		}
		return nil, errors.InputError(errors.CodeInputReadFailed, name, path, err)
	}
	if len(headers) == 0 {
		log.Error("Input file has no header row")
		return nil, errors.InputError(errors.CodeEmptyTable, name, path, nil)
	}

	if tr.config.SkipEmptyRows {
		rows, lines = dropEmptyRows(rows, lines)
	}

	table := models.NewTable(name, headers, rows)
	table.Lines = lines
	log.WithFields(logger.Fields{
		"columns": len(table.Headers),
		"rows":    table.Len(),
	}).Info("Loaded input table")

	return table, nil
}

// readCSV reads a delimited text file. It also returns the line each data
// record starts on, since the csv reader skips blank lines.
func (tr *TableReader) readCSV(path string) ([]string, [][]string, []int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}

	var src io.Reader = bytes.NewReader(data)
	encoding := strings.ToLower(tr.config.Encoding)
	if encoding == EncodingWindows1252 || (encoding != EncodingUTF8 && !utf8.Valid(data)) {
		tr.logger.WithField("file_path", path).Debug("Decoding CSV as Windows-1252")
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	buffered := bufio.NewReader(src)
	delimiter := tr.config.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(buffered)
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		records [][]string
		lines   []int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := len(records) + 1
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				line = perr.StartLine
			}
			return nil, nil, nil, &ParseError{Line: line, Message: "malformed CSV record", Err: err}
		}
		start, _ := reader.FieldPos(0)
		records = append(records, record)
		lines = append(lines, start)
	}

	if len(records) == 0 {
		return nil, nil, nil, nil
	}
	return records[0], records[1:], lines[1:], nil
}

// sniffDelimiter looks at the first line and picks ';' when it outnumbers ','
func sniffDelimiter(r *bufio.Reader) rune {
	peek, _ := r.Peek(4096)
	first := string(peek)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}

// dropEmptyRows removes rows whose cells are all empty or whitespace, along
// with their entries in lines
func dropEmptyRows(rows [][]string, lines []int) ([][]string, []int) {
	outRows := rows[:0]
	outLines := lines[:0]
	for i, row := range rows {
		if !isEmptyRecord(row) {
			outRows = append(outRows, row)
			outLines = append(outLines, lines[i])
		}
	}
	return outRows, outLines
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// ReadStats holds statistics about a set of loaded tables
type ReadStats struct {
	TablesRead int
	RowsRead   int
	Errors     []*errors.ReconcilerError
}

// String returns a human-readable summary of the read
func (rs *ReadStats) String() string {
	return fmt.Sprintf("Read %d tables, %d rows, %d errors", rs.TablesRead, rs.RowsRead, len(rs.Errors))
}

// InputFiles names the three files of a run
type InputFiles struct {
	Invoices     string
	Withholdings string
	Template     string
}

// InputTables holds the three loaded tables of a run
type InputTables struct {
	Invoices     *models.Table
	Withholdings *models.Table
	Template     *models.Table
}

// ReadAll reads the three input files. A failure in one file does not stop
// the others from being read; all failures are returned together as an
// errors.ErrorSummary.
func (tr *TableReader) ReadAll(ctx context.Context, files InputFiles) (*InputTables, *ReadStats, error) {
	stats := &ReadStats{}
	tables := &InputTables{}

	targets := []struct {
		name string
		path string
		dst  **models.Table
	}{
		{TableInvoices, files.Invoices, &tables.Invoices},
		{TableWithholdings, files.Withholdings, &tables.Withholdings},
		{TableTemplate, files.Template, &tables.Template},
	}

	for _, target := range targets {
		table, err := tr.ReadFile(ctx, target.name, target.path)
		if err != nil {
			stats.Errors = append(stats.Errors, errors.WrapIfNeeded(err, errors.CategoryInput, errors.CodeInputReadFailed, "failed to read "+target.name))
			continue
		}
		*target.dst = table
		stats.TablesRead++
		stats.RowsRead += table.Len()
	}

	if len(stats.Errors) > 0 {
		return nil, stats, errors.NewErrorSummary(stats.Errors)
	}
	return tables, stats, nil
}
