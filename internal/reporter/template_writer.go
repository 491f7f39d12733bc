package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"golang-withholding-reconciler/internal/models"
	"golang-withholding-reconciler/pkg/errors"
	"golang-withholding-reconciler/pkg/logger"
)

// TemplateFormat is the file format of the filled template
type TemplateFormat string

const (
	TemplateXLSX TemplateFormat = "xlsx"
	TemplateCSV  TemplateFormat = "csv"
)

// DefaultOutputFile is written when no output path is given
const DefaultOutputFile = "plantilla_completada.xlsx"

// amountFormat is the excelize built-in number format "0.00"
const amountFormat = 2

// WriterConfig configures how the filled template is written
type WriterConfig struct {
	// Format of the file; empty means derive it from the file extension
	Format TemplateFormat
	// Sheet name of the XLSX output
	Sheet string
	// CSVDelimiter for CSV output
	CSVDelimiter rune
}

// DefaultWriterConfig returns the default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Sheet:        "Plantilla",
		CSVDelimiter: ',',
	}
}

// Validate validates the writer configuration
func (c *WriterConfig) Validate() error {
	switch c.Format {
	case "", TemplateXLSX, TemplateCSV:
	default:
		return fmt.Errorf("unsupported template format: %s", c.Format)
	}
	if strings.TrimSpace(c.Sheet) == "" {
		return fmt.Errorf("sheet name cannot be empty")
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' || c.CSVDelimiter == '"' {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// TemplateWriter writes projected rows under the template's headers
type TemplateWriter struct {
	config *WriterConfig
	logger logger.Logger
}

// NewTemplateWriter creates a template writer
func NewTemplateWriter(config *WriterConfig) (*TemplateWriter, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", config.Format, err)
	}

	return &TemplateWriter{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("template_writer"),
	}, nil
}

// FormatFor returns the format used for a path: the configured one, or the
// one named by the extension. Unknown extensions get XLSX.
func (tw *TemplateWriter) FormatFor(path string) TemplateFormat {
	if tw.config.Format != "" {
		return tw.config.Format
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return TemplateCSV
	}
	return TemplateXLSX
}

// WriteFile writes the table to path. Failures are output errors.
func (tw *TemplateWriter) WriteFile(path string, table *models.OutputTable) error {
	if table == nil {
		return errors.OutputError(path, fmt.Errorf("no output table"))
	}

	format := tw.FormatFor(path)
	log := tw.logger.WithFields(logger.Fields{
		"file_path": path,
		"format":    format,
		"rows":      table.Len(),
		"columns":   len(table.Headers),
	})

	var err error
	switch format {
	case TemplateCSV:
		err = tw.writeCSV(path, table)
	default:
		err = tw.writeXLSX(path, table)
	}
	if err != nil {
		log.WithError(err).Error("Failed to write filled template")
		return errors.OutputError(path, err)
	}

	log.Info("Filled template written")
	return nil
}

// writeXLSX writes one sheet. Amounts become numeric cells with two
// decimals; nil cells are left blank.
func (tw *TemplateWriter) writeXLSX(path string, table *models.OutputTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := tw.config.Sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for r, row := range table.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}

			switch value := v.(type) {
			case decimal.Decimal:
				if err := f.SetCellFloat(sheet, cell, value.Round(2).InexactFloat64(), -1, 64); err != nil {
					return fmt.Errorf("failed to write cell %s: %w", cell, err)
				}
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			default:
				if err := f.SetCellStr(sheet, cell, models.FormatCell(value)); err != nil {
					return fmt.Errorf("failed to write cell %s: %w", cell, err)
				}
			}
		}
	}

	return f.SaveAs(path)
}

func (tw *TemplateWriter) writeCSV(path string, table *models.OutputTable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = tw.config.CSVDelimiter

	if err := w.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = models.FormatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
