package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"golang-withholding-reconciler/pkg/logger"
)

// DateLayout is how date cells of a workbook are rendered as text
const DateLayout = "02/01/2006"

// readXLSX reads the configured sheet, or the first one, of a workbook. The
// first row is the header row; data row i comes from sheet row i+2.
//
// Cells are read without their number format so "#,##0" amounts keep their
// stored value. Numeric cells with a date format are rendered with DateLayout.
func (tr *TableReader) readXLSX(path string) ([]string, [][]string, []int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := tr.config.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read rows of sheet '%s': %w", sheet, err)
	}

	dates := newDateCells(f, sheet)
	converted := 0
	for r := 1; r < len(rows); r++ {
		for c, value := range rows[r] {
			if text, ok := dates.render(r, c, value); ok {
				rows[r][c] = text
				converted++
			}
		}
	}

	tr.logger.WithFields(logger.Fields{
		"file_path":  path,
		"sheet":      sheet,
		"rows":       len(rows),
		"date_cells": converted,
	}).Debug("Read workbook sheet")

	if len(rows) == 0 {
		return nil, nil, nil, nil
	}
	lines := make([]int, len(rows)-1)
	for i := range lines {
		lines[i] = i + 2
	}
	return rows[0], rows[1:], lines, nil
}

// dateCells decides which raw numeric cells are dates, caching the answer
// per style.
type dateCells struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{file: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// render returns the cell as a date when it holds a serial number under a
// date format. row and col are zero-based.
func (d *dateCells) render(row, col int, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", false
	}

	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	styleID, err := d.file.GetCellStyle(d.sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}

	isDate, seen := d.isDate[styleID]
	if !seen {
		isDate = d.styleIsDate(styleID)
		d.isDate[styleID] = isDate
	}
	if !isDate {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

func (d *dateCells) styleIsDate(styleID int) bool {
	style, err := d.file.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isBuiltInDateFormat(style.NumFmt)
}

// isBuiltInDateFormat covers the built-in formats that show a calendar date:
// 14-17 and 22, plus the East Asian date formats 27-36 and 50-58.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code has a day or year
// token outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	var quoted, bracketed, escaped bool
	for _, r := range strings.ToLower(code) {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracketed = true
		case r == ']':
			bracketed = false
		case bracketed:
		case r == 'd', r == 'y':
			return true
		}
	}
	return false
}
