package codec

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/fileconverter/internal/table"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first sheet of a workbook. The first non-blank row is
// the header and blank rows are skipped, as for CSV. Cells keep their
// declared type: string, boolean and error cells make their column text,
// and date-formatted numbers are rendered as dates in a text column. Other
// numbers are read as raw values so number formats do not turn them into
// text. Data wider than the header adds unnamed columns.
func ReadXLSX(r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: XLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: XLSX, Err: ErrEmptyFile}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Format: XLSX, Err: fmt.Errorf("sheet %q: %w", sheets[0], err)}
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	sr := newSheetReader(f, sheets[0])
	text := make([]bool, width)
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		rec := make([]string, len(row))
		for j, raw := range row {
			v, isText, err := sr.cell(j+1, i+1, raw)
			if err != nil {
				return nil, &ParseError{Format: XLSX, Line: i + 1, Err: err}
			}
			rec[j] = v
			// Header cells are names and say nothing about the column type.
			if isText && len(records) > 0 {
				text[j] = true
			}
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &ParseError{Format: XLSX, Err: ErrEmptyFile}
	}

	header := make([]string, width)
	copy(header, records[0])

	return table.FromTypedRecords(header, records[1:], text), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// sheetReader resolves cell types and number formats for one sheet.
type sheetReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func newSheetReader(f *excelize.File, sheet string) *sheetReader {
	sr := &sheetReader{f: f, sheet: sheet, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		sr.date1904 = *props.Date1904
	}
	return sr
}

// cell returns the value to store for the cell at (col, row) and whether the
// cell declares a non-numeric type.
func (sr *sheetReader) cell(col, row int, raw string) (string, bool, error) {
	if raw == "" {
		return "", false, nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false, err
	}
	typ, err := sr.f.GetCellType(sr.sheet, name)
	if err != nil {
		return "", false, err
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		isDate, err := sr.dateFormatted(name)
		if err != nil {
			return "", false, err
		}
		if !isDate {
			return raw, false, nil
		}
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw, true, nil
		}
		return sr.formatDate(serial), true, nil
	case excelize.CellTypeBool:
		switch raw {
		case "1":
			return "True", true, nil
		case "0":
			return "False", true, nil
		}
		return raw, true, nil
	default:
		return raw, true, nil
	}
}

// dateFormatted reports whether the cell's number format displays a date
// or time.
func (sr *sheetReader) dateFormatted(cell string) (bool, error) {
	id, err := sr.f.GetCellStyle(sr.sheet, cell)
	if err != nil {
		return false, err
	}
	if isDate, ok := sr.dateStyles[id]; ok {
		return isDate, nil
	}

	isDate := false
	// Workbooks without a style table have no date formats.
	if style, err := sr.f.GetStyle(id); err == nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isDateNumFmt(style.NumFmt)
		}
	}
	sr.dateStyles[id] = isDate
	return isDate, nil
}

// formatDate renders an Excel serial date. Whole days print as a date,
// fractions below one as a time of day.
func (sr *sheetReader) formatDate(serial float64) string {
	t, err := excelize.ExcelDateToTime(serial, sr.date1904)
	if err != nil {
		return table.FormatNumber(serial)
	}
	switch {
	case serial < 1:
		return t.Format(time.TimeOnly)
	case serial == math.Trunc(serial):
		return t.Format(time.DateOnly)
	default:
		return t.Format(time.DateTime)
	}
}

// isDateNumFmt reports whether a built-in number format ID is a date or
// time format, including the East Asian locale formats.
func isDateNumFmt(id int) bool {
	switch {
	case 14 <= id && id <= 22, 45 <= id && id <= 47:
		return true
	case 27 <= id && id <= 36, 50 <= id && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format code contains
// date or time tokens in its first section. Quoted literals, escaped
// characters and bracketed colour or locale tags are ignored; elapsed time
// tags such as [h] count.
func isDateFormatCode(code string) bool {
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			end := strings.IndexByte(code[i+1:], '"')
			if end < 0 {
				return false
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				return false
			}
			switch strings.ToLower(code[i+1 : i+end]) {
			case "h", "hh", "m", "mm", "s", "ss":
				return true
			}
			i += end
		case ';':
			return false
		default:
			switch c | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

// WriteXLSX serializes t to a single-sheet workbook with a header row and no
// index column. Missing cells are left empty.
func WriteXLSX(t *table.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, &IOError{Format: XLSX, Op: "open sheet", Err: err}
	}

	header := make([]interface{}, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, &IOError{Format: XLSX, Op: "write header", Err: err}
	}

	for i := 0; i < t.NumRows(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, &IOError{Format: XLSX, Op: fmt.Sprintf("write row %d", i+1), Err: err}
		}
		if err := sw.SetRow(cell, xlsxRow(t, i)); err != nil {
			return nil, &IOError{Format: XLSX, Op: fmt.Sprintf("write row %d", i+1), Err: err}
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, &IOError{Format: XLSX, Op: "flush", Err: err}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &IOError{Format: XLSX, Op: "write workbook", Err: err}
	}
	return buf.Bytes(), nil
}

// xlsxRow converts row i to cell values. Missing cells are nil; infinities,
// which a workbook cannot store as numbers, are written as text.
func xlsxRow(t *table.Table, i int) []interface{} {
	row := make([]interface{}, t.NumCols())
	for j, c := range t.Columns {
		v := c.Values[i]
		switch {
		case v.Missing:
			row[j] = nil
		case c.Kind == table.KindNumeric && math.IsInf(v.Num, 0):
			row[j] = table.FormatNumber(v.Num)
		case c.Kind == table.KindNumeric:
			row[j] = v.Num
		default:
			row[j] = v.Str
		}
	}
	return row
}
