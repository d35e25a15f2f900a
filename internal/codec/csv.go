package codec

// csv.go reads and writes comma-separated files.
//
// Uploaded CSVs are often produced by spreadsheet exports and carry a UTF-8
// BOM or stray non-UTF-8 bytes. The BOM is stripped and invalid sequences are
// replaced with U+FFFD before parsing so that header names and text cells stay
// printable.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/JonMunkholm/fileconverter/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitize strips a leading BOM and replaces invalid UTF-8.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// ReadCSV parses a CSV file whose first record is the header.
// Blank lines are skipped, short records are padded with missing cells and a
// record with more fields than the header is a ParseError.
func ReadCSV(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: CSV, Err: err}
	}

	cr := csv.NewReader(bytes.NewReader(sanitize(data)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Format: CSV, Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Format: CSV,
				Line:   line,
				Err:    fmt.Errorf("expected %d fields, saw %d", len(header), len(rec)),
			}
		}
		rows = append(rows, rec)
	}

	return table.FromRecords(header, rows), nil
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Format: CSV, Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Format: CSV, Err: err}
}

// WriteCSV serializes t with a header row and no index column.
func WriteCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return &IOError{Format: CSV, Op: "write header", Err: err}
	}
	for i := 0; i < t.NumRows(); i++ {
		rec := t.Record(i)
		if len(rec) == 1 && rec[0] == "" {
			// A lone empty field would be a blank line, which readers skip.
			cw.Flush()
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return &IOError{Format: CSV, Op: fmt.Sprintf("write row %d", i+1), Err: err}
			}
			continue
		}
		if err := cw.Write(rec); err != nil {
			return &IOError{Format: CSV, Op: fmt.Sprintf("write row %d", i+1), Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &IOError{Format: CSV, Op: "flush", Err: err}
	}
	return nil
}
