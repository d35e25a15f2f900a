package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/fileconverter/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", CSV, false},
		{"DATA.CSV", CSV, false},
		{"report.final.xlsx", XLSX, false},
		{"legacy.xls", "", true},
		{"notes.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromFilename(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": CSV, "CSV": CSV, "xlsx": XLSX, "Excel": XLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in     string
		format Format
		want   string
	}{
		{"data.xlsx", CSV, "data.csv"},
		{"data.csv", XLSX, "data.xlsx"},
		{"data.csv", CSV, "data.csv"},
		{"csv_export.csv", XLSX, "csv_export.xlsx"},
		{"my.report.xlsx", CSV, "my.report.csv"},
		{"noext", CSV, "noext.csv"},
		{"dir/sub/data.CSV", XLSX, "data.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.in, tt.format))
		})
	}
}

func TestMIME(t *testing.T) {
	assert.Equal(t, "text/csv", CSV.MIME())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", XLSX.MIME())
}

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBFname,qty,price\nwidget,3,1.5\n\ngadget,,2\nbolt,NA\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "qty", "price"}, tbl.Names())
	assert.Equal(t, 3, tbl.NumRows(), "blank line skipped")

	qty, _ := tbl.Column("qty")
	assert.Equal(t, table.KindNumeric, qty.Kind)
	assert.Equal(t, 2, qty.MissingCount())

	price, _ := tbl.Column("price")
	assert.True(t, price.Values[2].Missing, "short row padded")
}

func TestReadCSV_InvalidUTF8Replaced(t *testing.T) {
	tbl, err := ReadCSV(bytes.NewReader([]byte("name\nab\x80c\n")))
	require.NoError(t, err)
	assert.Equal(t, "ab\uFFFDc", tbl.Columns[0].Values[0].Str)
}

func TestReadCSV_Errors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("too many fields", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2\n1,2,3\n"))
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 3, pe.Line)
		assert.Contains(t, err.Error(), "parse error")
	})
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Names())
	assert.Zero(t, tbl.NumRows())
}

func TestWriteCSV(t *testing.T) {
	tbl := table.MustNew(
		&table.Column{Name: "A", Kind: table.KindNumeric, Values: []table.Value{table.Number(1), table.Number(2.5)}},
		&table.Column{Name: "B", Kind: table.KindText, Values: []table.Value{table.Text("x, y"), table.Null()}},
	)

	out, err := WriteCSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "A,B\n1,\"x, y\"\n2.5,\n", string(out))
}

func TestWriteCSV_SingleColumnMissingSurvivesRoundTrip(t *testing.T) {
	tbl := table.MustNew(
		&table.Column{Name: "A", Kind: table.KindNumeric, Values: []table.Value{table.Number(1), table.Null(), table.Number(3)}},
	)

	out, err := WriteCSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "A\n1\n\"\"\n3\n", string(out))

	back, err := ReadCSV(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 3, back.NumRows())
	assert.Equal(t, 1, back.Columns[0].MissingCount())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestEncodeCSV_WriteFailureIsIOError(t *testing.T) {
	tbl := table.MustNew(&table.Column{Name: "A", Kind: table.KindText, Values: []table.Value{table.Text("x")}})

	err := encodeCSV(failingWriter{}, tbl)
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCSVRoundTrip(t *testing.T) {
	input := "id,name,score\n1,alice,10\n2,,\n3,carol,7.25\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	out, err := WriteCSV(tbl)
	require.NoError(t, err)

	back, err := ReadCSV(bytes.NewReader(out))
	require.NoError(t, err)
	assert.True(t, tbl.Equal(back))
}

func TestXLSXRoundTrip(t *testing.T) {
	tbl := table.MustNew(
		&table.Column{Name: "A", Kind: table.KindNumeric, Values: []table.Value{table.Number(1), table.Null(), table.Number(3.5)}},
		&table.Column{Name: "B", Kind: table.KindText, Values: []table.Value{table.Text("x"), table.Text("y"), table.Null()}},
	)

	out, err := WriteXLSX(tbl)
	require.NoError(t, err)

	back, err := ReadXLSX(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, back.Names())
	assert.True(t, tbl.Equal(back))
}

func TestReadXLSX_FirstSheetAndWideRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "name"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "amount"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "alpha"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 12))
	require.NoError(t, f.SetCellValue(sheet, "C3", "extra"))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := ReadXLSX(buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "amount", "Unnamed: 2"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())
	amount, _ := tbl.Column("amount")
	assert.Equal(t, table.KindNumeric, amount.Kind)
	assert.Equal(t, 12.0, amount.Values[0].Num)
}

func TestReadXLSX_DeclaredCellTypes(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]interface{}{
		"A1": "zip", "B1": "when", "C1": "at", "D1": "ok", "E1": "n",
		"A2": "00123", "B2": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "C2": 45352.5, "D2": true, "E2": 1,
		"A4": "456", "B4": time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "D4": false,
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	code := "yyyy-mm-dd hh:mm"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &code})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", style))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := ReadXLSX(buf)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumRows(), "the blank third row is skipped")

	kinds := make([]table.Kind, tbl.NumCols())
	for j, c := range tbl.Columns {
		kinds[j] = c.Kind
	}
	assert.Equal(t, []table.Kind{table.KindText, table.KindText, table.KindText, table.KindText, table.KindNumeric}, kinds)

	out, err := WriteCSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "zip,when,at,ok,n\n00123,2024-03-01,2024-03-01 12:00:00,True,1\n456,2024-03-02,,False,\n", string(out))

	// Only the numeric column is filled; dates stay as they are.
	assert.Equal(t, 1, tbl.FillMissingWithMean())
	at, _ := tbl.Column("at")
	assert.True(t, at.Values[1].Missing)
	n, _ := tbl.Column("n")
	assert.Equal(t, 1.0, n.Values[1].Num)
}

func TestReadXLSX_BlankSheet(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ReadXLSX(buf)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestIsDateFormatCode(t *testing.T) {
	tests := map[string]bool{
		"yyyy-mm-dd":      true,
		"[$-409]d-mmm-yy": true,
		"[h]:mm":          true,
		"hh:mm AM/PM":     true,
		"General":         false,
		"#,##0.00":        false,
		"0.00E+00":        false,
		`0.0" days"`:      false,
		`\d0`:            false,
		"[Red]0.00":       false,
		"0.00;[Red]-0.00": false,
		"@":               false,
	}
	for code, want := range tests {
		assert.Equal(t, want, isDateFormatCode(code), code)
	}
}

func TestIsDateNumFmt(t *testing.T) {
	for _, id := range []int{14, 17, 22, 45, 47} {
		assert.True(t, isDateNumFmt(id), id)
	}
	for _, id := range []int{0, 1, 2, 4, 10, 49} {
		assert.False(t, isDateNumFmt(id), id)
	}
}

func TestReadXLSX_Garbage(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a zip"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, XLSX, pe.Format)
}

func TestParse(t *testing.T) {
	tbl, f, err := Parse("data.csv", strings.NewReader("a\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	assert.Equal(t, 1, tbl.NumRows())

	_, _, err = Parse("data.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(table.MustNew(), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
