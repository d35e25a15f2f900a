package codec

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/fileconverter/internal/table"
)

// Parse reads a file into a table, choosing the codec from the file name.
func Parse(name string, r io.Reader) (*table.Table, Format, error) {
	f, err := FormatFromFilename(name)
	if err != nil {
		return nil, "", err
	}

	var t *table.Table
	switch f {
	case CSV:
		t, err = ReadCSV(r)
	case XLSX:
		t, err = ReadXLSX(r)
	}
	if err != nil {
		return nil, f, err
	}
	return t, f, nil
}

// Encode serializes t in format f. The returned bytes are complete; on error
// nothing is returned.
func Encode(t *table.Table, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return WriteCSV(t)
	case XLSX:
		return WriteXLSX(t)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}
