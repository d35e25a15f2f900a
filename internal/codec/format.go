// Package codec reads uploaded CSV and XLSX files into tables and writes
// tables back out in either format.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an input or output file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// MIME types sent with downloaded artifacts.
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Formats lists every supported format in display order.
var Formats = []Format{CSV, XLSX}

// ParseFormat converts a user-supplied format name ("csv", "XLSX", "excel")
// into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel", "spreadsheet":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename picks the format from a file's extension,
// case-insensitively.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// MIME returns the content type of the format.
func (f Format) MIME() string {
	if f == XLSX {
		return MIMEXLSX
	}
	return MIMECSV
}

// Label is the name shown to users.
func (f Format) Label() string {
	if f == XLSX {
		return "Excel"
	}
	return "CSV"
}

// OutputName replaces the last extension of name with the format's
// extension. A name without an extension gets one appended.
func OutputName(name string, f Format) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "output"
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base + f.Extension()
}
