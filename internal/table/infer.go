package table

// infer.go builds typed tables from raw string records.
//
// Both file codecs hand over a header row and data rows of strings. The rules
// here decide which strings mean "missing", how blank or repeated header names
// are fixed up, and whether a column is numeric.

import (
	"regexp"
	"strconv"
	"strings"
)

// missingMarkers are cell values read as missing.
var missingMarkers = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// IsMissingMarker reports whether a raw cell denotes a missing value.
func IsMissingMarker(s string) bool {
	return missingMarkers[strings.TrimSpace(s)]
}

// ParseNumber parses a raw cell as a number. Surrounding whitespace is
// ignored. Besides plain decimals it accepts inf/-inf spelled the way
// spreadsheets and CSV exporters write them.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if numericRegex.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	switch strings.ToLower(s) {
	case "inf", "+inf", "infinity", "-inf", "-infinity":
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// FromRecords builds a table from a header and data rows. Rows shorter than
// the header are padded with missing cells; callers reject longer rows
// before calling. Blank header names become "Unnamed: <index>" and repeated
// names get ".1", ".2" suffixes.
func FromRecords(header []string, rows [][]string) *Table {
	return FromTypedRecords(header, rows, nil)
}

// FromTypedRecords is FromRecords for sources that declare cell types.
// Column j is text when text[j] is set, whatever its cells look like.
func FromTypedRecords(header []string, rows [][]string, text []bool) *Table {
	names := headerNames(header)

	cols := make([]*Column, len(names))
	for j, name := range names {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			}
		}
		cols[j] = buildColumn(name, raw, j < len(text) && text[j])
	}
	return &Table{Columns: cols}
}

// buildColumn decides the column kind and converts every cell.
func buildColumn(name string, raw []string, forceText bool) *Column {
	numeric := !forceText
	nums := make([]float64, len(raw))
	missing := make([]bool, len(raw))
	for i, s := range raw {
		if IsMissingMarker(s) {
			missing[i] = true
			continue
		}
		if !numeric {
			continue
		}
		f, ok := ParseNumber(s)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = f
	}

	col := &Column{Name: name, Values: make([]Value, len(raw))}
	if numeric {
		col.Kind = KindNumeric
	}
	for i, s := range raw {
		switch {
		case missing[i]:
			col.Values[i] = Null()
		case numeric:
			col.Values[i] = Number(nums[i])
		default:
			col.Values[i] = Text(s)
		}
	}
	return col
}

// headerNames fixes blank and repeated header cells.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			base := name
			for n := 1; used[name]; n++ {
				name = base + "." + strconv.Itoa(n)
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
