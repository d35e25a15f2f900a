// Package table provides the in-memory columnar table that uploaded files are
// parsed into, together with the cleaning operations applied to it.
//
// A Table is an ordered list of named columns of equal length. Every column
// has a Kind (numeric or text) decided when the table is built, and each cell
// holds either a value of that kind or the missing marker. Operations mutate
// the table in place; use Clone when an untouched copy is needed.
package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the declared type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// Value is a single cell. Numeric cells use Num, text cells use Str.
// A missing cell has Missing set and its other fields are ignored.
type Value struct {
	Num     float64
	Str     string
	Missing bool
}

// Number returns a numeric cell. NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{Num: f}
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{Str: s}
}

// Null returns the missing marker.
func Null() Value {
	return Value{Missing: true}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Format renders cell i the way it is written to output files.
// Missing cells render as the empty string.
func (c *Column) Format(i int) string {
	v := c.Values[i]
	if v.Missing {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(v.Num)
	}
	return v.Str
}

// Mean returns the arithmetic mean of the non-missing cells of a numeric
// column. It returns NaN for text columns and for columns with no values.
func (c *Column) Mean() float64 {
	if c.Kind != KindNumeric {
		return math.NaN()
	}
	var sum float64
	var n int
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		sum += v.Num
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			n++
		}
	}
	return n
}

// FormatNumber writes f in the shortest form that parses back to f.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []*Column
}

// New builds a table from columns, checking that they have equal length
// and unique names.
func New(cols ...*Column) (*Table, error) {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{Columns: cols}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Record returns row i as formatted strings.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		rec[j] = c.Format(i)
	}
	return rec
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{Columns: cols}
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]Value, n)
		copy(vals, c.Values[:n])
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{Columns: cols}
}

// Equal reports whether two tables have the same columns, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t.NumCols() != o.NumCols() || t.NumRows() != o.NumRows() {
		return false
	}
	for i, c := range t.Columns {
		oc := o.Columns[i]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for r := range c.Values {
			if !sameCell(c.Kind, c.Values[r], oc.Values[r]) {
				return false
			}
		}
	}
	return true
}

func sameCell(k Kind, a, b Value) bool {
	if a.Missing || b.Missing {
		return a.Missing == b.Missing
	}
	if k == KindNumeric {
		return a.Num == b.Num
	}
	return a.Str == b.Str
}
