package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownColumn is returned when a projection names a column the table
// does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Deduplicate removes every row that is identical to an earlier row,
// keeping the first occurrence and the order of the remaining rows.
// Missing cells compare equal to each other. It returns the number of rows
// removed.
func (t *Table) Deduplicate() int {
	n := t.NumRows()
	if n == 0 {
		return 0
	}

	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		key := t.rowKey(i)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	removed := n - len(keep)
	if removed == 0 {
		return 0
	}

	for _, c := range t.Columns {
		vals := make([]Value, len(keep))
		for j, i := range keep {
			vals[j] = c.Values[i]
		}
		c.Values = vals
	}
	return removed
}

// rowKey encodes row i so that two rows share a key exactly when every cell
// is equal. Each cell is tagged and length-prefixed to avoid collisions.
func (t *Table) rowKey(i int) string {
	var b strings.Builder
	for _, c := range t.Columns {
		v := c.Values[i]
		switch {
		case v.Missing:
			b.WriteString("m;")
		case c.Kind == KindNumeric:
			b.WriteString("n")
			b.WriteString(strconv.FormatUint(math.Float64bits(normZero(v.Num)), 16))
			b.WriteByte(';')
		default:
			b.WriteString("s")
			b.WriteString(strconv.Itoa(len(v.Str)))
			b.WriteByte(':')
			b.WriteString(v.Str)
		}
	}
	return b.String()
}

// normZero folds -0 into 0 so they deduplicate together.
func normZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// FillMissingWithMean replaces missing cells of every numeric column with
// that column's mean. All means are computed before any cell is written, so
// the fill value never depends on previously filled cells. A column without
// any values has a NaN mean and keeps its missing cells. Text columns are
// left untouched. It returns the number of cells filled.
func (t *Table) FillMissingWithMean() int {
	means := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		means[i] = c.Mean()
	}

	filled := 0
	for i, c := range t.Columns {
		if c.Kind != KindNumeric || math.IsNaN(means[i]) {
			continue
		}
		for r, v := range c.Values {
			if v.Missing {
				c.Values[r] = Number(means[i])
				filled++
			}
		}
	}
	return filled
}

// Project restricts the table to the named columns, keeping the table's own
// column order. A nil selection keeps every column. Repeated names are
// ignored. Every name must exist; on error the table is left unchanged.
// It returns the number of columns dropped.
func (t *Table) Project(names []string) (int, error) {
	if names == nil {
		return 0, nil
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := t.Column(name); !ok {
			return 0, fmt.Errorf("%w %q", ErrUnknownColumn, name)
		}
		want[name] = true
	}

	kept := make([]*Column, 0, len(want))
	for _, c := range t.Columns {
		if want[c.Name] {
			kept = append(kept, c)
		}
	}
	dropped := len(t.Columns) - len(kept)
	t.Columns = kept
	return dropped, nil
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}
