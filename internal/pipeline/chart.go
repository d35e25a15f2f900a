package pipeline

import (
	"math"

	"github.com/JonMunkholm/fileconverter/internal/table"
)

// Series is one bar series. Missing and non-finite cells are nil.
type Series struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// Chart is a grouped bar chart indexed by row position.
type Chart struct {
	Labels    []int    `json:"labels"`
	Series    []Series `json:"series"`
	Truncated bool     `json:"truncated"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
}

// BuildChart plots the first two numeric columns of t, at most maxRows rows.
// It returns nil when t has fewer than two numeric columns. Min and Max span
// the plotted values and always include zero.
func BuildChart(t *table.Table, maxRows int) *Chart {
	numeric := t.NumericColumns()
	if len(numeric) < 2 {
		return nil
	}
	numeric = numeric[:2]

	n := t.NumRows()
	ch := &Chart{}
	if maxRows > 0 && n > maxRows {
		n = maxRows
		ch.Truncated = true
	}

	ch.Labels = make([]int, n)
	for i := range ch.Labels {
		ch.Labels[i] = i
	}

	for _, c := range numeric {
		s := Series{Name: c.Name, Values: make([]*float64, n)}
		for i := 0; i < n; i++ {
			v := c.Values[i]
			if v.Missing || math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
				continue
			}
			f := v.Num
			s.Values[i] = &f
			ch.Min = math.Min(ch.Min, f)
			ch.Max = math.Max(ch.Max, f)
		}
		ch.Series = append(ch.Series, s)
	}
	return ch
}
