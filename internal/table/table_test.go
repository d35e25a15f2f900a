package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(vals ...any) *Column {
	c := &Column{Kind: KindNumeric}
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			c.Values = append(c.Values, Null())
		case int:
			c.Values = append(c.Values, Number(float64(x)))
		case float64:
			c.Values = append(c.Values, Number(x))
		}
	}
	return c
}

func text(vals ...any) *Column {
	c := &Column{Kind: KindText}
	for _, v := range vals {
		if v == nil {
			c.Values = append(c.Values, Null())
			continue
		}
		c.Values = append(c.Values, Text(v.(string)))
	}
	return c
}

func named(name string, c *Column) *Column {
	c.Name = name
	return c
}

func TestNew_RejectsRaggedAndDuplicateColumns(t *testing.T) {
	_, err := New(named("A", num(1, 2)), named("B", num(1)))
	require.Error(t, err)

	_, err = New(named("A", num(1)), named("A", num(2)))
	require.Error(t, err)
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name        string
		table       *Table
		wantRemoved int
		want        *Table
	}{
		{
			name:        "keeps first occurrence and order",
			table:       MustNew(named("A", num(1, 2, 1, 3, 2)), named("B", text("x", "y", "x", "z", "y"))),
			wantRemoved: 2,
			want:        MustNew(named("A", num(1, 2, 3)), named("B", text("x", "y", "z"))),
		},
		{
			name:        "missing equals missing",
			table:       MustNew(named("A", num(nil, nil, 1)), named("B", text(nil, nil, "a"))),
			wantRemoved: 1,
			want:        MustNew(named("A", num(nil, 1)), named("B", text(nil, "a"))),
		},
		{
			name:        "partial match is not a duplicate",
			table:       MustNew(named("A", num(1, 1)), named("B", text("a", "b"))),
			wantRemoved: 0,
			want:        MustNew(named("A", num(1, 1)), named("B", text("a", "b"))),
		},
		{
			name:        "missing differs from empty text",
			table:       MustNew(named("B", text(nil, ""))),
			wantRemoved: 0,
			want:        MustNew(named("B", text(nil, ""))),
		},
		{
			name:        "empty table",
			table:       MustNew(named("A", num())),
			wantRemoved: 0,
			want:        MustNew(named("A", num())),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed := tt.table.Deduplicate()
			assert.Equal(t, tt.wantRemoved, removed)
			assert.True(t, tt.table.Equal(tt.want), "got %v", tt.table.Names())
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	tbl := MustNew(named("A", num(1, 1, 2, 2, nil, nil)), named("B", text("a", "a", "b", "c", nil, nil)))
	tbl.Deduplicate()
	once := tbl.Clone()

	assert.Zero(t, tbl.Deduplicate())
	assert.True(t, tbl.Equal(once))
}

func TestDeduplicate_NoDuplicatesIsNoop(t *testing.T) {
	tbl := MustNew(named("A", num(1, 2, 3)), named("B", text("a", "b", "c")))
	before := tbl.Clone()

	assert.Zero(t, tbl.Deduplicate())
	assert.True(t, tbl.Equal(before))
}

func TestFillMissingWithMean(t *testing.T) {
	tbl := MustNew(
		named("A", num(1, nil, 3, nil)),
		named("B", text("x", nil, "y", nil)),
		named("C", num(nil, nil, nil, nil)),
	)

	filled := tbl.FillMissingWithMean()

	assert.Equal(t, 2, filled)
	a, _ := tbl.Column("A")
	for i, want := range []float64{1, 2, 3, 2} {
		require.False(t, a.Values[i].Missing)
		assert.Equal(t, want, a.Values[i].Num)
	}

	b, _ := tbl.Column("B")
	assert.Equal(t, 2, b.MissingCount(), "text columns keep missing markers")

	c, _ := tbl.Column("C")
	assert.Equal(t, 4, c.MissingCount(), "NaN mean passes through as missing")
}

func TestFillMissingWithMean_UsesPreFillMean(t *testing.T) {
	tbl := MustNew(named("A", num(10, nil, nil, 20, nil)))
	before, _ := tbl.Column("A")
	mean := before.Mean()

	tbl.FillMissingWithMean()

	a, _ := tbl.Column("A")
	assert.Zero(t, a.MissingCount())
	for _, i := range []int{1, 2, 4} {
		assert.Equal(t, mean, a.Values[i].Num)
	}
	assert.Equal(t, 15.0, mean)
}

func TestColumnMean(t *testing.T) {
	assert.Equal(t, 2.5, num(1, 2, 3, 4).Mean())
	assert.True(t, math.IsNaN(num(nil).Mean()))
	assert.True(t, math.IsNaN(text("1").Mean()))
}

func TestProject(t *testing.T) {
	newTable := func() *Table {
		return MustNew(named("A", num(1)), named("B", text("b")), named("C", num(3)))
	}

	t.Run("nil keeps all", func(t *testing.T) {
		tbl := newTable()
		dropped, err := tbl.Project(nil)
		require.NoError(t, err)
		assert.Zero(t, dropped)
		assert.Equal(t, []string{"A", "B", "C"}, tbl.Names())
	})

	t.Run("keeps table order", func(t *testing.T) {
		tbl := newTable()
		dropped, err := tbl.Project([]string{"C", "A"})
		require.NoError(t, err)
		assert.Equal(t, 1, dropped)
		assert.Equal(t, []string{"A", "C"}, tbl.Names())
	})

	t.Run("idempotent", func(t *testing.T) {
		tbl := newTable()
		_, err := tbl.Project([]string{"C", "B"})
		require.NoError(t, err)
		first := tbl.Clone()

		dropped, err := tbl.Project([]string{"C", "B"})
		require.NoError(t, err)
		assert.Zero(t, dropped)
		assert.True(t, tbl.Equal(first))
	})

	t.Run("unknown column leaves table unchanged", func(t *testing.T) {
		tbl := newTable()
		_, err := tbl.Project([]string{"A", "Z"})
		require.ErrorIs(t, err, ErrUnknownColumn)
		assert.Equal(t, []string{"A", "B", "C"}, tbl.Names())
	})

	t.Run("empty selection drops everything", func(t *testing.T) {
		tbl := newTable()
		dropped, err := tbl.Project([]string{})
		require.NoError(t, err)
		assert.Equal(t, 3, dropped)
		assert.Zero(t, tbl.NumCols())
	})
}

func TestNumericColumns(t *testing.T) {
	tbl := MustNew(named("A", text("a")), named("B", num(1)), named("C", num(2)), named("D", num(3)))
	got := tbl.NumericColumns()
	require.Len(t, got, 3)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "C", got[1].Name)
}

func TestHeadAndClone(t *testing.T) {
	tbl := MustNew(named("A", num(1, 2, 3)))

	head := tbl.Head(2)
	assert.Equal(t, 2, head.NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())

	clone := tbl.Clone()
	clone.Columns[0].Values[0] = Number(99)
	assert.Equal(t, 1.0, tbl.Columns[0].Values[0].Num)
}

// Rows (1,10) and (1,null) share A but are not identical, so dedup keeps
// both and the fill that follows supplies the mean of B.
func TestDedupThenFill_PartialDuplicateKeepsNull(t *testing.T) {
	tbl := MustNew(named("A", num(1, 1, 2)), named("B", num(10, nil, 30)))

	removed := tbl.Deduplicate()
	assert.Zero(t, removed)

	filled := tbl.FillMissingWithMean()
	assert.Equal(t, 1, filled)
	b, _ := tbl.Column("B")
	assert.Equal(t, 20.0, b.Values[1].Num)
}
