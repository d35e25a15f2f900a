package pipeline

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

func mustCSV(t *testing.T, s string) *table.Table {
	t.Helper()
	tbl, err := codec.ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func run(t *testing.T, input, name string, opts Options) *Result {
	t.Helper()
	res, err := New(0, 0).Run(mustCSV(t, input), name, opts)
	require.NoError(t, err)
	return res
}

func TestRun_DedupThenFill(t *testing.T) {
	opts := Options{RemoveDuplicates: true, FillMissingWithMean: true, OutputFormat: codec.CSV}
	res := run(t, "A,B\n1,10\n1,\n2,30\n", "data.csv", opts)

	// The second row differs from the first in B, so it is kept and filled.
	assert.Equal(t, "A,B\n1,10\n1,20\n2,30\n", string(res.Artifact.Data))
	assert.Equal(t, Report{RowsIn: 3, CellsFilled: 1, RowsOut: 3, ColumnsOut: 2}, res.Report)
}

func TestRun_FullDuplicateRemovedBeforeMean(t *testing.T) {
	opts := Options{RemoveDuplicates: true, FillMissingWithMean: true, OutputFormat: codec.CSV}
	res := run(t, "A,B\n1,10\n1,10\n4,\n2,40\n", "data.csv", opts)

	assert.Equal(t, "A,B\n1,10\n4,25\n2,40\n", string(res.Artifact.Data))
	assert.Equal(t, 1, res.Report.DuplicatesRemoved)
}

func TestRun_StepOrderIsFixed(t *testing.T) {
	// Filling first would turn NA into 1 and then collapse three rows to one.
	opts := Options{RemoveDuplicates: true, FillMissingWithMean: true, OutputFormat: codec.CSV}
	res := run(t, "A\n1\nNA\n1\n", "order.csv", opts)

	assert.Equal(t, 2, res.Report.RowsOut)
	assert.Equal(t, "A\n1\n1\n", string(res.Artifact.Data))

	stages := make([]string, len(res.Previews))
	for i, p := range res.Previews {
		stages[i] = p.Stage
	}
	assert.Equal(t, []string{StageOriginal, StageDeduplicated, StageFilled}, stages)
}

func TestRun_XLSXToCSV(t *testing.T) {
	src := table.MustNew(
		&table.Column{Name: "A", Kind: table.KindNumeric, Values: []table.Value{table.Number(1), table.Number(2)}},
		&table.Column{Name: "B", Kind: table.KindText, Values: []table.Value{table.Text("x"), table.Text("y")}},
	)
	data, err := codec.WriteXLSX(src)
	require.NoError(t, err)

	tbl, f, err := codec.Parse("data.xlsx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, codec.XLSX, f)

	res, err := New(0, 0).Run(tbl, "data.xlsx", Options{OutputFormat: codec.CSV})
	require.NoError(t, err)

	assert.Equal(t, "data.csv", res.Artifact.Name)
	assert.Equal(t, "text/csv", res.Artifact.MIME)
	assert.Equal(t, "A,B\n1,x\n2,y\n", string(res.Artifact.Data))
}

func TestRun_CSVToXLSX(t *testing.T) {
	res := run(t, "A,B\n1,x\n", "report.csv", Options{OutputFormat: codec.XLSX})

	assert.Equal(t, "report.xlsx", res.Artifact.Name)
	assert.Equal(t, codec.MIMEXLSX, res.Artifact.MIME)

	back, err := codec.ReadXLSX(bytes.NewReader(res.Artifact.Data))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, back.Names())
}

func TestRun_Projection(t *testing.T) {
	input := "A,B,C\n1,x,3\n2,y,4\n"

	t.Run("keeps table order", func(t *testing.T) {
		res := run(t, input, "p.csv", Options{SelectedColumns: []string{"C", "A"}, OutputFormat: codec.CSV})
		assert.Equal(t, "A,C\n1,3\n2,4\n", string(res.Artifact.Data))
		assert.Equal(t, 1, res.Report.ColumnsDropped)
	})

	t.Run("nil keeps all", func(t *testing.T) {
		res := run(t, input, "p.csv", Options{OutputFormat: codec.CSV})
		assert.Equal(t, input, string(res.Artifact.Data))
	})

	t.Run("empty selection drops all", func(t *testing.T) {
		res := run(t, input, "p.csv", Options{SelectedColumns: []string{}, OutputFormat: codec.CSV})
		assert.Zero(t, res.Report.ColumnsOut)
		assert.Zero(t, res.Report.RowsOut)
	})

	t.Run("unknown column fails without artifact", func(t *testing.T) {
		res, err := New(0, 0).Run(mustCSV(t, input), "p.csv", Options{SelectedColumns: []string{"Z"}, OutputFormat: codec.CSV})
		require.ErrorIs(t, err, table.ErrUnknownColumn)
		assert.Nil(t, res)
	})
}

func TestRun_InvalidOptions(t *testing.T) {
	_, err := New(0, 0).Run(mustCSV(t, "A\n1\n"), "a.csv", Options{})
	require.ErrorIs(t, err, ErrInvalidOptions)

	_, err = New(0, 0).Run(mustCSV(t, "A\n1\n"), "a.csv", Options{OutputFormat: "pdf"})
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "csv, xlsx")
}

func TestRun_PreviewIsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 12; i++ {
		b.WriteString("1\n")
	}
	res := run(t, b.String(), "n.csv", Options{OutputFormat: codec.CSV})

	final := res.Final()
	assert.Len(t, final.Rows, DefaultPreviewRows)
	assert.Equal(t, 12, final.TotalRows)
}

func TestRun_ChartIsDisplayOnly(t *testing.T) {
	input := "name,x,y,z\na,1,2,3\nb,4,,6\n"
	with := run(t, input, "c.csv", Options{ShowChart: true, OutputFormat: codec.CSV})
	without := run(t, input, "c.csv", Options{OutputFormat: codec.CSV})

	require.NotNil(t, with.Chart)
	assert.Nil(t, without.Chart)
	assert.Equal(t, without.Artifact.Data, with.Artifact.Data)
}

func TestBuildChart(t *testing.T) {
	t.Run("first two numeric columns", func(t *testing.T) {
		ch := BuildChart(mustCSV(t, "name,x,y,z\na,1,-2,3\nb,4,,6\n"), 0)
		require.NotNil(t, ch)
		require.Len(t, ch.Series, 2)
		assert.Equal(t, "x", ch.Series[0].Name)
		assert.Equal(t, "y", ch.Series[1].Name)
		assert.Nil(t, ch.Series[1].Values[1])
		assert.Equal(t, []int{0, 1}, ch.Labels)
		assert.Equal(t, -2.0, ch.Min)
		assert.Equal(t, 4.0, ch.Max)
	})

	t.Run("fewer than two numeric columns", func(t *testing.T) {
		assert.Nil(t, BuildChart(mustCSV(t, "name,x\na,1\n"), 0))
	})

	t.Run("truncated", func(t *testing.T) {
		ch := BuildChart(mustCSV(t, "x,y\n1,2\n3,4\n5,6\n"), 2)
		require.NotNil(t, ch)
		assert.True(t, ch.Truncated)
		assert.Len(t, ch.Series[0].Values, 2)
	})
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    Options
		wantErr error
	}{
		{
			name:  "defaults",
			query: "",
			want:  Options{OutputFormat: codec.CSV},
		},
		{
			name:  "all switches",
			query: "dedup=on&fill=on&chart=on&format=xlsx",
			want:  Options{RemoveDuplicates: true, FillMissingWithMean: true, ShowChart: true, OutputFormat: codec.XLSX},
		},
		{
			name:  "explicit columns",
			query: "columns=a&columns=b",
			want:  Options{SelectedColumns: []string{"a", "b"}, OutputFormat: codec.CSV},
		},
		{
			name:  "explicit empty selection",
			query: "select=1",
			want:  Options{SelectedColumns: []string{}, OutputFormat: codec.CSV},
		},
		{
			name:    "bad format",
			query:   "format=pdf",
			wantErr: ErrInvalidOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			got, err := ParseOptions(q)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsValuesRoundTrip(t *testing.T) {
	opts := Options{RemoveDuplicates: true, SelectedColumns: []string{}, OutputFormat: codec.XLSX}
	got, err := ParseOptions(opts.Values())
	require.NoError(t, err)
	assert.Equal(t, opts, got)
}
