package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMissingMarker(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"NA", true},
		{"NaN", true},
		{"null", true},
		{"#N/A", true},
		{"<NA>", true},
		{"0", false},
		{"na ", false},
		{" NULL ", true},
		{"none", false},
		{"missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMissingMarker(tt.in))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"10", 10, true},
		{" -3.5 ", -3.5, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"+7", 7, true},
		{"inf", math.Inf(1), true},
		{"-Infinity", math.Inf(-1), true},
		{"$10", 0, false},
		{"1,000", 0, false},
		{"abc", 0, false},
		{"0x10", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFromRecords(t *testing.T) {
	header := []string{"id", "name", "", "score", "id"}
	rows := [][]string{
		{"1", "alice", "x", "10.5", "a"},
		{"2", "NA", "", "", "b"},
		{"3", "carol"},
	}

	tbl := FromRecords(header, rows)

	assert.Equal(t, []string{"id", "name", "Unnamed: 2", "score", "id.1"}, tbl.Names())
	assert.Equal(t, 3, tbl.NumRows())

	id, _ := tbl.Column("id")
	assert.Equal(t, KindNumeric, id.Kind)

	name, _ := tbl.Column("name")
	assert.Equal(t, KindText, name.Kind)
	assert.True(t, name.Values[1].Missing)

	score, _ := tbl.Column("score")
	require.Equal(t, KindNumeric, score.Kind)
	assert.Equal(t, 10.5, score.Values[0].Num)
	assert.True(t, score.Values[1].Missing)
	assert.True(t, score.Values[2].Missing, "short rows are padded with missing cells")

	dup, _ := tbl.Column("id.1")
	assert.Equal(t, KindText, dup.Kind)
}

func TestFromRecords_AllMissingColumnIsNumeric(t *testing.T) {
	tbl := FromRecords([]string{"a"}, [][]string{{""}, {"NaN"}})
	assert.Equal(t, KindNumeric, tbl.Columns[0].Kind)
	assert.Equal(t, 2, tbl.Columns[0].MissingCount())
}

func TestFromRecords_RepeatedSuffixCollision(t *testing.T) {
	tbl := FromRecords([]string{"a", "a.1", "a"}, nil)
	assert.Equal(t, []string{"a", "a.1", "a.2"}, tbl.Names())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "10", FormatNumber(10))
	assert.Equal(t, "15.5", FormatNumber(15.5))
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "-2", FormatNumber(-2))
}

func TestFromTypedRecords_TextColumnsKeepDigits(t *testing.T) {
	tbl := FromTypedRecords(
		[]string{"zip", "n"},
		[][]string{{"00123", "1"}, {"NA", "2"}, {"456", ""}},
		[]bool{true},
	)

	zip, _ := tbl.Column("zip")
	require.Equal(t, KindText, zip.Kind)
	assert.Equal(t, "00123", zip.Values[0].Str)
	assert.True(t, zip.Values[1].Missing, "missing markers still apply to text columns")
	assert.Equal(t, "456", zip.Values[2].Str)

	n, _ := tbl.Column("n")
	assert.Equal(t, KindNumeric, n.Kind)
}
