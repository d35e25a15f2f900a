// Package pipeline turns one parsed table into a downloadable artifact.
//
// A run always executes its steps in the same order:
//
//	Deduplicate -> Fill Missing -> Project -> Chart -> Serialize
//
// Optional steps that are switched off are skipped, but never reordered.
// The table passed to Run is mutated in place and should be discarded
// afterwards.
package pipeline

import (
	"fmt"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

// DefaultPreviewRows is the number of rows kept in each stage preview.
const DefaultPreviewRows = 5

// DefaultChartMaxRows caps the number of bars drawn per series.
const DefaultChartMaxRows = 500

// Stage names used in previews.
const (
	StageOriginal     = "original"
	StageDeduplicated = "deduplicated"
	StageFilled       = "filled"
	StageProjected    = "projected"
)

// Artifact is a fully serialized output file.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Preview is the head of the table after one stage.
type Preview struct {
	Stage     string     `json:"stage"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// Report counts what each step changed.
type Report struct {
	RowsIn            int `json:"rowsIn"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
	CellsFilled       int `json:"cellsFilled"`
	ColumnsDropped    int `json:"columnsDropped"`
	RowsOut           int `json:"rowsOut"`
	ColumnsOut        int `json:"columnsOut"`
}

// Result is everything a run produced.
type Result struct {
	SourceName string    `json:"sourceName"`
	Options    Options   `json:"options"`
	Previews   []Preview `json:"previews"`
	Report     Report    `json:"report"`
	Chart      *Chart    `json:"chart,omitempty"`
	Artifact   *Artifact `json:"-"`
}

// Final returns the preview of the table that was serialized.
func (r *Result) Final() Preview {
	if len(r.Previews) == 0 {
		return Preview{}
	}
	return r.Previews[len(r.Previews)-1]
}

// Pipeline runs cleaning and conversion with fixed limits.
type Pipeline struct {
	PreviewRows  int
	ChartMaxRows int
}

// New returns a pipeline. Non-positive limits fall back to the defaults.
func New(previewRows, chartMaxRows int) *Pipeline {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	if chartMaxRows <= 0 {
		chartMaxRows = DefaultChartMaxRows
	}
	return &Pipeline{PreviewRows: previewRows, ChartMaxRows: chartMaxRows}
}

// Run applies opts to t and serializes the result. sourceName is the
// uploaded file name and determines the artifact name. On any error no
// artifact is returned.
func (p *Pipeline) Run(t *table.Table, sourceName string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		SourceName: sourceName,
		Options:    opts,
		Report:     Report{RowsIn: t.NumRows()},
	}
	res.Previews = append(res.Previews, p.preview(StageOriginal, t))

	if opts.RemoveDuplicates {
		res.Report.DuplicatesRemoved = t.Deduplicate()
		res.Previews = append(res.Previews, p.preview(StageDeduplicated, t))
	}

	if opts.FillMissingWithMean {
		res.Report.CellsFilled = t.FillMissingWithMean()
		res.Previews = append(res.Previews, p.preview(StageFilled, t))
	}

	if opts.SelectedColumns != nil {
		dropped, err := t.Project(opts.SelectedColumns)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", sourceName, err)
		}
		res.Report.ColumnsDropped = dropped
		res.Previews = append(res.Previews, p.preview(StageProjected, t))
	}

	if opts.ShowChart {
		res.Chart = BuildChart(t, p.ChartMaxRows)
	}

	data, err := codec.Encode(t, opts.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", sourceName, err)
	}

	res.Report.RowsOut = t.NumRows()
	res.Report.ColumnsOut = t.NumCols()
	res.Artifact = &Artifact{
		Name: codec.OutputName(sourceName, opts.OutputFormat),
		MIME: opts.OutputFormat.MIME(),
		Data: data,
	}
	return res, nil
}

func (p *Pipeline) preview(stage string, t *table.Table) Preview {
	head := t.Head(p.PreviewRows)
	rows := make([][]string, head.NumRows())
	for i := range rows {
		rows[i] = head.Record(i)
	}
	return Preview{
		Stage:     stage,
		Columns:   t.Names(),
		Rows:      rows,
		TotalRows: t.NumRows(),
	}
}
