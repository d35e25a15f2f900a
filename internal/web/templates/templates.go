// Package templates renders the HTML pages as templ components.
//
// Markup lives in the .templ files; run `templ generate` after editing them.
// This file holds the page data types and the plain Go helpers the
// components call. Pages work without JavaScript: every interaction is a
// plain form GET or POST.
package templates

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

// UploadResult is the outcome of one file in an upload request. Exactly one
// of File and Err is set.
type UploadResult struct {
	Name string
	File *core.FileInfo
	Err  *core.UserMessage
}

// IndexData feeds the upload page.
type IndexData struct {
	Files         []core.FileInfo
	Uploads       []UploadResult
	MaxFileSizeMB int64
	MaxFiles      int
}

// FileData feeds the file page. Result is nil when the run failed, in
// which case Err says why.
type FileData struct {
	File    core.FileInfo
	Options pipeline.Options
	Result  *pipeline.Result
	Err     *core.UserMessage
}

// fileURL builds a link to a file page. suffix is appended to the path and
// q, when non-empty, becomes the query string.
func fileURL(id, suffix string, q url.Values) string {
	u := "/files/" + url.PathEscape(id) + suffix
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

var stageTitles = map[string]string{
	pipeline.StageOriginal:     "Original data",
	pipeline.StageDeduplicated: "After removing duplicates",
	pipeline.StageFilled:       "After filling missing values",
	pipeline.StageProjected:    "Selected columns",
}

func stageTitle(stage string) string {
	if title, ok := stageTitles[stage]; ok {
		return title
	}
	return stage
}

// Chart geometry in SVG user units.
const (
	chartWidth  = 720.0
	chartHeight = 280.0
	chartLeft   = 56.0
	chartRight  = 8.0
	chartTop    = 12.0
	chartBottom = 28.0
)

// svgLine is a line segment with formatted coordinates.
type svgLine struct {
	X1, Y1, X2, Y2 string
}

// svgRect is a bar or legend swatch.
type svgRect struct {
	Class, X, Y, W, H string
	Title             string
}

// svgText is a positioned label.
type svgText struct {
	X, Y, Text string
}

// chartLayout is a chart with every coordinate computed, ready for markup.
type chartLayout struct {
	ViewBox    string
	YAxis      svgLine
	ZeroLine   svgLine
	MaxTick    svgText
	MinTick    svgText
	Bars       []svgRect
	Swatches   []svgRect
	LegendText []svgText
}

// layoutChart places one group of bars per row and one bar per series.
// Missing values leave a gap. A flat chart is drawn against a unit span.
func layoutChart(ch *pipeline.Chart) chartLayout {
	plotW := chartWidth - chartLeft - chartRight
	plotH := chartHeight - chartTop - chartBottom

	span := ch.Max - ch.Min
	if span == 0 {
		span = 1
	}
	y := func(v float64) float64 {
		return chartTop + (ch.Max-v)/span*plotH
	}
	zero := y(0)

	l := chartLayout{
		ViewBox:  fmt.Sprintf("0 0 %g %g", chartWidth, chartHeight),
		YAxis:    svgLine{num(chartLeft), num(chartTop), num(chartLeft), num(chartTop + plotH)},
		ZeroLine: svgLine{num(chartLeft), coord(zero), num(chartLeft + plotW), coord(zero)},
		MaxTick:  svgText{num(chartLeft - 4), num(chartTop + 4), table.FormatNumber(ch.Max)},
		MinTick:  svgText{num(chartLeft - 4), num(chartTop + plotH), table.FormatNumber(ch.Min)},
	}

	if n := len(ch.Labels); n > 0 && len(ch.Series) > 0 {
		slot := plotW / float64(n)
		barW := slot * 0.8 / float64(len(ch.Series))
		for i, label := range ch.Labels {
			for s, series := range ch.Series {
				v := series.Values[i]
				if v == nil {
					continue
				}
				x := chartLeft + float64(i)*slot + slot*0.1 + float64(s)*barW
				l.Bars = append(l.Bars, svgRect{
					Class: seriesClass(s),
					X:     coord(x),
					Y:     coord(math.Min(y(*v), zero)),
					W:     coord(barW),
					H:     coord(math.Abs(y(*v) - zero)),
					Title: fmt.Sprintf("%s[%d] = %s", series.Name, label, table.FormatNumber(*v)),
				})
			}
		}
	}

	for s, series := range ch.Series {
		lx := chartLeft + float64(s)*160
		ly := chartHeight - 10
		l.Swatches = append(l.Swatches, svgRect{Class: seriesClass(s), X: num(lx), Y: num(ly - 9), W: "10", H: "10"})
		l.LegendText = append(l.LegendText, svgText{X: num(lx + 14), Y: num(ly), Text: series.Name})
	}
	return l
}

func seriesClass(s int) string {
	return "s" + strconv.Itoa(s)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
