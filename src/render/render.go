// Package render draws a trajectory.ChartSpec with go-chart.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iafilius/DeathTrajectories/src/logging"
	"github.com/iafilius/DeathTrajectories/src/trajectory"
)

// EmptyHint is drawn instead of a chart when no series has points.
const EmptyHint = "No data for the current selection"

// Options controls output size. Zero values mean defaults.
type Options struct {
	Width  int
	Height int
}

// palette is indexed by series position so a country keeps its colour while
// other countries gain or lose points.
var palette = []drawing.Color{
	drawing.ColorFromHex("636efa"),
	drawing.ColorFromHex("ef553b"),
	drawing.ColorFromHex("00cc96"),
	drawing.ColorFromHex("ab63fa"),
	drawing.ColorFromHex("ffa15a"),
	drawing.ColorFromHex("19d3f3"),
}

// SeriesColor returns the line colour for the series at position i.
func SeriesColor(i int) drawing.Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

func lineStyle(col drawing.Color, single bool) chart.Style {
	st := chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
	}
	if single {
		st.StrokeWidth = 0
		st.DotWidth = 5
	}
	return st
}

// yPosition maps deaths onto the log axis, clamped to the visible domain.
func yPosition(deaths int, spec trajectory.ChartSpec) float64 {
	v := float64(deaths)
	if !spec.LogY {
		return math.Max(spec.YMin, math.Min(spec.YMax, v))
	}
	if v < spec.YMin {
		v = spec.YMin
	}
	if v > spec.YMax {
		v = spec.YMax
	}
	return math.Log10(v)
}

func buildSeries(spec trajectory.ChartSpec) []chart.Series {
	series := []chart.Series{}
	for i, s := range spec.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for _, p := range s.Points {
			xs = append(xs, float64(p.Days))
			ys = append(ys, yPosition(p.Deaths, spec))
		}
		single := len(xs) == 1
		if single {
			// go-chart needs two values per series; draw the lone sample as a dot
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Country,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(SeriesColor(i), single),
		})
	}
	return series
}

func yAxis(spec trajectory.ChartSpec) chart.YAxis {
	if !spec.LogY {
		return chart.YAxis{Name: spec.YTitle, Range: &chart.ContinuousRange{Min: spec.YMin, Max: spec.YMax}}
	}
	lo, hi := math.Log10(spec.YMin), math.Log10(spec.YMax)
	var ticks []chart.Tick
	for _, v := range logTicks(spec.YMin, spec.YMax) {
		ticks = append(ticks, chart.Tick{Value: v, Label: formatCount(math.Pow(10, v))})
	}
	return chart.YAxis{
		Name:  spec.YTitle,
		Range: &chart.ContinuousRange{Min: lo, Max: hi},
		Ticks: ticks,
	}
}

func xAxis(spec trajectory.ChartSpec) chart.XAxis {
	var ticks []chart.Tick
	for _, v := range dayTicks(spec.XMin, spec.XMax, 11) {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return chart.XAxis{
		Name:  spec.XTitle,
		Range: &chart.ContinuousRange{Min: float64(spec.XMin), Max: float64(spec.XMax)},
		Ticks: ticks,
	}
}

func size(spec trajectory.ChartSpec, opts Options) (int, int) {
	h := opts.Height
	if h <= 0 {
		h = spec.Height
	}
	return ComputeDimensions(opts.Width, h)
}

// PNG writes the chart for spec as PNG. Without data it writes the blank chart
// carrying EmptyHint.
func PNG(w io.Writer, spec trajectory.ChartSpec, opts Options) error {
	cw, chh := size(spec, opts)
	series := buildSeries(spec)
	if len(series) == 0 {
		if err := png.Encode(w, emptyChart(spec.Title, cw, chh)); err != nil {
			return fmt.Errorf("png encode: %w", err)
		}
		return nil
	}
	ch := chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontSize: 16},
		Width:      cw,
		Height:     chh,
		Background: chart.Style{Padding: chart.Box{Top: 56, Left: 16, Right: 24, Bottom: 28}},
		XAxis:      xAxis(spec),
		YAxis:      yAxis(spec),
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Chart renders spec into an image. Render failures fall back to a blank chart
// so callers always have something to show; the error is still returned.
func Chart(spec trajectory.ChartSpec, opts Options) (image.Image, error) {
	cw, chh := size(spec, opts)
	var buf bytes.Buffer
	if err := PNG(&buf, spec, opts); err != nil {
		logging.Errorf("chart render error: %v; showing blank fallback", err)
		return blank(cw, chh), err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		logging.Errorf("chart decode error: %v; showing blank fallback", err)
		return blank(cw, chh), fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}
