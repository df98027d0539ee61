package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartID is the fixed DOM id of the rendered chart.
const ChartID = "smp_profile"

// ssaAxisOffset moves the SSA axis clear of the density axis, in px.
const ssaAxisOffset = 80

// RenderHTML writes f as a standalone go-echarts page with one x axis and
// three independently scaled y axes.
func RenderHTML(w io.Writer, f *Figure, o Options) error {
	f = f.Decimated(o.MaxPoints)
	line := NewLineChart(f, o)
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// NewLineChart builds the go-echarts line chart for f without decimating.
func NewLineChart(f *Figure, o Options) *charts.Line {
	if o.Width <= 0 || o.Height <= 0 {
		d := DefaultOptions()
		o.Width, o.Height = d.Width, d.Height
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: f.Title,
			ChartID:   ChartID,
			Width:     fmt.Sprintf("%dpx", o.Width),
			Height:    fmt.Sprintf("%dpx", o.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: f.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithGridOpts(opts.Grid{Left: "80", Right: "170", Top: "80", Bottom: "90"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100, XAxisIndex: []int{0}},
			opts.DataZoom{Type: "slider", Start: 0, End: 100, XAxisIndex: []int{0}},
		),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Show: opts.Bool(true), Type: "png", Name: f.Title},
				DataZoom:    &opts.ToolBoxFeatureDataZoom{Show: opts.Bool(true), YAxisIndex: "none"},
				Restore:     &opts.ToolBoxFeatureRestore{Show: opts.Bool(true)},
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         f.XLabel,
			NameLocation: "middle",
			NameGap:      30,
			Scale:        opts.Bool(true),
		}),
		charts.WithYAxisOpts(yAxis(f.Force, "left")),
	)
	line.ExtendYAxis(yAxis(f.Density, "right"), yAxis(f.SSA, "right"))

	// go-echarts has no fields for axis offset or name colour.
	line.AddJSFuncStrs(opts.FuncOpts(fmt.Sprintf(
		"%%MY_ECHARTS%%.setOption({yAxis: [{nameTextStyle: {color: '%s'}}, {nameTextStyle: {color: '%s'}}, {offset: %d, nameTextStyle: {color: '%s'}}]});",
		f.Force.Color, f.Density.Color, ssaAxisOffset, f.SSA.Color,
	)))

	axisIndex := map[string]int{f.Force.Name: 0, f.Density.Name: 1, f.SSA.Name: 2}
	for _, s := range f.Legend() {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: axisIndex[s.Name], ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: 1}),
		}
		if s.Name == f.Force.Name && len(f.Markers) > 0 {
			items := make([]opts.MarkLineNameXAxisItem, 0, len(f.Markers))
			for _, m := range f.Markers {
				items = append(items, opts.MarkLineNameXAxisItem{Name: m.Name, XAxis: m.Distance})
			}
			seriesOpts = append(seriesOpts,
				charts.WithMarkLineNameXAxisItemOpts(items...),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol:    []string{"none", "none"},
					Label:     &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
					LineStyle: &opts.LineStyle{Color: colorMarker, Type: "dashed"},
				}),
			)
		}
		line.AddSeries(s.Name, lineData(s), seriesOpts...)
	}
	return line
}

func yAxis(s Series, position string) opts.YAxis {
	return opts.YAxis{
		Name:      s.Label,
		Type:      "value",
		Position:  position,
		Scale:     opts.Bool(true),
		SplitLine: &opts.SplitLine{Show: opts.Bool(position == "left")},
		AxisLabel: &opts.AxisLabel{Color: s.Color},
		AxisLine: &opts.AxisLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: s.Color},
		},
	}
}

// lineData converts a series to [x, y] pairs. Non-finite values become "-",
// which echarts draws as a gap.
func lineData(s Series) []opts.LineData {
	out := make([]opts.LineData, len(s.X))
	for i := range s.X {
		var y interface{} = s.Y[i]
		if math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
			y = "-"
		}
		out[i] = opts.LineData{Value: []interface{}{s.X[i], y}}
	}
	return out
}
