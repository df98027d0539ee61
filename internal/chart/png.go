package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const pngDPI = 96

// RenderPNG writes f as a PNG with three stacked panels, force on top, then
// density and SSA, sharing the depth axis.
func RenderPNG(w io.Writer, f *Figure, o Options) error {
	if o.Width <= 0 || o.Height <= 0 {
		d := DefaultOptions()
		o.Width, o.Height = d.Width, d.Height
	}
	f = f.Decimated(o.MaxPoints)

	xmin, xmax := finiteRange(f.Force.X)
	series := []Series{f.Force, f.Density, f.SSA}
	plots := make([][]*plot.Plot, len(series))
	for i, s := range series {
		p, err := panel(s, f.Markers)
		if err != nil {
			return fmt.Errorf("failed to plot %s: %w", s.Name, err)
		}
		if !math.IsNaN(xmin) {
			p.X.Min, p.X.Max = xmin, xmax
		}
		if i < len(series)-1 {
			p.X.Tick.Marker = unlabelledTicks{plot.DefaultTicks{}}
		} else {
			p.X.Label.Text = f.XLabel
		}
		plots[i] = []*plot.Plot{p}
	}
	plots[0][0].Title.Text = f.Title

	width := vg.Length(o.Width) * vg.Inch / pngDPI
	height := vg.Length(o.Height) * vg.Inch / pngDPI
	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(pngDPI))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(series),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// panel plots one series. NaN values split the line into segments since
// gonum/plot rejects non-finite points.
func panel(s Series, markers []Marker) (*plot.Plot, error) {
	p := plot.New()
	p.Y.Label.Text = s.Label
	c := parseHex(s.Color)
	p.Y.Label.TextStyle.Color = c
	p.Y.Tick.Label.Color = c
	p.Y.Color = c
	p.Add(plotter.NewGrid())

	for i, seg := range segments(s.X, s.Y) {
		l, err := plotter.NewLine(seg)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = c
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
		if i == 0 {
			p.Legend.Add(s.Name, l)
		}
	}
	p.Legend.Top = true

	ymin, ymax := finiteRange(s.Y)
	if math.IsNaN(ymin) {
		return p, nil
	}
	for _, m := range markers {
		l, err := plotter.NewLine(plotter.XYs{{X: m.Distance, Y: ymin}, {X: m.Distance, Y: ymax}})
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = parseHex(colorMarker)
		l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
	}
	return p, nil
}

// unlabelledTicks keeps tick positions but drops their labels, for panels
// stacked above the one carrying the depth axis.
type unlabelledTicks struct{ plot.Ticker }

func (t unlabelledTicks) Ticks(min, max float64) []plot.Tick {
	ticks := t.Ticker.Ticks(min, max)
	for i := range ticks {
		ticks[i].Label = ""
	}
	return ticks
}

// segments splits the finite points of (x, y) into runs of at least one
// point separated by non-finite values.
func segments(x, y []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range x {
		if !isFinite(x[i]) || !isFinite(y[i]) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func finiteRange(v []float64) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, x := range v {
		if !isFinite(x) {
			continue
		}
		if math.IsNaN(lo) || x < lo {
			lo = x
		}
		if math.IsNaN(hi) || x > hi {
			hi = x
		}
	}
	return lo, hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseHex converts "#rrggbb" to a colour; anything else is black.
func parseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
