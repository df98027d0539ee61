// Package chart turns a profile and its derived series into a three-axis
// force/density/SSA figure and renders it as interactive HTML or a PNG.
package chart

import (
	"fmt"
	"math"

	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
	"github.com/banshee-data/smp.report/internal/units"
)

// Series colours, matching the matplotlib C0..C2 cycle.
const (
	ColorForce   = "#1f77b4"
	ColorDensity = "#ff7f0e"
	ColorSSA     = "#2ca02c"
	colorMarker  = "#7f7f7f"
)

// Series is one plotted line.
type Series struct {
	Name  string
	Label string // y axis label
	Color string
	X     []float64
	Y     []float64
}

// Marker is a vertical line at a named distance.
type Marker struct {
	Name     string
	Distance float64
}

// Figure is the renderer-neutral description of the profile chart.
type Figure struct {
	Title    string
	Subtitle string
	XLabel   string
	Force    Series
	Density  Series
	SSA      Series
	Markers  []Marker
}

// Options controls rendering.
type Options struct {
	Width     int // px
	Height    int // px
	MaxPoints int // per series; 0 disables decimation
}

// DefaultOptions returns a 1200x700 chart decimated to 5000 points.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 700, MaxPoints: 5000}
}

// NewFigure builds the figure for p. derivs must be index-aligned with the
// profile samples.
func NewFigure(p *smp.Profile, derivs []parameterization.Derivative, algo parameterization.Algorithm) *Figure {
	n := len(p.Samples)
	x := p.Distances()
	density := make([]float64, n)
	ssa := make([]float64, n)
	for i := 0; i < n && i < len(derivs); i++ {
		density[i] = derivs[i].Density
		ssa[i] = derivs[i].SSA
	}
	for i := len(derivs); i < n; i++ {
		density[i], ssa[i] = math.NaN(), math.NaN()
	}

	f := &Figure{
		Title:    p.Name,
		Subtitle: fmt.Sprintf("%s (%s)", algo.LongName(), algo),
		XLabel:   units.DepthAxisLabel,
		Force:    Series{Name: "Force", Label: units.ForceAxisLabel, Color: ColorForce, X: x, Y: p.Forces()},
		Density:  Series{Name: "Density", Label: units.DensityAxisLabel, Color: ColorDensity, X: x, Y: density},
		SSA:      Series{Name: "SSA", Label: units.SSAAxisLabel, Color: ColorSSA, X: x, Y: ssa},
	}
	for _, name := range []string{smp.MarkerSurface, smp.MarkerGround} {
		if d, ok := p.Marker(name); ok {
			f.Markers = append(f.Markers, Marker{Name: name, Distance: d})
		}
	}
	return f
}

// Legend returns the series in legend order: force, SSA, density.
func (f *Figure) Legend() []Series {
	return []Series{f.Force, f.SSA, f.Density}
}

// Decimated returns a copy of f with every series reduced to at most
// maxPoints points.
func (f *Figure) Decimated(maxPoints int) *Figure {
	out := *f
	out.Force = f.Force.decimate(maxPoints)
	out.Density = f.Density.decimate(maxPoints)
	out.SSA = f.SSA.decimate(maxPoints)
	out.Markers = append([]Marker(nil), f.Markers...)
	return &out
}

func (s Series) decimate(maxPoints int) Series {
	s.X = Decimate(s.X, maxPoints)
	s.Y = Decimate(s.Y, maxPoints)
	return s
}

// Decimate keeps every stride-th value so that at most maxPoints remain.
// maxPoints <= 0 returns v unchanged.
func Decimate(v []float64, maxPoints int) []float64 {
	stride := Stride(len(v), maxPoints)
	if stride == 1 {
		return v
	}
	out := make([]float64, 0, len(v)/stride+1)
	for i := 0; i < len(v); i += stride {
		out = append(out, v[i])
	}
	return out
}

// Stride returns the step that keeps n values within maxPoints.
func Stride(n, maxPoints int) int {
	if maxPoints <= 0 || n <= maxPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxPoints)))
}
