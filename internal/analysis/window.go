// Package analysis selects the snowpack part of a derived series and
// summarises it.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/smp.report/internal/parameterization"
)

// ErrEmptyWindow is returned by CheckWindow when no derived record lies
// between the markers.
var ErrEmptyWindow = errors.New("no samples between surface and ground")

// Bounds controls whether records at the marker distances are included.
type Bounds int

const (
	// Exclusive keeps records strictly between surface and ground.
	Exclusive Bounds = iota
	// Inclusive also keeps records at the marker distances.
	Inclusive
)

func (b Bounds) String() string {
	if b == Inclusive {
		return "inclusive"
	}
	return "exclusive"
}

// ParseBounds accepts "exclusive" or "inclusive", case-insensitively. The
// empty string selects Exclusive.
func ParseBounds(s string) (Bounds, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive":
		return Exclusive, nil
	case "inclusive":
		return Inclusive, nil
	default:
		return Exclusive, fmt.Errorf("invalid window bounds %q (want exclusive or inclusive)", s)
	}
}

// Window returns the records between surface and ground. An inverted
// marker pair yields an empty window.
func Window(derivs []parameterization.Derivative, surface, ground float64, bounds Bounds) []parameterization.Derivative {
	if surface > ground {
		return nil
	}
	var out []parameterization.Derivative
	for _, d := range derivs {
		inside := d.Distance > surface && d.Distance < ground
		if bounds == Inclusive {
			inside = d.Distance >= surface && d.Distance <= ground
		}
		if inside {
			out = append(out, d)
		}
	}
	return out
}

// Summary holds the mean density and SSA of a window.
type Summary struct {
	Count       int
	MeanDensity float64 // kg/m^3, NaN when empty
	MeanSSA     float64 // m^2/m^3, NaN when empty
}

// Empty reports whether the summary covers no records.
func (s Summary) Empty() bool {
	return s.Count == 0
}

// Summarize returns the arithmetic means over window. Non-finite values
// are skipped per column; a column with no finite value has a NaN mean.
func Summarize(window []parameterization.Derivative) Summary {
	if len(window) == 0 {
		return Summary{MeanDensity: math.NaN(), MeanSSA: math.NaN()}
	}
	density := make([]float64, 0, len(window))
	ssa := make([]float64, 0, len(window))
	for _, d := range window {
		if finite(d.Density) {
			density = append(density, d.Density)
		}
		if finite(d.SSA) {
			ssa = append(ssa, d.SSA)
		}
	}
	return Summary{
		Count:       len(window),
		MeanDensity: mean(density),
		MeanSSA:     mean(ssa),
	}
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckWindow returns ErrEmptyWindow, annotated with the markers, when
// summary is empty.
func CheckWindow(summary Summary, surface, ground float64) error {
	if !summary.Empty() {
		return nil
	}
	return fmt.Errorf("%w (surface %.1f mm, ground %.1f mm)", ErrEmptyWindow, surface, ground)
}
