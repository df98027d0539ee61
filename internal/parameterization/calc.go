package parameterization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/smp.report/internal/smp"
)

// Derivative is one record of the derived series, aligned with a raw sample.
type Derivative struct {
	Distance    float64 // mm
	ForceMedian float64 // N
	ElementSize float64 // L, mm
	Intensity   float64 // lambda, 1/mm^3
	F0          float64 // N
	Delta       float64 // mm
	Density     float64 // kg/m^3
	SSA         float64 // m^2/m^3
}

// Calc derives density and SSA for every sample of p. The result has one
// record per sample with the sample's distance. Window estimates are
// interpolated linearly between window centres and held constant beyond
// the first and last centre.
func Calc(p *smp.Profile, model Parameterization, params WindowParams) ([]Derivative, error) {
	if model == nil {
		return nil, ErrUnknownAlgorithm
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid window parameters: %w", err)
	}
	for i := 1; i < len(p.Samples); i++ {
		if !(p.Samples[i].Distance > p.Samples[i-1].Distance) {
			return nil, fmt.Errorf("%w: distance %g at sample %d does not increase", smp.ErrFileFormat, p.Samples[i].Distance, i)
		}
	}

	windows := ShotNoiseWindows(p.Samples, p.Resolution(), params)

	fields := []func(*Derivative) *float64{
		func(d *Derivative) *float64 { return &d.ForceMedian },
		func(d *Derivative) *float64 { return &d.ElementSize },
		func(d *Derivative) *float64 { return &d.Intensity },
		func(d *Derivative) *float64 { return &d.F0 },
		func(d *Derivative) *float64 { return &d.Delta },
		func(d *Derivative) *float64 { return &d.Density },
		func(d *Derivative) *float64 { return &d.SSA },
	}

	perWindow := make([]Derivative, len(windows))
	xs := make([]float64, len(windows))
	for i, w := range windows {
		xs[i] = w.Distance
		perWindow[i] = Derivative{
			Distance:    w.Distance,
			ForceMedian: w.ForceMedian,
			ElementSize: w.ElementSize,
			Intensity:   w.Intensity,
			F0:          w.F0,
			Delta:       w.Delta,
			Density:     model.Density(w.ForceMedian, w.ElementSize),
			SSA:         model.SSA(w.ForceMedian, w.ElementSize),
		}
	}

	out := make([]Derivative, len(p.Samples))
	for i, s := range p.Samples {
		out[i].Distance = s.Distance
	}

	for _, field := range fields {
		ys := make([]float64, len(perWindow))
		for i := range perWindow {
			ys[i] = *field(&perWindow[i])
		}
		predict, err := predictor(xs, ys)
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate windows: %w", err)
		}
		for i := range out {
			*field(&out[i]) = predict(out[i].Distance)
		}
	}
	return out, nil
}

// predictor returns a piecewise-linear predictor over (xs, ys), a constant
// for a single point, and NaN when there are no points. xs must strictly
// increase.
func predictor(xs, ys []float64) (func(float64) float64, error) {
	switch len(xs) {
	case 0:
		return func(float64) float64 { return math.NaN() }, nil
	case 1:
		v := ys[0]
		return func(float64) float64 { return v }, nil
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("window centre %g does not increase", xs[i])
		}
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return pl.Predict, nil
}
