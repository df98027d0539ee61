package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
)

// NiVizSettings controls the reduced profile written for niViz.
type NiVizSettings struct {
	// DataThinning is the maximum number of rows written.
	DataThinning int
	// SlopeAngle in degrees projects vertical depth onto the slope normal.
	SlopeAngle float64
	// StretchFactor scales the projected depth.
	StretchFactor float64
}

// DefaultNiVizSettings returns 10000 rows, a flat slope and no stretch.
func DefaultNiVizSettings() NiVizSettings {
	return NiVizSettings{DataThinning: 10000, SlopeAngle: 0, StretchFactor: 1}
}

// Validate reports out-of-range settings.
func (s NiVizSettings) Validate() error {
	var errs []error
	if s.DataThinning < 1 {
		errs = append(errs, fmt.Errorf("niviz data_thinning must be at least 1, got %d", s.DataThinning))
	}
	if s.SlopeAngle < 0 || s.SlopeAngle >= 90 || math.IsNaN(s.SlopeAngle) {
		errs = append(errs, fmt.Errorf("niviz slope_angle_deg must be in [0, 90), got %g", s.SlopeAngle))
	}
	if !(s.StretchFactor > 0) {
		errs = append(errs, fmt.Errorf("niviz stretch_factor must be positive, got %g", s.StretchFactor))
	}
	return errors.Join(errs...)
}

// Stride returns the row step that keeps n rows within DataThinning.
func (s NiVizSettings) Stride(n int) int {
	if s.DataThinning < 1 || n <= s.DataThinning {
		return 1
	}
	return (n + s.DataThinning - 1) / s.DataThinning
}

// Depth converts a distance below the surface to the exported depth.
func (s NiVizSettings) Depth(belowSurface float64) float64 {
	return belowSurface * math.Cos(s.SlopeAngle*math.Pi/180) * s.StretchFactor
}

// NiViz writes the snowpack between the markers as depth, force, density
// and SSA rows, thinned and slope-corrected by settings. Without markers
// the whole profile is written with depth measured from the first sample.
func (e *Exporter) NiViz(path string, p *smp.Profile, derivs []parameterization.Derivative, settings NiVizSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if len(derivs) != len(p.Samples) {
		return fmt.Errorf("derived series has %d records for %d samples", len(derivs), len(p.Samples))
	}

	surface, ok := p.Marker(smp.MarkerSurface)
	if !ok && len(p.Samples) > 0 {
		surface = p.Samples[0].Distance
	}
	ground, ok := p.Marker(smp.MarkerGround)
	if !ok && len(p.Samples) > 0 {
		ground = p.Samples[len(p.Samples)-1].Distance
	}

	var idx []int
	for i, s := range p.Samples {
		if s.Distance >= surface && s.Distance <= ground {
			idx = append(idx, i)
		}
	}
	stride := settings.Stride(len(idx))

	extra := []string{
		fmt.Sprintf("# slope_angle_deg: %g", settings.SlopeAngle),
		fmt.Sprintf("# stretch_factor: %g", settings.StretchFactor),
		fmt.Sprintf("# data_thinning: %d", settings.DataThinning),
	}
	return e.write(path, p, extra, func(w *csv.Writer) error {
		if err := w.Write([]string{"depth [mm]", "force [N]", "density [kg/m^3]", "ssa [m^2/m^3]"}); err != nil {
			return err
		}
		for k := 0; k < len(idx); k += stride {
			i := idx[k]
			row := []string{
				e.format(settings.Depth(p.Samples[i].Distance - surface)),
				e.format(p.Samples[i].Force),
				e.format(derivs[i].Density),
				e.format(derivs[i].SSA),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
