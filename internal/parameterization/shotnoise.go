package parameterization

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/smp.report/internal/smp"
)

// minWindowSamples is the smallest window the lag-1 autocovariance is
// meaningful for.
const minWindowSamples = 3

// WindowParams controls the moving window used for shot noise statistics.
type WindowParams struct {
	Size         float64 // window length in mm
	Overlap      float64 // fraction of Size shared by consecutive windows, in [0, 1)
	ConeDiameter float64 // probe cone diameter in mm
}

// DefaultWindowParams returns a 2.5 mm window with 50% overlap and the
// standard 5 mm cone.
func DefaultWindowParams() WindowParams {
	return WindowParams{Size: 2.5, Overlap: 0.5, ConeDiameter: 5}
}

// Validate reports whether the parameters can produce windows.
func (w WindowParams) Validate() error {
	var errs []error
	if !(w.Size > 0) {
		errs = append(errs, fmt.Errorf("window size must be positive, got %g", w.Size))
	}
	if w.Overlap < 0 || w.Overlap >= 1 || math.IsNaN(w.Overlap) {
		errs = append(errs, fmt.Errorf("window overlap must be in [0, 1), got %g", w.Overlap))
	}
	if !(w.ConeDiameter > 0) {
		errs = append(errs, fmt.Errorf("cone diameter must be positive, got %g", w.ConeDiameter))
	}
	return errors.Join(errs...)
}

// ConeArea returns the projected cone area in mm^2.
func (w WindowParams) ConeArea() float64 {
	r := w.ConeDiameter / 2
	return math.Pi * r * r
}

// ShotNoise holds the shot noise estimates for one window.
type ShotNoise struct {
	Distance    float64 // window centre in mm
	ForceMedian float64 // N
	Intensity   float64 // lambda, rupture events per mm^3
	F0          float64 // rupture force in N
	Delta       float64 // deflection at rupture in mm
	ElementSize float64 // L in mm
}

// ShotNoiseWindows evaluates the shot noise model on moving windows over
// samples. spacing is the sample spacing in mm. Windows that cannot be
// evaluated carry NaN estimates.
func ShotNoiseWindows(samples []smp.Sample, spacing float64, params WindowParams) []ShotNoise {
	n := len(samples)
	if n == 0 || !(spacing > 0) {
		return nil
	}
	size := int(math.Round(params.Size / spacing))
	if size < minWindowSamples {
		size = minWindowSamples
	}
	if size > n {
		return nil
	}
	step := int(math.Round(float64(size) * (1 - params.Overlap)))
	if step < 1 {
		step = 1
	}

	area := params.ConeArea()
	forces := make([]float64, n)
	for i, s := range samples {
		forces[i] = s.Force
	}

	var out []ShotNoise
	for start := 0; start+size <= n; start += step {
		end := start + size
		sn := shotNoise(forces[start:end], spacing, area)
		sn.Distance = (samples[start].Distance + samples[end-1].Distance) / 2
		out = append(out, sn)
	}
	return out
}

// shotNoise applies Loewe & van Herwijnen (2012) to one window of forces.
func shotNoise(f []float64, dz, coneArea float64) ShotNoise {
	sn := ShotNoise{ForceMedian: median(f)}

	k1, k2 := stat.PopMeanVariance(f, nil)
	dev := make([]float64, len(f))
	copy(dev, f)
	floats.AddConst(-k1, dev)
	c0 := floats.Dot(dev, dev)
	c1 := floats.Dot(dev[:len(dev)-1], dev[1:])

	if k1 <= 0 || k2 <= 0 || c1 == c0 {
		sn.Intensity, sn.F0, sn.Delta, sn.ElementSize = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return sn
	}

	sn.Delta = finite(-1.5 * c0 / (c1 - c0) * dz)
	sn.Intensity = finite(4.0 / 3.0 * k1 * k1 / k2 / sn.Delta)
	sn.F0 = finite(1.5 * k2 / k1)
	sn.ElementSize = finite(math.Cbrt(coneArea / sn.Intensity))
	if sn.Intensity <= 0 {
		sn.ElementSize = math.NaN()
	}
	return sn
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

func finite(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
