package smp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SurfaceParams tunes DetectSurface.
type SurfaceParams struct {
	// FilterKernel is the median filter width in samples; even values are
	// widened by one.
	FilterKernel int
	// NoiseLength is the leading distance in mm assumed to be in air.
	NoiseLength float64
	// Sigma is the number of noise standard deviations the filtered force
	// must rise above the noise mean.
	Sigma float64
	// MinRise is the minimum absolute rise in N above the noise mean.
	MinRise float64
}

// DefaultSurfaceParams returns the detector defaults.
func DefaultSurfaceParams() SurfaceParams {
	return SurfaceParams{
		FilterKernel: 11,
		NoiseLength:  5,
		Sigma:        5,
		MinRise:      0.02,
	}
}

// GroundParams tunes DetectGround.
type GroundParams struct {
	// Overload is the fallback saturation force in N, used when the profile
	// does not record one.
	Overload float64
}

// DefaultGroundParams returns the detector defaults.
func DefaultGroundParams() GroundParams {
	return GroundParams{Overload: 40}
}

// DetectSurface returns the distance at which the probe enters the snow.
// Without a clear rise above the air noise floor it returns the first
// sample distance.
func DetectSurface(p *Profile, params SurfaceParams) float64 {
	if len(p.Samples) == 0 {
		return 0
	}
	kernel := params.FilterKernel
	if kernel < 1 {
		kernel = 1
	}
	if kernel%2 == 0 {
		kernel++
	}
	filtered := MedFilt(p.Forces(), kernel)

	start := p.Samples[0].Distance
	var noise []float64
	for i, s := range p.Samples {
		if s.Distance-start > params.NoiseLength {
			break
		}
		noise = append(noise, filtered[i])
	}
	if len(noise) == 0 || len(noise) == len(filtered) {
		return start
	}

	mean, std := stat.MeanStdDev(noise, nil)
	if math.IsNaN(std) {
		std = 0
	}
	threshold := math.Max(mean+params.Sigma*std, mean+params.MinRise)

	for i := len(noise); i < len(filtered); i++ {
		if filtered[i] > threshold {
			return p.Samples[i].Distance
		}
	}
	return start
}

// DetectGround returns the distance of the first sample at or above the
// overload force. The profile's own overload takes precedence over
// params.Overload. Without saturation it returns the last sample distance.
func DetectGround(p *Profile, params GroundParams) float64 {
	n := len(p.Samples)
	if n == 0 {
		return 0
	}
	overload := p.Overload
	if overload <= 0 {
		overload = params.Overload
	}
	if overload > 0 {
		for _, s := range p.Samples {
			if s.Force >= overload {
				return s.Distance
			}
		}
	}
	return p.Samples[n-1].Distance
}

// MedFilt applies a median filter with zero padding at both ends, matching
// scipy.signal.medfilt. kernelSize must be a positive odd integer.
func MedFilt(data []float64, kernelSize int) []float64 {
	if kernelSize < 1 || kernelSize%2 == 0 {
		panic("kernelSize must be positive odd integer")
	}
	n := len(data)
	if n == 0 {
		return nil
	}

	half := kernelSize / 2
	result := make([]float64, n)
	window := make([]float64, kernelSize)

	for i := 0; i < n; i++ {
		for j := -half; j <= half; j++ {
			idx := i + j
			if idx < 0 || idx >= n {
				window[j+half] = 0
			} else {
				window[j+half] = data[idx]
			}
		}
		sort.Float64s(window)
		result[i] = window[half]
	}
	return result
}
