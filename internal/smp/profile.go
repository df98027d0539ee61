// Package smp holds the snow micro-penetrometer profile model, the Loader
// contract with its sample-table implementation, and the surface and ground
// detection heuristics.
package smp

import (
	"fmt"
	"sort"
	"time"
)

// Well-known marker names.
const (
	MarkerSurface = "surface"
	MarkerGround  = "ground"
)

// Sample is one raw measurement: probe distance in mm and force in N.
type Sample struct {
	Distance float64
	Force    float64
}

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// Profile is one SMP recording. Markers are the only state mutated after
// loading.
type Profile struct {
	Name         string
	Timestamp    time.Time
	SerialNumber string
	// Coordinates is nil when the recording carries no position.
	Coordinates *Coordinates
	// Overload is the force in N at which the instrument saturates; 0 when unknown.
	Overload float64
	// SpatialResolution is the sample spacing in mm; 0 means derive it from Samples.
	SpatialResolution float64
	Samples           []Sample

	markers map[string]float64
}

// SetMarker records a named distance, replacing any previous value.
func (p *Profile) SetMarker(name string, distance float64) {
	if p.markers == nil {
		p.markers = make(map[string]float64)
	}
	p.markers[name] = distance
}

// Marker returns the named distance and whether it is set.
func (p *Profile) Marker(name string) (float64, bool) {
	d, ok := p.markers[name]
	return d, ok
}

// Markers returns a copy of the marker map.
func (p *Profile) Markers() map[string]float64 {
	out := make(map[string]float64, len(p.markers))
	for k, v := range p.markers {
		out[k] = v
	}
	return out
}

// Distances returns the sample distances in order.
func (p *Profile) Distances() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Distance
	}
	return out
}

// Forces returns the sample forces in order.
func (p *Profile) Forces() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Force
	}
	return out
}

// Resolution returns the spacing between samples in mm. It prefers the
// recorded SpatialResolution and otherwise takes the median sample spacing,
// so a single gap in the recording does not skew it.
func (p *Profile) Resolution() float64 {
	if p.SpatialResolution > 0 {
		return p.SpatialResolution
	}
	n := len(p.Samples)
	if n < 2 {
		return 0
	}
	steps := make([]float64, n-1)
	for i := 1; i < n; i++ {
		steps[i-1] = p.Samples[i].Distance - p.Samples[i-1].Distance
	}
	sort.Float64s(steps)
	mid := len(steps) / 2
	if len(steps)%2 == 1 {
		return steps[mid]
	}
	return (steps[mid-1] + steps[mid]) / 2
}

// Length returns the distance covered by the recording.
func (p *Profile) Length() float64 {
	if len(p.Samples) == 0 {
		return 0
	}
	return p.Samples[len(p.Samples)-1].Distance - p.Samples[0].Distance
}
