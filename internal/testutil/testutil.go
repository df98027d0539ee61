// Package testutil provides shared test fixtures: synthetic SMP profiles,
// their sample-table rendering, and small assertion helpers.
package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/smp.report/internal/smp"
)

// FixedTime is the timestamp carried by synthetic profiles.
var FixedTime = time.Date(2023, 2, 14, 10, 30, 0, 0, time.UTC)

// RisingFalling returns n samples one millimetre apart with force rising to
// the middle and falling again, named "P1". Distances start at 0.
func RisingFalling(n int) *smp.Profile {
	p := &smp.Profile{Name: "P1", Timestamp: FixedTime, SerialNumber: "SMP-0042"}
	for i := 0; i < n; i++ {
		f := float64(min(i, n-1-i)+1) * 0.1
		p.Samples = append(p.Samples, smp.Sample{Distance: float64(i), Force: f})
	}
	return p
}

// SnowSpec describes a synthetic air/snow/ground profile.
type SnowSpec struct {
	Step      float64 // sample spacing in mm
	Surface   float64 // distance where snow starts
	Ground    float64 // distance where the probe saturates
	Length    float64 // total recorded distance
	SnowForce float64 // mean force in snow
	Overload  float64
	Seed      int64
}

// DefaultSnowSpec is a 60 mm profile with snow between 10 and 50 mm.
func DefaultSnowSpec() SnowSpec {
	return SnowSpec{
		Step:      0.02,
		Surface:   10,
		Ground:    50,
		Length:    60,
		SnowForce: 0.4,
		Overload:  40,
		Seed:      7,
	}
}

// SnowProfile builds a deterministic profile from spec: low noise in air,
// rupture spikes on a force baseline in snow, and overload from Ground on.
func SnowProfile(name string, spec SnowSpec) *smp.Profile {
	rng := rand.New(rand.NewSource(spec.Seed))
	p := &smp.Profile{
		Name:              name,
		Timestamp:         FixedTime,
		SerialNumber:      "SMP-0042",
		Coordinates:       &smp.Coordinates{Latitude: 46.812345, Longitude: 9.806789},
		Overload:          spec.Overload,
		SpatialResolution: spec.Step,
	}
	n := int(math.Round(spec.Length/spec.Step)) + 1
	for i := 0; i < n; i++ {
		d := float64(i) * spec.Step
		var f float64
		switch {
		case d < spec.Surface:
			f = 0.002 + 0.001*rng.Float64()
		case d < spec.Ground:
			f = spec.SnowForce * (0.5 + rng.Float64())
			if rng.Intn(4) == 0 {
				f += spec.SnowForce * rng.Float64()
			}
		default:
			f = spec.Overload + 1
		}
		p.Samples = append(p.Samples, smp.Sample{Distance: d, Force: f})
	}
	return p
}

// SampleTable renders p in the format smp.TableLoader reads.
func SampleTable(p *smp.Profile) string {
	var b strings.Builder
	for _, line := range smp.FormatMeta(p) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("distance [mm],force [N]\n")
	for _, s := range p.Samples {
		fmt.Fprintf(&b, "%g,%g\n", s.Distance, s.Force)
	}
	return b.String()
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
