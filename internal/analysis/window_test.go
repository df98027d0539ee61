package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/testutil"
)

func derivsAt(distances ...float64) []parameterization.Derivative {
	out := make([]parameterization.Derivative, len(distances))
	for i, d := range distances {
		out[i] = parameterization.Derivative{Distance: d, Density: 100 * d, SSA: 10 * d}
	}
	return out
}

func distances(window []parameterization.Derivative) []float64 {
	var out []float64
	for _, d := range window {
		out = append(out, d.Distance)
	}
	return out
}

func TestSummarize_Mean(t *testing.T) {
	window := []parameterization.Derivative{
		{Density: 100, SSA: 10},
		{Density: 200, SSA: 20},
		{Density: 300, SSA: 30},
	}
	s := Summarize(window)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 200.0, s.MeanDensity)
	assert.Equal(t, 20.0, s.MeanSSA)
	assert.False(t, s.Empty())
}

func TestWindow_RisingFallingScenario(t *testing.T) {
	p := testutil.RisingFalling(10)
	derivs := make([]parameterization.Derivative, len(p.Samples))
	for i, s := range p.Samples {
		derivs[i] = parameterization.Derivative{Distance: s.Distance, Density: 100 * float64(i+1), SSA: float64(i * i)}
	}
	surface, ground := p.Samples[2].Distance, p.Samples[8].Distance

	window := Window(derivs, surface, ground, Exclusive)
	got := distances(window)
	if diff := cmp.Diff([]float64{3, 4, 5, 6, 7}, got); diff != "" {
		t.Errorf("exclusive window mismatch (-want +got):\n%s", diff)
	}
	s := Summarize(window)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, (400.0+500+600+700+800)/5, s.MeanDensity, 1e-9)
	assert.InDelta(t, (9.0+16+25+36+49)/5, s.MeanSSA, 1e-9)

	got = distances(Window(derivs, surface, ground, Inclusive))
	if diff := cmp.Diff([]float64{2, 3, 4, 5, 6, 7, 8}, got); diff != "" {
		t.Errorf("inclusive window mismatch (-want +got):\n%s", diff)
	}
}

func TestWindow_Inverted(t *testing.T) {
	derivs := derivsAt(0, 1, 2, 3, 4)
	for _, b := range []Bounds{Exclusive, Inclusive} {
		t.Run(b.String(), func(t *testing.T) {
			w := Window(derivs, 3, 1, b)
			assert.Empty(t, w)

			s := Summarize(w)
			assert.True(t, s.Empty())
			assert.Zero(t, s.Count)
			assert.True(t, math.IsNaN(s.MeanDensity))
			assert.True(t, math.IsNaN(s.MeanSSA))
		})
	}
}

func TestWindow_AdjacentMarkersEmptyWhenExclusive(t *testing.T) {
	derivs := derivsAt(0, 1, 2, 3)
	assert.Empty(t, Window(derivs, 1, 2, Exclusive))
	assert.Len(t, Window(derivs, 1, 2, Inclusive), 2)
	assert.Len(t, Window(derivs, 2, 2, Inclusive), 1)
}

func TestCheckWindow(t *testing.T) {
	assert.NoError(t, CheckWindow(Summary{Count: 1}, 1, 2))

	err := CheckWindow(Summarize(nil), 30, 12.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyWindow))
	assert.Contains(t, err.Error(), "surface 30.0 mm, ground 12.5 mm")
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in      string
		want    Bounds
		wantErr bool
	}{
		{"", Exclusive, false},
		{"Exclusive", Exclusive, false},
		{"inclusive", Inclusive, false},
		{"open", Exclusive, true},
	}
	for _, tt := range tests {
		got, err := ParseBounds(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSummarize_SkipsNonFinite(t *testing.T) {
	window := derivsAt(1, 2, 3)
	window[1].Density = math.NaN()
	for i := range window {
		window[i].SSA = math.NaN()
	}
	window[2].SSA = math.Inf(1)

	s := Summarize(window)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 200.0, s.MeanDensity)
	assert.True(t, math.IsNaN(s.MeanSSA))
	assert.False(t, s.Empty())
}
