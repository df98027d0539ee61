package export

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
	"github.com/banshee-data/smp.report/internal/testutil"
)

func flatDerivs(p *smp.Profile) []parameterization.Derivative {
	out := make([]parameterization.Derivative, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = parameterization.Derivative{Distance: s.Distance, Density: 250, SSA: 20}
	}
	return out
}

func TestNiVizSettings_Stride(t *testing.T) {
	s := NiVizSettings{DataThinning: 100}
	assert.Equal(t, 1, s.Stride(50))
	assert.Equal(t, 1, s.Stride(100))
	assert.Equal(t, 2, s.Stride(101))
	assert.Equal(t, 31, s.Stride(3001))
}

func TestNiVizSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultNiVizSettings().Validate())

	err := NiVizSettings{DataThinning: 0, SlopeAngle: 95, StretchFactor: 0}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_thinning")
	assert.Contains(t, err.Error(), "slope_angle_deg")
	assert.Contains(t, err.Error(), "stretch_factor")
}

func TestExporter_NiViz(t *testing.T) {
	e, mfs := newTestExporter()
	p := testutil.RisingFalling(10)
	p.SetMarker(smp.MarkerSurface, 2)
	p.SetMarker(smp.MarkerGround, 8)

	settings := NiVizSettings{DataThinning: 4, SlopeAngle: 60, StretchFactor: 2}
	require.NoError(t, e.NiViz("/out/P1_niviz.csv", p, flatDerivs(p), settings))

	rows := readRows(t, mfs, "/out/P1_niviz.csv")
	// Samples 2..8 are 7 rows; a limit of 4 gives stride 2: 2, 4, 6, 8.
	require.Len(t, rows, 5)
	assert.Equal(t, "depth [mm]", rows[0][0])

	var depths []float64
	for _, row := range rows[1:] {
		d, err := strconv.ParseFloat(row[0], 64)
		require.NoError(t, err)
		depths = append(depths, d)
		assert.Equal(t, "250.0000", row[2])
	}
	// cos(60 deg) * 2 == 1, so depth equals distance below the surface.
	assert.InDeltaSlice(t, []float64{0, 2, 4, 6}, depths, 1e-3)
}

func TestExporter_NiVizRejectsMisalignedSeries(t *testing.T) {
	e, _ := newTestExporter()
	p := testutil.RisingFalling(5)
	err := e.NiViz("/out/x.csv", p, flatDerivs(p)[:3], DefaultNiVizSettings())
	assert.Error(t, err)
}

func TestNiVizSettings_Depth(t *testing.T) {
	s := NiVizSettings{SlopeAngle: 0, StretchFactor: 1}
	assert.Equal(t, 12.5, s.Depth(12.5))

	s = NiVizSettings{SlopeAngle: 30, StretchFactor: 1}
	assert.InDelta(t, 10*math.Sqrt(3)/2, s.Depth(10), 1e-12)
}
