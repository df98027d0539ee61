package chart

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, testFigure(t), DefaultOptions()))
	html := buf.String()

	for _, want := range []string{
		"Depth [mm]",
		"Force [N]",
		"Density (kg/m3)",
		"SSA (m2/m3)",
		ColorForce,
		ColorDensity,
		ColorSSA,
		"goecharts_" + ChartID,
		"offset: 80",
		"saveAsImage",
		"dataZoom",
		`"yAxisIndex":2`,
		"surface",
	} {
		assert.Contains(t, html, want)
	}
	assert.Contains(t, html, `[0,"-"]`, "NaN must render as a gap")
}

func TestRenderHTML_LegendOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, testFigure(t), DefaultOptions()))
	html := buf.String()

	force := strings.Index(html, `"name":"Force"`)
	ssa := strings.Index(html, `"name":"SSA"`)
	density := strings.Index(html, `"name":"Density"`)
	require.True(t, force >= 0 && ssa >= 0 && density >= 0)
	assert.Less(t, force, ssa)
	assert.Less(t, ssa, density)
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	o := Options{Width: 600, Height: 480, MaxPoints: 100}
	require.NoError(t, RenderPNG(&buf, testFigure(t), o))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.InDelta(t, 600, b.Dx(), 1)
	assert.InDelta(t, 480, b.Dy(), 1)
}

func TestSegments(t *testing.T) {
	nan := math.NaN()
	segs := segments([]float64{0, 1, 2, 3, 4}, []float64{nan, 1, nan, 3, 4})
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 1)
	assert.Len(t, segs[1], 2)
}

func TestParseHex(t *testing.T) {
	r, g, b, _ := parseHex(ColorDensity).RGBA()
	assert.Equal(t, uint32(0xff), r>>8)
	assert.Equal(t, uint32(0x7f), g>>8)
	assert.Equal(t, uint32(0x0e), b>>8)
}
