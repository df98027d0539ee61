package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/smp.report/internal/analysis"
	"github.com/banshee-data/smp.report/internal/export"
	"github.com/banshee-data/smp.report/internal/fsutil"
	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/smp.defaults.json"

// PipelineConfig is the JSON configuration for one pipeline run. Every field
// is optional; the Get* methods supply defaults for fields left out.
type PipelineConfig struct {
	// Derivation
	Parameterization *string  `json:"parameterization,omitempty"` // P2015 or CR2020
	WindowSizeMM     *float64 `json:"window_size_mm,omitempty"`
	WindowOverlap    *float64 `json:"window_overlap,omitempty"`
	ConeDiameterMM   *float64 `json:"cone_diameter_mm,omitempty"`

	// Marker detection
	SurfaceFilterKernel *int     `json:"surface_filter_kernel,omitempty"`
	SurfaceNoiseMM      *float64 `json:"surface_noise_mm,omitempty"`
	SurfaceSigma        *float64 `json:"surface_sigma,omitempty"`
	SurfaceMinRiseN     *float64 `json:"surface_min_rise_n,omitempty"`
	OverloadN           *float64 `json:"overload_n,omitempty"`

	// Windowing
	WindowBounds *string `json:"window_bounds,omitempty"` // exclusive or inclusive
	StrictWindow *bool   `json:"strict_window,omitempty"`

	// Export
	ExportPrecision *int         `json:"export_precision,omitempty"`
	NiViz           *NiVizConfig `json:"niviz,omitempty"`

	// Display
	ChartMaxPoints    *int    `json:"chart_max_points,omitempty"`
	ChartWidthPx      *int    `json:"chart_width_px,omitempty"`
	ChartHeightPx     *int    `json:"chart_height_px,omitempty"`
	ViewerListen      *string `json:"viewer_listen,omitempty"`
	ViewerGracePeriod *string `json:"viewer_grace_period,omitempty"` // duration string like "2s"
}

// NiVizConfig holds the niViz export settings.
type NiVizConfig struct {
	DataThinning  *int     `json:"data_thinning,omitempty"`
	SlopeAngleDeg *float64 `json:"slope_angle_deg,omitempty"`
	StretchFactor *float64 `json:"stretch_factor,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a config with every field set to its default.
func DefaultPipelineConfig() *PipelineConfig {
	c := EmptyPipelineConfig()
	niviz := export.DefaultNiVizSettings()
	return &PipelineConfig{
		Parameterization:    ptrString(c.GetAlgorithm().String()),
		WindowSizeMM:        ptrFloat64(c.GetWindowSizeMM()),
		WindowOverlap:       ptrFloat64(c.GetWindowOverlap()),
		ConeDiameterMM:      ptrFloat64(c.GetConeDiameterMM()),
		SurfaceFilterKernel: ptrInt(c.SurfaceParams().FilterKernel),
		SurfaceNoiseMM:      ptrFloat64(c.SurfaceParams().NoiseLength),
		SurfaceSigma:        ptrFloat64(c.SurfaceParams().Sigma),
		SurfaceMinRiseN:     ptrFloat64(c.SurfaceParams().MinRise),
		OverloadN:           ptrFloat64(c.GroundParams().Overload),
		WindowBounds:        ptrString(c.GetWindowBounds().String()),
		StrictWindow:        ptrBool(c.GetStrictWindow()),
		ExportPrecision:     ptrInt(c.GetExportPrecision()),
		NiViz: &NiVizConfig{
			DataThinning:  ptrInt(niviz.DataThinning),
			SlopeAngleDeg: ptrFloat64(niviz.SlopeAngle),
			StretchFactor: ptrFloat64(niviz.StretchFactor),
		},
		ChartMaxPoints:    ptrInt(c.GetChartMaxPoints()),
		ChartWidthPx:      ptrInt(c.GetChartWidthPx()),
		ChartHeightPx:     ptrInt(c.GetChartHeightPx()),
		ViewerListen:      ptrString(c.GetViewerListen()),
		ViewerGracePeriod: ptrString(c.GetViewerGracePeriod().String()),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file on disk.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	return LoadPipelineConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadPipelineConfigFS loads a PipelineConfig through fsys. The file must
// have a .json extension and be at most 1MB. Fields omitted from the file
// keep their defaults, so partial configs are safe.
func LoadPipelineConfigFS(fsys fsutil.FileSystem, path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Parameterization != nil {
		if _, err := parameterization.ParseAlgorithm(*c.Parameterization); err != nil {
			return err
		}
	}
	if err := c.WindowParams().Validate(); err != nil {
		return err
	}

	if c.SurfaceFilterKernel != nil && *c.SurfaceFilterKernel < 1 {
		return fmt.Errorf("surface_filter_kernel must be at least 1, got %d", *c.SurfaceFilterKernel)
	}
	if c.SurfaceNoiseMM != nil && *c.SurfaceNoiseMM < 0 {
		return fmt.Errorf("surface_noise_mm must be non-negative, got %f", *c.SurfaceNoiseMM)
	}
	if c.SurfaceSigma != nil && *c.SurfaceSigma < 0 {
		return fmt.Errorf("surface_sigma must be non-negative, got %f", *c.SurfaceSigma)
	}
	if c.OverloadN != nil && *c.OverloadN <= 0 {
		return fmt.Errorf("overload_n must be positive, got %f", *c.OverloadN)
	}

	if c.WindowBounds != nil {
		if _, err := analysis.ParseBounds(*c.WindowBounds); err != nil {
			return err
		}
	}

	if c.ExportPrecision != nil && (*c.ExportPrecision < 0 || *c.ExportPrecision > 12) {
		return fmt.Errorf("export_precision must be between 0 and 12, got %d", *c.ExportPrecision)
	}
	if err := c.NiVizSettings().Validate(); err != nil {
		return err
	}

	if c.ChartMaxPoints != nil && *c.ChartMaxPoints < 2 {
		return fmt.Errorf("chart_max_points must be at least 2, got %d", *c.ChartMaxPoints)
	}
	if c.ChartWidthPx != nil && *c.ChartWidthPx <= 0 {
		return fmt.Errorf("chart_width_px must be positive, got %d", *c.ChartWidthPx)
	}
	if c.ChartHeightPx != nil && *c.ChartHeightPx <= 0 {
		return fmt.Errorf("chart_height_px must be positive, got %d", *c.ChartHeightPx)
	}

	if c.ViewerGracePeriod != nil && *c.ViewerGracePeriod != "" {
		if _, err := time.ParseDuration(*c.ViewerGracePeriod); err != nil {
			return fmt.Errorf("invalid viewer_grace_period '%s': %w", *c.ViewerGracePeriod, err)
		}
	}
	return nil
}

// GetAlgorithm returns the configured parameterization or Proksch2015.
func (c *PipelineConfig) GetAlgorithm() parameterization.Algorithm {
	if c.Parameterization == nil {
		return parameterization.Proksch2015
	}
	a, err := parameterization.ParseAlgorithm(*c.Parameterization)
	if err != nil {
		return parameterization.Proksch2015
	}
	return a
}

// GetWindowSizeMM returns the window_size_mm value or the default.
func (c *PipelineConfig) GetWindowSizeMM() float64 {
	if c.WindowSizeMM == nil {
		return parameterization.DefaultWindowParams().Size
	}
	return *c.WindowSizeMM
}

// GetWindowOverlap returns the window_overlap value or the default.
func (c *PipelineConfig) GetWindowOverlap() float64 {
	if c.WindowOverlap == nil {
		return parameterization.DefaultWindowParams().Overlap
	}
	return *c.WindowOverlap
}

// GetConeDiameterMM returns the cone_diameter_mm value or the default.
func (c *PipelineConfig) GetConeDiameterMM() float64 {
	if c.ConeDiameterMM == nil {
		return parameterization.DefaultWindowParams().ConeDiameter
	}
	return *c.ConeDiameterMM
}

// WindowParams assembles the shot noise window parameters.
func (c *PipelineConfig) WindowParams() parameterization.WindowParams {
	return parameterization.WindowParams{
		Size:         c.GetWindowSizeMM(),
		Overlap:      c.GetWindowOverlap(),
		ConeDiameter: c.GetConeDiameterMM(),
	}
}

// SurfaceParams assembles the surface detector parameters.
func (c *PipelineConfig) SurfaceParams() smp.SurfaceParams {
	p := smp.DefaultSurfaceParams()
	if c.SurfaceFilterKernel != nil {
		p.FilterKernel = *c.SurfaceFilterKernel
	}
	if c.SurfaceNoiseMM != nil {
		p.NoiseLength = *c.SurfaceNoiseMM
	}
	if c.SurfaceSigma != nil {
		p.Sigma = *c.SurfaceSigma
	}
	if c.SurfaceMinRiseN != nil {
		p.MinRise = *c.SurfaceMinRiseN
	}
	return p
}

// GroundParams assembles the ground detector parameters.
func (c *PipelineConfig) GroundParams() smp.GroundParams {
	p := smp.DefaultGroundParams()
	if c.OverloadN != nil {
		p.Overload = *c.OverloadN
	}
	return p
}

// GetWindowBounds returns the window_bounds value or Exclusive.
func (c *PipelineConfig) GetWindowBounds() analysis.Bounds {
	if c.WindowBounds == nil {
		return analysis.Exclusive
	}
	b, err := analysis.ParseBounds(*c.WindowBounds)
	if err != nil {
		return analysis.Exclusive
	}
	return b
}

// GetStrictWindow returns the strict_window value or the default.
func (c *PipelineConfig) GetStrictWindow() bool {
	if c.StrictWindow == nil {
		return false // default: report an empty window as n/a
	}
	return *c.StrictWindow
}

// GetExportPrecision returns the export_precision value or the default.
func (c *PipelineConfig) GetExportPrecision() int {
	if c.ExportPrecision == nil {
		return export.DefaultPrecision
	}
	return *c.ExportPrecision
}

// NiVizSettings assembles the niViz export settings.
func (c *PipelineConfig) NiVizSettings() export.NiVizSettings {
	s := export.DefaultNiVizSettings()
	if c.NiViz == nil {
		return s
	}
	if c.NiViz.DataThinning != nil {
		s.DataThinning = *c.NiViz.DataThinning
	}
	if c.NiViz.SlopeAngleDeg != nil {
		s.SlopeAngle = *c.NiViz.SlopeAngleDeg
	}
	if c.NiViz.StretchFactor != nil {
		s.StretchFactor = *c.NiViz.StretchFactor
	}
	return s
}

// GetChartMaxPoints returns the chart_max_points value or the default.
func (c *PipelineConfig) GetChartMaxPoints() int {
	if c.ChartMaxPoints == nil {
		return 5000
	}
	return *c.ChartMaxPoints
}

// GetChartWidthPx returns the chart_width_px value or the default.
func (c *PipelineConfig) GetChartWidthPx() int {
	if c.ChartWidthPx == nil {
		return 1200
	}
	return *c.ChartWidthPx
}

// GetChartHeightPx returns the chart_height_px value or the default.
func (c *PipelineConfig) GetChartHeightPx() int {
	if c.ChartHeightPx == nil {
		return 700
	}
	return *c.ChartHeightPx
}

// GetViewerListen returns the viewer_listen value or the default.
func (c *PipelineConfig) GetViewerListen() string {
	if c.ViewerListen == nil || *c.ViewerListen == "" {
		return "127.0.0.1:0"
	}
	return *c.ViewerListen
}

// GetViewerGracePeriod parses and returns the ViewerGracePeriod.
func (c *PipelineConfig) GetViewerGracePeriod() time.Duration {
	if c.ViewerGracePeriod == nil || *c.ViewerGracePeriod == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ViewerGracePeriod)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}
