// Package pipeline runs one profile from file to summary: load, detect
// markers, derive density and SSA, window, summarise and export. Rendering
// lives in the chart and viewer packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/smp.report/internal/analysis"
	"github.com/banshee-data/smp.report/internal/config"
	"github.com/banshee-data/smp.report/internal/export"
	"github.com/banshee-data/smp.report/internal/fsutil"
	"github.com/banshee-data/smp.report/internal/monitoring"
	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
	"github.com/banshee-data/smp.report/internal/timeutil"
	"github.com/banshee-data/smp.report/internal/units"
)

// ErrOutputConflict is returned when two requested exports resolve to the
// same file.
var ErrOutputConflict = errors.New("exports resolve to the same file")

// Options selects the input and which files to write.
type Options struct {
	InFile string
	// OutDir receives <name><suffix> files.
	OutDir string
	// OutFile is an explicit path for the derivatives export.
	OutFile string
	Samples bool
	Meta    bool
	NiViz   bool
}

// Result is everything the renderers need after a run.
type Result struct {
	Profile     *smp.Profile
	Algorithm   parameterization.Algorithm
	Derivatives []parameterization.Derivative
	Surface     float64
	Ground      float64
	Window      []parameterization.Derivative
	Summary     analysis.Summary
	Exported    []string
}

// Runner holds the collaborators of a run. Zero fields select the OS
// filesystem, the real clock, the table loader and default configuration.
type Runner struct {
	Loader smp.Loader
	FS     fsutil.FileSystem
	Clock  timeutil.Clock
	Config *config.PipelineConfig
	// Out receives the operator status lines; nil discards them.
	Out io.Writer
}

func (r *Runner) defaults() {
	if r.FS == nil {
		r.FS = fsutil.OSFileSystem{}
	}
	if r.Clock == nil {
		r.Clock = timeutil.RealClock{}
	}
	if r.Loader == nil {
		r.Loader = smp.NewTableLoader(r.FS)
	}
	if r.Config == nil {
		r.Config = config.DefaultPipelineConfig()
	}
	if r.Out == nil {
		r.Out = io.Discard
	}
}

// Run executes the pipeline. Any failure aborts the remaining steps.
func (r *Runner) Run(ctx context.Context, o Options) (*Result, error) {
	r.defaults()
	if err := r.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p, err := r.Loader.Load(o.InFile)
	if err != nil {
		return nil, err
	}
	monitoring.Debugf("loaded %s: %d samples, resolution %g mm", p.Name, len(p.Samples), p.Resolution())
	r.printMeta(p)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Profile: p, Algorithm: r.Config.GetAlgorithm()}
	res.Surface = smp.DetectSurface(p, r.Config.SurfaceParams())
	res.Ground = smp.DetectGround(p, r.Config.GroundParams())
	p.SetMarker(smp.MarkerSurface, res.Surface)
	p.SetMarker(smp.MarkerGround, res.Ground)
	fmt.Fprintf(r.Out, "Surface detected at %g. Ground at %g\n", res.Surface, res.Ground)
	monitoring.Infow("markers detected", "profile", p.Name, "surface_mm", res.Surface, "ground_mm", res.Ground)

	model, err := parameterization.New(res.Algorithm)
	if err != nil {
		return nil, err
	}
	res.Derivatives, err = parameterization.Calc(p, model, r.Config.WindowParams())
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s for %s: %w", res.Algorithm, p.Name, err)
	}

	res.Window = analysis.Window(res.Derivatives, res.Surface, res.Ground, r.Config.GetWindowBounds())
	res.Summary = analysis.Summarize(res.Window)
	if r.Config.GetStrictWindow() {
		if err := analysis.CheckWindow(res.Summary, res.Surface, res.Ground); err != nil {
			return nil, err
		}
	}
	if res.Summary.Empty() {
		monitoring.Logf("empty window for %s between %g and %g mm", p.Name, res.Surface, res.Ground)
	}
	fmt.Fprintf(r.Out, "Mean SSA within sample: %s\n", units.FormatSSA(res.Summary.MeanSSA))
	fmt.Fprintf(r.Out, "Mean density within sample: %s\n", units.FormatDensity(res.Summary.MeanDensity))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.export(o, res); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) printMeta(p *smp.Profile) {
	fmt.Fprintf(r.Out, "Timestamp: %s\n", formatTimestamp(p))
	fmt.Fprintf(r.Out, "SMP Serial Number: %s\n", orNA(p.SerialNumber))
	coords := units.NotAvailable
	if p.Coordinates != nil {
		coords = p.Coordinates.String()
	}
	fmt.Fprintf(r.Out, "Coordinates: %s\n", coords)
}

// export writes the requested files. Without an output location it is a
// no-op.
func (r *Runner) export(o Options, res *Result) error {
	e := export.NewExporter(r.FS, r.Clock)
	e.Precision = r.Config.GetExportPrecision()
	p := res.Profile

	type job struct {
		enabled bool
		path    string
		ok      bool
		write   func(string) error
	}
	derivPath, derivOK := export.ResolvePath(o.OutDir, o.OutFile, p.Name, export.SuffixDerivatives)
	samplesPath, samplesOK := export.ResolveSiblingPath(o.OutDir, o.OutFile, p.Name, export.SuffixSamples)
	metaPath, metaOK := export.ResolveSiblingPath(o.OutDir, o.OutFile, p.Name, export.SuffixMeta)
	nivizPath, nivizOK := export.ResolveSiblingPath(o.OutDir, o.OutFile, p.Name, export.SuffixNiViz)

	jobs := []job{
		{o.Samples, samplesPath, samplesOK, func(path string) error { return e.Samples(path, p) }},
		{true, derivPath, derivOK, func(path string) error {
			return e.Derivatives(path, p, res.Algorithm, res.Derivatives)
		}},
		{o.Meta, metaPath, metaOK, func(path string) error { return e.Meta(path, p) }},
		{o.NiViz, nivizPath, nivizOK, func(path string) error {
			return e.NiViz(path, p, res.Derivatives, r.Config.NiVizSettings())
		}},
	}
	var pending []job
	seen := make(map[string]bool)
	for _, j := range jobs {
		if !j.enabled || !j.ok {
			continue
		}
		clean := filepath.Clean(j.path)
		if seen[clean] {
			return fmt.Errorf("%w: %s", ErrOutputConflict, j.path)
		}
		seen[clean] = true
		pending = append(pending, j)
	}

	for _, j := range pending {
		if err := j.write(j.path); err != nil {
			return err
		}
		res.Exported = append(res.Exported, j.path)
		fmt.Fprintf(r.Out, "Exported %s\n", j.path)
	}
	if len(res.Exported) > 0 {
		monitoring.Infow("export complete", "profile", p.Name, "export_id", e.RunID.String(), "files", len(res.Exported))
	}
	return nil
}

func formatTimestamp(p *smp.Profile) string {
	if p.Timestamp.IsZero() {
		return units.NotAvailable
	}
	return p.Timestamp.UTC().Format("2006-01-02 15:04:05 MST")
}

func orNA(s string) string {
	if s == "" {
		return units.NotAvailable
	}
	return s
}
