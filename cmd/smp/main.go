// Command smp loads one snow micro-penetrometer profile, derives density and
// SSA, prints a summary, optionally exports CSV files and shows the
// force/density/SSA chart.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/smp.report/internal/chart"
	"github.com/banshee-data/smp.report/internal/config"
	"github.com/banshee-data/smp.report/internal/fsutil"
	"github.com/banshee-data/smp.report/internal/monitoring"
	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/pipeline"
	"github.com/banshee-data/smp.report/internal/timeutil"
	"github.com/banshee-data/smp.report/internal/version"
	"github.com/banshee-data/smp.report/internal/viewer"
)

const usageLine = "usage: smp [flags] <in-file> [out-dir] [out-file]"

// errUsage marks command line errors, which exit with status 2.
var errUsage = errors.New("usage error")

type cliOptions struct {
	pipeline.Options
	ConfigPath  string
	Algorithm   string
	PNGPath     string
	HTMLPath    string
	NoDisplay   bool
	Listen      string
	NoBrowser   bool
	Quiet       bool
	Debug       bool
	ShowVersion bool
}

func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("smp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a JSON pipeline configuration")
	fs.StringVar(&o.Algorithm, "algorithm", "", "Parameterization: P2015 or CR2020 (overrides config)")
	outDir := fs.String("out-dir", "", "Directory for exported files (overrides positional out-dir)")
	outFile := fs.String("out-file", "", "Path for the derivatives export (overrides positional out-file)")
	fs.BoolVar(&o.Samples, "samples", false, "Also export raw samples")
	fs.BoolVar(&o.Meta, "meta", false, "Also export profile metadata")
	fs.BoolVar(&o.NiViz, "niviz", false, "Also export the niViz table")
	fs.StringVar(&o.PNGPath, "png", "", "Write a static PNG chart to this path")
	fs.StringVar(&o.HTMLPath, "html", "", "Write the interactive HTML chart to this path")
	fs.BoolVar(&o.NoDisplay, "no-display", false, "Do not serve the interactive chart")
	fs.StringVar(&o.Listen, "listen", "", "Viewer listen address (overrides config)")
	fs.BoolVar(&o.NoBrowser, "no-browser", false, "Serve the chart without opening a browser")
	fs.BoolVar(&o.Quiet, "quiet", false, "Suppress status output")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return o, err
		}
		return o, fmt.Errorf("%w: %v", errUsage, err)
	}
	if o.ShowVersion {
		return o, nil
	}

	pos := fs.Args()
	if len(pos) < 1 || len(pos) > 3 {
		fs.Usage()
		return o, fmt.Errorf("%w: expected 1 to 3 arguments, got %d", errUsage, len(pos))
	}
	o.InFile = pos[0]
	if len(pos) > 1 {
		o.OutDir = pos[1]
	}
	if len(pos) > 2 {
		o.OutFile = pos[2]
	}
	if *outDir != "" {
		o.OutDir = *outDir
	}
	if *outFile != "" {
		o.OutFile = *outFile
	}
	if o.Algorithm != "" {
		if _, err := parameterization.ParseAlgorithm(o.Algorithm); err != nil {
			return o, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	return o, nil
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(o cliOptions) (*config.PipelineConfig, error) {
	cfg := config.EmptyPipelineConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadPipelineConfig(o.ConfigPath); err != nil {
			return nil, err
		}
	}
	if o.Algorithm != "" {
		a := o.Algorithm
		cfg.Parameterization = &a
	}
	if o.Listen != "" {
		l := o.Listen
		cfg.ViewerListen = &l
	}
	return cfg, nil
}

func run(ctx context.Context, o cliOptions, stdout io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	out := stdout
	if o.Quiet {
		out = io.Discard
	}
	fsys := fsutil.OSFileSystem{}
	r := &pipeline.Runner{FS: fsys, Clock: timeutil.RealClock{}, Config: cfg, Out: out}
	res, err := r.Run(ctx, o.Options)
	if err != nil {
		return err
	}

	fig := chart.NewFigure(res.Profile, res.Derivatives, res.Algorithm)
	copts := chart.Options{Width: cfg.GetChartWidthPx(), Height: cfg.GetChartHeightPx(), MaxPoints: cfg.GetChartMaxPoints()}

	if o.PNGPath != "" {
		if err := writeFile(fsys, o.PNGPath, func(w io.Writer) error { return chart.RenderPNG(w, fig, copts) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s\n", o.PNGPath)
	}

	var page bytes.Buffer
	if o.HTMLPath != "" || !o.NoDisplay {
		if err := chart.RenderHTML(&page, fig, copts); err != nil {
			return err
		}
	}
	if o.HTMLPath != "" {
		if err := writeFile(fsys, o.HTMLPath, func(w io.Writer) error {
			_, err := w.Write(page.Bytes())
			return err
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %s\n", o.HTMLPath)
	}
	if o.NoDisplay {
		return nil
	}

	return viewer.Serve(ctx, page.Bytes(), viewer.Options{
		Listen:      cfg.GetViewerListen(),
		GracePeriod: cfg.GetViewerGracePeriod(),
		OpenBrowser: !o.NoBrowser,
		Clock:       timeutil.RealClock{},
		Out:         out,
	})
}

func writeFile(fsys fsutil.FileSystem, path string, body func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := body(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func main() {
	o, err := parseArgs(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if o.ShowVersion {
		fmt.Println(version.String())
		return
	}

	if err := monitoring.Init(o.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer monitoring.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		monitoring.L().Errorw("smp failed", "error", err)
		fmt.Fprintf(os.Stderr, "smp: %v\n", err)
		stop()
		monitoring.Sync()
		os.Exit(1)
	}
}
