package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/smp.report/internal/fsutil"
	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/smp"
	"github.com/banshee-data/smp.report/internal/timeutil"
	"github.com/banshee-data/smp.report/internal/version"
)

// DefaultPrecision is the number of decimals written for derived values.
const DefaultPrecision = 4

// Exporter writes CSV files through a FileSystem. All files written by one
// Exporter share its RunID.
type Exporter struct {
	FS        fsutil.FileSystem
	Clock     timeutil.Clock
	Precision int
	RunID     uuid.UUID
}

// NewExporter returns an exporter with a fresh run ID. Nil arguments select
// the OS filesystem and the real clock.
func NewExporter(fsys fsutil.FileSystem, clock timeutil.Clock) *Exporter {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Exporter{FS: fsys, Clock: clock, Precision: DefaultPrecision, RunID: uuid.New()}
}

// Samples writes the raw distance/force table. Values keep full precision
// so the file loads back through smp.TableLoader unchanged.
func (e *Exporter) Samples(path string, p *smp.Profile) error {
	return e.write(path, p, nil, func(w *csv.Writer) error {
		if err := w.Write([]string{"distance [mm]", "force [N]"}); err != nil {
			return err
		}
		for _, s := range p.Samples {
			row := []string{
				strconv.FormatFloat(s.Distance, 'f', -1, 64),
				strconv.FormatFloat(s.Force, 'f', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Derivatives writes the derived series computed with algo.
func (e *Exporter) Derivatives(path string, p *smp.Profile, algo parameterization.Algorithm, derivs []parameterization.Derivative) error {
	extra := []string{fmt.Sprintf("# parameterization: %s", algo)}
	return e.write(path, p, extra, func(w *csv.Writer) error {
		header := []string{
			"distance [mm]",
			"force_median [N]",
			"element_size [mm]",
			"lambda [1/mm^3]",
			"f0 [N]",
			"delta [mm]",
			algo.String() + "_density [kg/m^3]",
			algo.String() + "_ssa [m^2/m^3]",
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, d := range derivs {
			row := []string{
				e.format(d.Distance),
				e.format(d.ForceMedian),
				e.format(d.ElementSize),
				e.format(d.Intensity),
				e.format(d.F0),
				e.format(d.Delta),
				e.format(d.Density),
				e.format(d.SSA),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Meta writes the profile metadata and markers as key/value rows.
func (e *Exporter) Meta(path string, p *smp.Profile) error {
	return e.write(path, p, nil, func(w *csv.Writer) error {
		rows := [][]string{
			{"key", "value"},
			{smp.MetaName, p.Name},
			{smp.MetaTimestamp, formatTime(p.Timestamp)},
			{smp.MetaSerial, p.SerialNumber},
		}
		if p.Coordinates != nil {
			rows = append(rows,
				[]string{smp.MetaLatitude, strconv.FormatFloat(p.Coordinates.Latitude, 'f', -1, 64)},
				[]string{smp.MetaLongitude, strconv.FormatFloat(p.Coordinates.Longitude, 'f', -1, 64)},
			)
		}
		rows = append(rows,
			[]string{smp.MetaOverload, e.format(p.Overload)},
			[]string{smp.MetaSpatialResolution, strconv.FormatFloat(p.Resolution(), 'f', -1, 64)},
			[]string{"samples", strconv.Itoa(len(p.Samples))},
			[]string{"length [mm]", e.format(p.Length())},
		)
		for _, name := range []string{smp.MarkerSurface, smp.MarkerGround} {
			if d, ok := p.Marker(name); ok {
				rows = append(rows, []string{"marker_" + name, e.format(d)})
			}
		}
		return w.WriteAll(rows)
	})
}

// write creates path, emits the shared comment header plus extra lines and
// hands a CSV writer to body.
func (e *Exporter) write(path string, p *smp.Profile, extra []string, body func(*csv.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := e.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := e.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if err := e.writeHeader(f, p, extra); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := body(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeHeader(w io.Writer, p *smp.Profile, extra []string) error {
	lines := []string{
		"# generator: " + version.String(),
		"# export_id: " + e.RunID.String(),
		"# exported_at: " + formatTime(e.Clock.Now()),
	}
	lines = append(lines, smp.FormatMeta(p)...)
	lines = append(lines, extra...)
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// format renders v with the configured precision; NaN becomes an empty cell.
func (e *Exporter) format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	prec := e.Precision
	if prec < 0 {
		prec = -1
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
