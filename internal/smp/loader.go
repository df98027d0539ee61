package smp

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/smp.report/internal/fsutil"
)

// ErrFileFormat is returned when a file is not a recognised profile table.
var ErrFileFormat = errors.New("unrecognised profile format")

// Metadata keys understood in "# key: value" header lines. The exporter
// writes the same keys so exported sample tables load back unchanged.
const (
	MetaName              = "name"
	MetaTimestamp         = "timestamp"
	MetaSerial            = "smp_serial"
	MetaLatitude          = "latitude"
	MetaLongitude         = "longitude"
	MetaOverload          = "overload"
	MetaSpatialResolution = "spatial_resolution"
)

// Loader reads a recording into a Profile.
type Loader interface {
	Load(path string) (*Profile, error)
}

// TableLoader loads profiles from the SMP sample table: optional
// "# key: value" metadata lines, a distance,force header row and one row
// per sample.
type TableLoader struct {
	fs fsutil.FileSystem
}

// NewTableLoader returns a loader reading through fsys. A nil fsys uses the
// OS filesystem.
func NewTableLoader(fsys fsutil.FileSystem) *TableLoader {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &TableLoader{fs: fsys}
}

// Load reads the profile at path. The profile name defaults to the file stem.
func (l *TableLoader) Load(path string) (*Profile, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := filepath.Base(path)
	p, err := ReadTable(f, strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ReadTable parses a sample table from r. defaultName is used when the
// table carries no name metadata.
func ReadTable(r io.Reader, defaultName string) (*Profile, error) {
	br := bufio.NewReader(r)
	p := &Profile{Name: defaultName}

	// Leading comment lines carry metadata.
	commentLines := 0
	for {
		peek, err := br.Peek(1)
		if err != nil || peek[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		commentLines++
		if err := applyMeta(p, line); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFileFormat, commentLines, err)
		}
		if err == io.EOF {
			break
		}
	}

	cr := csv.NewReader(br)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no sample header", ErrFileFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	distCol, forceCol, err := headerColumns(header)
	if err != nil {
		return nil, err
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
		}
		line, _ := cr.FieldPos(0)
		line += commentLines

		if len(rec) <= distCol || len(rec) <= forceCol {
			return nil, fmt.Errorf("%w: line %d: expected at least %d fields, got %d",
				ErrFileFormat, line, max(distCol, forceCol)+1, len(rec))
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(rec[distCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: failed to parse distance: %v", ErrFileFormat, line, err)
		}
		fv, err := strconv.ParseFloat(strings.TrimSpace(rec[forceCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: failed to parse force: %v", ErrFileFormat, line, err)
		}
		if n := len(p.Samples); n > 0 && d <= p.Samples[n-1].Distance {
			return nil, fmt.Errorf("%w: line %d: distance %g is not increasing", ErrFileFormat, line, d)
		}
		p.Samples = append(p.Samples, Sample{Distance: d, Force: fv})
	}

	if len(p.Samples) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrFileFormat, len(p.Samples))
	}
	return p, nil
}

func headerColumns(header []string) (distCol, forceCol int, err error) {
	distCol, forceCol = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.HasPrefix(h, "distance"):
			distCol = i
		case strings.HasPrefix(h, "force"):
			forceCol = i
		}
	}
	if distCol < 0 || forceCol < 0 {
		return 0, 0, fmt.Errorf("%w: header %q lacks distance and force columns", ErrFileFormat, strings.Join(header, ","))
	}
	return distCol, forceCol, nil
}

func applyMeta(p *Profile, line string) error {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
	value = strings.TrimSpace(value)

	var err error
	switch key {
	case MetaName:
		if value != "" {
			p.Name = value
		}
	case MetaTimestamp:
		p.Timestamp, err = time.Parse(time.RFC3339, value)
	case MetaSerial:
		p.SerialNumber = value
	case MetaLatitude:
		err = setCoordinate(p, value, func(c *Coordinates, v float64) { c.Latitude = v })
	case MetaLongitude:
		err = setCoordinate(p, value, func(c *Coordinates, v float64) { c.Longitude = v })
	case MetaOverload:
		p.Overload, err = strconv.ParseFloat(value, 64)
	case MetaSpatialResolution:
		p.SpatialResolution, err = strconv.ParseFloat(value, 64)
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %v", key, value, err)
	}
	return nil
}

func setCoordinate(p *Profile, value string, set func(*Coordinates, float64)) error {
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	if p.Coordinates == nil {
		p.Coordinates = &Coordinates{}
	}
	set(p.Coordinates, v)
	return nil
}

// FormatMeta renders the metadata header lines for p in the form ReadTable
// understands.
func FormatMeta(p *Profile) []string {
	var lines []string
	add := func(k, v string) {
		lines = append(lines, fmt.Sprintf("# %s: %s", k, v))
	}
	add(MetaName, p.Name)
	if !p.Timestamp.IsZero() {
		add(MetaTimestamp, p.Timestamp.Format(time.RFC3339))
	}
	if p.SerialNumber != "" {
		add(MetaSerial, p.SerialNumber)
	}
	if p.Coordinates != nil {
		add(MetaLatitude, strconv.FormatFloat(p.Coordinates.Latitude, 'f', -1, 64))
		add(MetaLongitude, strconv.FormatFloat(p.Coordinates.Longitude, 'f', -1, 64))
	}
	if p.Overload > 0 {
		add(MetaOverload, strconv.FormatFloat(p.Overload, 'f', -1, 64))
	}
	if p.SpatialResolution > 0 {
		add(MetaSpatialResolution, strconv.FormatFloat(p.SpatialResolution, 'f', -1, 64))
	}
	return lines
}
