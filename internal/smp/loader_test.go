package smp

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/smp.report/internal/fsutil"
)

const sampleTable = `# name: S31H0117
# timestamp: 2023-02-14T10:30:00Z
# smp_serial: SMP-0042
# latitude: 46.812345
# longitude: 9.806789
# overload: 40
# spatial_resolution: 0.004
# operator: ignored
Distance [mm],Force [N]
0.000,0.010
0.004,0.012
0.008,0.350
`

func TestTableLoader_Load(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/data/profile.csv", []byte(sampleTable))

	p, err := NewTableLoader(mfs).Load("/data/profile.csv")
	require.NoError(t, err)

	assert.Equal(t, "S31H0117", p.Name)
	assert.True(t, p.Timestamp.Equal(time.Date(2023, 2, 14, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, "SMP-0042", p.SerialNumber)
	require.NotNil(t, p.Coordinates)
	assert.Equal(t, Coordinates{Latitude: 46.812345, Longitude: 9.806789}, *p.Coordinates)
	assert.Equal(t, 40.0, p.Overload)
	assert.Equal(t, 0.004, p.SpatialResolution)

	want := []Sample{{0, 0.010}, {0.004, 0.012}, {0.008, 0.350}}
	if diff := cmp.Diff(want, p.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestTableLoader_Deterministic(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("p.csv", []byte(sampleTable))
	loader := NewTableLoader(mfs)

	a, err := loader.Load("p.csv")
	require.NoError(t, err)
	b, err := loader.Load("p.csv")
	require.NoError(t, err)

	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, a.SerialNumber, b.SerialNumber)
	assert.Equal(t, a.Coordinates, b.Coordinates)
	assert.Len(t, b.Samples, len(a.Samples))
}

func TestTableLoader_NameFromStem(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/data/S31H0117.csv", []byte("distance,force\n0,0.1\n1,0.2\n"))

	p, err := NewTableLoader(mfs).Load("/data/S31H0117.csv")
	require.NoError(t, err)
	assert.Equal(t, "S31H0117", p.Name)
	assert.Nil(t, p.Coordinates)
	assert.True(t, p.Timestamp.IsZero())
}

func TestTableLoader_MissingFile(t *testing.T) {
	_, err := NewTableLoader(fsutil.NewMemoryFileSystem()).Load("/nope.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrFileFormat))
}

func TestReadTable_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "no sample header"},
		{"no header columns", "a,b\n1,2\n3,4\n", "lacks distance and force"},
		{"bad force", "distance,force\n0,0.1\n1,abc\n", "line 3"},
		{"bad force after meta", "# name: x\ndistance,force\n0,0.1\n1,abc\n", "line 4"},
		{"short row", "distance,force\n0,0.1\n1\n", "line 3"},
		{"single sample", "distance,force\n0,0.1\n", "at least 2 samples"},
		{"not increasing", "distance,force\n0,0.1\n0,0.2\n", "not increasing"},
		{"bad timestamp", "# timestamp: yesterday\ndistance,force\n0,0.1\n1,0.2\n", "invalid timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input), "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFileFormat), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFormatMeta_RoundTrip(t *testing.T) {
	p, err := ReadTable(strings.NewReader(sampleTable), "x")
	require.NoError(t, err)

	header := strings.Join(FormatMeta(p), "\n") + "\ndistance,force\n0,1\n1,2\n"
	got, err := ReadTable(strings.NewReader(header), "y")
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, p.SerialNumber, got.SerialNumber)
	assert.Equal(t, p.Coordinates, got.Coordinates)
	assert.Equal(t, p.Overload, got.Overload)
	assert.Equal(t, p.SpatialResolution, got.SpatialResolution)
}
