package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banshee-data/smp.report/internal/monitoring"
	"github.com/banshee-data/smp.report/internal/parameterization"
	"github.com/banshee-data/smp.report/internal/testutil"
)

func TestParseArgs_Positional(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		dir     string
		file    string
		wantErr bool
	}{
		{"in only", []string{"p.csv"}, "", "", false},
		{"with dir", []string{"p.csv", "out"}, "out", "", false},
		{"with dir and file", []string{"p.csv", "out", "out/x.csv"}, "out", "out/x.csv", false},
		{"flags override", []string{"-out-dir", "o2", "-out-file", "f2.csv", "p.csv", "out", "x.csv"}, "o2", "f2.csv", false},
		{"none", nil, "", "", true},
		{"too many", []string{"a", "b", "c", "d"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			o, err := parseArgs(tt.args, &stderr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errUsage))
				assert.Contains(t, stderr.String(), usageLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p.csv", o.InFile)
			assert.Equal(t, tt.dir, o.OutDir)
			assert.Equal(t, tt.file, o.OutFile)
		})
	}
}

func TestParseArgs_Flags(t *testing.T) {
	var stderr bytes.Buffer
	o, err := parseArgs([]string{"-algorithm", "cr2020", "-samples", "-meta", "-niviz", "-no-display", "-png", "c.png", "p.csv"}, &stderr)
	require.NoError(t, err)
	assert.True(t, o.Samples)
	assert.True(t, o.Meta)
	assert.True(t, o.NiViz)
	assert.True(t, o.NoDisplay)
	assert.Equal(t, "c.png", o.PNGPath)

	_, err = parseArgs([]string{"-algorithm", "X2000", "p.csv"}, &stderr)
	assert.True(t, errors.Is(err, errUsage))

	_, err = parseArgs([]string{"-h"}, &stderr)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	o, err = parseArgs([]string{"-version"}, &stderr)
	require.NoError(t, err)
	assert.True(t, o.ShowVersion)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := loadConfig(cliOptions{Algorithm: "CR2020", Listen: "127.0.0.1:9999"})
	require.NoError(t, err)
	assert.Equal(t, parameterization.CalonneRichter2020, cfg.GetAlgorithm())
	assert.Equal(t, "127.0.0.1:9999", cfg.GetViewerListen())

	_, err = loadConfig(cliOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestRun_Headless(t *testing.T) {
	monitoring.Use(zap.NewNop())
	dir := t.TempDir()
	in := filepath.Join(dir, "S1.csv")
	p := testutil.SnowProfile("S1", testutil.DefaultSnowSpec())
	require.NoError(t, os.WriteFile(in, []byte(testutil.SampleTable(p)), 0o644))

	out := filepath.Join(dir, "out")
	o := cliOptions{
		NoDisplay: true,
		PNGPath:   filepath.Join(out, "S1.png"),
		HTMLPath:  filepath.Join(out, "S1.html"),
	}
	o.InFile, o.OutDir, o.Samples = in, out, true

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), o, &stdout))

	for _, name := range []string{"S1_samples.csv", "S1_derivatives.csv", "S1.png", "S1.html"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
	html, err := os.ReadFile(o.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "SSA (m2/m3)")

	assert.Contains(t, stdout.String(), "SMP Serial Number: SMP-0042")
	assert.Equal(t, 4, strings.Count(stdout.String(), "Exported "))
}

func TestRun_Quiet(t *testing.T) {
	monitoring.Use(zap.NewNop())
	dir := t.TempDir()
	in := filepath.Join(dir, "P1.csv")
	require.NoError(t, os.WriteFile(in, []byte(testutil.SampleTable(testutil.RisingFalling(20))), 0o644))

	o := cliOptions{NoDisplay: true, Quiet: true}
	o.InFile = in

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), o, &stdout))
	assert.Empty(t, stdout.String())
}

func TestRun_MissingInput(t *testing.T) {
	monitoring.Use(zap.NewNop())
	o := cliOptions{NoDisplay: true}
	o.InFile = filepath.Join(t.TempDir(), "nope.csv")
	err := run(context.Background(), o, &bytes.Buffer{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
