// Package export writes profiles and their derived series as flat CSV files.
package export

import (
	"path/filepath"
	"strings"
)

// File name suffixes appended to the profile name.
const (
	SuffixSamples     = "_samples.csv"
	SuffixDerivatives = "_derivatives.csv"
	SuffixMeta        = "_meta.csv"
	SuffixNiViz       = "_niviz.csv"
)

const maxNameLen = 128

// ResolvePath picks the output path for one export. An explicit path wins
// verbatim; otherwise the file is <dir>/<name><suffix> with name passed
// through SafeName. With neither set the export is skipped and ok is false.
func ResolvePath(dir, explicit, name, suffix string) (path string, ok bool) {
	if explicit != "" {
		return explicit, true
	}
	if dir != "" {
		return filepath.Join(dir, SafeName(name)+suffix), true
	}
	return "", false
}

// ResolveSiblingPath places an auxiliary export next to the main one: in
// dir when set, else in the directory of the explicit file.
func ResolveSiblingPath(dir, explicit, name, suffix string) (path string, ok bool) {
	if dir == "" && explicit != "" {
		dir = filepath.Dir(explicit)
	}
	return ResolvePath(dir, "", name, suffix)
}

// SafeName turns a profile name, which comes from file metadata, into a
// file name stem. Runs of characters outside [A-Za-z0-9._-] become one
// underscore, leading and trailing dots and underscores are trimmed, and
// the result is capped at 128 bytes. An empty result is "profile".
func SafeName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range name {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			underscore = false
		case !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "profile"
}
