// Package units provides the physical units used for SMP profiles and the
// fixed-precision formatting used in operator output.
package units

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit labels as printed next to summary values.
const (
	Millimetre     = "mm"
	Newton         = "N"
	KgPerM3        = "kg/m^3"
	M2PerM3        = "m^2/m^3"
	NotAvailable   = "n/a"
	DensityOfIce   = 917.0 // kg/m^3
	MetresPerMilli = 1e-3
)

// Axis labels shared by every renderer.
const (
	DepthAxisLabel   = "Depth [mm]"
	ForceAxisLabel   = "Force [N]"
	DensityAxisLabel = "Density (kg/m3)"
	SSAAxisLabel     = "SSA (m2/m3)"
)

// FormatOneDecimal renders v with one decimal place followed by unit.
// NaN and infinities render as NotAvailable.
func FormatOneDecimal(v float64, unit string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}

// FormatDensity formats a density in kg/m^3.
func FormatDensity(v float64) string { return FormatOneDecimal(v, KgPerM3) }

// FormatSSA formats a specific surface area in m^2/m^3.
func FormatSSA(v float64) string { return FormatOneDecimal(v, M2PerM3) }

// FormatDistance formats a depth in millimetres.
func FormatDistance(v float64) string { return FormatOneDecimal(v, Millimetre) }

// ConvertTime converts t into the named IANA timezone for display.
// An empty name or "UTC" returns t in UTC.
func ConvertTime(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" || strings.EqualFold(timezone, "UTC") {
		return t.UTC(), nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return t, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	return t.In(loc), nil
}
