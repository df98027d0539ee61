package units

import (
	"math"
	"testing"
	"time"
)

func TestFormatOneDecimal(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		unit string
		want string
	}{
		{"integer", 200, KgPerM3, "200.0 kg/m^3"},
		{"rounds half up", 12.25, M2PerM3, "12.3 m^2/m^3"},
		{"rounds down", 99.94, KgPerM3, "99.9 kg/m^3"},
		{"nan", math.NaN(), KgPerM3, NotAvailable},
		{"inf", math.Inf(1), M2PerM3, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatOneDecimal(tt.v, tt.unit); got != tt.want {
				t.Errorf("FormatOneDecimal(%v, %q) = %q, want %q", tt.v, tt.unit, got, tt.want)
			}
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatDensity(250); got != "250.0 kg/m^3" {
		t.Errorf("FormatDensity = %q", got)
	}
	if got := FormatSSA(31.04); got != "31.0 m^2/m^3" {
		t.Errorf("FormatSSA = %q", got)
	}
	if got := FormatDistance(12.345); got != "12.3 mm" {
		t.Errorf("FormatDistance = %q", got)
	}
}

func TestConvertTime(t *testing.T) {
	ts := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)

	t.Run("empty means UTC", func(t *testing.T) {
		out, err := ConvertTime(ts, "")
		if err != nil {
			t.Fatalf("ConvertTime error: %v", err)
		}
		if !out.Equal(ts) || out.Location() != time.UTC {
			t.Fatalf("ConvertTime returned %v, want %v in UTC", out, ts)
		}
	})

	t.Run("named zone keeps the instant", func(t *testing.T) {
		out, err := ConvertTime(ts, "Europe/Zurich")
		if err != nil {
			t.Skipf("tz database unavailable: %v", err)
		}
		if !out.Equal(ts) {
			t.Fatalf("instant changed: %v vs %v", out, ts)
		}
		if out.Location().String() != "Europe/Zurich" {
			t.Fatalf("location = %s", out.Location())
		}
	})

	t.Run("invalid zone", func(t *testing.T) {
		if _, err := ConvertTime(ts, "Invalid/Timezone"); err == nil {
			t.Fatal("expected error for invalid timezone")
		}
	})
}
