package parameterization

import (
	"math"

	"github.com/banshee-data/smp.report/internal/units"
)

// Parameterization maps shot noise estimates to density and SSA.
type Parameterization interface {
	Algorithm() Algorithm
	// Density returns kg/m^3 for median force f (N) and element size l (mm).
	Density(f, l float64) float64
	// SSA returns m^2/m^3 for median force f (N) and element size l (mm).
	SSA(f, l float64) float64
}

// New returns the parameterization for a.
func New(a Algorithm) (Parameterization, error) {
	switch a {
	case Proksch2015:
		return proksch2015{}, nil
	case CalonneRichter2020:
		return calonneRichter2020{}, nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

type proksch2015 struct{}

func (proksch2015) Algorithm() Algorithm { return Proksch2015 }

func (proksch2015) Density(f, l float64) float64 {
	if !(f > 0) {
		return math.NaN()
	}
	lnF := math.Log(f)
	return 420.47 + 102.47*lnF - 121.15*lnF*l - 169.96*l
}

func (m proksch2015) SSA(f, l float64) float64 {
	return ssaFromCorrelationLength(m.Density(f, l), f, l)
}

type calonneRichter2020 struct{}

func (calonneRichter2020) Algorithm() Algorithm { return CalonneRichter2020 }

func (calonneRichter2020) Density(f, l float64) float64 {
	if !(f > 0) {
		return math.NaN()
	}
	lnF := math.Log(f)
	return 295.8 + 65.1*lnF - 43.2*lnF*l + 47.1*l
}

func (m calonneRichter2020) SSA(f, l float64) float64 {
	return ssaFromCorrelationLength(m.Density(f, l), f, l)
}

// ssaFromCorrelationLength uses the exponential correlation length
// lc = 0.131 + 0.155 L + 0.0291 ln F (mm) and SSA = 4 (1 - rho/rho_ice) / lc.
func ssaFromCorrelationLength(rho, f, l float64) float64 {
	if !(f > 0) || math.IsNaN(rho) || math.IsNaN(l) {
		return math.NaN()
	}
	lc := 0.131 + 0.155*l + 0.0291*math.Log(f)
	if lc <= 0 {
		return math.NaN()
	}
	// 1/mm to m^2/m^3.
	return 4 * (1 - rho/units.DensityOfIce) / lc * 1000
}
