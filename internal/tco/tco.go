// Package tco projects the cumulative cost of owning an electric vehicle versus
// a combustion vehicle and finds the year the EV becomes cheaper.
package tco

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// ErrInvalidMPG is returned when fuel economy is zero or negative.
var ErrInvalidMPG = eris.New("mpg must be positive")

// Assumptions drive a projection. Prices are purchase prices in USD.
type Assumptions struct {
	Years          int     `json:"years" yaml:"years"`
	AnnualMiles    float64 `json:"annual_miles" yaml:"annual_miles"`
	EVKWhPer100Mi  float64 `json:"ev_kwh_100mi" yaml:"ev_kwh_100mi"`
	ICEMPG         float64 `json:"ice_mpg" yaml:"ice_mpg"`
	PricePerKWh    float64 `json:"price_kwh" yaml:"price_kwh"`
	PricePerGallon float64 `json:"price_gal" yaml:"price_gal"`
	MaintEV        float64 `json:"maint_ev" yaml:"maint_ev"`
	MaintICE       float64 `json:"maint_ice" yaml:"maint_ice"`
	EVPrice        float64 `json:"ev_price" yaml:"ev_price"`
	ICEPrice       float64 `json:"ice_price" yaml:"ice_price"`
}

// DefaultAssumptions returns US averages used when nothing better is known.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Years:          10,
		AnnualMiles:    12000,
		EVKWhPer100Mi:  28,
		ICEMPG:         30,
		PricePerKWh:    0.14,
		PricePerGallon: 3.8,
		MaintEV:        450,
		MaintICE:       800,
		EVPrice:        47000,
		ICEPrice:       32000,
	}
}

// EVEnergyCost is the yearly electricity cost.
func EVEnergyCost(miles, kwhPer100Mi, pricePerKWh float64) float64 {
	return miles * (kwhPer100Mi / 100) * pricePerKWh
}

// ICEEnergyCost is the yearly fuel cost.
func ICEEnergyCost(miles, mpg, pricePerGallon float64) (float64, error) {
	if !(mpg > 0) {
		return 0, eris.Wrapf(ErrInvalidMPG, "got %g", mpg)
	}
	return miles / mpg * pricePerGallon, nil
}

// Curve returns the cumulative cost at the end of each year, starting from the
// purchase price.
func Curve(price, maint, energy float64, years int) []float64 {
	if years <= 0 {
		return nil
	}
	out := make([]float64, years)
	total := price
	for i := range out {
		total += maint + energy
		out[i] = total
	}
	return out
}

// Breakeven returns the first year (1-based) in which the EV total is at or
// below the ICE total.
func Breakeven(ev, ice []float64) (int, bool) {
	for i := 0; i < len(ev) && i < len(ice); i++ {
		if ev[i] <= ice[i] {
			return i + 1, true
		}
	}
	return 0, false
}

// Projection is the result of Project.
type Projection struct {
	Assumptions Assumptions `json:"assumptions"`
	EV          []float64   `json:"ev"`
	ICE         []float64   `json:"ice"`
	// Breakeven is 0 when the EV never catches up within the horizon.
	Breakeven int `json:"breakeven"`
}

// Project computes both cost curves and the breakeven year.
func Project(a Assumptions) (*Projection, error) {
	if a.Years <= 0 {
		return nil, eris.Errorf("tco: years must be positive, got %d", a.Years)
	}
	ice, err := ICEEnergyCost(a.AnnualMiles, a.ICEMPG, a.PricePerGallon)
	if err != nil {
		return nil, eris.Wrap(err, "tco")
	}
	p := &Projection{
		Assumptions: a,
		EV:          Curve(a.EVPrice, a.MaintEV, EVEnergyCost(a.AnnualMiles, a.EVKWhPer100Mi, a.PricePerKWh), a.Years),
		ICE:         Curve(a.ICEPrice, a.MaintICE, ice, a.Years),
	}
	p.Breakeven, _ = Breakeven(p.EV, p.ICE)
	return p, nil
}

// Median ignores NaN and infinite values. It reports false when nothing is left.
func Median(vals []float64) (float64, bool) {
	cp := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		cp = append(cp, v)
	}
	if len(cp) == 0 {
		return 0, false
	}
	sort.Float64s(cp)
	return quantile(cp, 0.5), true
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
