// Package resolve turns a location selector into a base price quote using
// one of three strategies: city-flat, area-tier or PIN code.
package resolve

import (
	"strings"

	"github.com/sells-group/propval/internal/decay"
	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/valerr"
)

// Pricing strategies reported in a Quote.
const (
	StrategyCityFlat      = "city_flat"
	StrategyAreaTier      = "area_tier"
	StrategyNamedGuidance = "named_guidance"
	StrategyPINCode       = "pincode"
	StrategyPINCityFlat   = "pincode_city_flat"
)

// Quote is a resolved per-unit base price. A point quote has Min == Max and
// Point set; the synthesizer widens it by the class band.
type Quote struct {
	Mode     model.Mode
	Strategy string
	Source   string // PIN price source, empty for city tables

	City     string // dataset key
	CityName string
	Area     string
	PIN      string
	Locality string
	Tier     string
	Region   string

	Min   float64
	Max   float64
	Point bool

	// MarketMultiplier is set when the range was derived from guidance
	// values scaled by a market multiplier.
	MarketMultiplier *float64

	Center   refdata.Center
	Centroid *geodesy.Coordinate
	Curve    decay.Curve
}

// Mid returns the midpoint of the quote range.
func (q Quote) Mid() float64 {
	return (q.Min + q.Max) / 2
}

// Resolver prices a property class at a location.
type Resolver interface {
	Mode() model.Mode
	Resolve(class model.PropertyClass, loc model.Location) (Quote, error)
}

// For selects the resolver implied by the populated selectors of loc.
func For(ds *refdata.Dataset, loc model.Location) Resolver {
	return ForMode(ds, loc.Mode())
}

// ForMode returns the resolver for an explicit mode. Unknown modes get the
// city-flat resolver.
func ForMode(ds *refdata.Dataset, mode model.Mode) Resolver {
	switch mode {
	case model.ModePIN:
		return NewPINCode(ds)
	case model.ModeTiered:
		return NewTiered(ds)
	default:
		return NewFlat(ds)
	}
}

func lookupCity(ds *refdata.Dataset, name string) (*refdata.City, error) {
	if strings.TrimSpace(name) == "" {
		return nil, valerr.New(valerr.UnsupportedCity, "city is required")
	}
	c, ok := ds.City(name)
	if !ok {
		return nil, valerr.New(valerr.UnsupportedCity, "city %q is not supported", name)
	}
	return c, nil
}

func checkClass(class model.PropertyClass) error {
	if _, ok := model.ParsePropertyClass(string(class)); !ok {
		return valerr.New(valerr.InvalidAttribute, "unknown property class %q", class)
	}
	return nil
}

func cityQuote(mode model.Mode, strategy string, c *refdata.City, price float64) Quote {
	return Quote{
		Mode:     mode,
		Strategy: strategy,
		City:     c.Key,
		CityName: c.Name,
		Min:      price,
		Max:      price,
		Point:    true,
		Center:   c.Center,
		Curve:    decay.CityWide,
	}
}

func incomplete(where string, class model.PropertyClass) error {
	return valerr.New(valerr.IncompletePriceData, "no %s price for %s", class, where)
}
