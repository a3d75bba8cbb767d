// Package valuation synthesizes property valuations: it resolves a base
// price, applies distance decay and adjustment factors and returns a price
// range with a full breakdown.
//
// The engine is a pure function of its inputs and a read-only dataset. It
// performs no I/O and is safe for concurrent use.
package valuation

import (
	"math"

	"github.com/sells-group/propval/internal/adjust"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/valerr"
)

// Default distances assumed when a request gives neither a distance nor
// usable coordinates.
const (
	DefaultDistanceKM    = 5.0
	DefaultPINDistanceKM = 2.0
)

// Options tune engine policy.
type Options struct {
	CornerPolicy         adjust.CornerPolicy
	DefaultDistanceKM    float64
	PINDefaultDistanceKM float64
}

// DefaultOptions returns the standard engine policy.
func DefaultOptions() Options {
	return Options{
		CornerPolicy:         adjust.CornerByMode,
		DefaultDistanceKM:    DefaultDistanceKM,
		PINDefaultDistanceKM: DefaultPINDistanceKM,
	}
}

// Engine values properties against a dataset.
type Engine struct {
	ds   *refdata.Dataset
	opts Options
}

// New creates an engine. Zero or invalid option values fall back to
// DefaultOptions.
func New(ds *refdata.Dataset, opts Options) *Engine {
	def := DefaultOptions()
	if opts.CornerPolicy == "" {
		opts.CornerPolicy = def.CornerPolicy
	}
	if !validDistance(opts.DefaultDistanceKM) {
		opts.DefaultDistanceKM = def.DefaultDistanceKM
	}
	if !validDistance(opts.PINDefaultDistanceKM) {
		opts.PINDefaultDistanceKM = def.PINDefaultDistanceKM
	}
	return &Engine{ds: ds, opts: opts}
}

func validDistance(d float64) bool {
	return d > 0 && !math.IsInf(d, 0)
}

// Dataset returns the engine's reference dataset.
func (e *Engine) Dataset() *refdata.Dataset { return e.ds }

// Options returns the effective engine options.
func (e *Engine) Options() Options { return e.opts }

// ApartmentFlat values an apartment at the city-flat price.
func (e *Engine) ApartmentFlat(req model.ApartmentRequest) (*model.Result, error) {
	return e.apartment(model.ModeFlat, req)
}

// ApartmentTiered values an apartment at its area's tier price.
func (e *Engine) ApartmentTiered(req model.ApartmentRequest) (*model.Result, error) {
	return e.apartment(model.ModeTiered, req)
}

// ApartmentPIN values an apartment from its PIN code record.
func (e *Engine) ApartmentPIN(req model.ApartmentRequest) (*model.Result, error) {
	return e.apartment(model.ModePIN, req)
}

// PlotFlat values a plot at the city-flat price.
func (e *Engine) PlotFlat(req model.PlotRequest) (*model.Result, error) {
	return e.plot(model.ModeFlat, req)
}

// PlotTiered values a plot at its area's tier price or named guidance value.
func (e *Engine) PlotTiered(req model.PlotRequest) (*model.Result, error) {
	return e.plot(model.ModeTiered, req)
}

// PlotPIN values a plot from its PIN code record.
func (e *Engine) PlotPIN(req model.PlotRequest) (*model.Result, error) {
	return e.plot(model.ModePIN, req)
}

// VillaFlat values a villa at the city-flat price.
func (e *Engine) VillaFlat(req model.VillaRequest) (*model.Result, error) {
	return e.villa(model.ModeFlat, req)
}

// VillaTiered values a villa at its area's tier price.
func (e *Engine) VillaTiered(req model.VillaRequest) (*model.Result, error) {
	return e.villa(model.ModeTiered, req)
}

// VillaPIN values a villa from its PIN code record.
func (e *Engine) VillaPIN(req model.VillaRequest) (*model.Result, error) {
	return e.villa(model.ModePIN, req)
}

// AgriculturalFlat values agricultural land at the city-flat price.
func (e *Engine) AgriculturalFlat(req model.AgriculturalRequest) (*model.Result, error) {
	return e.agricultural(model.ModeFlat, req)
}

// AgriculturalTiered values agricultural land at its area's tier price.
func (e *Engine) AgriculturalTiered(req model.AgriculturalRequest) (*model.Result, error) {
	return e.agricultural(model.ModeTiered, req)
}

// AgriculturalPIN values agricultural land located by PIN code. The price
// is the city's flat agricultural rate.
func (e *Engine) AgriculturalPIN(req model.AgriculturalRequest) (*model.Result, error) {
	return e.agricultural(model.ModePIN, req)
}

// Valuate dispatches a wire request by property class and by the location
// selectors it populates.
func (e *Engine) Valuate(req model.Request) (*model.Result, error) {
	class, ok := req.Class()
	if !ok {
		return nil, valerr.New(valerr.InvalidAttribute, "unknown property type %q", req.PropertyType)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, valerr.New(valerr.InvalidAttribute, "latitude and longitude must be given together")
	}

	mode := req.Location().Mode()
	switch class {
	case model.Apartment:
		return e.apartment(mode, req.Apartment())
	case model.Plot:
		return e.plot(mode, req.Plot())
	case model.Villa:
		return e.villa(mode, req.Villa())
	default:
		return e.agricultural(mode, req.Agricultural())
	}
}

func (e *Engine) apartment(mode model.Mode, req model.ApartmentRequest) (*model.Result, error) {
	return e.synthesize(mode, job{
		class:    model.Apartment,
		loc:      req.Location,
		quantity: req.SqFt,
		factors: func(model.Mode) adjust.Set {
			return adjust.Apartment(req.Bedrooms, req.AgeYears, req.Furnishing)
		},
	})
}

func (e *Engine) plot(mode model.Mode, req model.PlotRequest) (*model.Result, error) {
	return e.synthesize(mode, job{
		class:    model.Plot,
		loc:      req.Location,
		quantity: req.SqFt,
		factors: func(m model.Mode) adjust.Set {
			return adjust.Plot(req.SqFt, req.RoadFacing, req.Corner, e.opts.CornerPolicy.Premium(m))
		},
	})
}

func (e *Engine) villa(mode model.Mode, req model.VillaRequest) (*model.Result, error) {
	return e.synthesize(mode, job{
		class:    model.Villa,
		loc:      req.Location,
		quantity: req.Acres,
		factors: func(model.Mode) adjust.Set {
			return adjust.Villa(req.Acres, req.Amenities)
		},
	})
}

func (e *Engine) agricultural(mode model.Mode, req model.AgriculturalRequest) (*model.Result, error) {
	return e.synthesize(mode, job{
		class:    model.Agricultural,
		loc:      req.Location,
		quantity: req.Acres,
		factors: func(model.Mode) adjust.Set {
			return adjust.Agricultural(req.Acres, req.WaterAccess, req.DevelopmentPotential)
		},
	})
}
