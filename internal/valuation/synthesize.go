package valuation

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/adjust"
	"github.com/sells-group/propval/internal/decay"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/resolve"
	"github.com/sells-group/propval/internal/valerr"
)

// Where the distance used for decay came from.
const (
	DistanceFromCoordinates = "coordinates"
	DistanceFromCentroid    = "centroid"
	DistanceExplicit        = "explicit"
	DistanceDefault         = "default"
)

type job struct {
	class    model.PropertyClass
	loc      model.Location
	quantity float64
	factors  func(model.Mode) adjust.Set
}

func (e *Engine) synthesize(mode model.Mode, j job) (*model.Result, error) {
	q, err := resolve.ForMode(e.ds, mode).Resolve(j.class, j.loc)
	if err != nil {
		return nil, err
	}

	unit := j.class.Unit()
	if !(j.quantity > 0) || math.IsInf(j.quantity, 0) {
		return nil, valerr.New(valerr.InvalidAttribute, "%s must be a positive number, got %v", unit, j.quantity)
	}

	distance, source, warnings, err := e.distance(mode, q, j.loc)
	if err != nil {
		return nil, err
	}

	set := j.factors(mode)
	warnings = append(warnings, set.Ignored...)

	distMult := decay.Multiplier(q.Curve, distance)
	factor := distMult * set.Combined

	base := model.PriceRange{Min: q.Min, Mid: q.Mid(), Max: q.Max}
	var band float64
	low, high := base.Min, base.Max
	if q.Point {
		band = Band(j.class)
		low, high = base.Mid*(1-band), base.Mid*(1+band)
	}

	unitPrice := model.PriceRange{
		Min: low * factor,
		Mid: base.Mid * factor,
		Max: high * factor,
	}
	estimate, err := totals(unitPrice, j.quantity, unit)
	if err != nil {
		return nil, err
	}

	res := &model.Result{
		PropertyClass: j.class,
		Mode:          mode,
		Strategy:      q.Strategy,
		Location: model.LocationEcho{
			City:     q.City,
			Area:     q.Area,
			PIN:      q.PIN,
			Locality: q.Locality,
			Tier:     q.Tier,
			Region:   q.Region,
		},
		Quantity:       j.quantity,
		Unit:           unit,
		DistanceKM:     distance,
		DistanceSource: source,
		Zone:           decay.Zone(distance),
		UnitPrice:      unitPrice,
		Estimate:       estimate,
		Band:       band,
		Confidence: Confidence(j.class, mode),
		Breakdown: model.Breakdown{
			BasePrice:          base,
			MarketMultiplier:   q.MarketMultiplier,
			DistanceCurve:      q.Curve.String(),
			DistanceMultiplier: distMult,
			Factors:            set.Factors,
			Combined:           set.Combined,
		},
		Warnings: warnings,
	}

	zap.L().Debug("valuation: synthesized",
		zap.String("class", string(j.class)),
		zap.String("mode", string(mode)),
		zap.String("strategy", q.Strategy),
		zap.String("city", q.City),
		zap.Float64("distance_km", distance),
		zap.Float64("distance_multiplier", distMult),
		zap.Float64("combined", set.Combined),
		zap.Int64("estimate_mid", res.Estimate.Mid),
	)

	return res, nil
}

// distance picks the distance used for decay. Valid coordinates override an
// explicit distance: flat and tiered modes measure to the city reference
// center, PIN mode to the record centroid when the record has one.
func (e *Engine) distance(mode model.Mode, q resolve.Quote, loc model.Location) (float64, string, []string, error) {
	if loc.DistanceKM != nil {
		d := *loc.DistanceKM
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return 0, "", nil, valerr.New(valerr.InvalidAttribute, "distance_km must be a non-negative number, got %v", d)
		}
	}

	var warnings []string
	if c := loc.Coordinates; c != nil {
		if !c.Valid() {
			return 0, "", nil, valerr.New(valerr.InvalidAttribute, "coordinates (%v, %v) are out of range", c.Lat, c.Lon)
		}
		switch {
		case mode != model.ModePIN:
			return c.DistanceTo(q.Center.Coordinate), DistanceFromCoordinates, nil, nil
		case q.Centroid != nil:
			return c.DistanceTo(*q.Centroid), DistanceFromCentroid, nil, nil
		default:
			warnings = append(warnings, "coordinates ignored: PIN code "+q.PIN+" has no centroid")
		}
	}

	if loc.DistanceKM != nil {
		return *loc.DistanceKM, DistanceExplicit, warnings, nil
	}
	if mode == model.ModePIN {
		return e.opts.PINDefaultDistanceKM, DistanceDefault, warnings, nil
	}
	return e.opts.DefaultDistanceKM, DistanceDefault, warnings, nil
}

// totals rounds unit price × quantity to whole currency units. A product
// that does not fit an int64 is an input error, not a silent wrap.
func totals(unitPrice model.PriceRange, quantity float64, unit model.Unit) (model.Estimate, error) {
	var est model.Estimate
	for _, t := range []struct {
		price float64
		dst   *int64
	}{
		{unitPrice.Min, &est.Min},
		{unitPrice.Mid, &est.Mid},
		{unitPrice.Max, &est.Max},
	} {
		v := math.Round(t.price * quantity)
		if math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt64 {
			return model.Estimate{}, valerr.New(valerr.InvalidAttribute, "%s %v is too large to value", unit, quantity)
		}
		*t.dst = int64(v)
	}
	return est, nil
}
