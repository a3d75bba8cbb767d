package resolve

import (
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
)

// FlatResolver prices by city alone.
type FlatResolver struct {
	ds *refdata.Dataset
}

// NewFlat returns a city-flat resolver.
func NewFlat(ds *refdata.Dataset) *FlatResolver {
	return &FlatResolver{ds: ds}
}

// Mode implements Resolver.
func (r *FlatResolver) Mode() model.Mode { return model.ModeFlat }

// Resolve implements Resolver.
func (r *FlatResolver) Resolve(class model.PropertyClass, loc model.Location) (Quote, error) {
	if err := checkClass(class); err != nil {
		return Quote{}, err
	}
	c, err := lookupCity(r.ds, loc.City)
	if err != nil {
		return Quote{}, err
	}
	price, ok := c.Flat[class]
	if !ok || !(price > 0) {
		return Quote{}, incomplete(c.Name, class)
	}
	return cityQuote(model.ModeFlat, StrategyCityFlat, c, price), nil
}

// TierResolver prices by the tier of an area within a city. Areas missing
// from the city's table fall back to its default tier.
type TierResolver struct {
	ds *refdata.Dataset
}

// NewTiered returns an area-tier resolver.
func NewTiered(ds *refdata.Dataset) *TierResolver {
	return &TierResolver{ds: ds}
}

// Mode implements Resolver.
func (r *TierResolver) Mode() model.Mode { return model.ModeTiered }

// Resolve implements Resolver.
func (r *TierResolver) Resolve(class model.PropertyClass, loc model.Location) (Quote, error) {
	if err := checkClass(class); err != nil {
		return Quote{}, err
	}
	c, err := lookupCity(r.ds, loc.City)
	if err != nil {
		return Quote{}, err
	}

	area := model.NormalizeKey(loc.Area)
	tier, _ := c.AreaTier(area)

	if class == model.Plot {
		if g, ok := c.NamedPlots[area]; ok && g > 0 {
			q := cityQuote(model.ModeTiered, StrategyNamedGuidance, c, g)
			q.Area = area
			q.Locality = loc.Area
			q.Tier = string(tier)
			return q, nil
		}
	}

	price, ok := c.TierPrices[tier][class]
	if !ok || !(price > 0) {
		return Quote{}, incomplete(c.Name+" "+string(tier)+" tier", class)
	}

	q := cityQuote(model.ModeTiered, StrategyAreaTier, c, price)
	q.Area = area
	q.Tier = string(tier)
	return q, nil
}
