package resolve

import (
	"strings"

	"github.com/sells-group/propval/internal/decay"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/valerr"
)

// PINResolver prices from a PIN code locality record. Agricultural land is
// priced at the city's flat rate; the record only supplies metadata.
type PINResolver struct {
	ds *refdata.Dataset
}

// NewPINCode returns a PIN code resolver.
func NewPINCode(ds *refdata.Dataset) *PINResolver {
	return &PINResolver{ds: ds}
}

// Mode implements Resolver.
func (r *PINResolver) Mode() model.Mode { return model.ModePIN }

// Resolve implements Resolver.
func (r *PINResolver) Resolve(class model.PropertyClass, loc model.Location) (Quote, error) {
	if err := checkClass(class); err != nil {
		return Quote{}, err
	}

	var requested *refdata.City
	if strings.TrimSpace(loc.City) != "" {
		c, err := lookupCity(r.ds, loc.City)
		if err != nil {
			return Quote{}, err
		}
		requested = c
	}

	pin := strings.TrimSpace(loc.PIN)
	if pin == "" {
		return Quote{}, valerr.New(valerr.UnknownLocation, "PIN code is required")
	}
	rec, ok := r.ds.PIN(pin)
	if !ok {
		return Quote{}, valerr.New(valerr.UnknownLocation, "PIN code %s not found", pin)
	}

	c, ok := r.ds.City(rec.City)
	if !ok {
		return Quote{}, valerr.New(valerr.UnsupportedCity, "PIN code %s belongs to unsupported city %q", pin, rec.City)
	}
	if requested != nil && requested.Key != c.Key {
		return Quote{}, valerr.New(valerr.UnknownLocation, "PIN code %s is in %s, not %s", pin, c.Name, requested.Name)
	}

	q := Quote{
		Mode:     model.ModePIN,
		City:     c.Key,
		CityName: c.Name,
		Area:     model.NormalizeKey(loc.Area),
		PIN:      pin,
		Locality: rec.Locality,
		Tier:     rec.Tier,
		Region:   rec.Region,
		Center:   c.Center,
		Centroid: rec.Centroid,
		Curve:    decay.IntraLocality,
	}

	if class == model.Agricultural {
		price, ok := c.Flat[class]
		if !ok || !(price > 0) {
			return Quote{}, incomplete(c.Name, class)
		}
		q.Strategy = StrategyPINCityFlat
		q.Min, q.Max, q.Point = price, price, true
		return q, nil
	}

	cr, ok := rec.Range(class)
	if !ok {
		return Quote{}, incomplete("PIN code "+pin, class)
	}
	q.Strategy = StrategyPINCode
	q.Source = cr.Source
	q.Min, q.Max = cr.Min, cr.Max
	q.Point = cr.Source == refdata.SourceClassValue
	q.MarketMultiplier = cr.Multiplier
	return q, nil
}
