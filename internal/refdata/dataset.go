// Package refdata holds the read-only reference dataset the valuation engine
// prices against: cities and their reference centers, flat and tiered price
// tables, named-locality guidance and PIN code locality records.
package refdata

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
)

// Tier is a price tier label for areas within a city.
type Tier string

const (
	TierPremium Tier = "premium"
	TierMid     Tier = "mid"
	TierBudget  Tier = "budget"
)

// Tiers lists every tier from most to least expensive.
var Tiers = []Tier{TierPremium, TierMid, TierBudget}

// Center is a city's reference point for distance measurements.
type Center struct {
	Name string `json:"name" yaml:"name"`
	geodesy.Coordinate `yaml:",inline"`
}

// ClassPrices maps a property class to a per-unit price.
type ClassPrices map[model.PropertyClass]float64

// City holds the per-city price tables.
type City struct {
	Key         string               `json:"key" yaml:"key"`
	Name        string               `json:"name" yaml:"name"`
	Center      Center               `json:"center" yaml:"center"`
	Flat        ClassPrices          `json:"flat" yaml:"flat"`
	TierPrices  map[Tier]ClassPrices `json:"tier_prices" yaml:"tier_prices"`
	Areas       map[string]Tier      `json:"areas" yaml:"areas"`
	DefaultTier Tier                 `json:"default_tier" yaml:"default_tier"`
	NamedPlots  map[string]float64   `json:"named_plots,omitempty" yaml:"named_plots,omitempty"`
}

// AreaTier returns the tier for a normalized area key and whether the area
// was found in the city's table. Unmatched areas get the default tier.
func (c *City) AreaTier(area string) (Tier, bool) {
	if t, ok := c.Areas[model.NormalizeKey(area)]; ok {
		return t, true
	}
	if c.DefaultTier == "" {
		return TierMid, false
	}
	return c.DefaultTier, false
}

// Bounds is a {min,max} price pair.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ClassPrice is the per-class price data of a PIN record. Any combination
// of fields may be present; the resolver decides precedence.
type ClassPrice struct {
	MarketMin        *float64 `json:"marketMin,omitempty" yaml:"marketMin,omitempty"`
	MarketMax        *float64 `json:"marketMax,omitempty" yaml:"marketMax,omitempty"`
	MarketMultiplier *float64 `json:"marketMultiplier,omitempty" yaml:"marketMultiplier,omitempty"`
	GuidanceMin      *float64 `json:"guidanceMin,omitempty" yaml:"guidanceMin,omitempty"`
	GuidanceMax      *float64 `json:"guidanceMax,omitempty" yaml:"guidanceMax,omitempty"`
	Min              *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max              *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Value            *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Unit             string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// PINRecord is a PIN code locality record.
type PINRecord struct {
	PIN           string                             `json:"pin_code,omitempty" yaml:"pin_code,omitempty"`
	City          string                             `json:"city" yaml:"city"`
	Locality      string                             `json:"locality,omitempty" yaml:"locality,omitempty"`
	Tier          string                             `json:"tier,omitempty" yaml:"tier,omitempty"`
	Region        string                             `json:"region,omitempty" yaml:"region,omitempty"`
	GuidanceValue *Bounds                            `json:"guidanceValue,omitempty" yaml:"guidanceValue,omitempty"`
	Centroid      *geodesy.Coordinate                `json:"centroid,omitempty" yaml:"centroid,omitempty"`
	Properties    map[model.PropertyClass]ClassPrice `json:"properties" yaml:"properties"`
}

// Dataset is the complete reference dataset. It is read-only once built and
// safe for concurrent use.
type Dataset struct {
	cities map[string]*City
	pins   map[string]PINRecord
}

// New builds a dataset from city tables and PIN records. Records missing a
// city get one inferred from their region or PIN prefix.
func New(cities []City, pins []PINRecord) *Dataset {
	d := &Dataset{
		cities: make(map[string]*City, len(cities)),
		pins:   make(map[string]PINRecord, len(pins)),
	}
	for i := range cities {
		c := cities[i]
		d.cities[CityKey(c.Key)] = &c
	}
	for _, r := range pins {
		d.addPIN(r)
	}
	return d
}

func (d *Dataset) addPIN(r PINRecord) {
	r.PIN = strings.TrimSpace(r.PIN)
	if r.PIN == "" {
		return
	}
	if r.City == "" {
		r.City = cityFromRegion(r.Region)
	}
	if r.City == "" {
		r.City = CityForPIN(r.PIN)
	}
	r.City = CityKey(r.City)
	d.pins[r.PIN] = r
}

// City returns the city table for name, accepting aliases and any casing.
func (d *Dataset) City(name string) (*City, bool) {
	c, ok := d.cities[CityKey(name)]
	return c, ok
}

// Cities returns every city ordered by key.
func (d *Dataset) Cities() []*City {
	out := make([]*City, 0, len(d.cities))
	for _, c := range d.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PIN returns the locality record for a PIN code.
func (d *Dataset) PIN(pin string) (PINRecord, bool) {
	r, ok := d.pins[strings.TrimSpace(pin)]
	return r, ok
}

// PINs returns every PIN record ordered by PIN code.
func (d *Dataset) PINs() []PINRecord {
	out := make([]PINRecord, 0, len(d.pins))
	for _, r := range d.pins {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PIN < out[j].PIN })
	return out
}

// WithPINs returns a copy of d whose PIN table is extended by recs. Records
// for a PIN already present replace the existing one.
func (d *Dataset) WithPINs(recs []PINRecord) *Dataset {
	out := &Dataset{
		cities: d.cities,
		pins:   make(map[string]PINRecord, len(d.pins)+len(recs)),
	}
	for k, v := range d.pins {
		out.pins[k] = v
	}
	for _, r := range recs {
		out.addPIN(r)
	}
	return out
}

// AttachCentroids sets the centroid of each record whose PIN appears in
// centroids and returns how many records were updated.
func AttachCentroids(recs []PINRecord, centroids map[string]geodesy.Coordinate) int {
	var n int
	for i := range recs {
		c, ok := centroids[strings.TrimSpace(recs[i].PIN)]
		if !ok {
			continue
		}
		recs[i].Centroid = &c
		n++
	}
	return n
}

var cityAliases = map[string]string{
	"bengaluru":      "bangalore",
	"bangaluru":      "bangalore",
	"bangalore_city": "bangalore",
	"mysuru":         "mysore",
}

// CityKey normalizes a city name to its dataset key.
func CityKey(name string) string {
	k := model.NormalizeKey(name)
	if alias, ok := cityAliases[k]; ok {
		return alias
	}
	return k
}

// CityForPIN infers the city from a PIN code prefix. It returns "" when the
// prefix belongs to no supported city.
func CityForPIN(pin string) string {
	pin = strings.TrimSpace(pin)
	switch {
	case strings.HasPrefix(pin, "560"), strings.HasPrefix(pin, "561"), strings.HasPrefix(pin, "562"):
		return "bangalore"
	case strings.HasPrefix(pin, "570"):
		return "mysore"
	default:
		return ""
	}
}

func cityFromRegion(region string) string {
	return strings.TrimSuffix(model.NormalizeKey(region), "_periphery")
}

// Price sources reported by PINRecord.Range.
const (
	SourceMarket        = "market"
	SourceGuidance      = "guidance"
	SourceClassGuidance = "class_guidance"
	SourceClassRange    = "class_range"
	SourceClassValue    = "class_value"
)

// ClassRange is the per-unit base price range a PIN record yields for one
// property class.
type ClassRange struct {
	Min        float64
	Max        float64
	Multiplier *float64 // set when the range was derived from guidance values
	Source     string
}

// Range resolves the base price range of class. Explicit market bounds win;
// otherwise guidance bounds are scaled by the class market multiplier
// (default 1). Record-level guidance only applies to per-sq.ft classes. The
// second result is false when the class is absent or the bounds are not
// both positive.
func (r PINRecord) Range(class model.PropertyClass) (ClassRange, bool) {
	cp, ok := r.Properties[class]
	if !ok {
		return ClassRange{}, false
	}

	var out ClassRange
	switch {
	case cp.MarketMin != nil && cp.MarketMax != nil:
		out = ClassRange{Min: *cp.MarketMin, Max: *cp.MarketMax, Source: SourceMarket}
	default:
		var lo, hi float64
		switch {
		case r.GuidanceValue != nil && class.Unit() == model.UnitSqFt:
			lo, hi, out.Source = r.GuidanceValue.Min, r.GuidanceValue.Max, SourceGuidance
		case cp.GuidanceMin != nil && cp.GuidanceMax != nil:
			lo, hi, out.Source = *cp.GuidanceMin, *cp.GuidanceMax, SourceClassGuidance
		case cp.Min != nil && cp.Max != nil:
			lo, hi, out.Source = *cp.Min, *cp.Max, SourceClassRange
		case cp.Value != nil:
			lo, hi, out.Source = *cp.Value, *cp.Value, SourceClassValue
		default:
			return ClassRange{}, false
		}
		m := 1.0
		if cp.MarketMultiplier != nil {
			m = *cp.MarketMultiplier
		}
		out.Min, out.Max, out.Multiplier = lo*m, hi*m, &m
	}

	if out.Min > out.Max {
		out.Min, out.Max = out.Max, out.Min
	}
	if !(out.Min > 0) || !(out.Max > 0) || math.IsInf(out.Max, 0) {
		return ClassRange{}, false
	}
	return out, true
}
