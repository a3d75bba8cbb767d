// Package adjust composes the multiplicative adjustment factors applied to a
// base price for each property class.
//
// Every factor defaults to 1.0 when its attribute is absent. Unrecognized
// enumerated values also fall back to 1.0 and are reported in Set.Ignored
// instead of failing the valuation.
package adjust

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/propval/internal/model"
)

// Reference sizes at which the size factor is exactly 1.0.
const (
	ReferencePlotSqFt          = 2400.0
	ReferenceVillaAcres        = 2.0
	ReferenceAgriculturalAcres = 1.0

	villaSizeExponent        = 0.9
	agriculturalSizeExponent = 0.85
)

// Corner premiums of the two engine generations.
const (
	StandardCornerPremium = 1.05
	PINCodeCornerPremium  = 1.15
)

const mainRoadPremium = 1.08

var bedroomFactors = map[int]float64{1: 0.75, 2: 1.00, 3: 1.25, 4: 1.50}

var furnishingFactors = map[Furnishing]float64{
	Unfurnished:    1.00,
	SemiFurnished:  1.12,
	FullyFurnished: 1.20,
}

var waterFactors = map[WaterAccess]float64{
	Dry:    0.80,
	Garden: 1.00,
	Wet:    1.30,
}

var potentialFactors = map[DevelopmentPotential]float64{
	LowPotential:    1.00,
	MediumPotential: 1.25,
	HighPotential:   1.60,
}

// amenityOrder fixes the order premiums are applied and reported in.
var amenityOrder = []Amenity{Pool, Gym, Gated, PrivateGarden}

var amenityPremiums = map[Amenity]float64{
	Pool:          1.08,
	Gym:           1.05,
	Gated:         1.10,
	PrivateGarden: 1.06,
}

// Set is the ordered collection of factors for one request plus their product.
type Set struct {
	Factors  []model.Factor `json:"factors"`
	Combined float64        `json:"combined"`
	Ignored  []string       `json:"ignored,omitempty"`
}

// Factor returns the named factor's value.
func (s Set) Factor(name string) (float64, bool) {
	for _, f := range s.Factors {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

func (s *Set) add(name string, value float64) {
	s.Factors = append(s.Factors, model.Factor{Name: name, Value: value})
}

func (s *Set) ignore(attr, value string) {
	s.Ignored = append(s.Ignored, fmt.Sprintf("%s %q not recognized; using neutral factor 1.00", attr, value))
}

func (s *Set) finish() Set {
	s.Combined = 1.0
	for _, f := range s.Factors {
		s.Combined *= f.Value
	}
	return *s
}

// Apartment computes bedroom, age and furnishing factors.
func Apartment(bedrooms, ageYears int, furnishing string) Set {
	var s Set

	bedroom := 1.0
	if f, ok := bedroomFactors[bedrooms]; ok {
		bedroom = f
	} else if bedrooms != 0 {
		s.ignore("bedrooms", fmt.Sprint(bedrooms))
	}
	s.add("bedrooms", bedroom)
	s.add("age", AgeFactor(ageYears))

	furnish := 1.0
	if strings.TrimSpace(furnishing) != "" {
		if f, ok := ParseFurnishing(furnishing); ok {
			furnish = furnishingFactors[f]
		} else {
			s.ignore("furnishing", furnishing)
		}
	}
	s.add("furnishing", furnish)

	return s.finish()
}

// AgeFactor returns the depreciation factor for a building of the given age.
func AgeFactor(ageYears int) float64 {
	switch {
	case ageYears <= 5:
		return 1.00
	case ageYears <= 10:
		return 0.95
	case ageYears <= 15:
		return 0.90
	case ageYears <= 20:
		return 0.80
	default:
		return 0.70
	}
}

// Plot computes size, road frontage and corner factors. cornerPremium is
// applied only when corner is true.
func Plot(sqft float64, roadFacing string, corner bool, cornerPremium float64) Set {
	var s Set
	s.add("size", sqft/ReferencePlotSqFt)

	road := 1.0
	if strings.TrimSpace(roadFacing) != "" {
		if r, ok := ParseRoadFacing(roadFacing); !ok {
			s.ignore("road_facing", roadFacing)
		} else if r == MainRoad {
			road = mainRoadPremium
		}
	}
	s.add("road", road)

	cornerFactor := 1.0
	if corner {
		cornerFactor = cornerPremium
	}
	s.add("corner", cornerFactor)

	return s.finish()
}

// Villa computes the non-linear size factor and the amenity premium.
// Repeated amenities count once.
func Villa(acres float64, amenities []string) Set {
	var s Set

	size := 1.0
	if acres != ReferenceVillaAcres {
		size = math.Pow(acres/ReferenceVillaAcres, villaSizeExponent)
	}
	s.add("size", size)

	present := make(map[Amenity]bool, len(amenities))
	for _, raw := range amenities {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		a, ok := ParseAmenity(raw)
		if !ok {
			s.ignore("amenity", raw)
			continue
		}
		present[a] = true
	}

	amenity := 1.0
	for _, a := range amenityOrder {
		if present[a] {
			amenity *= amenityPremiums[a]
		}
	}
	s.add("amenities", amenity)

	return s.finish()
}

// Agricultural computes size, water access and development potential factors.
func Agricultural(acres float64, waterAccess, potential string) Set {
	var s Set

	size := 1.0
	if acres != ReferenceAgriculturalAcres {
		size = math.Pow(acres, agriculturalSizeExponent)
	}
	s.add("size", size)

	water := 1.0
	if strings.TrimSpace(waterAccess) != "" {
		if w, ok := ParseWaterAccess(waterAccess); ok {
			water = waterFactors[w]
		} else {
			s.ignore("water_access", waterAccess)
		}
	}
	s.add("water", water)

	dev := 1.0
	if strings.TrimSpace(potential) != "" {
		if p, ok := ParseDevelopmentPotential(potential); ok {
			dev = potentialFactors[p]
		} else {
			s.ignore("development_potential", potential)
		}
	}
	s.add("development", dev)

	return s.finish()
}
