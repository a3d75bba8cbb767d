// Package model defines the domain types shared by the valuation engine and
// its callers.
package model

import (
	"strings"

	"github.com/sells-group/propval/internal/geodesy"
)

// PropertyClass identifies the kind of parcel being valued.
type PropertyClass string

const (
	Apartment    PropertyClass = "apartment"
	Plot         PropertyClass = "plot"
	Villa        PropertyClass = "villa"
	Agricultural PropertyClass = "agricultural"
)

// PropertyClasses lists every supported class in display order.
var PropertyClasses = []PropertyClass{Apartment, Plot, Villa, Agricultural}

// ParsePropertyClass normalizes s into a PropertyClass.
func ParsePropertyClass(s string) (PropertyClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apartment", "flat":
		return Apartment, true
	case "plot", "site":
		return Plot, true
	case "villa":
		return Villa, true
	case "agricultural", "agri", "agricultural_land", "farm":
		return Agricultural, true
	default:
		return "", false
	}
}

// Unit returns the quantity unit the class is priced in.
func (c PropertyClass) Unit() Unit {
	if c == Villa || c == Agricultural {
		return UnitAcre
	}
	return UnitSqFt
}

// Unit is the unit a quantity and a per-unit price are expressed in.
type Unit string

const (
	UnitSqFt Unit = "sqft"
	UnitAcre Unit = "acre"
)

// Mode is the location resolution strategy family used for a valuation.
type Mode string

const (
	// ModeFlat prices by city only.
	ModeFlat Mode = "flat"
	// ModeTiered prices by the area's tier within a city.
	ModeTiered Mode = "tiered"
	// ModePIN prices from a PIN code locality record.
	ModePIN Mode = "pincode"
)

// Location is the shared location selector of a property request. The
// populated selectors decide the resolution mode.
type Location struct {
	City        string              `json:"city"`
	Area        string              `json:"area_name,omitempty"`
	PIN         string              `json:"pin_code,omitempty"`
	Coordinates *geodesy.Coordinate `json:"coordinates,omitempty"`
	DistanceKM  *float64            `json:"distance_km,omitempty"`
}

// Mode returns the resolution mode implied by the populated selectors:
// a PIN code wins over an area name, which wins over the bare city.
func (l Location) Mode() Mode {
	switch {
	case strings.TrimSpace(l.PIN) != "":
		return ModePIN
	case strings.TrimSpace(l.Area) != "":
		return ModeTiered
	default:
		return ModeFlat
	}
}

// ApartmentRequest values an apartment by built-up area.
type ApartmentRequest struct {
	Location
	SqFt       float64 `json:"sqft"`
	Bedrooms   int     `json:"bedrooms,omitempty"`
	AgeYears   int     `json:"age_years,omitempty"`
	Furnishing string  `json:"furnishing,omitempty"`
}

// PlotRequest values a plot/site by land area.
type PlotRequest struct {
	Location
	SqFt       float64 `json:"sqft"`
	RoadFacing string  `json:"road_facing,omitempty"`
	Corner     bool    `json:"corner_plot,omitempty"`
}

// VillaRequest values a villa by acreage and amenities.
type VillaRequest struct {
	Location
	Acres     float64  `json:"acres"`
	Amenities []string `json:"amenities,omitempty"`
}

// AgriculturalRequest values agricultural land by acreage.
type AgriculturalRequest struct {
	Location
	Acres                float64 `json:"acres"`
	WaterAccess          string  `json:"water_access,omitempty"`
	DevelopmentPotential string  `json:"development_potential,omitempty"`
}
