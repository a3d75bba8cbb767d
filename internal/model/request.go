package model

import (
	"github.com/sells-group/propval/internal/geodesy"
)

// Request is the flat wire form of a valuation request, as accepted by the
// HTTP API, the CLI and batch CSV files. Field names follow the public API.
type Request struct {
	City         string   `json:"city"`
	PropertyType string   `json:"property_type"`
	AreaName     string   `json:"area_name,omitempty"`
	PINCode      string   `json:"pin_code,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	DistanceKM   *float64 `json:"distance_km,omitempty"`

	SqFt  float64 `json:"sqft,omitempty"`
	Acres float64 `json:"acres,omitempty"`

	Bedrooms   int    `json:"bedrooms,omitempty"`
	AgeYears   int    `json:"age_years,omitempty"`
	Furnishing string `json:"furnishing,omitempty"`

	RoadFacing string `json:"road_facing,omitempty"`
	CornerPlot bool   `json:"corner_plot,omitempty"`

	Amenities []string `json:"amenities,omitempty"`

	WaterAccess          string `json:"water_access,omitempty"`
	DevelopmentPotential string `json:"development_potential,omitempty"`
}

// Class parses the request's property type.
func (r Request) Class() (PropertyClass, bool) {
	return ParsePropertyClass(r.PropertyType)
}

// Location extracts the shared location selector. Coordinates are set only
// when both latitude and longitude are present.
func (r Request) Location() Location {
	loc := Location{
		City:       r.City,
		Area:       r.AreaName,
		PIN:        r.PINCode,
		DistanceKM: r.DistanceKM,
	}
	if r.Latitude != nil && r.Longitude != nil {
		loc.Coordinates = &geodesy.Coordinate{Lat: *r.Latitude, Lon: *r.Longitude}
	}
	return loc
}

// Apartment converts the request to its apartment variant.
func (r Request) Apartment() ApartmentRequest {
	return ApartmentRequest{
		Location:   r.Location(),
		SqFt:       r.SqFt,
		Bedrooms:   r.Bedrooms,
		AgeYears:   r.AgeYears,
		Furnishing: r.Furnishing,
	}
}

// Plot converts the request to its plot variant.
func (r Request) Plot() PlotRequest {
	return PlotRequest{
		Location:   r.Location(),
		SqFt:       r.SqFt,
		RoadFacing: r.RoadFacing,
		Corner:     r.CornerPlot,
	}
}

// Villa converts the request to its villa variant.
func (r Request) Villa() VillaRequest {
	return VillaRequest{
		Location:  r.Location(),
		Acres:     r.Acres,
		Amenities: r.Amenities,
	}
}

// Agricultural converts the request to its agricultural variant.
func (r Request) Agricultural() AgriculturalRequest {
	return AgriculturalRequest{
		Location:             r.Location(),
		Acres:                r.Acres,
		WaterAccess:          r.WaterAccess,
		DevelopmentPotential: r.DevelopmentPotential,
	}
}
