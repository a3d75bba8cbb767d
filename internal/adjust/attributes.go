package adjust

import (
	"github.com/sells-group/propval/internal/model"
)

// Furnishing is the furnishing level of an apartment.
type Furnishing string

const (
	Unfurnished    Furnishing = "unfurnished"
	SemiFurnished  Furnishing = "semi_furnished"
	FullyFurnished Furnishing = "fully_furnished"
)

// RoadFacing describes the road a plot fronts.
type RoadFacing string

const (
	MainRoad  RoadFacing = "main_road"
	InnerRoad RoadFacing = "inner_road"
)

// WaterAccess classifies irrigation for agricultural land.
type WaterAccess string

const (
	Dry    WaterAccess = "dry"
	Garden WaterAccess = "garden"
	Wet    WaterAccess = "wet"
)

// DevelopmentPotential grades the conversion prospects of agricultural land.
type DevelopmentPotential string

const (
	LowPotential    DevelopmentPotential = "low"
	MediumPotential DevelopmentPotential = "medium"
	HighPotential   DevelopmentPotential = "high"
)

// Amenity is a villa amenity with a price premium.
type Amenity string

const (
	Pool          Amenity = "pool"
	Gym           Amenity = "gym"
	Gated         Amenity = "gated"
	PrivateGarden Amenity = "private_garden"
)

var furnishingAliases = map[string]Furnishing{
	"unfurnished":     Unfurnished,
	"none":            Unfurnished,
	"semi":            SemiFurnished,
	"semi_furnished":  SemiFurnished,
	"semifurnished":   SemiFurnished,
	"fully":           FullyFurnished,
	"full":            FullyFurnished,
	"fully_furnished": FullyFurnished,
	"furnished":       FullyFurnished,
}

var roadAliases = map[string]RoadFacing{
	"main":       MainRoad,
	"main_road":  MainRoad,
	"inner":      InnerRoad,
	"inner_road": InnerRoad,
}

var waterAliases = map[string]WaterAccess{
	"dry":       Dry,
	"dry_land":  Dry,
	"garden":    Garden,
	"wet":       Wet,
	"wet_land":  Wet,
	"irrigated": Wet,
}

var potentialAliases = map[string]DevelopmentPotential{
	"low":    LowPotential,
	"medium": MediumPotential,
	"med":    MediumPotential,
	"high":   HighPotential,
}

var amenityAliases = map[string]Amenity{
	"pool":            Pool,
	"swimming_pool":   Pool,
	"gym":             Gym,
	"gated":           Gated,
	"gated_community": Gated,
	"private_garden":  PrivateGarden,
	"garden":          PrivateGarden,
}

// ParseFurnishing normalizes s into a Furnishing.
func ParseFurnishing(s string) (Furnishing, bool) {
	f, ok := furnishingAliases[model.NormalizeKey(s)]
	return f, ok
}

// ParseRoadFacing normalizes s into a RoadFacing.
func ParseRoadFacing(s string) (RoadFacing, bool) {
	r, ok := roadAliases[model.NormalizeKey(s)]
	return r, ok
}

// ParseWaterAccess normalizes s into a WaterAccess.
func ParseWaterAccess(s string) (WaterAccess, bool) {
	w, ok := waterAliases[model.NormalizeKey(s)]
	return w, ok
}

// ParseDevelopmentPotential normalizes s into a DevelopmentPotential.
func ParseDevelopmentPotential(s string) (DevelopmentPotential, bool) {
	p, ok := potentialAliases[model.NormalizeKey(s)]
	return p, ok
}

// ParseAmenity normalizes s into an Amenity.
func ParseAmenity(s string) (Amenity, bool) {
	a, ok := amenityAliases[model.NormalizeKey(s)]
	return a, ok
}
