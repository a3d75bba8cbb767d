package model

// Factor is one named multiplier applied during a valuation.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PriceRange is a low/mid/high per-unit price.
type PriceRange struct {
	Min float64 `json:"min"`
	Mid float64 `json:"mid"`
	Max float64 `json:"max"`
}

// Estimate is a low/mid/high total value in whole currency units (INR).
type Estimate struct {
	Min int64 `json:"min"`
	Mid int64 `json:"mid"`
	Max int64 `json:"max"`
}

// LocationEcho repeats the location the engine resolved.
type LocationEcho struct {
	City     string `json:"city"`
	Area     string `json:"area_name,omitempty"`
	PIN      string `json:"pin_code,omitempty"`
	Locality string `json:"locality,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Region   string `json:"region,omitempty"`
}

// Breakdown echoes every multiplier used so the unit price can be
// reproduced as BasePrice x DistanceMultiplier x Combined.
type Breakdown struct {
	BasePrice          PriceRange `json:"base_price"`
	MarketMultiplier   *float64   `json:"market_multiplier,omitempty"`
	DistanceCurve      string     `json:"distance_curve"`
	DistanceMultiplier float64    `json:"distance_multiplier"`
	Factors            []Factor   `json:"factors"`
	Combined           float64    `json:"combined"`
}

// Result is the envelope returned for a successful valuation.
type Result struct {
	PropertyClass  PropertyClass `json:"property_type"`
	Mode           Mode          `json:"mode"`
	Strategy       string        `json:"strategy"`
	Location       LocationEcho  `json:"location"`
	Quantity       float64       `json:"quantity"`
	Unit           Unit          `json:"unit"`
	DistanceKM     float64       `json:"distance_km"`
	DistanceSource string        `json:"distance_source"`
	Zone           int           `json:"circle"`
	UnitPrice      PriceRange    `json:"unit_price"`
	Estimate       Estimate      `json:"estimate"`
	Band           float64       `json:"band,omitempty"`
	Confidence     string        `json:"confidence"`
	Breakdown      Breakdown     `json:"breakdown"`
	Warnings       []string      `json:"warnings,omitempty"`
}
