// Package decay maps a distance from a reference point to a price multiplier
// using piecewise-linear concentric zones.
package decay

// Curve selects one of the concentric-zone curves.
type Curve int

const (
	// CityWide measures zones from the metropolitan center.
	CityWide Curve = iota
	// IntraLocality measures zones within a resolved locality (PIN code area).
	IntraLocality
)

// String returns the curve name echoed in valuation breakdowns.
func (c Curve) String() string {
	switch c {
	case CityWide:
		return "city_wide"
	case IntraLocality:
		return "intra_locality"
	default:
		return "unknown"
	}
}

// segment is one zone of a curve. Within (start, end] the multiplier falls
// linearly from value to value-drop.
type segment struct {
	start float64
	end   float64
	value float64
	drop  float64
}

type curveDef struct {
	flatUntil float64 // [0, flatUntil] -> 1.0
	segments  []segment
	beyond    float64
}

var curves = map[Curve]curveDef{
	CityWide: {
		flatUntil: 2,
		segments: []segment{
			{start: 2, end: 5, value: 1.00, drop: 0.25},
			{start: 5, end: 10, value: 0.75, drop: 0.15},
			{start: 10, end: 15, value: 0.60, drop: 0.15},
			{start: 15, end: 25, value: 0.45, drop: 0.20},
		},
		beyond: 0.25,
	},
	IntraLocality: {
		flatUntil: 2,
		segments: []segment{
			{start: 2, end: 5, value: 1.00, drop: 0.10},
			{start: 5, end: 10, value: 0.90, drop: 0.10},
		},
		beyond: 0.70,
	},
}

// Multiplier returns the decay multiplier for distanceKM on the given curve.
// Zone edges belong to the closer-in zone. Negative distances count as zero.
// Unknown curves fall back to CityWide.
func Multiplier(c Curve, distanceKM float64) float64 {
	def, ok := curves[c]
	if !ok {
		def = curves[CityWide]
	}

	if distanceKM <= def.flatUntil {
		return 1.0
	}
	for _, s := range def.segments {
		if distanceKM <= s.end {
			position := (distanceKM - s.start) / (s.end - s.start)
			return s.value - position*s.drop
		}
	}
	return def.beyond
}

// Zone returns the concentric circle number (1-5) for a distance from the
// city center. It is informational and does not affect price.
func Zone(distanceKM float64) int {
	switch {
	case distanceKM <= 2:
		return 1
	case distanceKM <= 5:
		return 2
	case distanceKM <= 10:
		return 3
	case distanceKM <= 15:
		return 4
	default:
		return 5
	}
}
