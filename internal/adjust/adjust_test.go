package adjust

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/model"
)

func product(s Set) float64 {
	p := 1.0
	for _, f := range s.Factors {
		p *= f.Value
	}
	return p
}

func TestApartment_Defaults(t *testing.T) {
	s := Apartment(0, 0, "")
	assert.Equal(t, 1.0, s.Combined)
	assert.Empty(t, s.Ignored)
	require.Len(t, s.Factors, 3)
	assert.Equal(t, "bedrooms", s.Factors[0].Name)
	assert.Equal(t, "age", s.Factors[1].Name)
	assert.Equal(t, "furnishing", s.Factors[2].Name)
}

func TestApartment_Bedrooms(t *testing.T) {
	tests := []struct {
		bedrooms int
		want     float64
	}{
		{1, 0.75}, {2, 1.00}, {3, 1.25}, {4, 1.50}, {5, 1.00}, {0, 1.00},
	}
	for _, tc := range tests {
		s := Apartment(tc.bedrooms, 3, "unfurnished")
		got, ok := s.Factor("bedrooms")
		require.True(t, ok)
		assert.Equal(t, tc.want, got, "bedrooms=%d", tc.bedrooms)
	}
	assert.Len(t, Apartment(5, 0, "").Ignored, 1)
}

func TestAgeFactor(t *testing.T) {
	tests := []struct {
		age  int
		want float64
	}{
		{-1, 1.00}, {0, 1.00}, {5, 1.00}, {6, 0.95}, {10, 0.95}, {11, 0.90},
		{15, 0.90}, {16, 0.80}, {20, 0.80}, {21, 0.70}, {60, 0.70},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, AgeFactor(tc.age), "age=%d", tc.age)
	}
}

func TestApartment_Furnishing(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		ignored bool
	}{
		{"unfurnished", 1.00, false},
		{"semi_furnished", 1.12, false},
		{"Semi-Furnished", 1.12, false},
		{"semi", 1.12, false},
		{"fully_furnished", 1.20, false},
		{"fully", 1.20, false},
		{"luxury", 1.00, true},
		{"", 1.00, false},
	}
	for _, tc := range tests {
		s := Apartment(2, 0, tc.in)
		got, _ := s.Factor("furnishing")
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ignored, len(s.Ignored) == 1, tc.in)
	}
}

func TestApartment_CombinedIsProduct(t *testing.T) {
	s := Apartment(3, 12, "fully_furnished")
	assert.InDelta(t, 1.25*0.90*1.20, s.Combined, 1e-12)
	assert.InDelta(t, product(s), s.Combined, 1e-12)
}

func TestPlot_Factors(t *testing.T) {
	s := Plot(2400, "main_road", true, StandardCornerPremium)
	size, _ := s.Factor("size")
	road, _ := s.Factor("road")
	corner, _ := s.Factor("corner")
	assert.Equal(t, 1.0, size)
	assert.Equal(t, 1.08, road)
	assert.Equal(t, 1.05, corner)
	assert.InDelta(t, 1.08*1.05, s.Combined, 1e-12)
}

func TestPlot_CornerPremiumGenerations(t *testing.T) {
	for _, premium := range []float64{StandardCornerPremium, PINCodeCornerPremium} {
		s := Plot(3600, "main_road", true, premium)
		assert.InDelta(t, 1.5*1.08*premium, s.Combined, 1e-12)
	}
}

func TestPlot_NotCornerIgnoresPremium(t *testing.T) {
	s := Plot(1200, "inner_road", false, PINCodeCornerPremium)
	assert.InDelta(t, 0.5, s.Combined, 1e-12)
}

func TestPlot_UnknownRoad(t *testing.T) {
	s := Plot(2400, "highway", false, StandardCornerPremium)
	road, _ := s.Factor("road")
	assert.Equal(t, 1.0, road)
	require.Len(t, s.Ignored, 1)
	assert.Contains(t, s.Ignored[0], "road_facing")
}

func TestVilla_ReferenceSizeIsExactlyOne(t *testing.T) {
	for _, amenities := range [][]string{nil, {"pool"}, {"pool", "gym", "gated", "private_garden"}} {
		s := Villa(2, amenities)
		size, _ := s.Factor("size")
		assert.Equal(t, 1.0, size)
	}
}

func TestVilla_SizeCurve(t *testing.T) {
	s := Villa(4, nil)
	size, _ := s.Factor("size")
	assert.InDelta(t, math.Pow(2, 0.9), size, 1e-12)

	s = Villa(1, nil)
	size, _ = s.Factor("size")
	assert.InDelta(t, math.Pow(0.5, 0.9), size, 1e-12)
}

func TestVilla_Amenities(t *testing.T) {
	s := Villa(2, []string{"pool", "gated", "private_garden"})
	amenity, _ := s.Factor("amenities")
	assert.InDelta(t, 1.08*1.10*1.06, amenity, 1e-12)

	all := Villa(2, []string{"Private Garden", "gym", "GATED", "pool", "pool"})
	amenity, _ = all.Factor("amenities")
	assert.InDelta(t, 1.08*1.05*1.10*1.06, amenity, 1e-12)
	assert.Empty(t, all.Ignored)

	unknown := Villa(2, []string{"helipad"})
	amenity, _ = unknown.Factor("amenities")
	assert.Equal(t, 1.0, amenity)
	assert.Len(t, unknown.Ignored, 1)
}

func TestAgricultural_Factors(t *testing.T) {
	s := Agricultural(1, "", "")
	assert.Equal(t, 1.0, s.Combined)

	s = Agricultural(3, "wet", "high")
	size, _ := s.Factor("size")
	water, _ := s.Factor("water")
	dev, _ := s.Factor("development")
	assert.InDelta(t, math.Pow(3, 0.85), size, 1e-12)
	assert.Equal(t, 1.30, water)
	assert.Equal(t, 1.60, dev)
	assert.InDelta(t, product(s), s.Combined, 1e-12)

	s = Agricultural(1, "dry", "medium")
	assert.InDelta(t, 0.80*1.25, s.Combined, 1e-12)
}

func TestAgricultural_UnknownValuesAreNeutral(t *testing.T) {
	s := Agricultural(1, "swamp", "enormous")
	assert.Equal(t, 1.0, s.Combined)
	assert.Len(t, s.Ignored, 2)
}

func TestCombinedAlwaysPositive(t *testing.T) {
	sets := []Set{
		Apartment(1, 40, "semi"),
		Plot(10, "main", true, PINCodeCornerPremium),
		Villa(0.1, []string{"gym"}),
		Agricultural(0.05, "dry", "low"),
	}
	for _, s := range sets {
		assert.Greater(t, s.Combined, 0.0)
		for _, f := range s.Factors {
			assert.Greater(t, f.Value, 0.0, f.Name)
		}
	}
}

func TestParseCornerPolicy(t *testing.T) {
	p, err := ParseCornerPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CornerByMode, p)

	p, err = ParseCornerPolicy("PINCODE")
	require.NoError(t, err)
	assert.Equal(t, CornerPINCode, p)

	_, err = ParseCornerPolicy("generous")
	assert.Error(t, err)
}

func TestCornerPolicyPremium(t *testing.T) {
	assert.Equal(t, 1.05, CornerByMode.Premium(model.ModeFlat))
	assert.Equal(t, 1.05, CornerByMode.Premium(model.ModeTiered))
	assert.Equal(t, 1.15, CornerByMode.Premium(model.ModePIN))
	assert.Equal(t, 1.05, CornerStandard.Premium(model.ModePIN))
	assert.Equal(t, 1.15, CornerPINCode.Premium(model.ModeFlat))
}
