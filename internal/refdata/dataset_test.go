package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestDefault_Cities(t *testing.T) {
	ds := Default()

	for _, name := range []string{"bangalore", "Bangalore", " BENGALURU ", "bengaluru"} {
		c, ok := ds.City(name)
		require.True(t, ok, name)
		assert.Equal(t, "bangalore", c.Key)
	}

	c, ok := ds.City("Mysuru")
	require.True(t, ok)
	assert.Equal(t, "mysore", c.Key)
	assert.Equal(t, "Devaraja Market / Sayyaji Rao Rd (CBD)", c.Center.Name)
	assert.InDelta(t, 12.3099, c.Center.Lat, 1e-9)

	_, ok = ds.City("chennai")
	assert.False(t, ok)

	cities := ds.Cities()
	require.Len(t, cities, 2)
	assert.Equal(t, "bangalore", cities[0].Key)
	assert.Equal(t, "mysore", cities[1].Key)
}

func TestDefault_FlatPrices(t *testing.T) {
	ds := Default()

	b, _ := ds.City("bangalore")
	assert.InDelta(t, 11750, b.Flat[model.Apartment], 1e-9)
	assert.InDelta(t, 475, b.Flat[model.Plot], 1e-9)
	assert.InDelta(t, 3000000, b.Flat[model.Villa], 1e-9)
	assert.InDelta(t, 2750000, b.Flat[model.Agricultural], 1e-9)

	m, _ := ds.City("mysore")
	assert.InDelta(t, 9187, m.Flat[model.Apartment], 1e-9)
	assert.InDelta(t, 385000.0/2400, m.Flat[model.Plot], 1e-9)
	assert.InDelta(t, 800000, m.Flat[model.Villa], 1e-9)
	assert.InDelta(t, 2000000, m.Flat[model.Agricultural], 1e-9)
}

func TestDefault_TiersOrdered(t *testing.T) {
	for _, c := range Default().Cities() {
		for _, class := range model.PropertyClasses {
			premium := c.TierPrices[TierPremium][class]
			mid := c.TierPrices[TierMid][class]
			budget := c.TierPrices[TierBudget][class]
			assert.Greater(t, premium, mid, "%s %s", c.Key, class)
			assert.Greater(t, mid, budget, "%s %s", c.Key, class)
			assert.Equal(t, c.Flat[class], mid, "%s %s mid tier matches flat", c.Key, class)
		}
	}
}

func TestCity_AreaTier(t *testing.T) {
	b, _ := Default().City("bangalore")

	tier, ok := b.AreaTier("Koramangala")
	assert.True(t, ok)
	assert.Equal(t, TierPremium, tier)

	tier, ok = b.AreaTier("Electronic City")
	assert.True(t, ok)
	assert.Equal(t, TierBudget, tier)

	tier, ok = b.AreaTier("jp-nagar")
	assert.True(t, ok)
	assert.Equal(t, TierMid, tier)

	tier, ok = b.AreaTier("Nowhere Layout")
	assert.False(t, ok)
	assert.Equal(t, TierMid, tier)

	noDefault := City{Areas: map[string]Tier{}}
	tier, ok = noDefault.AreaTier("x")
	assert.False(t, ok)
	assert.Equal(t, TierMid, tier)
}

func TestMysore_NamedPlots(t *testing.T) {
	m, _ := Default().City("mysore")
	assert.InDelta(t, 12000, m.NamedPlots["bharathi_enclave"], 1e-9)
	assert.InDelta(t, 9187, m.NamedPlots["mysore_west_average"], 1e-9)

	tier, ok := m.AreaTier("Silver Springs")
	assert.True(t, ok)
	assert.Equal(t, TierMid, tier)
}

func TestCityForPIN(t *testing.T) {
	tests := []struct {
		pin  string
		want string
	}{
		{"560034", "bangalore"},
		{"561203", "bangalore"},
		{" 562125 ", "bangalore"},
		{"570017", "mysore"},
		{"600001", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.pin, func(t *testing.T) {
			assert.Equal(t, tt.want, CityForPIN(tt.pin))
		})
	}
}

func TestNew_InfersPINCity(t *testing.T) {
	ds := New(nil, []PINRecord{
		{PIN: "562125", Region: "bangalore_periphery"},
		{PIN: "570010"},
		{PIN: "560001", City: "Bengaluru"},
		{PIN: "  "},
	})

	r, ok := ds.PIN("562125")
	require.True(t, ok)
	assert.Equal(t, "bangalore", r.City)

	r, ok = ds.PIN(" 570010 ")
	require.True(t, ok)
	assert.Equal(t, "mysore", r.City)

	r, ok = ds.PIN("560001")
	require.True(t, ok)
	assert.Equal(t, "bangalore", r.City)

	assert.Len(t, ds.PINs(), 3)
}

func TestWithPINs_DoesNotMutateOriginal(t *testing.T) {
	base := Default()
	ext := base.WithPINs([]PINRecord{{PIN: "560034", City: "bangalore"}})

	_, ok := base.PIN("560034")
	assert.False(t, ok)
	_, ok = ext.PIN("560034")
	assert.True(t, ok)

	_, ok = ext.City("mysore")
	assert.True(t, ok)
}

func TestAttachCentroids(t *testing.T) {
	recs := []PINRecord{{PIN: "560034"}, {PIN: "570017"}}
	n := AttachCentroids(recs, map[string]geodesy.Coordinate{
		"560034": {Lat: 12.93, Lon: 77.62},
		"999999": {Lat: 1, Lon: 1},
	})
	assert.Equal(t, 1, n)
	require.NotNil(t, recs[0].Centroid)
	assert.InDelta(t, 12.93, recs[0].Centroid.Lat, 1e-9)
	assert.Nil(t, recs[1].Centroid)
}

func TestPINRecord_Range(t *testing.T) {
	tests := []struct {
		name       string
		rec        PINRecord
		class      model.PropertyClass
		wantOK     bool
		wantMin    float64
		wantMax    float64
		wantSource string
		wantMult   *float64
	}{
		{
			name: "market wins",
			rec: PINRecord{
				GuidanceValue: &Bounds{Min: 1, Max: 2},
				Properties: map[model.PropertyClass]ClassPrice{
					model.Apartment: {MarketMin: ptr(100), MarketMax: ptr(200), MarketMultiplier: ptr(3)},
				},
			},
			class:      model.Apartment,
			wantOK:     true,
			wantMin:    100,
			wantMax:    200,
			wantSource: SourceMarket,
		},
		{
			name: "record guidance times multiplier",
			rec: PINRecord{
				GuidanceValue: &Bounds{Min: 1000, Max: 2000},
				Properties: map[model.PropertyClass]ClassPrice{
					model.Apartment: {GuidanceMin: ptr(5), GuidanceMax: ptr(6), MarketMultiplier: ptr(1.2)},
				},
			},
			class:      model.Apartment,
			wantOK:     true,
			wantMin:    1200,
			wantMax:    2400,
			wantSource: SourceGuidance,
			wantMult:   ptr(1.2),
		},
		{
			name: "record guidance ignored for acre classes",
			rec: PINRecord{
				GuidanceValue: &Bounds{Min: 1000, Max: 2000},
				Properties: map[model.PropertyClass]ClassPrice{
					model.Villa: {Min: ptr(10), Max: ptr(20)},
				},
			},
			class:      model.Villa,
			wantOK:     true,
			wantMin:    10,
			wantMax:    20,
			wantSource: SourceClassRange,
			wantMult:   ptr(1),
		},
		{
			name: "class guidance",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Plot: {GuidanceMin: ptr(10), GuidanceMax: ptr(20), MarketMultiplier: ptr(2)},
			}},
			class:      model.Plot,
			wantOK:     true,
			wantMin:    20,
			wantMax:    40,
			wantSource: SourceClassGuidance,
			wantMult:   ptr(2),
		},
		{
			name: "single value broadcast",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Plot: {Value: ptr(7200)},
			}},
			class:      model.Plot,
			wantOK:     true,
			wantMin:    7200,
			wantMax:    7200,
			wantSource: SourceClassValue,
			wantMult:   ptr(1),
		},
		{
			name: "inverted bounds swapped",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Apartment: {MarketMin: ptr(300), MarketMax: ptr(100)},
			}},
			class:      model.Apartment,
			wantOK:     true,
			wantMin:    100,
			wantMax:    300,
			wantSource: SourceMarket,
		},
		{
			name:   "class absent",
			rec:    PINRecord{Properties: map[model.PropertyClass]ClassPrice{}},
			class:  model.Villa,
			wantOK: false,
		},
		{
			name: "no prices",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Apartment: {MarketMultiplier: ptr(1.1)},
			}},
			class:  model.Apartment,
			wantOK: false,
		},
		{
			name: "zero bound",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Apartment: {MarketMin: ptr(0), MarketMax: ptr(100)},
			}},
			class:  model.Apartment,
			wantOK: false,
		},
		{
			name: "only one market bound falls back",
			rec: PINRecord{Properties: map[model.PropertyClass]ClassPrice{
				model.Apartment: {MarketMin: ptr(100), Min: ptr(50), Max: ptr(60)},
			}},
			class:      model.Apartment,
			wantOK:     true,
			wantMin:    50,
			wantMax:    60,
			wantSource: SourceClassRange,
			wantMult:   ptr(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rec.Range(tt.class)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.wantMin, got.Min, 1e-9)
			assert.InDelta(t, tt.wantMax, got.Max, 1e-9)
			assert.Equal(t, tt.wantSource, got.Source)
			if tt.wantMult == nil {
				assert.Nil(t, got.Multiplier)
			} else {
				require.NotNil(t, got.Multiplier)
				assert.InDelta(t, *tt.wantMult, *got.Multiplier, 1e-9)
			}
		})
	}
}
