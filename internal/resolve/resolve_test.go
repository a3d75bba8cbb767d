package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/decay"
	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/valerr"
)

func ptr(v float64) *float64 { return &v }

func testDataset() *refdata.Dataset {
	return refdata.Default().WithPINs([]refdata.PINRecord{
		{
			PIN:      "560034",
			City:     "bangalore",
			Locality: "Koramangala",
			Tier:     "premium",
			Region:   "bangalore",
			Centroid: &geodesy.Coordinate{Lat: 12.9352, Lon: 77.6245},
			Properties: map[model.PropertyClass]refdata.ClassPrice{
				model.Apartment: {MarketMin: ptr(14000), MarketMax: ptr(19000)},
				model.Plot:      {GuidanceMin: ptr(9000), GuidanceMax: ptr(11000), MarketMultiplier: ptr(1.2)},
				model.Villa:     {Value: ptr(40000000)},
			},
		},
		{
			PIN:      "570017",
			City:     "mysore",
			Locality: "Vijayanagar",
			Region:   "mysore",
			Properties: map[model.PropertyClass]refdata.ClassPrice{
				model.Apartment: {MarketMultiplier: ptr(1.1)},
			},
		},
		{
			PIN:    "571186",
			Region: "mysore_periphery",
		},
		{
			PIN:  "600001",
			City: "chennai",
		},
	})
}

func TestFor_SelectsByPopulatedSelector(t *testing.T) {
	ds := testDataset()

	assert.Equal(t, model.ModeFlat, For(ds, model.Location{City: "bangalore"}).Mode())
	assert.Equal(t, model.ModeTiered, For(ds, model.Location{City: "bangalore", Area: "Koramangala"}).Mode())
	assert.Equal(t, model.ModePIN, For(ds, model.Location{City: "bangalore", Area: "x", PIN: "560034"}).Mode())

	assert.IsType(t, &FlatResolver{}, ForMode(ds, "other"))
	assert.IsType(t, &TierResolver{}, ForMode(ds, model.ModeTiered))
	assert.IsType(t, &PINResolver{}, ForMode(ds, model.ModePIN))
}

func TestFlatResolver(t *testing.T) {
	r := NewFlat(testDataset())

	q, err := r.Resolve(model.Apartment, model.Location{City: "Mysuru"})
	require.NoError(t, err)
	assert.Equal(t, model.ModeFlat, q.Mode)
	assert.Equal(t, StrategyCityFlat, q.Strategy)
	assert.Equal(t, "mysore", q.City)
	assert.Equal(t, "Mysore", q.CityName)
	assert.InDelta(t, 9187, q.Min, 1e-9)
	assert.InDelta(t, 9187, q.Max, 1e-9)
	assert.InDelta(t, 9187, q.Mid(), 1e-9)
	assert.True(t, q.Point)
	assert.Equal(t, decay.CityWide, q.Curve)
	assert.Equal(t, "Devaraja Market / Sayyaji Rao Rd (CBD)", q.Center.Name)
	assert.Nil(t, q.MarketMultiplier)
}

func TestResolvers_UnsupportedCity(t *testing.T) {
	ds := testDataset()
	resolvers := []Resolver{NewFlat(ds), NewTiered(ds), NewPINCode(ds)}

	for _, r := range resolvers {
		for _, class := range model.PropertyClasses {
			t.Run(string(r.Mode())+"/"+string(class), func(t *testing.T) {
				_, err := r.Resolve(class, model.Location{City: "chennai", Area: "adyar", PIN: "560034"})
				assert.True(t, valerr.Is(err, valerr.UnsupportedCity), "got %v", err)
			})
		}
	}

	_, err := NewFlat(ds).Resolve(model.Apartment, model.Location{})
	assert.True(t, valerr.Is(err, valerr.UnsupportedCity))
	_, err = NewTiered(ds).Resolve(model.Apartment, model.Location{Area: "koramangala"})
	assert.True(t, valerr.Is(err, valerr.UnsupportedCity))
}

func TestResolvers_UnknownClass(t *testing.T) {
	ds := testDataset()
	for _, r := range []Resolver{NewFlat(ds), NewTiered(ds), NewPINCode(ds)} {
		_, err := r.Resolve("commercial", model.Location{City: "bangalore", PIN: "560034"})
		assert.True(t, valerr.Is(err, valerr.InvalidAttribute), "%s: %v", r.Mode(), err)
	}
}

func TestTierResolver(t *testing.T) {
	r := NewTiered(testDataset())

	tests := []struct {
		name     string
		city     string
		area     string
		class    model.PropertyClass
		want     float64
		tier     string
		strategy string
	}{
		{"bangalore premium", "bangalore", "Koramangala", model.Apartment, 16500, "premium", StrategyAreaTier},
		{"bangalore budget", "Bengaluru", "electronic-city", model.Plot, 310, "budget", StrategyAreaTier},
		{"bangalore unmatched defaults to mid", "bangalore", "Somewhere New", model.Villa, 3000000, "mid", StrategyAreaTier},
		{"mysore premium agri", "mysore", "Gokulam", model.Agricultural, 2800000, "premium", StrategyAreaTier},
		{"mysore named plot", "mysore", "Bharathi Enclave", model.Plot, 12000, "mid", StrategyNamedGuidance},
		{"mysore named area non-plot uses tier", "mysore", "Bharathi Enclave", model.Apartment, 9187, "mid", StrategyAreaTier},
		{"named guidance only in its city", "bangalore", "Silver Springs", model.Plot, 475, "mid", StrategyAreaTier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := r.Resolve(tt.class, model.Location{City: tt.city, Area: tt.area})
			require.NoError(t, err)
			assert.Equal(t, model.ModeTiered, q.Mode)
			assert.Equal(t, tt.strategy, q.Strategy)
			assert.Equal(t, tt.tier, q.Tier)
			assert.InDelta(t, tt.want, q.Min, 1e-9)
			assert.InDelta(t, tt.want, q.Max, 1e-9)
			assert.True(t, q.Point)
			assert.Equal(t, decay.CityWide, q.Curve)
			assert.Equal(t, model.NormalizeKey(tt.area), q.Area)
		})
	}
}

func TestPINResolver_Ranges(t *testing.T) {
	r := NewPINCode(testDataset())

	q, err := r.Resolve(model.Apartment, model.Location{PIN: " 560034 "})
	require.NoError(t, err)
	assert.Equal(t, model.ModePIN, q.Mode)
	assert.Equal(t, StrategyPINCode, q.Strategy)
	assert.Equal(t, refdata.SourceMarket, q.Source)
	assert.Equal(t, "560034", q.PIN)
	assert.Equal(t, "bangalore", q.City)
	assert.Equal(t, "Koramangala", q.Locality)
	assert.Equal(t, "premium", q.Tier)
	assert.InDelta(t, 14000, q.Min, 1e-9)
	assert.InDelta(t, 19000, q.Max, 1e-9)
	assert.InDelta(t, 16500, q.Mid(), 1e-9)
	assert.False(t, q.Point)
	assert.Nil(t, q.MarketMultiplier)
	assert.Equal(t, decay.IntraLocality, q.Curve)
	require.NotNil(t, q.Centroid)

	q, err = r.Resolve(model.Plot, model.Location{City: "Bangalore", PIN: "560034"})
	require.NoError(t, err)
	assert.Equal(t, refdata.SourceClassGuidance, q.Source)
	assert.InDelta(t, 10800, q.Min, 1e-9)
	assert.InDelta(t, 13200, q.Max, 1e-9)
	require.NotNil(t, q.MarketMultiplier)
	assert.InDelta(t, 1.2, *q.MarketMultiplier, 1e-9)

	q, err = r.Resolve(model.Villa, model.Location{PIN: "560034"})
	require.NoError(t, err)
	assert.True(t, q.Point)
	assert.InDelta(t, 40000000, q.Min, 1e-9)
}

func TestPINResolver_AgriculturalUsesCityFlat(t *testing.T) {
	r := NewPINCode(testDataset())

	q, err := r.Resolve(model.Agricultural, model.Location{PIN: "571186"})
	require.NoError(t, err)
	assert.Equal(t, StrategyPINCityFlat, q.Strategy)
	assert.Equal(t, "mysore", q.City)
	assert.Equal(t, "mysore_periphery", q.Region)
	assert.InDelta(t, 2000000, q.Min, 1e-9)
	assert.True(t, q.Point)
	assert.Equal(t, decay.IntraLocality, q.Curve)
}

func TestPINResolver_Failures(t *testing.T) {
	r := NewPINCode(testDataset())

	tests := []struct {
		name  string
		class model.PropertyClass
		loc   model.Location
		kind  valerr.Kind
	}{
		{"missing pin", model.Apartment, model.Location{PIN: "999999"}, valerr.UnknownLocation},
		{"blank pin", model.Apartment, model.Location{City: "bangalore"}, valerr.UnknownLocation},
		{"city mismatch", model.Apartment, model.Location{City: "mysore", PIN: "560034"}, valerr.UnknownLocation},
		{"record in unsupported city", model.Apartment, model.Location{PIN: "600001"}, valerr.UnsupportedCity},
		{"agricultural in unsupported city", model.Agricultural, model.Location{PIN: "600001"}, valerr.UnsupportedCity},
		{"class sub-record absent", model.Plot, model.Location{PIN: "570017"}, valerr.IncompletePriceData},
		{"no positive bounds", model.Apartment, model.Location{PIN: "570017"}, valerr.IncompletePriceData},
		{"no classes at all", model.Villa, model.Location{PIN: "571186"}, valerr.IncompletePriceData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.class, tt.loc)
			require.Error(t, err)
			assert.Equal(t, tt.kind, valerr.KindOf(err), "got %v", err)
		})
	}
}
