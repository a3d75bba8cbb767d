package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func fptr(v float64) *float64 { return &v }

func testPINRecords() []refdata.PINRecord {
	return []refdata.PINRecord{
		{
			PIN:           "560034",
			City:          "bangalore",
			Locality:      "Koramangala",
			Tier:          "premium",
			Region:        "bangalore",
			GuidanceValue: &refdata.Bounds{Min: 9000, Max: 14000},
			Centroid:      &geodesy.Coordinate{Lat: 12.9352, Lon: 77.6245},
			Properties: map[model.PropertyClass]refdata.ClassPrice{
				model.Apartment: {MarketMin: fptr(14000), MarketMax: fptr(19000), Unit: "sqft"},
				model.Villa:     {Value: fptr(45000000), Unit: "acre"},
			},
		},
		{
			PIN:      "570017",
			City:     "mysore",
			Locality: "Vijayanagar",
			Tier:     "mid",
			Region:   "mysore",
			Properties: map[model.PropertyClass]refdata.ClassPrice{
				model.Plot: {GuidanceMin: fptr(3200), GuidanceMax: fptr(4800), MarketMultiplier: fptr(1.4)},
			},
		},
	}
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_PINRecordsRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := s.UpsertPINRecords(ctx, testPINRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := s.LoadPINRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, testPINRecords(), recs)

	got, err := s.GetPINRecord(ctx, "570017")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Vijayanagar", got.Locality)
	assert.Nil(t, got.GuidanceValue)
	assert.Nil(t, got.Centroid)
}

func TestSQLite_UpsertReplaces(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.UpsertPINRecords(ctx, testPINRecords())
	require.NoError(t, err)

	updated := testPINRecords()[:1]
	updated[0].Locality = "Koramangala 4th Block"
	updated[0].Centroid = nil
	_, err = s.UpsertPINRecords(ctx, updated)
	require.NoError(t, err)

	recs, err := s.LoadPINRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	got, err := s.GetPINRecord(ctx, "560034")
	require.NoError(t, err)
	assert.Equal(t, "Koramangala 4th Block", got.Locality)
	assert.Nil(t, got.Centroid)
}

func TestSQLite_UpsertRejectsInvalidPIN(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	recs := testPINRecords()
	recs[1].PIN = "5700"
	_, err := s.UpsertPINRecords(ctx, recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pin code")

	// Transaction rolled back.
	all, err := s.LoadPINRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_UpsertEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)
	n, err := s.UpsertPINRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_GetPINRecordMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	got, err := s.GetPINRecord(context.Background(), "999999")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_DatasetIncludesStoredPINs(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	_, err := s.UpsertPINRecords(ctx, testPINRecords())
	require.NoError(t, err)

	ds, err := Dataset(ctx, s)
	require.NoError(t, err)
	rec, ok := ds.PIN("560034")
	require.True(t, ok)
	assert.Equal(t, "Koramangala", rec.Locality)
	_, ok = ds.City("mysore")
	assert.True(t, ok)
}

func TestSQLite_LeadLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := &model.Lead{
		Name:         " Asha Rao ",
		Email:        "asha@example.com",
		City:         "Bengaluru",
		PropertyType: "apartment",
		PINCode:      "560034",
		DistanceKM:   fptr(3.5),
		EstimateMin:  9_000_000,
		EstimateMax:  11_000_000,
		Confidence:   "80-85%",
	}
	require.NoError(t, s.CreateLead(ctx, lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "bangalore", lead.City)
	assert.Equal(t, "Asha Rao", lead.Name)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, lead.Name, got.Name)
	assert.Equal(t, "bangalore", got.City)
	require.NotNil(t, got.DistanceKM)
	assert.InDelta(t, 3.5, *got.DistanceKM, 1e-9)
	assert.Equal(t, int64(11_000_000), got.EstimateMax)
	assert.WithinDuration(t, lead.CreatedAt, got.CreatedAt, time.Second)

	require.NoError(t, s.SetLeadNotionPage(ctx, lead.ID, "page-123"))
	got, err = s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "page-123", got.NotionPageID)
}

func TestSQLite_GetLeadMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	got, err := s.GetLead(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SetLeadNotionPageMissing(t *testing.T) {
	s := newTestSQLiteStore(t)
	err := s.SetLeadNotionPage(context.Background(), "nope", "page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead not found")
}

func TestSQLite_CreateLeadValidation(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	assert.Error(t, s.CreateLead(ctx, nil))
	assert.Error(t, s.CreateLead(ctx, &model.Lead{Email: "a@b.c"}))
	assert.Error(t, s.CreateLead(ctx, &model.Lead{Name: "No Contact"}))
	assert.NoError(t, s.CreateLead(ctx, &model.Lead{Name: "Phone Only", Phone: "+91 98450 00000"}))
}

func TestSQLite_ListLeads(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, c := range []string{"bangalore", "mysore", "Bengaluru"} {
		require.NoError(t, s.CreateLead(ctx, &model.Lead{Name: "Lead " + c, Email: "x@example.com", City: c}))
		time.Sleep(2 * time.Millisecond)
	}

	all, err := s.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Lead Bengaluru", all[0].Name)

	blr, err := s.ListLeads(ctx, LeadFilter{City: "bengaluru"})
	require.NoError(t, err)
	assert.Len(t, blr, 2)

	page, err := s.ListLeads(ctx, LeadFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Lead mysore", page[0].Name)
}
