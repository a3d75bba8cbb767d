package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pin_records (
	pin_code     TEXT PRIMARY KEY,
	city         TEXT NOT NULL,
	locality     TEXT NOT NULL DEFAULT '',
	tier         TEXT NOT NULL DEFAULT '',
	region       TEXT NOT NULL DEFAULT '',
	guidance_min REAL,
	guidance_max REAL,
	latitude     REAL,
	longitude    REAL,
	properties   TEXT NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	property_type  TEXT NOT NULL DEFAULT '',
	area_name      TEXT NOT NULL DEFAULT '',
	pin_code       TEXT NOT NULL DEFAULT '',
	distance_km    REAL,
	estimate_min   INTEGER NOT NULL DEFAULT 0,
	estimate_max   INTEGER NOT NULL DEFAULT 0,
	confidence     TEXT NOT NULL DEFAULT '',
	notion_page_id TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pin_records_city ON pin_records(city);
CREATE INDEX IF NOT EXISTS idx_leads_city ON leads(city);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsertPIN = `
INSERT INTO pin_records (pin_code, city, locality, tier, region, guidance_min, guidance_max, latitude, longitude, properties, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(pin_code) DO UPDATE SET
	city = excluded.city,
	locality = excluded.locality,
	tier = excluded.tier,
	region = excluded.region,
	guidance_min = excluded.guidance_min,
	guidance_max = excluded.guidance_max,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	properties = excluded.properties,
	updated_at = excluded.updated_at`

// UpsertPINRecords inserts or replaces records keyed by PIN code in a single
// transaction.
func (s *SQLiteStore) UpsertPINRecords(ctx context.Context, recs []refdata.PINRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertPIN)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare pin upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for _, r := range recs {
		if !refdata.ValidPIN(r.PIN) {
			return 0, eris.Errorf("sqlite: invalid pin code %q", r.PIN)
		}
		props, err := json.Marshal(r.Properties)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal properties %s", r.PIN)
		}
		gMin, gMax := guidanceArgs(r.GuidanceValue)
		var lat, lon sql.NullFloat64
		if r.Centroid != nil {
			lat = sql.NullFloat64{Float64: r.Centroid.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: r.Centroid.Lon, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.PIN, r.City, r.Locality, r.Tier, r.Region, gMin, gMax, lat, lon, string(props), now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert pin %s", r.PIN)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return len(recs), nil
}

const sqlitePINColumns = `pin_code, city, locality, tier, region, guidance_min, guidance_max, latitude, longitude, properties`

// LoadPINRecords returns every stored record ordered by PIN code.
func (s *SQLiteStore) LoadPINRecords(ctx context.Context) ([]refdata.PINRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqlitePINColumns+` FROM pin_records ORDER BY pin_code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load pin records")
	}
	defer rows.Close() //nolint:errcheck

	var out []refdata.PINRecord
	for rows.Next() {
		r, err := scanPINRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate pin records")
}

// GetPINRecord returns the record for a PIN code, or nil if none is stored.
func (s *SQLiteStore) GetPINRecord(ctx context.Context, pin string) (*refdata.PINRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqlitePINColumns+` FROM pin_records WHERE pin_code = ?`, pin)
	r, err := scanPINRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// CreateLead stores a lead, assigning its ID and creation time.
func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if err := prepareLead(lead); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, city, property_type, area_name, pin_code, distance_km,
			estimate_min, estimate_max, confidence, notion_page_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.City, lead.PropertyType, lead.AreaName, lead.PINCode,
		nullFloat(lead.DistanceKM), lead.EstimateMin, lead.EstimateMax, lead.Confidence, lead.NotionPageID, lead.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

const sqliteLeadColumns = `id, name, email, phone, city, property_type, area_name, pin_code, distance_km,
	estimate_min, estimate_max, confidence, notion_page_id, created_at`

// GetLead returns a lead by ID, or nil if it does not exist.
func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLeadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// ListLeads returns leads newest first.
func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + sqliteLeadColumns + ` FROM leads`
	var args []any
	if filter.City != "" {
		query += ` WHERE city = ?`
		args = append(args, refdata.CityKey(filter.City))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLeadLimit
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

// SetLeadNotionPage records the Notion page a lead was pushed to.
func (s *SQLiteStore) SetLeadNotionPage(ctx context.Context, id, pageID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET notion_page_id = ? WHERE id = ?`, pageID, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPINRecord(row scannable) (*refdata.PINRecord, error) {
	var r refdata.PINRecord
	var gMin, gMax, lat, lon sql.NullFloat64
	var props string

	err := row.Scan(&r.PIN, &r.City, &r.Locality, &r.Tier, &r.Region, &gMin, &gMax, &lat, &lon, &props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan pin record")
	}

	if gMin.Valid && gMax.Valid {
		r.GuidanceValue = &refdata.Bounds{Min: gMin.Float64, Max: gMax.Float64}
	}
	if lat.Valid && lon.Valid {
		r.Centroid = &geodesy.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
	}
	if err := json.Unmarshal([]byte(props), &r.Properties); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal properties %s", r.PIN)
	}
	return &r, nil
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var dist sql.NullFloat64

	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.City, &l.PropertyType, &l.AreaName, &l.PINCode,
		&dist, &l.EstimateMin, &l.EstimateMax, &l.Confidence, &l.NotionPageID, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	if dist.Valid {
		l.DistanceKM = &dist.Float64
	}
	return &l, nil
}

func guidanceArgs(b *refdata.Bounds) (sql.NullFloat64, sql.NullFloat64) {
	if b == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: b.Min, Valid: true}, sql.NullFloat64{Float64: b.Max, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
