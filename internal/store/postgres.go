package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/propval/internal/db"
	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pin_records (
	pin_code     TEXT PRIMARY KEY,
	city         TEXT NOT NULL,
	locality     TEXT NOT NULL DEFAULT '',
	tier         TEXT NOT NULL DEFAULT '',
	region       TEXT NOT NULL DEFAULT '',
	guidance_min DOUBLE PRECISION,
	guidance_max DOUBLE PRECISION,
	centroid     BYTEA,
	properties   JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pin_records_city ON pin_records(city);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	property_type  TEXT NOT NULL DEFAULT '',
	area_name      TEXT NOT NULL DEFAULT '',
	pin_code       TEXT NOT NULL DEFAULT '',
	distance_km    DOUBLE PRECISION,
	estimate_min   BIGINT NOT NULL DEFAULT 0,
	estimate_max   BIGINT NOT NULL DEFAULT 0,
	confidence     TEXT NOT NULL DEFAULT '',
	notion_page_id TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_city ON leads(city);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var pinUpsert = db.UpsertConfig{
	Table: "pin_records",
	Columns: []string{
		"pin_code", "city", "locality", "tier", "region",
		"guidance_min", "guidance_max", "centroid", "properties", "updated_at",
	},
	ConflictKeys: []string{"pin_code"},
}

// UpsertPINRecords bulk loads records through a COPY staging table.
func (s *PostgresStore) UpsertPINRecords(ctx context.Context, recs []refdata.PINRecord) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		if !refdata.ValidPIN(r.PIN) {
			return 0, eris.Errorf("postgres: invalid pin code %q", r.PIN)
		}
		props, err := json.Marshal(r.Properties)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal properties %s", r.PIN)
		}
		var centroid []byte
		if r.Centroid != nil {
			centroid, err = geodesy.EncodeEWKB(*r.Centroid)
			if err != nil {
				return 0, eris.Wrapf(err, "postgres: encode centroid %s", r.PIN)
			}
		}
		var gMin, gMax *float64
		if r.GuidanceValue != nil {
			gMin, gMax = &r.GuidanceValue.Min, &r.GuidanceValue.Max
		}
		rows = append(rows, []any{
			r.PIN, r.City, r.Locality, r.Tier, r.Region,
			gMin, gMax, centroid, json.RawMessage(props), now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, pinUpsert, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert pin records")
	}
	return int(n), nil
}

const pgPINColumns = `pin_code, city, locality, tier, region, guidance_min, guidance_max, centroid, properties`

// LoadPINRecords returns every stored record ordered by PIN code.
func (s *PostgresStore) LoadPINRecords(ctx context.Context) ([]refdata.PINRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgPINColumns+` FROM pin_records ORDER BY pin_code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load pin records")
	}
	defer rows.Close()

	var out []refdata.PINRecord
	for rows.Next() {
		r, err := scanPGPINRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load pin records iterate")
}

// GetPINRecord returns the record for a PIN code, or nil if none is stored.
func (s *PostgresStore) GetPINRecord(ctx context.Context, pin string) (*refdata.PINRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgPINColumns+` FROM pin_records WHERE pin_code = $1`, pin)
	r, err := scanPGPINRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// CreateLead stores a lead, assigning its ID and creation time.
func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if err := prepareLead(lead); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, name, email, phone, city, property_type, area_name, pin_code, distance_km,
			estimate_min, estimate_max, confidence, notion_page_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.City, lead.PropertyType, lead.AreaName, lead.PINCode,
		lead.DistanceKM, lead.EstimateMin, lead.EstimateMax, lead.Confidence, lead.NotionPageID, lead.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert lead")
}

const pgLeadColumns = `id, name, email, phone, city, property_type, area_name, pin_code, distance_km,
	estimate_min, estimate_max, confidence, notion_page_id, created_at`

// GetLead returns a lead by ID, or nil if it does not exist.
func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgLeadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanPGLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// ListLeads returns leads newest first.
func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + pgLeadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, refdata.CityKey(filter.City))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLeadLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPGLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

// SetLeadNotionPage records the Notion page a lead was pushed to.
func (s *PostgresStore) SetLeadNotionPage(ctx context.Context, id, pageID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE leads SET notion_page_id = $1 WHERE id = $2`, pageID, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", id)
	}
	return nil
}

func scanPGPINRecord(row pgx.Row) (*refdata.PINRecord, error) {
	var r refdata.PINRecord
	var gMin, gMax *float64
	var centroid, props []byte

	err := row.Scan(&r.PIN, &r.City, &r.Locality, &r.Tier, &r.Region, &gMin, &gMax, &centroid, &props)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan pin record")
	}

	if gMin != nil && gMax != nil {
		r.GuidanceValue = &refdata.Bounds{Min: *gMin, Max: *gMax}
	}
	if len(centroid) > 0 {
		c, err := geodesy.DecodeEWKB(centroid)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: decode centroid %s", r.PIN)
		}
		r.Centroid = &c
	}
	if err := json.Unmarshal(props, &r.Properties); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal properties %s", r.PIN)
	}
	return &r, nil
}

func scanPGLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.City, &l.PropertyType, &l.AreaName, &l.PINCode,
		&l.DistanceKM, &l.EstimateMin, &l.EstimateMax, &l.Confidence, &l.NotionPageID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}
	return &l, nil
}
