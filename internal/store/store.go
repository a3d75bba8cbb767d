// Package store persists PIN code locality records and captured leads.
// SQLite and Postgres backends implement the same Store interface.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
)

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	City   string `json:"city,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

const defaultLeadLimit = 100

// Store defines the persistence interface for reference data and leads.
type Store interface {
	// PIN code records
	UpsertPINRecords(ctx context.Context, recs []refdata.PINRecord) (int, error)
	LoadPINRecords(ctx context.Context) ([]refdata.PINRecord, error)
	GetPINRecord(ctx context.Context, pin string) (*refdata.PINRecord, error)

	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	SetLeadNotionPage(ctx context.Context, id, pageID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "propval.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// Dataset loads the stored PIN records on top of the built-in tables.
func Dataset(ctx context.Context, s Store) (*refdata.Dataset, error) {
	recs, err := s.LoadPINRecords(ctx)
	if err != nil {
		return nil, err
	}
	return refdata.Default().WithPINs(recs), nil
}

// prepareLead validates a new lead, normalizes its city and assigns its ID
// and creation time.
func prepareLead(lead *model.Lead) error {
	if lead == nil {
		return eris.New("store: nil lead")
	}
	if strings.TrimSpace(lead.Name) == "" {
		return eris.New("store: lead name is required")
	}
	if strings.TrimSpace(lead.Email) == "" && strings.TrimSpace(lead.Phone) == "" {
		return eris.New("store: lead needs an email or phone")
	}
	lead.Name = strings.TrimSpace(lead.Name)
	if lead.City != "" {
		lead.City = refdata.CityKey(lead.City)
	}
	lead.ID = uuid.New().String()
	lead.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return nil
}
