package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/adjust"
	"github.com/sells-group/propval/internal/config"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/resilience"
	"github.com/sells-group/propval/internal/store"
	"github.com/sells-group/propval/internal/valuation"
	"github.com/sells-group/propval/pkg/notion"
)

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		MaxConns:    cfg.Store.MaxConns,
		MinConns:    cfg.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// loadDataset builds the reference dataset. A configured PIN file takes
// precedence over records held in the store; st may be nil only when a PIN
// file is configured.
func loadDataset(ctx context.Context, dc config.DatasetConfig, st store.Store) (*refdata.Dataset, error) {
	if dc.PINFile == "" {
		if st == nil {
			return refdata.Default(), nil
		}
		ds, err := store.Dataset(ctx, st)
		if err != nil {
			return nil, eris.Wrap(err, "load stored PIN records")
		}
		return ds, nil
	}

	recs, err := refdata.LoadPINFile(dc.PINFile)
	if err != nil {
		return nil, err
	}
	if dc.CentroidsFile != "" {
		centroids, err := refdata.ReadCentroids(dc.CentroidsFile, dc.CentroidField)
		if err != nil {
			return nil, err
		}
		n := refdata.AttachCentroids(recs, centroids)
		zap.L().Info("attached PIN centroids",
			zap.String("file", dc.CentroidsFile),
			zap.Int("attached", n),
			zap.Int("records", len(recs)),
		)
	}
	return refdata.Default().WithPINs(recs), nil
}

// newEngine creates a valuation engine from the loaded config.
func newEngine(ds *refdata.Dataset, vc config.ValuationConfig) (*valuation.Engine, error) {
	policy, err := adjust.ParseCornerPolicy(vc.CornerPolicy)
	if err != nil {
		return nil, err
	}
	return valuation.New(ds, valuation.Options{
		CornerPolicy:         policy,
		DefaultDistanceKM:    vc.DefaultDistanceKM,
		PINDefaultDistanceKM: vc.PINDefaultDistanceKM,
	}), nil
}

// engineEnv holds what valuation commands share.
type engineEnv struct {
	Store  store.Store
	Engine *valuation.Engine
}

// Close releases the store, if one was opened.
func (e *engineEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEngine validates config for mode, then loads the dataset and engine.
// The store is opened only when records come from it or withStore is set.
func initEngine(ctx context.Context, mode string, withStore bool) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &engineEnv{}
	if withStore || cfg.Dataset.PINFile == "" {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	ds, err := loadDataset(ctx, cfg.Dataset, env.Store)
	if err != nil {
		env.Close()
		return nil, err
	}
	issues := refdata.Validate(ds)
	for _, is := range issues {
		zap.L().Warn("dataset issue", zap.String("issue", is.String()))
	}
	if refdata.HasErrors(issues) {
		env.Close()
		return nil, eris.Errorf("dataset: %d issues, run `propval dataset validate` for details", len(issues))
	}

	eng, err := newEngine(ds, cfg.Valuation)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Engine = eng

	zap.L().Debug("valuation engine ready",
		zap.Int("pin_records", len(ds.PINs())),
		zap.String("corner_policy", string(eng.Options().CornerPolicy)),
	)
	return env, nil
}

// newNotionClient creates a rate-limited Notion client that retries
// transient failures and backs off entirely after repeated ones.
func newNotionClient(token string) notion.Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		OnStateChange: func(from, to resilience.State) {
			zap.L().Warn("notion circuit breaker", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	return notion.WithResilience(notion.NewClient(token), resilience.DefaultPolicy(), breaker)
}
