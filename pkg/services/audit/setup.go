package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
	"github.com/de-tools/spark-advisor/pkg/store/blob"
	"github.com/de-tools/spark-advisor/pkg/store/duckdb"
	"github.com/de-tools/spark-advisor/pkg/store/duckdb/history"
)

// Environment holds a runner and the resources it was built from.
type Environment struct {
	Runner  *Runner
	History history.Store

	sink blob.Sink
	db   *sql.DB
}

// Setup wires a Runner from the advisor configuration: the provider comes from
// registry, the sink from cfg.Sink and, when cfg.HistoryDB is set, the history
// store from a DuckDB file. Metrics are registered with reg when it is non-nil.
func Setup(
	ctx context.Context,
	cfg config.Config,
	registry provider.Registry,
	reg prometheus.Registerer,
) (*Environment, error) {
	logger := zerolog.Ctx(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := registry.Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", cfg.Provider, err)
	}

	sink, err := blob.NewSink(ctx, cfg.Sink)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink: %w", err)
	}
	env := &Environment{sink: sink}

	if cfg.HistoryDB != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.HistoryDB})
		if err != nil {
			_ = env.Close()
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		env.db = db

		env.History, err = history.NewStore(db)
		if err != nil {
			_ = env.Close()
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		logger.Debug().Str("path", cfg.HistoryDB).Msg("audit history enabled")
	}

	env.Runner = NewRunner(p, sink, env.History, NewMetrics(reg), SettingsFromConfig(cfg))
	return env, nil
}

func (e *Environment) Close() error {
	var errs []error
	if e.sink != nil {
		errs = append(errs, e.sink.Close())
	}
	if e.db != nil {
		errs = append(errs, e.db.Close())
	}
	return errors.Join(errs...)
}
