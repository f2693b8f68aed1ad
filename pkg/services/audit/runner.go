package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/models/store"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
	"github.com/de-tools/spark-advisor/pkg/services/spark"
	"github.com/de-tools/spark-advisor/pkg/store/blob"
	"github.com/de-tools/spark-advisor/pkg/store/duckdb/history"
)

type Settings struct {
	Target                string
	Concurrency           int
	ConfigurationPrefix   string
	RecommendationsPrefix string
}

func DefaultSettings() Settings {
	return Settings{
		Concurrency:           config.DefaultConcurrency,
		ConfigurationPrefix:   config.DefaultConfigurationPrefix,
		RecommendationsPrefix: config.DefaultRecommendationsPrefix,
	}
}

// SettingsFromConfig takes the run settings from the advisor configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	s := DefaultSettings()
	s.Target = cfg.Target()
	if cfg.Concurrency > 0 {
		s.Concurrency = cfg.Concurrency
	}
	if cfg.ConfigurationPrefix != "" {
		s.ConfigurationPrefix = cfg.ConfigurationPrefix
	}
	if cfg.RecommendationsPrefix != "" {
		s.RecommendationsPrefix = cfg.RecommendationsPrefix
	}
	return s
}

// Runner audits every cluster a provider lists: it archives the raw cluster
// description, evaluates its Spark configuration and publishes the report.
type Runner struct {
	provider provider.Provider
	sink     blob.Sink
	history  history.Store
	metrics  *Metrics
	settings Settings
	now      func() time.Time
}

// NewRunner creates a Runner. history and metrics are optional.
func NewRunner(
	p provider.Provider,
	sink blob.Sink,
	historyStore history.Store,
	metrics *Metrics,
	settings Settings,
) *Runner {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Runner{
		provider: p,
		sink:     sink,
		history:  historyStore,
		metrics:  metrics,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run audits all clusters and returns the run summary. The summary is returned
// even when an error is: a listing failure ends the run once the clusters
// already started have finished, and any failed cluster, including one the
// provider could not describe, yields an error wrapping domain.ErrPartialFailure.
func (r *Runner) Run(ctx context.Context) (*domain.AuditRun, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("provider", r.provider.Name()).
		Str("target", r.settings.Target).
		Logger()
	ctx = logger.WithContext(ctx)

	run := &domain.AuditRun{
		ID:        uuid.NewString(),
		Provider:  r.provider.Name(),
		Target:    r.settings.Target,
		StartedAt: r.now(),
	}
	logger.Info().Str("run_id", run.ID).Msg("starting audit run")

	var (
		mu      sync.Mutex
		g       errgroup.Group
		listErr error
	)
	g.SetLimit(r.settings.Concurrency)

	for cluster, err := range r.provider.ListClusters(ctx) {
		var clusterErr *domain.ClusterError
		if errors.As(err, &clusterErr) {
			g.Go(func() error {
				res := r.describeFailed(ctx, clusterErr)
				mu.Lock()
				run.Results = append(run.Results, res)
				mu.Unlock()
				return nil
			})
			continue
		}
		if err != nil {
			listErr = err
			break
		}

		g.Go(func() error {
			res := r.auditCluster(ctx, cluster)
			mu.Lock()
			run.Results = append(run.Results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].Cluster.Name < run.Results[j].Cluster.Name
	})
	run.FinishedAt = r.now()
	r.metrics.runDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	var errs []error
	if listErr != nil {
		r.metrics.enumerationErrors.Inc()
		logger.Error().Err(listErr).Msg("cluster enumeration failed")
		errs = append(errs, fmt.Errorf("failed to enumerate clusters: %w", listErr))
	}
	if failed := run.Failed(); failed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d clusters", domain.ErrPartialFailure, failed, len(run.Results)))
	}
	if err := r.save(ctx, run); err != nil {
		logger.Error().Err(err).Msg("failed to save audit run")
		errs = append(errs, err)
	}

	logger.Info().
		Str("run_id", run.ID).
		Int("evaluated", run.Evaluated()).
		Int("failed", run.Failed()).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("audit run finished")

	return run, errors.Join(errs...)
}

func (r *Runner) auditCluster(ctx context.Context, cluster domain.Cluster) domain.ClusterResult {
	logger := zerolog.Ctx(ctx).With().Str("cluster", cluster.Name).Logger()
	res := domain.ClusterResult{Cluster: cluster}

	archiveErr := r.archive(ctx, cluster)
	if archiveErr != nil {
		logger.Warn().Err(archiveErr).Msg("continuing without archived description")
	} else {
		res.Archived = true
	}

	mt, shape, err := provider.ResolveShape(ctx, r.provider, cluster)
	if err != nil {
		return r.fail(logger, res, ReasonLookup, errors.Join(err, archiveErr))
	}
	res.MachineType = mt.Name
	res.Shape = shape

	report, err := spark.Evaluate(cluster.Name, mt.Name, shape, cluster.Properties)
	if err != nil {
		return r.fail(logger, res, ReasonEvaluate, errors.Join(err, archiveErr))
	}
	res.Report = &report
	res.EvaluatedAt = r.now()
	res.DiskEvaluation = domain.DiskEvaluationSkipped
	r.metrics.clustersEvaluated.Inc()
	for prop := range report.Recommendations {
		r.metrics.recommendations.WithLabelValues(prop.Key()).Inc()
	}

	doc, err := adapters.MarshalConfigurationReport(report)
	if err != nil {
		return r.fail(logger, res, ReasonPublish, errors.Join(fmt.Errorf("failed to encode report: %w", err), archiveErr))
	}
	reportKey := blob.ResolveKey(r.settings.RecommendationsPrefix, cluster.Name)
	if err := r.sink.Put(ctx, reportKey, string(doc)); err != nil {
		return r.fail(logger, res, ReasonPublish, errors.Join(fmt.Errorf("failed to publish report: %w", err), archiveErr))
	}
	res.Published = true

	// The report is out but the cluster still counts as failed.
	if archiveErr != nil {
		return r.fail(logger, res, ReasonArchive, archiveErr)
	}

	logger.Debug().
		Str("machine_type", mt.Name).
		Int("recommendations", len(report.Recommendations)).
		Msg("cluster evaluated")
	return res
}

func (r *Runner) archive(ctx context.Context, cluster domain.Cluster) error {
	key := blob.ResolveKey(r.settings.ConfigurationPrefix, cluster.Name)
	if err := r.sink.Put(ctx, key, string(cluster.Raw)); err != nil {
		return fmt.Errorf("failed to archive cluster description: %w", err)
	}
	return nil
}

// describeFailed records a cluster the provider listed but could not describe.
// Whatever description the listing returned is still archived.
func (r *Runner) describeFailed(ctx context.Context, clusterErr *domain.ClusterError) domain.ClusterResult {
	logger := zerolog.Ctx(ctx).With().Str("cluster", clusterErr.Cluster.Name).Logger()
	res := domain.ClusterResult{Cluster: clusterErr.Cluster}

	err := error(clusterErr)
	if len(clusterErr.Cluster.Raw) > 0 {
		if archiveErr := r.archive(ctx, clusterErr.Cluster); archiveErr != nil {
			err = errors.Join(err, archiveErr)
		} else {
			res.Archived = true
		}
	}
	return r.fail(logger, res, ReasonDescribe, err)
}

func (r *Runner) fail(logger zerolog.Logger, res domain.ClusterResult, reason string, err error) domain.ClusterResult {
	r.metrics.clusterFailures.WithLabelValues(reason).Inc()
	logger.Warn().Err(err).Str("reason", reason).Msg("cluster audit failed")
	res.Err = err
	if res.EvaluatedAt.IsZero() {
		res.EvaluatedAt = r.now()
	}
	return res
}

func (r *Runner) save(ctx context.Context, run *domain.AuditRun) error {
	if r.history == nil {
		return nil
	}

	reports := make([]store.ClusterReport, 0, len(run.Results))
	for _, res := range run.Results {
		rec, err := adapters.MapClusterResultDomainToStore(run.ID, res)
		if err != nil {
			return fmt.Errorf("failed to map report for %s: %w", res.Cluster.Name, err)
		}
		reports = append(reports, rec)
	}

	if err := r.history.SaveRun(ctx, adapters.MapAuditRunDomainToStore(*run), reports); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}
