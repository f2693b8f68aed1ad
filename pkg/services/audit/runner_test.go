package audit

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/models/store"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

type fakeProvider struct {
	clusters     []domain.Cluster
	listErr      error
	describeErrs map[string]error
	machineTypes map[string]domain.MachineType
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ListClusters(_ context.Context) iter.Seq2[domain.Cluster, error] {
	return func(yield func(domain.Cluster, error) bool) {
		for c := range provider.FromSlice(f.clusters) {
			var err error
			if describeErr, ok := f.describeErrs[c.Name]; ok {
				err = &domain.ClusterError{Cluster: c, Err: describeErr}
			}
			if !yield(c, err) {
				return
			}
		}
		if f.listErr != nil {
			yield(domain.Cluster{}, f.listErr)
		}
	}
}

func (f *fakeProvider) LookupMachineTypes(_ context.Context, _ string, name string) ([]domain.MachineType, error) {
	if mt, ok := f.machineTypes[name]; ok {
		return []domain.MachineType{mt}, nil
	}
	return nil, nil
}

type memorySink struct {
	mu      sync.Mutex
	blobs   map[string]string
	failKey string
}

func newMemorySink() *memorySink {
	return &memorySink{blobs: map[string]string{}}
}

func (s *memorySink) Put(_ context.Context, key string, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failKey {
		return errors.New("bucket unavailable")
	}
	s.blobs[key] = payload
	return nil
}

func (s *memorySink) Close() error { return nil }

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) SaveRun(ctx context.Context, run store.AuditRun, reports []store.ClusterReport) error {
	return m.Called(ctx, run, reports).Error(0)
}

func (m *mockHistory) ListRuns(ctx context.Context, limit int) ([]store.AuditRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]store.AuditRun), args.Error(1)
}

func (m *mockHistory) ListClusterReports(ctx context.Context, cluster string, limit int) ([]store.ClusterReport, error) {
	args := m.Called(ctx, cluster, limit)
	return args.Get(0).([]store.ClusterReport), args.Error(1)
}

func cluster(name, machineType string, nodes int) domain.Cluster {
	return domain.Cluster{
		Name:       name,
		Zone:       "us-central1-a",
		Worker:     domain.InstanceGroup{MachineType: machineType, Instances: nodes},
		Properties: domain.PropertyMap{domain.PropExecutorCores: "5"},
		Raw:        []byte(`{"clusterName":"` + name + `"}`),
	}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Target = "analytics/us-central1"
	s.Concurrency = 2
	return s
}

func TestRunner_EvaluatesAndPublishes(t *testing.T) {
	p := &fakeProvider{
		clusters: []domain.Cluster{cluster("etl", "n1-standard-16", 3)},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}
	sink := newMemorySink()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	run, err := NewRunner(p, sink, nil, metrics, testSettings()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, 1, run.Evaluated())
	assert.Equal(t, "fake", run.Provider)
	assert.Equal(t, "analytics/us-central1", run.Target)
	assert.NotEmpty(t, run.ID)

	res := run.Results[0]
	assert.True(t, res.Archived)
	assert.True(t, res.Published)
	assert.Equal(t, domain.DiskEvaluationSkipped, res.DiskEvaluation)
	assert.Equal(t, domain.HardwareShape{NodeCount: 3, VCPUsPerNode: 16, MemoryMBPerNode: 65536}, res.Shape)

	assert.Equal(t, `{"clusterName":"etl"}`, sink.blobs["dataproc-cluster-configuration-library/etl"])

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(sink.blobs["dataproc-cluster-spark-recommendations/etl"]), &doc))
	assert.Equal(t, "8", doc["recommendations"]["spark.executor.instances"])
	assert.Equal(t, "19353m", doc["recommendations"]["spark.executor.memory"])
	assert.NotContains(t, doc["recommendations"], "spark.executor.cores")
	assert.Equal(t, "5", doc["current_configuration"]["spark.executor.cores"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.clustersEvaluated))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.recommendations.WithLabelValues("spark.executor.memory")))
}

func TestRunner_LookupMismatchIsIsolated(t *testing.T) {
	p := &fakeProvider{
		clusters: []domain.Cluster{
			cluster("adhoc", "custom-8-30720", 2),
			cluster("etl", "n1-standard-16", 3),
		},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}
	sink := newMemorySink()
	metrics := NewMetrics(prometheus.NewRegistry())

	run, err := NewRunner(p, sink, nil, metrics, testSettings()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartialFailure)

	require.Len(t, run.Results, 2)
	adhoc, etl := run.Results[0], run.Results[1]
	assert.Equal(t, "adhoc", adhoc.Cluster.Name)
	assert.ErrorIs(t, adhoc.Err, domain.ErrLookupMismatch)
	assert.True(t, adhoc.Archived, "raw description is archived before lookup")
	assert.False(t, adhoc.Published)
	assert.Contains(t, sink.blobs, "dataproc-cluster-configuration-library/adhoc")
	assert.NotContains(t, sink.blobs, "dataproc-cluster-spark-recommendations/adhoc")

	assert.NoError(t, etl.Err)
	assert.True(t, etl.Published)
	assert.Equal(t, 1, run.Evaluated())
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.clusterFailures.WithLabelValues(ReasonLookup)))
}

func TestRunner_ArchiveFailureStillPublishes(t *testing.T) {
	p := &fakeProvider{
		clusters: []domain.Cluster{cluster("etl", "n1-standard-16", 3)},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}
	sink := newMemorySink()
	sink.failKey = "dataproc-cluster-configuration-library/etl"
	metrics := NewMetrics(prometheus.NewRegistry())

	run, err := NewRunner(p, sink, nil, metrics, testSettings()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	require.Len(t, run.Results, 1)

	res := run.Results[0]
	assert.False(t, res.Archived)
	assert.True(t, res.Published)
	require.NotNil(t, res.Report)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "bucket unavailable")
	assert.Contains(t, sink.blobs, "dataproc-cluster-spark-recommendations/etl")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.clusterFailures.WithLabelValues(ReasonArchive)))
}

func TestRunner_ArchiveAndLookupFailuresAreBothReported(t *testing.T) {
	p := &fakeProvider{clusters: []domain.Cluster{cluster("adhoc", "custom-8-30720", 2)}}
	sink := newMemorySink()
	sink.failKey = "dataproc-cluster-configuration-library/adhoc"

	run, err := NewRunner(p, sink, nil, nil, testSettings()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPartialFailure)

	res := run.Results[0]
	assert.ErrorIs(t, res.Err, domain.ErrLookupMismatch)
	assert.Contains(t, res.Err.Error(), "bucket unavailable")
	assert.Nil(t, res.Report)
	assert.Empty(t, sink.blobs)
}

func TestRunner_DescribeFailureKeepsSiblings(t *testing.T) {
	throttled := errors.New("ThrottlingException: rate exceeded")
	p := &fakeProvider{
		clusters: []domain.Cluster{
			{Name: "adhoc", Raw: []byte(`{"Id":"j-1","Name":"adhoc"}`)},
			cluster("etl", "n1-standard-16", 3),
		},
		describeErrs: map[string]error{"adhoc": throttled},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}
	sink := newMemorySink()
	metrics := NewMetrics(prometheus.NewRegistry())

	run, err := NewRunner(p, sink, nil, metrics, testSettings()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.NotContains(t, err.Error(), "failed to enumerate clusters")

	require.Len(t, run.Results, 2)
	adhoc, etl := run.Results[0], run.Results[1]
	assert.ErrorIs(t, adhoc.Err, throttled)
	assert.True(t, adhoc.Archived)
	assert.Nil(t, adhoc.Report)
	assert.Equal(t, `{"Id":"j-1","Name":"adhoc"}`, sink.blobs["dataproc-cluster-configuration-library/adhoc"])

	assert.NoError(t, etl.Err)
	assert.True(t, etl.Published)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.clusterFailures.WithLabelValues(ReasonDescribe)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.enumerationErrors))
}

func TestRunner_InvalidShapeFails(t *testing.T) {
	c := cluster("empty", "n1-standard-16", 0)
	p := &fakeProvider{
		clusters: []domain.Cluster{c},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}

	run, err := NewRunner(p, newMemorySink(), nil, nil, testSettings()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	assert.ErrorIs(t, run.Results[0].Err, domain.ErrInvalidShape)
}

func TestRunner_EnumerationErrorAbortsAfterStartedClusters(t *testing.T) {
	p := &fakeProvider{
		clusters: []domain.Cluster{cluster("etl", "n1-standard-16", 3)},
		listErr:  errors.New("quota exceeded"),
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}

	run, err := NewRunner(p, newMemorySink(), nil, nil, testSettings()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.NotErrorIs(t, err, domain.ErrPartialFailure)
	require.Len(t, run.Results, 1)
	assert.True(t, run.Results[0].Published)
}

func TestRunner_SavesHistory(t *testing.T) {
	p := &fakeProvider{
		clusters: []domain.Cluster{cluster("etl", "n1-standard-16", 3), cluster("adhoc", "missing", 1)},
		machineTypes: map[string]domain.MachineType{
			"n1-standard-16": {Name: "n1-standard-16", VCPUs: 16, MemoryMB: 65536},
		},
	}
	h := new(mockHistory)
	h.On("SaveRun", mock.Anything, mock.MatchedBy(func(run store.AuditRun) bool {
		return run.Provider == "fake" && run.Evaluated == 1 && run.Failed == 1
	}), mock.MatchedBy(func(reports []store.ClusterReport) bool {
		return len(reports) == 2 &&
			reports[0].ClusterName == "adhoc" && reports[0].Error != nil && reports[0].Report == nil &&
			reports[1].ClusterName == "etl" && reports[1].Report != nil && reports[1].NodeCount == 3
	})).Return(nil)

	_, err := NewRunner(p, newMemorySink(), h, nil, testSettings()).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrPartialFailure)
	h.AssertExpectations(t)
}

func TestRunner_HistoryFailureIsReported(t *testing.T) {
	p := &fakeProvider{}
	h := new(mockHistory)
	h.On("SaveRun", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("database is locked"))

	run, err := NewRunner(p, newMemorySink(), h, nil, testSettings()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Empty(t, run.Results)
}
