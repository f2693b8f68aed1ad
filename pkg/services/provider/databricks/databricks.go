package databricks

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/rs/zerolog"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

const Name = config.ProviderDatabricks

// ClustersAPI is the subset of the workspace Clusters service the provider uses.
type ClustersAPI interface {
	ListAll(ctx context.Context, request compute.ListClustersRequest) ([]compute.ClusterDetails, error)
	ListNodeTypes(ctx context.Context) (*compute.ListNodeTypesResponse, error)
}

type databricksProvider struct {
	workspace string
	clusters  ClustersAPI
}

// New connects to the workspace named by cfg.Profile in the .databrickscfg file.
func New(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	profiles, err := config.NewRegistry(cfg.DatabricksConfigPath)
	if err != nil {
		return nil, err
	}

	wsConfig, err := profiles.GetConfig(ctx, cfg.Profile)
	if err != nil {
		return nil, err
	}

	client, err := databricks.NewWorkspaceClient((*databricks.Config)(wsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client for %s: %w", cfg.Profile, err)
	}

	return NewWithAPI(cfg.Profile, client.Clusters), nil
}

func NewWithAPI(workspace string, clusters ClustersAPI) provider.Provider {
	return &databricksProvider{workspace: workspace, clusters: clusters}
}

func (p *databricksProvider) Name() string {
	return Name
}

func (p *databricksProvider) ListClusters(ctx context.Context) iter.Seq2[domain.Cluster, error] {
	return func(yield func(domain.Cluster, error) bool) {
		details, err := p.clusters.ListAll(ctx, compute.ListClustersRequest{})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("workspace", p.workspace).Msg("failed to list clusters")
			yield(domain.Cluster{}, fmt.Errorf("failed to list clusters in %s: %w", p.workspace, err))
			return
		}

		for _, d := range details {
			cluster, err := mapClusterDetailsToDomain(d)
			if err != nil {
				partial := domain.Cluster{ID: d.ClusterId, Name: d.ClusterName, Provider: Name}
				err = &domain.ClusterError{Cluster: partial, Err: err}
				cluster = partial
			}
			if !yield(cluster, err) {
				return
			}
		}
	}
}

// LookupMachineTypes ignores zone; node types are workspace wide.
func (p *databricksProvider) LookupMachineTypes(ctx context.Context, _ string, name string) ([]domain.MachineType, error) {
	resp, err := p.clusters.ListNodeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list node types: %w", err)
	}

	var result []domain.MachineType
	for _, nt := range resp.NodeTypes {
		if nt.NodeTypeId != name {
			continue
		}
		result = append(result, domain.MachineType{
			Name:     nt.NodeTypeId,
			VCPUs:    int(nt.NumCores),
			MemoryMB: int(nt.MemoryMb),
		})
	}
	return result, nil
}

// mapClusterDetailsToDomain sizes autoscaling clusters by their maximum worker
// count and driver-only clusters by the driver node.
func mapClusterDetailsToDomain(d compute.ClusterDetails) (domain.Cluster, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to encode cluster %s: %w", d.ClusterName, err)
	}

	worker := domain.InstanceGroup{MachineType: d.NodeTypeId, Instances: d.NumWorkers}
	if d.Autoscale != nil && d.Autoscale.MaxWorkers > 0 {
		worker.Instances = d.Autoscale.MaxWorkers
	}
	if worker.Instances == 0 {
		worker.MachineType = d.DriverNodeTypeId
		if worker.MachineType == "" {
			worker.MachineType = d.NodeTypeId
		}
		worker.Instances = 1
	}

	return domain.Cluster{
		ID:         d.ClusterId,
		Name:       d.ClusterName,
		Provider:   Name,
		State:      string(d.State),
		Worker:     worker,
		Properties: adapters.MapPropertiesToDomain(d.SparkConf, ""),
		Raw:        raw,
	}, nil
}
