package dataproc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/compute/v1"
	dataprocapi "google.golang.org/api/dataproc/v1"
	"google.golang.org/api/option"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

const (
	Name = config.ProviderDataproc

	// PropertyPrefix marks Spark properties in a Dataproc software config.
	PropertyPrefix = "spark:"
)

var errStopPaging = errors.New("stop paging")

// ClusterAPI pages through the clusters of a project region.
type ClusterAPI interface {
	ListClusters(ctx context.Context, project, region string, page func(*dataprocapi.ListClustersResponse) error) error
}

// MachineTypeAPI pages through the machine types of a zone matching filter.
type MachineTypeAPI interface {
	ListMachineTypes(ctx context.Context, project, zone, filter string, page func(*compute.MachineTypeList) error) error
}

type dataprocProvider struct {
	project      string
	region       string
	zone         string
	clusters     ClusterAPI
	machineTypes MachineTypeAPI
}

// New builds a Dataproc provider for cfg.Project and cfg.Region, talking to the
// regional Dataproc endpoint and the Compute Engine API.
func New(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	dp, err := dataprocapi.NewService(ctx,
		option.WithEndpoint(fmt.Sprintf("https://%s-dataproc.googleapis.com/", cfg.Region)))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataproc client: %w", err)
	}

	ce, err := compute.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}

	return NewWithAPIs(cfg, &clusterService{svc: dp}, &machineTypeService{svc: ce}), nil
}

func NewWithAPIs(cfg config.Config, clusters ClusterAPI, machineTypes MachineTypeAPI) provider.Provider {
	return &dataprocProvider{
		project:      cfg.Project,
		region:       cfg.Region,
		zone:         cfg.Zone,
		clusters:     clusters,
		machineTypes: machineTypes,
	}
}

func (p *dataprocProvider) Name() string {
	return Name
}

func (p *dataprocProvider) ListClusters(ctx context.Context) iter.Seq2[domain.Cluster, error] {
	return func(yield func(domain.Cluster, error) bool) {
		logger := zerolog.Ctx(ctx)

		err := p.clusters.ListClusters(ctx, p.project, p.region, func(resp *dataprocapi.ListClustersResponse) error {
			for _, c := range resp.Clusters {
				cluster, err := mapClusterToDomain(c, p.zone)
				if err != nil {
					partial := domain.Cluster{ID: c.ClusterUuid, Name: c.ClusterName, Provider: Name}
					err = &domain.ClusterError{Cluster: partial, Err: err}
					cluster = partial
				}
				if !yield(cluster, err) {
					return errStopPaging
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopPaging) {
			logger.Warn().Err(err).Str("project", p.project).Str("region", p.region).Msg("failed to list clusters")
			yield(domain.Cluster{}, fmt.Errorf("failed to list clusters in %s/%s: %w", p.project, p.region, err))
		}
	}
}

func (p *dataprocProvider) LookupMachineTypes(ctx context.Context, zone, name string) ([]domain.MachineType, error) {
	if zone == "" {
		zone = p.zone
	}

	var result []domain.MachineType
	filter := fmt.Sprintf("name = %q", name)
	err := p.machineTypes.ListMachineTypes(ctx, p.project, zone, filter, func(list *compute.MachineTypeList) error {
		for _, mt := range list.Items {
			result = append(result, mapMachineTypeToDomain(mt))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list machine types in %s: %w", zone, err)
	}
	return result, nil
}

// mapClusterToDomain converts a Dataproc cluster to a domain cluster. A
// cluster without primary workers is sized by its single master node.
func mapClusterToDomain(c *dataprocapi.Cluster, defaultZone string) (domain.Cluster, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to encode cluster %s: %w", c.ClusterName, err)
	}

	cluster := domain.Cluster{
		ID:       c.ClusterUuid,
		Name:     c.ClusterName,
		Provider: Name,
		Raw:      raw,
	}
	if c.Status != nil {
		cluster.State = c.Status.State
	}

	cfg := c.Config
	if cfg == nil {
		cluster.Zone = defaultZone
		cluster.Properties = domain.PropertyMap{}
		return cluster, nil
	}

	if cfg.SoftwareConfig != nil {
		cluster.Properties = adapters.MapPropertiesToDomain(cfg.SoftwareConfig.Properties, PropertyPrefix)
	} else {
		cluster.Properties = domain.PropertyMap{}
	}

	group := cfg.WorkerConfig
	if group == nil || group.NumInstances == 0 {
		group = cfg.MasterConfig
		if group != nil {
			cluster.Worker = domain.InstanceGroup{MachineType: lastSegment(group.MachineTypeUri), Instances: 1}
		}
	} else {
		cluster.Worker = domain.InstanceGroup{
			MachineType: lastSegment(group.MachineTypeUri),
			Instances:   int(group.NumInstances),
		}
	}

	if group != nil {
		cluster.Zone = zoneFromURI(group.MachineTypeUri)
	}
	if cluster.Zone == "" && cfg.GceClusterConfig != nil {
		cluster.Zone = lastSegment(cfg.GceClusterConfig.ZoneUri)
	}
	if cluster.Zone == "" {
		cluster.Zone = defaultZone
	}

	return cluster, nil
}

func mapMachineTypeToDomain(mt *compute.MachineType) domain.MachineType {
	return domain.MachineType{
		Name:     mt.Name,
		VCPUs:    int(mt.GuestCpus),
		MemoryMB: int(mt.MemoryMb),
	}
}

// lastSegment returns the short name of a resource URI such as
// https://www.googleapis.com/compute/v1/projects/p/zones/z/machineTypes/n1-standard-4.
func lastSegment(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func zoneFromURI(uri string) string {
	parts := strings.Split(uri, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "zones" {
			return parts[i+1]
		}
	}
	return ""
}

type clusterService struct {
	svc *dataprocapi.Service
}

func (s *clusterService) ListClusters(
	ctx context.Context,
	project, region string,
	page func(*dataprocapi.ListClustersResponse) error,
) error {
	return s.svc.Projects.Regions.Clusters.List(project, region).Pages(ctx, page)
}

type machineTypeService struct {
	svc *compute.Service
}

func (s *machineTypeService) ListMachineTypes(
	ctx context.Context,
	project, zone, filter string,
	page func(*compute.MachineTypeList) error,
) error {
	return s.svc.MachineTypes.List(project, zone).Filter(filter).Pages(ctx, page)
}
