package emr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/emr"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

const (
	Name = config.ProviderEMR

	sparkDefaultsClassification = "spark-defaults"

	// EC2 answers an unknown instance type with this error instead of an empty list.
	errCodeInvalidInstanceType = "InvalidInstanceType"
)

var activeStates = []types.ClusterState{
	types.ClusterStateStarting,
	types.ClusterStateBootstrapping,
	types.ClusterStateRunning,
	types.ClusterStateWaiting,
}

type EMRAPI interface {
	emr.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *emr.DescribeClusterInput, optFns ...func(*emr.Options)) (*emr.DescribeClusterOutput, error)
	ListInstanceGroups(ctx context.Context, params *emr.ListInstanceGroupsInput, optFns ...func(*emr.Options)) (*emr.ListInstanceGroupsOutput, error)
}

type EC2API interface {
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

type emrProvider struct {
	region string
	emr    EMRAPI
	ec2    EC2API
}

// New creates an EMR provider using the shared AWS profile cfg.Profile, or the
// default credential chain when it is empty.
func New(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	awsCfg, err := LoadConfig(ctx, cfg.Profile, cfg.Region)
	if err != nil {
		return nil, err
	}
	return NewWithAPIs(cfg.Region, emr.NewFromConfig(*awsCfg), ec2.NewFromConfig(*awsCfg)), nil
}

func NewWithAPIs(region string, emrClient EMRAPI, ec2Client EC2API) provider.Provider {
	return &emrProvider{region: region, emr: emrClient, ec2: ec2Client}
}

func LoadConfig(ctx context.Context, profile, region string) (*awssdk.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	// Test the credentials
	_, err = awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid AWS credentials for profile %s: %w", profile, err)
	}

	return &awsCfg, nil
}

func (p *emrProvider) Name() string {
	return Name
}

func (p *emrProvider) ListClusters(ctx context.Context) iter.Seq2[domain.Cluster, error] {
	return func(yield func(domain.Cluster, error) bool) {
		logger := zerolog.Ctx(ctx)
		paginator := emr.NewListClustersPaginator(p.emr, &emr.ListClustersInput{ClusterStates: activeStates})

		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("region", p.region).Msg("failed to list clusters")
				yield(domain.Cluster{}, fmt.Errorf("failed to list clusters in %s: %w", p.region, err))
				return
			}

			for _, summary := range page.Clusters {
				cluster, err := p.describe(ctx, awssdk.ToString(summary.Id))
				if err != nil {
					logger.Warn().Err(err).Str("cluster_id", awssdk.ToString(summary.Id)).Msg("failed to describe cluster")
					partial := mapSummaryToDomain(summary)
					if !yield(partial, &domain.ClusterError{Cluster: partial, Err: err}) {
						return
					}
					continue
				}
				if !yield(cluster, nil) {
					return
				}
			}
		}
	}
}

func (p *emrProvider) describe(ctx context.Context, clusterID string) (domain.Cluster, error) {
	described, err := p.emr.DescribeCluster(ctx, &emr.DescribeClusterInput{ClusterId: awssdk.String(clusterID)})
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to describe cluster %s: %w", clusterID, err)
	}

	groups, err := p.emr.ListInstanceGroups(ctx, &emr.ListInstanceGroupsInput{ClusterId: awssdk.String(clusterID)})
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to list instance groups of %s: %w", clusterID, err)
	}

	return mapClusterToDomain(described.Cluster, groups.InstanceGroups)
}

func (p *emrProvider) LookupMachineTypes(ctx context.Context, _ string, name string) ([]domain.MachineType, error) {
	out, err := p.ec2.DescribeInstanceTypes(ctx, &ec2.DescribeInstanceTypesInput{
		InstanceTypes: []ec2types.InstanceType{ec2types.InstanceType(name)},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeInvalidInstanceType {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe instance type %s: %w", name, err)
	}

	result := make([]domain.MachineType, 0, len(out.InstanceTypes))
	for _, info := range out.InstanceTypes {
		result = append(result, mapInstanceTypeToDomain(info))
	}
	return result, nil
}

// mapClusterToDomain sizes the cluster by its CORE group, or by the MASTER
// group when the cluster has no core nodes.
func mapClusterToDomain(c *types.Cluster, groups []types.InstanceGroup) (domain.Cluster, error) {
	if c == nil {
		return domain.Cluster{}, fmt.Errorf("empty cluster description")
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return domain.Cluster{}, fmt.Errorf("failed to encode cluster %s: %w", awssdk.ToString(c.Name), err)
	}

	cluster := domain.Cluster{
		ID:         awssdk.ToString(c.Id),
		Name:       awssdk.ToString(c.Name),
		Provider:   Name,
		Properties: domain.PropertyMap{},
		Raw:        raw,
	}
	if c.Status != nil {
		cluster.State = string(c.Status.State)
	}
	if c.Ec2InstanceAttributes != nil {
		cluster.Zone = awssdk.ToString(c.Ec2InstanceAttributes.Ec2AvailabilityZone)
	}

	for _, conf := range c.Configurations {
		if awssdk.ToString(conf.Classification) == sparkDefaultsClassification {
			cluster.Properties = adapters.MapPropertiesToDomain(conf.Properties, "")
		}
	}

	var master *types.InstanceGroup
	for i := range groups {
		g := &groups[i]
		switch g.InstanceGroupType {
		case types.InstanceGroupTypeCore:
			cluster.Worker = domain.InstanceGroup{
				MachineType: awssdk.ToString(g.InstanceType),
				Instances:   instanceCount(g),
			}
		case types.InstanceGroupTypeMaster:
			master = g
		}
	}
	if cluster.Worker.Instances == 0 && master != nil {
		cluster.Worker = domain.InstanceGroup{MachineType: awssdk.ToString(master.InstanceType), Instances: 1}
	}

	return cluster, nil
}

// mapSummaryToDomain keeps what the listing knows about a cluster that could
// not be described; the summary is its raw description.
func mapSummaryToDomain(summary types.ClusterSummary) domain.Cluster {
	cluster := domain.Cluster{
		ID:       awssdk.ToString(summary.Id),
		Name:     awssdk.ToString(summary.Name),
		Provider: Name,
	}
	if summary.Status != nil {
		cluster.State = string(summary.Status.State)
	}
	if raw, err := json.Marshal(summary); err == nil {
		cluster.Raw = raw
	}
	return cluster
}

func instanceCount(g *types.InstanceGroup) int {
	if n := awssdk.ToInt32(g.RunningInstanceCount); n > 0 {
		return int(n)
	}
	return int(awssdk.ToInt32(g.RequestedInstanceCount))
}

func mapInstanceTypeToDomain(info ec2types.InstanceTypeInfo) domain.MachineType {
	mt := domain.MachineType{Name: string(info.InstanceType)}
	if info.VCpuInfo != nil {
		mt.VCPUs = int(awssdk.ToInt32(info.VCpuInfo.DefaultVCpus))
	}
	if info.MemoryInfo != nil {
		mt.MemoryMB = int(awssdk.ToInt64(info.MemoryInfo.SizeInMiB))
	}
	return mt
}
