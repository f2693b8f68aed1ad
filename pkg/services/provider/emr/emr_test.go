package emr

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/emr"
	"github.com/aws/aws-sdk-go-v2/service/emr/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

type mockEMR struct {
	mock.Mock
}

func (m *mockEMR) ListClusters(ctx context.Context, params *emr.ListClustersInput, _ ...func(*emr.Options)) (*emr.ListClustersOutput, error) {
	args := m.Called(ctx, params)
	if v := args.Get(0); v != nil {
		return v.(*emr.ListClustersOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEMR) DescribeCluster(ctx context.Context, params *emr.DescribeClusterInput, _ ...func(*emr.Options)) (*emr.DescribeClusterOutput, error) {
	args := m.Called(ctx, awssdk.ToString(params.ClusterId))
	if v := args.Get(0); v != nil {
		return v.(*emr.DescribeClusterOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEMR) ListInstanceGroups(ctx context.Context, params *emr.ListInstanceGroupsInput, _ ...func(*emr.Options)) (*emr.ListInstanceGroupsOutput, error) {
	args := m.Called(ctx, awssdk.ToString(params.ClusterId))
	if v := args.Get(0); v != nil {
		return v.(*emr.ListInstanceGroupsOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEC2 struct {
	mock.Mock
}

func (m *mockEC2) DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	args := m.Called(ctx, params)
	if v := args.Get(0); v != nil {
		return v.(*ec2.DescribeInstanceTypesOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func describedCluster(id, name string) *emr.DescribeClusterOutput {
	return &emr.DescribeClusterOutput{Cluster: &types.Cluster{
		Id:                    awssdk.String(id),
		Name:                  awssdk.String(name),
		Status:                &types.ClusterStatus{State: types.ClusterStateWaiting},
		Ec2InstanceAttributes: &types.Ec2InstanceAttributes{Ec2AvailabilityZone: awssdk.String("us-east-1a")},
		Configurations: []types.Configuration{
			{Classification: awssdk.String("yarn-site"), Properties: map[string]string{"yarn.x": "1"}},
			{Classification: awssdk.String("spark-defaults"), Properties: map[string]string{
				"spark.executor.cores":            "5",
				"spark.dynamicAllocation.enabled": "false",
			}},
		},
	}}
}

func TestListClusters_UsesCoreGroup(t *testing.T) {
	api := new(mockEMR)
	api.On("ListClusters", mock.Anything, mock.Anything).Return(&emr.ListClustersOutput{
		Clusters: []types.ClusterSummary{{Id: awssdk.String("j-1"), Name: awssdk.String("etl")}},
	}, nil)
	api.On("DescribeCluster", mock.Anything, "j-1").Return(describedCluster("j-1", "etl"), nil)
	api.On("ListInstanceGroups", mock.Anything, "j-1").Return(&emr.ListInstanceGroupsOutput{
		InstanceGroups: []types.InstanceGroup{
			{InstanceGroupType: types.InstanceGroupTypeMaster, InstanceType: awssdk.String("m5.xlarge"), RunningInstanceCount: awssdk.Int32(1)},
			{InstanceGroupType: types.InstanceGroupTypeCore, InstanceType: awssdk.String("r5.4xlarge"), RunningInstanceCount: awssdk.Int32(3)},
		},
	}, nil)

	p := NewWithAPIs("us-east-1", api, new(mockEC2))
	var clusters []domain.Cluster
	for c, err := range p.ListClusters(context.Background()) {
		require.NoError(t, err)
		clusters = append(clusters, c)
	}

	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Equal(t, "j-1", c.ID)
	assert.Equal(t, "etl", c.Name)
	assert.Equal(t, "WAITING", c.State)
	assert.Equal(t, "us-east-1a", c.Zone)
	assert.Equal(t, domain.InstanceGroup{MachineType: "r5.4xlarge", Instances: 3}, c.Worker)
	assert.Equal(t, domain.PropertyMap{
		domain.PropExecutorCores:            "5",
		domain.PropDynamicAllocationEnabled: "false",
	}, c.Properties)
	assert.NotEmpty(t, c.Raw)
	api.AssertExpectations(t)
}

func TestListClusters_MasterOnly(t *testing.T) {
	api := new(mockEMR)
	api.On("ListClusters", mock.Anything, mock.Anything).Return(&emr.ListClustersOutput{
		Clusters: []types.ClusterSummary{{Id: awssdk.String("j-2")}},
	}, nil)
	api.On("DescribeCluster", mock.Anything, "j-2").Return(describedCluster("j-2", "tiny"), nil)
	api.On("ListInstanceGroups", mock.Anything, "j-2").Return(&emr.ListInstanceGroupsOutput{
		InstanceGroups: []types.InstanceGroup{
			{InstanceGroupType: types.InstanceGroupTypeMaster, InstanceType: awssdk.String("m5.xlarge"), RequestedInstanceCount: awssdk.Int32(1)},
		},
	}, nil)

	p := NewWithAPIs("us-east-1", api, new(mockEC2))
	for c, err := range p.ListClusters(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, domain.InstanceGroup{MachineType: "m5.xlarge", Instances: 1}, c.Worker)
	}
}

func TestListClusters_DescribeErrorKeepsSiblings(t *testing.T) {
	api := new(mockEMR)
	api.On("ListClusters", mock.Anything, mock.Anything).Return(&emr.ListClustersOutput{
		Clusters: []types.ClusterSummary{
			{Id: awssdk.String("j-1"), Name: awssdk.String("adhoc")},
			{Id: awssdk.String("j-2"), Name: awssdk.String("etl")},
		},
	}, nil)
	api.On("DescribeCluster", mock.Anything, "j-1").Return(nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"})
	api.On("DescribeCluster", mock.Anything, "j-2").Return(describedCluster("j-2", "etl"), nil)
	api.On("ListInstanceGroups", mock.Anything, "j-2").Return(&emr.ListInstanceGroupsOutput{
		InstanceGroups: []types.InstanceGroup{
			{InstanceGroupType: types.InstanceGroupTypeCore, InstanceType: awssdk.String("r5.4xlarge"), RunningInstanceCount: awssdk.Int32(3)},
		},
	}, nil)

	p := NewWithAPIs("us-east-1", api, new(mockEC2))
	var (
		clusters []domain.Cluster
		failed   []*domain.ClusterError
	)
	for c, err := range p.ListClusters(context.Background()) {
		if err != nil {
			var clusterErr *domain.ClusterError
			require.ErrorAs(t, err, &clusterErr)
			failed = append(failed, clusterErr)
			continue
		}
		clusters = append(clusters, c)
	}

	require.Len(t, failed, 1)
	assert.Equal(t, "adhoc", failed[0].Cluster.Name)
	assert.Equal(t, "j-1", failed[0].Cluster.ID)
	assert.NotEmpty(t, failed[0].Cluster.Raw)
	assert.Contains(t, failed[0].Error(), "ThrottlingException")

	require.Len(t, clusters, 1)
	assert.Equal(t, "etl", clusters[0].Name)
	api.AssertExpectations(t)
}

func TestListClusters_ListErrorEndsSequence(t *testing.T) {
	api := new(mockEMR)
	api.On("ListClusters", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	p := NewWithAPIs("us-east-1", api, new(mockEC2))
	var errs []error
	for _, err := range p.ListClusters(context.Background()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	var clusterErr *domain.ClusterError
	assert.False(t, errors.As(errs[0], &clusterErr))
	assert.Contains(t, errs[0].Error(), "access denied")
}

func TestLookupMachineTypes(t *testing.T) {
	ec2Client := new(mockEC2)
	ec2Client.On("DescribeInstanceTypes", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeInstanceTypesInput) bool {
		return len(in.InstanceTypes) == 1 && in.InstanceTypes[0] == "r5.4xlarge"
	})).Return(&ec2.DescribeInstanceTypesOutput{InstanceTypes: []ec2types.InstanceTypeInfo{{
		InstanceType: "r5.4xlarge",
		VCpuInfo:     &ec2types.VCpuInfo{DefaultVCpus: awssdk.Int32(16)},
		MemoryInfo:   &ec2types.MemoryInfo{SizeInMiB: awssdk.Int64(131072)},
	}}}, nil)

	p := NewWithAPIs("us-east-1", new(mockEMR), ec2Client)
	cluster := domain.Cluster{Worker: domain.InstanceGroup{MachineType: "r5.4xlarge", Instances: 3}}

	_, shape, err := provider.ResolveShape(context.Background(), p, cluster)
	require.NoError(t, err)
	assert.Equal(t, domain.HardwareShape{NodeCount: 3, VCPUsPerNode: 16, MemoryMBPerNode: 131072}, shape)
}

func TestLookupMachineTypes_UnknownTypeIsMismatch(t *testing.T) {
	ec2Client := new(mockEC2)
	ec2Client.On("DescribeInstanceTypes", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "InvalidInstanceType", Message: "The following supplied instance types do not exist: [r9.huge]"})

	p := NewWithAPIs("us-east-1", new(mockEMR), ec2Client)
	cluster := domain.Cluster{Worker: domain.InstanceGroup{MachineType: "r9.huge", Instances: 3}}

	_, _, err := provider.ResolveShape(context.Background(), p, cluster)
	assert.ErrorIs(t, err, domain.ErrLookupMismatch)
}

func TestLookupMachineTypes_OtherErrorsPropagate(t *testing.T) {
	ec2Client := new(mockEC2)
	ec2Client.On("DescribeInstanceTypes", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "UnauthorizedOperation", Message: "denied"})

	p := NewWithAPIs("us-east-1", new(mockEMR), ec2Client)
	_, err := p.LookupMachineTypes(context.Background(), "", "r5.4xlarge")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLookupMismatch)
	assert.Contains(t, err.Error(), "UnauthorizedOperation")
}
