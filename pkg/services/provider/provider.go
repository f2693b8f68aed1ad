package provider

import (
	"context"
	"fmt"
	"iter"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

// ClusterLister enumerates the clusters of a target. The sequence is one-shot.
// A *domain.ClusterError reports a single cluster and the sequence goes on;
// any other error ends it.
type ClusterLister interface {
	ListClusters(ctx context.Context) iter.Seq2[domain.Cluster, error]
}

// MachineTypeLookup resolves a machine type name to its hardware. It may return
// zero or more candidates.
type MachineTypeLookup interface {
	LookupMachineTypes(ctx context.Context, zone, name string) ([]domain.MachineType, error)
}

type Provider interface {
	Name() string
	ClusterLister
	MachineTypeLookup
}

// ResolveShape looks up the worker machine type of a cluster and builds its
// hardware shape from the first candidate whose name matches exactly.
func ResolveShape(
	ctx context.Context,
	lookup MachineTypeLookup,
	cluster domain.Cluster,
) (domain.MachineType, domain.HardwareShape, error) {
	candidates, err := lookup.LookupMachineTypes(ctx, cluster.Zone, cluster.Worker.MachineType)
	if err != nil {
		return domain.MachineType{}, domain.HardwareShape{}, fmt.Errorf(
			"failed to look up machine type %s: %w", cluster.Worker.MachineType, err)
	}

	for _, mt := range candidates {
		if mt.Name != cluster.Worker.MachineType {
			continue
		}
		shape := domain.HardwareShape{
			NodeCount:       cluster.Worker.Instances,
			VCPUsPerNode:    mt.VCPUs,
			MemoryMBPerNode: mt.MemoryMB,
		}
		return mt, shape, nil
	}

	return domain.MachineType{}, domain.HardwareShape{}, fmt.Errorf(
		"%w: %q in zone %q", domain.ErrLookupMismatch, cluster.Worker.MachineType, cluster.Zone)
}

// FromSlice adapts a slice to a cluster sequence.
func FromSlice(clusters []domain.Cluster) iter.Seq2[domain.Cluster, error] {
	return func(yield func(domain.Cluster, error) bool) {
		for _, c := range clusters {
			if !yield(c, nil) {
				return
			}
		}
	}
}
