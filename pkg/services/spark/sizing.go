package spark

import (
	"math"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

const (
	// CoresPerExecutor is the executor width the sizing packs node cores into.
	CoresPerExecutor = 5
	// ReservedMemoryMB is kept back on every node for the OS and node daemons.
	ReservedMemoryMB = 1024
	// TasksPerExecutor scales total executors into default parallelism.
	TasksPerExecutor = 10
)

// Sizing holds the values derived from a cluster's hardware shape.
type Sizing struct {
	ExecutorsPerNode   int
	TotalExecutors     int
	UsableMemoryMB     int
	ExecutorMemoryMB   int
	MemoryOverheadMB   int
	DefaultParallelism int
}

// Size derives executor layout and memory split from a hardware shape.
//
// One vCPU per node is left to the node daemons and the rest is packed into
// executors of CoresPerExecutor cores. The rounding is math.Round (half away
// from zero); (vcpus-1)/5 never lands on .5 so the tie-break is never exercised.
// One executor slot is given up cluster-wide for the application master.
// Executor memory gets 90% of the per-executor share and overhead 10%, both
// computed in exact integer arithmetic. Nodes with less than ReservedMemoryMB
// get 0m for both instead of the negative sizes plain subtraction would give.
func Size(shape domain.HardwareShape) Sizing {
	perNode := int(math.Round(float64(shape.VCPUsPerNode-1) / CoresPerExecutor))
	if perNode < 1 {
		perNode = 1
	}

	total := perNode*shape.NodeCount - 1
	if total < 1 {
		total = 1
	}

	usable := shape.MemoryMBPerNode - ReservedMemoryMB
	if usable < 0 {
		usable = 0
	}

	return Sizing{
		ExecutorsPerNode:   perNode,
		TotalExecutors:     total,
		UsableMemoryMB:     usable,
		ExecutorMemoryMB:   usable * 9 / (perNode * 10),
		MemoryOverheadMB:   ceilDiv(usable, perNode*10),
		DefaultParallelism: total * TasksPerExecutor,
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
