package domain

import "fmt"

// SparkProperty identifies one of the Spark properties tracked by the advisor.
type SparkProperty int

const (
	PropExecutorCores SparkProperty = iota
	PropDriverCores
	PropExecutorInstances
	PropExecutorMemory
	PropDriverMemory
	PropExecutorMemoryOverhead
	PropDefaultParallelism
	PropSQLShufflePartitions
	PropShuffleSpillCompress
	PropCheckpointCompress
	PropIOCompressionCodec
	PropDynamicAllocationEnabled
	PropShuffleServiceEnabled
)

var sparkPropertyKeys = [...]string{
	PropExecutorCores:            "spark.executor.cores",
	PropDriverCores:              "spark.driver.cores",
	PropExecutorInstances:        "spark.executor.instances",
	PropExecutorMemory:           "spark.executor.memory",
	PropDriverMemory:             "spark.driver.memory",
	PropExecutorMemoryOverhead:   "spark.executor.memoryOverhead",
	PropDefaultParallelism:       "spark.default.parallelism",
	PropSQLShufflePartitions:     "spark.sql.shuffle.partitions",
	PropShuffleSpillCompress:     "spark.shuffle.spill.compress",
	PropCheckpointCompress:       "spark.checkpoint.compress",
	PropIOCompressionCodec:       "spark.io.compression.codec",
	PropDynamicAllocationEnabled: "spark.dynamicAllocation.enabled",
	PropShuffleServiceEnabled:    "spark.shuffle.service.enabled",
}

var sparkPropertiesByKey = func() map[string]SparkProperty {
	m := make(map[string]SparkProperty, len(sparkPropertyKeys))
	for p, key := range sparkPropertyKeys {
		m[key] = SparkProperty(p)
	}
	return m
}()

// Key returns the dotted Spark property name, e.g. "spark.executor.cores".
func (p SparkProperty) Key() string {
	if p < 0 || int(p) >= len(sparkPropertyKeys) {
		return fmt.Sprintf("SparkProperty(%d)", int(p))
	}
	return sparkPropertyKeys[p]
}

func (p SparkProperty) String() string {
	return p.Key()
}

// IsMemory reports whether the property holds a JVM memory size.
func (p SparkProperty) IsMemory() bool {
	switch p {
	case PropExecutorMemory, PropDriverMemory, PropExecutorMemoryOverhead:
		return true
	default:
		return false
	}
}

// ParseSparkProperty maps a dotted Spark property name to a tracked property.
func ParseSparkProperty(key string) (SparkProperty, bool) {
	p, ok := sparkPropertiesByKey[key]
	return p, ok
}

// TrackedProperties returns every tracked property in report order.
func TrackedProperties() []SparkProperty {
	props := make([]SparkProperty, len(sparkPropertyKeys))
	for i := range sparkPropertyKeys {
		props[i] = SparkProperty(i)
	}
	return props
}

// HardwareShape describes the worker hardware a cluster runs on.
type HardwareShape struct {
	NodeCount       int
	VCPUsPerNode    int
	MemoryMBPerNode int
}

func (s HardwareShape) Validate() error {
	if s.NodeCount < 1 {
		return fmt.Errorf("%w: node count %d, must be at least 1", ErrInvalidShape, s.NodeCount)
	}
	if s.VCPUsPerNode < 1 {
		return fmt.Errorf("%w: vcpus per node %d, must be at least 1", ErrInvalidShape, s.VCPUsPerNode)
	}
	if s.MemoryMBPerNode < 0 {
		return fmt.Errorf("%w: memory per node %d MB is negative", ErrInvalidShape, s.MemoryMBPerNode)
	}
	return nil
}

// PropertyMap holds the current value of tracked properties. Absent entries read as "".
type PropertyMap map[SparkProperty]string

func (m PropertyMap) Get(p SparkProperty) string {
	return m[p]
}

func (m PropertyMap) Has(p SparkProperty) bool {
	_, ok := m[p]
	return ok
}

// CurrentConfiguration is the normalized snapshot of a cluster's configuration.
type CurrentConfiguration struct {
	ClusterName     string
	MachineType     string
	NodeCount       int
	VCPUsPerNode    int
	MemoryMBPerNode int
	Properties      PropertyMap // always holds every tracked property
}

// ConfigurationReport is the outcome of evaluating one cluster.
type ConfigurationReport struct {
	Current         CurrentConfiguration
	Recommendations map[SparkProperty]string // only properties violating policy
	Findings        []AuditFinding
}
