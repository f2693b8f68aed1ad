package api

import (
	"encoding/json"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Keys of the scalar fields of a report's current_configuration section.
const (
	KeyClusterName     = "cluster_name"
	KeyMachineType     = "machine_type"
	KeyNodeCount       = "node_count"
	KeyVCPUsPerNode    = "vcpus_per_node"
	KeyMemoryMBPerNode = "memory_mb_per_node"
)

// ConfigurationReport is the persisted report document. Both sections keep a
// stable key order so artifacts diff cleanly between runs.
type ConfigurationReport struct {
	CurrentConfiguration *orderedmap.OrderedMap[string, any]    `json:"current_configuration"`
	Recommendations      *orderedmap.OrderedMap[string, string] `json:"recommendations"`
}

// EvaluateRequest describes a cluster to evaluate without contacting any provider.
type EvaluateRequest struct {
	ClusterName     string            `json:"cluster_name"`
	MachineType     string            `json:"machine_type"`
	NodeCount       int               `json:"node_count"`
	VCPUsPerNode    int               `json:"vcpus_per_node"`
	MemoryMBPerNode int               `json:"memory_mb_per_node"`
	Properties      map[string]string `json:"properties"`
}

type EvaluateResponse struct {
	Report   ConfigurationReport `json:"report"`
	Findings []AuditFinding      `json:"findings"`
}

// ClusterReport is a stored report from the history of a cluster.
type ClusterReport struct {
	RunID           string          `json:"run_id"`
	ClusterName     string          `json:"cluster_name"`
	MachineType     string          `json:"machine_type"`
	NodeCount       int             `json:"node_count"`
	VCPUsPerNode    int             `json:"vcpus_per_node"`
	MemoryMBPerNode int             `json:"memory_mb_per_node"`
	Recommendations int             `json:"recommendations"`
	Report          json.RawMessage `json:"report,omitempty"`
	Error           string          `json:"error,omitempty"`
	EvaluatedAt     time.Time       `json:"evaluated_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
