package domain

import "time"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

type ResourceDef struct {
	Platform string // dataproc
	Service  string // spark
	Name     string // cluster name
}

type AuditFinding struct {
	Id             string
	Resource       ResourceDef
	Issue          string
	Description    string
	Recommendation string
	Severity       Severity
}

// DiskEvaluationSkipped is the only disk evaluation outcome; persistent disks
// are not evaluated.
const DiskEvaluationSkipped = "skipped"

// ClusterResult is the outcome of auditing a single cluster within a run.
type ClusterResult struct {
	Cluster     Cluster
	Shape       HardwareShape
	MachineType string
	Report      *ConfigurationReport
	Archived    bool // raw descriptor written to the sink
	Published   bool // recommendation report written to the sink
	EvaluatedAt time.Time
	Err         error

	DiskEvaluation string
}

func (r ClusterResult) Failed() bool {
	return r.Err != nil
}

// AuditRun summarizes one pass over every cluster of a target.
type AuditRun struct {
	ID         string
	Provider   string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []ClusterResult
}

func (r AuditRun) Evaluated() int {
	n := 0
	for _, res := range r.Results {
		if res.Report != nil {
			n++
		}
	}
	return n
}

func (r AuditRun) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}
