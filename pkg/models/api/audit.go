package api

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type ResourceDef struct {
	Platform string `json:"platform"`
	Service  string `json:"service"`
	Name     string `json:"name"`
}

type AuditFinding struct {
	Id             string      `json:"id"`
	Resource       ResourceDef `json:"resource"`
	Issue          string      `json:"issue"`
	Description    string      `json:"description"`
	Recommendation string      `json:"recommendation"`
	Severity       Severity    `json:"severity"`
}

type ClusterResult struct {
	Cluster         string         `json:"cluster"`
	MachineType     string         `json:"machine_type,omitempty"`
	Status          string         `json:"status"`
	Archived        bool           `json:"archived"`
	Published       bool           `json:"published"`
	Recommendations int            `json:"recommendations"`
	Findings        []AuditFinding `json:"findings,omitempty"`
	DiskEvaluation  string         `json:"disk_evaluation,omitempty"`
	Error           string         `json:"error,omitempty"`
}

type AuditRun struct {
	ID         string          `json:"id"`
	Provider   string          `json:"provider"`
	Target     string          `json:"target"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Evaluated  int             `json:"evaluated"`
	Failed     int             `json:"failed"`
	Clusters   []ClusterResult `json:"clusters,omitempty"`
}
