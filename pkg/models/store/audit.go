package store

import "time"

type AuditRun struct {
	ID         string
	Provider   string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Evaluated  int
	Failed     int
}

type ClusterReport struct {
	RunID           string
	ClusterName     string
	MachineType     string
	NodeCount       int
	VCPUsPerNode    int
	MemoryMBPerNode int
	Report          []byte // JSON document, nil when evaluation failed
	Recommendations int
	Error           *string
	EvaluatedAt     time.Time
}
