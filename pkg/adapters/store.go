package adapters

import (
	"github.com/de-tools/spark-advisor/pkg/models/api"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/models/store"
)

func MapAuditRunDomainToStore(r domain.AuditRun) store.AuditRun {
	return store.AuditRun{
		ID:         r.ID,
		Provider:   r.Provider,
		Target:     r.Target,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Evaluated:  r.Evaluated(),
		Failed:     r.Failed(),
	}
}

func MapClusterResultDomainToStore(runID string, r domain.ClusterResult) (store.ClusterReport, error) {
	rec := store.ClusterReport{
		RunID:           runID,
		ClusterName:     r.Cluster.Name,
		MachineType:     r.MachineType,
		NodeCount:       r.Shape.NodeCount,
		VCPUsPerNode:    r.Shape.VCPUsPerNode,
		MemoryMBPerNode: r.Shape.MemoryMBPerNode,
		EvaluatedAt:     r.EvaluatedAt,
	}
	if r.Report != nil {
		doc, err := MarshalConfigurationReport(*r.Report)
		if err != nil {
			return store.ClusterReport{}, err
		}
		rec.Report = doc
		rec.Recommendations = len(r.Report.Recommendations)
	}
	if r.Err != nil {
		msg := r.Err.Error()
		rec.Error = &msg
	}
	return rec, nil
}

func MapAuditRunStoreToApi(r store.AuditRun) api.AuditRun {
	return api.AuditRun{
		ID:         r.ID,
		Provider:   r.Provider,
		Target:     r.Target,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Evaluated:  r.Evaluated,
		Failed:     r.Failed,
	}
}

func MapClusterReportStoreToApi(r store.ClusterReport) api.ClusterReport {
	res := api.ClusterReport{
		RunID:           r.RunID,
		ClusterName:     r.ClusterName,
		MachineType:     r.MachineType,
		NodeCount:       r.NodeCount,
		VCPUsPerNode:    r.VCPUsPerNode,
		MemoryMBPerNode: r.MemoryMBPerNode,
		Recommendations: r.Recommendations,
		Report:          r.Report,
		EvaluatedAt:     r.EvaluatedAt,
	}
	if r.Error != nil {
		res.Error = *r.Error
	}
	return res
}
