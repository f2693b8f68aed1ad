package adapters

import (
	"github.com/de-tools/spark-advisor/pkg/models/api"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityLow:
		return api.SeverityLow
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityCritical:
		return api.SeverityCritical
	default:
		return api.SeverityLow
	}
}

func MapResourceDefinitionDomainToApi(def domain.ResourceDef) api.ResourceDef {
	return api.ResourceDef{
		Platform: def.Platform,
		Service:  def.Service,
		Name:     def.Name,
	}
}

func MapAuditFindingDomainToApi(f domain.AuditFinding) api.AuditFinding {
	return api.AuditFinding{
		Id:             f.Id,
		Resource:       MapResourceDefinitionDomainToApi(f.Resource),
		Issue:          f.Issue,
		Description:    f.Description,
		Recommendation: f.Recommendation,
		Severity:       MapSeverityDomainToApi(f.Severity),
	}
}

func MapAuditFindingsDomainToApi(findings []domain.AuditFinding) []api.AuditFinding {
	res := make([]api.AuditFinding, 0, len(findings))
	for _, f := range findings {
		res = append(res, MapAuditFindingDomainToApi(f))
	}
	return res
}

func MapClusterResultDomainToApi(r domain.ClusterResult) api.ClusterResult {
	res := api.ClusterResult{
		Cluster:        r.Cluster.Name,
		MachineType:    r.MachineType,
		Status:         "evaluated",
		Archived:       r.Archived,
		Published:      r.Published,
		DiskEvaluation: r.DiskEvaluation,
	}
	if r.Report != nil {
		res.Recommendations = len(r.Report.Recommendations)
		res.Findings = MapAuditFindingsDomainToApi(r.Report.Findings)
	}
	if r.Err != nil {
		res.Status = "failed"
		res.Error = r.Err.Error()
	}
	return res
}

func MapAuditRunDomainToApi(r domain.AuditRun) api.AuditRun {
	res := api.AuditRun{
		ID:         r.ID,
		Provider:   r.Provider,
		Target:     r.Target,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Evaluated:  r.Evaluated(),
		Failed:     r.Failed(),
		Clusters:   make([]api.ClusterResult, 0, len(r.Results)),
	}
	for _, c := range r.Results {
		res.Clusters = append(res.Clusters, MapClusterResultDomainToApi(c))
	}
	return res
}
