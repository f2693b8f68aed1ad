package adapters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/de-tools/spark-advisor/pkg/models/api"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MapPropertiesToDomain picks the tracked Spark properties out of a raw
// property map. Keys must carry prefix (e.g. "spark:" on Dataproc) followed by
// the dotted Spark name; anything else is ignored.
func MapPropertiesToDomain(raw map[string]string, prefix string) domain.PropertyMap {
	props := make(domain.PropertyMap)
	for key, value := range raw {
		name, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if prop, ok := domain.ParseSparkProperty(name); ok {
			props[prop] = value
		}
	}
	return props
}

// MapPropertiesDomainToRaw is the inverse of MapPropertiesToDomain.
func MapPropertiesDomainToRaw(props domain.PropertyMap, prefix string) map[string]string {
	raw := make(map[string]string, len(props))
	for prop, value := range props {
		raw[prefix+prop.Key()] = value
	}
	return raw
}

func MapConfigurationReportDomainToApi(r domain.ConfigurationReport) api.ConfigurationReport {
	current := orderedmap.New[string, any]()
	current.Set(api.KeyClusterName, r.Current.ClusterName)
	current.Set(api.KeyMachineType, r.Current.MachineType)
	current.Set(api.KeyNodeCount, r.Current.NodeCount)
	current.Set(api.KeyVCPUsPerNode, r.Current.VCPUsPerNode)
	current.Set(api.KeyMemoryMBPerNode, r.Current.MemoryMBPerNode)

	recommendations := orderedmap.New[string, string]()
	for _, prop := range domain.TrackedProperties() {
		current.Set(prop.Key(), r.Current.Properties.Get(prop))
		if value, ok := r.Recommendations[prop]; ok {
			recommendations.Set(prop.Key(), value)
		}
	}

	return api.ConfigurationReport{
		CurrentConfiguration: current,
		Recommendations:      recommendations,
	}
}

// MarshalConfigurationReport renders the report document persisted per cluster.
func MarshalConfigurationReport(r domain.ConfigurationReport) ([]byte, error) {
	doc, err := json.MarshalIndent(MapConfigurationReportDomainToApi(r), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report for cluster %s: %w", r.Current.ClusterName, err)
	}
	return doc, nil
}

func MapEvaluateRequestToDomain(req api.EvaluateRequest) (domain.HardwareShape, domain.PropertyMap) {
	shape := domain.HardwareShape{
		NodeCount:       req.NodeCount,
		VCPUsPerNode:    req.VCPUsPerNode,
		MemoryMBPerNode: req.MemoryMBPerNode,
	}
	return shape, MapPropertiesToDomain(req.Properties, "")
}
