package spark

import (
	"errors"
	"fmt"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

// Evaluate compares a cluster's Spark properties against the sizing policy for
// its hardware shape.
//
// The returned report echoes every tracked property, with memory sizes
// normalized to megabytes, and recommends a value only for properties that
// violate their rule. Absent properties read as empty. The only error is an
// invalid shape; Evaluate has no side effects and is safe for concurrent use.
func Evaluate(
	clusterName, machineType string,
	shape domain.HardwareShape,
	props domain.PropertyMap,
) (domain.ConfigurationReport, error) {
	if err := shape.Validate(); err != nil {
		return domain.ConfigurationReport{}, err
	}

	sizing := Size(shape)
	report := domain.ConfigurationReport{
		Current: domain.CurrentConfiguration{
			ClusterName:     clusterName,
			MachineType:     machineType,
			NodeCount:       shape.NodeCount,
			VCPUsPerNode:    shape.VCPUsPerNode,
			MemoryMBPerNode: shape.MemoryMBPerNode,
			Properties:      make(domain.PropertyMap, len(policy)),
		},
		Recommendations: map[domain.SparkProperty]string{},
		Findings:        []domain.AuditFinding{},
	}

	for _, prop := range domain.TrackedProperties() {
		rule, _ := PolicyFor(prop)
		current := props.Get(prop)

		var issue error
		if !props.Has(prop) {
			issue = domain.ErrMissingProperty
		}
		if prop.IsMemory() {
			normalized, err := NormalizeMemory(current)
			if err != nil {
				issue = err
			}
			current = normalized
		}
		report.Current.Properties[prop] = current

		if rule.Satisfied(current, sizing) {
			continue
		}

		expected := rule.Expected(sizing)
		report.Recommendations[prop] = expected
		report.Findings = append(report.Findings, newFinding(clusterName, prop, rule, current, expected, issue))
	}

	return report, nil
}

func newFinding(
	clusterName string,
	prop domain.SparkProperty,
	rule Rule,
	current, expected string,
	issue error,
) domain.AuditFinding {
	severity := domain.SeverityMedium
	if rule.Kind == RuleRequired {
		severity = domain.SeverityLow
	}

	f := domain.AuditFinding{
		Id:             fmt.Sprintf("%s_%s", clusterName, prop.Key()),
		Resource:       domain.ResourceDef{Platform: "spark", Service: "cluster", Name: clusterName},
		Issue:          "property_mismatch",
		Description:    fmt.Sprintf("%s is %q, expected %q.", prop.Key(), current, expected),
		Recommendation: fmt.Sprintf("Set %s to %s.", prop.Key(), expected),
		Severity:       severity,
	}

	switch {
	case errors.Is(issue, domain.ErrMalformedMemoryUnit):
		f.Issue = "malformed_memory_unit"
		f.Description = fmt.Sprintf("%s has an unrecognized memory unit (%q); it cannot be compared to %q.", prop.Key(), current, expected)
	case errors.Is(issue, domain.ErrMissingProperty) || current == "":
		f.Issue = "missing_property"
		f.Description = fmt.Sprintf("%s is not set.", prop.Key())
	}

	return f
}
