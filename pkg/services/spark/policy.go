package spark

import (
	"strconv"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

type RuleKind int

const (
	// RuleFixed requires the property to equal a single value.
	RuleFixed RuleKind = iota
	// RuleRequired only requires the property to be set; Hint explains how to choose.
	RuleRequired
	// RuleDerived computes the expected value from the cluster's sizing.
	RuleDerived
)

type Rule struct {
	Kind   RuleKind
	Value  string
	Hint   string
	Derive func(Sizing) string
}

// Expected returns the value a property should carry under the rule.
func (r Rule) Expected(s Sizing) string {
	switch r.Kind {
	case RuleFixed:
		return r.Value
	case RuleRequired:
		return r.Hint
	default:
		return r.Derive(s)
	}
}

// Satisfied reports whether current complies with the rule.
func (r Rule) Satisfied(current string, s Sizing) bool {
	if r.Kind == RuleRequired {
		return current != ""
	}
	return current == r.Expected(s)
}

const (
	codecHint          = "snappy (if splittable files), lz4 (otherwise)"
	sharedClusterHint  = "true (if multiple spark apps on cluster), false (otherwise)"
	fixedExecutorCores = "5"
)

var policy = map[domain.SparkProperty]Rule{
	domain.PropExecutorCores:        {Kind: RuleFixed, Value: fixedExecutorCores},
	domain.PropDriverCores:          {Kind: RuleFixed, Value: fixedExecutorCores},
	domain.PropShuffleSpillCompress: {Kind: RuleFixed, Value: "true"},
	domain.PropCheckpointCompress:   {Kind: RuleFixed, Value: "true"},

	domain.PropIOCompressionCodec:       {Kind: RuleRequired, Hint: codecHint},
	domain.PropShuffleServiceEnabled:    {Kind: RuleRequired, Hint: sharedClusterHint},
	domain.PropDynamicAllocationEnabled: {Kind: RuleRequired, Hint: sharedClusterHint},

	domain.PropExecutorInstances: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return strconv.Itoa(s.TotalExecutors)
	}},
	domain.PropExecutorMemory: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return megabytes(s.ExecutorMemoryMB)
	}},
	domain.PropDriverMemory: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return megabytes(s.ExecutorMemoryMB)
	}},
	domain.PropExecutorMemoryOverhead: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return megabytes(s.MemoryOverheadMB)
	}},
	domain.PropDefaultParallelism: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return strconv.Itoa(s.DefaultParallelism)
	}},
	domain.PropSQLShufflePartitions: {Kind: RuleDerived, Derive: func(s Sizing) string {
		return strconv.Itoa(s.DefaultParallelism)
	}},
}

// PolicyFor returns the rule governing a tracked property.
func PolicyFor(p domain.SparkProperty) (Rule, bool) {
	r, ok := policy[p]
	return r, ok
}
