package builtin

import (
	"github.com/de-tools/spark-advisor/pkg/services/provider"
	"github.com/de-tools/spark-advisor/pkg/services/provider/databricks"
	"github.com/de-tools/spark-advisor/pkg/services/provider/dataproc"
	"github.com/de-tools/spark-advisor/pkg/services/provider/emr"
)

// Factories returns the factory of every supported provider keyed by name.
func Factories() map[string]provider.Factory {
	return map[string]provider.Factory{
		dataproc.Name:   dataproc.New,
		databricks.Name: databricks.New,
		emr.Name:        emr.New,
	}
}

func NewRegistry() (provider.Registry, error) {
	return provider.NewRegistry(Factories())
}
