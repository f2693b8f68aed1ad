package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/api"
	"github.com/de-tools/spark-advisor/pkg/runtime/terminal/export"
	"github.com/de-tools/spark-advisor/pkg/services/spark"
)

type EvaluateCmd struct {
	file   string
	output string
	writer io.Writer
}

// NewEvaluateCmd evaluates a single cluster described in a JSON file, without
// contacting any provider.
func NewEvaluateCmd(writer io.Writer) *cobra.Command {
	ec := &EvaluateCmd{writer: writer}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the Spark configuration of a cluster described in a JSON file",
		Example: `  spark-advisor evaluate --file cluster.json --output yaml
  cat cluster.json | spark-advisor evaluate --file -`,
		RunE: ec.run,
	}

	cmd.Flags().StringVarP(&ec.file, "file", "f", "", "Cluster description (JSON); '-' reads stdin")
	cmd.Flags().StringVarP(&ec.output, "output", "o", string(export.FormatTable), "Output format: table, json or yaml")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (ec *EvaluateCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(ec.output)
	if err != nil {
		return err
	}

	var in io.Reader
	if ec.file == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(ec.file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", ec.file, err)
		}
		defer f.Close()
		in = f
	}

	var req api.EvaluateRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("failed to parse cluster description: %w", err)
	}

	shape, props := adapters.MapEvaluateRequestToDomain(req)
	report, err := spark.Evaluate(req.ClusterName, req.MachineType, shape, props)
	if err != nil {
		return err
	}

	return export.NewReporter(ec.writer, format).Handle(report)
}
