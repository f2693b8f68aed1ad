package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

// Reporter outputs audit run summaries to the console in a formatted text form
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(run *domain.AuditRun) error {
	tmpl := `
Audit {{.ID}} ({{.Provider}} {{.Target}})
Started: {{.StartedAt.Format "2006-01-02 15:04:05"}}  Finished: {{.FinishedAt.Format "2006-01-02 15:04:05"}}
Evaluated: {{.Evaluated}}  Failed: {{.Failed}}
{{range .Clusters}}
- {{.Cluster}}{{if .MachineType}} [{{.MachineType}}]{{end}}: {{.Status}}{{if .Error}} ({{.Error}}){{else}}, {{.Recommendations}} recommendation(s){{end}}
{{- range .Findings}}
    {{.Severity}}: {{.Description}}
{{- end}}
{{end}}
`
	t, err := template.New("run").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, adapters.MapAuditRunDomainToApi(*run))
}
