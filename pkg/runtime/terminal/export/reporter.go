package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/de-tools/spark-advisor/pkg/adapters"
	"github.com/de-tools/spark-advisor/pkg/models/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json or yaml)", s)
	}
}

type TableConfig struct {
	NameWidth        int
	CurrentWidth     int
	RecommendedWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        34,
		CurrentWidth:     24,
		RecommendedWidth: 50,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	format Format
}

func NewReporter(writer io.Writer, format Format) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	if format == "" {
		format = FormatTable
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		format: format,
	}
}

// Handle writes a configuration report in the reporter's format. The JSON
// form is byte-identical to the document published to the sink.
func (c *Reporter) Handle(report domain.ConfigurationReport) error {
	switch c.format {
	case FormatJSON:
		doc, err := adapters.MarshalConfigurationReport(report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.writer, string(doc))
		return err
	case FormatYAML:
		return c.writeYAML(report)
	default:
		return c.writeTable(report)
	}
}

// writeYAML re-reads the JSON document as a YAML node tree so the key order of
// the report survives.
func (c *Reporter) writeYAML(report domain.ConfigurationReport) error {
	doc, err := adapters.MarshalConfigurationReport(report)
	if err != nil {
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(doc, &node); err != nil {
		return fmt.Errorf("failed to convert report to yaml: %w", err)
	}
	resetStyle(&node)

	enc := yaml.NewEncoder(c.writer)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("failed to write yaml report: %w", err)
	}
	return enc.Close()
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		resetStyle(child)
	}
}

type tableRow struct {
	Name        string
	Current     string
	Recommended string
}

type tableView struct {
	Current         domain.CurrentConfiguration
	Rows            []tableRow
	Recommendations int
}

func (c *Reporter) writeTable(report domain.ConfigurationReport) error {
	view := tableView{Current: report.Current, Recommendations: len(report.Recommendations)}
	for _, prop := range domain.TrackedProperties() {
		row := tableRow{Name: prop.Key(), Current: report.Current.Properties.Get(prop), Recommended: "-"}
		if v, ok := report.Recommendations[prop]; ok {
			row.Recommended = v
		}
		view.Rows = append(view.Rows, row)
	}

	funcMap := template.FuncMap{
		"formatRow": func(name, current, recommended string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s |",
				c.config.NameWidth, name,
				c.config.CurrentWidth, current,
				c.config.RecommendedWidth, recommended)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.CurrentWidth+2),
				strings.Repeat("-", c.config.RecommendedWidth+2))
		},
	}

	tmpl := `
Cluster: {{.Current.ClusterName}} ({{.Current.MachineType}})
Nodes: {{.Current.NodeCount}} x {{.Current.VCPUsPerNode}} vCPU / {{.Current.MemoryMBPerNode}} MB
Recommendations: {{.Recommendations}}

{{separator}}
{{formatRow "Property" "Current" "Recommended"}}
{{separator}}
{{range .Rows}}{{formatRow .Name .Current .Recommended}}
{{end}}{{separator}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, view)
}
