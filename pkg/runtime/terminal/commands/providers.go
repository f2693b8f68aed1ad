package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

func NewProvidersCmd(registry provider.Registry, writer io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported cluster providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.ListProviders() {
				if _, err := fmt.Fprintln(writer, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
