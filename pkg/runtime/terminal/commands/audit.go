package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/spark-advisor/pkg/models/domain"
	"github.com/de-tools/spark-advisor/pkg/services/audit"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

// RunReporter renders the summary of an audit run.
type RunReporter interface {
	Handle(run *domain.AuditRun) error
}

type AuditCmd struct {
	configPath string
	timeout    time.Duration
	registry   provider.Registry
	reporter   RunReporter
}

func NewAuditCmd(registry provider.Registry, reporter RunReporter) *cobra.Command {
	ac := &AuditCmd{registry: registry, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit every cluster of the configured target and publish the reports",
		RunE:  ac.run,
	}

	cmd.Flags().StringVarP(&ac.configPath, "config", "c", "", "Path to the advisor configuration file (env only when empty)")
	cmd.Flags().DurationVar(&ac.timeout, "timeout", 10*time.Minute, "Maximum duration of the run")

	return cmd
}

func (ac *AuditCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ac.timeout)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	cfg, err := config.Load(ac.configPath)
	if err != nil {
		return err
	}

	env, err := audit.Setup(ctx, *cfg, ac.registry, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release audit resources")
		}
	}()

	run, runErr := env.Runner.Run(ctx)
	if run != nil {
		if err := ac.reporter.Handle(run); err != nil {
			return fmt.Errorf("failed to print run summary: %w", err)
		}
	}
	return runErr
}
