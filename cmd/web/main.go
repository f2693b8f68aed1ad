package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/spark-advisor/pkg/server"
	"github.com/de-tools/spark-advisor/pkg/services/audit"
	"github.com/de-tools/spark-advisor/pkg/services/config"
	"github.com/de-tools/spark-advisor/pkg/services/provider/builtin"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the Spark advisor",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the advisor configuration file (environment only when empty)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Server.Host == "" || cfg.Server.Port == "" {
		return fmt.Errorf("missing server host or port configuration")
	}

	registry, err := builtin.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to create provider registry: %w", err)
	}

	env, err := audit.Setup(ctx, *cfg, registry, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release audit resources")
		}
	}()

	logger.Info().Msgf("Auditing `%s` clusters of `%s`, publishing to `%s`.", cfg.Provider, cfg.Target(), cfg.Sink)

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Dependencies: server.Dependencies{
			Auditor: env.Runner,
			History: env.History,
		},
	})

	return api.Start()
}
