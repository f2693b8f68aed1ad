package terminal

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/spark-advisor/pkg/runtime/terminal/commands"
	"github.com/de-tools/spark-advisor/pkg/services/provider"
)

// CLI represents the command-line interface
type CLI struct {
	registry provider.Registry
	output   io.Writer
	logger   zerolog.Logger
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Registry provider.Registry
	Output   io.Writer
	// Logger defaults to a console logger on stderr.
	Logger *zerolog.Logger
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		registry: opts.Registry,
		output:   opts.Output,
	}
	if opts.Logger != nil {
		cli.logger = *opts.Logger
	} else {
		cli.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides the arguments the CLI parses, os.Args[1:] by default.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "spark-advisor",
		Short:         "Audit Spark cluster configurations against hardware-derived sizing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := cli.logger.Level(level)
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	cmd.SetOut(cli.output)
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(commands.NewAuditCmd(cli.registry, NewReporter(cli.output)))
	cmd.AddCommand(commands.NewEvaluateCmd(cli.output))
	cmd.AddCommand(commands.NewProvidersCmd(cli.registry, cli.output))

	return cmd
}
