package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/de-tools/spark-advisor/pkg/runtime/terminal"
	"github.com/de-tools/spark-advisor/pkg/services/provider/builtin"
)

func main() {
	// A missing .env is fine; the environment may already carry the settings.
	_ = godotenv.Load()

	registry, err := builtin.NewRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := terminal.NewCLI(terminal.Options{
		Registry: registry,
		Output:   os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
