package main

import (
	"coach/internal/configuration"
	"coach/internal/engine"
	"coach/internal/logging"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const app = "coach"

var (
	// Used for flags.
	configPath      string
	metricsTextfile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "coach scores job search projects and picks the advice that applies to them",
		Long: `coach evaluates a user's job search project against the built-in and declarative
scoring models: single model scores, filtered content lists and full diagnostics.

Requests are read from a YAML file holding the user, the project and the feature flags.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if metricsTextfile == "" {
				return nil
			}
			return prometheus.WriteToTextfile(metricsTextfile, prometheus.DefaultGatherer)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/coach/config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write the engine counters to this file in the node exporter textfile format")
}

// setup loads the configuration, installs the logger and builds the engine. The returned
// function releases the log and audit files.
func setup() (*engine.Engine, func(), error) {
	config, err := configuration.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to load configuration: %w", err)
	}
	logCloser := logging.Setup(config.Logger)

	e, err := engine.Build(config, slog.Default())
	if err != nil {
		logCloser.Close()
		return nil, nil, fmt.Errorf("unable to initialize engine: %w", err)
	}
	cleanup := func() {
		if err := e.Close(); err != nil {
			slog.Error("Audit trail close", "error", err)
		}
		logCloser.Close()
	}
	return e, cleanup, nil
}

// setupChecked is setup followed by the startup check, which is fatal.
func setupChecked() (*engine.Engine, func(), error) {
	e, cleanup, err := setup()
	if err != nil {
		return nil, nil, err
	}
	if err := e.Check(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("engine check failed: %w", err)
	}
	return e, cleanup, nil
}

func printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Any startup or command error exits with code 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
