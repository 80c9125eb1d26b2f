package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	assignments []string
	plotPath    string
	dumpMetrics bool
	logLevel    string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:           "toymna",
		Short:         "DC modified nodal analysis with parameter-sweep numerics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	runCmd = &cobra.Command{
		Use:   "run <capability> <netlist-file|->",
		Short: "Run one analysis capability on a netlist",
		Args:  cobra.ExactArgs(2),
		RunE:  runCapability,
	}

	solveCmd = &cobra.Command{
		Use:   "solve <netlist-file|->",
		Short: "Print node voltages and source currents (same as run solve)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapability(cmd, []string{"solve", args[0]})
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List available capabilities",
		Args:  cobra.NoArgs,
		RunE:  listCapabilities,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	for _, c := range []*cobra.Command{runCmd, solveCmd} {
		c.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with capability parameters")
		c.Flags().StringArrayVarP(&assignments, "set", "s", nil, "parameter override key=value (repeatable)")
		c.Flags().StringVarP(&plotPath, "plot", "p", "", "render result series to this .png/.svg/.pdf file")
		c.Flags().BoolVar(&dumpMetrics, "metrics", false, "print solver metrics after the run")
	}
	solveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print the MNA equations and matrix summary")

	rootCmd.AddCommand(runCmd, solveCmd, listCmd)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
