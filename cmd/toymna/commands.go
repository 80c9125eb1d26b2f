package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/edp1096/toy-mna/pkg/analysis"
	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func readNetlist(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading netlist from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading netlist file: %w", err)
	}
	return string(data), nil
}

func runCapability(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	text, err := readNetlist(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath, id, assignments)
	if err != nil {
		return err
	}
	if verbose {
		cfg["verbose"] = true
	}

	reg := prometheus.NewRegistry()
	metrics, err := solver.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	registry, err := analysis.Default(analysis.WithMetrics(metrics))
	if err != nil {
		return err
	}

	res, runErr := registry.Run(id, text, cfg)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(res.Title))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("run %s, %s", res.RunID, res.Elapsed)))
	fmt.Fprintln(out)
	if runErr != nil {
		fmt.Fprint(out, errStyle.Render(res.Report))
	} else {
		fmt.Fprint(out, res.Report)
	}

	if plotPath != "" && len(res.Series) > 0 {
		if err := savePlot(plotPath, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nPlot written to %s\n", plotPath)
	}

	if dumpMetrics {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}

	return runErr
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func listCapabilities(cmd *cobra.Command, args []string) error {
	registry, err := analysis.Default()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, id := range registry.IDs() {
		e, _ := registry.Lookup(id)
		fmt.Fprintf(out, "%-12s %s\n", id, e.Description)
	}
	return nil
}
