package analysis

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-mna/pkg/sensitivity"
)

func (e *env) sensitivity(text string, cfg Config) (Result, error) {
	o, err := decodeError(cfg)
	if err != nil {
		return Result{}, err
	}
	_, sys, err := build(text)
	if err != nil {
		return Result{}, err
	}

	rep, err := sensitivity.Analyze(sys, sensitivity.Options{
		RelSigma:   o.Sigma,
		Seed:       uint64(o.Seed),
		Trials:     o.Trials,
		Method:     o.method(),
		SolverOpts: e.solverOptions(),
	})
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	mean := 0.0
	for _, v := range rep.NodeErrors {
		mean += v
	}
	if len(rep.NodeErrors) > 0 {
		mean /= float64(len(rep.NodeErrors))
	}
	fmt.Fprintf(&sb, "Mean relative error: %.3f %%\n", mean*100)
	fmt.Fprintf(&sb, "‖ΔV‖/‖V‖ = %.3e (σ = %.2f%% on %d entries of G, seed %d)\n", rep.RelError, o.Sigma*100, rep.Entries, o.Seed)
	if o.Trials > 1 {
		fmt.Fprintf(&sb, "Over %d trials: mean %.3e, max %.3e\n", o.Trials, rep.MeanRel, rep.MaxRel)
	}
	fmt.Fprintf(&sb, "cond₂(G) = %.3e\n\n", rep.Cond)
	fmt.Fprintf(&sb, "%-6s %12s %12s %10s\n", "Node", "V nominal", "V perturbed", "Error %")
	s := Series{Name: "relative error", XLabel: "Node", YLabel: "Error %"}
	for i, node := range rep.NodeOrder {
		fmt.Fprintf(&sb, "%-6s %12.6f %12.6f %10.4f\n", fmt.Sprintf("V(%d)", node), rep.Nominal[i], rep.Perturbed[i], rep.NodeErrors[i]*100)
		s.X = append(s.X, float64(node))
		s.Y = append(s.Y, rep.NodeErrors[i]*100)
	}

	return Result{Title: "Relative Node-Voltage Error (%)", Report: sb.String(), Series: []Series{s}}, nil
}
