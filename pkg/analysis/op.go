package analysis

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/edp1096/toy-mna/pkg/util"
	"gonum.org/v1/gonum/mat"
)

func build(text string) (*circuit.Circuit, *matrix.System, error) {
	ckt, err := circuit.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	sys, err := ckt.Build()
	if err != nil {
		return nil, nil, err
	}
	return ckt, sys, nil
}

// voltageSeries plots node voltages against physical node number.
func voltageSeries(name string, sol *solver.Solution) Series {
	s := Series{Name: name, XLabel: "Node", YLabel: "Voltage (V)"}
	for i, node := range sol.NodeOrder {
		s.X = append(s.X, float64(node))
		s.Y = append(s.Y, sol.X[i])
	}
	return s
}

func voltageList(sol *solver.Solution) string {
	parts := make([]string, 0, len(sol.NodeOrder))
	for _, v := range sol.NodeVoltages() {
		parts = append(parts, fmt.Sprintf("%.3f V", v))
	}
	return strings.Join(parts, ", ")
}

// writeSolution lists node voltages by physical node, then voltage source
// currents. Auxiliary rows never appear as node voltages.
func writeSolution(sb *strings.Builder, sol *solver.Solution) {
	sb.WriteString("\nNode Voltages:\n")
	for i, node := range sol.NodeOrder {
		fmt.Fprintf(sb, "V(%d) = %s\n", node, util.FormatValueFactor(sol.X[i], "V"))
	}
	if len(sol.SourceOrder) > 0 {
		sb.WriteString("\nBranch Currents:\n")
		for _, name := range sol.SourceOrder {
			i, _ := sol.SourceCurrent(name)
			fmt.Fprintf(sb, "I(%s) = %s\n", name, util.FormatValueFactor(i, "A"))
		}
	}
}

func (e *env) solve(text string, cfg Config) (Result, error) {
	opts, err := decodeSolveOnly(cfg)
	if err != nil {
		return Result{}, err
	}
	_, sys, err := build(text)
	if err != nil {
		return Result{}, err
	}
	sol, err := solver.Solve(sys, opts.method(), e.solverOptions()...)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Node voltages: %s\n", voltageList(sol))
	writeSolution(&sb, sol)
	fmt.Fprintf(&sb, "\nResidual ‖G·x − I‖ = %.3e (%s)\n", solver.Residual(sys, sol.X), sol.Method)
	if v, _ := cfg.Bool("verbose", false); v {
		sys.PrintSystem(&sb)
		sys.PrintSummary(&sb)
	}

	return Result{
		Title:  "Linear Solver",
		Report: sb.String(),
		Series: []Series{voltageSeries("V(node)", sol)},
	}, nil
}

func writeMatrix(sb *strings.Builder, name string, m mat.Matrix) {
	r, c := m.Dims()
	fmt.Fprintf(sb, "\n%s =\n", name)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sb.WriteString(util.FormatMagnitude(m.At(i, j)))
		}
		sb.WriteByte('\n')
	}
}

func (e *env) lu(text string, cfg Config) (Result, error) {
	_, sys, err := build(text)
	if err != nil {
		return Result{}, err
	}
	f, err := solver.Factorize(sys)
	if err != nil {
		return Result{}, err
	}
	sol, err := solver.Solve(sys, solver.LU, e.solverOptions()...)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Node voltages (LU): %s\n", voltageList(sol))
	writeSolution(&sb, sol)
	fmt.Fprintf(&sb, "\ndet(G) = %.6g, cond(G) = %.3e, permutation sign %+.0f\n", f.Det, f.Cond, f.PermutationSign())
	writeMatrix(&sb, "P", f.P)
	writeMatrix(&sb, "L", f.L)
	writeMatrix(&sb, "U", f.U)

	return Result{
		Title:  "LU Decomposition",
		Report: sb.String(),
		Series: []Series{voltageSeries("V(node) LU", sol)},
	}, nil
}
