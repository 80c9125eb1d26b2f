package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/toy-mna/pkg/ode"
	"github.com/edp1096/toy-mna/pkg/util"
)

// stepResponse ignores the netlist: R and C come from the configuration.
func (e *env) stepResponse(_ string, cfg Config) (Result, error) {
	o, err := decodeODE(cfg)
	if err != nil {
		return Result{}, err
	}
	res, err := ode.StepResponse(o.params())
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "RC step solved (τ ≈ %.2f ms)\n", res.Tau*1e3)
	fmt.Fprintf(&sb, "R = %s, C = %s, Vstep = %s, method %s, %d points\n",
		util.FormatValueFactor(o.R, "Ohm"), util.FormatValueFactor(o.C, "F"), util.FormatValueFactor(o.VStep, "V"), res.Method, len(res.T))
	fmt.Fprintf(&sb, "Rise time 10-90%%: reference τ·ln 9 = %s", util.FormatValueFactor(res.RiseRef, "s"))
	if math.IsNaN(res.Rise) {
		sb.WriteString(", measured: not reached within the span\n")
	} else {
		fmt.Fprintf(&sb, ", measured %s (%.2f%% off)\n", util.FormatValueFactor(res.Rise, "s"), 100*math.Abs(res.Rise-res.RiseRef)/res.RiseRef)
	}
	fmt.Fprintf(&sb, "v(%g·τ) = %.4f V\n", o.Span, res.Final)
	if res.Suspect {
		fmt.Fprintf(&sb, "WARNING: overshoot %.3e V on a first-order RC response; integration or parameters are suspect\n", res.Overshoot)
	} else {
		sb.WriteString("Overshoot: none\n")
	}

	t := make([]float64, len(res.T))
	for i, v := range res.T {
		t[i] = v * 1e3
	}
	return Result{
		Title:  fmt.Sprintf("RC Step Response (τ ≈ %.2f ms)", res.Tau*1e3),
		Report: sb.String(),
		Series: []Series{{Name: "v(t)", XLabel: "Time (ms)", YLabel: "v (V)", X: t, Y: res.V}},
	}, nil
}
