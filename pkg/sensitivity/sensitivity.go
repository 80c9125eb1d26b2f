package sensitivity

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/edp1096/toy-mna/pkg/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

type Options struct {
	RelSigma   float64 // Relative standard deviation of each G entry
	Seed       uint64
	Trials     int
	Method     solver.Method
	SolverOpts []solver.Option
}

func DefaultOptions() Options {
	return Options{
		RelSigma: consts.NoiseSigma,
		Seed:     consts.NoiseSeed,
		Trials:   1,
		Method:   solver.Direct,
	}
}

type Report struct {
	Nominal    []float64 // Node voltages of the unperturbed system
	Perturbed  []float64 // Node voltages of the first trial
	NodeOrder  []int
	NodeErrors []float64 // |ΔV_i| / max(|V_i|, 1e-12), first trial
	RelErrors  []float64 // ‖ΔV‖ / ‖V‖ per trial
	RelError   float64   // First trial
	MeanRel    float64
	MaxRel     float64
	Cond       float64 // 2-norm condition number of nominal G
	Entries    int     // Non-zero entries perturbed per trial
}

// Analyze perturbs every non-zero entry of G by g·(1+N(0,σ)), re-solves and
// measures how far the node voltages move. The noise stream depends only on
// opts.Seed.
func Analyze(sys *matrix.System, opts Options) (*Report, error) {
	if opts.RelSigma < 0 || math.IsNaN(opts.RelSigma) {
		return nil, fmt.Errorf("sensitivity: invalid relative sigma %g", opts.RelSigma)
	}
	if opts.Trials <= 0 {
		opts.Trials = 1
	}

	nominal, err := solver.Solve(sys, opts.Method, opts.SolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("nominal solve: %w", err)
	}
	v0 := nominal.NodeVoltages()
	norm0 := floats.Norm(v0, 2)
	if norm0 == 0 {
		norm0 = 1e-12
	}

	g := sys.G()
	rep := &Report{
		Nominal:   v0,
		NodeOrder: append([]int(nil), sys.NodeOrder...),
		Cond:      mat.Cond(g, 2),
	}

	noise := distuv.Normal{
		Mu:    0,
		Sigma: opts.RelSigma,
		Src:   rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15),
	}

	r, c := g.Dims()
	for trial := 0; trial < opts.Trials; trial++ {
		pg := mat.DenseCopyOf(g)
		count := 0
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := g.At(i, j); v != 0 {
					pg.Set(i, j, v*(1+noise.Rand()))
					count++
				}
			}
		}
		rep.Entries = count

		psys, err := sys.WithMatrix(pg)
		if err != nil {
			return nil, err
		}
		sol, err := solver.Solve(psys, opts.Method, opts.SolverOpts...)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial+1, err)
		}
		v := sol.NodeVoltages()

		dv := make([]float64, len(v))
		floats.SubTo(dv, v, v0)
		rel := floats.Norm(dv, 2) / norm0
		rep.RelErrors = append(rep.RelErrors, rel)

		if trial == 0 {
			rep.Perturbed = v
			rep.RelError = rel
			rep.NodeErrors = make([]float64, len(v))
			for i := range v {
				rep.NodeErrors[i] = math.Abs(dv[i]) / math.Max(math.Abs(v0[i]), 1e-12)
			}
		}
	}

	rep.MeanRel = floats.Sum(rep.RelErrors) / float64(len(rep.RelErrors))
	rep.MaxRel = floats.Max(rep.RelErrors)
	return rep, nil
}
