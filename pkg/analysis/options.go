package analysis

import (
	"strings"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/ode"
	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/edp1096/toy-mna/pkg/sweep"
)

// decoder collects the first error while reading typed values.
type decoder struct {
	cfg Config
	err error
}

func (d *decoder) float(key string, def float64) float64 {
	v, err := d.cfg.Float(key, def)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func (d *decoder) int(key string, def int) int {
	v, err := d.cfg.Int(key, def)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func (d *decoder) string(key, def string) string { return d.cfg.String(key, def) }

// keyword reads an enumerated value, case-insensitively.
func (d *decoder) keyword(key, def string) string { return strings.ToLower(d.cfg.String(key, def)) }

type solveOptions struct {
	Method  string `cfg:"method" validate:"oneof=direct lu iterative cg gmres"`
	Workers int    `cfg:"workers" validate:"gte=1,lte=64"`
}

func (o solveOptions) method() solver.Method {
	m, _ := solver.ParseMethod(o.Method)
	return m
}

type sweepOptions struct {
	solveOptions
	Element string  `cfg:"element" validate:"required"`
	Node    int     `cfg:"target_node" validate:"gte=0"`
	Min     float64 `cfg:"value_min"`
	Max     float64 `cfg:"value_max" validate:"gtfield=Min"`
}

type rootOptions struct {
	sweepOptions
	Target  float64 `cfg:"target_voltage"`
	Tol     float64 `cfg:"tolerance" validate:"gt=0"`
	MaxIter int     `cfg:"max_iter" validate:"gte=1,lte=10000"`
}

type optimizeOptions struct {
	sweepOptions
	Objective string  `cfg:"objective" validate:"oneof=min max"`
	Quantity  string  `cfg:"quantity" validate:"oneof=power voltage"`
	Tol       float64 `cfg:"tolerance" validate:"gt=0"`
	MaxIter   int     `cfg:"max_iter" validate:"gte=1,lte=100000"`
}

type interpolateOptions struct {
	sweepOptions
	Samples int    `cfg:"samples" validate:"gte=5,lte=100000"`
	Dense   int    `cfg:"dense" validate:"gte=2,lte=1000000"`
	Spacing string `cfg:"spacing" validate:"oneof=linear log"`
}

type diffIntOptions struct {
	sweepOptions
	Samples int `cfg:"samples" validate:"gte=3,lte=100000"`
}

type errorOptions struct {
	solveOptions
	Sigma  float64 `cfg:"sigma" validate:"gte=0,lte=1"`
	Seed   int     `cfg:"seed" validate:"gte=0"`
	Trials int     `cfg:"trials" validate:"gte=1,lte=10000"`
}

type odeOptions struct {
	R      float64 `cfg:"ode_r" validate:"gt=0"`
	C      float64 `cfg:"ode_c" validate:"gt=0"`
	VStep  float64 `cfg:"ode_vstep" validate:"ne=0"`
	Span   float64 `cfg:"ode_span" validate:"gt=0,lte=1000"`
	Method string  `cfg:"ode_method" validate:"oneof=rk45 gear trap"`
	Order  int     `cfg:"ode_order" validate:"gte=1,lte=6"`
}

type waveformOptions struct {
	solveOptions
	Source    string  `cfg:"source" validate:"required"`
	Node      int     `cfg:"target_node" validate:"gte=0"`
	Amplitude float64 `cfg:"amplitude"`
	Frequency float64 `cfg:"frequency" validate:"gt=0"`
	Duration  float64 `cfg:"duration" validate:"gt=0"`
	Frames    int     `cfg:"frames" validate:"gte=2,lte=100000"`
}

func decodeSolve(d *decoder) solveOptions {
	return solveOptions{
		Method:  d.keyword("method", "direct"),
		Workers: d.int("workers", 4),
	}
}

func decodeSweep(d *decoder, lo, hi float64) sweepOptions {
	return sweepOptions{
		solveOptions: decodeSolve(d),
		Element:      d.string("element", "R1"),
		Node:         d.int("target_node", 1),
		Min:          d.float("value_min", lo),
		Max:          d.float("value_max", hi),
	}
}

func decode[T any](cfg Config, fn func(*decoder) T) (T, error) {
	d := &decoder{cfg: cfg}
	opts := fn(d)
	if d.err != nil {
		return opts, d.err
	}
	return opts, validateOptions(opts)
}

func decodeRoot(cfg Config) (rootOptions, error) {
	return decode(cfg, func(d *decoder) rootOptions {
		return rootOptions{
			sweepOptions: decodeSweep(d, 10, 10000),
			Target:       d.float("target_voltage", 5),
			Tol:          d.float("tolerance", consts.BisectTol),
			MaxIter:      d.int("max_iter", consts.BisectMaxIter),
		}
	})
}

func decodeOptimize(cfg Config) (optimizeOptions, error) {
	return decode(cfg, func(d *decoder) optimizeOptions {
		return optimizeOptions{
			sweepOptions: decodeSweep(d, 1, 50000),
			Objective:    d.keyword("objective", "min"),
			Quantity:     d.keyword("quantity", "power"),
			Tol:          d.float("tolerance", consts.OptimizeXTol),
			MaxIter:      d.int("max_iter", consts.OptimizeMaxIter),
		}
	})
}

func decodeInterpolate(cfg Config) (interpolateOptions, error) {
	return decode(cfg, func(d *decoder) interpolateOptions {
		return interpolateOptions{
			sweepOptions: decodeSweep(d, 10, 10000),
			Samples:      d.int("samples", 12),
			Dense:        d.int("dense", 300),
			Spacing:      d.keyword("spacing", "linear"),
		}
	})
}

func decodeDiffInt(cfg Config) (diffIntOptions, error) {
	return decode(cfg, func(d *decoder) diffIntOptions {
		return diffIntOptions{
			sweepOptions: decodeSweep(d, 10, 10000),
			Samples:      d.int("samples", 40),
		}
	})
}

func decodeError(cfg Config) (errorOptions, error) {
	return decode(cfg, func(d *decoder) errorOptions {
		return errorOptions{
			solveOptions: decodeSolve(d),
			Sigma:        d.float("sigma", consts.NoiseSigma),
			Seed:         d.int("seed", consts.NoiseSeed),
			Trials:       d.int("trials", 1),
		}
	})
}

func decodeODE(cfg Config) (odeOptions, error) {
	return decode(cfg, func(d *decoder) odeOptions {
		return odeOptions{
			R:      d.float("ode_r", 1000),
			C:      d.float("ode_c", 1e-6),
			VStep:  d.float("ode_vstep", consts.StepVolts),
			Span:   d.float("ode_span", consts.StepSpan),
			Method: d.keyword("ode_method", "rk45"),
			Order:  d.int("ode_order", 2),
		}
	})
}

func decodeWaveform(cfg Config) (waveformOptions, error) {
	return decode(cfg, func(d *decoder) waveformOptions {
		return waveformOptions{
			solveOptions: decodeSolve(d),
			Source:       d.string("source", "V1"),
			Node:         d.int("target_node", 1),
			Amplitude:    d.float("amplitude", 10),
			Frequency:    d.float("frequency", 1),
			Duration:     d.float("duration", 5),
			Frames:       d.int("frames", 100),
		}
	})
}

func decodeSolveOnly(cfg Config) (solveOptions, error) {
	return decode(cfg, decodeSolve)
}

func (o odeOptions) params() ode.Params {
	m, _ := ode.ParseMethod(o.Method)
	return ode.Params{R: o.R, C: o.C, VStep: o.VStep, Span: o.Span, Method: m, Order: o.Order}
}

func (o interpolateOptions) spacing() sweep.Spacing {
	s, _ := sweep.ParseSpacing(o.Spacing)
	return s
}

func (o optimizeOptions) quantity() sweep.Quantity {
	q, _ := sweep.ParseQuantity(o.Quantity)
	return q
}
