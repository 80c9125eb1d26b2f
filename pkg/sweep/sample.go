package sweep

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

type Spacing int

const (
	Linear Spacing = iota
	Log
)

func ParseSpacing(s string) (Spacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "lin":
		return Linear, nil
	case "log", "logarithmic":
		return Log, nil
	default:
		return 0, fmt.Errorf("unknown spacing %q", s)
	}
}

// Grid returns n points from lo to hi inclusive.
func Grid(lo, hi float64, n int, spacing Spacing) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points, got %d", n)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("invalid interval [%g, %g]", lo, hi)
	}
	xs := make([]float64, n)
	switch spacing {
	case Log:
		if lo <= 0 {
			return nil, fmt.Errorf("log spacing needs lo > 0, got %g", lo)
		}
		floats.LogSpan(xs, lo, hi)
	default:
		floats.Span(xs, lo, hi)
	}
	return xs, nil
}

// Sample evaluates f at every x with at most workers concurrent evaluations.
// Results are stored by index, so the output does not depend on scheduling.
func Sample(f Func, xs []float64, workers int) ([]float64, error) {
	ys := make([]float64, len(xs))
	if workers <= 1 {
		for i, x := range xs {
			y, err := f(x)
			if err != nil {
				return nil, err
			}
			ys[i] = y
		}
		return ys, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, x := range xs {
		g.Go(func() error {
			y, err := f(x)
			if err != nil {
				return err
			}
			ys[i] = y
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ys, nil
}

// Sample evaluates the node voltage over a grid.
func (s *Sweeper) Sample(lo, hi float64, n int, spacing Spacing) ([]float64, []float64, error) {
	xs, err := Grid(lo, hi, n, spacing)
	if err != nil {
		return nil, nil, err
	}
	ys, err := Sample(s.Eval, xs, s.workers)
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// Waveform drives the swept element with amplitude·sin(2π·freq·t) at every
// time point and records the node voltage.
func (s *Sweeper) Waveform(amplitude, freq float64, times []float64) ([]float64, error) {
	drive := func(t float64) (float64, error) {
		return s.Eval(amplitude * math.Sin(2*math.Pi*freq*t))
	}
	return Sample(drive, times, s.workers)
}
