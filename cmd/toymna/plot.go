package main

import (
	"fmt"

	"github.com/edp1096/toy-mna/pkg/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// savePlot draws every series of res; single-point series become markers.
// The file extension selects the format.
func savePlot(path string, res analysis.Result) error {
	p := plot.New()
	p.Title.Text = res.Title
	p.X.Label.Text = res.Series[0].XLabel
	p.Y.Label.Text = res.Series[0].YLabel
	p.Add(plotter.NewGrid())

	for i, s := range res.Series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("series %q has %d x values and %d y values", s.Name, len(s.X), len(s.Y))
		}
		pts := make(plotter.XYs, len(s.X))
		for j := range s.X {
			pts[j].X, pts[j].Y = s.X[j], s.Y[j]
		}

		if len(pts) < 3 {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Name, err)
			}
			sc.Color = plotutil.Color(i)
			sc.Shape = plotutil.Shape(i)
			p.Add(sc)
			p.Legend.Add(s.Name, sc)
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
