package main

import (
	"maps"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// latencySeries collects, per structure, the latency of one operation at each
// degree of the sweep. Structures without a degree are drawn flat.
func latencySeries(results []BenchResult, operation string, degrees []int) map[string]plotter.XYs {
	series := map[string]plotter.XYs{}
	for _, r := range results {
		if r.Operation != operation {
			continue
		}
		d, err := strconv.Atoi(r.Config)
		if err != nil {
			xys := make(plotter.XYs, len(degrees))
			for i, deg := range degrees {
				xys[i] = plotter.XY{X: float64(deg), Y: float64(r.LatencyNs)}
			}
			series[r.Name] = xys
			continue
		}
		series[r.Name] = append(series[r.Name], plotter.XY{X: float64(d), Y: float64(r.LatencyNs)})
	}
	return series
}

// PlotLatency draws latency per operation against the minimum degree.
func PlotLatency(path string, results []BenchResult, operation string, degrees []int) error {
	p := plot.New()
	p.Title.Text = operation
	p.X.Label.Text = "minimum degree"
	p.Y.Label.Text = "ns/op"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	series := latencySeries(results, operation, degrees)
	var lines []interface{}
	for _, name := range slices.Sorted(maps.Keys(series)) {
		lines = append(lines, name, series[name])
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrapf(err, "plot %s", operation)
	}
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, path), "save %s", path)
}
