package quickplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bob-anderson-ok/magexp/field"
)

// Profile plots component comp of a line profile against the distance from
// its first point. A dashed black line marks zero.
func Profile(points []field.LinePoint, comp int, title, label string) (*Figure, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("quickplot: profile needs at least 2 points, got %d", len(points))
	}
	if comp < 0 || comp >= len(points[0].Value) {
		return nil, fmt.Errorf("quickplot: %w: component %d of a dim %d profile", field.ErrDim, comp, len(points[0].Value))
	}

	span := points[len(points)-1].Distance
	si, prefix := SIMultiplier(span)
	xmul := 1 / si

	p := newPlot(title)
	p.X.Label.Text = fmt.Sprintf("distance (%sm)", prefix)
	p.Y.Label.Text = label
	p.X.Tick.Marker = niceTicks(span*xmul, 8)
	p.Add(plotter.NewGrid()) // grid + ticks

	n := len(points)
	pts := make(plotter.XYs, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, pt := range points {
		pts[i].X = pt.Distance * xmul
		pts[i].Y = pt.Value[comp]
		lo = math.Min(lo, pts[i].Y)
		hi = math.Max(hi, pts[i].Y)
	}
	if lo <= hi {
		p.Y.Tick.Marker = niceTicks(hi-lo, 6)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255} // blue
	p.Add(line)

	hpts := plotter.XYs{
		{X: 0.0, Y: 0.0},
		{X: span * xmul, Y: 0.0},
	}
	hline, err := plotter.NewLine(hpts)
	if err != nil {
		return nil, err
	}
	hline.Dashes = []vg.Length{
		vg.Points(6), // dash length
		vg.Points(4), // gap length
	}
	hline.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255} // black
	p.Add(hline)

	return &Figure{Plot: p, scale: [2]float64{xmul, 1}}, nil
}
