package quickplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 1 {
		return []float64{start}
	}

	step := (end - start) / float64(n-1)

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = start + float64(i)*step
	}
	return x
}

// AddEllipse overlays the outline of an axis-aligned ellipse, given in field
// units, as a dashed red line. It marks the Tikhonov filter region on
// reciprocal-space plots.
func (fig *Figure) AddEllipse(x0, y0, a, b float64) error {
	if !(a > 0) || !(b > 0) {
		return fmt.Errorf("quickplot: ellipse semi-axes must be > 0, got %g, %g", a, b)
	}
	const n = 181
	angles := Linspace(0, 2*math.Pi, n)
	pts := make(plotter.XYs, n)
	for i, t := range angles {
		pts[i].X = (x0 + a*math.Cos(t)) * fig.scale[0]
		pts[i].Y = (y0 + b*math.Sin(t)) * fig.scale[1]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Dashes = []vg.Length{
		vg.Points(6), // dash length
		vg.Points(4), // gap length
	}
	line.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255} // red
	fig.Plot.Add(line)
	return nil
}

// AddSegment overlays a solid red line from (x1, y1) to (x2, y2), given in
// field units, e.g. the path of a line profile.
func (fig *Figure) AddSegment(x1, y1, x2, y2 float64) error {
	pts := plotter.XYs{
		{X: x1 * fig.scale[0], Y: y1 * fig.scale[1]},
		{X: x2 * fig.scale[0], Y: y2 * fig.scale[1]},
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	line.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255} // red
	fig.Plot.Add(line)
	return nil
}
