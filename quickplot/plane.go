package quickplot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/bob-anderson-ok/magexp/field"
)

// ErrNoFiniteValues is returned for planes holding only NaN or ±Inf.
var ErrNoFiniteValues = errors.New("quickplot: field has no finite values")

const paletteSize = 255

// Options controls a heat map.
type Options struct {
	Title string
	// Component selects the plotted component of a vector field.
	Component int
	// Reciprocal marks fields living on a frequency mesh; axes are then
	// labelled in inverse length.
	Reciprocal bool
}

// Plane draws a heat map of one component of a plane field, i.e. a field
// one cell thick along some axis. Signed data use a diverging blue-red
// palette centred on zero, non-negative data the extended black body
// palette.
func Plane(f *field.Field, o Options) (*Figure, error) {
	_, u, v, ok := f.Mesh.PlaneAxes()
	if !ok {
		return nil, fmt.Errorf("quickplot: %w: mesh has %v cells", field.ErrNotPlane, f.Mesh.N)
	}
	if o.Component < 0 || o.Component >= f.Dim {
		return nil, fmt.Errorf("quickplot: %w: component %d of a dim %d field", field.ErrDim, o.Component, f.Dim)
	}

	g := planeGrid{f: f, u: u, v: v, comp: o.Component}
	lo, hi, err := g.bounds()
	if err != nil {
		return nil, err
	}

	xs, xmul, xunit := scaledCoordinates(f.Mesh, u, o.Reciprocal)
	ys, ymul, yunit := scaledCoordinates(f.Mesh, v, o.Reciprocal)
	g.xs, g.ys = xs, ys

	var cm palette.ColorMap
	if lo < 0 && hi > 0 {
		cm = moreland.SmoothBlueRed()
		hi = math.Max(-lo, hi)
		lo = -hi
	} else {
		cm = moreland.ExtendedBlackBody()
	}
	if hi == lo {
		hi = lo + 1 // avoid divide-by-zero; image becomes constant
	}
	cm.SetMax(1)
	cm.SetMin(0)

	h := plotter.NewHeatMap(g, cm.Palette(paletteSize))
	h.Min, h.Max = lo, hi

	p := newPlot(o.Title)
	p.X.Label.Text = axisLabel(u, xunit, o.Reciprocal)
	p.Y.Label.Text = axisLabel(v, yunit, o.Reciprocal)
	p.X.Tick.Marker = niceTicks(xs[len(xs)-1]-xs[0], 6)
	p.Y.Tick.Marker = niceTicks(ys[len(ys)-1]-ys[0], 6)
	p.Add(h)

	return &Figure{Plot: p, scale: [2]float64{xmul, ymul}}, nil
}

func axisLabel(a field.Axis, unit string, reciprocal bool) string {
	if reciprocal {
		return fmt.Sprintf("k%v (%s)", a, unit)
	}
	return fmt.Sprintf("%v (%s)", a, unit)
}

// scaledCoordinates returns the cell-centre coordinates along a in plot
// units, the plot units per field unit and the unit label.
func scaledCoordinates(m *field.Mesh, a field.Axis, reciprocal bool) ([]float64, float64, string) {
	coords := m.Coordinates(a)
	largest := math.Max(math.Abs(field.Get(m.P1, a)), math.Abs(field.Get(m.P2, a)))

	var mul float64
	var unit string
	if reciprocal {
		var prefix string
		mul, prefix = SIMultiplier(1 / largest)
		unit = prefix + "m⁻¹"
	} else {
		var si float64
		var prefix string
		si, prefix = SIMultiplier(largest)
		mul = 1 / si
		unit = prefix + "m"
	}
	for i := range coords {
		coords[i] *= mul
	}
	return coords, mul, unit
}

// planeGrid adapts a plane field to plotter.GridXYZ. Columns run along the
// first in-plane axis, rows along the second.
type planeGrid struct {
	f      *field.Field
	u, v   field.Axis
	comp   int
	xs, ys []float64
}

func (g planeGrid) Dims() (c, r int) { return g.f.Mesh.N[g.u], g.f.Mesh.N[g.v] }
func (g planeGrid) X(c int) float64  { return g.xs[c] }
func (g planeGrid) Y(r int) float64  { return g.ys[r] }

func (g planeGrid) Z(c, r int) float64 {
	var idx [3]int
	idx[g.u] = c
	idx[g.v] = r
	return g.f.At(idx[0], idx[1], idx[2])[g.comp]
}

func (g planeGrid) bounds() (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	cols, rows := g.Dims()
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			z := g.Z(c, r)
			if math.IsNaN(z) || math.IsInf(z, 0) {
				continue
			}
			lo = math.Min(lo, z)
			hi = math.Max(hi, z)
		}
	}
	if lo > hi {
		return 0, 0, ErrNoFiniteValues
	}
	return lo, hi, nil
}
