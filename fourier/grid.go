package fourier

import (
	"gonum.org/v1/gonum/floats"

	"github.com/bob-anderson-ok/magexp/field"
)

// binFrequency is the centred frequency of bin i of an n-point transform with
// sample spacing d.
func binFrequency(i, n int, d float64) float64 {
	return float64(i-n/2) / (float64(n) * d)
}

// frequencyMesh maps a spatial mesh to the mesh of centred frequency bins.
// Along transformed axes the cell is 1/(n·d) and the cell centres sit on the
// bin frequencies; other axes keep their spatial geometry.
func frequencyMesh(m *field.Mesh, axes []field.Axis) *field.Mesh {
	p1, cell := m.P1, m.Cell
	for _, a := range axes {
		n := m.N[a]
		df := 1 / (float64(n) * field.Get(m.Cell, a))
		cell = field.Set(cell, a, df)
		p1 = field.Set(p1, a, (float64(-(n/2))-0.5)*df)
	}
	return field.MeshFromCells(p1, cell, m.N)
}

// FrequencyGrid returns, for every axis in axes, the centred frequency of
// each bin along that axis.
func FrequencyGrid(m *field.Mesh, axes ...field.Axis) ([][]float64, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	out := make([][]float64, len(axes))
	for i, a := range axes {
		n := m.N[a]
		d := field.Get(m.Cell, a)
		out[i] = make([]float64, n)
		if n == 1 {
			continue
		}
		floats.Span(out[i], binFrequency(0, n, d), binFrequency(n-1, n, d))
	}
	return out, nil
}
