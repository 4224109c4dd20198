package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNotPlane is returned by operations that need a field one cell thick
// along some axis.
var ErrNotPlane = errors.New("field: not a plane")

// LinePoint is one sample of a line profile.
type LinePoint struct {
	Point    r3.Vec    // position in the plane
	Distance float64   // distance from the first point of the line
	Value    []float64 // interpolated value, Dim components
}

// Line samples a plane field at n evenly spaced points from p1 to p2,
// both included. Values are bilinearly interpolated between cell centres
// and clamped to the outermost centres.
func (f *Field) Line(p1, p2 r3.Vec, n int) ([]LinePoint, error) {
	normal, u, v, ok := f.Mesh.PlaneAxes()
	if !ok {
		return nil, fmt.Errorf("%w: mesh has %v cells", ErrNotPlane, f.Mesh.N)
	}
	if n < 2 {
		return nil, fmt.Errorf("field: line needs at least 2 points, got %d", n)
	}
	for _, p := range []r3.Vec{p1, p2} {
		for _, a := range []Axis{u, v} {
			if _, err := f.Mesh.CellIndex(a, Get(p, a)); err != nil {
				return nil, err
			}
		}
	}
	// The normal coordinate is ignored; the line lives in the plane.
	plane := Get(f.Mesh.Point(0, 0, 0), normal)
	p1 = Set(p1, normal, plane)
	p2 = Set(p2, normal, plane)

	step := r3.Scale(1/float64(n-1), r3.Sub(p2, p1))
	out := make([]LinePoint, n)
	for s := 0; s < n; s++ {
		p := r3.Add(p1, r3.Scale(float64(s), step))
		out[s] = LinePoint{
			Point:    p,
			Distance: r3.Norm(r3.Sub(p, p1)),
			Value:    f.interpolate(u, v, p),
		}
	}
	return out, nil
}

// interpolate performs bilinear interpolation in the (u, v) plane.
func (f *Field) interpolate(u, v Axis, p r3.Vec) []float64 {
	// Fractional cell-centre index along each in-plane axis.
	frac := func(a Axis) (int, int, float64) {
		n := f.Mesh.N[a]
		x := (Get(p, a)-Get(f.Mesh.P1, a))/Get(f.Mesh.Cell, a) - 0.5
		if n == 1 || x <= 0 {
			return 0, 0, 0
		}
		if x >= float64(n-1) {
			return n - 1, n - 1, 0
		}
		i0 := int(math.Floor(x))
		return i0, i0 + 1, x - float64(i0)
	}
	u0, u1, uf := frac(u)
	v0, v1, vf := frac(v)

	at := func(iu, iv int) []float64 {
		var idx [3]int
		idx[u] = iu
		idx[v] = iv
		return f.At(idx[0], idx[1], idx[2])
	}
	v00, v01 := at(u0, v0), at(u1, v0)
	v10, v11 := at(u0, v1), at(u1, v1)

	out := make([]float64, f.Dim)
	for c := range out {
		a := v00[c]*(1-uf) + v01[c]*uf
		b := v10[c]*(1-uf) + v11[c]*uf
		out[c] = a*(1-vf) + b*vf
	}
	return out
}
