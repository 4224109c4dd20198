package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDim is returned for a value dimension other than 1 or 3, or when an
	// operation needs a specific dimension.
	ErrDim = errors.New("field: unsupported value dimension")
	// ErrShape is returned when an array does not match the mesh.
	ErrShape = errors.New("field: array shape does not match mesh")
)

// Field holds real samples on a mesh.
type Field struct {
	Mesh *Mesh
	Dim  int
	Data []float64
}

func checkDim(dim int) error {
	if dim != 1 && dim != 3 {
		return fmt.Errorf("%w: %d", ErrDim, dim)
	}
	return nil
}

// Zeros returns a zero-valued field.
func Zeros(mesh *Mesh, dim int) (*Field, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	return &Field{Mesh: mesh, Dim: dim, Data: make([]float64, mesh.Cells()*dim)}, nil
}

// New samples fn at every cell centre. fn must return dim values.
func New(mesh *Mesh, dim int, fn func(p r3.Vec) []float64) (*Field, error) {
	f, err := Zeros(mesh, dim)
	if err != nil {
		return nil, err
	}
	for i := 0; i < mesh.N[0]; i++ {
		for j := 0; j < mesh.N[1]; j++ {
			for k := 0; k < mesh.N[2]; k++ {
				v := fn(mesh.Point(i, j, k))
				if len(v) != dim {
					return nil, fmt.Errorf("%w: value function returned %d components, want %d", ErrShape, len(v), dim)
				}
				copy(f.At(i, j, k), v)
			}
		}
	}
	return f, nil
}

// NewVector samples a vector-valued function at every cell centre.
func NewVector(mesh *Mesh, fn func(p r3.Vec) r3.Vec) *Field {
	f, _ := Zeros(mesh, 3)
	for idx := 0; idx < mesh.Cells(); idx++ {
		v := fn(mesh.Point(mesh.Unravel(idx)))
		f.Data[3*idx], f.Data[3*idx+1], f.Data[3*idx+2] = v.X, v.Y, v.Z
	}
	return f
}

// NewConstant returns a field holding value in every cell. The dimension is
// len(value).
func NewConstant(mesh *Mesh, value ...float64) (*Field, error) {
	f, err := Zeros(mesh, len(value))
	if err != nil {
		return nil, err
	}
	for idx := 0; idx < mesh.Cells(); idx++ {
		copy(f.Data[idx*f.Dim:], value)
	}
	return f, nil
}

// FromArray wraps a copy of data laid out as [ix][iy][iz][c].
func FromArray(mesh *Mesh, dim int, data []float64) (*Field, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	if len(data) != mesh.Cells()*dim {
		return nil, fmt.Errorf("%w: have %d values, want %d", ErrShape, len(data), mesh.Cells()*dim)
	}
	out := make([]float64, len(data))
	copy(out, data)
	return &Field{Mesh: mesh, Dim: dim, Data: out}, nil
}

// At returns the value slice of cell (i, j, k). The slice aliases the field.
func (f *Field) At(i, j, k int) []float64 {
	idx := f.Mesh.Index(i, j, k) * f.Dim
	return f.Data[idx : idx+f.Dim]
}

// Vec returns the vector stored in cell idx of a Dim 3 field.
func (f *Field) Vec(idx int) r3.Vec {
	return r3.Vec{X: f.Data[3*idx], Y: f.Data[3*idx+1], Z: f.Data[3*idx+2]}
}

// Clone returns a deep copy sharing the mesh.
func (f *Field) Clone() *Field {
	out := make([]float64, len(f.Data))
	copy(out, f.Data)
	return &Field{Mesh: f.Mesh, Dim: f.Dim, Data: out}
}

// Component extracts component c as a scalar field.
func (f *Field) Component(c int) (*Field, error) {
	if c < 0 || c >= f.Dim {
		return nil, fmt.Errorf("%w: component %d of a %d-dimensional field", ErrDim, c, f.Dim)
	}
	out, _ := Zeros(f.Mesh, 1)
	for idx := range out.Data {
		out.Data[idx] = f.Data[idx*f.Dim+c]
	}
	return out, nil
}

// Norm returns |v| per cell.
func (f *Field) Norm() *Field {
	out, _ := Zeros(f.Mesh, 1)
	for idx := range out.Data {
		s := 0.0
		for c := 0; c < f.Dim; c++ {
			v := f.Data[idx*f.Dim+c]
			s += v * v
		}
		out.Data[idx] = math.Sqrt(s)
	}
	return out
}

// WithNorm rescales every vector to the length returned by ms at the cell
// centre. Zero vectors stay zero.
func (f *Field) WithNorm(ms func(p r3.Vec) float64) *Field {
	out := f.Clone()
	norm := f.Norm()
	for idx := range norm.Data {
		n := norm.Data[idx]
		if n == 0 {
			continue
		}
		s := ms(f.Mesh.Point(f.Mesh.Unravel(idx))) / n
		for c := 0; c < f.Dim; c++ {
			out.Data[idx*f.Dim+c] *= s
		}
	}
	return out
}

// Scale multiplies every sample by s.
func (f *Field) Scale(s float64) *Field {
	out := f.Clone()
	floats.Scale(s, out.Data)
	return out
}

// Add returns f + g.
func (f *Field) Add(g *Field) (*Field, error) {
	if !f.Mesh.SameShape(g.Mesh) || f.Dim != g.Dim {
		return nil, fmt.Errorf("%w: cannot add %v/%d to %v/%d", ErrShape, g.Mesh.N, g.Dim, f.Mesh.N, f.Dim)
	}
	out := f.Clone()
	floats.Add(out.Data, g.Data)
	return out, nil
}

// Dot returns v · f per cell for a Dim 3 field.
func (f *Field) Dot(v r3.Vec) (*Field, error) {
	if f.Dim != 3 {
		return nil, fmt.Errorf("%w: dot product needs a vector field", ErrDim)
	}
	out, _ := Zeros(f.Mesh, 1)
	for idx := range out.Data {
		out.Data[idx] = r3.Dot(f.Vec(idx), v)
	}
	return out, nil
}

// Sum returns the per-component sum over all cells.
func (f *Field) Sum() []float64 {
	s := make([]float64, f.Dim)
	for idx := 0; idx < f.Mesh.Cells(); idx++ {
		for c := 0; c < f.Dim; c++ {
			s[c] += f.Data[idx*f.Dim+c]
		}
	}
	return s
}

// Mean returns the per-component average over all cells.
func (f *Field) Mean() []float64 {
	s := f.Sum()
	floats.Scale(1/float64(f.Mesh.Cells()), s)
	return s
}

// Integrate sums f·d along a. The result lives on the mesh reduced along a.
func (f *Field) Integrate(a Axis) *Field {
	reduced := f.Mesh.Reduce(a)
	out, _ := Zeros(reduced, f.Dim)
	d := Get(f.Mesh.Cell, a)
	for idx := 0; idx < f.Mesh.Cells(); idx++ {
		i, j, k := f.Mesh.Unravel(idx)
		switch a {
		case X:
			i = 0
		case Y:
			j = 0
		default:
			k = 0
		}
		dst := out.At(i, j, k)
		for c := 0; c < f.Dim; c++ {
			dst[c] += f.Data[idx*f.Dim+c] * d
		}
	}
	return out
}

// Plane returns the one-cell-thick slice at index idx along a.
func (f *Field) Plane(a Axis, idx int) (*Field, error) {
	pm, err := f.Mesh.Plane(a, idx)
	if err != nil {
		return nil, err
	}
	out, _ := Zeros(pm, f.Dim)
	for p := 0; p < pm.Cells(); p++ {
		i, j, k := pm.Unravel(p)
		si, sj, sk := i, j, k
		switch a {
		case X:
			si = idx
		case Y:
			sj = idx
		default:
			sk = idx
		}
		copy(out.Data[p*f.Dim:(p+1)*f.Dim], f.At(si, sj, sk))
	}
	return out, nil
}

// PlaneAt returns the slice through the cell containing coordinate c along a.
func (f *Field) PlaneAt(a Axis, c float64) (*Field, error) {
	idx, err := f.Mesh.CellIndex(a, c)
	if err != nil {
		return nil, err
	}
	return f.Plane(a, idx)
}

// Derivative returns the first or second derivative along a.
//
// The first derivative uses central differences in the interior and
// one-sided differences at the boundary. The second derivative uses the
// three-point stencil with the boundary value replicated outward. Along an
// axis with a single cell both derivatives are zero.
func (f *Field) Derivative(a Axis, order int) (*Field, error) {
	if order != 1 && order != 2 {
		return nil, fmt.Errorf("field: derivative order %d not supported", order)
	}
	out, _ := Zeros(f.Mesh, f.Dim)
	n := f.Mesh.N[a]
	if n == 1 {
		return out, nil
	}
	d := Get(f.Mesh.Cell, a)
	stride := f.stride(a)
	for idx := 0; idx < f.Mesh.Cells(); idx++ {
		i, j, k := f.Mesh.Unravel(idx)
		pos := [3]int{i, j, k}[a]
		base := idx * f.Dim
		for c := 0; c < f.Dim; c++ {
			at := func(offset int) float64 {
				p := clamp(pos+offset, 0, n-1)
				return f.Data[base+(p-pos)*stride+c]
			}
			switch order {
			case 1:
				switch pos {
				case 0:
					out.Data[base+c] = (at(1) - at(0)) / d
				case n - 1:
					out.Data[base+c] = (at(0) - at(-1)) / d
				default:
					out.Data[base+c] = (at(1) - at(-1)) / (2 * d)
				}
			case 2:
				out.Data[base+c] = (at(1) - 2*at(0) + at(-1)) / (d * d)
			}
		}
	}
	return out, nil
}

// stride returns the distance in Data between neighbouring cells along a.
func (f *Field) stride(a Axis) int {
	switch a {
	case X:
		return f.Mesh.N[1] * f.Mesh.N[2] * f.Dim
	case Y:
		return f.Mesh.N[2] * f.Dim
	default:
		return f.Dim
	}
}

// ArgMax returns the cell index (i, j, k) holding the largest value of
// component c.
func (f *Field) ArgMax(c int) (i, j, k int) {
	best := 0
	for idx := 1; idx < f.Mesh.Cells(); idx++ {
		if f.Data[idx*f.Dim+c] > f.Data[best*f.Dim+c] {
			best = idx
		}
	}
	return f.Mesh.Unravel(best)
}

// ArgMin returns the cell index (i, j, k) holding the smallest value of
// component c.
func (f *Field) ArgMin(c int) (i, j, k int) {
	best := 0
	for idx := 1; idx < f.Mesh.Cells(); idx++ {
		if f.Data[idx*f.Dim+c] < f.Data[best*f.Dim+c] {
			best = idx
		}
	}
	return f.Mesh.Unravel(best)
}

// Count returns the number of samples for which keep returns true.
func (f *Field) Count(keep func(v float64) bool) int {
	n := 0
	for _, v := range f.Data {
		if keep(v) {
			n++
		}
	}
	return n
}

// Complex converts f to a complex field with zero imaginary part.
func (f *Field) Complex() *CField {
	out := &CField{Mesh: f.Mesh, Dim: f.Dim, Data: make([]complex128, len(f.Data))}
	for i, v := range f.Data {
		out.Data[i] = complex(v, 0)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
