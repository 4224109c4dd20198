package field

import (
	"fmt"
	"math/cmplx"
)

// CField holds complex samples on a mesh. It is the value type of every
// Fourier-space quantity and of complex-valued observables such as the LTEM
// phase.
type CField struct {
	Mesh *Mesh
	Dim  int
	Data []complex128
}

// CZeros returns a zero-valued complex field.
func CZeros(mesh *Mesh, dim int) (*CField, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	return &CField{Mesh: mesh, Dim: dim, Data: make([]complex128, mesh.Cells()*dim)}, nil
}

// CFromArray wraps a copy of data laid out as [ix][iy][iz][c].
func CFromArray(mesh *Mesh, dim int, data []complex128) (*CField, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	if len(data) != mesh.Cells()*dim {
		return nil, fmt.Errorf("%w: have %d values, want %d", ErrShape, len(data), mesh.Cells()*dim)
	}
	out := make([]complex128, len(data))
	copy(out, data)
	return &CField{Mesh: mesh, Dim: dim, Data: out}, nil
}

func (f *CField) At(i, j, k int) []complex128 {
	idx := f.Mesh.Index(i, j, k) * f.Dim
	return f.Data[idx : idx+f.Dim]
}

func (f *CField) Clone() *CField {
	out := make([]complex128, len(f.Data))
	copy(out, f.Data)
	return &CField{Mesh: f.Mesh, Dim: f.Dim, Data: out}
}

// Real returns the real part as a Field on the same mesh.
func (f *CField) Real() *Field {
	return f.mapReal(func(c complex128) float64 { return real(c) })
}

// Imag returns the imaginary part as a Field on the same mesh.
func (f *CField) Imag() *Field {
	return f.mapReal(func(c complex128) float64 { return imag(c) })
}

// Abs returns |c| per sample.
func (f *CField) Abs() *Field {
	return f.mapReal(cmplx.Abs)
}

// Abs2 returns |c|² per sample.
func (f *CField) Abs2() *Field {
	return f.mapReal(func(c complex128) float64 {
		return real(c)*real(c) + imag(c)*imag(c)
	})
}

// Phase returns arg(c) per sample.
func (f *CField) Phase() *Field {
	return f.mapReal(cmplx.Phase)
}

func (f *CField) mapReal(fn func(complex128) float64) *Field {
	out := &Field{Mesh: f.Mesh, Dim: f.Dim, Data: make([]float64, len(f.Data))}
	for i, c := range f.Data {
		out.Data[i] = fn(c)
	}
	return out
}

// Conj returns the complex conjugate.
func (f *CField) Conj() *CField {
	out := f.Clone()
	for i, c := range out.Data {
		out.Data[i] = cmplx.Conj(c)
	}
	return out
}

// Scale multiplies every sample by s.
func (f *CField) Scale(s complex128) *CField {
	out := f.Clone()
	for i := range out.Data {
		out.Data[i] *= s
	}
	return out
}

// Add returns f + g.
func (f *CField) Add(g *CField) (*CField, error) {
	return f.combine(g, func(a, b complex128) complex128 { return a + b })
}

// Sub returns f - g.
func (f *CField) Sub(g *CField) (*CField, error) {
	return f.combine(g, func(a, b complex128) complex128 { return a - b })
}

func (f *CField) combine(g *CField, op func(a, b complex128) complex128) (*CField, error) {
	if !f.Mesh.SameShape(g.Mesh) || f.Dim != g.Dim {
		return nil, fmt.Errorf("%w: cannot combine %v/%d with %v/%d", ErrShape, f.Mesh.N, f.Dim, g.Mesh.N, g.Dim)
	}
	out := f.Clone()
	for i := range out.Data {
		out.Data[i] = op(out.Data[i], g.Data[i])
	}
	return out, nil
}

// Component extracts component c as a scalar complex field.
func (f *CField) Component(c int) (*CField, error) {
	if c < 0 || c >= f.Dim {
		return nil, fmt.Errorf("%w: component %d of a %d-dimensional field", ErrDim, c, f.Dim)
	}
	out, _ := CZeros(f.Mesh, 1)
	for idx := range out.Data {
		out.Data[idx] = f.Data[idx*f.Dim+c]
	}
	return out, nil
}

// Plane returns the one-cell-thick slice at index idx along a.
func (f *CField) Plane(a Axis, idx int) (*CField, error) {
	pm, err := f.Mesh.Plane(a, idx)
	if err != nil {
		return nil, err
	}
	out, _ := CZeros(pm, f.Dim)
	for p := 0; p < pm.Cells(); p++ {
		i, j, k := pm.Unravel(p)
		switch a {
		case X:
			i = idx
		case Y:
			j = idx
		default:
			k = idx
		}
		copy(out.Data[p*f.Dim:(p+1)*f.Dim], f.At(i, j, k))
	}
	return out, nil
}

// PlaneAt returns the slice through the cell containing coordinate c along a.
func (f *CField) PlaneAt(a Axis, c float64) (*CField, error) {
	idx, err := f.Mesh.CellIndex(a, c)
	if err != nil {
		return nil, err
	}
	return f.Plane(a, idx)
}

// ArgMax returns the cell holding the largest |c| of component c.
func (f *CField) ArgMax(c int) (i, j, k int) {
	best, bestAbs := 0, -1.0
	for idx := 0; idx < f.Mesh.Cells(); idx++ {
		v := cmplx.Abs(f.Data[idx*f.Dim+c])
		if v > bestAbs {
			best, bestAbs = idx, v
		}
	}
	return f.Mesh.Unravel(best)
}
