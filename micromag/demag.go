package micromag

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/fourier"
)

// DemagField returns the demagnetisation (stray) field of the magnetisation
// m, in A/m, on the mesh of m.
//
// Cells within nearCells of each other along every axis interact through
// Newell's exact cell-averaged prism tensor; more distant cells are treated
// as point dipoles of moment M·V. A cell acts on itself through its
// demagnetising factors. The convolution H = −N ∗ M is evaluated with zero
// padding to 2n−1 cells per axis so that it is not periodic.
func DemagField(m *field.Field) (*field.Field, error) {
	if m.Dim != 3 {
		return nil, fmt.Errorf("demag: %w: magnetisation has dim %d", field.ErrDim, m.Dim)
	}
	var padN [3]int
	for _, a := range field.Axes {
		padN[a] = 2*m.Mesh.N[a] - 1
	}
	padded := field.MeshFromCells(m.Mesh.P1, m.Mesh.Cell, padN)

	mPad, _ := field.CZeros(padded, 3)
	for idx := 0; idx < m.Mesh.Cells(); idx++ {
		i, j, k := m.Mesh.Unravel(idx)
		dst := mPad.At(i, j, k)
		for c := 0; c < 3; c++ {
			dst[c] = complex(m.Data[3*idx+c], 0)
		}
	}
	diag, off := demagTensor(m.Mesh, padded)

	axes := []field.Axis{field.X, field.Y, field.Z}
	mFT, err := fourier.ForwardComplex(mPad, axes...)
	if err != nil {
		return nil, err
	}
	dFT, err := fourier.ForwardComplex(diag, axes...)
	if err != nil {
		return nil, err
	}
	oFT, err := fourier.ForwardComplex(off, axes...)
	if err != nil {
		return nil, err
	}

	hFT := &fourier.Spectrum{CField: mFT.CField.Clone(), Spatial: mFT.Spatial, Axes: mFT.Axes}
	for idx := 0; idx < padded.Cells(); idx++ {
		mv := mFT.Data[3*idx : 3*idx+3]
		d := dFT.Data[3*idx : 3*idx+3]
		o := oFT.Data[3*idx : 3*idx+3] // xy, xz, yz
		h := hFT.Data[3*idx : 3*idx+3]
		h[0] = -(d[0]*mv[0] + o[0]*mv[1] + o[1]*mv[2])
		h[1] = -(o[0]*mv[0] + d[1]*mv[1] + o[2]*mv[2])
		h[2] = -(o[1]*mv[0] + o[2]*mv[1] + d[2]*mv[2])
	}
	hPad, err := fourier.Inverse(hFT)
	if err != nil {
		return nil, err
	}

	out, _ := field.Zeros(m.Mesh, 3)
	for idx := 0; idx < m.Mesh.Cells(); idx++ {
		src := hPad.At(m.Mesh.Unravel(idx))
		for c := 0; c < 3; c++ {
			out.Data[3*idx+c] = real(src[c])
		}
	}
	return out, nil
}

// demagTensor samples the demagnetisation tensor on the padded grid with
// offsets stored circularly: index i holds offset i for i < n and i−p
// otherwise. The diagonal (xx, yy, zz) and off-diagonal (xy, xz, yz) parts
// are returned separately.
func demagTensor(m, padded *field.Mesh) (diag, off *field.CField) {
	diag, _ = field.CZeros(padded, 3)
	off, _ = field.CZeros(padded, 3)
	vol := m.DV()

	offset := func(i int, a field.Axis) float64 {
		if i >= m.N[a] {
			i -= padded.N[a]
		}
		return float64(i) * field.Get(m.Cell, a)
	}

	c := m.Cell
	for idx := 0; idx < padded.Cells(); idx++ {
		i, j, k := padded.Unravel(idx)
		r := r3.Vec{X: offset(i, field.X), Y: offset(j, field.Y), Z: offset(k, field.Z)}
		d := diag.Data[3*idx : 3*idx+3]
		o := off.Data[3*idx : 3*idx+3]
		if r == (r3.Vec{}) {
			nx, ny, nz := PrismFactors(c)
			d[0], d[1], d[2] = complex(nx, 0), complex(ny, 0), complex(nz, 0)
			continue
		}
		if near(r, c) {
			d[0] = complex(newell(newellF, r.X, r.Y, r.Z, c.X, c.Y, c.Z), 0)
			d[1] = complex(newell(newellF, r.Y, r.Z, r.X, c.Y, c.Z, c.X), 0)
			d[2] = complex(newell(newellF, r.Z, r.X, r.Y, c.Z, c.X, c.Y), 0)
			o[0] = complex(newell(newellG, r.X, r.Y, r.Z, c.X, c.Y, c.Z), 0)
			o[1] = complex(newell(newellG, r.X, r.Z, r.Y, c.X, c.Z, c.Y), 0)
			o[2] = complex(newell(newellG, r.Y, r.Z, r.X, c.Y, c.Z, c.X), 0)
			continue
		}
		r2 := r3.Dot(r, r)
		pre := vol / (4 * math.Pi * r2 * math.Sqrt(r2))
		d[0] = complex(pre*(1-3*r.X*r.X/r2), 0)
		d[1] = complex(pre*(1-3*r.Y*r.Y/r2), 0)
		d[2] = complex(pre*(1-3*r.Z*r.Z/r2), 0)
		o[0] = complex(-3*pre*r.X*r.Y/r2, 0)
		o[1] = complex(-3*pre*r.X*r.Z/r2, 0)
		o[2] = complex(-3*pre*r.Y*r.Z/r2, 0)
	}
	return diag, off
}

// nearCells is the offset, in cells along each axis, up to which the exact
// prism tensor replaces the dipole approximation.
const nearCells = 10

func near(r, cell r3.Vec) bool {
	return math.Abs(r.X) <= nearCells*cell.X*(1+1e-9) &&
		math.Abs(r.Y) <= nearCells*cell.Y*(1+1e-9) &&
		math.Abs(r.Z) <= nearCells*cell.Z*(1+1e-9)
}

// newell applies the second difference of fn over the 27 cell corners
// around offset (x, y, z) for cells of edges dx, dy, dz, giving one entry of
// the demagnetisation tensor between two prisms (A. J. Newell, W. Williams,
// D. J. Dunlop, J. Geophys. Res. 98, 9551 (1993)). newellF gives the
// diagonal entries and newellG the off-diagonal ones.
func newell(fn func(x, y, z float64) float64, x, y, z, dx, dy, dz float64) float64 {
	w := [3]float64{-1, 2, -1}
	var s float64
	for a := -1; a <= 1; a++ {
		for b := -1; b <= 1; b++ {
			for c := -1; c <= 1; c++ {
				s += w[a+1] * w[b+1] * w[c+1] *
					fn(x+float64(a)*dx, y+float64(b)*dy, z+float64(c)*dz)
			}
		}
	}
	return s / (4 * math.Pi * dx * dy * dz)
}

// newellF is even in every argument. Terms whose prefactor vanishes are
// skipped where their logarithm or arctangent would diverge.
func newellF(x, y, z float64) float64 {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	x2, y2, z2 := x*x, y*y, z*z
	r := math.Sqrt(x2 + y2 + z2)
	if r == 0 {
		return 0
	}
	s := (2*x2 - y2 - z2) * r / 6
	if y > 0 && x2+z2 > 0 {
		s += y / 2 * (z2 - x2) * math.Asinh(y/math.Sqrt(x2+z2))
	}
	if z > 0 && x2+y2 > 0 {
		s += z / 2 * (y2 - x2) * math.Asinh(z/math.Sqrt(x2+y2))
	}
	if x > 0 && y > 0 && z > 0 {
		s -= x * y * z * math.Atan(y*z/(x*r))
	}
	return s
}

// newellG is odd in x and in y, even in z.
func newellG(x, y, z float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -sign
	}
	if y < 0 {
		sign = -sign
	}
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)
	x2, y2, z2 := x*x, y*y, z*z
	r := math.Sqrt(x2 + y2 + z2)
	if r == 0 {
		return 0
	}
	s := -x * y * r / 3
	if x > 0 && y > 0 && z > 0 {
		s += x * y * z * math.Asinh(z/math.Sqrt(x2+y2))
	}
	if x > 0 && y2+z2 > 0 {
		s += y / 6 * (3*z2 - y2) * math.Asinh(x/math.Sqrt(y2+z2))
	}
	if y > 0 && x2+z2 > 0 {
		s += x / 6 * (3*z2 - x2) * math.Asinh(y/math.Sqrt(x2+z2))
	}
	if z > 0 {
		s -= z * z2 / 6 * math.Atan(x*y/(z*r))
		if y > 0 {
			s -= z * y2 / 2 * math.Atan(x*z/(y*r))
		}
		if x > 0 {
			s -= z * x2 / 2 * math.Atan(y*z/(x*r))
		}
	}
	return sign * s
}

// PrismFactors returns the demagnetising factors of a rectangular prism with
// edges cell.X, cell.Y, cell.Z. They sum to one.
func PrismFactors(cell r3.Vec) (nx, ny, nz float64) {
	a, b, c := cell.X/2, cell.Y/2, cell.Z/2
	return aharoni(b, c, a), aharoni(c, a, b), aharoni(a, b, c)
}

// aharoni is the demagnetising factor along the c edge of a prism with
// half-edges a, b, c (A. Aharoni, J. Appl. Phys. 83, 3432 (1998)).
func aharoni(a, b, c float64) float64 {
	r := math.Sqrt(a*a + b*b + c*c)
	ab := math.Sqrt(a*a + b*b)
	bc := math.Sqrt(b*b + c*c)
	ac := math.Sqrt(a*a + c*c)

	s := (b*b-c*c)/(2*b*c)*math.Log((r-a)/(r+a)) +
		(a*a-c*c)/(2*a*c)*math.Log((r-b)/(r+b)) +
		b/(2*c)*math.Log((ab+a)/(ab-a)) +
		a/(2*c)*math.Log((ab+b)/(ab-b)) +
		c/(2*a)*math.Log((bc-b)/(bc+b)) +
		c/(2*b)*math.Log((ac-a)/(ac+a)) +
		2*math.Atan(a*b/(c*r)) +
		(a*a*a+b*b*b-2*c*c*c)/(3*a*b*c) +
		(a*a+b*b-2*c*c)/(3*a*b*c)*r +
		c/(a*b)*(ac+bc) -
		(ab*ab*ab+bc*bc*bc+ac*ac*ac)/(3*a*b*c)
	return s / math.Pi
}
