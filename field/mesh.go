// Package field provides the regular-grid field representation that every
// observable in this module consumes and produces.
//
// A Mesh describes a cuboid region split into equal cells. A Field stores one
// real value (Dim 1) or one vector (Dim 3) per cell, and a CField stores the
// complex counterpart used for Fourier-space quantities. Samples are laid out
// as [ix][iy][iz][component] in a flat slice.
package field

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis selects one of the three Cartesian directions.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists X, Y and Z in order.
var Axes = [3]Axis{X, Y, Z}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Valid reports whether a is one of X, Y or Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// ErrInvalidMesh is returned when region bounds and cell size do not describe
// a whole number of cells along every axis.
var ErrInvalidMesh = errors.New("field: invalid mesh")

// ErrOutOfMesh is returned when a coordinate or index lies outside the mesh.
var ErrOutOfMesh = errors.New("field: outside mesh")

// Mesh is a cuboid region P1..P2 split into N cells of size Cell.
type Mesh struct {
	P1, P2 r3.Vec
	Cell   r3.Vec
	N      [3]int
}

// NewMesh builds a mesh from two opposite region corners and a cell size.
// The corners may be given in any order.
func NewMesh(p1, p2, cell r3.Vec) (*Mesh, error) {
	m := &Mesh{}
	for _, a := range Axes {
		lo := math.Min(Get(p1, a), Get(p2, a))
		hi := math.Max(Get(p1, a), Get(p2, a))
		d := Get(cell, a)
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: cell size along %v must be positive, got %g", ErrInvalidMesh, a, d)
		}
		edge := hi - lo
		if edge <= 0 {
			return nil, fmt.Errorf("%w: region has zero extent along %v", ErrInvalidMesh, a)
		}
		ratio := edge / d
		n := math.Round(ratio)
		if n < 1 || math.Abs(ratio-n) > 1e-6 {
			return nil, fmt.Errorf("%w: edge %g along %v is not a multiple of cell %g", ErrInvalidMesh, edge, a, d)
		}
		m.P1 = Set(m.P1, a, lo)
		m.P2 = Set(m.P2, a, hi)
		m.Cell = Set(m.Cell, a, d)
		m.N[a] = int(n)
	}
	return m, nil
}

// MeshFromCells builds a mesh starting at p1 with n cells of size cell along
// each axis. It is used for derived meshes (frequency grids, padded grids)
// where the cell count is known exactly.
func MeshFromCells(p1, cell r3.Vec, n [3]int) *Mesh {
	m := &Mesh{P1: p1, Cell: cell, N: n}
	for _, a := range Axes {
		m.P2 = Set(m.P2, a, Get(p1, a)+float64(n[a])*Get(cell, a))
	}
	return m
}

// Cells returns the total number of cells.
func (m *Mesh) Cells() int {
	return m.N[0] * m.N[1] * m.N[2]
}

// DV returns the volume of a single cell.
func (m *Mesh) DV() float64 {
	return m.Cell.X * m.Cell.Y * m.Cell.Z
}

// Volume returns the volume of the whole region.
func (m *Mesh) Volume() float64 {
	return m.DV() * float64(m.Cells())
}

// Edge returns the extent of the region along a.
func (m *Mesh) Edge(a Axis) float64 {
	return Get(m.P2, a) - Get(m.P1, a)
}

// Index returns the linear cell index of (i, j, k).
func (m *Mesh) Index(i, j, k int) int {
	return (i*m.N[1]+j)*m.N[2] + k
}

// Unravel is the inverse of Index.
func (m *Mesh) Unravel(idx int) (i, j, k int) {
	k = idx % m.N[2]
	idx /= m.N[2]
	j = idx % m.N[1]
	i = idx / m.N[1]
	return i, j, k
}

// Point returns the centre of cell (i, j, k).
func (m *Mesh) Point(i, j, k int) r3.Vec {
	return r3.Vec{
		X: m.P1.X + (float64(i)+0.5)*m.Cell.X,
		Y: m.P1.Y + (float64(j)+0.5)*m.Cell.Y,
		Z: m.P1.Z + (float64(k)+0.5)*m.Cell.Z,
	}
}

// CellIndex returns the index along a of the cell containing coordinate c.
// Coordinates on the upper region boundary belong to the last cell.
func (m *Mesh) CellIndex(a Axis, c float64) (int, error) {
	lo, hi := Get(m.P1, a), Get(m.P2, a)
	tol := 1e-9 * Get(m.Cell, a)
	if c < lo-tol || c > hi+tol {
		return 0, fmt.Errorf("%w: %v=%g not in [%g, %g]", ErrOutOfMesh, a, c, lo, hi)
	}
	idx := int(math.Floor((c - lo) / Get(m.Cell, a)))
	if idx < 0 {
		idx = 0
	}
	if idx >= m.N[a] {
		idx = m.N[a] - 1
	}
	return idx, nil
}

// Coordinates returns the cell-centre coordinates along a.
func (m *Mesh) Coordinates(a Axis) []float64 {
	n := m.N[a]
	d := Get(m.Cell, a)
	first := Get(m.P1, a) + d/2
	coords := make([]float64, n)
	if n == 1 {
		coords[0] = first
		return coords
	}
	floats.Span(coords, first, first+float64(n-1)*d)
	return coords
}

// Reduce collapses the mesh to a single cell along a, keeping the region.
func (m *Mesh) Reduce(a Axis) *Mesh {
	r := *m
	r.Cell = Set(r.Cell, a, m.Edge(a))
	r.N[a] = 1
	return &r
}

// Plane returns the one-cell-thick mesh holding cell idx along a.
func (m *Mesh) Plane(a Axis, idx int) (*Mesh, error) {
	if idx < 0 || idx >= m.N[a] {
		return nil, fmt.Errorf("%w: index %d along %v (n=%d)", ErrOutOfMesh, idx, a, m.N[a])
	}
	p1 := Set(m.P1, a, Get(m.P1, a)+float64(idx)*Get(m.Cell, a))
	n := m.N
	n[a] = 1
	return MeshFromCells(p1, m.Cell, n), nil
}

// PlaneAxes reports the normal and the two in-plane axes of a mesh that is
// one cell thick along at least one axis. Z is preferred as the normal, then
// Y, then X.
func (m *Mesh) PlaneAxes() (normal, u, v Axis, ok bool) {
	for _, a := range [3]Axis{Z, Y, X} {
		if m.N[a] == 1 {
			normal = a
			ok = true
			break
		}
	}
	if !ok {
		return 0, 0, 0, false
	}
	others := make([]Axis, 0, 2)
	for _, a := range Axes {
		if a != normal {
			others = append(others, a)
		}
	}
	return normal, others[0], others[1], true
}

// SameShape reports whether two meshes have identical cell counts.
func (m *Mesh) SameShape(o *Mesh) bool {
	return m.N == o.N
}

// Get returns the component of v along a.
func Get(v r3.Vec, a Axis) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	default:
		return v.Z
	}
}

// Set returns v with the component along a replaced by c.
func Set(v r3.Vec, a Axis, c float64) r3.Vec {
	switch a {
	case X:
		v.X = c
	case Y:
		v.Y = c
	default:
		v.Z = c
	}
	return v
}
