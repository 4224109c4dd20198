// Package moke computes magneto-optical Kerr effect images with the 4×4
// transfer matrix formalism.
//
// Light is incident in the yz plane at angle Theta to the surface normal
// (z). Every column (x, y) of the sample is treated as a stack of magnetic
// layers, one per cell along z, between two half spaces of vacuum. The
// product matrix of a column is
//
//	M = A_f⁻¹ ∏_j (A_j D_j A_j⁻¹) A_f
//
// with A the boundary matrices and D the propagation matrices. The
// refraction angle is taken to be the same in every layer.
package moke

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/filter"
)

var (
	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("moke: unknown mode")
	// ErrInvalidParams is returned for a non-positive wavelength, a zero
	// refractive index or an angle outside [0, π/2).
	ErrInvalidParams = errors.New("moke: invalid optical parameters")
)

// Mode selects the reflected or the transmitted wave.
type Mode int

const (
	Reflection Mode = iota
	Transmission
)

func (m Mode) String() string {
	switch m {
	case Reflection:
		return "reflection"
	case Transmission:
		return "transmission"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "reflection", "r", "transmission" and "t".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reflection", "r":
		return Reflection, nil
	case "transmission", "t":
		return Transmission, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Params holds the optical constants of the sample and the beam.
type Params struct {
	Theta      float64    // angle of incidence (rad)
	N          complex128 // refractive index of the magnetic layers
	Voigt      complex128 // magneto-optical Voigt parameter Q
	Wavelength float64    // vacuum wavelength (m)
}

func (p Params) validate() error {
	if !(p.Wavelength > 0) || math.IsInf(p.Wavelength, 0) {
		return fmt.Errorf("%w: wavelength %g", ErrInvalidParams, p.Wavelength)
	}
	if p.N == 0 || cmplx.IsNaN(p.N) {
		return fmt.Errorf("%w: refractive index %v", ErrInvalidParams, p.N)
	}
	if p.Theta < 0 || p.Theta >= math.Pi/2 || math.IsNaN(p.Theta) {
		return fmt.Errorf("%w: angle of incidence %g", ErrInvalidParams, p.Theta)
	}
	return nil
}

// SP holds s and p polarised quantities on the plane mesh of the sample.
type SP struct {
	S, P *field.CField
}

// EField returns the reflected or transmitted electric field for an
// incident field (E_s, E_p).
func EField(f *field.Field, p Params, incident [2]complex128, mode Mode) (*SP, error) {
	if mode != Reflection && mode != Transmission {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	mats, err := columnMatrices(f, p, mode)
	if err != nil {
		return nil, err
	}
	out := newSP(f.Mesh)
	e := make([]complex128, 2)
	in := incident[:]
	for idx, m := range mats {
		zgemm(2, 1, 2, m, in, e)
		out.S.Data[idx], out.P.Data[idx] = e[0], e[1]
	}
	return out, nil
}

// Intensity returns |E_s|² + |E_p|² of the reflected or transmitted wave,
// optionally smoothed with a Gaussian of widths fwhm (x, y).
func Intensity(f *field.Field, p Params, incident [2]complex128, mode Mode, fwhm []float64) (*field.Field, error) {
	e, err := EField(f, p, incident, mode)
	if err != nil {
		return nil, err
	}
	out := e.S.Abs2()
	floats.Add(out.Data, e.P.Abs2().Data)
	if fwhm == nil {
		return out, nil
	}
	out, err = filter.Gaussian(out, fwhm)
	if err != nil {
		return nil, fmt.Errorf("moke intensity: %w", err)
	}
	return out, nil
}

// KerrAngle returns the complex Kerr angles Φ = φ' + iφ'' (rotation and
// ellipticity) for s and p polarised light:
//
//	Φ_s = r_ps / r_ss
//	Φ_p = −Re(r_sp / r_pp) + i Im(r_sp / r_pp)
func KerrAngle(f *field.Field, p Params) (*SP, error) {
	mats, err := columnMatrices(f, p, Reflection)
	if err != nil {
		return nil, err
	}
	out := newSP(f.Mesh)
	for idx, r := range mats {
		out.S.Data[idx] = r[2] / r[0]
		kp := r[1] / r[3]
		out.P.Data[idx] = complex(-real(kp), imag(kp))
	}
	return out, nil
}

func newSP(m *field.Mesh) *SP {
	plane := m.Reduce(field.Z)
	s, _ := field.CZeros(plane, 1)
	p, _ := field.CZeros(plane, 1)
	return &SP{S: s, P: p}
}

// columnMatrices returns, per column in plane order, the 2×2 reflection or
// transmission matrix [[ss, sp], [ps, pp]] in row-major order.
func columnMatrices(f *field.Field, p Params, mode Mode) ([][]complex128, error) {
	if f.Dim != 3 {
		return nil, fmt.Errorf("moke: %w: magnetisation has dim %d", field.ErrDim, f.Dim)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	unit := f.WithNorm(func(r3.Vec) float64 { return 1 })

	theta0 := complex(p.Theta, 0)
	theta := cmplx.Asin(cmplx.Sin(theta0) / p.N)
	free := boundary(theta0, 1, 0, 0, 0)
	freeInv, err := inverse(free, 4)
	if err != nil {
		return nil, err
	}

	nx, ny, nz := f.Mesh.N[0], f.Mesh.N[1], f.Mesh.N[2]
	dz := f.Mesh.Cell.Z
	out := make([][]complex128, nx*ny)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < nx; i++ {
		g.Go(func() error {
			for j := 0; j < ny; j++ {
				m := freeInv
				for k := 0; k < nz; k++ {
					v := unit.At(i, j, k)
					a := boundary(theta, p.N, p.Voigt, v[1], v[2])
					aInv, err := inverse(a, 4)
					if err != nil {
						return fmt.Errorf("moke: cell (%d, %d, %d): %w", i, j, k, err)
					}
					d := propagation(theta, p.N, p.Voigt, dz, p.Wavelength, v[1], v[2])
					m = mul4(mul4(mul4(m, a), d), aInv)
				}
				m = mul4(m, free)

				gInv, err := inverse(block(m, 0, 0), 2)
				if err != nil {
					return fmt.Errorf("moke: column (%d, %d): %w", i, j, err)
				}
				if mode == Transmission {
					out[i*ny+j] = gInv
					continue
				}
				r := make([]complex128, 4)
				zgemm(2, 2, 2, block(m, 2, 0), gInv, r)
				out[i*ny+j] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// boundary is the boundary matrix of a layer with refraction angle theta,
// index n, Voigt parameter q and normalised magnetisation components my, mz.
func boundary(theta, n, q complex128, my, mz float64) []complex128 {
	ay, az := cmplx.Sin(theta), cmplx.Cos(theta)
	y, z := complex(my, 0), complex(mz, 0)
	iq := 1i * q
	return []complex128{
		1, 0, 1, 0,
		iq * (ay*y*(1+az*az)/az - z*ay*ay) / 2, az, -iq / 2 * (ay*y*(1+az*az)/az + z*ay*ay), -az,
		-iq * n / 2 * (y*ay + z*az), -n, -iq * n / 2 * (y*ay - z*az), -n,
		n * az, -iq * n / 2 * (y*ay/az - z), -n * az, iq * n / 2 * (y*ay/az + z),
	}
}

// propagation is the propagation matrix through a layer of thickness d.
func propagation(theta, n, q complex128, d, lambda float64, my, mz float64) []complex128 {
	ay, az := cmplx.Sin(theta), cmplx.Cos(theta)
	y, z := complex(my, 0), complex(mz, 0)
	gi := z*az + y*ay
	gr := z*az - y*ay
	k := complex(math.Pi*d/lambda, 0)
	di := -k * n * q * gi / az
	dr := -k * n * q * gr / az
	u := cmplx.Exp(-2i * k * n * az)
	return []complex128{
		u * cmplx.Cos(di), u * cmplx.Sin(di), 0, 0,
		-u * cmplx.Sin(di), u * cmplx.Cos(di), 0, 0,
		0, 0, cmplx.Cos(dr) / u, cmplx.Sin(dr) / u,
		0, 0, -cmplx.Sin(dr) / u, cmplx.Cos(dr) / u,
	}
}
