// Package sans computes polarised small-angle neutron scattering cross
// sections and the chiral function of a magnetisation field.
//
// The magnetisation is transformed in three dimensions and projected onto
// the plane perpendicular to the scattering vector q, giving the magnetic
// interaction vector Q = q̂ × (M̃ × q̂). Q is then expressed in the frame of
// the neutron polarisation and contracted with the Pauli matrices; the
// squared moduli of the four matrix elements are the spin-resolved cross
// sections. Intensities are in arbitrary units.
package sans

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/fourier"
)

// DefaultPolarisation is used when the polarisation vector is zero. It is ẑ,
// along the beam: the chiral function then vanishes. Pass x̂ or ŷ for a
// polarisation orthogonal to the beam.
var DefaultPolarisation = r3.Vec{Z: 1}

// normalisation scales the transform so that typical samples give
// intensities of order one.
const normalisation = 1e16

// ErrUnknownMethod is returned by ParseMethod for an unrecognised channel.
var ErrUnknownMethod = errors.New("sans: unknown cross section method")

// Method selects a scattering channel.
type Method int

const (
	Unpolarised Method = iota
	PlusPlus           // non-spin-flip ++
	MinusMinus         // non-spin-flip --
	PlusMinus          // spin-flip +-
	MinusPlus          // spin-flip -+
	HalfPlus           // half polarised, ++ and +-
	HalfMinus          // half polarised, -- and -+
)

var methodNames = [...]string{"unpol", "pp", "nn", "pn", "np", "p", "n"}

var longMethodNames = map[string]Method{
	"unpolarised":      Unpolarised,
	"polarised_pp":     PlusPlus,
	"polarised_nn":     MinusMinus,
	"polarised_pn":     PlusMinus,
	"polarised_np":     MinusPlus,
	"half_polarised_p": HalfPlus,
	"half_polarised_n": HalfMinus,
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod accepts the short names (unpol, pp, nn, pn, np, p, n) and the
// long names (unpolarised, polarised_pp, ..., half_polarised_n).
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range methodNames {
		if key == name {
			return Method(i), nil
		}
	}
	if m, ok := longMethodNames[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// channels holds the four spin-resolved cross sections on the frequency mesh.
type channels struct {
	mesh           *field.Mesh
	pp, nn, pn, np []float64
}

// CrossSection returns the cross section selected by method as a scalar
// field on the frequency mesh of f. The polarisation is given in the sample
// frame and need not be normalised.
func CrossSection(f *field.Field, method Method, polarisation r3.Vec) (*field.Field, error) {
	if method < Unpolarised || method > HalfMinus {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, method)
	}
	ch, err := crossSectionMatrix(f, polarisation)
	if err != nil {
		return nil, err
	}
	out, _ := field.Zeros(ch.mesh, 1)
	for i := range out.Data {
		pp, nn, pn, np := ch.pp[i], ch.nn[i], ch.pn[i], ch.np[i]
		switch method {
		case PlusPlus:
			out.Data[i] = pp
		case MinusMinus:
			out.Data[i] = nn
		case PlusMinus:
			out.Data[i] = pn
		case MinusPlus:
			out.Data[i] = np
		case HalfPlus:
			out.Data[i] = pp + pn
		case HalfMinus:
			out.Data[i] = nn + np
		default:
			out.Data[i] = 0.5 * (pp + pn + np + nn)
		}
	}
	return out, nil
}

// ChiralFunction returns −2πiχ, the difference of the +- and -+ spin-flip
// cross sections.
func ChiralFunction(f *field.Field, polarisation r3.Vec) (*field.Field, error) {
	ch, err := crossSectionMatrix(f, polarisation)
	if err != nil {
		return nil, err
	}
	out, _ := field.Zeros(ch.mesh, 1)
	for i := range out.Data {
		out.Data[i] = ch.pn[i] - ch.np[i]
	}
	return out, nil
}

func crossSectionMatrix(f *field.Field, polarisation r3.Vec) (*channels, error) {
	if f.Dim != 3 {
		return nil, fmt.Errorf("sans: %w: magnetisation has dim %d", field.ErrDim, f.Dim)
	}
	if math.IsNaN(r3.Norm(polarisation)) || math.IsInf(r3.Norm(polarisation), 0) {
		return nil, fmt.Errorf("sans: invalid polarisation %v", polarisation)
	}
	rot := polarisationFrame(polarisation)

	mFT, err := fourier.Forward(f, field.X, field.Y, field.Z)
	if err != nil {
		return nil, fmt.Errorf("sans: %w", err)
	}
	scale := complex(f.Mesh.DV()*normalisation, 0)

	qFT, err := fourier.ApplyVectorKernel(mFT, 3, func(q r3.Vec, m, out []complex128) {
		n := r3.Norm(q)
		if n == 0 {
			return
		}
		u := r3.Scale(1/n, q)
		mq := complex(u.X, 0)*m[0] + complex(u.Y, 0)*m[1] + complex(u.Z, 0)*m[2]
		for c, uc := range []float64{u.X, u.Y, u.Z} {
			out[c] = scale * (m[c] - complex(uc, 0)*mq)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sans: %w", err)
	}

	cells := qFT.Mesh.Cells()
	ch := &channels{
		mesh: qFT.Mesh,
		pp:   make([]float64, cells),
		nn:   make([]float64, cells),
		pn:   make([]float64, cells),
		np:   make([]float64, cells),
	}
	for idx := 0; idx < cells; idx++ {
		v := qFT.Data[3*idx : 3*idx+3]
		re := rot(r3.Vec{X: real(v[0]), Y: real(v[1]), Z: real(v[2])})
		im := rot(r3.Vec{X: imag(v[0]), Y: imag(v[1]), Z: imag(v[2])})
		qx, qy, qz := complex(re.X, im.X), complex(re.Y, im.Y), complex(re.Z, im.Z)

		ch.pp[idx] = abs2(qz)
		ch.nn[idx] = abs2(-qz)
		ch.np[idx] = abs2(qx - 1i*qy)
		ch.pn[idx] = abs2(qx + 1i*qy)
	}
	return ch, nil
}

// polarisationFrame returns the rotation that carries ẑ onto the
// polarisation direction, about the axis perpendicular to both. The Pauli
// vector is rotated with it.
func polarisationFrame(p r3.Vec) func(r3.Vec) r3.Vec {
	if r3.Norm(p) == 0 {
		p = DefaultPolarisation
	}
	p = r3.Unit(p)
	z := r3.Vec{Z: 1}
	axis := r3.Cross(z, p)
	if r3.Norm(axis) == 0 {
		if p.Z > 0 {
			return func(v r3.Vec) r3.Vec { return v }
		}
		return r3.NewRotation(math.Pi, r3.Vec{X: 1}).Rotate
	}
	theta := math.Acos(math.Max(-1, math.Min(1, p.Z)))
	return r3.NewRotation(theta, r3.Unit(axis)).Rotate
}

func abs2(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
