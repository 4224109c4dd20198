// Package mfm computes the phase shift of a magnetic force microscopy
// cantilever scanned through the stray field of a sample.
//
// The stray field is the demagnetisation field of the system, so the
// magnetisation should vanish (Ms = 0) in the air region above the sample
// where the tip is evaluated.
package mfm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/consts"
	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/filter"
	"github.com/bob-anderson-ok/magexp/micromag"
)

var (
	// ErrSpringConstant is returned for a cantilever spring constant k <= 0.
	ErrSpringConstant = errors.New("mfm: spring constant k has to be a positive non-zero number")
	// ErrNoStrayField is returned when the system has no demagnetisation
	// term to derive a stray field from.
	ErrNoStrayField = errors.New("mfm: system energy has no demag term, stray field unavailable")
)

// Params describes the tip and cantilever.
type Params struct {
	TipM    r3.Vec    // effective dipole moment of the tip (A m⁻¹)
	TipQ    float64   // effective monopole moment of the tip (A m⁻²)
	Quality float64   // quality factor Q
	K       float64   // spring constant (N/m)
	FWHM    []float64 // optional Gaussian smoothing of the result (m)
}

// DefaultParams returns Q = 650, k = 3 N/m and no tip moment.
func DefaultParams() Params {
	return Params{Quality: 650, K: 3}
}

// PhaseShift returns the cantilever phase shift
//
//	Δφ = (Q μ0 / k) (q ∂Hz/∂z + m_tip · ∂²H/∂z²)
//
// at every cell of the system mesh, with H the stray field of the sample.
func PhaseShift(sys *micromag.System, p Params) (*field.Field, error) {
	if !(p.K > 0) {
		return nil, fmt.Errorf("%w: got %g", ErrSpringConstant, p.K)
	}
	if sys == nil || sys.M == nil || sys.M.Dim != 3 {
		return nil, fmt.Errorf("mfm: %w", micromag.ErrNoMagnetisation)
	}
	if _, ok := sys.Energy.Demag(); !ok {
		return nil, fmt.Errorf("%w (energy: %v)", ErrNoStrayField, sys.Energy)
	}

	h, err := micromag.DemagField(sys.M)
	if err != nil {
		return nil, fmt.Errorf("mfm stray field: %w", err)
	}
	dh, err := h.Derivative(field.Z, 1)
	if err != nil {
		return nil, err
	}
	d2h, err := h.Derivative(field.Z, 2)
	if err != nil {
		return nil, err
	}

	pref := p.Quality * consts.Mu0 / p.K
	out, _ := field.Zeros(sys.M.Mesh, 1)
	for idx := range out.Data {
		out.Data[idx] = pref * (p.TipQ*dh.Data[3*idx+2] + r3.Dot(p.TipM, d2h.Vec(idx)))
	}

	if p.FWHM != nil {
		out, err = filter.Gaussian(out, p.FWHM)
		if err != nil {
			return nil, fmt.Errorf("mfm: %w", err)
		}
	}
	return out, nil
}
