// Package micromag describes a micromagnetic system: a magnetisation field
// together with the energy terms acting on it. The observables read the
// energy to decide which effective fields are available; MFM needs the
// demagnetisation term to obtain a stray field.
package micromag

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/consts"
	"github.com/bob-anderson-ok/magexp/field"
)

// Term names as used by Energy.Has and in experiment files.
const (
	DemagName              = "demag"
	ExchangeName           = "exchange"
	ZeemanName             = "zeeman"
	UniaxialAnisotropyName = "uniaxialanisotropy"
)

// ErrNoMagnetisation is returned for a system without a vector magnetisation.
var ErrNoMagnetisation = errors.New("micromag: system needs a 3-component magnetisation")

// Term is one contribution to the energy of a system.
type Term interface {
	Name() string
	// EffectiveField returns the field (A/m) the term exerts on m.
	EffectiveField(m *field.Field) (*field.Field, error)
}

// Demag is the magnetostatic self-interaction.
type Demag struct{}

func (Demag) Name() string { return DemagName }

func (Demag) EffectiveField(m *field.Field) (*field.Field, error) {
	return DemagField(m)
}

// Exchange is the isotropic Heisenberg exchange with stiffness A (J/m).
type Exchange struct {
	A float64
}

func (Exchange) Name() string { return ExchangeName }

// EffectiveField returns 2A/(μ0 Ms) ∇²m̂. Cells with Ms = 0 get no field.
func (e Exchange) EffectiveField(m *field.Field) (*field.Field, error) {
	ms := m.Norm()
	unit := m.WithNorm(func(r3.Vec) float64 { return 1 })
	lap, _ := field.Zeros(m.Mesh, 3)
	for _, a := range field.Axes {
		d2, err := unit.Derivative(a, 2)
		if err != nil {
			return nil, err
		}
		floats.Add(lap.Data, d2.Data)
	}
	for idx, n := range ms.Data {
		s := 0.0
		if n > 0 {
			s = 2 * e.A / (consts.Mu0 * n)
		}
		floats.Scale(s, lap.Data[3*idx:3*idx+3])
	}
	return lap, nil
}

// Zeeman is a uniform applied field H (A/m).
type Zeeman struct {
	H r3.Vec
}

func (Zeeman) Name() string { return ZeemanName }

func (z Zeeman) EffectiveField(m *field.Field) (*field.Field, error) {
	return field.NewConstant(m.Mesh, z.H.X, z.H.Y, z.H.Z)
}

// UniaxialAnisotropy has constant K (J/m³) and easy axis U.
type UniaxialAnisotropy struct {
	K float64
	U r3.Vec
}

func (UniaxialAnisotropy) Name() string { return UniaxialAnisotropyName }

// EffectiveField returns 2K/(μ0 Ms) (m̂·û)û.
func (u UniaxialAnisotropy) EffectiveField(m *field.Field) (*field.Field, error) {
	if r3.Norm(u.U) == 0 {
		return nil, fmt.Errorf("micromag: anisotropy axis must be non-zero")
	}
	axis := r3.Unit(u.U)
	out, _ := field.Zeros(m.Mesh, 3)
	for idx := 0; idx < m.Mesh.Cells(); idx++ {
		v := m.Vec(idx)
		ms := r3.Norm(v)
		if ms == 0 {
			continue
		}
		h := r3.Scale(2*u.K/(consts.Mu0*ms)*r3.Dot(v, axis)/ms, axis)
		out.Data[3*idx], out.Data[3*idx+1], out.Data[3*idx+2] = h.X, h.Y, h.Z
	}
	return out, nil
}

// Energy is the ordered list of terms acting on a system.
type Energy []Term

// Has reports whether a term called name is present. Names compare without
// regard to case.
func (e Energy) Has(name string) bool {
	for _, t := range e {
		if strings.EqualFold(t.Name(), name) {
			return true
		}
	}
	return false
}

// Demag returns the demagnetisation term, if present. Terms may be held by
// value or by pointer.
func (e Energy) Demag() (Demag, bool) {
	for _, t := range e {
		switch d := t.(type) {
		case Demag:
			return d, true
		case *Demag:
			if d != nil {
				return *d, true
			}
		}
	}
	return Demag{}, false
}

// Zeeman returns the first Zeeman term, if present.
func (e Energy) Zeeman() (Zeeman, bool) {
	for _, t := range e {
		switch z := t.(type) {
		case Zeeman:
			return z, true
		case *Zeeman:
			if z != nil {
				return *z, true
			}
		}
	}
	return Zeeman{}, false
}

func (e Energy) String() string {
	names := make([]string, len(e))
	for i, t := range e {
		names[i] = t.Name()
	}
	return strings.Join(names, " + ")
}

// System is a magnetisation field M (A/m) and the energy acting on it.
type System struct {
	Name   string
	M      *field.Field
	Energy Energy
}

// NewSystem checks that m is a vector field and bundles it with terms.
func NewSystem(name string, m *field.Field, terms ...Term) (*System, error) {
	if m == nil || m.Dim != 3 {
		return nil, ErrNoMagnetisation
	}
	return &System{Name: name, M: m, Energy: Energy(terms)}, nil
}

// EffectiveField returns the sum of the effective fields of all terms.
func (s *System) EffectiveField() (*field.Field, error) {
	total, _ := field.Zeros(s.M.Mesh, 3)
	for _, t := range s.Energy {
		h, err := t.EffectiveField(s.M)
		if err != nil {
			return nil, fmt.Errorf("%s field: %w", t.Name(), err)
		}
		floats.Add(total.Data, h.Data)
	}
	return total, nil
}
