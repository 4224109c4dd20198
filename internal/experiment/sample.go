package experiment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/internal/config"
	"github.com/bob-anderson-ok/magexp/micromag"
)

// Magnetisation samples the configured pattern on the experiment mesh.
// Helices and domain walls vary along x:
//
//	bloch_helix  m = Ms (0, sin kx, cos kx)
//	neel_helix   m = Ms (sin kx, 0, cos kx)
//	domain_wall  m = Ms (0, sech(x/w), tanh(x/w))
func Magnetisation(e *config.Experiment) (*field.Field, error) {
	c := e.Magnetisation
	var pattern func(p r3.Vec) r3.Vec
	switch c.Pattern {
	case config.Uniform:
		u := r3.Scale(c.Ms, r3.Unit(c.Direction))
		pattern = func(r3.Vec) r3.Vec { return u }
	case config.BlochHelix, config.NeelHelix:
		k := 2 * math.Pi / c.Period
		bloch := c.Pattern == config.BlochHelix
		pattern = func(p r3.Vec) r3.Vec {
			s, cs := math.Sincos(k * p.X)
			if bloch {
				return r3.Vec{Y: c.Ms * s, Z: c.Ms * cs}
			}
			return r3.Vec{X: c.Ms * s, Z: c.Ms * cs}
		}
	case config.DomainWall:
		pattern = func(p r3.Vec) r3.Vec {
			x := p.X / c.WallWidth
			return r3.Vec{Y: c.Ms / math.Cosh(x), Z: c.Ms * math.Tanh(x)}
		}
	default:
		return nil, fmt.Errorf("experiment: unknown magnetisation pattern %q", c.Pattern)
	}

	if c.MsBelowZ != nil {
		inner := pattern
		top := *c.MsBelowZ
		pattern = func(p r3.Vec) r3.Vec {
			if p.Z < top {
				return inner(p)
			}
			return r3.Vec{}
		}
	}
	return field.NewVector(e.Mesh, pattern), nil
}

// System bundles the magnetisation with the configured energy terms.
func System(e *config.Experiment) (*micromag.System, error) {
	m, err := Magnetisation(e)
	if err != nil {
		return nil, err
	}
	var terms []micromag.Term
	c := e.Energy
	if c.ExchangeA != 0 {
		terms = append(terms, micromag.Exchange{A: c.ExchangeA})
	}
	if c.Demag {
		terms = append(terms, micromag.Demag{})
	}
	if c.Zeeman != nil {
		terms = append(terms, micromag.Zeeman{H: *c.Zeeman})
	}
	if c.AnisotropyK != 0 {
		terms = append(terms, micromag.UniaxialAnisotropy{K: c.AnisotropyK, U: c.AnisotropyAxis})
	}
	name := e.Title
	if name == "" {
		name = "sample"
	}
	return micromag.NewSystem(name, m, terms...)
}
