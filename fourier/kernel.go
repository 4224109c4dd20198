package fourier

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
)

// Kernel is a scalar reciprocal-space multiplier evaluated at the frequency
// vector of each bin.
type Kernel func(q r3.Vec) complex128

// VectorKernel maps the components of one bin, in, to the components of the
// output bin, out. It must not retain either slice.
type VectorKernel func(q r3.Vec, in, out []complex128)

// ApplyKernel multiplies every component of every bin by k(q).
func ApplyKernel(s *Spectrum, k Kernel) *Spectrum {
	out := s.CField.Clone()
	m := s.Mesh
	for idx := 0; idx < m.Cells(); idx++ {
		w := k(s.Frequency(m.Unravel(idx)))
		for c := 0; c < s.Dim; c++ {
			out.Data[idx*s.Dim+c] *= w
		}
	}
	return s.with(out)
}

// ApplyVectorKernel evaluates fn on every bin, producing a spectrum with dim
// components per bin.
func ApplyVectorKernel(s *Spectrum, dim int, fn VectorKernel) (*Spectrum, error) {
	out, err := field.CZeros(s.Mesh, dim)
	if err != nil {
		return nil, fmt.Errorf("vector kernel: %w", err)
	}
	m := s.Mesh
	for idx := 0; idx < m.Cells(); idx++ {
		fn(s.Frequency(m.Unravel(idx)),
			s.Data[idx*s.Dim:(idx+1)*s.Dim],
			out.Data[idx*dim:(idx+1)*dim])
	}
	return s.with(out), nil
}
