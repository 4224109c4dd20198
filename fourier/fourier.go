// Package fourier is the transform engine shared by the observables.
//
// Forward applies an unnormalised discrete Fourier transform, exp(-2πi k·x),
// along the requested axes of a field and centres the zero frequency at index
// N/2 of every transformed axis. Inverse undoes both steps and divides by N
// per axis, so Inverse(Forward(f)) reproduces f to rounding error.
//
// The transforms are computed line by line with gonum's CmplxFFT. Lines are
// split across goroutines; each worker owns its own plan and scratch buffer,
// so the result does not depend on scheduling.
package fourier

import (
	"runtime"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/spatial/r3"
	"golang.org/x/sync/errgroup"

	"github.com/bob-anderson-ok/magexp/field"
)

// Spectrum is a field of Fourier coefficients. The embedded CField lives on
// the frequency mesh; Spatial is the mesh it was transformed from.
type Spectrum struct {
	*field.CField
	Spatial *field.Mesh
	Axes    []field.Axis
}

// Forward transforms a real field along axes.
func Forward(f *field.Field, axes ...field.Axis) (*Spectrum, error) {
	return ForwardComplex(f.Complex(), axes...)
}

// ForwardComplex transforms a complex field along axes.
func ForwardComplex(f *field.CField, axes ...field.Axis) (*Spectrum, error) {
	if err := checkAxes(axes); err != nil {
		return nil, err
	}
	sorted := append([]field.Axis(nil), axes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	data := make([]complex128, len(f.Data))
	copy(data, f.Data)
	for _, a := range sorted {
		transformAxis(data, f.Mesh.N, f.Dim, a, true)
	}
	return &Spectrum{
		CField:  &field.CField{Mesh: frequencyMesh(f.Mesh, sorted), Dim: f.Dim, Data: data},
		Spatial: f.Mesh,
		Axes:    sorted,
	}, nil
}

// Inverse transforms a spectrum back onto its spatial mesh.
func Inverse(s *Spectrum) (*field.CField, error) {
	if err := checkAxes(s.Axes); err != nil {
		return nil, err
	}
	data := make([]complex128, len(s.Data))
	copy(data, s.Data)
	for _, a := range s.Axes {
		transformAxis(data, s.Spatial.N, s.Dim, a, false)
	}
	return &field.CField{Mesh: s.Spatial, Dim: s.Dim, Data: data}, nil
}

// Frequency returns the spatial frequency of bin (i, j, k). Components
// along axes that were not transformed are zero.
func (s *Spectrum) Frequency(i, j, k int) r3.Vec {
	var q r3.Vec
	idx := [3]int{i, j, k}
	for _, a := range s.Axes {
		q = field.Set(q, a, binFrequency(idx[a], s.Spatial.N[a], field.Get(s.Spatial.Cell, a)))
	}
	return q
}

// Transformed reports whether the spectrum was transformed along a.
func (s *Spectrum) Transformed(a field.Axis) bool {
	for _, t := range s.Axes {
		if t == a {
			return true
		}
	}
	return false
}

func (s *Spectrum) with(data *field.CField) *Spectrum {
	return &Spectrum{CField: data, Spatial: s.Spatial, Axes: s.Axes}
}

// -------------------- line transforms --------------------

// transformAxis runs a 1D transform over every line of data along a. The
// forward transform is followed by fftshift and the inverse is preceded by
// ifftshift and followed by the 1/n normalisation.
func transformAxis(data []complex128, n [3]int, dim int, a field.Axis, forward bool) {
	length := n[a]
	if length == 1 {
		return
	}
	stride := dim
	for b := int(a) + 1; b < 3; b++ {
		stride *= n[b]
	}
	block := length * stride
	lines := len(data) / length

	workers := runtime.GOMAXPROCS(0)
	if workers > lines {
		workers = lines
	}
	per := (lines + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		first, last := w*per, (w+1)*per
		if last > lines {
			last = lines
		}
		if first >= last {
			break
		}
		g.Go(func() error {
			fft := fourier.NewCmplxFFT(length)
			buf := make([]complex128, length)
			half := length / 2
			scale := complex(1/float64(length), 0)
			for line := first; line < last; line++ {
				start := (line/stride)*block + line%stride
				if forward {
					for i := 0; i < length; i++ {
						buf[i] = data[start+i*stride]
					}
					fft.Coefficients(buf, buf)
					for i := 0; i < length; i++ {
						data[start+((i+half)%length)*stride] = buf[i]
					}
					continue
				}
				for i := 0; i < length; i++ {
					buf[i] = data[start+((i+half)%length)*stride]
				}
				fft.Sequence(buf, buf)
				for i := 0; i < length; i++ {
					data[start+i*stride] = buf[i] * scale
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
