// Package filter smooths scalar fields with a separable Gaussian kernel, the
// way an instrument's finite resolution blurs an ideal image.
package filter

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/bob-anderson-ok/magexp/field"
)

// PaddingMode selects how samples beyond the field boundary are filled.
type PaddingMode int

const (
	// PadSymmetric mirrors about the edge, repeating the edge sample
	// (… b a | a b c … c | c b …).
	PadSymmetric PaddingMode = iota
	// PadReflect mirrors about the edge sample without repeating it
	// (… c b | a b c … ).
	PadReflect
	PadReplicate
	PadCircular
	PadZeros
)

// truncate is the kernel half-width in standard deviations.
const truncate = 4.0

var (
	// ErrVectorField is returned when a vector field is passed to a filter
	// that only supports scalar fields.
	ErrVectorField = errors.New("filter: Gaussian filter only supports fields with dim 1")
	// ErrInvalidWidth is returned for missing, negative or non-finite widths.
	ErrInvalidWidth = errors.New("filter: invalid full width at half maximum")
)

// Gaussian convolves a scalar field with a Gaussian of the given full widths
// at half maximum (m), using symmetric padding.
//
// For a field one cell thick along some axis, fwhm holds the widths along
// the two in-plane axes in order (x before y before z); otherwise it holds
// the widths along x, y and z. Extra entries are ignored.
func Gaussian(f *field.Field, fwhm []float64) (*field.Field, error) {
	return GaussianPadded(f, fwhm, PadSymmetric)
}

// GaussianPadded is Gaussian with an explicit padding mode.
func GaussianPadded(f *field.Field, fwhm []float64, pad PaddingMode) (*field.Field, error) {
	if f.Dim != 1 {
		return nil, fmt.Errorf("%w: got dim %d", ErrVectorField, f.Dim)
	}
	var axes []field.Axis
	if _, u, v, ok := f.Mesh.PlaneAxes(); ok {
		axes = []field.Axis{u, v}
	} else {
		axes = []field.Axis{field.X, field.Y, field.Z}
	}
	if len(fwhm) < len(axes) {
		return nil, fmt.Errorf("%w: need %d widths, got %d", ErrInvalidWidth, len(axes), len(fwhm))
	}

	out := f.Clone()
	for i, a := range axes {
		w := fwhm[i]
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: %g along %v", ErrInvalidWidth, w, a)
		}
		sigma := w / (2 * math.Sqrt(2*math.Ln2)) / field.Get(f.Mesh.Cell, a)
		if sigma == 0 {
			continue
		}
		smoothAxis(out, a, gaussianKernel(sigma), pad)
	}
	return out, nil
}

// gaussianKernel returns a normalised kernel reaching 4σ either side.
func gaussianKernel(sigma float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// smoothAxis convolves every line of f along a with kernel, in place.
func smoothAxis(f *field.Field, a field.Axis, kernel []float64, pad PaddingMode) {
	n := f.Mesh.N[a]
	stride := 1
	for b := int(a) + 1; b < 3; b++ {
		stride *= f.Mesh.N[b]
	}
	block := n * stride
	radius := len(kernel) / 2
	line := make([]float64, n)
	for o := 0; o < len(f.Data)/block; o++ {
		for r := 0; r < stride; r++ {
			start := o*block + r
			for i := 0; i < n; i++ {
				line[i] = f.Data[start+i*stride]
			}
			for i := 0; i < n; i++ {
				s := 0.0
				for t, w := range kernel {
					s += w * sample1D(line, i+t-radius, pad)
				}
				f.Data[start+i*stride] = s
			}
		}
	}
}

// -------------------- Padding --------------------

func sample1D(line []float64, i int, mode PaddingMode) float64 {
	n := len(line)
	if 0 <= i && i < n {
		return line[i]
	}
	switch mode {
	case PadZeros:
		return 0
	case PadReplicate:
		return line[clamp(i, 0, n-1)]
	case PadReflect:
		return line[reflectIndex(i, n)]
	case PadCircular:
		return line[mod(i, n)]
	default:
		return line[symmetricIndex(i, n)]
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// reflectIndex implements "reflect" padding without repeating edge samples.
// Example for n=5 indices: ... 2 1 0 1 2 3 4 3 2 1 0 1 ...
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2*n - 2
	i = mod(i, period)
	if i >= n {
		i = period - i
	}
	return i
}

// symmetricIndex mirrors with the edge sample repeated.
// Example for n=3 indices: ... 1 0 0 1 2 2 1 0 0 ...
func symmetricIndex(i, n int) int {
	period := 2 * n
	i = mod(i, period)
	if i >= n {
		i = period - 1 - i
	}
	return i
}
