package quickplot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/bob-anderson-ok/magexp/field"
)

// PlaneMatrix returns component comp of a plane field as rows of pixels:
// the first row holds the largest coordinate of the second in-plane axis,
// columns run along the first.
func PlaneMatrix(f *field.Field, comp int) ([][]float64, error) {
	_, u, v, ok := f.Mesh.PlaneAxes()
	if !ok {
		return nil, fmt.Errorf("quickplot: %w: mesh has %v cells", field.ErrNotPlane, f.Mesh.N)
	}
	if comp < 0 || comp >= f.Dim {
		return nil, fmt.Errorf("quickplot: %w: component %d of a dim %d field", field.ErrDim, comp, f.Dim)
	}
	g := planeGrid{f: f, u: u, v: v, comp: comp}
	w, h := g.Dims()
	m := make([][]float64, h)
	for y := 0; y < h; y++ {
		m[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			m[y][x] = g.Z(x, h-1-y)
		}
	}
	return m, nil
}

// Gray16 maps v to Y16 = round(v * scale), clamped to [0, 65535]. NaN and
// ±Inf become 0.
func Gray16(m [][]float64, scale float64) (*image.Gray16, error) {
	w, h, err := dims(m)
	if err != nil {
		return nil, err
	}
	if !(scale > 0) {
		return nil, errors.New("scale must be > 0")
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			v := m[y][x]
			i := row + 2*x
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[i], img.Pix[i+1] = 0, 0
				continue
			}

			u := math.Round(v * scale)
			if u < 0 {
				u = 0
			} else if u > 65535 {
				u = 65535
			}
			y16 := uint16(u)

			// Gray16 Pix is big-endian per pixel: high then low
			img.Pix[i] = uint8(y16 >> 8)
			img.Pix[i+1] = uint8(y16)
		}
	}
	return img, nil
}

// GrayView maps the pLow to pHigh percentile range of the finite values of m
// onto 0..255 and clamps outside it.
func GrayView(m [][]float64, pLow, pHigh float64) (*image.Gray, error) {
	w, h, err := dims(m)
	if err != nil {
		return nil, err
	}
	if !(0 <= pLow && pLow < pHigh && pHigh <= 100) {
		return nil, errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}

	vals := make([]float64, 0, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m[y][x]
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return nil, ErrNoFiniteValues
	}
	sort.Float64s(vals)

	lo := stat.Quantile(pLow/100, stat.LinInterp, vals, nil)
	hi := stat.Quantile(pHigh/100, stat.LinInterp, vals, nil)
	if hi == lo {
		hi = lo + 1 // avoid divide-by-zero; image becomes mostly constant
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			v := m[y][x]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[row+x] = 0
				continue
			}
			t := (v - lo) / (hi - lo)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			img.Pix[row+x] = uint8(math.Round(t * 255.0))
		}
	}
	return img, nil
}

// ReadGray16PNG loads a 16-bit gray PNG written with Gray16 and divides the
// pixel values by scale.
func ReadGray16PNG(filename string, scale float64) (matrix [][]float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("%s: not a 16-bit gray image (%T)", filename, img)
	}
	b := g.Bounds()
	matrix = make([][]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		matrix[y] = make([]float64, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			matrix[y][x] = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / scale
		}
	}
	return matrix, nil
}

func dims(m [][]float64) (w, h int, err error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return 0, 0, errors.New("empty matrix")
	}
	h = len(m)
	w = len(m[0])
	for y := 1; y < h; y++ {
		if len(m[y]) != w {
			return 0, 0, errors.New("ragged matrix")
		}
	}
	return w, h, nil
}
