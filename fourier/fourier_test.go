package fourier_test

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/fourier"
)

func randomField(t *testing.T, n [3]int, dim int) *field.Field {
	t.Helper()
	m := field.MeshFromCells(r3.Vec{X: -1, Y: 2}, r3.Vec{X: 0.5, Y: 2, Z: 1e-9}, n)
	f, err := field.Zeros(m, dim)
	require.NoError(t, err)
	// deterministic pseudo-random fill
	seed := uint32(12345)
	for i := range f.Data {
		seed = seed*1664525 + 1013904223
		f.Data[i] = float64(seed%2000)/1000 - 1
	}
	return f
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		n    [3]int
		dim  int
		axes []field.Axis
	}{
		{"XYZ_even", [3]int{4, 6, 8}, 3, []field.Axis{field.X, field.Y, field.Z}},
		{"XYZ_odd", [3]int{5, 3, 7}, 1, []field.Axis{field.Z, field.X, field.Y}},
		{"XY_only", [3]int{6, 5, 3}, 3, []field.Axis{field.X, field.Y}},
		{"Z_only", [3]int{2, 2, 9}, 1, []field.Axis{field.Z}},
		{"SingleCellAxis", [3]int{8, 1, 1}, 3, []field.Axis{field.X, field.Y}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := randomField(t, tc.n, tc.dim)
			s, err := fourier.Forward(f, tc.axes...)
			require.NoError(t, err)
			back, err := fourier.Inverse(s)
			require.NoError(t, err)
			assert.Same(t, f.Mesh, back.Mesh)
			for i, v := range f.Data {
				require.InDelta(t, v, real(back.Data[i]), 1e-12)
				require.InDelta(t, 0, imag(back.Data[i]), 1e-12)
			}
		})
	}
}

func TestRoundTrip_Complex(t *testing.T) {
	f := randomField(t, [3]int{6, 4, 3}, 3)
	c := f.Complex()
	for i := range c.Data {
		c.Data[i] += complex(0, float64(i%7))
	}
	s, err := fourier.ForwardComplex(c, field.X, field.Y, field.Z)
	require.NoError(t, err)
	back, err := fourier.Inverse(s)
	require.NoError(t, err)
	for i, v := range c.Data {
		require.InDelta(t, 0, cmplx.Abs(v-back.Data[i]), 1e-12)
	}
}

func TestForward_ZeroFrequencyCentred(t *testing.T) {
	m := field.MeshFromCells(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, [3]int{5, 4, 1})
	f, err := field.NewConstant(m, 2)
	require.NoError(t, err)
	s, err := fourier.Forward(f, field.X, field.Y)
	require.NoError(t, err)

	i, j, k := s.ArgMax(0)
	assert.Equal(t, [3]int{2, 2, 0}, [3]int{i, j, k})
	assert.InDelta(t, 40.0, real(s.At(2, 2, 0)[0]), 1e-12)
	assert.Equal(t, r3.Vec{}, s.Frequency(2, 2, 0))

	// the frequency mesh puts cell centres on the bin frequencies
	centre := s.Mesh.Point(0, 3, 0)
	q := s.Frequency(0, 3, 0)
	assert.InDelta(t, q.X, centre.X, 1e-12)
	assert.InDelta(t, q.Y, centre.Y, 1e-12)
	assert.InDelta(t, -0.4, q.X, 1e-12)
	assert.InDelta(t, 0.25, q.Y, 1e-12)
}

func TestForward_PlaneWave(t *testing.T) {
	const n, d = 16, 2.0
	m := field.MeshFromCells(r3.Vec{}, r3.Vec{X: d, Y: 1, Z: 1}, [3]int{n, 1, 1})
	// three periods across the region
	f, err := field.New(m, 1, func(p r3.Vec) []float64 {
		return []float64{math.Cos(2 * math.Pi * 3 * p.X / (n * d))}
	})
	require.NoError(t, err)
	s, err := fourier.Forward(f, field.X)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		mag := cmplx.Abs(s.At(i, 0, 0)[0])
		if i == n/2+3 || i == n/2-3 {
			assert.InDelta(t, n/2, mag, 1e-9)
			assert.InDelta(t, math.Abs(float64(i-n/2))/(n*d), math.Abs(s.Frequency(i, 0, 0).X), 1e-15)
			continue
		}
		assert.InDelta(t, 0, mag, 1e-9)
	}
}

func TestFrequencyGrid(t *testing.T) {
	m := field.MeshFromCells(r3.Vec{}, r3.Vec{X: 0.5, Y: 1, Z: 1}, [3]int{4, 5, 1})
	grid, err := fourier.FrequencyGrid(m, field.X, field.Y, field.Z)
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.InDeltaSlice(t, []float64{-1, -0.5, 0, 0.5}, grid[0], 1e-12)
	assert.InDeltaSlice(t, []float64{-0.4, -0.2, 0, 0.2, 0.4}, grid[1], 1e-12)
	assert.Equal(t, []float64{0}, grid[2])
}

func TestInvalidAxis(t *testing.T) {
	f := randomField(t, [3]int{2, 2, 2}, 1)
	cases := []struct {
		name string
		axes []field.Axis
	}{
		{"Empty", nil},
		{"Duplicate", []field.Axis{field.X, field.X}},
		{"OutOfRange", []field.Axis{field.Axis(3)}},
		{"Negative", []field.Axis{field.Y, field.Axis(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fourier.Forward(f, tc.axes...)
			require.ErrorIs(t, err, fourier.ErrInvalidAxis)
			var axisErr *fourier.InvalidAxisError
			require.True(t, errors.As(err, &axisErr))
			assert.NotEmpty(t, axisErr.Reason)

			_, err = fourier.FrequencyGrid(f.Mesh, tc.axes...)
			require.ErrorIs(t, err, fourier.ErrInvalidAxis)
		})
	}
}

func TestApplyKernel(t *testing.T) {
	f := randomField(t, [3]int{4, 4, 2}, 3)
	s, err := fourier.Forward(f, field.X, field.Y)
	require.NoError(t, err)

	seen := 0
	doubled := fourier.ApplyKernel(s, func(q r3.Vec) complex128 {
		seen++
		assert.Zero(t, q.Z)
		return 2
	})
	assert.Equal(t, s.Mesh.Cells(), seen)
	for i := range s.Data {
		assert.Equal(t, 2*s.Data[i], doubled.Data[i])
	}
	// input untouched, metadata carried
	assert.NotSame(t, s.CField, doubled.CField)
	assert.Equal(t, s.Axes, doubled.Axes)
	assert.Same(t, s.Spatial, doubled.Spatial)

	sum, err := fourier.ApplyVectorKernel(s, 1, func(_ r3.Vec, in, out []complex128) {
		out[0] = in[0] + in[1] + in[2]
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Dim)
	assert.Equal(t, s.Data[0]+s.Data[1]+s.Data[2], sum.Data[0])
}

