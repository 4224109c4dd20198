package mfm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/mfm"
	"github.com/bob-anderson-ok/magexp/micromag"
)

// sample is a thin magnetic layer below z = 0 with three stripes, under an
// air region the tip is scanned through.
func sample(t *testing.T, terms ...micromag.Term) *micromag.System {
	t.Helper()
	m, err := field.NewMesh(
		r3.Vec{X: -5e-9, Y: -4e-9, Z: -2e-9},
		r3.Vec{X: 5e-9, Y: 4e-9, Z: 6e-9},
		r3.Vec{X: 2e-9, Y: 1e-9, Z: 2e-9},
	)
	require.NoError(t, err)
	f := field.NewVector(m, func(p r3.Vec) r3.Vec {
		switch {
		case p.X < 0:
			return r3.Vec{Z: 1}
		case p.X < 1e-9:
			return r3.Vec{Y: 1}
		default:
			return r3.Vec{Z: -1}
		}
	}).WithNorm(func(p r3.Vec) float64 {
		if p.Z < 0 {
			return 384e3
		}
		return 0
	})
	sys, err := micromag.NewSystem("stripes", f, terms...)
	require.NoError(t, err)
	return sys
}

func anyNonZero(f *field.Field) bool {
	for _, v := range f.Data {
		if v != 0 {
			return true
		}
	}
	return false
}

func TestPhaseShift_TipMoments(t *testing.T) {
	sys := sample(t, micromag.Demag{}, micromag.Exchange{A: 1e-12})
	cases := []struct {
		name string
		tipM r3.Vec
		tipQ float64
	}{
		{"DipoleX", r3.Vec{X: 1e-16}, 0},
		{"DipoleY", r3.Vec{Y: 1e-16}, 0},
		{"DipoleZ", r3.Vec{Z: 1e-16}, 0},
		{"Monopole", r3.Vec{}, 1e-6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := mfm.DefaultParams()
			p.TipM, p.TipQ = tc.tipM, tc.tipQ
			ps, err := mfm.PhaseShift(sys, p)
			require.NoError(t, err)
			assert.Equal(t, sys.M.Mesh.N, ps.Mesh.N)
			assert.Equal(t, 1, ps.Dim)
			assert.True(t, anyNonZero(ps))
		})
	}
}

func TestPhaseShift_Vanishes(t *testing.T) {
	sys := sample(t, micromag.Demag{})

	noTip := mfm.DefaultParams()
	ps, err := mfm.PhaseShift(sys, noTip)
	require.NoError(t, err)
	assert.False(t, anyNonZero(ps))

	noQuality := mfm.DefaultParams()
	noQuality.TipM = r3.Vec{Z: 1e-16}
	noQuality.Quality = 0
	ps, err = mfm.PhaseShift(sys, noQuality)
	require.NoError(t, err)
	assert.False(t, anyNonZero(ps))
}

func TestPhaseShift_Linear(t *testing.T) {
	sys := sample(t, micromag.Demag{})
	p := mfm.DefaultParams()
	p.TipM = r3.Vec{Z: 1e-16}
	a, err := mfm.PhaseShift(sys, p)
	require.NoError(t, err)

	p.K *= 2
	b, err := mfm.PhaseShift(sys, p)
	require.NoError(t, err)
	for i := range a.Data {
		require.InDelta(t, a.Data[i]/2, b.Data[i], 1e-12*(1+math.Abs(a.Data[i])))
	}

	p.K /= 2
	p.Quality *= 3
	c, err := mfm.PhaseShift(sys, p)
	require.NoError(t, err)
	for i := range a.Data {
		require.InDelta(t, 3*a.Data[i], c.Data[i], 1e-12*(1+math.Abs(a.Data[i])))
	}
}

func TestPhaseShift_Smoothed(t *testing.T) {
	sys := sample(t, micromag.Demag{})
	p := mfm.DefaultParams()
	p.TipM = r3.Vec{Z: 1e-16}
	p.FWHM = []float64{2e-9, 2e-9, 2e-9}
	ps, err := mfm.PhaseShift(sys, p)
	require.NoError(t, err)
	assert.True(t, anyNonZero(ps))

	p.FWHM = []float64{2e-9}
	_, err = mfm.PhaseShift(sys, p)
	require.Error(t, err)
}

func TestPhaseShift_Errors(t *testing.T) {
	for _, k := range []float64{0, -1} {
		p := mfm.DefaultParams()
		p.K = k
		// the spring constant is checked before the energy
		_, err := mfm.PhaseShift(sample(t), p)
		require.ErrorIs(t, err, mfm.ErrSpringConstant)
	}

	_, err := mfm.PhaseShift(sample(t, micromag.Exchange{A: 1e-12}), mfm.DefaultParams())
	require.ErrorIs(t, err, mfm.ErrNoStrayField)

	for _, sys := range []*micromag.System{nil, {Energy: micromag.Energy{micromag.Demag{}}}} {
		_, err = mfm.PhaseShift(sys, mfm.DefaultParams())
		require.ErrorIs(t, err, micromag.ErrNoMagnetisation)
	}
}

func TestPhaseShift_DemagByPointer(t *testing.T) {
	p := mfm.DefaultParams()
	p.TipM = r3.Vec{Z: 1e-16}
	byValue, err := mfm.PhaseShift(sample(t, micromag.Demag{}), p)
	require.NoError(t, err)

	sys := sample(t, &micromag.Demag{})
	require.True(t, sys.Energy.Has(micromag.DemagName))
	byPointer, err := mfm.PhaseShift(sys, p)
	require.NoError(t, err)
	assert.Equal(t, byValue.Data, byPointer.Data)
}
