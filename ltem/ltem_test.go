package ltem_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/consts"
	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/ltem"
)

func mesh(t *testing.T, p1, p2, cell r3.Vec) *field.Mesh {
	t.Helper()
	m, err := field.NewMesh(p1, p2, cell)
	require.NoError(t, err)
	return m
}

// domainWall is an in-plane 180° wall at x = 0.
func domainWall(t *testing.T) *field.Field {
	t.Helper()
	m := mesh(t, r3.Vec{X: -5e-9, Y: -4e-9, Z: -1e-9}, r3.Vec{X: 5e-9, Y: 4e-9, Z: 1e-9}, r3.Vec{X: 2e-9, Y: 1e-9, Z: 0.5e-9})
	return field.NewVector(m, func(p r3.Vec) r3.Vec {
		if p.X > 0 {
			return r3.Vec{Y: -1}
		}
		return r3.Vec{Y: 1}
	})
}

//----------------------------------------------------------------------------//
// Phase
//----------------------------------------------------------------------------//

func TestPhase_OutOfPlane(t *testing.T) {
	m := mesh(t, r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 1}, r3.Vec{X: 1, Y: 1, Z: 1})
	f, err := field.NewConstant(m, 0, 0, 1)
	require.NoError(t, err)

	phase, ft, err := ltem.Phase(f, ltem.DefaultFilterRadius, ltem.DefaultFilterRadius)
	require.NoError(t, err)
	assert.Equal(t, [3]int{10, 10, 1}, phase.Mesh.N)
	assert.Equal(t, 1, ft.Dim)
	for _, v := range phase.Data {
		require.Zero(t, v)
	}
}

func TestPhase_UniformInPlaneIsFlat(t *testing.T) {
	m := mesh(t, r3.Vec{}, r3.Vec{X: 8, Y: 6, Z: 2}, r3.Vec{X: 1, Y: 1, Z: 1})
	f, err := field.NewConstant(m, 1, 1, 0)
	require.NoError(t, err)
	// the only non-zero coefficient is k = 0, which the kernel removes
	phase, _, err := ltem.Phase(f, 0, 0)
	require.NoError(t, err)
	for _, v := range phase.Data {
		require.InDelta(t, 0, real(v), 1e-18)
	}
}

func TestPhase_DomainWall(t *testing.T) {
	phase, ft, err := ltem.Phase(domainWall(t), 0.1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, [3]int{5, 8, 1}, phase.Mesh.N)
	assert.Equal(t, phase.Mesh.N, ft.Mesh.N)

	re := phase.Real()
	assert.Greater(t, floats.Max(re.Data)-floats.Min(re.Data), 0.0)
	// the wall is uniform along y
	for i := 0; i < 5; i++ {
		for j := 1; j < 8; j++ {
			assert.InDelta(t, re.At(i, 0, 0)[0], re.At(i, j, 0)[0], 1e-12)
		}
	}
}

func TestPhase_Errors(t *testing.T) {
	f := domainWall(t)
	_, _, err := ltem.Phase(f, -1, 0.1)
	require.ErrorIs(t, err, ltem.ErrInvalidFilter)
	_, _, err = ltem.Phase(f, 0.1, math.NaN())
	require.ErrorIs(t, err, ltem.ErrInvalidFilter)

	scalar, err := f.Component(0)
	require.NoError(t, err)
	_, _, err = ltem.Phase(scalar, 0.1, 0.1)
	require.ErrorIs(t, err, field.ErrDim)
}

func TestIntegratedMagneticFluxDensity_Helix(t *testing.T) {
	const (
		ms        = 1e5
		period    = 64e-9
		thickness = 10e-9
	)
	m := mesh(t, r3.Vec{}, r3.Vec{X: period, Y: 4e-9, Z: thickness}, r3.Vec{X: 1e-9, Y: 1e-9, Z: thickness})
	f := field.NewVector(m, func(p r3.Vec) r3.Vec {
		return r3.Vec{Y: ms * math.Cos(2*math.Pi*p.X/period)}
	})

	phase, _, err := ltem.Phase(f, 0, 0)
	require.NoError(t, err)
	b, err := ltem.IntegratedMagneticFluxDensity(phase)
	require.NoError(t, err)
	require.Equal(t, 3, b.Dim)

	// ∫B dz recovers μ0 M t away from the one-sided boundary stencils
	amp := consts.Mu0 * ms * thickness
	for i := 1; i < m.N[0]-1; i++ {
		want := amp * math.Cos(2*math.Pi*m.Point(i, 0, 0).X/period)
		got := b.At(i, 2, 0)
		assert.InDelta(t, want, got[1], 0.01*amp, "cell %d", i)
		assert.InDelta(t, 0, got[0], 1e-6*amp)
		assert.Zero(t, got[2])
	}
}

//----------------------------------------------------------------------------//
// Beam and defocus
//----------------------------------------------------------------------------//

func TestRelativisticWavelength(t *testing.T) {
	assert.True(t, math.IsInf(ltem.RelativisticWavelength(0), 1))
	assert.InDelta(t, 1.9687489006848795e-12, ltem.RelativisticWavelength(300e3), 1e-24)
	assert.InDelta(t, 2.5079340450548006e-12, ltem.RelativisticWavelength(200e3), 1e-24)
	assert.InDelta(t, 5.355306960297786e-12, ltem.RelativisticWavelength(50e3), 1e-24)
}

func TestBeam(t *testing.T) {
	lambda, err := ltem.VoltageBeam(300e3).Wavelength()
	require.NoError(t, err)
	assert.InDelta(t, 1.9687489006848795e-12, lambda, 1e-24)

	lambda, err = ltem.WavelengthBeam(2e-12).Wavelength()
	require.NoError(t, err)
	assert.Equal(t, 2e-12, lambda)

	b, err := ltem.NewBeam(300e3, 1.9687e-12)
	require.NoError(t, err)
	u, ok := b.Voltage()
	assert.True(t, ok)
	assert.Equal(t, 300e3, u)

	_, err = ltem.NewBeam(300e3, 2.5e-12)
	require.ErrorIs(t, err, ltem.ErrInconsistentBeam)

	_, err = ltem.Beam{}.Wavelength()
	require.ErrorIs(t, err, ltem.ErrNoBeamEnergy)

	_, err = ltem.VoltageBeam(0).Wavelength()
	require.ErrorIs(t, err, ltem.ErrInvalidBeam)
	_, err = ltem.WavelengthBeam(-1).Wavelength()
	require.ErrorIs(t, err, ltem.ErrInvalidBeam)
}

func TestDefocusImage(t *testing.T) {
	phase, _, err := ltem.Phase(domainWall(t), 0.1, 0.1)
	require.NoError(t, err)

	t.Run("InFocus", func(t *testing.T) {
		img, err := ltem.DefocusImage(phase, ltem.DefocusParams{Beam: ltem.VoltageBeam(300e3)})
		require.NoError(t, err)
		for _, v := range img.Data {
			require.InDelta(t, 1.0, v, 1e-12)
		}
	})

	t.Run("Defocused", func(t *testing.T) {
		img, err := ltem.DefocusImage(phase, ltem.DefocusParams{
			Cs:            8000,
			DefocusLength: ltem.DefaultDefocusLength,
			Beam:          ltem.VoltageBeam(300e3),
		})
		require.NoError(t, err)
		// the transfer function has unit modulus, so the mean intensity is kept
		mean := img.Mean()[0]
		assert.InDelta(t, 1.0, mean, 1e-9)

		stats := ltem.Stats(img)
		assert.GreaterOrEqual(t, stats.Max, stats.Min)
		assert.InDelta(t, (stats.Max-stats.Min)/(stats.Max+stats.Min), stats.Contrast, 1e-15)
		assert.Equal(t, stats.Max, img.At(stats.MaxAt[0], stats.MaxAt[1], stats.MaxAt[2])[0])
	})

	t.Run("NoBeam", func(t *testing.T) {
		_, err := ltem.DefocusImage(phase, ltem.DefocusParams{DefocusLength: 1e-3})
		require.ErrorIs(t, err, ltem.ErrNoBeamEnergy)
	})

	t.Run("VoltageAndWavelength", func(t *testing.T) {
		b, err := ltem.NewBeam(200e3, 2.5079e-12)
		require.NoError(t, err)
		_, err = ltem.DefocusImage(phase, ltem.DefocusParams{Beam: b})
		require.NoError(t, err)
	})
}
