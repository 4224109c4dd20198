package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/internal/config"
	"github.com/bob-anderson-ok/magexp/ltem"
	"github.com/bob-anderson-ok/magexp/moke"
	"github.com/bob-anderson-ok/magexp/sans"
)

const full = `{
  // every group present
  title: "Bloch helix",
  show_input_bool: true,
  window_size_pixels: 800,
  output_folder: "out",
  mesh: {p1_nm: [-50, -50, 0], p2_nm: [50, 50, 30], cell_nm: [5, 5, 1]},
  magnetisation: {pattern: "bloch_helix", ms: 1.1e6, period_nm: 20, ms_below_z_nm: 20},
  energy: {demag: true, exchange_a: 1e-11, zeeman_h: [0, 0, 1e5], anisotropy_k: 1e5},
  ltem: {kcx: 0.2, voltage_v: 300e3, cs_mm: 8, defocus_mm: 0.5, profile: true},
  mfm: {quality: 500, k: 2, tip_m: [0, 0, 1e-16], fwhm_nm: [5, 5], height_nm: 25},
  sans: {method: "pn", polarisation: [1, 0, 0], chiral: true},
  xray: {holography_fwhm_nm: [10, 10], saxs: false},
  moke: {theta_degrees: 30, n: [2, 0.5], voigt: 0.01, wavelength_nm: 600, mode: "t", kerr: true},
  magnetometry: {applied_field: [1e5, 0, 0]},
}`

const minimal = `{
  mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 10], cell_nm: [1, 1, 1]},
  magnetisation: {pattern: "uniform", ms: 8e5},
}`

func TestParse_Full(t *testing.T) {
	e, err := config.Parse([]byte(full))
	require.NoError(t, err)

	assert.Equal(t, "Bloch helix", e.Title)
	assert.True(t, e.ShowInput)
	assert.Equal(t, 800, e.WindowSizePixels)
	assert.Equal(t, "out", e.OutputFolder)
	assert.Equal(t, [3]int{20, 20, 30}, e.Mesh.N)

	m := e.Magnetisation
	assert.Equal(t, config.BlochHelix, m.Pattern)
	assert.Equal(t, 1.1e6, m.Ms)
	assert.InDelta(t, 20e-9, m.Period, 1e-20)
	require.NotNil(t, m.MsBelowZ)
	assert.InDelta(t, 20e-9, *m.MsBelowZ, 1e-20)

	assert.True(t, e.Energy.Demag)
	assert.Equal(t, 1e-11, e.Energy.ExchangeA)
	require.NotNil(t, e.Energy.Zeeman)
	assert.Equal(t, r3.Vec{Z: 1e5}, *e.Energy.Zeeman)
	assert.Equal(t, r3.Vec{Z: 1}, e.Energy.AnisotropyAxis)

	require.NotNil(t, e.LTEM)
	assert.Equal(t, 0.2, e.LTEM.Kcx)
	assert.Equal(t, ltem.DefaultFilterRadius, e.LTEM.Kcy)
	assert.InDelta(t, 8e-3, e.LTEM.Defocus.Cs, 1e-15)
	assert.InDelta(t, 0.5e-3, e.LTEM.Defocus.DefocusLength, 1e-15)
	u, ok := e.LTEM.Defocus.Beam.Voltage()
	assert.True(t, ok)
	assert.Equal(t, 300e3, u)
	assert.True(t, e.LTEM.Profile)

	require.NotNil(t, e.MFM)
	assert.Equal(t, 500.0, e.MFM.Params.Quality)
	assert.Equal(t, 2.0, e.MFM.Params.K)
	assert.Equal(t, r3.Vec{Z: 1e-16}, e.MFM.Params.TipM)
	assert.InDeltaSlice(t, []float64{5e-9, 5e-9}, e.MFM.Params.FWHM, 1e-20)
	assert.InDelta(t, 25e-9, e.MFM.Height, 1e-20)

	require.NotNil(t, e.SANS)
	assert.Equal(t, sans.PlusMinus, e.SANS.Method)
	assert.Equal(t, r3.Vec{X: 1}, e.SANS.Polarisation)
	assert.True(t, e.SANS.Chiral)

	require.NotNil(t, e.XRay)
	assert.True(t, e.XRay.Holography)
	assert.False(t, e.XRay.SAXS)
	assert.Len(t, e.XRay.HolographyFWHM, 2)

	require.NotNil(t, e.MOKE)
	assert.Equal(t, moke.Transmission, e.MOKE.Mode)
	assert.Equal(t, complex(2, 0.5), e.MOKE.Params.N)
	assert.Equal(t, complex(0.01, 0), e.MOKE.Params.Voigt)
	assert.InDelta(t, 0.5235987755982988, e.MOKE.Params.Theta, 1e-12)
	assert.Equal(t, [2]complex128{1, 0}, e.MOKE.Incident)
	assert.True(t, e.MOKE.Kerr)

	require.NotNil(t, e.Magnetometry)
	assert.Equal(t, r3.Vec{X: 1e5}, e.Magnetometry.AppliedField)
}

func TestParse_Defaults(t *testing.T) {
	e, err := config.Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, 500, e.WindowSizePixels)
	assert.Equal(t, ".", e.OutputFolder)
	assert.Equal(t, r3.Vec{Z: 1}, e.Magnetisation.Direction)
	assert.Nil(t, e.Magnetisation.MsBelowZ)
	assert.False(t, e.Energy.Demag)
	assert.Nil(t, e.Energy.Zeeman)
	assert.Nil(t, e.LTEM)
	assert.Nil(t, e.MFM)
	assert.Nil(t, e.SANS)
	assert.Nil(t, e.XRay)
	assert.Nil(t, e.MOKE)
	assert.Nil(t, e.Magnetometry)
}

func TestParse_Magnetisation(t *testing.T) {
	mesh := `mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 10], cell_nm: [1, 1, 1]},`
	below := 5e-9

	for _, tc := range []struct {
		name, group string
		want        config.Magnetisation
	}{
		{
			"Wall",
			`{pattern: "domain_wall", ms: 1}`,
			config.Magnetisation{Pattern: config.DomainWall, Ms: 1, WallWidth: 10e-9},
		},
		{
			"Neel",
			`{pattern: "neel_helix", ms: 2, period_nm: 25}`,
			config.Magnetisation{Pattern: config.NeelHelix, Ms: 2, Period: 25e-9},
		},
		{
			"Slab",
			`{pattern: "uniform", ms: 3, direction: [1, 0, 0], ms_below_z_nm: 5}`,
			config.Magnetisation{Pattern: config.Uniform, Ms: 3, Direction: r3.Vec{X: 1}, MsBelowZ: &below},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, err := config.Parse([]byte(`{` + mesh + `magnetisation: ` + tc.group + `}`))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, e.Magnetisation, cmpopts.EquateApprox(1e-12, 0)); diff != "" {
				t.Errorf("magnetisation mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	mesh := `mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 10], cell_nm: [1, 1, 1]},`
	uniform := `magnetisation: {pattern: "uniform", ms: 8e5},`

	for _, tc := range []struct {
		name, input, msg string
	}{
		{"NoMesh", `{` + uniform + `}`, "mesh: not found"},
		{"NoCell", `{mesh: {p1_nm: [0, 0, 0], p2_nm: [1, 1, 1]},` + uniform + `}`, "mesh.cell_nm: not found"},
		{"ShortVec", `{mesh: {p1_nm: [0, 0], p2_nm: [1, 1, 1], cell_nm: [1, 1, 1]},` + uniform + `}`, "mesh.p1_nm: needs 3 values, got 2"},
		{"NoMs", `{` + mesh + `magnetisation: {pattern: "uniform"}}`, "magnetisation.ms: not found"},
		{"MsString", `{` + mesh + `magnetisation: {pattern: "uniform", ms: "big"}}`, "magnetisation.ms: is not a float64"},
		{"NoPattern", `{` + mesh + `magnetisation: {ms: 1}}`, "magnetisation.pattern: not found"},
		{"Pattern", `{` + mesh + `magnetisation: {pattern: "skyrmion", ms: 1}}`, `magnetisation.pattern: unknown pattern "skyrmion"`},
		{"Period", `{` + mesh + `magnetisation: {pattern: "neel_helix", ms: 1}}`, "magnetisation.period_nm: not found"},
		{"Title", `{title: 3,` + mesh + uniform + `}`, "title: is not a string"},
		{"ShowInput", `{show_input_bool: 1,` + mesh + uniform + `}`, "show_input_bool: is not a bool"},
		{"MfmDemag", `{` + mesh + uniform + `mfm: {}}`, "mfm: needs energy.demag to be true"},
		{"SansMethod", `{` + mesh + uniform + `sans: {method: "xx"}}`, `sans.method: sans: unknown cross section method: "xx"`},
		{"MokeWavelength", `{` + mesh + uniform + `moke: {}}`, "moke.wavelength_nm: not found"},
		{"MokeIndex", `{` + mesh + uniform + `moke: {wavelength_nm: 600, n: [1, 2, 3]}}`, "moke.n: is not a float64 or [re, im] pair"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.input))
			require.Error(t, err)
			var ke *config.KeyError
			require.True(t, errors.As(err, &ke), "%v", err)
			assert.Equal(t, tc.msg, err.Error())
		})
	}

	_, err := config.Parse([]byte(`{mesh: `))
	require.Error(t, err)
}

func TestParse_InconsistentBeam(t *testing.T) {
	input := `{
  mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 10], cell_nm: [1, 1, 1]},
  magnetisation: {pattern: "uniform", ms: 8e5},
  ltem: {voltage_v: 300e3, wavelength_pm: 5},
}`
	_, err := config.Parse([]byte(input))
	require.ErrorContains(t, err, "ltem:")

	consistent := `{
  mesh: {p1_nm: [0, 0, 0], p2_nm: [10, 10, 10], cell_nm: [1, 1, 1]},
  magnetisation: {pattern: "uniform", ms: 8e5},
  ltem: {voltage_v: 300e3, wavelength_pm: 1.9687},
}`
	e, err := config.Parse([]byte(consistent))
	require.NoError(t, err)
	lambda, err := e.LTEM.Defocus.Beam.Wavelength()
	require.NoError(t, err)
	assert.InDelta(t, 1.9687e-12, lambda, 1e-18)
}

func TestLoad(t *testing.T) {
	name := filepath.Join(t.TempDir(), "experiment.json5")
	require.NoError(t, os.WriteFile(name, []byte(minimal), 0o644))

	e, data, err := config.Load(name)
	require.NoError(t, err)
	assert.Equal(t, minimal, string(data))
	assert.Equal(t, "uniform", e.Magnetisation.Pattern)

	_, _, err = config.Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
