// Package config reads JSON5 experiment files.
//
// An experiment file describes a sample (mesh, magnetisation pattern and
// energy terms) and the observables to compute from it. Lengths are given in
// nm. Every observable is a group that is computed only when present:
//
//	{
//	  title: "Bloch helix",
//	  output_folder: "out",
//	  mesh: {p1_nm: [-50, -50, 0], p2_nm: [50, 50, 30], cell_nm: [5, 5, 1]},
//	  magnetisation: {pattern: "bloch_helix", ms: 1.1e6, period_nm: 20},
//	  energy: {demag: true},
//	  ltem: {voltage_v: 300e3, defocus_mm: 0.2},
//	  sans: {method: "unpol"},
//	}
package config

import (
	"fmt"
	"math"
	"os"

	json "github.com/KevinWang15/go-json5"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/ltem"
	"github.com/bob-anderson-ok/magexp/mfm"
	"github.com/bob-anderson-ok/magexp/moke"
	"github.com/bob-anderson-ok/magexp/sans"
)

const nm = 1e-9

// Magnetisation patterns.
const (
	Uniform    = "uniform"
	BlochHelix = "bloch_helix"
	NeelHelix  = "neel_helix"
	DomainWall = "domain_wall"
)

// Experiment is a validated experiment file. Lengths are in metres.
type Experiment struct {
	Title            string
	ShowInput        bool
	WindowSizePixels int
	OutputFolder     string

	Mesh          *field.Mesh
	Magnetisation Magnetisation
	Energy        Energy

	// Observables; nil when not requested.
	LTEM         *LTEM
	MFM          *MFM
	SANS         *SANS
	XRay         *XRay
	MOKE         *MOKE
	Magnetometry *Magnetometry
}

type Magnetisation struct {
	Pattern   string
	Ms        float64 // saturation magnetisation (A/m)
	Direction r3.Vec  // uniform
	Period    float64 // helices
	WallWidth float64 // domain_wall
	// MsBelowZ, when set, makes the sample magnetic only for z < *MsBelowZ.
	MsBelowZ *float64
}

type Energy struct {
	Demag          bool
	ExchangeA      float64 // J/m, 0 for none
	Zeeman         *r3.Vec // A/m
	AnisotropyK    float64 // J/m³, 0 for none
	AnisotropyAxis r3.Vec
}

type LTEM struct {
	Kcx, Kcy float64
	Defocus  ltem.DefocusParams
	// Profile draws the phase along the x axis through the sample centre.
	Profile bool
}

type MFM struct {
	Params mfm.Params
	// Height is the z coordinate of the plotted scan plane.
	Height float64
}

type SANS struct {
	Method       sans.Method
	Polarisation r3.Vec
	Chiral       bool
}

type XRay struct {
	Holography     bool
	HolographyFWHM []float64
	SAXS           bool
}

type MOKE struct {
	Params   moke.Params
	Mode     moke.Mode
	Incident [2]complex128
	FWHM     []float64
	Kerr     bool
}

type Magnetometry struct {
	AppliedField r3.Vec
}

// Load reads and validates an experiment file. The raw file contents are
// returned for display.
func Load(path string) (*Experiment, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	e, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return e, data, nil
}

// Parse validates JSON5 experiment data.
func Parse(data []byte) (*Experiment, error) {
	var jsonTable map[string]interface{}
	if err := json.Unmarshal(data, &jsonTable); err != nil {
		return nil, fmt.Errorf("format error: %w", err)
	}
	e := &Experiment{}
	if err := fill(jsonTable, e); err != nil {
		return nil, err
	}
	return e, nil
}

func fill(jsonTable map[string]interface{}, e *Experiment) error {
	var err error
	if e.Title, err = stringOr(jsonTable, "", "title"); err != nil {
		return err
	}
	if e.ShowInput, err = boolOr(jsonTable, false, "show_input_bool"); err != nil {
		return err
	}
	size, err := floatOr(jsonTable, 500, "window_size_pixels")
	if err != nil {
		return err
	}
	e.WindowSizePixels = int(size)
	if e.OutputFolder, err = stringOr(jsonTable, ".", "output_folder"); err != nil {
		return err
	}

	if e.Mesh, err = parseMesh(jsonTable); err != nil {
		return err
	}
	if e.Magnetisation, err = parseMagnetisation(jsonTable); err != nil {
		return err
	}
	if e.Energy, err = parseEnergy(jsonTable); err != nil {
		return err
	}

	if has(jsonTable, "ltem") {
		if e.LTEM, err = parseLTEM(jsonTable); err != nil {
			return err
		}
	}
	if has(jsonTable, "mfm") {
		if e.MFM, err = parseMFM(jsonTable, e.Mesh); err != nil {
			return err
		}
		if !e.Energy.Demag {
			return &KeyError{Key: "mfm", Problem: "needs energy.demag to be true"}
		}
	}
	if has(jsonTable, "sans") {
		if e.SANS, err = parseSANS(jsonTable); err != nil {
			return err
		}
	}
	if has(jsonTable, "xray") {
		if e.XRay, err = parseXRay(jsonTable); err != nil {
			return err
		}
	}
	if has(jsonTable, "moke") {
		if e.MOKE, err = parseMOKE(jsonTable); err != nil {
			return err
		}
	}
	if has(jsonTable, "magnetometry") {
		h, err := vecOr(jsonTable, r3.Vec{}, "magnetometry", "applied_field")
		if err != nil {
			return err
		}
		e.Magnetometry = &Magnetometry{AppliedField: h}
	}
	return nil
}

func parseMesh(jsonTable map[string]interface{}) (*field.Mesh, error) {
	if !has(jsonTable, "mesh") {
		return nil, notFound([]string{"mesh"})
	}
	p1, err := requireVec(jsonTable, "mesh", "p1_nm")
	if err != nil {
		return nil, err
	}
	p2, err := requireVec(jsonTable, "mesh", "p2_nm")
	if err != nil {
		return nil, err
	}
	cell, err := requireVec(jsonTable, "mesh", "cell_nm")
	if err != nil {
		return nil, err
	}
	m, err := field.NewMesh(r3.Scale(nm, p1), r3.Scale(nm, p2), r3.Scale(nm, cell))
	if err != nil {
		return nil, &KeyError{Key: "mesh", Problem: err.Error()}
	}
	return m, nil
}

func parseMagnetisation(jsonTable map[string]interface{}) (Magnetisation, error) {
	var m Magnetisation
	if !has(jsonTable, "magnetisation") {
		return m, notFound([]string{"magnetisation"})
	}
	pattern, err := stringOr(jsonTable, "", "magnetisation", "pattern")
	if err != nil {
		return m, err
	}
	m.Pattern = pattern
	if m.Ms, err = requireFloat(jsonTable, "magnetisation", "ms"); err != nil {
		return m, err
	}

	switch pattern {
	case Uniform:
		m.Direction, err = vecOr(jsonTable, r3.Vec{Z: 1}, "magnetisation", "direction")
		if err == nil && r3.Norm(m.Direction) == 0 {
			err = &KeyError{Key: "magnetisation.direction", Problem: "must be non-zero"}
		}
	case BlochHelix, NeelHelix:
		m.Period, err = requireFloat(jsonTable, "magnetisation", "period_nm")
		m.Period *= nm
		if err == nil && !(m.Period > 0) {
			err = &KeyError{Key: "magnetisation.period_nm", Problem: "must be > 0"}
		}
	case DomainWall:
		m.WallWidth, err = floatOr(jsonTable, 10, "magnetisation", "wall_width_nm")
		m.WallWidth *= nm
		if err == nil && !(m.WallWidth > 0) {
			err = &KeyError{Key: "magnetisation.wall_width_nm", Problem: "must be > 0"}
		}
	case "":
		err = notFound([]string{"magnetisation", "pattern"})
	default:
		err = &KeyError{Key: "magnetisation.pattern", Problem: fmt.Sprintf("unknown pattern %q", pattern)}
	}
	if err != nil {
		return m, err
	}

	if has(jsonTable, "magnetisation", "ms_below_z_nm") {
		z, err := requireFloat(jsonTable, "magnetisation", "ms_below_z_nm")
		if err != nil {
			return m, err
		}
		z *= nm
		m.MsBelowZ = &z
	}
	return m, nil
}

func parseEnergy(jsonTable map[string]interface{}) (Energy, error) {
	var e Energy
	var err error
	if e.Demag, err = boolOr(jsonTable, false, "energy", "demag"); err != nil {
		return e, err
	}
	if e.ExchangeA, err = floatOr(jsonTable, 0, "energy", "exchange_a"); err != nil {
		return e, err
	}
	if has(jsonTable, "energy", "zeeman_h") {
		h, err := requireVec(jsonTable, "energy", "zeeman_h")
		if err != nil {
			return e, err
		}
		e.Zeeman = &h
	}
	if e.AnisotropyK, err = floatOr(jsonTable, 0, "energy", "anisotropy_k"); err != nil {
		return e, err
	}
	if e.AnisotropyAxis, err = vecOr(jsonTable, r3.Vec{Z: 1}, "energy", "anisotropy_axis"); err != nil {
		return e, err
	}
	return e, nil
}

func parseLTEM(jsonTable map[string]interface{}) (*LTEM, error) {
	l := &LTEM{}
	var err error
	if l.Kcx, err = floatOr(jsonTable, ltem.DefaultFilterRadius, "ltem", "kcx"); err != nil {
		return nil, err
	}
	if l.Kcy, err = floatOr(jsonTable, ltem.DefaultFilterRadius, "ltem", "kcy"); err != nil {
		return nil, err
	}
	cs, err := floatOr(jsonTable, 0, "ltem", "cs_mm")
	if err != nil {
		return nil, err
	}
	df, err := floatOr(jsonTable, ltem.DefaultDefocusLength*1e3, "ltem", "defocus_mm")
	if err != nil {
		return nil, err
	}
	l.Defocus.Cs = cs * 1e-3
	l.Defocus.DefocusLength = df * 1e-3

	hasU, hasLambda := has(jsonTable, "ltem", "voltage_v"), has(jsonTable, "ltem", "wavelength_pm")
	u, err := floatOr(jsonTable, 0, "ltem", "voltage_v")
	if err != nil {
		return nil, err
	}
	lambda, err := floatOr(jsonTable, 0, "ltem", "wavelength_pm")
	if err != nil {
		return nil, err
	}
	lambda *= 1e-12
	switch {
	case hasU && hasLambda:
		l.Defocus.Beam, err = ltem.NewBeam(u, lambda)
		if err != nil {
			return nil, &KeyError{Key: "ltem", Problem: err.Error()}
		}
	case hasU:
		l.Defocus.Beam = ltem.VoltageBeam(u)
	case hasLambda:
		l.Defocus.Beam = ltem.WavelengthBeam(lambda)
	}

	if l.Profile, err = boolOr(jsonTable, false, "ltem", "profile"); err != nil {
		return nil, err
	}
	return l, nil
}

func parseMFM(jsonTable map[string]interface{}, mesh *field.Mesh) (*MFM, error) {
	m := &MFM{Params: mfm.DefaultParams()}
	p := &m.Params
	var err error
	if p.Quality, err = floatOr(jsonTable, p.Quality, "mfm", "quality"); err != nil {
		return nil, err
	}
	if p.K, err = floatOr(jsonTable, p.K, "mfm", "k"); err != nil {
		return nil, err
	}
	if p.TipM, err = vecOr(jsonTable, r3.Vec{}, "mfm", "tip_m"); err != nil {
		return nil, err
	}
	if p.TipQ, err = floatOr(jsonTable, 0, "mfm", "tip_q"); err != nil {
		return nil, err
	}
	fwhm, err := floatsOr(jsonTable, []float64{}, "mfm", "fwhm_nm")
	if err != nil {
		return nil, err
	}
	p.FWHM = scaled(fwhm, nm)

	top := mesh.P2.Z - mesh.Cell.Z/2
	if m.Height, err = floatOr(jsonTable, top/nm, "mfm", "height_nm"); err != nil {
		return nil, err
	}
	m.Height *= nm
	if _, err := mesh.CellIndex(field.Z, m.Height); err != nil {
		return nil, &KeyError{Key: "mfm.height_nm", Problem: err.Error()}
	}
	return m, nil
}

func parseSANS(jsonTable map[string]interface{}) (*SANS, error) {
	s := &SANS{}
	method, err := stringOr(jsonTable, "unpol", "sans", "method")
	if err != nil {
		return nil, err
	}
	if s.Method, err = sans.ParseMethod(method); err != nil {
		return nil, &KeyError{Key: "sans.method", Problem: err.Error()}
	}
	if s.Polarisation, err = vecOr(jsonTable, sans.DefaultPolarisation, "sans", "polarisation"); err != nil {
		return nil, err
	}
	if s.Chiral, err = boolOr(jsonTable, false, "sans", "chiral"); err != nil {
		return nil, err
	}
	return s, nil
}

func parseXRay(jsonTable map[string]interface{}) (*XRay, error) {
	x := &XRay{}
	var err error
	if x.Holography, err = boolOr(jsonTable, true, "xray", "holography"); err != nil {
		return nil, err
	}
	if has(jsonTable, "xray", "holography_fwhm_nm") {
		fwhm, err := floatsOr(jsonTable, nil, "xray", "holography_fwhm_nm")
		if err != nil {
			return nil, err
		}
		x.HolographyFWHM = scaled(fwhm, nm)
	}
	if x.SAXS, err = boolOr(jsonTable, true, "xray", "saxs"); err != nil {
		return nil, err
	}
	return x, nil
}

func parseMOKE(jsonTable map[string]interface{}) (*MOKE, error) {
	m := &MOKE{Incident: [2]complex128{1, 0}}
	p := &m.Params
	theta, err := floatOr(jsonTable, 0, "moke", "theta_degrees")
	if err != nil {
		return nil, err
	}
	p.Theta = theta * math.Pi / 180
	if p.N, err = complexOr(jsonTable, 1, "moke", "n"); err != nil {
		return nil, err
	}
	if p.Voigt, err = complexOr(jsonTable, 0, "moke", "voigt"); err != nil {
		return nil, err
	}
	lambda, err := requireFloat(jsonTable, "moke", "wavelength_nm")
	if err != nil {
		return nil, err
	}
	p.Wavelength = lambda * nm

	mode, err := stringOr(jsonTable, "reflection", "moke", "mode")
	if err != nil {
		return nil, err
	}
	if m.Mode, err = moke.ParseMode(mode); err != nil {
		return nil, &KeyError{Key: "moke.mode", Problem: err.Error()}
	}
	if m.Incident[0], err = complexOr(jsonTable, m.Incident[0], "moke", "e_s"); err != nil {
		return nil, err
	}
	if m.Incident[1], err = complexOr(jsonTable, m.Incident[1], "moke", "e_p"); err != nil {
		return nil, err
	}
	if has(jsonTable, "moke", "fwhm_nm") {
		fwhm, err := floatsOr(jsonTable, nil, "moke", "fwhm_nm")
		if err != nil {
			return nil, err
		}
		m.FWHM = scaled(fwhm, nm)
	}
	if m.Kerr, err = boolOr(jsonTable, false, "moke", "kerr"); err != nil {
		return nil, err
	}
	return m, nil
}

// scaled returns nil for an empty slice.
func scaled(v []float64, s float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}
