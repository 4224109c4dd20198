// Package experiment runs the observables selected in an experiment file and
// writes their quick-look images.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/internal/config"
	"github.com/bob-anderson-ok/magexp/ltem"
	"github.com/bob-anderson-ok/magexp/magnetometry"
	"github.com/bob-anderson-ok/magexp/mfm"
	"github.com/bob-anderson-ok/magexp/micromag"
	"github.com/bob-anderson-ok/magexp/moke"
	"github.com/bob-anderson-ok/magexp/quickplot"
	"github.com/bob-anderson-ok/magexp/sans"
	"github.com/bob-anderson-ok/magexp/xray"
)

const (
	imageWidth  = 600
	imageHeight = 500

	// gray16Scale maps intensities of order 1 onto 16-bit pixels with
	// headroom for bright fringes.
	gray16Scale = 4000
)

// Output is one written file.
type Output struct {
	Name string
	Path string
}

// Summary reports what a run produced.
type Summary struct {
	Title   string
	Energy  string
	Outputs []Output

	// Set when the corresponding observable ran.
	Magnetisation *r3.Vec
	Torque        *r3.Vec
	Defocus       *ltem.ImageStats

	// MaxEffectiveField is the largest |H_eff| (A/m) of the energy terms,
	// set when the sample has any.
	MaxEffectiveField *float64
	// DefocusClipped counts the pixels of the 16-bit defocus export that
	// could not hold their intensity.
	DefocusClipped int

	Elapsed time.Duration
}

// Images returns the paths of the written PNG files in run order.
func (s *Summary) Images() []string {
	paths := make([]string, len(s.Outputs))
	for i, o := range s.Outputs {
		paths[i] = o.Path
	}
	return paths
}

type runner struct {
	ctx context.Context
	e   *config.Experiment
	sys *micromag.System
	log *zap.Logger
	sum *Summary
}

// Run builds the sample of e and computes every requested observable. Images
// are written to e.OutputFolder, which is created if needed. The context is
// checked between stages.
func Run(ctx context.Context, e *config.Experiment, log *zap.Logger) (*Summary, error) {
	start := time.Now()
	if err := os.MkdirAll(e.OutputFolder, 0o755); err != nil {
		return nil, fmt.Errorf("output folder: %w", err)
	}

	sys, err := System(e)
	if err != nil {
		return nil, err
	}
	log.Info("Sample built",
		zap.String("pattern", e.Magnetisation.Pattern),
		zap.Ints("cells", e.Mesh.N[:]),
		zap.Stringer("energy", sys.Energy))

	r := &runner{ctx: ctx, e: e, sys: sys, log: log, sum: &Summary{Title: e.Title, Energy: sys.Energy.String()}}

	stages := []struct {
		name    string
		enabled bool
		run     func() error
	}{
		{"magnetisation", true, r.magnetisation},
		{"ltem", e.LTEM != nil, r.ltem},
		{"mfm", e.MFM != nil, r.mfm},
		{"sans", e.SANS != nil, r.sans},
		{"xray", e.XRay != nil, r.xray},
		{"moke", e.MOKE != nil, r.moke},
		{"magnetometry", e.Magnetometry != nil, r.magnetometry},
	}
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		if err := s.run(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		log.Info("Stage complete", zap.String("stage", s.name), zap.Duration("elapsed", time.Since(stageStart)))
	}

	r.sum.Elapsed = time.Since(start)
	return r.sum, nil
}

func (r *runner) heatMap(name, title string, f *field.Field, reciprocal bool, decorate func(*quickplot.Figure) error) error {
	fig, err := quickplot.Plane(f, quickplot.Options{Title: title, Reciprocal: reciprocal})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if decorate != nil {
		if err := decorate(fig); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return r.write(name, func(path string) error { return fig.Save(path, imageWidth, imageHeight) })
}

func (r *runner) write(name string, save func(path string) error) error {
	path := filepath.Join(r.e.OutputFolder, name+".png")
	if err := save(path); err != nil {
		return fmt.Errorf("writing of %q failed: %w", path, err)
	}
	r.sum.Outputs = append(r.sum.Outputs, Output{Name: name, Path: path})
	r.log.Debug("Wrote image", zap.String("path", path))
	return nil
}

// magnetisation plots m_z in the bottom layer of the sample.
func (r *runner) magnetisation() error {
	mz, err := r.sys.M.Component(2)
	if err != nil {
		return err
	}
	bottom, err := mz.Plane(field.Z, 0)
	if err != nil {
		return err
	}
	if err := r.heatMap("magnetisation_mz", "m_z, bottom layer (A/m)", bottom, false, nil); err != nil {
		return err
	}
	if len(r.sys.Energy) == 0 {
		return nil
	}

	h, err := r.sys.EffectiveField()
	if err != nil {
		return err
	}
	norm := h.Norm()
	i, j, k := norm.ArgMax(0)
	hMax := norm.At(i, j, k)[0]
	r.sum.MaxEffectiveField = &hMax
	r.log.Info("Effective field",
		zap.Stringer("energy", r.sys.Energy),
		zap.Float64("max_A_per_m", hMax))
	return nil
}

func (r *runner) ltem() error {
	c := r.e.LTEM
	phase, ftPhase, err := ltem.Phase(r.sys.M, c.Kcx, c.Kcy)
	if err != nil {
		return err
	}
	var path func(*quickplot.Figure) error
	if c.Profile {
		m := phase.Mesh
		y := (m.P1.Y + m.P2.Y) / 2
		path = func(fig *quickplot.Figure) error { return fig.AddSegment(m.P1.X, y, m.P2.X, y) }
	}
	if err := r.heatMap("ltem_phase", "LTEM phase (rad)", phase.Real(), false, path); err != nil {
		return err
	}

	a, b := c.Kcx*ftPhase.Mesh.Cell.X, c.Kcy*ftPhase.Mesh.Cell.Y
	err = r.heatMap("ltem_ft_phase", "|FT(phase)|²", ftPhase.Abs2(), true, func(fig *quickplot.Figure) error {
		if a > 0 && b > 0 {
			return fig.AddEllipse(0, 0, a, b)
		}
		return nil
	})
	if err != nil {
		return err
	}

	imfd, err := ltem.IntegratedMagneticFluxDensity(phase)
	if err != nil {
		return err
	}
	if err := r.heatMap("ltem_imfd", "|∫B dz| (T m)", imfd.Norm(), false, nil); err != nil {
		return err
	}

	if c.Profile {
		if err := r.ltemProfile(phase.Real()); err != nil {
			return err
		}
	}

	if _, err := c.Defocus.Beam.Wavelength(); errors.Is(err, ltem.ErrNoBeamEnergy) {
		r.log.Warn("No voltage or wavelength given, skipping the defocus image")
		return nil
	}
	img, err := ltem.DefocusImage(phase, c.Defocus)
	if err != nil {
		return err
	}
	stats := ltem.Stats(img)
	r.sum.Defocus = &stats
	r.log.Info("Defocus image",
		zap.Stringer("beam", c.Defocus.Beam),
		zap.Float64("contrast", stats.Contrast))

	if err := r.heatMap("ltem_defocus", "Defocused intensity", img, false, nil); err != nil {
		return err
	}
	m, err := quickplot.PlaneMatrix(img, 0)
	if err != nil {
		return err
	}
	view, err := quickplot.GrayView(m, 0, 100)
	if err != nil {
		return fmt.Errorf("creation of the display image failed: %w", err)
	}
	if err := r.write("ltem_defocus_8bit", func(path string) error { return quickplot.SavePNG(path, view) }); err != nil {
		return err
	}
	data, err := quickplot.Gray16(m, gray16Scale)
	if err != nil {
		return fmt.Errorf("creation of the 16-bit image failed: %w", err)
	}
	err = r.write("ltem_defocus_16bit", func(path string) error { return quickplot.SavePNG(path, data) })
	if err != nil {
		return err
	}
	return r.checkGray16(r.sum.Outputs[len(r.sum.Outputs)-1].Path, m)
}

// checkGray16 reads a 16-bit export back and counts the pixels that differ
// from want by more than the quantisation step.
func (r *runner) checkGray16(path string, want [][]float64) error {
	got, err := quickplot.ReadGray16PNG(path, gray16Scale)
	if err != nil {
		return fmt.Errorf("reading back %q failed: %w", path, err)
	}
	clipped := 0
	for y := range want {
		for x, v := range want[y] {
			if math.Abs(got[y][x]-v) > 1.0/gray16Scale {
				clipped++
			}
		}
	}
	r.sum.DefocusClipped = clipped
	if clipped > 0 {
		r.log.Warn("16-bit export clipped",
			zap.String("path", path),
			zap.Int("pixels", clipped),
			zap.Float64("max_intensity", math.MaxUint16/float64(gray16Scale)))
	}
	return nil
}

// ltemProfile plots the phase along x through the centre of the sample.
func (r *runner) ltemProfile(phase *field.Field) error {
	m := phase.Mesh
	y := (m.P1.Y + m.P2.Y) / 2
	pts, err := phase.Line(r3.Vec{X: m.P1.X, Y: y}, r3.Vec{X: m.P2.X, Y: y}, 4*m.N[0])
	if err != nil {
		return err
	}
	fig, err := quickplot.Profile(pts, 0, "LTEM phase along x", "phase (rad)")
	if err != nil {
		return err
	}
	return r.write("ltem_phase_profile", func(path string) error { return fig.Save(path, imageWidth, imageHeight/2) })
}

func (r *runner) mfm() error {
	c := r.e.MFM
	shift, err := mfm.PhaseShift(r.sys, c.Params)
	if err != nil {
		return err
	}
	plane, err := shift.PlaneAt(field.Z, c.Height)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("MFM phase shift at z = %.3g nm (rad)", c.Height/1e-9)
	return r.heatMap("mfm_phase_shift", title, plane, false, nil)
}

func (r *runner) sans() error {
	c := r.e.SANS
	cs, err := sans.CrossSection(r.sys.M, c.Method, c.Polarisation)
	if err != nil {
		return err
	}
	plane, err := cs.PlaneAt(field.Z, 0)
	if err != nil {
		return err
	}
	if err := r.heatMap("sans_"+c.Method.String(), "SANS cross section "+c.Method.String()+", k_z = 0", plane, true, nil); err != nil {
		return err
	}
	if !c.Chiral {
		return nil
	}
	chiral, err := sans.ChiralFunction(r.sys.M, c.Polarisation)
	if err != nil {
		return err
	}
	plane, err = chiral.PlaneAt(field.Z, 0)
	if err != nil {
		return err
	}
	return r.heatMap("sans_chiral", "SANS chiral function, k_z = 0", plane, true, nil)
}

func (r *runner) xray() error {
	c := r.e.XRay
	if c.Holography {
		img, err := xray.Holography(r.sys.M, c.HolographyFWHM)
		if err != nil {
			return err
		}
		if err := r.heatMap("xray_holography", "X-ray holography, ∫m_z dz (A)", img, false, nil); err != nil {
			return err
		}
	}
	if c.SAXS {
		img, err := xray.SAXS(r.sys.M)
		if err != nil {
			return err
		}
		if err := r.heatMap("xray_saxs", "SAXS, k_z = 0", img, true, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) moke() error {
	c := r.e.MOKE
	intensity, err := moke.Intensity(r.sys.M, c.Params, c.Incident, c.Mode, c.FWHM)
	if err != nil {
		return err
	}
	if err := r.heatMap("moke_"+c.Mode.String(), "MOKE "+c.Mode.String()+" intensity", intensity, false, nil); err != nil {
		return err
	}
	if !c.Kerr {
		return nil
	}
	kerr, err := moke.KerrAngle(r.sys.M, c.Params)
	if err != nil {
		return err
	}
	if err := r.heatMap("moke_kerr_s", "Kerr rotation, s polarised (rad)", kerr.S.Real(), false, nil); err != nil {
		return err
	}
	return r.heatMap("moke_kerr_p", "Kerr rotation, p polarised (rad)", kerr.P.Real(), false, nil)
}

func (r *runner) magnetometry() error {
	m, err := magnetometry.Magnetisation(r.sys.M)
	if err != nil {
		return err
	}
	tau, err := magnetometry.Torque(r.sys.M, r.e.Magnetometry.AppliedField)
	if err != nil {
		return err
	}
	r.sum.Magnetisation, r.sum.Torque = &m, &tau
	r.log.Info("Magnetometry",
		zap.Float64s("magnetisation", []float64{m.X, m.Y, m.Z}),
		zap.Float64s("torque", []float64{tau.X, tau.Y, tau.Z}))
	return nil
}
