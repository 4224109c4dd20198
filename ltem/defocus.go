package ltem

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/consts"
	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/fourier"
)

// DefaultDefocusLength is the defocus used by the quick-look pipeline (m).
const DefaultDefocusLength = 0.2e-3

// beamTolerance is the relative mismatch allowed between a given wavelength
// and the one implied by a given voltage.
const beamTolerance = 1e-3

var (
	// ErrNoBeamEnergy is returned when a beam has neither a voltage nor a
	// wavelength.
	ErrNoBeamEnergy = errors.New("ltem: either the accelerating voltage or the wavelength must be given")
	// ErrInconsistentBeam is returned when a beam has both a voltage and a
	// wavelength and they disagree.
	ErrInconsistentBeam = errors.New("ltem: accelerating voltage and wavelength are inconsistent")
	// ErrInvalidBeam is returned for a non-positive or non-finite voltage or
	// wavelength.
	ErrInvalidBeam = errors.New("ltem: invalid beam parameter")
)

// Beam is the energy source of the electron beam: an accelerating voltage, a
// wavelength, or both. The zero Beam has neither.
type Beam struct {
	voltage, wavelength       float64
	hasVoltage, hasWavelength bool
}

// VoltageBeam returns a beam accelerated through u volts.
func VoltageBeam(u float64) Beam {
	return Beam{voltage: u, hasVoltage: true}
}

// WavelengthBeam returns a beam of electrons with wavelength lambda (m).
func WavelengthBeam(lambda float64) Beam {
	return Beam{wavelength: lambda, hasWavelength: true}
}

// NewBeam returns a beam with both a voltage and a wavelength, after checking
// that they agree.
func NewBeam(u, lambda float64) (Beam, error) {
	b := Beam{voltage: u, wavelength: lambda, hasVoltage: true, hasWavelength: true}
	if _, err := b.Wavelength(); err != nil {
		return Beam{}, err
	}
	return b, nil
}

// Voltage returns the accelerating voltage and whether it was given.
func (b Beam) Voltage() (float64, bool) {
	return b.voltage, b.hasVoltage
}

// Wavelength resolves the electron wavelength of the beam.
func (b Beam) Wavelength() (float64, error) {
	if b.hasVoltage && (!(b.voltage > 0) || math.IsInf(b.voltage, 0)) {
		return 0, fmt.Errorf("%w: voltage %g V", ErrInvalidBeam, b.voltage)
	}
	if b.hasWavelength && (!(b.wavelength > 0) || math.IsInf(b.wavelength, 0)) {
		return 0, fmt.Errorf("%w: wavelength %g m", ErrInvalidBeam, b.wavelength)
	}
	switch {
	case b.hasVoltage && b.hasWavelength:
		want := RelativisticWavelength(b.voltage)
		if math.Abs(b.wavelength-want) > beamTolerance*want {
			return 0, fmt.Errorf("%w: %g V implies %g m, got %g m", ErrInconsistentBeam, b.voltage, want, b.wavelength)
		}
		return b.wavelength, nil
	case b.hasWavelength:
		return b.wavelength, nil
	case b.hasVoltage:
		return RelativisticWavelength(b.voltage), nil
	}
	return 0, ErrNoBeamEnergy
}

func (b Beam) String() string {
	switch {
	case b.hasVoltage && b.hasWavelength:
		return fmt.Sprintf("%g V / %g m", b.voltage, b.wavelength)
	case b.hasVoltage:
		return fmt.Sprintf("%g V", b.voltage)
	case b.hasWavelength:
		return fmt.Sprintf("%g m", b.wavelength)
	}
	return "no beam energy"
}

// RelativisticWavelength returns the de Broglie wavelength (m) of an electron
// accelerated through u volts. It is +Inf at u == 0.
func RelativisticWavelength(u float64) float64 {
	p2 := 2 * consts.ElectronMass * consts.E * u * (1 + consts.E*u/(2*consts.ElectronMass*consts.C*consts.C))
	if p2 == 0 {
		return math.Inf(1)
	}
	return consts.H / math.Sqrt(p2)
}

// DefocusParams configures the microscope transfer function.
type DefocusParams struct {
	Cs            float64 // spherical aberration coefficient (m)
	DefocusLength float64 // defocus Δf (m)
	Beam          Beam
}

// DefocusImage propagates the electron wave ψ0 = exp(iφ) to the image plane at
// defocus Δf and returns the intensity |ψ|². φ is the real part of phase.
//
// In Fourier space ψ̃ is multiplied by exp(iπλk²(−Δf + ½Csλ²k²)).
func DefocusImage(phase *field.CField, p DefocusParams) (*field.Field, error) {
	if phase.Dim != 1 {
		return nil, fmt.Errorf("ltem defocus: %w: phase has dim %d", field.ErrDim, phase.Dim)
	}
	lambda, err := p.Beam.Wavelength()
	if err != nil {
		return nil, err
	}

	wave := phase.Clone()
	for i, v := range wave.Data {
		wave.Data[i] = cmplx.Exp(complex(0, real(v)))
	}
	ft, err := fourier.ForwardComplex(wave, field.X, field.Y)
	if err != nil {
		return nil, fmt.Errorf("ltem defocus: %w", err)
	}
	ft = fourier.ApplyKernel(ft, func(k r3.Vec) complex128 {
		k2 := k.X*k.X + k.Y*k.Y
		cts := -p.DefocusLength + 0.5*lambda*lambda*p.Cs*k2
		return cmplx.Exp(complex(0, math.Pi*lambda*k2*cts))
	})
	image, err := fourier.Inverse(ft)
	if err != nil {
		return nil, fmt.Errorf("ltem defocus: %w", err)
	}
	return image.Abs2(), nil
}

// ImageStats summarises a defocus image.
type ImageStats struct {
	Max, Min     float64
	MaxAt, MinAt [3]int
	Contrast     float64 // (max − min)/(max + min)
}

// Stats returns the extrema and Michelson contrast of an intensity image.
func Stats(intensity *field.Field) ImageStats {
	var s ImageStats
	i, j, k := intensity.ArgMax(0)
	s.MaxAt = [3]int{i, j, k}
	s.Max = intensity.At(i, j, k)[0]
	i, j, k = intensity.ArgMin(0)
	s.MinAt = [3]int{i, j, k}
	s.Min = intensity.At(i, j, k)[0]
	if s.Max+s.Min != 0 {
		s.Contrast = (s.Max - s.Min) / (s.Max + s.Min)
	}
	return s
}
