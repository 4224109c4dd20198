// Package magnetometry computes bulk magnetometry quantities of a
// magnetisation field.
package magnetometry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/consts"
	"github.com/bob-anderson-ok/magexp/field"
)

// ErrNoMagneticVolume is returned when every cell has zero magnetisation.
var ErrNoMagneticVolume = errors.New("magnetometry: field has no magnetic cells")

// Magnetisation returns the mean magnetisation (A/m) of the magnetic part
// of the sample, i.e. the mean over all cells divided by the fraction of
// cells with a non-zero norm.
func Magnetisation(f *field.Field) (r3.Vec, error) {
	if err := checkVector(f); err != nil {
		return r3.Vec{}, err
	}
	magnetic := f.Norm().Count(func(v float64) bool { return v != 0 })
	if magnetic == 0 {
		return r3.Vec{}, ErrNoMagneticVolume
	}
	mean := f.Mean()
	fraction := float64(magnetic) / float64(f.Mesh.Cells())
	return r3.Scale(1/fraction, r3.Vec{X: mean[0], Y: mean[1], Z: mean[2]}), nil
}

// Torque returns the torque density τ = μ0 m × H (N/m²) exerted on the
// sample by a uniform applied field H (A/m).
func Torque(f *field.Field, h r3.Vec) (r3.Vec, error) {
	hf, err := field.NewConstant(f.Mesh, h.X, h.Y, h.Z)
	if err != nil {
		return r3.Vec{}, err
	}
	return TorqueInField(f, hf)
}

// TorqueInField is Torque for a spatially varying applied field.
func TorqueInField(f, h *field.Field) (r3.Vec, error) {
	if err := checkVector(f); err != nil {
		return r3.Vec{}, err
	}
	if err := checkVector(h); err != nil {
		return r3.Vec{}, err
	}
	if !f.Mesh.SameShape(h.Mesh) {
		return r3.Vec{}, fmt.Errorf("magnetometry: %w: field %v, applied field %v", field.ErrShape, f.Mesh.N, h.Mesh.N)
	}
	magnetic := f.Norm().Count(func(v float64) bool { return v != 0 })
	if magnetic == 0 {
		return r3.Vec{}, ErrNoMagneticVolume
	}
	volume := float64(magnetic) * f.Mesh.DV()

	var sum r3.Vec
	for idx := 0; idx < f.Mesh.Cells(); idx++ {
		moment := r3.Scale(volume, f.Vec(idx))
		sum = r3.Add(sum, r3.Cross(moment, r3.Scale(consts.Mu0, h.Vec(idx))))
	}
	return r3.Scale(f.Mesh.DV()/(volume*volume), sum), nil
}

func checkVector(f *field.Field) error {
	if f.Dim != 3 {
		return fmt.Errorf("magnetometry: %w: got dim %d", field.ErrDim, f.Dim)
	}
	return nil
}
