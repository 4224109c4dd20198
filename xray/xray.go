// Package xray computes observables of X-ray magnetic circular dichroism
// with the light travelling along z: the holographic image and the small
// angle scattering pattern. Both are sensitive only to m_z.
package xray

import (
	"fmt"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/filter"
	"github.com/bob-anderson-ok/magexp/fourier"
)

// Holography returns m_z integrated along the beam. If fwhm is not nil the
// image is smoothed with a Gaussian of those widths (x, y).
func Holography(f *field.Field, fwhm []float64) (*field.Field, error) {
	mz, err := zComponent(f)
	if err != nil {
		return nil, err
	}
	img := mz.Integrate(field.Z)
	if fwhm == nil {
		return img, nil
	}
	img, err = filter.Gaussian(img, fwhm)
	if err != nil {
		return nil, fmt.Errorf("xray holography: %w", err)
	}
	return img, nil
}

// SAXS returns |M̃_z|² on the k_z = 0 plane, with the transform scaled by
// dV·1e16 like the neutron cross sections.
func SAXS(f *field.Field) (*field.Field, error) {
	mz, err := zComponent(f)
	if err != nil {
		return nil, err
	}
	ft, err := fourier.Forward(mz, field.X, field.Y, field.Z)
	if err != nil {
		return nil, fmt.Errorf("xray saxs: %w", err)
	}
	plane, err := ft.PlaneAt(field.Z, 0)
	if err != nil {
		return nil, fmt.Errorf("xray saxs: %w", err)
	}
	return plane.Scale(complex(f.Mesh.DV()*1e16, 0)).Abs2(), nil
}

func zComponent(f *field.Field) (*field.Field, error) {
	if f.Dim != 3 {
		return nil, fmt.Errorf("xray: %w: magnetisation has dim %d", field.ErrDim, f.Dim)
	}
	return f.Component(2)
}
