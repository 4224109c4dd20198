// Package consts holds the CODATA 2018 physical constants used by the
// observables, in SI units.
package consts

import "math"

const (
	Mu0          = 4 * math.Pi * 1e-7 // vacuum permeability (N/A²)
	E            = 1.602176634e-19    // elementary charge (C)
	H            = 6.62607015e-34     // Planck constant (J s)
	Hbar         = H / (2 * math.Pi)  // reduced Planck constant (J s)
	ElectronMass = 9.1093837015e-31   // electron rest mass (kg)
	C            = 299792458.0        // speed of light (m/s)
)
