package fourier_test

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bob-anderson-ok/magexp/field"
	"github.com/bob-anderson-ok/magexp/fourier"
)

// Example transforms a sampled cosine, locates its spectral peak, and
// round-trips back to real space.
func Example() {
	// 32 cells of 5 nm, a 40 nm period
	mesh := field.MeshFromCells(r3.Vec{}, r3.Vec{X: 5e-9, Y: 5e-9, Z: 5e-9}, [3]int{32, 1, 1})
	wave, err := field.New(mesh, 1, func(p r3.Vec) []float64 {
		return []float64{math.Cos(2 * math.Pi * p.X / 40e-9)}
	})
	if err != nil {
		log.Fatal(err)
	}

	spectrum, err := fourier.Forward(wave, field.X)
	if err != nil {
		log.Fatal(err)
	}
	i, j, k := spectrum.ArgMax(0)
	q := spectrum.Frequency(i, j, k)
	fmt.Printf("peak at |q| = %.4g 1/m (period %.0f nm)\n", math.Abs(q.X), 1e9/math.Abs(q.X))

	back, err := fourier.Inverse(spectrum)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("round trip: %.6f -> %.6f\n", wave.Data[3], real(back.Data[3]))

	// Output:
	// peak at |q| = 2.5e+07 1/m (period 40 nm)
	// round trip: -0.923880 -> -0.923880
}
