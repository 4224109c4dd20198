// Package quickplot renders quick-look images of observables: heat maps of
// plane fields, line profiles and plain gray-scale PNG exports.
package quickplot

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/plot"

	// Liberation fonts register automatically on import
	_ "gonum.org/v1/plot/font/liberation"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const dpi = 96

// Figure is a plot whose axes show field coordinates divided by an SI
// multiplier.
type Figure struct {
	Plot  *plot.Plot
	scale [2]float64 // plot units per field unit along the horizontal and vertical axes
}

// Image renders the figure into an in-memory image of about wPx × hPx pixels.
func (fig *Figure) Image(wPx, hPx float64) image.Image {
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	dc := draw.New(c)
	fig.Plot.Draw(dc)
	return c.Image()
}

// Save renders the figure and writes it as a PNG file.
func (fig *Figure) Save(filename string, wPx, hPx float64) error {
	return SavePNG(filename, fig.Image(wPx, hPx))
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title

	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)
	return p
}

// StepTicks places a tick at every multiple of Step.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if !(t.Step > 0) {
		return nil
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for i := 0; ; i++ {
		v := start + float64(i)*t.Step
		if v > max+t.Step*1e-9 {
			break
		}
		if math.Abs(v) < t.Step*1e-9 {
			v = 0
		}
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// niceTicks returns StepTicks with a 1, 2 or 5 × 10ⁿ step giving about
// count ticks over span.
func niceTicks(span float64, count int) StepTicks {
	if !(span > 0) || count < 1 {
		return StepTicks{Step: 1, Format: "%g"}
	}
	raw := span / float64(count)
	mag := math.Pow10(int(math.Floor(math.Log10(raw))))
	step := 10 * mag
	for _, m := range []float64{1, 2, 5} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	decimals := 0
	if step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	return StepTicks{Step: step, Format: fmt.Sprintf("%%.%df", decimals)}
}

var siPrefixes = map[int]string{
	-18: "a", -15: "f", -12: "p", -9: "n", -6: "µ", -3: "m",
	0: "", 3: "k", 6: "M", 9: "G", 12: "T", 15: "P", 18: "E",
}

// SIMultiplier returns the power of 1000 that brings |v| into [1, 1000),
// together with its SI prefix. Zero and non-finite values give (1, "").
// Exponents are limited to the range 10⁻¹⁸ to 10¹⁸.
func SIMultiplier(v float64) (float64, string) {
	v = math.Abs(v)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, ""
	}
	e := 3 * int(math.Floor(math.Log10(v)/3))
	if v/math.Pow10(e) >= 1000 {
		e += 3
	}
	if v/math.Pow10(e) < 1 {
		e -= 3
	}
	if e < -18 {
		e = -18
	}
	if e > 18 {
		e = 18
	}
	return math.Pow10(e), siPrefixes[e]
}

// SavePNG writes img to filename.
func SavePNG(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
