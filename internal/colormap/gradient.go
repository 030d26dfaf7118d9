package colormap

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// Gradient is a continuous colormap defined on the unit interval and
// stretched over [Min, Max].
type Gradient struct {
	name     string
	fn       func(x float64) (r, g, b float64)
	min, max float64
	alpha    float64
}

// Turbo approximates Google's Turbo map with the published degree-5
// polynomial fit: dark blue through cyan, green and yellow to dark red.
func Turbo() *Gradient {
	return &Gradient{name: "turbo", fn: turbo, max: 1, alpha: 1}
}

// Jet is the classic MATLAB rainbow.
func Jet() *Gradient {
	return &Gradient{name: "jet", fn: jet, max: 1, alpha: 1}
}

func (g *Gradient) Name() string { return g.name }

func (g *Gradient) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, ErrNaN
	case v < g.min:
		return nil, ErrUnderflow
	case v > g.max:
		return nil, ErrOverflow
	}
	x := 0.0
	if g.max > g.min {
		x = (v - g.min) / (g.max - g.min)
	}
	r, gg, b := g.fn(x)
	return color.NRGBA{
		R: unit8(r),
		G: unit8(gg),
		B: unit8(b),
		A: unit8(g.alpha),
	}, nil
}

func (g *Gradient) Max() float64                  { return g.max }
func (g *Gradient) Min() float64                  { return g.min }
func (g *Gradient) SetMax(v float64)              { g.max = v }
func (g *Gradient) SetMin(v float64)              { g.min = v }
func (g *Gradient) Alpha() float64                { return g.alpha }
func (g *Gradient) SetAlpha(a float64)            { g.alpha = a }
func (g *Gradient) Palette(n int) palette.Palette { return sample(g, n) }

func unit8(x float64) uint8 {
	return uint8(math.Round(255 * clamp(x)))
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func turbo(x float64) (r, g, b float64) {
	x = clamp(x)
	r = 0.13572138 + x*(4.61539260+x*(-42.66032258+x*(132.13108234+x*(-152.94239396+x*59.28637943))))
	g = 0.09140261 + x*(2.19418839+x*(4.84296658+x*(-14.18503333+x*(4.27729857+x*2.82956604))))
	b = 0.10667330 + x*(12.64194608+x*(-60.58204836+x*(110.36276771+x*(-89.90310912+x*27.34824973))))
	return r, g, b
}

// jetStops are the 16 evenly spaced MATLAB jet colours.
var jetStops = [][3]float64{
	{0, 0, 189}, {0, 0, 255}, {0, 66, 255}, {0, 132, 255},
	{0, 189, 255}, {0, 255, 255}, {66, 255, 189}, {132, 255, 132},
	{189, 255, 66}, {255, 255, 0}, {255, 189, 0}, {255, 132, 0},
	{255, 66, 0}, {255, 0, 0}, {189, 0, 0}, {132, 0, 0},
}

func jet(x float64) (r, g, b float64) {
	pos := clamp(x) * float64(len(jetStops)-1)
	i := int(pos)
	if i >= len(jetStops)-1 {
		i = len(jetStops) - 2
	}
	f := pos - float64(i)
	lo, hi := jetStops[i], jetStops[i+1]
	lerp := func(k int) float64 { return (lo[k] + (hi[k]-lo[k])*f) / 255 }
	return lerp(0), lerp(1), lerp(2)
}
