package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"hstin/rainmap/internal/grid"
)

// Mesh fills one quadrilateral per retained cell, like a pcolormesh with
// nearest shading. Masked cells are left untouched so whatever was drawn
// below shows through.
type Mesh struct {
	Coords   *grid.Coords
	Masked   *grid.Masked
	ColorMap palette.ColorMap
}

var _ plot.Plotter = (*Mesh)(nil)
var _ plot.DataRanger = (*Mesh)(nil)

func (m *Mesh) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	latE, lonE := m.Coords.LatEdges(), m.Coords.LonEdges()

	rows, cols := m.Masked.Dims()
	for r := 0; r < rows; r++ {
		y0, y1 := trY(latE[r]), trY(latE[r+1])
		for col := 0; col < cols; col++ {
			clr, ok := m.color(r, col)
			if !ok {
				continue
			}
			x0, x1 := trX(lonE[col]), trX(lonE[col+1])
			pts := c.ClipPolygonXY([]vg.Point{
				{X: x0, Y: y0},
				{X: x1, Y: y0},
				{X: x1, Y: y1},
				{X: x0, Y: y1},
			})
			if len(pts) < 3 {
				continue
			}
			c.FillPolygon(clr, pts)
		}
	}
}

func (m *Mesh) color(r, c int) (color.Color, bool) {
	v, ok := m.Masked.Value(r, c)
	if !ok {
		return nil, false
	}
	v = math.Max(m.ColorMap.Min(), math.Min(m.ColorMap.Max(), v))
	clr, err := m.ColorMap.At(v)
	if err != nil {
		return nil, false
	}
	return clr, true
}

func (m *Mesh) DataRange() (xmin, xmax, ymin, ymax float64) {
	latE, lonE := m.Coords.LatEdges(), m.Coords.LonEdges()
	return lonE[0], lonE[len(lonE)-1], latE[0], latE[len(latE)-1]
}
