package render

import (
	"image/color"

	"github.com/ctessum/geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"hstin/rainmap/internal/basemap"
)

var (
	landColor  = color.NRGBA{R: 240, G: 240, B: 220, A: 255}
	oceanColor = color.NRGBA{R: 152, G: 183, B: 226, A: 255}
)

// tint washes the data area with the ocean colour and the land polygons
// with the land colour. It is drawn below the mesh.
type tint struct {
	base  *basemap.Basemap
	alpha float64
}

func (t tint) Plot(c draw.Canvas, p *plot.Plot) {
	r := c.Rectangle
	c.FillPolygon(fade(oceanColor, t.alpha), []vg.Point{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	})

	trX, trY := p.Transforms(&c)
	c.SetColor(fade(landColor, t.alpha))
	for _, poly := range t.base.Land {
		var pa vg.Path
		for _, ring := range poly {
			pts := c.ClipPolygonXY(project(ring, trX, trY))
			if len(pts) < 3 {
				continue
			}
			pa.Move(pts[0])
			for _, pt := range pts[1:] {
				pa.Line(pt)
			}
			pa.Close()
		}
		if len(pa) > 0 {
			c.Fill(pa)
		}
	}
}

// outlines strokes coastlines and borders above the mesh.
type outlines struct {
	base        *basemap.Basemap
	coastWidth  vg.Length
	borderWidth vg.Length
}

func (o outlines) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	stroke := func(lines []geom.LineString, width vg.Length) {
		if width <= 0 || len(lines) == 0 {
			return
		}
		pts := make([][]vg.Point, len(lines))
		for i, l := range lines {
			pts[i] = project(l, trX, trY)
		}
		sty := draw.LineStyle{Color: color.Black, Width: width}
		c.StrokeLines(sty, c.ClipLinesXY(pts...)...)
	}
	stroke(o.base.Coastlines, o.coastWidth)
	stroke(o.base.Borders, o.borderWidth)
}

func project(pts []geom.Point, trX, trY func(float64) vg.Length) []vg.Point {
	out := make([]vg.Point, len(pts))
	for i, pt := range pts {
		out[i] = vg.Point{X: trX(pt.X), Y: trY(pt.Y)}
	}
	return out
}

func fade(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(float64(c.A)*alpha + 0.5)
	return c
}
