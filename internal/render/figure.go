package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"hstin/rainmap/internal/basemap"
	"hstin/rainmap/internal/config"
	"hstin/rainmap/internal/grid"
)

const (
	legendWidth  = 1.1 * vg.Inch
	legendGap    = 0.3 * vg.Inch
	legendShrink = 0.6
)

// Figure is a rainfall map ready to be drawn on any gonum canvas: a colour
// mesh over a tinted basemap with a vertical colour legend on the right.
type Figure struct {
	Coords   *grid.Coords
	Masked   *grid.Masked
	ColorMap palette.ColorMap
	Basemap  *basemap.Basemap
	Bounds   config.BoundingBox

	Title string
	Label string

	Width  vg.Length
	Height vg.Length
	DPI    int

	coastWidth  vg.Length
	borderWidth vg.Length
	tintAlpha   float64
}

// NewFigure lays the masked grid over the configured bounding box. The
// colormap must already be scaled to the data.
func NewFigure(cfg *config.Config, coords *grid.Coords, masked *grid.Masked, cm palette.ColorMap, base *basemap.Basemap) *Figure {
	return &Figure{
		Coords:      coords,
		Masked:      masked,
		ColorMap:    cm,
		Basemap:     base.Clip(cfg.Bounds),
		Bounds:      cfg.Bounds,
		Title:       fmt.Sprintf("%s\n(from %s)", cfg.Title, cfg.InputFile),
		Label:       cfg.Label,
		Width:       vg.Length(cfg.Width) * vg.Inch,
		Height:      vg.Length(cfg.Height) * vg.Inch,
		DPI:         cfg.DPI,
		coastWidth:  vg.Points(cfg.Basemap.CoastWidth),
		borderWidth: vg.Points(cfg.Basemap.BorderWidth),
		tintAlpha:   cfg.Basemap.TintAlpha,
	}
}

// Draw renders the whole figure onto c.
func (f *Figure) Draw(c draw.Canvas) {
	p := f.mapPlot()

	area := draw.Crop(c, 0, -(legendWidth + legendGap), 0, 0)
	area = fitAspect(p, area, f.Bounds.LonSpan()/f.Bounds.LatSpan())
	p.Draw(area)

	// The legend is centred on the map's data area and shrunk relative to it.
	data := p.DataCanvas(area).Rectangle
	h := data.Size().Y * legendShrink
	mid := (data.Min.Y + data.Max.Y) / 2
	x0 := area.Rectangle.Max.X + legendGap
	legend := draw.Canvas{
		Canvas: c.Canvas,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: x0, Y: mid - h/2},
			Max: vg.Point{X: x0 + legendWidth, Y: mid + h/2},
		},
	}
	f.legendPlot().Draw(legend)
}

func (f *Figure) mapPlot() *plot.Plot {
	p := plot.New()
	p.Title.Text = f.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.X.Tick.Marker = degreeTicks{east: "E", west: "W"}
	p.Y.Tick.Marker = degreeTicks{east: "N", west: "S"}

	p.Add(
		tint{base: f.Basemap, alpha: f.tintAlpha},
		&Mesh{Coords: f.Coords, Masked: f.Masked, ColorMap: f.ColorMap},
		outlines{base: f.Basemap, coastWidth: f.coastWidth, borderWidth: f.borderWidth},
	)

	// Add grows the axes to the mesh edges; the map is fixed to the box.
	p.X.Min, p.X.Max = f.Bounds.MinLon, f.Bounds.MaxLon
	p.Y.Min, p.Y.Max = f.Bounds.MinLat, f.Bounds.MaxLat
	p.X.Padding, p.Y.Padding = 0, 0
	return p
}

func (f *Figure) legendPlot() *plot.Plot {
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: f.ColorMap, Vertical: true})
	p.HideX()
	p.Y.Label.Text = f.Label
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Padding = 0
	return p
}

// fitAspect shrinks c symmetrically so that the plot's data area has the
// given width:height ratio. Tick label overhang makes the data area a
// slightly nonlinear function of the canvas, so the crop is refined a few
// times.
func fitAspect(p *plot.Plot, c draw.Canvas, aspect float64) draw.Canvas {
	if aspect <= 0 {
		return c
	}
	for i := 0; i < 4; i++ {
		size := p.DataCanvas(c).Rectangle.Size()
		w, h := size.X, size.Y
		if w <= 0 || h <= 0 {
			return c
		}
		want := h * vg.Length(aspect)
		if math.Abs(float64(w-want)) < 0.01 {
			break
		}
		if want < w {
			d := (w - want) / 2
			c = draw.Crop(c, d, -d, 0, 0)
			continue
		}
		d := (h - w/vg.Length(aspect)) / 2
		c = draw.Crop(c, 0, 0, d, -d)
	}
	return c
}

// degreeTicks labels the default tick positions with hemisphere suffixes.
type degreeTicks struct {
	east, west string
}

func (t degreeTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, tk := range ticks {
		if tk.Label == "" {
			continue
		}
		switch {
		case tk.Value > 0:
			ticks[i].Label = fmt.Sprintf("%g°%s", tk.Value, t.east)
		case tk.Value < 0:
			ticks[i].Label = fmt.Sprintf("%g°%s", math.Abs(tk.Value), t.west)
		default:
			ticks[i].Label = "0°"
		}
	}
	return ticks
}
