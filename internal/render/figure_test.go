package render

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"hstin/rainmap/internal/basemap"
	"hstin/rainmap/internal/colormap"
	"hstin/rainmap/internal/config"
	"hstin/rainmap/internal/grid"
)

// newTestFigure renders rows at a low resolution to keep tests quick.
func newTestFigure(t *testing.T, rows ...[]float64) *Figure {
	t.Helper()
	cfg := config.Default()
	cfg.DPI = 40
	cfg.Width, cfg.Height = 6, 4.5
	cfg.InputFile = "test.csv"

	data := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		data.SetRow(r, row)
	}
	coords := grid.Build(len(rows), len(rows[0]), cfg.Bounds)
	masked := grid.Mask(data, cfg.MaskThreshold)

	cm, err := colormap.New(cfg.ColorMap)
	require.NoError(t, err)
	lo, hi, ok := masked.Range()
	colormap.Scale(cm, lo, hi, ok)

	base, err := basemap.Builtin()
	require.NoError(t, err)
	return NewFigure(cfg, coords, masked, cm, base)
}

func TestNewFigure(t *testing.T) {
	fig := newTestFigure(t, []float64{1, 2}, []float64{0, 3})

	assert.Equal(t, "Mean Rainfall Map\n(from test.csv)", fig.Title)
	assert.Equal(t, "Mean Rainfall (mm/hr)", fig.Label)
	assert.Equal(t, 6*vg.Inch, fig.Width)
	assert.Equal(t, 1.0, fig.ColorMap.Min())
	assert.Equal(t, 3.0, fig.ColorMap.Max())
	assert.NotEmpty(t, fig.Basemap.Land)
}

func TestEncodePNGIsDeterministic(t *testing.T) {
	fig := newTestFigure(t, []float64{1, 2, 3}, []float64{0, 4, 5})

	var a, b bytes.Buffer
	require.NoError(t, fig.Encode(&a, "png"))
	require.NoError(t, fig.Encode(&b, "png"))
	assert.Equal(t, a.Bytes(), b.Bytes())

	img, err := png.Decode(&a)
	require.NoError(t, err)
	size := img.Bounds().Size()
	assert.Equal(t, image.Point{}, img.Bounds().Min)
	assert.LessOrEqual(t, size.X, 6*40)
	assert.LessOrEqual(t, size.Y, int(4.5*40))
	assert.Greater(t, size.X, 100)
}

func TestEncodeRasterFormats(t *testing.T) {
	fig := newTestFigure(t, []float64{2})

	for _, format := range []string{"png", "jpg", "jpeg", "bmp", "tif", "tiff"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, fig.Encode(&buf, format))
			_, _, err := image.Decode(&buf)
			assert.NoError(t, err)
		})
	}
	for _, format := range []string{"gif", "webp"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, fig.Encode(&buf, format))
			assert.NotZero(t, buf.Len())
		})
	}
}

func TestEncodeVectorFormats(t *testing.T) {
	fig := newTestFigure(t, []float64{2, 3})

	var buf bytes.Buffer
	require.NoError(t, fig.Encode(&buf, "svg"))
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "Longitude")

	buf.Reset()
	require.NoError(t, fig.Encode(&buf, "pdf"))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF"))

	buf.Reset()
	require.NoError(t, fig.Encode(&buf, "eps"))
	assert.True(t, strings.HasPrefix(buf.String(), "%!PS"))
}

func TestEncodeUnsupported(t *testing.T) {
	fig := newTestFigure(t, []float64{2})

	var buf bytes.Buffer
	err := fig.Encode(&buf, "xyz")
	assert.ErrorIs(t, err, ErrFormat)
	assert.Zero(t, buf.Len())
}

func TestSupported(t *testing.T) {
	for _, f := range []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "svg", "pdf", "eps"} {
		assert.True(t, Supported(f), f)
	}
	assert.False(t, Supported("mbtiles"))
	assert.False(t, Supported("PNG"))
	assert.Len(t, Formats(), 11)
	assert.IsIncreasing(t, Formats())
}

func TestTrim(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for y := 30; y < 40; y++ {
		for x := 20; x < 30; x++ {
			img.Set(x, y, color.Black)
		}
	}

	out := Trim(img, 2)
	assert.Equal(t, image.Rect(0, 0, 14, 14), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(2, 2))
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(11, 11))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(12, 12))
}

func TestTrimClampsPadAndBlank(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 9, color.Black)
	assert.Equal(t, image.Rect(0, 0, 4, 4), Trim(img, 3).Bounds())

	blank := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	assert.Equal(t, image.Rect(0, 0, 10, 10), Trim(blank, 3).Bounds())
}

func TestFitAspect(t *testing.T) {
	fig := newTestFigure(t, []float64{2})
	p := fig.mapPlot()
	c := draw.New(vgimg.New(6*vg.Inch, 4*vg.Inch))

	for _, aspect := range []float64{1, 0.5, 2} {
		size := p.DataCanvas(fitAspect(p, c, aspect)).Rectangle.Size()
		assert.InDelta(t, aspect, float64(size.X/size.Y), 1e-2)
	}
}

func TestMeshColorsRetainedCellsOnly(t *testing.T) {
	bounds := config.Default().Bounds
	data := mat.NewDense(1, 2, []float64{1, 0})
	masked := grid.Mask(data, 0)
	cm := colormap.Turbo()
	lo, hi, ok := masked.Range()
	colormap.Scale(cm, lo, hi, ok)

	p := plot.New()
	p.HideAxes()
	p.Add(&Mesh{Coords: grid.Build(1, 2, bounds), Masked: masked, ColorMap: cm})
	p.X.Min, p.X.Max = bounds.MinLon, bounds.MaxLon
	p.Y.Min, p.Y.Max = bounds.MinLat, bounds.MaxLat
	p.X.Padding, p.Y.Padding = 0, 0

	img := vgimg.NewWith(vgimg.UseWH(100, 100), vgimg.UseDPI(72))
	p.Draw(draw.New(img))
	m := img.Image()

	want, err := cm.At(1)
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(want), color.RGBAModel.Convert(m.At(25, 50)))
	assert.Equal(t, color.RGBAModel.Convert(color.White), color.RGBAModel.Convert(m.At(75, 50)))
}

func TestMeshDataRange(t *testing.T) {
	m := &Mesh{Coords: grid.Build(2, 3, config.Default().Bounds)}
	xmin, xmax, ymin, ymax := m.DataRange()
	assert.Equal(t, []float64{56.25, 108.75, -12.5, 57.5}, []float64{xmin, xmax, ymin, ymax})
}

func TestDegreeTicks(t *testing.T) {
	var labels []string
	for _, tk := range (degreeTicks{east: "E", west: "W"}).Ticks(-10, 10) {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		}
	}
	assert.Contains(t, labels, "0°")
	assert.Contains(t, labels, "10°W")
	assert.Contains(t, labels, "10°E")
}
