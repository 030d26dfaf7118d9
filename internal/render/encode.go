package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sort"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// ErrFormat is returned for an output extension no encoder handles.
var ErrFormat = errors.New("unsupported output format")

// trimPad is the whitespace kept around the figure after trimming.
const trimPad = 0.1 * vg.Inch

type rasterEncoder func(io.Writer, image.Image) error

var rasterFormats = map[string]rasterEncoder{
	"png":  png.Encode,
	"jpg":  encodeJPEG,
	"jpeg": encodeJPEG,
	"gif":  encodeGIF,
	"bmp":  bmp.Encode,
	"tif":  encodeTIFF,
	"tiff": encodeTIFF,
	"webp": encodeWebP,
}

var vectorFormats = map[string]func(w, h vg.Length) vg.CanvasWriterTo{
	"svg": func(w, h vg.Length) vg.CanvasWriterTo { return vgsvg.New(w, h) },
	"pdf": func(w, h vg.Length) vg.CanvasWriterTo { return vgpdf.New(w, h) },
	"eps": func(w, h vg.Length) vg.CanvasWriterTo { return vgeps.New(w, h) },
}

func encodeJPEG(w io.Writer, m image.Image) error {
	return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
}

func encodeGIF(w io.Writer, m image.Image) error {
	return gif.Encode(w, m, nil)
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

func encodeWebP(w io.Writer, m image.Image) error {
	return webp.Encode(w, m, &webp.Options{Lossless: true})
}

// Supported reports whether format (a lower-case extension without the dot)
// can be produced by Encode.
func Supported(format string) bool {
	if _, ok := rasterFormats[format]; ok {
		return true
	}
	_, ok := vectorFormats[format]
	return ok
}

// Formats lists every format Encode accepts, sorted.
func Formats() []string {
	out := make([]string, 0, len(rasterFormats)+len(vectorFormats))
	for f := range rasterFormats {
		out = append(out, f)
	}
	for f := range vectorFormats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Image rasterises the figure at its DPI on a white background and trims
// the surrounding whitespace.
func (f *Figure) Image() *image.NRGBA {
	c := vgimg.NewWith(
		vgimg.UseWH(f.Width, f.Height),
		vgimg.UseDPI(f.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	f.Draw(draw.New(c))
	pad := int(trimPad.Dots(float64(f.DPI)) + 0.5)
	return Trim(c.Image(), pad)
}

// Encode writes the figure to w. Raster formats are trimmed to their
// content; vector formats keep the full page.
func (f *Figure) Encode(w io.Writer, format string) error {
	if enc, ok := rasterFormats[format]; ok {
		if err := enc(w, f.Image()); err != nil {
			return fmt.Errorf("encoding %s: %w", format, err)
		}
		return nil
	}
	if mk, ok := vectorFormats[format]; ok {
		c := mk(f.Width, f.Height)
		f.Draw(draw.New(c))
		if _, err := c.WriteTo(w); err != nil {
			return fmt.Errorf("encoding %s: %w", format, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

// Trim crops img to the smallest rectangle holding every non-white pixel,
// grown by pad pixels on each side. The result starts at the origin. A
// blank image is returned whole.
func Trim(img image.Image, pad int) *image.NRGBA {
	b := img.Bounds()
	x0, y0, x1, y1 := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isWhite(img.At(x, y)) {
				continue
			}
			x0, x1 = min(x0, x), max(x1, x+1)
			y0, y1 = min(y0, y), max(y1, y+1)
		}
	}
	content := b
	if x0 < x1 {
		content = image.Rect(x0-pad, y0-pad, x1+pad, y1+pad).Intersect(b)
	}

	out := image.NewNRGBA(image.Rect(0, 0, content.Dx(), content.Dy()))
	xdraw.Draw(out, out.Bounds(), img, content.Min, xdraw.Src)
	return out
}

func isWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return a == 0xffff && r == 0xffff && g == 0xffff && b == 0xffff
}
