package render

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/chai2010/webp"

	"hstin/rainmap/internal/config"
)

type TileJob struct {
	Z uint8
	X uint32
	Y uint32
}

type TileResult struct {
	Z    uint8
	X    uint32
	Y    uint32
	Data []byte
}

// RenderTile samples the figure's mesh into one web mercator tile and
// encodes it as WebP. Pixels outside the bounding box or over masked cells
// stay transparent. A tile with no coloured pixel returns nil data.
func RenderTile(fig *Figure, z, x, y, quality int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, config.TileSize, config.TileSize))
	cm := fig.ColorMap
	lo, hi := cm.Min(), cm.Max()

	painted := false
	for py := 0; py < config.TileSize; py++ {
		rowOffset := py * img.Stride
		for px := 0; px < config.TileSize; px++ {
			lat, lon := PixelToLatLon(z, x, y, px, py)
			if !fig.Bounds.Contains(lat, lon) {
				continue
			}
			r, c, ok := fig.Coords.Locate(lat, lon)
			if !ok {
				continue
			}
			v, ok := fig.Masked.Value(r, c)
			if !ok {
				continue
			}
			clr, err := cm.At(math.Max(lo, math.Min(hi, v)))
			if err != nil {
				continue
			}
			pixel := color.NRGBAModel.Convert(clr).(color.NRGBA)

			idx := rowOffset + px*4
			img.Pix[idx] = pixel.R
			img.Pix[idx+1] = pixel.G
			img.Pix[idx+2] = pixel.B
			img.Pix[idx+3] = pixel.A
			painted = true
		}
	}
	if !painted {
		return nil, nil
	}

	var buf bytes.Buffer
	options := &webp.Options{Lossless: false, Quality: float32(quality)}
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
