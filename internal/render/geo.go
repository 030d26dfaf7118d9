package render

import (
	"math"

	"hstin/rainmap/internal/config"
)

// maxMercatorLat is the latitude at which the web mercator square ends.
const maxMercatorLat = 85.05112878

func MercatorToLatLon(mercX, mercY float64) (float64, float64) {
	lon := (mercX / config.EarthRadius) * 180.0 / math.Pi
	lat := math.Asin(math.Tanh(mercY/config.EarthRadius)) * 180.0 / math.Pi
	return lat, lon
}

// PixelToLatLon converts a pixel of tile (z, x, y) to degrees.
func PixelToLatLon(z, x, y, px, py int) (float64, float64) {
	s := config.WorldSizeWM / (float64(config.TileSize) * float64(uint32(1)<<z))
	worldX := float64(x*config.TileSize+px) + 0.5
	worldY := float64(y*config.TileSize+py) + 0.5
	return MercatorToLatLon(worldX*s-config.OffsetWM, config.OffsetWM-worldY*s)
}

// LatLonToTile returns the XYZ tile holding the point at the given zoom.
func LatLonToTile(lat, lon float64, zoom int) (int, int) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	lon = math.Max(-180, math.Min(180, lon))

	n := float64(uint32(1) << zoom)
	x := int(math.Floor((lon + 180.0) / 360.0 * n))

	latRad := lat * math.Pi / 180.0
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	last := int(n) - 1
	return min(max(x, 0), last), min(max(y, 0), last)
}

// TileRange is the inclusive block of tiles covering a bounding box at one
// zoom level.
type TileRange struct {
	Zoom       int
	MinX, MaxX int
	MinY, MaxY int
}

func (r TileRange) Count() int { return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1) }

// TilesFor returns the tile ranges covering box for every zoom in
// [minZoom, maxZoom].
func TilesFor(box config.BoundingBox, minZoom, maxZoom int) []TileRange {
	var out []TileRange
	for z := minZoom; z <= maxZoom; z++ {
		// Tile rows grow southwards, so the north-west corner gives the minimum.
		minX, minY := LatLonToTile(box.MaxLat, box.MinLon, z)
		maxX, maxY := LatLonToTile(box.MinLat, box.MaxLon, z)
		out = append(out, TileRange{Zoom: z, MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY})
	}
	return out
}
