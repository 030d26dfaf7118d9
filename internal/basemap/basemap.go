// Package basemap provides the land, coastline and border geometry drawn
// under and over the rainfall mesh.
package basemap

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	"hstin/rainmap/internal/config"
)

// Basemap holds geographic context in lon/lat degrees.
type Basemap struct {
	Land       []geom.Polygon
	Coastlines []geom.LineString
	Borders    []geom.LineString
}

//go:embed builtin.json
var builtinJSON []byte

type feature struct {
	Kind     string           `json:"kind"`
	Name     string           `json:"name"`
	Geometry geojson.Geometry `json:"geometry"`
}

// Builtin returns the coarse South Asia outline compiled into the binary.
// Land polygon rings double as coastlines.
func Builtin() (*Basemap, error) {
	var features []feature
	if err := json.Unmarshal(builtinJSON, &features); err != nil {
		return nil, fmt.Errorf("basemap: decoding built-in outline: %w", err)
	}
	b := new(Basemap)
	for _, f := range features {
		g, err := geojson.FromGeoJSON(&f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("basemap: built-in feature %s: %w", f.Name, err)
		}
		switch f.Kind {
		case "land":
			poly, ok := g.(geom.Polygon)
			if !ok {
				return nil, fmt.Errorf("basemap: land feature %s is a %T", f.Name, g)
			}
			b.Land = append(b.Land, poly)
			b.Coastlines = append(b.Coastlines, rings(poly)...)
		case "border":
			line, ok := g.(geom.LineString)
			if !ok {
				return nil, fmt.Errorf("basemap: border feature %s is a %T", f.Name, g)
			}
			b.Borders = append(b.Borders, line)
		default:
			return nil, fmt.Errorf("basemap: unknown feature kind %q", f.Kind)
		}
	}
	return b, nil
}

// Load builds the basemap from the configured shapefiles. Layers without a
// shapefile come from the built-in outline.
func Load(cfg config.Basemap) (*Basemap, error) {
	b, err := Builtin()
	if err != nil {
		return nil, err
	}
	if cfg.Land != "" {
		land, coast, err := readShapefile(cfg.Land)
		if err != nil {
			return nil, err
		}
		b.Land = land
		b.Coastlines = coast
	}
	if cfg.Coastline != "" {
		_, coast, err := readShapefile(cfg.Coastline)
		if err != nil {
			return nil, err
		}
		b.Coastlines = coast
	}
	if cfg.Borders != "" {
		_, borders, err := readShapefile(cfg.Borders)
		if err != nil {
			return nil, err
		}
		b.Borders = borders
	}
	return b, nil
}

type shpRecord struct {
	geom.Geom
}

// readShapefile splits a shapefile's records into polygons and lines.
// Polygon rings are also returned as lines so a land file can provide
// coastlines.
func readShapefile(filename string) ([]geom.Polygon, []geom.LineString, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("basemap: opening %s: %w", filename, err)
	}
	defer d.Close()

	switch d.GeometryType {
	case goshp.POLYGON, goshp.POLYGONZ, goshp.POLYGONM,
		goshp.POLYLINE, goshp.POLYLINEZ, goshp.POLYLINEM:
	default:
		return nil, nil, fmt.Errorf("basemap: %s: unsupported shape type %d", filename, d.GeometryType)
	}

	var (
		polys []geom.Polygon
		lines []geom.LineString
	)
	for {
		var rec shpRecord
		if !d.DecodeRow(&rec) {
			break
		}
		switch g := rec.Geom.(type) {
		case geom.Polygon:
			polys = append(polys, g)
			lines = append(lines, rings(g)...)
		case geom.MultiPolygon:
			for _, p := range g {
				polys = append(polys, p)
				lines = append(lines, rings(p)...)
			}
		case geom.LineString:
			lines = append(lines, g)
		case geom.MultiLineString:
			lines = append(lines, g...)
		}
	}
	if err := d.Error(); err != nil {
		return nil, nil, fmt.Errorf("basemap: reading %s: %w", filename, err)
	}
	return polys, lines, nil
}

func rings(p geom.Polygon) []geom.LineString {
	out := make([]geom.LineString, 0, len(p))
	for _, ring := range p {
		if len(ring) == 0 {
			continue
		}
		line := make(geom.LineString, len(ring), len(ring)+1)
		copy(line, ring)
		if !ring[0].Equals(ring[len(ring)-1]) {
			line = append(line, ring[0])
		}
		out = append(out, line)
	}
	return out
}

// Clip drops every geometry whose bounds miss the box and clips land
// polygons to it.
func (b *Basemap) Clip(box config.BoundingBox) *Basemap {
	bounds := &geom.Bounds{
		Min: geom.Point{X: box.MinLon, Y: box.MinLat},
		Max: geom.Point{X: box.MaxLon, Y: box.MaxLat},
	}
	frame := geom.Polygon{{
		{X: box.MinLon, Y: box.MinLat},
		{X: box.MaxLon, Y: box.MinLat},
		{X: box.MaxLon, Y: box.MaxLat},
		{X: box.MinLon, Y: box.MaxLat},
	}}

	out := new(Basemap)
	for _, p := range b.Land {
		if !p.Bounds().Overlaps(bounds) {
			continue
		}
		if clipped := p.Intersection(frame).(geom.Polygon); len(clipped) > 0 {
			out.Land = append(out.Land, clipped)
		}
	}
	for _, l := range b.Coastlines {
		if l.Bounds().Overlaps(bounds) {
			out.Coastlines = append(out.Coastlines, l)
		}
	}
	for _, l := range b.Borders {
		if l.Bounds().Overlaps(bounds) {
			out.Borders = append(out.Borders, l)
		}
	}
	return out
}
