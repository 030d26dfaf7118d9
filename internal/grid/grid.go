// Package grid builds the coordinate grid for an intensity table and masks
// the cells that carry no rainfall.
package grid

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"hstin/rainmap/internal/config"
)

// Coords holds the cell-centre latitudes (one per row) and longitudes (one
// per column) of a grid laid over a bounding box.
type Coords struct {
	Lats   []float64
	Lons   []float64
	Bounds config.BoundingBox

	latEdges []float64
	lonEdges []float64
}

// Build subdivides the bounding box into rows latitude steps and cols
// longitude steps, both endpoints included.
func Build(rows, cols int, bounds config.BoundingBox) *Coords {
	g := &Coords{
		Lats:   linspace(bounds.MinLat, bounds.MaxLat, rows),
		Lons:   linspace(bounds.MinLon, bounds.MaxLon, cols),
		Bounds: bounds,
	}
	g.latEdges = edges(g.Lats, bounds.MinLat, bounds.MaxLat)
	g.lonEdges = edges(g.Lons, bounds.MinLon, bounds.MaxLon)
	return g
}

// linspace mirrors numpy: a single sample sits on the lower endpoint.
func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	// Span computes the last value as lo+(n-1)*step; pin it.
	out[n-1] = hi
	return out
}

func (g *Coords) Dims() (rows, cols int) { return len(g.Lats), len(g.Lons) }

func (g *Coords) Lat(r int) float64 { return g.Lats[r] }
func (g *Coords) Lon(c int) float64 { return g.Lons[c] }

// Meshgrid returns the full 2-D longitude and latitude arrays, indexed
// [row][col], so every intensity cell has a (lon, lat) pair.
func (g *Coords) Meshgrid() (lon, lat [][]float64) {
	rows, cols := g.Dims()
	lon = make([][]float64, rows)
	lat = make([][]float64, rows)
	for r := 0; r < rows; r++ {
		lon[r] = make([]float64, cols)
		lat[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			lon[r][c] = g.Lons[c]
			lat[r][c] = g.Lats[r]
		}
	}
	return lon, lat
}

// LatEdges returns the rows+1 cell boundaries along latitude.
func (g *Coords) LatEdges() []float64 { return g.latEdges }

// LonEdges returns the cols+1 cell boundaries along longitude.
func (g *Coords) LonEdges() []float64 { return g.lonEdges }

// edges places boundaries halfway between centres and extends the first and
// last cells by half a step outward. A lone centre spans [lo, hi].
func edges(centres []float64, lo, hi float64) []float64 {
	n := len(centres)
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{lo, hi}
	}
	out := make([]float64, n+1)
	for i := 1; i < n; i++ {
		out[i] = (centres[i-1] + centres[i]) / 2
	}
	out[0] = centres[0] - (centres[1]-centres[0])/2
	out[n] = centres[n-1] + (centres[n-1]-centres[n-2])/2
	return out
}

// Locate returns the row and column of the cell containing (lat, lon).
func (g *Coords) Locate(lat, lon float64) (row, col int, ok bool) {
	row, ok = locate(g.latEdges, lat)
	if !ok {
		return 0, 0, false
	}
	col, ok = locate(g.lonEdges, lon)
	if !ok {
		return 0, 0, false
	}
	return row, col, true
}

func locate(e []float64, v float64) (int, bool) {
	if len(e) < 2 || v < e[0] || v > e[len(e)-1] {
		return 0, false
	}
	i := sort.SearchFloat64s(e, v)
	// SearchFloat64s finds the first edge >= v; the cell is the one before it.
	if i > 0 && (i == len(e) || e[i] > v) {
		i--
	}
	if i >= len(e)-1 {
		i = len(e) - 2
	}
	return i, true
}
