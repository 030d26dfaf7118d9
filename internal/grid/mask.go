package grid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Masked is an intensity grid in which cells at or below a threshold carry
// no data. Masked cells read back as NaN.
type Masked struct {
	rows, cols int
	values     []float64
	masked     []bool
	count      int
}

// Mask flags every cell with value <= threshold, NaN or infinite. Retained cells keep their
// original magnitude.
func Mask(data mat.Matrix, threshold float64) *Masked {
	rows, cols := data.Dims()
	m := &Masked{
		rows:   rows,
		cols:   cols,
		values: make([]float64, rows*cols),
		masked: make([]bool, rows*cols),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			v := data.At(r, c)
			m.values[i] = v
			// NaN compares false, so it is masked explicitly. Infinities
			// have no place on a finite colour scale.
			if v <= threshold || math.IsNaN(v) || math.IsInf(v, 0) {
				m.masked[i] = true
				m.count++
			}
		}
	}
	return m
}

func (m *Masked) Dims() (rows, cols int) { return m.rows, m.cols }

// IsMasked reports whether the cell at (r, c) carries no data.
func (m *Masked) IsMasked(r, c int) bool { return m.masked[r*m.cols+c] }

// Value returns the original value of the cell and whether it is retained.
func (m *Masked) Value(r, c int) (float64, bool) {
	i := r*m.cols + c
	return m.values[i], !m.masked[i]
}

// At returns the retained value at (r, c) or NaN when the cell is masked.
func (m *Masked) At(r, c int) float64 {
	v, ok := m.Value(r, c)
	if !ok {
		return math.NaN()
	}
	return v
}

// Count returns the number of masked cells.
func (m *Masked) Count() int { return m.count }

// Range returns the minimum and maximum retained value. ok is false when
// every cell is masked.
func (m *Masked) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i, v := range m.values {
		if m.masked[i] {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// XYZ adapts a masked grid and its coordinates to gonum's plotter.GridXYZ:
// columns run along longitude, rows along latitude.
type XYZ struct {
	Coords *Coords
	Masked *Masked
}

func (g XYZ) Dims() (c, r int) {
	rows, cols := g.Masked.Dims()
	return cols, rows
}

func (g XYZ) Z(c, r int) float64 { return g.Masked.At(r, c) }
func (g XYZ) X(c int) float64    { return g.Coords.Lon(c) }
func (g XYZ) Y(r int) float64    { return g.Coords.Lat(r) }
