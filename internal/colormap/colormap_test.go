package colormap

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/palette"
)

func nrgba(t *testing.T, cm palette.ColorMap, v float64) color.NRGBA {
	t.Helper()
	c, err := cm.At(v)
	require.NoError(t, err)
	return c.(color.NRGBA)
}

func TestTurboRunsBlueToRed(t *testing.T) {
	cm := Turbo()
	cm.SetMin(1)
	cm.SetMax(4)

	low := nrgba(t, cm, 1.3)
	assert.Greater(t, low.B, low.R, "low end should be blue: %v", low)
	assert.Greater(t, low.B, low.G, "low end should be blue: %v", low)

	mid := nrgba(t, cm, 2.5)
	assert.Greater(t, mid.G, mid.B, "middle should be green: %v", mid)

	high := nrgba(t, cm, 3.7)
	assert.Greater(t, high.R, high.G, "high end should be red: %v", high)
	assert.Greater(t, high.R, high.B, "high end should be red: %v", high)

	assert.Equal(t, uint8(255), high.A)
}

func TestGradientRangeErrors(t *testing.T) {
	for _, cm := range []*Gradient{Turbo(), Jet()} {
		cm.SetMin(0)
		cm.SetMax(10)

		_, err := cm.At(-1)
		assert.ErrorIs(t, err, ErrUnderflow, cm.Name())
		_, err = cm.At(11)
		assert.ErrorIs(t, err, ErrOverflow, cm.Name())
		_, err = cm.At(math.NaN())
		assert.ErrorIs(t, err, ErrNaN, cm.Name())
		_, err = cm.At(10)
		assert.NoError(t, err, cm.Name())
	}
}

func TestJetEndpoints(t *testing.T) {
	cm := Jet()
	assert.Equal(t, color.NRGBA{B: 189, A: 255}, nrgba(t, cm, 0))
	assert.Equal(t, color.NRGBA{R: 132, A: 255}, nrgba(t, cm, 1))
}

func TestAlpha(t *testing.T) {
	cm := Turbo()
	cm.SetAlpha(0.5)
	assert.Equal(t, uint8(128), nrgba(t, cm, 0.5).A)
}

func TestPalette(t *testing.T) {
	cm := Jet()
	cm.SetMin(2)
	cm.SetMax(3)

	p := cm.Palette(5).Colors()
	require.Len(t, p, 5)
	assert.Equal(t, color.NRGBA{B: 189, A: 255}, p[0])
	assert.Equal(t, color.NRGBA{R: 132, A: 255}, p[4])
}

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		ok       bool
		min, max float64
	}{
		{name: "observed range", lo: 1, hi: 4, ok: true, min: 1, max: 4},
		{name: "single value", lo: 5, hi: 5, ok: true, min: 4.5, max: 5.5},
		{name: "all masked", ok: false, min: 0, max: 1},
		{name: "above default range", lo: 10, hi: 20, ok: true, min: 10, max: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := Turbo()
			Scale(cm, tt.lo, tt.hi, tt.ok)
			assert.Equal(t, tt.min, cm.Min())
			assert.Equal(t, tt.max, cm.Max())
		})
	}
}

func TestNew(t *testing.T) {
	cm, err := New("turbo")
	require.NoError(t, err)
	assert.Equal(t, "turbo", cm.(*Gradient).Name())

	cm, err = New("JET")
	require.NoError(t, err)
	assert.Equal(t, "jet", cm.(*Gradient).Name())

	_, err = New(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

const table = `# rainfall classes
-inf 0 0 0 0
0.1 200 200 255 255
bad line
1 0 0 255 255
5 255 0 0 128
`

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.txt")
	require.NoError(t, os.WriteFile(path, []byte(table), 0o644))

	cm, err := New(path)
	require.NoError(t, err)
	tbl := cm.(*Table)
	require.Len(t, tbl.Entries, 4)
	assert.True(t, math.IsInf(tbl.Entries[0].ValueThreshold, -1))

	assert.Equal(t, color.NRGBA{}, nrgba(t, tbl, -3))
	assert.Equal(t, color.NRGBA{R: 200, G: 200, B: 255, A: 255}, nrgba(t, tbl, 0.5))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, nrgba(t, tbl, 1))
	assert.Equal(t, color.NRGBA{R: 255, A: 128}, nrgba(t, tbl, 99))
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := LoadTable(write("empty.txt", "# nothing\n"))
	assert.EqualError(t, err, "no valid entries found in color map file")

	_, err = LoadTable(write("order.txt", "1 0 0 0 255\n0.5 0 0 0 255\n"))
	assert.ErrorContains(t, err, "ascending")

	_, err = LoadTable(write("range.txt", "1 300 0 0 255\n"))
	assert.Error(t, err)
}
