package colormap

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot/palette"
)

var (
	ErrUnderflow = errors.New("colormap: value below minimum")
	ErrOverflow  = errors.New("colormap: value above maximum")
	ErrNaN       = errors.New("colormap: NaN value")
)

// New resolves a colormap by name: "turbo", "jet", or the path of a colour
// table file.
func New(name string) (palette.ColorMap, error) {
	switch strings.ToLower(name) {
	case "", "turbo":
		return Turbo(), nil
	case "jet":
		return Jet(), nil
	}
	return LoadTable(name)
}

// Scale sets the colour range to the observed data range. A degenerate range
// is widened by half a unit each way and an empty one falls back to [0, 1].
func Scale(cm palette.ColorMap, lo, hi float64, ok bool) {
	switch {
	case !ok:
		lo, hi = 0, 1
	case lo == hi:
		lo, hi = lo-0.5, hi+0.5
	}
	cm.SetMin(lo)
	cm.SetMax(hi)
}

type ColorMapEntry struct {
	ValueThreshold float64
	Color          color.NRGBA
}

// Table is a stepped colormap read from a file: a value takes the colour of
// the highest threshold at or below it.
type Table struct {
	Entries  []ColorMapEntry
	min, max float64
	alpha    float64
}

// LoadTable reads a colour table: one "threshold r g b a" entry per line,
// "#" comments, "-inf" allowed as a threshold. Entries must be ascending.
func LoadTable(filename string) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening color map file: %w", err)
	}
	defer file.Close()

	t := &Table{max: 1, alpha: 1}
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			logrus.Warnf("invalid line format in color map file: %s", line)
			continue
		}

		var threshold float64
		if fields[0] == "-inf" {
			threshold = math.Inf(-1)
		} else {
			val, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				logrus.Warnf("invalid threshold value: %s", fields[0])
				continue
			}
			threshold = val
		}

		var rgba [4]uint8
		for i := range rgba {
			n, err := strconv.ParseUint(fields[i+1], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("color map line %q: %w", line, err)
			}
			rgba[i] = uint8(n)
		}

		if n := len(t.Entries); n > 0 && threshold <= t.Entries[n-1].ValueThreshold {
			return nil, fmt.Errorf("color map thresholds must be ascending at %q", line)
		}
		t.Entries = append(t.Entries, ColorMapEntry{
			ValueThreshold: threshold,
			Color:          color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading color map file: %w", err)
	}

	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("no valid entries found in color map file")
	}
	return t, nil
}

// At returns the colour of the highest threshold <= v. Values below every
// threshold take the first entry.
func (t *Table) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, ErrNaN
	}
	c := t.Entries[0].Color
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if v >= t.Entries[i].ValueThreshold {
			c = t.Entries[i].Color
			break
		}
	}
	return withAlpha(c, t.alpha), nil
}

func (t *Table) Max() float64                  { return t.max }
func (t *Table) Min() float64                  { return t.min }
func (t *Table) SetMax(v float64)              { t.max = v }
func (t *Table) SetMin(v float64)              { t.min = v }
func (t *Table) Alpha() float64                { return t.alpha }
func (t *Table) SetAlpha(a float64)            { t.alpha = a }
func (t *Table) Palette(n int) palette.Palette { return sample(t, n) }

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * alpha))
	return c
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }

// sample evaluates cm at n evenly spaced values across its range.
func sample(cm palette.ColorMap, n int) palette.Palette {
	if n < 1 {
		return colors(nil)
	}
	out := make(colors, n)
	step := 0.0
	if n > 1 {
		step = (cm.Max() - cm.Min()) / float64(n-1)
	}
	for i := range out {
		v := cm.Min() + step*float64(i)
		if i == n-1 {
			v = cm.Max()
		}
		c, err := cm.At(v)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}
