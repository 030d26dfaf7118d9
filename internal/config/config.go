package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// BoundingBox is the geographic extent the intensity grid is assumed to cover.
type BoundingBox struct {
	MinLat float64 `mapstructure:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLon float64 `mapstructure:"max_lon"`
}

func (b BoundingBox) LatSpan() float64 { return b.MaxLat - b.MinLat }
func (b BoundingBox) LonSpan() float64 { return b.MaxLon - b.MinLon }

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Basemap names optional Natural Earth style shapefiles. Empty paths fall
// back to the built-in outline.
type Basemap struct {
	Land        string  `mapstructure:"land"`
	Coastline   string  `mapstructure:"coastline"`
	Borders     string  `mapstructure:"borders"`
	CoastWidth  float64 `mapstructure:"coast_width"`  // points
	BorderWidth float64 `mapstructure:"border_width"` // points
	TintAlpha   float64 `mapstructure:"tint_alpha"`
}

type Config struct {
	InputFile  string
	OutputFile string

	Bounds        BoundingBox `mapstructure:"bounds"`
	ColorMap      string      `mapstructure:"colormap"` // turbo, jet or a colour table path
	MaskThreshold float64     `mapstructure:"mask_threshold"`

	Title  string  `mapstructure:"title"`
	Label  string  `mapstructure:"label"`
	DPI    int     `mapstructure:"dpi"`
	Width  float64 `mapstructure:"width"`  // inches
	Height float64 `mapstructure:"height"` // inches

	Basemap Basemap `mapstructure:"basemap"`

	MinZoom int `mapstructure:"min_zoom"`
	MaxZoom int `mapstructure:"max_zoom"`
	Quality int `mapstructure:"quality"`

	LogLevel string `mapstructure:"log_level"`
}

const (
	DefaultInput = "mean_rainfall_simple.csv"
	ConfigName   = "rainmap"

	TileSize    = 256
	WorldSizeWM = 40075016.685578488
	OffsetWM    = 20037508.342789244
	EarthRadius = 6378137.0
)

// Default returns the reference configuration: a 35° square over South Asia,
// the turbo colormap and 150 DPI output.
func Default() *Config {
	return &Config{
		InputFile: DefaultInput,
		Bounds: BoundingBox{
			MinLat: 5.0,
			MaxLat: 40.0,
			MinLon: 65.0,
			MaxLon: 100.0,
		},
		ColorMap:      "turbo",
		MaskThreshold: 0,
		Title:         "Mean Rainfall Map",
		Label:         "Mean Rainfall (mm/hr)",
		DPI:           150,
		Width:         12,
		Height:        9,
		Basemap: Basemap{
			CoastWidth:  1.0,
			BorderWidth: 0.5,
			TintAlpha:   0.1,
		},
		MinZoom:  0,
		MaxZoom:  7,
		Quality:  90,
		LogLevel: "warn",
	}
}

// Load overlays an optional rainmap.{toml,yaml,json} found in dirs onto the
// defaults. A missing config file is not an error.
func Load(dirs ...string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(ConfigName)
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("bounds.min_lat", cfg.Bounds.MinLat)
	v.SetDefault("bounds.max_lat", cfg.Bounds.MaxLat)
	v.SetDefault("bounds.min_lon", cfg.Bounds.MinLon)
	v.SetDefault("bounds.max_lon", cfg.Bounds.MaxLon)
	v.SetDefault("colormap", cfg.ColorMap)
	v.SetDefault("mask_threshold", cfg.MaskThreshold)
	v.SetDefault("title", cfg.Title)
	v.SetDefault("label", cfg.Label)
	v.SetDefault("dpi", cfg.DPI)
	v.SetDefault("width", cfg.Width)
	v.SetDefault("height", cfg.Height)
	v.SetDefault("basemap.coast_width", cfg.Basemap.CoastWidth)
	v.SetDefault("basemap.border_width", cfg.Basemap.BorderWidth)
	v.SetDefault("basemap.tint_alpha", cfg.Basemap.TintAlpha)
	v.SetDefault("min_zoom", cfg.MinZoom)
	v.SetDefault("max_zoom", cfg.MaxZoom)
	v.SetDefault("quality", cfg.Quality)
	v.SetDefault("log_level", cfg.LogLevel)
}

func (c *Config) Validate() error {
	b := c.Bounds
	switch {
	case b.MinLat >= b.MaxLat:
		return fmt.Errorf("config: min_lat %g must be below max_lat %g", b.MinLat, b.MaxLat)
	case b.MinLon >= b.MaxLon:
		return fmt.Errorf("config: min_lon %g must be below max_lon %g", b.MinLon, b.MaxLon)
	case b.MinLat < -90 || b.MaxLat > 90:
		return fmt.Errorf("config: latitudes must lie within [-90, 90]")
	case c.DPI <= 0:
		return fmt.Errorf("config: dpi must be positive, got %d", c.DPI)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: figure size must be positive, got %gx%g", c.Width, c.Height)
	case c.MinZoom < 0 || c.MaxZoom < c.MinZoom || c.MaxZoom > 22:
		return fmt.Errorf("config: invalid zoom range %d-%d", c.MinZoom, c.MaxZoom)
	case c.Quality < 1 || c.Quality > 100:
		return fmt.Errorf("config: quality must be within 1-100, got %d", c.Quality)
	case c.Basemap.TintAlpha < 0 || c.Basemap.TintAlpha > 1:
		return fmt.Errorf("config: basemap tint_alpha must be within [0, 1]")
	}
	return nil
}

// OutputFormat is the lower-cased extension of OutputFile without the dot.
func (c *Config) OutputFormat() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(c.OutputFile)), ".")
}
