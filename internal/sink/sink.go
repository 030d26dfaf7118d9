// Package sink delivers a rendered figure: to a viewer, to an image file or
// to an MBTiles tile set.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"

	"hstin/rainmap/internal/config"
	"hstin/rainmap/internal/db"
	"hstin/rainmap/internal/render"
)

type Sink interface {
	Emit(fig *render.Figure) error
}

// Opener hands a file to the system viewer.
type Opener func(path string) error

// New picks the sink for cfg.OutputFile: the viewer when it is empty, the
// tile set for ".mbtiles" and an image file otherwise. An extension no
// encoder handles is rejected here, before anything is written.
func New(cfg *config.Config, out io.Writer, log logrus.FieldLogger) (Sink, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.OutputFile == "" {
		return &Display{Out: out, Log: log, Open: open.Run}, nil
	}
	format := cfg.OutputFormat()
	switch {
	case format == "mbtiles":
		return &Tiles{Path: cfg.OutputFile, Config: cfg, Out: out, Log: log}, nil
	case render.Supported(format):
		return &File{Path: cfg.OutputFile, Format: format, Out: out, Log: log}, nil
	}
	return nil, fmt.Errorf("%w %q for %s (want one of %s, mbtiles)",
		render.ErrFormat, format, cfg.OutputFile, strings.Join(render.Formats(), ", "))
}

// File writes the figure to Path in Format.
type File struct {
	Path   string
	Format string
	Out    io.Writer
	Log    logrus.FieldLogger
}

func (f *File) Emit(fig *render.Figure) error {
	// Encode fully before touching the destination so a failure leaves no file.
	var buf bytes.Buffer
	if err := fig.Encode(&buf, f.Format); err != nil {
		return fmt.Errorf("rendering %s: %w", f.Path, err)
	}

	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path, err)
	}
	f.Log.WithFields(logrus.Fields{
		"path":   f.Path,
		"format": f.Format,
		"bytes":  buf.Len(),
	}).Debug("figure written")

	fmt.Fprintf(f.Out, "Saved visualization to %s\n", f.Path)
	return nil
}

// PreviewName is the file the display sink writes in its directory.
const PreviewName = "rainmap-preview.png"

// Display renders the figure to a PNG in Dir (the system temp directory when
// empty) and hands it to Open. Viewer launchers return before the viewer has
// read the file, so the preview is left in place and overwritten by the
// next run.
type Display struct {
	Out  io.Writer
	Log  logrus.FieldLogger
	Open Opener
	Dir  string
}

// Path is where the preview is written.
func (d *Display) Path() string {
	dir := d.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, PreviewName)
}

func (d *Display) Emit(fig *render.Figure) error {
	var buf bytes.Buffer
	if err := fig.Encode(&buf, "png"); err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	path := d.Path()
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing preview: %w", err)
	}

	d.Log.WithField("path", path).Info("opening viewer")
	if err := d.Open(path); err != nil {
		return fmt.Errorf("opening viewer for %s: %w", path, err)
	}
	return nil
}

// Tiles renders the masked grid as web mercator WebP tiles into an MBTiles
// file at Path. The basemap is not part of the tiles.
type Tiles struct {
	Path   string
	Config *config.Config
	Out    io.Writer
	Log    logrus.FieldLogger
	Clock  clockwork.Clock
}

func (t *Tiles) Emit(fig *render.Figure) error {
	if dir := filepath.Dir(t.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	database, err := db.InitDB(t.Path)
	if err != nil {
		return fmt.Errorf("initializing tiles database: %w", err)
	}
	defer database.Close()

	if err := db.UpdateMetadata(database, t.Config); err != nil {
		return fmt.Errorf("writing tiles metadata: %w", err)
	}

	tiler := &render.Tiler{
		Figure:  fig,
		MinZoom: t.Config.MinZoom,
		MaxZoom: t.Config.MaxZoom,
		Quality: t.Config.Quality,
		Clock:   t.Clock,
		Log:     t.Log,
	}
	if _, err := tiler.Generate(database); err != nil {
		return fmt.Errorf("generating tiles: %w", err)
	}

	if _, err := database.Exec("VACUUM"); err != nil {
		return fmt.Errorf("optimizing tiles database: %w", err)
	}

	fmt.Fprintf(t.Out, "Saved visualization to %s\n", t.Path)
	return nil
}
