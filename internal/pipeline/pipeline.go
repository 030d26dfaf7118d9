// Package pipeline runs the load, grid, mask, render and emit stages in
// order.
package pipeline

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"hstin/rainmap/internal/basemap"
	"hstin/rainmap/internal/colormap"
	"hstin/rainmap/internal/config"
	"hstin/rainmap/internal/grid"
	"hstin/rainmap/internal/render"
	"hstin/rainmap/internal/sink"
	"hstin/rainmap/parser"
)

type Pipeline struct {
	Config *config.Config
	Sink   sink.Sink
	Log    logrus.FieldLogger
	Clock  clockwork.Clock
}

// Run renders cfg.InputFile into s with the standard logger.
func Run(cfg *config.Config, s sink.Sink) error {
	return (&Pipeline{Config: cfg, Sink: s}).Run()
}

func (p *Pipeline) Run() error {
	cfg := p.Config
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	start := clock.Now()
	log = log.WithField("input", cfg.InputFile)

	data, err := parser.LoadTable(cfg.InputFile)
	if err != nil {
		return err
	}
	rows, cols := data.Dims()
	log.WithFields(logrus.Fields{"rows": rows, "cols": cols}).Debug("table loaded")

	coords := grid.Build(rows, cols, cfg.Bounds)
	masked := grid.Mask(data, cfg.MaskThreshold)
	lo, hi, ok := masked.Range()
	log.WithFields(logrus.Fields{
		"masked": masked.Count(),
		"min":    lo,
		"max":    hi,
	}).Debug("grid masked")
	if !ok {
		log.Warn("every cell is masked, rendering an empty map")
	}

	cm, err := colormap.New(cfg.ColorMap)
	if err != nil {
		return fmt.Errorf("colormap %s: %w", cfg.ColorMap, err)
	}
	colormap.Scale(cm, lo, hi, ok)

	base, err := basemap.Load(cfg.Basemap)
	if err != nil {
		return err
	}

	fig := render.NewFigure(cfg, coords, masked, cm, base)
	if err := p.Sink.Emit(fig); err != nil {
		return err
	}

	log.WithField("elapsed", clock.Since(start)).Info("done")
	return nil
}
