package render

import (
	"database/sql"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// progressInterval is how often tile generation reports progress.
const progressInterval = 2 * time.Second

// Tiler renders a figure into an MBTiles tiles table.
type Tiler struct {
	Figure  *Figure
	MinZoom int
	MaxZoom int
	Quality int
	Workers int

	Clock clockwork.Clock
	Log   logrus.FieldLogger
}

// Generate renders every tile covering the figure's bounding box and
// inserts the non-empty ones. It returns the number of tiles written.
func (t *Tiler) Generate(db *sql.DB) (int64, error) {
	clock := t.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := t.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	workers := t.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	stmt, err := db.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing tile insert: %w", err)
	}
	defer stmt.Close()

	ranges := TilesFor(t.Figure.Bounds, t.MinZoom, t.MaxZoom)
	var totalTiles int64
	for _, r := range ranges {
		totalTiles += int64(r.Count())
	}
	log.WithFields(logrus.Fields{
		"tiles":    totalTiles,
		"min_zoom": t.MinZoom,
		"max_zoom": t.MaxZoom,
		"workers":  workers,
	}).Info("generating tiles")

	var wg sync.WaitGroup
	jobQueue := make(chan TileJob, 1000)
	resultQueue := make(chan TileResult, 1000)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobQueue {
				data, err := RenderTile(t.Figure, int(job.Z), int(job.X), int(job.Y), t.Quality)
				if err != nil {
					log.WithError(err).WithFields(logrus.Fields{
						"z": job.Z, "x": job.X, "y": job.Y,
					}).Warn("rendering tile")
				}
				resultQueue <- TileResult{Z: job.Z, X: job.X, Y: job.Y, Data: data}
			}
		}()
	}

	var completed, written int64
	start := clock.Now()
	ticker := clock.NewTicker(progressInterval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				current := atomic.LoadInt64(&completed)
				log.WithFields(logrus.Fields{
					"done":    current,
					"total":   totalTiles,
					"percent": int(float64(current) / float64(totalTiles) * 100),
					"elapsed": clock.Since(start).Round(time.Second),
				}).Info("tile progress")
			}
		}
	}()

	var insertErr error
	var dbWg sync.WaitGroup
	dbWg.Add(1)
	go func() {
		defer dbWg.Done()
		for result := range resultQueue {
			atomic.AddInt64(&completed, 1)
			if result.Data == nil || insertErr != nil {
				continue
			}
			// MBTiles rows count from the south.
			tmsY := (uint32(1) << result.Z) - 1 - result.Y
			if _, err := stmt.Exec(result.Z, result.X, tmsY, result.Data); err != nil {
				insertErr = fmt.Errorf("inserting tile %d/%d/%d: %w", result.Z, result.X, result.Y, err)
				continue
			}
			written++
		}
	}()

	for _, r := range ranges {
		log.WithFields(logrus.Fields{
			"zoom":  r.Zoom,
			"tiles": r.Count(),
		}).Debug("queueing zoom level")
		for x := r.MinX; x <= r.MaxX; x++ {
			for y := r.MinY; y <= r.MaxY; y++ {
				jobQueue <- TileJob{Z: uint8(r.Zoom), X: uint32(x), Y: uint32(y)}
			}
		}
	}

	close(jobQueue)
	wg.Wait()
	close(resultQueue)
	dbWg.Wait()
	close(done)

	if insertErr != nil {
		return written, insertErr
	}
	log.WithFields(logrus.Fields{
		"written": written,
		"skipped": totalTiles - written,
		"elapsed": clock.Since(start),
	}).Info("tile generation complete")
	return written, nil
}
