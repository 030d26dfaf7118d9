package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"hstin/rainmap/internal/config"
)

// InitDB creates a fresh MBTiles file at dbPath, replacing any existing one.
func InitDB(dbPath string) (*sql.DB, error) {
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB,
			PRIMARY KEY (zoom_level, tile_column, tile_row)
		);
		CREATE TABLE metadata (
			name TEXT,
			value TEXT,
			PRIMARY KEY (name)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		INSERT INTO metadata VALUES
		('name', 'Rainfall'),
		('type', 'overlay'),
		('version', '1.1'),
		('description', 'Mean rainfall rendered by rainmap'),
		('format', 'webp'),
		('minzoom', '?'),
		('maxzoom', '?'),
		('bounds', '?'),
		('center', '?');
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// UpdateMetadata records the zoom range and extent of cfg. Bounds are
// written west,south,east,north and the center as lon,lat,zoom.
func UpdateMetadata(db *sql.DB, cfg *config.Config) error {
	b := cfg.Bounds
	values := map[string]string{
		"minzoom":     fmt.Sprint(cfg.MinZoom),
		"maxzoom":     fmt.Sprint(cfg.MaxZoom),
		"bounds":      fmt.Sprintf("%f,%f,%f,%f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat),
		"center":      fmt.Sprintf("%f,%f,%d", (b.MinLon+b.MaxLon)/2, (b.MinLat+b.MaxLat)/2, (cfg.MinZoom+cfg.MaxZoom)/2),
		"description": fmt.Sprintf("%s from %s", cfg.Title, cfg.InputFile),
	}
	for name, value := range values {
		if _, err := db.Exec("UPDATE metadata SET value = ? WHERE name = ?", value, name); err != nil {
			return fmt.Errorf("updating metadata %s: %w", name, err)
		}
	}
	return nil
}

// Metadata reads the metadata table back.
func Metadata(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}
