// Package db stores the mold generation history in SQLite. Every request to
// the generation endpoint records one row, successful or not, which feeds the
// /api/generations history endpoint and the debug console.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path. The schema comes from the
// migrations directory; call MigrateUp after opening.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serialize access through a single connection
	// instead of surfacing SQLITE_BUSY to handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return &DB{db}, nil
}

// Generation is one row of mold generation history.
type Generation struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ParamsJSON string    `json:"params"`
	DurationMs int64     `json:"duration_ms"`
	STLBytes   int64     `json:"stl_bytes"`
	Triangles  int64     `json:"triangles"`
	CreatedAt  time.Time `json:"created_at"`
}

// Generation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

func (g *Generation) String() string {
	return fmt.Sprintf(
		"ID: %s, Status: %s, DurationMs: %d, STLBytes: %d, Triangles: %d",
		g.ID, g.Status, g.DurationMs, g.STLBytes, g.Triangles,
	)
}

// RecordGeneration inserts one history row. CreatedAt is assigned by the
// database when zero.
func (db *DB) RecordGeneration(g Generation) error {
	if g.ID == "" {
		return fmt.Errorf("generation id is required")
	}
	if g.Status != StatusOK && g.Status != StatusError {
		return fmt.Errorf("invalid generation status %q", g.Status)
	}

	if g.CreatedAt.IsZero() {
		_, err := db.Exec(
			`INSERT INTO generations (id, status, error, params, duration_ms, stl_bytes, triangles)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Status, g.Error, g.ParamsJSON, g.DurationMs, g.STLBytes, g.Triangles,
		)
		return err
	}
	_, err := db.Exec(
		`INSERT INTO generations (id, status, error, params, duration_ms, stl_bytes, triangles, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Status, g.Error, g.ParamsJSON, g.DurationMs, g.STLBytes, g.Triangles,
		g.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Generations returns the most recent history rows, newest first. A limit
// of zero or less falls back to 100.
func (db *DB) Generations(limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT id, status, error, params, duration_ms, stl_bytes, triangles, timestamp
		 FROM generations ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var generations []Generation
	for rows.Next() {
		var g Generation
		var ts string
		if err := rows.Scan(
			&g.ID, &g.Status, &g.Error, &g.ParamsJSON,
			&g.DurationMs, &g.STLBytes, &g.Triangles, &ts,
		); err != nil {
			return nil, err
		}
		g.CreatedAt = parseTimestamp(ts)
		generations = append(generations, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return generations, nil
}

// parseTimestamp accepts both SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AttachAdminRoutes mounts the debug console: a tailSQL live query UI over
// the history database plus a gzip backup download.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://candlr.db", db.DB, &tailsql.DBOptions{
		Label: "Candlr history DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
