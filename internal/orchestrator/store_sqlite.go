package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rundown-orchestrator/internal/playout"

	_ "modernc.org/sqlite"
)

// schema is applied by Migrate. Each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS playlists (
		id         TEXT PRIMARY KEY,
		document   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// SQLiteStore implements Store using SQLite. Each playlist is stored as one
// JSON document.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetPlaylist implements Store.GetPlaylist.
func (s *SQLiteStore) GetPlaylist(ctx context.Context, id playout.PlaylistID) (*PlayoutState, error) {
	s.logger.Debug("sql", "op", "select", "table", "playlists", "id", id)

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM playlists WHERE id = ?`, string(id)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}

	var st PlayoutState
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return nil, fmt.Errorf("unmarshal playlist %s: %w", id, err)
	}
	return &st, nil
}

// SetPlaylist implements Store.SetPlaylist.
func (s *SQLiteStore) SetPlaylist(ctx context.Context, st *PlayoutState) error {
	s.logger.Debug("sql", "op", "upsert", "table", "playlists", "id", st.Playlist.ID)

	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal playlist %s: %w", st.Playlist.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(st.Playlist.ID), string(doc), st.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListPlaylistIDs implements Store.ListPlaylistIDs.
func (s *SQLiteStore) ListPlaylistIDs(ctx context.Context) ([]playout.PlaylistID, error) {
	s.logger.Debug("sql", "op", "list", "table", "playlists")

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM playlists ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []playout.PlaylistID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, playout.PlaylistID(id))
	}
	return ids, rows.Err()
}
