package deck

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"slidecast/internal/config"
	"slidecast/internal/watch"
)

// Store manages deck and slide persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	hub  *watch.Hub
}

// Open initializes or connects to the deck database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "decks.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// AttachHub wires a watch hub so committed deck mutations are broadcast to
// observers. Safe to leave unset; publishes become no-ops.
func (s *Store) AttachHub(hub *watch.Hub) {
	s.hub = hub
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// publishDeck emits a status event for a committed deck state. Only states
// that were actually persisted reach the hub.
func (s *Store) publishDeck(d *Deck) {
	if s.hub == nil || d == nil {
		return
	}
	s.hub.Publish(watch.DeckEvent{
		DeckID:          d.ID,
		Status:          string(d.Status),
		ErrorMessage:    d.ErrorMessage,
		TotalSlides:     d.TotalSlides,
		TranscriptReady: d.HasTranscript(),
		UpdatedAt:       d.UpdatedAt,
	})
}

func (s *Store) publishDeleted(id int64) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(watch.DeckEvent{
		DeckID:    id,
		Deleted:   true,
		UpdatedAt: time.Now().UTC(),
	})
}

// publishDeckByID loads the committed row and emits it; used after mutations
// that do not already hold the updated record.
func (s *Store) publishDeckByID(ctx context.Context, id int64) {
	if s.hub == nil {
		return
	}
	if d, err := s.GetByID(ctx, id); err == nil && d != nil {
		s.publishDeck(d)
	}
}
