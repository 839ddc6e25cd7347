package deck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateDeck inserts a new deck in the processing state, awaiting an audio
// upload.
func (s *Store) CreateDeck(ctx context.Context, title string) (*Deck, error) {
	return s.insertDeck(ctx, title, "", "", StatusProcessing)
}

// CreateDeckWithAudio inserts a new deck with audio already attached, as
// happens when the file arrives together with the create request. Without any
// audio reference the deck has nothing to process and is inserted completed.
func (s *Store) CreateDeckWithAudio(ctx context.Context, title, audioPath, audioFileID string) (*Deck, error) {
	status := StatusProcessing
	if strings.TrimSpace(audioPath) == "" && strings.TrimSpace(audioFileID) == "" {
		status = StatusCompleted
	}
	return s.insertDeck(ctx, title, audioPath, audioFileID, status)
}

func (s *Store) insertDeck(ctx context.Context, title, audioPath, audioFileID string, status Status) (*Deck, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: deck title is required", ErrInvalid)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO decks (title, audio_path, audio_file_id, status, total_slides, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		title,
		nullableString(audioPath),
		nullableString(audioFileID),
		status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	created, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(created)
	return created, nil
}

// GetByID returns the deck with the given id, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Deck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return d, nil
}

// RecentDecks returns decks newest first, up to limit (all when limit <= 0).
func (s *Store) RecentDecks(ctx context.Context, limit int) ([]*Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent decks: %w", err)
	}
	defer rows.Close()
	return collectDecks(rows)
}

// List returns decks filtered by status set (or all decks when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Deck, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + deckColumns + ` FROM decks`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()
	return collectDecks(rows)
}

// NextTranscribable returns the oldest processing deck that has audio but no
// transcript yet, or nil when the lane is idle.
func (s *Store) NextTranscribable(ctx context.Context) (*Deck, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+deckColumns+` FROM decks
         WHERE status = ? AND (audio_path IS NOT NULL OR audio_file_id IS NOT NULL) AND transcript IS NULL
         ORDER BY created_at, id LIMIT 1`,
		StatusProcessing,
	)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next transcribable deck: %w", err)
	}
	return d, nil
}

// NextGeneratable returns the oldest processing deck whose transcript is
// ready for slide generation, or nil when the lane is idle.
func (s *Store) NextGeneratable(ctx context.Context) (*Deck, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+deckColumns+` FROM decks
         WHERE status = ? AND transcript IS NOT NULL
         ORDER BY created_at, id LIMIT 1`,
		StatusProcessing,
	)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next generatable deck: %w", err)
	}
	return d, nil
}

// AttachAudio records the uploaded audio location on an existing deck and
// returns the deck to processing, clearing any previous error. A re-upload
// restarts the machine regardless of the state it was in.
func (s *Store) AttachAudio(ctx context.Context, id int64, audioPath, audioFileID string) (*Deck, error) {
	if strings.TrimSpace(audioPath) == "" && strings.TrimSpace(audioFileID) == "" {
		return nil, fmt.Errorf("%w: audio location is required", ErrInvalid)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE decks SET audio_path = ?, audio_file_id = ?, status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		nullableString(audioPath),
		nullableString(audioFileID),
		StatusProcessing,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("attach audio: %w", err)
	}
	if err := requireRowAffected(res, id); err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(updated)
	return updated, nil
}

// RecordTranscript persists the transcription output on a deck. The deck stays
// in processing so the generation lane can pick it up.
func (s *Store) RecordTranscript(ctx context.Context, id int64, transcript string) (*Deck, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: transcript is empty", ErrInvalid)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE decks SET transcript = ?, updated_at = ? WHERE id = ?`,
		transcript,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("record transcript: %w", err)
	}
	if err := requireRowAffected(res, id); err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(updated)
	return updated, nil
}

// MarkCompleted transitions a deck to completed, clearing any stale error
// message and recounting slides in the same transaction. Calling it on an
// already completed deck is a no-op beyond refreshing the count.
func (s *Store) MarkCompleted(ctx context.Context, id int64) (*Deck, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE decks
         SET status = ?, error_message = NULL,
             total_slides = (SELECT COUNT(*) FROM slides WHERE deck_id = decks.id),
             updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if err := requireRowAffected(res, id); err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(updated)
	return updated, nil
}

// MarkError transitions a deck to the error state with a user-facing message.
// Existing transcript and slides are left in place so a later retry can reuse
// them.
func (s *Store) MarkError(ctx context.Context, id int64, message string) (*Deck, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "processing failed"
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE decks SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusError,
		message,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark error: %w", err)
	}
	if err := requireRowAffected(res, id); err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(updated)
	return updated, nil
}

// Reprocess returns an errored deck to processing so the pipeline picks it up
// again. Decks in other states are left untouched.
func (s *Store) Reprocess(ctx context.Context, id int64) (*Deck, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE decks SET status = ?, error_message = NULL, updated_at = ? WHERE id = ? AND status = ?`,
		StatusProcessing,
		now,
		id,
		StatusError,
	)
	if err != nil {
		return nil, fmt.Errorf("reprocess deck: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: deck %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: deck %d is %s, only errored decks can be reprocessed", ErrInvalid, id, existing.Status)
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishDeck(updated)
	return updated, nil
}

// Delete removes a deck and its slides in one transaction. It reports whether
// a deck row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE deck_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete slides: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete deck: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	if affected > 0 {
		s.publishDeleted(id)
	}
	return affected > 0, nil
}

// DeckWithSlides returns a deck together with its slides ordered by position,
// read from a single transaction so the pair is a consistent snapshot. Returns
// nil when the deck does not exist.
func (s *Store) DeckWithSlides(ctx context.Context, id int64) (*WithSlides, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE deck_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query slides: %w", err)
	}
	defer rows.Close()

	var slides []*Slide
	for rows.Next() {
		slide, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &WithSlides{Deck: *d, Slides: slides}, nil
}

// Stats returns deck counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM decks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, err
		}
		stats[Status(statusStr)] = count
	}
	return stats, rows.Err()
}

func collectDecks(rows *sql.Rows) ([]*Deck, error) {
	var decks []*Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func requireRowAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: deck %d", ErrNotFound, id)
	}
	return nil
}
