package deck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NewSlide describes a slide to insert. Position is zero based and must be
// unique within the deck.
type NewSlide struct {
	Title        string
	Content      string
	SpeakerNotes string
	Position     int
}

func (n NewSlide) validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: slide title is required", ErrInvalid)
	}
	if strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("%w: slide content is required", ErrInvalid)
	}
	if n.Position < 0 {
		return fmt.Errorf("%w: slide position must not be negative", ErrInvalid)
	}
	return nil
}

// CreateSlide inserts one slide and refreshes the deck slide count in the
// same transaction. A colliding position within the deck is rejected.
func (s *Store) CreateSlide(ctx context.Context, deckID int64, slide NewSlide) (*Slide, error) {
	if err := slide.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin slide tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertSlideTx(ctx, tx, deckID, slide)
	if err != nil {
		return nil, err
	}
	if err := refreshSlideCountTx(ctx, tx, deckID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit slide: %w", err)
	}

	s.publishDeckByID(ctx, deckID)
	return s.SlideByID(ctx, id)
}

// ReplaceSlides swaps a deck's slide set atomically: existing slides are
// removed, the new set inserted at positions 0..n-1, and the deck count
// updated, all in one transaction. Generation and regeneration use this so a
// reader never observes a half-written deck.
func (s *Store) ReplaceSlides(ctx context.Context, deckID int64, slides []NewSlide) error {
	for i := range slides {
		slides[i].Position = i
		if err := slides[i].validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM decks WHERE id = ?`, deckID).Scan(&exists); err != nil {
		return fmt.Errorf("check deck: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: deck %d", ErrNotFound, deckID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE deck_id = ?`, deckID); err != nil {
		return fmt.Errorf("clear slides: %w", err)
	}
	for _, slide := range slides {
		if _, err := insertSlideTx(ctx, tx, deckID, slide); err != nil {
			return err
		}
	}
	if err := refreshSlideCountTx(ctx, tx, deckID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	s.publishDeckByID(ctx, deckID)
	return nil
}

// SlideByID returns one slide or ErrNotFound.
func (s *Store) SlideByID(ctx context.Context, id int64) (*Slide, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE id = ?`, id)
	slide, err := scanSlide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: slide %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get slide: %w", err)
	}
	return slide, nil
}

// SlidesForDeck returns a deck's slides ordered by position.
func (s *Store) SlidesForDeck(ctx context.Context, deckID int64) ([]*Slide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE deck_id = ? ORDER BY position`, deckID)
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
	return slides, rows.Err()
}

// UpdateSlide edits a slide's title, content, and speaker notes in place.
func (s *Store) UpdateSlide(ctx context.Context, id int64, title, content, speakerNotes string) (*Slide, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: slide title is required", ErrInvalid)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: slide content is required", ErrInvalid)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE slides SET title = ?, content = ?, speaker_notes = ? WHERE id = ?`,
		title,
		content,
		nullableString(speakerNotes),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update slide: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: slide %d", ErrNotFound, id)
	}
	return s.SlideByID(ctx, id)
}

// SetSpeakerNotes stores regenerated speaker notes for one slide.
func (s *Store) SetSpeakerNotes(ctx context.Context, id int64, notes string) (*Slide, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE slides SET speaker_notes = ? WHERE id = ?`,
		nullableString(notes),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("set speaker notes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: slide %d", ErrNotFound, id)
	}
	return s.SlideByID(ctx, id)
}

// DeleteSlide removes one slide and refreshes the deck count in the same
// transaction.
func (s *Store) DeleteSlide(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deckID int64
	err = tx.QueryRowContext(ctx, `SELECT deck_id FROM slides WHERE id = ?`, id).Scan(&deckID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: slide %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("find slide: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	if err := refreshSlideCountTx(ctx, tx, deckID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.publishDeckByID(ctx, deckID)
	return nil
}

func insertSlideTx(ctx context.Context, tx *sql.Tx, deckID int64, slide NewSlide) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO slides (deck_id, title, content, speaker_notes, position, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		deckID,
		slide.Title,
		slide.Content,
		nullableString(slide.SpeakerNotes),
		slide.Position,
		now,
	)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: position %d already taken in deck %d", ErrInvalid, slide.Position, deckID)
	}
	if err != nil {
		return 0, fmt.Errorf("insert slide: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// refreshSlideCountTx keeps decks.total_slides equal to the live slide count.
func refreshSlideCountTx(ctx context.Context, tx *sql.Tx, deckID int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := tx.ExecContext(
		ctx,
		`UPDATE decks
         SET total_slides = (SELECT COUNT(*) FROM slides WHERE deck_id = decks.id), updated_at = ?
         WHERE id = ?`,
		now,
		deckID,
	)
	if err != nil {
		return fmt.Errorf("refresh slide count: %w", err)
	}
	return nil
}
