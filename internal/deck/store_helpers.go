package deck

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const deckColumns = "id, title, audio_path, audio_file_id, transcript, status, error_message, total_slides, created_at, updated_at"

const slideColumns = "id, deck_id, title, content, speaker_notes, position, created_at"

func scanDeck(scanner interface{ Scan(dest ...any) error }) (*Deck, error) {
	var (
		id           int64
		title        string
		audioPath    sql.NullString
		audioFileID  sql.NullString
		transcript   sql.NullString
		statusStr    string
		errorMessage sql.NullString
		totalSlides  int
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&audioPath,
		&audioFileID,
		&transcript,
		&statusStr,
		&errorMessage,
		&totalSlides,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	d := &Deck{
		ID:           id,
		Title:        title,
		AudioPath:    audioPath.String,
		AudioFileID:  audioFileID.String,
		Transcript:   transcript.String,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		TotalSlides:  totalSlides,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		d.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		d.UpdatedAt = updated
	}
	return d, nil
}

func scanSlide(scanner interface{ Scan(dest ...any) error }) (*Slide, error) {
	var (
		id           int64
		deckID       int64
		title        string
		content      string
		speakerNotes sql.NullString
		position     int
		createdRaw   string
	)

	if err := scanner.Scan(
		&id,
		&deckID,
		&title,
		&content,
		&speakerNotes,
		&position,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	slide := &Slide{
		ID:           id,
		DeckID:       deckID,
		Title:        title,
		Content:      content,
		SpeakerNotes: speakerNotes.String,
		Position:     position,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		slide.CreatedAt = created
	}
	return slide, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
