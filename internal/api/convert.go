package api

import (
	"slidecast/internal/deck"
	"slidecast/internal/stage"
)

// Pipeline step labels surfaced to UI clients. Error decks keep the step they
// failed in so the client can show where processing stopped.
const (
	StepTranscribing = "transcribing"
	StepGenerating   = "generating"
	StepCompleted    = "completed"
)

// StepFor derives the UI progress step from a deck's record shape.
func StepFor(d *deck.Deck) string {
	if d == nil {
		return ""
	}
	switch {
	case d.Status == deck.StatusCompleted:
		return StepCompleted
	case d.HasTranscript():
		return StepGenerating
	default:
		return StepTranscribing
	}
}

// FromDeck converts a deck record to its API representation. The transcript
// body is omitted; use FromDeckDetail when the caller needs it.
func FromDeck(d *deck.Deck) Deck {
	if d == nil {
		return Deck{}
	}
	dto := Deck{
		ID:              d.ID,
		Title:           d.Title,
		Status:          string(d.Status),
		Step:            StepFor(d),
		ErrorMessage:    d.ErrorMessage,
		TotalSlides:     d.TotalSlides,
		AudioAttached:   d.HasAudio(),
		TranscriptReady: d.HasTranscript(),
	}
	if !d.CreatedAt.IsZero() {
		dto.CreatedAt = d.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !d.UpdatedAt.IsZero() {
		dto.UpdatedAt = d.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromDecks converts a slice of deck records into API DTOs.
func FromDecks(decks []*deck.Deck) []Deck {
	if len(decks) == 0 {
		return nil
	}
	out := make([]Deck, 0, len(decks))
	for _, d := range decks {
		out = append(out, FromDeck(d))
	}
	return out
}

// FromSlide converts a slide record to its API representation.
func FromSlide(s *deck.Slide) Slide {
	if s == nil {
		return Slide{}
	}
	dto := Slide{
		ID:           s.ID,
		DeckID:       s.DeckID,
		Title:        s.Title,
		Content:      s.Content,
		SpeakerNotes: s.SpeakerNotes,
		Position:     s.Position,
	}
	if !s.CreatedAt.IsZero() {
		dto.CreatedAt = s.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromDeckDetail converts a deck snapshot, including transcript and slides.
func FromDeckDetail(snapshot *deck.WithSlides) DeckDetail {
	if snapshot == nil {
		return DeckDetail{}
	}
	d := snapshot.Deck
	detail := DeckDetail{Deck: FromDeck(&d)}
	detail.Transcript = snapshot.Transcript
	for _, slide := range snapshot.Slides {
		detail.Slides = append(detail.Slides, FromSlide(slide))
	}
	return detail
}

// MergeDeckStats converts status-keyed counts into a string-keyed map that
// includes zero entries for every known status.
func MergeDeckStats(stats map[deck.Status]int) map[string]int {
	out := make(map[string]int, len(deck.AllStatuses()))
	for _, status := range deck.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromStageHealth converts stage readiness records into API DTOs.
func FromStageHealth(checks []stage.Health) []StageHealth {
	if len(checks) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(checks))
	for _, health := range checks {
		out = append(out, StageHealth{Name: health.Name, Ready: health.Ready, Detail: health.Detail})
	}
	return out
}
