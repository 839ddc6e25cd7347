package deck

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a deck.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusProcessing,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Deck represents one presentation job persisted in SQLite.
type Deck struct {
	ID           int64
	Title        string
	AudioPath    string
	AudioFileID  string
	Transcript   string
	Status       Status
	ErrorMessage string
	TotalSlides  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Slide is one ordered content unit belonging to a deck.
type Slide struct {
	ID           int64
	DeckID       int64
	Title        string
	Content      string
	SpeakerNotes string
	Position     int
	CreatedAt    time.Time
}

// WithSlides bundles a deck with its ordered slide set taken from a single
// committed snapshot.
type WithSlides struct {
	Deck
	Slides []*Slide
}

// IsProcessing reports whether the deck has in-flight pipeline work.
func (d Deck) IsProcessing() bool {
	return d.Status == StatusProcessing
}

// HasAudio reports whether audio has been attached to the deck.
func (d Deck) HasAudio() bool {
	return d.AudioPath != "" || d.AudioFileID != ""
}

// HasTranscript reports whether transcription has produced output.
func (d Deck) HasTranscript() bool {
	return strings.TrimSpace(d.Transcript) != ""
}

// NeedsTranscription reports whether the deck is waiting on the transcribe stage.
func (d Deck) NeedsTranscription() bool {
	return d.Status == StatusProcessing && d.HasAudio() && !d.HasTranscript()
}

// NeedsGeneration reports whether the deck is waiting on the slide generation stage.
func (d Deck) NeedsGeneration() bool {
	return d.Status == StatusProcessing && d.HasTranscript()
}
