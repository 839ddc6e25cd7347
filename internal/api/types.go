package api

import "slidecast/internal/watch"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Deck describes a deck record in a transport-friendly format.
type Deck struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	Step            string `json:"step"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	TotalSlides     int    `json:"totalSlides"`
	AudioAttached   bool   `json:"audioAttached"`
	TranscriptReady bool   `json:"transcriptReady"`
	Transcript      string `json:"transcript,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Slide describes one slide in a transport-friendly format.
type Slide struct {
	ID           int64  `json:"id"`
	DeckID       int64  `json:"deckId"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	SpeakerNotes string `json:"speakerNotes,omitempty"`
	Position     int    `json:"position"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// DeckDetail bundles a deck with its ordered slides.
type DeckDetail struct {
	Deck
	Slides []Slide `json:"slides"`
}

// DeckListResponse wraps a collection of decks for API responses.
type DeckListResponse struct {
	Decks []Deck `json:"decks"`
}

// DeckResponse wraps a single deck.
type DeckResponse struct {
	Deck Deck `json:"deck"`
}

// DeckDetailResponse wraps a deck with slides.
type DeckDetailResponse struct {
	Deck DeckDetail `json:"deck"`
}

// SlideResponse wraps a single slide.
type SlideResponse struct {
	Slide Slide `json:"slide"`
}

// DeckStatsResponse provides a normalized deck stats payload.
type DeckStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running     bool           `json:"running"`
	DeckStats   map[string]int `json:"deckStats"`
	LastError   string         `json:"lastError,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DeckDBPath   string             `json:"deckDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Pipeline     PipelineStatus     `json:"pipeline"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// CreateDeckRequest is the payload for creating a deck.
type CreateDeckRequest struct {
	Title string `json:"title"`
}

// UpdateSlideRequest carries edited slide fields. Nil fields are left unchanged.
type UpdateSlideRequest struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	SpeakerNotes *string `json:"speakerNotes"`
}

// DeckEventsResponse carries committed deck snapshots for live observers.
type DeckEventsResponse struct {
	Events []watch.DeckEvent `json:"events"`
	Next   uint64            `json:"next"`
}
