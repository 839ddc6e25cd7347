package ipc

import "slidecast/internal/api"

// StartRequest triggers daemon pipeline startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon processing.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Deck mirrors the HTTP API deck DTO for internal IPC callers.
type Deck = api.Deck

// DeckDetail mirrors the HTTP API detail DTO including slides.
type DeckDetail = api.DeckDetail

// StageHealth describes readiness of a pipeline stage.
type StageHealth = api.StageHealth

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// StatusResponse represents combined daemon/pipeline status information.
type StatusResponse struct {
	Running      bool               `json:"running"`
	DeckStats    map[string]int     `json:"deck_stats"`
	LastError    string             `json:"last_error"`
	LockPath     string             `json:"lock_path"`
	DeckDBPath   string             `json:"deck_db_path"`
	StageHealth  []StageHealth      `json:"stage_health"`
	Dependencies []DependencyStatus `json:"dependencies"`
	PID          int                `json:"pid"`
}

// DeckCreateRequest records a new deck.
type DeckCreateRequest struct {
	Title string `json:"title"`
	// AudioPath optionally points at a local audio file to attach at creation
	// time; the daemon copies it into its audio directory.
	AudioPath string `json:"audio_path,omitempty"`
}

// DeckCreateResponse contains the created deck.
type DeckCreateResponse struct {
	Deck Deck `json:"deck"`
}

// DeckListRequest filters deck listing by status.
type DeckListRequest struct {
	Statuses []string `json:"statuses"`
}

// DeckListResponse contains deck entries.
type DeckListResponse struct {
	Decks []Deck `json:"decks"`
}

// DeckDescribeRequest fetches a single deck by id.
type DeckDescribeRequest struct {
	ID int64 `json:"id"`
}

// DeckDescribeResponse contains a single deck with its slides.
type DeckDescribeResponse struct {
	Deck DeckDetail `json:"deck"`
}

// DeckDeleteRequest removes a deck and its slides.
type DeckDeleteRequest struct {
	ID int64 `json:"id"`
}

// DeckDeleteResponse reports whether a deck was removed.
type DeckDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// DeckReprocessRequest moves an errored deck back into processing.
type DeckReprocessRequest struct {
	ID int64 `json:"id"`
}

// DeckReprocessResponse contains the restarted deck.
type DeckReprocessResponse struct {
	Deck Deck `json:"deck"`
}

// DeckRunRequest drives one deck through the pipeline synchronously.
type DeckRunRequest struct {
	ID int64 `json:"id"`
}

// DeckRunResponse contains the deck after the run finished.
type DeckRunResponse struct {
	Deck Deck `json:"deck"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
