package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"slidecast/internal/api"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
)

func (s *apiServer) handleDecks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDecks(w, r)
	case http.MethodPost:
		s.createDeck(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listDecks(w http.ResponseWriter, r *http.Request) {
	var statuses []deck.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := deck.ParseStatus(strings.TrimSpace(value))
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status filter "+strconv.Quote(value))
			return
		}
		statuses = append(statuses, parsed)
	}

	decks, err := s.deckSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeckListResponse{Decks: decks})
}

func (s *apiServer) createDeck(w http.ResponseWriter, r *http.Request) {
	var req api.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.writeError(w, http.StatusBadRequest, "deck title is required")
		return
	}

	created, err := s.daemon.CreateDeck(r.Context(), title)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log().Info("deck created",
		logging.Int64(logging.FieldDeckID, created.ID),
		logging.String("title", created.Title))
	s.writeJSON(w, http.StatusCreated, api.DeckResponse{Deck: api.FromDeck(created)})
}

// handleDeckPath dispatches /api/decks/{id} and its sub-resources.
func (s *apiServer) handleDeckPath(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/decks/")
	idStr, rest, _ := strings.Cut(trimmed, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	switch rest {
	case "":
		s.handleDeck(w, r, id)
	case "audio":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleUpload(w, r, id)
	case "reprocess":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleReprocess(w, r, id)
	case "events":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleEvents(w, r, id)
	case "export/html":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleExportHTML(w, r, id)
	case "export/pdf":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleExportPDF(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "deck resource not found")
	}
}

func (s *apiServer) handleDeck(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		detail, err := s.deckSvc.Detail(r.Context(), id)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		if detail == nil {
			s.writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		s.writeJSON(w, http.StatusOK, api.DeckDetailResponse{Deck: *detail})
	case http.MethodDelete:
		removed, err := s.daemon.DeleteDeck(r.Context(), id)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "deck not found")
			return
		}
		s.log().Info("deck deleted", logging.Int64(logging.FieldDeckID, id))
		s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleReprocess(w http.ResponseWriter, r *http.Request, id int64) {
	updated, err := s.daemon.ReprocessDeck(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log().Info("deck queued for reprocessing", logging.Int64(logging.FieldDeckID, id))
	s.writeJSON(w, http.StatusOK, api.DeckResponse{Deck: api.FromDeck(updated)})
}

// handleEvents serves committed deck snapshots for live observers. Callers
// poll with the cursor from the previous response; follow=1 blocks until a
// new event arrives or the request context ends.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if existing == nil {
		s.writeError(w, http.StatusNotFound, "deck not found")
		return
	}

	hub := s.daemon.hub
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.DeckEventsResponse{Events: nil, Next: 0})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")

	events, next, fetchErr := hub.Fetch(r.Context(), id, since, follow)
	if fetchErr != nil && !errors.Is(fetchErr, context.Canceled) && !errors.Is(fetchErr, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, fetchErr.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeckEventsResponse{Events: events, Next: next})
}

// handleSlidePath dispatches /api/slides/{id} and /api/slides/{id}/notes.
func (s *apiServer) handleSlidePath(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/api/slides/")
	idStr, rest, _ := strings.Cut(trimmed, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid slide id")
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodPatch {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.updateSlide(w, r, id)
	case "notes":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.regenerateNotes(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "slide resource not found")
	}
}

func (s *apiServer) updateSlide(w http.ResponseWriter, r *http.Request, id int64) {
	var req api.UpdateSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := s.daemon.store.SlideByID(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if current == nil {
		s.writeError(w, http.StatusNotFound, "slide not found")
		return
	}

	title, content, notes := current.Title, current.Content, current.SpeakerNotes
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}
	if req.SpeakerNotes != nil {
		notes = *req.SpeakerNotes
	}

	updated, err := s.daemon.store.UpdateSlide(r.Context(), id, title, content, notes)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SlideResponse{Slide: api.FromSlide(updated)})
}

func (s *apiServer) regenerateNotes(w http.ResponseWriter, r *http.Request, id int64) {
	slide, err := s.daemon.store.SlideByID(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if slide == nil {
		s.writeError(w, http.StatusNotFound, "slide not found")
		return
	}

	notes, err := s.notes.RegenerateNotes(r.Context(), slide.Title, slide.Content)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	updated, err := s.daemon.store.SetSpeakerNotes(r.Context(), id, notes)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log().Info("speaker notes regenerated", logging.Int64("slide_id", id))
	s.writeJSON(w, http.StatusOK, api.SlideResponse{Slide: api.FromSlide(updated)})
}
