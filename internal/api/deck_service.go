package api

import (
	"context"

	"slidecast/internal/deck"
)

// DeckReader abstracts deck persistence interactions needed for API queries.
type DeckReader interface {
	List(ctx context.Context, statuses ...deck.Status) ([]*deck.Deck, error)
	RecentDecks(ctx context.Context, limit int) ([]*deck.Deck, error)
	Stats(ctx context.Context) (map[deck.Status]int, error)
	GetByID(ctx context.Context, id int64) (*deck.Deck, error)
	DeckWithSlides(ctx context.Context, id int64) (*deck.WithSlides, error)
}

// DeckService exposes read-only deck operations returning API DTOs.
type DeckService struct {
	store DeckReader
}

// NewDeckService constructs a DeckService around the provided reader.
func NewDeckService(store DeckReader) *DeckService {
	if store == nil {
		return nil
	}
	return &DeckService{store: store}
}

// List returns decks filtered by status.
func (s *DeckService) List(ctx context.Context, statuses ...deck.Status) ([]Deck, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	decks, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromDecks(decks), nil
}

// Recent returns the newest decks first, up to limit.
func (s *DeckService) Recent(ctx context.Context, limit int) ([]Deck, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	decks, err := s.store.RecentDecks(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromDecks(decks), nil
}

// Stats returns deck summary counts keyed by status string.
func (s *DeckService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeDeckStats(stats), nil
}

// Describe fetches a single deck without slides.
func (s *DeckService) Describe(ctx context.Context, id int64) (*Deck, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	d, err := s.store.GetByID(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}
	dto := FromDeck(d)
	return &dto, nil
}

// Detail fetches a deck together with its transcript and ordered slides.
func (s *DeckService) Detail(ctx context.Context, id int64) (*DeckDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	snapshot, err := s.store.DeckWithSlides(ctx, id)
	if err != nil || snapshot == nil {
		return nil, err
	}
	detail := FromDeckDetail(snapshot)
	return &detail, nil
}
