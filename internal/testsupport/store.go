package testsupport

import (
	"context"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/deck"
)

// MustOpenStore opens a deck.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *deck.Store {
	t.Helper()

	store, err := deck.Open(cfg)
	if err != nil {
		t.Fatalf("deck.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDeck creates a processing deck for tests using the provided store.
func NewDeck(t testing.TB, store *deck.Store, title string) *deck.Deck {
	t.Helper()

	d, err := store.CreateDeck(context.Background(), title)
	if err != nil {
		t.Fatalf("store.CreateDeck: %v", err)
	}
	return d
}

// NewDeckWithTranscript creates a processing deck with audio attached and a
// transcript recorded, ready for the generation lane.
func NewDeckWithTranscript(t testing.TB, store *deck.Store, title, transcript string) *deck.Deck {
	t.Helper()

	d := NewDeck(t, store, title)
	ctx := context.Background()
	if _, err := store.AttachAudio(ctx, d.ID, "/tmp/"+title+".mp3", ""); err != nil {
		t.Fatalf("store.AttachAudio: %v", err)
	}
	updated, err := store.RecordTranscript(ctx, d.ID, transcript)
	if err != nil {
		t.Fatalf("store.RecordTranscript: %v", err)
	}
	return updated
}
