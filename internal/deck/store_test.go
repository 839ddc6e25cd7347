package deck_test

import (
	"context"
	"errors"
	"testing"

	"slidecast/internal/deck"
	"slidecast/internal/testsupport"
	"slidecast/internal/watch"
)

func TestCreateDeckStartsProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d, err := store.CreateDeck(ctx, "Quarterly Review")
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if d.ID == 0 {
		t.Fatal("expected deck ID to be assigned")
	}
	if d.Status != deck.StatusProcessing {
		t.Fatalf("expected processing status, got %s", d.Status)
	}
	if d.TotalSlides != 0 {
		t.Fatalf("expected zero slides, got %d", d.TotalSlides)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Quarterly Review" {
		t.Fatalf("unexpected fetched deck: %#v", fetched)
	}
}

func TestCreateDeckRequiresTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.CreateDeck(context.Background(), "   "); !errors.Is(err, deck.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCreateDeckWithAudioStatusDependsOnAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	withAudio, err := store.CreateDeckWithAudio(ctx, "Recorded Talk", "/tmp/talk.mp3", "file-1")
	if err != nil {
		t.Fatalf("CreateDeckWithAudio failed: %v", err)
	}
	if withAudio.Status != deck.StatusProcessing {
		t.Fatalf("expected processing for deck with audio, got %s", withAudio.Status)
	}
	if !withAudio.HasAudio() {
		t.Fatal("expected audio to be attached")
	}

	withoutAudio, err := store.CreateDeckWithAudio(ctx, "Empty Deck", "", "")
	if err != nil {
		t.Fatalf("CreateDeckWithAudio without audio failed: %v", err)
	}
	if withoutAudio.Status != deck.StatusCompleted {
		t.Fatalf("expected completed for deck without audio, got %s", withoutAudio.Status)
	}
}

func TestAttachAudioRestartsFinishedDecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	finished := testsupport.NewDeck(t, store, "Finished Deck")
	if _, err := store.MarkCompleted(ctx, finished.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	restarted, err := store.AttachAudio(ctx, finished.ID, "/tmp/new.mp3", "file-2")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}
	if restarted.Status != deck.StatusProcessing {
		t.Fatalf("expected re-upload to restart processing, got %s", restarted.Status)
	}

	broken := testsupport.NewDeck(t, store, "Broken Deck")
	if _, err := store.MarkError(ctx, broken.ID, "transcription failed"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	recovered, err := store.AttachAudio(ctx, broken.ID, "/tmp/retry.mp3", "file-3")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}
	if recovered.Status != deck.StatusProcessing || recovered.ErrorMessage != "" {
		t.Fatalf("expected cleared error after re-upload, got %#v", recovered)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d, err := store.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if d != nil {
		t.Fatalf("expected nil for missing deck, got %#v", d)
	}
}

func TestMarkErrorAndCompletedInvariant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Invariant Deck")

	errored, err := store.MarkError(ctx, d.ID, "transcription failed")
	if err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	if errored.Status != deck.StatusError || errored.ErrorMessage != "transcription failed" {
		t.Fatalf("unexpected errored deck: %#v", errored)
	}

	completed, err := store.MarkCompleted(ctx, d.ID)
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if completed.Status != deck.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", completed.ErrorMessage)
	}
}

func TestMarkErrorDefaultsMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d := testsupport.NewDeck(t, store, "Blank Error")
	errored, err := store.MarkError(context.Background(), d.ID, "  ")
	if err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	if errored.ErrorMessage == "" {
		t.Fatal("expected fallback error message")
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Idempotent Deck")

	first, err := store.MarkCompleted(ctx, d.ID)
	if err != nil {
		t.Fatalf("first MarkCompleted failed: %v", err)
	}
	second, err := store.MarkCompleted(ctx, d.ID)
	if err != nil {
		t.Fatalf("second MarkCompleted failed: %v", err)
	}
	if first.Status != second.Status || first.TotalSlides != second.TotalSlides {
		t.Fatalf("expected identical results, got %#v and %#v", first, second)
	}
}

func TestTransitionsOnMissingDeck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.MarkCompleted(ctx, 4242); !errors.Is(err, deck.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.MarkError(ctx, 4242, "boom"); !errors.Is(err, deck.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.RecordTranscript(ctx, 4242, "text"); !errors.Is(err, deck.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReprocessOnlyFromError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Retry Deck")

	if _, err := store.Reprocess(ctx, d.ID); !errors.Is(err, deck.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for processing deck, got %v", err)
	}

	if _, err := store.MarkError(ctx, d.ID, "generation failed"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}
	resumed, err := store.Reprocess(ctx, d.ID)
	if err != nil {
		t.Fatalf("Reprocess failed: %v", err)
	}
	if resumed.Status != deck.StatusProcessing || resumed.ErrorMessage != "" {
		t.Fatalf("unexpected resumed deck: %#v", resumed)
	}
}

func TestPipelineLaneSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()

	// No audio yet: neither lane should pick the deck up.
	bare := testsupport.NewDeck(t, store, "No Audio")
	if next, err := store.NextTranscribable(ctx); err != nil || next != nil {
		t.Fatalf("expected idle transcribe lane, got %#v (%v)", next, err)
	}
	if next, err := store.NextGeneratable(ctx); err != nil || next != nil {
		t.Fatalf("expected idle generate lane, got %#v (%v)", next, err)
	}

	if _, err := store.AttachAudio(ctx, bare.ID, "/tmp/talk.mp3", "file-1"); err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}
	next, err := store.NextTranscribable(ctx)
	if err != nil {
		t.Fatalf("NextTranscribable failed: %v", err)
	}
	if next == nil || next.ID != bare.ID {
		t.Fatalf("expected deck %d in transcribe lane, got %#v", bare.ID, next)
	}

	if _, err := store.RecordTranscript(ctx, bare.ID, "hello world"); err != nil {
		t.Fatalf("RecordTranscript failed: %v", err)
	}
	if next, err := store.NextTranscribable(ctx); err != nil || next != nil {
		t.Fatalf("expected transcribe lane drained, got %#v (%v)", next, err)
	}
	gen, err := store.NextGeneratable(ctx)
	if err != nil {
		t.Fatalf("NextGeneratable failed: %v", err)
	}
	if gen == nil || gen.ID != bare.ID {
		t.Fatalf("expected deck %d in generate lane, got %#v", bare.ID, gen)
	}
}

func TestSlideLifecycleKeepsCountAccurate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Counted Deck")

	for i := 0; i < 3; i++ {
		if _, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{
			Title:    "Slide",
			Content:  "- point",
			Position: i,
		}); err != nil {
			t.Fatalf("CreateSlide %d failed: %v", i, err)
		}
	}

	fetched, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.TotalSlides != 3 {
		t.Fatalf("expected 3 slides counted, got %d", fetched.TotalSlides)
	}

	slides, err := store.SlidesForDeck(ctx, d.ID)
	if err != nil {
		t.Fatalf("SlidesForDeck failed: %v", err)
	}
	if err := store.DeleteSlide(ctx, slides[1].ID); err != nil {
		t.Fatalf("DeleteSlide failed: %v", err)
	}

	fetched, err = store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.TotalSlides != 2 {
		t.Fatalf("expected 2 slides after delete, got %d", fetched.TotalSlides)
	}
}

func TestCreateSlideRejectsPositionCollision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Collision Deck")

	if _, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{Title: "One", Content: "a", Position: 0}); err != nil {
		t.Fatalf("CreateSlide failed: %v", err)
	}
	if _, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{Title: "Two", Content: "b", Position: 0}); !errors.Is(err, deck.ErrInvalid) {
		t.Fatalf("expected ErrInvalid on colliding position, got %v", err)
	}
}

func TestReplaceSlidesIsAtomicAndOrdered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Replaced Deck")

	if _, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{Title: "Old", Content: "stale", Position: 0}); err != nil {
		t.Fatalf("CreateSlide failed: %v", err)
	}

	replacement := []deck.NewSlide{
		{Title: "Intro", Content: "- welcome"},
		{Title: "Middle", Content: "- detail", SpeakerNotes: "slow down here"},
		{Title: "Close", Content: "- thanks"},
	}
	if err := store.ReplaceSlides(ctx, d.ID, replacement); err != nil {
		t.Fatalf("ReplaceSlides failed: %v", err)
	}

	snapshot, err := store.DeckWithSlides(ctx, d.ID)
	if err != nil {
		t.Fatalf("DeckWithSlides failed: %v", err)
	}
	if snapshot == nil {
		t.Fatal("expected snapshot")
	}
	if snapshot.TotalSlides != 3 || len(snapshot.Slides) != 3 {
		t.Fatalf("expected 3 slides, got count=%d len=%d", snapshot.TotalSlides, len(snapshot.Slides))
	}
	for i, slide := range snapshot.Slides {
		if slide.Position != i {
			t.Fatalf("slide %d out of order: position %d", i, slide.Position)
		}
	}
	if snapshot.Slides[1].SpeakerNotes != "slow down here" {
		t.Fatalf("unexpected speaker notes: %q", snapshot.Slides[1].SpeakerNotes)
	}
}

func TestReplaceSlidesMissingDeck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	err := store.ReplaceSlides(context.Background(), 777, []deck.NewSlide{{Title: "t", Content: "c"}})
	if !errors.Is(err, deck.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSlide(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Edited Deck")
	slide, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{Title: "Draft", Content: "wip", Position: 0})
	if err != nil {
		t.Fatalf("CreateSlide failed: %v", err)
	}

	updated, err := store.UpdateSlide(ctx, slide.ID, "Final", "- polished", "remember to pause")
	if err != nil {
		t.Fatalf("UpdateSlide failed: %v", err)
	}
	if updated.Title != "Final" || updated.Content != "- polished" || updated.SpeakerNotes != "remember to pause" {
		t.Fatalf("unexpected updated slide: %#v", updated)
	}

	if _, err := store.UpdateSlide(ctx, 9001, "x", "y", ""); !errors.Is(err, deck.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDeckCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Doomed Deck")
	if _, err := store.CreateSlide(ctx, d.ID, deck.NewSlide{Title: "S", Content: "c", Position: 0}); err != nil {
		t.Fatalf("CreateSlide failed: %v", err)
	}

	removed, err := store.Delete(ctx, d.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !removed {
		t.Fatal("expected deck to be removed")
	}

	if fetched, err := store.GetByID(ctx, d.ID); err != nil || fetched != nil {
		t.Fatalf("expected deck gone, got %#v (%v)", fetched, err)
	}
	slides, err := store.SlidesForDeck(ctx, d.ID)
	if err != nil {
		t.Fatalf("SlidesForDeck failed: %v", err)
	}
	if len(slides) != 0 {
		t.Fatalf("expected no orphaned slides, got %d", len(slides))
	}

	removed, err = store.Delete(ctx, d.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if removed {
		t.Fatal("expected second delete to report not found")
	}
}

func TestRecentDecksNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewDeck(t, store, "First")
	second := testsupport.NewDeck(t, store, "Second")
	third := testsupport.NewDeck(t, store, "Third")

	recent, err := store.RecentDecks(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDecks failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(recent))
	}
	if recent[0].ID != third.ID || recent[1].ID != second.ID {
		t.Fatalf("unexpected ordering: %d, %d (wanted %d, %d)", recent[0].ID, recent[1].ID, third.ID, second.ID)
	}
	_ = first
}

func TestStatsGroupsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewDeck(t, store, "A")
	b := testsupport.NewDeck(t, store, "B")
	c := testsupport.NewDeck(t, store, "C")
	if _, err := store.MarkCompleted(ctx, b.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if _, err := store.MarkError(ctx, c.ID, "bad audio"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[deck.StatusProcessing] != 1 || stats[deck.StatusCompleted] != 1 || stats[deck.StatusError] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestStorePublishesCommittedStates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	hub := watch.NewHub(16)
	store.AttachHub(hub)

	ctx := context.Background()
	d, err := store.CreateDeck(ctx, "Watched Deck")
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if _, err := store.MarkCompleted(ctx, d.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	events, _, err := hub.Fetch(ctx, d.ID, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Status != string(deck.StatusProcessing) || events[1].Status != string(deck.StatusCompleted) {
		t.Fatalf("unexpected event statuses: %s, %s", events[0].Status, events[1].Status)
	}

	if _, err := store.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	latest, ok := hub.Latest(d.ID)
	if !ok || !latest.Deleted {
		t.Fatalf("expected deletion event, got %#v (ok=%v)", latest, ok)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := deck.ParseStatus(" Processing "); !ok || status != deck.StatusProcessing {
		t.Fatalf("unexpected parse result: %s, %v", status, ok)
	}
	if _, ok := deck.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to fail parsing")
	}
}
