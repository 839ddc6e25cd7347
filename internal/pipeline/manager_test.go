package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/pipeline"
	"slidecast/internal/services"
	"slidecast/internal/stage"
	"slidecast/internal/testsupport"
)

type fakeStage struct {
	name    string
	execute func(ctx context.Context, d *deck.Deck) error
}

func (f *fakeStage) Prepare(ctx context.Context, d *deck.Deck) error { return nil }

func (f *fakeStage) Execute(ctx context.Context, d *deck.Deck) error {
	if f.execute == nil {
		return nil
	}
	return f.execute(ctx, d)
}

func (f *fakeStage) HealthCheck(ctx context.Context) stage.Health { return stage.Healthy(f.name) }

func transcribeStage(store *deck.Store) *fakeStage {
	return &fakeStage{name: "transcribe", execute: func(ctx context.Context, d *deck.Deck) error {
		_, err := store.RecordTranscript(ctx, d.ID, "transcript for "+d.Title)
		return err
	}}
}

func generateStage(store *deck.Store) *fakeStage {
	return &fakeStage{name: "generate", execute: func(ctx context.Context, d *deck.Deck) error {
		slides := []deck.NewSlide{
			{Title: "One", Content: "a"},
			{Title: "Two", Content: "b"},
			{Title: "Three", Content: "c"},
		}
		if err := store.ReplaceSlides(ctx, d.ID, slides); err != nil {
			return err
		}
		_, err := store.MarkCompleted(ctx, d.ID)
		return err
	}}
}

func newManager(cfg *config.Config, store *deck.Store, transcribe, generate stage.Handler) *pipeline.Manager {
	return pipeline.NewManagerWithStages(cfg, store, logging.NewNop(), transcribe, generate, notifications.NewService(cfg))
}

func seedDeckWithAudio(t *testing.T, cfg *config.Config, store *deck.Store, title string) *deck.Deck {
	t.Helper()
	d := testsupport.NewDeck(t, store, title)
	audioPath := cfg.Paths.AudioDir + "/" + title + ".mp3"
	testsupport.WriteAudioFile(t, audioPath, 64)
	d, err := store.AttachAudio(context.Background(), d.ID, audioPath, "")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}
	return d
}

func TestRunDeckDrivesBothStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(cfg, store, transcribeStage(store), generateStage(store))

	ctx := context.Background()
	d := seedDeckWithAudio(t, cfg, store, "end-to-end")

	final, err := mgr.RunDeck(ctx, d.ID)
	if err != nil {
		t.Fatalf("RunDeck failed: %v", err)
	}
	if final.Status != deck.StatusCompleted {
		t.Fatalf("expected completed deck, got %s (%q)", final.Status, final.ErrorMessage)
	}
	if final.TotalSlides != 3 {
		t.Fatalf("expected 3 slides, got %d", final.TotalSlides)
	}
	if final.Transcript == "" {
		t.Fatal("expected transcript recorded")
	}
}

func TestRunDeckMarksErrorOnStageFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	failing := &fakeStage{name: "transcribe", execute: func(ctx context.Context, d *deck.Deck) error {
		return services.Wrap(services.ErrExternalTool, "transcribe", "run transcriber", "whisper crashed", nil)
	}}
	mgr := newManager(cfg, store, failing, generateStage(store))

	ctx := context.Background()
	d := seedDeckWithAudio(t, cfg, store, "doomed")

	final, err := mgr.RunDeck(ctx, d.ID)
	if err != nil {
		t.Fatalf("RunDeck failed: %v", err)
	}
	if final.Status != deck.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.ErrorMessage == "" {
		t.Fatal("expected error message persisted")
	}
	if mgr.LastError() == nil {
		t.Fatal("expected manager to record last error")
	}
}

func TestRunDeckMissingDeck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(cfg, store, transcribeStage(store), generateStage(store))

	_, err := mgr.RunDeck(context.Background(), 8888)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRunDeckSkipsFinishedDecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	calls := 0
	counting := &fakeStage{name: "transcribe", execute: func(ctx context.Context, d *deck.Deck) error {
		calls++
		return nil
	}}
	mgr := newManager(cfg, store, counting, generateStage(store))

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "already-done")
	if _, err := store.MarkCompleted(ctx, d.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	final, err := mgr.RunDeck(ctx, d.ID)
	if err != nil {
		t.Fatalf("RunDeck failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no stage runs, got %d", calls)
	}
	if final.Status != deck.StatusCompleted {
		t.Fatalf("unexpected status: %s", final.Status)
	}
}

func TestManagerBackgroundProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.PollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(cfg, store, transcribeStage(store), generateStage(store))

	ctx := context.Background()
	d := seedDeckWithAudio(t, cfg, store, "background")

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	if err := mgr.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail while running")
	}

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		current, err := store.GetByID(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if current.Status == deck.StatusCompleted {
			return
		}
		if current.Status == deck.StatusError {
			t.Fatalf("deck failed: %s", current.ErrorMessage)
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("deck did not complete before deadline")
}

func TestManagerHealthAggregatesStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := newManager(cfg, store, transcribeStage(store), generateStage(store))

	checks := mgr.Health(context.Background())
	if len(checks) != 2 {
		t.Fatalf("expected 2 health checks, got %d", len(checks))
	}
	for _, health := range checks {
		if !health.Ready {
			t.Fatalf("expected ready stage, got %+v", health)
		}
	}
}
