package slidegen_test

import (
	"context"
	"errors"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/services"
	"slidecast/internal/slidegen"
	"slidecast/internal/testsupport"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func newGenStage(t *testing.T, cfg *config.Config, store *deck.Store, completer slidegen.Completer) *slidegen.Stage {
	t.Helper()
	gen := slidegen.NewGenerator(completer, cfg.LLM)
	return slidegen.NewStageWithDependencies(cfg, store, logging.NewNop(), gen, notifications.NewService(cfg))
}

const slidesJSON = `{"slides":[
	{"title":"Intro","content":"Welcome to the talk","speakerNotes":"greet the room"},
	{"title":"Body","content":"The main argument"},
	{"title":"Close","content":"Wrap up and questions","speakerNotes":"thank everyone"}
]}`

func TestStageExecuteGeneratesAndCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeckWithTranscript(t, store, "Launch", "we built a thing and shipped it")

	stg := newGenStage(t, cfg, store, &fakeCompleter{responses: []string{slidesJSON}})
	if err := stg.Prepare(ctx, d); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := stg.Execute(ctx, d); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	snapshot, err := store.DeckWithSlides(ctx, d.ID)
	if err != nil {
		t.Fatalf("DeckWithSlides failed: %v", err)
	}
	if snapshot.Status != deck.StatusCompleted {
		t.Fatalf("expected completed deck, got %s", snapshot.Status)
	}
	if snapshot.TotalSlides != 3 || len(snapshot.Slides) != 3 {
		t.Fatalf("expected 3 slides, got count=%d len=%d", snapshot.TotalSlides, len(snapshot.Slides))
	}
	if snapshot.Slides[0].Title != "Intro" || snapshot.Slides[2].SpeakerNotes != "thank everyone" {
		t.Fatalf("unexpected slides: %#v", snapshot.Slides)
	}
}

func TestStageExecuteRetriesTransientFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.RetryBaseDelayMS = 1
	cfg.Pipeline.RetryMaxDelayMS = 2
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeckWithTranscript(t, store, "Flaky", "transcript text")

	completer := &fakeCompleter{
		errs:      []error{services.Wrap(services.ErrTransient, "generate", "llm request", "", errors.New("http 503"))},
		responses: []string{"", slidesJSON},
	}
	stg := newGenStage(t, cfg, store, completer)
	if err := stg.Execute(ctx, d); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if completer.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", completer.calls)
	}
}

func TestStageExecuteStopsOnConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeckWithTranscript(t, store, "Unauthorized", "transcript text")

	completer := &fakeCompleter{
		errs: []error{
			services.Wrap(services.ErrConfiguration, "generate", "llm request", "api key rejected", nil),
			services.Wrap(services.ErrConfiguration, "generate", "llm request", "api key rejected", nil),
		},
	}
	stg := newGenStage(t, cfg, store, completer)
	err := stg.Execute(ctx, d)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if completer.calls != 1 {
		t.Fatalf("expected single attempt, got %d", completer.calls)
	}
}

func TestStagePrepareRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	d := testsupport.NewDeck(t, store, "No Transcript")
	stg := newGenStage(t, cfg, store, &fakeCompleter{})

	err := stg.Prepare(context.Background(), d)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stg := newGenStage(t, cfg, store, &fakeCompleter{})
	if health := stg.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy generator, got %+v", health)
	}

	cfg.LLM.APIKey = ""
	stg = newGenStage(t, cfg, store, &fakeCompleter{})
	if health := stg.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy generator without api key")
	}
}

func TestGeneratorRejectsMalformedSlides(t *testing.T) {
	gen := slidegen.NewGenerator(&fakeCompleter{responses: []string{`{"slides":[{"title":"","content":""}]}`}}, config.Default().LLM)
	_, err := gen.Generate(context.Background(), "Deck", "transcript")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient parse error, got %v", err)
	}
}

func TestGeneratorRegenerateNotes(t *testing.T) {
	gen := slidegen.NewGenerator(&fakeCompleter{responses: []string{`{"speakerNotes":"pause here for effect"}`}}, config.Default().LLM)
	notes, err := gen.RegenerateNotes(context.Background(), "Intro", "Welcome")
	if err != nil {
		t.Fatalf("RegenerateNotes failed: %v", err)
	}
	if notes != "pause here for effect" {
		t.Fatalf("unexpected notes: %q", notes)
	}
}
