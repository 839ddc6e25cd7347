package transcription_test

import (
	"context"
	"errors"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/services"
	"slidecast/internal/testsupport"
	"slidecast/internal/transcription"
)

func newStage(t *testing.T, cfg *config.Config, store *deck.Store, svc *transcription.Service) *transcription.Stage {
	t.Helper()
	return transcription.NewStageWithDependencies(cfg, store, logging.NewNop(), svc, notifications.NewService(cfg))
}

func TestExecuteRecordsTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcriber.Command = "whisper"
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Talk")
	audioPath := cfg.Paths.AudioDir + "/talk.mp3"
	testsupport.WriteAudioFile(t, audioPath, 128)
	d, err := store.AttachAudio(ctx, d.ID, audioPath, "")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}

	svc := transcription.NewService(cfg.Transcriber)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "hello from the talk\n", nil
	})
	stg := newStage(t, cfg, store, svc)

	if err := stg.Prepare(ctx, d); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := stg.Execute(ctx, d); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	updated, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Transcript != "hello from the talk" {
		t.Fatalf("unexpected transcript: %q", updated.Transcript)
	}
	if updated.Status != deck.StatusProcessing {
		t.Fatalf("expected deck to stay processing, got %s", updated.Status)
	}
}

func TestExecuteRetriesToolFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcriber.Command = "whisper"
	cfg.Pipeline.RetryBaseDelayMS = 1
	cfg.Pipeline.RetryMaxDelayMS = 2
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Flaky")
	audioPath := cfg.Paths.AudioDir + "/flaky.mp3"
	testsupport.WriteAudioFile(t, audioPath, 64)
	d, err := store.AttachAudio(ctx, d.ID, audioPath, "")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}

	attempts := 0
	svc := transcription.NewService(cfg.Transcriber)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("whisper: exit status 1")
		}
		return "recovered transcript", nil
	})
	stg := newStage(t, cfg, store, svc)

	if err := stg.Execute(ctx, d); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteFailsFastWhenNotConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	d := testsupport.NewDeck(t, store, "Unconfigured")
	audioPath := cfg.Paths.AudioDir + "/u.mp3"
	testsupport.WriteAudioFile(t, audioPath, 64)
	d, err := store.AttachAudio(ctx, d.ID, audioPath, "")
	if err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}

	stg := newStage(t, cfg, store, transcription.NewService(cfg.Transcriber))
	err = stg.Execute(ctx, d)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPrepareRejectsMissingAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Transcriber.Command = "whisper"
	store := testsupport.MustOpenStore(t, cfg)

	d := testsupport.NewDeck(t, store, "Silent")
	stg := newStage(t, cfg, store, transcription.NewService(cfg.Transcriber))

	err := stg.Prepare(context.Background(), d)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("whisper"))
	cfg.Transcriber.Command = "whisper"
	store := testsupport.MustOpenStore(t, cfg)

	stg := newStage(t, cfg, store, transcription.NewService(cfg.Transcriber))
	if health := stg.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy transcriber, got %+v", health)
	}

	cfg.Transcriber.Command = ""
	stg = newStage(t, cfg, store, transcription.NewService(cfg.Transcriber))
	if health := stg.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy transcriber without command")
	}
}
