package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/services"
	"slidecast/internal/services/retry"
	"slidecast/internal/stage"
)

// Stage transcribes deck audio and records the transcript on the deck.
type Stage struct {
	store    *deck.Store
	cfg      *config.Config
	logger   *slog.Logger
	svc      *Service
	notifier notifications.Service
	policy   retry.Policy
}

// NewStage constructs the transcription handler using default dependencies.
func NewStage(cfg *config.Config, store *deck.Store, logger *slog.Logger) *Stage {
	return NewStageWithDependencies(cfg, store, logger, NewService(cfg.Transcriber), notifications.NewService(cfg))
}

// NewStageWithDependencies allows injecting all collaborators (used in tests).
func NewStageWithDependencies(cfg *config.Config, store *deck.Store, logger *slog.Logger, svc *Service, notifier notifications.Service) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "transcriber"))
	}
	policy := retry.NewPolicy(
		cfg.Pipeline.TranscribeAttempts,
		time.Duration(cfg.Pipeline.RetryBaseDelayMS)*time.Millisecond,
		time.Duration(cfg.Pipeline.RetryMaxDelayMS)*time.Millisecond,
	)
	return &Stage{store: store, cfg: cfg, logger: stageLogger, svc: svc, notifier: notifier, policy: policy}
}

// Prepare validates that the deck audio is present on disk before the stage
// runs.
func (s *Stage) Prepare(ctx context.Context, d *deck.Deck) error {
	logger := logging.WithContext(ctx, s.logger)
	if !d.HasAudio() {
		return services.Wrap(services.ErrValidation, "transcribe", "prepare",
			"deck has no audio attached", nil)
	}
	if d.AudioPath != "" {
		if _, err := os.Stat(d.AudioPath); err != nil {
			return services.Wrap(services.ErrValidation, "transcribe", "prepare",
				fmt.Sprintf("audio file missing: %s", d.AudioPath), err)
		}
	}
	logger.Info("starting transcription",
		logging.String("deck_title", strings.TrimSpace(d.Title)),
		logging.String("audio_path", strings.TrimSpace(d.AudioPath)),
	)
	return nil
}

// Execute runs the transcriber with retries and persists the transcript.
func (s *Stage) Execute(ctx context.Context, d *deck.Deck) error {
	logger := logging.WithContext(ctx, s.logger)

	var transcript string
	err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			logger.Warn("retrying transcription", logging.Int("attempt", attempt))
		}
		text, runErr := s.svc.Transcribe(ctx, d.AudioPath)
		if runErr != nil {
			return classifyTranscribeError(runErr)
		}
		transcript = text
		return nil
	})
	if err != nil {
		return err
	}

	updated, err := s.store.RecordTranscript(ctx, d.ID, transcript)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "record transcript", "", err)
	}
	*d = *updated

	logger.Info("transcription complete",
		logging.Int("transcript_chars", len(transcript)),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyTranscriptReady(ctx, d.Title); err != nil {
			logger.Warn("failed to send transcript notification", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck reports whether the transcriber command is runnable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	command := s.svc.Command()
	if command == "" {
		return stage.Unhealthy("transcriber", "transcriber command not configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return stage.Unhealthy("transcriber", fmt.Sprintf("%s not found in PATH", command))
	}
	return stage.Healthy("transcriber")
}

func classifyTranscribeError(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return services.Wrap(services.ErrConfiguration, "transcribe", "run transcriber",
			"transcription service not configured", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "transcribe", "run transcriber", "", err)
	default:
		return services.Wrap(services.ErrExternalTool, "transcribe", "run transcriber", "", err)
	}
}
