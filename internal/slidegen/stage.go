package slidegen

import (
	"context"
	"log/slog"
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

// Stage generates slides from a deck transcript and completes the deck.
type Stage struct {
	store    *deck.Store
	cfg      *config.Config
	logger   *slog.Logger
	gen      *Generator
	notifier notifications.Service
	policy   retry.Policy
}

// NewStage constructs the generation handler using default dependencies.
func NewStage(cfg *config.Config, store *deck.Store, logger *slog.Logger) *Stage {
	client := NewClient(cfg.GetLLM())
	return NewStageWithDependencies(cfg, store, logger, NewGenerator(client, cfg.LLM), notifications.NewService(cfg))
}

// NewStageWithDependencies allows injecting all collaborators (used in tests).
func NewStageWithDependencies(cfg *config.Config, store *deck.Store, logger *slog.Logger, gen *Generator, notifier notifications.Service) *Stage {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "slide-generator"))
	}
	policy := retry.NewPolicy(
		cfg.Pipeline.GenerateAttempts,
		time.Duration(cfg.Pipeline.RetryBaseDelayMS)*time.Millisecond,
		time.Duration(cfg.Pipeline.RetryMaxDelayMS)*time.Millisecond,
	)
	return &Stage{store: store, cfg: cfg, logger: stageLogger, gen: gen, notifier: notifier, policy: policy}
}

// Prepare validates that the deck has a transcript ready.
func (s *Stage) Prepare(ctx context.Context, d *deck.Deck) error {
	logger := logging.WithContext(ctx, s.logger)
	if !d.HasTranscript() {
		return services.Wrap(services.ErrValidation, "generate", "prepare",
			"deck has no transcript", nil)
	}
	logger.Info("starting slide generation",
		logging.String("deck_title", strings.TrimSpace(d.Title)),
		logging.Int("transcript_chars", len(d.Transcript)),
	)
	return nil
}

// Execute generates slides with retries, replaces the deck's slide set, and
// marks the deck completed.
func (s *Stage) Execute(ctx context.Context, d *deck.Deck) error {
	logger := logging.WithContext(ctx, s.logger)

	var slides []deck.NewSlide
	err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			logger.Warn("retrying slide generation", logging.Int("attempt", attempt))
		}
		generated, genErr := s.gen.Generate(ctx, d.Title, d.Transcript)
		if genErr != nil {
			return genErr
		}
		slides = generated
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.store.ReplaceSlides(ctx, d.ID, slides); err != nil {
		return services.Wrap(services.ErrTransient, "generate", "replace slides", "", err)
	}
	updated, err := s.store.MarkCompleted(ctx, d.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "generate", "mark completed", "", err)
	}
	*d = *updated

	logger.Info("slide generation complete",
		logging.Int("total_slides", updated.TotalSlides),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyDeckCompleted(ctx, d.Title, updated.TotalSlides); err != nil {
			logger.Warn("failed to send completion notification", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck reports whether the generation service is configured. It does
// not issue a network request; the daemon's preflight ping covers that.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	llm := s.cfg.GetLLM()
	if llm.APIKey == "" {
		return stage.Unhealthy("slide-generator", "llm api key not configured")
	}
	if llm.Model == "" {
		return stage.Unhealthy("slide-generator", "llm model not configured")
	}
	return stage.Healthy("slide-generator")
}
