package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/services"
)

func (m *Manager) processDeck(ctx context.Context, ln *lane, d *deck.Deck) error {
	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithDeckID(ctx, d.ID), ln.name), requestID)
	logger := logging.WithContext(stageCtx, ln.logger)

	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("deck_title", d.Title),
	)

	if err := ln.handler.Prepare(stageCtx, d); err != nil {
		m.handleStageFailure(stageCtx, ln, d, err)
		return err
	}
	if err := ln.handler.Execute(stageCtx, d); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(stageCtx, ln, d, err)
		return err
	}

	logger.Info("stage finished",
		logging.String(logging.FieldEventType, "stage_finish"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// handleStageFailure persists the error state on the deck and notifies. The
// stage has already burned its retry budget, so any failure that reaches here
// is final for this run.
func (m *Manager) handleStageFailure(ctx context.Context, ln *lane, d *deck.Deck, stageErr error) {
	m.setLastError(stageErr)
	logger := logging.WithContext(ctx, ln.logger)

	cls := services.Classify(stageErr)
	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_kind", cls.Kind),
		logging.Bool("recoverable", cls.Recoverable),
	)

	if _, err := m.store.MarkError(ctx, d.ID, cls.UserMessage); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
		return
	}

	if m.notifier != nil {
		if err := m.notifier.NotifyDeckFailed(ctx, d.Title, cls.UserMessage); err != nil {
			logger.Warn("failed to send failure notification", logging.Error(err))
		}
	}
}

// RunDeck drives one deck through whichever stages its record shape still
// needs, synchronously. Used by the CLI to process a deck without the daemon.
func (m *Manager) RunDeck(ctx context.Context, id int64) (*deck.Deck, error) {
	d, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "run deck", "deck not found", nil)
	}

	for _, ln := range m.lanes {
		current, err := m.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !m.laneWants(ln, current) {
			continue
		}
		if ln.logger == nil {
			ln.logger = m.logger.With(logging.String(logging.FieldComponent, "pipeline"), logging.String("lane", ln.name))
		}
		if err := m.processDeck(ctx, ln, current); err != nil {
			return m.store.GetByID(ctx, id)
		}
	}
	return m.store.GetByID(ctx, id)
}

func (m *Manager) laneWants(ln *lane, d *deck.Deck) bool {
	if d == nil {
		return false
	}
	switch ln.name {
	case "transcribe":
		return d.NeedsTranscription()
	case "generate":
		return d.NeedsGeneration()
	default:
		return false
	}
}
