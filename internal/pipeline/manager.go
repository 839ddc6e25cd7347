// Package pipeline drives decks through transcription and slide generation.
// A manager runs one polling goroutine per lane; each lane claims the oldest
// deck whose record shape matches its stage and hands it to the stage handler.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/slidegen"
	"slidecast/internal/stage"
	"slidecast/internal/transcription"
)

type lane struct {
	name    string
	next    func(ctx context.Context) (*deck.Deck, error)
	handler stage.Handler
	logger  *slog.Logger
}

// Manager coordinates deck processing using registered stage handlers.
type Manager struct {
	cfg                *config.Config
	store              *deck.Store
	logger             *slog.Logger
	notifier           notifications.Service
	pollInterval       time.Duration
	errorRetryInterval time.Duration

	lanes []*lane

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a pipeline manager with the default stage handlers.
func NewManager(cfg *config.Config, store *deck.Store, logger *slog.Logger) *Manager {
	return NewManagerWithStages(cfg, store, logger,
		transcription.NewStage(cfg, store, logger),
		slidegen.NewStage(cfg, store, logger),
		notifications.NewService(cfg),
	)
}

// NewManagerWithStages allows injecting stage handlers (used in tests).
func NewManagerWithStages(cfg *config.Config, store *deck.Store, logger *slog.Logger, transcribe, generate stage.Handler, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:                cfg,
		store:              store,
		logger:             logger,
		notifier:           notifier,
		pollInterval:       time.Duration(cfg.Pipeline.PollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Pipeline.ErrorRetryInterval) * time.Second,
	}
	if m.pollInterval <= 0 {
		m.pollInterval = 5 * time.Second
	}
	if m.errorRetryInterval <= 0 {
		m.errorRetryInterval = 10 * time.Second
	}
	m.lanes = []*lane{
		{name: "transcribe", next: store.NextTranscribable, handler: transcribe},
		{name: "generate", next: store.NextGeneratable, handler: generate},
	}
	return m
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	for _, ln := range m.lanes {
		ln.logger = m.logger.With(logging.String(logging.FieldComponent, "pipeline"), logging.String("lane", ln.name))
	}
	m.wg.Add(len(m.lanes))
	m.mu.Unlock()

	for _, ln := range m.lanes {
		go m.runLane(runCtx, ln)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether background lanes are active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent lane failure, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) runLane(ctx context.Context, ln *lane) {
	defer m.wg.Done()
	logger := ln.logger

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		d, err := ln.next(ctx)
		if err != nil {
			m.setLastError(err)
			logger.Error("failed to fetch next deck",
				logging.Error(err),
				logging.String(logging.FieldEventType, "deck_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check deck database access"),
			)
			m.waitOrShutdown(ctx, m.errorRetryInterval)
			continue
		}
		if d == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		if err := m.processDeck(ctx, ln, d); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
