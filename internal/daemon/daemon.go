package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/deps"
	"slidecast/internal/logging"
	"slidecast/internal/notifications"
	"slidecast/internal/pipeline"
	"slidecast/internal/stage"
	"slidecast/internal/watch"
)

// Daemon coordinates the background pipeline and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *deck.Store
	pipeline *pipeline.Manager
	hub      *watch.Hub
	logPath  string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// PipelineSummary captures the pipeline state for status reporting.
type PipelineSummary struct {
	Running     bool
	DeckStats   map[deck.Status]int
	LastError   string
	StageHealth []stage.Health
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Pipeline     PipelineSummary
	Dependencies []deps.Status
	DeckDBPath   string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *deck.Store, logger *slog.Logger, mgr *pipeline.Manager, hub *watch.Hub) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || mgr == nil {
		return nil, errors.New("daemon requires config, store, logger, and pipeline manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "slidecastd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: mgr,
		hub:      hub,
		logPath:  filepath.Join(cfg.Paths.LogDir, "slidecast.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start launches the pipeline manager, acquires the daemon lock, and serves the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slidecast daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.pipeline.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.pipeline.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("slidecast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("slidecast daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Store exposes the deck store for API and IPC callers.
func (d *Daemon) Store() *deck.Store {
	return d.store
}

// Hub exposes the deck event hub.
func (d *Daemon) Hub() *watch.Hub {
	return d.hub
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// CreateDeck records a new deck in the processing state.
func (d *Daemon) CreateDeck(ctx context.Context, title string) (*deck.Deck, error) {
	if d.store == nil {
		return nil, errors.New("deck store unavailable")
	}
	return d.store.CreateDeck(ctx, title)
}

// CreateDeckWithAudio records a new deck with its audio file in one step. The
// source file is copied into the audio directory so the pipeline owns its own
// blob. An empty source path inserts a completed deck with nothing to process.
func (d *Daemon) CreateDeckWithAudio(ctx context.Context, title, sourcePath string) (*deck.Deck, error) {
	if d.store == nil {
		return nil, errors.New("deck store unavailable")
	}
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return d.store.CreateDeckWithAudio(ctx, title, "", "")
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open audio file: %v", deck.ErrInvalid, err)
	}
	defer src.Close()

	fileID := uuid.NewString()
	audioPath := filepath.Join(d.cfg.Paths.AudioDir, fileID+filepath.Ext(sourcePath))
	if err := saveAudioFile(audioPath, src); err != nil {
		return nil, err
	}

	created, err := d.store.CreateDeckWithAudio(ctx, title, audioPath, fileID)
	if err != nil {
		_ = os.Remove(audioPath)
		return nil, err
	}
	return created, nil
}

// ListDecks returns decks filtered by optional statuses.
func (d *Daemon) ListDecks(ctx context.Context, statuses []deck.Status) ([]*deck.Deck, error) {
	if d.store == nil {
		return nil, errors.New("deck store unavailable")
	}
	return d.store.List(ctx, statuses...)
}

// GetDeck fetches a single deck with its slides.
func (d *Daemon) GetDeck(ctx context.Context, id int64) (*deck.WithSlides, error) {
	if d.store == nil {
		return nil, errors.New("deck store unavailable")
	}
	return d.store.DeckWithSlides(ctx, id)
}

// DeleteDeck removes a deck and its slides.
func (d *Daemon) DeleteDeck(ctx context.Context, id int64) (bool, error) {
	if d.store == nil {
		return false, errors.New("deck store unavailable")
	}
	return d.store.Delete(ctx, id)
}

// ReprocessDeck moves an errored deck back into processing.
func (d *Daemon) ReprocessDeck(ctx context.Context, id int64) (*deck.Deck, error) {
	if d.store == nil {
		return nil, errors.New("deck store unavailable")
	}
	return d.store.Reprocess(ctx, id)
}

// RunDeck drives a single deck through the pipeline synchronously.
func (d *Daemon) RunDeck(ctx context.Context, id int64) (*deck.Deck, error) {
	if d.pipeline == nil {
		return nil, errors.New("pipeline unavailable")
	}
	return d.pipeline.RunDeck(ctx, id)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := PipelineSummary{Running: d.pipeline.Running()}
	if err := d.pipeline.LastError(); err != nil {
		summary.LastError = err.Error()
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		summary.DeckStats = stats
	}
	summary.StageHealth = d.pipeline.Health(ctx)

	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Pipeline:     summary,
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
		DeckDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
