package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"slidecast/internal/config"
	"slidecast/internal/daemon"
	"slidecast/internal/deck"
	"slidecast/internal/deps"
	"slidecast/internal/ipc"
	"slidecast/internal/logging"
	"slidecast/internal/pipeline"
	"slidecast/internal/watch"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// SocketPath returns the IPC socket location for the given configuration.
func SocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "slidecast.sock")
	}
	return filepath.Join(cfg.Paths.LogDir, "slidecast.sock")
}

// PIDPath returns the daemon pid file location for the given configuration.
func PIDPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "slidecast.pid")
	}
	return filepath.Join(cfg.Paths.LogDir, "slidecast.pid")
}

// Run starts the slidecast daemon runtime loop and blocks until the context
// ends or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "slidecast.log")
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := deck.Open(cfg)
	if err != nil {
		logger.Error("open deck store", logging.Error(err))
		return err
	}
	defer store.Close()

	hub := watch.NewHub(0)
	store.AttachHub(hub)

	manager := pipeline.NewManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager, hub)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, SocketPath(cfg), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and deck database access"))
	}

	<-signalCtx.Done()
	logger.Info("slidecast daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []any{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		attrs = append(attrs,
			logging.Bool(status.Name+"_available", status.Available),
			logging.String(status.Name+"_binary", status.Command))
	}
	attrs = append(attrs, logging.Bool("llm_key_present", cfg.LLM.APIKey != ""))
	logger.Info("dependency snapshot", attrs...)
}
