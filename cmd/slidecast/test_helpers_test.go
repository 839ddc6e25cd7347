package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/daemon"
	"slidecast/internal/deck"
	"slidecast/internal/ipc"
	"slidecast/internal/logging"
	"slidecast/internal/pipeline"
	"slidecast/internal/stage"
	"slidecast/internal/testsupport"
	"slidecast/internal/watch"
)

type noopStage struct {
	name string
}

func (s *noopStage) Prepare(context.Context, *deck.Deck) error { return nil }
func (s *noopStage) Execute(context.Context, *deck.Deck) error { return nil }
func (s *noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *deck.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""

	configPath := filepath.Join(homeDir, ".config", "slidecast", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	hub := watch.NewHub(0)
	store.AttachHub(hub)

	logger := logging.NewNop()
	mgr := pipeline.NewManagerWithStages(cfg, store, logger,
		&noopStage{name: "transcriber"}, &noopStage{name: "slide-generator"}, nil)

	d, err := daemon.New(cfg, store, logger, mgr, hub)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		t.Skipf("unix socket unavailable: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\naudio_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[llm]\napi_key = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.AudioDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.LLM.APIKey,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
