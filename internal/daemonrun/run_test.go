package daemonrun

import (
	"path/filepath"
	"strings"
	"testing"

	"slidecast/internal/testsupport"
)

func TestSocketAndPIDPathsDeriveFromLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	socket := SocketPath(cfg)
	if filepath.Dir(socket) != cfg.Paths.LogDir {
		t.Fatalf("socket %q not under log dir %q", socket, cfg.Paths.LogDir)
	}
	if filepath.Base(socket) != "slidecast.sock" {
		t.Fatalf("unexpected socket name %q", socket)
	}

	pid := PIDPath(cfg)
	if filepath.Dir(pid) != cfg.Paths.LogDir {
		t.Fatalf("pid file %q not under log dir %q", pid, cfg.Paths.LogDir)
	}
	if filepath.Base(pid) != "slidecast.pid" {
		t.Fatalf("unexpected pid file name %q", pid)
	}
}

func TestSocketPathWithoutConfigFallsBack(t *testing.T) {
	socket := SocketPath(nil)
	if !strings.HasSuffix(socket, "slidecast.sock") {
		t.Fatalf("unexpected fallback socket %q", socket)
	}
}
