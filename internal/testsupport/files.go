package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteAudioFile drops a placeholder audio payload of the requested size at
// path, creating parent directories as needed. A size <= 0 writes one byte.
func WriteAudioFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	payload := bytes.Repeat([]byte{0x52, 0x49, 0x46, 0x46}, int(size/4)+1)
	if err := os.WriteFile(path, payload[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
