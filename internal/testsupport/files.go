package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteMediaFile fills the target path with the given content, creating
// parent directories as needed. Used to stand in for audio files in tests.
func WriteMediaFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if len(content) == 0 {
		content = []byte("phonogram test media")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
