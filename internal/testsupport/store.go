package testsupport

import (
	"context"
	"testing"

	"phonogram/internal/config"
	"phonogram/internal/registry"
)

// MustOpenStore opens a registry.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewWork creates a pending work for tests using the provided store.
func NewWork(t testing.TB, store *registry.Store, title, mediaPath string) *registry.Work {
	t.Helper()

	work, err := store.NewWork(context.Background(), title, "Test Creator", "0x00000000000000000000000000000000000000aa", mediaPath)
	if err != nil {
		t.Fatalf("store.NewWork: %v", err)
	}
	return work
}
