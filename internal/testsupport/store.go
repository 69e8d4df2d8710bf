package testsupport

import (
	"testing"

	"iconforge/internal/config"
	"iconforge/internal/runstore"
)

// MustOpenRunStore opens the run history for tests and registers cleanup.
func MustOpenRunStore(t testing.TB, cfg *config.Config) *runstore.Store {
	t.Helper()

	store, err := runstore.Open(cfg)
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
