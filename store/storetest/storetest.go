// Package storetest opens throwaway stores for package tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/billbatista/household-hub/store"
)

// New returns a migrated sqlite store in a per-test directory, closed when
// the test ends.
func New(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), store.Config{
		Driver: store.SQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
