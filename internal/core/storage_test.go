package core

import (
	"path/filepath"
	"testing"

	"manifestcore/internal/infra/persistence/memory"
	"manifestcore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("MANIFESTCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLiteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.db")
	t.Setenv("MANIFESTCORE_STORAGE_DRIVER", "")
	t.Setenv("MANIFESTCORE_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if s.Path() != path {
		t.Fatalf("sqlite path = %q, want %q", s.Path(), path)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("MANIFESTCORE_STORAGE_DRIVER", "tape")
	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
