package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/goaltrack/internal/storage"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "goaltrack.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadBeforeInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := s.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("Load() err = %v, want ErrNotInitialized", err)
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goaltrack.db")
	s := NewStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := s.Put("goaltrack:u1:flag", "true"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get("goaltrack:u1:flag")
	if err != nil || !ok || v != "true" {
		t.Errorf("Get() = (%q, %v, %v), want (true, true, nil)", v, ok, err)
	}
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Put("k", "one"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Put("k", "two"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "two" {
		t.Errorf("Get() = (%q, %v, %v), want (two, true, nil)", v, ok, err)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("expected key to be gone after Delete()")
	}
}

func TestPrefixOperationsTreatWildcardsLiterally(t *testing.T) {
	s := setupTestStore(t)

	for _, k := range []string{"goaltrack:a_b:x", "goaltrack:a_b:y", "goaltrack:axb:x", "goaltrack:a%:x"} {
		if err := s.Put(k, "v"); err != nil {
			t.Fatalf("Put(%q) failed: %v", k, err)
		}
	}

	keys, err := s.Keys("goaltrack:a_b:")
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "goaltrack:a_b:x" || keys[1] != "goaltrack:a_b:y" {
		t.Errorf("Keys() = %v, want the two a_b keys", keys)
	}

	n, err := s.DeletePrefix("goaltrack:a_b:")
	if err != nil {
		t.Fatalf("DeletePrefix() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("DeletePrefix() removed %d, want 2", n)
	}
	if _, ok, _ := s.Get("goaltrack:axb:x"); !ok {
		t.Error("DeletePrefix() must not treat _ as a wildcard")
	}
}

func TestOperationsRequireLoad(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "x.db"))
	if _, _, err := s.Get("k"); err == nil {
		t.Error("Get() on an unloaded store should fail")
	}
	if err := s.Put("k", "v"); err == nil {
		t.Error("Put() on an unloaded store should fail")
	}
}
