package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	if _, ok, err := s.Get("missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := s.Get("k"); !ok || v != "v2" {
		t.Fatalf("expected last write to win, got %q", v)
	}
	if err := s.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exercise(t, m)
	_ = m.Close()
	if err := m.Set("a", "b"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "linkguard.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	exercise(t, f)
	if err := f.Set("rate", `{"failed_attempts":2}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	again, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok, _ := again.Get("rate"); !ok || v != `{"failed_attempts":2}` {
		t.Fatalf("value not persisted: %q", v)
	}
	_ = again.Close()
	if _, _, err := again.Get("rate"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
