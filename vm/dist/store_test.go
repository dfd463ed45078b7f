package dist

import (
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "cache", "units.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	key := sha256.Sum256([]byte("a = 1"))
	c, err := NewChunk(key, "eval", sampleUnit(), []string{"a"})
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	if err := s.Put(c); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code.Listing() != c.Code.Listing() {
		t.Errorf("Listing = %q, want %q", got.Code.Listing(), c.Code.Listing())
	}
	if len(got.EvalLocals) != 1 || got.EvalLocals[0] != "a" {
		t.Errorf("EvalLocals = %v, want [a]", got.EvalLocals)
	}

	has, err := s.Has(key)
	if err != nil || !has {
		t.Errorf("Has = %v, %v; want true", has, err)
	}
	if n, _ := s.Len(); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestStore_Missing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(sha256.Sum256([]byte("missing")))
	if !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Get = %v, want ErrChunkNotFound", err)
	}
}

func TestStore_ReplaceAndDelete(t *testing.T) {
	s := openTestStore(t)
	key := sha256.Sum256([]byte("k"))
	first, _ := NewChunk(key, "eval", sampleUnit(), nil)
	second, _ := NewChunk(key, "eval", sampleUnit(), []string{"b"})
	if err := s.Put(first); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(second); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(); n != 1 {
		t.Errorf("Len after replace = %d, want 1", n)
	}
	got, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.EvalLocals) != 1 {
		t.Errorf("Get returned the replaced chunk")
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if has, _ := s.Has(key); has {
		t.Error("chunk still present after Delete")
	}
}

func TestStore_DiscardsMismatchedKey(t *testing.T) {
	s := openTestStore(t)
	stored := sha256.Sum256([]byte("stored"))
	other := sha256.Sum256([]byte("other"))
	c, _ := NewChunk(other, "eval", sampleUnit(), nil)
	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.db.Exec(
		"INSERT INTO chunks (key, kind, name, version, data) VALUES (?, ?, ?, ?, ?)",
		hexKey(stored), "eval", "x", 1, data,
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(stored); !errors.Is(err, ErrChunkNotFound) {
		t.Errorf("Get = %v, want ErrChunkNotFound", err)
	}
	if has, _ := s.Has(stored); has {
		t.Error("mismatched chunk was not discarded")
	}
}

func TestStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.db")
	key := sha256.Sum256([]byte("k"))

	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := NewChunk(key, "eval", sampleUnit(), nil)
	if err := s.Put(c); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(key); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}

func TestStore_Purge(t *testing.T) {
	s := openTestStore(t)
	for _, src := range []string{"a", "b", "c"} {
		c, _ := NewChunk(sha256.Sum256([]byte(src)), "eval", sampleUnit(), nil)
		if err := s.Put(c); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Purge()
	if err != nil || n != 3 {
		t.Errorf("Purge = %d, %v; want 3", n, err)
	}
	if left, _ := s.Len(); left != 0 {
		t.Errorf("Len after purge = %d", left)
	}
}
