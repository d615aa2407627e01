package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResponseCache_RoundTrip(t *testing.T) {
	c := &ResponseCache{Dir: t.TempDir()}
	ctx := context.Background()
	key := KeyFrom("test-model", "prompt body")

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Save(ctx, key, []byte(`{"plans":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(b) != `{"plans":[]}` {
		t.Fatalf("unexpected payload: %s", b)
	}
}

func TestKeyFrom_DistinguishesModelAndPrompt(t *testing.T) {
	a := KeyFrom("m1", "p")
	b := KeyFrom("m2", "p")
	c := KeyFrom("m1", "q")
	if a == b || a == c {
		t.Fatalf("keys should differ: %s %s %s", a, b, c)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.json")
	fresh := filepath.Join(dir, "fresh.json")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fresh, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh entry should survive: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("old entry should be gone")
	}
}
