package cache

import (
	"os"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration, now *time.Time) *FileCache {
	t.Helper()
	c, err := New(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return *now }
	return c
}

func TestSetAndGet(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, time.Hour, &now)

	if _, fresh := c.Get("https://example.com/models"); fresh {
		t.Fatal("empty cache reported a fresh entry")
	}

	err := c.Set("https://example.com/models", &Entry{Body: []byte(`{"data":[]}`), ETag: `"v1"`, StatusCode: 200})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, fresh := c.Get("https://example.com/models")
	if !fresh {
		t.Fatal("expected a fresh entry")
	}
	if string(entry.Body) != `{"data":[]}` || entry.ETag != `"v1"` {
		t.Errorf("entry = %+v", entry)
	}
	if !entry.CachedAt.Equal(now) {
		t.Errorf("cached at = %v, want %v", entry.CachedAt, now)
	}
}

func TestExpiredEntryIsStale(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(t, time.Hour, &now)

	if err := c.Set("k", &Entry{Body: []byte("x"), ETag: `"v1"`}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Hour)

	entry, fresh := c.Get("k")
	if fresh {
		t.Error("expired entry reported fresh")
	}
	if entry == nil || entry.ETag != `"v1"` {
		t.Fatal("stale entry should still be returned for revalidation")
	}

	if err := c.Touch("k", entry); err != nil {
		t.Fatal(err)
	}
	if _, fresh := c.Get("k"); !fresh {
		t.Error("touched entry should be fresh again")
	}
}

func TestCorruptEntryIsDropped(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, time.Hour, &now)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if entry, _ := c.Get("k"); entry != nil {
		t.Error("corrupt entry should be a miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestDelete(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, time.Hour, &now)

	if err := c.Set("k", &Entry{Body: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if entry, _ := c.Get("k"); entry != nil {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}
