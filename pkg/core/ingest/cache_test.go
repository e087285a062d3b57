package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentCacheRoundTrip(t *testing.T) {
	cache := NewDocumentCacheWithDir(t.TempDir())

	cik := "0000320193"
	accession := "0000320193-24-000123"
	doc := []byte("<html><body>filing</body></html>")

	if cache.Has(cik, accession) {
		t.Fatal("empty cache should not report a hit")
	}
	if got := cache.Get(cik, accession); got != nil {
		t.Fatalf("empty cache returned data: %q", got)
	}

	if err := cache.Set(cik, accession, doc); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !cache.Has(cik, accession) {
		t.Error("cache should report a hit after Set")
	}
	if got := cache.Get(cik, accession); !bytes.Equal(got, doc) {
		t.Errorf("Get returned %q, want %q", got, doc)
	}

	// Dashes in the accession number must not change the key identity.
	if got := cache.Get(cik, "0000320193-24-000123"); !bytes.Equal(got, doc) {
		t.Error("dashed accession should hit the same entry")
	}
}

// A cache rooted at an uncreatable path degrades to a pass-through: Set
// reports the error, Get and Has report misses.
func TestDocumentCacheUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cache := NewDocumentCacheWithDir(filepath.Join(blocker, "sub"))

	if err := cache.Set("1", "acc-1", []byte("doc")); err == nil {
		t.Error("Set into an uncreatable dir should return an error")
	}
	if cache.Has("1", "acc-1") {
		t.Error("Has should report a miss")
	}
	if got := cache.Get("1", "acc-1"); got != nil {
		t.Errorf("Get should miss, returned %q", got)
	}
}

func TestDocumentCacheClear(t *testing.T) {
	cache := NewDocumentCacheWithDir(t.TempDir())
	cache.Set("1", "acc-1", []byte("x"))
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cache.Has("1", "acc-1") {
		t.Error("cache should be empty after Clear")
	}
}
