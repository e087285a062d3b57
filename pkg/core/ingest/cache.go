// File-based caching for fetched filing documents.
package ingest

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DocumentCache caches raw filing HTML on disk so repeated extraction runs
// do not re-hit SEC. Entries are keyed by CIK and accession number.
type DocumentCache struct {
	cacheDir string
}

// NewDocumentCache creates a cache under .cache/edgar/documents in the
// working directory.
func NewDocumentCache() *DocumentCache {
	return NewDocumentCacheWithDir(filepath.Join(".cache", "edgar", "documents"))
}

// NewDocumentCacheWithDir creates a cache rooted at dir. When the directory
// cannot be created every Set will fail and every Get will miss, so the
// warning is logged once here rather than on each operation.
func NewDocumentCacheWithDir(dir string) *DocumentCache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("[DocumentCache] Warning: could not create cache dir %s: %v", dir, err)
	}
	return &DocumentCache{cacheDir: dir}
}

func (c *DocumentCache) cacheKey(cik, accession string) string {
	return cik + "_" + strings.ReplaceAll(accession, "-", "")
}

func (c *DocumentCache) filePath(cik, accession string) string {
	return filepath.Join(c.cacheDir, c.cacheKey(cik, accession)+".htm")
}

// Get retrieves a cached document; nil when absent.
func (c *DocumentCache) Get(cik, accession string) []byte {
	data, err := os.ReadFile(c.filePath(cik, accession))
	if err != nil {
		return nil
	}
	return data
}

// Set stores a document in the cache.
func (c *DocumentCache) Set(cik, accession string, document []byte) error {
	return os.WriteFile(c.filePath(cik, accession), document, 0644)
}

// Has checks whether a document is cached.
func (c *DocumentCache) Has(cik, accession string) bool {
	_, err := os.Stat(c.filePath(cik, accession))
	return err == nil
}

// Clear removes every cached document.
func (c *DocumentCache) Clear() error {
	return os.RemoveAll(c.cacheDir)
}
