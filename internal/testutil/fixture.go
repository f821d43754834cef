// Package testutil provides fixtures and golden-file helpers for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// NewWebRoot creates a temporary web root holding files (name -> content)
// and returns its path.
func NewWebRoot(t *testing.T, files map[string]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "www")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("Failed to create web root: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	return root
}

// StubFetcher returns a fixed body or error and records requested URLs.
type StubFetcher struct {
	Body string
	Err  error

	mu    sync.Mutex
	urls  []string
	texts int
}

// Fetch records url and returns the configured body and error.
func (f *StubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Body, nil
}

// FetchText records url and returns the body, or "" when Err is set.
func (f *StubFetcher) FetchText(ctx context.Context, url string) string {
	body, err := f.Fetch(ctx, url)
	f.mu.Lock()
	f.texts++
	f.mu.Unlock()
	if err != nil {
		return ""
	}
	return body
}

// TextFetches returns how many fetches went through FetchText.
func (f *StubFetcher) TextFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts
}

// URLs returns the URLs fetched so far.
func (f *StubFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.urls))
	copy(out, f.urls)
	return out
}
