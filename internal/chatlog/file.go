package chatlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the log in a single text file opened in append mode for
// every write.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// OpenFile returns a store backed by path. The parent directory is created;
// the file itself is created on first append.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("chat log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chat log directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the log file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(ctx context.Context, fragment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(fragment)
}

func (s *FileStore) ReadAll(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *FileStore) AppendAndRead(ctx context.Context, fragment string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendLocked(fragment); err != nil {
		return "", err
	}
	return s.readLocked()
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	log, err := s.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(Fragments(log)), nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) appendLocked(fragment string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open chat log: %w", err)
	}
	if _, err := f.WriteString(fragment); err != nil {
		_ = f.Close()
		return fmt.Errorf("append chat log: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync chat log: %w", err)
	}
	return f.Close()
}

// readLocked treats a missing file as an empty log.
func (s *FileStore) readLocked() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read chat log: %w", err)
	}
	return string(data), nil
}
